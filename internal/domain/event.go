package domain

// SaleEvent is one durable record of a state transition. Exactly one event
// is emitted per transition, carrying enough detail for an external indexer
// to reconstruct full history.
type SaleEvent struct {
	EventID     string // deterministic SHA256 hash, hex-encoded
	Seq         uint64 // monotonic sequence number within the ledger
	Kind        string // one of the EventKind* constants
	Actor       string // base58 address that triggered the transition
	Beneficiary string // counterparty address, empty when not applicable
	BaseAmount  uint64 // base-currency amount involved, 0 when not applicable
	TokenAmount uint64 // token units involved, 0 when not applicable
	RefID       int64  // phase index or schedule id, -1 when not applicable
	Timestamp   int64  // transition time, Unix milliseconds
}

// Event kind constants, one per state transition.
const (
	EventKindPhaseAdded        = "phase_added"
	EventKindPhaseUpdated      = "phase_updated"
	EventKindPurchaseAccepted  = "purchase_accepted"
	EventKindSoftCapReached    = "soft_cap_reached"
	EventKindSaleEnded         = "sale_ended"
	EventKindClaimPaid         = "claim_paid"
	EventKindRefundRequested   = "refund_requested"
	EventKindEscrowQueued      = "escrow_queued"
	EventKindEscrowWithdrawn   = "escrow_withdrawn"
	EventKindProceedsWithdrawn = "proceeds_withdrawn"
	EventKindSalePaused        = "sale_paused"
	EventKindSaleUnpaused      = "sale_unpaused"
	EventKindParamUpdated      = "param_updated"
	EventKindVestingFunded     = "vesting_funded"
	EventKindVestingCreated    = "vesting_created"
	EventKindTokensReleased    = "tokens_released"
	EventKindVestingRevoked    = "vesting_revoked"
)
