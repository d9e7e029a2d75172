package domain

// Account holds the per-contributor position in the sale. Created lazily on
// first purchase, mutated by buy/claim/refund, never deleted.
type Account struct {
	ContributedAmount uint64 // cumulative accepted base-currency amount, <= maxPerWallet
	PendingTokens     uint64 // accrued token units not yet claimed
}

// EscrowEntry is a per-address withdrawable base-currency balance. Entries
// are incremented on purchase overpay and failed-sale refunds, and zeroed
// on withdrawal.
type EscrowEntry struct {
	Balance uint64
}
