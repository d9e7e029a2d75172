package reporting

import "time"

// Report represents the sale report structure.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	EventCount  int

	// Sale Summary
	Summary SaleSummary

	// Phase rows (sorted by index)
	Phases []PhaseRow

	// Activity rows, one per event kind that occurred (sorted by kind)
	Activity []ActivityRow

	// Buyer rows derived from the event stream (sorted by address)
	Buyers []BuyerRow
}

// SaleSummary contains overall sale state.
type SaleSummary struct {
	Ended           bool
	SoftCapReached  bool
	Paused          bool
	SoftCap         uint64
	MinBuy          uint64
	MaxPerWallet    uint64
	TokenUnit       uint64
	TotalRaised     uint64
	TotalTokensSold uint64
	TotalEscrowed   uint64
	HeldBalance     uint64
	BuyerCount      int
}

// PhaseRow represents one phase in the phase table.
type PhaseRow struct {
	Index       int
	UnitPrice   uint64
	Supply      uint64
	Sold        uint64
	Remaining   uint64
	WindowStart int64 // Unix ms
	WindowEnd   int64 // Unix ms
}

// ActivityRow summarizes one event kind.
type ActivityRow struct {
	Kind       string
	Count      int
	BaseTotal  uint64
	TokenTotal uint64
}

// BuyerRow summarizes one buyer's history.
type BuyerRow struct {
	Address       string
	Purchases     int
	Contributed   uint64
	TokensBought  uint64
	TokensClaimed uint64
	Refunded      uint64
}
