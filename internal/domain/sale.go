package domain

// SaleParams are the admin-tunable sale parameters. Each setter is
// restricted to apply only before the corresponding threshold has been
// crossed.
type SaleParams struct {
	SoftCap      uint64 // minimum cumulative raise for the sale to succeed
	MinBuy       uint64 // smallest accepted contribution, base-currency units
	MaxPerWallet uint64 // per-account cumulative contribution cap
	TokenUnit    uint64 // 10^decimals, smallest token units per whole token
}

// SaleStatus is the one-way lifecycle outcome of the sale.
type SaleStatus struct {
	Ended          bool // false -> true, irreversible
	SoftCapReached bool // false -> true once cumulative raised >= SoftCap
	Paused         bool // admin-toggled gate on mutating operations
}
