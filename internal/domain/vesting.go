package domain

// VestingSchedule is one time-locked token grant released linearly after a
// cliff. Created by an admin action against a pre-funded balance, mutated
// by release/revoke, frozen (not deleted) after revocation.
type VestingSchedule struct {
	Beneficiary   string // base58 address of the grant recipient
	TotalAmount   uint64 // token units granted
	Released      uint64 // token units already transferred out
	StartTime     int64  // Unix timestamp in milliseconds
	Duration      int64  // total vesting period in milliseconds
	CliffDuration int64  // initial lock period in milliseconds, <= Duration
	Revocable     bool
	Revoked       bool
}
