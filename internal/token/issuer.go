// Package token defines the mint/transfer primitive consumed by the sale
// and vesting ledgers, plus an in-memory implementation.
package token

import (
	"context"

	"token-sale-ledger/internal/addr"
)

// Issuer exposes the token mint/transfer primitive. The claim path mints;
// the vesting path transfers from a pre-funded balance and never mints.
type Issuer interface {
	// Mint creates amount new token units for to.
	Mint(ctx context.Context, to addr.Address, amount uint64) error

	// Transfer moves amount token units from one holder to another.
	// Fails if from holds less than amount.
	Transfer(ctx context.Context, from, to addr.Address, amount uint64) error

	// BalanceOf returns the current holdings of an address.
	BalanceOf(ctx context.Context, holder addr.Address) (uint64, error)
}
