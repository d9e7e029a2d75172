package token

import (
	"context"
	"sync"

	"token-sale-ledger/internal/addr"
	"token-sale-ledger/internal/numeric"
)

// MemoryBank is an in-memory base-currency ledger. It backs outgoing
// payments (escrow withdrawals, proceeds) in deployments without a real
// payment rail.
type MemoryBank struct {
	mu       sync.RWMutex
	balances map[addr.Address]uint64
	paidOut  uint64
}

// NewMemoryBank creates a new in-memory bank.
func NewMemoryBank() *MemoryBank {
	return &MemoryBank{
		balances: make(map[addr.Address]uint64),
	}
}

// Pay credits amount base-currency units to the recipient.
func (b *MemoryBank) Pay(_ context.Context, to addr.Address, amount uint64) error {
	if to.IsZero() {
		return ErrZeroDestination
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	balance, err := numeric.Add(b.balances[to], amount)
	if err != nil {
		return err
	}
	paid, err := numeric.Add(b.paidOut, amount)
	if err != nil {
		return err
	}

	b.balances[to] = balance
	b.paidOut = paid
	return nil
}

// BalanceOf returns the amount paid to an address so far.
func (b *MemoryBank) BalanceOf(holder addr.Address) uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.balances[holder]
}

// TotalPaidOut returns the cumulative paid amount.
func (b *MemoryBank) TotalPaidOut() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.paidOut
}
