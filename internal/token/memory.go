package token

import (
	"context"
	"errors"
	"sync"

	"token-sale-ledger/internal/addr"
	"token-sale-ledger/internal/numeric"
)

// Issuer errors.
var (
	// ErrInsufficientFunds is returned when a transfer exceeds the
	// sender's balance.
	ErrInsufficientFunds = errors.New("insufficient token balance")

	// ErrZeroDestination is returned for mints or transfers to the zero
	// address.
	ErrZeroDestination = errors.New("zero destination address")
)

// MemoryIssuer is an in-memory implementation of Issuer.
type MemoryIssuer struct {
	mu       sync.RWMutex
	balances map[addr.Address]uint64
	minted   uint64
}

// NewMemoryIssuer creates a new in-memory issuer with no supply.
func NewMemoryIssuer() *MemoryIssuer {
	return &MemoryIssuer{
		balances: make(map[addr.Address]uint64),
	}
}

var _ Issuer = (*MemoryIssuer)(nil)

// Mint creates amount new token units for to.
func (m *MemoryIssuer) Mint(_ context.Context, to addr.Address, amount uint64) error {
	if to.IsZero() {
		return ErrZeroDestination
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	minted, err := numeric.Add(m.minted, amount)
	if err != nil {
		return err
	}
	balance, err := numeric.Add(m.balances[to], amount)
	if err != nil {
		return err
	}

	m.minted = minted
	m.balances[to] = balance
	return nil
}

// Transfer moves amount token units from one holder to another.
func (m *MemoryIssuer) Transfer(_ context.Context, from, to addr.Address, amount uint64) error {
	if to.IsZero() {
		return ErrZeroDestination
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.balances[from] < amount {
		return ErrInsufficientFunds
	}
	balance, err := numeric.Add(m.balances[to], amount)
	if err != nil {
		return err
	}

	m.balances[from] -= amount
	m.balances[to] = balance
	return nil
}

// BalanceOf returns the current holdings of an address.
func (m *MemoryIssuer) BalanceOf(_ context.Context, holder addr.Address) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[holder], nil
}

// TotalMinted returns the cumulative minted supply.
func (m *MemoryIssuer) TotalMinted() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.minted
}
