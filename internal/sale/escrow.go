package sale

import (
	"context"

	"token-sale-ledger/internal/addr"
	"token-sale-ledger/internal/domain"
	"token-sale-ledger/internal/numeric"
)

// checkEscrow validates that amount can be queued for dest without
// mutating anything. Caller must hold the operation lock.
func (l *Ledger) checkEscrow(dest addr.Address, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	if dest.IsZero() {
		return ErrZeroDestination
	}
	if _, err := numeric.Add(l.escrow[dest], amount); err != nil {
		return ErrInvalidParameter
	}
	if _, err := numeric.Add(l.totalEscrow, amount); err != nil {
		return ErrInvalidParameter
	}
	return nil
}

// queueEscrow credits a pull-payment balance. Caller must hold the
// operation lock and have passed checkEscrow.
func (l *Ledger) queueEscrow(dest addr.Address, amount uint64) {
	l.escrow[dest] += amount
	l.totalEscrow += amount
}

// Withdraw pays out the caller's full escrow balance. The entry is zeroed
// and the global total decremented before any value leaves the ledger.
func (l *Ledger) Withdraw(ctx context.Context, caller addr.Address) (uint64, error) {
	l.mu.Lock()

	if l.status.Paused {
		l.mu.Unlock()
		return 0, ErrPaused
	}
	amount := l.escrow[caller]
	if amount == 0 {
		l.mu.Unlock()
		return 0, ErrNoPayments
	}

	delete(l.escrow, caller)
	// Floor at zero rather than wrapping below; a wrapped total would
	// silently corrupt the reserved amount.
	l.totalEscrow = numeric.SubFloor(l.totalEscrow, amount)
	l.heldBalance = numeric.SubFloor(l.heldBalance, amount)

	l.mu.Unlock()

	if err := l.payer.Pay(ctx, caller, amount); err != nil {
		// Transfer failed after commit: restore the entry so the funds
		// stay withdrawable. Nothing left the ledger.
		l.mu.Lock()
		l.escrow[caller] += amount
		l.totalEscrow += amount
		l.heldBalance += amount
		l.mu.Unlock()
		return 0, err
	}

	l.mu.Lock()
	ev := l.nextEvent(domain.EventKindEscrowWithdrawn, caller, caller, amount, 0, -1)
	l.mu.Unlock()

	l.record(ctx, ev)
	return amount, nil
}

// BalanceOf returns the caller's withdrawable escrow balance.
func (l *Ledger) BalanceOf(caller addr.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.escrow[caller]
}

// TotalEscrowed returns the global reserved total.
func (l *Ledger) TotalEscrowed() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalEscrow
}

// WithdrawableProceeds returns the held balance minus the reserved escrow,
// the only portion an admin withdrawal may touch.
func (l *Ledger) WithdrawableProceeds() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return numeric.SubFloor(l.heldBalance, l.totalEscrow)
}
