package sale

import (
	"context"

	"token-sale-ledger/internal/addr"
	"token-sale-ledger/internal/domain"
	"token-sale-ledger/internal/numeric"
)

// Pause gates all mutating sale operations. EndSale stays allowed.
func (l *Ledger) Pause(ctx context.Context, actor addr.Address) error {
	l.mu.Lock()

	if err := l.requireAdmin(actor); err != nil {
		l.mu.Unlock()
		return err
	}
	if l.status.Paused {
		l.mu.Unlock()
		return ErrPaused
	}

	l.status.Paused = true
	ev := l.nextEvent(domain.EventKindSalePaused, actor, addr.Zero, 0, 0, -1)
	l.mu.Unlock()

	l.record(ctx, ev)
	return nil
}

// Unpause lifts the pause gate.
func (l *Ledger) Unpause(ctx context.Context, actor addr.Address) error {
	l.mu.Lock()

	if err := l.requireAdmin(actor); err != nil {
		l.mu.Unlock()
		return err
	}
	if !l.status.Paused {
		l.mu.Unlock()
		return ErrInvalidParameter
	}

	l.status.Paused = false
	ev := l.nextEvent(domain.EventKindSaleUnpaused, actor, addr.Zero, 0, 0, -1)
	l.mu.Unlock()

	l.record(ctx, ev)
	return nil
}

// SetSoftCap adjusts the soft cap. Rejected once the cap has been reached.
func (l *Ledger) SetSoftCap(ctx context.Context, actor addr.Address, v uint64) error {
	l.mu.Lock()

	if err := l.requireAdmin(actor); err != nil {
		l.mu.Unlock()
		return err
	}
	if l.status.SoftCapReached {
		l.mu.Unlock()
		return ErrSoftCapReached
	}
	if v == 0 {
		l.mu.Unlock()
		return ErrInvalidParameter
	}

	l.params.SoftCap = v
	ev := l.nextEvent(domain.EventKindParamUpdated, actor, addr.Zero, v, 0, -1)
	l.mu.Unlock()

	l.record(ctx, ev)
	return nil
}

// SetMinBuy adjusts the minimum contribution. Rejected after the sale ends.
func (l *Ledger) SetMinBuy(ctx context.Context, actor addr.Address, v uint64) error {
	l.mu.Lock()

	if err := l.requireAdmin(actor); err != nil {
		l.mu.Unlock()
		return err
	}
	if l.status.Ended {
		l.mu.Unlock()
		return ErrAlreadyEnded
	}

	l.params.MinBuy = v
	ev := l.nextEvent(domain.EventKindParamUpdated, actor, addr.Zero, v, 0, -1)
	l.mu.Unlock()

	l.record(ctx, ev)
	return nil
}

// SetMaxPerWallet adjusts the per-wallet cap. Rejected after the sale ends
// or below any account's current contribution.
func (l *Ledger) SetMaxPerWallet(ctx context.Context, actor addr.Address, v uint64) error {
	l.mu.Lock()

	if err := l.requireAdmin(actor); err != nil {
		l.mu.Unlock()
		return err
	}
	if l.status.Ended {
		l.mu.Unlock()
		return ErrAlreadyEnded
	}
	if v == 0 {
		l.mu.Unlock()
		return ErrInvalidParameter
	}
	for _, acct := range l.accounts {
		if acct.ContributedAmount > v {
			l.mu.Unlock()
			return ErrInvalidParameter
		}
	}

	l.params.MaxPerWallet = v
	ev := l.nextEvent(domain.EventKindParamUpdated, actor, addr.Zero, v, 0, -1)
	l.mu.Unlock()

	l.record(ctx, ev)
	return nil
}

// WithdrawProceeds pays sale proceeds to the admin. Reserved escrow is
// never touched: only heldBalance - totalEscrow is withdrawable.
func (l *Ledger) WithdrawProceeds(ctx context.Context, actor addr.Address, amount uint64) error {
	l.mu.Lock()

	if err := l.requireAdmin(actor); err != nil {
		l.mu.Unlock()
		return err
	}
	if amount == 0 {
		l.mu.Unlock()
		return ErrZeroAmount
	}
	withdrawable := numeric.SubFloor(l.heldBalance, l.totalEscrow)
	if amount > withdrawable {
		l.mu.Unlock()
		return ErrInsufficientProceeds
	}

	l.heldBalance -= amount
	l.mu.Unlock()

	if err := l.payer.Pay(ctx, actor, amount); err != nil {
		l.mu.Lock()
		l.heldBalance += amount
		l.mu.Unlock()
		return err
	}

	l.mu.Lock()
	ev := l.nextEvent(domain.EventKindProceedsWithdrawn, actor, actor, amount, 0, -1)
	l.mu.Unlock()

	l.record(ctx, ev)
	return nil
}
