package sale

import (
	"context"

	"token-sale-ledger/internal/addr"
	"token-sale-ledger/internal/domain"
)

// EndSale performs the one-way Open -> Ended transition, carrying whatever
// soft-cap outcome has been latched. Irreversible.
func (l *Ledger) EndSale(ctx context.Context, actor addr.Address) error {
	l.mu.Lock()

	if err := l.requireAdmin(actor); err != nil {
		l.mu.Unlock()
		return err
	}
	if l.status.Ended {
		l.mu.Unlock()
		return ErrAlreadyEnded
	}

	l.status.Ended = true

	var outcome uint64
	if l.status.SoftCapReached {
		outcome = 1
	}
	ev := l.nextEvent(domain.EventKindSaleEnded, actor, addr.Zero, l.totalRaised, outcome, -1)
	l.mu.Unlock()

	l.record(ctx, ev)
	return nil
}

// Claim converts the caller's pending allocation into an actual token mint.
// Only available once the sale ended successfully.
func (l *Ledger) Claim(ctx context.Context, caller addr.Address) (uint64, error) {
	l.mu.Lock()

	if l.status.Paused {
		l.mu.Unlock()
		return 0, ErrPaused
	}
	if !l.status.Ended {
		l.mu.Unlock()
		return 0, ErrSaleNotEnded
	}
	if !l.status.SoftCapReached {
		l.mu.Unlock()
		return 0, ErrSoftCapNotReached
	}
	acct := l.accounts[caller]
	if acct == nil || acct.PendingTokens == 0 {
		l.mu.Unlock()
		return 0, ErrNothingToClaim
	}

	amount := acct.PendingTokens
	acct.PendingTokens = 0

	l.mu.Unlock()

	// Effects before interactions: the allocation is zeroed before the
	// mint call can hand control to anyone else.
	if err := l.issuer.Mint(ctx, caller, amount); err != nil {
		l.mu.Lock()
		acct.PendingTokens += amount
		l.mu.Unlock()
		return 0, err
	}

	l.mu.Lock()
	ev := l.nextEvent(domain.EventKindClaimPaid, caller, caller, 0, amount, -1)
	l.mu.Unlock()

	l.record(ctx, ev)
	return amount, nil
}

// RequestRefund converts the caller's contribution into an escrow entry.
// Only available once the sale ended unsuccessfully.
func (l *Ledger) RequestRefund(ctx context.Context, caller addr.Address) (uint64, error) {
	l.mu.Lock()

	if l.status.Paused {
		l.mu.Unlock()
		return 0, ErrPaused
	}
	if !l.status.Ended {
		l.mu.Unlock()
		return 0, ErrSaleNotEnded
	}
	if l.status.SoftCapReached {
		l.mu.Unlock()
		return 0, ErrSoftCapReached
	}
	acct := l.accounts[caller]
	if acct == nil || acct.ContributedAmount == 0 {
		l.mu.Unlock()
		return 0, ErrNothingToRefund
	}
	amount := acct.ContributedAmount
	if err := l.checkEscrow(caller, amount); err != nil {
		l.mu.Unlock()
		return 0, err
	}

	acct.ContributedAmount = 0
	acct.PendingTokens = 0
	l.queueEscrow(caller, amount)

	events := []*domain.SaleEvent{
		l.nextEvent(domain.EventKindRefundRequested, caller, caller, amount, 0, -1),
		l.nextEvent(domain.EventKindEscrowQueued, caller, caller, amount, 0, -1),
	}
	l.mu.Unlock()

	l.record(ctx, events...)
	return amount, nil
}
