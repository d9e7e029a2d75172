package sale

import (
	"context"

	"token-sale-ledger/internal/addr"
	"token-sale-ledger/internal/domain"
	"token-sale-ledger/internal/numeric"
)

// Quote is the outcome of the purchase arithmetic for one contribution.
type Quote struct {
	PhaseIndex int    // phase the purchase resolves against
	Tokens     uint64 // token units allocated (partial fill applied)
	Cost       uint64 // base-currency cost re-priced against Tokens
	Excess     uint64 // overpayment queued into escrow
}

// quote runs the purchase arithmetic against the current state without
// mutating anything. Caller must hold the operation lock. Buy commits
// exactly what quote computes, so a preview with no intervening state
// change matches the following purchase.
func (l *Ledger) quote(sender addr.Address, amount uint64, nowMs int64) (Quote, *domain.Phase, error) {
	if l.status.Ended {
		return Quote{}, nil, ErrSaleEnded
	}
	if l.status.Paused {
		return Quote{}, nil, ErrPaused
	}
	if amount < l.params.MinBuy {
		return Quote{}, nil, ErrBelowMinimum
	}

	phase := l.currentPhase(nowMs)
	if phase == nil {
		return Quote{}, nil, ErrNoActivePhase
	}

	// Truncating division is intentional: the remainder is the sole
	// source of dust loss.
	tokensRequested, err := numeric.MulDiv(amount, l.params.TokenUnit, phase.UnitPrice)
	if err != nil {
		return Quote{}, nil, ErrInvalidParameter
	}
	if tokensRequested == 0 {
		return Quote{}, nil, ErrZeroTokens
	}

	// Partial fill at the phase boundary.
	tokensAllocated := tokensRequested
	if available := phase.Remaining(); tokensAllocated > available {
		tokensAllocated = available
	}

	// Re-price against the allocated quantity rather than trusting the
	// requested cost, so a partial fill never overcharges.
	cost, err := numeric.MulDiv(tokensAllocated, phase.UnitPrice, l.params.TokenUnit)
	if err != nil {
		return Quote{}, nil, ErrInvalidParameter
	}

	acct := l.accounts[sender]
	var contributed uint64
	if acct != nil {
		contributed = acct.ContributedAmount
	}
	newContributed, err := numeric.Add(contributed, cost)
	if err != nil || newContributed > l.params.MaxPerWallet {
		return Quote{}, nil, ErrWalletCapExceeded
	}

	return Quote{
		PhaseIndex: phase.Index,
		Tokens:     tokensAllocated,
		Cost:       cost,
		Excess:     amount - cost,
	}, phase, nil
}

// Preview computes tokens, cost and excess for a contribution of amount
// without mutating any state.
func (l *Ledger) Preview(sender addr.Address, amount uint64) (Quote, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	q, _, err := l.quote(sender, amount, l.now())
	return q, err
}

// Buy accepts a contribution of amount base-currency units from sender.
// Validation happens before any mutation; all effects commit atomically;
// no external call is made.
func (l *Ledger) Buy(ctx context.Context, sender addr.Address, amount uint64) (Quote, error) {
	if sender.IsZero() {
		return Quote{}, ErrZeroDestination
	}

	l.mu.Lock()

	q, phase, err := l.quote(sender, amount, l.now())
	if err != nil {
		l.mu.Unlock()
		return Quote{}, err
	}

	// Pre-validate every running total so a failed operation is a
	// complete no-op.
	newRaised, err := numeric.Add(l.totalRaised, q.Cost)
	if err != nil {
		l.mu.Unlock()
		return Quote{}, ErrInvalidParameter
	}
	newSold, err := numeric.Add(l.totalTokensSold, q.Tokens)
	if err != nil {
		l.mu.Unlock()
		return Quote{}, ErrInvalidParameter
	}
	newHeld, err := numeric.Add(l.heldBalance, amount)
	if err != nil {
		l.mu.Unlock()
		return Quote{}, ErrInvalidParameter
	}
	if q.Excess > 0 {
		if err := l.checkEscrow(sender, q.Excess); err != nil {
			l.mu.Unlock()
			return Quote{}, err
		}
	}

	// Commit.
	phase.Sold += q.Tokens
	l.totalRaised = newRaised
	l.totalTokensSold = newSold
	l.heldBalance = newHeld
	acct := l.account(sender)
	acct.ContributedAmount += q.Cost
	acct.PendingTokens += q.Tokens
	l.buyers[sender] = struct{}{}

	events := []*domain.SaleEvent{
		l.nextEvent(domain.EventKindPurchaseAccepted, sender, addr.Zero, q.Cost, q.Tokens, int64(q.PhaseIndex)),
	}
	if q.Excess > 0 {
		l.queueEscrow(sender, q.Excess)
		events = append(events, l.nextEvent(domain.EventKindEscrowQueued, sender, sender, q.Excess, 0, -1))
	}

	// Soft-cap latch: fires at most once.
	if !l.status.SoftCapReached && l.totalRaised >= l.params.SoftCap {
		l.status.SoftCapReached = true
		events = append(events, l.nextEvent(domain.EventKindSoftCapReached, sender, addr.Zero, l.totalRaised, 0, -1))
	}

	l.mu.Unlock()

	l.record(ctx, events...)
	return q, nil
}
