package vesting

import (
	"context"

	"token-sale-ledger/internal/addr"
	"token-sale-ledger/internal/domain"
	"token-sale-ledger/internal/numeric"
)

// VestedAmount computes the vested portion of a schedule at nowMs.
//
// Zero before the cliff, the full grant at and after maturity, otherwise a
// linear interpolation computed as a quotient/remainder split:
//
//	vested = (total/duration)*elapsed + (total%duration)*elapsed/duration
//
// The split avoids the systematic precision loss of a naive single
// division at large grant sizes; the rounding at boundary instants is
// authoritative.
func VestedAmount(s *domain.VestingSchedule, nowMs int64) uint64 {
	if nowMs < s.StartTime+s.CliffDuration {
		return 0
	}
	if nowMs >= s.StartTime+s.Duration {
		return s.TotalAmount
	}

	elapsed := uint64(nowMs - s.StartTime)
	duration := uint64(s.Duration)
	quotient := s.TotalAmount / duration
	remainder := s.TotalAmount % duration

	// quotient*elapsed <= quotient*duration <= total, so this cannot
	// overflow; the remainder product goes through 256-bit math.
	fromRemainder, err := numeric.MulDiv(remainder, elapsed, duration)
	if err != nil {
		return quotient * elapsed
	}
	return quotient*elapsed + fromRemainder
}

// Releasable returns the amount currently transferable for a schedule,
// always zero once revoked.
func Releasable(s *domain.VestingSchedule, nowMs int64) uint64 {
	if s.Revoked {
		return 0
	}
	return numeric.SubFloor(VestedAmount(s, nowMs), s.Released)
}

// schedule resolves a per-beneficiary schedule id. Caller must hold the
// lock.
func (l *Ledger) schedule(beneficiary addr.Address, id int) (*domain.VestingSchedule, error) {
	list := l.schedules[beneficiary]
	if id < 0 || id >= len(list) {
		return nil, ErrInvalidScheduleID
	}
	return list[id], nil
}

// releaseOne commits a single schedule release and performs the transfer.
// Caller must NOT hold the lock.
func (l *Ledger) releaseOne(ctx context.Context, beneficiary addr.Address, id int) (uint64, error) {
	l.mu.Lock()

	s, err := l.schedule(beneficiary, id)
	if err != nil {
		l.mu.Unlock()
		return 0, err
	}
	if s.Revoked {
		l.mu.Unlock()
		return 0, ErrScheduleRevoked
	}
	amount := Releasable(s, l.now())
	if amount == 0 {
		l.mu.Unlock()
		return 0, ErrNothingToRelease
	}

	// Commit before the transfer can hand control away.
	s.Released += amount
	l.totalCommitted = numeric.SubFloor(l.totalCommitted, amount)
	l.funded = numeric.SubFloor(l.funded, amount)
	l.mu.Unlock()

	if err := l.issuer.Transfer(ctx, l.holder, beneficiary, amount); err != nil {
		l.mu.Lock()
		s.Released -= amount
		l.totalCommitted += amount
		l.funded += amount
		l.mu.Unlock()
		return 0, err
	}

	l.mu.Lock()
	ev := l.nextEvent(domain.EventKindTokensReleased, beneficiary, beneficiary, amount, int64(id))
	l.mu.Unlock()

	l.record(ctx, ev)
	return amount, nil
}

// ReleaseSchedule transfers the releasable amount of one schedule to its
// beneficiary.
func (l *Ledger) ReleaseSchedule(ctx context.Context, caller addr.Address, id int) (uint64, error) {
	return l.releaseOne(ctx, caller, id)
}

// ReleaseAll aggregates ReleaseSchedule over every non-revoked schedule of
// the caller. Fails with ErrNothingToRelease when the aggregate is zero.
func (l *Ledger) ReleaseAll(ctx context.Context, caller addr.Address) (uint64, error) {
	l.mu.Lock()
	count := len(l.schedules[caller])
	l.mu.Unlock()

	var total uint64
	for id := 0; id < count; id++ {
		amount, err := l.releaseOne(ctx, caller, id)
		switch err {
		case nil:
			total += amount
		case ErrScheduleRevoked, ErrNothingToRelease:
			// Skipped; the aggregate decides the outcome.
		default:
			return total, err
		}
	}

	if total == 0 {
		return 0, ErrNothingToRelease
	}
	return total, nil
}

// Revoke freezes a revocable schedule and reclaims its unvested remainder
// for the admin. The vested-but-unreleased portion stays frozen with the
// schedule.
func (l *Ledger) Revoke(ctx context.Context, actor, beneficiary addr.Address, id int) (uint64, error) {
	l.mu.Lock()

	if err := l.requireAdmin(actor); err != nil {
		l.mu.Unlock()
		return 0, err
	}
	s, err := l.schedule(beneficiary, id)
	if err != nil {
		l.mu.Unlock()
		return 0, err
	}
	if !s.Revocable {
		l.mu.Unlock()
		return 0, ErrNotRevocable
	}
	if s.Revoked {
		l.mu.Unlock()
		return 0, ErrAlreadyRevoked
	}

	unvested := numeric.SubFloor(s.TotalAmount, VestedAmount(s, l.now()))

	s.Revoked = true
	l.totalCommitted = numeric.SubFloor(l.totalCommitted, unvested)
	l.funded = numeric.SubFloor(l.funded, unvested)
	l.mu.Unlock()

	if unvested > 0 {
		if err := l.issuer.Transfer(ctx, l.holder, actor, unvested); err != nil {
			l.mu.Lock()
			s.Revoked = false
			l.totalCommitted += unvested
			l.funded += unvested
			l.mu.Unlock()
			return 0, err
		}
	}

	l.mu.Lock()
	ev := l.nextEvent(domain.EventKindVestingRevoked, actor, beneficiary, unvested, int64(id))
	l.mu.Unlock()

	l.record(ctx, ev)
	return unvested, nil
}
