package sale

import (
	"context"

	"token-sale-ledger/internal/addr"
	"token-sale-ledger/internal/domain"
)

// AddPhase appends a new phase and returns its index. The window must lie
// strictly in the future and must not intersect any existing phase.
func (l *Ledger) AddPhase(ctx context.Context, actor addr.Address, unitPrice, supply uint64, windowStart, windowEnd int64) (int, error) {
	l.mu.Lock()

	if err := l.requireAdmin(actor); err != nil {
		l.mu.Unlock()
		return 0, err
	}
	if unitPrice == 0 || supply == 0 {
		l.mu.Unlock()
		return 0, ErrInvalidParameter
	}
	now := l.now()
	if windowStart <= now || windowEnd <= windowStart {
		l.mu.Unlock()
		return 0, ErrInvalidParameter
	}
	for _, p := range l.phases {
		if p.Overlaps(windowStart, windowEnd) {
			l.mu.Unlock()
			return 0, ErrOverlappingPhase
		}
	}

	phase := &domain.Phase{
		Index:       len(l.phases),
		UnitPrice:   unitPrice,
		Supply:      supply,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
	}
	l.phases = append(l.phases, phase)

	ev := l.nextEvent(domain.EventKindPhaseAdded, actor, addr.Zero, unitPrice, supply, int64(phase.Index))
	l.mu.Unlock()

	l.record(ctx, ev)
	return phase.Index, nil
}

// UpdatePhase moves a phase window. Permitted only while the phase has not
// yet started; the new window is re-validated against all other phases.
func (l *Ledger) UpdatePhase(ctx context.Context, actor addr.Address, index int, newStart, newEnd int64) error {
	l.mu.Lock()

	if err := l.requireAdmin(actor); err != nil {
		l.mu.Unlock()
		return err
	}
	if index < 0 || index >= len(l.phases) {
		l.mu.Unlock()
		return ErrInvalidParameter
	}
	phase := l.phases[index]
	now := l.now()
	if phase.WindowStart <= now {
		l.mu.Unlock()
		return ErrPhaseStarted
	}
	if newStart <= now || newEnd <= newStart {
		l.mu.Unlock()
		return ErrInvalidParameter
	}
	for _, p := range l.phases {
		if p.Index != index && p.Overlaps(newStart, newEnd) {
			l.mu.Unlock()
			return ErrOverlappingPhase
		}
	}

	phase.WindowStart = newStart
	phase.WindowEnd = newEnd

	ev := l.nextEvent(domain.EventKindPhaseUpdated, actor, addr.Zero, 0, 0, int64(index))
	l.mu.Unlock()

	l.record(ctx, ev)
	return nil
}

// currentPhase returns the first phase able to serve a purchase at nowMs,
// or nil. Caller must hold the operation lock.
func (l *Ledger) currentPhase(nowMs int64) *domain.Phase {
	for _, p := range l.phases {
		if p.Active(nowMs) {
			return p
		}
	}
	return nil
}

// CurrentPhase is the non-erroring lookup: it returns a copy of the active
// phase at nowMs, or false when none is found.
func (l *Ledger) CurrentPhase(nowMs int64) (domain.Phase, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if p := l.currentPhase(nowMs); p != nil {
		return *p, true
	}
	return domain.Phase{}, false
}

// MustCurrentPhase is the erroring variant of CurrentPhase.
func (l *Ledger) MustCurrentPhase(nowMs int64) (domain.Phase, error) {
	p, ok := l.CurrentPhase(nowMs)
	if !ok {
		return domain.Phase{}, ErrNoActivePhase
	}
	return p, nil
}

// Phases returns a copy of the phase list.
func (l *Ledger) Phases() []domain.Phase {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.Phase, len(l.phases))
	for i, p := range l.phases {
		out[i] = *p
	}
	return out
}
