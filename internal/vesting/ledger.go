// Package vesting implements time-locked token grants released linearly
// after a cliff, with optional revocation. The ledger transfers from its
// own pre-funded balance and never mints.
package vesting

import (
	"context"
	"sync"
	"time"

	"token-sale-ledger/internal/addr"
	"token-sale-ledger/internal/domain"
	"token-sale-ledger/internal/idhash"
	"token-sale-ledger/internal/numeric"
	"token-sale-ledger/internal/token"
)

// Recorder receives one durable record per state transition.
type Recorder interface {
	Record(ctx context.Context, ev *domain.SaleEvent)
}

// Config carries the ledger's construction parameters.
type Config struct {
	Admin addr.Address

	// Holder is the address whose token balance backs all grants. The
	// ledger transfers out of it on release and revocation.
	Holder addr.Address

	Issuer   token.Issuer
	Recorder Recorder

	// Now returns the current time in Unix milliseconds. Defaults to the
	// wall clock.
	Now func() int64
}

// Ledger manages independent per-beneficiary vesting schedules. Like the
// sale ledger it is single-writer: one mutex, effects committed before any
// token transfer.
type Ledger struct {
	mu sync.Mutex

	admin  addr.Address
	holder addr.Address

	schedules map[addr.Address][]*domain.VestingSchedule

	funded         uint64 // tokens transferred into the holder, bookkept here
	totalCommitted uint64 // outstanding grant obligations

	seq uint64

	issuer   token.Issuer
	recorder Recorder
	now      func() int64
}

// NewLedger creates an empty vesting ledger.
func NewLedger(cfg Config) *Ledger {
	now := cfg.Now
	if now == nil {
		now = func() int64 { return time.Now().UnixMilli() }
	}
	return &Ledger{
		admin:     cfg.Admin,
		holder:    cfg.Holder,
		schedules: make(map[addr.Address][]*domain.VestingSchedule),
		issuer:    cfg.Issuer,
		recorder:  cfg.Recorder,
		now:       now,
	}
}

func (l *Ledger) requireAdmin(actor addr.Address) error {
	if actor != l.admin || actor.IsZero() {
		return ErrUnauthorized
	}
	return nil
}

func (l *Ledger) nextEvent(kind string, actor, beneficiary addr.Address, tokenAmount uint64, refID int64) *domain.SaleEvent {
	l.seq++
	ts := l.now()
	return &domain.SaleEvent{
		EventID:     idhash.ComputeEventID(l.seq, kind, actor.String(), beneficiary.String(), 0, tokenAmount, refID, ts),
		Seq:         l.seq,
		Kind:        kind,
		Actor:       actor.String(),
		Beneficiary: beneficiary.String(),
		TokenAmount: tokenAmount,
		RefID:       refID,
		Timestamp:   ts,
	}
}

func (l *Ledger) record(ctx context.Context, events ...*domain.SaleEvent) {
	if l.recorder == nil {
		return
	}
	for _, ev := range events {
		l.recorder.Record(ctx, ev)
	}
}

// Fund moves amount tokens from the admin into the backing balance. Grants
// can only be promised against funds already held.
func (l *Ledger) Fund(ctx context.Context, actor addr.Address, amount uint64) error {
	l.mu.Lock()
	if err := l.requireAdmin(actor); err != nil {
		l.mu.Unlock()
		return err
	}
	if amount == 0 {
		l.mu.Unlock()
		return ErrInvalidParameter
	}
	if _, err := numeric.Add(l.funded, amount); err != nil {
		l.mu.Unlock()
		return ErrInvalidParameter
	}
	l.mu.Unlock()

	// Incoming transfer first: the balance must exist before it is
	// bookkept as available.
	if err := l.issuer.Transfer(ctx, actor, l.holder, amount); err != nil {
		return err
	}

	// Releases and revocations may have committed while the transfer was in
	// flight, so the funded counter is re-read and re-added here rather than
	// written from the snapshot taken above.
	l.mu.Lock()
	funded, err := numeric.Add(l.funded, amount)
	if err != nil {
		l.mu.Unlock()
		return ErrInvalidParameter
	}
	l.funded = funded
	ev := l.nextEvent(domain.EventKindVestingFunded, actor, l.holder, amount, -1)
	l.mu.Unlock()

	l.record(ctx, ev)
	return nil
}

// CreateVesting appends a schedule for beneficiary. The ledger must already
// hold enough pre-funded tokens to cover every outstanding commitment plus
// the new grant. Returns the per-beneficiary schedule id.
func (l *Ledger) CreateVesting(ctx context.Context, actor, beneficiary addr.Address, totalAmount uint64, start, duration, cliff int64, revocable bool) (int, error) {
	l.mu.Lock()

	if err := l.requireAdmin(actor); err != nil {
		l.mu.Unlock()
		return 0, err
	}
	if beneficiary.IsZero() || totalAmount == 0 || duration <= 0 || cliff < 0 || cliff > duration {
		l.mu.Unlock()
		return 0, ErrInvalidParameter
	}
	if start < l.now() {
		l.mu.Unlock()
		return 0, ErrInvalidParameter
	}
	newCommitted, err := numeric.Add(l.totalCommitted, totalAmount)
	if err != nil || l.funded < newCommitted {
		l.mu.Unlock()
		return 0, ErrInsufficientBalance
	}

	s := &domain.VestingSchedule{
		Beneficiary:   beneficiary.String(),
		TotalAmount:   totalAmount,
		StartTime:     start,
		Duration:      duration,
		CliffDuration: cliff,
		Revocable:     revocable,
	}
	l.schedules[beneficiary] = append(l.schedules[beneficiary], s)
	id := len(l.schedules[beneficiary]) - 1
	l.totalCommitted = newCommitted

	ev := l.nextEvent(domain.EventKindVestingCreated, actor, beneficiary, totalAmount, int64(id))
	l.mu.Unlock()

	l.record(ctx, ev)
	return id, nil
}

// TotalCommitted returns the outstanding grant obligations.
func (l *Ledger) TotalCommitted() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalCommitted
}

// Funded returns the bookkept backing balance.
func (l *Ledger) Funded() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.funded
}

// Schedules returns copies of the beneficiary's schedules.
func (l *Ledger) Schedules(beneficiary addr.Address) []domain.VestingSchedule {
	l.mu.Lock()
	defer l.mu.Unlock()

	list := l.schedules[beneficiary]
	out := make([]domain.VestingSchedule, len(list))
	for i, s := range list {
		out[i] = *s
	}
	return out
}
