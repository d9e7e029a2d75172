// Package sale implements the fundraising ledger: phase registry, buy
// engine, escrow, lifecycle gating and claim/refund switching.
//
// The ledger is single-writer: every mutating operation runs to completion
// under one mutex. All internal state changes are committed before any
// external value transfer, so a transfer that briefly returns control to
// other code only ever observes fully committed state.
package sale

import (
	"context"
	"sync"
	"time"

	"token-sale-ledger/internal/addr"
	"token-sale-ledger/internal/domain"
	"token-sale-ledger/internal/idhash"
	"token-sale-ledger/internal/token"
)

// Recorder receives one durable record per state transition. Sink failures
// are the sink's responsibility; the ledger never rolls back on them.
type Recorder interface {
	Record(ctx context.Context, ev *domain.SaleEvent)
}

// Payer sends base currency out of the ledger's held balance. Invoked only
// after the corresponding state change is committed.
type Payer interface {
	Pay(ctx context.Context, to addr.Address, amount uint64) error
}

// Config carries the ledger's construction parameters.
type Config struct {
	Admin  addr.Address
	Params domain.SaleParams

	Issuer   token.Issuer
	Payer    Payer
	Recorder Recorder

	// Now returns the current time in Unix milliseconds. Defaults to the
	// wall clock.
	Now func() int64
}

// Ledger is the aggregate sale state store. All operations go through it;
// there are no module-level singletons.
type Ledger struct {
	mu sync.Mutex

	admin  addr.Address
	params domain.SaleParams
	status domain.SaleStatus

	phases   []*domain.Phase
	accounts map[addr.Address]*domain.Account
	escrow   map[addr.Address]uint64
	buyers   map[addr.Address]struct{}

	totalRaised     uint64
	totalTokensSold uint64
	totalEscrow     uint64
	heldBalance     uint64

	seq uint64

	issuer   token.Issuer
	payer    Payer
	recorder Recorder
	now      func() int64
}

// NewLedger creates a sale ledger in the Open state.
func NewLedger(cfg Config) *Ledger {
	now := cfg.Now
	if now == nil {
		now = func() int64 { return time.Now().UnixMilli() }
	}
	return &Ledger{
		admin:    cfg.Admin,
		params:   cfg.Params,
		accounts: make(map[addr.Address]*domain.Account),
		escrow:   make(map[addr.Address]uint64),
		buyers:   make(map[addr.Address]struct{}),
		issuer:   cfg.Issuer,
		payer:    cfg.Payer,
		recorder: cfg.Recorder,
		now:      now,
	}
}

// requireAdmin checks the single-principal capability for admin-gated
// mutations.
func (l *Ledger) requireAdmin(actor addr.Address) error {
	if actor != l.admin || actor.IsZero() {
		return ErrUnauthorized
	}
	return nil
}

// nextEvent builds the durable record for a committed transition. Must be
// called with the operation lock held so sequence numbers stay monotonic.
func (l *Ledger) nextEvent(kind string, actor, beneficiary addr.Address, baseAmount, tokenAmount uint64, refID int64) *domain.SaleEvent {
	l.seq++
	ts := l.now()
	return &domain.SaleEvent{
		EventID:     idhash.ComputeEventID(l.seq, kind, actor.String(), beneficiary.String(), baseAmount, tokenAmount, refID, ts),
		Seq:         l.seq,
		Kind:        kind,
		Actor:       actor.String(),
		Beneficiary: beneficiary.String(),
		BaseAmount:  baseAmount,
		TokenAmount: tokenAmount,
		RefID:       refID,
		Timestamp:   ts,
	}
}

// record forwards committed events to the configured sink.
func (l *Ledger) record(ctx context.Context, events ...*domain.SaleEvent) {
	if l.recorder == nil {
		return
	}
	for _, ev := range events {
		l.recorder.Record(ctx, ev)
	}
}

// account returns the actor's account, creating it lazily.
func (l *Ledger) account(a addr.Address) *domain.Account {
	acct, ok := l.accounts[a]
	if !ok {
		acct = &domain.Account{}
		l.accounts[a] = acct
	}
	return acct
}

// Account returns a copy of the actor's current position.
func (l *Ledger) Account(a addr.Address) domain.Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	if acct, ok := l.accounts[a]; ok {
		return *acct
	}
	return domain.Account{}
}

// Status returns the current lifecycle state.
func (l *Ledger) Status() domain.SaleStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// Params returns the current sale parameters.
func (l *Ledger) Params() domain.SaleParams {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.params
}

// TotalRaised returns the cumulative accepted base-currency amount.
func (l *Ledger) TotalRaised() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalRaised
}

// TotalTokensSold returns the cumulative allocated token units, claimed
// plus still pending.
func (l *Ledger) TotalTokensSold() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalTokensSold
}

// HeldBalance returns the base currency currently held by the ledger.
func (l *Ledger) HeldBalance() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.heldBalance
}

// BuyerCount returns the cardinality of the unique-buyer set.
func (l *Ledger) BuyerCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buyers)
}
