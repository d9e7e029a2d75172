package sale

import (
	"context"
	"sync"

	"token-sale-ledger/internal/addr"
	"token-sale-ledger/internal/domain"
	"token-sale-ledger/internal/token"
)

// Millisecond timestamps used across the tests.
const (
	t0     = int64(1_700_000_000_000)
	oneDay = int64(24 * 60 * 60 * 1000)
)

var (
	admin  = addr.Address("AdminAddress11111111111111111111")
	buyer1 = addr.Address("Buyer1Address1111111111111111111")
	buyer2 = addr.Address("Buyer2Address1111111111111111111")
	buyer3 = addr.Address("Buyer3Address1111111111111111111")
)

// fakeClock is a manually advanced millisecond clock.
type fakeClock struct {
	ms int64
}

func (c *fakeClock) now() int64 { return c.ms }

// captureRecorder collects every emitted event.
type captureRecorder struct {
	mu     sync.Mutex
	events []*domain.SaleEvent
}

func (r *captureRecorder) Record(_ context.Context, ev *domain.SaleEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *captureRecorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

func (r *captureRecorder) countKind(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

// fakePayer records outgoing payments and can be made to fail.
type fakePayer struct {
	mu       sync.Mutex
	payments map[addr.Address]uint64
	failWith error
}

func newFakePayer() *fakePayer {
	return &fakePayer{payments: make(map[addr.Address]uint64)}
}

func (p *fakePayer) Pay(_ context.Context, to addr.Address, amount uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != nil {
		return p.failWith
	}
	p.payments[to] += amount
	return nil
}

func (p *fakePayer) paid(to addr.Address) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.payments[to]
}

// testLedger bundles a ledger with its fakes.
type testLedger struct {
	*Ledger
	clock    *fakeClock
	recorder *captureRecorder
	payer    *fakePayer
	issuer   *token.MemoryIssuer
}

func defaultParams() domain.SaleParams {
	return domain.SaleParams{
		SoftCap:      10_000,
		MinBuy:       10,
		MaxPerWallet: 1_000_000_000,
		TokenUnit:    1, // whole-unit tokens keep test arithmetic transparent
	}
}

func newTestLedger(params domain.SaleParams) *testLedger {
	clock := &fakeClock{ms: t0}
	recorder := &captureRecorder{}
	payer := newFakePayer()
	issuer := token.NewMemoryIssuer()

	ledger := NewLedger(Config{
		Admin:    admin,
		Params:   params,
		Issuer:   issuer,
		Payer:    payer,
		Recorder: recorder,
		Now:      clock.now,
	})

	return &testLedger{
		Ledger:   ledger,
		clock:    clock,
		recorder: recorder,
		payer:    payer,
		issuer:   issuer,
	}
}

// addOpenPhase creates a phase and advances the clock into its window.
func (tl *testLedger) addOpenPhase(unitPrice, supply uint64) int {
	start := tl.clock.ms + 1000
	end := start + oneDay
	idx, err := tl.AddPhase(context.Background(), admin, unitPrice, supply, start, end)
	if err != nil {
		panic(err)
	}
	tl.clock.ms = start
	return idx
}
