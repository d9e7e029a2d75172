package reporting

import (
	"context"
	"sort"
	"time"

	"token-sale-ledger/internal/domain"
	"token-sale-ledger/internal/storage"
)

// LedgerView is the read-only ledger surface the generator consumes.
type LedgerView interface {
	Status() domain.SaleStatus
	Params() domain.SaleParams
	Phases() []domain.Phase
	TotalRaised() uint64
	TotalTokensSold() uint64
	TotalEscrowed() uint64
	HeldBalance() uint64
	BuyerCount() int
}

// Generator produces reports from the ledger snapshot and stored events.
type Generator struct {
	ledger LedgerView
	events storage.EventStore
	now    func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(ledger LedgerView, events storage.EventStore) *Generator {
	return &Generator{
		ledger: ledger,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete sale report.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	events, err := g.events.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	return &Report{
		GeneratedAt: g.now(),
		EventCount:  len(events),
		Summary:     g.generateSummary(),
		Phases:      g.generatePhases(),
		Activity:    generateActivity(events),
		Buyers:      generateBuyers(events),
	}, nil
}

// generateSummary snapshots overall sale state from the ledger.
func (g *Generator) generateSummary() SaleSummary {
	status := g.ledger.Status()
	params := g.ledger.Params()

	return SaleSummary{
		Ended:           status.Ended,
		SoftCapReached:  status.SoftCapReached,
		Paused:          status.Paused,
		SoftCap:         params.SoftCap,
		MinBuy:          params.MinBuy,
		MaxPerWallet:    params.MaxPerWallet,
		TokenUnit:       params.TokenUnit,
		TotalRaised:     g.ledger.TotalRaised(),
		TotalTokensSold: g.ledger.TotalTokensSold(),
		TotalEscrowed:   g.ledger.TotalEscrowed(),
		HeldBalance:     g.ledger.HeldBalance(),
		BuyerCount:      g.ledger.BuyerCount(),
	}
}

// generatePhases builds phase rows sorted by index.
func (g *Generator) generatePhases() []PhaseRow {
	phases := g.ledger.Phases()

	rows := make([]PhaseRow, len(phases))
	for i, p := range phases {
		rows[i] = PhaseRow{
			Index:       p.Index,
			UnitPrice:   p.UnitPrice,
			Supply:      p.Supply,
			Sold:        p.Sold,
			Remaining:   p.Remaining(),
			WindowStart: p.WindowStart,
			WindowEnd:   p.WindowEnd,
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Index < rows[j].Index
	})
	return rows
}

// generateActivity groups events by kind with summed amounts.
func generateActivity(events []*domain.SaleEvent) []ActivityRow {
	byKind := make(map[string]*ActivityRow)

	for _, ev := range events {
		row := byKind[ev.Kind]
		if row == nil {
			row = &ActivityRow{Kind: ev.Kind}
			byKind[ev.Kind] = row
		}
		row.Count++
		row.BaseTotal += ev.BaseAmount
		row.TokenTotal += ev.TokenAmount
	}

	rows := make([]ActivityRow, 0, len(byKind))
	for _, row := range byKind {
		rows = append(rows, *row)
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Kind < rows[j].Kind
	})
	return rows
}

// generateBuyers reconstructs per-buyer history from the event stream.
func generateBuyers(events []*domain.SaleEvent) []BuyerRow {
	byActor := make(map[string]*BuyerRow)

	get := func(actor string) *BuyerRow {
		row := byActor[actor]
		if row == nil {
			row = &BuyerRow{Address: actor}
			byActor[actor] = row
		}
		return row
	}

	for _, ev := range events {
		switch ev.Kind {
		case domain.EventKindPurchaseAccepted:
			row := get(ev.Actor)
			row.Purchases++
			row.Contributed += ev.BaseAmount
			row.TokensBought += ev.TokenAmount
		case domain.EventKindClaimPaid:
			get(ev.Actor).TokensClaimed += ev.TokenAmount
		case domain.EventKindRefundRequested:
			get(ev.Actor).Refunded += ev.BaseAmount
		}
	}

	rows := make([]BuyerRow, 0, len(byActor))
	for _, row := range byActor {
		rows = append(rows, *row)
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Address < rows[j].Address
	})
	return rows
}
