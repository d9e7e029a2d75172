package sale

import (
	"context"
	"errors"
	"testing"
)

func TestAddPhase_AssignsSequentialIndexes(t *testing.T) {
	tl := newTestLedger(defaultParams())
	ctx := context.Background()

	idx0, err := tl.AddPhase(ctx, admin, 100, 1000, t0+1000, t0+oneDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	idx1, err := tl.AddPhase(ctx, admin, 200, 2000, t0+oneDay+1000, t0+2*oneDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if idx0 != 0 || idx1 != 1 {
		t.Errorf("expected indexes 0,1, got %d,%d", idx0, idx1)
	}
}

func TestAddPhase_Validation(t *testing.T) {
	tl := newTestLedger(defaultParams())
	ctx := context.Background()

	cases := []struct {
		name       string
		unitPrice  uint64
		supply     uint64
		start, end int64
		want       error
	}{
		{"zero price", 0, 1000, t0 + 1000, t0 + 2000, ErrInvalidParameter},
		{"zero supply", 100, 0, t0 + 1000, t0 + 2000, ErrInvalidParameter},
		{"start in past", 100, 1000, t0 - 1, t0 + 2000, ErrInvalidParameter},
		{"start equals now", 100, 1000, t0, t0 + 2000, ErrInvalidParameter},
		{"end before start", 100, 1000, t0 + 2000, t0 + 1000, ErrInvalidParameter},
		{"end equals start", 100, 1000, t0 + 2000, t0 + 2000, ErrInvalidParameter},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tl.AddPhase(ctx, admin, tc.unitPrice, tc.supply, tc.start, tc.end); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if len(tl.Phases()) != 0 {
		t.Errorf("failed AddPhase calls must not append phases, got %d", len(tl.Phases()))
	}
}

func TestAddPhase_RejectsOverlap(t *testing.T) {
	tl := newTestLedger(defaultParams())
	ctx := context.Background()

	if _, err := tl.AddPhase(ctx, admin, 100, 1000, t0+1000, t0+10_000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	overlapping := []struct {
		name       string
		start, end int64
	}{
		{"contained", t0 + 2000, t0 + 3000},
		{"containing", t0 + 500, t0 + 20_000},
		{"left edge", t0 + 500, t0 + 1000},
		{"right edge", t0 + 10_000, t0 + 20_000},
	}

	for _, tc := range overlapping {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tl.AddPhase(ctx, admin, 100, 1000, tc.start, tc.end); !errors.Is(err, ErrOverlappingPhase) {
				t.Errorf("expected ErrOverlappingPhase, got %v", err)
			}
		})
	}

	// A disjoint window is fine.
	if _, err := tl.AddPhase(ctx, admin, 100, 1000, t0+10_001, t0+20_000); err != nil {
		t.Errorf("disjoint window rejected: %v", err)
	}
}

func TestAddPhase_RequiresAdmin(t *testing.T) {
	tl := newTestLedger(defaultParams())

	if _, err := tl.AddPhase(context.Background(), buyer1, 100, 1000, t0+1000, t0+2000); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestCurrentPhase_SkipsSoldOutAndClosed(t *testing.T) {
	tl := newTestLedger(defaultParams())
	ctx := context.Background()

	// Phase 0: will be sold out. Phase 1: later window.
	if _, err := tl.AddPhase(ctx, admin, 100, 100, t0+1000, t0+10_000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := tl.AddPhase(ctx, admin, 200, 100, t0+20_000, t0+30_000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Before any window opens.
	if _, ok := tl.CurrentPhase(t0); ok {
		t.Error("expected no active phase before first window")
	}
	if _, err := tl.MustCurrentPhase(t0); !errors.Is(err, ErrNoActivePhase) {
		t.Errorf("expected ErrNoActivePhase, got %v", err)
	}

	// Inside phase 0.
	p, ok := tl.CurrentPhase(t0 + 1000)
	if !ok || p.Index != 0 {
		t.Fatalf("expected phase 0 active, got %+v ok=%v", p, ok)
	}

	// Sell phase 0 out; lookup must skip it even inside its window.
	tl.clock.ms = t0 + 1000
	if _, err := tl.Buy(ctx, buyer1, 100*100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := tl.CurrentPhase(t0 + 2000); ok {
		t.Error("expected sold-out phase to be skipped")
	}

	// Inside phase 1.
	p, ok = tl.CurrentPhase(t0 + 20_000)
	if !ok || p.Index != 1 {
		t.Errorf("expected phase 1 active, got %+v ok=%v", p, ok)
	}

	// Between the windows.
	if _, ok := tl.CurrentPhase(t0 + 15_000); ok {
		t.Error("expected no active phase between windows")
	}
}

func TestUpdatePhase_OnlyBeforeStart(t *testing.T) {
	tl := newTestLedger(defaultParams())
	ctx := context.Background()

	idx, err := tl.AddPhase(ctx, admin, 100, 1000, t0+10_000, t0+20_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Move while still pending.
	if err := tl.UpdatePhase(ctx, admin, idx, t0+30_000, t0+40_000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	phases := tl.Phases()
	if phases[0].WindowStart != t0+30_000 || phases[0].WindowEnd != t0+40_000 {
		t.Errorf("window not updated: %+v", phases[0])
	}

	// After the window opens.
	tl.clock.ms = t0 + 30_000
	if err := tl.UpdatePhase(ctx, admin, idx, t0+50_000, t0+60_000); !errors.Is(err, ErrPhaseStarted) {
		t.Errorf("expected ErrPhaseStarted, got %v", err)
	}
}

func TestUpdatePhase_RevalidatesOverlap(t *testing.T) {
	tl := newTestLedger(defaultParams())
	ctx := context.Background()

	if _, err := tl.AddPhase(ctx, admin, 100, 1000, t0+10_000, t0+20_000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	idx, err := tl.AddPhase(ctx, admin, 100, 1000, t0+30_000, t0+40_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := tl.UpdatePhase(ctx, admin, idx, t0+15_000, t0+25_000); !errors.Is(err, ErrOverlappingPhase) {
		t.Errorf("expected ErrOverlappingPhase, got %v", err)
	}
	if err := tl.UpdatePhase(ctx, admin, 99, t0+50_000, t0+60_000); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for bad index, got %v", err)
	}
}
