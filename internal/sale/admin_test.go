package sale

import (
	"context"
	"errors"
	"testing"
)

func TestSetSoftCap_BlockedAfterLatch(t *testing.T) {
	params := defaultParams()
	params.SoftCap = 100
	tl := newTestLedger(params)
	tl.addOpenPhase(10, 1000)
	ctx := context.Background()

	if err := tl.SetSoftCap(ctx, admin, 200); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := tl.Params().SoftCap; got != 200 {
		t.Errorf("soft cap %d, want 200", got)
	}

	// Latch the cap, then the setter must refuse.
	if _, err := tl.Buy(ctx, buyer1, 500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tl.SetSoftCap(ctx, admin, 900); !errors.Is(err, ErrSoftCapReached) {
		t.Errorf("expected ErrSoftCapReached, got %v", err)
	}
}

func TestSetters_BlockedAfterEnd(t *testing.T) {
	tl := newTestLedger(defaultParams())
	ctx := context.Background()

	if err := tl.EndSale(ctx, admin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := tl.SetMinBuy(ctx, admin, 5); !errors.Is(err, ErrAlreadyEnded) {
		t.Errorf("expected ErrAlreadyEnded, got %v", err)
	}
	if err := tl.SetMaxPerWallet(ctx, admin, 5000); !errors.Is(err, ErrAlreadyEnded) {
		t.Errorf("expected ErrAlreadyEnded, got %v", err)
	}
}

func TestSetMaxPerWallet_NotBelowExistingContribution(t *testing.T) {
	tl := newTestLedger(defaultParams())
	tl.addOpenPhase(1, 100_000)
	ctx := context.Background()

	if _, err := tl.Buy(ctx, buyer1, 5_000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := tl.SetMaxPerWallet(ctx, admin, 4_999); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
	if err := tl.SetMaxPerWallet(ctx, admin, 5_000); err != nil {
		t.Errorf("cap equal to the max contribution should pass, got %v", err)
	}
}

func TestSetters_RequireAdmin(t *testing.T) {
	tl := newTestLedger(defaultParams())
	ctx := context.Background()

	if err := tl.SetSoftCap(ctx, buyer1, 1); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if err := tl.SetMinBuy(ctx, buyer1, 1); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if err := tl.SetMaxPerWallet(ctx, buyer1, 1); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if err := tl.Pause(ctx, buyer1); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestPause_GatesMutations(t *testing.T) {
	params := defaultParams()
	params.SoftCap = 100
	tl := newTestLedger(params)
	tl.addOpenPhase(10, 1000)
	ctx := context.Background()

	if _, err := tl.Buy(ctx, buyer1, 150*10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tl.Pause(ctx, admin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := tl.Buy(ctx, buyer2, 100); !errors.Is(err, ErrPaused) {
		t.Errorf("buy while paused: expected ErrPaused, got %v", err)
	}
	if _, err := tl.Withdraw(ctx, buyer1); !errors.Is(err, ErrPaused) {
		t.Errorf("withdraw while paused: expected ErrPaused, got %v", err)
	}
	if _, err := tl.Claim(ctx, buyer1); !errors.Is(err, ErrPaused) {
		t.Errorf("claim while paused: expected ErrPaused, got %v", err)
	}

	// EndSale stays allowed while paused.
	if err := tl.EndSale(ctx, admin); err != nil {
		t.Errorf("end sale while paused should pass, got %v", err)
	}

	if err := tl.Unpause(ctx, admin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := tl.Claim(ctx, buyer1); err != nil {
		t.Errorf("claim after unpause should pass, got %v", err)
	}
}

func TestEventSequenceIsMonotonic(t *testing.T) {
	params := defaultParams()
	params.SoftCap = 100
	tl := newTestLedger(params)
	tl.addOpenPhase(10, 1000)
	ctx := context.Background()

	if _, err := tl.Buy(ctx, buyer1, 150*10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tl.EndSale(ctx, admin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := tl.Claim(ctx, buyer1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var last uint64
	for i, ev := range tl.recorder.events {
		if ev.Seq <= last {
			t.Fatalf("event %d: seq %d not monotonic after %d", i, ev.Seq, last)
		}
		last = ev.Seq
		if ev.EventID == "" || len(ev.EventID) != 64 {
			t.Errorf("event %d: malformed id %q", i, ev.EventID)
		}
	}
}
