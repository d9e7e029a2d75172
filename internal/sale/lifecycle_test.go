package sale

import (
	"context"
	"errors"
	"testing"

	"token-sale-ledger/internal/addr"
	"token-sale-ledger/internal/domain"
)

func TestEndSale_OneWay(t *testing.T) {
	tl := newTestLedger(defaultParams())
	ctx := context.Background()

	if err := tl.EndSale(ctx, buyer1); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}

	if err := tl.EndSale(ctx, admin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tl.Status().Ended {
		t.Fatal("sale not marked ended")
	}

	if err := tl.EndSale(ctx, admin); !errors.Is(err, ErrAlreadyEnded) {
		t.Errorf("expected ErrAlreadyEnded, got %v", err)
	}
}

func TestClaim_SuccessPath(t *testing.T) {
	params := defaultParams()
	params.SoftCap = 100
	tl := newTestLedger(params)
	tl.addOpenPhase(10, 1000)
	ctx := context.Background()

	q, err := tl.Buy(ctx, buyer1, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Gated until the sale ends.
	if _, err := tl.Claim(ctx, buyer1); !errors.Is(err, ErrSaleNotEnded) {
		t.Errorf("expected ErrSaleNotEnded, got %v", err)
	}

	if err := tl.EndSale(ctx, admin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	minted, err := tl.Claim(ctx, buyer1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if minted != q.Tokens {
		t.Errorf("minted %d, want %d", minted, q.Tokens)
	}

	balance, err := tl.issuer.BalanceOf(ctx, buyer1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != q.Tokens {
		t.Errorf("issuer balance %d, want %d", balance, q.Tokens)
	}
	if acct := tl.Account(buyer1); acct.PendingTokens != 0 {
		t.Errorf("pending tokens not zeroed: %d", acct.PendingTokens)
	}

	// A second claim finds nothing.
	if _, err := tl.Claim(ctx, buyer1); !errors.Is(err, ErrNothingToClaim) {
		t.Errorf("expected ErrNothingToClaim, got %v", err)
	}
}

func TestClaim_RequiresSoftCap(t *testing.T) {
	tl := newTestLedger(defaultParams()) // soft cap 10000 never reached
	tl.addOpenPhase(10, 1000)
	ctx := context.Background()

	if _, err := tl.Buy(ctx, buyer1, 500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tl.EndSale(ctx, admin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := tl.Claim(ctx, buyer1); !errors.Is(err, ErrSoftCapNotReached) {
		t.Errorf("expected ErrSoftCapNotReached, got %v", err)
	}
}

func TestClaim_MintFailureRestoresAllocation(t *testing.T) {
	params := defaultParams()
	params.SoftCap = 100
	tl := newTestLedger(params)
	tl.addOpenPhase(10, 1000)
	ctx := context.Background()

	if _, err := tl.Buy(ctx, buyer1, 500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tl.EndSale(ctx, admin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Zero destination makes the memory issuer fail.
	before := tl.Account(buyer1).PendingTokens
	if _, err := tl.Claim(ctx, ""); !errors.Is(err, ErrNothingToClaim) {
		t.Fatalf("expected ErrNothingToClaim for unknown caller, got %v", err)
	}

	failing := newTestLedger(params)
	failing.addOpenPhase(10, 1000)
	if _, err := failing.Buy(ctx, buyer1, 500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := failing.EndSale(ctx, admin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	failing.issuer = nil // not used below
	failing.Ledger.issuer = &failingIssuer{}

	if _, err := failing.Claim(ctx, buyer1); err == nil {
		t.Fatal("expected mint failure to surface")
	}
	if got := failing.Account(buyer1).PendingTokens; got != before {
		t.Errorf("pending tokens not restored after mint failure: %d want %d", got, before)
	}
	if n := failing.recorder.countKind(domain.EventKindClaimPaid); n != 0 {
		t.Errorf("claim event emitted despite mint failure")
	}
}

func TestRefund_FailedSalePath(t *testing.T) {
	// Scenario: sale ends below the soft cap; a buyer with contribution 3
	// refunds into escrow, then withdraws exactly 3.
	params := defaultParams()
	params.MinBuy = 1
	tl := newTestLedger(params)
	tl.addOpenPhase(1, 1000)
	ctx := context.Background()

	if _, err := tl.Buy(ctx, buyer1, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := tl.RequestRefund(ctx, buyer1); !errors.Is(err, ErrSaleNotEnded) {
		t.Errorf("expected ErrSaleNotEnded, got %v", err)
	}

	if err := tl.EndSale(ctx, admin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	refunded, err := tl.RequestRefund(ctx, buyer1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refunded != 3 {
		t.Errorf("refunded %d, want 3", refunded)
	}

	acct := tl.Account(buyer1)
	if acct.ContributedAmount != 0 || acct.PendingTokens != 0 {
		t.Errorf("account not zeroed: %+v", acct)
	}
	if got := tl.BalanceOf(buyer1); got != 3 {
		t.Errorf("escrow balance %d, want 3", got)
	}

	withdrawn, err := tl.Withdraw(ctx, buyer1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if withdrawn != 3 {
		t.Errorf("withdrew %d, want 3", withdrawn)
	}
	if got := tl.BalanceOf(buyer1); got != 0 {
		t.Errorf("escrow not zeroed after withdrawal: %d", got)
	}
	if got := tl.payer.paid(buyer1); got != 3 {
		t.Errorf("payer transferred %d, want 3", got)
	}

	// Refund path is one-shot per contribution.
	if _, err := tl.RequestRefund(ctx, buyer1); !errors.Is(err, ErrNothingToRefund) {
		t.Errorf("expected ErrNothingToRefund, got %v", err)
	}
}

func TestRefund_BlockedOnSuccess(t *testing.T) {
	params := defaultParams()
	params.SoftCap = 100
	tl := newTestLedger(params)
	tl.addOpenPhase(10, 1000)
	ctx := context.Background()

	if _, err := tl.Buy(ctx, buyer1, 500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tl.EndSale(ctx, admin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := tl.RequestRefund(ctx, buyer1); !errors.Is(err, ErrSoftCapReached) {
		t.Errorf("expected ErrSoftCapReached, got %v", err)
	}
}

func TestSaleEndedEvent_CarriesOutcome(t *testing.T) {
	params := defaultParams()
	params.SoftCap = 100
	tl := newTestLedger(params)
	tl.addOpenPhase(10, 1000)
	ctx := context.Background()

	if _, err := tl.Buy(ctx, buyer1, 500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tl.EndSale(ctx, admin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var ended *domain.SaleEvent
	for _, ev := range tl.recorder.events {
		if ev.Kind == domain.EventKindSaleEnded {
			ended = ev
		}
	}
	if ended == nil {
		t.Fatal("no sale_ended event recorded")
	}
	if ended.TokenAmount != 1 {
		t.Errorf("expected success outcome 1, got %d", ended.TokenAmount)
	}
	if ended.BaseAmount != tl.TotalRaised() {
		t.Errorf("expected raised total %d, got %d", tl.TotalRaised(), ended.BaseAmount)
	}
}

// errMintDown simulates an unavailable token mint.
var errMintDown = errors.New("mint unavailable")

// failingIssuer always fails mints and transfers.
type failingIssuer struct{}

func (f *failingIssuer) Mint(context.Context, addr.Address, uint64) error { return errMintDown }

func (f *failingIssuer) Transfer(context.Context, addr.Address, addr.Address, uint64) error {
	return errMintDown
}

func (f *failingIssuer) BalanceOf(context.Context, addr.Address) (uint64, error) { return 0, nil }
