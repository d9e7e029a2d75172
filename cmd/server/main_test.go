package main

import (
	"context"
	"math"
	"testing"

	"token-sale-ledger/internal/addr"
	"token-sale-ledger/internal/domain"
	"token-sale-ledger/internal/sale"
	"token-sale-ledger/internal/token"
)

func TestEffectiveWalletCap(t *testing.T) {
	if got := effectiveWalletCap(0); got != math.MaxUint64 {
		t.Errorf("cap for 0 = %d, want MaxUint64", got)
	}
	if got := effectiveWalletCap(5_000); got != 5_000 {
		t.Errorf("cap for 5000 = %d, want 5000", got)
	}
}

// A server wired with the default flag value must accept a first valid
// purchase; the literal zero cap would reject everything.
func TestEffectiveWalletCap_AdmitsPurchase(t *testing.T) {
	admin := addr.Address("AdminAddress11111111111111111111")
	buyer := addr.Address("BuyerAddress11111111111111111111")
	start := int64(1_700_000_000_000)
	clock := start

	ledger := sale.NewLedger(sale.Config{
		Admin: admin,
		Params: domain.SaleParams{
			MaxPerWallet: effectiveWalletCap(0),
			TokenUnit:    100,
		},
		Issuer: token.NewMemoryIssuer(),
		Payer:  token.NewMemoryBank(),
		Now:    func() int64 { return clock },
	})

	ctx := context.Background()
	if _, err := ledger.AddPhase(ctx, admin, 10, 1_000, start+100, start+1000); err != nil {
		t.Fatalf("add phase: %v", err)
	}
	clock = start + 200

	quote, err := ledger.Buy(ctx, buyer, 500)
	if err != nil {
		t.Fatalf("first purchase rejected: %v", err)
	}
	if quote.Tokens == 0 {
		t.Error("expected a non-zero token quote")
	}
}
