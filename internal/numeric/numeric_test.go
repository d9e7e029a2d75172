package numeric

import (
	"math"
	"testing"
)

func TestMulDiv_Truncates(t *testing.T) {
	// 7 * 3 / 2 = 10.5 -> 10
	got, err := MulDiv(7, 3, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 10 {
		t.Errorf("expected 10, got %d", got)
	}
}

func TestMulDiv_LargeIntermediate(t *testing.T) {
	// Product exceeds 64 bits but quotient fits.
	got, err := MulDiv(math.MaxUint64, 1_000_000_000, 1_000_000_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != math.MaxUint64 {
		t.Errorf("expected MaxUint64, got %d", got)
	}
}

func TestMulDiv_QuotientOverflow(t *testing.T) {
	if _, err := MulDiv(math.MaxUint64, 2, 1); err != ErrOverflow {
		t.Errorf("expected ErrOverflow, got %v", err)
	}
}

func TestMulDiv_DivideByZero(t *testing.T) {
	if _, err := MulDiv(1, 1, 0); err != ErrDivideByZero {
		t.Errorf("expected ErrDivideByZero, got %v", err)
	}
}

func TestAdd_Overflow(t *testing.T) {
	if _, err := Add(math.MaxUint64, 1); err != ErrOverflow {
		t.Errorf("expected ErrOverflow, got %v", err)
	}
	got, err := Add(2, 3)
	if err != nil || got != 5 {
		t.Errorf("expected 5, got %d (%v)", got, err)
	}
}

func TestSubFloor(t *testing.T) {
	if got := SubFloor(5, 3); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
	// Floors at zero instead of wrapping.
	if got := SubFloor(3, 5); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
	if got := SubFloor(3, 3); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}
