// Package numeric provides overflow-safe integer arithmetic for ledger
// amounts. All amounts are uint64 in the smallest denomination; products
// that can exceed 64 bits go through 256-bit intermediates.
package numeric

import (
	"errors"

	"github.com/holiman/uint256"
)

// Arithmetic errors.
var (
	// ErrOverflow is returned when a result does not fit in uint64.
	ErrOverflow = errors.New("arithmetic overflow")

	// ErrDivideByZero is returned when a divisor is zero.
	ErrDivideByZero = errors.New("divide by zero")
)

// MulDiv computes floor(a * b / den) with a 256-bit intermediate product.
// Truncating division is intentional; callers rely on the rounding
// direction.
func MulDiv(a, b, den uint64) (uint64, error) {
	if den == 0 {
		return 0, ErrDivideByZero
	}
	product := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	quotient := product.Div(product, uint256.NewInt(den))
	if !quotient.IsUint64() {
		return 0, ErrOverflow
	}
	return quotient.Uint64(), nil
}

// Add computes a + b, erroring instead of wrapping.
func Add(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrOverflow
	}
	return sum, nil
}

// SubFloor computes a - b, flooring at zero instead of wrapping below.
// Used for shared totals where underflow would corrupt the counter.
func SubFloor(a, b uint64) uint64 {
	if b >= a {
		return 0
	}
	return a - b
}
