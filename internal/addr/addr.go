// Package addr provides base58-encoded 32-byte account addresses and
// validation against the ed25519 curve.
package addr

import (
	"errors"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Address is a base58-encoded 32-byte account address.
type Address string

// Zero is the empty address, never a valid destination.
const Zero Address = ""

// Address errors.
var (
	ErrInvalidAddress = errors.New("invalid address")
)

// Parse validates a base58 string as a 32-byte on-curve address.
func Parse(s string) (Address, error) {
	if s == "" {
		return Zero, ErrInvalidAddress
	}
	decoded, err := base58.Decode(s)
	if err != nil {
		return Zero, ErrInvalidAddress
	}
	if len(decoded) != 32 {
		return Zero, ErrInvalidAddress
	}
	if !isOnCurve(decoded) {
		return Zero, ErrInvalidAddress
	}
	return Address(s), nil
}

// FromBytes encodes 32 raw bytes as an address without the curve check.
// Used by tests and deterministic fixtures.
func FromBytes(b []byte) Address {
	return Address(base58.Encode(b))
}

// IsZero reports whether the address is empty.
func (a Address) IsZero() bool {
	return a == Zero
}

func (a Address) String() string {
	return string(a)
}

// isOnCurve reports whether the bytes decode to a point on the ed25519
// curve.
func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
