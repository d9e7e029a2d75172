package addr

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/mr-tron/base58"
)

func TestParse_ValidKey(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	encoded := base58.Encode(pub)
	a, err := Parse(encoded)
	if err != nil {
		t.Fatalf("expected valid address, got error: %v", err)
	}
	if a.String() != encoded {
		t.Errorf("expected %s, got %s", encoded, a)
	}
	if a.IsZero() {
		t.Error("parsed address reported as zero")
	}
}

func TestParse_Empty(t *testing.T) {
	if _, err := Parse(""); err != ErrInvalidAddress {
		t.Errorf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestParse_WrongLength(t *testing.T) {
	short := base58.Encode([]byte{1, 2, 3})
	if _, err := Parse(short); err != ErrInvalidAddress {
		t.Errorf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestParse_NotBase58(t *testing.T) {
	// 0 and O are not in the base58 alphabet.
	if _, err := Parse("0OIl"); err != ErrInvalidAddress {
		t.Errorf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestParse_OffCurve(t *testing.T) {
	// The encoding of y=2 has no matching x coordinate on the curve.
	raw := make([]byte, 32)
	raw[0] = 2
	if _, err := Parse(base58.Encode(raw)); err != ErrInvalidAddress {
		t.Errorf("expected ErrInvalidAddress, got %v", err)
	}
	if isOnCurve(raw) {
		t.Error("fixture unexpectedly decodes onto the curve")
	}
}
