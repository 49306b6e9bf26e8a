package clientcrypto

import (
	"bytes"
	"crypto/subtle"
	"errors"
	"testing"
)

func TestRand_LengthUniq(t *testing.T) {
	t.Parallel()
	const n = 48
	a, err := Rand(n)
	if err != nil {
		t.Fatalf("Rand: %v", err)
	}
	if len(a) != n {
		t.Fatalf("len=%d, want=%d", len(a), n)
	}
	b, _ := Rand(n)
	if bytes.Equal(a, b) {
		t.Fatalf("Rand produced equal slices")
	}
}

func TestDeriveValueKey_DeterministicAndNameDependent(t *testing.T) {
	t.Parallel()
	master, _ := NewKey()
	k1, err := DeriveValueKey(master, "auth_token")
	if err != nil {
		t.Fatalf("DeriveValueKey: %v", err)
	}
	k2, _ := DeriveValueKey(master, "auth_token")
	if subtle.ConstantTimeCompare(k1, k2) != 1 {
		t.Fatalf("DeriveValueKey not deterministic")
	}
	k3, _ := DeriveValueKey(master, "auth_user")
	if subtle.ConstantTimeCompare(k1, k3) != 0 {
		t.Fatalf("DeriveValueKey must change with name")
	}
	if len(k1) != KeyLen {
		t.Fatalf("len=%d, want=%d", len(k1), KeyLen)
	}
}

func TestSealOpen_RoundTripAndBinding(t *testing.T) {
	t.Parallel()
	master, _ := NewKey()
	pt := []byte(`{"dni":111}`)

	sealed, err := SealValue(master, "auth_user", pt)
	if err != nil {
		t.Fatalf("SealValue: %v", err)
	}
	if bytes.Contains(sealed, pt) {
		t.Fatalf("plaintext visible in sealed value")
	}
	out, err := OpenValue(master, "auth_user", sealed)
	if err != nil {
		t.Fatalf("OpenValue: %v", err)
	}
	if !bytes.Equal(out, pt) {
		t.Fatalf("got %q, want %q", out, pt)
	}

	if _, err := OpenValue(master, "auth_token", sealed); err == nil {
		t.Fatalf("value must not open under another name")
	}
	other, _ := NewKey()
	if _, err := OpenValue(other, "auth_user", sealed); err == nil {
		t.Fatalf("value must not open under another key")
	}
	sealed[len(sealed)-1] ^= 0xFF
	if _, err := OpenValue(master, "auth_user", sealed); err == nil {
		t.Fatalf("tampered value must fail")
	}
}

func TestOpenValue_Short(t *testing.T) {
	t.Parallel()
	master, _ := NewKey()
	if _, err := OpenValue(master, "k", []byte{1, 2}); !errors.Is(err, ErrShortBlob) {
		t.Fatalf("want ErrShortBlob, got %v", err)
	}
}
