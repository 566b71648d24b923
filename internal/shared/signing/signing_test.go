package signing

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
)

func TestRecoverRoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	digest := NewHasher("test/v1").WriteString("sale-1").WriteUint64(42).Sum()
	env := Sign(priv, digest)

	signer, err := Recover(digest, env)
	if err != nil {
		t.Fatalf("recover failed: %v", err)
	}
	if signer != DeriveAddress(pub) {
		t.Fatalf("recovered %s, want %s", signer, DeriveAddress(pub))
	}
}

func TestRecoverRejectsWrongDigest(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	env := Sign(priv, NewHasher("test/v1").WriteString("original").Sum())
	_, err = Recover(NewHasher("test/v1").WriteString("tampered").Sum(), env)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestRecoverRejectsBadEncoding(t *testing.T) {
	_, err := Recover([]byte("digest"), Envelope{PublicKey: "!!", Signature: "!!"})
	if !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("expected ErrInvalidEncoding, got %v", err)
	}
}

func TestHasherDomainSeparation(t *testing.T) {
	a := NewHasher("sale-order/v1").WriteString("x").Sum()
	b := NewHasher("cancel-auth/v1").WriteString("x").Sum()
	if string(a) == string(b) {
		t.Fatalf("different domain tags must produce different digests")
	}
}

func TestHasherFieldBoundaries(t *testing.T) {
	// "ab"+"c" and "a"+"bc" must not collide thanks to length prefixes.
	a := NewHasher("test/v1").WriteString("ab").WriteString("c").Sum()
	b := NewHasher("test/v1").WriteString("a").WriteString("bc").Sum()
	if string(a) == string(b) {
		t.Fatalf("field boundaries must be encoded")
	}
}

func TestIsZeroAddress(t *testing.T) {
	if !IsZeroAddress("") || !IsZeroAddress(ZeroAddress) {
		t.Fatalf("empty and zero address must be zero")
	}
	if IsZeroAddress("0x00000000000000000000000000000000000000ff") {
		t.Fatalf("non-zero address flagged as zero")
	}
}
