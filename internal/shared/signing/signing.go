// Package signing provides the canonical digest and recoverable-signature
// primitives used by the settlement authorization chain. A signature envelope
// carries its own public key; recovery verifies the signature over a
// domain-separated digest and derives the signer identity from that key, so
// the scheme can be swapped without touching orchestration code.
package signing

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"strings"
)

var (
	ErrInvalidEncoding  = errors.New("invalid signature encoding")
	ErrInvalidSignature = errors.New("signature verification failed")
)

// AddressLength is the byte length of a derived identity address.
const AddressLength = 20

// ZeroAddress is the reserved all-zero identity. It is never a valid signer.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// Envelope is a detached signature with the key needed to recover the signer.
type Envelope struct {
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
}

// DeriveAddress maps an ed25519 public key to its identity address:
// lowercase hex of the first 20 bytes of SHA-256 of the raw key.
func DeriveAddress(pub ed25519.PublicKey) string {
	sum := sha256.Sum256(pub)
	return "0x" + hex.EncodeToString(sum[:AddressLength])
}

// IsZeroAddress reports whether addr is empty or the reserved zero identity.
func IsZeroAddress(addr string) bool {
	trimmed := strings.TrimSpace(strings.ToLower(addr))
	return trimmed == "" || trimmed == ZeroAddress
}

// Hasher accumulates a canonical, domain-separated field tuple.
// Every field is length-prefixed so no two tuples share an encoding.
type Hasher struct {
	buf []byte
}

// NewHasher starts a tuple digest under the given domain tag.
func NewHasher(domainTag string) *Hasher {
	h := &Hasher{}
	h.writeField([]byte(domainTag))
	return h
}

func (h *Hasher) writeField(b []byte) {
	h.buf = binary.AppendUvarint(h.buf, uint64(len(b)))
	h.buf = append(h.buf, b...)
}

func (h *Hasher) WriteString(s string) *Hasher {
	h.writeField([]byte(s))
	return h
}

func (h *Hasher) WriteUint64(v uint64) *Hasher {
	var field [8]byte
	binary.BigEndian.PutUint64(field[:], v)
	h.writeField(field[:])
	return h
}

func (h *Hasher) WriteBytes(b []byte) *Hasher {
	h.writeField(b)
	return h
}

// Sum returns the SHA-256 digest of the accumulated canonical bytes.
func (h *Hasher) Sum() []byte {
	sum := sha256.Sum256(h.buf)
	return sum[:]
}

// Recover verifies env over digest and returns the derived signer address.
func Recover(digest []byte, env Envelope) (string, error) {
	pub, err := base64.StdEncoding.DecodeString(strings.TrimSpace(env.PublicKey))
	if err != nil {
		return "", ErrInvalidEncoding
	}
	sig, err := base64.StdEncoding.DecodeString(strings.TrimSpace(env.Signature))
	if err != nil {
		return "", ErrInvalidEncoding
	}
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return "", ErrInvalidEncoding
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), digest, sig) {
		return "", ErrInvalidSignature
	}
	return DeriveAddress(ed25519.PublicKey(pub)), nil
}

// Sign produces an envelope over digest. Used by issuing-side tooling and
// tests; the settlement path itself only recovers.
func Sign(priv ed25519.PrivateKey, digest []byte) Envelope {
	return Envelope{
		PublicKey: base64.StdEncoding.EncodeToString(priv.Public().(ed25519.PublicKey)),
		Signature: base64.StdEncoding.EncodeToString(ed25519.Sign(priv, digest)),
	}
}

// SignatureBytes returns the raw signature bytes of env for chaining into a
// follow-up digest. Encoding errors surface as ErrInvalidEncoding.
func SignatureBytes(env Envelope) ([]byte, error) {
	sig, err := base64.StdEncoding.DecodeString(strings.TrimSpace(env.Signature))
	if err != nil {
		return nil, ErrInvalidEncoding
	}
	return sig, nil
}
