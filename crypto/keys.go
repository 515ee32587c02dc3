// Package crypto wraps the ed25519 keys that sign transactions and blocks and
// the digests used for ids, state roots and randomness.
package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	ErrInvalidKey       = errors.New("invalid key")
	ErrInvalidSignature = errors.New("invalid signature")
)

type (
	// PrivateKey is a 64-byte ed25519 private key.
	PrivateKey []byte
	// PublicKey is a 32-byte ed25519 public key. Its hex form is the account
	// address used throughout state.
	PublicKey []byte
)

// GenerateKeyPair creates a fresh ed25519 key pair from crypto/rand.
func GenerateKeyPair() (PrivateKey, PublicKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	return PrivateKey(priv), PublicKey(pub), nil
}

func (priv PrivateKey) Hex() string { return hex.EncodeToString(priv) }

func (priv PrivateKey) Public() PublicKey {
	return PublicKey(ed25519.PrivateKey(priv).Public().(ed25519.PublicKey))
}

// Sign returns the hex signature of data.
func (priv PrivateKey) Sign(data []byte) string {
	return hex.EncodeToString(ed25519.Sign(ed25519.PrivateKey(priv), data))
}

func (pub PublicKey) Hex() string { return hex.EncodeToString(pub) }

// Address is a 20-byte short form (last 20 bytes of Keccak-256) for display.
func (pub PublicKey) Address() string {
	return hex.EncodeToString(Keccak256(pub)[12:])
}

// Verify checks sigHex over data.
func (pub PublicKey) Verify(data []byte, sigHex string) error {
	sig, err := hex.DecodeString(sigHex)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("%w: malformed", ErrInvalidSignature)
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), data, sig) {
		return fmt.Errorf("%w: verification failed", ErrInvalidSignature)
	}
	return nil
}

// Sign and Verify are the package-level forms used by tx and block code.
func Sign(priv PrivateKey, data []byte) string { return priv.Sign(data) }

func Verify(pub PublicKey, data []byte, sigHex string) error { return pub.Verify(data, sigHex) }

func decodeKey(s, kind string, size int) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s hex: %v", ErrInvalidKey, kind, err)
	}
	if len(b) != size {
		return nil, fmt.Errorf("%w: %s must be %d bytes, got %d", ErrInvalidKey, kind, size, len(b))
	}
	return b, nil
}

// PubKeyFromHex parses an account address back into a public key.
func PubKeyFromHex(s string) (PublicKey, error) {
	b, err := decodeKey(s, "pubkey", ed25519.PublicKeySize)
	return PublicKey(b), err
}

func PrivKeyFromHex(s string) (PrivateKey, error) {
	b, err := decodeKey(s, "privkey", ed25519.PrivateKeySize)
	return PrivateKey(b), err
}
