package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Hash returns the SHA-256 hash of data as a lowercase hex string.
func Hash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// HashBytes returns the raw SHA-256 bytes of data.
func HashBytes(data []byte) []byte {
	h := sha256.Sum256(data)
	return h[:]
}

// Keccak256 returns the Keccak-256 digest of the concatenated parts.
func Keccak256(parts ...[]byte) []byte {
	return ethcrypto.Keccak256(parts...)
}

// Keccak256Hex returns the Keccak-256 digest of the parts as lowercase hex.
func Keccak256Hex(parts ...[]byte) string {
	return hex.EncodeToString(ethcrypto.Keccak256(parts...))
}
