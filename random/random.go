// Package random provides the pseudo-random draw used by game resolution.
//
// The default source hashes public block data and is NOT secure: the block
// producer can choose the timestamp and ordering, and any caller can compute
// the draw before submitting. It is a placeholder for a verifiable randomness
// oracle; production deployments inject their own Source.
package random

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	"github.com/tolelom/arcadechain/crypto"
)

// Input is everything a draw may depend on.
type Input struct {
	PrevHash  string // previous block hash
	Timestamp int64  // current block timestamp
	Caller    string
	Nonce     uint64 // strictly increasing per draw
	Seed      []byte // per-call seed, usually a session id plus a tag
}

// Source returns a value in [0, n). n is always > 0.
type Source interface {
	Draw(in Input, n uint64) uint64
}

// Keccak is the default hash-based Source.
type Keccak struct{}

// Draw hashes the input with Keccak-256 and reduces the 256-bit digest mod n.
func (Keccak) Draw(in Input, n uint64) uint64 {
	var ts, nonce [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(in.Timestamp))
	binary.BigEndian.PutUint64(nonce[:], in.Nonce)
	digest := crypto.Keccak256([]byte(in.PrevHash), ts[:], []byte(in.Caller), nonce[:], in.Seed)
	v := new(uint256.Int).SetBytes(digest)
	return v.Mod(v, uint256.NewInt(n)).Uint64()
}

// Tagged appends a tag to seed so several draws within one call are decorrelated.
func Tagged(seed string, tag string) []byte {
	return []byte(seed + ":" + tag)
}
