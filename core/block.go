package core

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tolelom/arcadechain/crypto"
)

// BlockHeader is the signed part of a block. Timestamp is in nanoseconds and
// strictly increases along the chain; handlers see Timestamp in seconds.
type BlockHeader struct {
	Height    int64  `json:"height"`
	PrevHash  string `json:"prev_hash"`
	StateRoot string `json:"state_root"`
	TxRoot    string `json:"tx_root"`
	Timestamp int64  `json:"timestamp"`
	Proposer  string `json:"proposer"` // sequencer pubkey hex
}

// Unix returns the header time in whole seconds.
func (h BlockHeader) Unix() int64 { return h.Timestamp / int64(time.Second) }

// Block is a batch of applied transactions under a sequencer-signed header.
type Block struct {
	Header       BlockHeader    `json:"header"`
	Transactions []*Transaction `json:"transactions"`
	Hash         string         `json:"hash"`
	Signature    string         `json:"signature"`
}

// NewBlock returns an unsigned block stamped with the wall clock. The
// sequencer overrides Timestamp to keep it monotonic.
func NewBlock(height int64, prevHash, proposer string, txs []*Transaction) *Block {
	return &Block{
		Header: BlockHeader{
			Height:    height,
			PrevHash:  prevHash,
			TxRoot:    ComputeTxRoot(txs),
			Timestamp: time.Now().UnixNano(),
			Proposer:  proposer,
		},
		Transactions: txs,
	}
}

// ComputeHash hashes the JSON header. Marshalling a header cannot fail.
func (b *Block) ComputeHash() string {
	data, _ := json.Marshal(b.Header)
	return crypto.Hash(data)
}

func (b *Block) Sign(priv crypto.PrivateKey) {
	b.Hash = b.ComputeHash()
	b.Signature = priv.Sign([]byte(b.Hash))
}

// Verify checks that Hash matches the header, that TxRoot matches the body
// and that pub signed Hash.
func (b *Block) Verify(pub crypto.PublicKey) error {
	if b.Hash != b.ComputeHash() {
		return fmt.Errorf("%w: block hash does not match header", ErrValidation)
	}
	if b.Header.TxRoot != ComputeTxRoot(b.Transactions) && b.Header.Height > 0 {
		return fmt.Errorf("%w: tx root does not match body", ErrValidation)
	}
	return pub.Verify([]byte(b.Hash), b.Signature)
}

// Follows reports whether b may be appended on top of prev.
func (b *Block) Follows(prev *Block) error {
	switch {
	case b.Header.Height != prev.Header.Height+1:
		return fmt.Errorf("%w: height %d does not follow %d", ErrValidation, b.Header.Height, prev.Header.Height)
	case b.Header.PrevHash != prev.Hash:
		return fmt.Errorf("%w: prev_hash %s, want %s", ErrValidation, b.Header.PrevHash, prev.Hash)
	case b.Header.Timestamp <= prev.Header.Timestamp:
		return fmt.Errorf("%w: timestamp %d not after %d", ErrTiming, b.Header.Timestamp, prev.Header.Timestamp)
	}
	return nil
}

// ComputeTxRoot hashes the ordered transaction ids. An empty block has the
// hash of an empty id list.
func ComputeTxRoot(txs []*Transaction) string {
	ids := make([]string, len(txs))
	for i, tx := range txs {
		ids[i] = tx.ID
	}
	data, _ := json.Marshal(ids)
	return crypto.Hash(data)
}
