package core

import (
	"fmt"
	"sync"
)

// BlockStore persists blocks for a Blockchain. storage.BlockStore is the
// LevelDB-backed implementation.
type BlockStore interface {
	GetBlock(hash string) (*Block, error)
	GetBlockByHeight(height int64) (*Block, error)
	// GetTip returns "" on a fresh chain.
	GetTip() (string, error)
	// CommitBlock writes the block, its height index and the tip pointer
	// atomically.
	CommitBlock(block *Block) error
}

// Blockchain is the single canonical chain produced by the sequencer.
type Blockchain struct {
	mu     sync.RWMutex
	store  BlockStore
	tip    *Block
	height int64
}

// NewBlockchain returns a Blockchain over store. Init loads a persisted tip.
func NewBlockchain(store BlockStore) *Blockchain {
	return &Blockchain{store: store}
}

// Init restores the tip from the store and checks that its stored hash
// still matches its header.
func (bc *Blockchain) Init() error {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	tipHash, err := bc.store.GetTip()
	if err != nil {
		return fmt.Errorf("get tip: %w", err)
	}
	if tipHash == "" {
		return nil // fresh chain
	}
	tip, err := bc.store.GetBlock(tipHash)
	if err != nil {
		return fmt.Errorf("load tip block: %w", err)
	}
	if tip.Hash != tip.ComputeHash() {
		return fmt.Errorf("%w: stored tip %s is corrupt", ErrValidation, tipHash)
	}
	bc.tip = tip
	bc.height = tip.Header.Height
	return nil
}

// AddBlock appends block after checking it against the tip, then persists it
// and advances the tip in one batch.
func (bc *Blockchain) AddBlock(block *Block) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	if bc.tip != nil {
		if err := block.Follows(bc.tip); err != nil {
			return err
		}
	}
	if err := bc.store.CommitBlock(block); err != nil {
		return fmt.Errorf("commit block %d: %w", block.Header.Height, err)
	}
	bc.tip = block
	bc.height = block.Header.Height
	return nil
}

// GetBlock returns a block by its hash.
func (bc *Blockchain) GetBlock(hash string) (*Block, error) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.store.GetBlock(hash)
}

// GetBlockByHeight returns the block at the given height.
func (bc *Blockchain) GetBlockByHeight(height int64) (*Block, error) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.store.GetBlockByHeight(height)
}

// Tip returns the current chain tip, or nil for a fresh chain.
func (bc *Blockchain) Tip() *Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.tip
}

// Height returns the height of the current tip (0 for a fresh chain).
func (bc *Blockchain) Height() int64 {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.height
}

// Now returns the tip's time in seconds, or fallback before the first block.
func (bc *Blockchain) Now(fallback int64) int64 {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	if bc.tip == nil {
		return fallback
	}
	return bc.tip.Header.Unix()
}
