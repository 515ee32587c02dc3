// Package sequencer produces blocks on a single authorised node. Pending
// transactions are executed in mempool order; a transaction that fails is
// dropped from the block instead of rejecting the whole batch.
package sequencer

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tolelom/arcadechain/config"
	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/crypto"
	"github.com/tolelom/arcadechain/events"
	"github.com/tolelom/arcadechain/vm"
)

const defaultMaxBlockTxs = 500

var logger = log.WithField("module", "sequencer")

// Sequencer is the single-producer block engine.
type Sequencer struct {
	cfg     *config.Config
	bc      *core.Blockchain
	state   core.State
	mempool *core.Mempool
	exec    *vm.Executor
	emitter *events.Emitter
	privKey crypto.PrivateKey
	pubKey  crypto.PublicKey
	now     func() time.Time
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithClock overrides the wall clock used for block timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Sequencer) { s.now = now }
}

// New creates a Sequencer for the local node identified by privKey.
func New(
	cfg *config.Config,
	bc *core.Blockchain,
	state core.State,
	mempool *core.Mempool,
	exec *vm.Executor,
	emitter *events.Emitter,
	privKey crypto.PrivateKey,
	opts ...Option,
) *Sequencer {
	s := &Sequencer{
		cfg:     cfg,
		bc:      bc,
		state:   state,
		mempool: mempool,
		exec:    exec,
		emitter: emitter,
		privKey: privKey,
		pubKey:  privKey.Public(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsSequencer reports whether this node may produce blocks. An empty
// configured sequencer authorises any local key (development mode).
func (s *Sequencer) IsSequencer() bool {
	return s.cfg.Sequencer == "" || s.cfg.Sequencer == s.pubKey.Hex()
}

// ProduceBlock builds, executes, signs and commits the next block.
func (s *Sequencer) ProduceBlock() (*core.Block, error) {
	if !s.IsSequencer() {
		return nil, errors.New("not the configured sequencer")
	}

	limit := s.cfg.MaxBlockTxs
	if limit <= 0 {
		limit = defaultMaxBlockTxs
	}
	txs := s.mempool.Pending(limit)

	tip := s.bc.Tip()
	var prevHash string
	var nextHeight int64
	if tip == nil {
		prevHash = config.GenesisHash
		nextHeight = 1
	} else {
		prevHash = tip.Hash
		nextHeight = tip.Header.Height + 1
	}

	block := core.NewBlock(nextHeight, prevHash, s.pubKey.Hex(), nil)
	block.Header.Timestamp = s.now().UnixNano()
	if tip != nil && block.Header.Timestamp <= tip.Header.Timestamp {
		block.Header.Timestamp = tip.Header.Timestamp + 1
	}

	snap, err := s.state.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	applied := make([]*core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if err := s.apply(block, tx); err != nil {
			logger.WithFields(log.Fields{
				"height": nextHeight, "tx": tx.ID, "type": tx.Type, "from": tx.From,
			}).WithError(err).Warn("Dropped transaction")
			continue
		}
		applied = append(applied, tx)
	}
	block.Transactions = applied
	block.Header.TxRoot = core.ComputeTxRoot(applied)

	// The root covers the write buffer; nothing is flushed until the block
	// is stored.
	block.Header.StateRoot = s.state.ComputeRoot()
	block.Sign(s.privKey)

	if err := s.bc.AddBlock(block); err != nil {
		if revertErr := s.state.RevertToSnapshot(snap); revertErr != nil {
			logger.WithField("height", nextHeight).WithError(revertErr).
				Fatal("Block rejected and state revert failed")
		}
		return nil, fmt.Errorf("add block: %w", err)
	}

	// Flush state only after the block is safely stored.
	if err := s.state.Commit(); err != nil {
		logger.WithField("height", block.Header.Height).WithError(err).
			Fatal("Block stored but state commit failed")
	}

	// Emit after Sign() so block.Hash is set correctly.
	s.emitter.Emit(events.Event{
		Type:        events.EventBlockCommit,
		BlockHeight: block.Header.Height,
		Data:        map[string]any{"hash": block.Hash, "txs": len(block.Transactions)},
	})

	txIDs := make([]string, len(txs))
	for i, tx := range txs {
		txIDs[i] = tx.ID
	}
	s.mempool.Remove(txIDs)

	logger.WithFields(log.Fields{
		"height": block.Header.Height, "hash": block.Hash, "txs": len(applied), "dropped": len(txs) - len(applied),
	}).Debug("Produced block")
	return block, nil
}

// apply executes one transaction. A KeepState failure still counts as applied.
func (s *Sequencer) apply(block *core.Block, tx *core.Transaction) error {
	if tx.ChainID != s.cfg.Genesis.ChainID {
		return fmt.Errorf("%w: chain id %q, want %q", core.ErrValidation, tx.ChainID, s.cfg.Genesis.ChainID)
	}
	err := s.exec.ExecuteTx(block, tx)
	if err != nil && vm.IsKeepState(err) {
		logger.WithFields(log.Fields{"tx": tx.ID, "type": tx.Type}).WithError(err).Info("Applied with failed inner call")
		return nil
	}
	return err
}

// Run drives block production every interval until ctx is cancelled.
func (s *Sequencer) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !s.IsSequencer() {
				continue
			}
			if _, err := s.ProduceBlock(); err != nil {
				logger.WithError(err).Error("Produce block failed")
			}
		}
	}
}
