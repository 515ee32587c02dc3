package core

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

const (
	maxMempoolSize = 10_000
	maxTxAge       = time.Hour
	maxTxSkew      = 5 * time.Minute
)

// Mempool holds signed transactions waiting for the sequencer, in arrival
// order. It is safe for concurrent use by RPC and the block loop.
type Mempool struct {
	mu  sync.RWMutex
	txs map[string]*Transaction
	ord []string
	now func() time.Time
}

// MempoolOption configures a Mempool.
type MempoolOption func(*Mempool)

// WithMempoolClock replaces the clock used for the admission window.
func WithMempoolClock(now func() time.Time) MempoolOption {
	return func(m *Mempool) { m.now = now }
}

func NewMempool(opts ...MempoolOption) *Mempool {
	m := &Mempool{txs: make(map[string]*Transaction), now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Add admits tx if its signature verifies, its timestamp is within an hour
// in the past or five minutes in the future, and it is not already pending.
func (m *Mempool) Add(tx *Transaction) error {
	if err := tx.Verify(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	age := m.now().Sub(time.Unix(0, tx.Timestamp))
	switch {
	case age > maxTxAge:
		return fmt.Errorf("%w: transaction expired", ErrTiming)
	case -age > maxTxSkew:
		return fmt.Errorf("%w: transaction timestamp too far in the future", ErrTiming)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.txs) >= maxMempoolSize {
		return fmt.Errorf("%w: mempool full", ErrStateConflict)
	}
	if _, dup := m.txs[tx.ID]; dup {
		return fmt.Errorf("%w: tx %s already pending", ErrStateConflict, tx.ID)
	}
	m.txs[tx.ID] = tx
	m.ord = append(m.ord, tx.ID)
	return nil
}

// Pending returns up to n transactions, oldest first.
func (m *Mempool) Pending(n int) []*Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n = max(0, min(n, len(m.ord)))
	out := make([]*Transaction, 0, n)
	for _, id := range m.ord[:n] {
		out = append(out, m.txs[id])
	}
	return out
}

// Remove drops ids after the sequencer has included or rejected them.
func (m *Mempool) Remove(ids []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.txs, id)
	}
	m.ord = slices.DeleteFunc(m.ord, func(id string) bool {
		_, ok := m.txs[id]
		return !ok
	})
}

func (m *Mempool) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.txs)
}
