// Package testutil holds in-memory storage, a scripted randomness source and
// a single-node chain harness shared by package tests.
package testutil

import (
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/storage"
)

// MemDB is a storage.DB over a map. Iterators walk keys in sorted order like
// LevelDB does.
type MemDB struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemDB() *MemDB {
	return &MemDB{data: make(map[string][]byte)}
}

func (m *MemDB) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, core.ErrNotFound
	}
	return slices.Clone(v), nil
}

func (m *MemDB) Set(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[string(key)] = slices.Clone(value)
	return nil
}

func (m *MemDB) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

// NewIterator snapshots the matching keys at call time.
func (m *MemDB) NewIterator(prefix []byte) storage.Iterator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := slices.Sorted(maps.Keys(m.data))
	it := &memIter{pos: -1}
	for _, k := range keys {
		if strings.HasPrefix(k, string(prefix)) {
			it.keys = append(it.keys, k)
			it.vals = append(it.vals, slices.Clone(m.data[k]))
		}
	}
	return it
}

func (m *MemDB) NewBatch() storage.Batch { return &memBatch{db: m} }

func (m *MemDB) Close() error { return nil }

type batchOp struct {
	key    string
	value  []byte
	delete bool
}

type memBatch struct {
	db  *MemDB
	ops []batchOp
}

func (b *memBatch) Set(key, value []byte) {
	b.ops = append(b.ops, batchOp{key: string(key), value: slices.Clone(value)})
}

func (b *memBatch) Delete(key []byte) {
	b.ops = append(b.ops, batchOp{key: string(key), delete: true})
}

func (b *memBatch) Reset() { b.ops = nil }

// Write applies every op under one lock.
func (b *memBatch) Write() error {
	b.db.mu.Lock()
	defer b.db.mu.Unlock()
	for _, op := range b.ops {
		if op.delete {
			delete(b.db.data, op.key)
			continue
		}
		b.db.data[op.key] = op.value
	}
	return nil
}

type memIter struct {
	keys []string
	vals [][]byte
	pos  int
}

func (it *memIter) Next() bool    { it.pos++; return it.pos < len(it.keys) }
func (it *memIter) Key() []byte   { return []byte(it.keys[it.pos]) }
func (it *memIter) Value() []byte { return it.vals[it.pos] }
func (it *memIter) Release()      {}
func (it *memIter) Error() error  { return nil }

func NewBlockStore() *storage.BlockStore { return storage.NewBlockStore(NewMemDB()) }

func NewStateDB() *storage.StateDB { return storage.NewStateDB(NewMemDB()) }
