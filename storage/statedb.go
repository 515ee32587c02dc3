package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/crypto"
)

// registerPrefix records a state-key prefix into statePrefixes so that
// ComputeRoot() always covers it.  All prefix constants must be declared
// via this function; manually editing statePrefixes is not required.
func registerPrefix(p string) string {
	statePrefixes = append(statePrefixes, p)
	return p
}

// statePrefixes is populated automatically by registerPrefix() below.
// ComputeRoot() iterates these prefixes to build the full world-state view.
var statePrefixes []string

var (
	prefixAccount     = registerPrefix("acct:")
	prefixChain       = registerPrefix("chain:state:")
	prefixGameType    = registerPrefix("gtype:")
	prefixSession     = registerPrefix("sess:")
	prefixLeaderboard = registerPrefix("board:")
	prefixGameStats   = registerPrefix("gstats:")
	prefixCollection  = registerPrefix("coll:")
	prefixNFT         = registerPrefix("nft:")
	prefixOwned       = registerPrefix("owned:")
	prefixListing     = registerPrefix("list:")
	prefixAuction     = registerPrefix("auct:")
	prefixNFTStake    = registerPrefix("nstake:")
	prefixStakeList   = registerPrefix("nstakes:")
	prefixProposal    = registerPrefix("prop:")
	prefixVote        = registerPrefix("vote:")
	prefixTimelock    = registerPrefix("tlock:")
)

var (
	keyParams  = prefixChain + "params"
	keyGlobals = prefixChain + "globals"
)

type stateSnapshot struct {
	dirty   map[string][]byte
	deleted map[string]bool
}

// StateDB implements core.State on top of a DB with in-memory write buffer,
// snapshot/rollback, and deterministic state-root computation.
// The write buffer is guarded so RPC readers may run alongside the sequencer.
type StateDB struct {
	mu        sync.RWMutex
	db        DB
	dirty     map[string][]byte
	deleted   map[string]bool
	snapshots []stateSnapshot
}

// NewStateDB creates a StateDB backed by db.
func NewStateDB(db DB) *StateDB {
	return &StateDB{
		db:      db,
		dirty:   make(map[string][]byte),
		deleted: make(map[string]bool),
	}
}

// ---- internal helpers ----

func (s *StateDB) get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deleted[key] {
		return nil, core.ErrNotFound
	}
	if v, ok := s.dirty[key]; ok {
		return v, nil
	}
	return s.db.Get([]byte(key))
}

func (s *StateDB) set(key string, val []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deleted, key)
	s.dirty[key] = val
}

func (s *StateDB) del(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.dirty, key)
	s.deleted[key] = true
}

// load decodes the JSON record stored under key into a fresh T.
func load[T any](s *StateDB, key string) (*T, error) {
	data, err := s.get(key)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &v, nil
}

func (s *StateDB) store(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.set(key, data)
	return nil
}

func u64(v uint64) string { return strconv.FormatUint(v, 10) }

// ---- Account ----

func (s *StateDB) GetAccount(address string) (*core.Account, error) {
	acc, err := load[core.Account](s, prefixAccount+address)
	if errors.Is(err, core.ErrNotFound) {
		return &core.Account{Address: address}, nil // zero-value account
	}
	return acc, err
}

func (s *StateDB) SetAccount(acc *core.Account) error {
	return s.store(prefixAccount+acc.Address, acc)
}

// ---- Chain-wide records ----

// GetParams returns the stored parameters, or the defaults before genesis.
func (s *StateDB) GetParams() (*core.Params, error) {
	p, err := load[core.Params](s, keyParams)
	if errors.Is(err, core.ErrNotFound) {
		return core.DefaultParams(), nil
	}
	return p, err
}

func (s *StateDB) SetParams(p *core.Params) error {
	return s.store(keyParams, p)
}

func (s *StateDB) GetGlobals() (*core.Globals, error) {
	g, err := load[core.Globals](s, keyGlobals)
	if errors.Is(err, core.ErrNotFound) {
		return &core.Globals{}, nil
	}
	return g, err
}

func (s *StateDB) SetGlobals(g *core.Globals) error {
	return s.store(keyGlobals, g)
}

// ---- Games ----

func (s *StateDB) GetGameType(id core.GameTypeID) (*core.GameType, error) {
	return load[core.GameType](s, prefixGameType+u64(uint64(id)))
}

func (s *StateDB) SetGameType(g *core.GameType) error {
	return s.store(prefixGameType+u64(uint64(g.ID)), g)
}

func (s *StateDB) GetSession(id string) (*core.Session, error) {
	return load[core.Session](s, prefixSession+id)
}

func (s *StateDB) SetSession(sess *core.Session) error {
	return s.store(prefixSession+sess.ID, sess)
}

func (s *StateDB) GetLeaderboard(id core.GameTypeID) (*core.Leaderboard, error) {
	b, err := load[core.Leaderboard](s, prefixLeaderboard+u64(uint64(id)))
	if errors.Is(err, core.ErrNotFound) {
		return &core.Leaderboard{GameType: id}, nil
	}
	return b, err
}

func (s *StateDB) SetLeaderboard(l *core.Leaderboard) error {
	return s.store(prefixLeaderboard+u64(uint64(l.GameType)), l)
}

func (s *StateDB) GetGameStats(id core.GameTypeID) (*core.GameStats, error) {
	st, err := load[core.GameStats](s, prefixGameStats+u64(uint64(id)))
	if errors.Is(err, core.ErrNotFound) {
		return &core.GameStats{GameType: id}, nil
	}
	return st, err
}

func (s *StateDB) SetGameStats(st *core.GameStats) error {
	return s.store(prefixGameStats+u64(uint64(st.GameType)), st)
}

// ---- NFTs ----

func (s *StateDB) GetCollection(id string) (*core.Collection, error) {
	return load[core.Collection](s, prefixCollection+id)
}

func (s *StateDB) SetCollection(c *core.Collection) error {
	return s.store(prefixCollection+c.ID, c)
}

func nftKey(collectionID string, tokenID uint64) string {
	return prefixNFT + collectionID + ":" + u64(tokenID)
}

func (s *StateDB) GetNFT(collectionID string, tokenID uint64) (*core.NFT, error) {
	return load[core.NFT](s, nftKey(collectionID, tokenID))
}

func (s *StateDB) SetNFT(n *core.NFT) error {
	return s.store(nftKey(n.CollectionID, n.TokenID), n)
}

func (s *StateDB) GetOwnedList(owner, collectionID string) ([]uint64, error) {
	ids, err := load[[]uint64](s, prefixOwned+owner+":"+collectionID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return *ids, nil
}

func (s *StateDB) SetOwnedList(owner, collectionID string, ids []uint64) error {
	return s.store(prefixOwned+owner+":"+collectionID, ids)
}

// ---- Market ----

func (s *StateDB) GetListing(id uint64) (*core.MarketListing, error) {
	return load[core.MarketListing](s, prefixListing+u64(id))
}

func (s *StateDB) SetListing(l *core.MarketListing) error {
	return s.store(prefixListing+u64(l.ID), l)
}

func (s *StateDB) GetAuction(id uint64) (*core.Auction, error) {
	return load[core.Auction](s, prefixAuction+u64(id))
}

func (s *StateDB) SetAuction(a *core.Auction) error {
	return s.store(prefixAuction+u64(a.ID), a)
}

func (s *StateDB) GetNFTStake(id uint64) (*core.NFTStake, error) {
	return load[core.NFTStake](s, prefixNFTStake+u64(id))
}

func (s *StateDB) SetNFTStake(st *core.NFTStake) error {
	return s.store(prefixNFTStake+u64(st.ID), st)
}

func (s *StateDB) DeleteNFTStake(id uint64) error {
	s.del(prefixNFTStake + u64(id))
	return nil
}

func (s *StateDB) GetStakeList(owner string) ([]uint64, error) {
	ids, err := load[[]uint64](s, prefixStakeList+owner)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return *ids, nil
}

func (s *StateDB) SetStakeList(owner string, ids []uint64) error {
	return s.store(prefixStakeList+owner, ids)
}

// ---- Governance ----

func (s *StateDB) GetProposal(id uint64) (*core.Proposal, error) {
	return load[core.Proposal](s, prefixProposal+u64(id))
}

func (s *StateDB) SetProposal(p *core.Proposal) error {
	return s.store(prefixProposal+u64(p.ID), p)
}

func (s *StateDB) GetVote(proposalID uint64, voter string) (*core.Vote, error) {
	return load[core.Vote](s, prefixVote+u64(proposalID)+":"+voter)
}

func (s *StateDB) SetVote(v *core.Vote) error {
	return s.store(prefixVote+u64(v.ProposalID)+":"+v.Voter, v)
}

func (s *StateDB) GetTimelockOp(id string) (*core.TimelockOperation, error) {
	return load[core.TimelockOperation](s, prefixTimelock+id)
}

func (s *StateDB) SetTimelockOp(op *core.TimelockOperation) error {
	return s.store(prefixTimelock+op.ID, op)
}

// ---- Snapshot / Rollback / Commit ----

// Snapshot saves the current write buffer and returns a snapshot ID.
func (s *StateDB) Snapshot() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := stateSnapshot{
		dirty:   make(map[string][]byte, len(s.dirty)),
		deleted: make(map[string]bool, len(s.deleted)),
	}
	for k, v := range s.dirty {
		cp := make([]byte, len(v))
		copy(cp, v)
		snap.dirty[k] = cp
	}
	for k, v := range s.deleted {
		snap.deleted[k] = v
	}
	s.snapshots = append(s.snapshots, snap)
	return len(s.snapshots) - 1, nil
}

// RevertToSnapshot restores the write buffer to a previously saved snapshot.
// The snapshot maps are deep-copied so that subsequent writes cannot corrupt them.
func (s *StateDB) RevertToSnapshot(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 || id >= len(s.snapshots) {
		return fmt.Errorf("invalid snapshot id %d", id)
	}
	snap := s.snapshots[id]

	dirty := make(map[string][]byte, len(snap.dirty))
	for k, v := range snap.dirty {
		cp := make([]byte, len(v))
		copy(cp, v)
		dirty[k] = cp
	}
	deleted := make(map[string]bool, len(snap.deleted))
	for k, v := range snap.deleted {
		deleted[k] = v
	}

	s.dirty = dirty
	s.deleted = deleted
	s.snapshots = s.snapshots[:id]
	return nil
}

// ComputeRoot returns the deterministic hash of the complete world state.
// It merges all persisted state entries (scanned from DB by the known state
// prefixes) with the current write buffer, then hashes the sorted key-value
// pairs using length-prefix encoding.  It does NOT flush or modify state,
// so it is safe to call before signing a block.
func (s *StateDB) ComputeRoot() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	// Step 1: collect all persisted state entries from DB.
	merged := make(map[string][]byte)
	for _, prefix := range statePrefixes {
		it := s.db.NewIterator([]byte(prefix))
		for it.Next() {
			k := string(it.Key())
			v := make([]byte, len(it.Value()))
			copy(v, it.Value())
			merged[k] = v
		}
		it.Release()
	}

	// Step 2: apply in-memory write buffer (uncommitted changes this block).
	for k, v := range s.dirty {
		merged[k] = v
	}

	// Step 3: exclude deleted keys.
	for k := range s.deleted {
		delete(merged, k)
	}

	// Step 4: sort keys for determinism.
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Step 5: length-prefix encode each key-value pair and hash.
	var buf bytes.Buffer
	var lenBuf [4]byte
	for _, k := range keys {
		v := merged[k]
		kb := []byte(k)
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(kb)))
		buf.Write(lenBuf[:])
		buf.Write(kb)
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(v)))
		buf.Write(lenBuf[:])
		buf.Write(v)
	}
	return crypto.Hash(buf.Bytes())
}

// Commit atomically flushes the write buffer to the underlying DB via a
// WriteBatch and then clears it. Call ComputeRoot() before signing the block,
// then call Commit() after the block is safely stored.
func (s *StateDB) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := s.db.NewBatch()
	for k, v := range s.dirty {
		batch.Set([]byte(k), v)
	}
	for k := range s.deleted {
		batch.Delete([]byte(k))
	}
	if err := batch.Write(); err != nil {
		return err
	}
	s.dirty = make(map[string][]byte)
	s.deleted = make(map[string]bool)
	s.snapshots = nil
	return nil
}
