// Package indexer maintains secondary indexes over committed blocks so game
// servers can query sessions and NFTs by account without scanning full state.
package indexer

import (
	"encoding/json"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	log "github.com/sirupsen/logrus"

	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/events"
	"github.com/tolelom/arcadechain/storage"
)

const (
	prefixOwnerNFTs     = "idx:owner:nft:"
	prefixPlayerSession = "idx:player:session:"

	defaultCacheSize = 1024
)

var logger = log.WithField("module", "indexer")

// Indexer subscribes to chain events and updates secondary lookup tables.
// Recently used lists are kept in an LRU cache in front of db.
type Indexer struct {
	db      storage.DB
	emitter *events.Emitter
	cache   *lru.Cache
}

// New creates an Indexer backed by db and subscribes to relevant events.
func New(db storage.DB, emitter *events.Emitter) (*Indexer, error) {
	cache, err := lru.New(defaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("indexer cache: %w", err)
	}
	idx := &Indexer{db: db, emitter: emitter, cache: cache}
	emitter.Subscribe(events.EventNFTMinted, idx.onNFTMinted)
	emitter.Subscribe(events.EventNFTTransfer, idx.onNFTTransferred)
	emitter.Subscribe(events.EventSessionOpen, idx.onSessionOpen)
	return idx, nil
}

// NFTKey formats an NFT reference as stored in the owner index.
func NFTKey(collectionID string, tokenID uint64) string {
	return fmt.Sprintf("%s/%d", collectionID, tokenID)
}

// GetNFTsByOwner returns every NFT key ("collection/token") owned by owner.
func (idx *Indexer) GetNFTsByOwner(owner string) ([]string, error) {
	return idx.getList(prefixOwnerNFTs + owner)
}

// GetSessionsByPlayer returns all session IDs a player opened.
func (idx *Indexer) GetSessionsByPlayer(player string) ([]string, error) {
	return idx.getList(prefixPlayerSession + player)
}

// ---- event handlers ----

func nftRef(ev events.Event) (string, bool) {
	coll, _ := ev.Data["collection_id"].(string)
	tokenID, ok := ev.Data["token_id"].(uint64)
	if coll == "" || !ok {
		return "", false
	}
	return NFTKey(coll, tokenID), true
}

func (idx *Indexer) onNFTMinted(ev events.Event) {
	owner, _ := ev.Data["owner"].(string)
	key, ok := nftRef(ev)
	if owner == "" || !ok {
		return
	}
	idx.must(idx.addToList(prefixOwnerNFTs+owner, key), ev)
}

func (idx *Indexer) onNFTTransferred(ev events.Event) {
	from, _ := ev.Data["from"].(string)
	to, _ := ev.Data["to"].(string)
	key, ok := nftRef(ev)
	if !ok || from == "" || to == "" {
		return
	}
	if err := idx.removeFromList(prefixOwnerNFTs+from, key); err != nil {
		idx.must(err, ev)
		return
	}
	idx.must(idx.addToList(prefixOwnerNFTs+to, key), ev)
}

func (idx *Indexer) onSessionOpen(ev events.Event) {
	sessionID, _ := ev.Data["session_id"].(string)
	player, _ := ev.Data["player"].(string)
	if sessionID == "" || player == "" {
		return
	}
	idx.must(idx.addToList(prefixPlayerSession+player, sessionID), ev)
}

func (idx *Indexer) must(err error, ev events.Event) {
	if err != nil {
		logger.WithFields(log.Fields{"event": ev.Type, "tx": ev.TxID}).WithError(err).Warn("Index update failed")
	}
}

// ---- list helpers ----

func (idx *Indexer) getList(key string) ([]string, error) {
	if v, ok := idx.cache.Get(key); ok {
		return append([]string(nil), v.([]string)...), nil
	}
	data, err := idx.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil // empty list
		}
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("indexer unmarshal: %w", err)
	}
	idx.cache.Add(key, ids)
	return append([]string(nil), ids...), nil
}

func (idx *Indexer) putList(key string, ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	if err := idx.db.Set([]byte(key), data); err != nil {
		idx.cache.Remove(key)
		return err
	}
	idx.cache.Add(key, ids)
	return nil
}

func (idx *Indexer) addToList(key, value string) error {
	ids, err := idx.getList(key)
	if err != nil {
		return err
	}
	return idx.putList(key, append(ids, value))
}

func (idx *Indexer) removeFromList(key, value string) error {
	ids, err := idx.getList(key)
	if err != nil {
		return err
	}
	filtered := ids[:0]
	for _, id := range ids {
		if id != value {
			filtered = append(filtered, id)
		}
	}
	return idx.putList(key, filtered)
}
