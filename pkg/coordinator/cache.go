// Copyright 2025 Certen Protocol
//
// Proof cache: a single-writer, TTL-expiring cache of verified storage
// proofs, keyed by (domain, key), backed by a CometBFT key/value store.
// Grounded on accumulate-lite-client-2/liteclient/proof/consolidated_governance-proof/cache.go's
// RPCCache — same (entry holds value + insertion time, Get consults
// elapsed < TTL, a periodic sweep discards stale entries) shape,
// narrowed to the single writer the coordinator's single-threaded
// scheduler already guarantees (no RWMutex needed; see spec §5) — and
// on pkg/kvdb/adapter.go's Get/SetSync wrapping of dbm.DB, which this
// cache uses for the same reason: durable storage behind a narrow,
// error-returning interface rather than a bare map.
//
// keys tracks every live cache key in process memory so size() and
// sweep() don't need a key-range scan over the store; the store itself
// remains the source of truth for each entry's value and age.

package coordinator

import (
	"encoding/json"
	"time"

	dbm "github.com/cometbft/cometbft-db"

	"github.com/causality-labs/causality/pkg/codec"
)

type storedProof struct {
	Value      []byte `json:"value"`
	InsertedAt int64  `json:"inserted_at"`
}

// proofCache is mutated only by the coordinator goroutine driving
// Process/Submit/Cancel; it is not separately synchronized.
type proofCache struct {
	ttl  time.Duration
	db   dbm.DB
	keys map[string]bool
}

func newProofCache(ttl time.Duration, db dbm.DB) *proofCache {
	if db == nil {
		db = dbm.NewMemDB()
	}
	return &proofCache{ttl: ttl, db: db, keys: make(map[string]bool)}
}

func cacheKey(domain, key string) string { return "coordinator/proofcache/" + domain + "\x00" + key }

// get returns a cached value if present and not expired as of now.
func (c *proofCache) get(domain, key string, now time.Time) (*codec.Value, bool) {
	k := cacheKey(domain, key)
	raw, err := c.db.Get([]byte(k))
	if err != nil || raw == nil {
		return nil, false
	}

	var entry storedProof
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false
	}
	if now.Sub(time.Unix(0, entry.InsertedAt)) > c.ttl {
		return nil, false
	}

	value, _, err := codec.DecodeWithRemainder(entry.Value)
	if err != nil {
		return nil, false
	}
	return value, true
}

func (c *proofCache) set(domain, key string, v *codec.Value, now time.Time) {
	k := cacheKey(domain, key)
	entry := storedProof{Value: codec.Encode(v), InsertedAt: now.UnixNano()}
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := c.db.SetSync([]byte(k), raw); err != nil {
		return
	}
	c.keys[k] = true
}

// sweep removes every entry whose TTL has elapsed as of now.
func (c *proofCache) sweep(now time.Time) {
	for k := range c.keys {
		raw, err := c.db.Get([]byte(k))
		if err != nil || raw == nil {
			delete(c.keys, k)
			continue
		}
		var entry storedProof
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		if now.Sub(time.Unix(0, entry.InsertedAt)) > c.ttl {
			c.db.DeleteSync([]byte(k))
			delete(c.keys, k)
		}
	}
}

func (c *proofCache) size() int { return len(c.keys) }
