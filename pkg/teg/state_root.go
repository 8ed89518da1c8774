// Copyright 2025 Certen Protocol
//
// Domain state-root manager: per-domain sub-roots stored in a
// CometBFT-backed key/value store, combined into a single teg_root by
// SHA-256 concatenation. Grounded on pkg/kvdb/adapter.go's dbm.DB
// wrapping pattern (Get/SetSync over an opaque byte-keyed store) and
// on pkg/anchor/anchor_manager.go's append-only, sequence-numbered
// record shape, generalized from "one anchor chain" to "one domain's
// state roots".

package teg

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	dbm "github.com/cometbft/cometbft-db"

	"github.com/causality-labs/causality/pkg/codec"
	"github.com/causality-labs/causality/pkg/commitment"
	"github.com/causality-labs/causality/pkg/merkle"
)

// subRootComponents is the fixed, ordered set of sub-roots a domain
// maintains, per §4.9. Order matters: TegRoot is SHA-256 of the
// concatenation of these roots in exactly this order.
var subRootComponents = []string{
	"nodes", "effects", "resources", "intents", "handlers", "constraints", "cross_domain_refs",
}

// DomainStateRoots is the per-domain tuple §4.9 names: one sub-root per
// component, the combined TegRoot, a monotonic Sequence, and the
// wall-clock Timestamp of the last update.
type DomainStateRoots struct {
	Domain    string              `json:"domain"`
	SubRoots  map[string]codec.ID `json:"sub_roots"`
	TegRoot   codec.ID            `json:"teg_root"`
	Sequence  uint64              `json:"sequence"`
	Timestamp time.Time           `json:"timestamp"`
}

// CrossDomainReference captures another domain's state root at the
// moment a program referenced one of its entities, per §4.9.
type CrossDomainReference struct {
	SourceDomain    string               `json:"source_domain"`
	TargetDomain    string               `json:"target_domain"`
	EntityID        string               `json:"entity_id"`
	EntityType      string               `json:"entity_type"`
	TargetStateRoot codec.ID               `json:"target_state_root"`
	Proof           *merkle.InclusionProof `json:"proof"`
}

// RootUpdate names one sub-root to replace in a batch.
type RootUpdate struct {
	Component string
	NewRoot   codec.ID
}

// Manager owns the domain state-root registry: one mutex serializes
// every read and write, and each update replaces the domain's record
// in a single SetSync, so readers see either the previous consistent
// state or the new one (§7's "never a partial write").
type Manager struct {
	mu    sync.Mutex
	db    dbm.DB
	clock func() time.Time
}

// NewManager returns a Manager backed by db. Passing nil uses an
// in-memory MemDB, matching the default backend named in §11.
func NewManager(db dbm.DB, clock func() time.Time) *Manager {
	if db == nil {
		db = dbm.NewMemDB()
	}
	if clock == nil {
		clock = time.Now
	}
	return &Manager{db: db, clock: clock}
}

func domainKey(domain string) []byte { return []byte("teg/domain/" + domain) }
func refKey(src, dst, entityID string) []byte {
	return []byte(fmt.Sprintf("teg/xref/%s/%s/%s", src, dst, entityID))
}

// InitializeDomain creates a fresh DomainStateRoots record for domain
// with every sub-root zeroed, sequence 0. Re-initializing an existing
// domain is an error; callers that want to reset a domain must do so
// explicitly by deleting its key out of band.
func (m *Manager) InitializeDomain(domain string) (*DomainStateRoots, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, _ := m.db.Get(domainKey(domain)); existing != nil {
		return nil, fmt.Errorf("teg: domain %q already initialized", domain)
	}

	roots := &DomainStateRoots{
		Domain:    domain,
		SubRoots:  make(map[string]codec.ID, len(subRootComponents)),
		Sequence:  0,
		Timestamp: m.clock(),
	}
	for _, c := range subRootComponents {
		roots.SubRoots[c] = codec.ID{}
	}
	roots.TegRoot = combinedRoot(roots.SubRoots)

	if err := m.put(domain, roots); err != nil {
		return nil, err
	}
	return roots, nil
}

// GetDomainRoots returns domain's current state, or false if it has
// not been initialized.
func (m *Manager) GetDomainRoots(domain string) (*DomainStateRoots, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(domain)
}

func (m *Manager) load(domain string) (*DomainStateRoots, bool) {
	raw, err := m.db.Get(domainKey(domain))
	if err != nil || raw == nil {
		return nil, false
	}
	var roots DomainStateRoots
	if err := json.Unmarshal(raw, &roots); err != nil {
		return nil, false
	}
	return &roots, true
}

func (m *Manager) put(domain string, roots *DomainStateRoots) error {
	raw, err := json.Marshal(roots)
	if err != nil {
		return fmt.Errorf("teg: encoding domain roots: %w", err)
	}
	return m.db.SetSync(domainKey(domain), raw)
}

// UpdateDomainRootsBatch atomically replaces the named sub-roots,
// increments sequence, re-timestamps, and recomputes teg_root, per
// §4.9. Applying the same ordered batch to two freshly initialized
// domains yields identical teg_root and sequence values (§8 property 8).
func (m *Manager) UpdateDomainRootsBatch(domain string, updates []RootUpdate) (*DomainStateRoots, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	roots, ok := m.load(domain)
	if !ok {
		return nil, fmt.Errorf("teg: domain %q not initialized", domain)
	}

	for _, u := range updates {
		if !isValidComponent(u.Component) {
			return nil, fmt.Errorf("teg: unknown sub-root component %q", u.Component)
		}
		roots.SubRoots[u.Component] = u.NewRoot
	}

	roots.Sequence++
	roots.Timestamp = m.clock()
	roots.TegRoot = combinedRoot(roots.SubRoots)

	if err := m.put(domain, roots); err != nil {
		return nil, err
	}
	return roots, nil
}

func isValidComponent(name string) bool {
	for _, c := range subRootComponents {
		if c == name {
			return true
		}
	}
	return false
}

// combinedRoot computes teg_root = SHA256(nodes || effects || resources
// || intents || handlers || constraints || cross_domain_refs), in that
// fixed order, per §4.9.
func combinedRoot(subRoots map[string]codec.ID) codec.ID {
	parts := make([][]byte, 0, len(subRootComponents))
	for _, c := range subRootComponents {
		root := subRoots[c]
		parts = append(parts, root.Bytes())
	}
	var id codec.ID
	copy(id[:], commitment.HashConcat(parts...))
	return id
}

// CreateCrossDomainReference captures dst's current teg_root as the
// reference's target state root and stores both the reference and its
// inclusion proof under a deterministic key, per §4.9.
func (m *Manager) CreateCrossDomainReference(src, dst, entityID, entityType string, proof *merkle.InclusionProof) (*CrossDomainReference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dstRoots, ok := m.load(dst)
	if !ok {
		return nil, fmt.Errorf("teg: target domain %q not initialized", dst)
	}

	ref := &CrossDomainReference{
		SourceDomain:    src,
		TargetDomain:    dst,
		EntityID:        entityID,
		EntityType:      entityType,
		TargetStateRoot: dstRoots.TegRoot,
		Proof:           proof,
	}

	raw, err := json.Marshal(ref)
	if err != nil {
		return nil, fmt.Errorf("teg: encoding cross-domain reference: %w", err)
	}
	if err := m.db.SetSync(refKey(src, dst, entityID), raw); err != nil {
		return nil, fmt.Errorf("teg: storing cross-domain reference: %w", err)
	}
	return ref, nil
}

// GetCrossDomainReference retrieves a previously created reference.
func (m *Manager) GetCrossDomainReference(src, dst, entityID string) (*CrossDomainReference, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, err := m.db.Get(refKey(src, dst, entityID))
	if err != nil || raw == nil {
		return nil, false
	}
	var ref CrossDomainReference
	if err := json.Unmarshal(raw, &ref); err != nil {
		return nil, false
	}
	return &ref, true
}
