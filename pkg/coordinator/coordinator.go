// Copyright 2025 Certen Protocol
//
// Coordinator drives CrossChainEffects through the 7-state machine in
// §4.8: a single-threaded cooperative scheduler over an explicit
// queue (§5) — it never blocks on a domain call; Process performs one
// transition per dequeued id per call, so driving an effect to
// Completed takes as many Process calls as it has non-terminal states.
// Grounded on pkg/batch/consensus_coordinator.go's ConsensusCoordinator
// (config struct with a logger default, entries map + mutex, a
// callback pair) generalized from "one anchor batch" to "one
// cross-chain effect", plus the single-writer proof cache from
// accumulate-lite-client-2's RPCCache (see cache.go).

package coordinator

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	dbm "github.com/cometbft/cometbft-db"

	"github.com/causality-labs/causality/pkg/chaindriver"
	"github.com/causality-labs/causality/pkg/codec"
)

// Config holds the coordinator's tunables, per §6's enumerated options.
type Config struct {
	CacheTTL       time.Duration
	MaxConcurrent  int
	DefaultTimeout time.Duration
	Logger         *log.Logger

	// CacheDB backs the proof cache (see cache.go); nil defaults to an
	// in-memory dbm.MemDB, matching pkg/teg.Manager's DB default.
	CacheDB dbm.DB
}

// DefaultConfig returns the coordinator's default configuration: a
// 5-minute proof cache TTL, 10 concurrent operations, and a 1-hour
// default timeout, matching §4.8's stated defaults.
func DefaultConfig() *Config {
	return &Config{
		CacheTTL:       5 * time.Minute,
		MaxConcurrent:  10,
		DefaultTimeout: time.Hour,
	}
}

// Coordinator is the single-writer owner of the execution queue, the
// active-operations table, and the proof cache (§5's three shared
// structures). Every exported method is safe to call from one
// goroutine at a time; nothing here is internally synchronized beyond
// that, matching the teacher's "single-writer, append-only" shape
// rather than adding locks the design note says are unnecessary.
type Coordinator struct {
	config *Config

	drivers map[string]chaindriver.ChainDriver // domain name -> driver
	oracle  chaindriver.ProofOracle
	clock   chaindriver.ClockSource
	idGen   chaindriver.IdSource

	effects map[string]*CrossChainEffect
	queue   []string

	// executing is populated after a step's result is emitted for the
	// step's new state (not before), resolving the Open Question in
	// spec §9 in favor of "in-flight set including terminal-pending
	// transitions this tick" — see DESIGN.md. It is rebuilt fresh on
	// every Process call; it never persists state across calls because
	// nothing is actually concurrent in this single-threaded scheduler.
	executing map[string]bool

	cache *proofCache

	logger *log.Logger
}

// New builds a Coordinator. drivers maps each domain name the
// coordinator will ever see to the ChainDriver that executes effects
// against it; oracle, clock, and idGen default to the stdlib-backed
// implementations in pkg/chaindriver when nil.
func New(config *Config, drivers map[string]chaindriver.ChainDriver, oracle chaindriver.ProofOracle, clock chaindriver.ClockSource, idGen chaindriver.IdSource) *Coordinator {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(log.Writer(), "[Coordinator] ", log.LstdFlags)
	}
	if oracle == nil {
		oracle = chaindriver.StubProofOracle{}
	}
	if clock == nil {
		clock = chaindriver.SystemClock{}
	}
	if idGen == nil {
		idGen = chaindriver.UUIDIdSource{}
	}

	return &Coordinator{
		config:    config,
		drivers:   drivers,
		oracle:    oracle,
		clock:     clock,
		idGen:     idGen,
		effects:   make(map[string]*CrossChainEffect),
		executing: make(map[string]bool),
		cache:     newProofCache(config.CacheTTL, config.CacheDB),
		logger:    config.Logger,
	}
}

func (c *Coordinator) now() time.Time { return time.Unix(0, c.clock.Now()) }

// Submit validates effect per §4.8, assigns it an id if unset, and
// appends it to the execution queue in Preparing state.
func (c *Coordinator) Submit(effect *CrossChainEffect) (string, error) {
	if err := c.validate(effect); err != nil {
		return "", err
	}

	if effect.ID == "" {
		effect.ID = c.idGen.NewID()
	}
	effect.State = StatePreparing
	if effect.CreatedAt.IsZero() {
		effect.CreatedAt = c.now()
	}
	if effect.Timeout == 0 {
		effect.Timeout = c.config.DefaultTimeout
	}
	if effect.VerifiedValues == nil {
		effect.VerifiedValues = make(map[string]*codec.Value)
	}

	c.effects[effect.ID] = effect
	c.queue = append(c.queue, effect.ID)
	return effect.ID, nil
}

func (c *Coordinator) validate(effect *CrossChainEffect) error {
	if effect == nil {
		return &ValidationError{Reason: "effect is nil"}
	}
	if effect.SourceDomain.Name == effect.DestinationDomain.Name {
		return &ValidationError{Reason: "source and destination domains must differ"}
	}
	timeout := effect.Timeout
	if timeout == 0 {
		timeout = c.config.DefaultTimeout
	}
	if timeout < time.Second || timeout > 24*time.Hour {
		return &ValidationError{Reason: "timeout must be between 1s and 24h"}
	}
	if len(effect.ProofRequirements) == 0 {
		return &ValidationError{Reason: "at least one proof requirement is required"}
	}
	for _, req := range effect.ProofRequirements {
		if req.Key == "" {
			return &ValidationError{Reason: "proof requirement storage keys must be non-empty"}
		}
	}
	if !effect.SourceDomain.SupportsAtomic && !effect.DestinationDomain.SupportsAtomic {
		return &ValidationError{Reason: "at least one domain must support atomic operations"}
	}
	return nil
}

// Process drains the queue while the per-tick executing set stays
// below MaxConcurrent, performing exactly one state transition per
// dequeued id, and returns every step's result. It also sweeps timed
// out operations and expired cache entries first, per §4.8's cleanup
// contract.
func (c *Coordinator) Process(ctx context.Context) []StepResult {
	now := c.now()
	c.cache.sweep(now)

	var results []StepResult
	c.executing = make(map[string]bool)

	timedOut := c.collectTimedOut(now)
	for _, id := range timedOut {
		results = append(results, c.forceTimeout(id))
	}

	var requeue []string
	for len(c.executing) < c.config.MaxConcurrent && len(c.queue) > 0 {
		id := c.queue[0]
		c.queue = c.queue[1:]

		effect, ok := c.effects[id]
		if !ok {
			continue // cancelled since being queued
		}

		result := c.step(ctx, effect)
		results = append(results, result)
		c.executing[id] = true

		if effect.State.IsTerminal() {
			delete(c.effects, id)
		} else {
			requeue = append(requeue, id)
		}
	}
	c.queue = append(c.queue, requeue...)

	return results
}

func (c *Coordinator) collectTimedOut(now time.Time) []string {
	var ids []string
	for id, effect := range c.effects {
		if effect.State.IsTerminal() {
			continue
		}
		if now.Sub(effect.CreatedAt) > effect.Timeout {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (c *Coordinator) forceTimeout(id string) StepResult {
	effect := c.effects[id]
	effect.State = StateFailed
	effect.FailReason = "timeout"
	c.rollback(effect)
	effect.State = StateRolledBack
	delete(c.effects, id)
	c.removeFromQueue(id)
	return StepResult{ID: id, NewState: StateRolledBack, Success: false, Error: "Operation timeout"}
}

func (c *Coordinator) removeFromQueue(id string) {
	out := c.queue[:0]
	for _, qid := range c.queue {
		if qid != id {
			out = append(out, qid)
		}
	}
	c.queue = out
}

// step performs the single transition action appropriate to effect's
// current state, per §4.8's per-state action table.
func (c *Coordinator) step(ctx context.Context, effect *CrossChainEffect) StepResult {
	switch effect.State {
	case StatePreparing:
		return c.stepPreparing(ctx, effect)
	case StateSourceCommitted:
		return c.stepSourceCommitted(ctx, effect)
	case StateVerifying:
		return c.stepVerifying(ctx, effect)
	case StateDestinationCommitted:
		effect.State = StateCompleted
		return StepResult{ID: effect.ID, NewState: StateCompleted, Success: true}
	case StateFailed:
		c.rollback(effect)
		effect.State = StateRolledBack
		return StepResult{ID: effect.ID, NewState: StateRolledBack, Success: false, Error: effect.FailReason}
	default:
		return StepResult{ID: effect.ID, NewState: effect.State, Success: false, Error: "unrecognized state"}
	}
}

func (c *Coordinator) stepPreparing(ctx context.Context, effect *CrossChainEffect) StepResult {
	driver, ok := c.drivers[effect.SourceDomain.Name]
	if !ok {
		effect.State = StateFailed
		effect.FailReason = fmt.Sprintf("no chain driver registered for source domain %s", effect.SourceDomain.Name)
		return StepResult{ID: effect.ID, NewState: StateFailed, Success: false, Error: effect.FailReason}
	}

	_, err := driver.Execute(ctx, effect.SourceEffect)
	if err != nil {
		effect.State = StateFailed
		effect.FailReason = "Source effect execution failed"
		return StepResult{ID: effect.ID, NewState: StateFailed, Success: false, Error: effect.FailReason}
	}

	effect.State = StateSourceCommitted
	return StepResult{ID: effect.ID, NewState: StateSourceCommitted, Success: true}
}

func (c *Coordinator) stepSourceCommitted(ctx context.Context, effect *CrossChainEffect) StepResult {
	driver, ok := c.drivers[effect.SourceDomain.Name]
	if !ok {
		effect.State = StateFailed
		effect.FailReason = fmt.Sprintf("no chain driver registered for source domain %s", effect.SourceDomain.Name)
		return StepResult{ID: effect.ID, NewState: StateFailed, Success: false, Error: effect.FailReason}
	}

	now := c.now()
	verified := make(map[string]*codec.Value, len(effect.ProofRequirements))

	for _, req := range effect.ProofRequirements {
		if cached, ok := c.cache.get(req.Domain, req.Key, now); ok {
			verified[req.Key] = cached
			continue
		}

		proof, err := driver.FetchStorageProof(ctx, req.Domain, req.Key, req.Contract)
		if err != nil {
			effect.State = StateFailed
			effect.FailReason = fmt.Sprintf("proof fetch failed for %s: %v", req.Key, err)
			return StepResult{ID: effect.ID, NewState: StateFailed, Success: false, Error: effect.FailReason}
		}

		value, err := driver.VerifyProof(ctx, proof, req.ExpectedRoot)
		if err != nil {
			effect.State = StateFailed
			effect.FailReason = fmt.Sprintf("proof verification failed for %s: %v", req.Key, err)
			return StepResult{ID: effect.ID, NewState: StateFailed, Success: false, Error: effect.FailReason}
		}

		c.cache.set(req.Domain, req.Key, value, now)
		verified[req.Key] = value
	}

	effect.VerifiedValues = verified
	effect.State = StateVerifying
	return StepResult{ID: effect.ID, NewState: StateVerifying, Success: true, ProofData: verified}
}

func (c *Coordinator) stepVerifying(ctx context.Context, effect *CrossChainEffect) StepResult {
	driver, ok := c.drivers[effect.DestinationDomain.Name]
	if !ok {
		effect.State = StateFailed
		effect.FailReason = fmt.Sprintf("no chain driver registered for destination domain %s", effect.DestinationDomain.Name)
		return StepResult{ID: effect.ID, NewState: StateFailed, Success: false, Error: effect.FailReason}
	}

	_, err := driver.Execute(ctx, effect.DestinationEffect)
	if err != nil {
		effect.State = StateFailed
		effect.FailReason = "Destination effect execution failed"
		return StepResult{ID: effect.ID, NewState: StateFailed, Success: false, Error: effect.FailReason}
	}

	effect.State = StateDestinationCommitted
	return StepResult{ID: effect.ID, NewState: StateDestinationCommitted, Success: true}
}

// rollback runs effect's rollback effects in reverse submission order,
// best-effort: a failing rollback step is logged and does not stop the
// remaining ones. Reverse order is authoritative per spec §9's
// resolution of the documented ambiguity.
func (c *Coordinator) rollback(effect *CrossChainEffect) {
	for i := len(effect.RollbackEffects) - 1; i >= 0; i-- {
		driver, ok := c.drivers[effect.SourceDomain.Name]
		if !ok {
			continue
		}
		if _, err := driver.Execute(context.Background(), effect.RollbackEffects[i]); err != nil {
			c.logger.Printf("rollback step %d for %s failed: %v", i, effect.ID, err)
		}
	}
}

// Status returns the current state of id, or false if it is unknown or
// has reached a terminal state (terminal effects are removed from the
// active table, per §8 scenario B/D).
func (c *Coordinator) Status(id string) (State, bool) {
	effect, ok := c.effects[id]
	if !ok {
		return "", false
	}
	return effect.State, true
}

// Cancel transitions id to Failed("cancelled"), runs its rollback
// effects synchronously, and removes it from the queue and active
// table. Cancelling an unknown or already-terminal id is a no-op error.
func (c *Coordinator) Cancel(id string) error {
	effect, ok := c.effects[id]
	if !ok {
		return &CancelError{ID: id, Reason: "unknown id"}
	}
	if effect.State.IsTerminal() {
		return &CancelError{ID: id, Reason: "already terminal"}
	}

	effect.State = StateFailed
	effect.FailReason = "cancelled"
	c.rollback(effect)
	effect.State = StateRolledBack

	c.removeFromQueue(id)
	delete(c.effects, id)
	return nil
}

// Statistics reports current scheduler pressure, per §6.
func (c *Coordinator) Statistics() Statistics {
	return Statistics{
		Active:       len(c.effects),
		Queued:       len(c.queue),
		Executing:    len(c.executing),
		CachedProofs: c.cache.size(),
	}
}
