// Copyright 2025 Certen Protocol
//
// Cross-chain coordinator (C8) types: the 7-state machine, the
// CrossChainEffect record, and the externally observable StepResult
// and Statistics shapes. Grounded on crates/causality-core/src/effect/cross_chain.rs's
// CrossChainEffect/ExecutionState and on pkg/batch/consensus_coordinator.go's
// ConsensusState/ConsensusResult pairing (a State enum plus a Result
// struct reported once per transition).

package coordinator

import (
	"time"

	"github.com/causality-labs/causality/pkg/codec"
)

// State is one node of the 7-state cross-chain effect machine in §4.8.
type State string

const (
	StatePreparing           State = "preparing"
	StateSourceCommitted     State = "source_committed"
	StateVerifying           State = "verifying"
	StateDestinationCommitted State = "destination_committed"
	StateCompleted           State = "completed"
	StateFailed              State = "failed"
	StateRolledBack          State = "rolled_back"
)

// IsTerminal reports whether s is an absorbing state (§8 property 7:
// Completed and RolledBack are absorbing).
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateRolledBack
}

// Domain names a chain participating in a cross-chain effect.
// SupportsAtomic mirrors the original source's BlockchainDomain::supports_atomic_operations
// predicate (see DESIGN.md) — at least one of the two domains in a
// CrossChainEffect must report true, per its construction invariant.
type Domain struct {
	Name           string
	SupportsAtomic bool
}

// ProofRequirement names one storage key a CrossChainEffect must prove
// inclusion for before its destination effect may run.
type ProofRequirement struct {
	Domain       string
	Key          string
	ExpectedRoot codec.ID
	Contract     string
}

// CrossChainEffect is the unit the coordinator schedules and drives.
type CrossChainEffect struct {
	ID                 string
	SourceDomain       Domain
	DestinationDomain  Domain
	SourceEffect       []byte // opaque payload handed to SourceDomain's ChainDriver.Execute
	DestinationEffect  []byte // opaque payload handed to DestinationDomain's ChainDriver.Execute
	ProofRequirements  []ProofRequirement
	RollbackEffects    [][]byte // executed in reverse submission order on Failed, best-effort

	State     State
	Timeout   time.Duration
	CreatedAt time.Time

	// FailReason holds the Failed transition's reason; empty otherwise.
	FailReason string

	// VerifiedValues accumulates the proof requirement values the
	// SourceCommitted transition verified, keyed by proof key, and is
	// returned as that step's StepResult.ProofData. The destination
	// effect's payload is executed as given; these values are not passed
	// to it.
	VerifiedValues map[string]*codec.Value
}

// StepResult is the per-step outcome Process emits for one dequeued id.
type StepResult struct {
	ID        string
	NewState  State
	Success   bool
	Error     string
	ProofData map[string]*codec.Value
}

// Statistics summarizes scheduler pressure, per §6's exposed statistics() contract.
type Statistics struct {
	Active       int
	Queued       int
	Executing    int
	CachedProofs int
}
