// Copyright 2025 Certen Protocol
//
// Effect execution context and result, and the execution contract
// itself. Grounded on transform.rs's EffectContext/EffectResult and its
// Effect::execute method: check required capabilities, then location
// reachability, then compute a cost/stats profile keyed by whether the
// transformation is local or distributed.

package effect

import (
	"github.com/causality-labs/causality/pkg/codec"
	"github.com/causality-labs/causality/pkg/types"
)

// Context is the ambient state an Effect executes against.
type Context struct {
	CurrentLocation       types.Location
	AvailableCapabilities []Capability
	ActiveSessions        map[string]*types.Session
	ResourceBindings      map[string]codec.ID

	// Constraints holds ids of constraints the caller's solver (pkg/constraint)
	// has already resolved for this execution; Effect.Execute does not
	// itself re-solve them, matching the teacher source's EffectContext
	// (which carries constraints without consulting them in execute()).
	Constraints []string
}

// DefaultContext returns a Context rooted at Local with no capabilities
// or active sessions, matching transform.rs's Default impl.
func DefaultContext() *Context {
	return &Context{
		CurrentLocation:  types.NewLocal(),
		ActiveSessions:   make(map[string]*types.Session),
		ResourceBindings: make(map[string]codec.ID),
	}
}

// ResultKind discriminates the outcome of executing an Effect.
type ResultKind uint8

const (
	ResultSuccess ResultKind = iota
	ResultCapabilityRequired
	ResultMigrationRequired
	ResultFailure
)

func (k ResultKind) String() string {
	switch k {
	case ResultSuccess:
		return "Success"
	case ResultCapabilityRequired:
		return "CapabilityRequired"
	case ResultMigrationRequired:
		return "MigrationRequired"
	case ResultFailure:
		return "Failure"
	default:
		return "Invalid"
	}
}

// Stats reports the cost profile of a completed effect execution.
type Stats struct {
	ExecutionTimeMS   uint64
	MemoryUsed        uint64
	NetworkUsed       uint64
	ComputeCost       uint64
	CommunicationCost uint64
	LocationsInvolved []types.Location
}

// Result is the tagged outcome of Effect.Execute; only the fields
// relevant to Kind are populated.
type Result struct {
	Kind ResultKind

	// Success
	ResourcesProduced []codec.ID
	NewLocation       *types.Location
	Stats             Stats

	// CapabilityRequired
	MissingCapabilities []Capability
	DelegationOptions   []*types.Session

	// MigrationRequired
	Target   types.Location
	Protocol *types.Session

	// Failure
	FailureKind FailureKind
	Message     string
}

// NewFailure builds a Failure Result. Effect.Execute itself never
// returns one directly (its own checks only ever yield Success,
// CapabilityRequired, or MigrationRequired); Failure is for callers
// driving an effect's transform externally (e.g. the coordinator
// running a source/destination effect against a chain driver) to
// report back into the same Result shape.
func NewFailure(kind FailureKind, message string) *Result {
	return &Result{Kind: ResultFailure, FailureKind: kind, Message: message}
}

// Execute runs e against ctx per the spec's execution contract: missing
// capabilities short-circuit to CapabilityRequired; an unreachable
// source location short-circuits to MigrationRequired; otherwise the
// transform runs and a cost/stats profile is returned as Success.
// Execute is total: it never panics and always returns a Result.
func (e *Effect) Execute(ctx *Context) *Result {
	var missing []Capability
	for _, required := range e.RequiredCapabilities {
		if !hasCapability(ctx.AvailableCapabilities, required) {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return &Result{Kind: ResultCapabilityRequired, MissingCapabilities: missing}
	}

	reachable := ctx.CurrentLocation.Equal(e.From) || e.From.Kind == types.LocRemote || e.From.Kind == types.LocDomain
	if !reachable {
		protocol := e.RequiredSession
		if protocol == nil {
			protocol = types.Send(e.InputType, types.End())
		}
		return &Result{Kind: ResultMigrationRequired, Target: e.From, Protocol: protocol}
	}

	distributed := e.IsDistributed()
	computeCost, communicationCost := e.costs(distributed)

	var locations []types.Location
	if distributed {
		locations = []types.Location{e.From, e.To}
	} else {
		locations = []types.Location{e.From}
	}

	executionTime := uint64(10)
	memory := uint64(1024)
	network := uint64(0)
	if distributed {
		executionTime = 100
		memory = 512
		network = 1024
	}

	newLoc := e.To
	return &Result{
		Kind:              ResultSuccess,
		ResourcesProduced: append([]codec.ID(nil), e.ProducedResources...),
		NewLocation:       &newLoc,
		Stats: Stats{
			ExecutionTimeMS:   executionTime,
			MemoryUsed:        memory,
			NetworkUsed:       network,
			ComputeCost:       computeCost,
			CommunicationCost: communicationCost,
			LocationsInvolved: locations,
		},
	}
}

// costs computes (compute_cost, communication_cost) for e's transform
// kind, following transform.rs's per-kind cost table: explicit
// communication transforms always cost (5, 50); a distributed function
// application adds an extra 25 on top of the base distributed
// communication cost; everything else costs 15 compute plus the base
// communication cost (0, or 25 when distributed).
func (e *Effect) costs(distributed bool) (compute, communication uint64) {
	baseCompute := uint64(10)
	baseCommunication := uint64(0)
	if distributed {
		baseCommunication = 25
	}

	switch e.Transform.Kind {
	case FunctionApplication:
		if distributed {
			return baseCompute, baseCommunication + 25
		}
		return baseCompute, 0
	case CommunicationSend, CommunicationReceive:
		return 5, 50
	default:
		return 15, baseCommunication
	}
}
