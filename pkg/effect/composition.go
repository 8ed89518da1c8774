// Copyright 2025 Certen Protocol
//
// Sequential and parallel effect composition. Grounded on
// crates/causality-core/src/effect/transform.rs's EffectComposition and
// EffectParallel execute() methods: sequential composition threads the
// context's current_location through each step and sums costs; parallel
// composition executes every effect against the same starting context
// and takes the max execution time while summing the rest.

package effect

import (
	"github.com/causality-labs/causality/pkg/codec"
	"github.com/causality-labs/causality/pkg/types"
)

// Composition is a sequence of effects executed one after another, each
// one's consumed resources matching the previous one's produced
// resources (enforced when the chain was built via Then).
type Composition struct {
	Effects               []*Effect
	InputType             *types.Type
	OutputType            *types.Type
	IntermediateLocations []types.Location
}

// Then extends the composition with one more effect, applying the same
// resource-matching check as Effect.Then.
func (c *Composition) Then(next *Effect) (*Composition, error) {
	last := c.Effects[len(c.Effects)-1]
	if !sameResourceSet(last.ProducedResources, next.ConsumedResources) {
		return nil, sequentialMismatch("next effect's consumed resources do not match the resources produced by the prior effect")
	}
	return &Composition{
		Effects:               append(append([]*Effect(nil), c.Effects...), next),
		InputType:             c.InputType,
		OutputType:            next.OutputType,
		IntermediateLocations: append(append([]types.Location(nil), c.IntermediateLocations...), next.From),
	}, nil
}

// Execute runs every effect in order, threading the context's
// CurrentLocation forward on each Success and accumulating Stats.
// Execution stops and returns the first non-Success Result.
func (c *Composition) Execute(ctx *Context) *Result {
	current := *ctx
	var resources []codec.ID
	total := Stats{}

	for _, e := range c.Effects {
		r := e.Execute(&current)
		if r.Kind != ResultSuccess {
			return r
		}
		resources = append(resources, r.ResourcesProduced...)
		if r.NewLocation != nil {
			current.CurrentLocation = *r.NewLocation
		}
		total.ExecutionTimeMS += r.Stats.ExecutionTimeMS
		if r.Stats.MemoryUsed > total.MemoryUsed {
			total.MemoryUsed = r.Stats.MemoryUsed
		}
		total.NetworkUsed += r.Stats.NetworkUsed
		total.ComputeCost += r.Stats.ComputeCost
		total.CommunicationCost += r.Stats.CommunicationCost
		total.LocationsInvolved = mergeLocations(total.LocationsInvolved, r.Stats.LocationsInvolved)
	}

	loc := current.CurrentLocation
	return &Result{Kind: ResultSuccess, ResourcesProduced: resources, NewLocation: &loc, Stats: total}
}

// MergeStrategy names how Parallel.Execute should combine concurrent
// results; only Tuple (keep every result) is implemented, matching the
// default the teacher's Rust source falls back to.
type MergeStrategy uint8

const (
	MergeTuple MergeStrategy = iota
	MergeConcatenate
	MergeFirstSuccess
)

// Parallel is a set of effects whose consumed-resource sets are
// pairwise disjoint (enforced when built via ParallelWith), executed
// concurrently against independent copies of the same starting
// context.
type Parallel struct {
	Effects       []*Effect
	MergeStrategy MergeStrategy
}

// Execute runs every effect against the same starting context (none of
// them observes another's location change) and merges their results:
// the slowest effect's time, the sum of every other cost, and the
// union of resources produced. Parallel effects never change
// NewLocation, matching the spec's "parallel effects don't change
// location" rule.
func (p *Parallel) Execute(ctx *Context) *Result {
	var resources []codec.ID
	total := Stats{}

	for _, e := range p.Effects {
		r := e.Execute(ctx)
		if r.Kind != ResultSuccess {
			return r
		}
		resources = append(resources, r.ResourcesProduced...)
		if r.Stats.ExecutionTimeMS > total.ExecutionTimeMS {
			total.ExecutionTimeMS = r.Stats.ExecutionTimeMS
		}
		total.MemoryUsed += r.Stats.MemoryUsed
		total.NetworkUsed += r.Stats.NetworkUsed
		total.ComputeCost += r.Stats.ComputeCost
		total.CommunicationCost += r.Stats.CommunicationCost
		total.LocationsInvolved = mergeLocations(total.LocationsInvolved, r.Stats.LocationsInvolved)
	}

	return &Result{Kind: ResultSuccess, ResourcesProduced: resources, NewLocation: nil, Stats: total}
}

func mergeLocations(a, b []types.Location) []types.Location {
	seen := make(map[string]types.Location, len(a)+len(b))
	for _, l := range a {
		seen[l.String()] = l
	}
	for _, l := range b {
		seen[l.String()] = l
	}
	out := make([]types.Location, 0, len(seen))
	for _, l := range seen {
		out = append(out, l)
	}
	return out
}
