// Copyright 2025 Certen Protocol
//
// L2 effect algebra (C6): Effect is a location-indexed transformation,
// constructed by local_computation/remote_communication/data_migration
// and composed by Then (sequential) and ParallelWith (parallel).
// Grounded on crates/causality-core/src/effect/transform.rs's
// Effect<From,To>/EffectComposition/EffectParallel, folded here into a
// single Location-typed Effect since this implementation does not carry
// From/To as separate generic type parameters.

package effect

import (
	"github.com/causality-labs/causality/pkg/codec"
	"github.com/causality-labs/causality/pkg/lang"
	"github.com/causality-labs/causality/pkg/types"
)

// Effect is one transformation from From to To. Local computation sets
// From == To; remote communication and data migration set them apart.
type Effect struct {
	From, To types.Location

	InputType  *types.Type
	OutputType *types.Type

	Transform TransformDefinition

	RequiredCapabilities []Capability
	RequiredSession      *types.Session

	ConsumedResources []codec.ID
	ProducedResources []codec.ID
}

// LocalComputation builds an Effect whose From and To are the same
// location — a pure in-place transformation.
func LocalComputation(loc types.Location, in, out *types.Type, transform TransformDefinition) *Effect {
	return &Effect{From: loc, To: loc, InputType: in, OutputType: out, Transform: transform}
}

// RemoteCommunication builds an Effect moving data from one location to
// another over protocol, defaulting its Transform to a
// CommunicationSend of the input type (callers that need the receive
// half build a second Effect with ReceiveTransform).
func RemoteCommunication(from, to types.Location, in, out *types.Type, protocol *types.Session, channel *lang.Term) *Effect {
	e := &Effect{
		From: from, To: to,
		InputType: in, OutputType: out,
		Transform: SendTransform(channel, nil),
	}
	e.RequiredSession = protocol
	return e
}

// DataMigration builds an Effect that moves a resource of dataType from
// one location to another, lowering to a ResourceConsumption transform
// (the resource at from is consumed; an equivalent one is produced at
// to by the coordinator driving the migration protocol).
func DataMigration(from, to types.Location, dataType *types.Type, migrationProtocol *types.Session, target *lang.Term) *Effect {
	e := &Effect{
		From: from, To: to,
		InputType: dataType, OutputType: dataType,
		Transform: ConsumeTransform(target),
	}
	if migrationProtocol != nil {
		e.RequiredSession = migrationProtocol
	}
	return e
}

func (e *Effect) WithCapability(c Capability) *Effect {
	e.RequiredCapabilities = append(e.RequiredCapabilities, c)
	return e
}

func (e *Effect) WithSession(s *types.Session) *Effect {
	e.RequiredSession = s
	return e
}

func (e *Effect) Consumes(ids ...codec.ID) *Effect {
	e.ConsumedResources = append(e.ConsumedResources, ids...)
	return e
}

func (e *Effect) Produces(ids ...codec.ID) *Effect {
	e.ProducedResources = append(e.ProducedResources, ids...)
	return e
}

func (e *Effect) IsLocal() bool       { return e.From.Equal(e.To) }
func (e *Effect) IsDistributed() bool { return !e.From.Equal(e.To) }

// Then sequentially composes e with next, requiring next's consumed
// resources be exactly the resources e produced (matched by content
// id) — the spec's "output-of-n = input-of-n+1 by content id" rule.
func (e *Effect) Then(next *Effect) (*Composition, error) {
	if !sameResourceSet(e.ProducedResources, next.ConsumedResources) {
		return nil, sequentialMismatch("next effect's consumed resources do not match the resources produced by the prior effect")
	}
	return &Composition{
		Effects:               []*Effect{e, next},
		InputType:             e.InputType,
		OutputType:            next.OutputType,
		IntermediateLocations: []types.Location{next.From},
	}, nil
}

// ParallelWith composes e with other for concurrent execution,
// requiring their consumed-resource sets be disjoint.
func (e *Effect) ParallelWith(other *Effect) (*Parallel, error) {
	if overlaps(e.ConsumedResources, other.ConsumedResources) {
		return nil, resourceOverlap("parallel effects consume overlapping resources")
	}
	return &Parallel{Effects: []*Effect{e, other}, MergeStrategy: MergeTuple}, nil
}

func sameResourceSet(a, b []codec.ID) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[codec.ID]int, len(a))
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		if seen[id] == 0 {
			return false
		}
		seen[id]--
	}
	return true
}

func overlaps(a, b []codec.ID) bool {
	seen := make(map[codec.ID]struct{}, len(a))
	for _, id := range a {
		seen[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := seen[id]; ok {
			return true
		}
	}
	return false
}
