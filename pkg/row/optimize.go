// Copyright 2025 Certen Protocol
//
// Protocol optimization pass: recognizes repeated bulk-read / write-
// through access patterns and replaces them with a batched session,
// wrapping the batch in a pipelining stage once it is requested often
// enough. The matcher requires type compatibility, not just
// structural/arity compatibility, before unifying two patterns.

package row

import (
	"github.com/causality-labs/causality/pkg/types"
)

// AccessPattern is one observed (field, access, location-pair) request
// the optimizer is asked to consider for batching.
type AccessPattern struct {
	FieldName string
	Access    types.Access
	FieldType *types.Type
	Src, Dst  types.Location
}

// compatible reports whether two patterns may be unified into one
// batch: same access mode, same endpoints, and — the resolved Open
// Question — the same field type. Two structurally identical patterns
// over different types never unify.
func compatible(a, b AccessPattern) bool {
	if a.Access != b.Access {
		return false
	}
	if !a.Src.Equal(b.Src) || !a.Dst.Equal(b.Dst) {
		return false
	}
	return types.Equal(a.FieldType, b.FieldType)
}

// BatchedProtocol is the optimized session for a group of compatible
// access patterns: one Send carrying all field names/values, one
// Receive carrying all results.
type BatchedProtocol struct {
	Fields   []string
	Protocol *types.Session
}

// PipelineThreshold is the frequency at which a batch is additionally
// wrapped in a pipelining stage (the batch is re-issued without waiting
// for the previous batch's acknowledgment).
const PipelineThreshold = 3

// OptimizeBatch groups patterns into batches of mutually compatible
// access and synthesizes one session per batch. A batch requested at
// least PipelineThreshold times across calls is additionally marked
// Pipelined.
type OptimizeBatch struct {
	Fields    []string
	Protocol  *types.Session
	Pipelined bool
}

// Optimize groups patterns by compatibility and synthesizes one batched
// session per group. The optimized protocol's observable message
// sequence is a superset-or-equal of the unbatched base protocol: every
// field that would have been sent/received individually is still
// sent/received, just coalesced into one Send/Receive pair per group.
func Optimize(patterns []AccessPattern, frequency map[string]int) []OptimizeBatch {
	var groups [][]AccessPattern
	for _, p := range patterns {
		placed := false
		for i, g := range groups {
			if compatible(g[0], p) {
				groups[i] = append(groups[i], p)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, []AccessPattern{p})
		}
	}

	out := make([]OptimizeBatch, 0, len(groups))
	for _, g := range groups {
		names := make([]string, len(g))
		for i, p := range g {
			names[i] = p.FieldName
		}

		// The batched wire shape: one Send carrying every field's
		// payload type (folded as a right-nested product), one
		// Receive carrying the acknowledgment/result per field.
		var payload *types.Type = g[len(g)-1].FieldType
		for i := len(g) - 2; i >= 0; i-- {
			payload = types.Product(g[i].FieldType, payload)
		}
		batched := types.Send(payload, types.Receive(types.Bool(), types.End()))

		pipelined := false
		key := batchKey(names)
		if frequency != nil && frequency[key] >= PipelineThreshold {
			pipelined = true
		}

		out = append(out, OptimizeBatch{Fields: names, Protocol: batched, Pipelined: pipelined})
	}
	return out
}

func batchKey(names []string) string {
	key := ""
	for _, n := range names {
		key += n + ","
	}
	return key
}
