// Copyright 2025 Certen Protocol
//
// Unified constraint solver (C7): a single constraint language covering
// local and remote transforms, capability requirements, and session
// compatibility. Grounded on pkg/verification/unified_verifier.go's
// shape (one Verify* method per level, a single result struct
// accumulating per-level validity and Details) — here generalized to
// one Check method per Kind, accumulating into one Assignment.

package constraint

import (
	"github.com/causality-labs/causality/pkg/effect"
	"github.com/causality-labs/causality/pkg/types"
)

// Kind discriminates the four constraint shapes named in spec §4.7.
type Kind uint8

const (
	KindLocalTransform Kind = iota
	KindRemoteTransform
	KindCapabilityRequirement
	KindSessionCompatibility
)

func (k Kind) String() string {
	switch k {
	case KindLocalTransform:
		return "LocalTransform"
	case KindRemoteTransform:
		return "RemoteTransform"
	case KindCapabilityRequirement:
		return "CapabilityRequirement"
	case KindSessionCompatibility:
		return "SessionCompatibility"
	default:
		return "Unknown"
	}
}

// Constraint is a tagged union over Kind; only the fields relevant to
// Kind are populated, following effect.TransformDefinition's shape.
type Constraint struct {
	Kind Kind
	ID   string // stable handle used in the unsat core and in Var below

	// LocalTransform
	In, Out   *types.Type
	Transform *effect.TransformDefinition

	// RemoteTransform
	SrcLoc, DstLoc types.Location
	RemoteIn       *types.Type
	RemoteOut      *types.Type
	Protocol       *types.Session

	// CapabilityRequirement
	Holder     string // variable name whose capability set must satisfy this
	Capability effect.Capability

	// SessionCompatibility
	Var     string // variable bound to one end of the channel
	Session *types.Session
	Peer    *types.Session
}

// LocalTransform builds a KindLocalTransform constraint requiring a
// transform's declared input/output types to match in and out.
func LocalTransform(id string, in, out *types.Type, transform *effect.TransformDefinition) Constraint {
	return Constraint{Kind: KindLocalTransform, ID: id, In: in, Out: out, Transform: transform}
}

// RemoteTransform builds a KindRemoteTransform constraint requiring a
// protocol to carry remoteIn/remoteOut between srcLoc and dstLoc.
func RemoteTransform(id string, srcLoc, dstLoc types.Location, in, out *types.Type, protocol *types.Session) Constraint {
	return Constraint{Kind: KindRemoteTransform, ID: id, SrcLoc: srcLoc, DstLoc: dstLoc, RemoteIn: in, RemoteOut: out, Protocol: protocol}
}

// CapabilityRequirement builds a constraint that holder's capability
// set (looked up in the solving Environment) must imply capability.
func CapabilityRequirement(id, holder string, capability effect.Capability) Constraint {
	return Constraint{Kind: KindCapabilityRequirement, ID: id, Holder: holder, Capability: capability}
}

// SessionCompatibility builds a constraint that session and peer
// (looked up in the Environment by variable name) form a dual pair.
func SessionCompatibility(id, v string, session, peer *types.Session) Constraint {
	return Constraint{Kind: KindSessionCompatibility, ID: id, Var: v, Session: session, Peer: peer}
}
