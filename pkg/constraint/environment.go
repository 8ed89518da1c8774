// Copyright 2025 Certen Protocol

package constraint

import (
	"github.com/causality-labs/causality/pkg/effect"
	"github.com/causality-labs/causality/pkg/types"
)

// Environment is the assignment environment constraints are checked
// against: the capability set held by each named holder, and the
// session bound to each named channel variable (consulted when a
// SessionCompatibility constraint's Peer is left nil, so the peer can
// be discovered rather than supplied). Solving never mutates
// Environment; Solve reads it and produces a separate Assignment.
type Environment struct {
	Capabilities map[string][]effect.Capability
	Sessions     map[string]*types.Session
}

func NewEnvironment() *Environment {
	return &Environment{
		Capabilities: make(map[string][]effect.Capability),
		Sessions:     make(map[string]*types.Session),
	}
}

func (e *Environment) WithCapabilities(holder string, caps ...effect.Capability) *Environment {
	e.Capabilities[holder] = append(e.Capabilities[holder], caps...)
	return e
}

func (e *Environment) implies(holder string, want effect.Capability) bool {
	for _, c := range e.Capabilities[holder] {
		if c.Implies(want) {
			return true
		}
	}
	return false
}
