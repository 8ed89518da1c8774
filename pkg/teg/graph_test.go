// Copyright 2025 Certen Protocol

package teg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildLinearGraph(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph()
	require.NoError(t, g.AddEffectNode(&EffectNode{ID: "e1", EffectType: "lock", Domain: "chainA"}))
	require.NoError(t, g.AddEffectNode(&EffectNode{ID: "e2", EffectType: "verify", Domain: "chainA"}))
	require.NoError(t, g.AddEffectNode(&EffectNode{ID: "e3", EffectType: "mint", Domain: "chainB"}))
	require.NoError(t, g.AddResourceNode(&ResourceNode{ID: "r1", ResourceType: "token", Domain: "chainA"}))

	require.NoError(t, g.AddDependency("e2", "e1"))
	require.NoError(t, g.AddDependency("e3", "e2"))
	require.NoError(t, g.AddContinuation("e1", "e2", ""))
	require.NoError(t, g.AddContinuation("e2", "e3", "proof_valid"))
	require.NoError(t, g.AddResourceAccess("e1", "r1", AccessConsume))
	return g
}

func TestGraphValidateAcceptsAcyclicGraph(t *testing.T) {
	g := buildLinearGraph(t)
	require.NoError(t, g.Validate())
}

func TestGraphValidateRejectsCycle(t *testing.T) {
	g := buildLinearGraph(t)
	require.NoError(t, g.AddDependency("e1", "e3"))
	err := g.Validate()
	require.Error(t, err)
}

func TestGraphValidateRejectsDoubleConsumption(t *testing.T) {
	g := buildLinearGraph(t)
	require.NoError(t, g.AddResourceAccess("e2", "r1", AccessConsume))
	err := g.Validate()
	require.Error(t, err)
}

func TestAddDependencyUnknownEffectErrors(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddEffectNode(&EffectNode{ID: "e1", EffectType: "lock"}))
	err := g.AddDependency("e1", "ghost")
	require.Error(t, err)
}

func TestDuplicateNodeRejected(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddEffectNode(&EffectNode{ID: "e1", EffectType: "lock"}))
	err := g.AddEffectNode(&EffectNode{ID: "e1", EffectType: "lock"})
	require.Error(t, err)
}
