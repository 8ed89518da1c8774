// Copyright 2025 Certen Protocol

package constraint

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/causality-labs/causality/pkg/effect"
	"github.com/causality-labs/causality/pkg/types"
)

func TestSolveCapabilityRequirement(t *testing.T) {
	env := NewEnvironment().WithCapabilities("alice", effect.Capability{Name: "read:account"})

	c := CapabilityRequirement("c1", "alice", effect.Capability{Name: "read:account"})
	assignment, err := Solve([]Constraint{c}, env)
	require.NoError(t, err)
	require.Equal(t, []string{"c1"}, assignment.Satisfied)

	missing := CapabilityRequirement("c2", "alice", effect.Capability{Name: "write:account"})
	_, err = Solve([]Constraint{missing}, env)
	require.Error(t, err)
	var unsat *UnsatError
	require.ErrorAs(t, err, &unsat)
	require.Equal(t, []string{"c2"}, unsat.Core)
}

func TestSolveWildcardCapability(t *testing.T) {
	env := NewEnvironment().WithCapabilities("bob", effect.Capability{Name: "*"})
	c := CapabilityRequirement("c1", "bob", effect.Capability{Name: "anything"})
	_, err := Solve([]Constraint{c}, env)
	require.NoError(t, err)
}

func TestSolveSessionCompatibility(t *testing.T) {
	send := types.Send(types.Int(), types.End())
	receive := types.Dual(send)

	ok := SessionCompatibility("s1", "chan", send, receive)
	_, err := Solve([]Constraint{ok}, NewEnvironment())
	require.NoError(t, err)

	bad := SessionCompatibility("s2", "chan", send, send)
	_, err = Solve([]Constraint{bad}, NewEnvironment())
	require.Error(t, err)
}

func TestSolveRemoteTransformRequiresDistinctLocations(t *testing.T) {
	loc := types.NewDomain("ethereum")
	c := RemoteTransform("r1", loc, loc, types.Int(), types.Int(), types.Send(types.Int(), types.End()))
	_, err := Solve([]Constraint{c}, NewEnvironment())
	require.Error(t, err)
}

func TestSolveRemoteTransformResolvesLocations(t *testing.T) {
	src := types.NewDomain("ethereum")
	dst := types.NewDomain("neutron")
	c := RemoteTransform("r1", src, dst, types.Int(), types.Int(), types.Send(types.Int(), types.End()))
	assignment, err := Solve([]Constraint{c}, NewEnvironment())
	require.NoError(t, err)
	require.Equal(t, src, assignment.ResolvedLocations["r1:src"])
	require.Equal(t, dst, assignment.ResolvedLocations["r1:dst"])
}

func TestSolveIsIdempotent(t *testing.T) {
	env := NewEnvironment().WithCapabilities("alice", effect.Capability{Name: "read:account"})
	cs := []Constraint{
		CapabilityRequirement("b", "alice", effect.Capability{Name: "read:account"}),
		CapabilityRequirement("a", "alice", effect.Capability{Name: "read:account"}),
	}
	first, err := Solve(cs, env)
	require.NoError(t, err)

	reshuffled := []Constraint{cs[1], cs[0]}
	second, err := Solve(reshuffled, env)
	require.NoError(t, err)

	require.Equal(t, first.Satisfied, second.Satisfied)
	require.Equal(t, []string{"a", "b"}, first.Satisfied)
}

func TestSolveUnsatCoreAccumulatesAllFailures(t *testing.T) {
	env := NewEnvironment()
	cs := []Constraint{
		CapabilityRequirement("c1", "alice", effect.Capability{Name: "read"}),
		CapabilityRequirement("c2", "bob", effect.Capability{Name: "write"}),
	}
	_, err := Solve(cs, env)
	require.Error(t, err)
	var unsat *UnsatError
	require.ErrorAs(t, err, &unsat)
	require.ElementsMatch(t, []string{"c1", "c2"}, unsat.Core)
}
