// Copyright 2025 Certen Protocol

package types

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func sampleSessions() []*Session {
	return []*Session{
		End(),
		Send(Int(), End()),
		Receive(Symbol(), Send(Int(), End())),
		InternalChoice([]Choice{
			{Label: "read", Session: Send(Symbol(), Receive(Int(), End()))},
			{Label: "write", Session: Send(Int(), Receive(Bool(), End()))},
		}),
		Recursive("loop", Send(Int(), Var("loop"))),
	}
}

func TestDualInvolutive(t *testing.T) {
	for _, s := range sampleSessions() {
		require.True(t, EqualAlpha(s, Dual(Dual(s))), "dual(dual(s)) != s for %+v", s)
	}
}

func TestDualSwapsSendReceive(t *testing.T) {
	s := Send(Int(), End())
	d := Dual(s)
	require.Equal(t, SessionReceive, d.Kind)
	require.Equal(t, SessionEnd, d.Cont.Kind)
}

func TestDualSwapsChoice(t *testing.T) {
	s := InternalChoice([]Choice{{Label: "a", Session: End()}})
	d := Dual(s)
	require.Equal(t, SessionExternalChoice, d.Kind)
}

func TestComposesToEnd(t *testing.T) {
	s := Send(Int(), Receive(Bool(), End()))
	require.True(t, ComposesToEnd(s, Dual(s)))
}

func TestLocationComposeCommutative(t *testing.T) {
	a := NewDomain("ethereum-1")
	b := NewDomain("neutron-1")
	require.True(t, Compose(a, b).Equal(Compose(b, a)))
}

func TestLocationIsConcrete(t *testing.T) {
	require.True(t, NewLocal().IsConcrete())
	require.True(t, NewDomain("x").IsConcrete())
	require.False(t, NewAny().IsConcrete())
}

func TestEthereumDomainRoundTripsAddress(t *testing.T) {
	addr := common.HexToAddress("0x00000000000000000000000000000000000001")
	loc := NewEthereumDomain(addr)
	require.Equal(t, LocDomain, loc.Kind)
	require.Contains(t, loc.Domain, addr.Hex())
	require.True(t, loc.Equal(NewEthereumDomain(addr)))
}

func TestAnchoredDomainDiffersByHash(t *testing.T) {
	h1 := common.HexToHash("0x01")
	h2 := common.HexToHash("0x02")
	require.False(t, NewAnchoredDomain(h1).Equal(NewAnchoredDomain(h2)))
}

func TestDischargeLocated(t *testing.T) {
	loc := NewDomain("ethereum-1")
	lt := Located(Int(), loc)
	inner, err := DischargeLocated(lt, loc)
	require.NoError(t, err)
	require.Equal(t, TInt, inner.Kind)

	_, err = DischargeLocated(lt, NewLocal())
	require.Error(t, err)
}

func TestRowUniqueFieldNames(t *testing.T) {
	_, err := NewRow([]RowField{
		{Name: "a", Field: FieldType{Type: Int(), Access: AccessRO}},
		{Name: "a", Field: FieldType{Type: Bool(), Access: AccessRO}},
	})
	require.Error(t, err)
}

func TestEraseLocatedPassesThrough(t *testing.T) {
	require.Equal(t, RuntimeScalar, Erase(Located(Int(), NewLocal())))
	require.Equal(t, RuntimeFunction, Erase(LinearFunction(Int(), Int())))
}
