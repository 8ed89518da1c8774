// Copyright 2025 Certen Protocol

package row

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/causality-labs/causality/pkg/types"
)

func sampleRow(t *testing.T) *types.Row {
	t.Helper()
	remoteLoc := types.NewDomain("server")
	r, err := types.NewRow([]types.RowField{
		{Name: "balance", Field: types.FieldType{Type: types.Int(), Location: &remoteLoc, Access: types.AccessRO}},
		{Name: "name", Field: types.FieldType{Type: types.Symbol(), Access: types.AccessWO}},
	})
	require.NoError(t, err)
	return r
}

func TestProjectAndRestrict(t *testing.T) {
	r := sampleRow(t)

	f, err := Project(r, "balance")
	require.NoError(t, err)
	require.Equal(t, types.TInt, f.Type.Kind)

	_, err = Project(r, "missing")
	require.Error(t, err)

	r2, err := Restrict(r, "name")
	require.NoError(t, err)
	require.False(t, r2.Has("name"))
	require.True(t, r2.Has("balance"))
}

func TestExtendDuplicateRejected(t *testing.T) {
	r := sampleRow(t)
	_, err := Extend(r, "balance", types.FieldType{Type: types.Int(), Access: types.AccessRO})
	require.Error(t, err)
}

func TestMergeDisjointRows(t *testing.T) {
	a := sampleRow(t)
	b, err := types.NewRow([]types.RowField{
		{Name: "nonce", Field: types.FieldType{Type: types.Int(), Access: types.AccessRW}},
	})
	require.NoError(t, err)

	merged, err := Merge(a, b)
	require.NoError(t, err)
	require.True(t, merged.Has("balance"))
	require.True(t, merged.Has("nonce"))
}

func TestMergeOverlappingSameTypeIsDuplicateField(t *testing.T) {
	a := sampleRow(t)
	b, err := types.NewRow([]types.RowField{
		{Name: "balance", Field: types.FieldType{Type: types.Int(), Access: types.AccessRW}},
	})
	require.NoError(t, err)

	_, err = Merge(a, b)
	require.Error(t, err)
	var rowErr *Error
	require.ErrorAs(t, err, &rowErr)
	require.Equal(t, ErrDuplicateField, rowErr.Kind)
}

func TestMergeOverlappingDifferentTypeIsTypeMismatch(t *testing.T) {
	a := sampleRow(t)
	b, err := types.NewRow([]types.RowField{
		{Name: "balance", Field: types.FieldType{Type: types.Symbol(), Access: types.AccessRO}},
	})
	require.NoError(t, err)

	_, err = Merge(a, b)
	require.Error(t, err)
	var rowErr *Error
	require.ErrorAs(t, err, &rowErr)
	require.Equal(t, ErrTypeMismatch, rowErr.Kind)
}

func TestDeriveFieldAccessProtocol_RO(t *testing.T) {
	remote := types.NewDomain("server")
	field := types.FieldType{Type: types.Int(), Location: &remote, Access: types.AccessRO}
	s, err := DeriveFieldAccessProtocol(field, types.NewLocal())
	require.NoError(t, err)
	require.Equal(t, types.SessionSend, s.Kind)
	require.Equal(t, types.TSymbol, s.Payload.Kind)
	require.Equal(t, types.SessionReceive, s.Cont.Kind)
}

func TestDerivationIsCachedAndIdempotent(t *testing.T) {
	eng := NewEngine()
	remote := types.NewDomain("server")
	field := types.FieldType{Type: types.Int(), Location: &remote, Access: types.AccessRO}

	first, err := eng.DeriveFieldAccess(field, types.NewLocal(), remote)
	require.NoError(t, err)

	second, err := eng.DeriveFieldAccess(field, types.NewLocal(), remote)
	require.NoError(t, err)

	require.True(t, types.EqualAlpha(first, second))
	stats := eng.Stats()
	require.Equal(t, 2, stats.Total)
	require.Equal(t, 1, stats.Hits)
}

func TestOptimizeBatchesCompatiblePatterns(t *testing.T) {
	loc := types.NewDomain("server")
	patterns := []AccessPattern{
		{FieldName: "a", Access: types.AccessRO, FieldType: types.Int(), Src: types.NewLocal(), Dst: loc},
		{FieldName: "b", Access: types.AccessRO, FieldType: types.Int(), Src: types.NewLocal(), Dst: loc},
		{FieldName: "c", Access: types.AccessWO, FieldType: types.Int(), Src: types.NewLocal(), Dst: loc},
	}
	batches := Optimize(patterns, nil)
	require.Len(t, batches, 2)
}

func TestOptimizeDoesNotUnifyDifferentTypes(t *testing.T) {
	loc := types.NewDomain("server")
	patterns := []AccessPattern{
		{FieldName: "a", Access: types.AccessRO, FieldType: types.Int(), Src: types.NewLocal(), Dst: loc},
		{FieldName: "b", Access: types.AccessRO, FieldType: types.Symbol(), Src: types.NewLocal(), Dst: loc},
	}
	batches := Optimize(patterns, nil)
	require.Len(t, batches, 2)
}
