// Copyright 2025 Certen Protocol

package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cases := []*Value{
		Unit(),
		NewBool(true),
		NewBool(false),
		Int64(0),
		Int64(-42),
		Int64(1 << 40),
		Sym("balance"),
		Blob([]byte{0x01, 0x02, 0x03}),
		Pair(Int64(5), Sym("x")),
		Inl(Int64(1)),
		Inr(Unit()),
		Pair(Pair(Unit(), NewBool(true)), Inl(Blob([]byte("nested")))),
	}

	for _, v := range cases {
		encoded := Encode(v)
		decoded, rest, err := DecodeWithRemainder(encoded)
		require.NoError(t, err)
		require.Empty(t, rest)
		require.True(t, Equal(v, decoded))
	}
}

func TestDecodeNeverPanics(t *testing.T) {
	inputs := [][]byte{
		nil,
		{},
		{255},
		{byte(KindBool)},
		{byte(KindBool), 7},
		{byte(KindInt), 1, 2, 3},
		{byte(KindSymbol), 0xFF, 0xFF, 0xFF, 0xFF},
		{byte(KindProduct), byte(KindUnit)},
		{byte(KindSum), 2, byte(KindUnit)},
	}
	for _, in := range inputs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("decode panicked on %v: %v", in, r)
				}
			}()
			_, _, _ = DecodeWithRemainder(in)
		}()
	}
}

func TestContentIDDeterministic(t *testing.T) {
	a := Pair(Sym("balance"), Int64(100))
	b := Pair(Sym("balance"), Int64(100))
	require.Equal(t, ContentID(a), ContentID(b))

	c := Pair(Sym("balance"), Int64(101))
	require.NotEqual(t, ContentID(a), ContentID(c))
}

func TestMerkleInclusion(t *testing.T) {
	ids := make([]ID, 5)
	for i := range ids {
		ids[i] = ContentID(Int64(int64(i)))
	}
	tree, err := BuildTree(ids)
	require.NoError(t, err)

	for i, id := range ids {
		proof, err := tree.Proof(i)
		require.NoError(t, err)
		require.True(t, VerifyInclusion(id, proof, tree.Root()))
	}

	other := ContentID(Int64(999))
	proof, err := tree.Proof(0)
	require.NoError(t, err)
	require.False(t, VerifyInclusion(other, proof, tree.Root()))
}
