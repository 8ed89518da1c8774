// Copyright 2025 Certen Protocol

package merkle_test

import (
	"testing"

	"github.com/causality-labs/causality/pkg/codec"
	"github.com/causality-labs/causality/pkg/merkle"
)

// TestBuildTree_ContentIDs exercises the tree over codec.ID leaves, the
// actual leaf shape pkg/codec.BuildTree and pkg/teg/state_root.go feed
// this package in this module (as opposed to arbitrary sha256 sums).
func TestBuildTree_ContentIDs(t *testing.T) {
	values := []*codec.Value{
		codec.Int64(1),
		codec.Int64(2),
		codec.Int64(3),
		codec.NewBool(true),
	}

	leaves := make([][]byte, len(values))
	ids := make([]codec.ID, len(values))
	for i, v := range values {
		id := codec.ContentID(v)
		ids[i] = id
		leaves[i] = id.Bytes()
	}

	tree, err := merkle.BuildTree(leaves)
	if err != nil {
		t.Fatalf("failed to build tree over content ids: %v", err)
	}

	for i, id := range ids {
		proof, err := tree.GenerateProof(i)
		if err != nil {
			t.Fatalf("leaf %d: failed to generate proof: %v", i, err)
		}

		valid, err := merkle.VerifyProof(id.Bytes(), proof, tree.Root())
		if err != nil {
			t.Fatalf("leaf %d: failed to verify proof: %v", i, err)
		}
		if !valid {
			t.Errorf("leaf %d: content id proof did not verify", i)
		}
	}

	// A value that was never part of the tree must not verify against
	// any leaf's proof, mirroring how pkg/codec rejects a forged member.
	foreignID := codec.ContentID(codec.Int64(999))
	proof0, err := tree.GenerateProof(0)
	if err != nil {
		t.Fatalf("failed to generate proof for leaf 0: %v", err)
	}
	valid, err := merkle.VerifyProof(foreignID.Bytes(), proof0, tree.Root())
	if err != nil {
		t.Fatalf("unexpected error verifying foreign id: %v", err)
	}
	if valid {
		t.Error("foreign content id should not verify against an unrelated proof")
	}
}
