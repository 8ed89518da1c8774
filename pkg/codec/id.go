// Copyright 2025 Certen Protocol

package codec

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/causality-labs/causality/pkg/merkle"
)

// ID is a 32-byte content id: SHA256 of a value's canonical encoding.
// Identity is definitionally extensional — two values with identical
// encodings share an id regardless of how they were constructed.
type ID [32]byte

func (id ID) String() string { return hex.EncodeToString(id[:]) }

func (id ID) Bytes() []byte {
	b := make([]byte, 32)
	copy(b, id[:])
	return b
}

// ContentID computes the content id of v. ContentID is injective up to
// the equivalence Encode(a)==Encode(b): two values that encode
// identically necessarily share an id, and in practice two
// differently-shaped well-typed values never collide because Kind is
// always the leading discriminant byte of Encode.
func ContentID(v *Value) ID {
	return sha256.Sum256(Encode(v))
}

// IDFromBytes wraps a raw 32-byte digest as an ID; returns an error if
// the length is wrong.
func IDFromBytes(b []byte) (ID, error) {
	var id ID
	if len(b) != 32 {
		return id, decodeErrf("content id must be 32 bytes, got %d", len(b))
	}
	copy(id[:], b)
	return id, nil
}

// Tree is a balanced binary Merkle tree over a set of content ids. It
// wraps pkg/merkle's byte-slice tree with the ID type.
type Tree struct {
	inner *merkle.Tree
	order []ID
}

// BuildTree builds a Merkle tree over ids, in the given order (the
// order determines each id's leaf index for proof generation).
func BuildTree(ids []ID) (*Tree, error) {
	leaves := make([][]byte, len(ids))
	for i, id := range ids {
		leaves[i] = id.Bytes()
	}
	inner, err := merkle.BuildTree(leaves)
	if err != nil {
		return nil, err
	}
	return &Tree{inner: inner, order: append([]ID(nil), ids...)}, nil
}

// Root returns the 32-byte Merkle root.
func (t *Tree) Root() ID {
	var id ID
	copy(id[:], t.inner.Root())
	return id
}

// Proof generates an inclusion proof for the id at the given index.
func (t *Tree) Proof(index int) (*merkle.InclusionProof, error) {
	return t.inner.GenerateProof(index)
}

// VerifyInclusion is a total function verifying that leaf participates
// in a tree whose root is expectedRoot, given siblings from a prior
// Proof call. It never panics, returning false on any malformed proof.
func VerifyInclusion(leaf ID, proof *merkle.InclusionProof, expectedRoot ID) bool {
	ok, err := merkle.VerifyProof(leaf.Bytes(), proof, expectedRoot.Bytes())
	if err != nil {
		return false
	}
	return ok
}
