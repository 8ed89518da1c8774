// Copyright 2025 Certen Protocol

package teg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/causality-labs/causality/pkg/codec"
)

func idFromByte(b byte) codec.ID {
	var id codec.ID
	for i := range id {
		id[i] = b
	}
	return id
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// TestDomainRootDeterminism exercises spec scenario F / property 8:
// applying the same ordered batch to two freshly initialized domains
// yields identical teg_root and sequence values.
func TestDomainRootDeterminism(t *testing.T) {
	clock := fixedClock(time.Unix(1000, 0))
	mgrA := NewManager(nil, clock)
	mgrB := NewManager(nil, clock)

	_, err := mgrA.InitializeDomain("A")
	require.NoError(t, err)
	_, err = mgrB.InitializeDomain("B")
	require.NoError(t, err)

	batch := []RootUpdate{
		{Component: "nodes", NewRoot: idFromByte(0x01)},
		{Component: "effects", NewRoot: idFromByte(0x02)},
		{Component: "resources", NewRoot: idFromByte(0x03)},
		{Component: "intents", NewRoot: idFromByte(0x04)},
		{Component: "handlers", NewRoot: idFromByte(0x05)},
		{Component: "constraints", NewRoot: idFromByte(0x06)},
		{Component: "cross_domain_refs", NewRoot: idFromByte(0x07)},
	}

	rootsA, err := mgrA.UpdateDomainRootsBatch("A", batch)
	require.NoError(t, err)
	rootsB, err := mgrB.UpdateDomainRootsBatch("B", batch)
	require.NoError(t, err)

	require.Equal(t, rootsA.TegRoot, rootsB.TegRoot)
	require.EqualValues(t, 1, rootsA.Sequence)
	require.EqualValues(t, 1, rootsB.Sequence)
}

func TestUpdateDomainRootsBatchRejectsUnknownDomain(t *testing.T) {
	mgr := NewManager(nil, nil)
	_, err := mgr.UpdateDomainRootsBatch("ghost", []RootUpdate{{Component: "nodes", NewRoot: idFromByte(0x01)}})
	require.Error(t, err)
}

func TestUpdateDomainRootsBatchRejectsUnknownComponent(t *testing.T) {
	mgr := NewManager(nil, nil)
	_, err := mgr.InitializeDomain("A")
	require.NoError(t, err)
	_, err = mgr.UpdateDomainRootsBatch("A", []RootUpdate{{Component: "bogus", NewRoot: idFromByte(0x01)}})
	require.Error(t, err)
}

func TestSequenceIncrementsMonotonically(t *testing.T) {
	mgr := NewManager(nil, nil)
	_, err := mgr.InitializeDomain("A")
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		roots, err := mgr.UpdateDomainRootsBatch("A", []RootUpdate{{Component: "nodes", NewRoot: idFromByte(byte(i))}})
		require.NoError(t, err)
		require.EqualValues(t, i, roots.Sequence)
	}
}

func TestCreateCrossDomainReferenceCapturesTargetRoot(t *testing.T) {
	mgr := NewManager(nil, nil)
	_, err := mgr.InitializeDomain("src")
	require.NoError(t, err)
	dstRoots, err := mgr.InitializeDomain("dst")
	require.NoError(t, err)

	dstRoots, err = mgr.UpdateDomainRootsBatch("dst", []RootUpdate{{Component: "nodes", NewRoot: idFromByte(0x42)}})
	require.NoError(t, err)

	ref, err := mgr.CreateCrossDomainReference("src", "dst", "entity-1", "token", nil)
	require.NoError(t, err)
	require.Equal(t, dstRoots.TegRoot, ref.TargetStateRoot)

	fetched, ok := mgr.GetCrossDomainReference("src", "dst", "entity-1")
	require.True(t, ok)
	require.Equal(t, ref.TargetStateRoot, fetched.TargetStateRoot)
}

func TestCreateCrossDomainReferenceRequiresInitializedTarget(t *testing.T) {
	mgr := NewManager(nil, nil)
	_, err := mgr.InitializeDomain("src")
	require.NoError(t, err)
	_, err = mgr.CreateCrossDomainReference("src", "ghost", "entity-1", "token", nil)
	require.Error(t, err)
}

func TestInitializeDomainRejectsDoubleInit(t *testing.T) {
	mgr := NewManager(nil, nil)
	_, err := mgr.InitializeDomain("A")
	require.NoError(t, err)
	_, err = mgr.InitializeDomain("A")
	require.Error(t, err)
}
