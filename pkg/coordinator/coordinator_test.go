// Copyright 2025 Certen Protocol

package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/causality-labs/causality/pkg/chaindriver"
	"github.com/causality-labs/causality/pkg/codec"
)

func testDomains() (Domain, Domain) {
	return Domain{Name: "chainA", SupportsAtomic: true}, Domain{Name: "chainB", SupportsAtomic: false}
}

func newTestCoordinator(driverA, driverB *chaindriver.MemoryChainDriver) *Coordinator {
	drivers := map[string]chaindriver.ChainDriver{
		"chainA": driverA,
		"chainB": driverB,
	}
	return New(DefaultConfig(), drivers, nil, nil, nil)
}

func basicEffect(src, dst Domain, key string, root codec.ID) *CrossChainEffect {
	return &CrossChainEffect{
		SourceDomain:      src,
		DestinationDomain: dst,
		SourceEffect:      []byte("lock-funds"),
		DestinationEffect: []byte("mint-funds"),
		ProofRequirements: []ProofRequirement{
			{Domain: src.Name, Key: key, ExpectedRoot: root, Contract: "escrow"},
		},
		RollbackEffects: [][]byte{[]byte("unlock-funds")},
	}
}

func TestSubmitValidatesInvariants(t *testing.T) {
	srcDomain, dstDomain := testDomains()
	driverA := chaindriver.NewMemoryChainDriver("chainA")
	driverB := chaindriver.NewMemoryChainDriver("chainB")
	c := newTestCoordinator(driverA, driverB)

	t.Run("same domain rejected", func(t *testing.T) {
		effect := basicEffect(srcDomain, srcDomain, "k", codec.ID{})
		_, err := c.Submit(effect)
		require.Error(t, err)
	})

	t.Run("no proof requirements rejected", func(t *testing.T) {
		effect := basicEffect(srcDomain, dstDomain, "k", codec.ID{})
		effect.ProofRequirements = nil
		_, err := c.Submit(effect)
		require.Error(t, err)
	})

	t.Run("empty proof key rejected", func(t *testing.T) {
		effect := basicEffect(srcDomain, dstDomain, "", codec.ID{})
		_, err := c.Submit(effect)
		require.Error(t, err)
	})

	t.Run("timeout out of range rejected", func(t *testing.T) {
		effect := basicEffect(srcDomain, dstDomain, "k", codec.ID{})
		effect.Timeout = time.Millisecond
		_, err := c.Submit(effect)
		require.Error(t, err)
	})

	t.Run("neither domain atomic rejected", func(t *testing.T) {
		nonAtomicSrc := Domain{Name: "chainC", SupportsAtomic: false}
		effect := basicEffect(nonAtomicSrc, dstDomain, "k", codec.ID{})
		_, err := c.Submit(effect)
		require.Error(t, err)
	})

	t.Run("valid effect accepted", func(t *testing.T) {
		effect := basicEffect(srcDomain, dstDomain, "k", codec.ID{})
		id, err := c.Submit(effect)
		require.NoError(t, err)
		require.NotEmpty(t, id)
		state, ok := c.Status(id)
		require.True(t, ok)
		require.Equal(t, StatePreparing, state)
	})
}

// TestHappyPathDrivesToCompleted exercises spec scenario B: a
// cross-chain transfer with a satisfiable proof requirement runs
// Preparing -> SourceCommitted -> Verifying -> DestinationCommitted ->
// Completed, and status(id) is None once completed.
func TestHappyPathDrivesToCompleted(t *testing.T) {
	srcDomain, dstDomain := testDomains()
	driverA := chaindriver.NewMemoryChainDriver("chainA")
	driverB := chaindriver.NewMemoryChainDriver("chainB")

	value := codec.Int64(42)
	driverA.Put("balance", value)
	root := codec.ContentID(value)

	c := newTestCoordinator(driverA, driverB)
	effect := basicEffect(srcDomain, dstDomain, "balance", root)
	id, err := c.Submit(effect)
	require.NoError(t, err)

	ctx := context.Background()
	wantStates := []State{StateSourceCommitted, StateVerifying, StateDestinationCommitted, StateCompleted}
	for _, want := range wantStates {
		results := c.Process(ctx)
		require.Len(t, results, 1)
		require.True(t, results[0].Success, results[0].Error)
		require.Equal(t, want, results[0].NewState)
	}

	_, ok := c.Status(id)
	require.False(t, ok, "completed effects are removed from the active table")

	stats := c.Statistics()
	require.Equal(t, 0, stats.Active)
	require.Equal(t, 0, stats.Queued)
}

// TestFailedSourceEffectRollsBack exercises spec scenario C: a source
// effect the driver rejects drives the effect to Failed, then
// RolledBack on the next Process call, running the rollback effects.
func TestFailedSourceEffectRollsBack(t *testing.T) {
	srcDomain, dstDomain := testDomains()
	driverA := chaindriver.NewMemoryChainDriver("chainA")
	driverA.FailPayloads = [][]byte{[]byte("lock-funds")}
	driverB := chaindriver.NewMemoryChainDriver("chainB")

	c := newTestCoordinator(driverA, driverB)
	effect := basicEffect(srcDomain, dstDomain, "balance", codec.ID{})
	id, err := c.Submit(effect)
	require.NoError(t, err)

	ctx := context.Background()

	results := c.Process(ctx)
	require.Len(t, results, 1)
	require.False(t, results[0].Success)
	require.Equal(t, StateFailed, results[0].NewState)

	results = c.Process(ctx)
	require.Len(t, results, 1)
	require.Equal(t, StateRolledBack, results[0].NewState)

	_, ok := c.Status(id)
	require.False(t, ok)
}

// TestCancelBeforeProcessRemovesImmediately exercises spec scenario D:
// cancelling a freshly submitted effect rolls it back synchronously,
// with no intervening call to Process.
func TestCancelBeforeProcessRemovesImmediately(t *testing.T) {
	srcDomain, dstDomain := testDomains()
	driverA := chaindriver.NewMemoryChainDriver("chainA")
	driverB := chaindriver.NewMemoryChainDriver("chainB")

	c := newTestCoordinator(driverA, driverB)
	effect := basicEffect(srcDomain, dstDomain, "balance", codec.ID{})
	id, err := c.Submit(effect)
	require.NoError(t, err)

	require.NoError(t, c.Cancel(id))

	_, ok := c.Status(id)
	require.False(t, ok)

	err = c.Cancel(id)
	require.Error(t, err)
}

// TestTimeoutEnforced exercises spec property 10: an effect whose
// timeout has elapsed is force-rolled-back on the next Process call
// even if it was never dequeued.
func TestTimeoutEnforced(t *testing.T) {
	srcDomain, dstDomain := testDomains()
	driverA := chaindriver.NewMemoryChainDriver("chainA")
	driverB := chaindriver.NewMemoryChainDriver("chainB")

	fakeClock := &manualClock{t: time.Unix(1000, 0)}
	c := New(DefaultConfig(), map[string]chaindriver.ChainDriver{
		"chainA": driverA,
		"chainB": driverB,
	}, nil, fakeClock, nil)

	effect := basicEffect(srcDomain, dstDomain, "balance", codec.ID{})
	effect.Timeout = time.Second
	id, err := c.Submit(effect)
	require.NoError(t, err)

	fakeClock.t = fakeClock.t.Add(2 * time.Second)

	results := c.Process(context.Background())
	require.Len(t, results, 1)
	require.Equal(t, StateRolledBack, results[0].NewState)
	require.Equal(t, "Operation timeout", results[0].Error)

	_, ok := c.Status(id)
	require.False(t, ok)
}

// TestStateSequenceNeverGoesBackward exercises spec property 7: once a
// state machine reaches a terminal state it is removed, and no
// observed sequence of NewState values for one id ever repeats or
// reverts to an earlier non-terminal state.
func TestStateSequenceNeverGoesBackward(t *testing.T) {
	srcDomain, dstDomain := testDomains()
	driverA := chaindriver.NewMemoryChainDriver("chainA")
	driverB := chaindriver.NewMemoryChainDriver("chainB")

	value := codec.Int64(7)
	driverA.Put("k", value)
	root := codec.ContentID(value)

	c := newTestCoordinator(driverA, driverB)
	effect := basicEffect(srcDomain, dstDomain, "k", root)
	id, err := c.Submit(effect)
	require.NoError(t, err)

	rank := map[State]int{
		StatePreparing:            0,
		StateSourceCommitted:      1,
		StateVerifying:            2,
		StateDestinationCommitted: 3,
		StateCompleted:            4,
	}

	last := -1
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		results := c.Process(ctx)
		if len(results) == 0 {
			break
		}
		for _, r := range results {
			if r.ID != id {
				continue
			}
			require.Greater(t, rank[r.NewState], last)
			last = rank[r.NewState]
		}
	}
}

type manualClock struct{ t time.Time }

func (m *manualClock) Now() int64 { return m.t.UnixNano() }
