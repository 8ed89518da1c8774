// Copyright 2025 Certen Protocol
//
// External collaborator contracts (§6): the core only consumes these
// four small interfaces and never inspects their implementations.
// Grounded on pkg/chain/strategy/interface.go's ChainExecutionStrategy
// (a tagged, platform-keyed interface the core dispatches over by
// config rather than runtime type-switching) and pkg/strategy/registry.go's
// registry-of-named-implementations pattern, generalized here from
// "one strategy per chain platform" to "one ChainDriver per domain".

package chaindriver

import (
	"context"

	"github.com/causality-labs/causality/pkg/codec"
)

// ProofBytes is an opaque, collaborator-defined proof encoding. The
// core never parses it; ProofOracle and ChainDriver pass it through.
type ProofBytes []byte

// ChainDriver is the interface a concrete blockchain RPC driver
// satisfies; the core's coordinator (pkg/coordinator) drives any
// cross-chain effect exclusively through this contract.
type ChainDriver interface {
	// Execute runs effect (an opaque, driver-defined payload — the
	// coordinator passes a CrossChainEffect's SourceEffect,
	// DestinationEffect or RollbackEffects bytes unchanged) against the
	// domain this driver is bound to.
	Execute(ctx context.Context, effectPayload []byte) (ExecutionResult, error)

	// FetchStorageProof retrieves a Merkle/storage proof for key,
	// optionally scoped to a specific contract address.
	FetchStorageProof(ctx context.Context, domain, key string, contract string) (ProofBytes, error)

	// VerifyProof checks proof against an expected storage root and,
	// on success, returns the decoded value it attests to.
	VerifyProof(ctx context.Context, proof ProofBytes, expectedRoot codec.ID) (*codec.Value, error)
}

// ExecutionResult is the chain-agnostic outcome of ChainDriver.Execute.
type ExecutionResult struct {
	TxHash      string
	BlockHeight int64
	Success     bool
	Output      []byte
}

// ProofOracle is the opaque zero-knowledge proof backend; the core
// never inspects circuit, witness, or proof bytes, only whether
// generation/verification succeeded.
type ProofOracle interface {
	Generate(ctx context.Context, circuit string, witness []byte) (ProofBytes, error)
	Verify(ctx context.Context, proof ProofBytes, publicInputs []byte) (bool, error)
}

// ClockSource is consulted only for state-root timestamps and timeout
// checks; swappable so tests can supply a deterministic clock.
type ClockSource interface {
	Now() int64 // unix nanoseconds
}

// IdSource produces fresh, locally-unique ids for cross-chain effects
// and channels.
type IdSource interface {
	NewID() string
}
