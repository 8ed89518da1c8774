// Copyright 2025 Certen Protocol
//
// Type system & session duality (C2): locations.
// Grounded on pkg/chain/strategy's ChainPlatform tagged-enum shape and
// on crates/causality-core/src/effect/row.rs's Location usage.

package types

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/causality-labs/causality/pkg/codec"
)

// LocationKind is the discriminant of a Location.
type LocationKind uint8

const (
	LocLocal LocationKind = iota
	LocRemote
	LocDomain
	LocDistributed
	LocAny
)

// Location names where a value or transform resides. Erasing a
// Location from a Located or Transform type is forbidden by the type
// rules in type.go; this struct only carries the value.
type Location struct {
	Kind     LocationKind
	RemoteID codec.ID   // set when Kind == LocRemote
	Domain   string     // set when Kind == LocDomain
	Parts    []Location // set when Kind == LocDistributed
}

func NewLocal() Location                   { return Location{Kind: LocLocal} }
func NewRemote(id codec.ID) Location       { return Location{Kind: LocRemote, RemoteID: id} }
func NewDomain(name string) Location       { return Location{Kind: LocDomain, Domain: name} }
func NewDistributed(parts []Location) Location {
	return Location{Kind: LocDistributed, Parts: append([]Location(nil), parts...)}
}
func NewAny() Location { return Location{Kind: LocAny} }

// NewEthereumDomain names an EVM-style domain by its escrow/gateway
// contract address, so the domain identifier round-trips through
// go-ethereum's checksummed Address type rather than an ad-hoc string.
func NewEthereumDomain(contract common.Address) Location {
	return NewDomain("ethereum:" + contract.Hex())
}

// NewAnchoredDomain names a domain by the hash of its most recent
// anchor (a block hash, a header root, or similar), for domains
// identified by a content hash rather than an address.
func NewAnchoredDomain(anchor common.Hash) Location {
	return NewDomain("anchor:" + anchor.Hex())
}

// IsConcrete partitions well-formed (concrete) locations from schematic
// ones. Any is the only schematic location: it stands for "wherever
// the constraint solver resolves it to".
func (l Location) IsConcrete() bool {
	return l.Kind != LocAny
}

func (l Location) String() string {
	switch l.Kind {
	case LocLocal:
		return "Local"
	case LocRemote:
		return fmt.Sprintf("Remote(%s)", l.RemoteID)
	case LocDomain:
		return fmt.Sprintf("Domain(%s)", l.Domain)
	case LocDistributed:
		parts := make([]string, len(l.Parts))
		for i, p := range l.Parts {
			parts[i] = p.String()
		}
		sort.Strings(parts)
		return fmt.Sprintf("Distributed(%s)", strings.Join(parts, ","))
	case LocAny:
		return "Any"
	default:
		return "Invalid"
	}
}

// Equal compares two locations structurally. Distributed locations
// compare as sets, matching Compose's commutativity.
func (l Location) Equal(o Location) bool {
	return l.String() == o.String()
}

// Compose combines two locations. When both are concrete it is
// commutative: Compose(a,b) == Compose(b,a). Composing identical
// concrete locations is idempotent; composing distinct concrete
// locations produces a Distributed location naming both. Composing
// with Any yields Any (composition cannot resolve a schematic side).
func Compose(a, b Location) Location {
	if a.Kind == LocAny || b.Kind == LocAny {
		return NewAny()
	}
	if a.Equal(b) {
		return a
	}

	flatten := func(l Location) []Location {
		if l.Kind == LocDistributed {
			return l.Parts
		}
		return []Location{l}
	}
	combined := append(flatten(a), flatten(b)...)

	seen := make(map[string]Location)
	for _, p := range combined {
		seen[p.String()] = p
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Location, 0, len(keys))
	for _, k := range keys {
		out = append(out, seen[k])
	}
	if len(out) == 1 {
		return out[0]
	}
	return NewDistributed(out)
}
