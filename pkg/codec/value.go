// Copyright 2025 Certen Protocol
//
// Content addressing & SSZ-style codec (C1)
// Deterministic bytes<->value encoding with a 32-byte content id for
// every value, plus Merkle proofs of inclusion over a set of ids.

package codec

import (
	"fmt"
)

// Kind is the discriminant for the content-addressed value universe.
// The set is small and closed, so a tagged struct (rather than an
// interface per variant) is the idiomatic shape here.
type Kind uint8

const (
	KindUnit Kind = iota
	KindBool
	KindInt
	KindSymbol
	KindBytes
	KindProduct
	KindSum
)

func (k Kind) String() string {
	switch k {
	case KindUnit:
		return "Unit"
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindSymbol:
		return "Symbol"
	case KindBytes:
		return "Bytes"
	case KindProduct:
		return "Product"
	case KindSum:
		return "Sum"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// SumTag distinguishes the left (Inl) and right (Inr) injections of a Sum.
type SumTag uint8

const (
	TagInl SumTag = 0
	TagInr SumTag = 1
)

// Value is a single node of the content-addressed value universe shared
// by every layer (L0 registers, L1 terms, L2 effect payloads). Only the
// fields relevant to Kind are populated; the rest are zero.
type Value struct {
	Kind   Kind
	Bool   bool
	Int    int64
	Symbol string
	Bytes  []byte
	Tag    SumTag
	Left   *Value // Product.fst, or the Sum payload
	Right  *Value // Product.snd
}

func Unit() *Value                  { return &Value{Kind: KindUnit} }
func NewBool(b bool) *Value         { return &Value{Kind: KindBool, Bool: b} }
func Int64(i int64) *Value          { return &Value{Kind: KindInt, Int: i} }
func Sym(s string) *Value           { return &Value{Kind: KindSymbol, Symbol: s} }
func Blob(b []byte) *Value          { return &Value{Kind: KindBytes, Bytes: append([]byte(nil), b...)} }
func Pair(left, right *Value) *Value {
	return &Value{Kind: KindProduct, Left: left, Right: right}
}
func Inl(v *Value) *Value { return &Value{Kind: KindSum, Tag: TagInl, Left: v} }
func Inr(v *Value) *Value { return &Value{Kind: KindSum, Tag: TagInr, Left: v} }

// Equal compares two values structurally, which for content-addressed
// values is equivalent to comparing their content ids.
func Equal(a, b *Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindUnit:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindInt:
		return a.Int == b.Int
	case KindSymbol:
		return a.Symbol == b.Symbol
	case KindBytes:
		if len(a.Bytes) != len(b.Bytes) {
			return false
		}
		for i := range a.Bytes {
			if a.Bytes[i] != b.Bytes[i] {
				return false
			}
		}
		return true
	case KindProduct:
		return Equal(a.Left, b.Left) && Equal(a.Right, b.Right)
	case KindSum:
		return a.Tag == b.Tag && Equal(a.Left, b.Left)
	default:
		return false
	}
}
