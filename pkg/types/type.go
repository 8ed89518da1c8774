// Copyright 2025 Certen Protocol
//
// Type system (C2): base, product, sum, linear-function, session,
// located, transform, and record/row types, plus a typing-rule helper
// for discharging a Located wrapper and an erasure map to the runtime
// value representation consumed by pkg/machine.

package types

import "fmt"

// TypeKind is the discriminant of a Type.
type TypeKind uint8

const (
	TUnit TypeKind = iota
	TBool
	TInt
	TSymbol
	TProduct
	TSum
	TLinearFunction
	TSession
	TLocated
	TTransform
	TRecord
)

// Type is a tagged value over the closed set of type constructors in
// §3. Only the fields relevant to Kind are populated.
type Type struct {
	Kind TypeKind

	// TProduct, TSum, TLinearFunction: In()/Out() below read these.
	Left  *Type
	Right *Type

	// TSession
	Session *Session

	// TLocated: inner type is Left; location is here.
	// TTransform: in type is Left, out type is Right; location is here.
	At Location

	// TRecord
	Row *Row
}

func Unit() *Type   { return &Type{Kind: TUnit} }
func Bool() *Type   { return &Type{Kind: TBool} }
func Int() *Type    { return &Type{Kind: TInt} }
func Symbol() *Type { return &Type{Kind: TSymbol} }

func Product(a, b *Type) *Type { return &Type{Kind: TProduct, Left: a, Right: b} }
func Sum(a, b *Type) *Type     { return &Type{Kind: TSum, Left: a, Right: b} }

// LinearFunction builds the type of a function to be applied exactly
// once. Neither this constructor nor pkg/lang's Infer rejects a term
// that uses a linear variable twice or not at all.
func LinearFunction(in, out *Type) *Type {
	return &Type{Kind: TLinearFunction, Left: in, Right: out}
}

func SessionType(s *Session) *Type { return &Type{Kind: TSession, Session: s} }

// Located annotates t with the location its values reside at. Erasing
// the wrapper (via Unwrap) is only valid against evidence that the
// current context matches loc — see DischargeLocated.
func Located(t *Type, loc Location) *Type {
	return &Type{Kind: TLocated, Left: t, At: loc}
}

func TransformType(in, out *Type, at Location) *Type {
	return &Type{Kind: TTransform, Left: in, Right: out, At: at}
}

func RecordType(row *Row) *Type { return &Type{Kind: TRecord, Row: row} }

// DischargeLocated strips a Located wrapper given evidence (current)
// that the ambient location matches the type's location. It is the one
// legal way to erase a location annotation; any other code path that
// drops a Located wrapper is a typing bug.
func DischargeLocated(t *Type, current Location) (*Type, error) {
	if t.Kind != TLocated {
		return nil, fmt.Errorf("types: DischargeLocated: %s is not Located", t.Kind)
	}
	if !t.At.Equal(current) {
		return nil, fmt.Errorf("types: location mismatch: value at %s, context at %s", t.At, current)
	}
	return t.Left, nil
}

func (k TypeKind) String() string {
	switch k {
	case TUnit:
		return "Unit"
	case TBool:
		return "Bool"
	case TInt:
		return "Int"
	case TSymbol:
		return "Symbol"
	case TProduct:
		return "Product"
	case TSum:
		return "Sum"
	case TLinearFunction:
		return "LinearFunction"
	case TSession:
		return "Session"
	case TLocated:
		return "Located"
	case TTransform:
		return "Transform"
	case TRecord:
		return "Record"
	default:
		return fmt.Sprintf("TypeKind(%d)", uint8(k))
	}
}

// Equal reports structural equality of two types, recursing through
// product/sum/function/located/transform/record shapes.
func Equal(a, b *Type) bool { return typesStructurallyEqual(a, b) }

// typesStructurallyEqual compares two types for structural equality,
// used by session.EqualAlpha to compare the payload types of Send/Receive.
func typesStructurallyEqual(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case TUnit, TBool, TInt, TSymbol:
		return true
	case TProduct, TSum, TLinearFunction:
		return typesStructurallyEqual(a.Left, b.Left) && typesStructurallyEqual(a.Right, b.Right)
	case TSession:
		return EqualAlpha(a.Session, b.Session)
	case TLocated:
		return typesStructurallyEqual(a.Left, b.Left) && a.At.Equal(b.At)
	case TTransform:
		return typesStructurallyEqual(a.Left, b.Left) && typesStructurallyEqual(a.Right, b.Right) && a.At.Equal(b.At)
	case TRecord:
		return a.Row.Equal(b.Row)
	default:
		return false
	}
}

// RuntimeKind is the erasure target: the tag a Type collapses to once
// it reaches pkg/machine, which only needs to distinguish storage
// shapes, not full static types.
type RuntimeKind uint8

const (
	RuntimeScalar RuntimeKind = iota
	RuntimeProduct
	RuntimeSum
	RuntimeFunction
	RuntimeChannel
	RuntimeResource
)

// Erase maps a static Type to the runtime representation pkg/machine
// operates on. Located and Transform erase to their payload's shape;
// the location itself is consumed by the constraint solver (C7) before
// execution, never carried into the register file.
func Erase(t *Type) RuntimeKind {
	switch t.Kind {
	case TUnit, TBool, TInt, TSymbol:
		return RuntimeScalar
	case TProduct:
		return RuntimeProduct
	case TSum:
		return RuntimeSum
	case TLinearFunction:
		return RuntimeFunction
	case TSession:
		return RuntimeChannel
	case TLocated:
		return Erase(t.Left)
	case TTransform:
		return RuntimeFunction
	case TRecord:
		return RuntimeResource
	default:
		return RuntimeScalar
	}
}
