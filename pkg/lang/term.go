// Copyright 2025 Certen Protocol
//
// The L1 term language (C4): eleven core primitives (unit, let-unit,
// tensor, let-tensor, inl, inr, case, lambda, apply, alloc, consume),
// the session primitives (new-channel, send, receive, select, case
// (on channels), close), and at(location, term). One Term struct with
// a Kind discriminant and named fields per variant, matching
// pkg/machine's Instruction shape and the teacher's staged-pipeline
// preference for explicit, typed structs over generic ASTs.
//
// A Ref primitive (variable reference) is included as unavoidable
// plumbing for a lambda calculus with bound names; it is not one of
// the eleven but every one of the eleven needs a way to refer to a
// previously bound linear variable.

package lang

import (
	"github.com/causality-labs/causality/pkg/machine"
	"github.com/causality-labs/causality/pkg/types"
)

// Kind is the discriminant of a Term.
type Kind uint8

const (
	KUnit Kind = iota
	KLetUnit
	KTensor
	KLetTensor
	KInl
	KInr
	KCase
	KLambda
	KApply
	KAlloc
	KConsume
	KRef
	KNewChannel
	KSend
	KReceive
	KSelect
	KCaseChannel
	KClose
	KAt
)

func (k Kind) String() string {
	switch k {
	case KUnit:
		return "unit"
	case KLetUnit:
		return "let-unit"
	case KTensor:
		return "tensor"
	case KLetTensor:
		return "let-tensor"
	case KInl:
		return "inl"
	case KInr:
		return "inr"
	case KCase:
		return "case"
	case KLambda:
		return "lambda"
	case KApply:
		return "apply"
	case KAlloc:
		return "alloc"
	case KConsume:
		return "consume"
	case KRef:
		return "ref"
	case KNewChannel:
		return "new-channel"
	case KSend:
		return "send"
	case KReceive:
		return "receive"
	case KSelect:
		return "select"
	case KCaseChannel:
		return "case-channel"
	case KClose:
		return "close"
	case KAt:
		return "at"
	default:
		return "invalid"
	}
}

// CaseBranch is one arm of `case` (on sums) or `case` (on channels).
type CaseBranch struct {
	Label string // sum branches use "inl"/"inr"; channel branches use the protocol's choice label
	Bind  string // name bound to the branch's carried value, if any
	Body  *Term
}

// Term is one L1 term. Only the fields relevant to Kind are populated:
//
//	unit                          : (none)
//	let-unit e1 in e2             : First=e1, Second=e2
//	tensor a b                    : First=a, Second=b
//	let-tensor (x,y) = e1 in e2   : Bind=x, Bind2=y, First=e1, Second=e2
//	inl e / inr e                 : First=e
//	case e {branches}             : First=e, Branches
//	lambda x:T. body              : Bind=x, Type=T, First=body
//	apply f x                     : First=f, Second=x
//	alloc T e                     : Type=T, First=e (re-type an already-computed subterm)
//	alloc T init (literal leaf)   : Type=T, Literal=init, First=nil
//	consume e                     : First=e
//	ref x                         : Bind=x
//	new-channel protocol loc      : Protocol, Location
//	send ch e                     : First=ch, Second=e
//	receive ch                    : First=ch
//	select ch label               : First=ch, Label
//	case-channel ch {branches}    : First=ch, Branches
//	close ch                      : First=ch
//	at(loc, term)                 : Location, First=term
type Term struct {
	Kind Kind

	Bind, Bind2 string
	First, Second *Term
	Branches      []CaseBranch

	Type     *types.Type
	Literal  *machine.Value
	Protocol *types.Session
	Location types.Location
	Label    string
}

func Unit() *Term { return &Term{Kind: KUnit} }

func LetUnit(e1, e2 *Term) *Term { return &Term{Kind: KLetUnit, First: e1, Second: e2} }

func Tensor(a, b *Term) *Term { return &Term{Kind: KTensor, First: a, Second: b} }

func LetTensor(x, y string, e1, e2 *Term) *Term {
	return &Term{Kind: KLetTensor, Bind: x, Bind2: y, First: e1, Second: e2}
}

// Inl and Inr carry the full Sum type they inject into (sum types are
// not inferable from one branch alone without annotation).
func Inl(sumType *types.Type, e *Term) *Term { return &Term{Kind: KInl, Type: sumType, First: e} }
func Inr(sumType *types.Type, e *Term) *Term { return &Term{Kind: KInr, Type: sumType, First: e} }

func Case(e *Term, branches []CaseBranch) *Term {
	return &Term{Kind: KCase, First: e, Branches: branches}
}

func Lambda(param string, paramType *types.Type, body *Term) *Term {
	return &Term{Kind: KLambda, Bind: param, Type: paramType, First: body}
}

func Apply(f, x *Term) *Term { return &Term{Kind: KApply, First: f, Second: x} }

func Alloc(t *types.Type, e *Term) *Term { return &Term{Kind: KAlloc, Type: t, First: e} }

// AllocLit is a literal leaf: `alloc t init -> r` with an inline,
// already-known runtime value, the base case L1's alloc primitive
// bottoms out to (surface-language constants, not compound terms).
func AllocLit(t *types.Type, init *machine.Value) *Term {
	return &Term{Kind: KAlloc, Type: t, Literal: init}
}

func Consume(e *Term) *Term { return &Term{Kind: KConsume, First: e} }

func Ref(name string) *Term { return &Term{Kind: KRef, Bind: name} }

func NewChannelTerm(protocol *types.Session, loc types.Location) *Term {
	return &Term{Kind: KNewChannel, Protocol: protocol, Location: loc}
}

func Send(channel, payload *Term) *Term { return &Term{Kind: KSend, First: channel, Second: payload} }

func Receive(channel *Term) *Term { return &Term{Kind: KReceive, First: channel} }

func Select(channel *Term, label string) *Term {
	return &Term{Kind: KSelect, First: channel, Label: label}
}

func CaseChannel(channel *Term, branches []CaseBranch) *Term {
	return &Term{Kind: KCaseChannel, First: channel, Branches: branches}
}

func Close(channel *Term) *Term { return &Term{Kind: KClose, First: channel} }

func At(loc types.Location, term *Term) *Term { return &Term{Kind: KAt, Location: loc, First: term} }
