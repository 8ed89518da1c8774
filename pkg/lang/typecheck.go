// Copyright 2025 Certen Protocol
//
// Typing rules for the L1 term language. Infer walks a Term under a
// linear variable environment and a capability set (the locations the
// current context is permitted to evaluate `at` against), producing
// either the term's type or a typed error.

package lang

import (
	"github.com/causality-labs/causality/pkg/types"
)

// Env maps a bound variable name to its type. Infer does not itself
// enforce that every bound variable is used exactly once — that is a
// property of well-formed surface programs checked upstream; Infer
// only rejects outright unbound references and shape mismatches.
type Env map[string]*types.Type

// Capabilities is the set of locations (by Location.String()) the
// current evaluation context is permitted to cross into via `at`.
type Capabilities map[string]bool

// Infer computes the type of term under env and caps, or a *TypeError.
func Infer(term *Term, env Env, caps Capabilities) (*types.Type, error) {
	switch term.Kind {
	case KUnit:
		return types.Unit(), nil

	case KRef:
		t, ok := env[term.Bind]
		if !ok {
			return nil, typeErrf(term.Kind, "unbound variable %q", term.Bind)
		}
		return t, nil

	case KLetUnit:
		t1, err := Infer(term.First, env, caps)
		if err != nil {
			return nil, err
		}
		if t1.Kind != types.TUnit {
			return nil, typeErrf(term.Kind, "bound term has type %s, expected Unit", t1.Kind)
		}
		return Infer(term.Second, env, caps)

	case KTensor:
		ta, err := Infer(term.First, env, caps)
		if err != nil {
			return nil, err
		}
		tb, err := Infer(term.Second, env, caps)
		if err != nil {
			return nil, err
		}
		return types.Product(ta, tb), nil

	case KLetTensor:
		t1, err := Infer(term.First, env, caps)
		if err != nil {
			return nil, err
		}
		if t1.Kind != types.TProduct {
			return nil, typeErrf(term.Kind, "bound term has type %s, expected Product", t1.Kind)
		}
		next := extend(env, term.Bind, t1.Left)
		next = extend(next, term.Bind2, t1.Right)
		return Infer(term.Second, next, caps)

	case KInl:
		if term.Type == nil || term.Type.Kind != types.TSum {
			return nil, typeErrf(term.Kind, "inl requires an annotated Sum type")
		}
		inner, err := Infer(term.First, env, caps)
		if err != nil {
			return nil, err
		}
		if !types.Equal(inner, term.Type.Left) {
			return nil, typeErrf(term.Kind, "inl payload has type %s, does not match annotated left %s", inner.Kind, term.Type.Left.Kind)
		}
		return term.Type, nil

	case KInr:
		if term.Type == nil || term.Type.Kind != types.TSum {
			return nil, typeErrf(term.Kind, "inr requires an annotated Sum type")
		}
		inner, err := Infer(term.First, env, caps)
		if err != nil {
			return nil, err
		}
		if !types.Equal(inner, term.Type.Right) {
			return nil, typeErrf(term.Kind, "inr payload has type %s, does not match annotated right %s", inner.Kind, term.Type.Right.Kind)
		}
		return term.Type, nil

	case KCase:
		scrutinee, err := Infer(term.First, env, caps)
		if err != nil {
			return nil, err
		}
		if scrutinee.Kind != types.TSum {
			return nil, typeErrf(term.Kind, "case scrutinee has type %s, expected Sum", scrutinee.Kind)
		}
		if len(term.Branches) != 2 {
			return nil, typeErrf(term.Kind, "case over a sum requires exactly 2 branches, got %d", len(term.Branches))
		}
		leftBranch, rightBranch := term.Branches[0], term.Branches[1]
		leftEnv := extend(env, leftBranch.Bind, scrutinee.Left)
		rightEnv := extend(env, rightBranch.Bind, scrutinee.Right)
		lt, err := Infer(leftBranch.Body, leftEnv, caps)
		if err != nil {
			return nil, err
		}
		rt, err := Infer(rightBranch.Body, rightEnv, caps)
		if err != nil {
			return nil, err
		}
		if !types.Equal(lt, rt) {
			return nil, typeErrf(term.Kind, "case branches diverge: %s vs %s", lt.Kind, rt.Kind)
		}
		return lt, nil

	case KLambda:
		if term.Type == nil {
			return nil, typeErrf(term.Kind, "lambda requires a parameter type annotation")
		}
		bodyEnv := extend(env, term.Bind, term.Type)
		out, err := Infer(term.First, bodyEnv, caps)
		if err != nil {
			return nil, err
		}
		return types.LinearFunction(term.Type, out), nil

	case KApply:
		tf, err := Infer(term.First, env, caps)
		if err != nil {
			return nil, err
		}
		if tf.Kind != types.TLinearFunction {
			return nil, typeErrf(term.Kind, "apply target has type %s, expected LinearFunction", tf.Kind)
		}
		tx, err := Infer(term.Second, env, caps)
		if err != nil {
			return nil, err
		}
		if !types.Equal(tx, tf.Left) {
			return nil, typeErrf(term.Kind, "argument has type %s, expected %s", tx.Kind, tf.Left.Kind)
		}
		return tf.Right, nil

	case KAlloc:
		if term.Type == nil {
			return nil, typeErrf(term.Kind, "alloc requires a type annotation")
		}
		if term.First == nil {
			if term.Literal == nil {
				return nil, typeErrf(term.Kind, "alloc literal leaf requires an inline value")
			}
			return term.Type, nil
		}
		inner, err := Infer(term.First, env, caps)
		if err != nil {
			return nil, err
		}
		if !types.Equal(inner, term.Type) {
			return nil, typeErrf(term.Kind, "alloc initializer has type %s, does not match annotated %s", inner.Kind, term.Type.Kind)
		}
		return term.Type, nil

	case KConsume:
		return Infer(term.First, env, caps)

	case KNewChannel:
		if term.Protocol == nil {
			return nil, typeErrf(term.Kind, "new-channel requires a protocol annotation")
		}
		return types.SessionType(term.Protocol), nil

	case KSend:
		tc, err := Infer(term.First, env, caps)
		if err != nil {
			return nil, err
		}
		if tc.Kind != types.TSession || tc.Session.Kind != types.SessionSend {
			return nil, typeErrf(term.Kind, "send target is not a channel whose protocol head is Send")
		}
		tp, err := Infer(term.Second, env, caps)
		if err != nil {
			return nil, err
		}
		if !types.Equal(tp, tc.Session.Payload) {
			return nil, typeErrf(term.Kind, "send payload has type %s, protocol expects %s", tp.Kind, tc.Session.Payload.Kind)
		}
		return types.SessionType(tc.Session.Cont), nil

	case KReceive:
		tc, err := Infer(term.First, env, caps)
		if err != nil {
			return nil, err
		}
		if tc.Kind != types.TSession || tc.Session.Kind != types.SessionReceive {
			return nil, typeErrf(term.Kind, "receive target is not a channel whose protocol head is Receive")
		}
		return types.Product(tc.Session.Payload, types.SessionType(tc.Session.Cont)), nil

	case KSelect:
		tc, err := Infer(term.First, env, caps)
		if err != nil {
			return nil, err
		}
		if tc.Kind != types.TSession || tc.Session.Kind != types.SessionInternalChoice {
			return nil, typeErrf(term.Kind, "select target is not a channel whose protocol head is InternalChoice")
		}
		for _, choice := range tc.Session.Choices {
			if choice.Label == term.Label {
				return types.SessionType(choice.Session), nil
			}
		}
		return nil, typeErrf(term.Kind, "no branch labeled %q in protocol", term.Label)

	case KCaseChannel:
		tc, err := Infer(term.First, env, caps)
		if err != nil {
			return nil, err
		}
		if tc.Kind != types.TSession || tc.Session.Kind != types.SessionExternalChoice {
			return nil, typeErrf(term.Kind, "case-channel target is not a channel whose protocol head is ExternalChoice")
		}
		if len(term.Branches) != len(tc.Session.Choices) {
			return nil, typeErrf(term.Kind, "case-channel has %d branches, protocol offers %d", len(term.Branches), len(tc.Session.Choices))
		}
		var result *types.Type
		for i, branch := range term.Branches {
			choice := tc.Session.Choices[i]
			if branch.Label != choice.Label {
				return nil, typeErrf(term.Kind, "branch %d labeled %q, protocol offers %q", i, branch.Label, choice.Label)
			}
			branchEnv := extend(env, branch.Bind, types.SessionType(choice.Session))
			bt, err := Infer(branch.Body, branchEnv, caps)
			if err != nil {
				return nil, err
			}
			if result == nil {
				result = bt
			} else if !types.Equal(result, bt) {
				return nil, typeErrf(term.Kind, "case-channel branches diverge: %s vs %s", result.Kind, bt.Kind)
			}
		}
		return result, nil

	case KClose:
		tc, err := Infer(term.First, env, caps)
		if err != nil {
			return nil, err
		}
		if tc.Kind != types.TSession || tc.Session.Kind != types.SessionEnd {
			return nil, typeErrf(term.Kind, "close target's protocol has not reached End")
		}
		return types.Unit(), nil

	case KAt:
		if !caps[term.Location.String()] {
			return nil, typeErrf(term.Kind, "location %s is not in the current capability set", term.Location.String())
		}
		inner, err := Infer(term.First, env, caps)
		if err != nil {
			return nil, err
		}
		return types.Located(inner, term.Location), nil

	default:
		return nil, typeErrf(term.Kind, "unrecognized term kind")
	}
}

func extend(env Env, name string, t *types.Type) Env {
	next := make(Env, len(env)+1)
	for k, v := range env {
		next[k] = v
	}
	next[name] = t
	return next
}
