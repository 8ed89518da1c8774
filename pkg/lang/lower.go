// Copyright 2025 Certen Protocol
//
// Lowering (C4): compiles a well-typed Term to an L0 Program plus the
// Module of branch/lambda bodies it refers to. Grounded on the spec's
// mapping table: alloc/consume/tensor map directly; apply folds to a
// tensor pairing plus a transform through the reserved "__apply__"
// morphism; lambda is closure-converted into a Function value whose
// BodyRef indexes Module.Bodies; case compiles to a single transform
// whose morphism dispatches between two precompiled branch bodies by
// sum tag, sharing one output register, matching the spec's "branch
// pair of transforms sharing an output register" description.
//
// Known limitation: lambda bodies may only reference their own
// parameter (and names bound within the body) — lowering does not
// closure-convert free variables captured from an enclosing scope.
// Lift free variables to explicit parameters (or to `at`-scoped
// globals) before lowering a lambda that needs them.

package lang

import (
	"github.com/causality-labs/causality/pkg/machine"
)

// Lowering is lowering's per-scope state: its own register counter and
// instruction buffer, sharing the enclosing Module so nested lambda
// and case bodies land in the same body table.
type Lowering struct {
	module *Module
	next   machine.Reg
	prog   machine.Program
}

// Lower compiles term (assumed closed and well-typed per Infer) into a
// Module whose Entry program computes term's value, verifying the
// compiled entry program is statically linear before returning it.
func Lower(term *Term) (*Module, error) {
	module := NewModule()
	l := &Lowering{module: module}
	result, err := l.lower(term, map[string]machine.Reg{})
	if err != nil {
		return nil, err
	}
	module.Entry = CompiledBody{Prog: l.prog, Result: result}

	if violations := machine.CheckLinearity(module.Entry.Prog); len(violations) > 0 {
		return nil, lowerErrf(term.Kind, "lowered entry program violates linearity: %s", violations[0].Error())
	}
	for i, body := range module.Bodies {
		if violations := machine.CheckLinearity(body.Prog); len(violations) > 0 {
			return nil, lowerErrf(term.Kind, "lowered body %d violates linearity: %s", i, violations[0].Error())
		}
	}
	return module, nil
}

func (l *Lowering) fresh() machine.Reg {
	r := l.next
	l.next++
	return r
}

func (l *Lowering) emit(i machine.Instruction) { l.prog = append(l.prog, i) }

func (l *Lowering) lower(term *Term, env map[string]machine.Reg) (machine.Reg, error) {
	switch term.Kind {
	case KUnit:
		r := l.fresh()
		l.emit(machine.NewAlloc(machine.Unit(), r))
		return r, nil

	case KRef:
		r, ok := env[term.Bind]
		if !ok {
			return 0, lowerErrf(term.Kind, "unbound variable %q", term.Bind)
		}
		return r, nil

	case KLetUnit:
		r1, err := l.lower(term.First, env)
		if err != nil {
			return 0, err
		}
		discard := l.fresh()
		l.emit(machine.NewConsume(r1, discard))
		return l.lower(term.Second, env)

	case KTensor:
		ra, err := l.lower(term.First, env)
		if err != nil {
			return 0, err
		}
		rb, err := l.lower(term.Second, env)
		if err != nil {
			return 0, err
		}
		rc := l.fresh()
		l.emit(machine.NewTensor(ra, rb, rc))
		return rc, nil

	case KLetTensor:
		r1, err := l.lower(term.First, env)
		if err != nil {
			return 0, err
		}
		rx := l.fresh()
		l.emit(machine.NewTransform(projectLeft, r1, rx))
		ry := l.fresh()
		l.emit(machine.NewTransform(projectRight, r1, ry))
		next := cloneEnv(env)
		next[term.Bind] = rx
		next[term.Bind2] = ry
		return l.lower(term.Second, next)

	case KInl:
		rv, err := l.lower(term.First, env)
		if err != nil {
			return 0, err
		}
		r := l.fresh()
		l.emit(machine.NewTransform(injectLeft, rv, r))
		return r, nil

	case KInr:
		rv, err := l.lower(term.First, env)
		if err != nil {
			return 0, err
		}
		r := l.fresh()
		l.emit(machine.NewTransform(injectRight, rv, r))
		return r, nil

	case KCase:
		rs, err := l.lower(term.First, env)
		if err != nil {
			return 0, err
		}
		if len(term.Branches) != 2 {
			return 0, lowerErrf(term.Kind, "case over a sum requires exactly 2 branches")
		}
		leftSub := &Lowering{module: l.module, next: 1}
		leftEnv := map[string]machine.Reg{term.Branches[0].Bind: 0}
		leftResult, err := leftSub.lower(term.Branches[0].Body, leftEnv)
		if err != nil {
			return 0, err
		}
		rightSub := &Lowering{module: l.module, next: 1}
		rightEnv := map[string]machine.Reg{term.Branches[1].Bind: 0}
		rightResult, err := rightSub.lower(term.Branches[1].Body, rightEnv)
		if err != nil {
			return 0, err
		}
		leftRef := l.module.addBody(CompiledBody{Prog: leftSub.prog, Result: leftResult})
		rightRef := l.module.addBody(CompiledBody{Prog: rightSub.prog, Result: rightResult})
		name := l.module.addCaseSite(CaseSite{
			Labels: []string{"inl", "inr"},
			Bodies: []int{leftRef, rightRef},
			IsSum:  true,
		})
		r := l.fresh()
		l.emit(machine.NewTransform(name, rs, r))
		return r, nil

	case KLambda:
		sub := &Lowering{module: l.module, next: 1}
		bodyEnv := map[string]machine.Reg{term.Bind: 0}
		bodyResult, err := sub.lower(term.First, bodyEnv)
		if err != nil {
			return 0, err
		}
		bodyRef := l.module.addBody(CompiledBody{Prog: sub.prog, Result: bodyResult})
		r := l.fresh()
		l.emit(machine.NewAlloc(machine.Closure(&machine.Function{Params: []string{term.Bind}, BodyRef: bodyRef}), r))
		return r, nil

	case KApply:
		rf, err := l.lower(term.First, env)
		if err != nil {
			return 0, err
		}
		rx, err := l.lower(term.Second, env)
		if err != nil {
			return 0, err
		}
		r := l.fresh()
		l.emit(machine.NewTransformN(applyMorphism, []machine.Reg{rf, rx}, r))
		return r, nil

	case KAlloc:
		if term.First == nil {
			r := l.fresh()
			l.emit(machine.NewAlloc(term.Literal, r))
			return r, nil
		}
		// The nested term already computed (and so allocated) its
		// value into a register; alloc's type annotation is a typing
		// concern (checked by Infer), not a further runtime step.
		return l.lower(term.First, env)

	case KConsume:
		rv, err := l.lower(term.First, env)
		if err != nil {
			return 0, err
		}
		r := l.fresh()
		l.emit(machine.NewConsume(rv, r))
		return r, nil

	case KNewChannel:
		r := l.fresh()
		l.emit(machine.NewAlloc(machine.ChannelValue(machine.NewChannel(term.Protocol, term.Location)), r))
		return r, nil

	case KSend:
		rc, err := l.lower(term.First, env)
		if err != nil {
			return 0, err
		}
		rp, err := l.lower(term.Second, env)
		if err != nil {
			return 0, err
		}
		r := l.fresh()
		l.emit(machine.NewTransformN(sendMorphism, []machine.Reg{rc, rp}, r))
		return r, nil

	case KReceive:
		rc, err := l.lower(term.First, env)
		if err != nil {
			return 0, err
		}
		r := l.fresh()
		l.emit(machine.NewTransform(receiveMorphism, rc, r))
		return r, nil

	case KSelect:
		rc, err := l.lower(term.First, env)
		if err != nil {
			return 0, err
		}
		l.module.SelectLabels[term.Label] = true
		r := l.fresh()
		l.emit(machine.NewTransform(selectMorphismName(term.Label), rc, r))
		return r, nil

	case KCaseChannel:
		rc, err := l.lower(term.First, env)
		if err != nil {
			return 0, err
		}
		labels := make([]string, len(term.Branches))
		bodies := make([]int, len(term.Branches))
		for i, branch := range term.Branches {
			sub := &Lowering{module: l.module, next: 1}
			branchEnv := map[string]machine.Reg{branch.Bind: 0}
			branchResult, err := sub.lower(branch.Body, branchEnv)
			if err != nil {
				return 0, err
			}
			labels[i] = branch.Label
			bodies[i] = l.module.addBody(CompiledBody{Prog: sub.prog, Result: branchResult})
		}
		name := l.module.addCaseSite(CaseSite{Labels: labels, Bodies: bodies, IsSum: false})
		r := l.fresh()
		l.emit(machine.NewTransform(name, rc, r))
		return r, nil

	case KClose:
		rc, err := l.lower(term.First, env)
		if err != nil {
			return 0, err
		}
		r := l.fresh()
		l.emit(machine.NewTransform(closeMorphism, rc, r))
		return r, nil

	case KAt:
		// Located is a typing-level annotation only; the value
		// representation is unchanged (see types.Erase).
		return l.lower(term.First, env)

	default:
		return 0, lowerErrf(term.Kind, "unrecognized term kind")
	}
}

func cloneEnv(env map[string]machine.Reg) map[string]machine.Reg {
	next := make(map[string]machine.Reg, len(env)+2)
	for k, v := range env {
		next[k] = v
	}
	return next
}
