// Copyright 2025 Certen Protocol
//
// Runtime installs the morphisms a lowered Module's Program refers to
// onto a machine.Machine: the structural primitives (project/inject),
// apply (runs a closure's body on a fresh sub-machine), case dispatch
// (picks and runs one of two precompiled branch bodies by sum tag),
// case-channel dispatch (same, keyed by the protocol's chosen label),
// and the session primitives (send/receive/select/close), which defer
// to SessionChannel's own protocol-advancing methods.

package lang

import (
	"fmt"
	"strings"

	"github.com/causality-labs/causality/pkg/machine"
)

const (
	projectLeft      = "__project_left__"
	projectRight     = "__project_right__"
	injectLeft       = "__inl__"
	injectRight      = "__inr__"
	applyMorphism    = "__apply__"
	sendMorphism     = "__send__"
	receiveMorphism  = "__receive__"
	closeMorphism    = "__close__"
	selectMorphismPrefix = "__select:"
)

func selectMorphismName(label string) string { return selectMorphismPrefix + label }

// Runtime links a Module to a freshly built Machine, ready to Run the
// Module's Entry program.
type Runtime struct {
	module *Module
}

func NewRuntime(module *Module) *Runtime { return &Runtime{module: module} }

// NewMachine builds a Machine with every morphism the Module's
// programs reference already defined.
func (rt *Runtime) NewMachine() *machine.Machine {
	m := machine.NewMachine()

	m.DefineMorphism(projectLeft, func(v *machine.Value) (*machine.Value, error) {
		if v == nil || v.Kind != machine.VProduct {
			return nil, fmt.Errorf("lang: %s: expected a product value", projectLeft)
		}
		return v.Left, nil
	})
	m.DefineMorphism(projectRight, func(v *machine.Value) (*machine.Value, error) {
		if v == nil || v.Kind != machine.VProduct {
			return nil, fmt.Errorf("lang: %s: expected a product value", projectRight)
		}
		return v.Right, nil
	})
	m.DefineMorphism(injectLeft, func(v *machine.Value) (*machine.Value, error) {
		return machine.Inl(v), nil
	})
	m.DefineMorphism(injectRight, func(v *machine.Value) (*machine.Value, error) {
		return machine.Inr(v), nil
	})
	m.DefineMorphism(applyMorphism, rt.apply)
	m.DefineMorphism(sendMorphism, rt.send)
	m.DefineMorphism(receiveMorphism, rt.receive)
	m.DefineMorphism(closeMorphism, rt.close)

	for name, site := range rt.module.CaseSites {
		m.DefineMorphism(name, rt.dispatch(site))
	}
	for label := range rt.module.SelectLabels {
		m.DefineMorphism(selectMorphismName(label), rt.selectFn(label))
	}

	return m
}

func (rt *Runtime) selectFn(label string) machine.Morphism {
	return func(v *machine.Value) (*machine.Value, error) {
		if v == nil || v.Kind != machine.VChannel {
			return nil, fmt.Errorf("lang: select: expected a channel")
		}
		if err := v.Channel.Select(label); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// apply runs a closure's body on a fresh Machine, seeding its
// parameter register (by convention register 0) with the argument, and
// returns the value of the body's recorded Result register.
func (rt *Runtime) apply(v *machine.Value) (*machine.Value, error) {
	if v == nil || v.Kind != machine.VProduct {
		return nil, fmt.Errorf("lang: apply: expected a (function, argument) pair")
	}
	fn, arg := v.Left, v.Right
	if fn.Kind != machine.VFunction {
		return nil, fmt.Errorf("lang: apply: left operand is not a function")
	}
	return rt.runBody(fn.Function.BodyRef, arg)
}

// runBody executes module.Bodies[ref] on a fresh sub-machine seeded
// with param at register 0 (the lowering convention for every
// closure/branch body), returning the value of the body's recorded
// result register — not necessarily its last instruction's output,
// since a body ending in a bare variable reference returns a register
// bound earlier in the program.
func (rt *Runtime) runBody(ref int, param *machine.Value) (*machine.Value, error) {
	if ref < 0 || ref >= len(rt.module.Bodies) {
		return nil, fmt.Errorf("lang: body reference %d out of range", ref)
	}
	compiled := rt.module.Bodies[ref]
	sub := rt.NewMachine()
	paramReg := sub.FreshRegister()
	seeded := make(machine.Program, 0, len(compiled.Prog)+1)
	seeded = append(seeded, machine.NewAlloc(param, paramReg))
	seeded = append(seeded, compiled.Prog...)

	if err := sub.Run(seeded); err != nil {
		return nil, fmt.Errorf("lang: running body %d: %w", ref, err)
	}
	snap, ok := sub.RegisterSnapshot(compiled.Result)
	if !ok {
		return nil, fmt.Errorf("lang: body %d produced no result register", ref)
	}
	return snap.Value, nil
}

// dispatch builds the morphism for one case or case-channel site.
func (rt *Runtime) dispatch(site CaseSite) machine.Morphism {
	return func(v *machine.Value) (*machine.Value, error) {
		if site.IsSum {
			if v == nil || v.Kind != machine.VSum {
				return nil, fmt.Errorf("lang: case: expected a sum value")
			}
			idx := 0
			if v.SumTag == 1 {
				idx = 1
			}
			return rt.runBody(site.Bodies[idx], v.Left)
		}

		if v == nil || v.Kind != machine.VChannel {
			return nil, fmt.Errorf("lang: case-channel: expected a channel value")
		}
		label, err := v.Channel.ReceiveChoice()
		if err != nil {
			return nil, err
		}
		for i, l := range site.Labels {
			if l == label {
				return rt.runBody(site.Bodies[i], v)
			}
		}
		return nil, fmt.Errorf("lang: case-channel: no branch for label %q (offered: %s)", label, strings.Join(site.Labels, ","))
	}
}

func (rt *Runtime) send(v *machine.Value) (*machine.Value, error) {
	if v == nil || v.Kind != machine.VProduct {
		return nil, fmt.Errorf("lang: send: expected a (channel, payload) pair")
	}
	channel, payload := v.Left, v.Right
	if channel.Kind != machine.VChannel {
		return nil, fmt.Errorf("lang: send: left operand is not a channel")
	}
	if err := channel.Channel.Send(payload); err != nil {
		return nil, err
	}
	return channel, nil
}

func (rt *Runtime) receive(v *machine.Value) (*machine.Value, error) {
	if v == nil || v.Kind != machine.VChannel {
		return nil, fmt.Errorf("lang: receive: expected a channel")
	}
	payload, err := v.Channel.Receive()
	if err != nil {
		return nil, err
	}
	return machine.Product(payload, v), nil
}

func (rt *Runtime) close(v *machine.Value) (*machine.Value, error) {
	if v == nil || v.Kind != machine.VChannel {
		return nil, fmt.Errorf("lang: close: expected a channel")
	}
	if err := v.Channel.Close(); err != nil {
		return nil, err
	}
	return machine.Unit(), nil
}
