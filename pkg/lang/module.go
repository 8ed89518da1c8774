// Copyright 2025 Certen Protocol
//
// Module collects every compiled body a lowered program refers to:
// lambda bodies, case branch bodies, and case-channel branch bodies.
// A lambda's runtime Function.BodyRef indexes into Bodies; dispatch
// among branch bodies is resolved at call time by Runtime using the
// CaseSite recorded for the transform morphism name that triggered it.

package lang

import (
	"fmt"

	"github.com/causality-labs/causality/pkg/machine"
)

// CaseSite records the branch bodies a case/case-channel dispatch
// morphism chooses among, indexed by sum tag (0=inl, 1=inr) or by
// channel protocol choice label.
type CaseSite struct {
	Labels []string
	Bodies []int
	IsSum  bool
}

// CompiledBody is one lowered program together with the register that
// holds its overall result. The result register is not always the
// register the program's last instruction writes — a body ending in a
// bare variable reference (Ref) or in let-tensor's second branch
// returns a register bound earlier in the program.
type CompiledBody struct {
	Prog   machine.Program
	Result machine.Reg
}

// Module is the output of lowering a whole term: an entry body plus
// every body it (transitively) references.
type Module struct {
	Entry CompiledBody

	Bodies       []CompiledBody
	CaseSites    map[string]CaseSite
	SelectLabels map[string]bool

	nextCase int
}

func NewModule() *Module {
	return &Module{CaseSites: make(map[string]CaseSite), SelectLabels: make(map[string]bool)}
}

func (m *Module) addBody(body CompiledBody) int {
	m.Bodies = append(m.Bodies, body)
	return len(m.Bodies) - 1
}

func (m *Module) addCaseSite(site CaseSite) string {
	name := fmt.Sprintf("__case_%d__", m.nextCase)
	m.nextCase++
	m.CaseSites[name] = site
	return name
}
