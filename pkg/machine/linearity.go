// Copyright 2025 Certen Protocol
//
// Static linearity checker (spec §8 property 4): verifies a Program
// obeys the register discipline before it is ever run — every register
// is written at most once, consumed at most once, and never
// written and consumed by the same instruction.

package machine

import "fmt"

// LinearityViolation describes one static discipline failure found in
// a Program, independent of any particular execution.
type LinearityViolation struct {
	Reg     Reg
	Instr   int
	Message string
}

func (v LinearityViolation) Error() string {
	return fmt.Sprintf("register %d at instruction %d: %s", v.Reg, v.Instr, v.Message)
}

// CheckLinearity statically verifies prog: every register has at most
// one writing instruction, at most one consuming instruction, and no
// single instruction both reads and writes the same register. It
// returns every violation found, not just the first.
//
// "Consuming" tracks Machine.step's actual dynamic semantics: consume,
// compose, and tensor call m.consume on their Reads and move the
// register to the Consumed state, so at most one such instruction may
// target a given register, and no instruction of any kind may read a
// register a prior consume/compose/tensor already consumed — this
// mirrors Machine.read's own Live-state requirement, so the static and
// dynamic checks agree on the same register.
func CheckLinearity(prog Program) []LinearityViolation {
	writers := make(map[Reg]int)
	consumers := make(map[Reg]int)
	var violations []LinearityViolation

	for i, instr := range prog {
		reads := instr.Reads
		writes := instr.Writes

		for _, r := range reads {
			for _, w := range writes {
				if r == w {
					violations = append(violations, LinearityViolation{
						Reg: r, Instr: i, Message: "instruction both reads and writes the same register",
					})
				}
			}
		}

		for _, r := range reads {
			if prev, ok := consumers[r]; ok {
				violations = append(violations, LinearityViolation{
					Reg: r, Instr: i,
					Message: fmt.Sprintf("register already consumed at instruction %d", prev),
				})
			}
		}

		if isConsuming(instr.Op) {
			for _, r := range reads {
				consumers[r] = i
			}
		}

		for _, w := range writes {
			if prev, ok := writers[w]; ok {
				violations = append(violations, LinearityViolation{
					Reg: w, Instr: i,
					Message: fmt.Sprintf("register already written at instruction %d", prev),
				})
			}
			writers[w] = i
		}
	}

	return violations
}

func isConsuming(op Op) bool {
	switch op {
	case OpConsume, OpCompose, OpTensor:
		return true
	default:
		return false
	}
}

// IsLinear reports whether prog has no static linearity violations.
func IsLinear(prog Program) bool {
	return len(CheckLinearity(prog)) == 0
}
