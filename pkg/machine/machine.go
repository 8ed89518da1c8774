// Copyright 2025 Certen Protocol
//
// Machine is the L0 register machine: a register file plus a morphism
// registry, executing one Program at a time under the linear register
// discipline from spec §3 (every register is Allocated once, becomes
// Live on write, and Consumed at most once).

package machine

import (
	"fmt"
	"sync"
)

// RegisterState is a register's point in its Allocated -> Live ->
// Consumed lifecycle.
type RegisterState uint8

const (
	Allocated RegisterState = iota
	Live
	Consumed
)

func (s RegisterState) String() string {
	switch s {
	case Allocated:
		return "allocated"
	case Live:
		return "live"
	case Consumed:
		return "consumed"
	default:
		return "invalid"
	}
}

// Register is one slot of the register file.
type Register struct {
	ID    Reg
	State RegisterState
	Value *Value
}

// Morphism is a named, pure transform x -> y over runtime Values. The
// registry of morphisms is supplied by the caller (typically populated
// by pkg/lang's lowering pass from the term language's primitives and
// by pkg/effect's FunctionApplication transforms).
type Morphism func(*Value) (*Value, error)

// LinearityError reports a register-discipline violation: a read of an
// unallocated or already-consumed register, a double-consume, or a
// double-write.
type LinearityError struct {
	Reg     Reg
	Message string
}

func (e *LinearityError) Error() string {
	return fmt.Sprintf("machine: linearity violation on register %d: %s", e.Reg, e.Message)
}

// Machine holds a register file and a morphism registry and executes
// Programs against them one instruction at a time.
type Machine struct {
	mu        sync.Mutex
	registers map[Reg]*Register
	nextReg   Reg
	morphisms map[string]Morphism
}

// NewMachine returns an empty machine with no registers allocated.
func NewMachine() *Machine {
	return &Machine{
		registers: make(map[Reg]*Register),
		morphisms: make(map[string]Morphism),
	}
}

// DefineMorphism registers a named transform for use by `transform`
// instructions.
func (m *Machine) DefineMorphism(name string, fn Morphism) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.morphisms[name] = fn
}

// FreshRegister allocates and returns a new, empty register id. Its
// state is Allocated until the first write targets it.
func (m *Machine) FreshRegister() Reg {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.nextReg
	m.nextReg++
	m.registers[r] = &Register{ID: r, State: Allocated}
	return r
}

func (m *Machine) read(r Reg) (*Value, error) {
	reg, ok := m.registers[r]
	if !ok {
		return nil, &LinearityError{Reg: r, Message: "read of unallocated register"}
	}
	if reg.State != Live {
		return nil, &LinearityError{Reg: r, Message: "read of register not in live state: " + reg.State.String()}
	}
	return reg.Value, nil
}

// readAll reads every register in rs (each a non-consuming read) and
// folds them into a single value: one read returns that value
// directly, more than one folds right-to-left into nested Products so
// a multi-input transform's morphism still sees a single *Value.
func (m *Machine) readAll(rs []Reg) (*Value, error) {
	if len(rs) == 0 {
		return Unit(), nil
	}
	vals := make([]*Value, len(rs))
	for i, r := range rs {
		v, err := m.read(r)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	if len(vals) == 1 {
		return vals[0], nil
	}
	folded := vals[len(vals)-1]
	for i := len(vals) - 2; i >= 0; i-- {
		folded = Product(vals[i], folded)
	}
	return folded, nil
}

func (m *Machine) write(r Reg, v *Value) error {
	reg, ok := m.registers[r]
	if !ok {
		reg = &Register{ID: r, State: Allocated}
		m.registers[r] = reg
	}
	if reg.State == Live {
		return &LinearityError{Reg: r, Message: "double write to live register"}
	}
	if reg.State == Consumed {
		return &LinearityError{Reg: r, Message: "write to consumed register"}
	}
	reg.Value = v
	reg.State = Live
	return nil
}

func (m *Machine) consume(r Reg) (*Value, error) {
	reg, ok := m.registers[r]
	if !ok {
		return nil, &LinearityError{Reg: r, Message: "consume of unallocated register"}
	}
	if reg.State != Live {
		return nil, &LinearityError{Reg: r, Message: "consume of register not in live state: " + reg.State.String()}
	}
	v := reg.Value
	reg.State = Consumed
	reg.Value = nil
	return v, nil
}

// Run executes prog in order, enforcing the linear register discipline
// dynamically as each instruction runs. It returns on the first error.
func (m *Machine) Run(prog Program) error {
	for i, instr := range prog {
		if err := m.step(instr); err != nil {
			return fmt.Errorf("machine: instruction %d (%s): %w", i, instr.Op, err)
		}
	}
	return nil
}

func (m *Machine) step(instr Instruction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch instr.Op {
	case OpTransform:
		input, err := m.readAll(instr.Reads)
		if err != nil {
			return err
		}
		morphism, ok := m.morphisms[instr.Morphism]
		if !ok {
			return fmt.Errorf("unknown morphism %q", instr.Morphism)
		}
		y, err := morphism(input)
		if err != nil {
			return err
		}
		return m.write(instr.Writes[0], y)

	case OpAlloc:
		return m.write(instr.Writes[0], instr.Init)

	case OpConsume:
		v, err := m.consume(instr.Reads[0])
		if err != nil {
			return err
		}
		return m.write(instr.Writes[0], v)

	case OpCompose:
		f, err := m.consume(instr.Reads[0])
		if err != nil {
			return err
		}
		g, err := m.consume(instr.Reads[1])
		if err != nil {
			return err
		}
		h, err := composeMorphisms(f, g)
		if err != nil {
			return err
		}
		return m.write(instr.Writes[0], h)

	case OpTensor:
		a, err := m.consume(instr.Reads[0])
		if err != nil {
			return err
		}
		b, err := m.consume(instr.Reads[1])
		if err != nil {
			return err
		}
		return m.write(instr.Writes[0], Product(a, b))

	default:
		return fmt.Errorf("unrecognized opcode %v", instr.Op)
	}
}

// composeMorphisms builds the sequential composition of two
// morphism-valued registers. Morphism values are represented as
// VFunction values whose Function.BodyRef names an entry in the
// enclosing program; composition here only validates both operands are
// function-shaped and defers actual application to pkg/lang's
// evaluator, which knows how to chain BodyRefs.
func composeMorphisms(f, g *Value) (*Value, error) {
	if f == nil || f.Kind != VFunction {
		return nil, fmt.Errorf("compose: left operand is not a morphism")
	}
	if g == nil || g.Kind != VFunction {
		return nil, fmt.Errorf("compose: right operand is not a morphism")
	}
	composed := &Function{
		Params:  f.Function.Params,
		BodyRef: g.Function.BodyRef,
		Env:     mergeEnv(f.Function.Env, g.Function.Env),
	}
	return Closure(composed), nil
}

func mergeEnv(a, b map[string]*Value) map[string]*Value {
	out := make(map[string]*Value, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

// RegisterSnapshot returns a copy of a register's current state, for
// inspection by tests and by pkg/effect's execution trace.
func (m *Machine) RegisterSnapshot(r Reg) (Register, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg, ok := m.registers[r]
	if !ok {
		return Register{}, false
	}
	return *reg, true
}
