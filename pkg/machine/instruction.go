// Copyright 2025 Certen Protocol
//
// The five L0 instructions (spec §4.3): transform, alloc, consume,
// compose, tensor. Modeled as one struct with an Op discriminant and
// named fields per variant rather than five separate types, since the
// instruction set is closed and the teacher favors explicit typed
// structs over generic containers (see pkg/merkle.ReceiptEntry).

package machine

// Op is the instruction discriminant.
type Op uint8

const (
	OpTransform Op = iota
	OpAlloc
	OpConsume
	OpCompose
	OpTensor
)

func (o Op) String() string {
	switch o {
	case OpTransform:
		return "transform"
	case OpAlloc:
		return "alloc"
	case OpConsume:
		return "consume"
	case OpCompose:
		return "compose"
	case OpTensor:
		return "tensor"
	default:
		return "invalid"
	}
}

// Reg identifies a register by index within a Machine's register file.
type Reg int

// Instruction is a single L0 instruction. Only the fields relevant to
// Op are populated:
//
//	transform m x -> y     : Morphism, Reads=[x], Writes=[y]
//	alloc t init -> r       : Init (an inline value), Writes=[r]
//	consume r -> v          : Reads=[r], Writes=[v]
//	compose f g -> h        : Reads=[f,g], Writes=[h]
//	tensor a b -> c         : Reads=[a,b], Writes=[c]
type Instruction struct {
	Op Op

	Morphism string
	Init     *Value

	Reads  []Reg
	Writes []Reg
}

// NewTransform builds `transform morphism x -> y`.
func NewTransform(morphism string, x, y Reg) Instruction {
	return Instruction{Op: OpTransform, Morphism: morphism, Reads: []Reg{x}, Writes: []Reg{y}}
}

// NewTransformN builds a multi-input transform: the morphism receives
// the reads folded into a single right-nested product value. Used to
// compile terms that need more than one live input (apply pairs a
// function with its argument; session send pairs a channel with its
// payload) without consuming either register, since transform performs
// a non-consuming read.
func NewTransformN(morphism string, reads []Reg, y Reg) Instruction {
	return Instruction{Op: OpTransform, Morphism: morphism, Reads: append([]Reg(nil), reads...), Writes: []Reg{y}}
}

// NewAlloc builds `alloc init -> r`.
func NewAlloc(init *Value, r Reg) Instruction {
	return Instruction{Op: OpAlloc, Init: init, Writes: []Reg{r}}
}

// NewConsume builds `consume r -> v`.
func NewConsume(r, v Reg) Instruction {
	return Instruction{Op: OpConsume, Reads: []Reg{r}, Writes: []Reg{v}}
}

// NewCompose builds `compose f g -> h`, the sequential composition of
// two morphism-valued registers.
func NewCompose(f, g, h Reg) Instruction {
	return Instruction{Op: OpCompose, Reads: []Reg{f, g}, Writes: []Reg{h}}
}

// NewTensor builds `tensor a b -> c`, the parallel pairing of two
// registers into one product-valued register.
func NewTensor(a, b, c Reg) Instruction {
	return Instruction{Op: OpTensor, Reads: []Reg{a, b}, Writes: []Reg{c}}
}

// Program is a flat, indexable sequence of instructions — the
// compilation target of pkg/lang's lowering pass.
type Program []Instruction
