// Copyright 2025 Certen Protocol
//
// Transform definitions (C6): the five shapes an Effect's Transform may
// take, each required to admit a lowering to a single L1 (pkg/lang)
// primitive per spec §4.6. Grounded on
// crates/causality-core/src/effect/transform.rs's TransformDefinition
// enum and its to_layer1_operation method.

package effect

import (
	"github.com/causality-labs/causality/pkg/lang"
	"github.com/causality-labs/causality/pkg/machine"
	"github.com/causality-labs/causality/pkg/types"
)

// TransformKind discriminates the five transform shapes.
type TransformKind uint8

const (
	FunctionApplication TransformKind = iota
	CommunicationSend
	CommunicationReceive
	StateAllocation
	ResourceConsumption
)

func (k TransformKind) String() string {
	switch k {
	case FunctionApplication:
		return "FunctionApplication"
	case CommunicationSend:
		return "CommunicationSend"
	case CommunicationReceive:
		return "CommunicationReceive"
	case StateAllocation:
		return "StateAllocation"
	case ResourceConsumption:
		return "ResourceConsumption"
	default:
		return "Invalid"
	}
}

// TransformDefinition is a tagged union over TransformKind; only the
// fields relevant to Kind are populated. Each constructor below carries
// exactly what ToPrimitive needs to lower it to one L1 term.
type TransformDefinition struct {
	Kind TransformKind

	// FunctionApplication
	Function *lang.Term
	Argument *lang.Term

	// CommunicationSend
	Channel *lang.Term
	Payload *lang.Term

	// CommunicationReceive reuses Channel above.

	// StateAllocation
	AllocType *types.Type
	Init      *machine.Value

	// ResourceConsumption
	Target *lang.Term
}

func ApplyTransform(fn, arg *lang.Term) TransformDefinition {
	return TransformDefinition{Kind: FunctionApplication, Function: fn, Argument: arg}
}

func SendTransform(channel, payload *lang.Term) TransformDefinition {
	return TransformDefinition{Kind: CommunicationSend, Channel: channel, Payload: payload}
}

func ReceiveTransform(channel *lang.Term) TransformDefinition {
	return TransformDefinition{Kind: CommunicationReceive, Channel: channel}
}

func AllocTransform(t *types.Type, init *machine.Value) TransformDefinition {
	return TransformDefinition{Kind: StateAllocation, AllocType: t, Init: init}
}

func ConsumeTransform(target *lang.Term) TransformDefinition {
	return TransformDefinition{Kind: ResourceConsumption, Target: target}
}

// ToPrimitive lowers td to the single L1 term that implements it. Every
// TransformKind maps directly onto one lang constructor; none requires
// a multi-term macro expansion in this implementation, but the table
// shape (one case per Kind, one Term out) is what a future Kind with a
// genuine macro expansion would extend.
func (td TransformDefinition) ToPrimitive() (*lang.Term, error) {
	switch td.Kind {
	case FunctionApplication:
		if td.Function == nil || td.Argument == nil {
			return nil, &Error{Kind: ErrInvalidTransform, Message: "function application requires both function and argument terms"}
		}
		return lang.Apply(td.Function, td.Argument), nil

	case CommunicationSend:
		if td.Channel == nil || td.Payload == nil {
			return nil, &Error{Kind: ErrInvalidTransform, Message: "communication send requires a channel and a payload term"}
		}
		return lang.Send(td.Channel, td.Payload), nil

	case CommunicationReceive:
		if td.Channel == nil {
			return nil, &Error{Kind: ErrInvalidTransform, Message: "communication receive requires a channel term"}
		}
		return lang.Receive(td.Channel), nil

	case StateAllocation:
		if td.AllocType == nil || td.Init == nil {
			return nil, &Error{Kind: ErrInvalidTransform, Message: "state allocation requires a type and an initial value"}
		}
		return lang.AllocLit(td.AllocType, td.Init), nil

	case ResourceConsumption:
		if td.Target == nil {
			return nil, &Error{Kind: ErrInvalidTransform, Message: "resource consumption requires a target term"}
		}
		return lang.Consume(td.Target), nil

	default:
		return nil, &Error{Kind: ErrInvalidTransform, Message: "unrecognized transform kind"}
	}
}
