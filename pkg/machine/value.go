// Copyright 2025 Certen Protocol
//
// L0 register machine (C3): runtime values, registers, and channels.
// Grounded on pkg/merkle's resource-ownership discipline (single-owner,
// no aliasing) and pkg/consensus/bft_integration.go's explicit state
// enum + guarded-map shape for long-lived mutable components.

package machine

import (
	"sync"

	"github.com/causality-labs/causality/pkg/codec"
	"github.com/causality-labs/causality/pkg/types"
)

// ValueKind is the discriminant of a runtime Value.
type ValueKind uint8

const (
	VUnit ValueKind = iota
	VBool
	VInt
	VSymbol
	VProduct
	VSum
	VFunction
	VChannel
	VResource
)

// Value is a single L0 runtime value: {Unit, Bool, Int, Symbol,
// Product(V,V), Sum(V,V), Function, Channel, Resource}. Only the
// fields relevant to Kind are populated.
type Value struct {
	Kind ValueKind

	Bool   bool
	Int    int64
	Symbol string

	Left, Right *Value
	SumTag      codec.SumTag

	Function *Function
	Channel  *SessionChannel
	Resource codec.ID
}

// Function is a closure: its parameter names, a reference to its
// compiled body (an index into the enclosing instruction program), and
// its captured environment at closure-creation time.
type Function struct {
	Params  []string
	BodyRef int
	Env     map[string]*Value
}

func Unit() *Value          { return &Value{Kind: VUnit} }
func Bool(b bool) *Value    { return &Value{Kind: VBool, Bool: b} }
func Int(i int64) *Value    { return &Value{Kind: VInt, Int: i} }
func Symbol(s string) *Value { return &Value{Kind: VSymbol, Symbol: s} }

func Product(l, r *Value) *Value { return &Value{Kind: VProduct, Left: l, Right: r} }
func Inl(v *Value) *Value        { return &Value{Kind: VSum, SumTag: codec.TagInl, Left: v} }
func Inr(v *Value) *Value        { return &Value{Kind: VSum, SumTag: codec.TagInr, Left: v} }

func Closure(f *Function) *Value { return &Value{Kind: VFunction, Function: f} }
func ChannelValue(c *SessionChannel) *Value { return &Value{Kind: VChannel, Channel: c} }
func Resource(id codec.ID) *Value { return &Value{Kind: VResource, Resource: id} }

// ChannelState tracks a SessionChannel's lifecycle.
type ChannelState uint8

const (
	ChannelOpen ChannelState = iota
	ChannelClosed
	ChannelConsumed
)

// SessionChannel is a pair (protocol, location, state, queue). Send
// checks that the channel is Open and the remaining protocol's head is
// Send(T,_); it does not check that the payload inhabits T. The
// protocol then progresses deterministically.
// A channel is owned by exactly one participant at a time — enforced by
// the L1 linear type system (pkg/lang), not by this struct.
type SessionChannel struct {
	mu       sync.Mutex
	Protocol *types.Session
	Location types.Location
	State    ChannelState
	Queue    []*Value
}

func NewChannel(protocol *types.Session, loc types.Location) *SessionChannel {
	return &SessionChannel{Protocol: protocol, Location: loc, State: ChannelOpen}
}

// Send advances the channel past a Send step, appending payload to the
// queue. Fails if the channel isn't Open or the protocol's head isn't
// Send.
func (c *SessionChannel) Send(payload *Value) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State != ChannelOpen {
		return &ProtocolError{Message: "send on non-open channel"}
	}
	if c.Protocol == nil || c.Protocol.Kind != types.SessionSend {
		return &ProtocolError{Message: "protocol head is not Send"}
	}
	c.Queue = append(c.Queue, payload)
	c.Protocol = c.Protocol.Cont
	return nil
}

// Receive advances the channel past a Receive step, returning the next
// queued value.
func (c *SessionChannel) Receive() (*Value, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State != ChannelOpen {
		return nil, &ProtocolError{Message: "receive on non-open channel"}
	}
	if c.Protocol == nil || c.Protocol.Kind != types.SessionReceive {
		return nil, &ProtocolError{Message: "protocol head is not Receive"}
	}
	if len(c.Queue) == 0 {
		return nil, &ProtocolError{Message: "receive with nothing queued"}
	}
	v := c.Queue[0]
	c.Queue = c.Queue[1:]
	c.Protocol = c.Protocol.Cont
	return v, nil
}

// Select picks an internal-choice branch by label.
func (c *SessionChannel) Select(label string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State != ChannelOpen {
		return &ProtocolError{Message: "select on non-open channel"}
	}
	if c.Protocol == nil || c.Protocol.Kind != types.SessionInternalChoice {
		return &ProtocolError{Message: "protocol head is not InternalChoice"}
	}
	for _, choice := range c.Protocol.Choices {
		if choice.Label == label {
			c.Protocol = choice.Session
			return nil
		}
	}
	return &ProtocolError{Message: "no such branch: " + label}
}

// ReceiveChoice dequeues a pending external-choice label (the peer
// signals its selection by sending a Symbol naming the chosen branch,
// mirroring the RW read/write handshake in pkg/row's protocol
// derivation) and advances the protocol to that branch.
func (c *SessionChannel) ReceiveChoice() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State != ChannelOpen {
		return "", &ProtocolError{Message: "receive-choice on non-open channel"}
	}
	if c.Protocol == nil || c.Protocol.Kind != types.SessionExternalChoice {
		return "", &ProtocolError{Message: "protocol head is not ExternalChoice"}
	}
	if len(c.Queue) == 0 {
		return "", &ProtocolError{Message: "receive-choice with nothing queued"}
	}
	labelValue := c.Queue[0]
	if labelValue.Kind != VSymbol {
		return "", &ProtocolError{Message: "queued choice selector is not a symbol"}
	}
	c.Queue = c.Queue[1:]

	for _, choice := range c.Protocol.Choices {
		if choice.Label == labelValue.Symbol {
			c.Protocol = choice.Session
			return labelValue.Symbol, nil
		}
	}
	return "", &ProtocolError{Message: "no such branch: " + labelValue.Symbol}
}

// Close ends the channel. Closing before the protocol reaches End is a
// linearity violation reported as a ProtocolError.
func (c *SessionChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Protocol == nil || c.Protocol.Kind != types.SessionEnd {
		return &ProtocolError{Message: "closing channel before protocol reached End"}
	}
	c.State = ChannelClosed
	return nil
}

// ProtocolError reports a session-protocol violation.
type ProtocolError struct{ Message string }

func (e *ProtocolError) Error() string { return "machine: protocol error: " + e.Message }
