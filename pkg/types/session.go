// Copyright 2025 Certen Protocol
//
// Session types and duality. Grounded on
// crates/causality-core/src/effect/protocol_derivation.rs's SessionType
// enum shape (Send/Receive/InternalChoice/ExternalChoice/Recursive/Var).

package types

// SessionKind is the discriminant of a Session type.
type SessionKind uint8

const (
	SessionEnd SessionKind = iota
	SessionSend
	SessionReceive
	SessionInternalChoice
	SessionExternalChoice
	SessionRecursive
	SessionVar
)

// Choice is one labeled branch of an internal or external choice.
type Choice struct {
	Label   string
	Session *Session
}

// Session is a communication protocol tree.
type Session struct {
	Kind    SessionKind
	Payload *Type     // Send/Receive: the type of the exchanged value
	Cont    *Session  // Send/Receive: the protocol that follows
	Choices []Choice  // InternalChoice/ExternalChoice
	Var     string    // Recursive: bound variable name; Var: the reference
	Body    *Session  // Recursive: the body under the binder
}

func End() *Session { return &Session{Kind: SessionEnd} }

func Send(payload *Type, cont *Session) *Session {
	return &Session{Kind: SessionSend, Payload: payload, Cont: cont}
}

func Receive(payload *Type, cont *Session) *Session {
	return &Session{Kind: SessionReceive, Payload: payload, Cont: cont}
}

func InternalChoice(choices []Choice) *Session {
	return &Session{Kind: SessionInternalChoice, Choices: append([]Choice(nil), choices...)}
}

func ExternalChoice(choices []Choice) *Session {
	return &Session{Kind: SessionExternalChoice, Choices: append([]Choice(nil), choices...)}
}

func Recursive(v string, body *Session) *Session {
	return &Session{Kind: SessionRecursive, Var: v, Body: body}
}

func Var(v string) *Session { return &Session{Kind: SessionVar, Var: v} }

// Dual is the total, involutive homomorphism that swaps Send<->Receive
// and InternalChoice<->ExternalChoice, recursing through continuations,
// choices, and recursive bodies. A session and its dual compose to End.
func Dual(s *Session) *Session {
	if s == nil {
		return nil
	}
	switch s.Kind {
	case SessionEnd:
		return End()
	case SessionSend:
		return Receive(s.Payload, Dual(s.Cont))
	case SessionReceive:
		return Send(s.Payload, Dual(s.Cont))
	case SessionInternalChoice:
		return ExternalChoice(dualChoices(s.Choices))
	case SessionExternalChoice:
		return InternalChoice(dualChoices(s.Choices))
	case SessionRecursive:
		return Recursive(s.Var, Dual(s.Body))
	case SessionVar:
		return Var(s.Var)
	default:
		return End()
	}
}

func dualChoices(choices []Choice) []Choice {
	out := make([]Choice, len(choices))
	for i, c := range choices {
		out[i] = Choice{Label: c.Label, Session: Dual(c.Session)}
	}
	return out
}

// EqualAlpha compares two sessions up to alpha-renaming of recursion
// variables (the variable name bound by Recursive is immaterial; only
// its binding structure matters).
func EqualAlpha(a, b *Session) bool {
	return equalAlphaRenamed(a, b, map[string]string{})
}

func equalAlphaRenamed(a, b *Session, renaming map[string]string) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case SessionEnd:
		return true
	case SessionSend, SessionReceive:
		return typesStructurallyEqual(a.Payload, b.Payload) &&
			equalAlphaRenamed(a.Cont, b.Cont, renaming)
	case SessionInternalChoice, SessionExternalChoice:
		if len(a.Choices) != len(b.Choices) {
			return false
		}
		for i := range a.Choices {
			if a.Choices[i].Label != b.Choices[i].Label {
				return false
			}
			if !equalAlphaRenamed(a.Choices[i].Session, b.Choices[i].Session, renaming) {
				return false
			}
		}
		return true
	case SessionRecursive:
		next := cloneRenaming(renaming)
		next[a.Var] = b.Var
		return equalAlphaRenamed(a.Body, b.Body, next)
	case SessionVar:
		if mapped, ok := renaming[a.Var]; ok {
			return mapped == b.Var
		}
		return a.Var == b.Var
	default:
		return false
	}
}

func cloneRenaming(m map[string]string) map[string]string {
	out := make(map[string]string, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ComposesToEnd reports whether a and the session it is paired with
// (peer) form a valid channel pair: peer must be the dual of a.
func ComposesToEnd(a, peer *Session) bool {
	return EqualAlpha(peer, Dual(a))
}
