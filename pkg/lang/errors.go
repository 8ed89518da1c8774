// Copyright 2025 Certen Protocol

package lang

import "fmt"

// TypeError reports a typing-rule failure during Infer.
type TypeError struct {
	Term    Kind
	Message string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("lang: type error in %s: %s", e.Term, e.Message)
}

func typeErrf(k Kind, format string, args ...interface{}) error {
	return &TypeError{Term: k, Message: fmt.Sprintf(format, args...)}
}

// LoweringError reports a failure to compile a well-typed term to an
// L0 instruction sequence: a linearity violation, a session primitive
// used against a non-session type, or `at` used with a location the
// current capability set does not cover.
type LoweringError struct {
	Term    Kind
	Message string
}

func (e *LoweringError) Error() string {
	return fmt.Sprintf("lang: lowering error in %s: %s", e.Term, e.Message)
}

func lowerErrf(k Kind, format string, args ...interface{}) error {
	return &LoweringError{Term: k, Message: fmt.Sprintf(format, args...)}
}
