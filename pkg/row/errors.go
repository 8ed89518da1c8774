// Copyright 2025 Certen Protocol

package row

import (
	"fmt"

	"github.com/causality-labs/causality/pkg/types"
)

// Error is the typed error taxonomy every row operation returns on
// failure, matching spec §4.5's RowOpResult error variants.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("row: %s: %s", e.Kind, e.Message) }

type ErrorKind uint8

const (
	ErrMissingField ErrorKind = iota
	ErrDuplicateField
	ErrTypeMismatch
	ErrLocationMismatch
	ErrAccessDenied
)

func (k ErrorKind) String() string {
	switch k {
	case ErrMissingField:
		return "MissingField"
	case ErrDuplicateField:
		return "DuplicateField"
	case ErrTypeMismatch:
		return "TypeMismatch"
	case ErrLocationMismatch:
		return "LocationMismatch"
	case ErrAccessDenied:
		return "AccessDenied"
	default:
		return "Unknown"
	}
}

func missingField(name string) error {
	return &Error{Kind: ErrMissingField, Message: "field " + name}
}

func duplicateField(name string) error {
	return &Error{Kind: ErrDuplicateField, Message: "field " + name}
}

func typeMismatch(name string, have, want *types.Type) error {
	return &Error{Kind: ErrTypeMismatch, Message: fmt.Sprintf("field %s: %v vs %v", name, have, want)}
}

func locationMismatch(name, have, want string) error {
	return &Error{Kind: ErrLocationMismatch, Message: fmt.Sprintf("field %s at %s, queried at %s", name, have, want)}
}

func accessDenied(name string, access fmt.Stringer) error {
	return &Error{Kind: ErrAccessDenied, Message: fmt.Sprintf("field %s does not permit %s", name, access)}
}
