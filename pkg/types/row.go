// Copyright 2025 Certen Protocol
//
// Row and field-access types. The operations over rows (project,
// restrict, merge, ...) live in pkg/row; this file only carries the
// data shape since Type.Row (TRecord) must reference it.

package types

// Access is the capability a field grants at a given location.
type Access uint8

const (
	AccessRO Access = iota
	AccessWO
	AccessRW
	AccessLinear
	AccessPerLocation
)

func (a Access) String() string {
	switch a {
	case AccessRO:
		return "RO"
	case AccessWO:
		return "WO"
	case AccessRW:
		return "RW"
	case AccessLinear:
		return "Linear"
	case AccessPerLocation:
		return "PerLocation"
	default:
		return "Invalid"
	}
}

// FieldType describes one row field: its type, an optional location,
// and its access mode. When Access is AccessPerLocation, PerLocation
// holds the access granted per location string (see Location.String);
// a LocationDependent field (PerLocation set) is only well-typed when
// queried together with a location via row.ProjectFromLocation.
type FieldType struct {
	Type        *Type
	Location    *Location
	Access      Access
	PerLocation map[string]Access
}

// AccessAt resolves this field's access at the given location, looking
// up PerLocation when Access == AccessPerLocation.
func (f FieldType) AccessAt(loc Location) (Access, bool) {
	if f.Access != AccessPerLocation {
		return f.Access, true
	}
	a, ok := f.PerLocation[loc.String()]
	return a, ok
}

// RowField is one (name, FieldType) entry of a Row, kept in insertion
// order.
type RowField struct {
	Name  string
	Field FieldType
}

// Row is an ordered map field->FieldType. Field names are unique
// within a Row; uniqueness is enforced by the constructors in
// pkg/row, not by this struct.
type Row struct {
	Fields []RowField
	index  map[string]int
}

// NewRow builds a Row from ordered fields. Returns an error if a field
// name repeats.
func NewRow(fields []RowField) (*Row, error) {
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		if _, dup := idx[f.Name]; dup {
			return nil, &DuplicateFieldError{Field: f.Name}
		}
		idx[f.Name] = i
	}
	return &Row{Fields: append([]RowField(nil), fields...), index: idx}, nil
}

// Get returns the field type for name, or ok=false if absent.
func (r *Row) Get(name string) (FieldType, bool) {
	i, ok := r.index[name]
	if !ok {
		return FieldType{}, false
	}
	return r.Fields[i].Field, true
}

// Has reports whether name is a field of r.
func (r *Row) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Names returns field names in row order.
func (r *Row) Names() []string {
	out := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		out[i] = f.Name
	}
	return out
}

// Equal compares two rows for structural equality: same fields, same
// order, same types/access/location.
func (r *Row) Equal(o *Row) bool {
	if r == nil || o == nil {
		return r == o
	}
	if len(r.Fields) != len(o.Fields) {
		return false
	}
	for i := range r.Fields {
		a, b := r.Fields[i], o.Fields[i]
		if a.Name != b.Name || a.Field.Access != b.Field.Access {
			return false
		}
		if !typesStructurallyEqual(a.Field.Type, b.Field.Type) {
			return false
		}
		if (a.Field.Location == nil) != (b.Field.Location == nil) ||
			(a.Field.Location != nil && !a.Field.Location.Equal(*b.Field.Location)) {
			return false
		}
	}
	return true
}

// DuplicateFieldError is returned when two row fields share a name.
type DuplicateFieldError struct{ Field string }

func (e *DuplicateFieldError) Error() string { return "types: duplicate field " + e.Field }

// MissingFieldError is returned when a named field is absent from a row.
type MissingFieldError struct{ Field string }

func (e *MissingFieldError) Error() string { return "types: missing field " + e.Field }
