// Copyright 2025 Certen Protocol
//
// Row operations (C5): project, restrict, extend, merge, diff, contains,
// field_names, fields_at_location, split_by_location. All are
// compile-time pure — no I/O, no mutation of the input row — returning
// either a new row/type or a typed row.Error.
// Grounded on crates/causality-core/src/effect/row.rs.

package row

import (
	"sort"

	"github.com/causality-labs/causality/pkg/types"
)

// Project returns the field type named by name.
func Project(r *types.Row, name string) (types.FieldType, error) {
	f, ok := r.Get(name)
	if !ok {
		return types.FieldType{}, missingField(name)
	}
	return f, nil
}

// ProjectWithAccess returns the field type named by name, requiring it
// to permit access.
func ProjectWithAccess(r *types.Row, name string, access types.Access) (types.FieldType, error) {
	f, ok := r.Get(name)
	if !ok {
		return types.FieldType{}, missingField(name)
	}
	if !allowsAccess(f, access) {
		return types.FieldType{}, accessDenied(name, access)
	}
	return f, nil
}

// ProjectFromLocation returns the field type named by name, requiring
// it to be addressable from loc (either unconstrained, pinned to loc,
// or PerLocation with an entry for loc).
func ProjectFromLocation(r *types.Row, name string, loc types.Location) (types.FieldType, error) {
	f, ok := r.Get(name)
	if !ok {
		return types.FieldType{}, missingField(name)
	}
	if f.Location != nil && !f.Location.Equal(loc) {
		return types.FieldType{}, locationMismatch(name, f.Location.String(), loc.String())
	}
	if f.Access == types.AccessPerLocation {
		if _, ok := f.PerLocation[loc.String()]; !ok {
			return types.FieldType{}, locationMismatch(name, "none", loc.String())
		}
	}
	return f, nil
}

func allowsAccess(f types.FieldType, want types.Access) bool {
	if f.Access == types.AccessPerLocation {
		for _, a := range f.PerLocation {
			if a == want || (want == types.AccessRO && a == types.AccessRW) || (want == types.AccessWO && a == types.AccessRW) {
				return true
			}
		}
		return false
	}
	if f.Access == want {
		return true
	}
	// RW subsumes RO and WO.
	if f.Access == types.AccessRW && (want == types.AccessRO || want == types.AccessWO) {
		return true
	}
	return false
}

// Restrict returns a new row with field name removed.
func Restrict(r *types.Row, name string) (*types.Row, error) {
	if !r.Has(name) {
		return nil, missingField(name)
	}
	fields := make([]types.RowField, 0, len(r.Fields)-1)
	for _, f := range r.Fields {
		if f.Name != name {
			fields = append(fields, f)
		}
	}
	return types.NewRow(fields)
}

// Extend returns a new row with an additional field. Fails if the name
// already exists.
func Extend(r *types.Row, name string, field types.FieldType) (*types.Row, error) {
	if r.Has(name) {
		return nil, duplicateField(name)
	}
	fields := append(append([]types.RowField(nil), r.Fields...), types.RowField{Name: name, Field: field})
	return types.NewRow(fields)
}

// Merge combines two disjoint rows into one. An overlapping field name
// whose type disagrees between a and b is a TypeMismatch (the fields
// cannot be reconciled); an overlapping field name whose type agrees is
// still rejected as a DuplicateField (use Diff first to check, or
// Restrict to resolve) since Merge never collapses two occurrences of
// the same field into one.
func Merge(a, b *types.Row) (*types.Row, error) {
	fields := append([]types.RowField(nil), a.Fields...)
	for _, f := range b.Fields {
		if existing, ok := a.Get(f.Name); ok {
			if !types.Equal(existing.Type, f.Field.Type) {
				return nil, typeMismatch(f.Name, existing.Type, f.Field.Type)
			}
			return nil, duplicateField(f.Name)
		}
		fields = append(fields, f)
	}
	return types.NewRow(fields)
}

// Diff returns the fields of a that are not present in b.
func Diff(a, b *types.Row) (*types.Row, error) {
	fields := make([]types.RowField, 0, len(a.Fields))
	for _, f := range a.Fields {
		if !b.Has(f.Name) {
			fields = append(fields, f)
		}
	}
	return types.NewRow(fields)
}

// Contains reports whether every field of other also appears in r with
// an identical FieldType.
func Contains(r, other *types.Row) bool {
	for _, f := range other.Fields {
		mine, ok := r.Get(f.Name)
		if !ok {
			return false
		}
		if mine.Access != f.Field.Access || !types.Equal(mine.Type, f.Field.Type) {
			return false
		}
		if (mine.Location == nil) != (f.Field.Location == nil) ||
			(mine.Location != nil && !mine.Location.Equal(*f.Field.Location)) {
			return false
		}
		if len(mine.PerLocation) != len(f.Field.PerLocation) {
			return false
		}
		for loc, a := range mine.PerLocation {
			if b, ok := f.Field.PerLocation[loc]; !ok || a != b {
				return false
			}
		}
	}
	return true
}

// FieldNames returns field names in row order.
func FieldNames(r *types.Row) []string { return r.Names() }

// FieldsAtLocation returns the subset of fields addressable at loc.
func FieldsAtLocation(r *types.Row, loc types.Location) []types.RowField {
	out := make([]types.RowField, 0, len(r.Fields))
	for _, f := range r.Fields {
		if f.Field.Location == nil {
			out = append(out, f)
			continue
		}
		if f.Field.Location.Equal(loc) {
			out = append(out, f)
		}
	}
	return out
}

// SplitByLocation partitions r's fields by their pinned location.
// Fields with no location annotation are grouped under Location{Any}.
func SplitByLocation(r *types.Row) map[string]*types.Row {
	byLoc := make(map[string][]types.RowField)
	for _, f := range r.Fields {
		loc := types.NewAny()
		if f.Field.Location != nil {
			loc = *f.Field.Location
		}
		key := loc.String()
		byLoc[key] = append(byLoc[key], f)
	}
	out := make(map[string]*types.Row, len(byLoc))
	keys := make([]string, 0, len(byLoc))
	for k := range byLoc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		r, err := types.NewRow(byLoc[k])
		if err == nil {
			out[k] = r
		}
	}
	return out
}
