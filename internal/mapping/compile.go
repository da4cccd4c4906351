package mapping

import (
	"fmt"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// EntityMapping maps the names used in queries to storage names.
type EntityMapping struct {
	// Entity is the name used in queries.
	Entity string
	// Name is the storage name; empty means Entity.
	Name string
	// Fields maps query field names to storage field names.
	Fields map[string]string
}

// StorageName returns the name the entity is stored under.
func (m EntityMapping) StorageName() string {
	if m.Name == "" {
		return m.Entity
	}
	return m.Name
}

// EnumType is a named set of constants.
type EnumType struct {
	Name      string
	Constants []EnumConstant
}

// CompileEntity parses a CUE value into an EntityMapping.
//
// The value should be the entity struct itself, e.g.:
//
//	v := ctx.CompileString(`entity: Person: { name: "people" }`)
//	m, err := CompileEntity(v.LookupPath(cue.ParsePath("entity.Person")))
func CompileEntity(v cue.Value) (*EntityMapping, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	m := &EntityMapping{
		Entity: lastLabel(v),
		Fields: make(map[string]string),
	}

	if nameVal := v.LookupPath(cue.ParsePath("name")); nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if name == "" {
			return nil, &CompileError{Field: "name", Message: "storage name must not be empty", Pos: nameVal.Pos()}
		}
		m.Name = name
	}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return m, nil
	}
	iter, err := fieldsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		column, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   "fields." + iter.Label(),
				Message: "storage field must be a string",
				Pos:     iter.Value().Pos(),
			}
		}
		m.Fields[iter.Label()] = column
	}
	return m, nil
}

// CompileEnum parses a CUE list of constant names or a struct of
// constant: value pairs into an EnumType.
func CompileEnum(v cue.Value) (*EnumType, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	e := &EnumType{Name: lastLabel(v)}

	switch v.IncompleteKind() {
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			name, err := iter.Value().String()
			if err != nil {
				return nil, &CompileError{Field: "enum." + e.Name, Message: "constants must be strings", Pos: iter.Value().Pos()}
			}
			e.Constants = append(e.Constants, EnumConstant{
				Type:    e.Name,
				Name:    name,
				Ordinal: len(e.Constants),
				Value:   name,
			})
		}

	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			value, err := scalar(iter.Value())
			if err != nil {
				return nil, err
			}
			e.Constants = append(e.Constants, EnumConstant{
				Type:    e.Name,
				Name:    iter.Label(),
				Ordinal: len(e.Constants),
				Value:   value,
			})
		}

	default:
		return nil, &CompileError{
			Field:   "enum." + e.Name,
			Message: fmt.Sprintf("expected list or struct, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}

	if len(e.Constants) == 0 {
		return nil, &CompileError{Field: "enum." + e.Name, Message: "at least one constant is required", Pos: v.Pos()}
	}
	return e, nil
}

// scalar decodes an enum value. Floats are refused because stored values
// are compared exactly.
func scalar(v cue.Value) (any, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return s, nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return n, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return b, nil
	default:
		return nil, &CompileError{
			Field:   "type",
			Message: fmt.Sprintf("unsupported enum value kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

func lastLabel(v cue.Value) string {
	labels := v.Path().Selectors()
	if len(labels) == 0 {
		return ""
	}
	return labels[len(labels)-1].String()
}

// sortedKeys returns the keys of m in lexical order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
