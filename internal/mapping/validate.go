package mapping

import (
	"fmt"
	"regexp"
)

// Validation error codes.
const (
	ErrInvalidName      = "E201" // name is not an identifier
	ErrDuplicateColumn  = "E202" // two fields map to one storage field
	ErrDuplicateStorage = "E203" // two entities map to one storage name
	ErrDuplicateConst   = "E204" // constant declared twice in an enum
)

var (
	identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	pathPattern  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)
)

// ValidationError is a rule violation found in a compiled registry.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a registry. Returns all errors found (does not fail-fast),
// in a deterministic order.
func Validate(r *Registry) []ValidationError {
	var errs []ValidationError

	storage := make(map[string]string)
	for _, name := range r.Entities() {
		m := r.entities[name]
		if !identPattern.MatchString(name) {
			errs = append(errs, ValidationError{Field: "entity." + name, Code: ErrInvalidName, Message: "entity name must be an identifier"})
		}
		if !identPattern.MatchString(m.StorageName()) {
			errs = append(errs, ValidationError{Field: "entity." + name + ".name", Code: ErrInvalidName, Message: fmt.Sprintf("storage name %q must be an identifier", m.StorageName())})
		}
		if other, dup := storage[m.StorageName()]; dup {
			errs = append(errs, ValidationError{Field: "entity." + name + ".name", Code: ErrDuplicateStorage, Message: fmt.Sprintf("storage name %q already used by %s", m.StorageName(), other)})
		} else {
			storage[m.StorageName()] = name
		}

		columns := make(map[string]string)
		for _, field := range sortedKeys(m.Fields) {
			column := m.Fields[field]
			path := "entity." + name + ".fields." + field
			if !pathPattern.MatchString(field) || !pathPattern.MatchString(column) {
				errs = append(errs, ValidationError{Field: path, Code: ErrInvalidName, Message: "field names must be identifiers or dotted paths"})
			}
			if other, dup := columns[column]; dup {
				errs = append(errs, ValidationError{Field: path, Code: ErrDuplicateColumn, Message: fmt.Sprintf("storage field %q already used by %s", column, other)})
			} else {
				columns[column] = field
			}
		}
	}

	for _, name := range r.Enums() {
		e := r.enums[name]
		if !identPattern.MatchString(name) {
			errs = append(errs, ValidationError{Field: "enum." + name, Code: ErrInvalidName, Message: "enum name must be an identifier"})
		}
		seen := make(map[string]bool)
		for _, c := range e.Constants {
			path := "enum." + name + "." + c.Name
			if !identPattern.MatchString(c.Name) {
				errs = append(errs, ValidationError{Field: path, Code: ErrInvalidName, Message: "constant must be an identifier"})
			}
			if seen[c.Name] {
				errs = append(errs, ValidationError{Field: path, Code: ErrDuplicateConst, Message: "constant declared twice"})
			}
			seen[c.Name] = true
		}
	}
	return errs
}
