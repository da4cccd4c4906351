package query

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes query errors.
type ErrorCode string

const (
	// ErrCodeUnsupported indicates syntax the parser does not accept.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED_SYNTAX"

	// ErrCodeUnknownFunction indicates a call to a function outside the builtin set.
	ErrCodeUnknownFunction ErrorCode = "UNKNOWN_FUNCTION"

	// ErrCodeParameterGuard indicates a parameterized query used outside a
	// prepared statement.
	ErrCodeParameterGuard ErrorCode = "PARAMETER_GUARD"

	// ErrCodeMissingParameter indicates a referenced parameter has no binding.
	ErrCodeMissingParameter ErrorCode = "MISSING_PARAMETER"

	// ErrCodeNonUniqueResult indicates a single result was expected but more
	// than one row was produced.
	ErrCodeNonUniqueResult ErrorCode = "NON_UNIQUE_RESULT"

	// ErrCodeNilArgument indicates a required argument was missing.
	ErrCodeNilArgument ErrorCode = "NIL_ARGUMENT"

	// ErrCodeInvalidValue indicates a value that does not fit its condition.
	ErrCodeInvalidValue ErrorCode = "INVALID_VALUE"

	// ErrCodeStatementState indicates an operation not allowed in the
	// statement's current state.
	ErrCodeStatementState ErrorCode = "STATEMENT_STATE"
)

// Error is the typed error surfaced by parsing, translation and execution.
//
// Query, Field and Param carry whatever context was available when the error
// was raised so callers can diagnose it without re-parsing.
type Error struct {
	Code    ErrorCode
	Message string

	// Query is the original query text, when known.
	Query string

	// Field is the field, function or source fragment involved.
	Field string

	// Param is the parameter key involved.
	Param string
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Param != "" {
		msg += fmt.Sprintf(" (param=%s)", e.Param)
	}
	if e.Query != "" {
		msg += fmt.Sprintf(" [query=%q]", e.Query)
	}
	return msg
}

// WithQuery returns a copy of e annotated with the query text.
func (e *Error) WithQuery(text string) *Error {
	cp := *e
	if cp.Query == "" {
		cp.Query = text
	}
	return &cp
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Code
	}
	return ""
}

// IsUnsupported returns true for parse failures, unknown functions included.
func IsUnsupported(err error) bool {
	code := CodeOf(err)
	return code == ErrCodeUnsupported || code == ErrCodeUnknownFunction
}

// IsParameterGuard returns true if a parameterized query was run directly.
func IsParameterGuard(err error) bool {
	return CodeOf(err) == ErrCodeParameterGuard
}

// IsMissingParameter returns true if a parameter lacked a binding.
func IsMissingParameter(err error) bool {
	return CodeOf(err) == ErrCodeMissingParameter
}

// IsNonUniqueResult returns true if a single result was ambiguous.
func IsNonUniqueResult(err error) bool {
	return CodeOf(err) == ErrCodeNonUniqueResult
}

// IsNilArgument returns true if a required argument was missing.
func IsNilArgument(err error) bool {
	return CodeOf(err) == ErrCodeNilArgument
}

// IsInvalidValue returns true if a value did not fit its condition.
func IsInvalidValue(err error) bool {
	return CodeOf(err) == ErrCodeInvalidValue
}

// NewUnsupportedError reports text the parser cannot handle.
func NewUnsupportedError(fragment, message string) *Error {
	return &Error{
		Code:    ErrCodeUnsupported,
		Message: fmt.Sprintf("%s: %q", message, fragment),
		Field:   fragment,
	}
}

// NewNilArgumentError reports a missing required argument.
func NewNilArgumentError(arg string) *Error {
	return &Error{
		Code:    ErrCodeNilArgument,
		Message: fmt.Sprintf("%s is required", arg),
		Field:   arg,
	}
}

// NewParameterGuardError reports a parameterized query outside prepared mode.
func NewParameterGuardError(text string, params []string) *Error {
	return &Error{
		Code:    ErrCodeParameterGuard,
		Message: fmt.Sprintf("query has parameters %v; use a prepared statement to bind them", params),
		Query:   text,
	}
}

// NewMissingParameterError reports a parameter with no binding.
func NewMissingParameterError(name string) *Error {
	return &Error{
		Code:    ErrCodeMissingParameter,
		Message: "parameter is not bound",
		Param:   name,
	}
}

// NewInvalidValueError reports a value that does not fit its condition.
func NewInvalidValueError(field, message string) *Error {
	return &Error{
		Code:    ErrCodeInvalidValue,
		Message: fmt.Sprintf("%s: %s", field, message),
		Field:   field,
	}
}

// NewNonUniqueResultError reports an ambiguous single result.
func NewNonUniqueResultError(rows int) *Error {
	return &Error{
		Code:    ErrCodeNonUniqueResult,
		Message: fmt.Sprintf("expected at most one result, got %d", rows),
	}
}
