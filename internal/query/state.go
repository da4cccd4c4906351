package query

import "fmt"

// StatementState is the lifecycle of a prepared statement.
//
//	CREATED → BOUND → EXECUTED → RESULT
//
// BOUND is reached once every referenced parameter has a value. EXECUTED is
// set when the storage call is issued and RESULT once its rows are
// materialized. Both are terminal for binding.
type StatementState int

const (
	StateCreated StatementState = iota
	StateBound
	StateExecuted
	StateResult
)

var stateNames = [...]string{
	StateCreated:  "CREATED",
	StateBound:    "BOUND",
	StateExecuted: "EXECUTED",
	StateResult:   "RESULT",
}

func (s StatementState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("StatementState(%d)", int(s))
	}
	return stateNames[s]
}

// Executed reports whether the statement has issued its storage call.
func (s StatementState) Executed() bool {
	return s >= StateExecuted
}

// NewStatementStateError reports an operation the current state forbids.
func NewStatementStateError(state StatementState, op string) *Error {
	return &Error{
		Code:    ErrCodeStatementState,
		Message: fmt.Sprintf("cannot %s a statement in state %s", op, state),
	}
}

// IsStatementState returns true if an operation was refused by the
// statement's state.
func IsStatementState(err error) bool {
	return CodeOf(err) == ErrCodeStatementState
}
