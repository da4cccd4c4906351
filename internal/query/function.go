package query

import (
	"fmt"
	"strings"
)

// FunctionName identifies a builtin scalar function.
type FunctionName string

const (
	FuncAbs    FunctionName = "ABS"
	FuncLength FunctionName = "LENGTH"
	FuncLower  FunctionName = "LOWER"
	FuncUpper  FunctionName = "UPPER"
	FuncLeft   FunctionName = "LEFT"
	FuncRight  FunctionName = "RIGHT"
)

// functionArity is the closed set of builtins and their argument counts.
var functionArity = map[FunctionName]int{
	FuncAbs:    1,
	FuncLength: 1,
	FuncLower:  1,
	FuncUpper:  1,
	FuncLeft:   2,
	FuncRight:  2,
}

// LookupFunction returns the builtin for name (case-insensitive).
func LookupFunction(name string) (FunctionName, bool) {
	fn := FunctionName(strings.ToUpper(name))
	_, ok := functionArity[fn]
	return fn, ok
}

// Arity returns the number of arguments the builtin takes.
func (n FunctionName) Arity() int {
	return functionArity[n]
}

// Function is a builtin call with its ordered arguments. Arguments may be
// nested FunctionValues.
type Function struct {
	Name   FunctionName
	Params []Value
}

// NewFunctionCall validates name and arity and builds the call.
func NewFunctionCall(name string, params ...Value) (*Function, error) {
	fn, ok := LookupFunction(name)
	if !ok {
		return nil, &Error{
			Code:    ErrCodeUnknownFunction,
			Message: fmt.Sprintf("unknown function %q", name),
			Field:   name,
		}
	}
	if len(params) != fn.Arity() {
		return nil, &Error{
			Code:    ErrCodeUnsupported,
			Message: fmt.Sprintf("function %s takes %d argument(s), got %d", fn, fn.Arity(), len(params)),
			Field:   string(fn),
		}
	}
	return &Function{Name: fn, Params: params}, nil
}

// Equal reports structural equality of two calls.
func (f *Function) Equal(other *Function) bool {
	if f == nil || other == nil {
		return f == other
	}
	if f.Name != other.Name || len(f.Params) != len(other.Params) {
		return false
	}
	for i := range f.Params {
		if !Equal(f.Params[i], other.Params[i]) {
			return false
		}
	}
	return true
}

func (f *Function) String() string {
	if f == nil {
		return "<nil>"
	}
	args := make([]string, len(f.Params))
	for i, p := range f.Params {
		args[i] = p.String()
	}
	return string(f.Name) + "(" + strings.Join(args, ", ") + ")"
}
