package query

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ValueType is the discriminant carried by every Value.
// Downstream code dispatches on it instead of type switches where convenient.
type ValueType int

const (
	TypeCondition ValueType = iota
	TypeNumber
	TypeString
	TypeParameter
	TypeArray
	TypeFunction
	TypeEnum
	TypeBoolean
	TypeNull
	TypePath
)

var valueTypeNames = [...]string{
	TypeCondition: "CONDITION",
	TypeNumber:    "NUMBER",
	TypeString:    "STRING",
	TypeParameter: "PARAMETER",
	TypeArray:     "ARRAY",
	TypeFunction:  "FUNCTION",
	TypeEnum:      "ENUM",
	TypeBoolean:   "BOOLEAN",
	TypeNull:      "NULL",
	TypePath:      "PATH",
}

func (t ValueType) String() string {
	if t < 0 || int(t) >= len(valueTypeNames) {
		return fmt.Sprintf("ValueType(%d)", int(t))
	}
	return valueTypeNames[t]
}

// Value is a sealed interface over the operands a query can carry.
// Only the types in this file implement it.
//
// Values are immutable once constructed. Use Equal for structural comparison;
// ArrayValue and ConditionValue are slices and cannot be compared with ==.
type Value interface {
	Type() ValueType
	Get() any
	String() string
	queryValue() // Sealed
}

// StringValue is a string literal with its delimiters already removed.
type StringValue string

// NewString wraps text as a literal. The text is kept verbatim.
func NewString(text string) StringValue {
	return StringValue(text)
}

func (StringValue) Type() ValueType  { return TypeString }
func (v StringValue) Get() any       { return string(v) }
func (v StringValue) String() string { return strconv.Quote(string(v)) }
func (StringValue) queryValue()      {}

// NumberValue is a numeric literal. The underlying number is either int64 or
// float64 and keeps the subtype it was parsed with: 42 and 42.0 are different
// values.
type NumberValue struct {
	n any
}

// NewInt creates an integer NumberValue.
func NewInt(n int64) NumberValue {
	return NumberValue{n: n}
}

// NewFloat creates a floating point NumberValue.
func NewFloat(f float64) NumberValue {
	return NumberValue{n: f}
}

func (NumberValue) Type() ValueType { return TypeNumber }
func (v NumberValue) Get() any      { return v.n }
func (NumberValue) queryValue()     {}

// IsFloat reports whether the number was supplied as a floating point literal.
func (v NumberValue) IsFloat() bool {
	_, ok := v.n.(float64)
	return ok
}

// Int returns the integer value, or the truncated float.
func (v NumberValue) Int() int64 {
	switch n := v.n.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

// Float returns the number widened to float64.
func (v NumberValue) Float() float64 {
	switch n := v.n.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

func (v NumberValue) String() string {
	switch n := v.n.(type) {
	case int64:
		return strconv.FormatInt(n, 10)
	case float64:
		s := strconv.FormatFloat(n, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	}
	return "0"
}

// BooleanValue has exactly two instances, True and False.
type BooleanValue bool

const (
	True  BooleanValue = true
	False BooleanValue = false
)

// NewBoolean returns True or False.
func NewBoolean(b bool) BooleanValue {
	if b {
		return True
	}
	return False
}

func (BooleanValue) Type() ValueType { return TypeBoolean }
func (v BooleanValue) Get() any      { return bool(v) }
func (v BooleanValue) String() string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}
func (BooleanValue) queryValue() {}

// EnumValue holds a constant resolved by an enum converter.
type EnumValue struct {
	constant any
}

// NewEnum wraps an enum constant.
func NewEnum(constant any) EnumValue {
	return EnumValue{constant: constant}
}

func (EnumValue) Type() ValueType  { return TypeEnum }
func (v EnumValue) Get() any       { return v.constant }
func (v EnumValue) String() string { return fmt.Sprint(v.constant) }
func (EnumValue) queryValue()      {}

// FunctionValue wraps a builtin function call.
type FunctionValue struct {
	fn *Function
}

// NewFunction wraps fn. A nil function is rejected.
func NewFunction(fn *Function) (FunctionValue, error) {
	if fn == nil {
		return FunctionValue{}, NewNilArgumentError("function")
	}
	return FunctionValue{fn: fn}, nil
}

func (FunctionValue) Type() ValueType       { return TypeFunction }
func (v FunctionValue) Get() any            { return v.fn }
func (v FunctionValue) Function() *Function { return v.fn }
func (v FunctionValue) String() string      { return v.fn.String() }
func (FunctionValue) queryValue()           {}

// PathValue is a dotted reference to a field. It never carries a literal and
// is never bound.
type PathValue string

// NewPath wraps a field path.
func NewPath(path string) PathValue {
	return PathValue(path)
}

func (PathValue) Type() ValueType  { return TypePath }
func (v PathValue) Get() any       { return string(v) }
func (v PathValue) String() string { return string(v) }
func (PathValue) queryValue()      {}

// ParamValue is a parameter placeholder. Name is the binding key: "name" for
// :name and @name, "?1" for positional parameters.
type ParamValue struct {
	Name string
}

// NewParam creates a placeholder for the given key.
func NewParam(name string) ParamValue {
	return ParamValue{Name: name}
}

func (ParamValue) Type() ValueType { return TypeParameter }
func (v ParamValue) Get() any      { return v.Name }
func (v ParamValue) String() string {
	if strings.HasPrefix(v.Name, "?") {
		return v.Name
	}
	return ":" + v.Name
}
func (ParamValue) queryValue() {}

// ArrayValue is an ordered list of values (IN lists, BETWEEN bounds).
type ArrayValue []Value

// NewArray creates an ArrayValue.
func NewArray(values ...Value) ArrayValue {
	return ArrayValue(values)
}

func (ArrayValue) Type() ValueType { return TypeArray }
func (v ArrayValue) Get() any      { return []Value(v) }
func (v ArrayValue) String() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
func (ArrayValue) queryValue() {}

// NullValue is the NULL literal.
type NullValue struct{}

func (NullValue) Type() ValueType { return TypeNull }
func (NullValue) Get() any        { return nil }
func (NullValue) String() string  { return "NULL" }
func (NullValue) queryValue()     {}

// ConditionValue carries the children of an AND, OR or NOT condition.
type ConditionValue []Condition

func (ConditionValue) Type() ValueType { return TypeCondition }
func (v ConditionValue) Get() any      { return []Condition(v) }
func (v ConditionValue) String() string {
	parts := make([]string, len(v))
	for i, c := range v {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}
func (ConditionValue) queryValue() {}

// Equal reports structural equality. Values of different types are never
// equal, so a PathValue never equals a StringValue with the same text.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Type() != b.Type() {
		return false
	}
	switch av := a.(type) {
	case ArrayValue:
		bv := b.(ArrayValue)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case ConditionValue:
		bv := b.(ConditionValue)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !av[i].Equal(bv[i]) {
				return false
			}
		}
		return true
	case FunctionValue:
		return av.fn.Equal(b.(FunctionValue).fn)
	case EnumValue:
		return reflect.DeepEqual(av.constant, b.(EnumValue).constant)
	default:
		return a == b
	}
}
