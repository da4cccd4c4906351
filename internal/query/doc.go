// Package query defines the parsed form of a JDQL statement: typed values,
// conditions and the select/delete/update (and key-value get/del/put) ASTs.
//
// VALUE MODEL:
//
// Value is a sealed interface. Each variant reports a fixed ValueType so
// translators can dispatch without reflection:
//
//	StringValue    'text'          STRING
//	NumberValue    42, 9.99        NUMBER (int64 or float64, subtype kept)
//	BooleanValue   TRUE, FALSE     BOOLEAN (two instances only)
//	EnumValue      Genre.ACTION    ENUM (resolved by a converter)
//	FunctionValue  UPPER(name)     FUNCTION
//	PathValue      address.city    PATH (never bound)
//	ParamValue     :name, ?1       PARAMETER (never carries a value)
//	ArrayValue     (1, 2, 3)       ARRAY
//	NullValue      NULL            NULL
//	ConditionValue children        CONDITION (AND/OR/NOT)
//
// CONDITIONS:
//
// A Condition is {Name, Operator, Value}. AND and OR nest a flattened list of
// conditions under the synthetic names _AND and _OR; NOT wraps exactly one.
//
// LIFECYCLE:
//
// ASTs are built once per distinct query text by the jdql parser, cached for
// the lifetime of their provider and never mutated afterwards. They are safe
// to share between goroutines.
package query
