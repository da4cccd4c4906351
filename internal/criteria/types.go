package criteria

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/query"
)

// Condition is a filter over entities.
//
// This is a sealed interface - only types in this package implement it, so
// backends can switch over it exhaustively:
//
//	switch c := cond.(type) {
//	case Compare:
//	case In:
//	case Between:
//	case And, Or, Not:
//	}
type Condition interface {
	fmt.Stringer
	conditionNode() // Marker method - seals interface to this package
}

// Operand is the right-hand side of a leaf condition.
//
// Sealed like Condition. A Param is a back-reference into the Params table
// of the statement that produced the criteria.
type Operand interface {
	fmt.Stringer
	operandNode()
}

// CompareOp is a binary comparison.
type CompareOp int

const (
	OpEquals CompareOp = iota
	OpGreaterThan
	OpGreaterEquals
	OpLesserThan
	OpLesserEquals
	OpLike
)

var compareSymbols = [...]string{
	OpEquals:        "=",
	OpGreaterThan:   ">",
	OpGreaterEquals: ">=",
	OpLesserThan:    "<",
	OpLesserEquals:  "<=",
	OpLike:          "LIKE",
}

func (o CompareOp) String() string {
	if o < 0 || int(o) >= len(compareSymbols) {
		return fmt.Sprintf("CompareOp(%d)", int(o))
	}
	return compareSymbols[o]
}

// Compare is <field> <op> <value>.
type Compare struct {
	Field string
	Op    CompareOp
	Value Operand
}

func (Compare) conditionNode() {}

func (c Compare) String() string {
	return fmt.Sprintf("%s %s %s", c.Field, c.Op, c.Value)
}

// In is <field> IN <values>. Values is a List, or a Param bound to a list.
type In struct {
	Field  string
	Values Operand
}

func (In) conditionNode() {}

func (c In) String() string {
	return fmt.Sprintf("%s IN %s", c.Field, c.Values)
}

// Between is <field> BETWEEN <low> AND <high>, bounds inclusive.
type Between struct {
	Field string
	Low   Operand
	High  Operand
}

func (Between) conditionNode() {}

func (c Between) String() string {
	return fmt.Sprintf("%s BETWEEN %s AND %s", c.Field, c.Low, c.High)
}

// And is true when every condition is true (empty = always true).
type And struct {
	Conditions []Condition
}

func (And) conditionNode() {}

func (c And) String() string {
	return joinConditions(c.Conditions, " AND ")
}

// Or is true when any condition is true.
type Or struct {
	Conditions []Condition
}

func (Or) conditionNode() {}

func (c Or) String() string {
	return joinConditions(c.Conditions, " OR ")
}

// Not negates one condition.
type Not struct {
	Condition Condition
}

func (Not) conditionNode() {}

func (c Not) String() string {
	return "NOT (" + c.Condition.String() + ")"
}

func joinConditions(conds []Condition, sep string) string {
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// Literal is a concrete value: string, int64, float64, bool, nil, or an enum
// constant's string form.
type Literal struct {
	Value any
}

func (Literal) operandNode() {}

func (l Literal) String() string {
	return FormatValue(l.Value)
}

// Param is a placeholder resolved from Params at execution time.
type Param struct {
	Name string
}

func (Param) operandNode() {}

func (p Param) String() string {
	return query.NewParam(p.Name).String()
}

// Field references another field of the same entity.
type Field struct {
	Name string
}

func (Field) operandNode() {}

func (f Field) String() string { return f.Name }

// Call applies a builtin function to its arguments.
type Call struct {
	Function query.FunctionName
	Args     []Operand
}

func (Call) operandNode() {}

func (c Call) String() string {
	return string(c.Function) + joinOperands(c.Args)
}

// List is an ordered list of operands (IN).
type List struct {
	Items []Operand
}

func (List) operandNode() {}

func (l List) String() string {
	return joinOperands(l.Items)
}

func joinOperands(ops []Operand) string {
	parts := make([]string, len(ops))
	for i, o := range ops {
		parts[i] = o.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// FormatValue renders a literal for display.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return strconv.Quote(val)
	case float64:
		return query.NewFloat(val).String()
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = FormatValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(val)
	}
}
