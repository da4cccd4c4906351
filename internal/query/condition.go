package query

import "fmt"

// Operator is the closed set of condition operators.
type Operator int

const (
	Equals Operator = iota
	GreaterThan
	GreaterEqualsThan
	LesserThan
	LesserEqualsThan
	Like
	In
	Between
	And
	Or
	Not
)

var operatorNames = [...]string{
	Equals:            "EQUALS",
	GreaterThan:       "GREATER_THAN",
	GreaterEqualsThan: "GREATER_EQUALS_THAN",
	LesserThan:        "LESSER_THAN",
	LesserEqualsThan:  "LESSER_EQUALS_THAN",
	Like:              "LIKE",
	In:                "IN",
	Between:           "BETWEEN",
	And:               "AND",
	Or:                "OR",
	Not:               "NOT",
}

func (o Operator) String() string {
	if o < 0 || int(o) >= len(operatorNames) {
		return fmt.Sprintf("Operator(%d)", int(o))
	}
	return operatorNames[o]
}

// IsCompound reports whether the operator nests other conditions.
func (o Operator) IsCompound() bool {
	return o == And || o == Or || o == Not
}

// Synthetic names used by compound conditions.
const (
	AndName = "_AND"
	OrName  = "_OR"
	NotName = "_NOT"
)

// Condition is a single predicate {name, operator, value}. Compound
// conditions carry their children in a ConditionValue.
type Condition struct {
	Name     string
	Operator Operator
	Value    Value
}

// NewCondition builds a leaf predicate.
func NewCondition(name string, op Operator, value Value) Condition {
	return Condition{Name: name, Operator: op, Value: value}
}

// NewAnd conjoins conditions. Nested ANDs are flattened.
func NewAnd(conditions ...Condition) Condition {
	return Condition{Name: AndName, Operator: And, Value: flatten(And, conditions)}
}

// NewOr disjoins conditions. Nested ORs are flattened.
func NewOr(conditions ...Condition) Condition {
	return Condition{Name: OrName, Operator: Or, Value: flatten(Or, conditions)}
}

// NewNot negates exactly one condition.
func NewNot(c Condition) Condition {
	return Condition{Name: NotName, Operator: Not, Value: ConditionValue{c}}
}

func flatten(op Operator, conditions []Condition) ConditionValue {
	out := make(ConditionValue, 0, len(conditions))
	for _, c := range conditions {
		if c.Operator == op {
			out = append(out, c.Children()...)
			continue
		}
		out = append(out, c)
	}
	return out
}

// Children returns the nested conditions of a compound condition.
func (c Condition) Children() []Condition {
	if cv, ok := c.Value.(ConditionValue); ok {
		return []Condition(cv)
	}
	return nil
}

// Equal reports structural equality.
func (c Condition) Equal(other Condition) bool {
	return c.Name == other.Name && c.Operator == other.Operator && Equal(c.Value, other.Value)
}

func (c Condition) String() string {
	switch c.Operator {
	case And, Or:
		return fmt.Sprintf("%s(%s)", c.Operator, c.Value)
	case Not:
		return fmt.Sprintf("NOT(%s)", c.Value)
	default:
		return fmt.Sprintf("%s %s %s", c.Name, c.Operator, c.Value)
	}
}
