package manager

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/criteria"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/query"
)

// Evaluator tests criteria against entities in process.
//
// Fold evaluates criteria.Call operands over field values; without it a
// Call is an error.
type Evaluator struct {
	Fold criteria.Folder
}

// Match reports whether e satisfies c. A nil condition matches everything.
func (ev Evaluator) Match(c criteria.Condition, e Entity) (bool, error) {
	if c == nil {
		return true, nil
	}

	switch c := c.(type) {
	case criteria.Compare:
		left, _ := e.Get(c.Field)
		right, err := ev.Value(c.Value, e)
		if err != nil {
			return false, err
		}
		return compareOp(c.Op, left, right)

	case criteria.In:
		left, _ := e.Get(c.Field)
		list, err := ev.Value(c.Values, e)
		if err != nil {
			return false, err
		}
		items, ok := list.([]any)
		if !ok {
			return false, query.NewInvalidValueError(c.Field, "IN requires a list value")
		}
		for _, item := range items {
			if equalValues(left, item) {
				return true, nil
			}
		}
		return false, nil

	case criteria.Between:
		left, _ := e.Get(c.Field)
		low, err := ev.Value(c.Low, e)
		if err != nil {
			return false, err
		}
		high, err := ev.Value(c.High, e)
		if err != nil {
			return false, err
		}
		lo, ok := compareValues(left, low)
		if !ok || lo < 0 {
			return false, nil
		}
		hi, ok := compareValues(left, high)
		return ok && hi <= 0, nil

	case criteria.And:
		for _, child := range c.Conditions {
			ok, err := ev.Match(child, e)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil

	case criteria.Or:
		for _, child := range c.Conditions {
			ok, err := ev.Match(child, e)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil

	case criteria.Not:
		ok, err := ev.Match(c.Condition, e)
		return !ok, err

	default:
		return false, fmt.Errorf("unsupported condition type: %T", c)
	}
}

// Value evaluates an operand in the context of e.
func (ev Evaluator) Value(o criteria.Operand, e Entity) (any, error) {
	switch o := o.(type) {
	case criteria.Literal:
		return o.Value, nil

	case criteria.Field:
		v, _ := e.Get(o.Name)
		return v, nil

	case criteria.List:
		out := make([]any, len(o.Items))
		for i, item := range o.Items {
			v, err := ev.Value(item, e)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case criteria.Call:
		if ev.Fold == nil {
			return nil, fmt.Errorf("no function evaluator for %s", o.Function)
		}
		args := make([]any, len(o.Args))
		for i, a := range o.Args {
			v, err := ev.Value(a, e)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return ev.Fold(o.Function, args)

	case criteria.Param:
		return nil, query.NewMissingParameterError(o.Name)

	default:
		return nil, fmt.Errorf("unsupported operand type: %T", o)
	}
}

func compareOp(op criteria.CompareOp, left, right any) (bool, error) {
	switch op {
	case criteria.OpEquals:
		return equalValues(left, right), nil
	case criteria.OpLike:
		s, ok := left.(string)
		if !ok {
			return false, nil
		}
		pattern, ok := right.(string)
		if !ok {
			return false, query.NewInvalidValueError("", "LIKE requires a string pattern")
		}
		re, err := likePattern(pattern)
		if err != nil {
			return false, err
		}
		return re.MatchString(s), nil
	}

	cmp, ok := compareValues(left, right)
	if !ok {
		return false, nil
	}
	switch op {
	case criteria.OpGreaterThan:
		return cmp > 0, nil
	case criteria.OpGreaterEquals:
		return cmp >= 0, nil
	case criteria.OpLesserThan:
		return cmp < 0, nil
	case criteria.OpLesserEquals:
		return cmp <= 0, nil
	default:
		return false, fmt.Errorf("unsupported operator: %s", op)
	}
}

// equalValues treats nil as equal only to nil and widens numbers.
func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if cmp, ok := compareValues(a, b); ok {
		return cmp == 0
	}
	return false
}

// compareValues orders two values of the same family. Numbers compare across
// int64 and float64. ok is false for nil or mismatched families.
func compareValues(a, b any) (int, bool) {
	a, b = criteria.Normalize(a), criteria.Normalize(b)

	if af, aNum := toFloat(a); aNum {
		bf, bNum := toFloat(b)
		if !bNum {
			return 0, false
		}
		if ai, ok := a.(int64); ok {
			if bi, ok := b.(int64); ok {
				return cmpOrdered(ai, bi), true
			}
		}
		return cmpOrdered(af, bf), true
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		default:
			return 1, true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// likePattern converts a LIKE pattern (% any run, _ one rune) to a regexp.
func likePattern(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("(?s)^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// sortKey compares two entities by one field; nil sorts first.
func sortKey(a, b Entity, field string) int {
	av, _ := a.Get(field)
	bv, _ := b.Get(field)
	switch {
	case av == nil && bv == nil:
		return 0
	case av == nil:
		return -1
	case bv == nil:
		return 1
	}
	cmp, ok := compareValues(av, bv)
	if !ok {
		return strings.Compare(fmt.Sprint(av), fmt.Sprint(bv))
	}
	return cmp
}
