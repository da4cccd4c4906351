package criteria

import (
	"fmt"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/query"
)

// Folder evaluates a builtin over literal arguments.
type Folder func(fn query.FunctionName, args []any) (any, error)

// Resolve returns a copy of c with every Param replaced by its bound
// Literal. Calls whose arguments become literal are folded when fold is
// non-nil. The input tree is never modified.
func Resolve(c Condition, params *Params, fold Folder) (Condition, error) {
	r := resolver{params: params, fold: fold}
	return r.condition(c)
}

// ResolveOperand is Resolve for a single operand.
func ResolveOperand(o Operand, params *Params, fold Folder) (Operand, error) {
	r := resolver{params: params, fold: fold}
	return r.operand(o)
}

// Resolve binds the where clause of s.
func (s Select) Resolve(params *Params, fold Folder) (Select, error) {
	where, err := resolveWhere(s.Where, params, fold)
	if err != nil {
		return Select{}, err
	}
	s.Where = where
	return s, nil
}

// Resolve binds the where clause of d.
func (d Delete) Resolve(params *Params, fold Folder) (Delete, error) {
	where, err := resolveWhere(d.Where, params, fold)
	if err != nil {
		return Delete{}, err
	}
	d.Where = where
	return d, nil
}

// Resolve binds the SET values and the where clause of u.
func (u Update) Resolve(params *Params, fold Folder) (Update, error) {
	r := resolver{params: params, fold: fold}
	set := make([]Assignment, len(u.Set))
	for i, a := range u.Set {
		v, err := r.operand(a.Value)
		if err != nil {
			return Update{}, err
		}
		set[i] = Assignment{Field: a.Field, Value: v}
	}
	where, err := resolveWhere(u.Where, params, fold)
	if err != nil {
		return Update{}, err
	}
	u.Set = set
	u.Where = where
	return u, nil
}

func resolveWhere(c Condition, params *Params, fold Folder) (Condition, error) {
	if c == nil {
		return nil, nil
	}
	return Resolve(c, params, fold)
}

type resolver struct {
	params *Params
	fold   Folder
}

func (r resolver) condition(c Condition) (Condition, error) {
	switch c := c.(type) {
	case Compare:
		v, err := r.operand(c.Value)
		if err != nil {
			return nil, err
		}
		if err := requireScalar(c.Field, v); err != nil {
			return nil, err
		}
		if c.Op == OpLike {
			if lit, ok := v.(Literal); ok {
				if _, isString := lit.Value.(string); !isString {
					return nil, query.NewInvalidValueError(c.Field, "LIKE requires a string pattern")
				}
			}
		}
		return Compare{Field: c.Field, Op: c.Op, Value: v}, nil

	case In:
		v, err := r.operand(c.Values)
		if err != nil {
			return nil, err
		}
		list, err := asList(c.Field, v)
		if err != nil {
			return nil, err
		}
		return In{Field: c.Field, Values: list}, nil

	case Between:
		low, err := r.operand(c.Low)
		if err != nil {
			return nil, err
		}
		high, err := r.operand(c.High)
		if err != nil {
			return nil, err
		}
		if err := requireScalar(c.Field, low); err != nil {
			return nil, err
		}
		if err := requireScalar(c.Field, high); err != nil {
			return nil, err
		}
		return Between{Field: c.Field, Low: low, High: high}, nil

	case And:
		children, err := r.conditions(c.Conditions)
		if err != nil {
			return nil, err
		}
		return And{Conditions: children}, nil

	case Or:
		children, err := r.conditions(c.Conditions)
		if err != nil {
			return nil, err
		}
		return Or{Conditions: children}, nil

	case Not:
		inner, err := r.condition(c.Condition)
		if err != nil {
			return nil, err
		}
		return Not{Condition: inner}, nil

	default:
		return nil, fmt.Errorf("unknown condition type: %T", c)
	}
}

func (r resolver) conditions(in []Condition) ([]Condition, error) {
	out := make([]Condition, len(in))
	for i, c := range in {
		resolved, err := r.condition(c)
		if err != nil {
			return nil, err
		}
		out[i] = resolved
	}
	return out, nil
}

func (r resolver) operand(o Operand) (Operand, error) {
	switch o := o.(type) {
	case Literal, Field:
		return o, nil

	case Param:
		if r.params == nil {
			return nil, query.NewMissingParameterError(o.Name)
		}
		v, ok := r.params.Value(o.Name)
		if !ok {
			return nil, query.NewMissingParameterError(o.Name)
		}
		return Literal{Value: v}, nil

	case List:
		items := make([]Operand, len(o.Items))
		for i, item := range o.Items {
			v, err := r.operand(item)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return List{Items: items}, nil

	case Call:
		args := make([]Operand, len(o.Args))
		literal := true
		for i, a := range o.Args {
			v, err := r.operand(a)
			if err != nil {
				return nil, err
			}
			if _, ok := v.(Literal); !ok {
				literal = false
			}
			args[i] = v
		}
		if !literal || r.fold == nil {
			return Call{Function: o.Function, Args: args}, nil
		}
		values := make([]any, len(args))
		for i, a := range args {
			values[i] = a.(Literal).Value
		}
		folded, err := r.fold(o.Function, values)
		if err != nil {
			return nil, err
		}
		return Literal{Value: folded}, nil

	default:
		return nil, fmt.Errorf("unknown operand type: %T", o)
	}
}

// requireScalar rejects a list bound where a single value is compared.
func requireScalar(field string, o Operand) error {
	if lit, ok := o.(Literal); ok {
		if _, isList := lit.Value.([]any); isList {
			return query.NewInvalidValueError(field, "a list value is only valid with IN")
		}
	}
	return nil
}

// asList converts a resolved IN operand into a List.
func asList(field string, o Operand) (List, error) {
	switch v := o.(type) {
	case List:
		return v, nil
	case Literal:
		values, ok := v.Value.([]any)
		if !ok {
			return List{}, query.NewInvalidValueError(field, "IN requires a list value")
		}
		items := make([]Operand, len(values))
		for i, e := range values {
			items[i] = Literal{Value: e}
		}
		return List{Items: items}, nil
	default:
		return List{}, query.NewInvalidValueError(field, "IN requires a list value")
	}
}

// HasParams reports whether any operand under c is a Param.
func HasParams(c Condition) bool {
	found := false
	Walk(c, func(o Operand) {
		if _, ok := o.(Param); ok {
			found = true
		}
	})
	return found
}

// Walk calls fn for every operand under c, depth first, including the
// arguments of calls and the items of lists.
func Walk(c Condition, fn func(Operand)) {
	switch c := c.(type) {
	case Compare:
		walkOperand(c.Value, fn)
	case In:
		walkOperand(c.Values, fn)
	case Between:
		walkOperand(c.Low, fn)
		walkOperand(c.High, fn)
	case And:
		for _, child := range c.Conditions {
			Walk(child, fn)
		}
	case Or:
		for _, child := range c.Conditions {
			Walk(child, fn)
		}
	case Not:
		Walk(c.Condition, fn)
	}
}

func walkOperand(o Operand, fn func(Operand)) {
	fn(o)
	switch o := o.(type) {
	case Call:
		for _, a := range o.Args {
			walkOperand(a, fn)
		}
	case List:
		for _, item := range o.Items {
			walkOperand(item, fn)
		}
	}
}
