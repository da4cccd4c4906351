package translate

import (
	"fmt"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/criteria"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/query"
)

// leafBuilder turns a resolved field and operand into a criteria leaf.
type leafBuilder func(field string, value criteria.Operand) (criteria.Condition, error)

// Translator converts query ASTs into criteria.
//
// Two modes:
//   - Direct (Select, Delete, Update): literal criteria only. An AST with any
//     parameter fails with a PARAMETER_GUARD error.
//   - Prepared (PrepareSelect, ...): parameters become criteria.Param operands
//     registered in a fresh Params table returned with the criteria.
//
// A Translator holds only its strategy tables and is safe for concurrent use.
type Translator struct {
	operators map[query.Operator]leafBuilder
	functions map[query.FunctionName]FoldFunc
}

// Option configures a Translator.
type Option func(*Translator)

// WithFunction replaces the evaluator of one builtin.
func WithFunction(name query.FunctionName, fn FoldFunc) Option {
	return func(t *Translator) {
		t.functions[name] = fn
	}
}

// New creates a Translator with the default operator and function tables.
func New(opts ...Option) *Translator {
	t := &Translator{
		operators: map[query.Operator]leafBuilder{
			query.Equals:            compare(criteria.OpEquals),
			query.GreaterThan:       compare(criteria.OpGreaterThan),
			query.GreaterEqualsThan: compare(criteria.OpGreaterEquals),
			query.LesserThan:        compare(criteria.OpLesserThan),
			query.LesserEqualsThan:  compare(criteria.OpLesserEquals),
			query.Like:              buildLike,
			query.In:                buildIn,
			query.Between:           buildBetween,
		},
		functions: DefaultFunctions(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Fold evaluates fn over literal arguments. It satisfies criteria.Folder so
// calls over parameters can be folded once the parameters are bound.
func (t *Translator) Fold(fn query.FunctionName, args []any) (any, error) {
	eval, ok := t.functions[fn]
	if !ok {
		return nil, &query.Error{
			Code:    query.ErrCodeUnknownFunction,
			Message: fmt.Sprintf("no evaluator for function %s", fn),
			Field:   string(fn),
		}
	}
	if len(args) != fn.Arity() {
		return nil, query.NewInvalidValueError(string(fn), fmt.Sprintf("expected %d arguments, got %d", fn.Arity(), len(args)))
	}
	return eval(args)
}

// Select translates q in direct mode.
func (t *Translator) Select(q *query.SelectQuery, obs Observer) (criteria.Select, error) {
	if q == nil {
		return criteria.Select{}, query.NewNilArgumentError("query")
	}
	if params := q.Params(); len(params) > 0 {
		return criteria.Select{}, query.NewParameterGuardError("", params)
	}
	return t.newBuilder(q.Entity, obs, nil).selectQuery(q)
}

// PrepareSelect translates q keeping parameters as placeholders.
func (t *Translator) PrepareSelect(q *query.SelectQuery, obs Observer) (criteria.Select, *criteria.Params, error) {
	if q == nil {
		return criteria.Select{}, nil, query.NewNilArgumentError("query")
	}
	params := criteria.NewParams()
	sel, err := t.newBuilder(q.Entity, obs, params).selectQuery(q)
	if err != nil {
		return criteria.Select{}, nil, err
	}
	return sel, params, nil
}

// Delete translates q in direct mode.
func (t *Translator) Delete(q *query.DeleteQuery, obs Observer) (criteria.Delete, error) {
	if q == nil {
		return criteria.Delete{}, query.NewNilArgumentError("query")
	}
	if params := q.Params(); len(params) > 0 {
		return criteria.Delete{}, query.NewParameterGuardError("", params)
	}
	return t.newBuilder(q.Entity, obs, nil).deleteQuery(q)
}

// PrepareDelete translates q keeping parameters as placeholders.
func (t *Translator) PrepareDelete(q *query.DeleteQuery, obs Observer) (criteria.Delete, *criteria.Params, error) {
	if q == nil {
		return criteria.Delete{}, nil, query.NewNilArgumentError("query")
	}
	params := criteria.NewParams()
	del, err := t.newBuilder(q.Entity, obs, params).deleteQuery(q)
	if err != nil {
		return criteria.Delete{}, nil, err
	}
	return del, params, nil
}

// Update translates q in direct mode.
func (t *Translator) Update(q *query.UpdateQuery, obs Observer) (criteria.Update, error) {
	if q == nil {
		return criteria.Update{}, query.NewNilArgumentError("query")
	}
	if params := q.Params(); len(params) > 0 {
		return criteria.Update{}, query.NewParameterGuardError("", params)
	}
	return t.newBuilder(q.Entity, obs, nil).updateQuery(q)
}

// PrepareUpdate translates q keeping parameters as placeholders.
func (t *Translator) PrepareUpdate(q *query.UpdateQuery, obs Observer) (criteria.Update, *criteria.Params, error) {
	if q == nil {
		return criteria.Update{}, nil, query.NewNilArgumentError("query")
	}
	params := criteria.NewParams()
	upd, err := t.newBuilder(q.Entity, obs, params).updateQuery(q)
	if err != nil {
		return criteria.Update{}, nil, err
	}
	return upd, params, nil
}

// builder carries the per-call state of one translation.
type builder struct {
	t      *Translator
	obs    Observer
	entity string // resolved through the observer
	source string // as written in the query
	params *criteria.Params
}

func (t *Translator) newBuilder(entity string, obs Observer, params *criteria.Params) *builder {
	obs = orIdentity(obs)
	return &builder{
		t:      t,
		obs:    obs,
		entity: obs.FireEntity(entity),
		source: entity,
		params: params,
	}
}

func (b *builder) selectQuery(q *query.SelectQuery) (criteria.Select, error) {
	where, err := b.where(q.Where)
	if err != nil {
		return criteria.Select{}, err
	}

	var sorts []criteria.Sort
	for _, s := range q.Sorts {
		dir := criteria.Asc
		if !s.Ascending {
			dir = criteria.Desc
		}
		sorts = append(sorts, criteria.Sort{
			Field:     b.obs.FireSortProperty(b.source, s.Property),
			Direction: dir,
		})
	}

	return criteria.Select{
		Entity: b.entity,
		Fields: b.fields(q.Fields),
		Where:  where,
		Sorts:  sorts,
		Skip:   q.Skip,
		Limit:  q.Limit,
		Count:  q.Count,
	}, nil
}

func (b *builder) deleteQuery(q *query.DeleteQuery) (criteria.Delete, error) {
	where, err := b.where(q.Where)
	if err != nil {
		return criteria.Delete{}, err
	}
	return criteria.Delete{
		Entity: b.entity,
		Fields: b.fields(q.Fields),
		Where:  where,
	}, nil
}

func (b *builder) updateQuery(q *query.UpdateQuery) (criteria.Update, error) {
	set := make([]criteria.Assignment, 0, len(q.Set))
	for _, item := range q.Set {
		v, err := b.operand(item.Value)
		if err != nil {
			return criteria.Update{}, err
		}
		if _, ok := v.(criteria.List); ok {
			return criteria.Update{}, query.NewInvalidValueError(item.Name, "cannot assign a list")
		}
		set = append(set, criteria.Assignment{
			Field: b.field(item.Name),
			Value: v,
		})
	}

	where, err := b.where(q.Where)
	if err != nil {
		return criteria.Update{}, err
	}
	return criteria.Update{
		Entity: b.entity,
		Set:    set,
		Where:  where,
	}, nil
}

func (b *builder) field(name string) string {
	return b.obs.FireSelectField(b.source, name)
}

func (b *builder) fields(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = b.field(n)
	}
	return out
}

func (b *builder) where(c *query.Condition) (criteria.Condition, error) {
	if c == nil {
		return nil, nil
	}
	return b.condition(*c)
}

func (b *builder) condition(c query.Condition) (criteria.Condition, error) {
	switch c.Operator {
	case query.And, query.Or:
		children, err := b.children(c)
		if err != nil {
			return nil, err
		}
		if c.Operator == query.And {
			return criteria.And{Conditions: children}, nil
		}
		return criteria.Or{Conditions: children}, nil

	case query.Not:
		children, err := b.children(c)
		if err != nil {
			return nil, err
		}
		if len(children) != 1 {
			return nil, query.NewInvalidValueError(c.Name, fmt.Sprintf("NOT takes one condition, got %d", len(children)))
		}
		return criteria.Not{Condition: children[0]}, nil
	}

	build, ok := b.t.operators[c.Operator]
	if !ok {
		return nil, query.NewUnsupportedError(c.Operator.String(), "unsupported operator")
	}
	field := b.field(c.Name)
	v, err := b.operand(c.Value)
	if err != nil {
		return nil, err
	}
	return build(field, v)
}

func (b *builder) children(c query.Condition) ([]criteria.Condition, error) {
	nested, ok := c.Value.(query.ConditionValue)
	if !ok {
		return nil, query.NewInvalidValueError(c.Name, fmt.Sprintf("%s requires nested conditions", c.Operator))
	}
	out := make([]criteria.Condition, 0, len(nested))
	for _, child := range nested {
		cc, err := b.condition(child)
		if err != nil {
			return nil, err
		}
		out = append(out, cc)
	}
	return out, nil
}

func (b *builder) operand(v query.Value) (criteria.Operand, error) {
	switch val := v.(type) {
	case query.StringValue, query.NumberValue, query.BooleanValue, query.NullValue:
		return criteria.Literal{Value: criteria.Normalize(val.Get())}, nil

	case query.EnumValue:
		return criteria.Literal{Value: enumLiteral(val.Get())}, nil

	case query.PathValue:
		return criteria.Field{Name: b.field(string(val))}, nil

	case query.ParamValue:
		if b.params == nil {
			return nil, query.NewParameterGuardError("", []string{val.Name})
		}
		return b.params.Add(val.Name), nil

	case query.FunctionValue:
		return b.call(val.Function())

	case query.ArrayValue:
		items := make([]criteria.Operand, len(val))
		for i, item := range val {
			o, err := b.operand(item)
			if err != nil {
				return nil, err
			}
			items[i] = o
		}
		return criteria.List{Items: items}, nil

	case query.ConditionValue:
		return nil, query.NewInvalidValueError("", "condition used as a value")

	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}

// call folds fn when every argument is literal, otherwise keeps it for the
// backend (paths) or for bind time (parameters).
func (b *builder) call(fn *query.Function) (criteria.Operand, error) {
	args := make([]criteria.Operand, len(fn.Params))
	literal := true
	for i, p := range fn.Params {
		o, err := b.operand(p)
		if err != nil {
			return nil, err
		}
		if _, ok := o.(criteria.Literal); !ok {
			literal = false
		}
		args[i] = o
	}
	if !literal {
		return criteria.Call{Function: fn.Name, Args: args}, nil
	}

	values := make([]any, len(args))
	for i, a := range args {
		values[i] = a.(criteria.Literal).Value
	}
	folded, err := b.t.Fold(fn.Name, values)
	if err != nil {
		return nil, err
	}
	return criteria.Literal{Value: folded}, nil
}

// EnumValuer is implemented by enum constants that know the value stored
// for them in an entity.
type EnumValuer interface {
	EnumValue() any
}

func enumLiteral(constant any) any {
	switch c := constant.(type) {
	case EnumValuer:
		return criteria.Normalize(c.EnumValue())
	case fmt.Stringer:
		return c.String()
	default:
		return criteria.Normalize(c)
	}
}

func compare(op criteria.CompareOp) leafBuilder {
	return func(field string, value criteria.Operand) (criteria.Condition, error) {
		if _, ok := value.(criteria.List); ok {
			return nil, query.NewInvalidValueError(field, fmt.Sprintf("%s does not accept a list", op))
		}
		return criteria.Compare{Field: field, Op: op, Value: value}, nil
	}
}

func buildLike(field string, value criteria.Operand) (criteria.Condition, error) {
	switch v := value.(type) {
	case criteria.Literal:
		if _, ok := v.Value.(string); !ok {
			return nil, query.NewInvalidValueError(field, "LIKE requires a string pattern")
		}
	case criteria.List:
		return nil, query.NewInvalidValueError(field, "LIKE does not accept a list")
	}
	return criteria.Compare{Field: field, Op: criteria.OpLike, Value: value}, nil
}

func buildIn(field string, value criteria.Operand) (criteria.Condition, error) {
	switch value.(type) {
	case criteria.List, criteria.Param:
		return criteria.In{Field: field, Values: value}, nil
	default:
		return nil, query.NewInvalidValueError(field, "IN requires a list or a parameter")
	}
}

func buildBetween(field string, value criteria.Operand) (criteria.Condition, error) {
	list, ok := value.(criteria.List)
	if !ok || len(list.Items) != 2 {
		return nil, query.NewInvalidValueError(field, "BETWEEN requires two bounds")
	}
	return criteria.Between{Field: field, Low: list.Items[0], High: list.Items[1]}, nil
}
