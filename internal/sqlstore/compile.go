package sqlstore

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/criteria"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/query"
)

// Compiler compiles resolved criteria to parameterized SQL over the
// documents table.
//
// CRITICAL: Every select ends with the deterministic tiebreaker
// id ASC COLLATE BINARY after the declared sorts.
// CRITICAL: All values and JSON paths are parameterized, never interpolated.
type Compiler struct {
	// Fold evaluates calls whose arguments are all literals. Optional.
	Fold criteria.Folder
}

// NewCompiler creates a new Compiler.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// CompileSelect converts a select to SQL returning (id, body) rows.
func (c *Compiler) CompileSelect(q criteria.Select) (string, []any, error) {
	where, params, err := c.compileWhere(q.Entity, q.Where)
	if err != nil {
		return "", nil, err
	}

	var order []string
	for _, s := range q.Sorts {
		dir := "ASC"
		if s.Direction == criteria.Desc {
			dir = "DESC"
		}
		order = append(order, "json_extract(body, ?) "+dir)
		params = append(params, jsonPath(s.Field))
	}
	order = append(order, c.stableOrderKey())

	sql := fmt.Sprintf("SELECT id, body FROM documents WHERE %s ORDER BY %s",
		where, strings.Join(order, ", "))

	switch {
	case q.Limit > 0:
		sql += " LIMIT ? OFFSET ?"
		params = append(params, q.Limit, q.Skip)
	case q.Skip > 0:
		// SQLite requires LIMIT before OFFSET; -1 means no limit
		sql += " LIMIT -1 OFFSET ?"
		params = append(params, q.Skip)
	}

	return sql, params, nil
}

// CompileCount converts a select to a COUNT(*) query. Sorts, skip and limit
// do not apply.
func (c *Compiler) CompileCount(q criteria.Select) (string, []any, error) {
	where, params, err := c.compileWhere(q.Entity, q.Where)
	if err != nil {
		return "", nil, err
	}
	return "SELECT COUNT(*) FROM documents WHERE " + where, params, nil
}

// CompileDelete removes matching rows, or only the given fields from their
// bodies.
func (c *Compiler) CompileDelete(q criteria.Delete) (string, []any, error) {
	where, whereParams, err := c.compileWhere(q.Entity, q.Where)
	if err != nil {
		return "", nil, err
	}
	if len(q.Fields) == 0 {
		return "DELETE FROM documents WHERE " + where, whereParams, nil
	}

	placeholders := make([]string, len(q.Fields))
	params := make([]any, 0, len(q.Fields)+len(whereParams))
	for i, f := range q.Fields {
		placeholders[i] = "?"
		params = append(params, jsonPath(f))
	}
	params = append(params, whereParams...)
	sql := fmt.Sprintf("UPDATE documents SET body = json_remove(body, %s) WHERE %s",
		strings.Join(placeholders, ", "), where)
	return sql, params, nil
}

// CompileUpdate sets fields inside matching bodies with one json_set call,
// so every value is computed from the row as it was before the update.
func (c *Compiler) CompileUpdate(q criteria.Update) (string, []any, error) {
	if len(q.Set) == 0 {
		return "", nil, query.NewInvalidValueError(q.Entity, "update has no assignments")
	}

	var parts []string
	var params []any
	for _, a := range q.Set {
		expr, exprParams, err := c.compileSetValue(a.Value)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "?, "+expr)
		params = append(params, jsonPath(a.Field))
		params = append(params, exprParams...)
	}

	where, whereParams, err := c.compileWhere(q.Entity, q.Where)
	if err != nil {
		return "", nil, err
	}
	params = append(params, whereParams...)

	sql := fmt.Sprintf("UPDATE documents SET body = json_set(body, %s) WHERE %s",
		strings.Join(parts, ", "), where)
	return sql, params, nil
}

// stableOrderKey returns the mandatory tiebreaker.
// COLLATE BINARY ensures deterministic text ordering across SQLite versions.
func (c *Compiler) stableOrderKey() string {
	return "id ASC COLLATE BINARY"
}

// compileWhere scopes the condition to one entity type.
func (c *Compiler) compileWhere(entity string, cond criteria.Condition) (string, []any, error) {
	if entity == "" {
		return "", nil, query.NewNilArgumentError("entity")
	}
	if cond == nil {
		return "entity = ?", []any{entity}, nil
	}
	sql, params, err := c.compileCondition(cond)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}
	return "entity = ? AND " + sql, append([]any{entity}, params...), nil
}

// compileCondition compiles a condition to a parenthesized SQL fragment.
func (c *Compiler) compileCondition(cond criteria.Condition) (string, []any, error) {
	switch cond := cond.(type) {
	case criteria.Compare:
		return c.compileCompare(cond)
	case criteria.In:
		return c.compileIn(cond)
	case criteria.Between:
		return c.compileBetween(cond)
	case criteria.And:
		return c.compileJunction(cond.Conditions, " AND ", "1 = 1")
	case criteria.Or:
		return c.compileJunction(cond.Conditions, " OR ", "0 = 1")
	case criteria.Not:
		sql, params, err := c.compileCondition(cond.Condition)
		if err != nil {
			return "", nil, err
		}
		// NULL comparisons are unknown in SQL; coalesce so NOT stays two-valued
		return "NOT COALESCE(" + sql + ", 0)", params, nil
	default:
		return "", nil, fmt.Errorf("unsupported condition type: %T", cond)
	}
}

func (c *Compiler) compileCompare(cmp criteria.Compare) (string, []any, error) {
	field := "json_extract(body, ?)"
	params := []any{jsonPath(cmp.Field)}

	if lit, ok := cmp.Value.(criteria.Literal); ok && lit.Value == nil {
		if cmp.Op != criteria.OpEquals {
			return "(0 = 1)", nil, nil
		}
		return "(" + field + " IS NULL)", params, nil
	}

	if cmp.Op == criteria.OpLike {
		lit, ok := cmp.Value.(criteria.Literal)
		pattern, isString := lit.Value.(string)
		if !ok || !isString {
			return "", nil, query.NewInvalidValueError(cmp.Field, "LIKE requires a string pattern")
		}
		// GLOB is case-sensitive, matching the in-memory evaluator
		return "(" + field + " GLOB ?)", append(params, likeToGlob(pattern)), nil
	}

	value, valueParams, err := c.compileOperand(cmp.Value)
	if err != nil {
		return "", nil, err
	}
	op := map[criteria.CompareOp]string{
		criteria.OpEquals:        "=",
		criteria.OpGreaterThan:   ">",
		criteria.OpGreaterEquals: ">=",
		criteria.OpLesserThan:    "<",
		criteria.OpLesserEquals:  "<=",
	}[cmp.Op]
	if op == "" {
		return "", nil, fmt.Errorf("unsupported operator: %s", cmp.Op)
	}
	return fmt.Sprintf("(%s %s %s)", field, op, value), append(params, valueParams...), nil
}

func (c *Compiler) compileIn(in criteria.In) (string, []any, error) {
	list, ok := in.Values.(criteria.List)
	if !ok {
		return "", nil, query.NewInvalidValueError(in.Field, "IN requires a list value")
	}
	if len(list.Items) == 0 {
		return "(0 = 1)", nil, nil
	}

	params := []any{jsonPath(in.Field)}
	placeholders := make([]string, len(list.Items))
	for i, item := range list.Items {
		sql, itemParams, err := c.compileOperand(item)
		if err != nil {
			return "", nil, err
		}
		placeholders[i] = sql
		params = append(params, itemParams...)
	}
	return fmt.Sprintf("(json_extract(body, ?) IN (%s))", strings.Join(placeholders, ", ")), params, nil
}

func (c *Compiler) compileBetween(b criteria.Between) (string, []any, error) {
	low, lowParams, err := c.compileOperand(b.Low)
	if err != nil {
		return "", nil, err
	}
	high, highParams, err := c.compileOperand(b.High)
	if err != nil {
		return "", nil, err
	}
	params := append([]any{jsonPath(b.Field)}, lowParams...)
	params = append(params, highParams...)
	return fmt.Sprintf("(json_extract(body, ?) BETWEEN %s AND %s)", low, high), params, nil
}

func (c *Compiler) compileJunction(conds []criteria.Condition, sep, empty string) (string, []any, error) {
	if len(conds) == 0 {
		return "(" + empty + ")", nil, nil
	}
	var parts []string
	var params []any
	for _, cond := range conds {
		sql, p, err := c.compileCondition(cond)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, p...)
	}
	return "(" + strings.Join(parts, sep) + ")", params, nil
}

// compileOperand compiles a value expression.
// CRITICAL: Literals are NEVER interpolated - always parameterized.
func (c *Compiler) compileOperand(o criteria.Operand) (string, []any, error) {
	switch o := o.(type) {
	case criteria.Literal:
		return "?", []any{sqlValue(o.Value)}, nil

	case criteria.Field:
		return "json_extract(body, ?)", []any{jsonPath(o.Name)}, nil

	case criteria.Param:
		return "", nil, query.NewMissingParameterError(o.Name)

	case criteria.Call:
		return c.compileCall(o)

	case criteria.List:
		return "", nil, query.NewInvalidValueError("", "list used as a scalar")

	default:
		return "", nil, fmt.Errorf("unsupported operand type: %T", o)
	}
}

func (c *Compiler) compileCall(call criteria.Call) (string, []any, error) {
	if c.Fold != nil && allLiteral(call.Args) {
		values := make([]any, len(call.Args))
		for i, a := range call.Args {
			values[i] = a.(criteria.Literal).Value
		}
		v, err := c.Fold(call.Function, values)
		if err != nil {
			return "", nil, err
		}
		return "?", []any{sqlValue(v)}, nil
	}

	args := make([]string, len(call.Args))
	var params []any
	for i, a := range call.Args {
		sql, p, err := c.compileOperand(a)
		if err != nil {
			return "", nil, err
		}
		args[i] = sql
		params = append(params, p...)
	}

	switch call.Function {
	case query.FuncAbs, query.FuncLength, query.FuncLower, query.FuncUpper:
		return fmt.Sprintf("%s(%s)", call.Function, args[0]), params, nil
	case query.FuncLeft:
		return fmt.Sprintf("substr(%s, 1, %s)", args[0], args[1]), params, nil
	case query.FuncRight:
		// substr with a negative start counts from the end
		return fmt.Sprintf("substr(%s, -(%s))", args[0], args[1]), params, nil
	default:
		return "", nil, &query.Error{
			Code:    query.ErrCodeUnknownFunction,
			Message: fmt.Sprintf("no SQL form for function %s", call.Function),
			Field:   string(call.Function),
		}
	}
}

// compileSetValue compiles an assignment value for json_set. Literals are
// bound as JSON text so booleans and nulls keep their JSON type.
func (c *Compiler) compileSetValue(o criteria.Operand) (string, []any, error) {
	lit, ok := o.(criteria.Literal)
	if !ok {
		return c.compileOperand(o)
	}
	raw, err := json.Marshal(lit.Value)
	if err != nil {
		return "", nil, fmt.Errorf("encode value: %w", err)
	}
	return "json(?)", []any{string(raw)}, nil
}

func allLiteral(ops []criteria.Operand) bool {
	for _, o := range ops {
		if _, ok := o.(criteria.Literal); !ok {
			return false
		}
	}
	return true
}

// jsonPath converts a dotted field path to a SQLite JSON path.
// Example: "address.city" → "$.address.city"
func jsonPath(field string) string {
	parts := strings.Split(field, ".")
	for i, p := range parts {
		// Quote keys that are not plain identifiers
		if strings.ContainsAny(p, ` "[]$*`) {
			parts[i] = `"` + strings.ReplaceAll(p, `"`, `\"`) + `"`
		}
	}
	return "$." + strings.Join(parts, ".")
}

// sqlValue converts a literal to a driver value. json_extract yields 1/0 for
// JSON booleans, so booleans are bound as integers.
func sqlValue(v any) any {
	switch val := v.(type) {
	case bool:
		if val {
			return int64(1)
		}
		return int64(0)
	default:
		return criteria.Normalize(v)
	}
}

// likeToGlob converts a LIKE pattern (% and _) to a GLOB pattern, escaping
// GLOB metacharacters with bracket expressions.
func likeToGlob(pattern string) string {
	var b strings.Builder
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteByte('*')
		case '_':
			b.WriteByte('?')
		case '*', '?', '[':
			b.WriteByte('[')
			b.WriteRune(r)
			b.WriteByte(']')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
