package keyvalue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/criteria"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/jdql"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/query"
)

// Executor runs key-value statements against a bucket.
type Executor struct {
	provider *jdql.KeyValueProvider
	bucket   BucketManager
	fold     criteria.Folder
	logger   *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithFolder evaluates builtin calls used as keys or values.
func WithFolder(fold criteria.Folder) Option {
	return func(e *Executor) {
		e.fold = fold
	}
}

// NewExecutor creates an executor. The provider owns the statement cache.
func NewExecutor(bucket BucketManager, provider *jdql.KeyValueProvider, opts ...Option) *Executor {
	e := &Executor{
		provider: provider,
		bucket:   bucket,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs a statement without parameters.
func (e *Executor) Execute(ctx context.Context, text string) ([]Value, error) {
	stmt, err := e.provider.Apply(text)
	if err != nil {
		return nil, err
	}
	if params := stmt.Params(); len(params) > 0 {
		return nil, query.NewParameterGuardError(text, params)
	}
	return e.run(ctx, stmt, nil)
}

// Prepare parses text and returns a statement awaiting its parameters.
func (e *Executor) Prepare(text string) (*Statement, error) {
	stmt, err := e.provider.Apply(text)
	if err != nil {
		return nil, err
	}
	params := criteria.NewParams()
	for _, name := range stmt.Params() {
		params.Add(name)
	}
	s := &Statement{
		exec:   e,
		text:   text,
		stmt:   stmt,
		params: params,
		state:  query.StateCreated,
	}
	s.refreshState()
	return s, nil
}

func (e *Executor) run(ctx context.Context, stmt *jdql.KeyValueStatement, params *criteria.Params) ([]Value, error) {
	switch {
	case stmt.Get != nil:
		values := []Value{}
		for _, k := range stmt.Get.Keys {
			key, err := e.resolve(k, params)
			if err != nil {
				return nil, err
			}
			v, found, err := e.bucket.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			e.logger.Debug("kv get", "key", key, "found", found)
			if found {
				values = append(values, v)
			}
		}
		return values, nil

	case stmt.Del != nil:
		for _, k := range stmt.Del.Keys {
			key, err := e.resolve(k, params)
			if err != nil {
				return nil, err
			}
			if err := e.bucket.Delete(ctx, key); err != nil {
				return nil, err
			}
			e.logger.Debug("kv del", "key", key)
		}
		return []Value{}, nil

	case stmt.Put != nil:
		key, err := e.resolve(stmt.Put.Key, params)
		if err != nil {
			return nil, err
		}
		value, err := e.resolve(stmt.Put.Value, params)
		if err != nil {
			return nil, err
		}
		if err := e.bucket.Put(ctx, key, value, stmt.Put.TTL); err != nil {
			return nil, err
		}
		e.logger.Debug("kv put", "key", key, "ttl", stmt.Put.TTL)
		return []Value{}, nil

	default:
		return nil, fmt.Errorf("empty key-value statement")
	}
}

// resolve turns a parsed key or value into a Go value.
// Bare identifiers are their own text.
func (e *Executor) resolve(v query.Value, params *criteria.Params) (any, error) {
	switch val := v.(type) {
	case query.StringValue, query.NumberValue, query.BooleanValue, query.NullValue:
		return criteria.Normalize(val.Get()), nil

	case query.PathValue:
		return string(val), nil

	case query.EnumValue:
		return val.String(), nil

	case query.ParamValue:
		if params == nil {
			return nil, query.NewMissingParameterError(val.Name)
		}
		bound, ok := params.Value(val.Name)
		if !ok {
			return nil, query.NewMissingParameterError(val.Name)
		}
		return bound, nil

	case query.ArrayValue:
		out := make([]any, len(val))
		for i, item := range val {
			r, err := e.resolve(item, params)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil

	case query.FunctionValue:
		if e.fold == nil {
			return nil, query.NewInvalidValueError(val.String(), "functions are not supported here")
		}
		fn := val.Function()
		args := make([]any, len(fn.Params))
		for i, p := range fn.Params {
			r, err := e.resolve(p, params)
			if err != nil {
				return nil, err
			}
			args[i] = r
		}
		return e.fold(fn.Name, args)

	default:
		return nil, query.NewInvalidValueError(v.String(), "unsupported key-value operand")
	}
}

// Statement is a prepared key-value statement.
//
// Lifecycle: CREATED → BOUND → EXECUTED → RESULT. Result may be called again
// and replays the statement against the bucket with the same bindings.
type Statement struct {
	mu     sync.Mutex
	exec   *Executor
	text   string
	stmt   *jdql.KeyValueStatement
	params *criteria.Params
	state  query.StatementState
}

// Params returns the parameter names in first-reference order.
func (s *Statement) Params() []string {
	return s.params.Names()
}

// State returns the current lifecycle state.
func (s *Statement) State() query.StatementState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Bind sets a parameter value. Binding after execution is refused.
func (s *Statement) Bind(name string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Executed() {
		return query.NewStatementStateError(s.state, "bind").WithQuery(s.text)
	}
	if err := s.params.Bind(name, value); err != nil {
		return err
	}
	s.refreshState()
	return nil
}

// Result executes the statement. GET returns the found values in key order;
// DEL and PUT return no values.
func (s *Statement) Result(ctx context.Context) ([]Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if missing := s.params.Unbound(); len(missing) > 0 {
		return nil, query.NewMissingParameterError(missing[0]).WithQuery(s.text)
	}
	s.state = query.StateExecuted
	values, err := s.exec.run(ctx, s.stmt, s.params)
	if err != nil {
		return nil, err
	}
	s.state = query.StateResult
	return values, nil
}

// SingleResult executes the statement and returns at most one value.
func (s *Statement) SingleResult(ctx context.Context) (Value, bool, error) {
	values, err := s.Result(ctx)
	if err != nil {
		return Value{}, false, err
	}
	switch len(values) {
	case 0:
		return Value{}, false, nil
	case 1:
		return values[0], true, nil
	default:
		return Value{}, false, query.NewNonUniqueResultError(len(values)).WithQuery(s.text)
	}
}

// refreshState moves CREATED to BOUND once nothing is unbound.
// Caller holds s.mu (or owns s exclusively).
func (s *Statement) refreshState() {
	if s.state == query.StateCreated && len(s.params.Unbound()) == 0 {
		s.state = query.StateBound
	}
}
