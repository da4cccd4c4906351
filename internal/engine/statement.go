package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/criteria"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/manager"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/query"
)

// Kind is the dialect of a prepared statement.
type Kind string

const (
	KindSelect Kind = "SELECT"
	KindDelete Kind = "DELETE"
	KindUpdate Kind = "UPDATE"
)

// PreparedStatement is a translated query whose parameters are bound
// before execution.
//
// Thread-safety: all methods are safe for concurrent use; executions of the
// same statement are serialized.
type PreparedStatement struct {
	mu     sync.Mutex
	id     string
	engine *Engine
	text   string
	kind   Kind
	sel    criteria.Select
	del    criteria.Delete
	upd    criteria.Update
	params *criteria.Params

	state    query.StatementState
	affected int64
}

// ID returns the statement id.
func (s *PreparedStatement) ID() string { return s.id }

// Kind returns the statement dialect.
func (s *PreparedStatement) Kind() Kind { return s.kind }

// Query returns the source text.
func (s *PreparedStatement) Query() string { return s.text }

// Params returns the parameter names in first-reference order.
func (s *PreparedStatement) Params() []string { return s.params.Names() }

// Criteria returns the translated criteria with parameters unresolved.
func (s *PreparedStatement) Criteria() fmt.Stringer {
	switch s.kind {
	case KindDelete:
		return s.del
	case KindUpdate:
		return s.upd
	default:
		return s.sel
	}
}

// State returns the lifecycle state.
func (s *PreparedStatement) State() query.StatementState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Affected returns the entities touched by the last delete or update
// execution.
func (s *PreparedStatement) Affected() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.affected
}

// Bind sets or overwrites a parameter value. Unknown names fail with
// INVALID_VALUE; binding after execution fails with STATEMENT_STATE and
// leaves the bindings untouched.
func (s *PreparedStatement) Bind(name string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Executed() {
		return query.NewStatementStateError(s.state, "bind").WithQuery(s.text)
	}
	if err := s.params.Bind(name, value); err != nil {
		return withQuery(err, s.text)
	}
	s.refreshState()
	return nil
}

// Result executes the statement with the current bindings. Selects return
// the matching entities; deletes and updates return an empty slice and
// record the affected count. Calling Result again re-executes.
func (s *PreparedStatement) Result(ctx context.Context) ([]manager.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if missing := s.params.Unbound(); len(missing) > 0 {
		return nil, query.NewMissingParameterError(missing[0]).WithQuery(s.text)
	}

	fold := s.engine.translator.Fold
	var (
		sel criteria.Select
		del criteria.Delete
		upd criteria.Update
		err error
	)
	switch s.kind {
	case KindDelete:
		del, err = s.del.Resolve(s.params, fold)
	case KindUpdate:
		upd, err = s.upd.Resolve(s.params, fold)
	default:
		sel, err = s.sel.Resolve(s.params, fold)
	}
	if err != nil {
		return nil, withQuery(err, s.text)
	}

	seq := s.engine.clock.Next()
	s.state = query.StateExecuted

	var rows []manager.Entity
	switch s.kind {
	case KindDelete:
		s.affected, err = s.engine.runDelete(ctx, seq, s.id, del)
		rows = []manager.Entity{}
	case KindUpdate:
		s.affected, err = s.engine.runUpdate(ctx, seq, s.id, upd)
		rows = []manager.Entity{}
	default:
		rows, err = s.engine.runSelect(ctx, seq, s.id, sel)
	}
	if err != nil {
		return nil, err
	}
	s.state = query.StateResult
	return rows, nil
}

// SingleResult executes the statement and returns at most one entity.
// More than one match fails with NON_UNIQUE_RESULT.
func (s *PreparedStatement) SingleResult(ctx context.Context) (manager.Entity, bool, error) {
	rows, err := s.Result(ctx)
	if err != nil {
		return manager.Entity{}, false, err
	}
	switch len(rows) {
	case 0:
		return manager.Entity{}, false, nil
	case 1:
		return rows[0], true, nil
	default:
		return manager.Entity{}, false, query.NewNonUniqueResultError(len(rows)).WithQuery(s.text)
	}
}

// refreshState moves CREATED to BOUND once every parameter has a value.
// Caller holds s.mu or owns s exclusively.
func (s *PreparedStatement) refreshState() {
	if s.state == query.StateCreated && len(s.params.Unbound()) == 0 {
		s.state = query.StateBound
	}
}
