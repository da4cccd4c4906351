package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/criteria"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/jdql"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/manager"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/query"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/translate"
)

// Engine parses, translates and executes queries against one
// DatabaseManager.
//
// Thread-safety: all methods are safe for concurrent use. The providers'
// caches are shared by every caller of the same Engine.
type Engine struct {
	selects    *jdql.SelectProvider
	deletes    *jdql.DeleteProvider
	updates    *jdql.UpdateProvider
	translator *translate.Translator
	manager    manager.DatabaseManager
	ids        IDGenerator
	clock      *Clock
	logger     *slog.Logger
}

type settings struct {
	parserOpts []jdql.Option
	cacheSize  int
	translator *translate.Translator
	ids        IDGenerator
	clock      *Clock
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*settings)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithIDGenerator sets the prepared statement id source.
// Default: UUIDv7Generator.
func WithIDGenerator(ids IDGenerator) Option {
	return func(s *settings) {
		s.ids = ids
	}
}

// WithClock sets the execution sequence clock.
func WithClock(clock *Clock) Option {
	return func(s *settings) {
		s.clock = clock
	}
}

// WithTranslator replaces the default translator, e.g. to add functions.
func WithTranslator(t *translate.Translator) Option {
	return func(s *settings) {
		s.translator = t
	}
}

// WithEnumConverter resolves Type.CONSTANT identifiers while parsing.
func WithEnumConverter(conv jdql.EnumConverter) Option {
	return func(s *settings) {
		s.parserOpts = append(s.parserOpts, jdql.WithEnumConverter(conv))
	}
}

// WithCacheSize bounds each parsed-query cache to size entries with LRU
// eviction. Zero (the default) means unbounded.
func WithCacheSize(size int) Option {
	return func(s *settings) {
		s.cacheSize = size
	}
}

// New creates an Engine executing against mgr.
func New(mgr manager.DatabaseManager, opts ...Option) (*Engine, error) {
	if mgr == nil {
		return nil, query.NewNilArgumentError("manager")
	}
	s := &settings{
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.translator == nil {
		s.translator = translate.New()
	}
	if s.clock == nil {
		s.clock = NewClock()
	}

	selectCache, err := newCache[*query.SelectQuery](s.cacheSize)
	if err != nil {
		return nil, err
	}
	deleteCache, err := newCache[*query.DeleteQuery](s.cacheSize)
	if err != nil {
		return nil, err
	}
	updateCache, err := newCache[*query.UpdateQuery](s.cacheSize)
	if err != nil {
		return nil, err
	}

	parser := jdql.NewParser(s.parserOpts...)
	return &Engine{
		selects:    jdql.NewSelectProvider(parser, selectCache),
		deletes:    jdql.NewDeleteProvider(parser, deleteCache),
		updates:    jdql.NewUpdateProvider(parser, updateCache),
		translator: s.translator,
		manager:    mgr,
		ids:        s.ids,
		clock:      s.clock,
		logger:     s.logger,
	}, nil
}

func newCache[T any](size int) (*jdql.Cache[T], error) {
	if size <= 0 {
		return jdql.NewCache[T](), nil
	}
	c, err := jdql.NewBoundedCache[T](size)
	if err != nil {
		return nil, fmt.Errorf("query cache: %w", err)
	}
	return c, nil
}

// Manager returns the storage the engine executes against.
func (e *Engine) Manager() manager.DatabaseManager {
	return e.manager
}

// Select runs a select query that has no parameters. entity names the
// target when text omits FROM. Count queries return one entity carrying
// a "count" field.
func (e *Engine) Select(ctx context.Context, text, entity string, obs translate.Observer) ([]manager.Entity, error) {
	q, err := e.selects.Apply(text, entity)
	if err != nil {
		return nil, withQuery(err, text)
	}
	sel, err := e.translator.Select(q, obs)
	if err != nil {
		return nil, withQuery(err, text)
	}
	return e.runSelect(ctx, e.clock.Next(), "", sel)
}

// Delete runs a delete query that has no parameters and returns the number
// of entities affected.
func (e *Engine) Delete(ctx context.Context, text string, obs translate.Observer) (int64, error) {
	q, err := e.deletes.Apply(text)
	if err != nil {
		return 0, withQuery(err, text)
	}
	del, err := e.translator.Delete(q, obs)
	if err != nil {
		return 0, withQuery(err, text)
	}
	return e.runDelete(ctx, e.clock.Next(), "", del)
}

// Update runs an update query that has no parameters and returns the number
// of entities affected.
func (e *Engine) Update(ctx context.Context, text string, obs translate.Observer) (int64, error) {
	q, err := e.updates.Apply(text)
	if err != nil {
		return 0, withQuery(err, text)
	}
	upd, err := e.translator.Update(q, obs)
	if err != nil {
		return 0, withQuery(err, text)
	}
	return e.runUpdate(ctx, e.clock.Next(), "", upd)
}

// Prepare parses and translates text into a statement awaiting bindings.
// The leading keyword picks the dialect: DELETE, UPDATE, anything else is a
// select. entity is only used by selects.
func (e *Engine) Prepare(ctx context.Context, text, entity string, obs translate.Observer) (*PreparedStatement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stmt := &PreparedStatement{
		id:     e.ids.Generate(),
		engine: e,
		text:   text,
		state:  query.StateCreated,
	}

	var err error
	switch jdql.Keyword(text) {
	case "DELETE":
		var q *query.DeleteQuery
		if q, err = e.deletes.Apply(text); err == nil {
			stmt.kind = KindDelete
			stmt.del, stmt.params, err = e.translator.PrepareDelete(q, obs)
		}
	case "UPDATE":
		var q *query.UpdateQuery
		if q, err = e.updates.Apply(text); err == nil {
			stmt.kind = KindUpdate
			stmt.upd, stmt.params, err = e.translator.PrepareUpdate(q, obs)
		}
	default:
		var q *query.SelectQuery
		if q, err = e.selects.Apply(text, entity); err == nil {
			stmt.kind = KindSelect
			stmt.sel, stmt.params, err = e.translator.PrepareSelect(q, obs)
		}
	}
	if err != nil {
		return nil, withQuery(err, text)
	}

	stmt.refreshState()
	e.logger.Debug("statement prepared",
		"statement", stmt.id,
		"kind", stmt.kind,
		"params", stmt.params.Names(),
	)
	return stmt, nil
}

func (e *Engine) runSelect(ctx context.Context, seq int64, stmtID string, sel criteria.Select) ([]manager.Entity, error) {
	if sel.Count {
		n, err := e.manager.Count(ctx, sel)
		if err != nil {
			return nil, e.storageError(seq, stmtID, err)
		}
		e.logger.Debug("count executed", "seq", seq, "statement", stmtID, "entity", sel.Entity, "count", n)
		return []manager.Entity{manager.NewEntity(sel.Entity, map[string]any{"count": n})}, nil
	}
	rows, err := e.manager.Select(ctx, sel)
	if err != nil {
		return nil, e.storageError(seq, stmtID, err)
	}
	e.logger.Debug("select executed", "seq", seq, "statement", stmtID, "entity", sel.Entity, "rows", len(rows))
	return rows, nil
}

func (e *Engine) runDelete(ctx context.Context, seq int64, stmtID string, del criteria.Delete) (int64, error) {
	n, err := e.manager.Delete(ctx, del)
	if err != nil {
		return 0, e.storageError(seq, stmtID, err)
	}
	e.logger.Debug("delete executed", "seq", seq, "statement", stmtID, "entity", del.Entity, "affected", n)
	return n, nil
}

func (e *Engine) runUpdate(ctx context.Context, seq int64, stmtID string, upd criteria.Update) (int64, error) {
	n, err := e.manager.Update(ctx, upd)
	if err != nil {
		return 0, e.storageError(seq, stmtID, err)
	}
	e.logger.Debug("update executed", "seq", seq, "statement", stmtID, "entity", upd.Entity, "affected", n)
	return n, nil
}

func (e *Engine) storageError(seq int64, stmtID string, err error) error {
	e.logger.Warn("storage call failed", "seq", seq, "statement", stmtID, "error", err)
	return err
}

// withQuery annotates a query error with the text that produced it.
func withQuery(err error, text string) error {
	if qerr, ok := err.(*query.Error); ok {
		return qerr.WithQuery(text)
	}
	return err
}
