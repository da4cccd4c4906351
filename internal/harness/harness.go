package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/config"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/criteria"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/engine"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/jdql"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/manager"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/mapping"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/query"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/sqlstore"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/testutil"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/translate"
)

// Harness executes the steps of one scenario against one engine.
type Harness struct {
	engine   *engine.Engine
	clock    *engine.Clock
	observer translate.Observer
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh database. A non-nil error means the
// scenario could not be set up; failed expectations are reported through
// Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rowIDs := testutil.NewSequentialIDGenerator("row")

	translator := translate.New()
	mgr, closeFn, err := openBackend(scenario.Backend, logger, rowIDs.Generate, translator.Fold)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	clock := engine.NewClock()
	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithClock(clock),
		engine.WithTranslator(translator),
		engine.WithIDGenerator(testutil.NewSequentialIDGenerator("")),
	}

	var observer translate.Observer
	if scenario.Mappings != "" {
		registry, err := mapping.LoadDir(scenario.Mappings)
		if err != nil {
			return nil, fmt.Errorf("failed to load mappings: %w", err)
		}
		opts = append(opts, engine.WithEnumConverter(registry))
		observer = registry
	}

	eng, err := engine.New(mgr, opts...)
	if err != nil {
		return nil, err
	}

	for i, seed := range scenario.Seed {
		fields := make(map[string]any, len(seed.Fields))
		for k, v := range seed.Fields {
			fields[k] = normalize(v)
		}
		if _, err := mgr.Insert(ctx, manager.NewEntity(seed.Entity, fields)); err != nil {
			return nil, fmt.Errorf("seed[%d]: %w", i, err)
		}
	}

	h := &Harness{
		engine:   eng,
		clock:    clock,
		observer: observer,
		logger:   logger,
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		h.executeStep(ctx, i, step, result)
	}

	for _, msg := range EvaluateAssertions(ctx, h, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// openBackend creates the scenario database. fold evaluates function calls
// over field values on either backend.
func openBackend(kind string, logger *slog.Logger, ids func() string, fold criteria.Folder) (manager.DatabaseManager, func(), error) {
	switch kind {
	case "", config.BackendMemory:
		mem := manager.NewMemory(
			manager.WithLogger(logger),
			manager.WithIDGenerator(ids),
			manager.WithFolder(fold),
		)
		return mem, func() {}, nil
	case config.BackendSQLite:
		st, err := sqlstore.Open(":memory:",
			sqlstore.WithLogger(logger),
			sqlstore.WithIDGenerator(ids),
			sqlstore.WithFolder(fold),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		return st, func() { st.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend %q", kind)
	}
}

// executeStep runs one step, records it and checks its expectation.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) {
	ev := TraceEvent{
		Step:  index,
		Query: step.Query,
		Mode:  ModeDirect,
	}

	var (
		rows     []manager.Entity
		affected int64
		err      error
	)
	if len(step.Params) > 0 || step.Prepared {
		ev.Mode = ModePrepared
		ev.Params = make(map[string]any, len(step.Params))
		for k, v := range step.Params {
			ev.Params[k] = normalize(v)
		}
		rows, affected, err = h.runPrepared(ctx, step)
	} else {
		rows, affected, err = h.runDirect(ctx, step)
	}

	ev.Seq = h.clock.Current()
	ev.Rows = len(rows)
	ev.Affected = affected
	for _, row := range rows {
		if id, ok := row.ID(); ok {
			ev.IDs = append(ev.IDs, id)
		}
	}
	if err != nil {
		ev.Error = errorCode(err)
	}
	result.AddTrace(ev)
	h.logger.Debug("step executed", "step", index, "seq", ev.Seq, "mode", ev.Mode, "rows", ev.Rows, "error", ev.Error)

	for _, msg := range checkExpect(index, step, rows, affected, err) {
		result.AddError(msg)
	}
}

// runDirect executes a step without parameters.
func (h *Harness) runDirect(ctx context.Context, step Step) ([]manager.Entity, int64, error) {
	switch jdql.Keyword(step.Query) {
	case "DELETE":
		n, err := h.engine.Delete(ctx, step.Query, h.observer)
		return nil, n, err
	case "UPDATE":
		n, err := h.engine.Update(ctx, step.Query, h.observer)
		return nil, n, err
	default:
		rows, err := h.engine.Select(ctx, step.Query, step.Entity, h.observer)
		if err != nil || !step.Single {
			return rows, 0, err
		}
		return single(step.Query, rows)
	}
}

// runPrepared prepares the step, binds its params in name order and executes.
func (h *Harness) runPrepared(ctx context.Context, step Step) ([]manager.Entity, int64, error) {
	stmt, err := h.engine.Prepare(ctx, step.Query, step.Entity, h.observer)
	if err != nil {
		return nil, 0, err
	}

	names := make([]string, 0, len(step.Params))
	for name := range step.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := stmt.Bind(name, normalize(step.Params[name])); err != nil {
			return nil, 0, err
		}
	}

	if step.Single {
		row, found, err := stmt.SingleResult(ctx)
		if err != nil || !found {
			return nil, 0, err
		}
		return []manager.Entity{row}, 0, nil
	}
	rows, err := stmt.Result(ctx)
	return rows, stmt.Affected(), err
}

func single(text string, rows []manager.Entity) ([]manager.Entity, int64, error) {
	if len(rows) > 1 {
		return nil, 0, query.NewNonUniqueResultError(len(rows)).WithQuery(text)
	}
	return rows, 0, nil
}

// errorCode renders err as its query error code, or as its message when it
// carries none.
func errorCode(err error) string {
	if code := query.CodeOf(err); code != "" {
		return string(code)
	}
	return err.Error()
}

// normalize converts YAML-decoded values into the canonical scalar forms.
// Unlike criteria.Normalize it descends into maps and lists.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	default:
		return criteria.Normalize(v)
	}
}
