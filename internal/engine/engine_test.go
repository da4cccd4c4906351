package engine

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/criteria"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/manager"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/query"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/testutil"
)

// countingManager counts storage calls made through it.
type countingManager struct {
	manager.DatabaseManager
	calls atomic.Int64
}

func (m *countingManager) Select(ctx context.Context, q criteria.Select) ([]manager.Entity, error) {
	m.calls.Add(1)
	return m.DatabaseManager.Select(ctx, q)
}

func (m *countingManager) Count(ctx context.Context, q criteria.Select) (int64, error) {
	m.calls.Add(1)
	return m.DatabaseManager.Count(ctx, q)
}

func (m *countingManager) Delete(ctx context.Context, q criteria.Delete) (int64, error) {
	m.calls.Add(1)
	return m.DatabaseManager.Delete(ctx, q)
}

func (m *countingManager) Update(ctx context.Context, q criteria.Update) (int64, error) {
	m.calls.Add(1)
	return m.DatabaseManager.Update(ctx, q)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *countingManager) {
	t.Helper()
	mem := manager.NewMemory(manager.WithLogger(discardLogger()))
	ctx := context.Background()
	for _, p := range []map[string]any{
		{"id": "p1", "name": "Otavio", "age": 40, "city": "Salvador"},
		{"id": "p2", "name": "Ada", "age": 36, "city": "London"},
		{"id": "p3", "name": "Alan", "age": 41, "city": "London"},
	} {
		_, err := mem.Insert(ctx, manager.NewEntity("Person", p))
		require.NoError(t, err)
	}

	mgr := &countingManager{DatabaseManager: mem}
	opts = append([]Option{
		WithLogger(discardLogger()),
		WithIDGenerator(testutil.NewSequentialIDGenerator("")),
	}, opts...)
	e, err := New(mgr, opts...)
	require.NoError(t, err)
	return e, mgr
}

func names(entities []manager.Entity) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i], _ = e.Fields["name"].(string)
	}
	return out
}

func TestNew_NilManager(t *testing.T) {
	_, err := New(nil)
	assert.True(t, query.IsNilArgument(err))
}

func TestNew_NonPositiveCacheSizeIsUnbounded(t *testing.T) {
	_, err := New(manager.NewMemory(), WithCacheSize(-1))
	require.NoError(t, err)
}

func TestEngine_SelectScenarioA(t *testing.T) {
	e, _ := newTestEngine(t)

	rows, err := e.Select(context.Background(), "Person WHERE name = 'Otavio'", "", nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "p1", rows[0].Fields["id"])
}

func TestEngine_SelectWithDefaultEntity(t *testing.T) {
	e, _ := newTestEngine(t)

	rows, err := e.Select(context.Background(), "WHERE city = 'London' ORDER BY age DESC", "Person", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alan", "Ada"}, names(rows))
}

func TestEngine_SelectCount(t *testing.T) {
	e, _ := newTestEngine(t)

	rows, err := e.Select(context.Background(), "SELECT COUNT(*) FROM Person WHERE age > 30 LIMIT 1", "", nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Person", rows[0].Name)
	assert.Equal(t, int64(3), rows[0].Fields["count"])
}

func TestEngine_SelectRenamesThroughObserver(t *testing.T) {
	e, _ := newTestEngine(t)
	obs := testutil.NewRecordingObserver(map[string]string{"People": "Person", "fullName": "name"})

	rows, err := e.Select(context.Background(), "FROM People WHERE fullName = 'Ada'", "", obs)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada"}, names(rows))
	assert.Equal(t, []string{"entity:People", "field:People.fullName"}, obs.Calls())
}

func TestEngine_DirectModeRefusesParameters(t *testing.T) {
	e, mgr := newTestEngine(t)
	ctx := context.Background()

	for _, text := range []string{
		"Person WHERE name = :name",
		"Person WHERE age > ?1",
	} {
		_, err := e.Select(ctx, text, "", nil)
		require.Error(t, err, text)
		assert.True(t, query.IsParameterGuard(err), text)

		var qerr *query.Error
		require.ErrorAs(t, err, &qerr)
		assert.Equal(t, text, qerr.Query)
	}

	_, err := e.Delete(ctx, "DELETE FROM Person WHERE age < :age", nil)
	assert.True(t, query.IsParameterGuard(err))

	_, err = e.Update(ctx, "UPDATE Person SET age = :age", nil)
	assert.True(t, query.IsParameterGuard(err))

	assert.Equal(t, int64(0), mgr.calls.Load(), "guard must fire before storage")
}

func TestEngine_ParseErrorCarriesQuery(t *testing.T) {
	e, mgr := newTestEngine(t)

	_, err := e.Select(context.Background(), "Person WHERE name == 'x'", "", nil)
	require.Error(t, err)
	assert.True(t, query.IsUnsupported(err))

	var qerr *query.Error
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, "Person WHERE name == 'x'", qerr.Query)
	assert.Equal(t, int64(0), mgr.calls.Load())
}

func TestEngine_DeleteAndUpdate(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	n, err := e.Update(ctx, "UPDATE Person SET city = 'Paris' WHERE name = 'Ada'", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rows, err := e.Select(ctx, "Person WHERE city = 'Paris'", "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada"}, names(rows))

	n, err = e.Delete(ctx, "DELETE FROM Person WHERE age >= 40", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rows, err = e.Select(ctx, "FROM Person", "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada"}, names(rows))
}

func TestEngine_CancelledContext(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Select(ctx, "FROM Person", "", nil)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = e.Prepare(ctx, "FROM Person", "", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_BoundedCache(t *testing.T) {
	e, _ := newTestEngine(t, WithCacheSize(2))
	ctx := context.Background()

	for _, text := range []string{"FROM Person", "Person WHERE age > 1", "Person WHERE age > 2"} {
		_, err := e.Select(ctx, text, "", nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, e.selects.Len())
}

func TestEngine_ConcurrentSelects(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rows, err := e.Select(ctx, "Person WHERE city = 'London' ORDER BY name", "", nil)
			if err == nil && len(rows) != 2 {
				err = assert.AnError
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, e.selects.Len())
}
