package manager

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/criteria"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/query"
)

// Memory is a goroutine-safe in-memory DatabaseManager.
//
// Entities of one type keep insertion order; Select sorts stably on top of
// it, so ties always come back in the order they were inserted.
type Memory struct {
	mu       sync.RWMutex
	entities map[string][]Entity
	eval     Evaluator
	newID    func() string
	logger   *slog.Logger
}

// MemoryOption configures a Memory.
type MemoryOption func(*Memory)

// WithFolder sets the function evaluator used for calls over fields.
func WithFolder(fold criteria.Folder) MemoryOption {
	return func(m *Memory) {
		m.eval.Fold = fold
	}
}

// WithIDGenerator replaces uuid ids for inserted entities.
func WithIDGenerator(gen func() string) MemoryOption {
	return func(m *Memory) {
		m.newID = gen
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) MemoryOption {
	return func(m *Memory) {
		m.logger = logger
	}
}

// NewMemory creates an empty store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entities: make(map[string][]Entity),
		newID:    uuid.NewString,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Insert implements DatabaseManager.
func (m *Memory) Insert(ctx context.Context, e Entity) (Entity, error) {
	if err := ctx.Err(); err != nil {
		return Entity{}, err
	}
	if e.Name == "" {
		return Entity{}, query.NewNilArgumentError("entity name")
	}

	stored := e.Clone()
	if _, ok := stored.ID(); !ok {
		stored.Fields[IDField] = m.newID()
	}

	m.mu.Lock()
	m.entities[stored.Name] = append(m.entities[stored.Name], stored)
	m.mu.Unlock()

	m.logger.Debug("entity inserted", "entity", stored.Name, "id", stored.Fields[IDField])
	return stored.Clone(), nil
}

// Select implements DatabaseManager.
func (m *Memory) Select(ctx context.Context, q criteria.Select) ([]Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	matched, err := m.match(q.Entity, q.Where)
	m.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	if len(q.Sorts) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, s := range q.Sorts {
				cmp := sortKey(matched[i], matched[j], s.Field)
				if cmp == 0 {
					continue
				}
				if s.Direction == criteria.Desc {
					return cmp > 0
				}
				return cmp < 0
			}
			return false
		})
	}

	matched = paginate(matched, q.Skip, q.Limit)
	out := make([]Entity, len(matched))
	for i, e := range matched {
		out[i] = e.Project(q.Fields)
	}
	return out, nil
}

// Count implements DatabaseManager. Skip and limit are ignored.
func (m *Memory) Count(ctx context.Context, q criteria.Select) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	matched, err := m.match(q.Entity, q.Where)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

// Delete implements DatabaseManager.
func (m *Memory) Delete(ctx context.Context, q criteria.Delete) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	all := m.entities[q.Entity]
	hit := make([]bool, len(all))
	var affected int64
	for i, e := range all {
		ok, err := m.eval.Match(q.Where, e)
		if err != nil {
			return 0, err
		}
		hit[i] = ok
		if ok {
			affected++
		}
	}

	var kept []Entity
	for i, e := range all {
		switch {
		case !hit[i]:
			kept = append(kept, e)
		case len(q.Fields) > 0:
			for _, f := range q.Fields {
				e.Remove(f)
			}
			kept = append(kept, e)
		}
	}
	m.entities[q.Entity] = kept

	m.logger.Debug("entities deleted", "entity", q.Entity, "count", affected)
	return affected, nil
}

// Update implements DatabaseManager. Values are evaluated against each
// entity before any assignment, so SET a = b, b = a swaps. Every matching
// entity is evaluated before the first write; an error leaves the store
// unchanged.
func (m *Memory) Update(ctx context.Context, q criteria.Update) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	type pending struct {
		entity Entity
		values []any
	}
	var writes []pending
	for _, e := range m.entities[q.Entity] {
		ok, err := m.eval.Match(q.Where, e)
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		values := make([]any, len(q.Set))
		for i, a := range q.Set {
			v, err := m.eval.Value(a.Value, e)
			if err != nil {
				return 0, err
			}
			values[i] = v
		}
		writes = append(writes, pending{entity: e, values: values})
	}

	for _, w := range writes {
		for i, a := range q.Set {
			w.entity.Set(a.Field, w.values[i])
		}
	}
	affected := int64(len(writes))

	m.logger.Debug("entities updated", "entity", q.Entity, "count", affected)
	return affected, nil
}

// match returns copies of the entities of one type satisfying where.
// Caller holds at least the read lock.
func (m *Memory) match(entity string, where criteria.Condition) ([]Entity, error) {
	var out []Entity
	for _, e := range m.entities[entity] {
		ok, err := m.eval.Match(where, e)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, e.Clone())
		}
	}
	return out, nil
}

func paginate(entities []Entity, skip, limit int64) []Entity {
	if skip > 0 {
		if skip >= int64(len(entities)) {
			return nil
		}
		entities = entities[skip:]
	}
	if limit > 0 && limit < int64(len(entities)) {
		entities = entities[:limit]
	}
	return entities
}
