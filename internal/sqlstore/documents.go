package sqlstore

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/criteria"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/manager"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/query"
)

var _ manager.DatabaseManager = (*Store)(nil)

// Insert implements manager.DatabaseManager.
// Inserting an existing (entity, id) replaces the stored body.
func (s *Store) Insert(ctx context.Context, e manager.Entity) (manager.Entity, error) {
	if e.Name == "" {
		return manager.Entity{}, query.NewNilArgumentError("entity name")
	}

	stored := e.Clone()
	id, ok := stored.ID()
	if !ok {
		id = s.newID()
		stored.Fields[manager.IDField] = id
	}

	body, err := json.Marshal(stored.Fields)
	if err != nil {
		return manager.Entity{}, fmt.Errorf("encode entity: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (entity, id, body) VALUES (?, ?, ?)
		ON CONFLICT (entity, id) DO UPDATE SET body = excluded.body
	`, stored.Name, fmt.Sprint(id), string(body))
	if err != nil {
		return manager.Entity{}, fmt.Errorf("insert document: %w", err)
	}

	s.logger.Debug("document inserted", "entity", stored.Name, "id", id)
	return stored, nil
}

// Select implements manager.DatabaseManager.
// Results are ordered by the declared sorts, then id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) Select(ctx context.Context, q criteria.Select) ([]manager.Entity, error) {
	sqlText, params, err := s.compiler.CompileSelect(q)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("select compiled", "sql", sqlText, "params", len(params))

	rows, err := s.db.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	entities := []manager.Entity{}
	for rows.Next() {
		e, err := scanDocument(rows, q.Entity)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e.Project(q.Fields))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return entities, nil
}

// Count implements manager.DatabaseManager.
func (s *Store) Count(ctx context.Context, q criteria.Select) (int64, error) {
	sqlText, params, err := s.compiler.CompileCount(q)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, sqlText, params...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// Delete implements manager.DatabaseManager.
func (s *Store) Delete(ctx context.Context, q criteria.Delete) (int64, error) {
	sqlText, params, err := s.compiler.CompileDelete(q)
	if err != nil {
		return 0, err
	}
	return s.exec(ctx, "delete documents", sqlText, params)
}

// Update implements manager.DatabaseManager.
func (s *Store) Update(ctx context.Context, q criteria.Update) (int64, error) {
	sqlText, params, err := s.compiler.CompileUpdate(q)
	if err != nil {
		return 0, err
	}
	return s.exec(ctx, "update documents", sqlText, params)
}

func (s *Store) exec(ctx context.Context, op, sqlText string, params []any) (int64, error) {
	res, err := s.db.ExecContext(ctx, sqlText, params...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: rows affected: %w", op, err)
	}
	s.logger.Debug(op, "sql", sqlText, "affected", n)
	return n, nil
}

// scanDocument decodes one (id, body) row.
func scanDocument(rows *sql.Rows, entity string) (manager.Entity, error) {
	var id, body string
	if err := rows.Scan(&id, &body); err != nil {
		return manager.Entity{}, fmt.Errorf("scan document: %w", err)
	}
	fields, err := decodeBody(body)
	if err != nil {
		return manager.Entity{}, fmt.Errorf("decode document %s/%s: %w", entity, id, err)
	}
	return manager.NewEntity(entity, fields), nil
}

// decodeBody decodes a JSON object keeping integers as int64.
func decodeBody(body string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	return convertNumbers(fields).(map[string]any), nil
}

func convertNumbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, _ := val.Float64()
		return f
	case map[string]any:
		for k, e := range val {
			val[k] = convertNumbers(e)
		}
		return val
	case []any:
		for i, e := range val {
			val[i] = convertNumbers(e)
		}
		return val
	default:
		return v
	}
}
