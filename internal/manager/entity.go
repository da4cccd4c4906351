package manager

import (
	"strings"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/criteria"
)

// IDField is the field that identifies an entity within its type.
const IDField = "id"

// Entity is one stored record: a type name and a tree of fields.
// Nested objects are map[string]any, lists are []any.
type Entity struct {
	Name   string         `json:"entity"`
	Fields map[string]any `json:"fields"`
}

// NewEntity creates an entity with normalized copies of fields.
func NewEntity(name string, fields map[string]any) Entity {
	return Entity{Name: name, Fields: copyFields(fields)}
}

// Get resolves a dotted path such as "address.city".
func (e Entity) Get(path string) (any, bool) {
	var cur any = e.Fields
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set assigns a dotted path, creating intermediate objects.
func (e Entity) Set(path string, value any) {
	parts := strings.Split(path, ".")
	m := e.Fields
	for _, part := range parts[:len(parts)-1] {
		next, ok := m[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[part] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = criteria.Normalize(value)
}

// Remove deletes a dotted path. Missing paths are ignored.
func (e Entity) Remove(path string) {
	parts := strings.Split(path, ".")
	m := e.Fields
	for _, part := range parts[:len(parts)-1] {
		next, ok := m[part].(map[string]any)
		if !ok {
			return
		}
		m = next
	}
	delete(m, parts[len(parts)-1])
}

// ID returns the id field.
func (e Entity) ID() (any, bool) {
	v, ok := e.Fields[IDField]
	return v, ok
}

// Project returns a copy holding only the given paths. No paths means all.
func (e Entity) Project(paths []string) Entity {
	if len(paths) == 0 {
		return e.Clone()
	}
	out := Entity{Name: e.Name, Fields: make(map[string]any, len(paths))}
	for _, p := range paths {
		if v, ok := e.Get(p); ok {
			out.Set(p, copyValue(v))
		}
	}
	return out
}

// Clone returns a deep copy.
func (e Entity) Clone() Entity {
	return Entity{Name: e.Name, Fields: copyFields(e.Fields)}
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return copyFields(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = copyValue(e)
		}
		return out
	default:
		return criteria.Normalize(v)
	}
}
