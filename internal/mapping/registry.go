package mapping

import (
	"fmt"
	"strings"
)

// EnumConstant is one constant of an EnumType. It is what the parser
// embeds in an enum query value.
type EnumConstant struct {
	Type    string
	Name    string
	Ordinal int
	Value   any
}

// EnumValue returns the value stored for the constant.
func (c EnumConstant) EnumValue() any { return c.Value }

func (c EnumConstant) String() string { return c.Type + "." + c.Name }

// Registry holds compiled mappings. It is filled once while loading and
// read-only afterwards, so it is safe to share between goroutines.
type Registry struct {
	entities  map[string]EntityMapping
	enums     map[string]EnumType
	constants map[string]EnumConstant // keyed by "Type.NAME"
}

// NewRegistry returns an empty registry. An empty registry renames nothing
// and knows no enums.
func NewRegistry() *Registry {
	return &Registry{
		entities:  make(map[string]EntityMapping),
		enums:     make(map[string]EnumType),
		constants: make(map[string]EnumConstant),
	}
}

// AddEntity registers m. Not safe for use concurrently with lookups.
func (r *Registry) AddEntity(m EntityMapping) error {
	if _, dup := r.entities[m.Entity]; dup {
		return fmt.Errorf("entity %q declared twice", m.Entity)
	}
	r.entities[m.Entity] = m
	return nil
}

// AddEnum registers e and its constants. Not safe for use concurrently with
// lookups.
func (r *Registry) AddEnum(e EnumType) error {
	if _, dup := r.enums[e.Name]; dup {
		return fmt.Errorf("enum %q declared twice", e.Name)
	}
	r.enums[e.Name] = e
	for _, c := range e.Constants {
		r.constants[c.String()] = c
	}
	return nil
}

// Entity returns the mapping for a query entity name.
func (r *Registry) Entity(name string) (EntityMapping, bool) {
	m, ok := r.entities[name]
	return m, ok
}

// Enum returns the enum type with the given name.
func (r *Registry) Enum(name string) (EnumType, bool) {
	e, ok := r.enums[name]
	return e, ok
}

// Entities returns the mapped entity names in lexical order.
func (r *Registry) Entities() []string { return sortedKeys(r.entities) }

// Enums returns the enum type names in lexical order.
func (r *Registry) Enums() []string { return sortedKeys(r.enums) }

// FireEntity returns the storage name of entity.
func (r *Registry) FireEntity(entity string) string {
	if m, ok := r.entities[entity]; ok {
		return m.StorageName()
	}
	return entity
}

// FireSelectField returns the storage name of field. For a dotted path
// without an exact mapping only the first segment is renamed.
func (r *Registry) FireSelectField(entity, field string) string {
	m, ok := r.entities[entity]
	if !ok {
		return field
	}
	if column, ok := m.Fields[field]; ok {
		return column
	}
	head, rest, dotted := strings.Cut(field, ".")
	if column, ok := m.Fields[head]; ok && dotted {
		return column + "." + rest
	}
	return field
}

// FireSortProperty renames sort properties like select fields.
func (r *Registry) FireSortProperty(entity, property string) string {
	return r.FireSelectField(entity, property)
}

// Convert resolves a qualified Type.CONSTANT identifier. Any other
// identifier fails, which tells the parser to treat it as a path.
func (r *Registry) Convert(identifier string) (any, error) {
	if c, ok := r.constants[identifier]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%q is not an enum constant", identifier)
}
