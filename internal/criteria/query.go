package criteria

import (
	"strconv"
	"strings"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Sort orders results by one field.
type Sort struct {
	Field     string
	Direction Direction
}

// Select is a name-resolved select ready for a DatabaseManager.
// Where is nil when there is no filter; Skip and Limit are zero when unset.
type Select struct {
	Entity string
	Fields []string
	Where  Condition
	Sorts  []Sort
	Skip   int64
	Limit  int64
	Count  bool
}

func (s Select) String() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	switch {
	case s.Count:
		b.WriteString("COUNT(*)")
	case len(s.Fields) == 0:
		b.WriteString("*")
	default:
		b.WriteString(strings.Join(s.Fields, ", "))
	}
	b.WriteString(" FROM ")
	b.WriteString(s.Entity)
	writeWhere(&b, s.Where)
	if len(s.Sorts) > 0 {
		parts := make([]string, len(s.Sorts))
		for i, sort := range s.Sorts {
			parts[i] = sort.Field + " " + string(sort.Direction)
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(parts, ", "))
	}
	if s.Skip > 0 {
		b.WriteString(" SKIP " + strconv.FormatInt(s.Skip, 10))
	}
	if s.Limit > 0 {
		b.WriteString(" LIMIT " + strconv.FormatInt(s.Limit, 10))
	}
	return b.String()
}

// Delete removes matching entities, or only Fields of them when set.
type Delete struct {
	Entity string
	Fields []string
	Where  Condition
}

func (d Delete) String() string {
	var b strings.Builder
	b.WriteString("DELETE ")
	if len(d.Fields) > 0 {
		b.WriteString(strings.Join(d.Fields, ", "))
		b.WriteString(" ")
	}
	b.WriteString("FROM ")
	b.WriteString(d.Entity)
	writeWhere(&b, d.Where)
	return b.String()
}

// Assignment sets one field in an Update.
type Assignment struct {
	Field string
	Value Operand
}

// Update sets fields on matching entities.
type Update struct {
	Entity string
	Set    []Assignment
	Where  Condition
}

func (u Update) String() string {
	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(u.Entity)
	b.WriteString(" SET ")
	parts := make([]string, len(u.Set))
	for i, a := range u.Set {
		parts[i] = a.Field + " = " + a.Value.String()
	}
	b.WriteString(strings.Join(parts, ", "))
	writeWhere(&b, u.Where)
	return b.String()
}

func writeWhere(b *strings.Builder, where Condition) {
	if where == nil {
		return
	}
	b.WriteString(" WHERE ")
	b.WriteString(where.String())
}
