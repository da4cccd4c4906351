package query

import "time"

// Sort is one ORDER BY entry.
type Sort struct {
	Property  string
	Ascending bool
}

// SelectQuery is the parsed form of a select statement.
// Skip and Limit are zero when absent.
type SelectQuery struct {
	Entity string
	Fields []string
	Where  *Condition
	Sorts  []Sort
	Skip   int64
	Limit  int64
	Count  bool
}

// Params lists the parameter keys in order of first reference.
func (q *SelectQuery) Params() []string {
	return collectParams(q.Where)
}

// DeleteQuery is the parsed form of a delete statement.
type DeleteQuery struct {
	Entity string
	Fields []string
	Where  *Condition
}

// Params lists the parameter keys in order of first reference.
func (q *DeleteQuery) Params() []string {
	return collectParams(q.Where)
}

// UpdateItem is one SET assignment.
type UpdateItem struct {
	Name  string
	Value Value
}

// UpdateQuery is the parsed form of an update statement.
type UpdateQuery struct {
	Entity string
	Set    []UpdateItem
	Where  *Condition
}

// Params lists the parameter keys in order of first reference, SET values
// first.
func (q *UpdateQuery) Params() []string {
	c := &paramCollector{seen: map[string]bool{}}
	for _, item := range q.Set {
		c.value(item.Value)
	}
	if q.Where != nil {
		c.condition(*q.Where)
	}
	return c.names
}

// GetQuery reads one or more keys from a key-value store.
type GetQuery struct {
	Keys []Value
}

// Params lists the parameter keys in order of first reference.
func (q *GetQuery) Params() []string {
	c := &paramCollector{seen: map[string]bool{}}
	for _, k := range q.Keys {
		c.value(k)
	}
	return c.names
}

// DelQuery removes one or more keys from a key-value store.
type DelQuery struct {
	Keys []Value
}

// Params lists the parameter keys in order of first reference.
func (q *DelQuery) Params() []string {
	c := &paramCollector{seen: map[string]bool{}}
	for _, k := range q.Keys {
		c.value(k)
	}
	return c.names
}

// PutQuery stores a key/value pair. TTL is zero when absent.
type PutQuery struct {
	Key   Value
	Value Value
	TTL   time.Duration
}

// Params lists the parameter keys in order of first reference.
func (q *PutQuery) Params() []string {
	c := &paramCollector{seen: map[string]bool{}}
	c.value(q.Key)
	c.value(q.Value)
	return c.names
}

func collectParams(where *Condition) []string {
	if where == nil {
		return nil
	}
	c := &paramCollector{seen: map[string]bool{}}
	c.condition(*where)
	return c.names
}

type paramCollector struct {
	seen  map[string]bool
	names []string
}

func (c *paramCollector) condition(cond Condition) {
	c.value(cond.Value)
}

func (c *paramCollector) value(v Value) {
	switch val := v.(type) {
	case ParamValue:
		if !c.seen[val.Name] {
			c.seen[val.Name] = true
			c.names = append(c.names, val.Name)
		}
	case ArrayValue:
		for _, e := range val {
			c.value(e)
		}
	case FunctionValue:
		for _, p := range val.fn.Params {
			c.value(p)
		}
	case ConditionValue:
		for _, child := range val {
			c.condition(child)
		}
	}
}
