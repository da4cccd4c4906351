package criteria

import (
	"fmt"
	"math"
	"reflect"
	"sync"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/query"
)

// Params is the side table of late-bound parameter values for one prepared
// statement. Names are registered during translation in order of first
// reference and never removed.
type Params struct {
	mu     sync.RWMutex
	order  []string
	values map[string]any
	bound  map[string]bool
}

// NewParams returns an empty table.
func NewParams() *Params {
	return &Params{
		values: make(map[string]any),
		bound:  make(map[string]bool),
	}
}

// Add registers name (idempotent) and returns its placeholder operand.
func (p *Params) Add(name string) Param {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.bound[name]; !ok {
		p.order = append(p.order, name)
		p.bound[name] = false
	}
	return Param{Name: name}
}

// Bind sets or overwrites the value of a registered parameter.
func (p *Params) Bind(name string, value any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.bound[name]; !ok {
		err := query.NewInvalidValueError(name, fmt.Sprintf("unknown parameter %q", name))
		err.Param = name
		return err
	}
	v := Normalize(value)
	if err := checkRange(name, v); err != nil {
		err.Param = name
		return err
	}
	p.values[name] = v
	p.bound[name] = true
	return nil
}

// checkRange rejects unsigned values Normalize could not narrow to int64.
func checkRange(name string, v any) *query.Error {
	switch val := v.(type) {
	case uint64:
		return query.NewInvalidValueError(name, fmt.Sprintf("%d overflows int64", val))
	case []any:
		for _, e := range val {
			if err := checkRange(name, e); err != nil {
				return err
			}
		}
	}
	return nil
}

// Names returns registered names in first-reference order.
func (p *Params) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Unbound returns registered names that have no value yet, in order.
func (p *Params) Unbound() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []string
	for _, name := range p.order {
		if !p.bound[name] {
			out = append(out, name)
		}
	}
	return out
}

// Value returns the bound value of name.
func (p *Params) Value(name string) (any, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.bound[name] {
		return nil, false
	}
	return p.values[name], true
}

// Len returns the number of registered names.
func (p *Params) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.order)
}

// Normalize widens Go numeric kinds to int64/float64 and converts slices
// and arrays to []any, so backends only ever see one representation.
// Unsigned values above math.MaxInt64 come back as uint64; Params.Bind
// rejects them.
func Normalize(v any) any {
	switch val := v.(type) {
	case nil, string, bool, int64, float64, []any:
		return v
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case float32:
		return float64(val)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return u
		}
		return int64(u)
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Normalize(rv.Index(i).Interface())
		}
		return out
	}
	return v
}
