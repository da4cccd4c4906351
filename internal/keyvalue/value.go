// Package keyvalue executes the GET/DEL/PUT query dialect against a bucket.
package keyvalue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/criteria"
)

// Value is a value read from a bucket.
type Value struct {
	v any
}

// ValueOf wraps v, normalizing numeric kinds.
func ValueOf(v any) Value {
	return Value{v: criteria.Normalize(v)}
}

// Get returns the wrapped value.
func (v Value) Get() any { return v.v }

func (v Value) String() string { return criteria.FormatValue(v.v) }

// MarshalJSON encodes the wrapped value.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.v)
}

// BucketManager is a key-value store. Keys are compared by their JSON
// encoding, so "1" and 1 are different keys.
type BucketManager interface {
	// Get returns the value for key; found is false when absent or expired.
	Get(ctx context.Context, key any) (value Value, found bool, err error)

	// Put stores value under key. ttl <= 0 means no expiry.
	Put(ctx context.Context, key, value any, ttl time.Duration) error

	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key any) error
}

// Clock supplies the current time for TTL checks.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// encodeKey returns the canonical byte form of a key.
func encodeKey(key any) ([]byte, error) {
	if key == nil {
		return nil, fmt.Errorf("key must not be null")
	}
	b, err := json.Marshal(criteria.Normalize(key))
	if err != nil {
		return nil, fmt.Errorf("encode key: %w", err)
	}
	return b, nil
}

func encodeValue(value any) ([]byte, error) {
	b, err := json.Marshal(markFloats(criteria.Normalize(value)))
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return b, nil
}

// markFloats rewrites whole-number floats so their encoding keeps a
// fractional part and decodes back as float64.
func markFloats(v any) any {
	switch val := v.(type) {
	case float64:
		if math.IsInf(val, 0) || math.IsNaN(val) || val != math.Trunc(val) {
			return val
		}
		s := strconv.FormatFloat(val, 'f', -1, 64)
		return json.Number(s + ".0")
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = markFloats(criteria.Normalize(e))
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = markFloats(e)
		}
		return out
	default:
		return v
	}
}

// decodeValue decodes JSON keeping integers as int64.
func decodeValue(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return convertNumbers(v), nil
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
