package criteria

import (
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/query"
)

func TestParams_InsertionOrderOfFirstReference(t *testing.T) {
	p := NewParams()
	p.Add("name")
	p.Add("?1")
	p.Add("name")
	p.Add("age")

	assert.Equal(t, []string{"name", "?1", "age"}, p.Names())
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, []string{"name", "?1", "age"}, p.Unbound())
}

func TestParams_BindOverwrites(t *testing.T) {
	p := NewParams()
	p.Add("name")

	require.NoError(t, p.Bind("name", "Ada"))
	require.NoError(t, p.Bind("name", "Otavio"))

	v, ok := p.Value("name")
	require.True(t, ok)
	assert.Equal(t, "Otavio", v)
	assert.Empty(t, p.Unbound())
}

func TestParams_BindUnknownName(t *testing.T) {
	p := NewParams()
	p.Add("name")

	err := p.Bind("nope", 1)
	require.Error(t, err)
	assert.True(t, query.IsInvalidValue(err))
	assert.Contains(t, err.Error(), "nope")

	_, ok := p.Value("nope")
	assert.False(t, ok)
}

func TestParams_BindRejectsUnsignedOverflow(t *testing.T) {
	p := NewParams()
	p.Add("n")

	for _, v := range []any{uint64(math.MaxInt64) + 1, []uint64{1, math.MaxUint64}} {
		err := p.Bind("n", v)
		require.Error(t, err)
		assert.True(t, query.IsInvalidValue(err))

		var qerr *query.Error
		require.ErrorAs(t, err, &qerr)
		assert.Equal(t, "n", qerr.Param)
	}
	assert.Equal(t, []string{"n"}, p.Unbound())

	require.NoError(t, p.Bind("n", uint64(math.MaxInt64)))
	v, ok := p.Value("n")
	require.True(t, ok)
	assert.Equal(t, int64(math.MaxInt64), v)
}

func TestParams_BindNilIsABinding(t *testing.T) {
	p := NewParams()
	p.Add("deleted")
	require.NoError(t, p.Bind("deleted", nil))

	v, ok := p.Value("deleted")
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestParams_ConcurrentBind(t *testing.T) {
	p := NewParams()
	for i := 0; i < 8; i++ {
		p.Add(strings.Repeat("p", i+1))
	}

	var wg sync.WaitGroup
	for _, name := range p.Names() {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			assert.NoError(t, p.Bind(name, len(name)))
		}(name)
	}
	wg.Wait()

	assert.Empty(t, p.Unbound())
	v, _ := p.Value("ppp")
	assert.Equal(t, int64(3), v)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"int", 7, int64(7)},
		{"int8", int8(-3), int64(-3)},
		{"uint16", uint16(9), int64(9)},
		{"uint64 in range", uint64(math.MaxInt64), int64(math.MaxInt64)},
		{"uint64 above int64", uint64(math.MaxUint64), uint64(math.MaxUint64)},
		{"float32", float32(1.5), float64(1.5)},
		{"string", "x", "x"},
		{"bool", true, true},
		{"nil", nil, nil},
		{"int slice", []int{1, 2}, []any{int64(1), int64(2)}},
		{"string array", [2]string{"a", "b"}, []any{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}
