package translate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/query"
)

func TestFold_Builtins(t *testing.T) {
	tr := New()
	tests := []struct {
		fn   query.FunctionName
		args []any
		want any
	}{
		{query.FuncAbs, []any{int64(-4)}, int64(4)},
		{query.FuncAbs, []any{int64(4)}, int64(4)},
		{query.FuncAbs, []any{-2.5}, 2.5},
		{query.FuncLength, []any{"ünï"}, int64(3)},
		{query.FuncLower, []any{"ÀBC"}, "àbc"},
		{query.FuncUpper, []any{"çé"}, "ÇÉ"},
		{query.FuncLeft, []any{"hello", int64(2)}, "he"},
		{query.FuncLeft, []any{"hi", int64(10)}, "hi"},
		{query.FuncRight, []any{"hello", int64(3)}, "llo"},
		{query.FuncRight, []any{"héllo", int64(4)}, "éllo"},
		{query.FuncUpper, []any{nil}, nil},
		{query.FuncAbs, []any{nil}, nil},
	}
	for _, tt := range tests {
		t.Run(string(tt.fn), func(t *testing.T) {
			got, err := tr.Fold(tt.fn, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFold_ArgumentErrors(t *testing.T) {
	tr := New()
	tests := []struct {
		name string
		fn   query.FunctionName
		args []any
	}{
		{"abs of string", query.FuncAbs, []any{"x"}},
		{"abs of min int64", query.FuncAbs, []any{int64(math.MinInt64)}},
		{"length of number", query.FuncLength, []any{int64(1)}},
		{"left negative", query.FuncLeft, []any{"abc", int64(-1)}},
		{"right float length", query.FuncRight, []any{"abc", 1.5}},
		{"wrong arity", query.FuncUpper, []any{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tr.Fold(tt.fn, tt.args)
			require.Error(t, err)
			assert.True(t, query.IsInvalidValue(err))
		})
	}
}

func TestFold_UnknownFunction(t *testing.T) {
	_, err := New().Fold(query.FunctionName("SQRT"), []any{int64(4)})
	require.Error(t, err)
	assert.Equal(t, query.ErrCodeUnknownFunction, query.CodeOf(err))
}
