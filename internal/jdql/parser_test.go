package jdql

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/query"
)

type genre string

func genreConverter() EnumConverter {
	return EnumConverterFunc(func(ident string) (any, error) {
		switch ident {
		case "Genre.ACTION":
			return genre("ACTION"), nil
		case "Genre.COMEDY":
			return genre("COMEDY"), nil
		}
		return nil, errors.New("not an enum")
	})
}

func mustSelect(t *testing.T, text string) *query.SelectQuery {
	t.Helper()
	q, err := NewParser().ParseSelect(text, "")
	require.NoError(t, err)
	return q
}

func TestParseSelect_ScenarioA(t *testing.T) {
	q := mustSelect(t, "Person WHERE name = 'Otavio'")

	assert.Equal(t, "Person", q.Entity)
	require.NotNil(t, q.Where)
	assert.Equal(t, query.Equals, q.Where.Operator)
	assert.Equal(t, "name", q.Where.Name)
	assert.Equal(t, query.NewString("Otavio"), q.Where.Value)
}

func TestParseSelect_ScenarioC(t *testing.T) {
	q := mustSelect(t, "FROM ComicBook WHERE year > 2000")

	assert.Equal(t, "ComicBook", q.Entity)
	require.NotNil(t, q.Where)
	assert.Equal(t, query.GreaterThan, q.Where.Operator)
	assert.Equal(t, "year", q.Where.Name)
	assert.Equal(t, query.NewInt(2000), q.Where.Value)
	assert.Empty(t, q.Sorts)
	assert.Zero(t, q.Limit)
	assert.Zero(t, q.Skip)
	assert.False(t, q.Count)
}

func TestParseSelect_StringRoundTrip(t *testing.T) {
	for _, s := range []string{"Otavio", "", "with space", `back\slash`, "ünïcödé", "it''s"} {
		q := mustSelect(t, "FROM Person WHERE name = '"+s+"'")
		assert.Equal(t, query.NewString(s), q.Where.Value, "literal %q", s)
	}
}

func TestParseSelect_NumericSubtype(t *testing.T) {
	q := mustSelect(t, "FROM Book WHERE price = 9.99")
	n, ok := q.Where.Value.(query.NumberValue)
	require.True(t, ok)
	assert.IsType(t, float64(0), n.Get())
	assert.Equal(t, 9.99, n.Get())

	q = mustSelect(t, "FROM Book WHERE pages = 42")
	n, ok = q.Where.Value.(query.NumberValue)
	require.True(t, ok)
	assert.IsType(t, int64(0), n.Get())
	assert.Equal(t, int64(42), n.Get())

	q = mustSelect(t, "FROM Book WHERE delta = -3")
	assert.Equal(t, query.NewInt(-3), q.Where.Value)
}

func TestParseSelect_Booleans(t *testing.T) {
	upper := mustSelect(t, "FROM Task WHERE done = TRUE")
	lower := mustSelect(t, "FROM Task WHERE done = true")

	assert.Equal(t, query.True, upper.Where.Value)
	assert.True(t, query.Equal(upper.Where.Value, lower.Where.Value))
	assert.Equal(t, query.NewBoolean(true), lower.Where.Value)
	assert.Equal(t, query.False, mustSelect(t, "FROM Task WHERE done = False").Where.Value)
}

func TestParseSelect_SpecialExpressionUnsupported(t *testing.T) {
	_, err := NewParser().ParseSelect("FROM Task WHERE due = LOCAL DATE", "")
	require.Error(t, err)
	assert.True(t, query.IsUnsupported(err))
	assert.Contains(t, err.Error(), "LOCAL")
}

func TestParseSelect_Parameters(t *testing.T) {
	q := mustSelect(t, "Person WHERE name = :name AND age > ?1")

	require.Equal(t, query.And, q.Where.Operator)
	children := q.Where.Children()
	require.Len(t, children, 2)
	assert.Equal(t, query.NewParam("name"), children[0].Value)
	assert.Equal(t, query.NewParam("?1"), children[1].Value)
	assert.Equal(t, []string{"name", "?1"}, q.Params())
}

func TestParseSelect_EnumFirstPathFallback(t *testing.T) {
	p := NewParser(WithEnumConverter(genreConverter()))

	q, err := p.ParseSelect("FROM Movie WHERE genre = Genre.ACTION", "")
	require.NoError(t, err)
	assert.Equal(t, query.NewEnum(genre("ACTION")), q.Where.Value)

	q, err = p.ParseSelect("FROM Movie WHERE genre = Genre.DRAMA", "")
	require.NoError(t, err)
	assert.Equal(t, query.NewPath("Genre.DRAMA"), q.Where.Value)

	q, err = NewParser().ParseSelect("FROM Movie WHERE genre = Genre.ACTION", "")
	require.NoError(t, err)
	assert.Equal(t, query.NewPath("Genre.ACTION"), q.Where.Value)
}

func TestParseSelect_Precedence(t *testing.T) {
	q := mustSelect(t, "FROM P WHERE a = 1 OR b = 2 AND NOT c = 3")

	require.Equal(t, query.Or, q.Where.Operator)
	or := q.Where.Children()
	require.Len(t, or, 2)
	assert.Equal(t, "a", or[0].Name)
	require.Equal(t, query.And, or[1].Operator)
	and := or[1].Children()
	require.Len(t, and, 2)
	assert.Equal(t, query.Not, and[1].Operator)
	assert.Equal(t, "c", and[1].Children()[0].Name)
}

func TestParseSelect_ParenthesizedConditions(t *testing.T) {
	q := mustSelect(t, "FROM P WHERE (a = 1 OR b = 2) AND c = 3")

	require.Equal(t, query.And, q.Where.Operator)
	and := q.Where.Children()
	require.Len(t, and, 2)
	assert.Equal(t, query.Or, and[0].Operator)
}

func TestParseSelect_FlattensChains(t *testing.T) {
	q := mustSelect(t, "FROM P WHERE a = 1 AND b = 2 AND c = 3")
	assert.Len(t, q.Where.Children(), 3)
}

func TestParseSelect_Operators(t *testing.T) {
	tests := []struct {
		where string
		op    query.Operator
		value query.Value
	}{
		{"a >= 1", query.GreaterEqualsThan, query.NewInt(1)},
		{"a < 1", query.LesserThan, query.NewInt(1)},
		{"a <= 1.5", query.LesserEqualsThan, query.NewFloat(1.5)},
		{"a LIKE 'A%'", query.Like, query.NewString("A%")},
		{"a IN (1, 2, 3)", query.In, query.NewArray(query.NewInt(1), query.NewInt(2), query.NewInt(3))},
		{"a IN :ids", query.In, query.NewParam("ids")},
		{"a BETWEEN 1 AND 10", query.Between, query.NewArray(query.NewInt(1), query.NewInt(10))},
		{"a = b", query.Equals, query.NewPath("b")},
		{"a = NULL", query.Equals, query.NullValue{}},
	}
	for _, tt := range tests {
		t.Run(tt.where, func(t *testing.T) {
			q := mustSelect(t, "FROM P WHERE "+tt.where)
			assert.Equal(t, tt.op, q.Where.Operator)
			assert.True(t, query.Equal(tt.value, q.Where.Value), "got %s", q.Where.Value)
		})
	}
}

func TestParseSelect_NegatedOperators(t *testing.T) {
	tests := []struct {
		where string
		op    query.Operator
	}{
		{"a <> 1", query.Equals},
		{"a != 1", query.Equals},
		{"a NOT LIKE 'x%'", query.Like},
		{"a NOT IN (1)", query.In},
		{"a NOT BETWEEN 1 AND 2", query.Between},
		{"a IS NOT NULL", query.Equals},
	}
	for _, tt := range tests {
		t.Run(tt.where, func(t *testing.T) {
			q := mustSelect(t, "FROM P WHERE "+tt.where)
			require.Equal(t, query.Not, q.Where.Operator)
			assert.Equal(t, tt.op, q.Where.Children()[0].Operator)
		})
	}
}

func TestParseSelect_BetweenInsideAnd(t *testing.T) {
	q := mustSelect(t, "FROM P WHERE age BETWEEN 10 AND 20 AND name = 'x'")

	require.Equal(t, query.And, q.Where.Operator)
	children := q.Where.Children()
	require.Len(t, children, 2)
	assert.Equal(t, query.Between, children[0].Operator)
	assert.Equal(t, "name", children[1].Name)
}

func TestParseSelect_Functions(t *testing.T) {
	q := mustSelect(t, "FROM P WHERE name = UPPER(LEFT(nick, 3))")

	fv, ok := q.Where.Value.(query.FunctionValue)
	require.True(t, ok)
	assert.Equal(t, query.FuncUpper, fv.Function().Name)
	inner, ok := fv.Function().Params[0].(query.FunctionValue)
	require.True(t, ok)
	assert.Equal(t, query.FuncLeft, inner.Function().Name)
	assert.Equal(t, query.NewPath("nick"), inner.Function().Params[0])
	assert.Equal(t, query.NewInt(3), inner.Function().Params[1])
}

func TestParseSelect_UnknownFunction(t *testing.T) {
	_, err := NewParser().ParseSelect("FROM P WHERE a = SQRT(4)", "")
	require.Error(t, err)
	assert.Equal(t, query.ErrCodeUnknownFunction, query.CodeOf(err))
	assert.Contains(t, err.Error(), "SQRT")
}

func TestParseSelect_ParenthesizedScalarUnwrapped(t *testing.T) {
	q := mustSelect(t, "FROM P WHERE a = ((5))")
	assert.Equal(t, query.NewInt(5), q.Where.Value)

	q = mustSelect(t, "FROM P WHERE a = ABS((b))")
	fv := q.Where.Value.(query.FunctionValue)
	assert.Equal(t, query.NewPath("b"), fv.Function().Params[0])
}

func TestParseSelect_ArithmeticCapturedAsText(t *testing.T) {
	q := mustSelect(t, "FROM P WHERE total > price * 2 + tax")
	assert.Equal(t, query.NewPath("price*2+tax"), q.Where.Value)
}

func TestParseSelect_ProjectionSortPagination(t *testing.T) {
	q := mustSelect(t, "SELECT name, age FROM Person WHERE age > 18 ORDER BY name ASC, age DESC, id SKIP 10 LIMIT 5")

	assert.Equal(t, []string{"name", "age"}, q.Fields)
	assert.Equal(t, []query.Sort{
		{Property: "name", Ascending: true},
		{Property: "age", Ascending: false},
		{Property: "id", Ascending: true},
	}, q.Sorts)
	assert.Equal(t, int64(10), q.Skip)
	assert.Equal(t, int64(5), q.Limit)

	q = mustSelect(t, "FROM Person LIMIT 3 SKIP 1")
	assert.Equal(t, int64(1), q.Skip)
	assert.Equal(t, int64(3), q.Limit)
	assert.Nil(t, q.Where)
}

func TestParseSelect_Count(t *testing.T) {
	for _, text := range []string{"SELECT COUNT(THIS) FROM Person", "select count(*) from Person WHERE age > 1"} {
		q := mustSelect(t, text)
		assert.True(t, q.Count, text)
		assert.Equal(t, "Person", q.Entity)
	}
}

func TestParseSelect_EntityOverride(t *testing.T) {
	p := NewParser()

	q, err := p.ParseSelect("WHERE age > 18", "Person")
	require.NoError(t, err)
	assert.Equal(t, "Person", q.Entity)

	q, err = p.ParseSelect("FROM Book", "Person")
	require.NoError(t, err)
	assert.Equal(t, "Book", q.Entity)

	_, err = p.ParseSelect("WHERE age > 18", "")
	require.Error(t, err)
	assert.True(t, query.IsUnsupported(err))
}

func TestParseSelect_Errors(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		fragment string
	}{
		{"trailing garbage", "FROM P WHERE a = 1 extra", "extra"},
		{"missing operator", "FROM P WHERE a 1", "1"},
		{"function on left", "FROM P WHERE LOWER(a) = 'x'", "LOWER(a) = 'x'"},
		{"missing value", "FROM P WHERE a =", "<end of query>"},
		{"order without by", "FROM P ORDER name", "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := NewParser().ParseSelect(tt.text, "")
			require.Error(t, err)
			assert.Nil(t, q)
			assert.True(t, query.IsUnsupported(err))

			var qe *query.Error
			require.True(t, errors.As(err, &qe))
			assert.Equal(t, tt.fragment, qe.Field)
			assert.Equal(t, tt.text, qe.Query)
		})
	}
}

func TestParseSelect_EmptyText(t *testing.T) {
	_, err := NewParser().ParseSelect("   ", "Person")
	require.Error(t, err)
	assert.True(t, query.IsNilArgument(err))
}

func TestParseDelete(t *testing.T) {
	p := NewParser()

	q, err := p.ParseDelete("DELETE FROM Person WHERE age < :age")
	require.NoError(t, err)
	assert.Equal(t, "Person", q.Entity)
	assert.Equal(t, []string{"age"}, q.Params())

	q, err = p.ParseDelete("DELETE name, age FROM Person")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age"}, q.Fields)
	assert.Nil(t, q.Where)

	_, err = p.ParseDelete("FROM Person")
	require.Error(t, err)
}

func TestParseUpdate(t *testing.T) {
	q, err := NewParser().ParseUpdate("UPDATE Person SET age = :age, name = 'Ada' WHERE id = 1")
	require.NoError(t, err)

	assert.Equal(t, "Person", q.Entity)
	require.Len(t, q.Set, 2)
	assert.Equal(t, query.UpdateItem{Name: "age", Value: query.NewParam("age")}, q.Set[0])
	assert.Equal(t, query.UpdateItem{Name: "name", Value: query.NewString("Ada")}, q.Set[1])
	require.NotNil(t, q.Where)
}

func TestParseKeyValue(t *testing.T) {
	p := NewParser()

	get, err := p.ParseGet("get @id")
	require.NoError(t, err)
	assert.Equal(t, []query.Value{query.NewParam("id")}, get.Keys)

	del, err := p.ParseDel(`DEL "a", "b"`)
	require.NoError(t, err)
	assert.Equal(t, []query.Value{query.NewString("a"), query.NewString("b")}, del.Keys)

	put, err := p.ParsePut(`PUT {"k", 12, 10 seconds}`)
	require.NoError(t, err)
	assert.Equal(t, query.NewString("k"), put.Key)
	assert.Equal(t, query.NewInt(12), put.Value)
	assert.Equal(t, 10*time.Second, put.TTL)

	_, err = p.ParsePut(`PUT {"k", 1, 3 fortnights}`)
	require.Error(t, err)

	put, err = p.ParsePut(`PUT {"k", 1, 106751 DAYS}`)
	require.NoError(t, err)
	assert.Equal(t, 106751*24*time.Hour, put.TTL)

	for _, text := range []string{
		`PUT {"k", 1, 200000 DAYS}`,
		`PUT {"k", 1, 9223372036854775807 SECONDS}`,
	} {
		_, err = p.ParsePut(text)
		require.Error(t, err, text)
		assert.Equal(t, query.ErrCodeUnsupported, query.CodeOf(err), text)
		assert.Contains(t, err.Error(), "duration out of range")
	}
}
