package query

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnd_Flattens(t *testing.T) {
	a := NewCondition("a", Equals, NewInt(1))
	b := NewCondition("b", Equals, NewInt(2))
	c := NewCondition("c", Equals, NewInt(3))

	and := NewAnd(NewAnd(a, b), c)

	assert.Equal(t, And, and.Operator)
	assert.Equal(t, AndName, and.Name)
	require.Len(t, and.Children(), 3)
	assert.True(t, and.Children()[2].Equal(c))
}

func TestNewOr_KeepsNestedAnd(t *testing.T) {
	a := NewCondition("a", Equals, NewInt(1))
	b := NewCondition("b", Equals, NewInt(2))
	c := NewCondition("c", Equals, NewInt(3))

	or := NewOr(a, NewAnd(b, c))

	require.Len(t, or.Children(), 2)
	assert.Equal(t, And, or.Children()[1].Operator)
}

func TestNewNot_WrapsOne(t *testing.T) {
	a := NewCondition("a", Equals, NewInt(1))
	not := NewNot(a)

	assert.Equal(t, NotName, not.Name)
	require.Len(t, not.Children(), 1)
	assert.Equal(t, "NOT(a EQUALS 1)", not.String())
}

func TestQueryParams_FirstReferenceOrder(t *testing.T) {
	where := NewAnd(
		NewCondition("name", Equals, NewParam("name")),
		NewCondition("age", Between, NewArray(NewParam("min"), NewParam("max"))),
		NewCondition("nick", Equals, NewParam("name")),
	)
	q := &SelectQuery{Entity: "Person", Where: &where}

	assert.Equal(t, []string{"name", "min", "max"}, q.Params())
	assert.Empty(t, (&SelectQuery{Entity: "Person"}).Params())
}

func TestUpdateQueryParams_SetFirst(t *testing.T) {
	where := NewCondition("id", Equals, NewParam("id"))
	q := &UpdateQuery{
		Entity: "Person",
		Set:    []UpdateItem{{Name: "age", Value: NewParam("age")}},
		Where:  &where,
	}
	assert.Equal(t, []string{"age", "id"}, q.Params())
}

func TestErrorClassification(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewMissingParameterError("id"))

	assert.True(t, IsMissingParameter(err))
	assert.False(t, IsParameterGuard(err))
	assert.Contains(t, err.Error(), "param=id")

	var qe *Error
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, "select", qe.WithQuery("select").Query)
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
}
