package harness

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/manager"
	"github.com/eclipse-jnosql/jnosql-sub003/internal/query"
)

func TestCheckExpect(t *testing.T) {
	ada := manager.NewEntity("Person", map[string]any{"id": "p2", "name": "Ada", "address": map[string]any{"city": "London"}})

	tests := []struct {
		name     string
		step     Step
		rows     []manager.Entity
		affected int64
		err      error
		failures int
	}{
		{name: "no expect success", step: Step{Query: "q"}},
		{name: "no expect error", step: Step{Query: "q"}, err: errors.New("boom"), failures: 1},
		{
			name: "expected code",
			step: Step{Query: "q", Expect: &Expect{Error: "MISSING_PARAMETER"}},
			err:  query.NewMissingParameterError("name"),
		},
		{
			name:     "wrong code",
			step:     Step{Query: "q", Expect: &Expect{Error: "MISSING_PARAMETER"}},
			err:      query.NewNonUniqueResultError(2),
			failures: 1,
		},
		{
			name:     "expected error got success",
			step:     Step{Query: "q", Expect: &Expect{Error: "MISSING_PARAMETER"}},
			failures: 1,
		},
		{
			name: "dotted row field",
			step: Step{Query: "q", Expect: &Expect{Rows: []map[string]any{{"address.city": "London"}}}},
			rows: []manager.Entity{ada},
		},
		{
			name:     "row count differs",
			step:     Step{Query: "q", Expect: &Expect{Rows: []map[string]any{{"name": "Ada"}, {"name": "Alan"}}}},
			rows:     []manager.Entity{ada},
			failures: 1,
		},
		{
			name:     "ids and count both fail",
			step:     Step{Query: "q", Expect: &Expect{IDs: []any{"p1"}, Count: intPtr(2)}},
			rows:     []manager.Entity{ada},
			failures: 2,
		},
		{
			name:     "affected",
			step:     Step{Query: "q", Expect: &Expect{Affected: int64Ptr(3)}},
			affected: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checkExpect(0, tt.step, tt.rows, tt.affected, tt.err)
			assert.Len(t, got, tt.failures, got)
		})
	}
}

func TestMatchFields(t *testing.T) {
	row := manager.NewEntity("Person", map[string]any{"name": "Ada", "age": int64(36)})

	_, ok := matchFields(map[string]any{"name": "Ada", "age": 36}, row)
	assert.True(t, ok)

	field, ok := matchFields(map[string]any{"city": "London"}, row)
	assert.False(t, ok)
	assert.Equal(t, "city", field)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "PARAMETER_GUARD", errorCode(query.NewParameterGuardError("q", []string{"a"})))
	assert.Equal(t, "boom", errorCode(errors.New("boom")))
}
