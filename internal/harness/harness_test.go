package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func personSeed() []SeedEntity {
	return []SeedEntity{
		{Entity: "Person", Fields: map[string]any{"id": "p1", "name": "Otavio", "age": 40}},
		{Entity: "Person", Fields: map[string]any{"id": "p2", "name": "Ada", "age": 36}},
	}
}

func intPtr(n int) *int       { return &n }
func int64Ptr(n int64) *int64 { return &n }

func TestRun_DirectAndPrepared(t *testing.T) {
	scenario := &Scenario{
		Name:        "direct_and_prepared",
		Description: "A direct select then a prepared one",
		Seed:        personSeed(),
		Steps: []Step{
			{Query: "Person WHERE name = 'Ada'", Expect: &Expect{IDs: []any{"p2"}}},
			{Query: "Person WHERE age > :age", Params: map[string]any{"age": 38}, Expect: &Expect{Count: intPtr(1)}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	require.Len(t, result.Trace, 2)

	assert.Equal(t, ModeDirect, result.Trace[0].Mode)
	assert.Equal(t, int64(1), result.Trace[0].Seq)
	assert.Equal(t, []any{"p2"}, result.Trace[0].IDs)

	assert.Equal(t, ModePrepared, result.Trace[1].Mode)
	assert.Equal(t, int64(2), result.Trace[1].Seq)
	assert.Equal(t, map[string]any{"age": int64(38)}, result.Trace[1].Params)
	assert.Equal(t, []any{"p1"}, result.Trace[1].IDs)
}

func TestRun_GuardDoesNotAdvanceSequence(t *testing.T) {
	scenario := &Scenario{
		Name:        "guard",
		Description: "Parameters in direct mode",
		Seed:        personSeed(),
		Steps: []Step{
			{Query: "Person WHERE name = :name", Expect: &Expect{Error: "PARAMETER_GUARD"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, int64(0), result.Trace[0].Seq)
	assert.Equal(t, "PARAMETER_GUARD", result.Trace[0].Error)
}

func TestRun_UnexpectedErrorFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "unexpected",
		Description: "Step without expect fails on error",
		Steps:       []Step{{Query: "Person WHERE name == 'x'"}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unexpected error")
	assert.Equal(t, "UNSUPPORTED_SYNTAX", result.Trace[0].Error)
}

func TestRun_ExpectationMismatches(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "Every expectation kind fails",
		Seed:        personSeed(),
		Steps: []Step{
			{Query: "FROM Person", Expect: &Expect{Count: intPtr(5)}},
			{Query: "FROM Person ORDER BY name", Expect: &Expect{IDs: []any{"p1", "p2"}}},
			{Query: "Person WHERE name = 'Ada'", Expect: &Expect{Rows: []map[string]any{{"age": 37}}}},
			{Query: "DELETE FROM Person WHERE age > 100", Expect: &Expect{Affected: int64Ptr(1)}},
			{Query: "FROM Person", Expect: &Expect{Error: "PARAMETER_GUARD"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 5)
}

func TestRun_Single(t *testing.T) {
	scenario := &Scenario{
		Name:        "single",
		Description: "Single results in both modes",
		Seed:        personSeed(),
		Steps: []Step{
			{Query: "FROM Person", Single: true, Expect: &Expect{Error: "NON_UNIQUE_RESULT"}},
			{Query: "Person WHERE name = 'Grace'", Single: true, Expect: &Expect{Count: intPtr(0)}},
			{Query: "Person WHERE age > :age", Params: map[string]any{"age": 1}, Single: true, Expect: &Expect{Error: "NON_UNIQUE_RESULT"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_Assertions(t *testing.T) {
	scenario := &Scenario{
		Name:        "assertions",
		Description: "Final state checks",
		Seed:        personSeed(),
		Steps:       []Step{{Query: "DELETE FROM Person WHERE name = 'Otavio'"}},
		Assertions: []Assertion{
			{Type: AssertCount, Query: "FROM Person", Count: 1},
			{Type: AssertContains, Query: "FROM Person", Fields: map[string]any{"name": "Ada", "age": 36}},
			{Type: AssertAbsent, Query: "Person WHERE name = 'Otavio'"},
			{Type: AssertContains, Query: "FROM Person", Fields: map[string]any{"name": "Otavio"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "assertion 3 (contains)")
}

func TestRun_BadMappings(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad_mappings",
		Description: "Mapping directory does not exist",
		Mappings:    "testdata/does-not-exist",
		Steps:       []Step{{Query: "FROM Person"}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load mappings")
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/person_queries.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)
	assert.Equal(t, first.Trace, second.Trace)
}

func TestRun_FieldFunctionsOnBothBackends(t *testing.T) {
	for _, backend := range []string{"memory", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			scenario := &Scenario{
				Name:    "lower_" + backend,
				Backend: backend,
				Seed: []SeedEntity{
					{Entity: "Person", Fields: map[string]any{"id": "p1", "name": "ada", "nick": "ADA"}},
					{Entity: "Person", Fields: map[string]any{"id": "p2", "name": "Alan", "nick": "ALAN"}},
				},
				Steps: []Step{
					{Query: "Person WHERE name = LOWER(nick)", Expect: &Expect{IDs: []any{"p1"}}},
					{Query: "UPDATE Person SET name = LOWER(nick)", Expect: &Expect{Affected: int64Ptr(2)}},
					{Query: "Person WHERE name = LOWER(nick) ORDER BY id", Expect: &Expect{IDs: []any{"p1", "p2"}}},
				},
			}

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestValuesEqual(t *testing.T) {
	assert.True(t, valuesEqual(int64(3), float64(3)))
	assert.True(t, valuesEqual([]any{int64(1), "a"}, []any{float64(1), "a"}))
	assert.True(t, valuesEqual(map[string]any{"n": int64(1)}, map[string]any{"n": float64(1)}))
	assert.False(t, valuesEqual(int64(1), "1"))
	assert.False(t, valuesEqual([]any{int64(1)}, []any{int64(1), int64(2)}))
	assert.False(t, valuesEqual(map[string]any{"n": int64(1)}, map[string]any{"m": int64(1)}))
}

func TestNormalize_Recursive(t *testing.T) {
	got := normalize(map[string]any{"a": []any{1, map[string]any{"b": 2}}})
	assert.Equal(t, map[string]any{"a": []any{int64(1), map[string]any{"b": int64(2)}}}, got)
}
