package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decode unmarshals a JSON CLI response whose data has type T.
func decode[T any](t *testing.T, out string) (CLIResponse, T) {
	t.Helper()
	var raw struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), out)

	var data T
	if len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, &data))
	}
	return CLIResponse{Status: raw.Status, Error: raw.Error}, data
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jdql.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseCommand_Text(t *testing.T) {
	out, err := execute(t, "parse", "FROM Person WHERE age > :age ORDER BY name DESC LIMIT 5")
	require.NoError(t, err)
	assert.Contains(t, out, "dialect: SELECT")
	assert.Contains(t, out, "entity: Person")
	assert.Contains(t, out, "sorts: name DESC")
	assert.Contains(t, out, "limit: 5")
	assert.Contains(t, out, "params: age")
}

func TestParseCommand_DefaultEntity(t *testing.T) {
	out, err := execute(t, "parse", "WHERE name = 'Ada'", "--entity", "Person", "--format", "json")
	require.NoError(t, err)
	resp, parsed := decode[ParsedQuery](t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "Person", parsed.Entity)
}

func TestParseCommand_KeyValueDialects(t *testing.T) {
	out, err := execute(t, "parse", "PUT {'session', 'abc', 10 second}", "--format", "json")
	require.NoError(t, err)
	_, parsed := decode[ParsedQuery](t, out)
	assert.Equal(t, "PUT", parsed.Dialect)
	assert.Equal(t, []string{`"session"`}, parsed.Keys)
	assert.Equal(t, `"abc"`, parsed.Value)
	assert.Equal(t, "10s", parsed.TTL)

	out, err = execute(t, "parse", "GET 'a', :b", "--format", "json")
	require.NoError(t, err)
	_, parsed = decode[ParsedQuery](t, out)
	assert.Equal(t, "GET", parsed.Dialect)
	assert.Len(t, parsed.Keys, 2)
	assert.Equal(t, []string{"b"}, parsed.Params)
}

func TestParseCommand_SyntaxError(t *testing.T) {
	out, err := execute(t, "parse", "Person WHERE name == 'x'")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [UNSUPPORTED_SYNTAX]")
}

func TestExplainCommand(t *testing.T) {
	out, err := execute(t, "explain", "FROM Person WHERE age > :age", "--format", "json")
	require.NoError(t, err)
	_, exp := decode[Explanation](t, out)
	assert.Equal(t, "SELECT", exp.Kind)
	assert.Equal(t, "SELECT * FROM Person WHERE age > :age", exp.Criteria)
	assert.Equal(t, []string{"age"}, exp.Params)
}

func TestExplainCommand_Mappings(t *testing.T) {
	mappings, err := filepath.Abs("../mapping/testdata/mappings")
	require.NoError(t, err)
	cfg := writeConfig(t, "mappings: "+mappings+"\n")

	out, err := execute(t, "explain", "FROM Person WHERE fullName = :n AND status = Status.ACTIVE", "--config", cfg, "--format", "json")
	require.NoError(t, err)
	_, exp := decode[Explanation](t, out)
	assert.Equal(t, `SELECT * FROM people WHERE (name = :n AND status = "ACTIVE")`, exp.Criteria)
}

func TestExplainCommand_BadConfig(t *testing.T) {
	cfg := writeConfig(t, "backend:\n  kind: mongo\n")

	_, err := execute(t, "explain", "FROM Person", "--config", cfg)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid config")
}

func TestExecCommand_Prepared(t *testing.T) {
	out, err := execute(t, "exec", "Person WHERE age > :age ORDER BY name",
		"--param", "age=37", "--seed", "testdata/people.yaml", "--format", "json")
	require.NoError(t, err)
	resp, result := decode[ExecResult](t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "SELECT", result.Kind)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "Alan", result.Rows[0]["name"])
	assert.Equal(t, "Otavio", result.Rows[1]["name"])
}

func TestExecCommand_InList(t *testing.T) {
	out, err := execute(t, "exec", "Person WHERE name IN :names ORDER BY name",
		"--param", "names=[Ada, Otavio]", "--seed", "testdata/people.yaml", "--format", "json")
	require.NoError(t, err)
	_, result := decode[ExecResult](t, out)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "Ada", result.Rows[0]["name"])
}

func TestExecCommand_DirectGuard(t *testing.T) {
	out, err := execute(t, "exec", "Person WHERE age > :age", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	resp, _ := decode[ExecResult](t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "PARAMETER_GUARD", resp.Error.Code)
	assert.Equal(t, "Person WHERE age > :age", resp.Error.Query)
}

func TestExecCommand_DirectDeleteText(t *testing.T) {
	out, err := execute(t, "exec", "DELETE FROM Person WHERE city = 'London'", "--seed", "testdata/people.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "2 affected")
}

func TestExecCommand_Single(t *testing.T) {
	_, err := execute(t, "exec", "FROM Person", "--single", "--seed", "testdata/people.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	out, err := execute(t, "exec", "Person WHERE name = :name", "--single",
		"--param", "name=Ada", "--seed", "testdata/people.yaml", "--format", "json")
	require.NoError(t, err)
	_, result := decode[ExecResult](t, out)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "p2", result.Rows[0]["id"])
}

func TestExecCommand_SQLitePersists(t *testing.T) {
	db := filepath.Join(t.TempDir(), "jdql.db")
	cfg := writeConfig(t, "backend:\n  kind: sqlite\n  path: "+db+"\n")

	_, err := execute(t, "exec", "SELECT COUNT(*) FROM Person", "--config", cfg, "--seed", "testdata/people.yaml")
	require.NoError(t, err)

	out, err := execute(t, "exec", "Person WHERE city = :city ORDER BY age", "--param", "city=London", "--config", cfg, "--format", "json")
	require.NoError(t, err)
	_, result := decode[ExecResult](t, out)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "Ada", result.Rows[0]["name"])
}

func TestExecCommand_BadParam(t *testing.T) {
	_, err := execute(t, "exec", "FROM Person", "--param", "age")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExecCommand_BadgerIsNotDocumentBackend(t *testing.T) {
	cfg := writeConfig(t, "backend:\n  kind: badger\n")
	_, err := execute(t, "exec", "FROM Person", "--config", cfg)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestParseParams(t *testing.T) {
	params, names, err := parseParams([]string{"b=2", "a=Ada", "c=[1, x]", "d=", "e=true"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, names)
	assert.Equal(t, "Ada", params["a"])
	assert.Equal(t, 2, params["b"])
	assert.Equal(t, []any{1, "x"}, params["c"])
	assert.Equal(t, "", params["d"])
	assert.Equal(t, true, params["e"])
}

func TestKVCommand_Memory(t *testing.T) {
	out, err := execute(t, "kv", "PUT {'greeting', 'hello'}", "GET 'greeting', 'missing'", "--format", "json")
	require.NoError(t, err)
	_, result := decode[struct {
		Statements []struct {
			Query  string `json:"query"`
			Values []any  `json:"values"`
		} `json:"statements"`
	}](t, out)
	require.Len(t, result.Statements, 2)
	assert.Empty(t, result.Statements[0].Values)
	assert.Equal(t, []any{"hello"}, result.Statements[1].Values)
}

func TestKVCommand_Params(t *testing.T) {
	out, err := execute(t, "kv", "PUT {:key, :value}", "GET :key", "--param", "key=k", "--param", "value=42")
	require.NoError(t, err)
	assert.Contains(t, out, "GET :key => [42]")
}

func TestKVCommand_MissingParam(t *testing.T) {
	out, err := execute(t, "kv", "GET :key")
	require.Error(t, err)
	assert.Contains(t, out, "Error [MISSING_PARAMETER]")
}

func TestKVCommand_BadgerPersists(t *testing.T) {
	cfg := writeConfig(t, "backend:\n  kind: badger\n  path: "+filepath.Join(t.TempDir(), "kv")+"\n")

	_, err := execute(t, "kv", "PUT {'n', 7}", "--config", cfg)
	require.NoError(t, err)

	out, err := execute(t, "kv", "GET 'n'", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "GET 'n' => [7]")
}

func TestTestCommand_HarnessScenarios(t *testing.T) {
	out, err := execute(t, "test", "../harness/testdata/scenarios")
	require.NoError(t, err)
	assert.Contains(t, out, "PASS person_queries")
	assert.Contains(t, out, "PASS field_functions_sqlite")
	assert.Contains(t, out, "5 passed, 0 failed, 5 total")
}

func TestTestCommand_FilterJSON(t *testing.T) {
	out, err := execute(t, "test", "../harness/testdata/scenarios", "--filter", "person*", "--format", "json")
	require.NoError(t, err)
	_, result := decode[TestResult](t, out)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, "person_queries", result.Scenarios[0].Name)
}

func TestTestCommand_Failure(t *testing.T) {
	dir := t.TempDir()
	scenario := `
name: failing
description: "Expects a row that is not there"
steps:
  - query: "FROM Person"
    expect:
      count: 1
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "failing.yaml"), []byte(scenario), 0644))

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "FAIL failing")
	assert.Contains(t, out, "expected 1 rows, got 0")
}

func TestTestCommand_NotFound(t *testing.T) {
	_, err := execute(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_Empty(t *testing.T) {
	out, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}
