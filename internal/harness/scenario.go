package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/config"
)

// Scenario is a query conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario; it names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Backend is "memory" (default) or "sqlite".
	Backend string `yaml:"backend,omitempty"`

	// Mappings is an optional CUE mapping directory.
	Mappings string `yaml:"mappings,omitempty"`

	// Seed entities are inserted before the first step.
	Seed []SeedEntity `yaml:"seed,omitempty"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// SeedEntity is an entity inserted before the steps run.
type SeedEntity struct {
	Entity string         `yaml:"entity"`
	Fields map[string]any `yaml:"fields"`
}

// Step executes one query.
type Step struct {
	Query string `yaml:"query"`

	// Entity is the default entity for selects that omit FROM.
	Entity string `yaml:"entity,omitempty"`

	// Params are bound by name; their presence selects prepared mode.
	Params map[string]any `yaml:"params,omitempty"`

	// Prepared forces prepared mode for a query without params.
	Prepared bool `yaml:"prepared,omitempty"`

	// Single asks for at most one row.
	Single bool `yaml:"single,omitempty"`

	// Expect validates the step. Nil means the step must not fail.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes the expected outcome of a step.
type Expect struct {
	// Count is the expected number of rows.
	Count *int `yaml:"count,omitempty"`

	// IDs are the expected row ids, in order.
	IDs []any `yaml:"ids,omitempty"`

	// Rows are matched against the returned rows in order (subset match).
	Rows []map[string]any `yaml:"rows,omitempty"`

	// Affected is the expected delete/update count.
	Affected *int64 `yaml:"affected,omitempty"`

	// Error is the expected error code, e.g. PARAMETER_GUARD.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates final state through a query.
type Assertion struct {
	// Type is count, contains or absent.
	Type string `yaml:"type"`

	// Query is a direct-mode select.
	Query string `yaml:"query"`

	// Count is the expected number of rows (count).
	Count int `yaml:"count,omitempty"`

	// Fields must all match one row (contains).
	Fields map[string]any `yaml:"fields,omitempty"`
}

// Assertion type constants.
const (
	AssertCount    = "count"
	AssertContains = "contains"
	AssertAbsent   = "absent"
)

// LoadScenario reads and parses a scenario YAML file. The mappings path is
// resolved relative to the file. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Mappings != "" && !filepath.IsAbs(scenario.Mappings) {
		scenario.Mappings = filepath.Join(filepath.Dir(path), scenario.Mappings)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	switch s.Backend {
	case "", config.BackendMemory, config.BackendSQLite:
	default:
		return fmt.Errorf("unsupported backend %q", s.Backend)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, seed := range s.Seed {
		if seed.Entity == "" {
			return fmt.Errorf("seed[%d]: entity is required", i)
		}
	}
	for i, step := range s.Steps {
		if step.Query == "" {
			return fmt.Errorf("steps[%d]: query is required", i)
		}
		if step.Expect != nil && step.Expect.Error != "" &&
			(step.Expect.Count != nil || step.Expect.IDs != nil || step.Expect.Rows != nil || step.Expect.Affected != nil) {
			return fmt.Errorf("steps[%d].expect: error cannot be combined with other expectations", i)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Query == "" {
		return fmt.Errorf("assertions[%d]: query is required", index)
	}
	switch a.Type {
	case AssertCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertContains:
		if len(a.Fields) == 0 {
			return fmt.Errorf("assertions[%d]: fields is required for contains", index)
		}
	case AssertAbsent:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
