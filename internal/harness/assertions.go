package harness

import (
	"context"
	"fmt"
	"reflect"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/manager"
)

// checkExpect compares a step outcome with its expectation and returns one
// message per mismatch. A step without expect must succeed.
func checkExpect(index int, step Step, rows []manager.Entity, affected int64, err error) []string {
	exp := step.Expect
	if exp == nil {
		if err != nil {
			return []string{fmt.Sprintf("step %d (%s): unexpected error: %v", index, step.Query, err)}
		}
		return nil
	}

	if exp.Error != "" {
		switch {
		case err == nil:
			return []string{fmt.Sprintf("step %d (%s): expected error %s, got success", index, step.Query, exp.Error)}
		case errorCode(err) != exp.Error:
			return []string{fmt.Sprintf("step %d (%s): expected error %s, got %s", index, step.Query, exp.Error, errorCode(err))}
		}
		return nil
	}
	if err != nil {
		return []string{fmt.Sprintf("step %d (%s): unexpected error: %v", index, step.Query, err)}
	}

	var errs []string
	if exp.Count != nil && len(rows) != *exp.Count {
		errs = append(errs, fmt.Sprintf("step %d (%s): expected %d rows, got %d", index, step.Query, *exp.Count, len(rows)))
	}
	if exp.IDs != nil {
		got := make([]any, 0, len(rows))
		for _, row := range rows {
			id, _ := row.ID()
			got = append(got, id)
		}
		if !valuesEqual(normalize(exp.IDs), got) {
			errs = append(errs, fmt.Sprintf("step %d (%s): expected ids %v, got %v", index, step.Query, exp.IDs, got))
		}
	}
	if exp.Rows != nil {
		if len(exp.Rows) != len(rows) {
			errs = append(errs, fmt.Sprintf("step %d (%s): expected %d rows, got %d", index, step.Query, len(exp.Rows), len(rows)))
		} else {
			for i, want := range exp.Rows {
				if field, ok := matchFields(want, rows[i]); !ok {
					errs = append(errs, fmt.Sprintf("step %d (%s): row %d field %q mismatch", index, step.Query, i, field))
				}
			}
		}
	}
	if exp.Affected != nil && affected != *exp.Affected {
		errs = append(errs, fmt.Sprintf("step %d (%s): expected %d affected, got %d", index, step.Query, *exp.Affected, affected))
	}
	return errs
}

// EvaluateAssertions runs every assertion through h in direct mode and
// returns one message per failure.
func EvaluateAssertions(ctx context.Context, h *Harness, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(ctx, h, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}
	return errs
}

func evaluateAssertion(ctx context.Context, h *Harness, a Assertion) error {
	rows, _, err := h.runDirect(ctx, Step{Query: a.Query})
	if err != nil {
		return fmt.Errorf("query %q failed: %w", a.Query, err)
	}

	switch a.Type {
	case AssertCount:
		if len(rows) != a.Count {
			return fmt.Errorf("expected %d rows, got %d", a.Count, len(rows))
		}
	case AssertContains:
		for _, row := range rows {
			if _, ok := matchFields(a.Fields, row); ok {
				return nil
			}
		}
		return fmt.Errorf("no row of %q matches %v", a.Query, a.Fields)
	case AssertAbsent:
		if len(rows) > 0 {
			return fmt.Errorf("expected no rows, got %d", len(rows))
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// matchFields reports whether every expected field (dotted paths allowed)
// equals the entity's value. On mismatch it returns the failing field.
func matchFields(want map[string]any, row manager.Entity) (string, bool) {
	for field, expected := range want {
		got, ok := row.Get(field)
		if !ok || !valuesEqual(normalize(expected), normalize(got)) {
			return field, false
		}
	}
	return "", true
}

// valuesEqual compares normalized values; integers and floats compare by
// numeric value.
func valuesEqual(a, b any) bool {
	if x, ok := toFloat(a); ok {
		y, ok := toFloat(b)
		return ok && x == y
	}
	switch av := a.(type) {
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valuesEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			if !valuesEqual(v, bv[k]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
