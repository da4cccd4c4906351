package translate

import (
	"fmt"
	"math"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/query"
)

// FoldFunc evaluates a builtin over literal arguments. Arguments are
// normalized: strings, int64, float64, bool or nil.
type FoldFunc func(args []any) (any, error)

// DefaultFunctions returns a fresh table of the builtin evaluators.
// Casers are stateful, so LOWER and UPPER build one per call.
func DefaultFunctions() map[query.FunctionName]FoldFunc {
	return map[query.FunctionName]FoldFunc{
		query.FuncAbs: foldAbs,
		query.FuncLength: func(args []any) (any, error) {
			return withString(query.FuncLength, args[0], func(s string) any {
				return int64(utf8.RuneCountInString(s))
			})
		},
		query.FuncLower: func(args []any) (any, error) {
			return withString(query.FuncLower, args[0], func(s string) any { return cases.Lower(language.Und).String(s) })
		},
		query.FuncUpper: func(args []any) (any, error) {
			return withString(query.FuncUpper, args[0], func(s string) any { return cases.Upper(language.Und).String(s) })
		},
		query.FuncLeft: func(args []any) (any, error) {
			return substring(query.FuncLeft, args, func(r []rune, n int) []rune { return r[:n] })
		},
		query.FuncRight: func(args []any) (any, error) {
			return substring(query.FuncRight, args, func(r []rune, n int) []rune { return r[len(r)-n:] })
		},
	}
}

func foldAbs(args []any) (any, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case int64:
		if v == math.MinInt64 {
			return nil, query.NewInvalidValueError(string(query.FuncAbs), fmt.Sprintf("%d has no int64 absolute value", v))
		}
		if v < 0 {
			return -v, nil
		}
		return v, nil
	case float64:
		return math.Abs(v), nil
	default:
		return nil, argumentError(query.FuncAbs, "a number", v)
	}
}

func withString(fn query.FunctionName, arg any, f func(string) any) (any, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case string:
		return f(v), nil
	default:
		return nil, argumentError(fn, "a string", v)
	}
}

func substring(fn query.FunctionName, args []any, cut func([]rune, int) []rune) (any, error) {
	if args[0] == nil {
		return nil, nil
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, argumentError(fn, "a string", args[0])
	}
	n, ok := args[1].(int64)
	if !ok || n < 0 {
		return nil, argumentError(fn, "a non-negative integer length", args[1])
	}
	r := []rune(s)
	if int(n) > len(r) {
		n = int64(len(r))
	}
	return string(cut(r, int(n))), nil
}

func argumentError(fn query.FunctionName, want string, got any) error {
	return query.NewInvalidValueError(string(fn), fmt.Sprintf("expected %s, got %T", want, got))
}
