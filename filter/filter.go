// Package filter decides, with an optional expr-lang expression, which
// matched titles may be requested.
//
// Expressions see the fields Title, ExternalID, Rank, Year and TMDBID, plus the
// helpers contains, startsWith, endsWith, lower, upper, yearsAgo and now:
//
//	Rank <= 20 and Year >= yearsAgo(2) and not contains(Title, "concert")
package filter

import (
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Filter is a compiled request filter. The zero value and a nil *Filter allow everything.
type Filter struct {
	expression string
	program    *vm.Program
}

// Compile compiles an expression. An empty expression yields a filter that allows everything.
func Compile(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return &Filter{}, nil
	}

	program, err := expr.Compile(expression,
		expr.Env(environment(Candidate{})),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	return &Filter{
		expression: expression,
		program:    program,
	}, nil
}

// Allow reports whether the candidate may be requested.
// A failed evaluation returns false with an *EvaluationError.
func (f *Filter) Allow(c Candidate) (bool, error) {
	if f == nil || f.program == nil {
		return true, nil
	}

	result, err := expr.Run(f.program, environment(c))
	if err != nil {
		return false, &EvaluationError{
			Expression: f.expression,
			Title:      c.Title,
			Err:        err,
		}
	}

	// Result is guaranteed to be bool due to AsBool() option during compilation
	return result.(bool), nil
}

// Expression returns the original expression
func (f *Filter) Expression() string {
	if f == nil {
		return ""
	}
	return f.expression
}
