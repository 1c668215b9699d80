package dataset

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// Filter keeps rows for which a CEL expression evaluates to true.
//
// Expressions see WhiteElo, BlackElo and WhiteRatingDiff as doubles,
// MoveCount as an int, and Opening, ECO, Event, TimeControl and Result as
// strings, e.g. `MoveCount >= 20 && Result != "1/2-1/2"`.
type Filter struct {
	expr    string
	program cel.Program
}

func filterEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("WhiteElo", cel.DoubleType),
		cel.Variable("BlackElo", cel.DoubleType),
		cel.Variable("WhiteRatingDiff", cel.DoubleType),
		cel.Variable("MoveCount", cel.IntType),
		cel.Variable("Opening", cel.StringType),
		cel.Variable("ECO", cel.StringType),
		cel.Variable("Event", cel.StringType),
		cel.Variable("TimeControl", cel.StringType),
		cel.Variable("Result", cel.StringType),
	)
}

// NewFilter compiles expr. The expression must be boolean.
func NewFilter(expr string) (*Filter, error) {
	env, err := filterEnv()
	if err != nil {
		return nil, err
	}
	ast, iss := env.Parse(expr)
	if iss.Err() != nil {
		return nil, fmt.Errorf("filter %q: %w", expr, iss.Err())
	}
	checked, iss := env.Check(ast)
	if iss.Err() != nil {
		return nil, fmt.Errorf("filter %q: %w", expr, iss.Err())
	}
	if !checked.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("filter %q: result is %s, want bool", expr, checked.OutputType())
	}
	prg, err := env.Program(checked)
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", expr, err)
	}
	return &Filter{expr: expr, program: prg}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	return f.expr
}

// Match evaluates the filter on one row.
func (f *Filter) Match(m Match) (bool, error) {
	out, _, err := f.program.Eval(m.vars())
	if err != nil {
		return false, fmt.Errorf("filter %q: %w", f.expr, err)
	}
	v, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter %q: non-bool result %v", f.expr, out.Value())
	}
	return v, nil
}

// Apply returns the rows that match. A nil filter keeps everything.
func (f *Filter) Apply(ms []Match) ([]Match, error) {
	if f == nil {
		return ms, nil
	}
	out := ms[:0:0]
	for _, m := range ms {
		ok, err := f.Match(m)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoRows
	}
	return out, nil
}
