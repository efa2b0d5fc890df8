package expression

import (
	"math"
	"strconv"

	"github.com/csvdb/csvdb/sql/ast"
	"github.com/csvdb/csvdb/sql/juliantime"
	"github.com/spf13/cast"
)

// evaluateArithmetic dispatches + - * / % ^, with date+days and
// datetime+seconds overloads: when the left operand parses as a date
// and the right as a plain integer, + and - shift the date/time
// instead of coercing both sides to numbers. Grounded on
// _examples/original_source/src/query/evaluate.c (evaluateOperatorNode
// arithmetic cases).
func evaluateArithmetic(n *ast.Node, ctx Context) (string, error) {
	left, err := argText(n, 0, ctx)
	if err != nil {
		return "", err
	}
	right, err := argText(n, 1, ctx)
	if err != nil {
		return "", err
	}

	if n.Function == ast.FuncAdd || n.Function == ast.FuncSub {
		if shifted, ok := dateArithmetic(n.Function, left, right, ctx); ok {
			return shifted, nil
		}
	}

	a, errA := cast.ToFloat64E(left)
	b, errB := cast.ToFloat64E(right)
	if errA != nil || errB != nil {
		return nullText, nil
	}

	var result float64
	switch n.Function {
	case ast.FuncAdd:
		result = a + b
	case ast.FuncSub:
		result = a - b
	case ast.FuncMul:
		result = a * b
	case ast.FuncDiv:
		if b == 0 {
			return nullText, nil
		}
		result = a / b
	case ast.FuncMod:
		if b == 0 {
			return nullText, nil
		}
		result = math.Mod(a, b)
	case ast.FuncPow:
		result = math.Pow(a, b)
	default:
		return "", errUnknownFunction.New(n.Function.String())
	}
	return formatNumber(result), nil
}

// dateArithmetic handles the date/datetime + days/seconds overload. The
// right operand must be a plain integer (not itself a date) for the
// overload to apply; otherwise the caller falls back to numeric +/-.
func dateArithmetic(fn ast.Function, left, right string, ctx Context) (string, bool) {
	amount, convErr := strconv.Atoi(right)
	if convErr != nil {
		return "", false
	}
	dt, ok := juliantime.Parse(left, ctx.Now())
	if !ok {
		return "", false
	}
	sign := 1
	if fn == ast.FuncSub {
		sign = -1
	}
	if juliantime.TimeInSeconds(dt) != 0 {
		return juliantime.FormatDateTime(juliantime.AddSeconds(dt, sign*amount)), true
	}
	return juliantime.FormatDate(juliantime.AddDays(dt, sign*amount)), true
}

// formatNumber renders a float64 as an integer when it has no
// fractional part, matching the text-based cell representation the
// rest of the engine expects.
func formatNumber(v float64) string {
	if v == math.Trunc(v) && !math.IsInf(v, 0) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
