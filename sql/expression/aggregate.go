package expression

import (
	"strconv"
	"strings"

	"github.com/csvdb/csvdb/sql/ast"
	"github.com/spf13/cast"
)

// EvaluateAggregate evaluates an aggregate Node (COUNT/MIN/MAX/SUM/AVG/
// LISTAGG) over every row in group, honoring an optional FILTER(WHERE
// ...) sub-node that gates which rows contribute. Grounded on
// spec.md §4.6/§4.7 and
// _examples/original_source/src/query/evaluate.c's aggregate handling.
func EvaluateAggregate(n *ast.Node, group RowSource) (string, error) {
	if n.Function == ast.FuncRowNumber {
		return strconv.Itoa(group.Len()), nil
	}
	if !n.Function.IsAggregate() {
		return Evaluate(n, group.At(0))
	}

	switch n.Function {
	case ast.FuncAggCount:
		return evaluateCount(n, group)
	case ast.FuncAggMin:
		return evaluateMinMax(n, group, true)
	case ast.FuncAggMax:
		return evaluateMinMax(n, group, false)
	case ast.FuncAggSum:
		return evaluateSum(n, group)
	case ast.FuncAggAvg:
		return evaluateAvg(n, group)
	case ast.FuncAggListagg:
		return evaluateListagg(n, group)
	}
	return "", errUnknownFunction.New(n.Function.String())
}

func includeRow(n *ast.Node, ctx Context) (bool, error) {
	if n.Filter == nil {
		return true, nil
	}
	text, err := Evaluate(n.Filter, ctx)
	if err != nil {
		return false, err
	}
	return truthy(text), nil
}

func aggregateArg(n *ast.Node) *ast.Node {
	if n.IsSelfChild() || n.ChildCount() > 0 {
		return n.Child(0)
	}
	return n
}

func evaluateCount(n *ast.Node, group RowSource) (string, error) {
	arg := aggregateArg(n)
	isStar := arg.IsLeaf() && arg.Field.Index == ast.ColumnCountStar
	count := 0
	for i := 0; i < group.Len(); i++ {
		ctx := group.At(i)
		ok, err := includeRow(n, ctx)
		if err != nil {
			return "", err
		}
		if !ok {
			continue
		}
		if isStar {
			count++
			continue
		}
		v, err := Evaluate(arg, ctx)
		if err != nil {
			return "", err
		}
		if v != nullText {
			count++
		}
	}
	return strconv.Itoa(count), nil
}

func evaluateMinMax(n *ast.Node, group RowSource, wantMin bool) (string, error) {
	arg := aggregateArg(n)
	best := nullText
	haveBest := false
	for i := 0; i < group.Len(); i++ {
		ctx := group.At(i)
		ok, err := includeRow(n, ctx)
		if err != nil {
			return "", err
		}
		if !ok {
			continue
		}
		v, err := Evaluate(arg, ctx)
		if err != nil {
			return "", err
		}
		if v == nullText {
			continue
		}
		if !haveBest {
			best = v
			haveBest = true
			continue
		}
		isLess := Compare(ast.OperatorLt, v, best)
		if (wantMin && isLess) || (!wantMin && !isLess && v != best) {
			best = v
		}
	}
	return best, nil
}

func evaluateSum(n *ast.Node, group RowSource) (string, error) {
	arg := aggregateArg(n)
	sum := 0.0
	any := false
	for i := 0; i < group.Len(); i++ {
		ctx := group.At(i)
		ok, err := includeRow(n, ctx)
		if err != nil {
			return "", err
		}
		if !ok {
			continue
		}
		v, err := Evaluate(arg, ctx)
		if err != nil {
			return "", err
		}
		if v == nullText {
			continue
		}
		f, convErr := cast.ToFloat64E(v)
		if convErr != nil {
			continue
		}
		sum += f
		any = true
	}
	if !any {
		return nullText, nil
	}
	return formatNumber(sum), nil
}

func evaluateAvg(n *ast.Node, group RowSource) (string, error) {
	arg := aggregateArg(n)
	sum := 0.0
	count := 0
	for i := 0; i < group.Len(); i++ {
		ctx := group.At(i)
		ok, err := includeRow(n, ctx)
		if err != nil {
			return "", err
		}
		if !ok {
			continue
		}
		v, err := Evaluate(arg, ctx)
		if err != nil {
			return "", err
		}
		if v == nullText {
			continue
		}
		f, convErr := cast.ToFloat64E(v)
		if convErr != nil {
			continue
		}
		sum += f
		count++
	}
	if count == 0 {
		return nullText, nil
	}
	return formatNumber(sum / float64(count)), nil
}

func evaluateListagg(n *ast.Node, group RowSource) (string, error) {
	arg := aggregateArg(n)
	sep := ","
	if n.Arity() > 1 {
		s, err := Evaluate(n.Child(1), group.At(0))
		if err != nil {
			return "", err
		}
		sep = s
	}
	var parts []string
	for i := 0; i < group.Len(); i++ {
		ctx := group.At(i)
		ok, err := includeRow(n, ctx)
		if err != nil {
			return "", err
		}
		if !ok {
			continue
		}
		v, err := Evaluate(arg, ctx)
		if err != nil {
			return "", err
		}
		if v == nullText {
			continue
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, sep), nil
}
