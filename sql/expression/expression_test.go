package expression

import (
	"testing"
	"time"

	"github.com/csvdb/csvdb/sql/ast"
	"github.com/stretchr/testify/require"
)

// rowCtx is a minimal Context backed by one row of column text, used
// throughout these tests. Table 0 is the only table.
type rowCtx struct {
	cols  []string
	rowid int
	now   time.Time
}

func (c rowCtx) Cell(tableID int, col ast.ColumnIndex) (string, error) {
	if int(col) < 0 || int(col) >= len(c.cols) {
		return "", nil
	}
	return c.cols[col], nil
}
func (c rowCtx) RowID(tableID int) int { return c.rowid }
func (c rowCtx) Now() time.Time        { return c.now }

func leaf(col ast.ColumnIndex) ast.Node {
	return ast.NewLeaf(ast.Field{TableID: 0, Index: col})
}

func TestEvaluateArithmetic(t *testing.T) {
	require := require.New(t)
	ctx := rowCtx{cols: []string{"3", "4"}}

	add := ast.NewCall(ast.FuncAdd, leaf(0), leaf(1))
	v, err := Evaluate(&add, ctx)
	require.NoError(err)
	require.Equal("7", v)

	mul := ast.NewCall(ast.FuncMul, leaf(0), leaf(1))
	v, err = Evaluate(&mul, ctx)
	require.NoError(err)
	require.Equal("12", v)

	div := ast.NewCall(ast.FuncDiv, leaf(1), ast.NewConstant("0"))
	v, err = Evaluate(&div, ctx)
	require.NoError(err)
	require.Equal("", v)
}

func TestEvaluateDateArithmeticOverload(t *testing.T) {
	require := require.New(t)
	ctx := rowCtx{}
	add := ast.NewCall(ast.FuncAdd, ast.NewConstant("2024-01-31"), ast.NewConstant("1"))
	v, err := Evaluate(&add, ctx)
	require.NoError(err)
	require.Equal("2024-02-01", v)
}

func TestCompareThreeTier(t *testing.T) {
	require := require.New(t)
	require.True(Compare(ast.OperatorLt, "2024-01-01", "2024-02-01"))
	require.True(Compare(ast.OperatorLt, "2", "10"))
	require.True(Compare(ast.OperatorLt, "apple", "banana"))
	require.True(Compare(ast.OperatorEq, "", ""))
	require.False(Compare(ast.OperatorLt, "", "5"))
}

func TestEvaluateComparisonShortCircuitsOr(t *testing.T) {
	require := require.New(t)
	ctx := rowCtx{cols: []string{"1"}}
	or := ast.NewCall(ast.OperatorOr, leaf(0), ast.NewConstant("bogus"))
	v, err := Evaluate(&or, ctx)
	require.NoError(err)
	require.Equal("1", v)
}

func TestEvaluateStringFunctions(t *testing.T) {
	require := require.New(t)
	ctx := rowCtx{cols: []string{"hello world"}}

	length := ast.NewSelfChild(ast.FuncLength, ast.Field{TableID: 0, Index: 0})
	v, err := Evaluate(&length, ctx)
	require.NoError(err)
	require.Equal("11", v)

	left := ast.NewCall(ast.FuncLeft, leaf(0), ast.NewConstant("5"))
	v, err = Evaluate(&left, ctx)
	require.NoError(err)
	require.Equal("hello", v)

	concat := ast.NewCall(ast.FuncConcat, leaf(0), ast.NewConstant("!"))
	v, err = Evaluate(&concat, ctx)
	require.NoError(err)
	require.Equal("hello world!", v)
}

func TestEvaluateExtractFields(t *testing.T) {
	require := require.New(t)
	ctx := rowCtx{}
	year := ast.NewSelfChild(ast.FuncExtractYear, ast.Field{Text: "2024-03-15", Index: ast.ColumnConstant})
	v, err := Evaluate(&year, ctx)
	require.NoError(err)
	require.Equal("2024", v)

	month := ast.NewSelfChild(ast.FuncExtractMonth, ast.Field{Text: "2024-03-15", Index: ast.ColumnConstant})
	v, err = Evaluate(&month, ctx)
	require.NoError(err)
	require.Equal("3", v)
}

// rowGroup is a fixed slice of rowCtx implementing RowSource for
// aggregate tests.
type rowGroup []rowCtx

func (g rowGroup) Len() int         { return len(g) }
func (g rowGroup) At(i int) Context { return g[i] }

func TestEvaluateAggregateCountSumAvg(t *testing.T) {
	require := require.New(t)
	group := rowGroup{
		{cols: []string{"10"}},
		{cols: []string{"20"}},
		{cols: []string{""}},
	}

	countStar := ast.NewCall(ast.FuncAggCount, ast.NewLeaf(ast.Field{Text: "*", Index: ast.ColumnCountStar}))
	v, err := EvaluateAggregate(&countStar, group)
	require.NoError(err)
	require.Equal("3", v)

	countCol := ast.NewCall(ast.FuncAggCount, leaf(0))
	v, err = EvaluateAggregate(&countCol, group)
	require.NoError(err)
	require.Equal("2", v)

	sum := ast.NewCall(ast.FuncAggSum, leaf(0))
	v, err = EvaluateAggregate(&sum, group)
	require.NoError(err)
	require.Equal("30", v)

	avg := ast.NewCall(ast.FuncAggAvg, leaf(0))
	v, err = EvaluateAggregate(&avg, group)
	require.NoError(err)
	require.Equal("15", v)
}

func TestEvaluateAggregateMinMaxListagg(t *testing.T) {
	require := require.New(t)
	group := rowGroup{
		{cols: []string{"b"}},
		{cols: []string{"a"}},
		{cols: []string{"c"}},
	}

	min := ast.NewCall(ast.FuncAggMin, leaf(0))
	v, err := EvaluateAggregate(&min, group)
	require.NoError(err)
	require.Equal("a", v)

	max := ast.NewCall(ast.FuncAggMax, leaf(0))
	v, err = EvaluateAggregate(&max, group)
	require.NoError(err)
	require.Equal("c", v)

	listagg := ast.NewCall(ast.FuncAggListagg, leaf(0))
	v, err = EvaluateAggregate(&listagg, group)
	require.NoError(err)
	require.Equal("b,a,c", v)
}

func TestFoldConstants(t *testing.T) {
	require := require.New(t)
	add := ast.NewCall(ast.FuncAdd, ast.NewConstant("2"), ast.NewConstant("3"))
	FoldConstants(&add)
	require.True(add.IsConstant())
	require.Equal("5", add.Field.Text)
}

func TestFoldConstantsLeavesColumnReferenceAlone(t *testing.T) {
	require := require.New(t)
	add := ast.NewCall(ast.FuncAdd, leaf(0), ast.NewConstant("3"))
	FoldConstants(&add)
	require.False(add.IsConstant())
}
