package ast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelfChildArity(t *testing.T) {
	require := require.New(t)
	n := NewSelfChild(FuncExtractYear, Field{Text: "date", TableID: 0, Index: 0})
	require.True(n.IsSelfChild())
	require.Equal(1, n.Arity())
	require.Equal("date", n.Child(0).Field.Text)
}

func TestCallChildren(t *testing.T) {
	require := require.New(t)
	left := NewLeaf(Field{Text: "a", Index: 0})
	right := NewConstant("1")
	n := NewCall(OperatorEq, left, right)
	require.False(n.IsSelfChild())
	require.Equal(2, n.Arity())
	require.True(n.Child(1).IsConstant())
}

func TestReplaceWithConstantFoldsInPlace(t *testing.T) {
	require := require.New(t)
	n := NewCall(FuncAdd, NewConstant("1"), NewConstant("2"))
	n.ReplaceWithConstant("3")
	require.True(n.IsConstant())
	require.Equal("3", n.Field.Text)
	require.Equal(0, n.ChildCount())
}

func TestOrderDirectionRoundTrips(t *testing.T) {
	require := require.New(t)
	n := Node{}
	n.SetDirection(OrderDesc)
	require.Equal(OrderDesc, n.Direction())
}

func TestComparisonBitLayout(t *testing.T) {
	require := require.New(t)
	require.True(OperatorEq.MatchesComparison(0))
	require.False(OperatorEq.MatchesComparison(1))
	require.True(OperatorLt.MatchesComparison(-1))
	require.True(OperatorGe.MatchesComparison(0))
	require.True(OperatorGe.MatchesComparison(1))
	require.True(OperatorAlways.MatchesComparison(-1))
	require.True(OperatorAlways.MatchesComparison(0))
	require.True(OperatorAlways.MatchesComparison(1))
	require.False(OperatorNever.MatchesComparison(0))
}

func TestFunctionNegateAndFlip(t *testing.T) {
	require := require.New(t)
	require.Equal(OperatorNe, OperatorEq.Negate())
	require.Equal(OperatorGe, OperatorLt.Negate())
	require.Equal(OperatorGt, OperatorLt.Flip())
}
