package expression

import (
	"time"

	"github.com/csvdb/csvdb/sql/ast"
)

// FoldConstants walks n bottom-up, collapsing any subtree whose leaves
// are all constants (and whose function is neither an aggregate nor a
// column/rowid reference) into a single constant leaf. Used by both
// parse-time simplification and the planner's predicate rewriting, per
// spec.md §4.7.
func FoldConstants(n *ast.Node) {
	if n.IsLeaf() {
		return
	}
	if n.Filter != nil {
		FoldConstants(n.Filter)
	}
	if n.Function.IsAggregate() || n.Function == ast.FuncRowNumber {
		for i := 0; i < n.Arity(); i++ {
			FoldConstants(n.Child(i))
		}
		return
	}

	allConstant := true
	for i := 0; i < n.Arity(); i++ {
		child := n.Child(i)
		FoldConstants(child)
		if !child.IsConstant() {
			allConstant = false
		}
	}
	if !allConstant || n.Arity() == 0 {
		return
	}

	v, err := Evaluate(n, constantContext{})
	if err != nil {
		return
	}
	n.ReplaceWithConstant(v)
}

// constantContext is used only to evaluate subtrees FoldConstants has
// already proven are built entirely from constant leaves; Cell/RowID are
// unreachable in that case.
type constantContext struct{}

func (constantContext) Cell(tableID int, col ast.ColumnIndex) (string, error) {
	return "", errUnknownFunction.New("constant fold reached a column reference")
}
func (constantContext) RowID(tableID int) int   { return 0 }
func (constantContext) Now() time.Time          { return time.Time{} }

