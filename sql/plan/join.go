package plan

import (
	"github.com/csvdb/csvdb/sql/ast"
	"github.com/csvdb/csvdb/sql/vfs"
)

// chooseJoin implements spec.md §4.5 step 4 for joining table tableID
// (in FROM order) against every table already joined. used is the
// subset of remaining conjuncts this call consumed (folded into the
// join step so they aren't re-applied later); ok is false only when the
// join predicate is statically NEVER, signalling the caller to abort
// planning to an empty result.
func chooseJoin(q *ast.Query, cat Catalog, tableID int, remaining []ast.Node) (steps []Step, used []ast.Node, ok bool) {
	join := &q.Tables[tableID].Join
	joinType := q.Tables[tableID].JoinType

	if join.Function == ast.OperatorNever {
		return nil, nil, false
	}

	extra := predicatesOnlyOnTable(remaining, tableID)
	noOnClause := join.Function == ast.FuncUnity && join.IsConstant()

	switch {
	case noOnClause || join.Function == ast.OperatorAlways:
		return []Step{{Type: CrossJoin, TableID: tableID, JoinType: joinType, Limit: ast.NoLimit}}, nil, true

	case referencesOnly(join, tableID):
		// Join predicate depends only on the new table: evaluate once,
		// cross the result with the left side.
		return []Step{{
			Type:       ConstantJoin,
			TableID:    tableID,
			JoinType:   joinType,
			Predicates: append([]ast.Node{*join}, extra...),
			Limit:      ast.NoLimit,
		}}, extra, true

	case !referencesTable(join, tableID):
		// Depends only on prior tables: filter first, then cross.
		var s []Step
		if join.Function != ast.FuncUnity || !join.IsConstant() {
			s = append(s, Step{Type: TableAccessRowid, TableID: -1, Predicates: []ast.Node{*join}, Limit: ast.NoLimit})
		}
		s = append(s, Step{Type: CrossJoin, TableID: tableID, JoinType: joinType, Limit: ast.NoLimit})
		return s, nil, true
	}

	// References both the new table and earlier ones: prefer an index
	// on the new table's side of the predicate.
	col, op, _, ok := comparisonShape(join, tableID)
	if ok && op != ast.OperatorLike {
		kind, err := cat.Table(tableID).FindIndex(col)
		if err == nil {
			switch kind {
			case vfs.IndexUnique, vfs.IndexPrimary:
				if op == ast.OperatorEq {
					return []Step{{Type: UniqueJoin, TableID: tableID, JoinType: joinType, Op: op, Predicates: []ast.Node{*join}, Limit: ast.NoLimit}}, nil, true
				}
			case vfs.IndexRegular:
				return []Step{{Type: IndexJoin, TableID: tableID, JoinType: joinType, Op: op, Predicates: []ast.Node{*join}, Limit: ast.NoLimit}}, nil, true
			}
		}
	}

	return []Step{{Type: LoopJoin, TableID: tableID, JoinType: joinType, Predicates: []ast.Node{*join}, Limit: ast.NoLimit}}, nil, true
}
