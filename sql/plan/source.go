package plan

import (
	"github.com/csvdb/csvdb/sql/ast"
	"github.com/csvdb/csvdb/sql/vfs"
)

// chooseSource implements spec.md §4.5 step 3: pick an access path for
// the first (leftmost) table.
func chooseSource(q *ast.Query, cat Catalog, conjuncts []ast.Node) (Step, error) {
	table := cat.Table(0)
	local := predicatesOnlyOnTable(conjuncts, 0)

	// Rowid predicates can drive a plain TABLE_SCAN over a computed
	// range without consulting any index.
	if rowidOnly(local) {
		return Step{Type: TableScan, TableID: 0, Predicates: local, Limit: ast.NoLimit}, nil
	}

	for i := range local {
		col, op, value, ok := comparisonShape(&local[i], 0)
		if !ok || col == ast.ColumnRowIndex || col == ast.ColumnConstant {
			continue
		}
		if op == ast.OperatorLike && !likeUsableByIndex(value) {
			continue
		}

		kind, err := table.FindIndex(col)
		if err != nil {
			return Step{}, err
		}
		switch kind {
		case vfs.IndexPrimary:
			if op == ast.OperatorEq {
				return Step{Type: PK, TableID: 0, Col: col, Op: op, Value: value, Limit: ast.NoLimit}, nil
			}
			return Step{Type: IndexRange, TableID: 0, Col: col, Op: op, Value: value, Limit: ast.NoLimit}, nil
		case vfs.IndexUnique:
			if op == ast.OperatorEq {
				return Step{Type: Unique, TableID: 0, Col: col, Op: op, Value: value, Limit: ast.NoLimit}, nil
			}
			return Step{Type: UniqueRange, TableID: 0, Col: col, Op: op, Value: value, Limit: ast.NoLimit}, nil
		case vfs.IndexRegular:
			return Step{Type: IndexRange, TableID: 0, Col: col, Op: op, Value: value, Limit: ast.NoLimit}, nil
		}
	}

	// No usable predicate index: consider an ORDER BY-driven INDEX_SCAN
	// to avoid a later sort, skipped when an '=' predicate is present
	// (filter-then-sort is cheaper, per spec.md §4.5 step 3).
	if len(q.OrderBy) > 0 && !hasEqualityPredicate(local) {
		first := &q.OrderBy[0]
		if first.Field.Index >= 0 && first.Field.TableID == 0 {
			kind, err := table.FindIndex(first.Field.Index)
			if err != nil {
				return Step{}, err
			}
			if kind != vfs.IndexNone {
				return Step{Type: IndexScan, TableID: 0, Col: first.Field.Index, Predicates: local, Limit: ast.NoLimit}, nil
			}
		}
	}

	if len(local) > 0 {
		return Step{Type: TableAccessFull, TableID: 0, Predicates: local, Limit: ast.NoLimit}, nil
	}
	return Step{Type: TableScan, TableID: 0, Limit: ast.NoLimit}, nil
}

// rowidOnly reports whether every conjunct is a comparison against the
// rowid column.
func rowidOnly(conjuncts []ast.Node) bool {
	if len(conjuncts) == 0 {
		return false
	}
	for i := range conjuncts {
		col, _, _, ok := comparisonShape(&conjuncts[i], 0)
		if !ok || col != ast.ColumnRowIndex {
			return false
		}
	}
	return true
}

func hasEqualityPredicate(conjuncts []ast.Node) bool {
	for i := range conjuncts {
		if conjuncts[i].Function == ast.OperatorEq {
			return true
		}
	}
	return false
}

// likeUsableByIndex reports whether value is a string constant of the
// form "prefix%" with no other wildcards, the only LIKE shape an index
// seek can serve (spec.md §4.5 step 3).
func likeUsableByIndex(value *ast.Node) bool {
	if !value.IsConstant() {
		return false
	}
	s := value.Field.Text
	if len(s) == 0 || s[len(s)-1] != '%' {
		return false
	}
	for i := 0; i < len(s)-1; i++ {
		if s[i] == '%' || s[i] == '_' {
			return false
		}
	}
	return true
}
