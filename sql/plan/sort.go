package plan

import "github.com/csvdb/csvdb/sql/ast"

// applySort implements spec.md §4.5 step 5. It removes ORDER BY keys
// already pinned by an equality predicate, elides the sort entirely (or
// downgrades it to REVERSE) when the source step already delivered rows
// in a compatible order, and otherwise appends a SORT step.
//
// Sort elision is only valid when every step so far produces rows
// 1-to-1 with the first table, i.e. no non-unique join has run yet;
// simplification: this planner conservatively only attempts elision
// when exactly one step precedes (the source step for table 0), per
// spec.md §4.5 step 5's "no non-unique joins" caveat.
func applySort(q *ast.Query, steps []Step) []Step {
	if len(q.OrderBy) == 0 {
		return steps
	}

	keys := necessarySortKeys(q)
	if len(keys) == 0 {
		return steps
	}

	if len(steps) == 1 {
		src := &steps[0]
		if elideSort(src, keys) {
			return steps
		}
		if reverseSort(src, keys) {
			steps = append(steps, Step{Type: Reverse, TableID: -1, Limit: ast.NoLimit})
			return steps
		}
	}

	return append(steps, Step{Type: Sort, TableID: -1, Keys: keys, Limit: ast.NoLimit})
}

// necessarySortKeys drops any ORDER BY key column also pinned by an '='
// predicate on the source step's table, since such a key cannot vary
// across the result.
func necessarySortKeys(q *ast.Query) []ast.Node {
	if !q.HasPredicate() {
		return q.OrderBy
	}
	eqCols := make(map[ast.ColumnIndex]bool)
	for _, c := range flattenAnd(&q.Predicate) {
		if c.Function != ast.OperatorEq {
			continue
		}
		col, op, _, ok := comparisonShape(&c, 0)
		if ok && op == ast.OperatorEq {
			eqCols[col] = true
		}
	}
	var keys []ast.Node
	for i := range q.OrderBy {
		k := &q.OrderBy[i]
		if k.IsLeaf() && eqCols[k.Field.Index] {
			continue
		}
		keys = append(keys, *k)
	}
	return keys
}

// elideSort reports whether src already produces rows ordered by keys in
// matching direction: true only for a single-key ascending order whose
// column is the one the index step seeks on.
func elideSort(src *Step, keys []ast.Node) bool {
	if len(keys) != 1 || !keyMatchesSourceOrder(src, &keys[0]) {
		return false
	}
	return keys[0].Direction() != ast.OrderDesc
}

// reverseSort reports whether src's natural order matches keys except
// for direction, allowing a cheap REVERSE instead of a full SORT.
func reverseSort(src *Step, keys []ast.Node) bool {
	if len(keys) != 1 || !keyMatchesSourceOrder(src, &keys[0]) {
		return false
	}
	return keys[0].Direction() == ast.OrderDesc
}

// keyMatchesSourceOrder reports whether src is an ordered access path
// seeking on exactly key's column (a plain TABLE_SCAN's natural order is
// the rowid column).
func keyMatchesSourceOrder(src *Step, key *ast.Node) bool {
	if !isOrderedSource(src) || !key.IsLeaf() {
		return false
	}
	if src.Type == TableScan {
		return key.Field.Index == ast.ColumnRowIndex
	}
	return key.Field.Index == src.Col
}

// isOrderedSource reports whether src's step type walks rows in a fixed,
// predictable key order (an index range/scan or a rowid table scan).
func isOrderedSource(src *Step) bool {
	switch src.Type {
	case PK, Unique, IndexRange, UniqueRange, IndexScan, TableScan:
		return true
	}
	return false
}
