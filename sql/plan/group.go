package plan

import "github.com/csvdb/csvdb/sql/ast"

// applyGroup implements spec.md §4.5 step 6. An aggregate SELECT with no
// explicit GROUP BY still needs one GROUP step with zero keys, producing
// a single bucket; GROUP_SORTED elision (reusing the source step's
// delivery order) is attempted only in the common single-step-so-far
// shape, mirroring the conservative elision window used by applySort.
func applyGroup(q *ast.Query, steps []Step) []Step {
	if !q.IsGroup() {
		return steps
	}

	if len(q.GroupBy) > 0 && len(steps) == 1 && groupKeyMatchesSource(&steps[0], &q.GroupBy[0]) {
		return append(steps, Step{Type: GroupSorted, TableID: -1, Keys: q.GroupBy, Limit: ast.NoLimit})
	}
	return append(steps, Step{Type: Group, TableID: -1, Keys: q.GroupBy, Limit: ast.NoLimit})
}

// groupKeyMatchesSource reports whether src's step already delivers rows
// ordered by key (an index seek/scan on that exact column, or a plain
// TABLE_SCAN grouped by rowid), letting the executor use the streaming
// GROUP_SORTED strategy instead of the hash-like GROUP bucket table.
func groupKeyMatchesSource(src *Step, key *ast.Node) bool {
	return keyMatchesSourceOrder(src, key)
}
