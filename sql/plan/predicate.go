package plan

import "github.com/csvdb/csvdb/sql/ast"

// flattenAnd returns every top-level AND-joined conjunct of n's tree (a
// plain comparison if n isn't an AND at all), per spec.md §4.5's
// "flattening nested AND" local simplification.
func flattenAnd(n *ast.Node) []ast.Node {
	if n.Function == ast.OperatorAnd {
		return append(flattenAnd(n.Child(0)), flattenAnd(n.Child(1))...)
	}
	return []ast.Node{*n}
}

// referencedTables collects every distinct TableID referenced by a leaf
// of n, ignoring constant leaves.
func referencedTables(n *ast.Node, set map[int]bool) {
	if n.IsLeaf() {
		if n.Field.Index != ast.ColumnConstant {
			set[n.Field.TableID] = true
		}
		return
	}
	if n.Filter != nil {
		referencedTables(n.Filter, set)
	}
	for i := 0; i < n.Arity(); i++ {
		referencedTables(n.Child(i), set)
	}
}

// tableSet returns the set of TableIDs n's leaves reference.
func tableSet(n *ast.Node) map[int]bool {
	set := make(map[int]bool)
	referencedTables(n, set)
	return set
}

// referencesOnly reports whether every table n references is exactly
// {tableID} (or n references no table at all, i.e. is fully constant).
func referencesOnly(n *ast.Node, tableID int) bool {
	set := tableSet(n)
	if len(set) == 0 {
		return true
	}
	return len(set) == 1 && set[tableID]
}

// referencesTable reports whether n references tableID at all.
func referencesTable(n *ast.Node, tableID int) bool {
	return tableSet(n)[tableID]
}

// predicatesOnlyOnTable returns the subset of conjuncts that reference
// only tableID (or no table, i.e. fully constant conjuncts).
func predicatesOnlyOnTable(conjuncts []ast.Node, tableID int) []ast.Node {
	var out []ast.Node
	for i := range conjuncts {
		if referencesOnly(&conjuncts[i], tableID) {
			out = append(out, conjuncts[i])
		}
	}
	return out
}

// removeConjuncts returns the conjuncts of all not present (by identity
// of position in the original predicate tree, approximated here by deep
// equality of the rendered comparison shape) in used.
func removeConjuncts(all, used []ast.Node) []ast.Node {
	if len(used) == 0 {
		return all
	}
	usedSet := make(map[string]int, len(used))
	for i := range used {
		usedSet[conjunctKey(&used[i])]++
	}
	var out []ast.Node
	for i := range all {
		key := conjunctKey(&all[i])
		if usedSet[key] > 0 {
			usedSet[key]--
			continue
		}
		out = append(out, all[i])
	}
	return out
}

// conjunctKey renders a coarse, stable key for a conjunct node so
// removeConjuncts can match by shape rather than pointer identity (the
// same Node value may be copied across slices during planning).
func conjunctKey(n *ast.Node) string {
	var sb []byte
	appendKey(&sb, n)
	return string(sb)
}

func appendKey(sb *[]byte, n *ast.Node) {
	*sb = append(*sb, byte(n.Function))
	if n.IsLeaf() {
		*sb = append(*sb, byte(n.Field.Index))
		*sb = append(*sb, byte(n.Field.TableID))
		*sb = append(*sb, n.Field.Text...)
		return
	}
	for i := 0; i < n.Arity(); i++ {
		appendKey(sb, n.Child(i))
	}
}

// comparisonShape normalizes a simple "field op value" predicate into
// (col, op, value), flipping the operator if the field
// leaf is on the right. ok is false if neither side is a plain column
// leaf on tableID.
func comparisonShape(n *ast.Node, tableID int) (col ast.ColumnIndex, op ast.Function, value *ast.Node, ok bool) {
	if !n.Function.IsComparison() {
		return 0, 0, nil, false
	}
	if n.Function == ast.OperatorOr || n.Function == ast.OperatorAnd {
		return 0, 0, nil, false
	}
	if n.Arity() != 2 {
		return 0, 0, nil, false
	}
	left, right := n.Child(0), n.Child(1)
	if left.IsLeaf() && left.Field.Index != ast.ColumnConstant && left.Field.TableID == tableID {
		return left.Field.Index, n.Function, right, true
	}
	if right.IsLeaf() && right.Field.Index != ast.ColumnConstant && right.Field.TableID == tableID {
		return right.Field.Index, n.Function.Flip(), left, true
	}
	return 0, 0, nil, false
}
