package plan

import "github.com/csvdb/csvdb/sql/ast"

// applyLimit implements spec.md §4.5 step 7: push LIMIT/OFFSET onto the
// source step directly when nothing downstream needs to see the full
// row set first; otherwise attach the limit to the last self-limiting
// step (anything but SORT) or fall back to an explicit SLICE, and always
// emit OFFSET as its own step when one is present.
func applyLimit(q *ast.Query, steps []Step) []Step {
	if q.Limit == ast.NoLimit && q.Offset == 0 {
		return steps
	}

	combined := q.Limit
	if combined != ast.NoLimit && q.Offset > 0 {
		combined += q.Offset
	}

	noPostFiltering := len(q.OrderBy) == 0 && !q.IsGroup() && singleSourceStep(steps)
	if noPostFiltering && combined != ast.NoLimit {
		steps[0].Limit = combined
	} else if combined != ast.NoLimit {
		last := &steps[len(steps)-1]
		if last.Type != Sort {
			last.Limit = combined
		} else {
			steps = append(steps, Step{Type: Slice, TableID: -1, Limit: combined})
		}
	}

	if q.Offset > 0 {
		steps = append(steps, Step{Type: Offset, TableID: -1, Limit: q.Offset})
	}
	return steps
}

// singleSourceStep reports whether steps is just the one source step
// (no joins, no TableAccessRowid re-filter), the only shape in which
// pushing the limit straight onto the source step is safe.
func singleSourceStep(steps []Step) bool {
	return len(steps) == 1
}
