package rowexec

import (
	"time"

	"github.com/csvdb/csvdb/sql/ast"
	"github.com/csvdb/csvdb/sql/expression"
	"github.com/csvdb/csvdb/sql/index"
	"github.com/csvdb/csvdb/sql/plan"
	"github.com/csvdb/csvdb/sql/rowlist"
	"github.com/csvdb/csvdb/sql/vfs"
)

// joinScanContext evaluates an arbitrary join predicate against one
// fixed left-side row and one candidate right-side row: Cell/RowID
// dispatch to the right table directly when addressed by rightTableID,
// and to the already-bound left row's Context otherwise. This plays the
// role spec.md §4.6 describes as "partially evaluate [the predicate]
// against the left row so the right-table reference becomes a
// constant", without needing to rewrite the predicate tree itself.
type joinScanContext struct {
	left         expression.Context
	rightTable   vfs.Table
	rightTableID int
	rightRow     int
	now          time.Time
}

func (c joinScanContext) Cell(tableID int, col ast.ColumnIndex) (string, error) {
	if tableID == c.rightTableID {
		return c.rightTable.GetCell(c.rightRow, col)
	}
	return c.left.Cell(tableID, col)
}

func (c joinScanContext) RowID(tableID int) int {
	if tableID == c.rightTableID {
		return c.rightRow
	}
	return c.left.RowID(tableID)
}

func (c joinScanContext) Now() time.Time { return c.now }

func (ex *executor) popLeft() (rowlist.Handle, *rowlist.List, error) {
	h, ok := ex.stack.Pop()
	if !ok {
		return 0, nil, errUnknownStep.New("join with empty stack")
	}
	return h, ex.pool.Get(h), nil
}

// runCrossJoin implements CROSS_JOIN: every left row times every row of
// the new table.
func (ex *executor) runCrossJoin(step plan.Step) error {
	leftH, left, err := ex.popLeft()
	if err != nil {
		return err
	}
	table := ex.table(step.TableID)
	n, err := table.RecordCount()
	if err != nil {
		return err
	}

	h := ex.pool.Create(left.Width()+1, left.Len()*maxI(n, 1))
	out := ex.pool.Get(h)
loop:
	for i := 0; i < left.Len(); i++ {
		if n == 0 {
			if step.JoinType == ast.JoinLeft {
				out.AppendJoined(left, i, rowlist.RowidNull)
			}
			continue
		}
		for r := 0; r < n; r++ {
			if step.Limit >= 0 && out.Len() >= step.Limit {
				break loop
			}
			out.AppendJoined(left, i, r)
		}
	}
	ex.pool.Destroy(leftH)
	ex.stack.Push(h)
	return nil
}

// runConstantJoin implements CONSTANT_JOIN: the join predicate (and any
// extra single-table conjuncts folded into it) depends only on the new
// table, so it is evaluated once into a materialized right-hand rowid
// list, then crossed with every left row.
func (ex *executor) runConstantJoin(step plan.Step) error {
	leftH, left, err := ex.popLeft()
	if err != nil {
		return err
	}
	table := ex.table(step.TableID)

	rh := ex.pool.Create(1, 8)
	right := ex.pool.Get(rh)
	match := func(row int) (bool, error) {
		ctx := scanContext{table: table, tableID: step.TableID, row: row, now: ex.now}
		return evalPredicates(step.Predicates, ctx)
	}
	if err := table.FullScan(step.Predicates, match, right, -1); err != nil {
		return err
	}

	h := ex.pool.Create(left.Width()+1, left.Len()*maxI(right.Len(), 1))
	out := ex.pool.Get(h)
loop:
	for i := 0; i < left.Len(); i++ {
		if right.Len() == 0 {
			if step.JoinType == ast.JoinLeft {
				out.AppendJoined(left, i, rowlist.RowidNull)
			}
			continue
		}
		for r := 0; r < right.Len(); r++ {
			if step.Limit >= 0 && out.Len() >= step.Limit {
				break loop
			}
			out.AppendJoined(left, i, right.RowID(0, r))
		}
	}
	ex.pool.Destroy(rh)
	ex.pool.Destroy(leftH)
	ex.stack.Push(h)
	return nil
}

// runLoopJoin implements LOOP_JOIN: for each left row, a fresh fullScan
// of the new table gated by the join predicate evaluated with that left
// row bound in.
func (ex *executor) runLoopJoin(step plan.Step) error {
	leftH, left, err := ex.popLeft()
	if err != nil {
		return err
	}
	table := ex.table(step.TableID)
	leftTables := ex.tablesUpTo(left.Width())

	h := ex.pool.Create(left.Width()+1, left.Len())
	out := ex.pool.Get(h)

	for i := 0; i < left.Len(); i++ {
		leftCtx := ex.newRowContext(leftTables, left, i)
		before := out.Len()
		match := func(row int) (bool, error) {
			ctx := joinScanContext{left: leftCtx, rightTable: table, rightTableID: step.TableID, rightRow: row, now: ex.now}
			return evalPredicates(step.Predicates, ctx)
		}
		tmpH := ex.pool.Create(1, 4)
		tmp := ex.pool.Get(tmpH)
		if err := table.FullScan(step.Predicates, match, tmp, -1); err != nil {
			return err
		}
		for r := 0; r < tmp.Len(); r++ {
			if step.Limit >= 0 && out.Len() >= step.Limit {
				break
			}
			out.AppendJoined(left, i, tmp.RowID(0, r))
		}
		if out.Len() == before && step.JoinType == ast.JoinLeft {
			out.AppendJoined(left, i, rowlist.RowidNull)
		}
		ex.pool.Destroy(tmpH)
	}
	ex.pool.Destroy(leftH)
	ex.stack.Push(h)
	return nil
}

// splitJoinComparison extracts (col, otherSide) from a simple binary
// comparison whose tableID-side is a plain column leaf, the shape
// UNIQUE_JOIN/INDEX_JOIN need to compute a seek value per left row.
func splitJoinComparison(n *ast.Node, tableID int) (col ast.ColumnIndex, other *ast.Node, ok bool) {
	if n.Arity() != 2 {
		return 0, nil, false
	}
	left, right := n.Child(0), n.Child(1)
	if left.IsLeaf() && left.Field.Index != ast.ColumnConstant && left.Field.TableID == tableID {
		return left.Field.Index, right, true
	}
	if right.IsLeaf() && right.Field.Index != ast.ColumnConstant && right.Field.TableID == tableID {
		return right.Field.Index, left, true
	}
	return 0, nil, false
}

// runUniqueJoin implements UNIQUE_JOIN: for each left row, evaluate the
// outer side of the predicate and look it up in the new table's unique
// (or primary) index, appending 0 or 1 joined rows.
func (ex *executor) runUniqueJoin(step plan.Step) error {
	return ex.runIndexedJoin(step, true)
}

// runIndexJoin implements INDEX_JOIN: like UNIQUE_JOIN but via
// indexSeek, allowing many right-side matches per left row.
func (ex *executor) runIndexJoin(step plan.Step) error {
	return ex.runIndexedJoin(step, false)
}

func (ex *executor) runIndexedJoin(step plan.Step, unique bool) error {
	leftH, left, err := ex.popLeft()
	if err != nil {
		return err
	}
	table := ex.table(step.TableID)
	leftTables := ex.tablesUpTo(left.Width())

	col, other, ok := splitJoinComparison(&step.Predicates[0], step.TableID)
	if !ok {
		ex.pool.Destroy(leftH)
		return errUnknownStep.New("indexed join predicate without a plain column reference")
	}
	idx, err := openIndex(table, col)
	if err != nil {
		return err
	}

	h := ex.pool.Create(left.Width()+1, left.Len())
	out := ex.pool.Get(h)

	for i := 0; i < left.Len(); i++ {
		leftCtx := ex.newRowContext(leftTables, left, i)
		value, err := expression.Evaluate(other, leftCtx)
		if err != nil {
			return err
		}

		matched := false
		if unique {
			row, status, err := idx.IndexSearch(value, vfs.SearchUnique)
			if err != nil {
				return err
			}
			if status == vfs.StatusFound {
				rowid, err := resolveIndexRowid(table, idx, row)
				if err != nil {
					return err
				}
				out.AppendJoined(left, i, rowid)
				matched = true
			}
		} else {
			tmpH := ex.pool.Create(1, 4)
			tmp := ex.pool.Get(tmpH)
			if err := index.Seek(idx, step.Op, value, tmp, -1); err != nil {
				return err
			}
			for r := 0; r < tmp.Len(); r++ {
				if step.Limit >= 0 && out.Len() >= step.Limit {
					break
				}
				out.AppendJoined(left, i, tmp.RowID(0, r))
				matched = true
			}
			ex.pool.Destroy(tmpH)
		}
		if !matched && step.JoinType == ast.JoinLeft {
			out.AppendJoined(left, i, rowlist.RowidNull)
		}
	}
	ex.pool.Destroy(leftH)
	ex.stack.Push(h)
	return nil
}

// resolveIndexRowid maps an index row position back to the base table's
// rowid, short-circuiting for a self-indexed backend.
func resolveIndexRowid(table, idx vfs.Table, row int) (int, error) {
	if isSelfIndex(table, idx) {
		return row, nil
	}
	return rowidFromIndexRow(idx, row)
}
