package rowexec

import (
	"strconv"
	"time"

	"github.com/csvdb/csvdb/sql/ast"
	"github.com/csvdb/csvdb/sql/index"
	"github.com/csvdb/csvdb/sql/plan"
	"github.com/csvdb/csvdb/sql/rowlist"
	"github.com/csvdb/csvdb/sql/vfs"
)

// scanContext evaluates a predicate against one candidate row of a
// single table before that row has been appended to any rowlist.List,
// the shape a vfs.RowMatcher callback needs during FullScan/TableScan.
type scanContext struct {
	table   vfs.Table
	tableID int
	row     int
	now     time.Time
}

func (c scanContext) Cell(tableID int, col ast.ColumnIndex) (string, error) {
	return c.table.GetCell(c.row, col)
}

func (c scanContext) RowID(tableID int) int { return c.row }

func (c scanContext) Now() time.Time { return c.now }

// runDummyRow pushes the width-one list standing in for a table-less
// SELECT's single synthetic row, per spec.md §4.6.
func (ex *executor) runDummyRow(step plan.Step) error {
	h := ex.pool.Create(0, 1)
	ex.pool.Get(h).Append(0)
	ex.stack.Push(h)
	return nil
}

// isSelfIndex reports whether idx is the same backend as table, the
// shape CALENDAR uses: idx.IndexSearch already returns the base table's
// rowid directly, with no separate (key, rowid) side-file to
// dereference.
func isSelfIndex(table, idx vfs.Table) bool {
	return idx == table
}

// openIndex resolves the index Table driving an access-path step,
// falling back to the table itself if Index returned nothing to open.
func openIndex(table vfs.Table, col ast.ColumnIndex) (vfs.Table, error) {
	idx, err := table.Index(col)
	if err != nil {
		return nil, err
	}
	if idx == nil {
		return table, nil
	}
	return idx, nil
}

// rowidFromIndexRow dereferences a genuine (non-self) index side-file's
// row position into the base table's rowid via its second column, per
// spec.md §6's index file convention.
func rowidFromIndexRow(idx vfs.Table, row int) (int, error) {
	text, err := idx.GetCell(row, indexRowidColumn)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(text)
}

// runPointLookup implements PK/UNIQUE: a single indexSearch in unique
// mode, pushing zero or one rowid.
func (ex *executor) runPointLookup(step plan.Step) error {
	table := ex.table(step.TableID)
	idx, err := openIndex(table, step.Col)
	if err != nil {
		return err
	}
	value, err := ex.evalValue(step.Value)
	if err != nil {
		return err
	}

	h := ex.pool.Create(1, 1)
	list := ex.pool.Get(h)

	row, status, err := idx.IndexSearch(value, vfs.SearchUnique)
	if err != nil {
		return err
	}
	if status == vfs.StatusFound {
		if isSelfIndex(table, idx) {
			list.Append(row)
		} else {
			rowid, err := rowidFromIndexRow(idx, row)
			if err != nil {
				return err
			}
			list.Append(rowid)
		}
	}
	ex.stack.Push(h)
	return nil
}

// runIndexRange implements INDEX_RANGE/UNIQUE_RANGE/INDEX_SCAN: a seek
// (or, for a self-indexed backend, a narrowed FullScan) over the
// relevant index, then re-application of any leftover local predicates
// the chosen column alone didn't consume.
func (ex *executor) runIndexRange(step plan.Step) error {
	table := ex.table(step.TableID)
	idx, err := openIndex(table, step.Col)
	if err != nil {
		return err
	}

	h := ex.pool.Create(1, 8)
	list := ex.pool.Get(h)

	if isSelfIndex(table, idx) {
		predicates := step.Predicates
		if step.Value != nil {
			predicates = append(append([]ast.Node{}, predicates...), comparisonNode(step.TableID, step.Col, step.Op, step.Value))
		}
		match := func(row int) (bool, error) {
			ctx := scanContext{table: table, tableID: step.TableID, row: row, now: ex.now}
			return evalPredicates(predicates, ctx)
		}
		if err := table.FullScan(predicates, match, list, step.Limit); err != nil {
			return err
		}
	} else if step.Value != nil {
		value, err := ex.evalValue(step.Value)
		if err != nil {
			return err
		}
		if err := index.Seek(idx, step.Op, value, list, -1); err != nil {
			return err
		}
		if err := ex.applyLocalPredicates(step, list); err != nil {
			return err
		}
		list.Truncate(clampLimit(step.Limit, list.Len()))
	} else {
		if err := index.Scan(idx, list, -1); err != nil {
			return err
		}
		if err := ex.applyLocalPredicates(step, list); err != nil {
			return err
		}
		list.Truncate(clampLimit(step.Limit, list.Len()))
	}

	ex.stack.Push(h)
	return nil
}

// applyLocalPredicates re-checks step.Predicates (any local conjuncts
// the index seek itself didn't use) against each rowid already
// collected from the single source table.
func (ex *executor) applyLocalPredicates(step plan.Step, list *rowlist.List) error {
	if len(step.Predicates) == 0 {
		return nil
	}
	table := ex.table(step.TableID)
	return filterInPlace(list, func(row int) (bool, error) {
		rowid := list.RowID(0, row)
		ctx := scanContext{table: table, tableID: step.TableID, row: rowid, now: ex.now}
		return evalPredicates(step.Predicates, ctx)
	})
}

func clampLimit(limit, n int) int {
	if limit < 0 || limit > n {
		return n
	}
	return limit
}

// runTableAccessFull implements TABLE_ACCESS_FULL: the VFS's own
// fullScan walks every row, deferring to any PredicateScanner narrowing
// the backend implements (e.g. CALENDAR's date-range ScanRange).
func (ex *executor) runTableAccessFull(step plan.Step) error {
	table := ex.table(step.TableID)

	h := ex.pool.Create(1, 8)
	list := ex.pool.Get(h)

	match := func(row int) (bool, error) {
		ctx := scanContext{table: table, tableID: step.TableID, row: row, now: ex.now}
		return evalPredicates(step.Predicates, ctx)
	}
	if err := table.FullScan(step.Predicates, match, list, step.Limit); err != nil {
		return err
	}
	ex.stack.Push(h)
	return nil
}

// runTableScan implements TABLE_SCAN: a plain rowid range, narrowed by
// any rowid predicates the source step was given, with no per-row
// backend predicate evaluation at all.
func (ex *executor) runTableScan(step plan.Step) error {
	table := ex.table(step.TableID)
	n, err := table.RecordCount()
	if err != nil {
		return err
	}
	lo, hi, err := ex.rowidRange(step.Predicates, n)
	if err != nil {
		return err
	}

	h := ex.pool.Create(1, hi-lo)
	list := ex.pool.Get(h)
	for r := lo; r < hi; r++ {
		if step.Limit >= 0 && list.Len() >= step.Limit {
			break
		}
		list.Append(r)
	}
	ex.stack.Push(h)
	return nil
}

// rowidRange narrows [0, n) using any ROW_INDEX comparisons in
// predicates, per spec.md §4.6 ("TABLE_SCAN: push rowids over a
// computed range derived from any rowid predicate").
func (ex *executor) rowidRange(predicates []ast.Node, n int) (lo, hi int, err error) {
	lo, hi = 0, n
	for i := range predicates {
		p := &predicates[i]
		if p.Arity() != 2 {
			continue
		}
		left, right := p.Child(0), p.Child(1)
		op := p.Function
		var valueNode *ast.Node
		if left.IsLeaf() && left.Field.Index == ast.ColumnRowIndex {
			valueNode = right
		} else if right.IsLeaf() && right.Field.Index == ast.ColumnRowIndex {
			valueNode = left
			op = op.Flip()
		} else {
			continue
		}
		text, err := ex.evalValue(valueNode)
		if err != nil {
			return 0, 0, err
		}
		v, convErr := strconv.Atoi(text)
		if convErr != nil {
			continue
		}
		switch op {
		case ast.OperatorEq:
			lo, hi = maxI(lo, v), minI(hi, v+1)
		case ast.OperatorLt:
			hi = minI(hi, v)
		case ast.OperatorLe:
			hi = minI(hi, v+1)
		case ast.OperatorGt:
			lo = maxI(lo, v+1)
		case ast.OperatorGe:
			lo = maxI(lo, v)
		}
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi, nil
}

func maxI(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minI(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// runTableAccessRowid implements TABLE_ACCESS_ROWID: pop the top list
// and re-apply step.Predicates against every row in the context of all
// joined tables so far, pushing the filtered (same-width) list back.
func (ex *executor) runTableAccessRowid(step plan.Step) error {
	h, ok := ex.stack.Pop()
	if !ok {
		return errUnknownStep.New("TABLE_ACCESS_ROWID with empty stack")
	}
	list := ex.pool.Get(h)
	tables := ex.tablesUpTo(list.Width())

	err := filterInPlace(list, func(row int) (bool, error) {
		ctx := ex.newRowContext(tables, list, row)
		return evalPredicates(step.Predicates, ctx)
	})
	if err != nil {
		return err
	}
	if step.Limit >= 0 {
		list.Truncate(step.Limit)
	}
	ex.stack.Push(h)
	return nil
}
