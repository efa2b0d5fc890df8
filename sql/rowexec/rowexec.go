// Package rowexec implements the single-loop plan executor (component
// C9): one switch dispatching each plan.Step against a pool of row
// lists and a LIFO result-set stack, exactly as spec.md §4.6 describes.
// Grounded on _examples/original_source/src/query/execute.c's
// executeQuery step loop.
package rowexec

import (
	"time"

	"github.com/csvdb/csvdb/sql/ast"
	"github.com/csvdb/csvdb/sql/expression"
	"github.com/csvdb/csvdb/sql/plan"
	"github.com/csvdb/csvdb/sql/rowlist"
	"github.com/csvdb/csvdb/sql/vfs"
	errors "gopkg.in/src-d/go-errors.v1"
)

// indexRowidColumn is the second column of a genuine index side-file
// (key, rowid), per spec.md §6's index file convention. Self-indexed
// backends (CALENDAR) never go through this lookup: their index row
// position already equals the base table's rowid.
const indexRowidColumn ast.ColumnIndex = 1

var errUnknownStep = errors.NewKind("rowexec: unhandled plan step %s")

// Catalog gives the executor the live vfs.Table for each FROM-clause
// table index, the same role plan.Catalog plays during planning.
type Catalog interface {
	Table(tableID int) vfs.Table
}

// Row is one emitted output row: the rendered text of each SELECT list
// column, in order.
type Row []string

// Writer receives each row the SELECT step produces, in emission order.
type Writer interface {
	WriteRow(row Row) error
}

// Execute runs p's steps against cat's open tables, writing SELECT's
// output rows to w. now is the "current time" CURRENT_DATE/NOW()/TODAY()
// resolve against for this run.
func Execute(p *plan.Plan, cat Catalog, w Writer, now time.Time) error {
	ex := &executor{
		query: p.Query,
		cat:   cat,
		pool:  rowlist.NewPool(),
		stack: rowlist.NewResultStack(),
		now:   now,
		w:     w,
	}
	for _, step := range p.Steps {
		if err := ex.run(step); err != nil {
			return err
		}
	}
	return nil
}

// executor holds the state threaded through one query's step loop: the
// row-list pool and result-set stack spec.md §5 calls out as the only
// shared mutable state a single execution touches.
type executor struct {
	query *ast.Query
	cat   Catalog
	pool  *rowlist.Pool
	stack *rowlist.ResultStack
	now   time.Time
	w     Writer

	// pendingOffset is set by runOffset and consumed by runSelect, which
	// skips this many leading output rows; OFFSET never touches the
	// stack itself (see applyLimit's combined-limit folding).
	pendingOffset int
}

func (ex *executor) table(tableID int) vfs.Table {
	return ex.cat.Table(tableID)
}

func (ex *executor) run(step plan.Step) error {
	switch step.Type {
	case plan.DummyRow:
		return ex.runDummyRow(step)
	case plan.PK, plan.Unique:
		return ex.runPointLookup(step)
	case plan.IndexRange, plan.UniqueRange, plan.IndexScan:
		return ex.runIndexRange(step)
	case plan.TableAccessFull:
		return ex.runTableAccessFull(step)
	case plan.TableScan:
		return ex.runTableScan(step)
	case plan.TableAccessRowid:
		return ex.runTableAccessRowid(step)
	case plan.CrossJoin:
		return ex.runCrossJoin(step)
	case plan.ConstantJoin:
		return ex.runConstantJoin(step)
	case plan.LoopJoin:
		return ex.runLoopJoin(step)
	case plan.UniqueJoin:
		return ex.runUniqueJoin(step)
	case plan.IndexJoin:
		return ex.runIndexJoin(step)
	case plan.Sort:
		return ex.runSort(step)
	case plan.Reverse:
		return ex.runReverse(step)
	case plan.Slice:
		return ex.runSlice(step)
	case plan.Offset:
		return ex.runOffset(step)
	case plan.Group:
		return ex.runGroup(step, false)
	case plan.GroupSorted:
		return ex.runGroup(step, true)
	case plan.Select:
		return ex.runSelect(step)
	}
	return errUnknownStep.New(step.Type.String())
}

// evalValue evaluates a Step's Value/Predicates node with no row bound:
// valid because the planner only ever stores an already-folded constant
// (or a CURRENT_DATE/NOW()-style keyword) as the seek value of an index
// step.
func (ex *executor) evalValue(n *ast.Node) (string, error) {
	return expression.Evaluate(n, constantContext{now: ex.now})
}

// newRowContext builds the per-row Context used to evaluate predicates
// and SELECT list expressions against list's row-th entry.
func (ex *executor) newRowContext(tables []vfs.Table, list *rowlist.List, row int) rowContext {
	return rowContext{tables: tables, list: list, row: row, now: ex.now}
}

// tablesUpTo returns the open vfs.Table handles for table indices
// [0, width), the shape a row list of that width addresses. A table-less
// query's one-column DUMMY_ROW list gets no handles.
func (ex *executor) tablesUpTo(width int) []vfs.Table {
	if width > len(ex.query.Tables) {
		width = len(ex.query.Tables)
	}
	tables := make([]vfs.Table, width)
	for i := 0; i < width; i++ {
		tables[i] = ex.table(i)
	}
	return tables
}

// evalPredicates reports whether every node in predicates evaluates
// truthy against ctx (an implicit AND across the conjunct list).
func evalPredicates(predicates []ast.Node, ctx expression.Context) (bool, error) {
	for i := range predicates {
		text, err := expression.Evaluate(&predicates[i], ctx)
		if err != nil {
			return false, err
		}
		if !truthy(text) {
			return false, nil
		}
	}
	return true, nil
}

func truthy(s string) bool { return s != "" && s != "0" }

// comparisonNode builds a synthetic "tableID.col op value" predicate
// node from an index step's seek fields, for backends (PredicateScanner
// implementations such as CALENDAR) that narrow FullScan using raw
// predicate nodes instead of a side-file index.
func comparisonNode(tableID int, col ast.ColumnIndex, op ast.Function, value *ast.Node) ast.Node {
	left := ast.NewLeaf(ast.Field{TableID: tableID, Index: col})
	return ast.NewCall(op, left, *value)
}

// filterInPlace compacts list, keeping only rows for which keep returns
// true, preserving relative order; used wherever a step must re-check
// predicates against rows already collected (TABLE_ACCESS_ROWID, and an
// INDEX_SCAN's leftover local predicates).
func filterInPlace(list *rowlist.List, keep func(row int) (bool, error)) error {
	width := list.Width()
	write := 0
	n := list.Len()
	for read := 0; read < n; read++ {
		ok, err := keep(read)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if write != read {
			for j := 0; j < width; j++ {
				list.WriteAt(j, write, list.RowID(j, read))
			}
		}
		write++
	}
	list.Truncate(write)
	return nil
}
