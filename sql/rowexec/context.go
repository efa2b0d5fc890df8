package rowexec

import (
	"time"

	"github.com/csvdb/csvdb/sql/ast"
	"github.com/csvdb/csvdb/sql/expression"
	"github.com/csvdb/csvdb/sql/rowlist"
	"github.com/csvdb/csvdb/sql/vfs"
	errors "gopkg.in/src-d/go-errors.v1"
)

var errConstantContextCell = errors.NewKind("rowexec: a plan step's value expression referenced a table cell")

// constantContext backs the one-off evaluation of a Step's Value node
// (the right-hand side of the comparison an index step seeks on), which
// the planner only ever populates with an already-folded constant or a
// CURRENT_DATE/NOW()-style keyword, never a live column reference.
type constantContext struct{ now time.Time }

func (constantContext) Cell(tableID int, col ast.ColumnIndex) (string, error) {
	return "", errConstantContextCell.New()
}

func (constantContext) RowID(tableID int) int { return 0 }

func (c constantContext) Now() time.Time { return c.now }

var _ expression.Context = constantContext{}

// rowContext implements expression.Context over one row of a (possibly
// joined) row list: Cell dereferences the rowid this row carries for
// tableID through the matching open vfs.Table, translating
// rowlist.RowidNull (a LEFT JOIN's unmatched right side) into NULL per
// spec.md's "'' stands for NULL" convention.
type rowContext struct {
	tables []vfs.Table
	list   *rowlist.List
	row    int
	now    time.Time
}

func (c rowContext) Cell(tableID int, col ast.ColumnIndex) (string, error) {
	rowid := c.list.RowID(tableID, c.row)
	if rowid == rowlist.RowidNull {
		return "", nil
	}
	return c.tables[tableID].GetCell(rowid, col)
}

func (c rowContext) RowID(tableID int) int {
	return c.list.RowID(tableID, c.row)
}

func (c rowContext) Now() time.Time { return c.now }

var _ expression.Context = rowContext{}

// groupSource adapts a Group-marked rowlist.List into an
// expression.RowSource for EvaluateAggregate.
type groupSource struct {
	tables []vfs.Table
	list   *rowlist.List
	now    time.Time
}

func (g groupSource) Len() int { return g.list.Len() }

func (g groupSource) At(i int) expression.Context {
	return rowContext{tables: g.tables, list: g.list, row: i, now: g.now}
}

var _ expression.RowSource = groupSource{}
