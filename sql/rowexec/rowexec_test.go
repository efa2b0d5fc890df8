package rowexec

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/csvdb/csvdb/sql/ast"
	"github.com/csvdb/csvdb/sql/plan"
	"github.com/csvdb/csvdb/sql/vfs"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	tables []vfs.Table
}

func (c fakeCatalog) Table(id int) vfs.Table { return c.tables[id] }

type collector struct {
	rows []Row
}

func (c *collector) WriteRow(row Row) error {
	cp := make(Row, len(row))
	copy(cp, row)
	c.rows = append(c.rows, cp)
	return nil
}

func openCSV(t *testing.T, name, contents string) vfs.Table {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name+".csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	tbl, err := vfs.OpenCSVMem(name, path)
	require.NoError(t, err)
	return tbl
}

func col(table int, i ast.ColumnIndex) ast.Node {
	return ast.NewLeaf(ast.Field{TableID: table, Index: i})
}

func runQuery(t *testing.T, q *ast.Query, cat fakeCatalog) []Row {
	t.Helper()
	p, err := plan.Build(q, cat)
	require.NoError(t, err)
	w := &collector{}
	require.NoError(t, Execute(p, cat, w, time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)))
	return w.rows
}

func TestExecuteTableScanSelectsAllColumns(t *testing.T) {
	require := require.New(t)
	people := openCSV(t, "people", "id,name,score\n1,Ann,10\n2,Bob,20\n")
	q := &ast.Query{
		Tables:  []ast.TableRef{{Name: "people"}},
		Columns: []ast.Node{col(0, 0), col(0, 1), col(0, 2)},
		Limit:   ast.NoLimit,
	}
	rows := runQuery(t, q, fakeCatalog{tables: []vfs.Table{people}})
	require.Equal([]Row{{"1", "Ann", "10"}, {"2", "Bob", "20"}}, rows)
}

func TestExecuteTableAccessFullAppliesPredicate(t *testing.T) {
	require := require.New(t)
	people := openCSV(t, "people", "id,name,score\n1,Ann,10\n2,Bob,20\n3,Cid,20\n")
	eq := ast.NewCall(ast.OperatorEq, col(0, 2), ast.NewConstant("20"))
	q := &ast.Query{
		Tables:    []ast.TableRef{{Name: "people"}},
		Columns:   []ast.Node{col(0, 1)},
		Predicate: eq,
		Flags:     ast.FlagHasPredicate,
		Limit:     ast.NoLimit,
	}
	rows := runQuery(t, q, fakeCatalog{tables: []vfs.Table{people}})
	require.Equal([]Row{{"Bob"}, {"Cid"}}, rows)
}

func TestExecuteDeadPredicateEmitsNothing(t *testing.T) {
	require := require.New(t)
	people := openCSV(t, "people", "id\n1\n2\n")
	q := &ast.Query{
		Tables:    []ast.TableRef{{Name: "people"}},
		Columns:   []ast.Node{col(0, 0)},
		Predicate: ast.NewConstant("0"),
		Flags:     ast.FlagHasPredicate,
		Limit:     ast.NoLimit,
	}
	rows := runQuery(t, q, fakeCatalog{tables: []vfs.Table{people}})
	require.Empty(rows)
}

func TestExecuteCalendarPrimaryKeyPointLookup(t *testing.T) {
	require := require.New(t)
	cal := vfs.OpenCalendar()
	eq := ast.NewCall(ast.OperatorEq, col(0, 0), ast.NewConstant("2460000"))
	q := &ast.Query{
		Tables:    []ast.TableRef{{Name: "CALENDAR"}},
		Columns:   []ast.Node{col(0, 0), col(0, 1)},
		Predicate: eq,
		Flags:     ast.FlagHasPredicate,
		Limit:     ast.NoLimit,
	}
	rows := runQuery(t, q, fakeCatalog{tables: []vfs.Table{cal}})
	require.Len(rows, 1)
	require.Equal("2460000", rows[0][0])
}

func TestExecuteDummyRowForTablelessQuery(t *testing.T) {
	require := require.New(t)
	q := &ast.Query{Columns: []ast.Node{ast.NewConstant("42")}, Limit: ast.NoLimit}
	rows := runQuery(t, q, fakeCatalog{})
	require.Equal([]Row{{"42"}}, rows)
}

func TestExecuteCrossJoin(t *testing.T) {
	require := require.New(t)
	a := openCSV(t, "a", "x\n1\n2\n")
	b := openCSV(t, "b", "y\nfoo\nbar\n")
	q := &ast.Query{
		Tables: []ast.TableRef{
			{Name: "a"},
			{Name: "b", Join: ast.NewConstant(""), JoinType: ast.JoinCross},
		},
		Columns: []ast.Node{col(0, 0), col(1, 0)},
		Limit:   ast.NoLimit,
	}
	rows := runQuery(t, q, fakeCatalog{tables: []vfs.Table{a, b}})
	require.Len(rows, 4)
}

func TestExecuteLoopJoinWithLeftFallback(t *testing.T) {
	require := require.New(t)
	a := openCSV(t, "a", "id,name\n1,Ann\n2,Bob\n")
	b := openCSV(t, "b", "aid,note\n1,hi\n")
	onPred := ast.NewCall(ast.OperatorEq, col(0, 0), col(1, 0))
	q := &ast.Query{
		Tables: []ast.TableRef{
			{Name: "a"},
			{Name: "b", Join: onPred, JoinType: ast.JoinLeft},
		},
		Columns: []ast.Node{col(0, 1), col(1, 1)},
		Limit:   ast.NoLimit,
	}
	rows := runQuery(t, q, fakeCatalog{tables: []vfs.Table{a, b}})
	require.Equal([]Row{{"Ann", "hi"}, {"Bob", ""}}, rows)
}

func TestExecuteGroupCountStar(t *testing.T) {
	require := require.New(t)
	sales := openCSV(t, "sales", "region,amount\nE,10\nW,20\nE,30\n")
	countStar := ast.NewSelfChild(ast.FuncAggCount, ast.Field{Index: ast.ColumnCountStar})
	sumAmount := ast.NewCall(ast.FuncAggSum, col(0, 1))
	q := &ast.Query{
		Tables:  []ast.TableRef{{Name: "sales"}},
		Columns: []ast.Node{col(0, 0), countStar, sumAmount},
		GroupBy: []ast.Node{col(0, 0)},
		Flags:   ast.FlagGroup,
		Limit:   ast.NoLimit,
	}
	rows := runQuery(t, q, fakeCatalog{tables: []vfs.Table{sales}})
	require.Len(rows, 2)
	byRegion := map[string]Row{}
	for _, r := range rows {
		byRegion[r[0]] = r
	}
	require.Equal("2", byRegion["E"][1])
	require.Equal("40", byRegion["E"][2])
	require.Equal("1", byRegion["W"][1])
	require.Equal("20", byRegion["W"][2])
}

func TestExecuteAggregateWithNoRowsReportsOneRow(t *testing.T) {
	require := require.New(t)
	empty := openCSV(t, "empty", "id,amount\n")
	countStar := ast.NewSelfChild(ast.FuncAggCount, ast.Field{Index: ast.ColumnCountStar})
	q := &ast.Query{
		Tables:  []ast.TableRef{{Name: "empty"}},
		Columns: []ast.Node{countStar},
		Flags:   ast.FlagGroup,
		Limit:   ast.NoLimit,
	}
	rows := runQuery(t, q, fakeCatalog{tables: []vfs.Table{empty}})
	require.Equal([]Row{{"0"}}, rows)
}

func TestExecuteOrderByDesc(t *testing.T) {
	require := require.New(t)
	people := openCSV(t, "people", "id,score\n1,10\n2,30\n3,20\n")
	key := col(0, 1)
	key.SetDirection(ast.OrderDesc)
	q := &ast.Query{
		Tables:  []ast.TableRef{{Name: "people"}},
		Columns: []ast.Node{col(0, 0)},
		OrderBy: []ast.Node{key},
		Limit:   ast.NoLimit,
	}
	rows := runQuery(t, q, fakeCatalog{tables: []vfs.Table{people}})
	require.Equal([]Row{{"2"}, {"3"}, {"1"}}, rows)
}

func TestExecuteLimitOffset(t *testing.T) {
	require := require.New(t)
	people := openCSV(t, "people", "id\n1\n2\n3\n4\n5\n")
	q := &ast.Query{
		Tables:  []ast.TableRef{{Name: "people"}},
		Columns: []ast.Node{col(0, 0)},
		Limit:   2,
		Offset:  1,
	}
	rows := runQuery(t, q, fakeCatalog{tables: []vfs.Table{people}})
	require.Equal([]Row{{"2"}, {"3"}}, rows)
}
