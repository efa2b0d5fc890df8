package vfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/csvdb/csvdb/sql/ast"
	"github.com/csvdb/csvdb/sql/rowlist"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCSVMemReadAndInsert(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "people.csv", "name,age\nAlice,30\nBob,25\n")

	tbl, err := OpenCSVMem("people", path)
	require.NoError(err)

	n, err := tbl.RecordCount()
	require.NoError(err)
	require.Equal(2, n)

	require.Equal(ast.ColumnIndex(0), tbl.FieldIndex("name"))
	require.Equal(ast.ColumnRowIndex, tbl.FieldIndex("rowid"))

	cell, err := tbl.GetCell(1, 0)
	require.NoError(err)
	require.Equal("Bob", cell)

	require.NoError(tbl.InsertRow([]string{"Carol", "40"}))
	n, err = tbl.RecordCount()
	require.NoError(err)
	require.Equal(3, n)

	reopened, err := OpenCSVMem("people", path)
	require.NoError(err)
	n, err = reopened.RecordCount()
	require.NoError(err)
	require.Equal(3, n)
}

func TestCSVMemQuotedCellsAndCommas(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "quoted.csv", "a,b\n\"x,y\",\"he said \"\"hi\"\"\"\n")

	tbl, err := OpenCSVMem("quoted", path)
	require.NoError(err)
	v0, err := tbl.GetCell(0, 0)
	require.NoError(err)
	require.Equal("x,y", v0)
	v1, err := tbl.GetCell(0, 1)
	require.NoError(err)
	require.Equal(`he said "hi"`, v1)
}

func TestTSVAndWSVBackends(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()

	tsvPath := writeFile(t, dir, "t.tsv", "a\tb\n1\t2\n")
	tsv, err := OpenTSV("t", tsvPath)
	require.NoError(err)
	n, err := tsv.RecordCount()
	require.NoError(err)
	require.Equal(1, n)

	wsvPath := writeFile(t, dir, "w.wsv", "a b\n1   2\n")
	wsv, err := OpenWSV("w", wsvPath)
	require.NoError(err)
	cell, err := wsv.GetCell(0, 1)
	require.NoError(err)
	require.Equal("2", cell)
}

func TestCalendarIndexSearchAndScanRange(t *testing.T) {
	require := require.New(t)
	cal := OpenCalendar()

	row, status, err := cal.IndexSearch("2000-01-01", SearchUnique)
	require.NoError(err)
	require.Equal(StatusFound, status)

	date, err := cal.GetCell(row, 1)
	require.NoError(err)
	require.Equal("2000-01-01", date)

	eq := ast.NewCall(ast.OperatorEq,
		ast.NewLeaf(ast.Field{Text: "date", Index: 1}),
		ast.NewConstant("2000-01-01"),
	)
	lo, hi, ok := cal.ScanRange([]ast.Node{eq})
	require.True(ok)
	require.Equal(row, lo)
	require.Equal(row+1, hi)
}

func TestCalendarFullScanUsesNarrowedRange(t *testing.T) {
	require := require.New(t)
	cal := OpenCalendar()
	pool := rowlist.NewPool()
	dest := pool.Get(pool.Create(1, 0))

	row, _, err := cal.IndexSearch("2024-03-15", SearchUnique)
	require.NoError(err)

	eq := ast.NewCall(ast.OperatorEq,
		ast.NewLeaf(ast.Field{Text: "date", Index: 1}),
		ast.NewConstant("2024-03-15"),
	)
	match := func(r int) (bool, error) { return true, nil }
	require.NoError(cal.FullScan([]ast.Node{eq}, match, dest, -1))
	require.Equal(1, dest.Len())
	require.Equal(row, dest.RowID(0, 0))
}

func TestSequenceFullScanRespectsLimit(t *testing.T) {
	require := require.New(t)
	seq := OpenSequence(10)
	pool := rowlist.NewPool()
	dest := pool.Get(pool.Create(1, 0))

	match := func(r int) (bool, error) { return r%2 == 0, nil }
	require.NoError(seq.FullScan(nil, match, dest, 3))
	require.Equal(3, dest.Len())
	require.Equal(0, dest.RowID(0, 0))
	require.Equal(2, dest.RowID(0, 1))
}
