package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/csvdb/csvdb/sql/ast"
	"github.com/csvdb/csvdb/sql/vfs"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	tables []vfs.Table
}

func (c fakeCatalog) Table(id int) vfs.Table { return c.tables[id] }

func openCSV(t *testing.T, name, contents string) vfs.Table {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name+".csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	tbl, err := vfs.OpenCSVMem(name, path)
	require.NoError(t, err)
	return tbl
}

func col(table, i int) ast.Node {
	return ast.NewLeaf(ast.Field{TableID: table, Index: ast.ColumnIndex(i)})
}

func TestBuildNoPredicateTableScan(t *testing.T) {
	require := require.New(t)
	people := openCSV(t, "people", "id,name,score\n1,Ann,10\n2,Bob,20\n")
	q := &ast.Query{
		Tables: []ast.TableRef{{Name: "people"}},
	}
	p, err := Build(q, fakeCatalog{tables: []vfs.Table{people}})
	require.NoError(err)
	require.True(len(p.Steps) >= 2)
	require.Equal(TableScan, p.Steps[0].Type)
	require.Equal(Select, p.Steps[len(p.Steps)-1].Type)
}

func TestBuildEqualityPredicateFullScan(t *testing.T) {
	require := require.New(t)
	people := openCSV(t, "people", "id,name,score\n1,Ann,10\n2,Bob,20\n")
	eq := ast.NewCall(ast.OperatorEq, col(0, 2), ast.NewConstant("10"))
	q := &ast.Query{
		Tables:    []ast.TableRef{{Name: "people"}},
		Predicate: eq,
		Flags:     ast.FlagHasPredicate,
	}
	p, err := Build(q, fakeCatalog{tables: []vfs.Table{people}})
	require.NoError(err)
	require.Equal(TableAccessFull, p.Steps[0].Type)
	require.Len(p.Steps[0].Predicates, 1)
}

func TestBuildDeadPredicateEmitsOnlySelect(t *testing.T) {
	require := require.New(t)
	people := openCSV(t, "people", "id\n1\n")
	dead := ast.NewConstant("0")
	q := &ast.Query{
		Tables:    []ast.TableRef{{Name: "people"}},
		Predicate: dead,
		Flags:     ast.FlagHasPredicate,
	}
	p, err := Build(q, fakeCatalog{tables: []vfs.Table{people}})
	require.NoError(err)
	require.Len(p.Steps, 1)
	require.Equal(Select, p.Steps[0].Type)
}

func TestBuildNoTablesDummyRow(t *testing.T) {
	require := require.New(t)
	q := &ast.Query{Columns: []ast.Node{ast.NewConstant("1")}}
	p, err := Build(q, fakeCatalog{})
	require.NoError(err)
	require.Len(p.Steps, 2)
	require.Equal(DummyRow, p.Steps[0].Type)
	require.Equal(Select, p.Steps[1].Type)
}

func TestBuildCalendarPrimaryKeyEquality(t *testing.T) {
	require := require.New(t)
	cal := vfs.OpenCalendar()
	eq := ast.NewCall(ast.OperatorEq, col(0, 0), ast.NewConstant("2460000"))
	q := &ast.Query{
		Tables:    []ast.TableRef{{Name: "CALENDAR"}},
		Predicate: eq,
		Flags:     ast.FlagHasPredicate,
	}
	p, err := Build(q, fakeCatalog{tables: []vfs.Table{cal}})
	require.NoError(err)
	require.Equal(PK, p.Steps[0].Type)
}

func TestExplainProducesRowsPerStep(t *testing.T) {
	require := require.New(t)
	people := openCSV(t, "people", "id,name\n1,Ann\n2,Bob\n")
	q := &ast.Query{Tables: []ast.TableRef{{Name: "people"}}}
	cat := fakeCatalog{tables: []vfs.Table{people}}
	p, err := Build(q, cat)
	require.NoError(err)
	rows := Explain(p, cat)
	require.Len(rows, len(p.Steps))
}
