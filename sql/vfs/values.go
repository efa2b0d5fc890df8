package vfs

import (
	"strconv"

	"github.com/csvdb/csvdb/sql/ast"
	"github.com/csvdb/csvdb/sql/rowlist"
)

// Values is the inline `VALUES (...), (...)` backend. The engine folds
// each row's Nodes to literal text via package expression before
// constructing a Values table, so vfs itself never needs to evaluate an
// expression tree -- keeping the ast -> {vfs, expression} -> plan import
// graph acyclic, per DESIGN NOTES §9.
type Values struct {
	name string
	cols []string
	rows [][]string
}

// OpenValues wraps already-rendered rows as a Table with the given
// (synthetic) column names, e.g. "column1", "column2", ...
func OpenValues(name string, cols []string, rows [][]string) *Values {
	return &Values{name: name, cols: cols, rows: rows}
}

func (v *Values) Name() string { return v.name }
func (v *Values) Close() error { return nil }

func (v *Values) FieldCount() int { return len(v.cols) }

func (v *Values) FieldIndex(name string) ast.ColumnIndex {
	if name == "rowid" {
		return ast.ColumnRowIndex
	}
	for i, c := range v.cols {
		if c == name {
			return ast.ColumnIndex(i)
		}
	}
	return ast.ColumnUnknown
}

func (v *Values) FieldName(i int) string {
	if i < 0 || i >= len(v.cols) {
		return ""
	}
	return v.cols[i]
}

func (v *Values) RecordCount() (int, error) { return len(v.rows), nil }

func (v *Values) GetCell(row int, col ast.ColumnIndex) (string, error) {
	if col == ast.ColumnRowIndex {
		return strconv.Itoa(row), nil
	}
	if row < 0 || row >= len(v.rows) {
		return "", nil
	}
	r := v.rows[row]
	if int(col) < 0 || int(col) >= len(r) {
		return "", nil
	}
	return r[col], nil
}

func (v *Values) FindIndex(col ast.ColumnIndex) (IndexKind, error) { return IndexNone, nil }
func (v *Values) Index(col ast.ColumnIndex) (Table, error)         { return nil, nil }

func (v *Values) IndexSearch(value string, mode SearchMode) (int, SearchStatus, error) {
	return 0, StatusBelowMin, ErrReadOnlyTable.New(v.name)
}

func (v *Values) FullScan(predicates []ast.Node, match RowMatcher, dest *rowlist.List, limit int) error {
	for i := range v.rows {
		if limit >= 0 && dest.Len() >= limit {
			break
		}
		ok, err := match(i)
		if err != nil {
			return err
		}
		if ok {
			dest.Append(i)
		}
	}
	return nil
}

func (v *Values) InsertRow(values []string) error       { return ErrReadOnlyTable.New(v.name) }
func (v *Values) InsertFromQuery(rows [][]string) error { return ErrReadOnlyTable.New(v.name) }
