package vfs

import "github.com/csvdb/csvdb/sql/ast"

// WSV is the whitespace-separated backend: fields split on runs of
// whitespace with no quoting, grounded on
// _examples/original_source/src/db/wsv-mem.c and recovered per
// SPEC_FULL.md §5 as a supplemented (not excluded) feature.
type WSV struct{ *memTable }

// OpenWSV reads path fully into memory as whitespace-separated text.
func OpenWSV(name, path string) (*WSV, error) {
	m, err := newMemTable(name, path, splitWSVLine, joinWSV)
	if err != nil {
		return nil, err
	}
	return &WSV{m}, nil
}

func (w *WSV) FindIndex(col ast.ColumnIndex) (IndexKind, error) {
	return w.memTable.FindIndex(col, "wsv")
}

func (w *WSV) Index(col ast.ColumnIndex) (Table, error) {
	return w.memTable.Index(col, "wsv", splitWSVLine, joinWSV)
}
