package vfs

import "github.com/csvdb/csvdb/sql/ast"

// CSVMem is the comma-separated, quote-aware, eagerly-parsed in-memory
// backend -- the simple case of the two CSV backends spec.md §4.2
// distinguishes (the other being the streaming/mmap variants in
// stream.go and mmap.go).
type CSVMem struct{ *memTable }

// OpenCSVMem reads path fully into memory as CSV.
func OpenCSVMem(name, path string) (*CSVMem, error) {
	m, err := newMemTable(name, path, splitCSVLine, joinCSV)
	if err != nil {
		return nil, err
	}
	return &CSVMem{m}, nil
}

func (c *CSVMem) FindIndex(col ast.ColumnIndex) (IndexKind, error) {
	return c.memTable.FindIndex(col, "csv")
}

func (c *CSVMem) Index(col ast.ColumnIndex) (Table, error) {
	return c.memTable.Index(col, "csv", splitCSVLine, joinCSV)
}
