// Package vfs implements the polymorphic table-access layer (component
// C3): a single Table interface satisfied by one struct per storage
// backend (CSV, TSV, WSV, the CALENDAR/SEQUENCE synthetic tables, VIEW,
// TEMP, and inline VALUES), exactly as struct VFS's function-pointer
// table enumerates the same nine operations in
// _examples/original_source/src/structs.h.
package vfs

import (
	"github.com/csvdb/csvdb/sql/ast"
	"github.com/csvdb/csvdb/sql/rowlist"
	errors "gopkg.in/src-d/go-errors.v1"
)

// ErrNoBackend is returned by Open when every backend rejects a spec.
var ErrNoBackend = errors.NewKind("no backend could open %q")

// ErrReadOnlyTable is returned by InsertRow/InsertFromQuery against a
// backend that does not support mutation (CALENDAR, SEQUENCE, VIEW).
var ErrReadOnlyTable = errors.NewKind("table %q does not support insert")

// IndexKind classifies what FindIndex discovered for a column.
type IndexKind int

const (
	IndexNone IndexKind = iota
	IndexRegular
	IndexUnique
	IndexPrimary
)

// SearchMode selects how IndexSearch treats duplicate keys in a
// non-unique index.
type SearchMode int

const (
	SearchUnique SearchMode = iota
	SearchLowerBound
	SearchUpperBound
)

// SearchStatus is the outcome of an IndexSearch/Seek call.
type SearchStatus int

const (
	StatusFound SearchStatus = iota
	StatusBetween
	StatusBelowMin
	StatusAboveMax
)

// RowMatcher is the per-row predicate FullScan evaluates: it receives the
// row index and returns whether the row should be included. The executor
// binds this to expression.Evaluate over the query's predicate nodes
// partially applied to the row; vfs never imports package expression so
// this stays a plain callback, keeping the ast -> {vfs, expression} ->
// plan import graph acyclic.
type RowMatcher func(row int) (bool, error)

// PredicateScanner is an optional capability a Table can implement to
// narrow FullScan using the raw predicate Nodes before RowMatcher-driven
// per-row evaluation, e.g. CALENDAR translating a date range predicate
// into a Julian rowid range. Backends that don't implement it fall back
// to the default full 0..RecordCount-1 walk with RowMatcher applied.
type PredicateScanner interface {
	// ScanRange attempts to derive a [lo, hi) rowid range covering every
	// row that could match predicates; ok is false if no narrowing was
	// possible and the caller must fall back to a full scan.
	ScanRange(predicates []ast.Node) (lo, hi int, ok bool)
}

// Table is the uniform interface every storage backend implements,
// grounded on struct VFS's nine function pointers.
type Table interface {
	// Close releases any open file handles or mmaps.
	Close() error

	// FieldIndex resolves a column name (case-sensitive) to its ordinal,
	// or ast.ColumnUnknown if not found. "rowid" always resolves to
	// ast.ColumnRowIndex.
	FieldIndex(name string) ast.ColumnIndex
	// FieldName returns the column name at ordinal i.
	FieldName(i int) string
	// FieldCount returns the number of real (non-synthetic) columns.
	FieldCount() int

	// RecordCount returns the number of rows, computed lazily on first
	// call for streaming backends.
	RecordCount() (int, error)

	// GetCell returns the text of row, col. ast.ColumnRowIndex returns
	// the textual row number.
	GetCell(row int, col ast.ColumnIndex) (string, error)

	// FindIndex discovers a side index for col, by naming convention or
	// synthetic knowledge (CALENDAR's julian/date columns).
	FindIndex(col ast.ColumnIndex) (IndexKind, error)

	// FullScan appends to dest every row index in [0, RecordCount) for
	// which match returns true, stopping early once limit rows have been
	// appended (limit < 0 means unbounded). predicates is supplied so a
	// PredicateScanner-capable backend can narrow its walk; callers that
	// have no structured predicates (e.g. a plain TABLE_SCAN) pass nil.
	FullScan(predicates []ast.Node, match RowMatcher, dest *rowlist.List, limit int) error

	// IndexSearch performs a binary search for value in this table's
	// sorted leading column (valid only when this Table is itself an
	// index side-file, as returned by Index below).
	IndexSearch(value string, mode SearchMode) (row int, status SearchStatus, err error)

	// Index opens the side-file backing the discovered index over col, if
	// any was found by FindIndex.
	Index(col ast.ColumnIndex) (Table, error)

	// InsertRow appends one NUL-free CSV/TSV record, rebuilding any
	// cached line-offset table afterward.
	InsertRow(values []string) error
	// InsertFromQuery appends every row an already-executed query result
	// produced; rows is the already-rendered cell text per row.
	InsertFromQuery(rows [][]string) error

	// Name is the table's name as it was opened, for error messages and
	// EXPLAIN output.
	Name() string
}
