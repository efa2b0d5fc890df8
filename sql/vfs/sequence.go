package vfs

import (
	"strconv"

	"github.com/csvdb/csvdb/sql/ast"
	"github.com/csvdb/csvdb/sql/rowlist"
)

// sequenceDefaultCount is used when a SEQUENCE spec doesn't say how many
// rows to synthesize, mirroring the original's default in
// src/db/sequence.c.
const sequenceDefaultCount = 1000

// Sequence is the synthetic `SEQUENCE(n)` table: a single `value` column
// holding 0..n-1, with no index support, per spec.md §4.2
// ("SEQUENCE has none").
type Sequence struct {
	count int
}

// OpenSequence returns a SEQUENCE backend yielding count rows (or the
// default if count <= 0).
func OpenSequence(count int) *Sequence {
	if count <= 0 {
		count = sequenceDefaultCount
	}
	return &Sequence{count: count}
}

func (s *Sequence) Name() string { return "SEQUENCE" }
func (s *Sequence) Close() error { return nil }

func (s *Sequence) FieldCount() int { return 1 }

func (s *Sequence) FieldIndex(name string) ast.ColumnIndex {
	if name == "rowid" {
		return ast.ColumnRowIndex
	}
	if name == "value" {
		return 0
	}
	return ast.ColumnUnknown
}

func (s *Sequence) FieldName(i int) string {
	if i == 0 {
		return "value"
	}
	return ""
}

func (s *Sequence) RecordCount() (int, error) { return s.count, nil }

func (s *Sequence) GetCell(row int, col ast.ColumnIndex) (string, error) {
	return strconv.Itoa(row), nil
}

func (s *Sequence) FindIndex(col ast.ColumnIndex) (IndexKind, error) { return IndexNone, nil }
func (s *Sequence) Index(col ast.ColumnIndex) (Table, error)         { return nil, nil }

func (s *Sequence) IndexSearch(value string, mode SearchMode) (int, SearchStatus, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, StatusBelowMin, err
	}
	switch {
	case n < 0:
		return 0, StatusBelowMin, nil
	case n >= s.count:
		return s.count, StatusAboveMax, nil
	default:
		return n, StatusFound, nil
	}
}

func (s *Sequence) FullScan(predicates []ast.Node, match RowMatcher, dest *rowlist.List, limit int) error {
	for i := 0; i < s.count; i++ {
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

func (s *Sequence) InsertRow(values []string) error       { return ErrReadOnlyTable.New("SEQUENCE") }
func (s *Sequence) InsertFromQuery(rows [][]string) error { return ErrReadOnlyTable.New("SEQUENCE") }
