// Package index implements the index search/seek/scan primitives
// (component C4): binary search over an index side-file's sorted
// leading column, range derivation from a comparison operator, and a
// plain in-order walk. Grounded on
// _examples/original_source/src/db/index.c (indexSearch/indexSeek/indexScan).
package index

import (
	"strconv"

	"github.com/csvdb/csvdb/sql/ast"
	"github.com/csvdb/csvdb/sql/rowlist"
	"github.com/csvdb/csvdb/sql/vfs"
)

// rowidColumn is the index side-file's second column: the primary
// table's rowid for the row whose key is the leading column, per the
// `<table>__col.index.csv` convention (key,rowid).
const rowidColumn ast.ColumnIndex = 1

// Search is a thin pass-through to the backend's own binary search,
// exposed here so callers working purely in terms of package index never
// need to reach into vfs directly.
func Search(idx vfs.Table, value string, mode vfs.SearchMode) (int, vfs.SearchStatus, error) {
	return idx.IndexSearch(value, mode)
}

// Seek maps comparison operator op against value to a dense row range in
// idx and appends the rowid column of every row in that range to dest,
// stopping at limit rows (limit < 0 means unbounded). LIKE with a single
// trailing '%' is translated into a range seek on the literal prefix;
// '!=' is executed as two walks around the matching position, per
// spec.md §4.3.
func Seek(idx vfs.Table, op ast.Function, value string, dest *rowlist.List, limit int) error {
	n, err := idx.RecordCount()
	if err != nil {
		return err
	}

	if op == ast.OperatorLike {
		return seekLikePrefix(idx, value, dest, limit, n)
	}

	if op == ast.OperatorNe {
		lo1, hi1, err := rangeFor(idx, ast.OperatorLt, value, n)
		if err != nil {
			return err
		}
		if err := walk(idx, lo1, hi1, dest, limit); err != nil {
			return err
		}
		lo2, hi2, err := rangeFor(idx, ast.OperatorGt, value, n)
		if err != nil {
			return err
		}
		return walk(idx, lo2, hi2, dest, limit)
	}

	lo, hi, err := rangeFor(idx, op, value, n)
	if err != nil {
		return err
	}
	return walk(idx, lo, hi, dest, limit)
}

// rangeFor derives the [lo, hi) row range in idx matching op, via the
// lower/upper-bound binary searches and endpoint status codes, per
// spec.md §4.3 ("first checking endpoints for BelowMin/AboveMax, then
// bisecting").
func rangeFor(idx vfs.Table, op ast.Function, value string, n int) (lo, hi int, err error) {
	lower, lowStatus, err := idx.IndexSearch(value, vfs.SearchLowerBound)
	if err != nil {
		return 0, 0, err
	}
	upper, upStatus, err := idx.IndexSearch(value, vfs.SearchUpperBound)
	if err != nil {
		return 0, 0, err
	}

	switch op {
	case ast.OperatorEq:
		if lowStatus == vfs.StatusBelowMin || lowStatus == vfs.StatusAboveMax || lowStatus == vfs.StatusBetween {
			return 0, 0, nil
		}
		return lower, upper + 1, nil
	case ast.OperatorLt:
		if lowStatus == vfs.StatusBelowMin {
			return 0, 0, nil
		}
		if lowStatus == vfs.StatusAboveMax {
			return 0, n, nil
		}
		return 0, lower, nil
	case ast.OperatorLe:
		if lowStatus == vfs.StatusBelowMin {
			return 0, 0, nil
		}
		if lowStatus == vfs.StatusAboveMax {
			return 0, n, nil
		}
		if lowStatus == vfs.StatusBetween {
			return 0, lower, nil
		}
		return 0, upper + 1, nil
	case ast.OperatorGt:
		if upStatus == vfs.StatusAboveMax {
			return 0, 0, nil
		}
		if upStatus == vfs.StatusBelowMin {
			return 0, n, nil
		}
		if upStatus == vfs.StatusBetween {
			return upper, n, nil
		}
		return upper + 1, n, nil
	case ast.OperatorGe:
		if upStatus == vfs.StatusAboveMax {
			return 0, 0, nil
		}
		if lowStatus == vfs.StatusBelowMin {
			return 0, n, nil
		}
		return lower, n, nil
	}
	return 0, n, nil
}

func walk(idx vfs.Table, lo, hi int, dest *rowlist.List, limit int) error {
	for r := lo; r < hi; r++ {
		if limit >= 0 && dest.Len() >= limit {
			return nil
		}
		rowidText, err := idx.GetCell(r, rowidColumn)
		if err != nil {
			return err
		}
		rowid, convErr := strconv.Atoi(rowidText)
		if convErr != nil {
			return convErr
		}
		dest.Append(rowid)
	}
	return nil
}

// seekLikePrefix handles `col LIKE 'prefix%'` by incrementing the byte
// before the trailing '%' to derive an upper bound, e.g. "ab%" seeks
// ["ab", "ac"), per spec.md §4.3.
func seekLikePrefix(idx vfs.Table, pattern string, dest *rowlist.List, limit, n int) error {
	prefix, ok := trailingPercentPrefix(pattern)
	if !ok {
		// Not an index-usable pattern; caller should have already fallen
		// back to a full scan before reaching here.
		return walk(idx, 0, n, dest, limit)
	}
	lo, _, err := idx.IndexSearch(prefix, vfs.SearchLowerBound)
	if err != nil {
		return err
	}
	upperKey := incrementLastByte(prefix)
	var hi int
	if upperKey == "" {
		hi = n
	} else {
		hi, _, err = idx.IndexSearch(upperKey, vfs.SearchLowerBound)
		if err != nil {
			return err
		}
	}
	return walk(idx, lo, hi, dest, limit)
}

// trailingPercentPrefix reports whether pattern is exactly `literal%`
// with no other wildcard/escape characters, returning the literal part.
func trailingPercentPrefix(pattern string) (string, bool) {
	if len(pattern) == 0 || pattern[len(pattern)-1] != '%' {
		return "", false
	}
	prefix := pattern[:len(pattern)-1]
	for i := 0; i < len(prefix); i++ {
		if prefix[i] == '%' || prefix[i] == '_' {
			return "", false
		}
	}
	return prefix, true
}

// incrementLastByte returns the lexicographically next string after
// every string starting with prefix, by incrementing prefix's last byte
// (carrying into shorter prefixes on overflow). Returns "" if prefix is
// all 0xFF bytes (no finite upper bound; caller uses the end of index).
func incrementLastByte(prefix string) string {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xFF {
			b[i]++
			return string(b[:i+1])
		}
	}
	return ""
}

// Scan walks the entire index in key order, appending the rowid column
// of every row, stopping at limit.
func Scan(idx vfs.Table, dest *rowlist.List, limit int) error {
	n, err := idx.RecordCount()
	if err != nil {
		return err
	}
	return walk(idx, 0, n, dest, limit)
}
