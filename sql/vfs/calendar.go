package vfs

import (
	"strconv"
	"time"

	"github.com/csvdb/csvdb/sql/ast"
	"github.com/csvdb/csvdb/sql/juliantime"
	"github.com/csvdb/csvdb/sql/rowlist"
	"github.com/pkg/errors"
)

// zeroNow is passed to juliantime.Parse when resolving a literal date
// constant against CALENDAR's index: the "current time" argument only
// matters for the CURRENT_DATE/CURRENT_TIME/NOW() keyword forms, which
// never reach IndexSearch/ScanRange (those see already-folded literals).
var zeroNow = time.Time{}

// calendarMinJulian/calendarMaxJulian bound the synthetic CALENDAR
// table's range (years 1 through 9999), matching the original's
// hard-coded bounds in src/db/calendar.c.
var (
	calendarMinJulian = juliantime.Julian(juliantime.DateTime{Year: 1, Month: 1, Day: 1})
	calendarMaxJulian = juliantime.Julian(juliantime.DateTime{Year: 9999, Month: 12, Day: 31})
)

var calendarFields = []string{"julian", "date", "year", "month", "day", "weekday"}

// Calendar is the synthetic date-dimension table: rowid N is the date
// calendarMinJulian+N. It exposes `julian` as its primary index and
// `date` as a unique index (both computed, not stored), per spec.md
// §4.2, and implements PredicateScanner to translate a date-range
// WHERE clause directly into a Julian rowid range instead of scanning
// every one of its ~3.65M rows.
type Calendar struct{}

// OpenCalendar returns the always-available CALENDAR backend.
func OpenCalendar() *Calendar { return &Calendar{} }

func (c *Calendar) Name() string { return "CALENDAR" }
func (c *Calendar) Close() error { return nil }

func (c *Calendar) FieldCount() int { return len(calendarFields) }

func (c *Calendar) FieldIndex(name string) ast.ColumnIndex {
	if name == "rowid" {
		return ast.ColumnRowIndex
	}
	for i, f := range calendarFields {
		if f == name {
			return ast.ColumnIndex(i)
		}
	}
	return ast.ColumnUnknown
}

func (c *Calendar) FieldName(i int) string {
	if i < 0 || i >= len(calendarFields) {
		return ""
	}
	return calendarFields[i]
}

func (c *Calendar) RecordCount() (int, error) {
	return calendarMaxJulian - calendarMinJulian + 1, nil
}

func (c *Calendar) dateAt(row int) juliantime.DateTime {
	return juliantime.FromJulian(calendarMinJulian + row)
}

func (c *Calendar) GetCell(row int, col ast.ColumnIndex) (string, error) {
	if col == ast.ColumnRowIndex {
		return strconv.Itoa(row), nil
	}
	dt := c.dateAt(row)
	switch col {
	case 0: // julian
		return strconv.Itoa(calendarMinJulian + row), nil
	case 1: // date
		return juliantime.FormatDate(dt), nil
	case 2: // year
		return strconv.Itoa(dt.Year), nil
	case 3: // month
		return strconv.Itoa(dt.Month), nil
	case 4: // day
		return strconv.Itoa(dt.Day), nil
	case 5: // weekday
		return strconv.Itoa(juliantime.WeekDay(dt)), nil
	}
	return "", nil
}

func (c *Calendar) FindIndex(col ast.ColumnIndex) (IndexKind, error) {
	switch col {
	case 0: // julian
		return IndexPrimary, nil
	case 1: // date
		return IndexUnique, nil
	}
	return IndexNone, nil
}

// Index returns c itself: CALENDAR's "index" over julian/date is the
// identity function (row N already sorts by julian), so IndexSearch
// below does the binary search over the closed-form date function
// instead of reading a side file.
func (c *Calendar) Index(col ast.ColumnIndex) (Table, error) {
	switch col {
	case 0, 1:
		return c, nil
	}
	return nil, nil
}

// IndexSearch treats value as either a bare Julian day number (when
// called via the julian index) or an ISO date string (via the date
// index); since both are monotonic in rowid, a direct computation
// replaces the generic binary search.
func (c *Calendar) IndexSearch(value string, mode SearchMode) (int, SearchStatus, error) {
	var julian int
	if n, err := strconv.Atoi(value); err == nil {
		julian = n
	} else if dt, ok := juliantime.Parse(value, zeroNow); ok {
		julian = juliantime.Julian(dt)
	} else {
		return 0, StatusBelowMin, errors.Errorf("vfs: CALENDAR: %q is not a julian day or date", value)
	}

	if julian < calendarMinJulian {
		return 0, StatusBelowMin, nil
	}
	if julian > calendarMaxJulian {
		row := calendarMaxJulian - calendarMinJulian
		return row, StatusAboveMax, nil
	}
	return julian - calendarMinJulian, StatusFound, nil
}

// ScanRange implements PredicateScanner: an `=`/`BETWEEN`-style range on
// `date` or `julian` narrows directly to a rowid range without ever
// calling FullScan's row-by-row matcher.
func (c *Calendar) ScanRange(predicates []ast.Node) (lo, hi int, ok bool) {
	n, _ := c.RecordCount()
	lo, hi = 0, n
	found := false
	for _, p := range predicates {
		l, h, matched := c.narrowOne(p)
		if !matched {
			continue
		}
		if l > lo {
			lo = l
		}
		if h < hi {
			hi = h
		}
		found = true
	}
	return lo, hi, found
}

func (c *Calendar) narrowOne(p ast.Node) (lo, hi int, ok bool) {
	if !p.Function.IsComparison() || p.ChildCount() != 2 {
		return 0, 0, false
	}
	left, right := p.Child(0), p.Child(1)
	col := fieldColumn(left)
	op := p.Function
	if col == ast.ColumnUnknown {
		col = fieldColumn(right)
		if col == ast.ColumnUnknown {
			return 0, 0, false
		}
		op = op.Flip()
		left, right = right, left
	}
	if col != 0 && col != 1 {
		return 0, 0, false
	}
	if !right.IsConstant() {
		return 0, 0, false
	}

	var julian int
	if col == 0 {
		v, err := strconv.Atoi(right.Field.Text)
		if err != nil {
			return 0, 0, false
		}
		julian = v
	} else {
		dt, okp := juliantime.Parse(right.Field.Text, zeroNow)
		if !okp {
			return 0, 0, false
		}
		julian = juliantime.Julian(dt)
	}
	row := julian - calendarMinJulian

	n, _ := c.RecordCount()
	switch op {
	case ast.OperatorEq:
		return row, row + 1, true
	case ast.OperatorLt:
		return 0, row, true
	case ast.OperatorLe:
		return 0, row + 1, true
	case ast.OperatorGt:
		return row + 1, n, true
	case ast.OperatorGe:
		return row, n, true
	}
	return 0, 0, false
}

func fieldColumn(n *ast.Node) ast.ColumnIndex {
	if n.IsLeaf() {
		return n.Field.Index
	}
	return ast.ColumnUnknown
}

func (c *Calendar) FullScan(predicates []ast.Node, match RowMatcher, dest *rowlist.List, limit int) error {
	lo, hi := 0, 0
	narrowed := false
	if len(predicates) > 0 {
		lo, hi, narrowed = c.ScanRange(predicates)
	}
	if !narrowed {
		n, err := c.RecordCount()
		if err != nil {
			return err
		}
		lo, hi = 0, n
	}
	for i := lo; i < hi; i++ {
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

func (c *Calendar) InsertRow(values []string) error       { return ErrReadOnlyTable.New("CALENDAR") }
func (c *Calendar) InsertFromQuery(rows [][]string) error { return ErrReadOnlyTable.New("CALENDAR") }
