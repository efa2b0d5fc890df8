package vfs

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/csvdb/csvdb/sql/ast"
	"github.com/csvdb/csvdb/sql/rowlist"
	"github.com/pkg/errors"
)

type lineSplitter func(string) []string
type cellJoiner func([]string) string

// memTable is the shared implementation backing the CSV-in-memory, TSV,
// and WSV backends: the whole file is read and split eagerly, which is
// the simple case spec.md §4.2 contrasts with the streaming CSV backend's
// lazy line-offset table. Parameterizing on split/join lets one
// implementation serve three delimited-text conventions.
type memTable struct {
	name   string
	path   string
	header []string
	rows   [][]string
	split  lineSplitter
	join   cellJoiner
}

func newMemTable(name, path string, split lineSplitter, join cellJoiner) (*memTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "vfs: opening %s", path)
	}
	defer f.Close()

	t := &memTable{name: name, path: path, split: split, join: join}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	first := true
	for sc.Scan() {
		line := sc.Text()
		if first {
			line = stripBOM(line)
			first = false
			t.header = split(line)
			continue
		}
		if line == "" {
			continue
		}
		t.rows = append(t.rows, split(line))
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "vfs: reading %s", path)
	}
	return t, nil
}

func (t *memTable) Name() string { return t.name }

func (t *memTable) Close() error { return nil }

func (t *memTable) FieldCount() int { return len(t.header) }

func (t *memTable) FieldIndex(name string) ast.ColumnIndex {
	if strings.EqualFold(name, "rowid") {
		return ast.ColumnRowIndex
	}
	for i, h := range t.header {
		if h == name {
			return ast.ColumnIndex(i)
		}
	}
	return ast.ColumnUnknown
}

func (t *memTable) FieldName(i int) string {
	if i < 0 || i >= len(t.header) {
		return ""
	}
	return t.header[i]
}

func (t *memTable) RecordCount() (int, error) {
	return len(t.rows), nil
}

func (t *memTable) GetCell(row int, col ast.ColumnIndex) (string, error) {
	if col == ast.ColumnRowIndex {
		return strconv.Itoa(row), nil
	}
	if row < 0 || row >= len(t.rows) {
		return "", errors.Errorf("vfs: row %d out of range in %s", row, t.name)
	}
	r := t.rows[row]
	if int(col) < 0 || int(col) >= len(r) {
		return "", nil
	}
	return r[col], nil
}

// FindIndex recognizes the on-disk side-file naming convention
// `<table>__<col>.unique.csv` / `.index.csv` (or .tsv for the TSV
// backend), per spec.md §4.2.
func (t *memTable) FindIndex(col ast.ColumnIndex, ext string) (IndexKind, error) {
	name := t.FieldName(int(col))
	if name == "" {
		return IndexNone, nil
	}
	dir := dirOf(t.path)
	base := t.name + "__" + name
	if fileExists(dir + "/" + base + ".unique." + ext) {
		return IndexUnique, nil
	}
	if fileExists(dir + "/" + base + ".index." + ext) {
		return IndexRegular, nil
	}
	return IndexNone, nil
}

func (t *memTable) Index(col ast.ColumnIndex, ext string, split lineSplitter, join cellJoiner) (Table, error) {
	kind, err := t.FindIndex(col, ext)
	if err != nil || kind == IndexNone {
		return nil, err
	}
	name := t.FieldName(int(col))
	dir := dirOf(t.path)
	base := dir + "/" + t.name + "__" + name
	suffix := ".index." + ext
	if kind == IndexUnique {
		suffix = ".unique." + ext
	}
	return newMemTable(t.name+"__"+name, base+suffix, split, join)
}

// IndexSearch binary searches the leading column, assuming the rows are
// already sorted -- true by construction for a `<table>__col.*` index
// side-file, per spec.md §4.3.
func (t *memTable) IndexSearch(value string, mode SearchMode) (int, SearchStatus, error) {
	n := len(t.rows)
	if n == 0 {
		return 0, StatusBelowMin, nil
	}
	if value < t.rows[0][0] {
		return 0, StatusBelowMin, nil
	}
	if value > t.rows[n-1][0] {
		return n, StatusAboveMax, nil
	}

	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		if t.rows[mid][0] < value {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	// lo is now the first row >= value (lower bound).
	if lo >= n || t.rows[lo][0] != value {
		return lo, StatusBetween, nil
	}
	switch mode {
	case SearchLowerBound, SearchUnique:
		return lo, StatusFound, nil
	case SearchUpperBound:
		up := lo
		for up < n && t.rows[up][0] == value {
			up++
		}
		return up - 1, StatusFound, nil
	}
	return lo, StatusFound, nil
}

// FullScan applies match to every row, honoring limit, in rowid order.
// memTable has no PredicateScanner narrowing of its own; CALENDAR
// overrides FullScan entirely instead of embedding memTable.
func (t *memTable) FullScan(predicates []ast.Node, match RowMatcher, dest *rowlist.List, limit int) error {
	for i := range t.rows {
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

func (t *memTable) InsertRow(values []string) error {
	t.rows = append(t.rows, values)
	return t.rewrite()
}

func (t *memTable) InsertFromQuery(rows [][]string) error {
	t.rows = append(t.rows, rows...)
	return t.rewrite()
}

// rewrite persists the in-memory rows back to disk, rebuilding the file
// the way insertRow/insertFromQuery do in the original (append, then
// rebuild any cached offsets -- here there is no separate offset table to
// rebuild since memTable parses eagerly).
func (t *memTable) rewrite() error {
	f, err := os.Create(t.path)
	if err != nil {
		return errors.Wrapf(err, "vfs: rewriting %s", t.path)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	w.WriteString(t.join(t.header))
	w.WriteString("\n")
	for _, r := range t.rows {
		w.WriteString(t.join(r))
		w.WriteString("\n")
	}
	return w.Flush()
}

func dirOf(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return "."
	}
	return path[:i]
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func joinCSV(cells []string) string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = escapeCSVCell(c)
	}
	return strings.Join(out, ",")
}

func joinTSV(cells []string) string {
	return strings.Join(cells, "\t")
}

func joinWSV(cells []string) string {
	return strings.Join(cells, " ")
}
