package vfs

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/csvdb/csvdb/sql/ast"
	"github.com/csvdb/csvdb/sql/rowlist"
	"github.com/pkg/errors"
)

// CSVStream is the streaming CSV backend: the header is read at open
// time, but the line-offset table for the data rows is built lazily on
// first RecordCount/GetCell call by scanning the file once, matching
// spec.md §4.2 ("streaming CSV scans once to build a line-offset
// table"). Each GetCell re-reads and re-parses only the one requested
// line, trading CPU for the bounded memory a large file needs.
type CSVStream struct {
	name   string
	path   string
	header []string
	file   *os.File

	offsets []int64 // byte offset of each data row's first byte
	scanned bool
}

// OpenCSVStream opens path and reads only its header line eagerly.
func OpenCSVStream(name, path string) (*CSVStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "vfs: opening %s", path)
	}
	r := bufio.NewReader(f)
	headerLine, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		f.Close()
		return nil, errors.Wrapf(err, "vfs: reading header of %s", path)
	}
	headerLine = stripBOM(strings.TrimRight(headerLine, "\r\n"))

	return &CSVStream{
		name:   name,
		path:   path,
		header: splitCSVLine(headerLine),
		file:   f,
	}, nil
}

func (c *CSVStream) Name() string { return c.name }

func (c *CSVStream) Close() error { return c.file.Close() }

func (c *CSVStream) FieldCount() int { return len(c.header) }

func (c *CSVStream) FieldIndex(name string) ast.ColumnIndex {
	if strings.EqualFold(name, "rowid") {
		return ast.ColumnRowIndex
	}
	for i, h := range c.header {
		if h == name {
			return ast.ColumnIndex(i)
		}
	}
	return ast.ColumnUnknown
}

func (c *CSVStream) FieldName(i int) string {
	if i < 0 || i >= len(c.header) {
		return ""
	}
	return c.header[i]
}

// ensureScanned builds the line-offset table by scanning the data
// portion of the file exactly once.
func (c *CSVStream) ensureScanned() error {
	if c.scanned {
		return nil
	}
	headerEnd, err := c.headerByteLength()
	if err != nil {
		return err
	}
	if _, err := c.file.Seek(headerEnd, io.SeekStart); err != nil {
		return errors.Wrapf(err, "vfs: seeking %s", c.path)
	}
	r := bufio.NewReader(c.file)
	pos := headerEnd
	for {
		line, err := r.ReadString('\n')
		if len(line) > 0 {
			c.offsets = append(c.offsets, pos)
		}
		pos += int64(len(line))
		if err != nil {
			break
		}
	}
	c.scanned = true
	return nil
}

func (c *CSVStream) headerByteLength() (int64, error) {
	if _, err := c.file.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	r := bufio.NewReader(c.file)
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return 0, err
	}
	return int64(len(line)), nil
}

func (c *CSVStream) RecordCount() (int, error) {
	if err := c.ensureScanned(); err != nil {
		return 0, err
	}
	return len(c.offsets), nil
}

func (c *CSVStream) GetCell(row int, col ast.ColumnIndex) (string, error) {
	if col == ast.ColumnRowIndex {
		return strconv.Itoa(row), nil
	}
	if err := c.ensureScanned(); err != nil {
		return "", err
	}
	if row < 0 || row >= len(c.offsets) {
		return "", errors.Errorf("vfs: row %d out of range in %s", row, c.name)
	}
	if _, err := c.file.Seek(c.offsets[row], io.SeekStart); err != nil {
		return "", err
	}
	r := bufio.NewReader(c.file)
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	cells := splitCSVLine(line)
	if int(col) < 0 || int(col) >= len(cells) {
		return "", nil
	}
	return cells[col], nil
}

func (c *CSVStream) FindIndex(col ast.ColumnIndex) (IndexKind, error) {
	name := c.FieldName(int(col))
	if name == "" {
		return IndexNone, nil
	}
	dir := dirOf(c.path)
	base := dir + "/" + c.name + "__" + name
	if fileExists(base + ".unique.csv") {
		return IndexUnique, nil
	}
	if fileExists(base + ".index.csv") {
		return IndexRegular, nil
	}
	return IndexNone, nil
}

func (c *CSVStream) Index(col ast.ColumnIndex) (Table, error) {
	kind, err := c.FindIndex(col)
	if err != nil || kind == IndexNone {
		return nil, err
	}
	name := c.FieldName(int(col))
	dir := dirOf(c.path)
	base := dir + "/" + c.name + "__" + name
	suffix := ".index.csv"
	if kind == IndexUnique {
		suffix = ".unique.csv"
	}
	return OpenCSVMem(c.name+"__"+name, base+suffix)
}

// IndexSearch is not meaningful on a streaming table directly; callers
// go through Index() to get a CSVMem-backed side file first.
func (c *CSVStream) IndexSearch(value string, mode SearchMode) (int, SearchStatus, error) {
	return 0, StatusBelowMin, errors.Errorf("vfs: %s is not an index table", c.name)
}

func (c *CSVStream) FullScan(predicates []ast.Node, match RowMatcher, dest *rowlist.List, limit int) error {
	n, err := c.RecordCount()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
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

func (c *CSVStream) InsertRow(values []string) error {
	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return errors.Wrapf(err, "vfs: opening %s for append", c.path)
	}
	defer f.Close()
	if _, err := f.WriteString(joinCSV(values) + "\n"); err != nil {
		return err
	}
	c.scanned = false
	c.offsets = nil
	return nil
}

func (c *CSVStream) InsertFromQuery(rows [][]string) error {
	for _, r := range rows {
		if err := c.InsertRow(r); err != nil {
			return err
		}
	}
	return nil
}
