package vfs

import (
	"io"
	"os"

	"github.com/csvdb/csvdb/sql/ast"
	uuid "github.com/satori/go.uuid"
)

// Temp is the session-scoped materialization backend: a subquery or
// `CREATE TABLE ... AS` staging area gets a uniquely-named CSV file
// under dir, cleaned up when the owning Query is destroyed (the engine
// calls Cleanup), matching spec.md §3's "a subquery-materialized table
// owns its temp file until the Query is destroyed".
type Temp struct {
	*memTable
	path string
}

// NewTemp creates an empty, writable temp CSV file under dir with the
// given header, named uniquely via satori/go.uuid so concurrent queries
// in the same data directory never collide.
func NewTemp(dir string, header []string) (*Temp, error) {
	name := "tmp_" + uuid.NewV4().String()
	path := dir + "/" + name + ".csv"

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	f.WriteString(joinCSV(header) + "\n")
	f.Close()

	m, err := newMemTable(name, path, splitCSVLine, joinCSV)
	if err != nil {
		return nil, err
	}
	return &Temp{memTable: m, path: path}, nil
}

// Cleanup removes the backing temp file. The caller must have already
// called Close.
func (t *Temp) Cleanup() error {
	return os.Remove(t.path)
}

// stdinSplitters maps a stdin FROM-clause extension to its delimited-text
// split/join pair, mirroring the csv.go/tsv.go/wsv.go backends.
func stdinSplitters(ext string) (lineSplitter, cellJoiner) {
	switch ext {
	case "tsv":
		return splitTSVLine, joinTSV
	case "wsv":
		return splitWSVLine, joinWSV
	default:
		return splitCSVLine, joinCSV
	}
}

// OpenStdin copies os.Stdin into a uniquely named staging file under dir
// and opens it as a delimited-text table, so `stdin`/`stdin.tsv`/
// `stdin.wsv` FROM-clause specs (spec.md §4.2) can be queried the same
// way as any on-disk table. The staging file is removed by Cleanup, the
// same as a subquery materialization.
func OpenStdin(dir, ext string) (*Temp, error) {
	split, join := stdinSplitters(ext)
	name := "stdin_" + uuid.NewV4().String()
	path := dir + "/" + name + "." + ext

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	_, copyErr := io.Copy(f, os.Stdin)
	closeErr := f.Close()
	if copyErr != nil {
		return nil, copyErr
	}
	if closeErr != nil {
		return nil, closeErr
	}

	m, err := newMemTable(name, path, split, join)
	if err != nil {
		return nil, err
	}
	return &Temp{memTable: m, path: path}, nil
}

// Temp never has a side index: it is an ephemeral materialization, never
// named by the `<table>__<col>.*` convention FindIndex otherwise looks
// for.
func (t *Temp) FindIndex(col ast.ColumnIndex) (IndexKind, error) { return IndexNone, nil }
func (t *Temp) Index(col ast.ColumnIndex) (Table, error)         { return nil, nil }
