package vfs

import (
	"os"
	"strconv"
	"strings"
)

// ViewLoader executes a `.sql` view file's defining query text and
// returns its materialized rows. vfs has no SQL engine of its own
// (package parse/plan/rowexec already depend on vfs, so vfs importing
// any of them back would cycle); the engine supplies this callback so
// Open can still resolve a view spec inline, per spec.md §4.2's "a .sql
// view (whose contents are a SELECT that materializes into an in-memory
// CSV)".
type ViewLoader func(sqlText string) (header []string, rows [][]string, err error)

// OpenSpec describes what the planner/engine asked for in a FROM clause:
// a bare name, resolved against dir and the synthetic names CALENDAR and
// SEQUENCE(n), or one of the stdin/memory:/`.sql` specials.
type OpenSpec struct {
	Name               string
	Dir                string
	MemoryMapThreshold int64 // bytes; 0 disables mmap entirely
	ViewLoader         ViewLoader
}

// memoryPrefix forces the in-memory CSV backend for a table name
// regardless of its file size, per spec.md §4.2's `memory:<path>` form.
const memoryPrefix = "memory:"

// Open tries each backend in the fixed order spec.md §4.2/§7 describes:
// the synthetic tables first (cheap name match), then stdin, then the
// explicit memory: override, then CSV (mmap above MemoryMapThreshold,
// else streaming), then TSV, then WSV, then a `.sql` view file. A final
// ErrNoBackend is returned only once every backend has rejected the
// spec, matching "Backend-open" in spec.md §7.
func Open(spec OpenSpec) (Table, error) {
	if spec.Name == "CALENDAR" {
		return OpenCalendar(), nil
	}
	if strings.HasPrefix(spec.Name, "SEQUENCE") {
		return openSequenceSpec(spec.Name), nil
	}

	if ext, ok := stdinExt(spec.Name); ok {
		return OpenStdin(spec.Dir, ext)
	}

	if strings.HasPrefix(spec.Name, memoryPrefix) {
		name := strings.TrimPrefix(spec.Name, memoryPrefix)
		path := spec.Dir + "/" + name + ".csv"
		if !fileExists(path) {
			return nil, ErrNoBackend.New(spec.Name)
		}
		return OpenCSVMem(name, path)
	}

	if path := spec.Dir + "/" + spec.Name + ".csv"; fileExists(path) {
		if spec.MemoryMapThreshold > 0 {
			if info, err := os.Stat(path); err == nil && info.Size() >= spec.MemoryMapThreshold {
				if t, err := OpenCSVMmap(spec.Name, path); err == nil {
					return t, nil
				}
				// mmap failed (e.g. unsupported filesystem); fall through
				// to the streaming backend rather than fail the query.
			}
		}
		return OpenCSVStream(spec.Name, path)
	}

	if path := spec.Dir + "/" + spec.Name + ".tsv"; fileExists(path) {
		return OpenTSV(spec.Name, path)
	}

	if path := spec.Dir + "/" + spec.Name + ".wsv"; fileExists(path) {
		return OpenWSV(spec.Name, path)
	}

	if path := spec.Dir + "/" + spec.Name + ".sql"; fileExists(path) {
		return openViewFile(spec.Name, path, spec.ViewLoader)
	}

	return nil, ErrNoBackend.New(spec.Name)
}

// stdinExt reports whether name is one of the stdin FROM-clause forms
// spec.md §4.2 lists (`stdin`, `stdin.tsv`, `stdin.wsv`) and the
// delimited-text convention it implies.
func stdinExt(name string) (string, bool) {
	switch name {
	case "stdin":
		return "csv", true
	case "stdin.tsv":
		return "tsv", true
	case "stdin.wsv":
		return "wsv", true
	}
	return "", false
}

func openViewFile(name, path string, load ViewLoader) (Table, error) {
	if load == nil {
		return nil, ErrNoBackend.New(name)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	header, rows, err := load(string(src))
	if err != nil {
		return nil, err
	}
	return NewMaterializedView(name, path, header, rows), nil
}

// openSequenceSpec parses the optional row count out of `SEQUENCE(n)`.
func openSequenceSpec(name string) *Sequence {
	if i := strings.IndexByte(name, '('); i >= 0 && strings.HasSuffix(name, ")") {
		if n, err := strconv.Atoi(name[i+1 : len(name)-1]); err == nil {
			return OpenSequence(n)
		}
	}
	return OpenSequence(0)
}
