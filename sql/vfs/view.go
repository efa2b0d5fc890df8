package vfs

import "github.com/csvdb/csvdb/sql/ast"

// View is the result of opening a `.sql` view file: package engine's
// ViewLoader runs the file's defining query (via rowexec) each time the
// view is referenced and hands the rows here, exactly the way
// `CREATE TABLE ... AS` materializes a query's output -- the only
// difference being that a view re-runs its query on every open instead
// of snapshotting once. Read-only from the query engine's perspective:
// rows can only change by editing the `.sql` file's query, never by a
// plain INSERT.
type View struct{ *memTable }

// NewMaterializedView wraps rows already produced by running a `.sql`
// view file's defining query (via Open's ViewLoader) as a read-only
// View, without writing them back to disk -- the `.sql` file itself
// stays the durable artifact, per spec.md §4.2's "materializes into an
// in-memory CSV". path only anchors FindIndex's directory lookup for a
// `<name>__col.*` side index sitting next to the `.sql` file.
func NewMaterializedView(name, path string, header []string, rows [][]string) *View {
	return &View{&memTable{name: name, path: path, header: header, rows: rows, split: splitCSVLine, join: joinCSV}}
}

func (v *View) FindIndex(col ast.ColumnIndex) (IndexKind, error) {
	return v.memTable.FindIndex(col, "csv")
}

func (v *View) Index(col ast.ColumnIndex) (Table, error) {
	return v.memTable.Index(col, "csv", splitCSVLine, joinCSV)
}

func (v *View) InsertRow(values []string) error       { return ErrReadOnlyTable.New(v.name) }
func (v *View) InsertFromQuery(rows [][]string) error { return ErrReadOnlyTable.New(v.name) }
