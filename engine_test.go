package csvdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/csvdb/csvdb/sql/rowexec"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644))
}

func TestEngineQuerySelectsCSVRows(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	writeFile(t, dir, "people.csv", "id,name,score\n1,Ann,10\n2,Bob,20\n")

	e := New(Config{DataDir: dir})
	r, err := e.Query("SELECT name FROM people WHERE score > 10")
	require.NoError(err)
	require.Equal([]rowexec.Row{{"Bob"}}, r.Rows)
}

func TestEngineQueryRejectsMultipleStatements(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	writeFile(t, dir, "t.csv", "id\n1\n")

	e := New(Config{DataDir: dir})
	_, err := e.Query("SELECT id FROM t; SELECT id FROM t")
	require.Error(err)
}

func TestEngineQueryManyRunsEachStatementIndependently(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	writeFile(t, dir, "t.csv", "id\n1\n2\n")

	e := New(Config{DataDir: dir})
	results, err := e.QueryMany("SELECT id FROM t; SELECT COUNT(*) FROM t")
	require.NoError(err)
	require.Len(results, 2)
	require.Len(results[0].Rows, 2)
	require.Equal("2", results[1].Rows[0][0])
}

func TestEngineExplainReportsStepsWithoutExecuting(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	writeFile(t, dir, "t.csv", "id\n1\n")

	e := New(Config{DataDir: dir})
	r, err := e.Query("EXPLAIN SELECT id FROM t")
	require.NoError(err)
	require.Nil(r.Rows)
	require.NotEmpty(r.Explain)
}

func TestEngineReadOnlyRejectsInsert(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	writeFile(t, dir, "t.csv", "id\n1\n")

	e := New(Config{DataDir: dir, ReadOnly: true})
	_, err := e.Query("INSERT INTO t VALUES (2)")
	require.ErrorIs(err, errReadOnly)
}

func TestEngineInsertValuesAppendsRow(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	writeFile(t, dir, "t.csv", "id\n1\n")

	e := New(Config{DataDir: dir})
	r, err := e.Query("INSERT INTO t VALUES (2)")
	require.NoError(err)
	require.Equal(1, r.RowsAffected)

	r, err = e.Query("SELECT id FROM t")
	require.NoError(err)
	require.Len(r.Rows, 2)
}

func TestEngineCreateTableAsWritesNewCSV(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	writeFile(t, dir, "t.csv", "id,score\n1,10\n2,20\n")

	e := New(Config{DataDir: dir})
	_, err := e.Query("CREATE TABLE high AS SELECT id FROM t WHERE score > 10")
	require.NoError(err)

	r, err := e.Query("SELECT id FROM high")
	require.NoError(err)
	require.Equal([]rowexec.Row{{"2"}}, r.Rows)
}

func TestEngineCreateIndexWritesSideFile(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	writeFile(t, dir, "t.csv", "id,name\n3,Cid\n1,Ann\n2,Bob\n")

	e := New(Config{DataDir: dir})
	_, err := e.Query("CREATE UNIQUE INDEX ON t (id)")
	require.NoError(err)

	contents, err := os.ReadFile(filepath.Join(dir, "t__id.unique.csv"))
	require.NoError(err)
	require.Equal("key,rowid\n1,1\n2,2\n3,0\n", string(contents))
}
