package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/csvdb/csvdb/sql/ast"
	"github.com/csvdb/csvdb/sql/rowlist"
	"github.com/csvdb/csvdb/sql/vfs"
	"github.com/stretchr/testify/require"
)

func newIdx(t *testing.T, content string) vfs.Table {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "idx.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	tbl, err := vfs.OpenCSVMem("idx", path)
	require.NoError(t, err)
	return tbl
}

func TestSeekEquality(t *testing.T) {
	require := require.New(t)
	idx := newIdx(t, "key,rowid\na,10\nb,11\nb,12\nc,13\n")
	pool := rowlist.NewPool()
	dest := pool.Get(pool.Create(1, 0))

	require.NoError(Seek(idx, ast.OperatorEq, "b", dest, -1))
	require.Equal(2, dest.Len())
	require.Equal(11, dest.RowID(0, 0))
	require.Equal(12, dest.RowID(0, 1))
}

func TestSeekLessThan(t *testing.T) {
	require := require.New(t)
	idx := newIdx(t, "key,rowid\na,10\nb,11\nc,13\n")
	pool := rowlist.NewPool()
	dest := pool.Get(pool.Create(1, 0))

	require.NoError(Seek(idx, ast.OperatorLt, "c", dest, -1))
	require.Equal(2, dest.Len())
	require.Equal(10, dest.RowID(0, 0))
	require.Equal(11, dest.RowID(0, 1))
}

func TestSeekNotEqualIsTwoWalks(t *testing.T) {
	require := require.New(t)
	idx := newIdx(t, "key,rowid\na,10\nb,11\nc,13\n")
	pool := rowlist.NewPool()
	dest := pool.Get(pool.Create(1, 0))

	require.NoError(Seek(idx, ast.OperatorNe, "b", dest, -1))
	require.Equal(2, dest.Len())
	require.Equal(10, dest.RowID(0, 0))
	require.Equal(13, dest.RowID(0, 1))
}

func TestSeekLikeTrailingPercent(t *testing.T) {
	require := require.New(t)
	idx := newIdx(t, "key,rowid\nabc,1\nabd,2\nacx,3\nz,4\n")
	pool := rowlist.NewPool()
	dest := pool.Get(pool.Create(1, 0))

	require.NoError(Seek(idx, ast.OperatorLike, "ab%", dest, -1))
	require.Equal(2, dest.Len())
	require.Equal(1, dest.RowID(0, 0))
	require.Equal(2, dest.RowID(0, 1))
}

func TestScanWalksEverything(t *testing.T) {
	require := require.New(t)
	idx := newIdx(t, "key,rowid\na,10\nb,11\nc,12\n")
	pool := rowlist.NewPool()
	dest := pool.Get(pool.Create(1, 0))

	require.NoError(Scan(idx, dest, -1))
	require.Equal(3, dest.Len())
}
