package rowlist

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendAndRowID(t *testing.T) {
	require := require.New(t)
	pool := NewPool()
	h := pool.Create(1, 4)
	l := pool.Get(h)
	l.Append(10)
	l.Append(20)
	l.Append(30)

	require.Equal(3, l.Len())
	require.Equal(10, l.RowID(0, 0))
	require.Equal(30, l.RowID(0, 2))
}

func TestAppendJoinedGrowsWidth(t *testing.T) {
	require := require.New(t)
	pool := NewPool()
	left := pool.Get(pool.Create(1, 2))
	left.Append(1)
	left.Append(2)

	joinedHandle := pool.Create(2, 2)
	joined := pool.Get(joinedHandle)
	joined.AppendJoined(left, 0, 100)
	joined.AppendJoined(left, 1, 200)

	require.Equal(2, joined.Width())
	require.Equal(1, joined.RowID(0, 0))
	require.Equal(100, joined.RowID(1, 0))
	require.Equal(2, joined.RowID(0, 1))
	require.Equal(200, joined.RowID(1, 1))
}

func TestReverseInPlace(t *testing.T) {
	require := require.New(t)
	pool := NewPool()
	h := pool.Create(1, 3)
	l := pool.Get(h)
	l.Append(1)
	l.Append(2)
	l.Append(3)
	l.ReverseInPlace(-1)
	require.Equal(3, l.RowID(0, 0))
	require.Equal(1, l.RowID(0, 2))
}

func TestReverseIsIdempotentUnderDoubleApplication(t *testing.T) {
	require := require.New(t)
	pool := NewPool()
	h := pool.Create(1, 3)
	l := pool.Get(h)
	l.Append(1)
	l.Append(2)
	l.Append(3)
	l.ReverseInPlace(-1)
	l.ReverseInPlace(-1)
	require.Equal(1, l.RowID(0, 0))
	require.Equal(2, l.RowID(0, 1))
	require.Equal(3, l.RowID(0, 2))
}

func TestPoolHighWaterMarkDecrementsOnMostRecentDestroy(t *testing.T) {
	require := require.New(t)
	pool := NewPool()
	a := pool.Create(1, 1)
	b := pool.Create(1, 1)
	require.Len(pool.lists, 2)

	pool.Destroy(b)
	require.Len(pool.lists, 1, "destroying the most recent handle should shrink the pool")

	pool.Destroy(a)
	require.Len(pool.lists, 0, "destroying the last live handle should reset the pool")
}

func TestPoolDoesNotShrinkWhenDestroyingNonLatest(t *testing.T) {
	require := require.New(t)
	pool := NewPool()
	a := pool.Create(1, 1)
	_ = pool.Create(1, 1)

	pool.Destroy(a)
	require.Len(pool.lists, 2, "destroying a non-latest handle keeps the high water mark")
}

func TestResultStackPushPopLIFO(t *testing.T) {
	require := require.New(t)
	stack := NewResultStack()
	stack.Push(Handle(1))
	stack.Push(Handle(2))

	h, ok := stack.Pop()
	require.True(ok)
	require.Equal(Handle(2), h)

	h, ok = stack.Pop()
	require.True(ok)
	require.Equal(Handle(1), h)

	_, ok = stack.Pop()
	require.False(ok)
}

func TestResultStackPopAllPreservesPushOrder(t *testing.T) {
	require := require.New(t)
	stack := NewResultStack()
	stack.Push(Handle(1))
	stack.Push(Handle(2))
	stack.Push(Handle(3))

	all := stack.PopAll()
	require.Equal([]Handle{1, 2, 3}, all)
	require.Equal(0, stack.Len())
}
