// Package rowlist implements the row-list pool (component C2): an
// append-only arena of fixed-width rowid tuples with push/pop stack
// semantics, used by the executor to hold every intermediate result set.
//
// Grounded on _examples/original_source/src/query/result.c
// (createRowList/destroyRowList/pushRowList/popRowList and the
// getRowID/writeRowID/appendRowID family), translated from the C pool's
// index-into-a-realloc'd-array design into Go handles backed by a slice
// of *List, per DESIGN NOTES §9 ("pool-indexed row lists replace cyclic
// pointer graphs and avoid dangling references across realloc").
package rowlist

import "gopkg.in/src-d/go-errors.v1"

// ErrWidthMismatch is returned by any operation that combines two Lists
// of different width, or that addresses a join index beyond a List's
// width.
var ErrWidthMismatch = errors.NewKind("row list width mismatch: %s")

// RowidNull is the sentinel rowid standing in for the absent right-hand
// row of a LEFT JOIN.
const RowidNull = -1

// Handle is an opaque reference to a List owned by a Pool. It survives
// Pool reallocation; never dereference row indices directly, always go
// through the owning Pool.
type Handle int

// List is a width x length matrix of rowids, stored row-major exactly as
// struct RowList lays it out: row_ids[index*join_count+join_id].
type List struct {
	width int
	rows  []int
	// Group marks this list as a single aggregate bucket: the executor's
	// SELECT step evaluates aggregates over the whole list and emits one
	// output row, instead of one row per entry.
	Group bool
}

// Width is the number of joined tables a row in this list carries one
// rowid per.
func (l *List) Width() int { return l.width }

// Len is the number of rows currently stored.
func (l *List) Len() int { return len(l.rows) / l.width }

func (l *List) checkJoin(joinID int) {
	if joinID < 0 || joinID >= l.width {
		panic(ErrWidthMismatch.New("join index out of range"))
	}
}

// RowID returns the rowid of table joinID at row index.
func (l *List) RowID(joinID, index int) int {
	l.checkJoin(joinID)
	return l.rows[index*l.width+joinID]
}

// WriteAt overwrites the rowid of table joinID at row index.
func (l *List) WriteAt(joinID, index, value int) {
	l.checkJoin(joinID)
	l.rows[index*l.width+joinID] = value
}

// Append adds a new row to a width-1 list.
func (l *List) Append(value int) {
	if l.width != 1 {
		panic(ErrWidthMismatch.New("Append requires width 1"))
	}
	l.rows = append(l.rows, value)
}

// AppendRow adds a new row of exactly l.Width() rowids.
func (l *List) AppendRow(values ...int) {
	if len(values) != l.width {
		panic(ErrWidthMismatch.New("AppendRow value count does not match width"))
	}
	l.rows = append(l.rows, values...)
}

// AppendJoined copies the row at srcIndex of src (which must have width
// one less than l) and appends value as the new trailing rowid, growing
// the join by one column the way appendJoinedRowID does.
func (l *List) AppendJoined(src *List, srcIndex int, value int) {
	if l.width != src.width+1 {
		panic(ErrWidthMismatch.New("AppendJoined requires dest width = src width + 1"))
	}
	start := len(l.rows)
	l.rows = append(l.rows, make([]int, l.width)...)
	for i := 0; i < src.width; i++ {
		l.rows[start+i] = src.RowID(i, srcIndex)
	}
	l.rows[start+src.width] = value
}

// CopyRow appends the row at srcIndex of src (same width as l) to l.
func (l *List) CopyRow(src *List, srcIndex int) {
	if l.width != src.width {
		panic(ErrWidthMismatch.New("CopyRow requires matching width"))
	}
	l.rows = append(l.rows, src.rows[srcIndex*src.width:srcIndex*src.width+src.width]...)
}

// Swap exchanges the rows at index a and b in place.
func (l *List) Swap(a, b int) {
	for i := 0; i < l.width; i++ {
		ai, bi := a*l.width+i, b*l.width+i
		l.rows[ai], l.rows[bi] = l.rows[bi], l.rows[ai]
	}
}

// ReverseInPlace reverses row order; if limit >= 0 the result is
// truncated to limit rows after reversal, exactly as reverseRowList does.
func (l *List) ReverseInPlace(limit int) {
	n := l.Len()
	for i := 0; i < n/2; i++ {
		l.Swap(i, n-i-1)
	}
	if limit >= 0 && limit < n {
		l.Truncate(limit)
	}
}

// Truncate shortens the list to at most n rows.
func (l *List) Truncate(n int) {
	if n < l.Len() {
		l.rows = l.rows[:n*l.width]
	}
}

// Pool is a sequentially-allocated arena of Lists, tracking which handles
// are still live. When every outstanding handle has been destroyed the
// pool resets to empty; destroying the most recently created handle
// decrements the high-water mark by one. Both policies mirror
// createRowList/destroyRowList's pool_count/pool_map bookkeeping and keep
// steady-state memory bounded for the executor's push/pop/destroy loop.
type Pool struct {
	lists []*List
	live  []bool
}

// NewPool returns an empty row-list pool.
func NewPool() *Pool {
	return &Pool{}
}

// Create allocates a new List of the given width with capacity hint rows
// pre-reserved, and returns a Handle to it.
func (p *Pool) Create(width, capacityHint int) Handle {
	if width == 0 {
		// Special case for a constant-only, table-less query: store as
		// width 1 so row-major indexing stays well defined.
		width = 1
	}
	l := &List{width: width, rows: make([]int, 0, width*capacityHint)}
	p.lists = append(p.lists, l)
	p.live = append(p.live, true)
	return Handle(len(p.lists) - 1)
}

// Get returns the List for handle h. Do not retain the returned pointer
// across a Destroy call for a different handle: handles are stable but
// slices backing earlier Lists are not otherwise affected, this warning
// matches the original's "do not hold on to this pointer" note for its
// pointer-into-realloc'd-array design even though Go's pool no longer
// reallocates the slice of Lists in place.
func (p *Pool) Get(h Handle) *List {
	return p.lists[h]
}

// Destroy frees the slot for h. If every live handle has now been
// destroyed the pool resets to zero length; otherwise, if h was the most
// recently created live handle, the high-water mark decrements.
func (p *Pool) Destroy(h Handle) {
	p.live[h] = false
	p.lists[h] = nil

	anyLive := false
	for _, v := range p.live {
		if v {
			anyLive = true
			break
		}
	}
	if !anyLive {
		p.lists = p.lists[:0]
		p.live = p.live[:0]
		return
	}
	if int(h) == len(p.lists)-1 {
		p.lists = p.lists[:h]
		p.live = p.live[:h]
	}
}

// ResultStack is the per-execution stack of row-list handles steps push
// to and pop from, corresponding to struct ResultSet.
type ResultStack struct {
	handles []Handle
}

// NewResultStack returns an empty result stack.
func NewResultStack() *ResultStack {
	return &ResultStack{}
}

// Push appends h to the top of the stack.
func (s *ResultStack) Push(h Handle) {
	s.handles = append(s.handles, h)
}

// Pop removes and returns the top handle, or false if the stack is empty.
func (s *ResultStack) Pop() (Handle, bool) {
	if len(s.handles) == 0 {
		return 0, false
	}
	h := s.handles[len(s.handles)-1]
	s.handles = s.handles[:len(s.handles)-1]
	return h, true
}

// Len returns the number of handles currently on the stack.
func (s *ResultStack) Len() int { return len(s.handles) }

// PopAll drains every handle from bottom to top, in the order they were
// originally pushed -- the order the terminal SELECT step emits rows in.
func (s *ResultStack) PopAll() []Handle {
	out := make([]Handle, len(s.handles))
	copy(out, s.handles)
	s.handles = s.handles[:0]
	return out
}
