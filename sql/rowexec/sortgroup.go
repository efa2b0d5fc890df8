package rowexec

import (
	"sort"
	"strings"

	"github.com/mitchellh/hashstructure"

	"github.com/csvdb/csvdb/sql/ast"
	"github.com/csvdb/csvdb/sql/expression"
	"github.com/csvdb/csvdb/sql/plan"
	"github.com/csvdb/csvdb/sql/rowlist"
)

// groupKeySeparator concatenates a GROUP BY key list into one bucket key,
// the unit separator keeping adjacent key values from colliding the way
// a plain "+" concatenation could.
const groupKeySeparator = "\x1f"

// compareKey orders two already-evaluated key texts using the same
// three-tier rule expression.Compare applies to a single comparison,
// reversed when desc is set.
func compareKey(a, b string, desc bool) int {
	if a == b {
		return 0
	}
	lt := expression.Compare(ast.OperatorLt, a, b)
	if desc {
		lt = !lt
	}
	if lt {
		return -1
	}
	return 1
}

// runSort implements SORT: pop the top list, evaluate every ORDER BY key
// for every row once, then reorder rows by that precomputed key tuple
// and push the result, per spec.md §4.6.
func (ex *executor) runSort(step plan.Step) error {
	h, list, err := ex.popLeft()
	if err != nil {
		return err
	}
	tables := ex.tablesUpTo(list.Width())
	n := list.Len()

	keyTexts := make([][]string, n)
	for i := 0; i < n; i++ {
		ctx := ex.newRowContext(tables, list, i)
		row := make([]string, len(step.Keys))
		for k := range step.Keys {
			v, err := expression.Evaluate(&step.Keys[k], ctx)
			if err != nil {
				return err
			}
			row[k] = v
		}
		keyTexts[i] = row
	}

	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool {
		ia, ib := perm[a], perm[b]
		for k := range step.Keys {
			c := compareKey(keyTexts[ia][k], keyTexts[ib][k], step.Keys[k].Direction() == ast.OrderDesc)
			if c != 0 {
				return c < 0
			}
		}
		return false
	})

	nh := ex.pool.Create(list.Width(), n)
	out := ex.pool.Get(nh)
	for _, idx := range perm {
		out.CopyRow(list, idx)
	}
	ex.pool.Destroy(h)
	ex.stack.Push(nh)
	return nil
}

// runReverse implements REVERSE: a cheap substitute for SORT when the
// source step's natural order already matches the requested key except
// for direction (see applySort's reverseSort).
func (ex *executor) runReverse(step plan.Step) error {
	h, list, err := ex.popLeft()
	if err != nil {
		return err
	}
	list.ReverseInPlace(step.Limit)
	ex.stack.Push(h)
	return nil
}

// runSlice implements SLICE: truncate the top list to step.Limit rows,
// used when a SORT step already ran and a LIMIT still needs applying
// afterward.
func (ex *executor) runSlice(step plan.Step) error {
	h, list, err := ex.popLeft()
	if err != nil {
		return err
	}
	if step.Limit >= 0 {
		list.Truncate(step.Limit)
	}
	ex.stack.Push(h)
	return nil
}

// runOffset implements OFFSET: it does not touch the stack at all, since
// applyLimit already folded OFFSET into the combined row count pushed
// onto an earlier step. It just records how many leading output rows
// runSelect should skip.
func (ex *executor) runOffset(step plan.Step) error {
	ex.pendingOffset = step.Limit
	return nil
}

// runGroup implements GROUP and GROUP_SORTED: pop one list, bucket its
// rows by the group key list, and push one Group-marked list per bucket
// (in first-seen order) for runSelect to evaluate aggregates over.
//
// GROUP_SORTED assumes the input already arrives ordered by the group
// key (applyGroup only chooses it in that shape) and opens a new bucket
// only when the key changes from the previous row. Plain GROUP has no
// such ordering guarantee, so it hashes each key (hashstructure.Hash)
// to find its candidate bucket in O(1) instead of scanning every bucket
// seen so far, falling back to a full key-text comparison to resolve
// hash collisions.
func (ex *executor) runGroup(step plan.Step, sorted bool) error {
	h, list, err := ex.popLeft()
	if err != nil {
		return err
	}
	tables := ex.tablesUpTo(list.Width())
	width := list.Width()

	type bucket struct {
		key string
		h   rowlist.Handle
	}
	var buckets []bucket
	lastKey := ""
	haveLast := false

	// byHash lets the unsorted GROUP case find a candidate bucket in
	// O(1) instead of linear-scanning every bucket seen so far; entries
	// sharing a hash are still compared by the full key text to resolve
	// collisions, so correctness never depends on the hash being unique.
	byHash := map[uint64][]int{}

	for i := 0; i < list.Len(); i++ {
		ctx := ex.newRowContext(tables, list, i)
		key, err := groupKeyText(step.Keys, ctx)
		if err != nil {
			return err
		}

		found := false
		var bh rowlist.Handle
		var hash uint64
		if sorted {
			if haveLast && key == lastKey {
				bh, found = buckets[len(buckets)-1].h, true
			}
		} else {
			hash, err = hashstructure.Hash(key, nil)
			if err != nil {
				return err
			}
			for _, bi := range byHash[hash] {
				if buckets[bi].key == key {
					bh, found = buckets[bi].h, true
					break
				}
			}
		}
		if !found {
			bh = ex.pool.Create(width, 4)
			ex.pool.Get(bh).Group = true
			if !sorted {
				byHash[hash] = append(byHash[hash], len(buckets))
			}
			buckets = append(buckets, bucket{key: key, h: bh})
		}
		ex.pool.Get(bh).CopyRow(list, i)
		lastKey, haveLast = key, true
	}

	ex.pool.Destroy(h)

	if len(buckets) == 0 && len(step.Keys) == 0 {
		// No rows at all, but an aggregate query with no GROUP BY still
		// reports one row (COUNT(*) = 0, SUM/AVG/MIN/MAX = NULL).
		bh := ex.pool.Create(width, 0)
		ex.pool.Get(bh).Group = true
		buckets = append(buckets, bucket{h: bh})
	}
	for _, b := range buckets {
		ex.stack.Push(b.h)
	}
	return nil
}

// groupKeyText evaluates keys against ctx and concatenates the results
// into one bucket key.
func groupKeyText(keys []ast.Node, ctx expression.Context) (string, error) {
	if len(keys) == 0 {
		return "", nil
	}
	var sb strings.Builder
	for i := range keys {
		v, err := expression.Evaluate(&keys[i], ctx)
		if err != nil {
			return "", err
		}
		if i > 0 {
			sb.WriteString(groupKeySeparator)
		}
		sb.WriteString(v)
	}
	return sb.String(), nil
}
