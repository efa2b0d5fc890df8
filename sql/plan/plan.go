// Package plan implements the heuristic physical planner (component
// C8): predicate classification, access-path and join-strategy
// selection, sort/group elision, and limit/offset pushdown, emitting a
// linear Plan of typed Steps for package rowexec to interpret. Grounded
// on _examples/original_source/src/query/plan.c (planQuery and its
// per-table/per-join case analysis), per spec.md §4.5.
package plan

import (
	"github.com/csvdb/csvdb/sql/ast"
	"github.com/csvdb/csvdb/sql/vfs"
)

// StepType names one physical operation in a Plan, categorized by its
// effect on the executor's result-set stack (spec.md §3 "Plan").
type StepType int

const (
	DummyRow StepType = iota
	PK
	Unique
	IndexRange
	UniqueRange
	IndexScan
	TableAccessFull
	TableScan
	TableAccessRowid
	CrossJoin
	ConstantJoin
	LoopJoin
	UniqueJoin
	IndexJoin
	Sort
	Reverse
	Slice
	Offset
	Group
	GroupSorted
	Select
)

func (t StepType) String() string {
	switch t {
	case DummyRow:
		return "DUMMY_ROW"
	case PK:
		return "PRIMARY KEY UNIQUE"
	case Unique:
		return "UNIQUE"
	case IndexRange:
		return "INDEX_RANGE"
	case UniqueRange:
		return "UNIQUE_RANGE"
	case IndexScan:
		return "INDEX_SCAN"
	case TableAccessFull:
		return "TABLE ACCESS FULL"
	case TableScan:
		return "TABLE_SCAN"
	case TableAccessRowid:
		return "TABLE_ACCESS_ROWID"
	case CrossJoin:
		return "CROSS_JOIN"
	case ConstantJoin:
		return "CONSTANT_JOIN"
	case LoopJoin:
		return "LOOP_JOIN"
	case UniqueJoin:
		return "UNIQUE_JOIN"
	case IndexJoin:
		return "INDEX_JOIN"
	case Sort:
		return "SORT"
	case Reverse:
		return "REVERSE"
	case Slice:
		return "SLICE"
	case Offset:
		return "OFFSET"
	case Group:
		return "GROUP"
	case GroupSorted:
		return "GROUP_SORTED"
	case Select:
		return "SELECT"
	}
	return "UNKNOWN"
}

// Step is one instruction in a Plan.
type Step struct {
	Type StepType

	// TableID is the query's table index this step reads from, or -1
	// when the step doesn't source from a single table (joins read
	// TableID as "the new table being joined in").
	TableID int

	// Predicates are the conjuncts (AND-flattened) this step evaluates
	// or uses to narrow its access path.
	Predicates []ast.Node

	// Col/Op/Value describe the comparison driving an index step:
	// TableID's Col column Op Value. Value is nil for step types that
	// don't seek by value.
	Col   ast.ColumnIndex
	Op    ast.Function
	Value *ast.Node

	// Keys carries ORDER BY/GROUP BY node lists for Sort/Group steps.
	Keys []ast.Node

	// JoinType carries the LEFT/INNER-ness of a join step, so the
	// executor knows whether to fall back to rowlist.RowidNull when the
	// right side has no match.
	JoinType ast.JoinType

	// Limit is this step's self-limit (-1 = unbounded), per spec.md §3.
	Limit int
}

// Plan is the straight-line sequence of Steps the planner emits for one
// Query.
type Plan struct {
	Query *ast.Query
	Steps []Step
}

// Catalog gives the planner read access to each table's opened VFS
// handle, so it can call FindIndex while choosing access paths. The
// executor satisfies the same role at run time; the planner never holds
// on to the handle, only uses it during Build.
type Catalog interface {
	Table(tableID int) vfs.Table
}

// Build runs the nine-step case analysis of spec.md §4.5 over q and
// returns the resulting Plan.
func Build(q *ast.Query, cat Catalog) (*Plan, error) {
	p := &Plan{Query: q}

	if isDeadPredicate(&q.Predicate) {
		p.Steps = append(p.Steps, Step{Type: Select, TableID: -1, Limit: ast.NoLimit})
		return p, nil
	}

	if len(q.Tables) == 0 {
		p.Steps = append(p.Steps, Step{Type: DummyRow, TableID: -1, Limit: ast.NoLimit})
		p.Steps = append(p.Steps, Step{Type: Select, TableID: -1, Limit: ast.NoLimit})
		return p, nil
	}

	var conjuncts []ast.Node
	if q.HasPredicate() {
		conjuncts = flattenAnd(&q.Predicate)
	}

	sourceStep, err := chooseSource(q, cat, conjuncts)
	if err != nil {
		return nil, err
	}
	p.Steps = append(p.Steps, sourceStep)

	remaining := removeConjuncts(conjuncts, sourceStep.Predicates)

	for i := 1; i < len(q.Tables); i++ {
		joinSteps, used, ok := chooseJoin(q, cat, i, remaining)
		if !ok {
			// Predicate is NEVER: abort to an empty plan, per spec.md
			// §4.5 step 4 ("If the predicate is NEVER, abort the plan").
			p.Steps = []Step{{Type: Select, TableID: -1, Limit: ast.NoLimit}}
			return p, nil
		}
		p.Steps = append(p.Steps, joinSteps...)
		remaining = removeConjuncts(remaining, used)
	}

	// Any predicates not consumed by a source/join step are re-applied
	// once every table is joined.
	if len(remaining) > 0 {
		p.Steps = append(p.Steps, Step{
			Type:       TableAccessRowid,
			TableID:    -1,
			Predicates: remaining,
			Limit:      ast.NoLimit,
		})
	}

	p.Steps = applySort(q, p.Steps)
	p.Steps = applyGroup(q, p.Steps)
	p.Steps = applyLimit(q, p.Steps)

	p.Steps = append(p.Steps, Step{Type: Select, TableID: -1, Limit: ast.NoLimit})
	return p, nil
}

// isDeadPredicate reports whether n is a predicate known never to match:
// the explicit NEVER marker, or a folded constant leaf whose text is
// falsy ("" or "0"), per spec.md §4.5 step 1.
func isDeadPredicate(n *ast.Node) bool {
	if n.Function == ast.OperatorNever {
		return true
	}
	return n.IsConstant() && (n.Field.Text == "" || n.Field.Text == "0")
}
