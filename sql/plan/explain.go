package plan

import (
	"fmt"
	"strings"

	"github.com/csvdb/csvdb/sql/ast"
	"github.com/k0kubun/pp/v3"
)

// ExplainRow is one line of `EXPLAIN`'s CSV output, per spec.md §6
// ("EXPLAIN output. CSV with columns ID,Operation,Table,Predicate,Rows,Cost").
type ExplainRow struct {
	ID        int
	Operation string
	Table     string
	Predicate string
	Rows      int
	Cost      float64
}

// Explain renders p as the coarse heuristic rows/cost estimates spec.md
// §6 describes: TABLE_ACCESS_FULL = n, PK = 1, INDEX_RANGE = n/1000 for
// '=' or n/2 otherwise, SORT adds n² to the running cost, and so on.
func Explain(p *Plan, cat Catalog) []ExplainRow {
	rows := make([]ExplainRow, 0, len(p.Steps))
	n := estimateTableRows(p, cat)
	runningCost := 0.0

	for i, step := range p.Steps {
		tableName := ""
		if step.TableID >= 0 && step.TableID < len(p.Query.Tables) {
			tableName = p.Query.Tables[step.TableID].Name
		}
		stepRows, cost := estimateStep(step, n)
		runningCost += cost
		rows = append(rows, ExplainRow{
			ID:        i,
			Operation: step.Type.String(),
			Table:     tableName,
			Predicate: predicateText(step),
			Rows:      stepRows,
			Cost:      runningCost,
		})
	}
	return rows
}

func estimateTableRows(p *Plan, cat Catalog) int {
	if len(p.Query.Tables) == 0 {
		return 1
	}
	t := cat.Table(0)
	if t == nil {
		return 0
	}
	n, err := t.RecordCount()
	if err != nil {
		return 0
	}
	return n
}

func estimateStep(step Step, n int) (rows int, cost float64) {
	switch step.Type {
	case DummyRow:
		return 1, 1
	case PK, Unique:
		return 1, 1
	case IndexRange, UniqueRange:
		if step.Op == ast.OperatorEq {
			return maxInt(n/1000, 1), float64(n) / 1000
		}
		return maxInt(n/2, 1), float64(n) / 2
	case IndexScan, TableAccessFull, TableScan:
		return n, float64(n)
	case Sort:
		return n, float64(n) * float64(n)
	default:
		return n, float64(n)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func predicateText(step Step) string {
	var parts []string
	for i := range step.Predicates {
		parts = append(parts, renderNode(&step.Predicates[i]))
	}
	if step.Value != nil {
		parts = append(parts, fmt.Sprintf("col%d %s %s", step.Col, step.Op.String(), renderNode(step.Value)))
	}
	return strings.Join(parts, " AND ")
}

func renderNode(n *ast.Node) string {
	if n.IsLeaf() {
		return n.Field.String()
	}
	return n.Function.String() + "(...)"
}

// DebugDump pretty-prints p's steps for interactive debugging (not part
// of the CSV EXPLAIN surface, used only when developing the planner
// itself).
func DebugDump(p *Plan) string {
	return pp.Sprint(p.Steps)
}
