package rowexec

import (
	"github.com/csvdb/csvdb/sql/ast"
	"github.com/csvdb/csvdb/sql/expression"
	"github.com/csvdb/csvdb/sql/plan"
)

// runSelect implements SELECT: drain every list still on the stack, in
// the order steps pushed them, and emit one output row per entry -- or,
// for a Group-marked list, one row evaluating the SELECT list's
// aggregates over the whole bucket -- honoring any OFFSET runOffset
// recorded earlier, per spec.md §4.6.
func (ex *executor) runSelect(step plan.Step) error {
	handles := ex.stack.PopAll()
	emitted := 0

	for _, h := range handles {
		list := ex.pool.Get(h)
		tables := ex.tablesUpTo(list.Width())

		if list.Group {
			group := groupSource{tables: tables, list: list, now: ex.now}
			eval := func(n *ast.Node) (string, error) { return expression.EvaluateAggregate(n, group) }
			emitted++
			if err := ex.emitRow(eval, emitted); err != nil {
				ex.pool.Destroy(h)
				return err
			}
			ex.pool.Destroy(h)
			continue
		}

		for i := 0; i < list.Len(); i++ {
			ctx := ex.newRowContext(tables, list, i)
			eval := func(n *ast.Node) (string, error) { return expression.Evaluate(n, ctx) }
			emitted++
			if err := ex.emitRow(eval, emitted); err != nil {
				ex.pool.Destroy(h)
				return err
			}
		}
		ex.pool.Destroy(h)
	}
	return nil
}

// emitRow renders one output row from the SELECT list using eval,
// skipping it when it falls within a pending OFFSET.
func (ex *executor) emitRow(eval func(*ast.Node) (string, error), ordinal int) error {
	if ordinal <= ex.pendingOffset {
		return nil
	}
	row := make(Row, len(ex.query.Columns))
	for i := range ex.query.Columns {
		v, err := eval(&ex.query.Columns[i])
		if err != nil {
			return err
		}
		row[i] = v
	}
	return ex.w.WriteRow(row)
}
