// Package expression implements node evaluation (component C7): walking
// an ast.Node tree to text, comparison semantics (date-aware, numeric,
// bytewise fallback), function dispatch by family, and aggregate
// evaluation over a row group. Grounded on
// _examples/original_source/src/query/evaluate.c (evaluate/evaluateOperatorNode)
// and src/functions/*.c for the individual function families.
//
// This package deliberately has no dependency on package vfs: Context is
// a narrow cell-access interface the executor implements over an open
// vfs.Table plus the current row-list position, keeping the
// ast -> {vfs, expression} -> plan import graph acyclic per DESIGN NOTES §9.
package expression

import (
	"strconv"
	"time"

	"github.com/csvdb/csvdb/sql/ast"
)

// Context supplies the per-row data Evaluate needs: the text of a given
// table's cell, the rowid of a table (for ROW_INDEX leaves), and the
// "current time" used by CURRENT_DATE/CURRENT_TIME/NOW/TODAY.
type Context interface {
	Cell(tableID int, col ast.ColumnIndex) (string, error)
	RowID(tableID int) int
	Now() time.Time
}

// RowSource is a sequence of per-row Contexts over one row-list group,
// used by EvaluateAggregate.
type RowSource interface {
	Len() int
	At(i int) Context
}

// nullText is the empty-string NULL representation spec.md §4.7 uses
// ("'' (empty) stands for NULL").
const nullText = ""

// Evaluate walks n against ctx and returns its text value.
func Evaluate(n *ast.Node, ctx Context) (string, error) {
	if n.IsLeaf() {
		return evaluateLeaf(n.Field, ctx)
	}
	if n.Function.IsAggregate() {
		return "", errAggregateOutsideGroup.New(n.Function.String())
	}
	return evaluateCall(n, ctx)
}

func evaluateLeaf(f ast.Field, ctx Context) (string, error) {
	switch f.Index {
	case ast.ColumnConstant:
		return evaluateConstant(f.Text, ctx), nil
	case ast.ColumnRowIndex:
		return strconv.Itoa(ctx.RowID(f.TableID)), nil
	case ast.ColumnCountStar, ast.ColumnStar:
		return nullText, nil
	default:
		return ctx.Cell(f.TableID, f.Index)
	}
}

// evaluateConstant resolves the handful of named constants the parser
// leaves as literal text, per spec.md §4.7; everything else (including
// already hex-normalized numeric literals) passes through unchanged.
func evaluateConstant(text string, ctx Context) string {
	switch text {
	case "CURRENT_DATE":
		now := ctx.Now()
		return now.Format("2006-01-02")
	case "CURRENT_TIME":
		now := ctx.Now()
		return now.Format("15:04:05")
	case "NOW":
		now := ctx.Now()
		return now.Format("2006-01-02 15:04:05")
	case "TODAY":
		now := ctx.Now()
		return now.Format("2006-01-02")
	}
	return text
}

// evaluateCall evaluates a non-leaf Node by dispatching on its
// Function's family.
func evaluateCall(n *ast.Node, ctx Context) (string, error) {
	fn := n.Function

	if fn == ast.FuncParens {
		return Evaluate(n.Child(0), ctx)
	}

	if fn.IsComparison() {
		return evaluateComparison(n, ctx)
	}

	switch fn {
	case ast.FuncChr, ast.FuncToHex, ast.FuncHex, ast.FuncCodepoint, ast.FuncW1252:
		return evaluateStringFunc(n, ctx)
	}

	switch fn.Family() {
	case ast.FuncFamString:
		return evaluateStringFunc(n, ctx)
	case ast.FuncFamExtract:
		return evaluateExtract(n, ctx)
	case ast.FuncFamDate:
		return evaluateDateFunc(n, ctx)
	case ast.FuncFamDummy:
		return "", errUnknownFunction.New(fn.String())
	default: // remaining family-0x00 members: + - * / % ^
		return evaluateArithmetic(n, ctx)
	}
}

func argText(n *ast.Node, i int, ctx Context) (string, error) {
	return Evaluate(n.Child(i), ctx)
}
