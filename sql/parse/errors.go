// Package parse implements the tokenizer-consuming recursive-descent
// parser (component C6): it turns SQL source into a *ast.Query, then runs
// the three name-resolution passes spec.md §4.4 describes.
package parse

import "gopkg.in/src-d/go-errors.v1"

// Sentinel error kinds, surfaced to stderr per spec.md §7. Syntax errors
// report the offending token's line/column; resolution errors report the
// unresolved name.
var (
	ErrUnexpectedToken    = errors.NewKind("unexpected token %q at line %d, column %d")
	ErrUnterminated       = errors.NewKind("unterminated %s starting at line %d")
	ErrUnknownFunction    = errors.NewKind("unknown function %q")
	ErrUnknownColumn      = errors.NewKind("unknown column %q")
	ErrUnknownTable       = errors.NewKind("unknown table %q")
	ErrAmbiguousColumn    = errors.NewKind("ambiguous column %q: matches more than one table")
	ErrCTESelfReference   = errors.NewKind("CTE %q may not reference itself or later CTEs")
	ErrTooManyCTEs        = errors.NewKind("too many common table expressions (max %d)")
)

// maxCTEs bounds WITH-clause size, matching spec.md §4.4's "up to a
// fixed small number".
const maxCTEs = 8
