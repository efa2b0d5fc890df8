package expression

import (
	"strings"
	"time"

	"github.com/csvdb/csvdb/sql/ast"
	"github.com/csvdb/csvdb/sql/juliantime"
	"github.com/spf13/cast"
)

const (
	trueText  = "1"
	falseText = "0"
)

// evaluateComparison evaluates a comparison/OR/AND node, returning "1"
// or "0". OR/AND short-circuit, per spec.md §4.7
// ("evaluateOperatorNode short-circuits OR/AND").
func evaluateComparison(n *ast.Node, ctx Context) (string, error) {
	switch n.Function {
	case ast.OperatorOr:
		left, err := Evaluate(n.Child(0), ctx)
		if err != nil {
			return "", err
		}
		if truthy(left) {
			return trueText, nil
		}
		right, err := Evaluate(n.Child(1), ctx)
		if err != nil {
			return "", err
		}
		return boolText(truthy(right)), nil

	case ast.OperatorAnd:
		left, err := Evaluate(n.Child(0), ctx)
		if err != nil {
			return "", err
		}
		if !truthy(left) {
			return falseText, nil
		}
		right, err := Evaluate(n.Child(1), ctx)
		if err != nil {
			return "", err
		}
		return boolText(truthy(right)), nil

	case ast.OperatorLike:
		left, err := Evaluate(n.Child(0), ctx)
		if err != nil {
			return "", err
		}
		right, err := Evaluate(n.Child(1), ctx)
		if err != nil {
			return "", err
		}
		return boolText(matchLike(left, right)), nil
	}

	left, err := Evaluate(n.Child(0), ctx)
	if err != nil {
		return "", err
	}
	right, err := Evaluate(n.Child(1), ctx)
	if err != nil {
		return "", err
	}
	return boolText(Compare(n.Function, left, right)), nil
}

func truthy(s string) bool { return s != "" && s != "0" }

func boolText(b bool) string {
	if b {
		return trueText
	}
	return falseText
}

// Compare evaluates comparison operator op over already-rendered cell
// text a, b, per spec.md §4.7's three-tier rule: both parse as dates ->
// compare Julian days; else both parse as numbers (integer or decimal)
// -> compare numerically; else bytewise. '' stands for NULL and is only ever
// =/!= comparable (never <, <=, >, >=) to another value, matching SQL's
// NULL semantics as narrowed for this engine.
func Compare(op ast.Function, a, b string) bool {
	if op == ast.OperatorOr || op == ast.OperatorAnd || op == ast.OperatorLike {
		return false
	}
	if a == nullText || b == nullText {
		if op == ast.OperatorEq {
			return a == b
		}
		if op == ast.OperatorNe {
			return a != b
		}
		return false
	}

	cmp, ok := compareAsDates(a, b)
	if !ok {
		cmp, ok = compareAsNumbers(a, b)
	}
	if !ok {
		cmp = strings.Compare(a, b)
	}
	return op.MatchesComparison(cmp)
}

func compareAsDates(a, b string) (int, bool) {
	da, ok1 := juliantime.Parse(a, zeroTime)
	db, ok2 := juliantime.Parse(b, zeroTime)
	if !ok1 || !ok2 {
		return 0, false
	}
	ja, jb := juliantime.Julian(da), juliantime.Julian(db)
	if ja != jb {
		return sign(ja - jb), true
	}
	ta, tb := juliantime.TimeInSeconds(da), juliantime.TimeInSeconds(db)
	return sign(ta - tb), true
}

func compareAsNumbers(a, b string) (int, bool) {
	fa, errA := cast.ToFloat64E(a)
	fb, errB := cast.ToFloat64E(b)
	if errA != nil || errB != nil {
		return 0, false
	}
	switch {
	case fa < fb:
		return -1, true
	case fa > fb:
		return 1, true
	default:
		return 0, true
	}
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}

// zeroTime is passed to juliantime.Parse for comparisons, since neither
// operand can be a bare CURRENT_DATE/NOW() keyword by the time Evaluate
// reaches Compare (those are already resolved to literal text higher up
// the call stack via evaluateConstant).
var zeroTime = time.Time{}

// matchLike implements SQL LIKE: '%' matches any run of characters, '_'
// matches exactly one.
func matchLike(s, pattern string) bool {
	return likeMatch(s, pattern)
}

func likeMatch(s, pattern string) bool {
	// Classic recursive wildcard matcher; patterns in this engine are
	// short (column values / literal patterns), so the simple recursion
	// over byte slices is plenty fast.
	if pattern == "" {
		return s == ""
	}
	if pattern[0] == '%' {
		if likeMatch(s, pattern[1:]) {
			return true
		}
		for i := 0; i < len(s); i++ {
			if likeMatch(s[i+1:], pattern[1:]) {
				return true
			}
		}
		return false
	}
	if s == "" {
		return false
	}
	if pattern[0] == '_' || pattern[0] == s[0] {
		return likeMatch(s[1:], pattern[1:])
	}
	return false
}
