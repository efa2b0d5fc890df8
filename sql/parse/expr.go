package parse

import (
	"strings"

	"github.com/csvdb/csvdb/sql/ast"
	"github.com/csvdb/csvdb/sql/token"
)

// ParseExpr parses a standalone expression, exported for the planner's
// EXPLAIN/debug paths and for tests.
func ParseExpr(src string) (ast.Node, error) {
	p := New(src)
	return p.parseExpr()
}

// parseExpr is the WHERE/SELECT-list expression entry point: OR binds
// loosest, then AND, then the comparison operators, then the `||/+-/*%`
// arithmetic chain described in spec.md §4.4 ("new operator inserts
// itself as high as allowed by precedence"). Because every operator here
// is left-associative, a standard precedence-climbing descent produces
// exactly the tree the original's insert-algorithm builds; this is that
// descent spelled out one precedence tier per method instead of as a
// single loop, to keep each clause's special forms (BETWEEN, IN, LIKE,
// IS NULL) attached to the right level.
func (p *Parser) parseExpr() (ast.Node, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return ast.Node{}, err
	}
	for p.isKeyword("OR") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return ast.Node{}, err
		}
		left = ast.NewCall(ast.OperatorOr, left, right)
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Node, error) {
	left, err := p.parseComparison()
	if err != nil {
		return ast.Node{}, err
	}
	for p.isKeyword("AND") {
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return ast.Node{}, err
		}
		left = ast.NewCall(ast.OperatorAnd, left, right)
	}
	return left, nil
}

// parseComparison handles the non-chaining operators: plain comparisons,
// BETWEEN, IN, LIKE, and IS [NOT] NULL.
func (p *Parser) parseComparison() (ast.Node, error) {
	left, err := p.parseConcat()
	if err != nil {
		return ast.Node{}, err
	}

	if p.isKeyword("NOT") && p.isKeywordAt(1, "BETWEEN") {
		p.advance()
		return p.parseBetween(left, true)
	}
	if p.isKeyword("BETWEEN") {
		return p.parseBetween(left, false)
	}
	if p.isKeyword("NOT") && p.isKeywordAt(1, "IN") {
		p.advance()
		return p.parseIn(left, true)
	}
	if p.isKeyword("IN") {
		return p.parseIn(left, false)
	}
	if p.isKeyword("LIKE") {
		p.advance()
		right, err := p.parseConcat()
		if err != nil {
			return ast.Node{}, err
		}
		return ast.NewCall(ast.OperatorLike, left, right), nil
	}
	if p.isKeyword("NOT") && p.isKeywordAt(1, "LIKE") {
		p.advance()
		p.advance()
		right, err := p.parseConcat()
		if err != nil {
			return ast.Node{}, err
		}
		return negate(ast.NewCall(ast.OperatorLike, left, right)), nil
	}
	if p.isKeyword("IS") {
		p.advance()
		negated := false
		if p.isKeyword("NOT") {
			negated = true
			p.advance()
		}
		if err := p.expectKeyword("NULL"); err != nil {
			return ast.Node{}, err
		}
		op := ast.OperatorEq
		if negated {
			op = ast.OperatorNe
		}
		return ast.NewCall(op, left, ast.NewConstant("")), nil
	}

	if op, ok := comparisonOp(p.cur().Type); ok {
		p.advance()
		right, err := p.parseConcat()
		if err != nil {
			return ast.Node{}, err
		}
		return ast.NewCall(op, left, right), nil
	}

	return left, nil
}

func comparisonOp(tt token.Type) (ast.Function, bool) {
	switch tt {
	case token.EQ:
		return ast.OperatorEq, true
	case token.NEQ:
		return ast.OperatorNe, true
	case token.LT:
		return ast.OperatorLt, true
	case token.LE:
		return ast.OperatorLe, true
	case token.GT:
		return ast.OperatorGt, true
	case token.GE:
		return ast.OperatorGe, true
	}
	return ast.FuncUnknown, false
}

// negate wraps n as `NOT n`. An operator with an exact complement
// (=, !=, <, <=, >, >=, NEVER, ALWAYS) is swapped for it via Negate();
// anything else (LIKE, AND, OR, a parenthesized or plain expression) is
// wrapped as `n = '0'`, which holds exactly when n evaluates to "0".
func negate(n ast.Node) ast.Node {
	if neg := n.Function.Negate(); neg != n.Function {
		n.Function = neg
		return n
	}
	return ast.NewCall(ast.OperatorEq, n, ast.NewConstant("0"))
}

// parseBetween parses `expr BETWEEN low AND high`, expanding to
// `expr >= low AND expr <= high` (or its negation) per spec.md §4.4.
func (p *Parser) parseBetween(left ast.Node, negated bool) (ast.Node, error) {
	p.advance() // BETWEEN
	low, err := p.parseConcat()
	if err != nil {
		return ast.Node{}, err
	}
	if err := p.expectKeyword("AND"); err != nil {
		return ast.Node{}, err
	}
	high, err := p.parseConcat()
	if err != nil {
		return ast.Node{}, err
	}
	expanded := ast.NewCall(ast.OperatorAnd,
		ast.NewCall(ast.OperatorGe, left, low),
		ast.NewCall(ast.OperatorLe, left, high),
	)
	if negated {
		return ast.NewCall(ast.OperatorOr,
			ast.NewCall(ast.OperatorLt, left, low),
			ast.NewCall(ast.OperatorGt, left, high),
		), nil
	}
	return expanded, nil
}

// parseIn parses `expr IN (v1, v2, ...)`, expanding to an OR-tree of
// equalities per spec.md §4.4.
func (p *Parser) parseIn(left ast.Node, negated bool) (ast.Node, error) {
	p.advance() // IN
	if _, err := p.expect(token.LPAREN); err != nil {
		return ast.Node{}, err
	}
	var values []ast.Node
	for {
		v, err := p.parseConcat()
		if err != nil {
			return ast.Node{}, err
		}
		values = append(values, v)
		if p.cur().Type == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return ast.Node{}, err
	}

	op := ast.OperatorEq
	joiner := ast.OperatorOr
	if negated {
		op = ast.OperatorNe
		joiner = ast.OperatorAnd
	}
	expr := ast.NewCall(op, left, values[0])
	for _, v := range values[1:] {
		expr = ast.NewCall(joiner, expr, ast.NewCall(op, left, v))
	}
	return expr, nil
}

func (p *Parser) parseConcat() (ast.Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return ast.Node{}, err
	}
	for p.cur().Type == token.CONCAT {
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return ast.Node{}, err
		}
		left = ast.NewCall(ast.FuncConcat, left, right)
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ast.Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return ast.Node{}, err
	}
	for p.cur().Type == token.PLUS || p.cur().Type == token.MINUS {
		fn := ast.FuncAdd
		if p.cur().Type == token.MINUS {
			fn = ast.FuncSub
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return ast.Node{}, err
		}
		left = ast.NewCall(fn, left, right)
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return ast.Node{}, err
	}
	for {
		var fn ast.Function
		switch p.cur().Type {
		case token.STAR:
			fn = ast.FuncMul
		case token.SLASH:
			fn = ast.FuncDiv
		case token.PERCENT:
			fn = ast.FuncMod
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return ast.Node{}, err
		}
		left = ast.NewCall(fn, left, right)
	}
}

func (p *Parser) parseUnary() (ast.Node, error) {
	if p.cur().Type == token.MINUS {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return ast.Node{}, err
		}
		return ast.NewCall(ast.FuncSub, ast.NewConstant("0"), operand), nil
	}
	if p.isKeyword("NOT") {
		p.advance()
		operand, err := p.parseComparison()
		if err != nil {
			return ast.Node{}, err
		}
		return negate(operand), nil
	}
	return p.parsePrimary()
}

// parsePrimary parses the tightest-binding forms: parenthesized
// expressions, function calls, `*`/`t.*` star references, literals, and
// plain/qualified identifiers.
func (p *Parser) parsePrimary() (ast.Node, error) {
	switch p.cur().Type {
	case token.LPAREN:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return ast.Node{}, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return ast.Node{}, err
		}
		return ast.NewCall(ast.FuncParens, inner), nil

	case token.STRING:
		lit := p.advance().Literal
		return ast.NewConstant(lit), nil

	case token.NUMBER:
		lit := p.advance().Literal
		return ast.NewConstant(normalizeNumber(lit)), nil

	case token.STAR:
		p.advance()
		n := ast.NewLeaf(ast.Field{Text: "*", Index: ast.ColumnStar})
		return n, nil

	case token.QIDENT:
		lit := p.advance().Literal
		return ast.NewLeaf(ast.Field{Text: lit, Index: ast.ColumnUnknown}), nil

	case token.IDENT, token.KEYWORD:
		return p.parseIdentOrCall()
	}
	return ast.Node{}, p.errHere()
}

// parseIdentOrCall handles `name`, `t.name`, `t.*`, and `FUNC(args...)`.
func (p *Parser) parseIdentOrCall() (ast.Node, error) {
	name := p.advance().Literal

	if p.cur().Type == token.DOT {
		p.advance()
		if p.cur().Type == token.STAR {
			p.advance()
			return ast.NewLeaf(ast.Field{Text: name + ".*", Index: ast.ColumnStar}), nil
		}
		var rest string
		if p.cur().Type == token.QIDENT {
			rest = p.advance().Literal
		} else {
			tok, err := p.expect(token.IDENT)
			if err != nil {
				return ast.Node{}, err
			}
			rest = tok.Literal
		}
		return ast.NewLeaf(ast.Field{Text: name + "." + rest, Index: ast.ColumnUnknown}), nil
	}

	if p.cur().Type == token.LPAREN {
		return p.parseFunctionCall(name)
	}

	if named, ok := namedConstant(name); ok {
		return ast.NewConstant(named), nil
	}

	return ast.NewLeaf(ast.Field{Text: name, Index: ast.ColumnUnknown}), nil
}

func namedConstant(name string) (string, bool) {
	switch strings.ToUpper(name) {
	case "CURRENT_DATE", "CURRENT_TIME", "NOW", "TODAY":
		return strings.ToUpper(name), true
	}
	return "", false
}

func (p *Parser) parseFunctionCall(name string) (ast.Node, error) {
	p.advance() // consume (

	upper := strings.ToUpper(name)
	if upper == "COUNT" && p.cur().Type == token.STAR {
		p.advance()
		if _, err := p.expect(token.RPAREN); err != nil {
			return ast.Node{}, err
		}
		return ast.NewCall(ast.FuncAggCount, ast.NewLeaf(ast.Field{Text: "*", Index: ast.ColumnCountStar})), nil
	}

	fn, ok := ast.FunctionByName(upper)
	if !ok {
		return ast.Node{}, ErrUnknownFunction.New(name)
	}

	var args []ast.Node
	if p.cur().Type != token.RPAREN {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return ast.Node{}, err
			}
			args = append(args, arg)
			if p.cur().Type == token.COMMA {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return ast.Node{}, err
	}

	call := ast.NewCall(fn, args...)

	if p.isKeyword("FILTER") {
		p.advance()
		if _, err := p.expect(token.LPAREN); err != nil {
			return ast.Node{}, err
		}
		if err := p.expectKeyword("WHERE"); err != nil {
			return ast.Node{}, err
		}
		filter, err := p.parseExpr()
		if err != nil {
			return ast.Node{}, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return ast.Node{}, err
		}
		call.Filter = &filter
	}

	return call, nil
}

// normalizeNumber rewrites a hex literal to its decimal text, so the
// evaluator never needs to special-case base 16, per spec.md §4.7.
func normalizeNumber(lit string) string {
	if strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X") {
		var v int64
		for _, ch := range lit[2:] {
			v *= 16
			switch {
			case ch >= '0' && ch <= '9':
				v += int64(ch - '0')
			case ch >= 'a' && ch <= 'f':
				v += int64(ch-'a') + 10
			case ch >= 'A' && ch <= 'F':
				v += int64(ch-'A') + 10
			}
		}
		return itoa(v)
	}
	return lit
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
