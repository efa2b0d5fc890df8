package parse

import (
	"strconv"

	"github.com/csvdb/csvdb/sql/ast"
	"github.com/csvdb/csvdb/sql/token"
)

// parseSelect parses a SELECT statement body (the SELECT keyword itself
// may already have been consumed by a caller that needed to look ahead;
// here it still sits at the front, so both the top-level dispatch and
// CTE-body recursion can call this directly). A bare VALUES(...) list is
// also accepted, wrapped as its own one-row-per-tuple TableSpecValues
// source with an implicit `SELECT *`.
func (p *Parser) parseSelect() (*ast.Query, error) {
	if p.isKeyword("VALUES") {
		return p.parseValuesStatement()
	}

	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}

	q := &ast.Query{Kind: ast.StatementSelect, Limit: ast.NoLimit}

	cols, err := p.parseSelectList()
	if err != nil {
		return nil, err
	}
	q.Columns = cols

	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	tables, err := p.parseTableRefList()
	if err != nil {
		return nil, err
	}
	q.Tables = tables

	if p.isKeyword("WHERE") {
		p.advance()
		pred, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		q.Predicate = pred
		q.Flags |= ast.FlagHasPredicate
	}

	if p.isKeyword("GROUP") {
		p.advance()
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		group, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		q.GroupBy = group
		q.Flags |= ast.FlagGroup
	}

	if p.isKeyword("ORDER") {
		p.advance()
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		order, err := p.parseOrderByList()
		if err != nil {
			return nil, err
		}
		q.OrderBy = order
	}

	if err := p.parseLimitClause(q); err != nil {
		return nil, err
	}

	if !q.IsGroup() {
		for _, c := range q.Columns {
			if c.Function.IsAggregate() {
				q.Flags |= ast.FlagGroup
				break
			}
		}
	}

	return q, nil
}

// parseSelectList parses the comma-separated SELECT-list entries, each an
// expression optionally followed by `[AS] alias`.
func (p *Parser) parseSelectList() ([]ast.Node, error) {
	var cols []ast.Node
	for {
		col, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.isKeyword("AS") {
			p.advance()
			tok, err := p.identifierLike()
			if err != nil {
				return nil, err
			}
			col.Alias = tok
		} else if p.cur().Type == token.IDENT || p.cur().Type == token.QIDENT {
			// bare alias, e.g. `SELECT price * qty total`
			col.Alias = p.advance().Literal
		}
		cols = append(cols, col)
		if p.cur().Type == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	return cols, nil
}

// parseExprList parses a comma-separated list of plain expressions, used
// for GROUP BY.
func (p *Parser) parseExprList() ([]ast.Node, error) {
	var out []ast.Node
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		if p.cur().Type == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	return out, nil
}

// parseOrderByList parses `expr [ASC|DESC], ...`.
func (p *Parser) parseOrderByList() ([]ast.Node, error) {
	var out []ast.Node
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		e.SetDirection(ast.OrderAsc)
		if p.isKeyword("ASC") {
			p.advance()
		} else if p.isKeyword("DESC") {
			p.advance()
			e.SetDirection(ast.OrderDesc)
		}
		out = append(out, e)
		if p.cur().Type == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	return out, nil
}

// parseLimitClause accepts any combination, in any order, of the three
// row-limiting forms spec.md §4.4 lists: `OFFSET n ROW[S]`,
// `FETCH FIRST|NEXT n ROW[S] ONLY`, and `LIMIT n [OFFSET m]`.
func (p *Parser) parseLimitClause(q *ast.Query) error {
	for {
		switch {
		case p.isKeyword("OFFSET"):
			p.advance()
			n, err := p.parseIntLiteral()
			if err != nil {
				return err
			}
			q.Offset = n
			if p.isKeyword("ROW") || p.isKeyword("ROWS") {
				p.advance()
			}
		case p.isKeyword("FETCH"):
			p.advance()
			if p.isKeyword("FIRST") || p.isKeyword("NEXT") {
				p.advance()
			}
			n, err := p.parseIntLiteral()
			if err != nil {
				return err
			}
			q.Limit = n
			if p.isKeyword("ROW") || p.isKeyword("ROWS") {
				p.advance()
			}
			if err := p.expectKeyword("ONLY"); err != nil {
				return err
			}
		case p.isKeyword("LIMIT"):
			p.advance()
			n, err := p.parseIntLiteral()
			if err != nil {
				return err
			}
			q.Limit = n
			if p.isKeyword("OFFSET") {
				p.advance()
				m, err := p.parseIntLiteral()
				if err != nil {
					return err
				}
				q.Offset = m
			}
		default:
			return nil
		}
	}
}

func (p *Parser) parseIntLiteral() (int, error) {
	tok, err := p.expect(token.NUMBER)
	if err != nil {
		return 0, err
	}
	n, convErr := strconv.Atoi(tok.Literal)
	if convErr != nil {
		return 0, ErrUnexpectedToken.New(tok.Literal, tok.Line, tok.Column)
	}
	return n, nil
}

// identifierLike accepts a bare or quoted identifier as an alias name.
func (p *Parser) identifierLike() (string, error) {
	switch p.cur().Type {
	case token.IDENT, token.QIDENT:
		return p.advance().Literal, nil
	}
	return "", p.errHere()
}

// parseTableRefList parses the FROM clause: a comma/CROSS/INNER/LEFT JOIN
// chain of table references.
func (p *Parser) parseTableRefList() ([]ast.TableRef, error) {
	first, err := p.parseTableRef()
	if err != nil {
		return nil, err
	}
	tables := []ast.TableRef{first}

	for {
		switch {
		case p.cur().Type == token.COMMA:
			p.advance()
			t, err := p.parseTableRef()
			if err != nil {
				return nil, err
			}
			t.JoinType = ast.JoinCross
			t.Join = ast.NewConstant("1")
			tables = append(tables, t)

		case p.isKeyword("CROSS"):
			p.advance()
			if err := p.expectKeyword("JOIN"); err != nil {
				return nil, err
			}
			t, err := p.parseTableRef()
			if err != nil {
				return nil, err
			}
			t.JoinType = ast.JoinCross
			t.Join = ast.NewConstant("1")
			tables = append(tables, t)

		case p.isKeyword("JOIN"), p.isKeyword("INNER"):
			if p.isKeyword("INNER") {
				p.advance()
			}
			if err := p.expectKeyword("JOIN"); err != nil {
				return nil, err
			}
			t, err := p.parseTableRef()
			if err != nil {
				return nil, err
			}
			t.JoinType = ast.JoinInner
			pred, err := p.parseJoinCondition(tables, t)
			if err != nil {
				return nil, err
			}
			t.Join = pred
			tables = append(tables, t)

		case p.isKeyword("LEFT"):
			p.advance()
			if p.isKeyword("OUTER") {
				p.advance()
			}
			if err := p.expectKeyword("JOIN"); err != nil {
				return nil, err
			}
			t, err := p.parseTableRef()
			if err != nil {
				return nil, err
			}
			t.JoinType = ast.JoinLeft
			pred, err := p.parseJoinCondition(tables, t)
			if err != nil {
				return nil, err
			}
			t.Join = pred
			tables = append(tables, t)

		default:
			return tables, nil
		}
	}
}

// parseJoinCondition parses the `ON expr` or `USING (col, ...)` clause
// following JOIN/LEFT JOIN; USING is desugared into an ON-equivalent AND
// chain of qualified-name equalities, per spec.md §4.4.
func (p *Parser) parseJoinCondition(prior []ast.TableRef, right ast.TableRef) (ast.Node, error) {
	if p.isKeyword("ON") {
		p.advance()
		return p.parseExpr()
	}
	if p.isKeyword("USING") {
		p.advance()
		if _, err := p.expect(token.LPAREN); err != nil {
			return ast.Node{}, err
		}
		leftAlias := tableLabel(prior[len(prior)-1])
		rightAlias := tableLabel(right)
		var pred ast.Node
		first := true
		for {
			tok, err := p.expect(token.IDENT)
			if err != nil {
				return ast.Node{}, err
			}
			eq := ast.NewCall(ast.OperatorEq,
				ast.NewLeaf(ast.Field{Text: leftAlias + "." + tok.Literal, Index: ast.ColumnUnknown}),
				ast.NewLeaf(ast.Field{Text: rightAlias + "." + tok.Literal, Index: ast.ColumnUnknown}),
			)
			if first {
				pred = eq
				first = false
			} else {
				pred = ast.NewCall(ast.OperatorAnd, pred, eq)
			}
			if p.cur().Type == token.COMMA {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return ast.Node{}, err
		}
		return pred, nil
	}
	// Bare JOIN with neither ON nor USING is a cross join in disguise.
	return ast.NewConstant("1"), nil
}

func tableLabel(t ast.TableRef) string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// parseTableRef parses one FROM-clause entry: a named table, a
// parenthesized subquery, or an inline VALUES block, each with an
// optional `[AS] alias[(col, ...)]`.
func (p *Parser) parseTableRef() (ast.TableRef, error) {
	var t ast.TableRef

	switch {
	case p.cur().Type == token.LPAREN:
		p.advance()
		if p.isKeyword("VALUES") {
			rows, err := p.parseValuesRows()
			if err != nil {
				return t, err
			}
			t.Kind = ast.TableSpecValues
			t.Values = rows
		} else {
			sub, err := p.parseSelect()
			if err != nil {
				return t, err
			}
			t.Kind = ast.TableSpecSubquery
			t.Subquery = sub
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return t, err
		}

	case p.isKeyword("VALUES"):
		rows, err := p.parseValuesRows()
		if err != nil {
			return t, err
		}
		t.Kind = ast.TableSpecValues
		t.Values = rows

	case p.cur().Type == token.IDENT:
		t.Kind = ast.TableSpecName
		t.Name = p.advance().Literal

	default:
		return t, p.errHere()
	}

	if p.isKeyword("AS") {
		p.advance()
		alias, err := p.identifierLike()
		if err != nil {
			return t, err
		}
		t.Alias = alias
	} else if p.cur().Type == token.IDENT {
		t.Alias = p.advance().Literal
	}

	if p.cur().Type == token.LPAREN {
		p.advance()
		for {
			col, err := p.identifierLike()
			if err != nil {
				return t, err
			}
			t.ColumnAliases = append(t.ColumnAliases, col)
			if p.cur().Type == token.COMMA {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return t, err
		}
	}

	return t, nil
}

// parseValuesRows parses `VALUES (v1, v2), (v3, v4), ...`.
func (p *Parser) parseValuesRows() ([][]ast.Node, error) {
	if err := p.expectKeyword("VALUES"); err != nil {
		return nil, err
	}
	var rows [][]ast.Node
	for {
		if _, err := p.expect(token.LPAREN); err != nil {
			return nil, err
		}
		row, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		if p.cur().Type == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	return rows, nil
}

// parseValuesStatement wraps a bare `VALUES (...), (...)` statement as an
// implicit `SELECT * FROM (VALUES ...)`.
func (p *Parser) parseValuesStatement() (*ast.Query, error) {
	rows, err := p.parseValuesRows()
	if err != nil {
		return nil, err
	}
	q := &ast.Query{Kind: ast.StatementSelect, Limit: ast.NoLimit}
	q.Tables = []ast.TableRef{{Kind: ast.TableSpecValues, Values: rows}}
	q.Columns = []ast.Node{ast.NewLeaf(ast.Field{Text: "*", Index: ast.ColumnStar})}
	return q, nil
}
