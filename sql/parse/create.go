package parse

import (
	"strings"

	"github.com/csvdb/csvdb/sql/ast"
	"github.com/csvdb/csvdb/sql/token"
)

// parseCreate dispatches the three CREATE forms spec.md §4.4 lists:
// CREATE TABLE ... AS, CREATE VIEW ... AS, and CREATE [UNIQUE] INDEX.
func (p *Parser) parseCreate() (*ast.Query, error) {
	p.advance() // CREATE

	if p.isKeyword("TABLE") {
		p.advance()
		name, err := p.identifierLike()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("AS"); err != nil {
			return nil, err
		}
		sub, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		sub.Kind = ast.StatementCreateTable
		sub.CreateTableName = name
		return sub, nil
	}

	if p.isKeyword("VIEW") {
		p.advance()
		name, err := p.identifierLike()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("AS"); err != nil {
			return nil, err
		}
		defStart := p.cur().Offset
		sub, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		sub.Kind = ast.StatementCreateView
		sub.CreateTableName = name
		sub.CreateViewSource = strings.TrimSpace(p.sourceFrom(defStart))
		return sub, nil
	}

	unique := false
	if p.isKeyword("UNIQUE") {
		unique = true
		p.advance()
	}
	if err := p.expectKeyword("INDEX"); err != nil {
		return nil, err
	}

	q := &ast.Query{Kind: ast.StatementCreateIndex, Limit: ast.NoLimit, CreateUnique: unique}

	// An index name is optional: `CREATE INDEX ON t(col)` is anonymous.
	if p.cur().Type == token.IDENT && !p.isKeywordAt(1, "ON") && p.peek(1).Type != token.LPAREN {
		q.CreateIndexName = p.advance().Literal
	} else if p.cur().Type == token.IDENT && p.isKeywordAt(1, "ON") {
		q.CreateIndexName = p.advance().Literal
	}

	if err := p.expectKeyword("ON"); err != nil {
		return nil, err
	}
	table, err := p.identifierLike()
	if err != nil {
		return nil, err
	}
	q.CreateIndexTable = table

	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	for {
		col, err := p.identifierLike()
		if err != nil {
			return nil, err
		}
		q.CreateIndexCols = append(q.CreateIndexCols, col)
		if p.cur().Type == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}

	return q, nil
}
