package parse

import "github.com/csvdb/csvdb/sql/ast"

// parseInsert parses `INSERT INTO table <query>`, where <query> is
// either a SELECT or a bare VALUES list, per spec.md §4.4.
func (p *Parser) parseInsert() (*ast.Query, error) {
	p.advance() // INSERT
	if err := p.expectKeyword("INTO"); err != nil {
		return nil, err
	}
	table, err := p.identifierLike()
	if err != nil {
		return nil, err
	}

	sub, err := p.parseSelect()
	if err != nil {
		return nil, err
	}
	sub.Kind = ast.StatementInsert
	sub.InsertTable = table
	return sub, nil
}
