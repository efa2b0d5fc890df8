package parse

import (
	"strings"

	"github.com/csvdb/csvdb/sql/ast"
	"github.com/csvdb/csvdb/sql/token"
)

// Parser is a recursive-descent parser over a pre-tokenized SQL
// statement, grounded on spec.md §4.4 and cross-checked against
// _examples/original_source/src/query/parse.c for clause ordering.
type Parser struct {
	tokens []token.Token
	pos    int
	src    string
}

// New returns a Parser positioned at the start of src.
func New(src string) *Parser {
	return &Parser{tokens: token.Tokenize(src), src: src}
}

// sourceFrom returns the raw source text starting at byte offset, used
// by CREATE VIEW to capture its defining query's exact text for the
// on-disk `.sql` view file instead of re-rendering the parsed Node tree.
func (p *Parser) sourceFrom(offset int) string {
	if offset < 0 || offset > len(p.src) {
		return ""
	}
	return p.src[offset:]
}

// Parse parses and resolves one statement, returning its Query.
func Parse(src string) (*ast.Query, error) {
	p := New(src)
	q, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if err := ResolveQuery(q); err != nil {
		return nil, err
	}
	return q, nil
}

// ParseMany splits src on top-level `;` and parses each non-empty
// statement, per spec.md §6 ("Multiple statements separated by `;`").
func ParseMany(src string) ([]*ast.Query, error) {
	var out []*ast.Query
	for _, stmt := range splitStatements(src) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		q, err := Parse(stmt)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

// splitStatements performs a naive split on `;`, respecting single-quoted
// strings so a semicolon inside a string literal is not mistaken for a
// statement boundary.
func splitStatements(src string) []string {
	var out []string
	var cur strings.Builder
	inString := false
	for i := 0; i < len(src); i++ {
		ch := src[i]
		if ch == '\'' {
			inString = !inString
		}
		if ch == ';' && !inString {
			out = append(out, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(ch)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

func (p *Parser) cur() token.Token {
	return p.tokens[p.pos]
}

func (p *Parser) peek(offset int) token.Token {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) atEOF() bool {
	return p.cur().Type == token.EOF
}

func (p *Parser) isKeyword(word string) bool {
	t := p.cur()
	return t.Type == token.KEYWORD && t.Literal == word
}

// isKeywordAt checks the keyword at a lookahead offset.
func (p *Parser) isKeywordAt(offset int, word string) bool {
	t := p.peek(offset)
	return t.Type == token.KEYWORD && t.Literal == word
}

func (p *Parser) expectKeyword(word string) error {
	if !p.isKeyword(word) {
		return p.errHere()
	}
	p.advance()
	return nil
}

func (p *Parser) expect(tt token.Type) (token.Token, error) {
	if p.cur().Type != tt {
		return token.Token{}, p.errHere()
	}
	return p.advance(), nil
}

func (p *Parser) errHere() error {
	t := p.cur()
	return ErrUnexpectedToken.New(t.Literal, t.Line, t.Column)
}

// parseStatement dispatches on the leading keyword to one of the
// statement forms spec.md §4.4 lists.
func (p *Parser) parseStatement() (*ast.Query, error) {
	ctes, err := p.parseOptionalWith()
	if err != nil {
		return nil, err
	}

	var q *ast.Query
	switch {
	case p.isKeyword("CREATE"):
		q, err = p.parseCreate()
	case p.isKeyword("INSERT"):
		q, err = p.parseInsert()
	case p.isKeyword("SELECT"), p.isKeyword("VALUES"):
		q, err = p.parseSelect()
	default:
		return nil, p.errHere()
	}
	if err != nil {
		return nil, err
	}
	q.CTEs = ctes
	return q, nil
}

// parseOptionalWith parses a leading `WITH name AS (query), ...` clause.
func (p *Parser) parseOptionalWith() (map[string]*ast.Query, error) {
	if !p.isKeyword("WITH") {
		return nil, nil
	}
	p.advance()

	ctes := map[string]*ast.Query{}
	for {
		nameTok, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("AS"); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.LPAREN); err != nil {
			return nil, err
		}
		sub, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		if len(ctes) >= maxCTEs {
			return nil, ErrTooManyCTEs.New(maxCTEs)
		}
		ctes[nameTok.Literal] = sub

		if p.cur().Type == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	return ctes, nil
}
