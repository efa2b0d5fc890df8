package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLexerBasicSelect(t *testing.T) {
	require := require.New(t)
	toks := Tokenize("SELECT name FROM people WHERE score = 10")
	types := make([]Type, 0, len(toks))
	for _, tok := range toks {
		types = append(types, tok.Type)
	}
	require.Equal([]Type{KEYWORD, IDENT, KEYWORD, IDENT, KEYWORD, IDENT, EQ, NUMBER, EOF}, types)
}

func TestLexerQuotedIdentifierSetsFlag(t *testing.T) {
	require := require.New(t)
	toks := Tokenize(`"my column"`)
	require.Equal(QIDENT, toks[0].Type)
	require.True(toks[0].Quoted)
	require.Equal("my column", toks[0].Literal)
}

func TestLexerStringEscapesDoubledQuote(t *testing.T) {
	require := require.New(t)
	toks := Tokenize(`'it''s'`)
	require.Equal(STRING, toks[0].Type)
	require.Equal("it's", toks[0].Literal)
}

func TestLexerLineComment(t *testing.T) {
	require := require.New(t)
	toks := Tokenize("SELECT 1 -- trailing comment\nFROM t")
	var sawFrom bool
	for _, tok := range toks {
		if tok.Type == KEYWORD && tok.Literal == "FROM" {
			sawFrom = true
		}
	}
	require.True(sawFrom)
}

func TestLexerHexLiteral(t *testing.T) {
	require := require.New(t)
	toks := Tokenize("0x1F")
	require.Equal(NUMBER, toks[0].Type)
	require.Equal("0x1F", toks[0].Literal)
}

func TestLexerOperators(t *testing.T) {
	require := require.New(t)
	toks := Tokenize("<= >= != <> || %")
	types := []Type{}
	for _, tok := range toks {
		if tok.Type != EOF {
			types = append(types, tok.Type)
		}
	}
	require.Equal([]Type{LE, GE, NEQ, NEQ, CONCAT, PERCENT}, types)
}
