package token

// keywords is the reserved-word set the tokenizer recognizes. A bare
// identifier matching (case-insensitively) one of these is still
// returned as an IDENT-shaped Token with Type KEYWORD so the parser can
// decide contextually; this mirrors token.Type's "keyword_beg" block in
// _examples/ha1tch-tsqlparser/token/token.go, trimmed to spec.md §4.4's
// grammar.
var keywords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "AS": true,
	"JOIN": true, "INNER": true, "LEFT": true, "OUTER": true, "CROSS": true,
	"ON": true, "USING": true,
	"AND": true, "OR": true, "NOT": true,
	"BETWEEN": true, "IN": true, "LIKE": true, "IS": true, "NULL": true,
	"GROUP": true, "BY": true, "ORDER": true, "ASC": true, "DESC": true,
	"OFFSET": true, "FETCH": true, "FIRST": true, "NEXT": true, "ONLY": true,
	"ROW": true, "ROWS": true, "LIMIT": true,
	"VALUES": true, "TABLE": true, "CREATE": true, "VIEW": true,
	"INDEX": true, "UNIQUE": true, "INSERT": true, "INTO": true,
	"WITH": true, "FILTER": true,
}

// LookupKeyword reports whether the case-insensitive upper-cased ident
// is a reserved word.
func LookupKeyword(ident string) bool {
	return keywords[ident]
}
