package expression

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/csvdb/csvdb/sql/ast"
	"golang.org/x/text/encoding/charmap"
)

// evaluateStringFunc dispatches the string-family functions:
// LENGTH, LEFT, RIGHT, CONCAT, CHR, CODEPOINT, HEX, TO_HEX, W1252.
// Grounded on _examples/original_source/src/functions/string.c.
func evaluateStringFunc(n *ast.Node, ctx Context) (string, error) {
	switch n.Function {
	case ast.FuncLength:
		s, err := argText(n, 0, ctx)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(utf8.RuneCountInString(s)), nil

	case ast.FuncLeft:
		s, err := argText(n, 0, ctx)
		if err != nil {
			return "", err
		}
		count, err := argInt(n, 1, ctx)
		if err != nil {
			return "", err
		}
		return sliceRunes(s, 0, count), nil

	case ast.FuncRight:
		s, err := argText(n, 0, ctx)
		if err != nil {
			return "", err
		}
		count, err := argInt(n, 1, ctx)
		if err != nil {
			return "", err
		}
		runes := []rune(s)
		start := len(runes) - count
		if start < 0 {
			start = 0
		}
		return string(runes[start:]), nil

	case ast.FuncConcat:
		var sb strings.Builder
		for i := 0; i < n.Arity(); i++ {
			s, err := argText(n, i, ctx)
			if err != nil {
				return "", err
			}
			sb.WriteString(s)
		}
		return sb.String(), nil

	case ast.FuncChr:
		code, err := argInt(n, 0, ctx)
		if err != nil {
			return "", err
		}
		return string(rune(code)), nil

	case ast.FuncCodepoint:
		s, err := argText(n, 0, ctx)
		if err != nil {
			return "", err
		}
		if s == "" {
			return "", nil
		}
		r, _ := utf8.DecodeRuneInString(s)
		return strconv.Itoa(int(r)), nil

	case ast.FuncHex:
		s, err := argText(n, 0, ctx)
		if err != nil {
			return "", err
		}
		var sb strings.Builder
		for i := 0; i < len(s); i++ {
			fmt.Fprintf(&sb, "%02X", s[i])
		}
		return sb.String(), nil

	case ast.FuncToHex:
		v, err := argInt(n, 0, ctx)
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(int64(v), 16), nil

	case ast.FuncW1252:
		// Best-effort rewind on bad UTF-8, per spec.md §7
		// ("bad UTF-8 inside W1252 yields a best-effort rewind").
		s, err := argText(n, 0, ctx)
		if err != nil {
			return "", err
		}
		return w1252Decode(s), nil
	}
	return "", errUnknownFunction.New(n.Function.String())
}

func sliceRunes(s string, start, count int) string {
	runes := []rune(s)
	if start > len(runes) {
		start = len(runes)
	}
	end := start + count
	if end > len(runes) {
		end = len(runes)
	}
	if end < start {
		end = start
	}
	return string(runes[start:end])
}

func argInt(n *ast.Node, i int, ctx Context) (int, error) {
	s, err := argText(n, i, ctx)
	if err != nil {
		return 0, err
	}
	v, convErr := strconv.Atoi(strings.TrimSpace(s))
	if convErr != nil {
		return 0, nil // non-numeric arg treated as 0, matching lenient C semantics
	}
	return v, nil
}

// w1252Decode treats s's bytes as Windows-1252 and re-encodes as UTF-8,
// one byte at a time so a cell holding raw (non-UTF-8) bytes still
// yields a best-effort result instead of failing outright, per spec.md
// §7 ("bad UTF-8 inside W1252 yields a best-effort rewind").
func w1252Decode(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		sb.WriteRune(charmap.Windows1252.DecodeByte(s[i]))
	}
	return sb.String()
}
