package vfs

import "strings"

// splitCSVLine splits one line of CSV text into cells, honoring
// double-quoted fields, doubled-quote escaping ("" -> "), and stripping
// a trailing \r left by CRLF line endings. Grounded on the cell-reader
// state machine in _examples/original_source/src/db-csv.c.
func splitCSVLine(line string) []string {
	line = strings.TrimSuffix(line, "\r")
	var cells []string
	var cur strings.Builder
	inQuotes := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case inQuotes:
			if ch == '"' {
				if i+1 < len(line) && line[i+1] == '"' {
					cur.WriteByte('"')
					i++
					continue
				}
				inQuotes = false
				continue
			}
			cur.WriteByte(ch)
		case ch == '"' && cur.Len() == 0:
			inQuotes = true
		case ch == ',':
			cells = append(cells, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	cells = append(cells, cur.String())
	return cells
}

// splitTSVLine splits on a single tab byte, with no quoting, matching
// the plain-text TSV convention _examples/original_source/src/db-tsv.c
// uses for index side-files.
func splitTSVLine(line string) []string {
	line = strings.TrimSuffix(line, "\r")
	return strings.Split(line, "\t")
}

// splitWSVLine splits on runs of whitespace, with no quoting, grounded
// on _examples/original_source/src/db/wsv-mem.c.
func splitWSVLine(line string) []string {
	line = strings.TrimSuffix(line, "\r")
	return strings.Fields(line)
}

// stripBOM removes a leading UTF-8 byte-order mark, matching spec.md
// §4.2's "UTF-8 BOM stripping" requirement for GetCell on the header row.
func stripBOM(s string) string {
	const bom = "﻿"
	return strings.TrimPrefix(s, bom)
}

// escapeCSVCell quotes a cell for output if it contains a comma, quote,
// or newline, doubling any embedded quotes.
func escapeCSVCell(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
