package a1

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError reports a malformed reference string.
type ParseError struct {
	Input   string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid reference %q: %s", e.Input, e.Message)
}

func parseErr(input, message string) error {
	return &ParseError{Input: input, Message: message}
}

// ParseRange parses one reference: `A1`, `$A$1`, `A1:B2`, `A:C`,
// `1:3`, `Sheet1!A1`, `'Sheet with space'!A1`, `Table1[col]`,
// `Table1[[a]:[b]]`, `Table1[[a]:]`. The default sheet is used when
// no sheet qualifier is present.
func ParseRange(input string, defaultSheet SheetID, ctx *Context) (SheetRange, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return SheetRange{}, parseErr(input, "empty")
	}

	sheet := defaultSheet
	rest := s
	if name, tail, ok := splitSheetQualifier(s); ok {
		id, found := ctx.SheetIDByName(name)
		if !found {
			return SheetRange{}, parseErr(input, "unknown sheet "+strconv.Quote(name))
		}
		sheet = id
		rest = tail
	}

	if table, ok, err := parseTableRef(rest); ok {
		if err != nil {
			return SheetRange{}, parseErr(input, err.Error())
		}
		if info, found := ctx.Table(table.Table); found {
			return SheetRange{Sheet: info.Sheet, Range: CellRefRange{Table: table}}, nil
		}
		return SheetRange{}, parseErr(input, "unknown table "+strconv.Quote(table.Table))
	}

	bounds, err := parseRangeBounds(rest)
	if err != nil {
		return SheetRange{}, parseErr(input, err.Error())
	}
	return SheetRange{Sheet: sheet, Range: CellRefRange{Bounds: bounds}}, nil
}

// ParseUnion parses comma-joined ranges.
func ParseUnion(input string, defaultSheet SheetID, ctx *Context) ([]SheetRange, error) {
	parts := SplitUnion(input)
	if len(parts) == 0 {
		return nil, parseErr(input, "empty")
	}
	out := make([]SheetRange, 0, len(parts))
	for _, part := range parts {
		r, err := ParseRange(part, defaultSheet, ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// SplitUnion splits on commas that are outside quotes and brackets.
func SplitUnion(input string) []string {
	var parts []string
	depth := 0
	inQuote := byte(0)
	start := 0
	for i := 0; i < len(input); i++ {
		ch := input[i]
		switch {
		case inQuote != 0:
			if ch == inQuote {
				inQuote = 0
			}
		case ch == '\'' || ch == '"':
			inQuote = ch
		case ch == '[':
			depth++
		case ch == ']':
			depth--
		case ch == ',' && depth == 0:
			parts = append(parts, strings.TrimSpace(input[start:i]))
			start = i + 1
		}
	}
	last := strings.TrimSpace(input[start:])
	if last != "" || len(parts) > 0 {
		parts = append(parts, last)
	}
	return parts
}

// splitSheetQualifier splits `Sheet1!A1` or `'My Sheet'!A1` into the
// sheet name and the remainder.
func splitSheetQualifier(s string) (name, rest string, ok bool) {
	if strings.HasPrefix(s, "'") {
		var out []byte
		i := 1
		for i < len(s) {
			if s[i] == '\'' {
				if i+1 < len(s) && s[i+1] == '\'' {
					out = append(out, '\'')
					i += 2
					continue
				}
				break
			}
			out = append(out, s[i])
			i++
		}
		if i >= len(s) || i+1 >= len(s) || s[i+1] != '!' {
			return "", "", false
		}
		return string(out), s[i+2:], true
	}
	// An unquoted sheet qualifier cannot contain brackets, so a `!`
	// after `[` belongs to something else.
	if idx := strings.IndexByte(s, '!'); idx > 0 && !strings.ContainsAny(s[:idx], "[]'\"") {
		return s[:idx], s[idx+1:], true
	}
	return "", "", false
}

// parseTableRef recognizes `Name`, `Name[col]`, `Name[[a]:[b]]` and
// `Name[[a]:]`. ok is false when the input is not table-shaped at all
// (no brackets); err is set when it is table-shaped but malformed.
func parseTableRef(s string) (*TableRef, bool, error) {
	open := strings.IndexByte(s, '[')
	if open < 0 {
		return nil, false, nil
	}
	name := strings.TrimSpace(s[:open])
	if name == "" || !strings.HasSuffix(s, "]") {
		return nil, true, fmt.Errorf("malformed table reference")
	}
	inner := s[open+1 : len(s)-1]
	ref := &TableRef{Table: name}
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return ref, true, nil
	}
	ref.HasCols = true
	if !strings.HasPrefix(inner, "[") {
		// Table1[col]
		ref.StartCol = inner
		return ref, true, nil
	}
	// Table1[[a]:[b]] or Table1[[a]:]
	first, rest, err := readBracketed(inner)
	if err != nil {
		return nil, true, err
	}
	ref.StartCol = first
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return ref, true, nil
	}
	if !strings.HasPrefix(rest, ":") {
		return nil, true, fmt.Errorf("malformed table column range")
	}
	rest = strings.TrimSpace(rest[1:])
	if rest == "" {
		ref.OpenEnd = true
		return ref, true, nil
	}
	second, tail, err := readBracketed(rest)
	if err != nil || strings.TrimSpace(tail) != "" {
		return nil, true, fmt.Errorf("malformed table column range")
	}
	ref.EndCol = second
	return ref, true, nil
}

func readBracketed(s string) (content, rest string, err error) {
	if !strings.HasPrefix(s, "[") {
		return "", "", fmt.Errorf("expected '['")
	}
	end := strings.IndexByte(s, ']')
	if end < 0 {
		return "", "", fmt.Errorf("unterminated '['")
	}
	return s[1:end], s[end+1:], nil
}

// endpoint is one parsed side of a range before assembly.
type endpoint struct {
	col    Coord
	row    Coord
	hasCol bool
	hasRow bool
}

func parseEndpoint(s string) (endpoint, error) {
	var ep endpoint
	i := 0
	colAbs := false
	if i < len(s) && s[i] == '$' {
		colAbs = true
		i++
	}
	letterStart := i
	for i < len(s) && isLetter(s[i]) {
		i++
	}
	if i > letterStart {
		col := ParseColumnLetters(s[letterStart:i])
		if col == 0 {
			return ep, fmt.Errorf("bad column %q", s[letterStart:i])
		}
		ep.col = Coord{V: col, Abs: colAbs}
		ep.hasCol = true
	} else if colAbs {
		// `$1` — the absolute marker belongs to the row.
		i = 0
	}
	rowAbs := false
	if i < len(s) && s[i] == '$' {
		rowAbs = true
		i++
	}
	digitStart := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > digitStart {
		row, err := strconv.ParseInt(s[digitStart:i], 10, 64)
		if err != nil || row < 1 {
			return ep, fmt.Errorf("bad row %q", s[digitStart:i])
		}
		ep.row = Coord{V: row, Abs: rowAbs}
		ep.hasRow = true
	} else if rowAbs && ep.hasCol {
		return ep, fmt.Errorf("dangling '$'")
	}
	if i != len(s) {
		return ep, fmt.Errorf("trailing %q", s[i:])
	}
	if !ep.hasCol && !ep.hasRow {
		return ep, fmt.Errorf("empty endpoint")
	}
	return ep, nil
}

func parseRangeBounds(s string) (*RefRangeBounds, error) {
	first := s
	second := ""
	hasColon := false
	if idx := strings.IndexByte(s, ':'); idx >= 0 {
		first = strings.TrimSpace(s[:idx])
		second = strings.TrimSpace(s[idx+1:])
		hasColon = true
	}
	a, err := parseEndpoint(first)
	if err != nil {
		return nil, err
	}
	if !hasColon {
		if !a.hasCol || !a.hasRow {
			// A bare column like `A` means the whole column.
			if a.hasCol {
				return columnSpan(a, a), nil
			}
			return nil, fmt.Errorf("incomplete reference")
		}
		cell := CellRef{Col: a.col, Row: a.row}
		return &RefRangeBounds{Start: cell, End: cell}, nil
	}
	b, err := parseEndpoint(second)
	if err != nil {
		return nil, err
	}
	switch {
	case a.hasCol && a.hasRow && b.hasCol && b.hasRow:
		return &RefRangeBounds{
			Start: CellRef{Col: a.col, Row: a.row},
			End:   CellRef{Col: b.col, Row: b.row},
		}, nil
	case a.hasCol && !a.hasRow && b.hasCol && !b.hasRow:
		return columnSpan(a, b), nil
	case !a.hasCol && a.hasRow && !b.hasCol && b.hasRow:
		return &RefRangeBounds{
			Start: CellRef{Col: Coord{V: 1}, Row: a.row},
			End:   CellRef{Col: Coord{V: Unbounded}, Row: b.row},
		}, nil
	case a.hasCol && a.hasRow && b.hasCol && !b.hasRow:
		// `A1:C` — from the cell down the columns, rows unbounded.
		return &RefRangeBounds{
			Start: CellRef{Col: a.col, Row: a.row},
			End:   CellRef{Col: b.col, Row: Coord{V: Unbounded}},
		}, nil
	default:
		return nil, fmt.Errorf("mismatched range endpoints")
	}
}

func columnSpan(a, b endpoint) *RefRangeBounds {
	return &RefRangeBounds{
		Start: CellRef{Col: a.col, Row: Coord{V: 1}},
		End:   CellRef{Col: b.col, Row: Coord{V: Unbounded}},
	}
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z'
}
