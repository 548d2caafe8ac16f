package a1

import (
	"fmt"
	"strings"
)

func (c Coord) colString() string {
	if c.Abs {
		return "$" + ColumnLetters(c.V)
	}
	return ColumnLetters(c.V)
}

func (c Coord) rowString() string {
	if c.Abs {
		return fmt.Sprintf("$%d", c.V)
	}
	return fmt.Sprintf("%d", c.V)
}

func (r CellRef) String() string {
	return r.Col.colString() + r.Row.rowString()
}

// A1String renders range bounds back to their textual form.
func (b RefRangeBounds) A1String() string {
	colSpan := b.Start.Row.V == 1 && !b.Start.Row.Abs && b.End.Row.IsUnbounded()
	rowSpan := b.Start.Col.V == 1 && !b.Start.Col.Abs && b.End.Col.IsUnbounded()
	switch {
	case colSpan && !rowSpan:
		return b.Start.Col.colString() + ":" + b.End.Col.colString()
	case rowSpan && !colSpan:
		return b.Start.Row.rowString() + ":" + b.End.Row.rowString()
	case b.IsSingleCell():
		return b.Start.String()
	case b.End.Row.IsUnbounded() && !b.End.Col.IsUnbounded():
		return b.Start.String() + ":" + b.End.Col.colString()
	default:
		return b.Start.String() + ":" + b.End.String()
	}
}

func (t *TableRef) A1String() string {
	if !t.HasCols {
		return t.Table
	}
	if t.EndCol == "" && !t.OpenEnd {
		return fmt.Sprintf("%s[%s]", t.Table, t.StartCol)
	}
	if t.OpenEnd {
		return fmt.Sprintf("%s[[%s]:]", t.Table, t.StartCol)
	}
	return fmt.Sprintf("%s[[%s]:[%s]]", t.Table, t.StartCol, t.EndCol)
}

// A1String renders the range, prefixing the sheet name whenever the
// range's sheet differs from the default. Sheet names containing
// anything beyond letters, digits and underscores are single-quoted.
func (sr SheetRange) A1String(defaultSheet SheetID, ctx *Context) string {
	var body string
	switch {
	case sr.Range.Table != nil:
		// Table names are globally resolvable; no sheet prefix.
		return sr.Range.Table.A1String()
	case sr.Range.Bounds != nil:
		body = sr.Range.Bounds.A1String()
	}
	if sr.Sheet == defaultSheet {
		return body
	}
	name, ok := ctx.SheetName(sr.Sheet)
	if !ok {
		return body
	}
	return QuoteSheetName(name) + "!" + body
}

// QuoteSheetName quotes a sheet name when needed for embedding in a
// reference string.
func QuoteSheetName(name string) string {
	if isPlainSheetName(name) {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func isPlainSheetName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		ch := name[i]
		ok := ch == '_' || isLetter(ch) || ch >= '0' && ch <= '9'
		if !ok {
			return false
		}
	}
	// A name that parses as a cell reference must be quoted.
	if ep, err := parseEndpoint(name); err == nil && ep.hasCol && ep.hasRow {
		return false
	}
	return true
}
