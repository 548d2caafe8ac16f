package controller

import (
	"strings"

	"github.com/shopspring/decimal"

	"tally/a1"
	"tally/grid"
)

// applyAutocomplete expands the filled Selection rectangle into Range
// (and clears excised cells when Range is smaller). The generated
// operations run inside the current transaction, so a fill is a
// single undo step.
func (c *GridController) applyAutocomplete(t *Transaction, o Autocomplete) {
	for _, op := range c.autocompleteOps(o) {
		c.applyOp(t, op)
	}
}

// autocompleteOps synthesizes the fill: horizontal strips first (left
// then right), then vertical strips over the full post-expansion
// band, then shrink clears.
func (c *GridController) autocompleteOps(o Autocomplete) []Operation {
	sheet := c.mustSheet(o.Sheet)
	sel, target := o.Selection, o.Range
	var ops []Operation

	// Staged values let the vertical pass read horizontally filled
	// cells before the ops have been applied.
	staged := make(map[a1.Pos]grid.CellValue)
	stagedFormats := make(map[a1.Pos]*grid.Format)
	valueAt := func(pos a1.Pos) grid.CellValue {
		if v, ok := staged[pos]; ok {
			return v
		}
		return sheet.CellValueAt(pos)
	}
	formatAt := func(pos a1.Pos) *grid.Format {
		if f, ok := stagedFormats[pos]; ok {
			return f
		}
		return sheet.CellFormatAt(pos)
	}

	formatOps := make(map[a1.Pos]*grid.Format)
	place := func(targetPos, sourcePos a1.Pos, v grid.CellValue, f *grid.Format) {
		if code, isCode := v.(*grid.Code); isCode {
			adjusted := c.translateCode(o.Sheet, code, targetPos.X-sourcePos.X, targetPos.Y-sourcePos.Y)
			ops = append(ops, ComputeCodeCell{
				SheetPos: a1.SheetPos{Sheet: o.Sheet, Pos: targetPos},
				Code:     adjusted,
			})
			staged[targetPos] = adjusted
		} else {
			ops = append(ops, SetCellValue{
				SheetPos: a1.SheetPos{Sheet: o.Sheet, Pos: targetPos},
				Value:    v,
			})
			staged[targetPos] = v
		}
		formatOps[targetPos] = f.Clone()
		stagedFormats[targetPos] = f
	}

	// The horizontal band spans the target's columns after expansion.
	bandMinX, bandMaxX := sel.Min.X, sel.Max.X
	if target.Min.X < bandMinX {
		bandMinX = target.Min.X
	}
	if target.Max.X > bandMaxX {
		bandMaxX = target.Max.X
	}

	// Left and right expansion, one source row at a time.
	for y := sel.Min.Y; y <= sel.Max.Y; y++ {
		row := make([]grid.CellValue, 0, sel.Width())
		rowFormats := make([]*grid.Format, 0, sel.Width())
		rowPos := make([]a1.Pos, 0, sel.Width())
		for x := sel.Min.X; x <= sel.Max.X; x++ {
			pos := a1.Pos{X: x, Y: y}
			row = append(row, valueAt(pos))
			rowFormats = append(rowFormats, formatAt(pos))
			rowPos = append(rowPos, pos)
		}
		if target.Min.X < sel.Min.X {
			series := buildSeries(reversed(row))
			for n := int64(1); sel.Min.X-n >= target.Min.X; n++ {
				srcIdx := int((n - 1) % int64(len(row)))
				place(a1.Pos{X: sel.Min.X - n, Y: y}, rowPos[len(rowPos)-1-srcIdx],
					series(n), rowFormats[len(rowFormats)-1-srcIdx])
			}
		}
		if target.Max.X > sel.Max.X {
			series := buildSeries(row)
			for n := int64(1); sel.Max.X+n <= target.Max.X; n++ {
				srcIdx := int((n - 1) % int64(len(row)))
				place(a1.Pos{X: sel.Max.X + n, Y: y}, rowPos[srcIdx],
					series(n), rowFormats[srcIdx])
			}
		}
	}

	// Up and down expansion over the whole band, so corner cells come
	// from vertical repetition of already-extended rows.
	for x := bandMinX; x <= bandMaxX; x++ {
		column := make([]grid.CellValue, 0, sel.Height())
		columnFormats := make([]*grid.Format, 0, sel.Height())
		columnPos := make([]a1.Pos, 0, sel.Height())
		for y := sel.Min.Y; y <= sel.Max.Y; y++ {
			pos := a1.Pos{X: x, Y: y}
			column = append(column, valueAt(pos))
			columnFormats = append(columnFormats, formatAt(pos))
			columnPos = append(columnPos, pos)
		}
		if target.Min.Y < sel.Min.Y {
			series := buildSeries(reversed(column))
			for n := int64(1); sel.Min.Y-n >= target.Min.Y; n++ {
				srcIdx := int((n - 1) % int64(len(column)))
				place(a1.Pos{X: x, Y: sel.Min.Y - n}, columnPos[len(columnPos)-1-srcIdx],
					series(n), columnFormats[len(columnFormats)-1-srcIdx])
			}
		}
		if target.Max.Y > sel.Max.Y {
			series := buildSeries(column)
			for n := int64(1); sel.Max.Y+n <= target.Max.Y; n++ {
				srcIdx := int((n - 1) % int64(len(column)))
				place(a1.Pos{X: x, Y: sel.Max.Y + n}, columnPos[srcIdx],
					series(n), columnFormats[srcIdx])
			}
		}
	}

	// Shrink: clear cells of the selection outside the target.
	clearFormats := make(map[a1.Pos]*grid.Format)
	for y := sel.Min.Y; y <= sel.Max.Y; y++ {
		for x := sel.Min.X; x <= sel.Max.X; x++ {
			pos := a1.Pos{X: x, Y: y}
			if target.Contains(pos) {
				continue
			}
			ops = append(ops, SetCellValue{
				SheetPos: a1.SheetPos{Sheet: o.Sheet, Pos: pos},
				Value:    grid.BlankValue,
			})
			clearFormats[pos] = nil
		}
	}
	if len(clearFormats) > 0 {
		ops = append(ops, ReplaceCellFormats{Sheet: o.Sheet, Formats: clearFormats})
	}
	if len(formatOps) > 0 {
		ops = append(ops, ReplaceCellFormats{Sheet: o.Sheet, Formats: formatOps})
	}
	return ops
}

// translateCode shifts relative references of a copied code cell.
func (c *GridController) translateCode(sheet a1.SheetID, code *grid.Code, dx, dy int64) *grid.Code {
	adj := a1.NewTranslate(dx, dy)
	switch {
	case code.Lang == grid.LangFormula:
		if out, changed := adjustFormulaSource(code.Source, sheet, c.grid.Ctx, adj); changed {
			return &grid.Code{Lang: code.Lang, Source: out}
		}
	case code.Lang.HasQCells():
		out := a1.RewriteQCells(code.Source, sheet, c.grid.Ctx, func(ref a1.SheetRange) (string, bool) {
			adjusted, err := ref.Adjust(adj)
			if err != nil {
				return "#REF!", true
			}
			return adjusted.A1String(sheet, c.grid.Ctx), true
		})
		return &grid.Code{Lang: code.Lang, Source: out}
	case code.Lang.HasHandlebars():
		out := a1.RewriteHandlebars(code.Source, sheet, c.grid.Ctx, func(ref a1.SheetRange) (string, bool) {
			adjusted, err := ref.Adjust(adj)
			if err != nil {
				return "#REF!", true
			}
			return adjusted.A1String(sheet, c.grid.Ctx), true
		})
		return &grid.Code{Lang: code.Lang, Source: out}
	}
	return &grid.Code{Lang: code.Lang, Source: code.Source}
}

// series extrapolates a source strip: n is the 1-based distance past
// its end.
type series func(n int64) grid.CellValue

// buildSeries tries, in order: arithmetic progression, named
// sequences (weekday and month names), geometric progression, and
// finally cyclic repetition of the source.
func buildSeries(cells []grid.CellValue) series {
	if s := arithmeticSeries(cells); s != nil {
		return s
	}
	if s := namedSeries(cells); s != nil {
		return s
	}
	if s := geometricSeries(cells); s != nil {
		return s
	}
	return func(n int64) grid.CellValue {
		return cells[(n-1)%int64(len(cells))]
	}
}

func reversed(cells []grid.CellValue) []grid.CellValue {
	out := make([]grid.CellValue, len(cells))
	for i, v := range cells {
		out[len(cells)-1-i] = v
	}
	return out
}

func arithmeticSeries(cells []grid.CellValue) series {
	if len(cells) < 2 {
		return nil
	}
	nums := make([]decimal.Decimal, len(cells))
	for i, cell := range cells {
		n, ok := cell.(*grid.Number)
		if !ok {
			return nil
		}
		nums[i] = n.Value
	}
	step := nums[1].Sub(nums[0])
	for i := 2; i < len(nums); i++ {
		if !nums[i].Sub(nums[i-1]).Equal(step) {
			return nil
		}
	}
	last := nums[len(nums)-1]
	return func(n int64) grid.CellValue {
		return grid.NewNumber(last.Add(step.Mul(decimal.NewFromInt(n))))
	}
}

func geometricSeries(cells []grid.CellValue) series {
	if len(cells) < 2 {
		return nil
	}
	nums := make([]decimal.Decimal, len(cells))
	for i, cell := range cells {
		n, ok := cell.(*grid.Number)
		if !ok || n.Value.IsZero() {
			return nil
		}
		nums[i] = n.Value
	}
	ratio := nums[1].Div(nums[0])
	for i := 2; i < len(nums); i++ {
		if !nums[i].Div(nums[i-1]).Equal(ratio) {
			return nil
		}
	}
	last := nums[len(nums)-1]
	return func(n int64) grid.CellValue {
		v := last
		for i := int64(0); i < n; i++ {
			v = v.Mul(ratio)
		}
		return grid.NewNumber(v)
	}
}

var namedSequences = [][]string{
	{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"},
	{"sun", "mon", "tue", "wed", "thu", "fri", "sat"},
	{"january", "february", "march", "april", "may", "june", "july",
		"august", "september", "october", "november", "december"},
	{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"},
}

// namedSeries matches a run of consecutive entries of one named
// sequence and extends it cyclically, preserving the capitalization
// style of the source.
func namedSeries(cells []grid.CellValue) series {
	texts := make([]string, len(cells))
	for i, cell := range cells {
		t, ok := cell.(*grid.Text)
		if !ok {
			return nil
		}
		texts[i] = t.Value
	}
	for _, seq := range namedSequences {
		start := indexIn(seq, texts[0])
		if start < 0 {
			continue
		}
		matched := true
		for i := 1; i < len(texts); i++ {
			if indexIn(seq, texts[i]) != (start+i)%len(seq) {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}
		style := caseStyleOf(texts[0])
		last := start + len(texts) - 1
		seqCopy := seq
		return func(n int64) grid.CellValue {
			word := seqCopy[(int64(last)+n)%int64(len(seqCopy))]
			return &grid.Text{Value: applyCaseStyle(word, style)}
		}
	}
	return nil
}

func indexIn(seq []string, word string) int {
	lower := strings.ToLower(word)
	for i, have := range seq {
		if have == lower {
			return i
		}
	}
	return -1
}

type caseStyle int

const (
	caseLower caseStyle = iota
	caseUpper
	caseTitle
)

func caseStyleOf(word string) caseStyle {
	switch {
	case word == strings.ToUpper(word) && word != strings.ToLower(word):
		return caseUpper
	case len(word) > 0 && strings.ToUpper(word[:1]) == word[:1]:
		return caseTitle
	default:
		return caseLower
	}
}

func applyCaseStyle(word string, style caseStyle) string {
	switch style {
	case caseUpper:
		return strings.ToUpper(word)
	case caseTitle:
		return strings.ToUpper(word[:1]) + word[1:]
	default:
		return word
	}
}
