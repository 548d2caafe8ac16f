package a1

import "math"

// Unbounded marks a coordinate with no bound, as in `A:A` (rows
// unbounded) or `3:3` (columns unbounded).
const Unbounded int64 = math.MaxInt64

// Coord is one axis of a reference endpoint: a 1-based coordinate plus
// whether the reference is absolute (`$A$1`) on that axis.
type Coord struct {
	V   int64 `json:"v"`
	Abs bool  `json:"abs,omitempty"`
}

func (c Coord) IsUnbounded() bool { return c.V == Unbounded }

// CellRef is one endpoint of a range: a column coordinate and a row
// coordinate, either of which may be unbounded.
type CellRef struct {
	Col Coord `json:"col"`
	Row Coord `json:"row"`
}

func RelCell(x, y int64) CellRef {
	return CellRef{Col: Coord{V: x}, Row: Coord{V: y}}
}

// RefRangeBounds is a rectangular (possibly unbounded) range between
// two endpoints.
type RefRangeBounds struct {
	Start CellRef `json:"start"`
	End   CellRef `json:"end"`
}

func (b RefRangeBounds) IsSingleCell() bool {
	return b.Start == b.End && !b.Start.Col.IsUnbounded() && !b.Start.Row.IsUnbounded()
}

// ToRect converts bounded coordinates into a rectangle, clamping
// unbounded edges to the given limits.
func (b RefRangeBounds) ToRect(maxX, maxY int64) Rect {
	r := Rect{
		Min: Pos{X: b.Start.Col.V, Y: b.Start.Row.V},
		Max: Pos{X: b.End.Col.V, Y: b.End.Row.V},
	}
	if b.Start.Col.IsUnbounded() {
		r.Min.X = 1
	}
	if b.Start.Row.IsUnbounded() {
		r.Min.Y = 1
	}
	if b.End.Col.IsUnbounded() {
		r.Max.X = maxX
	}
	if b.End.Row.IsUnbounded() {
		r.Max.Y = maxY
	}
	return NewRect(r.Min, r.Max)
}

// TableRef names a table and optionally a column or column range
// inside it: `Table1`, `Table1[col]`, `Table1[[a]:[b]]`, `Table1[[a]:]`.
type TableRef struct {
	Table    string `json:"table"`
	StartCol string `json:"start_col,omitempty"`
	EndCol   string `json:"end_col,omitempty"`
	HasCols  bool   `json:"has_cols,omitempty"`
	OpenEnd  bool   `json:"open_end,omitempty"` // `[[a]:]` — from a to the last column
}

// CellRefRange is either plain range bounds or a table reference.
// Exactly one of the two fields is set.
type CellRefRange struct {
	Bounds *RefRangeBounds `json:"bounds,omitempty"`
	Table  *TableRef       `json:"table,omitempty"`
}

// SheetRange is a range qualified by the sheet it refers to. This is
// the unit stored in cells_accessed sets.
type SheetRange struct {
	Sheet SheetID      `json:"sheet_id"`
	Range CellRefRange `json:"range"`
}

// ToSheetRect resolves the range against the context. Unbounded edges
// are clamped to the sheet bounds recorded in the context; table
// references resolve through the table registry. Returns false when a
// named table does not exist.
func (sr SheetRange) ToSheetRect(ctx *Context) (SheetRect, bool) {
	if sr.Range.Table != nil {
		rect, ok := ctx.TableRect(sr.Range.Table)
		if !ok {
			return SheetRect{}, false
		}
		info, _ := ctx.Table(sr.Range.Table.Table)
		return SheetRect{Sheet: info.Sheet, Rect: rect}, true
	}
	maxX, maxY := ctx.SheetBounds(sr.Sheet)
	return SheetRect{Sheet: sr.Sheet, Rect: sr.Range.Bounds.ToRect(maxX, maxY)}, true
}

// Intersects reports whether the range touches the given rectangle.
// Unbounded coordinates intersect everything on their axis.
func (sr SheetRange) Intersects(ctx *Context, target SheetRect) bool {
	rect, ok := sr.ToSheetRect(ctx)
	if !ok {
		return false
	}
	return rect.Sheet == target.Sheet && rect.Rect.Intersects(target.Rect)
}

// RangeSet is an ordered set of sheet ranges; it backs cells_accessed.
type RangeSet struct {
	Ranges []SheetRange `json:"ranges"`
}

func (s *RangeSet) Add(r SheetRange) {
	for _, have := range s.Ranges {
		if rangesEqual(have, r) {
			return
		}
	}
	s.Ranges = append(s.Ranges, r)
}

func (s *RangeSet) Clear() {
	s.Ranges = nil
}

func (s *RangeSet) Intersects(ctx *Context, target SheetRect) bool {
	for _, r := range s.Ranges {
		if r.Intersects(ctx, target) {
			return true
		}
	}
	return false
}

func rangesEqual(a, b SheetRange) bool {
	if a.Sheet != b.Sheet {
		return false
	}
	switch {
	case a.Range.Bounds != nil && b.Range.Bounds != nil:
		return *a.Range.Bounds == *b.Range.Bounds
	case a.Range.Table != nil && b.Range.Table != nil:
		return *a.Range.Table == *b.Range.Table
	}
	return false
}
