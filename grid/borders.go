package grid

import "tally/a1"

// BorderLine is the visual style of one border line.
type BorderLine string

const (
	BorderLine1  BorderLine = "line1"
	BorderLine2  BorderLine = "line2"
	BorderLine3  BorderLine = "line3"
	BorderDotted BorderLine = "dotted"
	BorderDashed BorderLine = "dashed"
	BorderDouble BorderLine = "double"
)

// BorderStyle pairs a line style with a color.
type BorderStyle struct {
	Color string     `json:"color"`
	Line  BorderLine `json:"line"`
}

// CellBorders is the per-cell record of the four sides.
type CellBorders struct {
	Left   *BorderStyle `json:"left,omitempty"`
	Top    *BorderStyle `json:"top,omitempty"`
	Right  *BorderStyle `json:"right,omitempty"`
	Bottom *BorderStyle `json:"bottom,omitempty"`
}

func (b *CellBorders) isEmpty() bool {
	return b.Left == nil && b.Top == nil && b.Right == nil && b.Bottom == nil
}

// BorderSelection names which lines of a rectangle receive a style.
type BorderSelection string

const (
	BorderAll        BorderSelection = "all"
	BorderInner      BorderSelection = "inner"
	BorderOuter      BorderSelection = "outer"
	BorderHorizontal BorderSelection = "horizontal"
	BorderVertical   BorderSelection = "vertical"
	BorderLeft       BorderSelection = "left"
	BorderTop        BorderSelection = "top"
	BorderRight      BorderSelection = "right"
	BorderBottom     BorderSelection = "bottom"
	BorderClear      BorderSelection = "clear"
)

// Borders keeps the two parallel stores: per-cell sides for editing
// semantics and grid-space line lookups for fast render queries.
// Vertical lines are indexed by the x of the boundary they sit on
// (left edge of column x), horizontal lines by boundary y.
type Borders struct {
	Cells      map[a1.Pos]*CellBorders         `json:"-"`
	Vertical   map[int64]map[int64]BorderStyle `json:"-"` // x -> y -> style
	Horizontal map[int64]map[int64]BorderStyle `json:"-"` // y -> x -> style
}

func NewBorders() *Borders {
	return &Borders{
		Cells:      make(map[a1.Pos]*CellBorders),
		Vertical:   make(map[int64]map[int64]BorderStyle),
		Horizontal: make(map[int64]map[int64]BorderStyle),
	}
}

func (b *Borders) cell(pos a1.Pos) *CellBorders {
	if c, ok := b.Cells[pos]; ok {
		return c
	}
	c := &CellBorders{}
	b.Cells[pos] = c
	return c
}

func (b *Borders) compact(pos a1.Pos) {
	if c, ok := b.Cells[pos]; ok && c.isEmpty() {
		delete(b.Cells, pos)
	}
}

func (b *Borders) setLine(store map[int64]map[int64]BorderStyle, major, minor int64, style *BorderStyle) {
	if style == nil {
		if row, ok := store[major]; ok {
			delete(row, minor)
			if len(row) == 0 {
				delete(store, major)
			}
		}
		return
	}
	row, ok := store[major]
	if !ok {
		row = make(map[int64]BorderStyle)
		store[major] = row
	}
	row[minor] = *style
}

// setVertical styles the vertical boundary at x spanning cell row y.
// Both adjacent cells record the side so editing either stays
// coherent.
func (b *Borders) setVertical(x, y int64, style *BorderStyle) {
	b.setLine(b.Vertical, x, y, style)
	right := b.cell(a1.Pos{X: x, Y: y})
	right.Left = style
	b.compact(a1.Pos{X: x, Y: y})
	if x > 1 {
		left := b.cell(a1.Pos{X: x - 1, Y: y})
		left.Right = style
		b.compact(a1.Pos{X: x - 1, Y: y})
	}
}

func (b *Borders) setHorizontal(x, y int64, style *BorderStyle) {
	b.setLine(b.Horizontal, y, x, style)
	below := b.cell(a1.Pos{X: x, Y: y})
	below.Top = style
	b.compact(a1.Pos{X: x, Y: y})
	if y > 1 {
		above := b.cell(a1.Pos{X: x, Y: y - 1})
		above.Bottom = style
		b.compact(a1.Pos{X: x, Y: y - 1})
	}
}

// Get returns the merged borders of one cell.
func (b *Borders) Get(pos a1.Pos) CellBorders {
	if c, ok := b.Cells[pos]; ok {
		return *c
	}
	return CellBorders{}
}

// VerticalAt returns the style of the vertical line at boundary x,
// cell row y.
func (b *Borders) VerticalAt(x, y int64) (BorderStyle, bool) {
	row, ok := b.Vertical[x]
	if !ok {
		return BorderStyle{}, false
	}
	style, ok := row[y]
	return style, ok
}

// HorizontalAt returns the style of the horizontal line at boundary
// y, cell column x.
func (b *Borders) HorizontalAt(x, y int64) (BorderStyle, bool) {
	row, ok := b.Horizontal[y]
	if !ok {
		return BorderStyle{}, false
	}
	style, ok := row[x]
	return style, ok
}

// Apply styles the lines of rect selected by sel. A nil style erases;
// BorderClear erases everything the rectangle touches.
func (b *Borders) Apply(rect a1.Rect, sel BorderSelection, style *BorderStyle) {
	if sel == BorderClear {
		b.applyVertical(rect.Min.X, rect.Max.X+1, rect, nil)
		b.applyHorizontal(rect.Min.Y, rect.Max.Y+1, rect, nil)
		return
	}
	switch sel {
	case BorderAll:
		b.applyVertical(rect.Min.X, rect.Max.X+1, rect, style)
		b.applyHorizontal(rect.Min.Y, rect.Max.Y+1, rect, style)
	case BorderInner:
		b.applyVertical(rect.Min.X+1, rect.Max.X, rect, style)
		b.applyHorizontal(rect.Min.Y+1, rect.Max.Y, rect, style)
	case BorderOuter:
		b.applyVertical(rect.Min.X, rect.Min.X, rect, style)
		b.applyVertical(rect.Max.X+1, rect.Max.X+1, rect, style)
		b.applyHorizontal(rect.Min.Y, rect.Min.Y, rect, style)
		b.applyHorizontal(rect.Max.Y+1, rect.Max.Y+1, rect, style)
	case BorderHorizontal:
		b.applyHorizontal(rect.Min.Y+1, rect.Max.Y, rect, style)
	case BorderVertical:
		b.applyVertical(rect.Min.X+1, rect.Max.X, rect, style)
	case BorderLeft:
		b.applyVertical(rect.Min.X, rect.Min.X, rect, style)
	case BorderRight:
		b.applyVertical(rect.Max.X+1, rect.Max.X+1, rect, style)
	case BorderTop:
		b.applyHorizontal(rect.Min.Y, rect.Min.Y, rect, style)
	case BorderBottom:
		b.applyHorizontal(rect.Max.Y+1, rect.Max.Y+1, rect, style)
	}
}

func (b *Borders) applyVertical(fromX, toX int64, rect a1.Rect, style *BorderStyle) {
	for x := fromX; x <= toX; x++ {
		for y := rect.Min.Y; y <= rect.Max.Y; y++ {
			b.setVertical(x, y, style)
		}
	}
}

func (b *Borders) applyHorizontal(fromY, toY int64, rect a1.Rect, style *BorderStyle) {
	for y := fromY; y <= toY; y++ {
		for x := rect.Min.X; x <= rect.Max.X; x++ {
			b.setHorizontal(x, y, style)
		}
	}
}

// Snapshot copies the state touched by rect so an operation can be
// reversed; Restore puts it back.
type BorderSnapshot struct {
	Rect  a1.Rect
	Cells map[a1.Pos]CellBorders
}

func (b *Borders) Snapshot(rect a1.Rect) BorderSnapshot {
	// One cell of margin: applying to rect touches neighbor sides.
	expanded := a1.Rect{
		Min: a1.Pos{X: rect.Min.X - 1, Y: rect.Min.Y - 1},
		Max: a1.Pos{X: rect.Max.X + 1, Y: rect.Max.Y + 1},
	}
	snap := BorderSnapshot{Rect: expanded, Cells: make(map[a1.Pos]CellBorders)}
	for pos, c := range b.Cells {
		if expanded.Contains(pos) {
			snap.Cells[pos] = *c
		}
	}
	return snap
}

func (b *Borders) Restore(snap BorderSnapshot) {
	for pos := range b.Cells {
		if snap.Rect.Contains(pos) {
			delete(b.Cells, pos)
		}
	}
	for pos, c := range snap.Cells {
		copied := c
		b.Cells[pos] = &copied
	}
	b.rebuildLines(snap.Rect)
}

// rebuildLines regenerates the grid-space stores for a region from
// the per-cell store.
func (b *Borders) rebuildLines(rect a1.Rect) {
	for x := rect.Min.X; x <= rect.Max.X+1; x++ {
		for y := rect.Min.Y; y <= rect.Max.Y; y++ {
			b.setLine(b.Vertical, x, y, nil)
		}
	}
	for y := rect.Min.Y; y <= rect.Max.Y+1; y++ {
		for x := rect.Min.X; x <= rect.Max.X; x++ {
			b.setLine(b.Horizontal, y, x, nil)
		}
	}
	for pos, c := range b.Cells {
		if !rect.Contains(pos) {
			continue
		}
		if c.Left != nil {
			b.setLine(b.Vertical, pos.X, pos.Y, c.Left)
		}
		if c.Right != nil {
			b.setLine(b.Vertical, pos.X+1, pos.Y, c.Right)
		}
		if c.Top != nil {
			b.setLine(b.Horizontal, pos.Y, pos.X, c.Top)
		}
		if c.Bottom != nil {
			b.setLine(b.Horizontal, pos.Y+1, pos.X, c.Bottom)
		}
	}
}
