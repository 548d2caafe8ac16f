package a1

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SheetID is the stable opaque identifier of a sheet. The user-visible
// name can change; the id never does.
type SheetID string

func NewSheetID() SheetID {
	return SheetID(uuid.NewString())
}

// Pos is a cell position. Columns and rows are 1-based.
type Pos struct {
	X int64 `json:"x"`
	Y int64 `json:"y"`
}

func (p Pos) String() string {
	return ColumnLetters(p.X) + fmt.Sprintf("%d", p.Y)
}

func (p Pos) Translate(dx, dy int64) Pos {
	return Pos{X: p.X + dx, Y: p.Y + dy}
}

// SheetPos is a position qualified by the sheet it lives on.
type SheetPos struct {
	Sheet SheetID `json:"sheet_id"`
	Pos   Pos     `json:"pos"`
}

func (sp SheetPos) String() string {
	return fmt.Sprintf("%s!%s", sp.Sheet, sp.Pos)
}

// Rect is an inclusive rectangle of cells.
type Rect struct {
	Min Pos `json:"min"`
	Max Pos `json:"max"`
}

// NewRect normalizes the two corners into a rectangle.
func NewRect(a, b Pos) Rect {
	r := Rect{Min: a, Max: b}
	if r.Min.X > r.Max.X {
		r.Min.X, r.Max.X = r.Max.X, r.Min.X
	}
	if r.Min.Y > r.Max.Y {
		r.Min.Y, r.Max.Y = r.Max.Y, r.Min.Y
	}
	return r
}

func NewRectSpan(pos Pos, w, h int64) Rect {
	return Rect{Min: pos, Max: Pos{X: pos.X + w - 1, Y: pos.Y + h - 1}}
}

func SingleRect(pos Pos) Rect {
	return Rect{Min: pos, Max: pos}
}

func (r Rect) Width() int64  { return r.Max.X - r.Min.X + 1 }
func (r Rect) Height() int64 { return r.Max.Y - r.Min.Y + 1 }

func (r Rect) Contains(p Pos) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

func (r Rect) Intersects(o Rect) bool {
	return r.Min.X <= o.Max.X && r.Max.X >= o.Min.X && r.Min.Y <= o.Max.Y && r.Max.Y >= o.Min.Y
}

func (r Rect) Union(o Rect) Rect {
	u := r
	if o.Min.X < u.Min.X {
		u.Min.X = o.Min.X
	}
	if o.Min.Y < u.Min.Y {
		u.Min.Y = o.Min.Y
	}
	if o.Max.X > u.Max.X {
		u.Max.X = o.Max.X
	}
	if o.Max.Y > u.Max.Y {
		u.Max.Y = o.Max.Y
	}
	return u
}

func (r Rect) String() string {
	if r.Min == r.Max {
		return r.Min.String()
	}
	return r.Min.String() + ":" + r.Max.String()
}

// SheetRect is a rectangle qualified by a sheet.
type SheetRect struct {
	Sheet SheetID `json:"sheet_id"`
	Rect  Rect    `json:"rect"`
}

func (sr SheetRect) Contains(sp SheetPos) bool {
	return sr.Sheet == sp.Sheet && sr.Rect.Contains(sp.Pos)
}

// ColumnLetters converts a 1-based column index to its letter form
// (1 -> A, 26 -> Z, 27 -> AA).
func ColumnLetters(col int64) string {
	var out []byte
	for col > 0 {
		col--
		out = append([]byte{byte('A' + col%26)}, out...)
		col /= 26
	}
	return string(out)
}

// ParseColumnLetters converts letters to a 1-based column index.
// Returns 0 when the input is not purely alphabetic.
func ParseColumnLetters(s string) int64 {
	if s == "" {
		return 0
	}
	var col int64
	for _, r := range strings.ToUpper(s) {
		if r < 'A' || r > 'Z' {
			return 0
		}
		col = col*26 + int64(r-'A'+1)
		if col > 16384*26 {
			return 0
		}
	}
	return col
}
