package grid

import (
	"fmt"
	"sort"
	"strings"

	"tally/a1"
)

// Sheet owns one grid of cells: sparse columns of literals, computed
// tables keyed by anchor, borders, formats, validations, row sizes,
// merged cells, and cached render bounds.
type Sheet struct {
	ID   a1.SheetID
	Name string

	Columns map[int64]*Column
	Tables  map[a1.Pos]*DataTable

	Borders     *Borders
	Validations *Validations

	// Format layers: per-sheet default, per-column, per-row. Per-cell
	// formats live on the columns.
	SheetFormat   *Format
	ColumnFormats map[int64]*Format
	RowFormats    map[int64]*Format

	RowSizes map[int64]float64
	Merged   []a1.Rect

	boundsDirty  bool
	cachedBounds a1.Rect
	hasBounds    bool
}

func NewSheet(id a1.SheetID, name string) *Sheet {
	return &Sheet{
		ID:            id,
		Name:          name,
		Columns:       make(map[int64]*Column),
		Tables:        make(map[a1.Pos]*DataTable),
		Borders:       NewBorders(),
		Validations:   NewValidations(),
		ColumnFormats: make(map[int64]*Format),
		RowFormats:    make(map[int64]*Format),
		RowSizes:      make(map[int64]float64),
		boundsDirty:   true,
	}
}

// column returns the column store for x, creating it on demand.
func (s *Sheet) column(x int64) *Column {
	col, ok := s.Columns[x]
	if !ok {
		col = NewColumn()
		s.Columns[x] = col
	}
	return col
}

func (s *Sheet) compactColumn(x int64) {
	if col, ok := s.Columns[x]; ok && col.IsEmpty() {
		delete(s.Columns, x)
	}
}

// SetCellValue stores a literal, returning the previous literal.
func (s *Sheet) SetCellValue(pos a1.Pos, v CellValue) CellValue {
	col := s.column(pos.X)
	old := col.Set(pos.Y, v)
	s.compactColumn(pos.X)
	s.boundsDirty = true
	return old
}

// CellValueAt returns the stored literal (not the displayed value).
func (s *Sheet) CellValueAt(pos a1.Pos) CellValue {
	if col, ok := s.Columns[pos.X]; ok {
		return col.Get(pos.Y)
	}
	return BlankValue
}

// TableAt returns the table whose footprint covers pos, if any.
// Non-spilled tables win; a table in spill error only claims its own
// anchor, and only when no healthy table covers it.
func (s *Sheet) TableAt(pos a1.Pos) (a1.Pos, *DataTable, bool) {
	for anchor, table := range s.Tables {
		if !table.SpillError && table.Footprint(anchor).Contains(pos) {
			return anchor, table, true
		}
	}
	if table, ok := s.Tables[pos]; ok && table.SpillError {
		return pos, table, true
	}
	return a1.Pos{}, nil, false
}

// DisplayValue resolves what a position shows: a computed table's
// output wins over literals, unless the table is in spill error.
func (s *Sheet) DisplayValue(pos a1.Pos) CellValue {
	if anchor, table, ok := s.TableAt(pos); ok {
		if table.SpillError {
			if anchor == pos {
				return NewError(ErrSpill)
			}
			return s.CellValueAt(pos)
		}
		return table.ValueAt(pos.X-anchor.X, pos.Y-anchor.Y)
	}
	v := s.CellValueAt(pos)
	// A code anchor without a table yet displays as blank.
	if _, isCode := v.(*Code); isCode {
		return BlankValue
	}
	return v
}

// SetTable installs (or with nil, removes) the table at an anchor,
// returning the previous table.
func (s *Sheet) SetTable(anchor a1.Pos, table *DataTable) *DataTable {
	old := s.Tables[anchor]
	if table == nil {
		delete(s.Tables, anchor)
	} else {
		s.Tables[anchor] = table
	}
	s.boundsDirty = true
	return old
}

// CheckSpills recomputes spill errors: a table spills when its
// footprint overlaps an earlier table's footprint or a literal cell
// (other than its own anchor). Earlier means an older LastModified.
func (s *Sheet) CheckSpills() {
	anchors := s.tableAnchors()
	for _, anchor := range anchors {
		table := s.Tables[anchor]
		table.SpillError = s.wouldSpill(anchor, table)
	}
}

func (s *Sheet) wouldSpill(anchor a1.Pos, table *DataTable) bool {
	footprint := table.Footprint(anchor)
	if footprint.Width() == 1 && footprint.Height() == 1 {
		return false
	}
	for otherAnchor, other := range s.Tables {
		if otherAnchor == anchor {
			continue
		}
		otherRect := other.Footprint(otherAnchor)
		if !footprint.Intersects(otherRect) {
			continue
		}
		// The later table takes the spill error.
		if !other.LastModified.After(table.LastModified) {
			return true
		}
	}
	for y := footprint.Min.Y; y <= footprint.Max.Y; y++ {
		for x := footprint.Min.X; x <= footprint.Max.X; x++ {
			pos := a1.Pos{X: x, Y: y}
			if pos == anchor {
				continue
			}
			if !IsBlank(s.CellValueAt(pos)) {
				return true
			}
		}
	}
	return false
}

func (s *Sheet) tableAnchors() []a1.Pos {
	anchors := make([]a1.Pos, 0, len(s.Tables))
	for anchor := range s.Tables {
		anchors = append(anchors, anchor)
	}
	sort.Slice(anchors, func(i, j int) bool {
		if anchors[i].Y != anchors[j].Y {
			return anchors[i].Y < anchors[j].Y
		}
		return anchors[i].X < anchors[j].X
	})
	return anchors
}

// TableByName finds a table by its per-sheet unique name.
func (s *Sheet) TableByName(name string) (a1.Pos, *DataTable, bool) {
	for anchor, table := range s.Tables {
		if strings.EqualFold(table.Name, name) {
			return anchor, table, true
		}
	}
	return a1.Pos{}, nil, false
}

// UniqueTableName derives an unused table name from a base.
func (s *Sheet) UniqueTableName(base string) string {
	if base == "" {
		base = "Table"
	}
	if _, _, taken := s.TableByName(base); !taken {
		return base
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s%d", base, i)
		if _, _, taken := s.TableByName(candidate); !taken {
			return candidate
		}
	}
}

// FormatAt merges the sheet, column, row and cell format layers.
func (s *Sheet) FormatAt(pos a1.Pos) Format {
	var cell *Format
	if col, ok := s.Columns[pos.X]; ok {
		cell = col.Formats[pos.Y]
	}
	return MergeFormats(s.SheetFormat, s.ColumnFormats[pos.X], s.RowFormats[pos.Y], cell)
}

// ApplyCellFormat patches one cell's format and returns the previous
// values of the fields it set (see Format.Apply).
func (s *Sheet) ApplyCellFormat(pos a1.Pos, update *Format) *Format {
	col := s.column(pos.X)
	f, ok := col.Formats[pos.Y]
	if !ok {
		f = &Format{}
		col.Formats[pos.Y] = f
	}
	old := f.Apply(update)
	if f.IsDefault() {
		delete(col.Formats, pos.Y)
	}
	s.compactColumn(pos.X)
	return old
}

// ReplaceCellFormat swaps one cell's whole format record (nil clears)
// and returns the previous record; undo restores snapshots with this.
func (s *Sheet) ReplaceCellFormat(pos a1.Pos, f *Format) *Format {
	var old *Format
	if col, ok := s.Columns[pos.X]; ok {
		old = col.Formats[pos.Y]
	}
	if f == nil || f.IsDefault() {
		if col, ok := s.Columns[pos.X]; ok {
			delete(col.Formats, pos.Y)
			s.compactColumn(pos.X)
		}
		return old
	}
	s.column(pos.X).Formats[pos.Y] = f
	return old
}

// CellFormatAt returns the raw per-cell format record, if any.
func (s *Sheet) CellFormatAt(pos a1.Pos) *Format {
	if col, ok := s.Columns[pos.X]; ok {
		return col.Formats[pos.Y]
	}
	return nil
}

// Bounds returns the rectangle containing all literals and tables.
// Cached until the sheet is mutated.
func (s *Sheet) Bounds() (a1.Rect, bool) {
	if !s.boundsDirty {
		return s.cachedBounds, s.hasBounds
	}
	s.boundsDirty = false
	s.hasBounds = false
	var bounds a1.Rect
	add := func(r a1.Rect) {
		if !s.hasBounds {
			bounds = r
			s.hasBounds = true
			return
		}
		bounds = bounds.Union(r)
	}
	xs := make([]int64, 0, len(s.Columns))
	for x := range s.Columns {
		xs = append(xs, x)
	}
	for _, x := range xs {
		if min, max, ok := s.Columns[x].Bounds(); ok {
			add(a1.Rect{Min: a1.Pos{X: x, Y: min}, Max: a1.Pos{X: x, Y: max}})
		}
	}
	for anchor, table := range s.Tables {
		add(table.Footprint(anchor))
	}
	s.cachedBounds = bounds
	return bounds, s.hasBounds
}

// MarkBoundsDirty invalidates the cached bounds.
func (s *Sheet) MarkBoundsDirty() {
	s.boundsDirty = true
}

// MergeCells records a merged rectangle; overlapping merges are
// replaced.
func (s *Sheet) MergeCells(rect a1.Rect) []a1.Rect {
	removed := s.UnmergeCells(rect)
	s.Merged = append(s.Merged, rect)
	return removed
}

// UnmergeCells removes every merge intersecting rect, returning them.
func (s *Sheet) UnmergeCells(rect a1.Rect) []a1.Rect {
	var removed []a1.Rect
	kept := s.Merged[:0]
	for _, m := range s.Merged {
		if m.Intersects(rect) {
			removed = append(removed, m)
		} else {
			kept = append(kept, m)
		}
	}
	s.Merged = kept
	return removed
}
