package grid

import "tally/a1"

// InsertColumn opens a column at index x, shifting columns at or
// after x right by one. With copyFormats, the new column inherits the
// column-level format of its left neighbor.
func (s *Sheet) InsertColumn(x int64, copyFormats bool) {
	next := make(map[int64]*Column, len(s.Columns))
	for cx, col := range s.Columns {
		if cx >= x {
			next[cx+1] = col
		} else {
			next[cx] = col
		}
	}
	s.Columns = next

	nextFormats := make(map[int64]*Format, len(s.ColumnFormats))
	for cx, f := range s.ColumnFormats {
		if cx >= x {
			nextFormats[cx+1] = f
		} else {
			nextFormats[cx] = f
		}
	}
	s.ColumnFormats = nextFormats
	if copyFormats {
		if f, ok := s.ColumnFormats[x-1]; ok {
			s.ColumnFormats[x] = f.Clone()
		}
	}

	s.shiftTables(func(anchor a1.Pos) a1.Pos {
		if anchor.X >= x {
			anchor.X++
		}
		return anchor
	})
	s.Merged = shiftRects(s.Merged, x, 1, true)
	s.boundsDirty = true
}

// DeleteColumn removes column x, shifting later columns left. The
// removed column's contents are the caller's to capture for undo.
func (s *Sheet) DeleteColumn(x int64) {
	delete(s.Columns, x)
	next := make(map[int64]*Column, len(s.Columns))
	for cx, col := range s.Columns {
		if cx > x {
			next[cx-1] = col
		} else {
			next[cx] = col
		}
	}
	s.Columns = next

	delete(s.ColumnFormats, x)
	nextFormats := make(map[int64]*Format, len(s.ColumnFormats))
	for cx, f := range s.ColumnFormats {
		if cx > x {
			nextFormats[cx-1] = f
		} else {
			nextFormats[cx] = f
		}
	}
	s.ColumnFormats = nextFormats

	s.dropTablesWhere(func(anchor a1.Pos) bool { return anchor.X == x })
	s.shiftTables(func(anchor a1.Pos) a1.Pos {
		if anchor.X > x {
			anchor.X--
		}
		return anchor
	})
	s.Merged = shiftRects(s.Merged, x, -1, true)
	s.boundsDirty = true
}

// InsertRow opens a row at index y. With copyFormats, the new row
// inherits the row-level format of the row above.
func (s *Sheet) InsertRow(y int64, copyFormats bool) {
	for _, col := range s.Columns {
		col.ShiftRows(y, 1)
	}
	nextFormats := make(map[int64]*Format, len(s.RowFormats))
	for ry, f := range s.RowFormats {
		if ry >= y {
			nextFormats[ry+1] = f
		} else {
			nextFormats[ry] = f
		}
	}
	s.RowFormats = nextFormats
	if copyFormats {
		if f, ok := s.RowFormats[y-1]; ok {
			s.RowFormats[y] = f.Clone()
		}
	}
	nextSizes := make(map[int64]float64, len(s.RowSizes))
	for ry, size := range s.RowSizes {
		if ry >= y {
			nextSizes[ry+1] = size
		} else {
			nextSizes[ry] = size
		}
	}
	s.RowSizes = nextSizes

	s.shiftTables(func(anchor a1.Pos) a1.Pos {
		if anchor.Y >= y {
			anchor.Y++
		}
		return anchor
	})
	s.Merged = shiftRects(s.Merged, y, 1, false)
	s.boundsDirty = true
}

// DeleteRow removes row y.
func (s *Sheet) DeleteRow(y int64) {
	for x, col := range s.Columns {
		col.DeleteRowRange(y, 1)
		col.ShiftRows(y+1, -1)
		s.compactColumn(x)
	}
	delete(s.RowFormats, y)
	nextFormats := make(map[int64]*Format, len(s.RowFormats))
	for ry, f := range s.RowFormats {
		if ry > y {
			nextFormats[ry-1] = f
		} else {
			nextFormats[ry] = f
		}
	}
	s.RowFormats = nextFormats
	delete(s.RowSizes, y)
	nextSizes := make(map[int64]float64, len(s.RowSizes))
	for ry, size := range s.RowSizes {
		if ry > y {
			nextSizes[ry-1] = size
		} else {
			nextSizes[ry] = size
		}
	}
	s.RowSizes = nextSizes

	s.dropTablesWhere(func(anchor a1.Pos) bool { return anchor.Y == y })
	s.shiftTables(func(anchor a1.Pos) a1.Pos {
		if anchor.Y > y {
			anchor.Y--
		}
		return anchor
	})
	s.Merged = shiftRects(s.Merged, y, -1, false)
	s.boundsDirty = true
}

func (s *Sheet) shiftTables(move func(a1.Pos) a1.Pos) {
	next := make(map[a1.Pos]*DataTable, len(s.Tables))
	for anchor, table := range s.Tables {
		next[move(anchor)] = table
	}
	s.Tables = next
}

func (s *Sheet) dropTablesWhere(pred func(a1.Pos) bool) {
	for anchor := range s.Tables {
		if pred(anchor) {
			delete(s.Tables, anchor)
		}
	}
}

func shiftRects(rects []a1.Rect, at, delta int64, horizontal bool) []a1.Rect {
	out := rects[:0]
	for _, r := range rects {
		if horizontal {
			if r.Min.X >= at {
				r.Min.X += delta
			}
			if r.Max.X >= at {
				r.Max.X += delta
			}
			if r.Min.X < 1 || r.Max.X < r.Min.X {
				continue
			}
		} else {
			if r.Min.Y >= at {
				r.Min.Y += delta
			}
			if r.Max.Y >= at {
				r.Max.Y += delta
			}
			if r.Min.Y < 1 || r.Max.Y < r.Min.Y {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}
