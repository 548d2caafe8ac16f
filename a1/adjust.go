package a1

import "strings"

// RefError is the result of adjusting a reference off the grid; it
// renders as `#REF!`.
type RefError struct{}

func (RefError) Error() string { return "#REF!" }

// RefAdjust describes a coordinate-space translation to apply to cell
// references, scoped by sheet and by a start column/row. Unbounded
// coordinates are never modified.
type RefAdjust struct {
	// Sheet restricts the adjustment to references into one sheet.
	// Empty means all sheets.
	Sheet SheetID
	// RelativeOnly skips axes that are absolute on the endpoint.
	RelativeOnly bool
	// Dx and Dy are the offsets to apply.
	Dx, Dy int64
	// XStart and YStart are the first column/row affected; coordinates
	// before them are unmodified. 0 affects everything.
	XStart, YStart int64
}

// NoOp reports whether the adjustment cannot change any reference.
func (a RefAdjust) NoOp() bool {
	return a.Dx == 0 && a.Dy == 0
}

// AffectsSheet reports whether references into the given sheet are in
// scope.
func (a RefAdjust) AffectsSheet(sheet SheetID) bool {
	return a.Sheet == "" || a.Sheet == sheet
}

func NewTranslate(dx, dy int64) RefAdjust {
	return RefAdjust{RelativeOnly: true, Dx: dx, Dy: dy}
}

func NewTranslateWithStart(dx, dy, xStart, yStart int64) RefAdjust {
	return RefAdjust{RelativeOnly: true, Dx: dx, Dy: dy, XStart: xStart, YStart: yStart}
}

func NewInsertColumns(sheet SheetID, first, count int64) RefAdjust {
	return RefAdjust{Sheet: sheet, Dx: count, XStart: first}
}

func NewDeleteColumns(sheet SheetID, first, count int64) RefAdjust {
	return RefAdjust{Sheet: sheet, Dx: -count, XStart: first}
}

func NewInsertRows(sheet SheetID, first, count int64) RefAdjust {
	return RefAdjust{Sheet: sheet, Dy: count, YStart: first}
}

func NewDeleteRows(sheet SheetID, first, count int64) RefAdjust {
	return RefAdjust{Sheet: sheet, Dy: -count, YStart: first}
}

func NewInsertColumn(sheet SheetID, column int64) RefAdjust {
	return NewInsertColumns(sheet, column, 1)
}

func NewDeleteColumn(sheet SheetID, column int64) RefAdjust {
	return NewDeleteColumns(sheet, column, 1)
}

func NewInsertRow(sheet SheetID, row int64) RefAdjust {
	return NewInsertRows(sheet, row, 1)
}

func NewDeleteRow(sheet SheetID, row int64) RefAdjust {
	return NewDeleteRows(sheet, row, 1)
}

// adjustCoord applies one axis of the adjustment. A result below 1 is
// a RefError.
func adjustCoord(c Coord, delta, start int64, relativeOnly bool) (Coord, error) {
	if c.IsUnbounded() || delta == 0 {
		return c, nil
	}
	if relativeOnly && c.Abs {
		return c, nil
	}
	if c.V < start {
		return c, nil
	}
	c.V += delta
	if c.V < 1 {
		return c, RefError{}
	}
	return c, nil
}

// AdjustCellRef applies the adjustment to one endpoint.
func (a RefAdjust) AdjustCellRef(ref CellRef) (CellRef, error) {
	col, err := adjustCoord(ref.Col, a.Dx, a.XStart, a.RelativeOnly)
	if err != nil {
		return ref, err
	}
	row, err := adjustCoord(ref.Row, a.Dy, a.YStart, a.RelativeOnly)
	if err != nil {
		return ref, err
	}
	return CellRef{Col: col, Row: row}, nil
}

// Adjust applies the adjustment to a sheet range. Table references are
// positionally anchored by the table itself, so they pass through
// unchanged. Out-of-scope sheets pass through unchanged.
func (sr SheetRange) Adjust(a RefAdjust) (SheetRange, error) {
	if !a.AffectsSheet(sr.Sheet) || sr.Range.Table != nil {
		return sr, nil
	}
	bounds := *sr.Range.Bounds
	start, err := a.AdjustCellRef(bounds.Start)
	if err != nil {
		return sr, err
	}
	end, err := a.AdjustCellRef(bounds.End)
	if err != nil {
		return sr, err
	}
	out := sr
	out.Range = CellRefRange{Bounds: &RefRangeBounds{Start: start, End: end}}
	return out, nil
}

// ReplaceTableName renames the table a table reference points at.
func (sr *SheetRange) ReplaceTableName(oldName, newName string) {
	if sr.Range.Table != nil && strings.EqualFold(sr.Range.Table.Table, oldName) {
		sr.Range.Table.Table = newName
	}
}

// ReplaceColumnName renames a column inside references to one table.
func (sr *SheetRange) ReplaceColumnName(table, oldName, newName string) {
	t := sr.Range.Table
	if t == nil || !strings.EqualFold(t.Table, table) {
		return
	}
	if strings.EqualFold(t.StartCol, oldName) {
		t.StartCol = newName
	}
	if strings.EqualFold(t.EndCol, oldName) {
		t.EndCol = newName
	}
}
