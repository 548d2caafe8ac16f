package controller

import (
	"tally/a1"
	"tally/grid"
)

func (c *GridController) applyInsertColumn(t *Transaction, o InsertColumn) {
	sheet := c.mustSheet(o.Sheet)
	sheet.InsertColumn(o.Index, o.CopyFormats)
	c.adjustReferences(a1.NewInsertColumn(o.Sheet, o.Index))
	sheet.Validations.Adjust(a1.NewInsertColumn(o.Sheet, o.Index))
	c.reindexTables(sheet)
	sheet.CheckSpills()
	c.grid.SyncBounds(sheet)

	t.ReverseOps = append(t.ReverseOps, DeleteColumn{Sheet: o.Sheet, Index: o.Index})
	c.markWholeSheet(t, sheet)
}

func (c *GridController) applyDeleteColumn(t *Transaction, o DeleteColumn) {
	sheet := c.mustSheet(o.Sheet)
	restore := RestoreCells{
		Sheet:        o.Sheet,
		Cells:        make(map[a1.Pos]grid.CellValue),
		Formats:      make(map[a1.Pos]*grid.Format),
		Tables:       make(map[a1.Pos]*grid.DataTable),
		ColumnFormat: make(map[int64]*grid.Format),
	}
	if col, ok := sheet.Columns[o.Index]; ok {
		for row, v := range col.Cells {
			restore.Cells[a1.Pos{X: o.Index, Y: row}] = v
		}
		for row, f := range col.Formats {
			restore.Formats[a1.Pos{X: o.Index, Y: row}] = f.Clone()
		}
	}
	if f, ok := sheet.ColumnFormats[o.Index]; ok {
		restore.ColumnFormat[o.Index] = f.Clone()
	}
	for anchor, table := range sheet.Tables {
		if anchor.X == o.Index {
			restore.Tables[anchor] = table
			c.grid.UnregisterTable(table)
		}
	}

	sheet.DeleteColumn(o.Index)
	c.adjustReferences(a1.NewDeleteColumn(o.Sheet, o.Index))
	sheet.Validations.Adjust(a1.NewDeleteColumn(o.Sheet, o.Index))
	c.reindexTables(sheet)
	sheet.CheckSpills()
	c.grid.SyncBounds(sheet)

	// The reverse log is replayed back-to-front, so the restore is
	// appended first: undo re-opens the column, then refills it.
	t.ReverseOps = append(t.ReverseOps,
		restore,
		InsertColumn{Sheet: o.Sheet, Index: o.Index},
	)
	c.markWholeSheet(t, sheet)
}

func (c *GridController) applyInsertRow(t *Transaction, o InsertRow) {
	sheet := c.mustSheet(o.Sheet)
	sheet.InsertRow(o.Index, o.CopyFormats)
	c.adjustReferences(a1.NewInsertRow(o.Sheet, o.Index))
	sheet.Validations.Adjust(a1.NewInsertRow(o.Sheet, o.Index))
	c.reindexTables(sheet)
	sheet.CheckSpills()
	c.grid.SyncBounds(sheet)

	t.ReverseOps = append(t.ReverseOps, DeleteRow{Sheet: o.Sheet, Index: o.Index})
	c.markWholeSheet(t, sheet)
}

func (c *GridController) applyDeleteRow(t *Transaction, o DeleteRow) {
	sheet := c.mustSheet(o.Sheet)
	restore := RestoreCells{
		Sheet:     o.Sheet,
		Cells:     make(map[a1.Pos]grid.CellValue),
		Formats:   make(map[a1.Pos]*grid.Format),
		Tables:    make(map[a1.Pos]*grid.DataTable),
		RowFormat: make(map[int64]*grid.Format),
		RowSize:   make(map[int64]float64),
	}
	for x, col := range sheet.Columns {
		if v, ok := col.Cells[o.Index]; ok {
			restore.Cells[a1.Pos{X: x, Y: o.Index}] = v
		}
		if f, ok := col.Formats[o.Index]; ok {
			restore.Formats[a1.Pos{X: x, Y: o.Index}] = f.Clone()
		}
	}
	if f, ok := sheet.RowFormats[o.Index]; ok {
		restore.RowFormat[o.Index] = f.Clone()
	}
	if size, ok := sheet.RowSizes[o.Index]; ok {
		restore.RowSize[o.Index] = size
	}
	for anchor, table := range sheet.Tables {
		if anchor.Y == o.Index {
			restore.Tables[anchor] = table
			c.grid.UnregisterTable(table)
		}
	}

	sheet.DeleteRow(o.Index)
	c.adjustReferences(a1.NewDeleteRow(o.Sheet, o.Index))
	sheet.Validations.Adjust(a1.NewDeleteRow(o.Sheet, o.Index))
	c.reindexTables(sheet)
	sheet.CheckSpills()
	c.grid.SyncBounds(sheet)

	t.ReverseOps = append(t.ReverseOps,
		restore,
		InsertRow{Sheet: o.Sheet, Index: o.Index},
	)
	c.markWholeSheet(t, sheet)
}

func (c *GridController) applyRestoreCells(t *Transaction, o RestoreCells) {
	sheet := c.mustSheet(o.Sheet)
	reverse := RestoreCells{
		Sheet:        o.Sheet,
		Cells:        make(map[a1.Pos]grid.CellValue),
		Formats:      make(map[a1.Pos]*grid.Format),
		Tables:       make(map[a1.Pos]*grid.DataTable),
		ColumnFormat: make(map[int64]*grid.Format),
		RowFormat:    make(map[int64]*grid.Format),
		RowSize:      make(map[int64]float64),
	}
	for pos, v := range o.Cells {
		reverse.Cells[pos] = sheet.CellValueAt(pos)
		sheet.SetCellValue(pos, v)
	}
	for pos, f := range o.Formats {
		reverse.Formats[pos] = sheet.ReplaceCellFormat(pos, f.Clone())
	}
	for anchor, table := range o.Tables {
		reverse.Tables[anchor] = sheet.SetTable(anchor, table)
		if table != nil {
			c.grid.RegisterTable(sheet, anchor, table)
		}
	}
	for x, f := range o.ColumnFormat {
		if old, ok := sheet.ColumnFormats[x]; ok {
			reverse.ColumnFormat[x] = old
		}
		if f == nil {
			delete(sheet.ColumnFormats, x)
		} else {
			sheet.ColumnFormats[x] = f.Clone()
		}
	}
	for y, f := range o.RowFormat {
		if old, ok := sheet.RowFormats[y]; ok {
			reverse.RowFormat[y] = old
		}
		if f == nil {
			delete(sheet.RowFormats, y)
		} else {
			sheet.RowFormats[y] = f.Clone()
		}
	}
	for y, size := range o.RowSize {
		reverse.RowSize[y] = sheet.RowSizes[y]
		if size == 0 {
			delete(sheet.RowSizes, y)
		} else {
			sheet.RowSizes[y] = size
		}
	}
	sheet.CheckSpills()
	c.grid.SyncBounds(sheet)
	t.ReverseOps = append(t.ReverseOps, reverse)
	c.markWholeSheet(t, sheet)
}

// reindexTables refreshes table anchors in the name context after a
// structural shift.
func (c *GridController) reindexTables(sheet *grid.Sheet) {
	for anchor, table := range sheet.Tables {
		c.grid.RegisterTable(sheet, anchor, table)
	}
}

// markWholeSheet marks the sheet's whole used range for rerender;
// structural edits move everything after the edit point.
func (c *GridController) markWholeSheet(t *Transaction, sheet *grid.Sheet) {
	bounds, ok := sheet.Bounds()
	if !ok {
		bounds = a1.SingleRect(a1.Pos{X: 1, Y: 1})
	}
	rect := a1.SheetRect{Sheet: sheet.ID, Rect: bounds}
	t.markCellsUpdated(rect)
	t.Summary.markThumbnail(c.grid.FirstSheetID(), rect)
	t.Summary.addOffsetsModified(sheet.ID)
}
