package controller

import (
	"fmt"
	"time"

	"tally/a1"
	"tally/grid"
)

func (c *GridController) tableAt(sp a1.SheetPos) (*grid.Sheet, *grid.DataTable) {
	sheet := c.mustSheet(sp.Sheet)
	table, ok := sheet.Tables[sp.Pos]
	if !ok {
		panic(fmt.Sprintf("controller: no data table anchored at %s", sp))
	}
	return sheet, table
}

func (c *GridController) applySortDataTable(t *Transaction, o SortDataTable) {
	_, table := c.tableAt(o.SheetPos)
	old := table.SortBy
	table.SortBy = o.SortBy
	table.Sort()
	table.LastModified = time.Now()

	t.ReverseOps = append(t.ReverseOps, SortDataTable{SheetPos: o.SheetPos, SortBy: old})
	rect := a1.SheetRect{Sheet: o.SheetPos.Sheet, Rect: table.Footprint(o.SheetPos.Pos)}
	t.Summary.addCellRect(rect)
	t.Summary.CodeCellsModified[o.SheetPos.Sheet] = true
	t.Summary.markThumbnail(c.grid.FirstSheetID(), rect)
}

func (c *GridController) applyRenameDataTable(t *Transaction, o RenameDataTable) {
	sheet, table := c.tableAt(o.SheetPos)
	old := table.Name
	if old == o.Name {
		return
	}
	if _, _, taken := sheet.TableByName(o.Name); taken {
		panic(fmt.Sprintf("controller: table name %q already in use", o.Name))
	}
	// References are rewritten before the registry forgets the old
	// name, so sources still parse.
	c.rewriteTableName(old, o.Name)
	table.Name = o.Name
	c.grid.Ctx.RenameTable(old, o.Name)
	c.grid.RegisterTable(sheet, o.SheetPos.Pos, table)

	t.ReverseOps = append(t.ReverseOps, RenameDataTable{SheetPos: o.SheetPos, Name: old})
	t.Summary.CodeCellsModified[o.SheetPos.Sheet] = true
}

func (c *GridController) applyRenameTableColumn(t *Transaction, o RenameTableColumn) {
	sheet, table := c.tableAt(o.SheetPos)
	if o.OldName == o.NewName {
		return
	}
	renamed := false
	for i := range table.Columns {
		if table.Columns[i].Name == o.OldName {
			table.Columns[i].Name = o.NewName
			renamed = true
		}
	}
	if !renamed && table.HeaderIsFirst && table.Height() > 0 {
		for x := int64(0); x < table.Width(); x++ {
			if table.Value[0][x].Display() == o.OldName {
				table.Value[0][x] = &grid.Text{Value: o.NewName}
				renamed = true
			}
		}
	}
	if !renamed {
		panic(fmt.Sprintf("controller: table %q has no column %q", table.Name, o.OldName))
	}
	c.rewriteTableColumnName(table.Name, o.OldName, o.NewName)
	c.grid.RegisterTable(sheet, o.SheetPos.Pos, table)

	t.ReverseOps = append(t.ReverseOps, RenameTableColumn{
		SheetPos: o.SheetPos,
		OldName:  o.NewName,
		NewName:  o.OldName,
	})
	rect := a1.SheetRect{Sheet: o.SheetPos.Sheet, Rect: table.Footprint(o.SheetPos.Pos)}
	t.Summary.addCellRect(rect)
}

func (c *GridController) applySetTableHeader(t *Transaction, o SetTableHeader) {
	sheet, table := c.tableAt(o.SheetPos)
	oldFirst, oldShow := table.HeaderIsFirst, table.ShowHeader
	table.HeaderIsFirst = o.HeaderIsFirst
	table.ShowHeader = o.ShowHeader
	table.Sort()
	c.grid.RegisterTable(sheet, o.SheetPos.Pos, table)

	t.ReverseOps = append(t.ReverseOps, SetTableHeader{
		SheetPos:      o.SheetPos,
		HeaderIsFirst: oldFirst,
		ShowHeader:    oldShow,
	})
	rect := a1.SheetRect{Sheet: o.SheetPos.Sheet, Rect: table.Footprint(o.SheetPos.Pos)}
	t.Summary.addCellRect(rect)
}

func (c *GridController) applyImportTable(t *Transaction, o ImportTable) {
	sp := o.SheetPos
	sheet := c.mustSheet(sp.Sheet)
	old := sheet.CellValueAt(sp.Pos)
	oldTable := sheet.Tables[sp.Pos]

	switch {
	case oldTable != nil && old.Kind() == grid.CODE:
		t.ReverseOps = append(t.ReverseOps, SetCodeCell{SheetPos: sp, Code: old.(*grid.Code), Table: oldTable})
	case oldTable != nil:
		t.ReverseOps = append(t.ReverseOps, RestoreCells{
			Sheet:  sp.Sheet,
			Cells:  map[a1.Pos]grid.CellValue{sp.Pos: old},
			Tables: map[a1.Pos]*grid.DataTable{sp.Pos: oldTable},
		})
	default:
		t.ReverseOps = append(t.ReverseOps, RestoreCells{
			Sheet:  sp.Sheet,
			Cells:  map[a1.Pos]grid.CellValue{sp.Pos: old},
			Tables: map[a1.Pos]*grid.DataTable{sp.Pos: nil},
		})
	}
	if oldTable != nil {
		c.grid.UnregisterTable(oldTable)
	}

	name := sheet.UniqueTableName(o.Name)
	table := &grid.DataTable{
		Kind:          grid.TableFromImport,
		Name:          name,
		Value:         o.Values,
		HeaderIsFirst: true,
		ShowHeader:    true,
		LastModified:  time.Now(),
	}
	sheet.SetCellValue(sp.Pos, &grid.Import{TableName: name})
	sheet.SetTable(sp.Pos, table)
	c.grid.RegisterTable(sheet, sp.Pos, table)
	sheet.CheckSpills()
	c.grid.SyncBounds(sheet)

	rect := a1.SheetRect{Sheet: sp.Sheet, Rect: table.Footprint(sp.Pos)}
	t.markCellsUpdated(rect)
	t.Summary.CodeCellsModified[sp.Sheet] = true
	t.Summary.markThumbnail(c.grid.FirstSheetID(), rect)
}
