package grid

import (
	"fmt"

	"tally/a1"
)

// Grid is one document: an ordered list of sheets plus the reference
// name context. It is a value type — no global state, one instance
// per document.
type Grid struct {
	SheetOrder []a1.SheetID
	sheets     map[a1.SheetID]*Sheet
	Ctx        *a1.Context
}

func NewGrid() *Grid {
	g := &Grid{
		sheets: make(map[a1.SheetID]*Sheet),
		Ctx:    a1.NewContext(),
	}
	g.AddSheet("Sheet1")
	return g
}

// NewEmptyGrid builds a grid with no sheets, for import.
func NewEmptyGrid() *Grid {
	return &Grid{
		sheets: make(map[a1.SheetID]*Sheet),
		Ctx:    a1.NewContext(),
	}
}

// AddSheet creates a sheet with a fresh id, appending it to the
// order. An empty name is derived from the sheet count.
func (g *Grid) AddSheet(name string) *Sheet {
	return g.AddSheetWithID(a1.NewSheetID(), name, len(g.SheetOrder))
}

// AddSheetWithID installs a sheet at a given position in the order;
// used by undo to resurrect a deleted sheet under its old id.
func (g *Grid) AddSheetWithID(id a1.SheetID, name string, index int) *Sheet {
	if name == "" {
		name = g.uniqueSheetName()
	}
	sheet := NewSheet(id, name)
	g.sheets[id] = sheet
	if index < 0 || index > len(g.SheetOrder) {
		index = len(g.SheetOrder)
	}
	g.SheetOrder = append(g.SheetOrder, "")
	copy(g.SheetOrder[index+1:], g.SheetOrder[index:])
	g.SheetOrder[index] = id
	g.Ctx.AddSheet(id, name)
	return sheet
}

func (g *Grid) uniqueSheetName() string {
	for i := len(g.SheetOrder) + 1; ; i++ {
		candidate := fmt.Sprintf("Sheet%d", i)
		if _, ok := g.Ctx.SheetIDByName(candidate); !ok {
			return candidate
		}
	}
}

// RemoveSheet deletes a sheet, returning it and its order index.
func (g *Grid) RemoveSheet(id a1.SheetID) (*Sheet, int) {
	sheet, ok := g.sheets[id]
	if !ok {
		return nil, -1
	}
	index := g.SheetIndex(id)
	delete(g.sheets, id)
	g.SheetOrder = append(g.SheetOrder[:index], g.SheetOrder[index+1:]...)
	for _, table := range sheet.Tables {
		g.Ctx.RemoveTable(table.Name)
	}
	g.Ctx.RemoveSheet(id)
	return sheet, index
}

// RenameSheet updates the user-visible name, returning the old name.
func (g *Grid) RenameSheet(id a1.SheetID, newName string) (string, bool) {
	sheet, ok := g.sheets[id]
	if !ok {
		return "", false
	}
	old := sheet.Name
	sheet.Name = newName
	g.Ctx.RenameSheet(id, newName)
	return old, true
}

// ReorderSheet moves a sheet to a new index in the order, returning
// the old index.
func (g *Grid) ReorderSheet(id a1.SheetID, to int) (int, bool) {
	from := g.SheetIndex(id)
	if from < 0 {
		return -1, false
	}
	if to < 0 {
		to = 0
	}
	if to >= len(g.SheetOrder) {
		to = len(g.SheetOrder) - 1
	}
	g.SheetOrder = append(g.SheetOrder[:from], g.SheetOrder[from+1:]...)
	g.SheetOrder = append(g.SheetOrder, "")
	copy(g.SheetOrder[to+1:], g.SheetOrder[to:])
	g.SheetOrder[to] = id
	return from, true
}

// Sheet returns a sheet by id.
func (g *Grid) Sheet(id a1.SheetID) (*Sheet, bool) {
	sheet, ok := g.sheets[id]
	return sheet, ok
}

// MustSheet returns the sheet or panics; grid mutations against a
// missing sheet are programmer errors.
func (g *Grid) MustSheet(id a1.SheetID) *Sheet {
	sheet, ok := g.sheets[id]
	if !ok {
		panic(fmt.Sprintf("grid: no sheet with id %s", id))
	}
	return sheet
}

// SheetByName resolves a sheet by its user-visible name.
func (g *Grid) SheetByName(name string) (*Sheet, bool) {
	id, ok := g.Ctx.SheetIDByName(name)
	if !ok {
		return nil, false
	}
	return g.Sheet(id)
}

// SheetIndex returns the position of a sheet in the order, or -1.
func (g *Grid) SheetIndex(id a1.SheetID) int {
	for i, have := range g.SheetOrder {
		if have == id {
			return i
		}
	}
	return -1
}

// Sheets returns the sheets in display order.
func (g *Grid) Sheets() []*Sheet {
	out := make([]*Sheet, 0, len(g.SheetOrder))
	for _, id := range g.SheetOrder {
		if sheet, ok := g.sheets[id]; ok {
			out = append(out, sheet)
		}
	}
	return out
}

// FirstSheetID returns the first sheet in the order.
func (g *Grid) FirstSheetID() a1.SheetID {
	if len(g.SheetOrder) == 0 {
		return ""
	}
	return g.SheetOrder[0]
}

// RegisterTable records (or refreshes) a table in the name context.
func (g *Grid) RegisterTable(sheet *Sheet, anchor a1.Pos, table *DataTable) {
	g.Ctx.AddTable(a1.TableInfo{
		Sheet:     sheet.ID,
		Name:      table.Name,
		Anchor:    anchor,
		Columns:   table.ColumnNames(),
		HasHeader: table.HeaderIsFirst,
		Width:     table.Width(),
		Height:    table.Height(),
	})
}

// UnregisterTable removes a table from the name context.
func (g *Grid) UnregisterTable(table *DataTable) {
	g.Ctx.RemoveTable(table.Name)
}

// SyncBounds refreshes the cached sheet bounds in the context so
// unbounded references clamp correctly.
func (g *Grid) SyncBounds(sheet *Sheet) {
	if bounds, ok := sheet.Bounds(); ok {
		g.Ctx.SetSheetBounds(sheet.ID, bounds.Max)
	} else {
		g.Ctx.SetSheetBounds(sheet.ID, a1.Pos{X: 1, Y: 1})
	}
}

// DisplayValue resolves a sheet-qualified position.
func (g *Grid) DisplayValue(sp a1.SheetPos) CellValue {
	sheet, ok := g.Sheet(sp.Sheet)
	if !ok {
		return BlankValue
	}
	return sheet.DisplayValue(sp.Pos)
}
