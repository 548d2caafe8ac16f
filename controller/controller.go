package controller

import (
	"fmt"

	"github.com/google/uuid"

	"tally/a1"
	"tally/grid"
)

// Runtime executes code cells whose language is not Formula. Execute
// must eventually lead to AfterCalculationAsync being called with a
// result for the given position; the engine stays suspended until
// then.
type Runtime interface {
	Execute(pos a1.SheetPos, lang grid.Language, source string)
}

// GridController owns one document: the grid, the undo and redo
// stacks, and at most one transaction in progress. It is
// single-threaded; a suspended async transaction parks its state here
// until the runtime answers.
type GridController struct {
	grid    *grid.Grid
	undo    [][]Operation
	redo    [][]Operation
	active  *Transaction
	runtime Runtime
}

// Transaction carries the state of one in-progress transaction,
// including everything the recalc loop needs across an async
// suspension.
type Transaction struct {
	ID              string
	Cursor          string
	ForwardOps      []Operation
	ReverseOps      []Operation
	Summary         *TransactionSummary
	CellsUpdated    []a1.SheetRect
	CellsToCompute  []a1.SheetPos
	pending         map[a1.SheetPos]bool
	visited         map[a1.SheetPos]int
	CurrentSheetPos *a1.SheetPos
	WaitingForAsync *grid.Language
	HasAsync        bool
	Complete        bool
	kind            transactionKind
}

type transactionKind int

const (
	userTransaction transactionKind = iota
	undoTransaction
	redoTransaction
)

func NewGridController() *GridController {
	return &GridController{grid: grid.NewGrid()}
}

func NewGridControllerFrom(g *grid.Grid) *GridController {
	return &GridController{grid: g}
}

// SetRuntime installs the external-language runtime bridge.
func (c *GridController) SetRuntime(r Runtime) {
	c.runtime = r
}

func (c *GridController) Grid() *grid.Grid { return c.grid }

// TransactionInProgress reports whether a transaction is active
// (including one suspended on an async code cell).
func (c *GridController) TransactionInProgress() bool {
	return c.active != nil
}

// StartUserTransaction atomically applies a batch of operations,
// runs the recalc cascade, and returns the change summary. If the
// cascade suspends on an external code cell, the summary so far is
// returned and the transaction stays parked until
// AfterCalculationAsync.
func (c *GridController) StartUserTransaction(ops []Operation, cursor string) *TransactionSummary {
	return c.startTransaction(ops, cursor, userTransaction)
}

func (c *GridController) startTransaction(ops []Operation, cursor string, kind transactionKind) *TransactionSummary {
	if c.active != nil {
		panic("controller: transaction already in progress")
	}
	t := &Transaction{
		ID:      uuid.NewString(),
		Cursor:  cursor,
		Summary: nil,
		pending: make(map[a1.SheetPos]bool),
		visited: make(map[a1.SheetPos]int),
		kind:    kind,
	}
	t.Summary = newSummary(t.ID)
	c.active = t

	for _, op := range ops {
		c.applyOp(t, op)
	}
	c.runComputeLoop(t)
	if !t.Complete {
		// Suspended on an async code cell.
		return t.Summary
	}
	return c.finishTransaction(t)
}

// finishTransaction commits the reverse log to the proper stack and
// clears the active slot.
func (c *GridController) finishTransaction(t *Transaction) *TransactionSummary {
	reversed := make([]Operation, 0, len(t.ReverseOps))
	for i := len(t.ReverseOps) - 1; i >= 0; i-- {
		reversed = append(reversed, t.ReverseOps[i])
	}
	if len(reversed) > 0 {
		t.Summary.Save = true
		switch t.kind {
		case userTransaction:
			c.undo = append(c.undo, reversed)
			c.redo = nil
		case undoTransaction:
			c.redo = append(c.redo, reversed)
		case redoTransaction:
			c.undo = append(c.undo, reversed)
		}
	}
	c.active = nil
	return t.Summary
}

// AbortTransaction rolls back an in-progress transaction by replaying
// the reverse log, then returns the engine to idle. Aborting with no
// active transaction is a no-op.
func (c *GridController) AbortTransaction() {
	t := c.active
	if t == nil {
		return
	}
	c.active = nil
	rollback := &Transaction{
		ID:      uuid.NewString(),
		Summary: newSummary(""),
		pending: make(map[a1.SheetPos]bool),
		visited: make(map[a1.SheetPos]int),
	}
	c.active = rollback
	for i := len(t.ReverseOps) - 1; i >= 0; i-- {
		c.applyOp(rollback, t.ReverseOps[i])
	}
	c.active = nil
}

// Undo pops one entry from the undo stack and applies it.
func (c *GridController) Undo(cursor string) *TransactionSummary {
	if len(c.undo) == 0 {
		return newSummary("")
	}
	ops := c.undo[len(c.undo)-1]
	c.undo = c.undo[:len(c.undo)-1]
	return c.startTransaction(ops, cursor, undoTransaction)
}

// Redo pops one entry from the redo stack and applies it.
func (c *GridController) Redo(cursor string) *TransactionSummary {
	if len(c.redo) == 0 {
		return newSummary("")
	}
	ops := c.redo[len(c.redo)-1]
	c.redo = c.redo[:len(c.redo)-1]
	return c.startTransaction(ops, cursor, redoTransaction)
}

func (c *GridController) UndoDepth() int { return len(c.undo) }
func (c *GridController) RedoDepth() int { return len(c.redo) }

// SetCellText is the convenience entry for typed input: `=...`
// becomes a formula code cell, anything else a parsed literal.
func (c *GridController) SetCellText(pos a1.SheetPos, input string) *TransactionSummary {
	if len(input) > 0 && input[0] == '=' {
		return c.StartUserTransaction([]Operation{ComputeCodeCell{
			SheetPos: pos,
			Code:     &grid.Code{Lang: grid.LangFormula, Source: input[1:]},
		}}, "")
	}
	return c.StartUserTransaction([]Operation{SetCellValue{
		SheetPos: pos,
		Value:    grid.ParseUserInput(input),
	}}, "")
}

// mustSheet resolves a sheet id; a bad id in an operation is a
// programming error that poisons the engine.
func (c *GridController) mustSheet(id a1.SheetID) *grid.Sheet {
	sheet, ok := c.grid.Sheet(id)
	if !ok {
		panic(fmt.Sprintf("controller: operation names unknown sheet %s", id))
	}
	return sheet
}

// markCellsUpdated records a changed region for both the summary and
// the recalc loop.
func (t *Transaction) markCellsUpdated(rect a1.SheetRect) {
	t.CellsUpdated = append(t.CellsUpdated, rect)
	t.Summary.addCellRect(rect)
}

// applyOp mutates the grid for one operation and pushes its inverse
// onto the reverse log.
func (c *GridController) applyOp(t *Transaction, op Operation) {
	switch o := op.(type) {
	case SetCellValue:
		c.applySetCellValue(t, o.SheetPos, o.Value)
	case SetCellValues:
		c.applySetCellValues(t, o)
	case ComputeCodeCell:
		c.applyComputeCodeCell(t, o)
	case SetCodeCell:
		c.applySetCodeCell(t, o)
	case SetCellFormats:
		c.applySetCellFormats(t, o)
	case ReplaceCellFormats:
		c.applyReplaceCellFormats(t, o)
	case SetBorders:
		c.applySetBorders(t, o)
	case RestoreBorders:
		c.applyRestoreBorders(t, o)
	case InsertColumn:
		c.applyInsertColumn(t, o)
	case DeleteColumn:
		c.applyDeleteColumn(t, o)
	case InsertRow:
		c.applyInsertRow(t, o)
	case DeleteRow:
		c.applyDeleteRow(t, o)
	case RestoreCells:
		c.applyRestoreCells(t, o)
	case MergeCells:
		c.applyMergeCells(t, o)
	case UnmergeCells:
		c.applyUnmergeCells(t, o)
	case RestoreMerges:
		c.applyRestoreMerges(t, o)
	case SetValidation:
		c.applySetValidation(t, o)
	case SetValidationWarning:
		c.applySetValidationWarning(t, o)
	case CreateSheet:
		c.applyCreateSheet(t, o)
	case DeleteSheet:
		c.applyDeleteSheet(t, o)
	case RestoreSheet:
		c.applyRestoreSheet(t, o)
	case RenameSheet:
		c.applyRenameSheet(t, o)
	case ReorderSheet:
		c.applyReorderSheet(t, o)
	case Autocomplete:
		c.applyAutocomplete(t, o)
	case ImportTable:
		c.applyImportTable(t, o)
	case SortDataTable:
		c.applySortDataTable(t, o)
	case RenameDataTable:
		c.applyRenameDataTable(t, o)
	case RenameTableColumn:
		c.applyRenameTableColumn(t, o)
	case SetTableHeader:
		c.applySetTableHeader(t, o)
	case SetRowSize:
		c.applySetRowSize(t, o)
	default:
		panic(fmt.Sprintf("controller: unknown operation %T", op))
	}
	t.ForwardOps = append(t.ForwardOps, op)
}

func (c *GridController) applySetCellValue(t *Transaction, sp a1.SheetPos, v grid.CellValue) {
	sheet := c.mustSheet(sp.Sheet)
	old := sheet.CellValueAt(sp.Pos)

	if _, wasCode := old.(*grid.Code); wasCode {
		// Replacing a code anchor destroys its computed table.
		oldTable := sheet.Tables[sp.Pos]
		sheet.SetTable(sp.Pos, nil)
		if oldTable != nil {
			c.grid.UnregisterTable(oldTable)
			t.ReverseOps = append(t.ReverseOps, SetCodeCell{
				SheetPos: sp,
				Code:     old.(*grid.Code),
				Table:    oldTable,
			})
			t.markCellsUpdated(a1.SheetRect{Sheet: sp.Sheet, Rect: oldTable.Footprint(sp.Pos)})
			t.Summary.CodeCellsModified[sp.Sheet] = true
		} else {
			t.ReverseOps = append(t.ReverseOps, SetCellValue{SheetPos: sp, Value: old})
		}
	} else {
		t.ReverseOps = append(t.ReverseOps, SetCellValue{SheetPos: sp, Value: old})
	}

	sheet.SetCellValue(sp.Pos, v)
	sheet.CheckSpills()
	c.grid.SyncBounds(sheet)

	rect := a1.SheetRect{Sheet: sp.Sheet, Rect: a1.SingleRect(sp.Pos)}
	t.markCellsUpdated(rect)
	t.Summary.markThumbnail(c.grid.FirstSheetID(), rect)
}

func (c *GridController) applySetCellValues(t *Transaction, o SetCellValues) {
	rect := o.SheetRect.Rect
	for dy := int64(0); dy < rect.Height(); dy++ {
		for dx := int64(0); dx < rect.Width(); dx++ {
			var v grid.CellValue = grid.BlankValue
			if dy < int64(len(o.Values)) && dx < int64(len(o.Values[dy])) {
				v = o.Values[dy][dx]
			}
			c.applySetCellValue(t, a1.SheetPos{
				Sheet: o.SheetRect.Sheet,
				Pos:   a1.Pos{X: rect.Min.X + dx, Y: rect.Min.Y + dy},
			}, v)
		}
	}
}

func (c *GridController) applySetCellFormats(t *Transaction, o SetCellFormats) {
	sheet := c.mustSheet(o.Selection.Sheet)
	reverse := ReplaceCellFormats{Sheet: o.Selection.Sheet, Formats: make(map[a1.Pos]*grid.Format)}
	touched := false
	for _, rect := range o.Selection.Rects(c.grid.Ctx) {
		for y := rect.Rect.Min.Y; y <= rect.Rect.Max.Y; y++ {
			for x := rect.Rect.Min.X; x <= rect.Rect.Max.X; x++ {
				pos := a1.Pos{X: x, Y: y}
				if _, seen := reverse.Formats[pos]; !seen {
					reverse.Formats[pos] = sheet.CellFormatAt(pos).Clone()
				}
				sheet.ApplyCellFormat(pos, o.Format)
				touched = true
			}
		}
		t.Summary.addCellRect(rect)
		if o.Format != nil && o.Format.FillColor != nil {
			t.Summary.FillSheetsModified[o.Selection.Sheet] = true
		}
		t.Summary.markThumbnail(c.grid.FirstSheetID(), rect)
	}
	if touched {
		t.ReverseOps = append(t.ReverseOps, reverse)
	}
}

func (c *GridController) applyReplaceCellFormats(t *Transaction, o ReplaceCellFormats) {
	sheet := c.mustSheet(o.Sheet)
	reverse := ReplaceCellFormats{Sheet: o.Sheet, Formats: make(map[a1.Pos]*grid.Format)}
	for pos, f := range o.Formats {
		old := sheet.ReplaceCellFormat(pos, f.Clone())
		reverse.Formats[pos] = old
		t.Summary.addCellRect(a1.SheetRect{Sheet: o.Sheet, Rect: a1.SingleRect(pos)})
	}
	t.ReverseOps = append(t.ReverseOps, reverse)
}

func (c *GridController) applySetBorders(t *Transaction, o SetBorders) {
	sheet := c.mustSheet(o.Selection.Sheet)
	for _, rect := range o.Selection.Rects(c.grid.Ctx) {
		snapshot := sheet.Borders.Snapshot(rect.Rect)
		sheet.Borders.Apply(rect.Rect, o.BorderSelection, o.Style)
		t.ReverseOps = append(t.ReverseOps, RestoreBorders{Sheet: o.Selection.Sheet, Snapshot: snapshot})
		t.Summary.BorderSheetsModified[o.Selection.Sheet] = true
		t.Summary.markThumbnail(c.grid.FirstSheetID(), rect)
	}
}

func (c *GridController) applyRestoreBorders(t *Transaction, o RestoreBorders) {
	sheet := c.mustSheet(o.Sheet)
	snapshot := sheet.Borders.Snapshot(shrinkMargin(o.Snapshot.Rect))
	sheet.Borders.Restore(o.Snapshot)
	t.ReverseOps = append(t.ReverseOps, RestoreBorders{Sheet: o.Sheet, Snapshot: snapshot})
	t.Summary.BorderSheetsModified[o.Sheet] = true
}

// shrinkMargin undoes the one-cell margin Snapshot adds, so nested
// snapshots cover the same cells.
func shrinkMargin(r a1.Rect) a1.Rect {
	return a1.Rect{
		Min: a1.Pos{X: r.Min.X + 1, Y: r.Min.Y + 1},
		Max: a1.Pos{X: r.Max.X - 1, Y: r.Max.Y - 1},
	}
}

func (c *GridController) applyMergeCells(t *Transaction, o MergeCells) {
	sheet := c.mustSheet(o.Sheet)
	removed := sheet.MergeCells(o.Rect)
	t.ReverseOps = append(t.ReverseOps, RestoreMerges{Sheet: o.Sheet, Add: removed, Remove: []a1.Rect{o.Rect}})
	t.Summary.addCellRect(a1.SheetRect{Sheet: o.Sheet, Rect: o.Rect})
}

func (c *GridController) applyUnmergeCells(t *Transaction, o UnmergeCells) {
	sheet := c.mustSheet(o.Sheet)
	removed := sheet.UnmergeCells(o.Rect)
	t.ReverseOps = append(t.ReverseOps, RestoreMerges{Sheet: o.Sheet, Add: removed})
	t.Summary.addCellRect(a1.SheetRect{Sheet: o.Sheet, Rect: o.Rect})
}

func (c *GridController) applyRestoreMerges(t *Transaction, o RestoreMerges) {
	sheet := c.mustSheet(o.Sheet)
	var removed []a1.Rect
	for _, rect := range o.Remove {
		removed = append(removed, sheet.UnmergeCells(rect)...)
		t.Summary.addCellRect(a1.SheetRect{Sheet: o.Sheet, Rect: rect})
	}
	var added []a1.Rect
	for _, rect := range o.Add {
		sheet.MergeCells(rect)
		added = append(added, rect)
		t.Summary.addCellRect(a1.SheetRect{Sheet: o.Sheet, Rect: rect})
	}
	t.ReverseOps = append(t.ReverseOps, RestoreMerges{Sheet: o.Sheet, Add: removed, Remove: added})
}

func (c *GridController) applySetValidation(t *Transaction, o SetValidation) {
	sheet := c.mustSheet(o.Sheet)
	if o.Validation == nil {
		old := sheet.Validations.Remove(o.ID)
		if old != nil {
			t.ReverseOps = append(t.ReverseOps, SetValidation{Sheet: o.Sheet, ID: o.ID, Validation: old})
		}
		return
	}
	old := sheet.Validations.Set(o.Validation)
	t.ReverseOps = append(t.ReverseOps, SetValidation{Sheet: o.Sheet, ID: o.Validation.ID, Validation: old})
}

func (c *GridController) applySetValidationWarning(t *Transaction, o SetValidationWarning) {
	sheet := c.mustSheet(o.SheetPos.Sheet)
	old := sheet.Validations.Warnings[o.SheetPos.Pos]
	if o.ID == "" {
		delete(sheet.Validations.Warnings, o.SheetPos.Pos)
	} else {
		sheet.Validations.Warnings[o.SheetPos.Pos] = o.ID
	}
	t.ReverseOps = append(t.ReverseOps, SetValidationWarning{SheetPos: o.SheetPos, ID: old})
	t.Summary.addCellRect(a1.SheetRect{Sheet: o.SheetPos.Sheet, Rect: a1.SingleRect(o.SheetPos.Pos)})
}

func (c *GridController) applyCreateSheet(t *Transaction, o CreateSheet) {
	id := o.Sheet
	if id == "" {
		id = a1.NewSheetID()
	}
	c.grid.AddSheetWithID(id, o.Name, o.Index)
	t.ReverseOps = append(t.ReverseOps, DeleteSheet{Sheet: id})
	t.Summary.SheetListModified = true
}

func (c *GridController) applyDeleteSheet(t *Transaction, o DeleteSheet) {
	sheet, index := c.grid.RemoveSheet(o.Sheet)
	if sheet == nil {
		panic(fmt.Sprintf("controller: delete of unknown sheet %s", o.Sheet))
	}
	t.ReverseOps = append(t.ReverseOps, RestoreSheet{SheetData: sheet, Index: index})
	t.Summary.SheetListModified = true
}

func (c *GridController) applyRestoreSheet(t *Transaction, o RestoreSheet) {
	restored := c.grid.AddSheetWithID(o.SheetData.ID, o.SheetData.Name, o.Index)
	*restored = *o.SheetData
	for anchor, table := range restored.Tables {
		c.grid.RegisterTable(restored, anchor, table)
	}
	c.grid.SyncBounds(restored)
	t.ReverseOps = append(t.ReverseOps, DeleteSheet{Sheet: restored.ID})
	t.Summary.SheetListModified = true
}

func (c *GridController) applyRenameSheet(t *Transaction, o RenameSheet) {
	old, ok := c.grid.RenameSheet(o.Sheet, o.Name)
	if !ok {
		panic(fmt.Sprintf("controller: rename of unknown sheet %s", o.Sheet))
	}
	if old != o.Name {
		c.rewriteSheetName(old, o.Name)
	}
	t.ReverseOps = append(t.ReverseOps, RenameSheet{Sheet: o.Sheet, Name: old})
	t.Summary.SheetListModified = true
}

func (c *GridController) applyReorderSheet(t *Transaction, o ReorderSheet) {
	from, ok := c.grid.ReorderSheet(o.Sheet, o.Index)
	if !ok {
		panic(fmt.Sprintf("controller: reorder of unknown sheet %s", o.Sheet))
	}
	t.ReverseOps = append(t.ReverseOps, ReorderSheet{Sheet: o.Sheet, Index: from})
	t.Summary.SheetListModified = true
}

func (c *GridController) applySetRowSize(t *Transaction, o SetRowSize) {
	sheet := c.mustSheet(o.Sheet)
	old := sheet.RowSizes[o.Row]
	if o.Size == 0 {
		delete(sheet.RowSizes, o.Row)
	} else {
		sheet.RowSizes[o.Row] = o.Size
	}
	t.ReverseOps = append(t.ReverseOps, SetRowSize{Sheet: o.Sheet, Row: o.Row, Size: old})
	t.Summary.addOffsetsModified(o.Sheet)
}
