package controller

import (
	"time"

	"tally/a1"
	"tally/formula"
	"tally/grid"
	"tally/parser"
)

// CodeResult is what the external runtime reports back for one code
// cell execution.
type CodeResult struct {
	Success       bool       `json:"success"`
	OutputValue   string     `json:"output_value,omitempty"`
	ArrayOutput   [][]string `json:"array_output,omitempty"`
	ErrorMsg      string     `json:"error_msg,omitempty"`
	LineNumber    *int64     `json:"line_number,omitempty"`
	FormattedCode string     `json:"formatted_code,omitempty"`
	Cancelled     bool       `json:"cancelled,omitempty"`
	StdOut        string     `json:"std_out,omitempty"`
	StdErr        string     `json:"std_err,omitempty"`
	// CellsAccessed lists the A1 ranges the runtime read through its
	// cell API during this execution.
	CellsAccessed []string `json:"cells_accessed,omitempty"`
}

func (c *GridController) applyComputeCodeCell(t *Transaction, o ComputeCodeCell) {
	sp := o.SheetPos
	sheet := c.mustSheet(sp.Sheet)
	old := sheet.CellValueAt(sp.Pos)
	oldTable := sheet.Tables[sp.Pos]

	switch {
	case oldTable != nil && old.Kind() == grid.CODE:
		t.ReverseOps = append(t.ReverseOps, SetCodeCell{SheetPos: sp, Code: old.(*grid.Code), Table: oldTable})
	case oldTable != nil:
		// Replacing an import anchor: restore its table on undo.
		t.ReverseOps = append(t.ReverseOps, RestoreCells{
			Sheet:  sp.Sheet,
			Cells:  map[a1.Pos]grid.CellValue{sp.Pos: old},
			Tables: map[a1.Pos]*grid.DataTable{sp.Pos: oldTable},
		})
	default:
		t.ReverseOps = append(t.ReverseOps, SetCellValue{SheetPos: sp, Value: old})
	}
	sheet.SetCellValue(sp.Pos, o.Code)

	// A brand-new code cell has no cells_accessed yet, so it is
	// scheduled eagerly once; after that run its recorded set drives
	// all dirtying.
	t.enqueueCompute(sp)
}

func (c *GridController) applySetCodeCell(t *Transaction, o SetCodeCell) {
	sp := o.SheetPos
	sheet := c.mustSheet(sp.Sheet)
	old := sheet.CellValueAt(sp.Pos)
	oldTable := sheet.Tables[sp.Pos]

	if oldCode, wasCode := old.(*grid.Code); wasCode {
		t.ReverseOps = append(t.ReverseOps, SetCodeCell{SheetPos: sp, Code: oldCode, Table: oldTable})
	} else {
		t.ReverseOps = append(t.ReverseOps, SetCellValue{SheetPos: sp, Value: old})
	}

	if oldTable != nil {
		c.grid.UnregisterTable(oldTable)
	}
	sheet.SetCellValue(sp.Pos, o.Code)
	sheet.SetTable(sp.Pos, o.Table)
	if o.Table != nil {
		c.grid.RegisterTable(sheet, sp.Pos, o.Table)
	}
	sheet.CheckSpills()
	c.grid.SyncBounds(sheet)

	affected := a1.SingleRect(sp.Pos)
	if oldTable != nil {
		affected = affected.Union(oldTable.Footprint(sp.Pos))
	}
	if o.Table != nil {
		affected = affected.Union(o.Table.Footprint(sp.Pos))
	}
	rect := a1.SheetRect{Sheet: sp.Sheet, Rect: affected}
	t.markCellsUpdated(rect)
	t.Summary.CodeCellsModified[sp.Sheet] = true
	t.Summary.markThumbnail(c.grid.FirstSheetID(), rect)
}

// enqueueCompute adds an anchor to the compute queue. Re-adding a
// pending anchor is a no-op. Re-adding one that already ran is
// allowed — a cell downstream of several dirty cells legitimately
// runs again — but only up to the cycle bound: in an acyclic graph a
// cell cannot run more often than there are code cells, so exceeding
// that bound means a circular reference.
func (t *Transaction) enqueueCompute(sp a1.SheetPos) bool {
	if t.pending[sp] {
		return true
	}
	if limit := t.cycleLimit(); t.visited[sp] >= limit {
		return false
	}
	t.pending[sp] = true
	t.CellsToCompute = append(t.CellsToCompute, sp)
	return true
}

func (t *Transaction) cycleLimit() int {
	limit := len(t.visited) + 1
	if limit < 4 {
		limit = 4
	}
	return limit
}

// drainUpdated converts updated regions into newly dirty code cells.
func (c *GridController) drainUpdated(t *Transaction) {
	for len(t.CellsUpdated) > 0 {
		region := t.CellsUpdated[0]
		t.CellsUpdated = t.CellsUpdated[1:]
		for _, dep := range c.dependentCells(region) {
			if !t.enqueueCompute(dep) {
				c.installCycleError(t, dep)
			}
		}
	}
}

// dependentCells finds every code-cell anchor whose cells_accessed
// intersects the region.
func (c *GridController) dependentCells(region a1.SheetRect) []a1.SheetPos {
	var out []a1.SheetPos
	for _, sheet := range c.grid.Sheets() {
		for anchor, table := range sheet.Tables {
			if table.Run == nil {
				continue
			}
			if table.Run.CellsAccessed.Intersects(c.grid.Ctx, region) {
				out = append(out, a1.SheetPos{Sheet: sheet.ID, Pos: anchor})
			}
		}
	}
	return out
}

// runComputeLoop drains the dirty set, evaluating formula cells
// in-process and suspending on the first external code cell.
func (c *GridController) runComputeLoop(t *Transaction) {
	for {
		c.drainUpdated(t)
		if len(t.CellsToCompute) == 0 {
			t.Complete = true
			return
		}
		sp := t.CellsToCompute[0]
		t.CellsToCompute = t.CellsToCompute[1:]
		delete(t.pending, sp)
		t.visited[sp]++

		sheet, ok := c.grid.Sheet(sp.Sheet)
		if !ok {
			continue
		}
		code, isCode := sheet.CellValueAt(sp.Pos).(*grid.Code)
		if !isCode {
			continue
		}
		if code.Lang == grid.LangFormula {
			c.runFormulaCell(t, sp, code)
			continue
		}
		lang := code.Lang
		t.CurrentSheetPos = &sp
		t.WaitingForAsync = &lang
		t.HasAsync = true
		if c.runtime != nil {
			c.runtime.Execute(sp, lang, code.Source)
		}
		return
	}
}

// runFormulaCell evaluates a formula synchronously and installs its
// output table.
func (c *GridController) runFormulaCell(t *Transaction, sp a1.SheetPos, code *grid.Code) {
	sheet := c.mustSheet(sp.Sheet)
	oldTable := sheet.Tables[sp.Pos]

	run := &grid.CodeRun{
		Lang:         grid.LangFormula,
		Source:       code.Source,
		LastModified: time.Now(),
	}
	if oldTable != nil && oldTable.Run != nil {
		run.SetCachedAST(oldTable.Run.CachedAST())
	}

	var value [][]grid.CellValue
	expr := run.CachedAST()
	if expr == nil {
		parsed, err := parser.Parse(code.Source, sp.Sheet, c.grid.Ctx)
		if err != nil {
			span := &grid.Span{}
			if perr, ok := err.(*parser.ParseError); ok {
				span.Start, span.End = perr.Span()
			}
			run.Err = &grid.Error{ErrKind: grid.ErrParse, Msg: err.Error(), Span: span}
			value = [][]grid.CellValue{{run.Err}}
			c.installCodeOutput(t, sp, code, run, value)
			return
		}
		expr = parsed
		run.SetCachedAST(parsed)
	}

	e := formula.NewEvaluator(c.grid, sp.Sheet, sp.Pos)
	result := e.Eval(expr.(astExpr))
	run.CellsAccessed = *e.Accessed
	value = formula.ToCellGrid(result)
	c.installCodeOutput(t, sp, code, run, value)
}

// installCodeOutput replaces the output table at an anchor and
// finalizes: summary, dirty rects, spill checks and the updated set.
func (c *GridController) installCodeOutput(t *Transaction, sp a1.SheetPos, code *grid.Code, run *grid.CodeRun, value [][]grid.CellValue) {
	sheet := c.mustSheet(sp.Sheet)
	oldTable := sheet.Tables[sp.Pos]

	name := ""
	if oldTable != nil {
		name = oldTable.Name
		c.grid.UnregisterTable(oldTable)
	}
	if name == "" {
		name = sheet.UniqueTableName("Table")
	}
	table := &grid.DataTable{
		Kind:         grid.TableFromCode,
		Name:         name,
		Value:        value,
		LastModified: time.Now(),
		Run:          run,
	}
	if oldTable != nil {
		table.HeaderIsFirst = oldTable.HeaderIsFirst
		table.ShowHeader = oldTable.ShowHeader
		table.SortBy = oldTable.SortBy
	}
	sheet.SetTable(sp.Pos, table)
	table.Sort()
	c.grid.RegisterTable(sheet, sp.Pos, table)
	sheet.CheckSpills()
	c.grid.SyncBounds(sheet)

	affected := table.Footprint(sp.Pos)
	if oldTable != nil {
		affected = affected.Union(oldTable.Footprint(sp.Pos))
	}
	rect := a1.SheetRect{Sheet: sp.Sheet, Rect: affected}
	t.markCellsUpdated(rect)
	t.Summary.CodeCellsModified[sp.Sheet] = true
	t.Summary.markThumbnail(c.grid.FirstSheetID(), rect)
	for _, row := range value {
		for _, cell := range row {
			switch cell.(type) {
			case *grid.Html:
				t.Summary.Html[sp.Sheet] = true
			case *grid.Image:
				t.Summary.Image[sp.Sheet] = true
			}
		}
	}
}

// installCycleError poisons a revisited code cell with a cycle error.
func (c *GridController) installCycleError(t *Transaction, sp a1.SheetPos) {
	sheet, ok := c.grid.Sheet(sp.Sheet)
	if !ok {
		return
	}
	code, isCode := sheet.CellValueAt(sp.Pos).(*grid.Code)
	if !isCode {
		return
	}
	run := &grid.CodeRun{
		Lang:         code.Lang,
		Source:       code.Source,
		LastModified: time.Now(),
		Err:          grid.NewErrorMsg(grid.ErrCycle, "circular reference"),
	}
	value := [][]grid.CellValue{{run.Err}}
	c.installCodeOutput(t, sp, code, run, value)
	// Deliberately not re-enqueued: the cycle stops here.
}

// AfterCalculationAsync resumes a transaction suspended on an
// external code cell. Calling it with no pending async is a
// programming error.
func (c *GridController) AfterCalculationAsync(result CodeResult) *TransactionSummary {
	t := c.active
	if t == nil || t.Complete || t.WaitingForAsync == nil || t.CurrentSheetPos == nil {
		panic("controller: AfterCalculationAsync without a pending async code cell")
	}
	sp := *t.CurrentSheetPos
	lang := *t.WaitingForAsync
	t.CurrentSheetPos = nil
	t.WaitingForAsync = nil

	if result.Cancelled {
		// Keep the previous output and carry on.
		c.runComputeLoop(t)
		if !t.Complete {
			return t.Summary
		}
		return c.finishTransaction(t)
	}

	sheet := c.mustSheet(sp.Sheet)
	code, isCode := sheet.CellValueAt(sp.Pos).(*grid.Code)
	if !isCode {
		code = &grid.Code{Lang: lang}
	}
	if result.FormattedCode != "" && result.FormattedCode != code.Source {
		code = &grid.Code{Lang: lang, Source: result.FormattedCode}
		sheet.SetCellValue(sp.Pos, code)
	}

	run := &grid.CodeRun{
		Lang:         lang,
		Source:       code.Source,
		StdOut:       result.StdOut,
		StdErr:       result.StdErr,
		LastModified: time.Now(),
	}
	for _, refText := range result.CellsAccessed {
		if ref, err := a1.ParseRange(refText, sp.Sheet, c.grid.Ctx); err == nil {
			run.CellsAccessed.Add(ref)
		}
	}

	var value [][]grid.CellValue
	switch {
	case !result.Success:
		run.Err = grid.NewErrorMsg(asyncErrorKind(lang), result.ErrorMsg)
		if result.LineNumber != nil {
			run.Err.Span = &grid.Span{Start: int(*result.LineNumber), End: int(*result.LineNumber)}
		}
		value = [][]grid.CellValue{{run.Err}}
	case len(result.ArrayOutput) > 0:
		for _, row := range result.ArrayOutput {
			cells := make([]grid.CellValue, len(row))
			for i, raw := range row {
				cells[i] = grid.ParseUserInput(raw)
			}
			value = append(value, cells)
		}
	default:
		value = [][]grid.CellValue{{grid.ParseUserInput(result.OutputValue)}}
	}

	c.installCodeOutput(t, sp, code, run, value)
	c.runComputeLoop(t)
	if !t.Complete {
		return t.Summary
	}
	return c.finishTransaction(t)
}

// asyncErrorKind maps a language to its user-facing error category.
func asyncErrorKind(lang grid.Language) grid.ErrorKind {
	switch lang {
	case grid.LangPython:
		return grid.ErrorKind("PythonError")
	case grid.LangJavascript:
		return grid.ErrorKind("JavascriptError")
	case grid.LangConnection:
		return grid.ErrorKind("ConnectionError")
	}
	return grid.ErrParse
}

// astExpr matches the formula parser's expression type without
// importing it here under another name.
type astExpr = formula.Expr
