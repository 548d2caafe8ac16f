package controller

import (
	"testing"

	"tally/a1"
	"tally/grid"
)

func pos(x, y int64) a1.Pos { return a1.Pos{X: x, Y: y} }

func sheetPos(c *GridController, x, y int64) a1.SheetPos {
	return a1.SheetPos{Sheet: c.Grid().FirstSheetID(), Pos: pos(x, y)}
}

func displayAt(c *GridController, x, y int64) string {
	return c.Grid().DisplayValue(sheetPos(c, x, y)).Display()
}

// fakeRuntime collects Execute calls so tests can answer them
// manually through AfterCalculationAsync.
type fakeRuntime struct {
	calls []a1.SheetPos
}

func (r *fakeRuntime) Execute(pos a1.SheetPos, lang grid.Language, source string) {
	r.calls = append(r.calls, pos)
}

func TestFormulaRecalcOnEdit(t *testing.T) {
	c := NewGridController()
	c.SetCellText(sheetPos(c, 1, 1), "10")
	c.SetCellText(sheetPos(c, 1, 2), "=A1 + 1")

	if got := displayAt(c, 1, 2); got != "11" {
		t.Fatalf("A2 shows %q", got)
	}
	// Clearing A1 reruns the dependent; blank coerces to zero.
	c.SetCellText(sheetPos(c, 1, 1), "")
	if got := displayAt(c, 1, 2); got != "1" {
		t.Fatalf("A2 after clear shows %q", got)
	}
}

func TestFormulaChainRecalc(t *testing.T) {
	c := NewGridController()
	c.SetCellText(sheetPos(c, 1, 1), "10")
	c.SetCellText(sheetPos(c, 2, 1), "=A1 + 1")
	c.SetCellText(sheetPos(c, 3, 1), "=B1 + 1")

	if got := displayAt(c, 3, 1); got != "12" {
		t.Fatalf("C1 shows %q", got)
	}
	c.SetCellText(sheetPos(c, 1, 1), "1")
	if got := displayAt(c, 2, 1); got != "2" {
		t.Fatalf("B1 shows %q", got)
	}
	if got := displayAt(c, 3, 1); got != "3" {
		t.Fatalf("C1 shows %q", got)
	}
}

func TestAsyncCodeCellLifecycle(t *testing.T) {
	c := NewGridController()
	rt := &fakeRuntime{}
	c.SetRuntime(rt)

	anchor := sheetPos(c, 2, 2) // B2
	summary := c.StartUserTransaction([]Operation{ComputeCodeCell{
		SheetPos: anchor,
		Code:     &grid.Code{Lang: grid.LangPython, Source: "[1,2,3,4,5]"},
	}}, "")
	if summary == nil || !c.TransactionInProgress() {
		t.Fatalf("expected suspended transaction")
	}
	if len(rt.calls) != 1 || rt.calls[0] != anchor {
		t.Fatalf("runtime not invoked: %#v", rt.calls)
	}

	c.AfterCalculationAsync(CodeResult{
		Success:     true,
		ArrayOutput: [][]string{{"1", "2", "3", "4", "5"}},
	})
	if c.TransactionInProgress() {
		t.Fatalf("transaction should be complete")
	}
	// Footprint B2:F2.
	for i, want := range []string{"1", "2", "3", "4", "5"} {
		if got := displayAt(c, 2+int64(i), 2); got != want {
			t.Fatalf("cell %d shows %q, want %q", i, got, want)
		}
	}

	// Replace with a shorter output: E2 and F2 clear.
	c.StartUserTransaction([]Operation{ComputeCodeCell{
		SheetPos: anchor,
		Code:     &grid.Code{Lang: grid.LangPython, Source: "[1,2,3]"},
	}}, "")
	c.AfterCalculationAsync(CodeResult{
		Success:     true,
		ArrayOutput: [][]string{{"1", "2", "3"}},
	})
	if got := displayAt(c, 4, 2); got != "3" {
		t.Fatalf("D2 shows %q", got)
	}
	for _, x := range []int64{5, 6} {
		if got := displayAt(c, x, 2); got != "" {
			t.Fatalf("column %d should be blank, shows %q", x, got)
		}
	}
}

func TestAsyncErrorInstallsErrorOutput(t *testing.T) {
	c := NewGridController()
	c.StartUserTransaction([]Operation{ComputeCodeCell{
		SheetPos: sheetPos(c, 1, 1),
		Code:     &grid.Code{Lang: grid.LangPython, Source: "boom"},
	}}, "")
	line := int64(3)
	c.AfterCalculationAsync(CodeResult{Success: false, ErrorMsg: "NameError", LineNumber: &line})
	if c.TransactionInProgress() {
		t.Fatalf("a user-level error still commits the transaction")
	}
	if got := displayAt(c, 1, 1); got != "PythonError" {
		t.Fatalf("anchor shows %q", got)
	}
}

func TestAsyncCancelKeepsPreviousOutput(t *testing.T) {
	c := NewGridController()
	anchor := sheetPos(c, 1, 1)
	c.StartUserTransaction([]Operation{ComputeCodeCell{
		SheetPos: anchor,
		Code:     &grid.Code{Lang: grid.LangPython, Source: "1"},
	}}, "")
	c.AfterCalculationAsync(CodeResult{Success: true, OutputValue: "1"})
	if got := displayAt(c, 1, 1); got != "1" {
		t.Fatalf("got %q", got)
	}

	c.StartUserTransaction([]Operation{ComputeCodeCell{
		SheetPos: anchor,
		Code:     &grid.Code{Lang: grid.LangPython, Source: "2"},
	}}, "")
	c.AfterCalculationAsync(CodeResult{Cancelled: true})
	if c.TransactionInProgress() {
		t.Fatalf("cancelled run should complete the transaction")
	}
	if got := displayAt(c, 1, 1); got != "1" {
		t.Fatalf("previous output should survive, got %q", got)
	}
}

func TestAfterCalculationAsyncWithoutPendingPanics(t *testing.T) {
	c := NewGridController()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	c.AfterCalculationAsync(CodeResult{Success: true})
}

func TestAsyncDependencyRerun(t *testing.T) {
	c := NewGridController()
	// A formula depending on a python cell's output.
	c.StartUserTransaction([]Operation{ComputeCodeCell{
		SheetPos: sheetPos(c, 1, 1),
		Code:     &grid.Code{Lang: grid.LangPython, Source: "10"},
	}}, "")
	c.AfterCalculationAsync(CodeResult{Success: true, OutputValue: "10", CellsAccessed: nil})
	c.SetCellText(sheetPos(c, 2, 1), "=A1 * 2")
	if got := displayAt(c, 2, 1); got != "20" {
		t.Fatalf("B1 shows %q", got)
	}

	// Re-running the python cell reruns the dependent formula.
	c.StartUserTransaction([]Operation{ComputeCodeCell{
		SheetPos: sheetPos(c, 1, 1),
		Code:     &grid.Code{Lang: grid.LangPython, Source: "21"},
	}}, "")
	c.AfterCalculationAsync(CodeResult{Success: true, OutputValue: "21"})
	if got := displayAt(c, 2, 1); got != "42" {
		t.Fatalf("B1 shows %q after rerun", got)
	}
}

func TestCycleInstallsError(t *testing.T) {
	c := NewGridController()
	c.SetCellText(sheetPos(c, 1, 1), "=B1 + 1")
	c.SetCellText(sheetPos(c, 2, 1), "=A1 + 1")

	// One of the two must carry a cycle error; the loop terminates.
	a := displayAt(c, 1, 1)
	b := displayAt(c, 2, 1)
	if a != "#CYCLE!" && b != "#CYCLE!" {
		t.Fatalf("expected a cycle error, got A1=%q B1=%q", a, b)
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	c := NewGridController()
	c.SetCellText(sheetPos(c, 1, 1), "1")
	base, err := c.Grid().Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	c.StartUserTransaction([]Operation{
		SetCellValue{SheetPos: sheetPos(c, 1, 1), Value: grid.NumberFromInt(2)},
		SetCellValue{SheetPos: sheetPos(c, 2, 2), Value: &grid.Text{Value: "x"}},
	}, "")
	after, err := c.Grid().Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	c.Undo("")
	undone, err := c.Grid().Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if string(undone) != string(base) {
		t.Fatalf("undo did not restore the base state")
	}

	c.Redo("")
	redone, err := c.Grid().Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if string(redone) != string(after) {
		t.Fatalf("redo did not restore the edited state")
	}

	c.Undo("")
	again, err := c.Grid().Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if string(again) != string(base) {
		t.Fatalf("undo after redo did not restore the base state")
	}
}

func TestUndoRestoresCodeCellAndTable(t *testing.T) {
	c := NewGridController()
	c.SetCellText(sheetPos(c, 1, 1), "5")
	c.SetCellText(sheetPos(c, 2, 1), "=A1 * 2")
	if got := displayAt(c, 2, 1); got != "10" {
		t.Fatalf("B1 shows %q", got)
	}

	// Overwrite the formula with a literal, then undo.
	c.SetCellText(sheetPos(c, 2, 1), "7")
	if got := displayAt(c, 2, 1); got != "7" {
		t.Fatalf("B1 shows %q", got)
	}
	c.Undo("")
	if got := displayAt(c, 2, 1); got != "10" {
		t.Fatalf("B1 after undo shows %q", got)
	}
	// The restored code cell is still live: editing A1 reruns it.
	c.SetCellText(sheetPos(c, 1, 1), "6")
	if got := displayAt(c, 2, 1); got != "12" {
		t.Fatalf("B1 after edit shows %q", got)
	}
}

func TestNewTransactionClearsRedo(t *testing.T) {
	c := NewGridController()
	c.SetCellText(sheetPos(c, 1, 1), "1")
	c.Undo("")
	if c.RedoDepth() != 1 {
		t.Fatalf("redo depth %d", c.RedoDepth())
	}
	c.SetCellText(sheetPos(c, 1, 1), "2")
	if c.RedoDepth() != 0 {
		t.Fatalf("redo should clear on a new user transaction")
	}
}

func TestInsertColumnAdjustsFormulaAndQCells(t *testing.T) {
	c := NewGridController()
	sheetID := c.Grid().FirstSheetID()
	c.SetCellText(sheetPos(c, 8, 8), "=A1 + C2 * $D$3 + E:E")
	c.StartUserTransaction([]Operation{ComputeCodeCell{
		SheetPos: sheetPos(c, 9, 9),
		Code:     &grid.Code{Lang: grid.LangPython, Source: `q.cells("A1:C3")`},
	}}, "")
	c.AfterCalculationAsync(CodeResult{Success: true, OutputValue: "0"})

	c.StartUserTransaction([]Operation{InsertColumn{Sheet: sheetID, Index: 2}}, "")

	sheet := c.Grid().MustSheet(sheetID)
	formulaCell := sheet.CellValueAt(pos(9, 8)).(*grid.Code) // shifted right by one
	if formulaCell.Source != "A1 + D2 * $E$3 + F:F" {
		t.Fatalf("formula source %q", formulaCell.Source)
	}
	pyCell := sheet.CellValueAt(pos(10, 9)).(*grid.Code)
	if pyCell.Source != `q.cells("A1:D3")` {
		t.Fatalf("python source %q", pyCell.Source)
	}
}

func TestRenameSheetRewritesReferences(t *testing.T) {
	c := NewGridController()
	first := c.Grid().FirstSheetID()
	c.StartUserTransaction([]Operation{CreateSheet{Name: "Data"}}, "")
	data, _ := c.Grid().SheetByName("Data")
	c.StartUserTransaction([]Operation{SetCellValue{
		SheetPos: a1.SheetPos{Sheet: data.ID, Pos: pos(1, 1)},
		Value:    grid.NumberFromInt(5),
	}}, "")
	c.StartUserTransaction([]Operation{ComputeCodeCell{
		SheetPos: a1.SheetPos{Sheet: first, Pos: pos(1, 1)},
		Code:     &grid.Code{Lang: grid.LangFormula, Source: "Data!A1 + 1"},
	}}, "")
	if got := displayAt(c, 1, 1); got != "6" {
		t.Fatalf("got %q", got)
	}

	c.StartUserTransaction([]Operation{RenameSheet{Sheet: data.ID, Name: "Ledger"}}, "")
	sheet := c.Grid().MustSheet(first)
	code := sheet.CellValueAt(pos(1, 1)).(*grid.Code)
	if code.Source != "Ledger!A1 + 1" {
		t.Fatalf("source %q", code.Source)
	}
	// The cached output is still valid; no recompute happened, and the
	// display is unchanged.
	if got := displayAt(c, 1, 1); got != "6" {
		t.Fatalf("display after rename %q", got)
	}
}

func TestDeleteColumnUndoRestoresContents(t *testing.T) {
	c := NewGridController()
	sheetID := c.Grid().FirstSheetID()
	c.SetCellText(sheetPos(c, 2, 1), "keep")
	c.SetCellText(sheetPos(c, 2, 2), "42")

	c.StartUserTransaction([]Operation{DeleteColumn{Sheet: sheetID, Index: 2}}, "")
	if got := displayAt(c, 2, 1); got != "" {
		t.Fatalf("B1 shows %q after delete", got)
	}
	c.Undo("")
	if got := displayAt(c, 2, 1); got != "keep" {
		t.Fatalf("B1 shows %q after undo", got)
	}
	if got := displayAt(c, 2, 2); got != "42" {
		t.Fatalf("B2 shows %q after undo", got)
	}
}

func TestSpillErrorOnOccupiedFootprint(t *testing.T) {
	c := NewGridController()
	c.SetCellText(sheetPos(c, 3, 1), "busy") // C1
	c.SetCellText(sheetPos(c, 1, 1), "={1,2,3}")

	if got := displayAt(c, 1, 1); got != "#SPILL!" {
		t.Fatalf("anchor shows %q", got)
	}
	if got := displayAt(c, 3, 1); got != "busy" {
		t.Fatalf("literal shows %q", got)
	}
	// The code run is preserved for editing.
	sheet := c.Grid().MustSheet(c.Grid().FirstSheetID())
	table := sheet.Tables[pos(1, 1)]
	if table == nil || !table.SpillError || table.Run == nil {
		t.Fatalf("spilled table must keep its run: %#v", table)
	}

	// Clearing the blocker resolves the spill right away: the edit
	// re-checks spills without rerunning the code cell.
	c.SetCellText(sheetPos(c, 3, 1), "")
	if got := displayAt(c, 1, 1); got != "1" {
		t.Fatalf("anchor shows %q after unblocking", got)
	}
	if got := displayAt(c, 3, 1); got != "3" {
		t.Fatalf("C1 shows %q after unblocking", got)
	}
}

func TestImportTableOperation(t *testing.T) {
	c := NewGridController()
	values := [][]grid.CellValue{
		{&grid.Text{Value: "name"}, &grid.Text{Value: "n"}},
		{&grid.Text{Value: "a"}, grid.NumberFromInt(1)},
		{&grid.Text{Value: "b"}, grid.NumberFromInt(2)},
	}
	c.StartUserTransaction([]Operation{ImportTable{
		SheetPos: sheetPos(c, 1, 1),
		Name:     "People",
		Values:   values,
	}}, "")

	if got := displayAt(c, 1, 1); got != "name" {
		t.Fatalf("header shows %q", got)
	}
	if got := displayAt(c, 2, 3); got != "2" {
		t.Fatalf("data shows %q", got)
	}
	// Table references resolve against the imported table.
	c.SetCellText(sheetPos(c, 4, 1), "=SUM(People[n])")
	if got := displayAt(c, 4, 1); got != "3" {
		t.Fatalf("SUM over table column shows %q", got)
	}
	c.Undo("") // undo the formula
	c.Undo("") // undo the import
	if got := displayAt(c, 1, 1); got != "" {
		t.Fatalf("undo left %q", got)
	}
}

func TestRenameTableRewritesReferences(t *testing.T) {
	c := NewGridController()
	values := [][]grid.CellValue{
		{&grid.Text{Value: "n"}},
		{grid.NumberFromInt(4)},
	}
	c.StartUserTransaction([]Operation{ImportTable{
		SheetPos: sheetPos(c, 1, 1),
		Name:     "Tbl",
		Values:   values,
	}}, "")
	c.SetCellText(sheetPos(c, 3, 1), "=SUM(Tbl[n])")
	if got := displayAt(c, 3, 1); got != "4" {
		t.Fatalf("got %q", got)
	}

	c.StartUserTransaction([]Operation{RenameDataTable{
		SheetPos: sheetPos(c, 1, 1),
		Name:     "Facts",
	}}, "")
	sheet := c.Grid().MustSheet(c.Grid().FirstSheetID())
	code := sheet.CellValueAt(pos(3, 1)).(*grid.Code)
	if code.Source != "SUM(Facts[n])" {
		t.Fatalf("source %q", code.Source)
	}
}

func TestSortDataTablePermutation(t *testing.T) {
	c := NewGridController()
	values := [][]grid.CellValue{
		{&grid.Text{Value: "n"}},
		{grid.NumberFromInt(3)},
		{grid.NumberFromInt(1)},
		{grid.NumberFromInt(2)},
	}
	c.StartUserTransaction([]Operation{ImportTable{
		SheetPos: sheetPos(c, 1, 1),
		Name:     "T",
		Values:   values,
	}}, "")
	c.StartUserTransaction([]Operation{SortDataTable{
		SheetPos: sheetPos(c, 1, 1),
		SortBy:   []grid.SortSpec{{ColumnIndex: 0, Direction: grid.SortAscending}},
	}}, "")

	for i, want := range []string{"1", "2", "3"} {
		if got := displayAt(c, 1, int64(i+2)); got != want {
			t.Fatalf("row %d shows %q, want %q", i, got, want)
		}
	}
	c.Undo("")
	for i, want := range []string{"3", "1", "2"} {
		if got := displayAt(c, 1, int64(i+2)); got != want {
			t.Fatalf("after undo row %d shows %q, want %q", i, got, want)
		}
	}
}

func TestValidationOps(t *testing.T) {
	c := NewGridController()
	sheetID := c.Grid().FirstSheetID()
	sel := a1.SelectionFromRect(a1.SheetRect{Sheet: sheetID, Rect: a1.NewRect(pos(1, 1), pos(1, 10))})
	c.StartUserTransaction([]Operation{SetValidation{
		Sheet: sheetID,
		ID:    "v1",
		Validation: &grid.Validation{
			ID:        "v1",
			Selection: sel,
			Kind:      grid.ValidationList,
			List:      []string{"yes", "no"},
			ShowError: true,
		},
	}}, "")

	sheet := c.Grid().MustSheet(sheetID)
	rule := sheet.Validations.RuleFor(c.Grid().Ctx, sheetPos(c, 1, 5))
	if rule == nil || rule.ID != "v1" {
		t.Fatalf("rule not found")
	}
	if rule.Check(&grid.Text{Value: "maybe"}) {
		t.Fatalf("rule should reject")
	}

	c.StartUserTransaction([]Operation{SetValidationWarning{
		SheetPos: sheetPos(c, 1, 5),
		ID:       "v1",
	}}, "")
	if sheet.Validations.Warnings[pos(1, 5)] != "v1" {
		t.Fatalf("warning missing")
	}
	c.Undo("")
	if _, ok := sheet.Validations.Warnings[pos(1, 5)]; ok {
		t.Fatalf("warning should clear on undo")
	}
}

func TestAbortTransactionRollsBack(t *testing.T) {
	c := NewGridController()
	c.SetCellText(sheetPos(c, 1, 1), "1")
	c.StartUserTransaction([]Operation{ComputeCodeCell{
		SheetPos: sheetPos(c, 2, 1),
		Code:     &grid.Code{Lang: grid.LangPython, Source: "long_running()"},
	}}, "")
	if !c.TransactionInProgress() {
		t.Fatalf("expected suspension")
	}
	c.AbortTransaction()
	if c.TransactionInProgress() {
		t.Fatalf("abort should idle the engine")
	}
	if got := displayAt(c, 2, 1); got != "" {
		t.Fatalf("aborted cell shows %q", got)
	}
	if got := displayAt(c, 1, 1); got != "1" {
		t.Fatalf("unrelated cell shows %q", got)
	}
}

func TestMergeUnmergeRoundTrip(t *testing.T) {
	c := NewGridController()
	sheetID := c.Grid().FirstSheetID()
	rect := a1.NewRect(pos(1, 1), pos(2, 2))
	c.StartUserTransaction([]Operation{MergeCells{Sheet: sheetID, Rect: rect}}, "")
	sheet := c.Grid().MustSheet(sheetID)
	if len(sheet.Merged) != 1 {
		t.Fatalf("merge missing")
	}
	c.Undo("")
	if len(sheet.Merged) != 0 {
		t.Fatalf("undo left a merge")
	}
	c.Redo("")
	if len(sheet.Merged) != 1 {
		t.Fatalf("redo lost the merge")
	}
}

func TestDependencyCompleteness(t *testing.T) {
	c := NewGridController()
	// Three dependents of A1 in different shapes.
	c.SetCellText(sheetPos(c, 1, 1), "2")
	c.SetCellText(sheetPos(c, 2, 1), "=A1")
	c.SetCellText(sheetPos(c, 3, 1), "=SUM(A1:A5)")
	c.SetCellText(sheetPos(c, 4, 1), "=A1 + B1")

	c.SetCellText(sheetPos(c, 1, 1), "3")
	if got := displayAt(c, 2, 1); got != "3" {
		t.Fatalf("B1 %q", got)
	}
	if got := displayAt(c, 3, 1); got != "3" {
		t.Fatalf("C1 %q", got)
	}
	if got := displayAt(c, 4, 1); got != "6" {
		t.Fatalf("D1 %q", got)
	}
}
