package grid

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tally/a1"
)

func num(v int64) *Number { return NumberFromInt(v) }

func TestSetAndDisplayLiteral(t *testing.T) {
	g := NewGrid()
	sheet := g.MustSheet(g.FirstSheetID())
	pos := a1.Pos{X: 1, Y: 1}

	old := sheet.SetCellValue(pos, num(10))
	if !IsBlank(old) {
		t.Fatalf("expected blank previous value, got %#v", old)
	}
	if got := sheet.DisplayValue(pos).Display(); got != "10" {
		t.Fatalf("got %q", got)
	}

	old = sheet.SetCellValue(pos, BlankValue)
	if old.Display() != "10" {
		t.Fatalf("expected old value 10, got %q", old.Display())
	}
	if !IsBlank(sheet.DisplayValue(pos)) {
		t.Fatalf("expected blank after clear")
	}
	if len(sheet.Columns) != 0 {
		t.Fatalf("empty column should be compacted")
	}
}

func TestParseUserInput(t *testing.T) {
	cases := map[string]Kind{
		"10":         NUMBER,
		"3.5":        NUMBER,
		"1,234":      NUMBER,
		"50%":        NUMBER,
		"true":       LOGICAL,
		"FALSE":      LOGICAL,
		"hello":      TEXT,
		"1/5/2024":   DATE,
		"4:35 PM":    TIME,
		"1/5/24 4pm": DATETIME,
	}
	for in, want := range cases {
		if got := ParseUserInput(in).Kind(); got != want {
			t.Fatalf("%q: got %v, want %v", in, got, want)
		}
	}
	pct := ParseUserInput("50%").(*Number)
	if !pct.Value.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("50%% parsed to %s", pct.Value)
	}
}

func newTable(name string, rows ...[]CellValue) *DataTable {
	return &DataTable{
		Kind:         TableFromCode,
		Name:         name,
		Value:        rows,
		LastModified: time.Now(),
	}
}

func TestTablePrecedenceOverLiteral(t *testing.T) {
	g := NewGrid()
	sheet := g.MustSheet(g.FirstSheetID())
	anchor := a1.Pos{X: 2, Y: 2}

	table := newTable("Table1", []CellValue{num(1), num(2), num(3)})
	sheet.SetTable(anchor, table)
	sheet.CheckSpills()
	if table.SpillError {
		t.Fatalf("unexpected spill")
	}
	if got := sheet.DisplayValue(a1.Pos{X: 4, Y: 2}).Display(); got != "3" {
		t.Fatalf("got %q", got)
	}
}

func TestSpillExclusivity(t *testing.T) {
	g := NewGrid()
	sheet := g.MustSheet(g.FirstSheetID())

	first := newTable("Table1", []CellValue{num(1), num(2), num(3)})
	sheet.SetTable(a1.Pos{X: 1, Y: 1}, first)
	second := newTable("Table2", []CellValue{num(4), num(5), num(6)})
	second.LastModified = first.LastModified.Add(time.Second)
	sheet.SetTable(a1.Pos{X: 2, Y: 1}, second)
	sheet.CheckSpills()

	if first.SpillError {
		t.Fatalf("first table should not spill")
	}
	if !second.SpillError {
		t.Fatalf("second table must be in spill error")
	}
	// The healthy table keeps the contested position.
	if got := sheet.DisplayValue(a1.Pos{X: 2, Y: 1}).Display(); got != "2" {
		t.Fatalf("contested cell shows %q", got)
	}
	// Verify invariant: no display position has two non-spilled tables.
	count := 0
	for anchor, table := range sheet.Tables {
		if !table.SpillError && table.Footprint(anchor).Contains(a1.Pos{X: 2, Y: 1}) {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one non-spilled table at B1, got %d", count)
	}
}

func TestSpillAgainstLiteral(t *testing.T) {
	g := NewGrid()
	sheet := g.MustSheet(g.FirstSheetID())
	sheet.SetCellValue(a1.Pos{X: 3, Y: 1}, &Text{Value: "busy"})

	table := newTable("Table1", []CellValue{num(1), num(2), num(3)})
	sheet.SetTable(a1.Pos{X: 1, Y: 1}, table)
	sheet.CheckSpills()
	if !table.SpillError {
		t.Fatalf("expected spill against literal")
	}
	if got := sheet.DisplayValue(a1.Pos{X: 1, Y: 1}).Display(); got != "#SPILL!" {
		t.Fatalf("anchor shows %q", got)
	}
	if got := sheet.DisplayValue(a1.Pos{X: 3, Y: 1}).Display(); got != "busy" {
		t.Fatalf("literal shows %q", got)
	}
	// Clearing the literal resolves the spill.
	sheet.SetCellValue(a1.Pos{X: 3, Y: 1}, BlankValue)
	sheet.CheckSpills()
	if table.SpillError {
		t.Fatalf("spill should clear")
	}
}

func TestSortDisplayBufferIsPermutation(t *testing.T) {
	table := newTable("Table1",
		[]CellValue{&Text{Value: "name"}, &Text{Value: "n"}},
		[]CellValue{&Text{Value: "b"}, num(2)},
		[]CellValue{&Text{Value: "a"}, num(3)},
		[]CellValue{&Text{Value: "c"}, num(1)},
	)
	table.HeaderIsFirst = true
	table.SortBy = []SortSpec{{ColumnIndex: 0, Direction: SortAscending}}
	table.Sort()

	if len(table.DisplayBuffer) != 3 {
		t.Fatalf("buffer length %d", len(table.DisplayBuffer))
	}
	seen := map[int64]bool{}
	for _, idx := range table.DisplayBuffer {
		if idx < 0 || idx >= 3 || seen[idx] {
			t.Fatalf("not a permutation: %v", table.DisplayBuffer)
		}
		seen[idx] = true
	}
	// Display row 1 (below the pinned header) is "a".
	if got := table.ValueAt(0, 1).Display(); got != "a" {
		t.Fatalf("got %q", got)
	}
	if got := table.ValueAt(0, 3).Display(); got != "c" {
		t.Fatalf("got %q", got)
	}

	table.SortBy = []SortSpec{{ColumnIndex: 1, Direction: SortDescending}}
	table.Sort()
	if got := table.ValueAt(0, 1).Display(); got != "a" {
		t.Fatalf("desc by n: got %q", got)
	}
	table.SortBy = nil
	table.Sort()
	if table.DisplayBuffer != nil {
		t.Fatalf("clearing sort should clear buffer")
	}
}

func TestInsertDeleteColumnShiftsCells(t *testing.T) {
	g := NewGrid()
	sheet := g.MustSheet(g.FirstSheetID())
	sheet.SetCellValue(a1.Pos{X: 1, Y: 1}, num(1))
	sheet.SetCellValue(a1.Pos{X: 2, Y: 1}, num(2))
	sheet.SetCellValue(a1.Pos{X: 3, Y: 1}, num(3))

	sheet.InsertColumn(2, false)
	if got := sheet.CellValueAt(a1.Pos{X: 2, Y: 1}); !IsBlank(got) {
		t.Fatalf("inserted column should be blank, got %q", got.Display())
	}
	if got := sheet.CellValueAt(a1.Pos{X: 3, Y: 1}).Display(); got != "2" {
		t.Fatalf("shifted cell got %q", got)
	}
	sheet.DeleteColumn(2)
	for x, want := range map[int64]string{1: "1", 2: "2", 3: "3"} {
		if got := sheet.CellValueAt(a1.Pos{X: x, Y: 1}).Display(); got != want {
			t.Fatalf("column %d: got %q, want %q", x, got, want)
		}
	}
}

func TestInsertRowMovesTableAnchor(t *testing.T) {
	g := NewGrid()
	sheet := g.MustSheet(g.FirstSheetID())
	table := newTable("Table1", []CellValue{num(1)})
	sheet.SetTable(a1.Pos{X: 1, Y: 5}, table)

	sheet.InsertRow(3, false)
	if _, ok := sheet.Tables[a1.Pos{X: 1, Y: 6}]; !ok {
		t.Fatalf("anchor did not shift: %#v", sheet.Tables)
	}
}

func TestFormatLayerMerge(t *testing.T) {
	g := NewGrid()
	sheet := g.MustSheet(g.FirstSheetID())
	bold := true
	italic := true
	red := "#ff0000"
	sheet.SheetFormat = &Format{Bold: &bold}
	sheet.ColumnFormats[2] = &Format{TextColor: &red}
	sheet.RowFormats[3] = &Format{Italic: &italic}

	f := sheet.FormatAt(a1.Pos{X: 2, Y: 3})
	if f.Bold == nil || !*f.Bold || f.Italic == nil || !*f.Italic || f.TextColor == nil {
		t.Fatalf("merge missing layers: %#v", f)
	}

	// A cell override wins over every layer.
	blue := "#0000ff"
	sheet.ApplyCellFormat(a1.Pos{X: 2, Y: 3}, &Format{TextColor: &blue})
	f = sheet.FormatAt(a1.Pos{X: 2, Y: 3})
	if f.TextColor == nil || *f.TextColor != blue {
		t.Fatalf("cell override lost: %#v", f.TextColor)
	}
}

func TestReplaceCellFormatRoundTrip(t *testing.T) {
	g := NewGrid()
	sheet := g.MustSheet(g.FirstSheetID())
	pos := a1.Pos{X: 1, Y: 1}
	bold := true
	snapshot := sheet.CellFormatAt(pos).Clone()
	sheet.ApplyCellFormat(pos, &Format{Bold: &bold})
	old := sheet.ReplaceCellFormat(pos, snapshot)
	if old == nil || old.Bold == nil {
		t.Fatalf("replace returned %#v", old)
	}
	if f := sheet.FormatAt(pos); f.Bold != nil {
		t.Fatalf("restore failed: %#v", f)
	}
}

func TestBordersDualStoreCoherence(t *testing.T) {
	g := NewGrid()
	sheet := g.MustSheet(g.FirstSheetID())
	style := &BorderStyle{Color: "#000000", Line: BorderLine1}
	rect := a1.NewRect(a1.Pos{X: 2, Y: 2}, a1.Pos{X: 3, Y: 3})

	sheet.Borders.Apply(rect, BorderOuter, style)

	// Left outer edge: vertical boundary at x=2 rows 2..3.
	if _, ok := sheet.Borders.VerticalAt(2, 2); !ok {
		t.Fatalf("missing vertical line at x=2,y=2")
	}
	// Setting a cell's left side also set the neighbor's right side.
	neighbor := sheet.Borders.Get(a1.Pos{X: 1, Y: 2})
	if neighbor.Right == nil {
		t.Fatalf("neighbor right side not mirrored")
	}
	// Inner lines were not touched by outer.
	if _, ok := sheet.Borders.VerticalAt(3, 2); ok {
		t.Fatalf("unexpected inner vertical line")
	}

	sheet.Borders.Apply(rect, BorderClear, nil)
	if _, ok := sheet.Borders.VerticalAt(2, 2); ok {
		t.Fatalf("clear left a vertical line")
	}
	if got := sheet.Borders.Get(a1.Pos{X: 1, Y: 2}); got.Right != nil {
		t.Fatalf("clear left a mirrored side")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	g := NewGrid()
	sheet := g.MustSheet(g.FirstSheetID())
	sheet.SetCellValue(a1.Pos{X: 1, Y: 1}, num(42))
	sheet.SetCellValue(a1.Pos{X: 2, Y: 1}, &Text{Value: "hi"})
	sheet.SetCellValue(a1.Pos{X: 1, Y: 2}, &Logical{Value: true})
	sheet.SetCellValue(a1.Pos{X: 3, Y: 3}, &Code{Lang: LangPython, Source: "1+1"})
	table := newTable("Table1", []CellValue{num(1), num(2)})
	table.Run = &CodeRun{Lang: LangPython, Source: "1+1", LastModified: table.LastModified}
	sheet.SetTable(a1.Pos{X: 3, Y: 3}, table)
	bold := true
	sheet.ApplyCellFormat(a1.Pos{X: 1, Y: 1}, &Format{Bold: &bold})
	sheet.Borders.Apply(a1.SingleRect(a1.Pos{X: 1, Y: 1}), BorderAll, &BorderStyle{Color: "#000", Line: BorderLine1})

	first, err := g.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	imported, err := ImportGrid(first)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	second, err := imported.Export()
	if err != nil {
		t.Fatalf("re-export: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("round trip not stable:\n%s\n---\n%s", first, second)
	}
}

func TestImportRejectsUnknownVersion(t *testing.T) {
	if _, err := ImportGrid([]byte(`{"version": 99, "sheets": []}`)); err == nil {
		t.Fatalf("expected version error")
	}
}

func TestUniqueTableName(t *testing.T) {
	g := NewGrid()
	sheet := g.MustSheet(g.FirstSheetID())
	sheet.SetTable(a1.Pos{X: 1, Y: 1}, newTable("Table1", []CellValue{num(1)}))
	if got := sheet.UniqueTableName("Table1"); got != "Table11" {
		t.Fatalf("got %q", got)
	}
	if got := sheet.UniqueTableName("Other"); got != "Other" {
		t.Fatalf("got %q", got)
	}
}
