package controller

import (
	"testing"

	"tally/a1"
	"tally/grid"
)

func fill(c *GridController, sel, target a1.Rect) {
	c.StartUserTransaction([]Operation{Autocomplete{
		Sheet:     c.Grid().FirstSheetID(),
		Selection: sel,
		Range:     target,
	}}, "")
}

func TestAutocompleteArithmeticSeriesDown(t *testing.T) {
	c := NewGridController()
	c.SetCellText(sheetPos(c, 1, 1), "1")
	c.SetCellText(sheetPos(c, 1, 2), "3")

	fill(c, a1.NewRect(pos(1, 1), pos(1, 2)), a1.NewRect(pos(1, 1), pos(1, 5)))
	for i, want := range []string{"1", "3", "5", "7", "9"} {
		if got := displayAt(c, 1, int64(i+1)); got != want {
			t.Fatalf("row %d: got %q, want %q", i+1, got, want)
		}
	}
}

func TestAutocompleteSeriesUpRunsBackwards(t *testing.T) {
	c := NewGridController()
	c.SetCellText(sheetPos(c, 1, 4), "10")
	c.SetCellText(sheetPos(c, 1, 5), "20")

	fill(c, a1.NewRect(pos(1, 4), pos(1, 5)), a1.NewRect(pos(1, 1), pos(1, 5)))
	for i, want := range []string{"-20", "-10", "0", "10", "20"} {
		if got := displayAt(c, 1, int64(i+1)); got != want {
			t.Fatalf("row %d: got %q, want %q", i+1, got, want)
		}
	}
}

func TestAutocompleteGeometricSeries(t *testing.T) {
	c := NewGridController()
	c.SetCellText(sheetPos(c, 1, 1), "2")
	c.SetCellText(sheetPos(c, 1, 2), "6")
	c.SetCellText(sheetPos(c, 1, 3), "18")

	fill(c, a1.NewRect(pos(1, 1), pos(1, 3)), a1.NewRect(pos(1, 1), pos(1, 5)))
	if got := displayAt(c, 1, 4); got != "54" {
		t.Fatalf("got %q", got)
	}
	if got := displayAt(c, 1, 5); got != "162" {
		t.Fatalf("got %q", got)
	}
}

func TestAutocompleteWeekdays(t *testing.T) {
	c := NewGridController()
	c.SetCellText(sheetPos(c, 1, 1), "Fri")
	c.SetCellText(sheetPos(c, 1, 2), "Sat")

	fill(c, a1.NewRect(pos(1, 1), pos(1, 2)), a1.NewRect(pos(1, 1), pos(1, 5)))
	for i, want := range []string{"Fri", "Sat", "Sun", "Mon", "Tue"} {
		if got := displayAt(c, 1, int64(i+1)); got != want {
			t.Fatalf("row %d: got %q, want %q", i+1, got, want)
		}
	}
}

func TestAutocompleteMonthsWrapAndCase(t *testing.T) {
	c := NewGridController()
	c.SetCellText(sheetPos(c, 1, 1), "NOV")
	c.SetCellText(sheetPos(c, 2, 1), "DEC")

	fill(c, a1.NewRect(pos(1, 1), pos(2, 1)), a1.NewRect(pos(1, 1), pos(4, 1)))
	if got := displayAt(c, 3, 1); got != "JAN" {
		t.Fatalf("got %q", got)
	}
	if got := displayAt(c, 4, 1); got != "FEB" {
		t.Fatalf("got %q", got)
	}
}

func TestAutocompleteCyclicRepeat(t *testing.T) {
	c := NewGridController()
	c.SetCellText(sheetPos(c, 1, 1), "red")
	c.SetCellText(sheetPos(c, 1, 2), "blue")

	fill(c, a1.NewRect(pos(1, 1), pos(1, 2)), a1.NewRect(pos(1, 1), pos(1, 6)))
	for i, want := range []string{"red", "blue", "red", "blue", "red", "blue"} {
		if got := displayAt(c, 1, int64(i+1)); got != want {
			t.Fatalf("row %d: got %q, want %q", i+1, got, want)
		}
	}
}

func TestAutocompleteFormatsTileIndependently(t *testing.T) {
	c := NewGridController()
	sheetID := c.Grid().FirstSheetID()
	red := "#ff0000"
	blue := "#0000ff"
	// Fill colors only, no values.
	c.StartUserTransaction([]Operation{
		SetCellFormats{
			Selection: a1.SelectionFromRect(a1.SheetRect{Sheet: sheetID, Rect: a1.SingleRect(pos(1, 1))}),
			Format:    &grid.Format{FillColor: &red},
		},
		SetCellFormats{
			Selection: a1.SelectionFromRect(a1.SheetRect{Sheet: sheetID, Rect: a1.SingleRect(pos(1, 2))}),
			Format:    &grid.Format{FillColor: &blue},
		},
	}, "")

	fill(c, a1.NewRect(pos(1, 1), pos(1, 2)), a1.NewRect(pos(1, 1), pos(1, 6)))
	sheet := c.Grid().MustSheet(sheetID)
	want := []string{red, blue, red, blue, red, blue}
	for i, color := range want {
		f := sheet.FormatAt(pos(1, int64(i+1)))
		if f.FillColor == nil || *f.FillColor != color {
			t.Fatalf("row %d: fill %v, want %q", i+1, f.FillColor, color)
		}
	}
}

func TestAutocompleteCornerFromVerticalRepetition(t *testing.T) {
	c := NewGridController()
	c.SetCellText(sheetPos(c, 1, 1), "1")
	c.SetCellText(sheetPos(c, 2, 1), "2")

	// Expand right and down: the corner cells extend the horizontally
	// produced row downward.
	fill(c, a1.NewRect(pos(1, 1), pos(2, 1)), a1.NewRect(pos(1, 1), pos(4, 3)))
	if got := displayAt(c, 3, 1); got != "3" {
		t.Fatalf("C1 %q", got)
	}
	if got := displayAt(c, 4, 1); got != "4" {
		t.Fatalf("D1 %q", got)
	}
	// Single-value columns repeat downward.
	if got := displayAt(c, 4, 3); got != "4" {
		t.Fatalf("corner D3 %q", got)
	}
}

func TestAutocompleteShrinkClears(t *testing.T) {
	c := NewGridController()
	for y := int64(1); y <= 4; y++ {
		c.SetCellText(sheetPos(c, 1, y), "x")
	}
	fill(c, a1.NewRect(pos(1, 1), pos(1, 4)), a1.NewRect(pos(1, 1), pos(1, 2)))
	if got := displayAt(c, 1, 2); got != "x" {
		t.Fatalf("kept cell %q", got)
	}
	for _, y := range []int64{3, 4} {
		if got := displayAt(c, 1, y); got != "" {
			t.Fatalf("row %d should be blank, got %q", y, got)
		}
	}
}

func TestAutocompleteSymmetry(t *testing.T) {
	c := NewGridController()
	c.SetCellText(sheetPos(c, 1, 1), "2")
	c.SetCellText(sheetPos(c, 1, 2), "4")

	// Fill down, then shrink back to the original rectangle: the
	// original cells are untouched.
	fill(c, a1.NewRect(pos(1, 1), pos(1, 2)), a1.NewRect(pos(1, 1), pos(1, 6)))
	fill(c, a1.NewRect(pos(1, 1), pos(1, 6)), a1.NewRect(pos(1, 1), pos(1, 2)))
	if got := displayAt(c, 1, 1); got != "2" {
		t.Fatalf("A1 %q", got)
	}
	if got := displayAt(c, 1, 2); got != "4" {
		t.Fatalf("A2 %q", got)
	}
	for y := int64(3); y <= 6; y++ {
		if got := displayAt(c, 1, y); got != "" {
			t.Fatalf("row %d should be blank, got %q", y, got)
		}
	}
}

func TestAutocompleteIsOneUndoStep(t *testing.T) {
	c := NewGridController()
	c.SetCellText(sheetPos(c, 1, 1), "1")
	c.SetCellText(sheetPos(c, 1, 2), "2")
	depth := c.UndoDepth()

	fill(c, a1.NewRect(pos(1, 1), pos(1, 2)), a1.NewRect(pos(1, 1), pos(1, 10)))
	if c.UndoDepth() != depth+1 {
		t.Fatalf("fill should be one undo step, depth %d -> %d", depth, c.UndoDepth())
	}
	c.Undo("")
	for y := int64(3); y <= 10; y++ {
		if got := displayAt(c, 1, y); got != "" {
			t.Fatalf("undo left %q at row %d", got, y)
		}
	}
}

func TestAutocompleteTranslatesFormulas(t *testing.T) {
	c := NewGridController()
	c.SetCellText(sheetPos(c, 1, 1), "10")
	c.SetCellText(sheetPos(c, 1, 2), "20")
	c.SetCellText(sheetPos(c, 2, 1), "=A1 * 2")

	fill(c, a1.NewRect(pos(2, 1), pos(2, 1)), a1.NewRect(pos(2, 1), pos(2, 2)))
	if got := displayAt(c, 2, 2); got != "40" {
		t.Fatalf("B2 %q", got)
	}
	sheet := c.Grid().MustSheet(c.Grid().FirstSheetID())
	code := sheet.CellValueAt(pos(2, 2)).(*grid.Code)
	if code.Source != "A2 * 2" {
		t.Fatalf("translated source %q", code.Source)
	}
}
