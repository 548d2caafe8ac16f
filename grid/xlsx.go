package grid

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"tally/a1"
)

// ExportXlsx writes the displayed values of every sheet to an .xlsx
// workbook. Formulas and code cells export their current outputs;
// only values are written, no cell formats are translated.
func (g *Grid) ExportXlsx(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range g.Sheets() {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheet.Name); err != nil {
				return fmt.Errorf("create sheet %s: %w", sheet.Name, err)
			}
		}
		bounds, ok := sheet.Bounds()
		if !ok {
			continue
		}
		for y := bounds.Min.Y; y <= bounds.Max.Y; y++ {
			for x := bounds.Min.X; x <= bounds.Max.X; x++ {
				pos := a1.Pos{X: x, Y: y}
				v := sheet.DisplayValue(pos)
				if IsBlank(v) {
					continue
				}
				axis, err := excelize.CoordinatesToCellName(int(x), int(y))
				if err != nil {
					return fmt.Errorf("cell name %v: %w", pos, err)
				}
				if err := f.SetCellValue(sheet.Name, axis, xlsxValue(v)); err != nil {
					return fmt.Errorf("set %s!%s: %w", sheet.Name, axis, err)
				}
			}
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func xlsxValue(v CellValue) any {
	switch val := v.(type) {
	case *Number:
		f, _ := val.Value.Float64()
		return f
	case *Logical:
		return val.Value
	case *Date, *Time, *DateTime:
		return v.Display()
	default:
		return v.Display()
	}
}

// ImportXlsx reads a workbook into a fresh grid: every sheet becomes
// a tally sheet and every cell a literal parsed the same way typed
// input is.
func ImportXlsx(r io.Reader) (*Grid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	g := NewEmptyGrid()
	for _, name := range f.GetSheetList() {
		sheet := g.AddSheet(name)
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", name, err)
		}
		for y, row := range rows {
			for x, raw := range row {
				if raw == "" {
					continue
				}
				pos := a1.Pos{X: int64(x + 1), Y: int64(y + 1)}
				sheet.SetCellValue(pos, ParseUserInput(raw))
			}
		}
		g.SyncBounds(sheet)
	}
	if len(g.SheetOrder) == 0 {
		g.AddSheet("Sheet1")
	}
	return g, nil
}
