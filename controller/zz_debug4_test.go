package controller

import "testing"
import "tally/parser"
import "tally/a1"
import "tally/grid"
import "tally/formula"

func TestDebugEvalDirect(t *testing.T) {
	g := grid.NewGrid()
	first := g.FirstSheetID()
	data := g.AddSheet("Data")
	_ = first
	sheet, _ := g.Sheet(data.ID)
	sheet.SetCellValue(a1.Pos{X:1,Y:1}, grid.NumberFromInt(5))
	g.SyncBounds(sheet)

	expr, err := parser.Parse("Data!A1 + 1", first, g.Ctx)
	if err != nil {
		t.Fatalf("err %v", err)
	}
	e := formula.NewEvaluator(g, first, a1.Pos{X:1,Y:1})
	result := e.Eval(expr.(interface{ }).(astExpr))
	t.Logf("result: %#v", result)
	single := result.(*formula.Single)
	num := single.V.(*grid.Number)
	t.Logf("num: %s", num.Display())
}
