package controller

import "testing"
import "tally/parser"
import "tally/a1"

func TestDebugParseExpr(t *testing.T) {
	ctx := a1.NewContext()
	s1 := a1.NewSheetID()
	s2 := a1.NewSheetID()
	ctx.AddSheet(s1, "Sheet1")
	ctx.AddSheet(s2, "Data")
	ctx.SetSheetBounds(s1, a1.Pos{X: 26, Y: 100})
	ctx.SetSheetBounds(s2, a1.Pos{X: 26, Y: 100})
	expr, err := parser.Parse("Data!A1 + 1", s1, ctx)
	if err != nil {
		t.Fatalf("err %v", err)
	}
	t.Logf("expr: %#v", expr)
}
