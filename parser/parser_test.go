package parser

import (
	"testing"

	"tally/a1"
	"tally/ast"
)

func testContext(t *testing.T) (*a1.Context, a1.SheetID) {
	t.Helper()
	ctx := a1.NewContext()
	id := a1.NewSheetID()
	ctx.AddSheet(id, "Sheet1")
	other := a1.NewSheetID()
	ctx.AddSheet(other, "Sheet two")
	ctx.AddTable(a1.TableInfo{
		Sheet:   id,
		Name:    "Table1",
		Anchor:  a1.Pos{X: 1, Y: 1},
		Columns: []string{"col1", "col2"},
		Width:   2,
		Height:  3,
	})
	return ctx, id
}

func parse(t *testing.T, source string) ast.Expression {
	t.Helper()
	ctx, id := testContext(t)
	expr, err := Parse(source, id, ctx)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", source, err)
	}
	return expr
}

func TestParseReemitsSource(t *testing.T) {
	cases := []string{
		"1 + 2 * 3",
		"A1 + C2 * $D$3 + E:E",
		"SUM(A1:B5, 10)",
		`IF(A1 > 0, "yes", "no")`,
		"{1, 2; 3, 4}",
		"-A1 + 50%",
		"(A1 + B1) * 2",
		"Table1[col1]",
		"Table1[[col1]:[col2]]",
		"'Sheet two'!B2:C3",
		"INDEX((A1:B2, C3:D4), 1, 1, 2)",
		`"quoted ""text"" here"`,
		"A1 = B1",
		"A1 <> B1 & \"x\"",
		"SUM(1:3)",
	}
	for _, source := range cases {
		expr := parse(t, source)
		if got := expr.String(); got != source {
			t.Fatalf("%s: re-emitted as %q", source, got)
		}
	}
}

func TestParsePrecedence(t *testing.T) {
	// * binds tighter than +, ^ tighter than *, % tightest.
	expr := parse(t, "1 + 2 * 3 ^ 4")
	infix, ok := expr.(*ast.InfixExpression)
	if !ok || infix.Operator != "+" {
		t.Fatalf("top operator: %#v", expr)
	}
	right, ok := infix.Right.(*ast.InfixExpression)
	if !ok || right.Operator != "*" {
		t.Fatalf("second operator: %#v", infix.Right)
	}
	if pow, ok := right.Right.(*ast.InfixExpression); !ok || pow.Operator != "^" {
		t.Fatalf("third operator: %#v", right.Right)
	}
}

func TestParseOmittedArgs(t *testing.T) {
	expr := parse(t, "INDEX({5, 6, 7}, , 3)")
	call, ok := expr.(*ast.CallExpression)
	if !ok {
		t.Fatalf("expected call, got %#v", expr)
	}
	if len(call.Args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(call.Args))
	}
	if call.Args[1] != nil {
		t.Fatalf("middle arg should be omitted")
	}
}

func TestParseFunctionNamesWithDots(t *testing.T) {
	expr := parse(t, "CEILING.MATH(6.5, 2)")
	call, ok := expr.(*ast.CallExpression)
	if !ok || call.Name != "CEILING.MATH" {
		t.Fatalf("got %#v", expr)
	}
}

func TestParseLowercaseFunctionUppercased(t *testing.T) {
	expr := parse(t, "sum(1, 2)")
	call, ok := expr.(*ast.CallExpression)
	if !ok || call.Name != "SUM" {
		t.Fatalf("got %#v", expr)
	}
}

func TestParseErrors(t *testing.T) {
	ctx, id := testContext(t)
	for _, source := range []string{
		"1 +",
		"SUM(",
		"{1, 2",
		"A1:",
		"Nope!A1",
		"((1)",
		"1 2",
	} {
		if _, err := Parse(source, id, ctx); err == nil {
			t.Fatalf("%q: expected parse error", source)
		}
	}
}

func TestParseErrorHasSpan(t *testing.T) {
	ctx, id := testContext(t)
	_, err := Parse("SUM(Nope!A1)", id, ctx)
	perr, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	start, end := perr.Span()
	if start < 0 || end <= start {
		t.Fatalf("bad span %d..%d", start, end)
	}
}

func TestWalkVisitsRefs(t *testing.T) {
	expr := parse(t, "A1 + SUM(B2:C3, Table1[col1])")
	refs := 0
	ast.Walk(expr, func(node ast.Expression) {
		if _, ok := node.(*ast.RefExpression); ok {
			refs++
		}
	})
	if refs != 3 {
		t.Fatalf("expected 3 refs, got %d", refs)
	}
}
