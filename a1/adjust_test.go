package a1

import "testing"

func mustParse(t *testing.T, s string, sheet SheetID, ctx *Context) SheetRange {
	t.Helper()
	r, err := ParseRange(s, sheet, ctx)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return r
}

func TestInsertColumnShiftsReferences(t *testing.T) {
	ctx, s1, _ := testContext(t)
	adj := NewInsertColumn(s1, 2)

	cases := map[string]string{
		"C2":    "D2",
		"$D$3":  "$E$3",
		"E:E":   "F:F",
		"A1":    "A1", // before the inserted column
		"1:3":   "1:3",
		"$A:$B": "$A:$C", // end column shifts, start is before x_start
	}
	for in, want := range cases {
		r := mustParse(t, in, s1, ctx)
		adjusted, err := r.Adjust(adj)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", in, err)
		}
		if got := adjusted.Range.Bounds.A1String(); got != want {
			t.Fatalf("%s: got %q, want %q", in, got, want)
		}
	}
}

func TestDeleteColumnBelowOneIsRefError(t *testing.T) {
	ctx, s1, _ := testContext(t)
	r := mustParse(t, "A1", s1, ctx)
	if _, err := r.Adjust(NewDeleteColumn(s1, 1)); err == nil {
		t.Fatalf("expected #REF! error")
	}
}

func TestInsertThenDeleteIsIdentity(t *testing.T) {
	ctx, s1, _ := testContext(t)
	for _, in := range []string{"A1", "C5", "E:E", "B2:D4", "$D$3"} {
		r := mustParse(t, in, s1, ctx)
		ins, err := r.Adjust(NewInsertColumn(s1, 3))
		if err != nil {
			t.Fatalf("%s: insert: %v", in, err)
		}
		back, err := ins.Adjust(NewDeleteColumn(s1, 3))
		if err != nil {
			t.Fatalf("%s: delete: %v", in, err)
		}
		if got := back.Range.Bounds.A1String(); got != in {
			t.Fatalf("%s: insert+delete not identity, got %q", in, got)
		}
	}
}

func TestTranslateRelativeOnly(t *testing.T) {
	ctx, s1, _ := testContext(t)
	r := mustParse(t, "$A$1:B2", s1, ctx)
	adjusted, err := r.Adjust(NewTranslate(1, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := adjusted.Range.Bounds.A1String(); got != "$A$1:C3" {
		t.Fatalf("got %q, want $A$1:C3", got)
	}
}

func TestAdjustOtherSheetUntouched(t *testing.T) {
	ctx, s1, s2 := testContext(t)
	r := mustParse(t, "B2", s2, ctx)
	adjusted, err := r.Adjust(NewInsertColumn(s1, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := adjusted.Range.Bounds.A1String(); got != "B2" {
		t.Fatalf("reference on another sheet moved: %q", got)
	}
}

func TestTableRefsUnaffectedByAdjust(t *testing.T) {
	ctx, s1, _ := testContext(t)
	r := mustParse(t, "Table1[col1]", s1, ctx)
	adjusted, err := r.Adjust(NewInsertColumn(s1, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if adjusted.Range.Table == nil || adjusted.Range.Table.Table != "Table1" {
		t.Fatalf("table ref changed: %#v", adjusted.Range)
	}
}

func TestRewriteQCells(t *testing.T) {
	ctx, s1, _ := testContext(t)
	adj := NewTranslate(1, 1)
	rewrite := func(r SheetRange) (string, bool) {
		adjusted, err := r.Adjust(adj)
		if err != nil {
			return "#REF!", true
		}
		return adjusted.A1String(s1, ctx), true
	}

	cases := map[string]string{
		`q.cells('A1:B2')`:                        `q.cells("B2:C3")`,
		`q.cells("A1:B2")`:                        `q.cells("B2:C3")`,
		"q.cells(`A1:B2`)":                        `q.cells("B2:C3")`,
		`q.cells('$A$1:$B$2')`:                    `q.cells("$A$1:$B$2")`,
		`x = q.cells('A1:B2') + q.cells('C3:D4')`: `x = q.cells("B2:C3") + q.cells("D4:E5")`,
		`q.cells('A1:B2', first_row_header=True)`: `q.cells("B2:C3", first_row_header=True)`,
		`q.cells('not a ref')`:                    `q.cells('not a ref')`,
	}
	for in, want := range cases {
		if got := RewriteQCells(in, s1, ctx, rewrite); got != want {
			t.Fatalf("%s: got %q, want %q", in, got, want)
		}
	}
}

func TestRewriteHandlebars(t *testing.T) {
	ctx, s1, _ := testContext(t)
	rewrite := func(r SheetRange) (string, bool) {
		adjusted, err := r.Adjust(NewInsertRow(s1, 1))
		if err != nil {
			return "#REF!", true
		}
		return adjusted.A1String(s1, ctx), true
	}
	in := "SELECT * FROM t WHERE v > {{ A1 }} AND v < {{B2}}"
	want := "SELECT * FROM t WHERE v > {{ A2 }} AND v < {{ B3 }}"
	if got := RewriteHandlebars(in, s1, ctx, rewrite); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSelectionAdjustDropsRefErrors(t *testing.T) {
	ctx, s1, _ := testContext(t)
	sel, err := ParseSelection("A1, C3", s1, ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := sel.Adjust(NewDeleteColumn(s1, 1))
	if len(out.Ranges) != 1 {
		t.Fatalf("expected 1 surviving range, got %d", len(out.Ranges))
	}
	if got := out.Ranges[0].Range.Bounds.A1String(); got != "B3" {
		t.Fatalf("got %q, want B3", got)
	}
}
