package a1

import "testing"

func testContext(t *testing.T) (*Context, SheetID, SheetID) {
	t.Helper()
	ctx := NewContext()
	s1 := NewSheetID()
	s2 := NewSheetID()
	ctx.AddSheet(s1, "Sheet1")
	ctx.AddSheet(s2, "Sheet with space")
	ctx.SetSheetBounds(s1, Pos{X: 26, Y: 100})
	ctx.SetSheetBounds(s2, Pos{X: 26, Y: 100})
	ctx.AddTable(TableInfo{
		Sheet:     s1,
		Name:      "Table1",
		Anchor:    Pos{X: 2, Y: 2},
		Columns:   []string{"col1", "col2", "col3"},
		HasHeader: true,
		Width:     3,
		Height:    4,
	})
	return ctx, s1, s2
}

func TestParseSingleCell(t *testing.T) {
	ctx, s1, _ := testContext(t)
	r, err := ParseRange("B3", s1, ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := r.Range.Bounds
	if b == nil || !b.IsSingleCell() {
		t.Fatalf("expected single cell, got %#v", r.Range)
	}
	if b.Start.Col.V != 2 || b.Start.Row.V != 3 {
		t.Fatalf("unexpected coords: %#v", b.Start)
	}
	if b.Start.Col.Abs || b.Start.Row.Abs {
		t.Fatalf("expected relative coords")
	}
}

func TestParseAbsolute(t *testing.T) {
	ctx, s1, _ := testContext(t)
	r, err := ParseRange("$A$1", s1, ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := r.Range.Bounds
	if !b.Start.Col.Abs || !b.Start.Row.Abs {
		t.Fatalf("expected absolute coords: %#v", b.Start)
	}
	if got := b.A1String(); got != "$A$1" {
		t.Fatalf("round trip mismatch: %q", got)
	}
}

func TestParseRangeForms(t *testing.T) {
	ctx, s1, _ := testContext(t)
	cases := []string{"A1:B2", "A:C", "1:3", "$A:$B", "$1:$2", "A2:C"}
	for _, in := range cases {
		r, err := ParseRange(in, s1, ctx)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", in, err)
		}
		if got := r.Range.Bounds.A1String(); got != in {
			t.Fatalf("%s: round trip mismatch: %q", in, got)
		}
	}
}

func TestParseSheetQualified(t *testing.T) {
	ctx, s1, s2 := testContext(t)
	r, err := ParseRange("'Sheet with space'!A1", s1, ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Sheet != s2 {
		t.Fatalf("wrong sheet: %v", r.Sheet)
	}
	if got := r.A1String(s1, ctx); got != "'Sheet with space'!A1" {
		t.Fatalf("round trip mismatch: %q", got)
	}
	if got := r.A1String(s2, ctx); got != "A1" {
		t.Fatalf("same-sheet print should drop qualifier: %q", got)
	}
}

func TestParseTableRefs(t *testing.T) {
	ctx, s1, _ := testContext(t)
	cases := map[string]string{
		"Table1[col1]":          "Table1[col1]",
		"Table1[[col1]:[col2]]": "Table1[[col1]:[col2]]",
		"Table1[[col1]:]":       "Table1[[col1]:]",
		"Table1":                "Table1",
	}
	for in, want := range cases {
		r, err := ParseRange(in, s1, ctx)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", in, err)
		}
		if r.Range.Table == nil {
			t.Fatalf("%s: expected table ref", in)
		}
		if got := r.Range.Table.A1String(); got != want {
			t.Fatalf("%s: round trip mismatch: %q", in, got)
		}
	}
}

func TestTableRectResolution(t *testing.T) {
	ctx, s1, _ := testContext(t)
	r, err := ParseRange("Table1[col2]", s1, ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rect, ok := r.ToSheetRect(ctx)
	if !ok {
		t.Fatalf("expected resolution")
	}
	// Anchor B2, header row skipped, col2 is the second column.
	want := Rect{Min: Pos{X: 3, Y: 3}, Max: Pos{X: 3, Y: 5}}
	if rect.Rect != want {
		t.Fatalf("unexpected rect: %#v", rect.Rect)
	}
}

func TestParseUnion(t *testing.T) {
	ctx, s1, _ := testContext(t)
	ranges, err := ParseUnion("A1:B2, C3, Table1[col1]", s1, ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranges) != 3 {
		t.Fatalf("expected 3 ranges, got %d", len(ranges))
	}
}

func TestParseErrors(t *testing.T) {
	ctx, s1, _ := testContext(t)
	for _, in := range []string{"", "A1:", "1A", "Nope!A1", "Missing[col]", "A$"} {
		if _, err := ParseRange(in, s1, ctx); err == nil {
			t.Fatalf("%q: expected error", in)
		}
	}
}

func TestColumnLettersRoundTrip(t *testing.T) {
	for _, col := range []int64{1, 26, 27, 52, 703, 16384} {
		if got := ParseColumnLetters(ColumnLetters(col)); got != col {
			t.Fatalf("column %d round-tripped to %d", col, got)
		}
	}
	if ColumnLetters(1) != "A" || ColumnLetters(26) != "Z" || ColumnLetters(27) != "AA" {
		t.Fatalf("unexpected letter forms: %s %s %s", ColumnLetters(1), ColumnLetters(26), ColumnLetters(27))
	}
}
