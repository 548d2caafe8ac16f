package controller

import (
	"tally/a1"
	"tally/ast"
	"tally/grid"
	"tally/lexer"
	"tally/parser"
)

// adjustReferences rewrites every stored code cell after a structural
// edit: formulas by parse and re-emit, q.cells sources and handlebar
// sources by their regex contracts. Cached ASTs are invalidated.
func (c *GridController) adjustReferences(adj a1.RefAdjust) {
	if adj.NoOp() {
		return
	}
	c.rewriteAllCode(func(sheet *grid.Sheet, anchor a1.Pos, code *grid.Code) (string, bool) {
		switch {
		case code.Lang == grid.LangFormula:
			return adjustFormulaSource(code.Source, sheet.ID, c.grid.Ctx, adj)
		case code.Lang.HasQCells():
			out := a1.RewriteQCells(code.Source, sheet.ID, c.grid.Ctx, func(ref a1.SheetRange) (string, bool) {
				adjusted, err := ref.Adjust(adj)
				if err != nil {
					return "#REF!", true
				}
				return adjusted.A1String(sheet.ID, c.grid.Ctx), true
			})
			return out, out != code.Source
		case code.Lang.HasHandlebars():
			out := a1.RewriteHandlebars(code.Source, sheet.ID, c.grid.Ctx, func(ref a1.SheetRange) (string, bool) {
				adjusted, err := ref.Adjust(adj)
				if err != nil {
					return "#REF!", true
				}
				return adjusted.A1String(sheet.ID, c.grid.Ctx), true
			})
			return out, out != code.Source
		}
		return "", false
	})
}

// adjustFormulaSource re-parses a formula and re-emits it with every
// reference shifted. References pushed off the grid become #REF!.
func adjustFormulaSource(source string, sheet a1.SheetID, ctx *a1.Context, adj a1.RefAdjust) (string, bool) {
	expr, err := parser.Parse(source, sheet, ctx)
	if err != nil {
		// Unparsable sources are left exactly as the user wrote them.
		return "", false
	}
	changed := false
	ast.Walk(expr, func(node ast.Expression) {
		ref, ok := node.(*ast.RefExpression)
		if !ok || ref.RefError {
			return
		}
		adjusted, aerr := ref.Ref.Adjust(adj)
		if aerr != nil {
			ref.RefError = true
			changed = true
			return
		}
		if !rangeEq(adjusted, ref.Ref) {
			ref.Ref = adjusted
			changed = true
		}
	})
	if !changed {
		return "", false
	}
	return expr.String(), true
}

func rangeEq(a, b a1.SheetRange) bool {
	if a.Sheet != b.Sheet {
		return false
	}
	switch {
	case a.Range.Bounds != nil && b.Range.Bounds != nil:
		return *a.Range.Bounds == *b.Range.Bounds
	case a.Range.Table != nil && b.Range.Table != nil:
		return *a.Range.Table == *b.Range.Table
	}
	return false
}

// rewriteAllCode runs a rewriter over every code cell in the
// document, updating both the stored Code value and its run record.
func (c *GridController) rewriteAllCode(rewrite func(*grid.Sheet, a1.Pos, *grid.Code) (string, bool)) {
	for _, sheet := range c.grid.Sheets() {
		for _, x := range columnIndexes(sheet) {
			col := sheet.Columns[x]
			for row, v := range col.Cells {
				code, isCode := v.(*grid.Code)
				if !isCode {
					continue
				}
				anchor := a1.Pos{X: x, Y: row}
				newSource, changed := rewrite(sheet, anchor, code)
				if !changed {
					continue
				}
				col.Cells[row] = &grid.Code{Lang: code.Lang, Source: newSource}
				if table, ok := sheet.Tables[anchor]; ok && table.Run != nil {
					table.Run.Source = newSource
					table.Run.InvalidateAST()
				}
			}
		}
	}
}

func columnIndexes(sheet *grid.Sheet) []int64 {
	xs := make([]int64, 0, len(sheet.Columns))
	for x := range sheet.Columns {
		xs = append(xs, x)
	}
	return xs
}

// rewriteSheetName rewrites reference text after a sheet rename. The
// context has already been renamed, so sources are re-parsed against
// a snapshot that still knows the old name and re-emitted against the
// live context. Cached outputs stay valid: only the spelling of the
// references changes, never their meaning.
func (c *GridController) rewriteSheetName(oldName, newName string) {
	if oldName == newName {
		return
	}
	oldCtx := c.snapshotContextWithSheetName(oldName, newName)
	c.rewriteAllCode(func(sheet *grid.Sheet, anchor a1.Pos, code *grid.Code) (string, bool) {
		switch {
		case code.Lang == grid.LangFormula:
			return reemitFormula(code.Source, sheet.ID, oldCtx, c.grid.Ctx)
		case code.Lang.HasQCells():
			out := a1.RewriteQCells(code.Source, sheet.ID, oldCtx, func(ref a1.SheetRange) (string, bool) {
				return ref.A1String(sheet.ID, c.grid.Ctx), true
			})
			return out, out != code.Source
		case code.Lang.HasHandlebars():
			out := a1.RewriteHandlebars(code.Source, sheet.ID, oldCtx, func(ref a1.SheetRange) (string, bool) {
				return ref.A1String(sheet.ID, c.grid.Ctx), true
			})
			return out, out != code.Source
		}
		return "", false
	})
}

// snapshotContextWithSheetName builds a context identical to the live
// one except the renamed sheet answers to its old name again.
func (c *GridController) snapshotContextWithSheetName(oldName, newName string) *a1.Context {
	snap := a1.NewContext()
	for _, sheet := range c.grid.Sheets() {
		name := sheet.Name
		if name == newName {
			name = oldName
		}
		snap.AddSheet(sheet.ID, name)
		if bounds, ok := sheet.Bounds(); ok {
			snap.SetSheetBounds(sheet.ID, bounds.Max)
		}
		for anchor, table := range sheet.Tables {
			snap.AddTable(a1.TableInfo{
				Sheet:     sheet.ID,
				Name:      table.Name,
				Anchor:    anchor,
				Columns:   table.ColumnNames(),
				HasHeader: table.HeaderIsFirst,
				Width:     table.Width(),
				Height:    table.Height(),
			})
		}
	}
	return snap
}

// reemitFormula parses with one context and prints with another.
func reemitFormula(source string, sheet a1.SheetID, parseCtx, emitCtx *a1.Context) (string, bool) {
	p := parser.New(lexer.New(source), sheet, parseCtx)
	expr := p.ParseExpression()
	if len(p.Errors()) > 0 || expr == nil {
		return "", false
	}
	ast.Walk(expr, func(node ast.Expression) {
		if ref, ok := node.(*ast.RefExpression); ok {
			ref.Ctx = emitCtx
		}
	})
	out := expr.String()
	return out, out != source
}

// rewriteTableName rewrites references after a table rename.
func (c *GridController) rewriteTableName(oldName, newName string) {
	if oldName == newName {
		return
	}
	renameRef := func(ref *a1.SheetRange) {
		ref.ReplaceTableName(oldName, newName)
	}
	c.rewriteAllCode(func(sheet *grid.Sheet, anchor a1.Pos, code *grid.Code) (string, bool) {
		switch {
		case code.Lang == grid.LangFormula:
			expr, err := parser.Parse(code.Source, sheet.ID, c.grid.Ctx)
			if err != nil {
				return "", false
			}
			changed := false
			ast.Walk(expr, func(node ast.Expression) {
				if ref, ok := node.(*ast.RefExpression); ok && ref.Ref.Range.Table != nil {
					before := ref.Ref.Range.Table.Table
					renameRef(&ref.Ref)
					changed = changed || before != ref.Ref.Range.Table.Table
				}
			})
			if !changed {
				return "", false
			}
			return expr.String(), true
		case code.Lang.HasQCells():
			out := a1.RewriteQCells(code.Source, sheet.ID, c.grid.Ctx, func(ref a1.SheetRange) (string, bool) {
				renameRef(&ref)
				return ref.A1String(sheet.ID, c.grid.Ctx), true
			})
			return out, out != code.Source
		case code.Lang.HasHandlebars():
			out := a1.RewriteHandlebars(code.Source, sheet.ID, c.grid.Ctx, func(ref a1.SheetRange) (string, bool) {
				renameRef(&ref)
				return ref.A1String(sheet.ID, c.grid.Ctx), true
			})
			return out, out != code.Source
		}
		return "", false
	})
}

// rewriteTableColumnName rewrites references after a column rename in
// one table.
func (c *GridController) rewriteTableColumnName(table, oldName, newName string) {
	if oldName == newName {
		return
	}
	renameRef := func(ref *a1.SheetRange) {
		ref.ReplaceColumnName(table, oldName, newName)
	}
	c.rewriteAllCode(func(sheet *grid.Sheet, anchor a1.Pos, code *grid.Code) (string, bool) {
		switch {
		case code.Lang == grid.LangFormula:
			expr, err := parser.Parse(code.Source, sheet.ID, c.grid.Ctx)
			if err != nil {
				return "", false
			}
			changed := false
			ast.Walk(expr, func(node ast.Expression) {
				if ref, ok := node.(*ast.RefExpression); ok && ref.Ref.Range.Table != nil {
					before := *ref.Ref.Range.Table
					renameRef(&ref.Ref)
					changed = changed || before != *ref.Ref.Range.Table
				}
			})
			if !changed {
				return "", false
			}
			return expr.String(), true
		case code.Lang.HasQCells():
			out := a1.RewriteQCells(code.Source, sheet.ID, c.grid.Ctx, func(ref a1.SheetRange) (string, bool) {
				renameRef(&ref)
				return ref.A1String(sheet.ID, c.grid.Ctx), true
			})
			return out, out != code.Source
		case code.Lang.HasHandlebars():
			out := a1.RewriteHandlebars(code.Source, sheet.ID, c.grid.Ctx, func(ref a1.SheetRange) (string, bool) {
				renameRef(&ref)
				return ref.A1String(sheet.ID, c.grid.Ctx), true
			})
			return out, out != code.Source
		}
		return "", false
	})
}
