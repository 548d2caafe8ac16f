package formula

import (
	"strconv"
	"strings"

	"tally/a1"
	"tally/ast"
	"tally/grid"
)

func init() {
	registerLookupBuiltins()
}

func registerLookupBuiltins() {
	register(
		&Function{Name: "INDEX", MinArgs: 1, MaxArgs: 4, Fn: builtinIndex},
		&Function{Name: "INDIRECT", MinArgs: 1, MaxArgs: 2, Fn: builtinIndirect},
		&Function{Name: "OFFSET", MinArgs: 3, MaxArgs: 5, RawFn: builtinOffset},
		&Function{Name: "ROW", MinArgs: 0, MaxArgs: 1, RawFn: builtinRow},
		&Function{Name: "COLUMN", MinArgs: 0, MaxArgs: 1, RawFn: builtinColumn},
		&Function{Name: "ROWS", MinArgs: 1, MaxArgs: 1, Fn: func(e *Evaluator, args []Value) Value {
			return intValue(asArray(arg(args, 0)).H)
		}},
		&Function{Name: "COLUMNS", MinArgs: 1, MaxArgs: 1, Fn: func(e *Evaluator, args []Value) Value {
			return intValue(asArray(arg(args, 0)).W)
		}},
		&Function{Name: "ADDRESS", MinArgs: 2, MaxArgs: 5, Fn: builtinAddress},
		&Function{Name: "AREAS", MinArgs: 1, MaxArgs: 1, Fn: func(e *Evaluator, args []Value) Value {
			if tuple, ok := arg(args, 0).(*Tuple); ok {
				return intValue(int64(len(tuple.Arrays)))
			}
			return intValue(1)
		}},
		&Function{Name: "RTD", MinArgs: 0, MaxArgs: -1, Fn: func(e *Evaluator, args []Value) Value {
			return errValue(grid.ErrUnimplemented)
		}},
	)
}

// builtinIndex implements INDEX over one array or a tuple of ranges
// selected by range_num. An explicit zero index on a multi-row (or
// multi-column) range is out of bounds; an omitted index selects the
// whole row or column.
func builtinIndex(e *Evaluator, args []Value) Value {
	target := arg(args, 0)
	if tuple, ok := target.(*Tuple); ok {
		rangeNum := int64(1)
		if !argOmitted(args, 3) {
			n, err := toInt(scalarArg(args, 3))
			if err != nil {
				return single(err)
			}
			rangeNum = n
		}
		if rangeNum < 1 || rangeNum > int64(len(tuple.Arrays)) {
			return errValue(grid.ErrRef)
		}
		target = tuple.Arrays[rangeNum-1]
	}
	arr := asArray(target)

	rowGiven := !argOmitted(args, 1)
	colGiven := !argOmitted(args, 2)
	row, col := int64(0), int64(0)
	var cerr *grid.Error
	if rowGiven {
		row, cerr = toInt(scalarArg(args, 1))
		if cerr != nil {
			return single(cerr)
		}
	}
	if colGiven {
		col, cerr = toInt(scalarArg(args, 2))
		if cerr != nil {
			return single(cerr)
		}
	}
	if row < 0 || col < 0 {
		return errValue(grid.ErrValue)
	}

	// Vector shortcuts: a single column takes its one index linearly,
	// as does a single row.
	if arr.W == 1 && arr.H > 1 && colGiven && col > 0 && !rowGiven {
		row, rowGiven = col, true
		col, colGiven = 0, false
	}
	if arr.H == 1 && arr.W > 1 && rowGiven && row > 0 && !colGiven {
		col, colGiven = row, true
		row, rowGiven = 0, false
	}

	// An explicit zero index only stands for "whole row/column" when
	// the range is a vector on that axis; otherwise it is a #REF!.
	if rowGiven && row == 0 && arr.H > 1 && colGiven && col > 0 {
		return errValue(grid.ErrRef)
	}
	if colGiven && col == 0 && arr.W > 1 && rowGiven && row > 0 {
		return errValue(grid.ErrRef)
	}

	switch {
	case row > 0 && col > 0:
		if row > arr.H || col > arr.W {
			return errValue(grid.ErrRef)
		}
		return single(arr.At(col-1, row-1))
	case row > 0:
		if row > arr.H {
			return errValue(grid.ErrRef)
		}
		out := NewArray(arr.W, 1)
		for x := int64(0); x < arr.W; x++ {
			out.Set(x, 0, arr.At(x, row-1))
		}
		if arr.W == 1 {
			return single(out.At(0, 0))
		}
		return out
	case col > 0:
		if col > arr.W {
			return errValue(grid.ErrRef)
		}
		out := NewArray(1, arr.H)
		for y := int64(0); y < arr.H; y++ {
			out.Set(0, y, arr.At(col-1, y))
		}
		if arr.H == 1 {
			return single(out.At(0, 0))
		}
		return out
	default:
		return arr
	}
}

func builtinIndirect(e *Evaluator, args []Value) Value {
	refText, err := toText(scalarArg(args, 0))
	if err != nil {
		return single(err)
	}
	if !argOmitted(args, 1) {
		a1Style, lerr := toLogical(scalarArg(args, 1))
		if lerr != nil {
			return single(lerr)
		}
		if !a1Style {
			return errValueMsg(grid.ErrUnimplemented, "R1C1 references")
		}
	}
	ref, perr := a1.ParseRange(refText, e.Sheet, e.Grid.Ctx)
	if perr != nil {
		return errValue(grid.ErrRef)
	}
	return e.evalRef(ref)
}

// builtinOffset needs the base reference itself, not its values.
func builtinOffset(e *Evaluator, call *ast.CallExpression) Value {
	if v := checkArity(builtins["OFFSET"], len(call.Args)); v != nil {
		return v
	}
	rect, ok := e.refRectOf(call.Args[0])
	if !ok {
		return errValueMsg(grid.ErrValue, "OFFSET expects a reference")
	}
	rows, err := toInt(scalarOf(e.Eval(call.Args[1])))
	if err != nil {
		return single(err)
	}
	cols, err := toInt(scalarOf(e.Eval(call.Args[2])))
	if err != nil {
		return single(err)
	}
	height := rect.Rect.Height()
	width := rect.Rect.Width()
	if len(call.Args) > 3 && call.Args[3] != nil {
		height, err = toInt(scalarOf(e.Eval(call.Args[3])))
		if err != nil {
			return single(err)
		}
	}
	if len(call.Args) > 4 && call.Args[4] != nil {
		width, err = toInt(scalarOf(e.Eval(call.Args[4])))
		if err != nil {
			return single(err)
		}
	}
	if height < 1 || width < 1 {
		return errValue(grid.ErrRef)
	}
	base := rect.Rect.Min
	origin := a1.Pos{X: base.X + cols, Y: base.Y + rows}
	if origin.X < 1 || origin.Y < 1 {
		return errValue(grid.ErrRef)
	}
	out := a1.SheetRect{Sheet: rect.Sheet, Rect: a1.NewRectSpan(origin, width, height)}
	e.recordRectAccess(out)
	sheet, found := e.Grid.Sheet(out.Sheet)
	if !found {
		return errValue(grid.ErrRef)
	}
	return materializeRect(sheet, out.Rect)
}

func builtinRow(e *Evaluator, call *ast.CallExpression) Value {
	if len(call.Args) == 0 {
		return intValue(e.Pos.Y)
	}
	rect, ok := e.refRectOf(call.Args[0])
	if !ok {
		return errValueMsg(grid.ErrValue, "ROW expects a reference")
	}
	if rect.Rect.Height() == 1 {
		return intValue(rect.Rect.Min.Y)
	}
	out := NewArray(1, rect.Rect.Height())
	for y := int64(0); y < out.H; y++ {
		out.Set(0, y, grid.NumberFromInt(rect.Rect.Min.Y+y))
	}
	return out
}

func builtinColumn(e *Evaluator, call *ast.CallExpression) Value {
	if len(call.Args) == 0 {
		return intValue(e.Pos.X)
	}
	rect, ok := e.refRectOf(call.Args[0])
	if !ok {
		return errValueMsg(grid.ErrValue, "COLUMN expects a reference")
	}
	if rect.Rect.Width() == 1 {
		return intValue(rect.Rect.Min.X)
	}
	out := NewArray(rect.Rect.Width(), 1)
	for x := int64(0); x < out.W; x++ {
		out.Set(x, 0, grid.NumberFromInt(rect.Rect.Min.X+x))
	}
	return out
}

func builtinAddress(e *Evaluator, args []Value) Value {
	return zipMap(args, func(cells []grid.CellValue) grid.CellValue {
		row, err := toInt(cells[0])
		if err != nil {
			return err
		}
		col, err := toInt(cells[1])
		if err != nil {
			return err
		}
		if row < 1 || col < 1 {
			return grid.NewError(grid.ErrValue)
		}
		absNum := int64(1)
		if len(cells) > 2 && !grid.IsBlank(cells[2]) {
			absNum, err = toInt(cells[2])
			if err != nil {
				return err
			}
		}
		a1Style := true
		if len(cells) > 3 && !grid.IsBlank(cells[3]) {
			a1Style, err = toLogical(cells[3])
			if err != nil {
				return err
			}
		}
		sheetText := ""
		if len(cells) > 4 && !grid.IsBlank(cells[4]) {
			sheetText, err = toText(cells[4])
			if err != nil {
				return err
			}
		}
		rowAbs := absNum == 1 || absNum == 2
		colAbs := absNum == 1 || absNum == 3
		if absNum < 1 || absNum > 4 {
			return grid.NewError(grid.ErrValue)
		}
		var sb strings.Builder
		if sheetText != "" {
			sb.WriteString(a1.QuoteSheetName(sheetText))
			sb.WriteString("!")
		}
		if a1Style {
			if colAbs {
				sb.WriteString("$")
			}
			sb.WriteString(a1.ColumnLetters(col))
			if rowAbs {
				sb.WriteString("$")
			}
			sb.WriteString(strconv.FormatInt(row, 10))
		} else {
			sb.WriteString("R")
			if !rowAbs {
				sb.WriteString("[")
			}
			sb.WriteString(strconv.FormatInt(row, 10))
			if !rowAbs {
				sb.WriteString("]")
			}
			sb.WriteString("C")
			if !colAbs {
				sb.WriteString("[")
			}
			sb.WriteString(strconv.FormatInt(col, 10))
			if !colAbs {
				sb.WriteString("]")
			}
		}
		return &grid.Text{Value: sb.String()}
	})
}
