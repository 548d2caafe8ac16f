package formula

import (
	"tally/ast"
	"tally/grid"
)

func init() {
	registerLogicBuiltins()
}

func registerLogicBuiltins() {
	register(
		&Function{Name: "TRUE", MinArgs: 0, MaxArgs: 0, Fn: func(e *Evaluator, args []Value) Value {
			return logical(true)
		}},
		&Function{Name: "FALSE", MinArgs: 0, MaxArgs: 0, Fn: func(e *Evaluator, args []Value) Value {
			return logical(false)
		}},
		scalarFn("NOT", 1, 1, func(cells []grid.CellValue) grid.CellValue {
			b, err := toLogical(cells[0])
			if err != nil {
				return err
			}
			return &grid.Logical{Value: !b}
		}),
		&Function{Name: "AND", MinArgs: 1, MaxArgs: -1, Fn: builtinAnd},
		&Function{Name: "OR", MinArgs: 1, MaxArgs: -1, Fn: builtinOr},
		&Function{Name: "XOR", MinArgs: 1, MaxArgs: -1, Fn: builtinXor},
		&Function{Name: "IF", MinArgs: 2, MaxArgs: 3, RawFn: builtinIf},
		&Function{Name: "IFERROR", MinArgs: 2, MaxArgs: 2, Fn: func(e *Evaluator, args []Value) Value {
			if errorIn(arg(args, 0)) != nil {
				return arg(args, 1)
			}
			return arg(args, 0)
		}},
		&Function{Name: "IFNA", MinArgs: 2, MaxArgs: 2, Fn: func(e *Evaluator, args []Value) Value {
			if err := errorIn(arg(args, 0)); err != nil && err.ErrKind == grid.ErrNA {
				return arg(args, 1)
			}
			return arg(args, 0)
		}},
		&Function{Name: "ISBLANK", MinArgs: 1, MaxArgs: 1, Fn: isKind(func(cell grid.CellValue) bool {
			return grid.IsBlank(cell)
		})},
		&Function{Name: "ISNUMBER", MinArgs: 1, MaxArgs: 1, Fn: isKind(func(cell grid.CellValue) bool {
			_, ok := cell.(*grid.Number)
			return ok
		})},
		&Function{Name: "ISTEXT", MinArgs: 1, MaxArgs: 1, Fn: isKind(func(cell grid.CellValue) bool {
			_, ok := cell.(*grid.Text)
			return ok
		})},
		&Function{Name: "ISLOGICAL", MinArgs: 1, MaxArgs: 1, Fn: isKind(func(cell grid.CellValue) bool {
			_, ok := cell.(*grid.Logical)
			return ok
		})},
		&Function{Name: "ISERROR", MinArgs: 1, MaxArgs: 1, Fn: isKind(func(cell grid.CellValue) bool {
			_, ok := cell.(*grid.Error)
			return ok
		})},
		&Function{Name: "ISERR", MinArgs: 1, MaxArgs: 1, Fn: isKind(func(cell grid.CellValue) bool {
			err, ok := cell.(*grid.Error)
			return ok && err.ErrKind != grid.ErrNA
		})},
		&Function{Name: "ISNA", MinArgs: 1, MaxArgs: 1, Fn: isKind(func(cell grid.CellValue) bool {
			err, ok := cell.(*grid.Error)
			return ok && err.ErrKind == grid.ErrNA
		})},
	)
}

// builtinIf evaluates the condition first and only the branch it
// selects, so an error in the untaken branch never leaks. An array
// condition chooses per cell.
func builtinIf(e *Evaluator, call *ast.CallExpression) Value {
	if v := checkArity(builtins["IF"], len(call.Args)); v != nil {
		return v
	}
	cond := e.Eval(call.Args[0])
	branch := func(i int) ast.Expression {
		if i < len(call.Args) {
			return call.Args[i]
		}
		return nil
	}
	if arr, ok := cond.(*Array); ok {
		var thenVal, elseVal Value
		thenVal = e.Eval(branch(1))
		if branch(2) != nil {
			elseVal = e.Eval(branch(2))
		} else {
			elseVal = logical(false)
		}
		out := NewArray(arr.W, arr.H)
		for y := int64(0); y < arr.H; y++ {
			for x := int64(0); x < arr.W; x++ {
				b, err := toLogical(arr.At(x, y))
				if err != nil {
					out.Set(x, y, err)
					continue
				}
				if b {
					out.Set(x, y, broadcastAt(thenVal, x, y))
				} else {
					out.Set(x, y, broadcastAt(elseVal, x, y))
				}
			}
		}
		return out
	}
	b, err := toLogical(scalarOf(cond))
	if err != nil {
		return single(err)
	}
	if b {
		return e.Eval(branch(1))
	}
	if branch(2) != nil {
		return e.Eval(branch(2))
	}
	return logical(false)
}

// isKind builds the IS* family: a predicate applied cell-wise that
// never propagates errors (an error is just another kind to test).
func isKind(pred func(grid.CellValue) bool) func(e *Evaluator, args []Value) Value {
	return func(e *Evaluator, args []Value) Value {
		v := arg(args, 0)
		if arr, ok := v.(*Array); ok {
			out := NewArray(arr.W, arr.H)
			for i, cell := range arr.Cells {
				out.Cells[i] = &grid.Logical{Value: pred(cell)}
			}
			return out
		}
		return logical(pred(scalarOf(v)))
	}
}

func builtinAnd(e *Evaluator, args []Value) Value {
	result := true
	var failure *grid.Error
	flatten(args, func(cell grid.CellValue) {
		if failure != nil || grid.IsBlank(cell) {
			return
		}
		b, err := toLogical(cell)
		if err != nil {
			failure = err
			return
		}
		result = result && b
	})
	if failure != nil {
		return single(failure)
	}
	return logical(result)
}

func builtinOr(e *Evaluator, args []Value) Value {
	result := false
	var failure *grid.Error
	flatten(args, func(cell grid.CellValue) {
		if failure != nil || grid.IsBlank(cell) {
			return
		}
		b, err := toLogical(cell)
		if err != nil {
			failure = err
			return
		}
		result = result || b
	})
	if failure != nil {
		return single(failure)
	}
	return logical(result)
}

func builtinXor(e *Evaluator, args []Value) Value {
	count := 0
	var failure *grid.Error
	flatten(args, func(cell grid.CellValue) {
		if failure != nil || grid.IsBlank(cell) {
			return
		}
		b, err := toLogical(cell)
		if err != nil {
			failure = err
			return
		}
		if b {
			count++
		}
	})
	if failure != nil {
		return single(failure)
	}
	return logical(count%2 == 1)
}
