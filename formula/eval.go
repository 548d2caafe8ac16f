package formula

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"tally/a1"
	"tally/ast"
	"tally/grid"
	"tally/parser"
)

// Evaluator evaluates one formula against a grid. It records every
// range it reads into Accessed; the recalc loop turns that set into
// dependency edges.
type Evaluator struct {
	Grid     *grid.Grid
	Sheet    a1.SheetID
	Pos      a1.Pos
	Accessed *a1.RangeSet
}

// NewEvaluator builds an evaluator for a formula anchored at pos.
func NewEvaluator(g *grid.Grid, sheet a1.SheetID, pos a1.Pos) *Evaluator {
	return &Evaluator{Grid: g, Sheet: sheet, Pos: pos, Accessed: &a1.RangeSet{}}
}

// ParseAndEval parses and evaluates formula source (no leading `=`).
// Parse failures come back as error; evaluation failures are error
// cell values inside the result.
func (e *Evaluator) ParseAndEval(source string) (Value, error) {
	expr, err := parser.Parse(source, e.Sheet, e.Grid.Ctx)
	if err != nil {
		return nil, err
	}
	return e.Eval(expr), nil
}

// Eval evaluates one expression node. Errors are values, never Go
// errors: they propagate cell-wise like any spreadsheet error.
func (e *Evaluator) Eval(expr ast.Expression) Value {
	switch node := expr.(type) {
	case nil:
		return single(grid.BlankValue)
	case *ast.NumberLiteral:
		d, err := decimal.NewFromString(node.Value)
		if err != nil {
			return errValueMsg(grid.ErrValue, "bad number "+node.Value)
		}
		return number(d)
	case *ast.StringLiteral:
		return text(node.Value)
	case *ast.BoolLiteral:
		return logical(node.Value)
	case *ast.ErrorLiteral:
		return single(grid.NewError(errorKindFromCode(node.Code)))
	case *ast.RefExpression:
		return e.evalRef(node.Ref)
	case *ast.GroupExpression:
		return e.Eval(node.Inner)
	case *ast.TupleExpression:
		return e.evalTuple(node)
	case *ast.ArrayLiteral:
		return e.evalArrayLiteral(node)
	case *ast.PrefixExpression:
		return e.evalPrefix(node)
	case *ast.PostfixExpression:
		return e.evalPostfix(node)
	case *ast.InfixExpression:
		return e.evalInfix(node)
	case *ast.CallExpression:
		return e.evalCall(node)
	}
	return errValueMsg(grid.ErrValue, "unsupported expression")
}

func errorKindFromCode(code string) grid.ErrorKind {
	switch strings.ToUpper(code) {
	case "#DIV/0!":
		return grid.ErrDiv0
	case "#N/A":
		return grid.ErrNA
	case "#VALUE!":
		return grid.ErrValue
	case "#REF!":
		return grid.ErrRef
	case "#NAME?":
		return grid.ErrName
	case "#NUM!":
		return grid.ErrNum
	case "#NULL!":
		return grid.ErrNull
	case "#NAN":
		return grid.ErrNaN
	case "#SPILL!":
		return grid.ErrSpill
	}
	return grid.ErrParse
}

// evalRef materializes a reference: single cells to singles, ranges
// to arrays. Every read is recorded in Accessed.
func (e *Evaluator) evalRef(ref a1.SheetRange) Value {
	e.Accessed.Add(ref)
	rect, ok := ref.ToSheetRect(e.Grid.Ctx)
	if !ok {
		return errValue(grid.ErrRef)
	}
	sheet, found := e.Grid.Sheet(rect.Sheet)
	if !found {
		return errValue(grid.ErrRef)
	}
	return materializeRect(sheet, rect.Rect)
}

func materializeRect(sheet *grid.Sheet, rect a1.Rect) Value {
	if rect.Width() == 1 && rect.Height() == 1 {
		return single(sheet.DisplayValue(rect.Min))
	}
	out := NewArray(rect.Width(), rect.Height())
	for y := int64(0); y < out.H; y++ {
		for x := int64(0); x < out.W; x++ {
			out.Set(x, y, sheet.DisplayValue(a1.Pos{X: rect.Min.X + x, Y: rect.Min.Y + y}))
		}
	}
	return out
}

func (e *Evaluator) evalTuple(node *ast.TupleExpression) Value {
	tuple := &Tuple{}
	for _, item := range node.Items {
		v := e.Eval(item)
		if err := errorIn(v); err != nil {
			return single(err)
		}
		tuple.Arrays = append(tuple.Arrays, asArray(v))
	}
	return tuple
}

func (e *Evaluator) evalArrayLiteral(node *ast.ArrayLiteral) Value {
	h := int64(len(node.Rows))
	if h == 0 {
		return errValueMsg(grid.ErrValue, "empty array")
	}
	w := int64(len(node.Rows[0]))
	for _, row := range node.Rows {
		if int64(len(row)) != w {
			return errValueMsg(grid.ErrValue, "ragged array literal")
		}
	}
	if w == 0 {
		return errValueMsg(grid.ErrValue, "empty array")
	}
	out := NewArray(w, h)
	for y, row := range node.Rows {
		for x, cell := range row {
			out.Set(int64(x), int64(y), scalarOf(e.Eval(cell)))
		}
	}
	return out
}

func (e *Evaluator) evalPrefix(node *ast.PrefixExpression) Value {
	right := e.Eval(node.Right)
	switch node.Operator {
	case "-":
		return zipMap([]Value{right}, func(cells []grid.CellValue) grid.CellValue {
			d, err := toNumber(cells[0])
			if err != nil {
				return err
			}
			return grid.NewNumber(d.Neg())
		})
	case "+":
		return right
	}
	return errValueMsg(grid.ErrValue, "unknown prefix operator "+node.Operator)
}

func (e *Evaluator) evalPostfix(node *ast.PostfixExpression) Value {
	left := e.Eval(node.Left)
	if node.Operator != "%" {
		return errValueMsg(grid.ErrValue, "unknown postfix operator "+node.Operator)
	}
	hundred := decimal.NewFromInt(100)
	return zipMap([]Value{left}, func(cells []grid.CellValue) grid.CellValue {
		d, err := toNumber(cells[0])
		if err != nil {
			return err
		}
		return grid.NewNumber(d.Div(hundred))
	})
}

func (e *Evaluator) evalInfix(node *ast.InfixExpression) Value {
	left := e.Eval(node.Left)
	right := e.Eval(node.Right)

	switch node.Operator {
	case "+", "-", "*", "/", "^":
		return zipMap([]Value{left, right}, func(cells []grid.CellValue) grid.CellValue {
			return arith(node.Operator, cells[0], cells[1])
		})
	case "&":
		return zipMap([]Value{left, right}, func(cells []grid.CellValue) grid.CellValue {
			a, err := toText(cells[0])
			if err != nil {
				return err
			}
			b, err := toText(cells[1])
			if err != nil {
				return err
			}
			return &grid.Text{Value: a + b}
		})
	case "=", "<>", "<", "<=", ">", ">=":
		return zipMap([]Value{left, right}, func(cells []grid.CellValue) grid.CellValue {
			cmp, err := compareCells(cells[0], cells[1])
			if err != nil {
				return err
			}
			return &grid.Logical{Value: compareResult(node.Operator, cmp)}
		})
	}
	return errValueMsg(grid.ErrValue, "unknown operator "+node.Operator)
}

func compareResult(op string, cmp int) bool {
	switch op {
	case "=":
		return cmp == 0
	case "<>":
		return cmp != 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	}
	return false
}

func arith(op string, a, b grid.CellValue) grid.CellValue {
	x, err := toNumber(a)
	if err != nil {
		return err
	}
	y, err := toNumber(b)
	if err != nil {
		return err
	}
	switch op {
	case "+":
		return grid.NewNumber(x.Add(y))
	case "-":
		return grid.NewNumber(x.Sub(y))
	case "*":
		return grid.NewNumber(x.Mul(y))
	case "/":
		if y.IsZero() {
			return grid.NewError(grid.ErrDiv0)
		}
		return grid.NewNumber(x.Div(y))
	case "^":
		xf, _ := x.Float64()
		yf, _ := y.Float64()
		result := math.Pow(xf, yf)
		if math.IsNaN(result) {
			return grid.NewError(grid.ErrNaN)
		}
		if math.IsInf(result, 0) {
			return grid.NewError(grid.ErrNum)
		}
		return grid.NumberFromFloat(result)
	}
	return grid.NewErrorMsg(grid.ErrValue, "unknown operator "+op)
}

func (e *Evaluator) evalCall(node *ast.CallExpression) Value {
	fn, ok := builtins[node.Name]
	if !ok {
		return errValueMsg(grid.ErrName, "unknown function "+node.Name)
	}
	if fn.RawFn != nil {
		return fn.RawFn(e, node)
	}
	args := make([]Value, len(node.Args))
	for i, arg := range node.Args {
		if arg == nil {
			args[i] = nil
			continue
		}
		args[i] = e.Eval(arg)
	}
	if v := checkArity(fn, len(args)); v != nil {
		return v
	}
	return fn.Fn(e, args)
}

func checkArity(fn *Function, n int) Value {
	if n < fn.MinArgs {
		return errValueMsg(grid.ErrValue, fn.Name+" expects at least "+strconv.Itoa(fn.MinArgs)+" arguments")
	}
	if fn.MaxArgs >= 0 && n > fn.MaxArgs {
		return errValueMsg(grid.ErrValue, fn.Name+" expects at most "+strconv.Itoa(fn.MaxArgs)+" arguments")
	}
	return nil
}

// intValue wraps an integer as a Number single.
func intValue(n int64) Value {
	return single(grid.NumberFromInt(n))
}

// refRectOf resolves an argument expression to the rectangle it
// references, unwrapping parentheses. ok is false when the argument
// is not a reference.
func (e *Evaluator) refRectOf(expr ast.Expression) (a1.SheetRect, bool) {
	switch node := expr.(type) {
	case *ast.GroupExpression:
		return e.refRectOf(node.Inner)
	case *ast.RefExpression:
		rect, ok := node.Ref.ToSheetRect(e.Grid.Ctx)
		return rect, ok
	}
	return a1.SheetRect{}, false
}

// recordRectAccess adds a concrete rectangle to the accessed set.
func (e *Evaluator) recordRectAccess(rect a1.SheetRect) {
	bounds := &a1.RefRangeBounds{
		Start: a1.RelCell(rect.Rect.Min.X, rect.Rect.Min.Y),
		End:   a1.RelCell(rect.Rect.Max.X, rect.Rect.Max.Y),
	}
	e.Accessed.Add(a1.SheetRange{Sheet: rect.Sheet, Range: a1.CellRefRange{Bounds: bounds}})
}
