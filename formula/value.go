package formula

import (
	"github.com/shopspring/decimal"

	"tally/grid"
)

// Value is what flows through the evaluator: a single cell value, a
// 2-D array, or a tuple of arrays (multi-range arguments).
type Value interface {
	isValue()
}

// Single wraps one cell value.
type Single struct {
	V grid.CellValue
}

func (*Single) isValue() {}

// Array is a width × height rectangle of cell values, stored
// row-major.
type Array struct {
	W, H  int64
	Cells []grid.CellValue
}

func (*Array) isValue() {}

// Tuple groups arrays produced by a parenthesized range list.
type Tuple struct {
	Arrays []*Array
}

func (*Tuple) isValue() {}

func NewArray(w, h int64) *Array {
	return &Array{W: w, H: h, Cells: make([]grid.CellValue, w*h)}
}

// At returns the cell at 0-based (x, y).
func (a *Array) At(x, y int64) grid.CellValue {
	if x < 0 || x >= a.W || y < 0 || y >= a.H {
		return grid.BlankValue
	}
	v := a.Cells[y*a.W+x]
	if v == nil {
		return grid.BlankValue
	}
	return v
}

func (a *Array) Set(x, y int64, v grid.CellValue) {
	if x >= 0 && x < a.W && y >= 0 && y < a.H {
		a.Cells[y*a.W+x] = v
	}
}

func single(v grid.CellValue) Value {
	return &Single{V: v}
}

func number(d decimal.Decimal) Value {
	return single(grid.NewNumber(d))
}

func numberFromFloat(f float64) Value {
	return single(grid.NumberFromFloat(f))
}

func text(s string) Value {
	return single(&grid.Text{Value: s})
}

func logical(b bool) Value {
	return single(&grid.Logical{Value: b})
}

func errValue(kind grid.ErrorKind) Value {
	return single(grid.NewError(kind))
}

func errValueMsg(kind grid.ErrorKind, msg string) Value {
	return single(grid.NewErrorMsg(kind, msg))
}

// scalarOf collapses a value to one cell: singles directly, 1×1
// arrays to their cell, larger arrays to their top-left element,
// tuples to their first array's scalar.
func scalarOf(v Value) grid.CellValue {
	switch val := v.(type) {
	case *Single:
		return val.V
	case *Array:
		return val.At(0, 0)
	case *Tuple:
		if len(val.Arrays) > 0 {
			return val.Arrays[0].At(0, 0)
		}
	}
	return grid.BlankValue
}

// isArray reports whether the value is a real (non-1×1) array.
func isArray(v Value) bool {
	arr, ok := v.(*Array)
	return ok && (arr.W > 1 || arr.H > 1)
}

// asArray views any value as an array; singles become 1×1.
func asArray(v Value) *Array {
	switch val := v.(type) {
	case *Array:
		return val
	case *Tuple:
		if len(val.Arrays) > 0 {
			return val.Arrays[0]
		}
	case *Single:
		arr := NewArray(1, 1)
		arr.Set(0, 0, val.V)
		return arr
	}
	arr := NewArray(1, 1)
	arr.Set(0, 0, grid.BlankValue)
	return arr
}

// errorIn returns the first error cell found in the value, if any.
func errorIn(v Value) *grid.Error {
	switch val := v.(type) {
	case *Single:
		if e, ok := val.V.(*grid.Error); ok {
			return e
		}
	case *Array:
		for _, cell := range val.Cells {
			if e, ok := cell.(*grid.Error); ok {
				return e
			}
		}
	case *Tuple:
		for _, arr := range val.Arrays {
			if e := errorIn(arr); e != nil {
				return e
			}
		}
	}
	return nil
}

// broadcastDims computes the common rectangle for zip-mapping.
// Dimensions agree when equal or one of them is 1; otherwise each
// offending position produces #N/A (handled by broadcastAt).
func broadcastDims(values []Value) (w, h int64) {
	w, h = 1, 1
	for _, v := range values {
		arr, ok := v.(*Array)
		if !ok {
			continue
		}
		if arr.W > w {
			w = arr.W
		}
		if arr.H > h {
			h = arr.H
		}
	}
	return w, h
}

// broadcastAt picks the element of v for broadcast position (x, y).
func broadcastAt(v Value, x, y int64) grid.CellValue {
	arr, ok := v.(*Array)
	if !ok {
		return scalarOf(v)
	}
	ax, ay := x, y
	if arr.W == 1 {
		ax = 0
	} else if x >= arr.W {
		return grid.NewError(grid.ErrNA)
	}
	if arr.H == 1 {
		ay = 0
	} else if y >= arr.H {
		return grid.NewError(grid.ErrNA)
	}
	return arr.At(ax, ay)
}

// zipMap broadcasts the arguments to a common size and applies the
// scalar body per cell. With no array arguments it reduces to one
// scalar call.
func zipMap(args []Value, fn func(cells []grid.CellValue) grid.CellValue) Value {
	anyArray := false
	for _, arg := range args {
		if _, ok := arg.(*Array); ok {
			anyArray = true
			break
		}
	}
	if !anyArray {
		cells := make([]grid.CellValue, len(args))
		for i, arg := range args {
			cells[i] = scalarOf(arg)
		}
		return single(fn(cells))
	}
	w, h := broadcastDims(args)
	out := NewArray(w, h)
	cells := make([]grid.CellValue, len(args))
	for y := int64(0); y < h; y++ {
		for x := int64(0); x < w; x++ {
			bad := false
			for i, arg := range args {
				cells[i] = broadcastAt(arg, x, y)
				if e, ok := cells[i].(*grid.Error); ok {
					out.Set(x, y, e)
					bad = true
					break
				}
			}
			if !bad {
				out.Set(x, y, fn(cells))
			}
		}
	}
	return out
}

// flatten walks every cell of the arguments in order.
func flatten(args []Value, visit func(grid.CellValue)) {
	for _, arg := range args {
		switch val := arg.(type) {
		case *Single:
			if val.V == nil {
				visit(grid.BlankValue)
			} else {
				visit(val.V)
			}
		case *Array:
			for _, cell := range val.Cells {
				if cell == nil {
					cell = grid.BlankValue
				}
				visit(cell)
			}
		case *Tuple:
			for _, arr := range val.Arrays {
				for _, cell := range arr.Cells {
					if cell == nil {
						cell = grid.BlankValue
					}
					visit(cell)
				}
			}
		}
	}
}
