package formula

import (
	"tally/ast"
	"tally/grid"
)

// Expr re-exports the parsed expression type so callers caching ASTs
// do not need the ast package directly.
type Expr = ast.Expression

// ToCellGrid converts an evaluation result into the row-major value
// array a data table stores. Tuples cannot spill.
func ToCellGrid(v Value) [][]grid.CellValue {
	switch val := v.(type) {
	case *Single:
		cell := val.V
		if cell == nil {
			cell = grid.BlankValue
		}
		return [][]grid.CellValue{{cell}}
	case *Array:
		out := make([][]grid.CellValue, val.H)
		for y := int64(0); y < val.H; y++ {
			row := make([]grid.CellValue, val.W)
			for x := int64(0); x < val.W; x++ {
				row[x] = val.At(x, y)
			}
			out[y] = row
		}
		return out
	case *Tuple:
		return [][]grid.CellValue{{grid.NewErrorMsg(grid.ErrValue, "range union cannot spill")}}
	}
	return [][]grid.CellValue{{grid.BlankValue}}
}
