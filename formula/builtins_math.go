package formula

import (
	"math"

	"github.com/shopspring/decimal"

	"tally/grid"
)

func init() {
	registerMathBuiltins()
}

func registerMathBuiltins() {
	register(
		&Function{Name: "SUM", MinArgs: 1, MaxArgs: -1, Fn: builtinSum},
		&Function{Name: "PRODUCT", MinArgs: 1, MaxArgs: -1, Fn: builtinProduct},
		&Function{Name: "SUMIF", MinArgs: 2, MaxArgs: 3, Fn: builtinSumIf},
		&Function{Name: "SUMIFS", MinArgs: 3, MaxArgs: -1, Fn: builtinSumIfs},
		numericFn("ABS", func(x float64) grid.CellValue {
			return grid.NumberFromFloat(math.Abs(x))
		}),
		numericFn("SQRT", func(x float64) grid.CellValue {
			if x < 0 {
				return grid.NewError(grid.ErrNum)
			}
			return grid.NumberFromFloat(math.Sqrt(x))
		}),
		scalarFn("POWER", 2, 2, func(cells []grid.CellValue) grid.CellValue {
			return arith("^", cells[0], cells[1])
		}),
		numericFn("EXP", func(x float64) grid.CellValue {
			return grid.NumberFromFloat(math.Exp(x))
		}),
		numericFn("LN", func(x float64) grid.CellValue {
			if x <= 0 {
				return grid.NewError(grid.ErrNum)
			}
			return grid.NumberFromFloat(math.Log(x))
		}),
		scalarFn("LOG", 1, 2, func(cells []grid.CellValue) grid.CellValue {
			x, err := toFloat(cells[0])
			if err != nil {
				return err
			}
			base := 10.0
			if len(cells) > 1 && !grid.IsBlank(cells[1]) {
				base, err = toFloat(cells[1])
				if err != nil {
					return err
				}
			}
			if x <= 0 || base <= 0 || base == 1 {
				return grid.NewError(grid.ErrNum)
			}
			return grid.NumberFromFloat(math.Log(x) / math.Log(base))
		}),
		numericFn("LOG10", func(x float64) grid.CellValue {
			if x <= 0 {
				return grid.NewError(grid.ErrNum)
			}
			return grid.NumberFromFloat(math.Log10(x))
		}),
		scalarFn("MOD", 2, 2, func(cells []grid.CellValue) grid.CellValue {
			n, err := toNumber(cells[0])
			if err != nil {
				return err
			}
			d, err := toNumber(cells[1])
			if err != nil {
				return err
			}
			if d.IsZero() {
				return grid.NewError(grid.ErrDiv0)
			}
			// Result takes the sign of the divisor, as in Excel.
			m := n.Mod(d)
			if !m.IsZero() && m.Sign() != d.Sign() {
				m = m.Add(d)
			}
			return grid.NewNumber(m)
		}),
		&Function{Name: "PI", MinArgs: 0, MaxArgs: 0, Fn: func(e *Evaluator, args []Value) Value {
			return numberFromFloat(math.Pi)
		}},
		&Function{Name: "TAU", MinArgs: 0, MaxArgs: 0, Fn: func(e *Evaluator, args []Value) Value {
			return numberFromFloat(2 * math.Pi)
		}},
	)
}

func builtinSum(e *Evaluator, args []Value) Value {
	nums, err := collectNumbers(args, false)
	if err != nil {
		return single(err)
	}
	total := decimal.Zero
	for _, n := range nums {
		total = total.Add(n)
	}
	return number(total)
}

func builtinProduct(e *Evaluator, args []Value) Value {
	nums, err := collectNumbers(args, false)
	if err != nil {
		return single(err)
	}
	if len(nums) == 0 {
		return number(decimal.Zero)
	}
	total := decimal.NewFromInt(1)
	for _, n := range nums {
		total = total.Mul(n)
	}
	return number(total)
}

func builtinSumIf(e *Evaluator, args []Value) Value {
	criteriaRange := asArray(arg(args, 0))
	criterion, err := parseCriterion(scalarArg(args, 1))
	if err != nil {
		return single(err)
	}
	sumRange := criteriaRange
	if !argOmitted(args, 2) {
		sumRange = asArray(arg(args, 2))
	}
	total := decimal.Zero
	for y := int64(0); y < criteriaRange.H; y++ {
		for x := int64(0); x < criteriaRange.W; x++ {
			if !criterion.matches(criteriaRange.At(x, y)) {
				continue
			}
			if d, ok := numericCell(sumRange.At(x, y)); ok {
				total = total.Add(d)
			}
		}
	}
	return number(total)
}

func builtinSumIfs(e *Evaluator, args []Value) Value {
	sumRange := asArray(arg(args, 0))
	mask, errv := criteriaMask(args[1:], sumRange.W, sumRange.H)
	if errv != nil {
		return single(errv)
	}
	total := decimal.Zero
	for i, selected := range mask {
		if !selected {
			continue
		}
		if d, ok := numericCell(sumRange.Cells[i]); ok {
			total = total.Add(d)
		}
	}
	return number(total)
}
