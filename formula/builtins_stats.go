package formula

import (
	"math"

	"github.com/shopspring/decimal"

	"tally/grid"
)

func init() {
	registerStatsBuiltins()
}

func registerStatsBuiltins() {
	register(
		&Function{Name: "AVERAGE", MinArgs: 1, MaxArgs: -1, Fn: builtinAverage},
		&Function{Name: "COUNT", MinArgs: 1, MaxArgs: -1, Fn: builtinCount},
		&Function{Name: "COUNTA", MinArgs: 1, MaxArgs: -1, Fn: builtinCountA},
		&Function{Name: "COUNTBLANK", MinArgs: 1, MaxArgs: -1, Fn: builtinCountBlank},
		&Function{Name: "MIN", MinArgs: 1, MaxArgs: -1, Fn: builtinMin},
		&Function{Name: "MAX", MinArgs: 1, MaxArgs: -1, Fn: builtinMax},
		&Function{Name: "STDEV", MinArgs: 1, MaxArgs: -1, Fn: statFn(sampleStdev)},
		&Function{Name: "STDEVP", MinArgs: 1, MaxArgs: -1, Fn: statFn(populationStdev)},
		&Function{Name: "VAR", MinArgs: 1, MaxArgs: -1, Fn: statFn(sampleVariance)},
		&Function{Name: "VARP", MinArgs: 1, MaxArgs: -1, Fn: statFn(populationVariance)},
		&Function{Name: "COUNTIF", MinArgs: 2, MaxArgs: 2, Fn: builtinCountIf},
		&Function{Name: "COUNTIFS", MinArgs: 2, MaxArgs: -1, Fn: builtinCountIfs},
		&Function{Name: "AVERAGEIF", MinArgs: 2, MaxArgs: 3, Fn: builtinAverageIf},
		&Function{Name: "AVERAGEIFS", MinArgs: 3, MaxArgs: -1, Fn: builtinAverageIfs},
		&Function{Name: "MINIFS", MinArgs: 3, MaxArgs: -1, Fn: builtinMinIfs},
		&Function{Name: "MAXIFS", MinArgs: 3, MaxArgs: -1, Fn: builtinMaxIfs},
	)
}

func builtinAverage(e *Evaluator, args []Value) Value {
	nums, err := collectNumbers(args, false)
	if err != nil {
		return single(err)
	}
	if len(nums) == 0 {
		return errValue(grid.ErrDiv0)
	}
	total := decimal.Zero
	for _, n := range nums {
		total = total.Add(n)
	}
	return number(total.Div(decimal.NewFromInt(int64(len(nums)))))
}

func builtinCount(e *Evaluator, args []Value) Value {
	count := int64(0)
	flatten(args, func(cell grid.CellValue) {
		if _, ok := cell.(*grid.Number); ok {
			count++
		}
	})
	return number(decimal.NewFromInt(count))
}

func builtinCountA(e *Evaluator, args []Value) Value {
	count := int64(0)
	flatten(args, func(cell grid.CellValue) {
		if !grid.IsBlank(cell) {
			count++
		}
	})
	return number(decimal.NewFromInt(count))
}

func builtinCountBlank(e *Evaluator, args []Value) Value {
	count := int64(0)
	flatten(args, func(cell grid.CellValue) {
		if grid.IsBlank(cell) {
			count++
		}
	})
	return number(decimal.NewFromInt(count))
}

func builtinMin(e *Evaluator, args []Value) Value {
	return extremum(args, func(cmp int) bool { return cmp < 0 })
}

func builtinMax(e *Evaluator, args []Value) Value {
	return extremum(args, func(cmp int) bool { return cmp > 0 })
}

func extremum(args []Value, better func(int) bool) Value {
	nums, err := collectNumbers(args, false)
	if err != nil {
		return single(err)
	}
	if len(nums) == 0 {
		return number(decimal.Zero)
	}
	best := nums[0]
	for _, n := range nums[1:] {
		if better(n.Cmp(best)) {
			best = n
		}
	}
	return number(best)
}

func statFn(stat func([]float64) (float64, bool)) func(e *Evaluator, args []Value) Value {
	return func(e *Evaluator, args []Value) Value {
		nums, err := collectNumbers(args, false)
		if err != nil {
			return single(err)
		}
		floats := make([]float64, len(nums))
		for i, n := range nums {
			floats[i], _ = n.Float64()
		}
		result, ok := stat(floats)
		if !ok {
			return errValue(grid.ErrDiv0)
		}
		return numberFromFloat(result)
	}
}

func mean(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total / float64(len(xs))
}

func sumSquaredDeviations(xs []float64) float64 {
	m := mean(xs)
	total := 0.0
	for _, x := range xs {
		d := x - m
		total += d * d
	}
	return total
}

func sampleVariance(xs []float64) (float64, bool) {
	if len(xs) < 2 {
		return 0, false
	}
	return sumSquaredDeviations(xs) / float64(len(xs)-1), true
}

func populationVariance(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	return sumSquaredDeviations(xs) / float64(len(xs)), true
}

func sampleStdev(xs []float64) (float64, bool) {
	v, ok := sampleVariance(xs)
	return math.Sqrt(v), ok
}

func populationStdev(xs []float64) (float64, bool) {
	v, ok := populationVariance(xs)
	return math.Sqrt(v), ok
}

func builtinCountIf(e *Evaluator, args []Value) Value {
	rng := asArray(arg(args, 0))
	crit, err := parseCriterion(scalarArg(args, 1))
	if err != nil {
		return single(err)
	}
	count := int64(0)
	for _, cell := range rng.Cells {
		if crit.matches(cell) {
			count++
		}
	}
	return number(decimal.NewFromInt(count))
}

func builtinCountIfs(e *Evaluator, args []Value) Value {
	first := asArray(arg(args, 0))
	mask, err := criteriaMask(args, first.W, first.H)
	if err != nil {
		return single(err)
	}
	count := int64(0)
	for _, selected := range mask {
		if selected {
			count++
		}
	}
	return number(decimal.NewFromInt(count))
}

func builtinAverageIf(e *Evaluator, args []Value) Value {
	criteriaRange := asArray(arg(args, 0))
	crit, err := parseCriterion(scalarArg(args, 1))
	if err != nil {
		return single(err)
	}
	valueRange := criteriaRange
	if !argOmitted(args, 2) {
		valueRange = asArray(arg(args, 2))
	}
	total := decimal.Zero
	count := int64(0)
	for y := int64(0); y < criteriaRange.H; y++ {
		for x := int64(0); x < criteriaRange.W; x++ {
			if !crit.matches(criteriaRange.At(x, y)) {
				continue
			}
			cell := valueRange.At(x, y)
			if _, isNum := cell.(*grid.Number); isNum {
				d, _ := toNumber(cell)
				total = total.Add(d)
				count++
			}
		}
	}
	if count == 0 {
		return errValue(grid.ErrDiv0)
	}
	return number(total.Div(decimal.NewFromInt(count)))
}

// maskedNumbers selects the numeric cells of the value range where
// the criteria mask is set.
func maskedNumbers(args []Value) ([]decimal.Decimal, *grid.Error) {
	valueRange := asArray(arg(args, 0))
	mask, err := criteriaMask(args[1:], valueRange.W, valueRange.H)
	if err != nil {
		return nil, err
	}
	var out []decimal.Decimal
	for i, selected := range mask {
		if !selected {
			continue
		}
		cell := valueRange.Cells[i]
		if _, isNum := cell.(*grid.Number); isNum {
			d, _ := toNumber(cell)
			out = append(out, d)
		}
	}
	return out, nil
}

func builtinAverageIfs(e *Evaluator, args []Value) Value {
	nums, err := maskedNumbers(args)
	if err != nil {
		return single(err)
	}
	if len(nums) == 0 {
		return errValue(grid.ErrDiv0)
	}
	total := decimal.Zero
	for _, n := range nums {
		total = total.Add(n)
	}
	return number(total.Div(decimal.NewFromInt(int64(len(nums)))))
}

func builtinMinIfs(e *Evaluator, args []Value) Value {
	return ifsExtremum(args, func(cmp int) bool { return cmp < 0 })
}

func builtinMaxIfs(e *Evaluator, args []Value) Value {
	return ifsExtremum(args, func(cmp int) bool { return cmp > 0 })
}

func ifsExtremum(args []Value, better func(int) bool) Value {
	nums, err := maskedNumbers(args)
	if err != nil {
		return single(err)
	}
	if len(nums) == 0 {
		return number(decimal.Zero)
	}
	best := nums[0]
	for _, n := range nums[1:] {
		if better(n.Cmp(best)) {
			best = n
		}
	}
	return number(best)
}
