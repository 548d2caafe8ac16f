package formula

import (
	"math"

	"tally/grid"
)

func init() {
	registerRoundingBuiltins()
}

func registerRoundingBuiltins() {
	register(
		numericFn("INT", func(x float64) grid.CellValue {
			return grid.NumberFromFloat(math.Floor(x))
		}),
		scalarFn("CEILING", 2, 2, func(cells []grid.CellValue) grid.CellValue {
			number, err := toFloat(cells[0])
			if err != nil {
				return err
			}
			increment, err := toFloat(cells[1])
			if err != nil {
				return err
			}
			if number > 0 && increment < 0 {
				return grid.NewErrorMsg(grid.ErrNum, "invalid increment sign")
			}
			// Inconsistent with FLOOR on zero, as Excel requires.
			if increment == 0 {
				return grid.NumberFromFloat(0)
			}
			return grid.NumberFromFloat(math.Ceil(number/increment) * increment)
		}),
		scalarFn("FLOOR", 2, 2, func(cells []grid.CellValue) grid.CellValue {
			number, err := toFloat(cells[0])
			if err != nil {
				return err
			}
			increment, err := toFloat(cells[1])
			if err != nil {
				return err
			}
			if number > 0 && increment < 0 {
				return grid.NewErrorMsg(grid.ErrNum, "invalid increment sign")
			}
			if increment == 0 {
				if number == 0 {
					return grid.NumberFromFloat(0)
				}
				return grid.NewError(grid.ErrDiv0)
			}
			return grid.NumberFromFloat(math.Floor(number/increment) * increment)
		}),
		scalarFn("CEILING.MATH", 1, 3, func(cells []grid.CellValue) grid.CellValue {
			return ceilingFloorMath(cells, true)
		}),
		scalarFn("FLOOR.MATH", 1, 3, func(cells []grid.CellValue) grid.CellValue {
			return ceilingFloorMath(cells, false)
		}),
		scalarFn("CEILING.PRECISE", 1, 2, func(cells []grid.CellValue) grid.CellValue {
			return ceilingFloorPrecise(cells, true)
		}),
		scalarFn("FLOOR.PRECISE", 1, 2, func(cells []grid.CellValue) grid.CellValue {
			return ceilingFloorPrecise(cells, false)
		}),
		scalarFn("ISO.CEILING", 1, 2, func(cells []grid.CellValue) grid.CellValue {
			return ceilingFloorPrecise(cells, true)
		}),
		scalarFn("ROUND", 1, 2, func(cells []grid.CellValue) grid.CellValue {
			return roundToDigits(cells, roundNearest)
		}),
		scalarFn("ROUNDUP", 1, 2, func(cells []grid.CellValue) grid.CellValue {
			return roundToDigits(cells, roundAway)
		}),
		scalarFn("ROUNDDOWN", 1, 2, func(cells []grid.CellValue) grid.CellValue {
			return roundToDigits(cells, roundToward)
		}),
		scalarFn("TRUNC", 1, 2, func(cells []grid.CellValue) grid.CellValue {
			return roundToDigits(cells, roundToward)
		}),
		scalarFn("MROUND", 2, 2, func(cells []grid.CellValue) grid.CellValue {
			number, err := toFloat(cells[0])
			if err != nil {
				return err
			}
			multiple, err := toFloat(cells[1])
			if err != nil {
				return err
			}
			if multiple == 0 {
				return grid.NumberFromFloat(0)
			}
			if (number > 0) != (multiple > 0) && number != 0 {
				return grid.NewErrorMsg(grid.ErrNum, "number and multiple must share a sign")
			}
			return grid.NumberFromFloat(math.Round(number/multiple) * multiple)
		}),
		numericFn("ODD", func(x float64) grid.CellValue {
			rounded := math.Ceil(math.Abs(x))
			if math.Mod(rounded, 2) == 0 {
				rounded++
			}
			return grid.NumberFromFloat(math.Copysign(rounded, x))
		}),
		numericFn("EVEN", func(x float64) grid.CellValue {
			rounded := math.Ceil(math.Abs(x)/2) * 2
			return grid.NumberFromFloat(math.Copysign(rounded, x))
		}),
	)
}

func ceilingFloorMath(cells []grid.CellValue, up bool) grid.CellValue {
	number, err := toFloat(cells[0])
	if err != nil {
		return err
	}
	increment := 1.0
	if len(cells) > 1 && !grid.IsBlank(cells[1]) {
		increment, err = toFloat(cells[1])
		if err != nil {
			return err
		}
	}
	increment = math.Abs(increment)
	negativeMode := 1.0
	if len(cells) > 2 && !grid.IsBlank(cells[2]) {
		negativeMode, err = toFloat(cells[2])
		if err != nil {
			return err
		}
	}
	if increment == 0 {
		return grid.NumberFromFloat(0)
	}
	toward := negativeMode < 0 && number < 0
	q := number / increment
	var result float64
	if up != toward {
		result = math.Ceil(q) * increment
	} else {
		result = math.Floor(q) * increment
	}
	return grid.NumberFromFloat(result)
}

func ceilingFloorPrecise(cells []grid.CellValue, up bool) grid.CellValue {
	number, err := toFloat(cells[0])
	if err != nil {
		return err
	}
	increment := 1.0
	if len(cells) > 1 && !grid.IsBlank(cells[1]) {
		increment, err = toFloat(cells[1])
		if err != nil {
			return err
		}
	}
	increment = math.Abs(increment)
	if increment == 0 {
		return grid.NumberFromFloat(0)
	}
	if up {
		return grid.NumberFromFloat(math.Ceil(number/increment) * increment)
	}
	return grid.NumberFromFloat(math.Floor(number/increment) * increment)
}

type roundMode int

const (
	roundNearest roundMode = iota
	roundAway
	roundToward
)

// roundToDigits rounds at a decimal digit position: positive digits
// after the point, negative before. Ties round away from zero.
func roundToDigits(cells []grid.CellValue, mode roundMode) grid.CellValue {
	number, err := toFloat(cells[0])
	if err != nil {
		return err
	}
	digits := int64(0)
	if len(cells) > 1 && !grid.IsBlank(cells[1]) {
		digits, err = toInt(cells[1])
		if err != nil {
			return err
		}
	}
	scale := math.Pow(10, float64(digits))
	scaled := number * scale
	var rounded float64
	switch mode {
	case roundNearest:
		rounded = math.Round(scaled)
	case roundAway:
		rounded = math.Trunc(scaled)
		if scaled != rounded {
			rounded = math.Trunc(scaled + math.Copysign(1, scaled))
		}
	case roundToward:
		rounded = math.Trunc(scaled)
	}
	return grid.NumberFromFloat(rounded / scale)
}
