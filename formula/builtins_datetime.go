package formula

import (
	"time"

	"tally/datetime"
	"tally/grid"
)

func init() {
	registerDateTimeBuiltins()
}

func registerDateTimeBuiltins() {
	register(
		scalarFn("DATE", 3, 3, func(cells []grid.CellValue) grid.CellValue {
			year, err := toInt(cells[0])
			if err != nil {
				return err
			}
			month, err := toInt(cells[1])
			if err != nil {
				return err
			}
			day, err := toInt(cells[2])
			if err != nil {
				return err
			}
			// Out-of-range months and days roll over, as in Excel.
			return &grid.Date{Value: time.Date(int(year), time.Month(month), int(day), 0, 0, 0, 0, time.UTC)}
		}),
		scalarFn("TIME", 3, 3, func(cells []grid.CellValue) grid.CellValue {
			hour, err := toInt(cells[0])
			if err != nil {
				return err
			}
			minute, err := toInt(cells[1])
			if err != nil {
				return err
			}
			second, err := toInt(cells[2])
			if err != nil {
				return err
			}
			return &grid.Time{Value: time.Date(0, 1, 1, int(hour), int(minute), int(second), 0, time.UTC)}
		}),
		&Function{Name: "NOW", MinArgs: 0, MaxArgs: 0, Fn: func(e *Evaluator, args []Value) Value {
			return single(&grid.DateTime{Value: time.Now().UTC().Truncate(time.Second)})
		}},
		&Function{Name: "TODAY", MinArgs: 0, MaxArgs: 0, Fn: func(e *Evaluator, args []Value) Value {
			now := time.Now().UTC()
			return single(&grid.Date{Value: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)})
		}},
		datePartFn("YEAR", func(t time.Time) int64 { return int64(t.Year()) }),
		datePartFn("MONTH", func(t time.Time) int64 { return int64(t.Month()) }),
		datePartFn("DAY", func(t time.Time) int64 { return int64(t.Day()) }),
		datePartFn("HOUR", func(t time.Time) int64 { return int64(t.Hour()) }),
		datePartFn("MINUTE", func(t time.Time) int64 { return int64(t.Minute()) }),
		datePartFn("SECOND", func(t time.Time) int64 { return int64(t.Second()) }),
		scalarFn("WEEKDAY", 1, 2, func(cells []grid.CellValue) grid.CellValue {
			instant, err := toInstant(cells[0])
			if err != nil {
				return err
			}
			t := instantTime(instant)
			mode := int64(1)
			if len(cells) > 1 && !grid.IsBlank(cells[1]) {
				mode, err = toInt(cells[1])
				if err != nil {
					return err
				}
			}
			day := int64(t.Weekday()) // Sunday = 0
			switch mode {
			case 1:
				return grid.NumberFromInt(day + 1)
			case 2:
				return grid.NumberFromInt((day+6)%7 + 1)
			case 3:
				return grid.NumberFromInt((day + 6) % 7)
			default:
				return grid.NewError(grid.ErrNum)
			}
		}),
		scalarFn("DATEVALUE", 1, 1, func(cells []grid.CellValue) grid.CellValue {
			s, err := toText(cells[0])
			if err != nil {
				return err
			}
			d, ok := datetime.ParseDate(s)
			if !ok {
				return grid.NewError(grid.ErrValue)
			}
			return &grid.Date{Value: d}
		}),
		scalarFn("TIMEVALUE", 1, 1, func(cells []grid.CellValue) grid.CellValue {
			s, err := toText(cells[0])
			if err != nil {
				return err
			}
			t, ok := datetime.ParseTime(s)
			if !ok {
				return grid.NewError(grid.ErrValue)
			}
			return &grid.Time{Value: t}
		}),
		scalarFn("TEXT", 2, 2, func(cells []grid.CellValue) grid.CellValue {
			instant, err := toInstant(cells[0])
			if err != nil {
				// Fall back to plain display for non-dates.
				s, terr := toText(cells[0])
				if terr != nil {
					return terr
				}
				return &grid.Text{Value: s}
			}
			format, err := toText(cells[1])
			if err != nil {
				return err
			}
			switch v := instant.(type) {
			case *grid.Date:
				return &grid.Text{Value: datetime.FormatDate(v.Value, format)}
			case *grid.Time:
				return &grid.Text{Value: datetime.FormatTime(v.Value, format)}
			case *grid.DateTime:
				return &grid.Text{Value: datetime.FormatDateTime(v.Value, format)}
			}
			return grid.NewError(grid.ErrValue)
		}),
	)
}

func datePartFn(name string, part func(time.Time) int64) *Function {
	return scalarFn(name, 1, 1, func(cells []grid.CellValue) grid.CellValue {
		instant, err := toInstant(cells[0])
		if err != nil {
			return err
		}
		return grid.NumberFromInt(part(instantTime(instant)))
	})
}

func instantTime(v grid.CellValue) time.Time {
	switch val := v.(type) {
	case *grid.Date:
		return val.Value
	case *grid.Time:
		return val.Value
	case *grid.DateTime:
		return val.Value
	}
	return time.Time{}
}
