package formula

import (
	"strings"

	"github.com/shopspring/decimal"

	"tally/datetime"
	"tally/grid"
)

// toNumber coerces a cell value to a decimal. Blank is 0, logicals
// are 0/1, text parses when possible, errors propagate.
func toNumber(v grid.CellValue) (decimal.Decimal, *grid.Error) {
	switch val := v.(type) {
	case nil, *grid.Blank:
		return decimal.Zero, nil
	case *grid.Number:
		return val.Value, nil
	case *grid.Logical:
		if val.Value {
			return decimal.NewFromInt(1), nil
		}
		return decimal.Zero, nil
	case *grid.Text:
		s := strings.TrimSpace(val.Value)
		percent := false
		if strings.HasSuffix(s, "%") {
			percent = true
			s = strings.TrimSuffix(s, "%")
		}
		d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
		if err != nil {
			return decimal.Zero, grid.NewErrorMsg(grid.ErrValue, "expected number, got "+quoteShort(val.Value))
		}
		if percent {
			d = d.Div(decimal.NewFromInt(100))
		}
		return d, nil
	case *grid.Error:
		return decimal.Zero, val
	}
	return decimal.Zero, grid.NewErrorMsg(grid.ErrValue, "expected number, got "+string(v.Kind()))
}

// toFloat is toNumber for float64 consumers.
func toFloat(v grid.CellValue) (float64, *grid.Error) {
	d, err := toNumber(v)
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}

// toInt truncates toward zero after coercion.
func toInt(v grid.CellValue) (int64, *grid.Error) {
	d, err := toNumber(v)
	if err != nil {
		return 0, err
	}
	return d.IntPart(), nil
}

// toText coerces a cell value to text; errors propagate.
func toText(v grid.CellValue) (string, *grid.Error) {
	switch val := v.(type) {
	case nil, *grid.Blank:
		return "", nil
	case *grid.Error:
		return "", val
	default:
		return val.Display(), nil
	}
}

// toLogical coerces: logicals as-is, numbers by zero test, text
// "TRUE"/"FALSE", blank false.
func toLogical(v grid.CellValue) (bool, *grid.Error) {
	switch val := v.(type) {
	case nil, *grid.Blank:
		return false, nil
	case *grid.Logical:
		return val.Value, nil
	case *grid.Number:
		return !val.Value.IsZero(), nil
	case *grid.Text:
		switch strings.ToUpper(strings.TrimSpace(val.Value)) {
		case "TRUE":
			return true, nil
		case "FALSE":
			return false, nil
		}
		return false, grid.NewErrorMsg(grid.ErrValue, "expected logical, got "+quoteShort(val.Value))
	case *grid.Error:
		return false, val
	}
	return false, grid.NewErrorMsg(grid.ErrValue, "expected logical, got "+string(v.Kind()))
}

// compareCells orders two cell values for formula comparison
// operators: numbers numerically, text case-insensitively, logicals
// as 0/1 against numbers. Mixed incomparable kinds compare by kind
// name so ordering is total.
func compareCells(x, y grid.CellValue) (int, *grid.Error) {
	if e, ok := x.(*grid.Error); ok {
		return 0, e
	}
	if e, ok := y.(*grid.Error); ok {
		return 0, e
	}
	xn, xIsNum := numericCell(x)
	yn, yIsNum := numericCell(y)
	if xIsNum && yIsNum {
		return xn.Cmp(yn), nil
	}
	xt, xIsText := textCell(x)
	yt, yIsText := textCell(y)
	if xIsText && yIsText {
		return strings.Compare(strings.ToLower(xt), strings.ToLower(yt)), nil
	}
	return strings.Compare(string(kindOf(x)), string(kindOf(y))), nil
}

func numericCell(v grid.CellValue) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case nil, *grid.Blank:
		return decimal.Zero, true
	case *grid.Number:
		return val.Value, true
	case *grid.Logical:
		if val.Value {
			return decimal.NewFromInt(1), true
		}
		return decimal.Zero, true
	}
	return decimal.Zero, false
}

func textCell(v grid.CellValue) (string, bool) {
	switch val := v.(type) {
	case nil, *grid.Blank:
		return "", true
	case *grid.Text:
		return val.Value, true
	}
	return "", false
}

func kindOf(v grid.CellValue) grid.Kind {
	if v == nil {
		return grid.BLANK
	}
	return v.Kind()
}

// toInstant extracts a time for the date/time functions: date, time
// and date-time cells directly, text by parsing.
func toInstant(v grid.CellValue) (grid.CellValue, *grid.Error) {
	switch val := v.(type) {
	case *grid.Date, *grid.Time, *grid.DateTime:
		return val, nil
	case *grid.Text:
		if dt, ok := datetime.ParseDateTime(val.Value); ok {
			return &grid.DateTime{Value: dt}, nil
		}
		if d, ok := datetime.ParseDate(val.Value); ok {
			return &grid.Date{Value: d}, nil
		}
		if t, ok := datetime.ParseTime(val.Value); ok {
			return &grid.Time{Value: t}, nil
		}
		return nil, grid.NewErrorMsg(grid.ErrValue, "expected date or time, got "+quoteShort(val.Value))
	case *grid.Error:
		return nil, val
	}
	return nil, grid.NewErrorMsg(grid.ErrValue, "expected date or time, got "+string(kindOf(v)))
}

func quoteShort(s string) string {
	if len(s) > 20 {
		s = s[:20] + "…"
	}
	return `"` + s + `"`
}
