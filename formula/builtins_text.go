package formula

import (
	"strings"
	"unicode"

	"tally/grid"
)

func init() {
	registerTextBuiltins()
}

func registerTextBuiltins() {
	register(
		&Function{Name: "CONCAT", MinArgs: 1, MaxArgs: -1, Fn: builtinConcat},
		&Function{Name: "CONCATENATE", MinArgs: 1, MaxArgs: -1, Fn: builtinConcatenate},
		scalarFn("LEFT", 1, 2, func(cells []grid.CellValue) grid.CellValue {
			return takeChars(cells, false, false)
		}),
		scalarFn("LEFTB", 1, 2, func(cells []grid.CellValue) grid.CellValue {
			return takeChars(cells, false, true)
		}),
		scalarFn("RIGHT", 1, 2, func(cells []grid.CellValue) grid.CellValue {
			return takeChars(cells, true, false)
		}),
		scalarFn("RIGHTB", 1, 2, func(cells []grid.CellValue) grid.CellValue {
			return takeChars(cells, true, true)
		}),
		scalarFn("MID", 3, 3, func(cells []grid.CellValue) grid.CellValue {
			return midChars(cells, false)
		}),
		scalarFn("MIDB", 3, 3, func(cells []grid.CellValue) grid.CellValue {
			return midChars(cells, true)
		}),
		scalarFn("LEN", 1, 1, func(cells []grid.CellValue) grid.CellValue {
			s, err := toText(cells[0])
			if err != nil {
				return err
			}
			return grid.NumberFromInt(int64(len([]rune(s))))
		}),
		scalarFn("LENB", 1, 1, func(cells []grid.CellValue) grid.CellValue {
			s, err := toText(cells[0])
			if err != nil {
				return err
			}
			return grid.NumberFromInt(int64(len(s)))
		}),
		scalarFn("REPLACE", 4, 4, func(cells []grid.CellValue) grid.CellValue {
			return replaceAt(cells, false)
		}),
		scalarFn("REPLACEB", 4, 4, func(cells []grid.CellValue) grid.CellValue {
			return replaceAt(cells, true)
		}),
		scalarFn("SUBSTITUTE", 3, 4, func(cells []grid.CellValue) grid.CellValue {
			s, err := toText(cells[0])
			if err != nil {
				return err
			}
			old, err := toText(cells[1])
			if err != nil {
				return err
			}
			replacement, err := toText(cells[2])
			if err != nil {
				return err
			}
			if old == "" {
				return &grid.Text{Value: s}
			}
			if len(cells) > 3 && !grid.IsBlank(cells[3]) {
				nth, err := toInt(cells[3])
				if err != nil {
					return err
				}
				if nth < 1 {
					return grid.NewError(grid.ErrValue)
				}
				return &grid.Text{Value: substituteNth(s, old, replacement, nth)}
			}
			return &grid.Text{Value: strings.ReplaceAll(s, old, replacement)}
		}),
		scalarFn("TRIM", 1, 1, func(cells []grid.CellValue) grid.CellValue {
			s, err := toText(cells[0])
			if err != nil {
				return err
			}
			return &grid.Text{Value: strings.Join(strings.Fields(s), " ")}
		}),
		scalarFn("CLEAN", 1, 1, func(cells []grid.CellValue) grid.CellValue {
			s, err := toText(cells[0])
			if err != nil {
				return err
			}
			var sb strings.Builder
			for _, r := range s {
				if r >= 32 && r != 127 {
					sb.WriteRune(r)
				}
			}
			return &grid.Text{Value: sb.String()}
		}),
		scalarFn("LOWER", 1, 1, func(cells []grid.CellValue) grid.CellValue {
			s, err := toText(cells[0])
			if err != nil {
				return err
			}
			return &grid.Text{Value: strings.ToLower(s)}
		}),
		scalarFn("UPPER", 1, 1, func(cells []grid.CellValue) grid.CellValue {
			s, err := toText(cells[0])
			if err != nil {
				return err
			}
			return &grid.Text{Value: strings.ToUpper(s)}
		}),
		scalarFn("PROPER", 1, 1, func(cells []grid.CellValue) grid.CellValue {
			s, err := toText(cells[0])
			if err != nil {
				return err
			}
			return &grid.Text{Value: properCase(s)}
		}),
		scalarFn("REPT", 2, 2, func(cells []grid.CellValue) grid.CellValue {
			s, err := toText(cells[0])
			if err != nil {
				return err
			}
			n, err := toInt(cells[1])
			if err != nil {
				return err
			}
			if n < 0 || int64(len(s))*n > 32767 {
				return grid.NewError(grid.ErrValue)
			}
			return &grid.Text{Value: strings.Repeat(s, int(n))}
		}),
		scalarFn("EXACT", 2, 2, func(cells []grid.CellValue) grid.CellValue {
			a, err := toText(cells[0])
			if err != nil {
				return err
			}
			b, err := toText(cells[1])
			if err != nil {
				return err
			}
			return &grid.Logical{Value: a == b}
		}),
		scalarFn("FIND", 2, 3, func(cells []grid.CellValue) grid.CellValue {
			return findIn(cells, true)
		}),
		scalarFn("SEARCH", 2, 3, func(cells []grid.CellValue) grid.CellValue {
			return findIn(cells, false)
		}),
		scalarFn("ASC", 1, 1, func(cells []grid.CellValue) grid.CellValue {
			s, err := toText(cells[0])
			if err != nil {
				return err
			}
			return &grid.Text{Value: toHalfWidth(s)}
		}),
		scalarFn("DBCS", 1, 1, func(cells []grid.CellValue) grid.CellValue {
			s, err := toText(cells[0])
			if err != nil {
				return err
			}
			return &grid.Text{Value: toFullWidth(s)}
		}),
		&Function{Name: "TEXTJOIN", MinArgs: 3, MaxArgs: -1, Fn: builtinTextJoin},
		&Function{Name: "ARRAYTOTEXT", MinArgs: 1, MaxArgs: 2, Fn: builtinArrayToText},
		scalarFn("T", 1, 1, func(cells []grid.CellValue) grid.CellValue {
			if t, ok := cells[0].(*grid.Text); ok {
				return t
			}
			if e, ok := cells[0].(*grid.Error); ok {
				return e
			}
			return &grid.Text{Value: ""}
		}),
	)
}

func builtinConcat(e *Evaluator, args []Value) Value {
	var sb strings.Builder
	var failure *grid.Error
	flatten(args, func(cell grid.CellValue) {
		if failure != nil {
			return
		}
		s, err := toText(cell)
		if err != nil {
			failure = err
			return
		}
		sb.WriteString(s)
	})
	if failure != nil {
		return single(failure)
	}
	return text(sb.String())
}

// builtinConcatenate zip-maps (unlike CONCAT, which flattens ranges).
func builtinConcatenate(e *Evaluator, args []Value) Value {
	return zipMap(args, func(cells []grid.CellValue) grid.CellValue {
		var sb strings.Builder
		for _, cell := range cells {
			s, err := toText(cell)
			if err != nil {
				return err
			}
			sb.WriteString(s)
		}
		return &grid.Text{Value: sb.String()}
	})
}

func builtinTextJoin(e *Evaluator, args []Value) Value {
	sep, err := toText(scalarArg(args, 0))
	if err != nil {
		return single(err)
	}
	ignoreEmpty, err2 := toLogical(scalarArg(args, 1))
	if err2 != nil {
		return single(err2)
	}
	var parts []string
	var failure *grid.Error
	flatten(args[2:], func(cell grid.CellValue) {
		if failure != nil {
			return
		}
		s, err := toText(cell)
		if err != nil {
			failure = err
			return
		}
		if ignoreEmpty && s == "" {
			return
		}
		parts = append(parts, s)
	})
	if failure != nil {
		return single(failure)
	}
	return text(strings.Join(parts, sep))
}

func builtinArrayToText(e *Evaluator, args []Value) Value {
	arr := asArray(arg(args, 0))
	concise := true
	if !argOmitted(args, 1) {
		format, err := toInt(scalarArg(args, 1))
		if err != nil {
			return single(err)
		}
		concise = format == 0
	}
	rows := make([]string, arr.H)
	for y := int64(0); y < arr.H; y++ {
		cells := make([]string, arr.W)
		for x := int64(0); x < arr.W; x++ {
			s, err := toText(arr.At(x, y))
			if err != nil {
				s = err.Display()
			}
			cells[x] = s
		}
		rows[y] = strings.Join(cells, ", ")
	}
	if concise {
		return text(strings.Join(rows, ", "))
	}
	return text("{" + strings.Join(rows, "; ") + "}")
}

func takeChars(cells []grid.CellValue, fromRight, bytes bool) grid.CellValue {
	s, err := toText(cells[0])
	if err != nil {
		return err
	}
	n := int64(1)
	if len(cells) > 1 && !grid.IsBlank(cells[1]) {
		n, err = toInt(cells[1])
		if err != nil {
			return err
		}
	}
	if n < 0 {
		return grid.NewError(grid.ErrValue)
	}
	if bytes {
		if n >= int64(len(s)) {
			return &grid.Text{Value: s}
		}
		if fromRight {
			return &grid.Text{Value: s[int64(len(s))-n:]}
		}
		return &grid.Text{Value: s[:n]}
	}
	runes := []rune(s)
	if n >= int64(len(runes)) {
		return &grid.Text{Value: s}
	}
	if fromRight {
		return &grid.Text{Value: string(runes[int64(len(runes))-n:])}
	}
	return &grid.Text{Value: string(runes[:n])}
}

func midChars(cells []grid.CellValue, bytes bool) grid.CellValue {
	s, err := toText(cells[0])
	if err != nil {
		return err
	}
	start, err := toInt(cells[1])
	if err != nil {
		return err
	}
	count, err := toInt(cells[2])
	if err != nil {
		return err
	}
	if start < 1 || count < 0 {
		return grid.NewError(grid.ErrValue)
	}
	if bytes {
		from := start - 1
		if from >= int64(len(s)) {
			return &grid.Text{Value: ""}
		}
		to := from + count
		if to > int64(len(s)) {
			to = int64(len(s))
		}
		return &grid.Text{Value: s[from:to]}
	}
	runes := []rune(s)
	from := start - 1
	if from >= int64(len(runes)) {
		return &grid.Text{Value: ""}
	}
	to := from + count
	if to > int64(len(runes)) {
		to = int64(len(runes))
	}
	return &grid.Text{Value: string(runes[from:to])}
}

func replaceAt(cells []grid.CellValue, bytes bool) grid.CellValue {
	s, err := toText(cells[0])
	if err != nil {
		return err
	}
	start, err := toInt(cells[1])
	if err != nil {
		return err
	}
	count, err := toInt(cells[2])
	if err != nil {
		return err
	}
	replacement, err := toText(cells[3])
	if err != nil {
		return err
	}
	if start < 1 || count < 0 {
		return grid.NewError(grid.ErrValue)
	}
	if bytes {
		from := min64(start-1, int64(len(s)))
		to := min64(from+count, int64(len(s)))
		return &grid.Text{Value: s[:from] + replacement + s[to:]}
	}
	runes := []rune(s)
	from := min64(start-1, int64(len(runes)))
	to := min64(from+count, int64(len(runes)))
	return &grid.Text{Value: string(runes[:from]) + replacement + string(runes[to:])}
}

func substituteNth(s, old, replacement string, nth int64) string {
	count := int64(0)
	idx := 0
	for {
		i := strings.Index(s[idx:], old)
		if i < 0 {
			return s
		}
		count++
		at := idx + i
		if count == nth {
			return s[:at] + replacement + s[at+len(old):]
		}
		idx = at + len(old)
	}
}

func properCase(s string) string {
	var sb strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				sb.WriteRune(unicode.ToLower(r))
			} else {
				sb.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
		} else {
			sb.WriteRune(r)
			prevLetter = false
		}
	}
	return sb.String()
}

func findIn(cells []grid.CellValue, caseSensitive bool) grid.CellValue {
	needle, err := toText(cells[0])
	if err != nil {
		return err
	}
	haystack, err := toText(cells[1])
	if err != nil {
		return err
	}
	start := int64(1)
	if len(cells) > 2 && !grid.IsBlank(cells[2]) {
		start, err = toInt(cells[2])
		if err != nil {
			return err
		}
	}
	runes := []rune(haystack)
	if start < 1 || start > int64(len(runes))+1 {
		return grid.NewError(grid.ErrValue)
	}
	offset := start - 1
	h := string(runes[offset:])
	n := needle
	if !caseSensitive {
		h = strings.ToLower(h)
		n = strings.ToLower(n)
	}
	idx := strings.Index(h, n)
	if idx < 0 {
		return grid.NewError(grid.ErrValue)
	}
	return grid.NumberFromInt(offset + int64(len([]rune(h[:idx]))) + 1)
}

func toHalfWidth(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 0xFF01 && r <= 0xFF5E:
			sb.WriteRune(r - 0xFEE0)
		case r == 0x3000:
			sb.WriteRune(' ')
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func toFullWidth(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 0x21 && r <= 0x7E:
			sb.WriteRune(r + 0xFEE0)
		case r == ' ':
			sb.WriteRune(0x3000)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
