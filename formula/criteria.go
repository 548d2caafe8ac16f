package formula

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"tally/grid"
)

// criterion is one predicate of the SUMIF/COUNTIF/database family:
// a comparison operator plus a number, or a text pattern with `*`/`?`
// wildcards, or literal equality.
type criterion struct {
	op      string // "=", "<>", "<", "<=", ">", ">="
	number  decimal.Decimal
	isNum   bool
	pattern *regexp.Regexp // for wildcard text equality
	textVal string
	blank   bool
}

// parseCriterion reads a predicate cell: `">=10"`, `"<>x"`, `"a*"`,
// a bare number, or bare text.
func parseCriterion(cell grid.CellValue) (criterion, *grid.Error) {
	if e, ok := cell.(*grid.Error); ok {
		return criterion{}, e
	}
	if grid.IsBlank(cell) {
		return criterion{op: "=", blank: true}, nil
	}
	if n, ok := numericCell(cell); ok {
		if _, isLogical := cell.(*grid.Logical); !isLogical {
			return criterion{op: "=", number: n, isNum: true}, nil
		}
	}
	s := cell.Display()
	op := "="
	rest := s
	for _, candidate := range []string{"<>", "<=", ">=", "=", "<", ">"} {
		if strings.HasPrefix(s, candidate) {
			op = candidate
			rest = s[len(candidate):]
			break
		}
	}
	rest = strings.TrimSpace(rest)
	if d, err := decimal.NewFromString(rest); err == nil {
		return criterion{op: op, number: d, isNum: true}, nil
	}
	c := criterion{op: op, textVal: rest}
	if op == "=" || op == "<>" {
		if strings.ContainsAny(rest, "*?") {
			c.pattern = wildcardRegexp(rest)
		}
	}
	return c, nil
}

// wildcardRegexp compiles `*`/`?` wildcards to an anchored,
// case-insensitive regexp. `~*` and `~?` escape the wildcard.
func wildcardRegexp(pattern string) *regexp.Regexp {
	var sb strings.Builder
	sb.WriteString("(?i)^")
	for i := 0; i < len(pattern); i++ {
		switch ch := pattern[i]; ch {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		case '~':
			if i+1 < len(pattern) && (pattern[i+1] == '*' || pattern[i+1] == '?') {
				i++
				sb.WriteString(regexp.QuoteMeta(string(pattern[i])))
				continue
			}
			sb.WriteString(regexp.QuoteMeta("~"))
		default:
			sb.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}
	sb.WriteString("$")
	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil
	}
	return re
}

// matches applies the predicate to one cell.
func (c criterion) matches(cell grid.CellValue) bool {
	if c.blank {
		return grid.IsBlank(cell)
	}
	if c.isNum {
		n, ok := numericCell(cell)
		if !ok || grid.IsBlank(cell) {
			return c.op == "<>"
		}
		return compareResult(c.op, n.Cmp(c.number))
	}
	text, ok := textCell(cell)
	if !ok {
		text = cell.Display()
	}
	if c.pattern != nil {
		matched := c.pattern.MatchString(text)
		if c.op == "<>" {
			return !matched
		}
		return matched
	}
	cmp := strings.Compare(strings.ToLower(text), strings.ToLower(c.textVal))
	return compareResult(c.op, cmp)
}

// criteriaMask evaluates (range, criterion) pairs into a combined
// boolean mask of w×h cells; every pair must match for a cell to be
// selected.
func criteriaMask(pairs []Value, w, h int64) ([]bool, *grid.Error) {
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return nil, grid.NewErrorMsg(grid.ErrValue, "criteria must come in range/criterion pairs")
	}
	mask := make([]bool, w*h)
	for i := range mask {
		mask[i] = true
	}
	for i := 0; i < len(pairs); i += 2 {
		rng := asArray(pairs[i])
		if rng.W != w || rng.H != h {
			return nil, grid.NewErrorMsg(grid.ErrValue, "criteria range size mismatch")
		}
		crit, err := parseCriterion(scalarOf(pairs[i+1]))
		if err != nil {
			return nil, err
		}
		for j := range mask {
			if mask[j] && !crit.matches(rng.Cells[j]) {
				mask[j] = false
			}
		}
	}
	return mask, nil
}
