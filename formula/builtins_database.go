package formula

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"tally/grid"
)

func init() {
	registerDatabaseBuiltins()
}

func registerDatabaseBuiltins() {
	register(
		&Function{Name: "DSUM", MinArgs: 3, MaxArgs: 3, Fn: dbAggregate(func(nums []decimal.Decimal) Value {
			total := decimal.Zero
			for _, n := range nums {
				total = total.Add(n)
			}
			return number(total)
		})},
		&Function{Name: "DAVERAGE", MinArgs: 3, MaxArgs: 3, Fn: dbAggregate(func(nums []decimal.Decimal) Value {
			if len(nums) == 0 {
				return errValue(grid.ErrDiv0)
			}
			total := decimal.Zero
			for _, n := range nums {
				total = total.Add(n)
			}
			return number(total.Div(decimal.NewFromInt(int64(len(nums)))))
		})},
		&Function{Name: "DCOUNT", MinArgs: 3, MaxArgs: 3, Fn: dbAggregate(func(nums []decimal.Decimal) Value {
			return intValue(int64(len(nums)))
		})},
		&Function{Name: "DCOUNTA", MinArgs: 3, MaxArgs: 3, Fn: builtinDCountA},
		&Function{Name: "DMAX", MinArgs: 3, MaxArgs: 3, Fn: dbAggregate(func(nums []decimal.Decimal) Value {
			return dbExtremum(nums, func(cmp int) bool { return cmp > 0 })
		})},
		&Function{Name: "DMIN", MinArgs: 3, MaxArgs: 3, Fn: dbAggregate(func(nums []decimal.Decimal) Value {
			return dbExtremum(nums, func(cmp int) bool { return cmp < 0 })
		})},
		&Function{Name: "DPRODUCT", MinArgs: 3, MaxArgs: 3, Fn: dbAggregate(func(nums []decimal.Decimal) Value {
			total := decimal.NewFromInt(1)
			for _, n := range nums {
				total = total.Mul(n)
			}
			if len(nums) == 0 {
				return number(decimal.Zero)
			}
			return number(total)
		})},
		&Function{Name: "DSTDEV", MinArgs: 3, MaxArgs: 3, Fn: dbFloatAggregate(sampleStdev)},
		&Function{Name: "DSTDEVP", MinArgs: 3, MaxArgs: 3, Fn: dbFloatAggregate(populationStdev)},
		&Function{Name: "DVAR", MinArgs: 3, MaxArgs: 3, Fn: dbFloatAggregate(sampleVariance)},
		&Function{Name: "DVARP", MinArgs: 3, MaxArgs: 3, Fn: dbFloatAggregate(populationVariance)},
		&Function{Name: "DGET", MinArgs: 3, MaxArgs: 3, Fn: builtinDGet},
	)
}

// database wraps the first argument of the D-functions: a range whose
// first row names columns.
type database struct {
	headers []string
	rows    *Array // data rows only
}

func asDatabase(v Value) (*database, *grid.Error) {
	arr := asArray(v)
	if arr.H < 1 {
		return nil, grid.NewErrorMsg(grid.ErrValue, "database needs a header row")
	}
	db := &database{}
	for x := int64(0); x < arr.W; x++ {
		s, err := toText(arr.At(x, 0))
		if err != nil {
			return nil, err
		}
		db.headers = append(db.headers, s)
	}
	rows := NewArray(arr.W, arr.H-1)
	for y := int64(1); y < arr.H; y++ {
		for x := int64(0); x < arr.W; x++ {
			rows.Set(x, y-1, arr.At(x, y))
		}
	}
	db.rows = rows
	return db, nil
}

// fieldIndex resolves the second argument: a column name (text) or a
// 1-based index.
func (db *database) fieldIndex(field grid.CellValue) (int64, *grid.Error) {
	if n, ok := numericCell(field); ok && !grid.IsBlank(field) {
		if _, isText := field.(*grid.Text); !isText {
			idx := n.IntPart()
			if idx < 1 || idx > int64(len(db.headers)) {
				return 0, grid.NewErrorMsg(grid.ErrValue, "field index out of range")
			}
			return idx - 1, nil
		}
	}
	name, err := toText(field)
	if err != nil {
		return 0, err
	}
	for i, header := range db.headers {
		if strings.EqualFold(header, name) {
			return int64(i), nil
		}
	}
	return 0, grid.NewErrorMsg(grid.ErrValue, "unknown field "+quoteShort(name))
}

// matchingRows evaluates the criteria range: the first row names
// columns, each further row is a conjunction of predicates, and rows
// are OR-ed together.
func (db *database) matchingRows(criteria Value) ([]int64, *grid.Error) {
	crit := asArray(criteria)
	if crit.H < 2 {
		// No predicate rows: everything matches.
		all := make([]int64, db.rows.H)
		for i := range all {
			all[i] = int64(i)
		}
		return all, nil
	}
	// Map criteria columns onto database columns.
	colMap := make([]int64, crit.W)
	for x := int64(0); x < crit.W; x++ {
		name, err := toText(crit.At(x, 0))
		if err != nil {
			return nil, err
		}
		colMap[x] = -1
		for i, header := range db.headers {
			if strings.EqualFold(header, name) {
				colMap[x] = int64(i)
				break
			}
		}
	}
	var out []int64
	for row := int64(0); row < db.rows.H; row++ {
		matched := false
		for cy := int64(1); cy < crit.H && !matched; cy++ {
			rowMatches := true
			for cx := int64(0); cx < crit.W; cx++ {
				cell := crit.At(cx, cy)
				if grid.IsBlank(cell) {
					continue
				}
				if colMap[cx] < 0 {
					rowMatches = false
					break
				}
				pred, err := parseCriterion(cell)
				if err != nil {
					return nil, err
				}
				if !pred.matches(db.rows.At(colMap[cx], row)) {
					rowMatches = false
					break
				}
			}
			if rowMatches {
				matched = true
			}
		}
		if matched {
			out = append(out, row)
		}
	}
	return out, nil
}

// dbNumbers extracts the numeric values of the field column over the
// matching rows.
func dbNumbers(args []Value) ([]decimal.Decimal, *grid.Error) {
	db, err := asDatabase(arg(args, 0))
	if err != nil {
		return nil, err
	}
	field, err := db.fieldIndex(scalarArg(args, 1))
	if err != nil {
		return nil, err
	}
	rows, err := db.matchingRows(arg(args, 2))
	if err != nil {
		return nil, err
	}
	var out []decimal.Decimal
	for _, row := range rows {
		cell := db.rows.At(field, row)
		if e, ok := cell.(*grid.Error); ok {
			return nil, e
		}
		if _, isNum := cell.(*grid.Number); isNum {
			d, _ := toNumber(cell)
			out = append(out, d)
		}
	}
	return out, nil
}

func dbAggregate(agg func([]decimal.Decimal) Value) func(e *Evaluator, args []Value) Value {
	return func(e *Evaluator, args []Value) Value {
		nums, err := dbNumbers(args)
		if err != nil {
			return single(err)
		}
		return agg(nums)
	}
}

func dbFloatAggregate(stat func([]float64) (float64, bool)) func(e *Evaluator, args []Value) Value {
	return func(e *Evaluator, args []Value) Value {
		nums, err := dbNumbers(args)
		if err != nil {
			return single(err)
		}
		floats := make([]float64, len(nums))
		for i, n := range nums {
			floats[i], _ = n.Float64()
		}
		result, ok := stat(floats)
		if !ok || math.IsNaN(result) {
			return errValue(grid.ErrDiv0)
		}
		return numberFromFloat(result)
	}
}

func dbExtremum(nums []decimal.Decimal, better func(int) bool) Value {
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

func builtinDCountA(e *Evaluator, args []Value) Value {
	db, err := asDatabase(arg(args, 0))
	if err != nil {
		return single(err)
	}
	field, err := db.fieldIndex(scalarArg(args, 1))
	if err != nil {
		return single(err)
	}
	rows, err := db.matchingRows(arg(args, 2))
	if err != nil {
		return single(err)
	}
	count := int64(0)
	for _, row := range rows {
		if !grid.IsBlank(db.rows.At(field, row)) {
			count++
		}
	}
	return intValue(count)
}

// builtinDGet requires exactly one matching row.
func builtinDGet(e *Evaluator, args []Value) Value {
	db, err := asDatabase(arg(args, 0))
	if err != nil {
		return single(err)
	}
	field, err := db.fieldIndex(scalarArg(args, 1))
	if err != nil {
		return single(err)
	}
	rows, err := db.matchingRows(arg(args, 2))
	if err != nil {
		return single(err)
	}
	switch len(rows) {
	case 0:
		return errValue(grid.ErrValue)
	case 1:
		return single(db.rows.At(field, rows[0]))
	default:
		return errValue(grid.ErrNum)
	}
}
