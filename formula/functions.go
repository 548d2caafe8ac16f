package formula

import (
	"github.com/shopspring/decimal"

	"tally/ast"
	"tally/grid"
)

// Function is one formula builtin. Fn receives evaluated arguments;
// RawFn receives the unevaluated call for functions that need the
// reference itself (ROW, OFFSET, INDIRECT, ...). Exactly one is set.
type Function struct {
	Name    string
	MinArgs int
	MaxArgs int // -1 means variadic
	Fn      func(e *Evaluator, args []Value) Value
	RawFn   func(e *Evaluator, call *ast.CallExpression) Value
}

var builtins = map[string]*Function{}

func register(fns ...*Function) {
	for _, fn := range fns {
		builtins[fn.Name] = fn
	}
}

// FunctionNames lists every registered builtin.
func FunctionNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	return names
}

// arg returns the i-th argument or nil when omitted.
func arg(args []Value, i int) Value {
	if i < 0 || i >= len(args) || args[i] == nil {
		return nil
	}
	return args[i]
}

// argOmitted reports whether the i-th argument is absent or an empty
// slot.
func argOmitted(args []Value, i int) bool {
	return arg(args, i) == nil
}

// scalarArg collapses the i-th argument to a cell; omitted arguments
// are Blank.
func scalarArg(args []Value, i int) grid.CellValue {
	v := arg(args, i)
	if v == nil {
		return grid.BlankValue
	}
	return scalarOf(v)
}

// floatArg coerces the i-th argument to float64.
func floatArg(args []Value, i int) (float64, *grid.Error) {
	return toFloat(scalarArg(args, i))
}

// floatArgOr coerces the i-th argument, defaulting when omitted.
func floatArgOr(args []Value, i int, def float64) (float64, *grid.Error) {
	if argOmitted(args, i) {
		return def, nil
	}
	return floatArg(args, i)
}

// intArg coerces the i-th argument to int64 (truncating).
func intArg(args []Value, i int) (int64, *grid.Error) {
	return toInt(scalarArg(args, i))
}

func intArgOr(args []Value, i int, def int64) (int64, *grid.Error) {
	if argOmitted(args, i) {
		return def, nil
	}
	return intArg(args, i)
}

// textArg coerces the i-th argument to text.
func textArg(args []Value, i int) (string, *grid.Error) {
	return toText(scalarArg(args, i))
}

func textArgOr(args []Value, i int, def string) (string, *grid.Error) {
	if argOmitted(args, i) {
		return def, nil
	}
	return textArg(args, i)
}

// collectNumbers walks every numeric cell of the arguments. Text and
// logical cells inside ranges are skipped (spreadsheet aggregate
// semantics); scalar text arguments coerce. Errors abort.
func collectNumbers(args []Value, includeCoerced bool) ([]decimal.Decimal, *grid.Error) {
	var out []decimal.Decimal
	var failure *grid.Error
	for _, argv := range args {
		if argv == nil {
			continue
		}
		_, wasArray := argv.(*Array)
		flatten([]Value{argv}, func(cell grid.CellValue) {
			if failure != nil {
				return
			}
			switch c := cell.(type) {
			case *grid.Error:
				failure = c
			case *grid.Number:
				out = append(out, c.Value)
			case nil, *grid.Blank:
				// Blanks never count.
			default:
				if !wasArray || includeCoerced {
					d, err := toNumber(cell)
					if err != nil {
						failure = err
						return
					}
					out = append(out, d)
				}
			}
		})
		if failure != nil {
			return nil, failure
		}
	}
	return out, nil
}

// scalarFn registers a zip-mapped function over scalar cells.
func scalarFn(name string, minArgs, maxArgs int, body func(cells []grid.CellValue) grid.CellValue) *Function {
	return &Function{
		Name:    name,
		MinArgs: minArgs,
		MaxArgs: maxArgs,
		Fn: func(e *Evaluator, args []Value) Value {
			return zipMap(args, body)
		},
	}
}

// numericFn registers a zip-mapped function over one float argument.
func numericFn(name string, body func(x float64) grid.CellValue) *Function {
	return scalarFn(name, 1, 1, func(cells []grid.CellValue) grid.CellValue {
		x, err := toFloat(cells[0])
		if err != nil {
			return err
		}
		return body(x)
	})
}
