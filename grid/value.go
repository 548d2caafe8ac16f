package grid

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tally/datetime"
)

type Kind string

const (
	BLANK    Kind = "BLANK"
	NUMBER   Kind = "NUMBER"
	TEXT     Kind = "TEXT"
	LOGICAL  Kind = "LOGICAL"
	DATE     Kind = "DATE"
	TIME     Kind = "TIME"
	DATETIME Kind = "DATETIME"
	DURATION Kind = "DURATION"
	ERROR    Kind = "ERROR"
	CODE     Kind = "CODE"
	IMPORT   Kind = "IMPORT"
	HTML     Kind = "HTML"
	IMAGE    Kind = "IMAGE"
)

// CellValue is the tagged sum stored in cells and produced by
// computation.
type CellValue interface {
	Kind() Kind
	Display() string
}

type Blank struct{}

func (*Blank) Kind() Kind      { return BLANK }
func (*Blank) Display() string { return "" }

var BlankValue = &Blank{}

type Number struct {
	Value decimal.Decimal
}

func (*Number) Kind() Kind        { return NUMBER }
func (n *Number) Display() string { return n.Value.String() }

func NewNumber(d decimal.Decimal) *Number { return &Number{Value: d} }

func NumberFromInt(v int64) *Number { return &Number{Value: decimal.NewFromInt(v)} }

func NumberFromFloat(v float64) *Number { return &Number{Value: decimal.NewFromFloat(v)} }

type Text struct {
	Value string
}

func (*Text) Kind() Kind        { return TEXT }
func (t *Text) Display() string { return t.Value }

type Logical struct {
	Value bool
}

func (*Logical) Kind() Kind { return LOGICAL }
func (l *Logical) Display() string {
	if l.Value {
		return "TRUE"
	}
	return "FALSE"
}

type Date struct {
	Value time.Time
}

func (*Date) Kind() Kind        { return DATE }
func (d *Date) Display() string { return datetime.FormatDate(d.Value, "") }

type Time struct {
	Value time.Time
}

func (*Time) Kind() Kind        { return TIME }
func (t *Time) Display() string { return datetime.FormatTime(t.Value, "") }

type DateTime struct {
	Value time.Time
}

func (*DateTime) Kind() Kind        { return DATETIME }
func (d *DateTime) Display() string { return datetime.FormatDateTime(d.Value, "") }

type Duration struct {
	Value time.Duration
}

func (*Duration) Kind() Kind        { return DURATION }
func (d *Duration) Display() string { return d.Value.String() }

// ErrorKind enumerates spreadsheet error categories.
type ErrorKind string

const (
	ErrDiv0          ErrorKind = "#DIV/0!"
	ErrNA            ErrorKind = "#N/A"
	ErrValue         ErrorKind = "#VALUE!"
	ErrRef           ErrorKind = "#REF!"
	ErrName          ErrorKind = "#NAME?"
	ErrNum           ErrorKind = "#NUM!"
	ErrNull          ErrorKind = "#NULL!"
	ErrNaN           ErrorKind = "#NaN"
	ErrSpill         ErrorKind = "#SPILL!"
	ErrCycle         ErrorKind = "#CYCLE!"
	ErrParse         ErrorKind = "#ERROR"
	ErrUnimplemented ErrorKind = "#N/IMPL"
)

// Span marks the source location of a parse error.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type Error struct {
	ErrKind ErrorKind `json:"kind"`
	Msg     string    `json:"msg,omitempty"`
	Span    *Span     `json:"span,omitempty"`
}

func (*Error) Kind() Kind        { return ERROR }
func (e *Error) Display() string { return string(e.ErrKind) }
func (e *Error) Error() string {
	if e.Msg == "" {
		return string(e.ErrKind)
	}
	return fmt.Sprintf("%s %s", e.ErrKind, e.Msg)
}

func NewError(kind ErrorKind) *Error                { return &Error{ErrKind: kind} }
func NewErrorMsg(kind ErrorKind, msg string) *Error { return &Error{ErrKind: kind, Msg: msg} }

// Language tags the runtime a code cell executes on.
type Language string

const (
	LangFormula    Language = "Formula"
	LangPython     Language = "Python"
	LangJavascript Language = "Javascript"
	LangConnection Language = "Connection"
)

// HasQCells reports whether references appear as q.cells("...") calls
// in this language's sources.
func (l Language) HasQCells() bool {
	return l == LangPython || l == LangJavascript
}

// HasHandlebars reports whether references appear as {{ ... }}
// placeholders.
func (l Language) HasHandlebars() bool {
	return l == LangConnection
}

// Async reports whether evaluation happens in an external runtime.
func (l Language) Async() bool {
	return l != LangFormula
}

// Code is the stored source of a code cell; its output lives in the
// sheet's data table at the same anchor.
type Code struct {
	Lang   Language `json:"language"`
	Source string   `json:"source"`
}

func (*Code) Kind() Kind { return CODE }
func (c *Code) Display() string {
	return fmt.Sprintf("=%s{%s}", c.Lang, c.Source)
}

// Import marks the anchor of an imported table.
type Import struct {
	TableName string `json:"table_name"`
}

func (*Import) Kind() Kind        { return IMPORT }
func (i *Import) Display() string { return i.TableName }

type Html struct {
	Value string
}

func (*Html) Kind() Kind        { return HTML }
func (h *Html) Display() string { return h.Value }

type Image struct {
	Value string // data URL or renderer handle
}

func (*Image) Kind() Kind      { return IMAGE }
func (*Image) Display() string { return "" }

// IsBlank reports whether the value is nil or Blank.
func IsBlank(v CellValue) bool {
	if v == nil {
		return true
	}
	_, ok := v.(*Blank)
	return ok
}

// ParseUserInput converts what the user typed into a literal
// CellValue: number, percentage, logical, date, time, date-time, or
// text. It never produces Code; the caller decides that from the `=`
// prefix.
func ParseUserInput(input string) CellValue {
	s := strings.TrimSpace(input)
	if s == "" {
		return BlankValue
	}
	switch strings.ToUpper(s) {
	case "TRUE":
		return &Logical{Value: true}
	case "FALSE":
		return &Logical{Value: false}
	}
	numStr := s
	percent := false
	if strings.HasSuffix(numStr, "%") {
		percent = true
		numStr = strings.TrimSuffix(numStr, "%")
	}
	numStr = strings.ReplaceAll(numStr, ",", "")
	if d, err := decimal.NewFromString(numStr); err == nil {
		if percent {
			d = d.Div(decimal.NewFromInt(100))
		}
		return &Number{Value: d}
	}
	if dt, ok := datetime.ParseDateTime(s); ok {
		return &DateTime{Value: dt}
	}
	if d, ok := datetime.ParseDate(s); ok {
		return &Date{Value: d}
	}
	if t, ok := datetime.ParseTime(s); ok {
		return &Time{Value: t}
	}
	return &Text{Value: input}
}
