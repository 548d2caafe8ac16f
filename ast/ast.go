package ast

import (
	"strings"

	"tally/a1"
	"tally/token"
)

// Node is anything the formula parser produces. String() re-emits the
// node as formula source; reference adjustment relies on parse +
// re-emit being lossless up to whitespace.
type Node interface {
	TokenLiteral() string
	String() string
}

type Expression interface {
	Node
	expressionNode()
}

type NumberLiteral struct {
	Token token.Token
	Value string // verbatim digits; the evaluator parses to decimal
}

func (nl *NumberLiteral) expressionNode()      {}
func (nl *NumberLiteral) TokenLiteral() string { return nl.Token.Literal }
func (nl *NumberLiteral) String() string       { return nl.Value }

type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) String() string {
	return `"` + strings.ReplaceAll(sl.Value, `"`, `""`) + `"`
}

type BoolLiteral struct {
	Token token.Token
	Value bool
}

func (bl *BoolLiteral) expressionNode()      {}
func (bl *BoolLiteral) TokenLiteral() string { return bl.Token.Literal }
func (bl *BoolLiteral) String() string {
	if bl.Value {
		return "TRUE"
	}
	return "FALSE"
}

// ErrorLiteral is a literal error code in source, e.g. `#REF!`.
type ErrorLiteral struct {
	Token token.Token
	Code  string
}

func (el *ErrorLiteral) expressionNode()      {}
func (el *ErrorLiteral) TokenLiteral() string { return el.Token.Literal }
func (el *ErrorLiteral) String() string       { return el.Code }

// RefExpression is a cell, range or table reference resolved against
// the parse-time sheet context.
type RefExpression struct {
	Token token.Token
	Ref   a1.SheetRange
	// DefaultSheet and Ctx are captured at parse time so String() can
	// decide whether a sheet qualifier is needed.
	DefaultSheet a1.SheetID
	Ctx          *a1.Context
	// RefError marks a reference pushed off the grid by a structural
	// edit; it re-emits as #REF!.
	RefError bool
}

func (re *RefExpression) expressionNode()      {}
func (re *RefExpression) TokenLiteral() string { return re.Token.Literal }
func (re *RefExpression) String() string {
	if re.RefError {
		return "#REF!"
	}
	return re.Ref.A1String(re.DefaultSheet, re.Ctx)
}

type PrefixExpression struct {
	Token    token.Token
	Operator string
	Right    Expression
}

func (pe *PrefixExpression) expressionNode()      {}
func (pe *PrefixExpression) TokenLiteral() string { return pe.Token.Literal }
func (pe *PrefixExpression) String() string {
	return pe.Operator + pe.Right.String()
}

type InfixExpression struct {
	Token    token.Token
	Operator string
	Left     Expression
	Right    Expression
}

func (ie *InfixExpression) expressionNode()      {}
func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *InfixExpression) String() string {
	return ie.Left.String() + " " + ie.Operator + " " + ie.Right.String()
}

// PostfixExpression is the percent operator.
type PostfixExpression struct {
	Token    token.Token
	Operator string
	Left     Expression
}

func (pe *PostfixExpression) expressionNode()      {}
func (pe *PostfixExpression) TokenLiteral() string { return pe.Token.Literal }
func (pe *PostfixExpression) String() string {
	return pe.Left.String() + pe.Operator
}

type CallExpression struct {
	Token token.Token
	Name  string
	Args  []Expression
}

func (ce *CallExpression) expressionNode()      {}
func (ce *CallExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *CallExpression) String() string {
	args := make([]string, len(ce.Args))
	for i, arg := range ce.Args {
		if arg == nil {
			args[i] = ""
			continue
		}
		args[i] = arg.String()
	}
	return ce.Name + "(" + strings.Join(args, ", ") + ")"
}

// GroupExpression keeps parentheses through a re-emit.
type GroupExpression struct {
	Token token.Token
	Inner Expression
}

func (ge *GroupExpression) expressionNode()      {}
func (ge *GroupExpression) TokenLiteral() string { return ge.Token.Literal }
func (ge *GroupExpression) String() string       { return "(" + ge.Inner.String() + ")" }

// TupleExpression is a parenthesized comma list, used for multi-range
// arguments like INDEX((A1:B2, D1:E2), 1, 1, 2).
type TupleExpression struct {
	Token token.Token
	Items []Expression
}

func (te *TupleExpression) expressionNode()      {}
func (te *TupleExpression) TokenLiteral() string { return te.Token.Literal }
func (te *TupleExpression) String() string {
	items := make([]string, len(te.Items))
	for i, item := range te.Items {
		items[i] = item.String()
	}
	return "(" + strings.Join(items, ", ") + ")"
}

// ArrayLiteral is `{1, 2; 3, 4}`: rows separated by `;`, cells by `,`.
type ArrayLiteral struct {
	Token token.Token
	Rows  [][]Expression
}

func (al *ArrayLiteral) expressionNode()      {}
func (al *ArrayLiteral) TokenLiteral() string { return al.Token.Literal }
func (al *ArrayLiteral) String() string {
	rows := make([]string, len(al.Rows))
	for i, row := range al.Rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = cell.String()
		}
		rows[i] = strings.Join(cells, ", ")
	}
	return "{" + strings.Join(rows, "; ") + "}"
}

// Walk visits every node of the expression tree in depth-first order.
func Walk(expr Expression, visit func(Expression)) {
	if expr == nil {
		return
	}
	visit(expr)
	switch node := expr.(type) {
	case *PrefixExpression:
		Walk(node.Right, visit)
	case *InfixExpression:
		Walk(node.Left, visit)
		Walk(node.Right, visit)
	case *PostfixExpression:
		Walk(node.Left, visit)
	case *CallExpression:
		for _, arg := range node.Args {
			Walk(arg, visit)
		}
	case *GroupExpression:
		Walk(node.Inner, visit)
	case *TupleExpression:
		for _, item := range node.Items {
			Walk(item, visit)
		}
	case *ArrayLiteral:
		for _, row := range node.Rows {
			for _, cell := range row {
				Walk(cell, visit)
			}
		}
	}
}
