package parser

import (
	"strings"

	"tally/a1"
	"tally/ast"
	"tally/lexer"
	"tally/token"
)

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	l *lexer.Lexer

	curToken  token.Token
	peekToken token.Token

	errors []*ParseError

	defaultSheet a1.SheetID
	ctx          *a1.Context

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

const (
	_ int = iota
	LOWEST
	COMPARE
	CONCAT
	SUM
	PRODUCT
	EXPONENT
	PREFIX
	POSTFIX
)

var precedences = map[token.TokenType]int{
	token.EQ:       COMPARE,
	token.NOT_EQ:   COMPARE,
	token.LT:       COMPARE,
	token.LE:       COMPARE,
	token.GT:       COMPARE,
	token.GE:       COMPARE,
	token.AMP:      CONCAT,
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.ASTERISK: PRODUCT,
	token.SLASH:    PRODUCT,
	token.CARET:    EXPONENT,
	token.PERCENT:  POSTFIX,
}

// New builds a parser for one formula. The default sheet and context
// resolve sheet and table names inside references.
func New(l *lexer.Lexer, defaultSheet a1.SheetID, ctx *a1.Context) *Parser {
	p := &Parser{
		l:            l,
		defaultSheet: defaultSheet,
		ctx:          ctx,
	}

	p.prefixParseFns = map[token.TokenType]prefixParseFn{
		token.NUMBER: p.parseNumberOrRowRange,
		token.STRING: p.parseStringLiteral,
		token.ERROR:  p.parseErrorLiteral,
		token.WORD:   p.parseWord,
		token.SHEET:  p.parseSheetQualifiedRef,
		token.MINUS:  p.parsePrefixExpression,
		token.PLUS:   p.parsePrefixExpression,
		token.LPAREN: p.parseGroupOrTuple,
		token.LBRACE: p.parseArrayLiteral,
	}
	p.infixParseFns = map[token.TokenType]infixParseFn{
		token.EQ:       p.parseInfixExpression,
		token.NOT_EQ:   p.parseInfixExpression,
		token.LT:       p.parseInfixExpression,
		token.LE:       p.parseInfixExpression,
		token.GT:       p.parseInfixExpression,
		token.GE:       p.parseInfixExpression,
		token.AMP:      p.parseInfixExpression,
		token.PLUS:     p.parseInfixExpression,
		token.MINUS:    p.parseInfixExpression,
		token.ASTERISK: p.parseInfixExpression,
		token.SLASH:    p.parseInfixExpression,
		token.CARET:    p.parseInfixExpression,
		token.PERCENT:  p.parsePostfixExpression,
	}

	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses one formula expression (without any leading `=`).
func Parse(source string, defaultSheet a1.SheetID, ctx *a1.Context) (ast.Expression, error) {
	p := New(lexer.New(source), defaultSheet, ctx)
	expr := p.ParseExpression()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	if p.curToken.Type != token.EOF {
		return nil, &ParseError{Message: "unexpected trailing input", Token: p.curToken}
	}
	return expr, nil
}

// ParseExpression parses from the current token and leaves the parser
// on the first token after the expression.
func (p *Parser) ParseExpression() ast.Expression {
	expr := p.parseExpression(LOWEST)
	p.nextToken()
	return expr
}

func (p *Parser) Errors() []*ParseError { return p.errors }

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) addError(message string, tok token.Token) {
	p.errors = append(p.errors, &ParseError{Message: message, Token: tok})
}

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekToken.Type == t {
		p.nextToken()
		return true
	}
	p.addError("expected "+string(t), p.peekToken)
	return false
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix, ok := p.prefixParseFns[p.curToken.Type]
	if !ok {
		p.addError("unexpected token", p.curToken)
		return nil
	}
	left := prefix()

	for precedence < p.peekPrecedence() {
		infix, ok := p.infixParseFns[p.peekToken.Type]
		if !ok {
			return left
		}
		p.nextToken()
		left = infix(left)
	}
	return left
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expr := &ast.PrefixExpression{Token: p.curToken, Operator: p.curToken.Literal}
	p.nextToken()
	expr.Right = p.parseExpression(PREFIX)
	return expr
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expr := &ast.InfixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
		Left:     left,
	}
	precedence := precedences[p.curToken.Type]
	if p.curToken.Type == token.CARET {
		// Exponentiation is right-associative.
		precedence--
	}
	p.nextToken()
	expr.Right = p.parseExpression(precedence)
	return expr
}

func (p *Parser) parsePostfixExpression(left ast.Expression) ast.Expression {
	return &ast.PostfixExpression{Token: p.curToken, Operator: p.curToken.Literal, Left: left}
}

// parseNumberOrRowRange handles a numeric literal and the whole-row
// range form `1:3`.
func (p *Parser) parseNumberOrRowRange() ast.Expression {
	if p.peekToken.Type == token.COLON {
		start := p.curToken
		p.nextToken()
		if !p.expectPeek(token.NUMBER) {
			return nil
		}
		return p.makeRef(start, start.Literal+":"+p.curToken.Literal)
	}
	return &ast.NumberLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseErrorLiteral() ast.Expression {
	return &ast.ErrorLiteral{Token: p.curToken, Code: p.curToken.Literal}
}

// parseWord classifies a WORD token: boolean literal, function call,
// table reference, or cell/range reference.
func (p *Parser) parseWord() ast.Expression {
	word := p.curToken

	switch strings.ToUpper(word.Literal) {
	case "TRUE":
		if p.peekToken.Type != token.LPAREN {
			return &ast.BoolLiteral{Token: word, Value: true}
		}
	case "FALSE":
		if p.peekToken.Type != token.LPAREN {
			return &ast.BoolLiteral{Token: word, Value: false}
		}
	}

	if p.peekToken.Type == token.LPAREN {
		return p.parseCall(word)
	}
	if p.peekToken.Type == token.LBRACKET {
		return p.parseTableRef(word)
	}
	if p.peekToken.Type == token.BANG {
		return p.parseQualifiedRef(word.Literal, word)
	}

	text := word.Literal
	if p.peekToken.Type == token.COLON {
		p.nextToken()
		end, ok := p.refEndpoint()
		if !ok {
			return nil
		}
		text += ":" + end
	}
	return p.makeRef(word, text)
}

// refEndpoint consumes the token after a `:` and returns its text.
func (p *Parser) refEndpoint() (string, bool) {
	switch p.peekToken.Type {
	case token.WORD, token.NUMBER:
		p.nextToken()
		return p.curToken.Literal, true
	default:
		p.addError("expected range endpoint", p.peekToken)
		return "", false
	}
}

// parseQualifiedRef parses `<sheet>!<ref>` with the sheet name
// already consumed.
func (p *Parser) parseQualifiedRef(sheetName string, start token.Token) ast.Expression {
	p.nextToken() // consume `!`
	switch p.peekToken.Type {
	case token.WORD, token.NUMBER:
		p.nextToken()
	default:
		p.addError("expected reference after sheet name", p.peekToken)
		return nil
	}
	text := p.curToken.Literal
	if p.peekToken.Type == token.COLON {
		p.nextToken()
		end, ok := p.refEndpoint()
		if !ok {
			return nil
		}
		text += ":" + end
	}
	return p.makeRef(start, a1.QuoteSheetName(sheetName)+"!"+text)
}

func (p *Parser) parseSheetQualifiedRef() ast.Expression {
	start := p.curToken
	if p.peekToken.Type != token.BANG {
		p.addError("expected '!' after sheet name", p.peekToken)
		return nil
	}
	return p.parseQualifiedRef(start.Literal, start)
}

// parseTableRef re-assembles `Name[...]` verbatim and parses it as a
// reference.
func (p *Parser) parseTableRef(word token.Token) ast.Expression {
	var sb strings.Builder
	sb.WriteString(word.Literal)
	depth := 0
	for {
		p.nextToken()
		switch p.curToken.Type {
		case token.LBRACKET:
			depth++
		case token.RBRACKET:
			depth--
		case token.EOF:
			p.addError("unterminated table reference", p.curToken)
			return nil
		}
		sb.WriteString(p.curToken.Literal)
		if depth == 0 {
			break
		}
	}
	return p.makeRef(word, sb.String())
}

func (p *Parser) makeRef(tok token.Token, text string) ast.Expression {
	ref, err := a1.ParseRange(text, p.defaultSheet, p.ctx)
	if err != nil {
		p.addError(err.Error(), tok)
		return nil
	}
	return &ast.RefExpression{
		Token:        tok,
		Ref:          ref,
		DefaultSheet: p.defaultSheet,
		Ctx:          p.ctx,
	}
}

func (p *Parser) parseCall(name token.Token) ast.Expression {
	call := &ast.CallExpression{Token: name, Name: strings.ToUpper(name.Literal)}
	p.nextToken() // onto `(`
	if p.peekToken.Type == token.RPAREN {
		p.nextToken()
		return call
	}
	for {
		if p.peekToken.Type == token.COMMA {
			// Empty argument slot, as in INDEX({5,6,7},, 3).
			call.Args = append(call.Args, nil)
			p.nextToken()
			continue
		}
		p.nextToken()
		call.Args = append(call.Args, p.parseExpression(LOWEST))
		if p.peekToken.Type == token.COMMA {
			p.nextToken()
			if p.peekToken.Type == token.RPAREN {
				// Trailing omitted argument.
				call.Args = append(call.Args, nil)
				break
			}
			continue
		}
		break
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return call
}

// parseGroupOrTuple distinguishes `(expr)` from `(r1, r2, ...)`.
func (p *Parser) parseGroupOrTuple() ast.Expression {
	open := p.curToken
	p.nextToken()
	first := p.parseExpression(LOWEST)
	if p.peekToken.Type != token.COMMA {
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
		return &ast.GroupExpression{Token: open, Inner: first}
	}
	tuple := &ast.TupleExpression{Token: open, Items: []ast.Expression{first}}
	for p.peekToken.Type == token.COMMA {
		p.nextToken()
		p.nextToken()
		tuple.Items = append(tuple.Items, p.parseExpression(LOWEST))
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return tuple
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	arr := &ast.ArrayLiteral{Token: p.curToken}
	row := []ast.Expression{}
	for {
		p.nextToken()
		switch p.curToken.Type {
		case token.RBRACE:
			arr.Rows = append(arr.Rows, row)
			return arr
		case token.EOF:
			p.addError("unterminated array literal", p.curToken)
			return nil
		}
		row = append(row, p.parseExpression(LOWEST))
		switch p.peekToken.Type {
		case token.COMMA:
			p.nextToken()
		case token.SEMICOLON:
			arr.Rows = append(arr.Rows, row)
			row = []ast.Expression{}
			p.nextToken()
		}
	}
}
