package lexer

import (
	"testing"

	"tally/token"
)

func collect(input string) []token.Token {
	l := New(input)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens
		}
	}
}

func TestLexFormula(t *testing.T) {
	tokens := collect(`SUM(A1:B2, "hi") * 50% <> 'My Sheet'!C3`)
	want := []struct {
		typ token.TokenType
		lit string
	}{
		{token.WORD, "SUM"},
		{token.LPAREN, "("},
		{token.WORD, "A1"},
		{token.COLON, ":"},
		{token.WORD, "B2"},
		{token.COMMA, ","},
		{token.STRING, "hi"},
		{token.RPAREN, ")"},
		{token.ASTERISK, "*"},
		{token.NUMBER, "50"},
		{token.PERCENT, "%"},
		{token.NOT_EQ, "<>"},
		{token.SHEET, "My Sheet"},
		{token.BANG, "!"},
		{token.WORD, "C3"},
		{token.EOF, ""},
	}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d: %#v", len(tokens), len(want), tokens)
	}
	for i, w := range want {
		if tokens[i].Type != w.typ || tokens[i].Literal != w.lit {
			t.Fatalf("token %d: got (%s %q), want (%s %q)", i, tokens[i].Type, tokens[i].Literal, w.typ, w.lit)
		}
	}
}

func TestLexNumbers(t *testing.T) {
	cases := map[string]string{
		"42":      "42",
		"3.25":    "3.25",
		"1e3":     "1e3",
		"2.5E-10": "2.5E-10",
	}
	for input, want := range cases {
		tokens := collect(input)
		if tokens[0].Type != token.NUMBER || tokens[0].Literal != want {
			t.Fatalf("%q: got (%s %q)", input, tokens[0].Type, tokens[0].Literal)
		}
	}
}

func TestLexAbsoluteRefIsOneWord(t *testing.T) {
	tokens := collect("$A$1")
	if tokens[0].Type != token.WORD || tokens[0].Literal != "$A$1" {
		t.Fatalf("got (%s %q)", tokens[0].Type, tokens[0].Literal)
	}
}

func TestLexErrorCodes(t *testing.T) {
	for _, code := range []string{"#REF!", "#N/A", "#DIV/0!", "#NAME?"} {
		tokens := collect(code)
		if tokens[0].Type != token.ERROR || tokens[0].Literal != code {
			t.Fatalf("%q: got (%s %q)", code, tokens[0].Type, tokens[0].Literal)
		}
	}
}

func TestLexEscapedQuotes(t *testing.T) {
	tokens := collect(`"a""b"`)
	if tokens[0].Type != token.STRING || tokens[0].Literal != `a"b` {
		t.Fatalf("got (%s %q)", tokens[0].Type, tokens[0].Literal)
	}
	tokens = collect("'it''s'!A1")
	if tokens[0].Type != token.SHEET || tokens[0].Literal != "it's" {
		t.Fatalf("got (%s %q)", tokens[0].Type, tokens[0].Literal)
	}
}

func TestLexPositions(t *testing.T) {
	tokens := collect("A1 + B2")
	if tokens[0].Offset != 0 || tokens[1].Offset != 3 || tokens[2].Offset != 5 {
		t.Fatalf("offsets: %d %d %d", tokens[0].Offset, tokens[1].Offset, tokens[2].Offset)
	}
}
