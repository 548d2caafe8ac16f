package parser

import (
	"fmt"

	"tally/token"
)

// ParseError is a malformed-formula diagnostic with the offending
// token's span.
type ParseError struct {
	Message string
	Token   token.Token
}

func (e *ParseError) Error() string {
	if e.Token.Literal == "" {
		return e.Message
	}
	return fmt.Sprintf("%s at %q (offset %d)", e.Message, e.Token.Literal, e.Token.Offset)
}

// Span returns the start and end offsets of the error in the source.
func (e *ParseError) Span() (int, int) {
	return e.Token.Offset, e.Token.Offset + len(e.Token.Literal)
}
