package parser

import "github.com/leapstack-labs/relalg/pkg/token"

// describe renders a token for diagnostics.
func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.STRING:
		return "string literal"
	case token.IDENT, token.NUMBER:
		return "\"" + tok.Literal + "\""
	}
	return tok.Type.String()
}
