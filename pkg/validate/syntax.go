package validate

import (
	"github.com/leapstack-labs/relalg/pkg/core"
	"github.com/leapstack-labs/relalg/pkg/token"
)

var structuralKeywords = map[token.TokenType]bool{
	token.SELECT: true,
	token.FROM:   true,
	token.WHERE:  true,
	token.ON:     true,
	token.JOIN:   true,
	token.INNER:  true,
	token.AS:     true,
}

func checkDuplicateKeywords(in *Input) error {
	for i := 1; i < len(in.Tokens); i++ {
		prev, tok := in.Tokens[i-1], in.Tokens[i]
		if tok.Type == prev.Type && structuralKeywords[tok.Type] {
			return core.Syntaxf(RuleDuplicateKeyword, tok.Pos, tok.Literal, "duplicated keyword %s", tok.Type)
		}
		if prev.Type == token.JOIN && tok.Type == token.INNER {
			return core.Syntaxf(RuleDuplicateKeyword, tok.Pos, tok.Literal, "duplicated keyword INNER JOIN")
		}
	}
	return nil
}

func checkParentheses(in *Input) error {
	var open []token.Token
	for _, tok := range in.Tokens {
		switch tok.Type {
		case token.LPAREN:
			open = append(open, tok)
		case token.RPAREN:
			if len(open) == 0 {
				return core.Syntaxf(RuleUnbalancedParens, tok.Pos, tok.Literal, "unmatched ')'")
			}
			open = open[:len(open)-1]
		}
	}
	if len(open) > 0 {
		tok := open[len(open)-1]
		return core.Syntaxf(RuleUnbalancedParens, tok.Pos, tok.Literal, "unclosed '('")
	}
	return nil
}

// clauseBoundary reports tokens that cannot stand next to a binary
// logical operator.
func clauseBoundary(t token.TokenType) bool {
	switch t {
	case token.EOF, token.SEMICOLON, token.SELECT, token.FROM, token.WHERE,
		token.JOIN, token.INNER, token.ON, token.COMMA:
		return true
	}
	return false
}

func checkDanglingLogical(in *Input) error {
	for i, tok := range in.Tokens {
		if !token.IsLogical(tok.Type) {
			continue
		}
		prev, next := tokenAt(in.Tokens, i-1), tokenAt(in.Tokens, i+1)
		if clauseBoundary(next.Type) || next.Type == token.RPAREN {
			return core.Syntaxf(RuleDanglingLogical, tok.Pos, tok.Literal, "dangling %s operator has no right operand", tok.Type)
		}
		if i == 0 || clauseBoundary(prev.Type) || prev.Type == token.LPAREN {
			return core.Syntaxf(RuleDanglingLogical, tok.Pos, tok.Literal, "dangling %s operator has no left operand", tok.Type)
		}
	}
	return nil
}

func checkAdjacentLogical(in *Input) error {
	for i := 1; i < len(in.Tokens); i++ {
		prev, tok := in.Tokens[i-1], in.Tokens[i]
		if token.IsLogical(prev.Type) && token.IsLogical(tok.Type) {
			return core.Syntaxf(RuleAdjacentLogical, prev.Pos, tok.Literal,
				"adjacent logical operators %s %s", prev.Type, tok.Type)
		}
	}
	return nil
}

func checkComparisons(in *Input) error {
	for i := 1; i < len(in.Tokens); i++ {
		prev, tok := in.Tokens[i-1], in.Tokens[i]
		if token.IsComparison(prev.Type) && token.IsComparison(tok.Type) {
			op := in.Raw[prev.Pos.Offset:tok.End]
			return core.Syntaxf(RuleInvalidComparison, prev.Pos, op, "invalid comparison operator %q", op)
		}
	}
	return nil
}

// checkParenthesizedColumns rejects "(col)" or "(t.col)" in the select
// list when no function name precedes the parenthesis.
func checkParenthesizedColumns(in *Input) error {
	for _, seg := range segments(in.Tokens) {
		if seg.kind != segColumns {
			continue
		}
		toks := seg.toks
		for i, tok := range toks {
			if tok.Type != token.LPAREN || tokenAt(toks, i-1).Type == token.IDENT {
				continue
			}
			j := i + 1
			if tokenAt(toks, j).Type != token.IDENT {
				continue
			}
			j++
			if tokenAt(toks, j).Type == token.DOT && tokenAt(toks, j+1).Type == token.IDENT {
				j += 2
			}
			if tokenAt(toks, j).Type == token.RPAREN {
				col := token.SourceText(in.Raw, toks[i+1:j])
				return core.Syntaxf(RuleBareParenColumn, tok.Pos, col,
					"parenthesized column %q has no function name", col)
			}
		}
	}
	return nil
}

// Keywords that may legitimately appear inside a select list.
var columnListKeywords = map[token.TokenType]bool{
	token.AS: true, token.DISTINCT: true,
	token.CASE: true, token.WHEN: true, token.THEN: true, token.ELSE: true, token.END: true,
	token.NULL: true, token.TRUE: true, token.FALSE: true,
	token.AND: true, token.OR: true, token.NOT: true,
	token.IN: true, token.IS: true, token.LIKE: true, token.BETWEEN: true,
}

// Keywords that may follow a comparison operator.
var valueKeywords = map[token.TokenType]bool{
	token.NULL: true, token.TRUE: true, token.FALSE: true,
	token.NOT: true, token.CASE: true, token.EXISTS: true,
}

func checkReservedIdentifiers(in *Input) error {
	toks := in.Tokens
	for i, tok := range toks {
		if !token.IsKeyword(tok.Type) {
			continue
		}
		prev, next := tokenAt(toks, i-1), tokenAt(toks, i+1)
		switch {
		case i > 0 && (prev.Type == token.FROM || prev.Type == token.JOIN):
			return reservedErr(tok, "a table name")
		case i > 0 && prev.Type == token.AS:
			return reservedErr(tok, "an alias")
		case i > 0 && prev.Type == token.DOT:
			return reservedErr(tok, "a column name")
		case next.Type == token.DOT:
			return reservedErr(tok, "a table name")
		case i > 0 && token.IsComparison(prev.Type) && !valueKeywords[tok.Type]:
			return reservedErr(tok, "a value")
		case token.IsComparison(next.Type) && !valueKeywords[tok.Type] && tok.Type != token.END:
			return reservedErr(tok, "a column name")
		}
	}

	for _, seg := range segments(toks) {
		if seg.kind != segColumns {
			continue
		}
		for _, tok := range seg.toks {
			if token.IsKeyword(tok.Type) && !columnListKeywords[tok.Type] {
				return reservedErr(tok, "a column name")
			}
		}
	}
	return nil
}

func reservedErr(tok token.Token, role string) error {
	return core.Syntaxf(RuleReservedIdent, tok.Pos, tok.Literal,
		"reserved keyword %s cannot be used as %s", tok.Type, role)
}
