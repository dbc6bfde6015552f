package parser

import (
	"regexp"
	"strings"

	"github.com/leapstack-labs/relalg/pkg/core"
	"github.com/leapstack-labs/relalg/pkg/token"
)

// Clause extraction splits a query into its SELECT, FROM and WHERE bodies.
//
// Grammar:
//
//	query   → SELECT columns FROM from_clause [WHERE condition] [";"]

var selectStart = regexp.MustCompile(`(?i)^\s*SELECT\b`)

// ExtractClauses splits raw query text into its clauses.
// Keywords are matched case-insensitively and never inside string literals.
func ExtractClauses(raw string) (core.ParsedClauses, error) {
	var out core.ParsedClauses

	if strings.TrimSpace(raw) == "" {
		return out, core.Syntaxf(RuleNoSelect, token.Position{}, "", ErrEmptyQuery)
	}

	toks := token.Tokenize(raw)
	if err := checkTokens(raw, toks); err != nil {
		return out, err
	}
	if !selectStart.MatchString(raw) || toks[0].Type != token.SELECT {
		return out, core.Syntaxf(RuleNoSelect, toks[0].Pos, toks[0].Literal, ErrMissingSelect)
	}

	// end is the index of the token that closes the query: ';' or EOF.
	end := len(toks) - 1
	if end > 0 && toks[end-1].Type == token.SEMICOLON {
		end--
	}

	from, where := -1, -1
	for i := 1; i < end; i++ {
		tok := toks[i]
		switch tok.Type {
		case token.SELECT:
			return out, core.Syntaxf(RuleDuplicateClause, tok.Pos, tok.Literal, ErrDuplicateClause, "SELECT")
		case token.FROM:
			if from >= 0 {
				return out, core.Syntaxf(RuleDuplicateClause, tok.Pos, tok.Literal, ErrDuplicateClause, "FROM")
			}
			if where >= 0 {
				return out, core.Syntaxf(RuleKeywordInList, toks[where].Pos, toks[where].Literal, ErrKeywordInList, "WHERE")
			}
			from = i
		case token.WHERE:
			if where >= 0 {
				return out, core.Syntaxf(RuleDuplicateClause, tok.Pos, tok.Literal, ErrDuplicateClause, "WHERE")
			}
			where = i
		case token.SEMICOLON:
			return out, core.Syntaxf(RuleBadTerminator, tok.Pos, tok.Literal, ErrMisplacedSemi)
		}
	}

	if from < 0 {
		if where >= 0 {
			return out, core.Syntaxf(RuleKeywordInList, toks[where].Pos, toks[where].Literal, ErrKeywordInList, "WHERE")
		}
		return out, core.Syntaxf(RuleNoFrom, toks[end].Pos, "", ErrMissingFrom)
	}

	fromEnd := end
	if where >= 0 {
		fromEnd = where
	}

	cols := toks[1:from]
	fromToks := toks[from+1 : fromEnd]
	if len(cols) == 0 {
		return out, core.Syntaxf(RuleEmptyClause, toks[from].Pos, toks[from].Literal, ErrEmptyClause, "column list")
	}
	if len(fromToks) == 0 {
		return out, core.Syntaxf(RuleEmptyClause, toks[from].Pos, toks[from].Literal, ErrEmptyClause, "FROM clause")
	}

	out.Columns = token.SourceText(raw, cols)
	out.ColumnsPos = cols[0].Pos
	out.From = token.SourceText(raw, fromToks)
	out.FromPos = fromToks[0].Pos

	if where >= 0 {
		whereToks := toks[where+1 : end]
		if len(whereToks) == 0 {
			return out, core.Syntaxf(RuleEmptyClause, toks[where].Pos, toks[where].Literal, ErrEmptyClause, "WHERE clause")
		}
		for _, tok := range whereToks {
			if tok.Type == token.JOIN || tok.Type == token.INNER || tok.Type == token.ON {
				return out, core.Syntaxf(RuleClauseOrder, toks[where].Pos, toks[where].Literal, ErrClauseOrder, "WHERE", tok.Type.String())
			}
		}
		out.Where = token.SourceText(raw, whereToks)
		out.WherePos = whereToks[0].Pos
	}

	return out, nil
}

// checkTokens rejects input the lexer could not tokenize.
func checkTokens(raw string, toks []token.Token) error {
	for _, tok := range toks {
		if tok.Type != token.ILLEGAL {
			continue
		}
		if c := raw[tok.Pos.Offset]; c == '\'' || c == '"' {
			return core.Syntaxf(RuleBadToken, tok.Pos, tok.Literal, ErrUnterminated)
		}
		return core.Syntaxf(RuleBadToken, tok.Pos, tok.Literal, ErrUnexpectedChar, tok.Literal)
	}
	return nil
}
