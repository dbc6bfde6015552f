package algebra

import (
	"strings"

	"github.com/leapstack-labs/relalg/pkg/core"
	"github.com/leapstack-labs/relalg/pkg/token"
)

// Predicates stay opaque text. The helpers below tokenize them on demand
// so that quoted literals and parentheses are respected.

// SplitConjuncts splits pred into its top-level AND terms. Both AND and ∧
// separate conjuncts; the AND of a BETWEEN does not. Parentheses around a
// group of AND terms are dropped and the group is split too; a term that
// does not split keeps its own spelling. AND binds tighter than OR, so a
// run with a top-level OR is a single conjunct.
func SplitConjuncts(pred string) []string {
	toks := token.Tokenize(pred)
	return splitTokens(pred, toks[:len(toks)-1], nil)
}

func splitTokens(src string, toks []token.Token, out []string) []string {
	inner := unwrapParens(toks)
	if len(inner) == 0 {
		return out
	}

	depth, start := 0, 0
	between, hasOr := false, false
	var parts [][]token.Token
	for i, tok := range inner {
		switch tok.Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
		case token.BETWEEN:
			if depth == 0 {
				between = true
			}
		case token.OR:
			if depth == 0 {
				hasOr = true
			}
		case token.AND:
			if depth != 0 {
				continue
			}
			if between {
				between = false
				continue
			}
			parts = append(parts, inner[start:i])
			start = i + 1
		}
	}
	parts = append(parts, inner[start:])

	if hasOr || len(parts) == 1 {
		return append(out, token.SourceText(src, toks))
	}
	for _, p := range parts {
		out = splitTokens(src, p, out)
	}
	return out
}

// TrimParens removes parentheses that enclose the whole of s.
func TrimParens(s string) string {
	toks := token.Tokenize(s)
	inner := unwrapParens(toks[:len(toks)-1])
	if len(inner) == len(toks)-1 {
		return s
	}
	return token.SourceText(s, inner)
}

// unwrapParens strips parentheses that enclose the whole token run.
func unwrapParens(toks []token.Token) []token.Token {
	for len(toks) >= 2 && toks[0].Type == token.LPAREN && toks[len(toks)-1].Type == token.RPAREN {
		depth := 0
		for i, tok := range toks {
			switch tok.Type {
			case token.LPAREN:
				depth++
			case token.RPAREN:
				depth--
			}
			if depth == 0 && i < len(toks)-1 {
				return toks
			}
		}
		toks = toks[1 : len(toks)-1]
	}
	return toks
}

// JoinConjuncts combines conjuncts into a single predicate. When there is
// more than one, a conjunct with a top-level OR is parenthesized so the
// result keeps its meaning.
func JoinConjuncts(conjuncts []string) string {
	if len(conjuncts) == 1 {
		return conjuncts[0]
	}
	parts := make([]string, len(conjuncts))
	for i, c := range conjuncts {
		if hasTopLevelOr(c) {
			c = "(" + c + ")"
		}
		parts[i] = c
	}
	return strings.Join(parts, " AND ")
}

func hasTopLevelOr(s string) bool {
	depth := 0
	for _, tok := range token.Tokenize(s) {
		switch tok.Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
		case token.OR:
			if depth == 0 {
				return true
			}
		}
	}
	return false
}

// SplitColumns splits a column list on its top-level commas.
func SplitColumns(columns string) []string {
	toks := token.Tokenize(columns)
	toks = toks[:len(toks)-1]

	var out []string
	depth, start := 0, 0
	for i, tok := range toks {
		switch tok.Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
		case token.COMMA:
			if depth == 0 {
				if i > start {
					out = append(out, token.SourceText(columns, toks[start:i]))
				}
				start = i + 1
			}
		}
	}
	if start < len(toks) {
		out = append(out, token.SourceText(columns, toks[start:]))
	}
	return out
}

// ColumnRef is a column reference found in a column list or predicate.
type ColumnRef struct {
	Qualifier string // table name or alias; empty for bare columns
	Column    string // "*" for qualifier.*
	Pos       token.Position
}

// Qualified reports whether the reference carries a table qualifier.
func (r ColumnRef) Qualified() bool {
	return r.Qualifier != ""
}

func (r ColumnRef) String() string {
	if r.Qualifier != "" {
		return r.Qualifier + "." + r.Column
	}
	return r.Column
}

// ColumnRefs returns the column references in text.
func ColumnRefs(text string) []ColumnRef {
	return ScanColumnRefs(token.Tokenize(text))
}

// ScanColumnRefs returns the column references in a token run. Function
// names, aliases introduced by AS and implicit aliases are skipped.
func ScanColumnRefs(toks []token.Token) []ColumnRef {
	var out []ColumnRef
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		if tok.Type != token.IDENT {
			continue
		}
		if i > 0 {
			switch toks[i-1].Type {
			case token.AS, token.IDENT, token.RPAREN, token.DOT:
				continue
			}
		}
		next := tokenAt(toks, i+1)
		if next.Type == token.LPAREN {
			continue
		}
		if next.Type == token.DOT {
			col := tokenAt(toks, i+2)
			switch col.Type {
			case token.IDENT:
				out = append(out, ColumnRef{Qualifier: tok.Literal, Column: col.Literal, Pos: tok.Pos})
				i += 2
			case token.STAR:
				out = append(out, ColumnRef{Qualifier: tok.Literal, Column: "*", Pos: tok.Pos})
				i += 2
			}
			continue
		}
		out = append(out, ColumnRef{Column: tok.Literal, Pos: tok.Pos})
	}
	return out
}

func tokenAt(toks []token.Token, i int) token.Token {
	if i < len(toks) {
		return toks[i]
	}
	return token.Token{Type: token.EOF}
}

// Qualifiers returns the distinct qualifiers used in text, in order of
// first appearance.
func Qualifiers(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, ref := range ColumnRefs(text) {
		if !ref.Qualified() {
			continue
		}
		key := core.FoldIdent(ref.Qualifier)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ref.Qualifier)
	}
	return out
}

// IsEquiJoin reports whether cond contains an equality between two column
// references qualified by different tables or aliases.
func IsEquiJoin(cond string) bool {
	toks := token.Tokenize(cond)
	for i := 0; i+6 < len(toks); i++ {
		if i > 0 && toks[i-1].Type == token.DOT {
			continue
		}
		if toks[i].Type != token.IDENT || toks[i+1].Type != token.DOT || toks[i+2].Type != token.IDENT ||
			toks[i+3].Type != token.EQ ||
			toks[i+4].Type != token.IDENT || toks[i+5].Type != token.DOT || toks[i+6].Type != token.IDENT {
			continue
		}
		if !core.EqualIdent(toks[i].Literal, toks[i+4].Literal) {
			return true
		}
	}
	return false
}
