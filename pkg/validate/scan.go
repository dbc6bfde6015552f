package validate

import "github.com/leapstack-labs/relalg/pkg/token"

type segmentKind int

const (
	segNone segmentKind = iota
	segColumns
	segFrom
	segOn
	segWhere
)

// segment is a run of tokens belonging to one clause body. Clause keywords
// themselves are not part of any segment.
type segment struct {
	kind segmentKind
	toks []token.Token
}

// segments splits a query token stream into clause bodies.
func segments(toks []token.Token) []segment {
	var out []segment
	kind, start := segNone, 0

	closeSeg := func(end int) {
		if kind != segNone && end > start {
			out = append(out, segment{kind: kind, toks: toks[start:end]})
		}
	}

	for i, tok := range toks {
		next := kind
		switch tok.Type {
		case token.SELECT:
			next = segColumns
		case token.FROM, token.INNER, token.JOIN:
			next = segFrom
		case token.ON:
			next = segOn
		case token.WHERE:
			next = segWhere
		case token.SEMICOLON:
			next = segNone
		default:
			continue
		}
		closeSeg(i)
		kind, start = next, i+1
	}
	closeSeg(len(toks))
	return out
}

func tokenAt(toks []token.Token, i int) token.Token {
	if i >= 0 && i < len(toks) {
		return toks[i]
	}
	return token.Token{Type: token.EOF}
}
