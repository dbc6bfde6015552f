package parser

import (
	"strings"

	"github.com/leapstack-labs/relalg/pkg/core"
	"github.com/leapstack-labs/relalg/pkg/token"
)

// FROM clause resolution.
//
// Grammar:
//
//	from_clause → table_ref (join)*
//	table_ref   → identifier ["." identifier] [[AS] identifier]
//	join        → [INNER] JOIN table_ref ON condition

// ResolveFrom parses a FROM clause body into the base table and its joins.
// base is the position of the clause in the full query and is used to
// report error positions; pass the zero Position when unknown.
func ResolveFrom(from string, base token.Position) (core.TableRef, []core.JoinSpec, error) {
	if base.Line == 0 {
		base = token.Position{Line: 1, Column: 1}
	}
	p := &fromParser{src: from, toks: token.Tokenize(from), base: base}
	return p.parse()
}

type fromParser struct {
	src  string
	toks []token.Token
	pos  int
	base token.Position
}

func (p *fromParser) cur() token.Token {
	return p.toks[p.pos]
}

func (p *fromParser) peek() token.Token {
	if p.pos+1 < len(p.toks) {
		return p.toks[p.pos+1]
	}
	return p.toks[len(p.toks)-1]
}

func (p *fromParser) next() {
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
}

func (p *fromParser) errorf(rule string, tok token.Token, format string, args ...any) error {
	return core.Syntaxf(rule, tok.Pos.Shift(p.base), tok.Literal, format, args...)
}

func (p *fromParser) parse() (core.TableRef, []core.JoinSpec, error) {
	baseRef, err := p.parseTableRef("FROM")
	if err != nil {
		return core.TableRef{}, nil, err
	}

	var joins []core.JoinSpec
	last := baseRef
	for {
		tok := p.cur()
		switch {
		case tok.Type == token.EOF || tok.Type == token.SEMICOLON:
			return baseRef, joins, nil
		case tok.Type == token.INNER:
			p.next()
			if p.cur().Type != token.JOIN {
				return core.TableRef{}, nil, p.errorf(RuleBadTableRef, p.cur(), ErrExpectedJoin, describe(p.cur()))
			}
		case tok.Type == token.JOIN:
		case tok.Type == token.ON:
			return core.TableRef{}, nil, p.errorf(RuleOnWithoutJoin, tok, ErrOnWithoutJoin)
		case isOuterJoinKeyword(tok.Type):
			return core.TableRef{}, nil, p.errorf(RuleUnsupportedJoin, tok, ErrUnsupportedJoin, strings.ToUpper(tok.Literal))
		case tok.Type == token.COMMA:
			return core.TableRef{}, nil, p.errorf(RuleTrailingText, tok, ErrCommaJoin)
		default:
			return core.TableRef{}, nil, p.errorf(RuleTrailingText, tok, ErrUnexpectedTrailer, tok.Literal, last.String())
		}

		join, err := p.parseJoin()
		if err != nil {
			return core.TableRef{}, nil, err
		}
		joins = append(joins, join)
		last = join.Table
	}
}

// parseJoin parses JOIN table_ref ON condition. The current token is JOIN.
func (p *fromParser) parseJoin() (core.JoinSpec, error) {
	p.next() // consume JOIN

	ref, err := p.parseTableRef("JOIN")
	if err != nil {
		return core.JoinSpec{}, err
	}

	tok := p.cur()
	if tok.Type != token.ON {
		if tok.Type == token.EOF || tok.Type == token.SEMICOLON || p.atJoinStart() {
			return core.JoinSpec{}, p.errorf(RuleJoinWithoutOn, tok, ErrJoinWithoutOn, ref.Name)
		}
		return core.JoinSpec{}, p.errorf(RuleTrailingText, tok, ErrUnexpectedTrailer, tok.Literal, ref.String())
	}
	onTok := tok
	p.next()
	if p.cur().Type == token.ON {
		return core.JoinSpec{}, p.errorf(RuleDuplicateClause, p.cur(), ErrDuplicateKeyword, "ON")
	}

	start := p.pos
	for !p.atJoinStart() && p.cur().Type != token.EOF && p.cur().Type != token.SEMICOLON {
		if p.cur().Type == token.ON {
			return core.JoinSpec{}, p.errorf(RuleOnWithoutJoin, p.cur(), ErrOnWithoutJoin)
		}
		p.next()
	}
	if p.pos == start {
		return core.JoinSpec{}, p.errorf(RuleEmptyCondition, onTok, ErrEmptyCondition, ref.Name)
	}

	return core.JoinSpec{
		Table: ref,
		On:    token.SourceText(p.src, p.toks[start:p.pos]),
		OnPos: p.toks[start].Pos.Shift(p.base),
	}, nil
}

// parseTableRef parses a table name and its optional alias.
func (p *fromParser) parseTableRef(after string) (core.TableRef, error) {
	tok := p.cur()
	if tok.Type == token.JOIN && after == "JOIN" {
		return core.TableRef{}, p.errorf(RuleDuplicateClause, tok, ErrDuplicateKeyword, "JOIN")
	}
	if tok.Type != token.IDENT {
		return core.TableRef{}, p.errorf(RuleBadTableRef, tok, ErrExpectedTable, after, describe(tok))
	}

	ref := core.TableRef{Name: tok.Literal, Pos: tok.Pos.Shift(p.base)}
	p.next()
	for p.cur().Type == token.DOT && p.peek().Type == token.IDENT {
		p.next()
		ref.Name += "." + p.cur().Literal
		p.next()
	}

	switch p.cur().Type {
	case token.AS:
		p.next()
		if p.cur().Type != token.IDENT {
			return core.TableRef{}, p.errorf(RuleBadTableRef, p.cur(), ErrExpectedAlias, describe(p.cur()))
		}
		ref.Alias = p.cur().Literal
		p.next()
	case token.IDENT:
		ref.Alias = p.cur().Literal
		p.next()
	}
	return ref, nil
}

// atJoinStart reports whether the current token begins a new join.
func (p *fromParser) atJoinStart() bool {
	switch t := p.cur().Type; {
	case t == token.JOIN:
		return true
	case t == token.INNER:
		return p.peek().Type == token.JOIN
	case isOuterJoinKeyword(t):
		return p.peek().Type == token.JOIN || p.peek().Type == token.OUTER
	}
	return false
}

func isOuterJoinKeyword(t token.TokenType) bool {
	switch t {
	case token.LEFT, token.RIGHT, token.FULL, token.CROSS, token.NATURAL, token.OUTER:
		return true
	}
	return false
}
