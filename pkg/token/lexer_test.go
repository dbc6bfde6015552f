package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func types(toks []Token) []TokenType {
	out := make([]TokenType, 0, len(toks))
	for _, t := range toks {
		out = append(out, t.Type)
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []TokenType
	}{
		{
			name:  "simple select",
			input: "SELECT a, b FROM t;",
			want:  []TokenType{SELECT, IDENT, COMMA, IDENT, FROM, IDENT, SEMICOLON, EOF},
		},
		{
			name:  "qualified comparison",
			input: "c.id = p.cliente_id",
			want:  []TokenType{IDENT, DOT, IDENT, EQ, IDENT, DOT, IDENT, EOF},
		},
		{
			name:  "compound operators",
			input: "a <= 1 <> b >= 2 != c",
			want:  []TokenType{IDENT, LE, NUMBER, NE, IDENT, GE, NUMBER, NE, IDENT, EOF},
		},
		{
			name:  "doubled operators lex separately",
			input: ">> == > >",
			want:  []TokenType{GT, GT, EQ, EQ, GT, GT, EOF},
		},
		{
			name:  "keywords are case-insensitive",
			input: "select From wHeRe inner JOIN on",
			want:  []TokenType{SELECT, FROM, WHERE, INNER, JOIN, ON, EOF},
		},
		{
			name:  "conjunction sign",
			input: "a = 1 ∧ b = 2",
			want:  []TokenType{IDENT, EQ, NUMBER, AND, IDENT, EQ, NUMBER, EOF},
		},
		{
			name:  "strings hide keywords",
			input: `x = 'FROM' AND y = "WHERE"`,
			want:  []TokenType{IDENT, EQ, STRING, AND, IDENT, EQ, STRING, EOF},
		},
		{
			name:  "comments skipped",
			input: "a -- trailing\n/* block */ b",
			want:  []TokenType{IDENT, IDENT, EOF},
		},
		{
			name:  "unterminated string",
			input: "x = 'abc",
			want:  []TokenType{IDENT, EQ, ILLEGAL, EOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, types(Tokenize(tt.input)))
		})
	}
}

func TestTokenize_LiteralsAndOffsets(t *testing.T) {
	input := "SELECT c.Nome FROM Cliente c WHERE c.Nome = 'it''s'"
	toks := Tokenize(input)
	require.Len(t, toks, 14)

	assert.Equal(t, "c", toks[1].Literal)
	assert.Equal(t, "Nome", toks[3].Literal)
	assert.Equal(t, "it's", toks[12].Literal)

	for _, tok := range toks[:len(toks)-1] {
		if tok.Type == STRING {
			continue
		}
		assert.Equal(t, tok.Literal, input[tok.Pos.Offset:tok.End], "offsets of %s", tok)
	}
}

func TestTokenize_Positions(t *testing.T) {
	toks := Tokenize("SELECT a\nFROM t")
	require.Len(t, toks, 5)
	assert.Equal(t, Position{Line: 1, Column: 1, Offset: 0}, toks[0].Pos)
	assert.Equal(t, Position{Line: 1, Column: 8, Offset: 7}, toks[1].Pos)
	assert.Equal(t, Position{Line: 2, Column: 1, Offset: 9}, toks[2].Pos)
	assert.Equal(t, Position{Line: 2, Column: 6, Offset: 14}, toks[3].Pos)
}

func TestTokenize_UTF8Identifier(t *testing.T) {
	toks := Tokenize("Descrição = 'Eletrônicos'")
	require.Len(t, toks, 4)
	assert.Equal(t, IDENT, toks[0].Type)
	assert.Equal(t, "Descrição", toks[0].Literal)
	assert.Equal(t, "Eletrônicos", toks[2].Literal)
}

func TestIsReserved(t *testing.T) {
	assert.True(t, IsReserved("where"))
	assert.True(t, IsReserved("SELECT"))
	assert.False(t, IsReserved("Cliente"))
	assert.True(t, IsComparison(GE))
	assert.False(t, IsComparison(AND))
	assert.True(t, IsLogical(OR))
}

func TestPosition_Shift(t *testing.T) {
	base := Position{Line: 3, Column: 10, Offset: 40}
	assert.Equal(t, Position{Line: 3, Column: 14, Offset: 44}, Position{Line: 1, Column: 5, Offset: 4}.Shift(base))
	assert.Equal(t, Position{Line: 4, Column: 2, Offset: 52}, Position{Line: 2, Column: 2, Offset: 12}.Shift(base))
	assert.Equal(t, "3:10", base.String())
}
