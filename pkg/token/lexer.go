package token

import "strings"

// logicalAnd is the relational-algebra conjunction sign accepted as AND.
const logicalAnd = "∧"

// Lexer tokenizes SQL input.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // current line number (1-based)
	col     int  // current column number (1-based)
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0,
	}
	l.readChar()
	return l
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.col++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) currentPos() Position {
	return Position{
		Line:   l.line,
		Column: l.col,
		Offset: l.pos,
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	l.skipWhitespaceAndComments()

	pos := l.currentPos()
	tok := Token{Pos: pos}

	if l.pos >= len(l.input) {
		tok.Type = EOF
		tok.End = len(l.input)
		return tok
	}

	if strings.HasPrefix(l.input[l.pos:], logicalAnd) {
		for range len(logicalAnd) {
			l.readChar()
		}
		tok.Type = AND
		tok.Literal = logicalAnd
		tok.End = l.pos
		return tok
	}

	switch l.ch {
	case '+':
		tok.Type, tok.Literal = PLUS, "+"
	case '-':
		tok.Type, tok.Literal = MINUS, "-"
	case '*':
		tok.Type, tok.Literal = STAR, "*"
	case '/':
		tok.Type, tok.Literal = SLASH, "/"
	case '%':
		tok.Type, tok.Literal = PERCENT, "%"
	case '=':
		tok.Type, tok.Literal = EQ, "="
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			tok.Type, tok.Literal = LE, "<="
		case '>':
			l.readChar()
			tok.Type, tok.Literal = NE, "<>"
		default:
			tok.Type, tok.Literal = LT, "<"
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type, tok.Literal = GE, ">="
		} else {
			tok.Type, tok.Literal = GT, ">"
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type, tok.Literal = NE, "!="
		} else {
			tok.Type, tok.Literal = ILLEGAL, "!"
		}
	case '.':
		tok.Type, tok.Literal = DOT, "."
	case ',':
		tok.Type, tok.Literal = COMMA, ","
	case '(':
		tok.Type, tok.Literal = LPAREN, "("
	case ')':
		tok.Type, tok.Literal = RPAREN, ")"
	case ';':
		tok.Type, tok.Literal = SEMICOLON, ";"
	case '\'', '"':
		lit, ok := l.readString(l.ch)
		tok.Type, tok.Literal = STRING, lit
		if !ok {
			tok.Type = ILLEGAL
		}
		tok.End = l.pos
		return tok
	case '`':
		tok.Type = IDENT
		tok.Literal = l.readQuotedIdentifier()
		tok.End = l.pos
		return tok
	default:
		switch {
		case isLetter(l.ch) || l.ch == '_':
			tok.Literal = l.readIdentifier()
			tok.Type = LookupIdent(tok.Literal)
			tok.End = l.pos
			return tok
		case isDigit(l.ch):
			tok.Type = NUMBER
			tok.Literal = l.readNumber()
			tok.End = l.pos
			return tok
		default:
			tok.Type, tok.Literal = ILLEGAL, string(l.ch)
		}
	}

	l.readChar()
	tok.End = l.pos
	return tok
}

// skipWhitespaceAndComments skips whitespace and comments.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}

		// -- line comment
		if l.ch == '-' && l.peekChar() == '-' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}

		// /* block comment */
		if l.ch == '/' && l.peekChar() == '*' {
			l.readChar()
			l.readChar()
			for l.ch != 0 && !(l.ch == '*' && l.peekChar() == '/') {
				l.readChar()
			}
			if l.ch != 0 {
				l.readChar()
				l.readChar()
			}
			continue
		}

		break
	}
}

// readString reads a literal delimited by quote. A doubled quote is an
// escaped quote. ok is false when the input ends before the closing quote.
func (l *Lexer) readString(quote byte) (lit string, ok bool) {
	l.readChar() // skip opening quote

	var result strings.Builder
	for {
		if l.pos >= len(l.input) {
			return result.String(), false
		}
		if l.ch == quote {
			if l.peekChar() == quote {
				result.WriteByte(quote)
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // skip closing quote
			return result.String(), true
		}
		result.WriteByte(l.ch)
		l.readChar()
	}
}

// readQuotedIdentifier reads a backtick-quoted identifier.
func (l *Lexer) readQuotedIdentifier() string {
	l.readChar() // skip opening backtick

	start := l.pos
	for l.ch != '`' && l.pos < len(l.input) {
		l.readChar()
	}
	ident := l.input[start:l.pos]
	if l.ch == '`' {
		l.readChar()
	}
	return ident
}

// readIdentifier reads an unquoted identifier.
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for (isLetter(l.ch) || isDigit(l.ch) || l.ch == '_') && !strings.HasPrefix(l.input[l.pos:], logicalAnd) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readNumber reads a numeric literal (integer, decimal, or scientific).
func (l *Lexer) readNumber() string {
	start := l.pos

	for isDigit(l.ch) {
		l.readChar()
	}

	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	if (l.ch == 'e' || l.ch == 'E') && (isDigit(l.peekChar()) || l.peekChar() == '+' || l.peekChar() == '-') {
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	return l.input[start:l.pos]
}

// isLetter reports ASCII letters and any non-ASCII byte, so UTF-8 encoded
// identifiers (e.g. "Descrição") lex as a single identifier.
func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch >= 0x80
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// Tokenize returns all tokens from the input, ending with an EOF token.
func Tokenize(input string) []Token {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			break
		}
	}
	return tokens
}

// SourceText rebuilds the text of src covered by toks. Whitespace and
// comments between tokens collapse to a single space; every token keeps
// its original spelling.
func SourceText(src string, toks []Token) string {
	var sb strings.Builder
	for i, tok := range toks {
		if tok.Type == EOF {
			break
		}
		if i > 0 && toks[i-1].End < tok.Pos.Offset {
			sb.WriteByte(' ')
		}
		sb.WriteString(src[tok.Pos.Offset:tok.End])
	}
	return sb.String()
}
