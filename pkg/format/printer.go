package format

import (
	"bytes"
	"strings"

	"github.com/leapstack-labs/relalg/pkg/token"
)

const indentSize = 2

// Printer accumulates indented output.
type Printer struct {
	output      *bytes.Buffer
	depth       int
	atLineStart bool
}

func newPrinter() *Printer {
	return &Printer{
		output:      &bytes.Buffer{},
		atLineStart: true,
	}
}

// String returns the output with exactly one trailing newline.
func (p *Printer) String() string {
	return strings.TrimRight(p.output.String(), "\n") + "\n"
}

func (p *Printer) write(s string) {
	if p.atLineStart && len(s) > 0 && s[0] != '\n' {
		p.writeIndent()
	}
	p.output.WriteString(s)
	p.atLineStart = false
}

func (p *Printer) writeln() {
	p.output.WriteByte('\n')
	p.atLineStart = true
}

func (p *Printer) line(s string) {
	p.write(s)
	p.writeln()
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.depth*indentSize; i++ {
		p.output.WriteByte(' ')
	}
	p.atLineStart = false
}

func (p *Printer) indent() {
	p.depth++
}

func (p *Printer) dedent() {
	if p.depth > 0 {
		p.depth--
	}
}

// predicate renders a condition with its logical ANDs written as ∧. The
// AND of a BETWEEN is left alone.
func predicate(s string) string {
	toks := token.Tokenize(s)
	var sb strings.Builder
	between := 0
	for i, tok := range toks {
		if tok.Type == token.EOF {
			break
		}
		if i > 0 && toks[i-1].End < tok.Pos.Offset {
			sb.WriteByte(' ')
		}
		switch tok.Type {
		case token.BETWEEN:
			between++
		case token.AND:
			if between > 0 {
				between--
				break
			}
			sb.WriteString("∧")
			continue
		}
		sb.WriteString(s[tok.Pos.Offset:tok.End])
	}
	return sb.String()
}
