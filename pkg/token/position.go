package token

import "fmt"

// Position represents a location in the source text.
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number
	Offset int // 0-based byte offset
}

// IsValid returns true if the position is valid (line > 0).
func (p Position) IsValid() bool {
	return p.Line > 0
}

// String formats the position as line:column.
func (p Position) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Shift returns p moved by a base position. It is used when a clause is
// tokenized on its own and positions must be reported relative to the full
// query text.
func (p Position) Shift(base Position) Position {
	if !p.IsValid() || !base.IsValid() {
		return p
	}
	out := Position{Offset: p.Offset + base.Offset}
	if p.Line == 1 {
		out.Line = base.Line
		out.Column = base.Column + p.Column - 1
	} else {
		out.Line = base.Line + p.Line - 1
		out.Column = p.Column
	}
	return out
}
