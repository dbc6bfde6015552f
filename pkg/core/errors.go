package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/relalg/pkg/token"
)

// ErrorKind classifies pipeline errors.
type ErrorKind int

// Error kinds.
const (
	KindUnknown ErrorKind = iota
	KindSyntax
	KindSchema
	KindAmbiguity
)

// String returns the lowercase name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindSyntax:
		return "syntax"
	case KindSchema:
		return "schema"
	case KindAmbiguity:
		return "ambiguity"
	default:
		return "unknown"
	}
}

// SyntaxError reports structural malformation of the query text.
type SyntaxError struct {
	Rule    string
	Message string
	Token   string
	Pos     token.Position
}

func (e *SyntaxError) Error() string {
	return formatError("syntax error", e.Rule, e.Pos, e.Message)
}

// SchemaError reports a table or column that the catalog does not know.
type SchemaError struct {
	Rule    string
	Message string
	Table   string
	Column  string
	Pos     token.Position
}

func (e *SchemaError) Error() string {
	return formatError("schema error", e.Rule, e.Pos, e.Message)
}

// AmbiguityError reports an unqualified column present in more than one
// table in scope.
type AmbiguityError struct {
	Rule   string
	Column string
	Tables []string
	Pos    token.Position
}

func (e *AmbiguityError) Error() string {
	msg := fmt.Sprintf("column %q is ambiguous, it exists in %s; qualify it with a table name or alias",
		e.Column, strings.Join(e.Tables, ", "))
	return formatError("ambiguity error", e.Rule, e.Pos, msg)
}

func formatError(prefix, rule string, pos token.Position, msg string) string {
	var sb strings.Builder
	sb.WriteString(prefix)
	if rule != "" {
		sb.WriteString(" [")
		sb.WriteString(rule)
		sb.WriteString("]")
	}
	if pos.IsValid() {
		sb.WriteString(" at ")
		sb.WriteString(pos.String())
	}
	sb.WriteString(": ")
	sb.WriteString(msg)
	return sb.String()
}

// Kind reports the category of err, looking through wrapped errors.
func Kind(err error) ErrorKind {
	var syn *SyntaxError
	var sch *SchemaError
	var amb *AmbiguityError
	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &syn):
		return KindSyntax
	case errors.As(err, &sch):
		return KindSchema
	case errors.As(err, &amb):
		return KindAmbiguity
	default:
		return KindUnknown
	}
}

// Syntaxf builds a SyntaxError.
func Syntaxf(rule string, pos token.Position, tok string, format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Rule:    rule,
		Message: fmt.Sprintf(format, args...),
		Token:   tok,
		Pos:     pos,
	}
}
