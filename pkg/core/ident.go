package core

import "golang.org/x/text/cases"

// FoldIdent returns the case-folded form of an SQL identifier.
// Identifiers are compared case-insensitively throughout the pipeline.
func FoldIdent(s string) string {
	// Casers carry state and are not safe for concurrent use.
	return cases.Fold().String(s)
}

// EqualIdent reports whether two identifiers name the same thing.
func EqualIdent(a, b string) bool {
	if a == b {
		return true
	}
	return FoldIdent(a) == FoldIdent(b)
}
