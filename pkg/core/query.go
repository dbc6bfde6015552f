package core

import "github.com/leapstack-labs/relalg/pkg/token"

// ParsedClauses holds the raw text of each clause of a query.
// Positions point at the first character of each clause body in the
// original query text.
type ParsedClauses struct {
	Columns string
	From    string
	Where   string

	ColumnsPos token.Position
	FromPos    token.Position
	WherePos   token.Position
}

// HasWhere reports whether the query carried a WHERE clause.
func (c ParsedClauses) HasWhere() bool {
	return c.Where != ""
}

// TableRef is a table named in FROM or JOIN, with its optional alias.
type TableRef struct {
	Name  string
	Alias string
	Pos   token.Position
}

// Ref returns the name the rest of the query uses for the table:
// the alias when present, otherwise the table name.
func (t TableRef) Ref() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// Matches reports whether qualifier names this table, either by alias or
// by table name. Comparison is case-insensitive.
func (t TableRef) Matches(qualifier string) bool {
	if EqualIdent(qualifier, t.Name) {
		return true
	}
	return t.Alias != "" && EqualIdent(qualifier, t.Alias)
}

func (t TableRef) String() string {
	if t.Alias != "" {
		return t.Name + " " + t.Alias
	}
	return t.Name
}

// JoinSpec is one INNER JOIN of the FROM clause.
type JoinSpec struct {
	Table TableRef
	On    string
	OnPos token.Position
}

// Query is a query after clause extraction and FROM resolution.
type Query struct {
	Raw     string
	Clauses ParsedClauses
	Base    TableRef
	Joins   []JoinSpec
}

// Tables returns every table in scope in declaration order.
func (q *Query) Tables() []TableRef {
	out := make([]TableRef, 0, len(q.Joins)+1)
	out = append(out, q.Base)
	for _, j := range q.Joins {
		out = append(out, j.Table)
	}
	return out
}

// Resolve returns the table in scope that qualifier names.
func (q *Query) Resolve(qualifier string) (TableRef, bool) {
	for _, t := range q.Tables() {
		if t.Matches(qualifier) {
			return t, true
		}
	}
	return TableRef{}, false
}
