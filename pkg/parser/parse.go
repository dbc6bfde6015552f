// Package parser splits restricted SELECT queries into clauses and resolves
// their FROM clause.
//
// # Usage
//
//	q, err := parser.Parse("SELECT c.Nome FROM Cliente c INNER JOIN Pedido p ON c.id = p.cliente_id")
//	if err != nil {
//	    // err is a *core.SyntaxError
//	}
//
// The accepted grammar is
//
//	SELECT columns FROM table [[AS] alias] ([INNER] JOIN table [[AS] alias] ON condition)* [WHERE condition] [";"]
//
// Column lists and conditions are kept as opaque text with whitespace
// collapsed. Checking them against a catalog is the job of package validate.
package parser

import "github.com/leapstack-labs/relalg/pkg/core"

// Parse runs clause extraction and FROM resolution.
func Parse(raw string) (*core.Query, error) {
	clauses, err := ExtractClauses(raw)
	if err != nil {
		return nil, err
	}
	base, joins, err := ResolveFrom(clauses.From, clauses.FromPos)
	if err != nil {
		return nil, err
	}
	return &core.Query{
		Raw:     raw,
		Clauses: clauses,
		Base:    base,
		Joins:   joins,
	}, nil
}
