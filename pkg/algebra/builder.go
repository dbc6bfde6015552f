package algebra

import "github.com/leapstack-labs/relalg/pkg/core"

// Build folds a parsed query into its unoptimized tree: a left-deep chain
// of joins in declaration order, one Selection holding the whole WHERE
// clause, and a Projection on top.
//
// Build never fails on a query that passed validation.
func Build(q *core.Query) Node {
	tree := Leaf(q.Base)
	for _, j := range q.Joins {
		tree = &Join{
			Condition: j.On,
			Left:      tree,
			Right:     Leaf(j.Table),
		}
	}
	if q.Clauses.HasWhere() {
		tree = &Selection{Predicate: q.Clauses.Where, Child: tree}
	}
	if q.Clauses.Columns != "" {
		tree = &Projection{Columns: q.Clauses.Columns, Child: tree}
	}
	return tree
}

// Leaf returns the tree for a single table reference: the table, wrapped
// in a Rename when the reference carries an alias.
func Leaf(ref core.TableRef) Node {
	var n Node = &Table{Name: ref.Name}
	if ref.Alias != "" {
		n = &Rename{Alias: ref.Alias, Child: n}
	}
	return n
}
