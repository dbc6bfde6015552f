package algebra

import (
	"github.com/leapstack-labs/relalg/pkg/core"
)

// Relation is a base table reachable from a tree, with the alias it is
// known by in that tree.
type Relation struct {
	Table string `json:"table"`
	Alias string `json:"alias,omitempty"`
}

// Ref returns the alias if set, otherwise the table name.
func (r Relation) Ref() string {
	if r.Alias != "" {
		return r.Alias
	}
	return r.Table
}

// Matches reports whether qualifier names r by alias or table name.
func (r Relation) Matches(qualifier string) bool {
	if core.EqualIdent(qualifier, r.Table) {
		return true
	}
	return r.Alias != "" && core.EqualIdent(qualifier, r.Alias)
}

func (r Relation) String() string {
	if r.Alias != "" {
		return r.Table + " " + r.Alias
	}
	return r.Table
}

// Relations returns the base tables reachable from n, left to right.
func Relations(n Node) []Relation {
	var out []Relation
	Walk(n, func(n Node) bool {
		switch n := n.(type) {
		case *Rename:
			if t, ok := n.Child.(*Table); ok {
				out = append(out, Relation{Table: t.Name, Alias: n.Alias})
				return false
			}
		case *Table:
			out = append(out, Relation{Table: n.Name})
		}
		return true
	})
	return out
}

// Tables returns the names of the base tables reachable from n.
func Tables(n Node) []string {
	rels := Relations(n)
	out := make([]string, len(rels))
	for i, r := range rels {
		out[i] = r.Table
	}
	return out
}

// SelectionConjuncts returns every conjunct held by a Selection in the tree,
// in pre-order.
func SelectionConjuncts(n Node) []string {
	var out []string
	Walk(n, func(n Node) bool {
		if s, ok := n.(*Selection); ok {
			out = append(out, SplitConjuncts(s.Predicate)...)
		}
		return true
	})
	return out
}

// Joins returns every Join in the tree in pre-order.
func Joins(n Node) []*Join {
	var out []*Join
	Walk(n, func(n Node) bool {
		if j, ok := n.(*Join); ok {
			out = append(out, j)
		}
		return true
	})
	return out
}
