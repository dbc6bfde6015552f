package optimizer

import (
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/relalg/pkg/algebra"
)

// JoinReordering rebuilds every chain of joins greedily. The chain is
// flattened into its subtrees and its conditions; the lightest subtree
// starts the new left-deep chain, and each step attaches the lightest
// remaining subtree that shares a condition with what is already built.
// A condition on one subtree alone shares nothing. When no subtree is
// linked, the lightest remaining one is attached as a cross join, carrying
// only the conditions on that subtree. Ties go to the subtree declared
// first.
type JoinReordering struct {
	resolver  resolver
	estimator Estimator
}

// Name implements Pass.
func (*JoinReordering) Name() string { return PassJoinReordering }

// Apply implements Pass.
func (p *JoinReordering) Apply(tree algebra.Node) (algebra.Node, []Entry) {
	var entries []Entry
	out := p.rewrite(tree, &entries)
	return out, entries
}

func (p *JoinReordering) rewrite(n algebra.Node, entries *[]Entry) algebra.Node {
	switch n := n.(type) {
	case *algebra.Table:
		return &algebra.Table{Name: n.Name}
	case *algebra.Rename:
		return &algebra.Rename{Alias: n.Alias, Child: p.rewrite(n.Child, entries)}
	case *algebra.Selection:
		return &algebra.Selection{Predicate: n.Predicate, Child: p.rewrite(n.Child, entries)}
	case *algebra.Projection:
		return &algebra.Projection{Columns: n.Columns, Child: p.rewrite(n.Child, entries)}
	case *algebra.Join:
		return p.reorder(n, entries)
	default:
		panic(fmt.Sprintf("optimizer: unexpected node type %T", n))
	}
}

// chainUnit is one subtree of a flattened join chain.
type chainUnit struct {
	node   algebra.Node
	rels   []algebra.Relation
	weight float64
	index  int
}

// chainCond is one conjunct of a join condition in the chain.
type chainCond struct {
	text string
	rels []int // indexes into the chain's relation list; nil when unattributed
	used bool
}

func (p *JoinReordering) flatten(n algebra.Node, units []algebra.Node, conds []string, entries *[]Entry) ([]algebra.Node, []string) {
	if j, ok := n.(*algebra.Join); ok {
		units, conds = p.flatten(j.Left, units, conds, entries)
		units, conds = p.flatten(j.Right, units, conds, entries)
		return units, append(conds, algebra.SplitConjuncts(j.Condition)...)
	}
	return append(units, p.rewrite(n, entries)), conds
}

func (p *JoinReordering) reorder(root *algebra.Join, entries *[]Entry) algebra.Node {
	nodes, texts := p.flatten(root, nil, nil, entries)

	// Every relation of the chain, and the unit each one belongs to.
	var all []algebra.Relation
	var owner []int
	units := make([]*chainUnit, len(nodes))
	for i, n := range nodes {
		rels := algebra.Relations(n)
		units[i] = &chainUnit{node: n, rels: rels, index: i}
		for range rels {
			owner = append(owner, i)
		}
		all = append(all, rels...)
	}

	conds := make([]*chainCond, len(texts))
	equi := make([]bool, len(units))
	for i, text := range texts {
		c := &chainCond{text: text}
		if idx, ok := p.resolver.attribute(text, all); ok && len(idx) > 0 {
			c.rels = idx
		}
		conds[i] = c
		if algebra.IsEquiJoin(text) {
			for _, r := range c.rels {
				equi[owner[r]] = true
			}
		}
	}

	for i, u := range units {
		u.weight = p.estimator.Estimate(Subtree{
			Node:       u.node,
			Relations:  u.rels,
			Selections: countSelections(u.node),
			EquiJoined: equi[i],
		})
	}

	remaining := slices.Clone(units)
	first := lightest(remaining)
	remaining = slices.DeleteFunc(remaining, func(u *chainUnit) bool { return u == first })

	built := first.node
	have := map[int]bool{first.index: true}
	order := []*chainUnit{first}

	// available reports whether every relation c references is in a unit
	// of the built tree or in extra.
	available := func(c *chainCond, extra int) bool {
		for _, r := range c.rels {
			if !have[owner[r]] && owner[r] != extra {
				return false
			}
		}
		return true
	}
	touches := func(c *chainCond, unit int) bool {
		for _, r := range c.rels {
			if owner[r] == unit {
				return true
			}
		}
		return false
	}
	// links reports whether c connects unit to the built tree. A condition
	// on unit alone links nothing.
	links := func(c *chainCond, unit int) bool {
		if c.used || c.rels == nil || !touches(c, unit) || !available(c, unit) {
			return false
		}
		for _, r := range c.rels {
			if have[owner[r]] {
				return true
			}
		}
		return false
	}

	for len(remaining) > 0 {
		var candidates []*chainUnit
		for _, u := range remaining {
			for _, c := range conds {
				if links(c, u.index) {
					candidates = append(candidates, u)
					break
				}
			}
		}

		cross := len(candidates) == 0
		if cross {
			candidates = remaining
		}
		next := lightest(candidates)
		remaining = slices.DeleteFunc(remaining, func(u *chainUnit) bool { return u == next })

		var on []string
		for _, c := range conds {
			if !c.used && c.rels != nil && available(c, next.index) {
				c.used = true
				on = append(on, c.text)
			}
		}
		if len(remaining) == 0 {
			// Unattributed conditions go on the top join, where every
			// relation of the chain is in scope.
			for _, c := range conds {
				if !c.used {
					c.used = true
					on = append(on, c.text)
				}
			}
		}

		if cross {
			*entries = append(*entries, Entry{
				Pass:    PassJoinReordering,
				Message: fmt.Sprintf("no join condition links %s to the relations already joined; falling back to a cross join", next.describe()),
			})
		}

		built = &algebra.Join{Condition: algebra.JoinConjuncts(on), Left: built, Right: next.node}
		have[next.index] = true
		order = append(order, next)
	}

	if changed(order) {
		*entries = append(*entries, Entry{
			Pass: PassJoinReordering,
			Message: fmt.Sprintf("reordered joins from [%s] to [%s] so the lightest inputs meet first",
				describeUnits(units), describeUnits(order)),
		})
	}
	return built
}

// lightest returns the unit with the smallest weight, preferring the one
// declared first on ties.
func lightest(units []*chainUnit) *chainUnit {
	best := units[0]
	for _, u := range units[1:] {
		if u.weight < best.weight || (u.weight == best.weight && u.index < best.index) {
			best = u
		}
	}
	return best
}

func changed(order []*chainUnit) bool {
	for i, u := range order {
		if u.index != i {
			return true
		}
	}
	return false
}

func (u *chainUnit) describe() string {
	return fmt.Sprintf("%s (weight %g)", strings.Join(relationNames(u.rels), " ⨝ "), u.weight)
}

func describeUnits(units []*chainUnit) string {
	parts := make([]string, len(units))
	for i, u := range units {
		parts[i] = u.describe()
	}
	return strings.Join(parts, ", ")
}
