package optimizer

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/relalg/pkg/algebra"
)

// SelectionPushdown moves each conjunct of a Selection to the lowest node
// whose reachable relations cover every relation the conjunct references.
// Conjuncts touching both sides of a join, or no relation at all, stay
// above the join. A Selection that reaches an aliased table wraps the
// Rename, so alias-qualified predicates stay in scope.
type SelectionPushdown struct {
	resolver resolver
}

// Name implements Pass.
func (*SelectionPushdown) Name() string { return PassSelectionPushdown }

// Apply implements Pass.
func (p *SelectionPushdown) Apply(tree algebra.Node) (algebra.Node, []Entry) {
	var entries []Entry
	out := p.rewrite(tree, &entries)
	return out, entries
}

func (p *SelectionPushdown) rewrite(n algebra.Node, entries *[]Entry) algebra.Node {
	switch n := n.(type) {
	case *algebra.Table:
		return &algebra.Table{Name: n.Name}
	case *algebra.Rename:
		return &algebra.Rename{Alias: n.Alias, Child: p.rewrite(n.Child, entries)}
	case *algebra.Projection:
		return &algebra.Projection{Columns: n.Columns, Child: p.rewrite(n.Child, entries)}
	case *algebra.Join:
		return &algebra.Join{
			Condition: n.Condition,
			Left:      p.rewrite(n.Left, entries),
			Right:     p.rewrite(n.Right, entries),
			Algorithm: n.Algorithm,
		}
	case *algebra.Selection:
		return p.place(algebra.SplitConjuncts(n.Predicate), n.Child, entries)
	default:
		panic(fmt.Sprintf("optimizer: unexpected node type %T", n))
	}
}

// place attaches conjuncts to the subtree n as low as they can go and
// rewrites the rest of n.
func (p *SelectionPushdown) place(conjuncts []string, n algebra.Node, entries *[]Entry) algebra.Node {
	if len(conjuncts) == 0 {
		return p.rewrite(n, entries)
	}

	switch n := n.(type) {
	case *algebra.Selection:
		inner := algebra.SplitConjuncts(n.Predicate)
		*entries = append(*entries, Entry{
			Pass:    PassSelectionPushdown,
			Message: fmt.Sprintf("merged σ(%s) into σ(%s)", algebra.JoinConjuncts(conjuncts), n.Predicate),
		})
		return p.place(append(conjuncts, inner...), n.Child, entries)

	case *algebra.Projection:
		return &algebra.Projection{Columns: n.Columns, Child: p.place(conjuncts, n.Child, entries)}

	case *algebra.Rename:
		if _, leaf := n.Child.(*algebra.Table); leaf {
			return wrap(conjuncts, p.rewrite(n, entries))
		}
		return &algebra.Rename{Alias: n.Alias, Child: p.place(conjuncts, n.Child, entries)}

	case *algebra.Table:
		return wrap(conjuncts, p.rewrite(n, entries))

	case *algebra.Join:
		left, right := algebra.Relations(n.Left), algebra.Relations(n.Right)
		scope := append(append([]algebra.Relation{}, left...), right...)

		var toLeft, toRight, stay []string
		for _, c := range conjuncts {
			idx, ok := p.resolver.attribute(c, scope)
			switch {
			case !ok || len(idx) == 0:
				stay = append(stay, c)
			case idx[len(idx)-1] < len(left):
				toLeft = append(toLeft, c)
				*entries = append(*entries, p.moved(c, "left", n, pick(scope, idx)))
			case idx[0] >= len(left):
				toRight = append(toRight, c)
				*entries = append(*entries, p.moved(c, "right", n, pick(scope, idx)))
			default:
				stay = append(stay, c)
			}
		}

		join := &algebra.Join{
			Condition: n.Condition,
			Left:      p.place(toLeft, n.Left, entries),
			Right:     p.place(toRight, n.Right, entries),
			Algorithm: n.Algorithm,
		}
		return wrap(stay, join)

	default:
		panic(fmt.Sprintf("optimizer: unexpected node type %T", n))
	}
}

func (p *SelectionPushdown) moved(conjunct, side string, j *algebra.Join, rels []algebra.Relation) Entry {
	return Entry{
		Pass: PassSelectionPushdown,
		Message: fmt.Sprintf("pushed σ(%s) into the %s input of ⨝(%s): it only references %s, so fewer rows reach the join",
			conjunct, side, j.Condition, strings.Join(relationNames(rels), ", ")),
	}
}

func wrap(conjuncts []string, n algebra.Node) algebra.Node {
	if len(conjuncts) == 0 {
		return n
	}
	return &algebra.Selection{Predicate: algebra.JoinConjuncts(conjuncts), Child: n}
}

func pick(rels []algebra.Relation, idx []int) []algebra.Relation {
	out := make([]algebra.Relation, len(idx))
	for i, j := range idx {
		out[i] = rels[j]
	}
	return out
}
