// Package algebra defines relational-algebra trees and builds them from
// parsed queries.
//
// A tree is made of five operators: Table leaves, Rename (ρ), Selection (σ),
// Projection (π) and Join (⨝). Predicates and column lists are kept as text.
package algebra

import "fmt"

// Operator symbols.
const (
	SymProjection = "π"
	SymSelection  = "σ"
	SymRename     = "ρ"
	SymJoin       = "⨝"
)

// Node is a relational-algebra operator. The set of implementations is
// closed: *Table, *Rename, *Selection, *Projection and *Join.
type Node interface {
	// Op returns the operator symbol, or "table" for leaves.
	Op() string
	algebraNode()
}

// Table is a base relation.
type Table struct {
	Name string
}

// Rename binds an alias to its child, which is always a *Table.
type Rename struct {
	Alias string
	Child Node
}

// Selection filters rows of its child by Predicate.
type Selection struct {
	Predicate string
	Child     Node
}

// Projection restricts its child to the Columns list.
type Projection struct {
	Columns string
	Child   Node
}

// JoinAlgorithm is the execution strategy annotated on a join.
type JoinAlgorithm string

// Join algorithms. AlgorithmNone means the join has not been annotated yet.
const (
	AlgorithmNone JoinAlgorithm = ""
	HashJoin      JoinAlgorithm = "hash_join"
	NestedLoop    JoinAlgorithm = "nested_loop"
)

// Join combines Left and Right under Condition. An empty Condition is a
// cross join.
type Join struct {
	Condition string
	Left      Node
	Right     Node
	Algorithm JoinAlgorithm
}

func (*Table) algebraNode()      {}
func (*Rename) algebraNode()     {}
func (*Selection) algebraNode()  {}
func (*Projection) algebraNode() {}
func (*Join) algebraNode()       {}

// Op implements Node.
func (*Table) Op() string { return "table" }

// Op implements Node.
func (*Rename) Op() string { return SymRename }

// Op implements Node.
func (*Selection) Op() string { return SymSelection }

// Op implements Node.
func (*Projection) Op() string { return SymProjection }

// Op implements Node.
func (*Join) Op() string { return SymJoin }

// Children returns the direct children of n in left-to-right order.
func Children(n Node) []Node {
	switch n := n.(type) {
	case *Table:
		return nil
	case *Rename:
		return []Node{n.Child}
	case *Selection:
		return []Node{n.Child}
	case *Projection:
		return []Node{n.Child}
	case *Join:
		return []Node{n.Left, n.Right}
	default:
		panic(fmt.Sprintf("algebra: unexpected node type %T", n))
	}
}

// Walk traverses the tree in pre-order. If fn returns false the children
// of that node are skipped.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}

// Count returns the number of nodes in the tree.
func Count(n Node) int {
	count := 0
	Walk(n, func(Node) bool {
		count++
		return true
	})
	return count
}

// Clone returns a deep copy of the tree.
func Clone(n Node) Node {
	switch n := n.(type) {
	case nil:
		return nil
	case *Table:
		return &Table{Name: n.Name}
	case *Rename:
		return &Rename{Alias: n.Alias, Child: Clone(n.Child)}
	case *Selection:
		return &Selection{Predicate: n.Predicate, Child: Clone(n.Child)}
	case *Projection:
		return &Projection{Columns: n.Columns, Child: Clone(n.Child)}
	case *Join:
		return &Join{
			Condition: n.Condition,
			Left:      Clone(n.Left),
			Right:     Clone(n.Right),
			Algorithm: n.Algorithm,
		}
	default:
		panic(fmt.Sprintf("algebra: unexpected node type %T", n))
	}
}

// Equal reports whether two trees have the same shape and payloads.
func Equal(a, b Node) bool {
	switch a := a.(type) {
	case nil:
		return b == nil
	case *Table:
		b, ok := b.(*Table)
		return ok && a.Name == b.Name
	case *Rename:
		b, ok := b.(*Rename)
		return ok && a.Alias == b.Alias && Equal(a.Child, b.Child)
	case *Selection:
		b, ok := b.(*Selection)
		return ok && a.Predicate == b.Predicate && Equal(a.Child, b.Child)
	case *Projection:
		b, ok := b.(*Projection)
		return ok && a.Columns == b.Columns && Equal(a.Child, b.Child)
	case *Join:
		b, ok := b.(*Join)
		return ok && a.Condition == b.Condition && a.Algorithm == b.Algorithm &&
			Equal(a.Left, b.Left) && Equal(a.Right, b.Right)
	default:
		panic(fmt.Sprintf("algebra: unexpected node type %T", a))
	}
}

// Transform returns a new tree built bottom-up: children are transformed
// first, then fn is applied to a shallow copy of each node holding the new
// children. The input tree is not modified.
func Transform(n Node, fn func(Node) Node) Node {
	var out Node
	switch n := n.(type) {
	case nil:
		return nil
	case *Table:
		out = &Table{Name: n.Name}
	case *Rename:
		out = &Rename{Alias: n.Alias, Child: Transform(n.Child, fn)}
	case *Selection:
		out = &Selection{Predicate: n.Predicate, Child: Transform(n.Child, fn)}
	case *Projection:
		out = &Projection{Columns: n.Columns, Child: Transform(n.Child, fn)}
	case *Join:
		out = &Join{
			Condition: n.Condition,
			Left:      Transform(n.Left, fn),
			Right:     Transform(n.Right, fn),
			Algorithm: n.Algorithm,
		}
	default:
		panic(fmt.Sprintf("algebra: unexpected node type %T", n))
	}
	return fn(out)
}
