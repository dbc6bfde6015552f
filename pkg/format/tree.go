package format

import (
	"fmt"

	"github.com/leapstack-labs/relalg/pkg/algebra"
)

var legend = []struct {
	sym, text string
}{
	{algebra.SymProjection, "projection: the SELECT column list"},
	{algebra.SymSelection, "selection: rows kept by a WHERE condition"},
	{algebra.SymRename, "rename: a table known by its alias"},
	{algebra.SymJoin, "join: INNER JOIN ... ON"},
	{SymCross, "cross join: a join without a condition"},
}

// Tree renders n one operator per line, children indented below their
// parent, followed by a legend of the operators that appear.
func Tree(n algebra.Node) string {
	p := newPrinter()
	used := make(map[string]bool)
	writeTree(p, n, used)

	p.writeln()
	p.line("Legend:")
	p.indent()
	for _, l := range legend {
		if used[l.sym] {
			p.line(l.sym + "  " + l.text)
		}
	}
	p.dedent()
	return p.String()
}

func writeTree(p *Printer, n algebra.Node, used map[string]bool) {
	p.line(label(n))
	switch n := n.(type) {
	case *algebra.Table:
		return
	case *algebra.Join:
		if n.Condition == "" {
			used[SymCross] = true
		} else {
			used[algebra.SymJoin] = true
		}
	default:
		used[n.Op()] = true
	}

	p.indent()
	for _, c := range algebra.Children(n) {
		writeTree(p, c, used)
	}
	p.dedent()
}

// label is the one-line description of n alone.
func label(n algebra.Node) string {
	switch n := n.(type) {
	case *algebra.Table:
		return n.Name
	case *algebra.Rename:
		return algebra.SymRename + " " + n.Alias
	case *algebra.Selection:
		return algebra.SymSelection + " (" + predicate(n.Predicate) + ")"
	case *algebra.Projection:
		return algebra.SymProjection + " (" + n.Columns + ")"
	case *algebra.Join:
		return joinOp(n)
	default:
		panic(fmt.Sprintf("format: unexpected node type %T", n))
	}
}
