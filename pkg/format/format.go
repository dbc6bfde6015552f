// Package format renders relational-algebra trees as text: a linear
// expression, an indented tree and a step-by-step execution plan.
package format

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/relalg/pkg/algebra"
)

// SymCross marks a join without a condition.
const SymCross = "×"

// Expression flattens n into standard relational-algebra notation, e.g.
//
//	π (c.Nome) (σ (c.idade > 30) (ρ c (Cliente)))
//
// Joins are written infix, with nested joins parenthesized. A join that
// carries an algorithm shows it in brackets after the operator.
func Expression(n algebra.Node) string {
	var sb strings.Builder
	writeExpr(&sb, n)
	return sb.String()
}

func writeExpr(sb *strings.Builder, n algebra.Node) {
	switch n := n.(type) {
	case *algebra.Table:
		sb.WriteString(n.Name)
	case *algebra.Rename:
		fmt.Fprintf(sb, "%s %s (", algebra.SymRename, n.Alias)
		writeExpr(sb, n.Child)
		sb.WriteByte(')')
	case *algebra.Selection:
		fmt.Fprintf(sb, "%s (%s) (", algebra.SymSelection, predicate(n.Predicate))
		writeExpr(sb, n.Child)
		sb.WriteByte(')')
	case *algebra.Projection:
		fmt.Fprintf(sb, "%s (%s) (", algebra.SymProjection, n.Columns)
		writeExpr(sb, n.Child)
		sb.WriteByte(')')
	case *algebra.Join:
		writeOperand(sb, n.Left)
		sb.WriteByte(' ')
		sb.WriteString(joinOp(n))
		sb.WriteByte(' ')
		writeOperand(sb, n.Right)
	default:
		panic(fmt.Sprintf("format: unexpected node type %T", n))
	}
}

func writeOperand(sb *strings.Builder, n algebra.Node) {
	if _, ok := n.(*algebra.Join); ok {
		sb.WriteByte('(')
		writeExpr(sb, n)
		sb.WriteByte(')')
		return
	}
	writeExpr(sb, n)
}

// joinOp renders the operator of j with its algorithm and condition.
func joinOp(j *algebra.Join) string {
	op := algebra.SymJoin
	if j.Condition == "" {
		op = SymCross
	}
	if j.Algorithm != algebra.AlgorithmNone {
		op += "[" + string(j.Algorithm) + "]"
	}
	if j.Condition != "" {
		op += " (" + predicate(j.Condition) + ")"
	}
	return op
}
