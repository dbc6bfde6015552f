package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/relalg/pkg/algebra"
)

// Step kinds of an execution plan.
const (
	StepScan       = "SCAN"
	StepRename     = "RENAME"
	StepSelection  = "SELECTION"
	StepJoin       = "JOIN"
	StepProjection = "PROJECTION"
)

// Step is one operation of an execution plan. Inputs are the IDs of the
// steps whose output it consumes.
type Step struct {
	ID     int    `json:"id"`
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
	Inputs []int  `json:"inputs,omitempty"`
}

func (s Step) String() string {
	out := fmt.Sprintf("%d. %s %s", s.ID, s.Kind, s.Detail)
	if len(s.Inputs) > 0 {
		ids := make([]string, len(s.Inputs))
		for i, id := range s.Inputs {
			ids[i] = strconv.Itoa(id)
		}
		out += " <- " + strings.Join(ids, ", ")
	}
	return out
}

// Steps lists the operations of n in execution order: every input is
// produced before the step that reads it. An aliased table is a single
// scan.
func Steps(n algebra.Node) []Step {
	var ids IDAllocator
	var steps []Step
	planSteps(n, &ids, &steps)
	return steps
}

func planSteps(n algebra.Node, ids *IDAllocator, steps *[]Step) int {
	var step Step
	switch n := n.(type) {
	case *algebra.Table:
		step = Step{Kind: StepScan, Detail: n.Name}
	case *algebra.Rename:
		if t, ok := n.Child.(*algebra.Table); ok {
			step = Step{Kind: StepScan, Detail: t.Name + " AS " + n.Alias}
			break
		}
		in := planSteps(n.Child, ids, steps)
		step = Step{Kind: StepRename, Detail: label(n), Inputs: []int{in}}
	case *algebra.Selection:
		in := planSteps(n.Child, ids, steps)
		step = Step{Kind: StepSelection, Detail: label(n), Inputs: []int{in}}
	case *algebra.Projection:
		in := planSteps(n.Child, ids, steps)
		step = Step{Kind: StepProjection, Detail: label(n), Inputs: []int{in}}
	case *algebra.Join:
		left := planSteps(n.Left, ids, steps)
		right := planSteps(n.Right, ids, steps)
		step = Step{Kind: StepJoin, Detail: joinOp(n), Inputs: []int{left, right}}
	default:
		panic(fmt.Sprintf("format: unexpected node type %T", n))
	}
	step.ID = ids.Next()
	*steps = append(*steps, step)
	return step.ID
}

// Plan renders the steps of n as a numbered list.
func Plan(n algebra.Node) string {
	p := newPrinter()
	for _, s := range Steps(n) {
		p.line(s.String())
	}
	return p.String()
}
