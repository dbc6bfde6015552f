package optimizer

import (
	"fmt"

	"github.com/leapstack-labs/relalg/pkg/algebra"
)

// JoinAlgorithm tags every join with an execution strategy: hash_join
// when its condition equates columns of two different relations,
// nested_loop otherwise. The tree shape is left untouched.
type JoinAlgorithm struct{}

// Name implements Pass.
func (JoinAlgorithm) Name() string { return PassJoinAlgorithm }

// Apply implements Pass.
func (JoinAlgorithm) Apply(tree algebra.Node) (algebra.Node, []Entry) {
	var entries []Entry
	out := algebra.Transform(tree, func(n algebra.Node) algebra.Node {
		j, ok := n.(*algebra.Join)
		if !ok {
			return n
		}
		var reason string
		switch {
		case algebra.IsEquiJoin(j.Condition):
			j.Algorithm = algebra.HashJoin
			reason = "equality between columns of different relations"
		case j.Condition == "":
			j.Algorithm = algebra.NestedLoop
			reason = "cross join has no condition to hash on"
		default:
			j.Algorithm = algebra.NestedLoop
			reason = "no equality between columns of different relations"
		}
		entries = append(entries, Entry{
			Pass:    PassJoinAlgorithm,
			Message: fmt.Sprintf("⨝(%s) uses %s: %s", j.Condition, j.Algorithm, reason),
		})
		return j
	})
	return out, entries
}
