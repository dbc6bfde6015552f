package optimizer

import (
	"github.com/leapstack-labs/relalg/pkg/algebra"
	"github.com/leapstack-labs/relalg/pkg/core"
)

// Subtree is the unit of join reordering: a relation, possibly filtered,
// that takes part in a chain of joins.
type Subtree struct {
	Node       algebra.Node
	Relations  []algebra.Relation
	Selections int  // Selection nodes inside Node
	EquiJoined bool // takes part in at least one cross-table equality condition
}

// Estimator assigns a relative weight to a subtree. Lower weights are
// joined first.
type Estimator interface {
	Estimate(s Subtree) float64
}

// EstimatorFunc adapts a function to the Estimator interface.
type EstimatorFunc func(s Subtree) float64

// Estimate implements Estimator.
func (f EstimatorFunc) Estimate(s Subtree) float64 { return f(s) }

// HeuristicEstimator weighs a subtree by its number of distinct tables,
// halved for every Selection it carries and halved again when it takes
// part in an equality join.
type HeuristicEstimator struct{}

// Estimate implements Estimator.
func (HeuristicEstimator) Estimate(s Subtree) float64 {
	seen := make(map[string]bool)
	for _, r := range s.Relations {
		seen[core.FoldIdent(r.Table)] = true
	}
	w := float64(len(seen))
	for range s.Selections {
		w /= 2
	}
	if s.EquiJoined {
		w /= 2
	}
	return w
}

func countSelections(n algebra.Node) int {
	count := 0
	algebra.Walk(n, func(n algebra.Node) bool {
		if _, ok := n.(*algebra.Selection); ok {
			count++
		}
		return true
	})
	return count
}
