// Package optimizer rewrites relational-algebra trees with four heuristic
// passes, applied in order:
//
//  1. selection push-down
//  2. projection push-down (required-column propagation)
//  3. greedy join reordering
//  4. join algorithm annotation
//
// The input tree is never modified. Every pass builds a new tree and
// reports its decisions as Log entries.
package optimizer

import (
	"log/slog"

	"github.com/leapstack-labs/relalg/pkg/algebra"
	"github.com/leapstack-labs/relalg/pkg/core"
)

// Pass is one rewrite step.
type Pass interface {
	Name() string
	Apply(tree algebra.Node) (algebra.Node, []Entry)
}

// Config configures an Optimizer.
type Config struct {
	// Catalog lets the passes attribute unqualified columns to the one
	// relation that has them. Optional.
	Catalog core.Catalog

	// Estimator weighs subtrees for join reordering.
	// Defaults to HeuristicEstimator.
	Estimator Estimator

	// Logger receives pass boundaries at debug level. Optional.
	Logger *slog.Logger
}

// Optimizer runs the passes. It holds no per-call state and is safe for
// concurrent use.
type Optimizer struct {
	pushdown   *SelectionPushdown
	projection *ProjectionPushdown
	passes     []Pass
	logger     *slog.Logger
}

// Result is the outcome of Optimize.
type Result struct {
	Tree         algebra.Node
	Log          Log
	Requirements *Requirements
}

// New creates an optimizer.
func New(cfg Config) *Optimizer {
	if cfg.Estimator == nil {
		cfg.Estimator = HeuristicEstimator{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	r := resolver{catalog: cfg.Catalog}

	o := &Optimizer{
		pushdown:   &SelectionPushdown{resolver: r},
		projection: &ProjectionPushdown{resolver: r},
		logger:     cfg.Logger,
	}
	o.passes = []Pass{
		o.pushdown,
		o.projection,
		&JoinReordering{resolver: r, estimator: cfg.Estimator},
		JoinAlgorithm{},
	}
	return o
}

// Passes returns the passes in the order Optimize applies them.
func (o *Optimizer) Passes() []Pass {
	return append([]Pass(nil), o.passes...)
}

// Optimize deep-copies tree and runs every pass over the copy.
func (o *Optimizer) Optimize(tree algebra.Node) *Result {
	res := &Result{Tree: algebra.Clone(tree)}
	for _, p := range o.passes {
		var entries []Entry
		res.Tree, entries = p.Apply(res.Tree)
		res.Log = append(res.Log, entries...)
		if p == Pass(o.projection) {
			res.Requirements = o.projection.Requirements(res.Tree)
		}
		o.logger.Debug("optimizer pass done", "pass", p.Name(), "entries", len(entries), "nodes", algebra.Count(res.Tree))
	}
	return res
}

// PushSelections runs only the selection push-down pass.
func (o *Optimizer) PushSelections(tree algebra.Node) (algebra.Node, []Entry) {
	return o.pushdown.Apply(tree)
}
