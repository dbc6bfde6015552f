// Package engine runs the translation pipeline: clause extraction, FROM
// resolution, validation, tree construction, optimization and rendering.
//
// Validation gates everything after it. A query that fails validation
// produces an error and no tree; a query that passes is always built and
// optimized.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/relalg/internal/state"
	"github.com/leapstack-labs/relalg/pkg/algebra"
	"github.com/leapstack-labs/relalg/pkg/core"
	"github.com/leapstack-labs/relalg/pkg/format"
	"github.com/leapstack-labs/relalg/pkg/optimizer"
	"github.com/leapstack-labs/relalg/pkg/parser"
	"github.com/leapstack-labs/relalg/pkg/validate"
)

// Config holds engine configuration.
type Config struct {
	// Catalog is consulted by the schema rules. Nil skips them.
	Catalog core.Catalog
	// Rules selects the validation rules; nil enables all of them.
	Rules *validate.Config
	// Estimator weighs subtrees for join reordering (optional)
	Estimator optimizer.Estimator
	// UseCatalog lets the optimizer attribute unqualified columns
	UseCatalog bool
	// History records every run when set (optional)
	History *state.Store
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Engine runs the pipeline. It holds no per-query state and is safe for
// concurrent use.
type Engine struct {
	cfg       Config
	validator *validate.Validator
	optimizer *optimizer.Optimizer
	logger    *slog.Logger
}

// Result is the outcome of a successful run.
type Result struct {
	Query     string             `json:"query"`
	Parsed    *core.Query        `json:"-"`
	Tree      algebra.Node       `json:"-"`
	Optimized algebra.Node       `json:"-"`
	Relations []algebra.Relation `json:"relations"`
	Log       optimizer.Log      `json:"trace"`
	Duration  time.Duration      `json:"duration"`

	// RequiredColumns is what each relation must deliver after
	// required-column propagation.
	RequiredColumns *optimizer.Requirements `json:"required_columns"`

	Expression          string        `json:"expression"`
	OptimizedExpression string        `json:"optimized_expression"`
	Steps               []format.Step `json:"steps"`
	OptimizedSteps      []format.Step `json:"optimized_steps"`
}

// New creates an engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cfg.Logger = logger

	optCfg := optimizer.Config{
		Estimator: cfg.Estimator,
		Logger:    logger.With("component", "optimizer"),
	}
	if cfg.UseCatalog {
		optCfg.Catalog = cfg.Catalog
	}

	return &Engine{
		cfg:       cfg,
		validator: validate.New(cfg.Catalog, cfg.Rules),
		optimizer: optimizer.New(optCfg),
		logger:    logger,
	}
}

// WithCatalog returns an engine identical to e but validating against cat.
func (e *Engine) WithCatalog(cat core.Catalog) *Engine {
	cfg := e.cfg
	cfg.Catalog = cat
	return New(cfg)
}

// Catalog returns the catalog the engine validates against, or nil.
func (e *Engine) Catalog() core.Catalog {
	return e.cfg.Catalog
}

// Process translates query. Errors from the front half of the pipeline
// are *core.SyntaxError, *core.SchemaError or *core.AmbiguityError.
func (e *Engine) Process(ctx context.Context, query string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	res, err := e.run(query)
	elapsed := time.Since(start)

	if err != nil {
		e.logger.Debug("query rejected", "kind", core.Kind(err).String(), "error", err)
	} else {
		res.Duration = elapsed
		e.logger.Debug("query translated",
			"relations", len(res.Relations),
			"decisions", len(res.Log),
			"duration", elapsed)
	}

	if e.cfg.History != nil {
		if herr := e.record(ctx, query, res, err, elapsed); herr != nil {
			e.logger.Warn("failed to record run", "error", herr)
		}
	}
	return res, err
}

func (e *Engine) run(query string) (*Result, error) {
	q, err := e.Parse(query)
	if err != nil {
		return nil, err
	}
	if err := e.validator.Validate(q); err != nil {
		return nil, err
	}

	tree := algebra.Build(q)
	opt := e.optimizer.Optimize(tree)

	return &Result{
		Query:               query,
		Parsed:              q,
		Tree:                tree,
		Optimized:           opt.Tree,
		Log:                 opt.Log,
		RequiredColumns:     opt.Requirements,
		Relations:           algebra.Relations(tree),
		Expression:          format.Expression(tree),
		OptimizedExpression: format.Expression(opt.Tree),
		Steps:               format.Steps(tree),
		OptimizedSteps:      format.Steps(opt.Tree),
	}, nil
}

// Parse runs clause extraction and FROM resolution. When the text cannot
// be parsed, the syntax rules are consulted first so the error names the
// offending construct rather than the point where parsing gave up.
func (e *Engine) Parse(query string) (*core.Query, error) {
	q, err := parser.Parse(query)
	if err == nil {
		return q, nil
	}
	if derr := e.validator.Diagnose(query); derr != nil {
		return nil, derr
	}
	return nil, err
}

// Validate parses and validates query without building a tree.
func (e *Engine) Validate(query string) error {
	q, err := e.Parse(query)
	if err != nil {
		return err
	}
	return e.validator.Validate(q)
}

// Check validates query. It reports (true, "") for a valid query and
// (false, message) otherwise.
func (e *Engine) Check(query string) (bool, string) {
	if err := e.Validate(query); err != nil {
		return false, err.Error()
	}
	return true, ""
}

// ErrorKind is a convenience wrapper around core.Kind.
func ErrorKind(err error) string {
	return core.Kind(err).String()
}

// IsQueryError reports whether err is a rejection of the query itself,
// as opposed to a failure of the surrounding machinery.
func IsQueryError(err error) bool {
	return core.Kind(err) != core.KindUnknown
}

func (e *Engine) record(ctx context.Context, query string, res *Result, err error, elapsed time.Duration) error {
	run := &state.Run{
		Query:    query,
		OK:       err == nil,
		Duration: elapsed,
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		run.ErrorKind = ErrorKind(err)
		run.Message = err.Error()
	} else {
		run.Expression = res.Expression
		run.OptimizedExpression = res.OptimizedExpression
		run.Trace = res.Log.Lines()
	}
	if rerr := e.cfg.History.RecordRun(ctx, run); rerr != nil {
		return fmt.Errorf("record run: %w", rerr)
	}
	return nil
}
