// Package costmodel lets users replace the join-reordering weights with a
// Starlark script. The script defines
//
//	def estimate(subtree):
//	    return len(subtree.tables) * 10 - subtree.selections
//
// and is called once per subtree of a join chain. subtree carries
// tables, relations (structs with table and alias), selections,
// equi_joined and heuristic (the built-in weight). The predeclared
// columns(table) returns the catalog's column count for table, or None.
package costmodel

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/relalg/pkg/core"
	"github.com/leapstack-labs/relalg/pkg/optimizer"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

const (
	entryPoint      = "estimate"
	defaultMaxSteps = 1_000_000
)

// Estimator is an optimizer.Estimator backed by a Starlark script. It is
// safe for concurrent use: the script's globals are frozen after loading
// and every call runs on its own pooled thread.
type Estimator struct {
	name     string
	fn       starlark.Callable
	pool     *ThreadPool
	fallback optimizer.Estimator
	maxSteps uint64
	logger   *slog.Logger
}

// Option configures an Estimator.
type Option func(*options)

type options struct {
	catalog  core.Catalog
	fallback optimizer.Estimator
	logger   *slog.Logger
	poolSize int
	maxSteps uint64
}

// WithCatalog makes columns(table) answer from cat.
func WithCatalog(cat core.Catalog) Option {
	return func(o *options) { o.catalog = cat }
}

// WithFallback sets the estimator used when the script fails.
// Defaults to optimizer.HeuristicEstimator.
func WithFallback(e optimizer.Estimator) Option {
	return func(o *options) { o.fallback = e }
}

// WithLogger sets the logger that receives script failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithPoolSize bounds the number of idle threads kept for reuse.
func WithPoolSize(n int) Option {
	return func(o *options) { o.poolSize = n }
}

// WithMaxSteps bounds the Starlark steps a single estimate may take.
func WithMaxSteps(n uint64) Option {
	return func(o *options) { o.maxSteps = n }
}

// Load compiles the script at path.
func Load(path string, opts ...Option) (*Estimator, error) {
	src, err := os.ReadFile(path) //nolint:gosec // path is user-provided by design
	if err != nil {
		return nil, fmt.Errorf("failed to read cost script: %w", err)
	}
	return Compile(path, string(src), opts...)
}

// Compile executes src and binds its estimate function.
func Compile(name, src string, opts ...Option) (*Estimator, error) {
	o := options{
		fallback: optimizer.HeuristicEstimator{},
		maxSteps: defaultMaxSteps,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	predeclared := starlark.StringDict{
		"columns": columnsBuiltin(o.catalog),
	}
	thread := &starlark.Thread{Name: name, Print: func(*starlark.Thread, string) {}}
	thread.SetMaxExecutionSteps(o.maxSteps)

	globals, err := starlark.ExecFileOptions(&syntax.FileOptions{}, thread, name, src, predeclared)
	if err != nil {
		return nil, &ScriptError{File: name, Message: err.Error()}
	}
	globals.Freeze()

	v, ok := globals[entryPoint]
	if !ok {
		return nil, &ScriptError{File: name, Message: "script does not define estimate(subtree)"}
	}
	fn, ok := v.(starlark.Callable)
	if !ok {
		return nil, &ScriptError{File: name, Message: fmt.Sprintf("estimate is a %s, not a function", v.Type())}
	}

	return &Estimator{
		name:     name,
		fn:       fn,
		pool:     NewThreadPool(o.poolSize),
		fallback: o.fallback,
		maxSteps: o.maxSteps,
		logger:   o.logger,
	}, nil
}

// Estimate implements optimizer.Estimator. A failing script call is logged
// and answered by the fallback estimator.
func (e *Estimator) Estimate(s optimizer.Subtree) float64 {
	w, err := e.Eval(s)
	if err != nil {
		e.logger.Warn("cost script failed, using fallback weight", "script", e.name, "error", err)
		return e.fallback.Estimate(s)
	}
	return w
}

// Eval calls the script's estimate function for s.
func (e *Estimator) Eval(s optimizer.Subtree) (float64, error) {
	thread := e.pool.Get(e.name)
	defer e.pool.Put(thread)
	thread.Uncancel()
	thread.SetMaxExecutionSteps(thread.ExecutionSteps() + e.maxSteps)

	arg := subtreeToStarlark(s, e.fallback.Estimate(s))
	v, err := starlark.Call(thread, e.fn, starlark.Tuple{arg}, nil)
	if err != nil {
		return 0, &ScriptError{File: e.name, Message: err.Error()}
	}
	w, err := toWeight(v)
	if err != nil {
		return 0, &ScriptError{File: e.name, Message: err.Error()}
	}
	return w, nil
}

// ScriptError reports a cost script that failed to load or run.
type ScriptError struct {
	File    string
	Message string
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

var _ optimizer.Estimator = (*Estimator)(nil)
