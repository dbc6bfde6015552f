package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/relalg/internal/cli/output"
	"github.com/leapstack-labs/relalg/internal/engine"
)

// BatchOptions holds options for the batch command.
type BatchOptions struct {
	Concurrency int
	Optimized   bool
}

// NewBatchCommand creates the batch command.
func NewBatchCommand() *cobra.Command {
	opts := &BatchOptions{}
	cmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "Translate many queries at once",
		Long: `Translate every query of a script concurrently.

Queries end with a semicolon or a blank line; lines starting with -- are
comments. The script is read from the file argument or from stdin.
Results keep the order of the script. The command fails when any query is
rejected.`,
		Example: `  # Translate a script of queries
  relalg batch queries.sql

  # Limit concurrency and emit JSON
  cat queries.sql | relalg batch -j 2 -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Concurrency, "concurrency", "j", 0, "Maximum queries translated at once (default: number of CPUs)")
	cmd.Flags().BoolVar(&opts.Optimized, "optimized", true, "Show the optimized expression instead of the unoptimized one")
	return cmd
}

func runBatch(cmd *cobra.Command, args []string, opts *BatchOptions) error {
	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0]) //nolint:gosec // path is user-provided by design
		if err != nil {
			return fmt.Errorf("failed to open query file: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	queries, err := splitQueries(in)
	if err != nil {
		return err
	}
	if len(queries) == 0 {
		return errNoQuery
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	r := cmdCtx.Renderer

	items := cmdCtx.Engine().ProcessBatch(cmd.Context(), queries, opts.Concurrency)
	ok, failed := engine.Summary(items)
	cmdCtx.Logger.Debug("batch finished", "total", len(items), "ok", ok, "failed", failed)

	out := output.BatchOutput{
		Results: make([]output.BatchEntry, len(items)),
		Summary: output.BatchSummary{Total: len(items), OK: ok, Failed: failed},
	}
	for i, item := range items {
		entry := output.BatchEntry{Index: item.Index + 1, Query: item.Query, OK: item.OK()}
		if item.OK() {
			entry.Expression = item.Result.Expression
			entry.OptimizedExpression = item.Result.OptimizedExpression
		} else {
			entry.Kind = engine.ErrorKind(item.Err)
			entry.Message = item.Err.Error()
		}
		out.Results[i] = entry
	}

	if r.EffectiveMode() == output.ModeJSON {
		if err := r.JSON(out); err != nil {
			return err
		}
	} else {
		renderBatch(r, out, opts.Optimized)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d queries rejected", failed, len(items))
	}
	return nil
}

func renderBatch(r *output.Renderer, out output.BatchOutput, optimized bool) {
	r.Header(1, fmt.Sprintf("Batch (%d queries)", out.Summary.Total))

	label := "Expression"
	if optimized {
		label = "Optimized"
	}
	rows := make([][]string, len(out.Results))
	for i, e := range out.Results {
		status, detail := "ok", e.Expression
		if optimized {
			detail = e.OptimizedExpression
		}
		if !e.OK {
			status, detail = e.Kind, e.Message
		}
		rows[i] = []string{strconv.Itoa(e.Index), status, e.Query, detail}
	}
	r.Table([]string{"#", "Status", "Query", label}, rows)

	r.Println("")
	if out.Summary.Failed == 0 {
		r.Success(fmt.Sprintf("%d queries translated", out.Summary.OK))
		return
	}
	r.StatusLine(fmt.Sprintf("%d translated", out.Summary.OK), "success", "")
	r.StatusLine(fmt.Sprintf("%d rejected", out.Summary.Failed), "failed", "")
}
