package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/relalg/internal/cli/output"
	"github.com/leapstack-labs/relalg/internal/engine"
	"github.com/leapstack-labs/relalg/internal/state"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show previously translated queries",
		Long: `List recorded runs, newest first, or show one run in full.

Runs are recorded when history is enabled (--history or history: true in
relalg.yaml) and are kept in the state database.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContextWithoutEngine(cmd)
			store, err := engine.OpenHistory(cmdCtx.Cfg.StatePath, cmdCtx.Logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if len(args) == 1 {
				run, err := findRun(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				return showRun(cmdCtx.Renderer, run)
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return listRuns(cmdCtx.Renderer, runs)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list")
	return cmd
}

// findRun looks a run up by its full ID or by a unique ID prefix.
func findRun(ctx context.Context, store *state.Store, id string) (*state.Run, error) {
	run, err := store.GetRun(ctx, id)
	if !errors.Is(err, state.ErrRunNotFound) {
		return run, err
	}

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		return nil, err
	}
	var match *state.Run
	for _, r := range runs {
		if !strings.HasPrefix(r.ID, id) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("run ID prefix %q is ambiguous", id)
		}
		match = r
	}
	if match == nil {
		return nil, fmt.Errorf("run %q not found", id)
	}
	return match, nil
}

func listRuns(r *output.Renderer, runs []*state.Run) error {
	if r.EffectiveMode() == output.ModeJSON {
		if runs == nil {
			runs = []*state.Run{}
		}
		return r.JSON(output.HistoryOutput{Runs: runs})
	}

	r.Header(1, fmt.Sprintf("History (%d runs)", len(runs)))
	if len(runs) == 0 {
		r.Muted("No runs recorded. Enable history with --history.")
		return nil
	}
	rows := make([][]string, len(runs))
	for i, run := range runs {
		status := "ok"
		if !run.OK {
			status = run.ErrorKind
		}
		rows[i] = []string{
			shortID(run.ID),
			run.CreatedAt.Local().Format(time.DateTime),
			status,
			truncate(run.Query, 60),
		}
	}
	r.Table([]string{"ID", "When", "Status", "Query"}, rows)
	return nil
}

func showRun(r *output.Renderer, run *state.Run) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(run)
	}

	r.Header(1, "Run "+run.ID)
	r.KeyValue("When", run.CreatedAt.Local().Format(time.DateTime))
	r.KeyValue("Duration", run.Duration.String())
	r.KeyValue("Query", run.Query)
	r.Println("")

	if !run.OK {
		r.StatusLine("Rejected ("+run.ErrorKind+")", "failed", "")
		r.CodeBlock("text", run.Message)
		return nil
	}

	r.Header(2, "Relational Algebra")
	r.Label("Unoptimized")
	r.CodeBlock("text", run.Expression)
	r.Label("Optimized")
	r.CodeBlock("text", run.OptimizedExpression)
	r.Println("")

	if len(run.Trace) > 0 {
		r.Header(2, "Optimization Trace")
		for _, line := range run.Trace {
			r.Println("- " + line)
		}
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}
