package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/relalg/internal/cli/output"
	"github.com/leapstack-labs/relalg/internal/config"
	"github.com/leapstack-labs/relalg/internal/engine"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Setup    *engine.Setup
	Renderer *output.Renderer
}

// Engine returns the configured engine.
func (c *CommandContext) Engine() *engine.Engine {
	return c.Setup.Engine
}

// NewCommandContext creates a CommandContext with an engine built from the
// configuration. The returned cleanup function must be called (typically
// via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cmdCtx := NewCommandContextWithoutEngine(cmd)

	setup, err := engine.FromConfig(cmd.Context(), cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return nil, nil, err
	}
	cmdCtx.Setup = setup

	cleanup := func() {
		if err := setup.Close(); err != nil {
			cmdCtx.Logger.Warn("failed to close history store", "error", err)
		}
	}
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that only read configuration.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := config.GetConfig(cmd.Context())
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output)),
	}
}

var errNoQuery = errors.New("no query given\nHint: Pass the query as an argument, with --file, or on stdin")

// readQueryInput returns the query from args, the file flag or stdin, in
// that order.
func readQueryInput(cmd *cobra.Command, args []string, file string) (string, error) {
	var query string
	switch {
	case len(args) > 0:
		query = strings.Join(args, " ")
	case file != "":
		data, err := os.ReadFile(file) //nolint:gosec // path is user-provided by design
		if err != nil {
			return "", fmt.Errorf("failed to read query file: %w", err)
		}
		query = string(data)
	case !isInteractive(cmd.InOrStdin()):
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		query = string(data)
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return "", errNoQuery
	}
	return query, nil
}

// isInteractive reports whether r is a terminal waiting for keyboard input.
func isInteractive(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// splitQueries splits a script into statements. Statements end with a
// semicolon or a blank line; lines starting with -- are comments.
func splitQueries(r io.Reader) ([]string, error) {
	var (
		queries []string
		current strings.Builder
	)
	flush := func() {
		if q := strings.TrimSpace(current.String()); q != "" {
			queries = append(queries, q)
		}
		current.Reset()
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "--"):
		case strings.HasSuffix(line, ";"):
			current.WriteString(strings.TrimSuffix(line, ";"))
			flush()
		default:
			current.WriteString(line)
			current.WriteString(" ")
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read queries: %w", err)
	}
	flush()
	return queries, nil
}
