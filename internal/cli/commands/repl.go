package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/relalg/internal/cli/output"
	"github.com/leapstack-labs/relalg/internal/engine"
	"github.com/leapstack-labs/relalg/pkg/core"
)

const (
	replPrompt     = "relalg> "
	replContPrompt = "   ...> "
)

// lineReader is the part of *readline.Instance the REPL loop uses.
type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Translate queries interactively",
		Long: `Start an interactive session. Each query, terminated by a semicolon,
is validated, translated and optimized; the algebra expressions and the
execution plan are printed after it.

Type .help for the available commands.`,
		Args: cobra.NoArgs,
		RunE: runREPL,
	}
}

func runREPL(cmd *cobra.Command, _ []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	// Setup history file (project-local)
	historyFile := filepath.Join(filepath.Dir(cmdCtx.Cfg.StatePath), "repl_history")
	if err := os.MkdirAll(filepath.Dir(historyFile), 0o750); err != nil {
		cmdCtx.Logger.Debug("REPL history disabled", "error", err)
		historyFile = ""
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newREPLCompleter(cmdCtx.Setup.Catalog),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	catalogInfo := "no catalog"
	if cmdCtx.Setup.Catalog != nil {
		catalogInfo = fmt.Sprintf("%d tables from %s", len(cmdCtx.Setup.Catalog), cmdCtx.Cfg.Catalog.Source)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "relalg REPL (%s)\n", catalogInfo)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	s := &replSession{
		engine:   cmdCtx.Engine(),
		catalog:  cmdCtx.Setup.Catalog,
		renderer: cmdCtx.Renderer,
		out:      cmd.OutOrStdout(),
		errOut:   cmd.ErrOrStderr(),
		show:     []string{SectionAlgebra, SectionPlan},
	}
	return s.loop(cmd.Context(), rl)
}

type replSession struct {
	engine   *engine.Engine
	catalog  core.MapCatalog
	renderer *output.Renderer
	out      io.Writer
	errOut   io.Writer
	show     []string
}

func (s *replSession) loop(ctx context.Context, rl lineReader) error {
	var multiLineBuffer strings.Builder
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			multiLineBuffer.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Dot-commands are only recognized at the start of a statement
		if multiLineBuffer.Len() == 0 && strings.HasPrefix(line, ".") {
			if quit := s.handleDotCommand(line); quit {
				return nil
			}
			continue
		}

		// Accumulate multi-line SQL until semicolon
		multiLineBuffer.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			multiLineBuffer.WriteString(" ")
			rl.SetPrompt(replContPrompt)
			continue
		}
		rl.SetPrompt(replPrompt)

		query := strings.TrimSpace(strings.TrimSuffix(multiLineBuffer.String(), ";"))
		multiLineBuffer.Reset()
		s.translate(ctx, query)
		_, _ = fmt.Fprintln(s.out)
	}
}

func (s *replSession) translate(ctx context.Context, query string) {
	res, err := s.engine.Process(ctx, query)
	if err != nil {
		_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
		return
	}
	renderResult(s.renderer, res, s.show)
}

// handleDotCommand runs a dot-command and reports whether the session
// should end.
func (s *replSession) handleDotCommand(line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(s.out)

	case ".tables":
		s.listTables()

	case ".schema":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(s.errOut, "Usage: .schema <table>")
			return false
		}
		s.showSchema(parts[1])

	case ".show":
		if len(parts) < 2 {
			_, _ = fmt.Fprintf(s.out, "Showing: %s\n", strings.Join(s.show, ", "))
			return false
		}
		sections := strings.Split(strings.Join(parts[1:], ","), ",")
		var show []string
		for _, sec := range sections {
			sec = strings.TrimSpace(strings.ToLower(sec))
			if sec == "" {
				continue
			}
			if sec == "all" {
				show = slices.Clone(allSections)
				break
			}
			if !slices.Contains(allSections, sec) {
				_, _ = fmt.Fprintf(s.errOut, "Unknown section: %s (one of %s, all)\n", sec, strings.Join(allSections, ", "))
				return false
			}
			show = append(show, sec)
		}
		s.show = show
		_, _ = fmt.Fprintf(s.out, "Showing: %s\n", strings.Join(s.show, ", "))

	case ".clear":
		_, _ = fmt.Fprint(s.out, "\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(s.errOut, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func (s *replSession) listTables() {
	if s.catalog == nil {
		_, _ = fmt.Fprintln(s.errOut, "No catalog configured")
		return
	}
	rows := make([][]string, 0, len(s.catalog))
	for _, name := range s.catalog.Tables() {
		rows = append(rows, []string{name, fmt.Sprint(len(s.catalog[name]))})
	}
	s.renderer.Table([]string{"Table", "Columns"}, rows)
}

func (s *replSession) showSchema(table string) {
	if s.catalog == nil {
		_, _ = fmt.Fprintln(s.errOut, "No catalog configured")
		return
	}
	cols, ok := s.catalog.Lookup(table)
	if !ok {
		_, _ = fmt.Fprintf(s.errOut, "Unknown table: %s\n", table)
		return
	}
	rows := make([][]string, len(cols))
	for i, c := range cols {
		rows[i] = []string{c.Name, c.Type}
	}
	s.renderer.Table([]string{"Column", "Type"}, rows)
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help              Show this help message
  .tables            List catalog tables
  .schema <table>    Show the columns of a table
  .show <sections>   Choose output: algebra, tree, plan, trace, columns, all
  .clear             Clear the screen
  .quit / .exit      Exit the REPL

Tips:
  - Queries must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completion works for table names
`
	_, _ = fmt.Fprintln(w, help)
}

// newREPLCompleter creates a readline completer for keywords, table
// names and dot-commands.
func newREPLCompleter(cat core.MapCatalog) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, kw := range []string{"SELECT", "FROM", "WHERE", "INNER JOIN", "JOIN", "ON", "AND", "OR"} {
		items = append(items, readline.PcItem(kw))
	}

	tables := make([]readline.PrefixCompleterInterface, 0, len(cat))
	for _, name := range cat.Tables() {
		tables = append(tables, readline.PcItem(name))
		items = append(items, readline.PcItem(name))
	}

	sections := make([]readline.PrefixCompleterInterface, 0, len(allSections)+1)
	for _, sec := range append(slices.Clone(allSections), "all") {
		sections = append(sections, readline.PcItem(sec))
	}

	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".schema", tables...),
		readline.PcItem(".show", sections...),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
	return readline.NewPrefixCompleter(items...)
}
