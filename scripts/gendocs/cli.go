package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/relalg/internal/cli"
	"github.com/leapstack-labs/relalg/internal/cli/commands"
	"github.com/leapstack-labs/relalg/internal/config"
	"github.com/leapstack-labs/relalg/pkg/validate"
)

// commandExtras adds command-specific sections after the usage block.
var commandExtras = map[string]func(w *MarkdownWriter){
	"translate": writeSections,
	"repl":      writeSections,
	"validate":  writeRuleSummary,
	"serve":     writeRoutes,
}

// generateCLIDocs writes one page per command, subcommands included, and
// an index page.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	root := cli.NewRootCmd()
	if err := writePage(outDir, "index.md", cliIndex(root)); err != nil {
		return err
	}

	var walk func(cmd *cobra.Command) error
	walk = func(cmd *cobra.Command) error {
		for _, sub := range documented(cmd) {
			if err := writePage(outDir, pageName(sub)+".md", commandPage(sub)); err != nil {
				return fmt.Errorf("failed to generate page for %s: %w", sub.CommandPath(), err)
			}
			if err := walk(sub); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(root)
}

func writePage(outDir, name string, w *MarkdownWriter) error {
	if err := os.WriteFile(filepath.Join(outDir, name), w.Bytes(), 0600); err != nil {
		return err
	}
	log.Printf("  Generated %s", name)
	return nil
}

// documented returns the subcommands of cmd that get a page.
func documented(cmd *cobra.Command) []*cobra.Command {
	var out []*cobra.Command
	for _, sub := range cmd.Commands() {
		if sub.Hidden || sub.Name() == "help" || sub.Name() == "__complete" {
			continue
		}
		out = append(out, sub)
	}
	return out
}

// pageName turns "relalg catalog show" into "catalog-show".
func pageName(cmd *cobra.Command) string {
	path := strings.Fields(cmd.CommandPath())
	return strings.Join(path[1:], "-")
}

func cliIndex(root *cobra.Command) *MarkdownWriter {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line interface reference for relalg")
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph(root.Long)

	w.Header(2, "Installation")
	w.CodeBlock("bash", "go install github.com/leapstack-labs/relalg/cmd/relalg@latest")

	w.Header(2, "Commands")
	var rows [][]string
	var list func(cmd *cobra.Command)
	list = func(cmd *cobra.Command) {
		for _, sub := range documented(cmd) {
			name := strings.TrimPrefix(sub.CommandPath(), root.Name()+" ")
			link := fmt.Sprintf("[%s](/cli/%s)", InlineCode(name), pageName(sub))
			rows = append(rows, []string{link, cleanDescription(sub.Short)})
			list(sub)
		}
	}
	list(root)
	w.Table([]string{"Command", "Description"}, rows)

	w.Header(2, "Global Options")
	writeFlagsTable(w, root.PersistentFlags())

	w.Header(2, "Configuration")
	w.Paragraph("Settings are merged in this order, later sources winning:")
	w.BulletList([]string{
		"built-in defaults",
		InlineCode(config.ConfigFileName) + ", searched upward from the working directory (or " + InlineCode("--config") + ")",
		"environment variables prefixed with " + InlineCode(config.EnvPrefix) + "; " + InlineCode("__") + " separates nested keys",
		"flags given on the command line",
	})
	writeEnvTable(w, root.PersistentFlags())

	w.Header(2, "Exit Codes")
	w.Table([]string{"Code", "Meaning"}, [][]string{
		{InlineCode("0"), "The query was translated or validated"},
		{InlineCode("1"), "The query was rejected, or the command failed (details on stderr)"},
	})
	return w
}

// writeEnvTable lists the environment variable behind each global flag
// that maps to a config key.
func writeEnvTable(w *MarkdownWriter, flags *pflag.FlagSet) {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden || f.Name == "config" {
			return
		}
		key := config.FlagKey(f.Name)
		rows = append(rows, []string{InlineCode(config.EnvVar(key)), InlineCode(key), InlineCode("--" + f.Name)})
	})
	w.Table([]string{"Variable", "Config key", "Flag"}, rows)
}

func commandPage(cmd *cobra.Command) *MarkdownWriter {
	w := NewMarkdownWriter()
	title := strings.TrimPrefix(cmd.CommandPath(), cmd.Root().Name()+" ")
	w.Frontmatter(title, cmd.Short)
	w.GeneratedMarker()

	w.Header(1, title)
	desc := cmd.Long
	if desc == "" {
		desc = cmd.Short
	}
	w.Paragraph(desc)

	w.Header(2, "Usage")
	use := cmd.UseLine()
	if cmd.HasAvailableSubCommands() {
		use = cmd.CommandPath() + " <subcommand> [options]"
	}
	w.CodeBlock("bash", use)

	if subs := documented(cmd); len(subs) > 0 {
		w.Header(2, "Subcommands")
		var rows [][]string
		for _, sub := range subs {
			link := fmt.Sprintf("[%s](/cli/%s)", InlineCode(sub.Name()), pageName(sub))
			rows = append(rows, []string{link, cleanDescription(sub.Short)})
		}
		w.Table([]string{"Subcommand", "Description"}, rows)
	}

	if extra, ok := commandExtras[cmd.Name()]; ok && cmd.Parent() == cmd.Root() {
		extra(w)
	}

	if cmd.HasAvailableLocalFlags() {
		w.Header(2, "Options")
		writeFlagsTable(w, cmd.LocalFlags())
	}
	if cmd.HasAvailableInheritedFlags() {
		w.Paragraph("Global options are listed on the [CLI reference](/cli/) page.")
	}

	if cmd.Example != "" {
		w.Header(2, "Examples")
		w.CodeBlock("bash", dedent(cmd.Example))
	}
	return w
}

// writeFlagsTable writes one row per visible flag.
func writeFlagsTable(w *MarkdownWriter, flags *pflag.FlagSet) {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		name := InlineCode("--" + f.Name)
		if f.Shorthand != "" {
			name = InlineCode("-"+f.Shorthand) + ", " + name
		}
		def := f.DefValue
		if def == "[]" {
			def = ""
		}
		if def != "" {
			def = InlineCode(def)
		}
		rows = append(rows, []string{name, f.Value.Type(), def, cleanDescription(f.Usage)})
	})
	w.Table([]string{"Flag", "Type", "Default", "Description"}, rows)
}

func writeSections(w *MarkdownWriter) {
	w.Header(2, "Output Sections")
	w.Paragraph("Select sections with " + InlineCode("--show") + " in translate or " + InlineCode(".show") + " in the repl.")
	var rows [][]string
	for _, s := range commands.Sections() {
		rows = append(rows, []string{InlineCode(s.Name), s.Description})
	}
	w.Table([]string{"Section", "Content"}, rows)
}

func writeRuleSummary(w *MarkdownWriter) {
	w.Header(2, "Rules")
	w.Paragraph("Rules run in this order and the first failure rejects the query. See the [rule reference](/rules/) for examples.")
	var rows [][]string
	for _, r := range validate.Rules() {
		rows = append(rows, []string{fmt.Sprintf("[%s](/rules/#%s)", r.ID, r.ID), InlineCode(r.Name), r.Group})
	}
	w.Table([]string{"ID", "Name", "Group"}, rows)
}

func writeRoutes(w *MarkdownWriter) {
	w.Header(2, "Routes")
	w.Table([]string{"Route", "Body", "Response"}, [][]string{
		{InlineCode("POST /api/translate"), InlineCode(`{"query": "..."}`), "Translation as JSON; 422 when the query is rejected"},
		{InlineCode("POST /api/validate"), InlineCode(`{"query": "..."}`), InlineCode(`{"ok", "message", "kind"}`)},
		{InlineCode("GET /api/catalog"), "", "Tables and columns the engine validates against"},
		{InlineCode("GET /healthz"), "", InlineCode("ok")},
	})
}

// dedent removes the indentation shared by every non-blank line.
func dedent(text string) string {
	lines := strings.Split(text, "\n")
	common := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if common < 0 || n < common {
			common = n
		}
	}
	for i, line := range lines {
		if len(line) >= common && common > 0 {
			lines[i] = line[common:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
