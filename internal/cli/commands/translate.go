package commands

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/relalg/internal/cli/output"
	"github.com/leapstack-labs/relalg/internal/engine"
	"github.com/leapstack-labs/relalg/pkg/format"
)

// Sections of the translate output.
const (
	SectionAlgebra = "algebra"
	SectionTree    = "tree"
	SectionPlan    = "plan"
	SectionTrace   = "trace"
	SectionColumns = "columns"
)

var allSections = []string{SectionAlgebra, SectionTree, SectionPlan, SectionTrace, SectionColumns}

var sectionDescriptions = map[string]string{
	SectionAlgebra: "Unoptimized and optimized expressions in π σ ρ ⨝ notation",
	SectionTree:    "Both trees, one operator per line, with a legend",
	SectionPlan:    "Numbered execution steps; joins show their algorithm",
	SectionTrace:   "Every optimizer decision in pass order, tagged with its pass",
	SectionColumns: "Columns each relation must deliver after required-column propagation",
}

// Section describes one section of the translate output.
type Section struct {
	Name        string
	Description string
}

// Sections returns the translate output sections in display order.
func Sections() []Section {
	out := make([]Section, len(allSections))
	for i, name := range allSections {
		out[i] = Section{Name: name, Description: sectionDescriptions[name]}
	}
	return out
}

// TranslateOptions holds options for the translate command.
type TranslateOptions struct {
	File string
	Show []string
}

// NewTranslateCommand creates the translate command.
func NewTranslateCommand() *cobra.Command {
	opts := &TranslateOptions{}
	cmd := &cobra.Command{
		Use:   "translate [query]",
		Short: "Translate a SQL query to relational algebra",
		Long: `Translate a SELECT query into relational algebra.

The query is validated against the configured catalog, turned into an
operator tree and optimized. Both the unoptimized and the optimized forms
are shown as an expression, an indented tree and an execution plan,
followed by the optimization trace.

The query is read from the arguments, from --file, or from stdin.`,
		Example: `  # Translate a query
  relalg translate "SELECT Nome FROM Cliente WHERE Nome = 'A'"

  # Validate against a catalog file and show only the plan
  relalg translate --catalog catalog.yaml --show plan -f query.sql

  # Machine-readable output
  echo "SELECT * FROM Pedido" | relalg translate -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Read the query from a file")
	cmd.Flags().StringSliceVar(&opts.Show, "show", allSections, "Sections to show: algebra, tree, plan, trace, columns")
	_ = cmd.RegisterFlagCompletionFunc("show", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return allSections, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func runTranslate(cmd *cobra.Command, args []string, opts *TranslateOptions) error {
	for _, s := range opts.Show {
		if !slices.Contains(allSections, s) {
			return fmt.Errorf("unknown section %q\nHint: Use one of %s", s, strings.Join(allSections, ", "))
		}
	}

	query, err := readQueryInput(cmd, args, opts.File)
	if err != nil {
		return err
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	r := cmdCtx.Renderer

	res, err := cmdCtx.Engine().Process(cmd.Context(), query)
	if err != nil {
		if r.EffectiveMode() == output.ModeJSON && engine.IsQueryError(err) {
			_ = r.JSON(output.ErrorOutput{Query: query, Message: err.Error(), Kind: engine.ErrorKind(err)})
		}
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(output.TranslateOutput{
			OK:            true,
			Result:        res,
			Tree:          format.Tree(res.Tree),
			OptimizedTree: format.Tree(res.Optimized),
			Plan:          format.Plan(res.Tree),
			OptimizedPlan: format.Plan(res.Optimized),
		})
	}

	renderResult(r, res, opts.Show)
	return nil
}

// renderResult writes the selected sections of res.
func renderResult(r *output.Renderer, res *engine.Result, show []string) {
	r.Header(1, "Translation")
	r.KeyValue("Query", res.Query)
	r.Println("")

	if slices.Contains(show, SectionAlgebra) {
		r.Header(2, "Relational Algebra")
		r.Label("Unoptimized")
		r.CodeBlock("text", res.Expression)
		r.Label("Optimized")
		r.CodeBlock("text", res.OptimizedExpression)
		r.Println("")
	}

	if slices.Contains(show, SectionTree) {
		r.Header(2, "Operator Tree")
		r.Label("Unoptimized")
		r.CodeBlock("text", format.Tree(res.Tree))
		r.Label("Optimized")
		r.CodeBlock("text", format.Tree(res.Optimized))
		r.Println("")
	}

	if slices.Contains(show, SectionPlan) {
		r.Header(2, "Execution Plan")
		r.Label("Unoptimized")
		r.CodeBlock("text", format.Plan(res.Tree))
		r.Label("Optimized")
		r.CodeBlock("text", format.Plan(res.Optimized))
		r.Println("")
	}

	if slices.Contains(show, SectionTrace) {
		r.Header(2, "Optimization Trace")
		lines := res.Log.Lines()
		if len(lines) == 0 {
			r.Muted("(no rewrites)")
		}
		for _, line := range lines {
			r.Println("- " + line)
		}
		r.Println("")
	}

	if slices.Contains(show, SectionColumns) && res.RequiredColumns != nil {
		r.Header(2, "Required Columns")
		rows := make([][]string, 0, len(res.RequiredColumns.Relations))
		for _, rc := range res.RequiredColumns.Relations {
			rows = append(rows, []string{rc.Relation.Ref(), rc.Relation.Table, strings.Join(rc.Columns, ", ")})
		}
		r.Table([]string{"Relation", "Table", "Columns"}, rows)
		if u := res.RequiredColumns.Unattributed; len(u) > 0 {
			r.Muted("Unattributed: " + strings.Join(u, ", "))
		}
	}
}
