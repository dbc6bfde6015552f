package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/relalg/internal/cli/output"
	"github.com/leapstack-labs/relalg/internal/engine"
	"github.com/leapstack-labs/relalg/pkg/validate"
)

// ValidateOptions holds options for the validate command.
type ValidateOptions struct {
	File    string
	Rules   bool
	Verbose bool
}

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	opts := &ValidateOptions{}
	cmd := &cobra.Command{
		Use:   "validate [query]",
		Short: "Check a SQL query without translating it",
		Long: `Run the validation rules against a query.

Syntax rules look at the query text. Schema rules (unknown tables and
columns, ambiguous columns) run only when a catalog is configured. The
first failing rule stops validation.

Use --rules to list the rules and whether they are enabled.`,
		Example: `  # Validate a query
  relalg validate --catalog catalog.yaml "SELECT Nome FROM Cliente"

  # Skip a rule
  relalg validate --disable-rule SY06 "SELECT (Email) FROM Cliente"

  # List the rules
  relalg validate --rules -V`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Rules {
				return listRules(cmd, opts)
			}
			return runValidate(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Read the query from a file")
	cmd.Flags().BoolVar(&opts.Rules, "rules", false, "List the validation rules")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose-rules", "V", false, "Show rule descriptions and examples")
	return cmd
}

func runValidate(cmd *cobra.Command, args []string, opts *ValidateOptions) error {
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

	verr := cmdCtx.Engine().Validate(query)
	if r.EffectiveMode() == output.ModeJSON {
		out := output.ErrorOutput{OK: verr == nil, Query: query}
		if verr != nil {
			out.Message = verr.Error()
			out.Kind = engine.ErrorKind(verr)
		}
		if err := r.JSON(out); err != nil {
			return err
		}
		return verr
	}
	if verr != nil {
		return verr
	}

	r.Success("Query is valid")
	if !cmdCtx.Cfg.HasCatalog() {
		r.Muted("No catalog configured: schema rules were skipped.")
	}
	return nil
}

func listRules(cmd *cobra.Command, opts *ValidateOptions) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := cmdCtx.Renderer
	disabled := cmdCtx.Cfg.ValidateConfig()

	rules := validate.Rules()
	infos := make([]output.RuleInfo, len(rules))
	for i, rule := range rules {
		infos[i] = output.RuleInfoFrom(rule, disabled.IsDisabled(rule.ID))
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(struct {
			Rules []output.RuleInfo `json:"rules"`
			Count int               `json:"count"`
		}{infos, len(infos)})
	case output.ModeMarkdown:
		listRulesMarkdown(r, infos, opts.Verbose)
	default:
		listRulesText(r, infos, opts.Verbose)
	}
	return nil
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func listRulesText(r *output.Renderer, rules []output.RuleInfo, verbose bool) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("Validation Rules (%d)", len(rules))))
	r.Println("")

	currentGroup := ""
	for _, rule := range rules {
		if rule.Group != currentGroup {
			currentGroup = rule.Group
			r.Println(styles.Header2.Render(titleCase(currentGroup)))
		}

		state := styles.Success.Render("enabled")
		if rule.Disabled {
			state = styles.Warning.Render("disabled")
		}
		r.Printf("    %s  %s - %s\n", styles.Muted.Render(rule.ID), rule.Name, state)

		if verbose {
			r.Println(styles.Muted.Render("        " + rule.Description))
			if rule.BadExample != "" {
				r.Println(styles.Muted.Render("        Rejects: " + rule.BadExample))
			}
			r.Println("")
		}
	}

	r.Println("")
	r.Println(styles.Muted.Render("Disable rules with --disable-rule or validator.disabled_rules in relalg.yaml"))
	r.Println("")
}

func listRulesMarkdown(r *output.Renderer, rules []output.RuleInfo, verbose bool) {
	r.Println("# Validation Rules")
	r.Println("")

	currentGroup := ""
	for _, rule := range rules {
		if rule.Group != currentGroup {
			currentGroup = rule.Group
			r.Println("## " + titleCase(currentGroup))
			r.Println("")
		}

		state := "enabled"
		if rule.Disabled {
			state = "disabled"
		}
		r.Printf("- **%s** - %s (`%s`)\n", rule.ID, rule.Name, state)
		if verbose {
			r.Println("  " + rule.Description)
			if rule.BadExample != "" {
				r.Println("  > `" + strings.ReplaceAll(rule.BadExample, "`", "'") + "`")
			}
		}
	}
	r.Println("")
}
