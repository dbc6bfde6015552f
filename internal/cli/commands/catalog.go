package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/relalg/internal/cli/output"
	"github.com/leapstack-labs/relalg/pkg/catalog"
	"github.com/leapstack-labs/relalg/pkg/core"
)

var errNoCatalog = errors.New("no catalog configured\nHint: Pass --catalog or set catalog.source in relalg.yaml")

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the table catalog",
		Long: `Inspect the catalog queries are validated against.

The catalog comes from a YAML file or is introspected from a SQLite,
DuckDB or Postgres database.`,
	}
	cmd.AddCommand(newCatalogShowCommand())
	cmd.AddCommand(newCatalogDumpCommand())
	return cmd
}

func newCatalogShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [table]",
		Short: "List catalog tables and their columns",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			cat := cmdCtx.Setup.Catalog
			if cat == nil {
				return errNoCatalog
			}
			if len(args) == 1 {
				cols, ok := cat.Lookup(args[0])
				if !ok {
					return fmt.Errorf("table %q not found in catalog", args[0])
				}
				cat = core.MapCatalog{args[0]: cols}
			}
			return showCatalog(cmdCtx.Renderer, cmdCtx.Cfg.Catalog.Source, cat)
		},
	}
}

func showCatalog(r *output.Renderer, source string, cat core.MapCatalog) error {
	out := output.CatalogOutput{Source: source, Tables: make([]output.CatalogTable, 0, len(cat))}
	for _, name := range cat.Tables() {
		t := output.CatalogTable{Name: name, Columns: make([]string, len(cat[name]))}
		for i, c := range cat[name] {
			t.Columns[i] = c.Name
			if c.Type != "" {
				t.Columns[i] += " " + c.Type
			}
		}
		out.Tables = append(out.Tables, t)
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}

	r.Header(1, fmt.Sprintf("Catalog (%d tables, %s)", len(out.Tables), source))
	rows := make([][]string, len(out.Tables))
	for i, t := range out.Tables {
		rows[i] = []string{t.Name, strings.Join(t.Columns, ", ")}
	}
	r.Table([]string{"Table", "Columns"}, rows)
	return nil
}

func newCatalogDumpCommand() *cobra.Command {
	var outFile string
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Write the catalog as a YAML catalog file",
		Long: `Write the configured catalog in the YAML catalog format. Introspecting
a database once and dumping it gives a catalog file that can be used
without a connection.`,
		Example: `  # Snapshot a SQLite schema
  relalg catalog dump --catalog shop.db -O catalog.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			cat := cmdCtx.Setup.Catalog
			if cat == nil {
				return errNoCatalog
			}
			if outFile == "" {
				return catalog.Encode(cmd.OutOrStdout(), cat)
			}
			if err := catalog.SaveFile(outFile, cat); err != nil {
				return err
			}
			cmdCtx.Renderer.Success(fmt.Sprintf("Wrote %d tables to %s", len(cat), outFile))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outFile, "out", "O", "", "Write to a file instead of stdout")
	return cmd
}
