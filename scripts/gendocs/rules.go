package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/relalg/pkg/validate"
)

// groupDescriptions provides human-readable descriptions for rule groups.
var groupDescriptions = map[string]string{
	validate.GroupSyntax: "Rules checked against the query text before a catalog is consulted.",
	validate.GroupSchema: "Rules that resolve tables and columns against the catalog. They are skipped when no catalog is configured.",
}

// generateRulesDocs writes the validation rule reference.
func generateRulesDocs(outDir string) error {
	log.Printf("Generating rule docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	rules := validate.Rules()
	w := NewMarkdownWriter()
	w.Frontmatter("Validation Rules", "Rules applied to every query before translation")
	w.GeneratedMarker()

	w.Header(1, "Validation Rules")
	w.Paragraph(fmt.Sprintf("relalg checks every query against **%d rules** in a fixed order. The first failing rule rejects the query.", len(rules)))

	w.Header(2, "Configuration")
	w.Paragraph("Rules can be disabled in `relalg.yaml` or with `--disable-rule`:")
	w.CodeBlock("yaml", `validator:
  disabled_rules: [SY06]`)

	title := cases.Title(language.English)
	for _, group := range []string{validate.GroupSyntax, validate.GroupSchema} {
		w.Header(2, title.String(group))
		w.Paragraph(groupDescriptions[group])

		for _, rule := range rules {
			if rule.Group != group {
				continue
			}
			writeRuleDoc(w, rule)
		}
	}

	filename := filepath.Join(outDir, "index.md")
	if err := os.WriteFile(filename, w.Bytes(), 0600); err != nil {
		return err
	}
	log.Printf("  Generated index.md")
	return nil
}

// writeRuleDoc writes detailed documentation for a single rule.
func writeRuleDoc(w *MarkdownWriter, rule validate.RuleDef) {
	// ### SC02 - schema.unknown-column {#SC02}
	w.Line(fmt.Sprintf("### %s - %s {#%s}", rule.ID, rule.Name, rule.ID))
	w.Newline()
	w.Paragraph(cleanDescription(rule.Description))

	if rule.BadExample != "" {
		w.Header(4, "Rejected")
		w.CodeBlock("sql", rule.BadExample)
	}

	w.Line("---")
	w.Newline()
}
