// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/relalg/internal/cli/output"
)

// CatalogYAML is the catalog written by SetupTestProject.
const CatalogYAML = `tables:
  Cliente:
    - name: id
      type: int
    - name: Nome
      type: varchar
    - name: Email
      type: varchar
  Pedido:
    - name: id
      type: int
    - name: cliente_id
      type: int
    - name: Preco
      type: decimal
  Produto:
    - name: id
      type: int
    - name: Nome
      type: varchar
`

// ExampleQuery joins both tables of the test catalog and filters each.
const ExampleQuery = "SELECT c.Nome, p.Preco FROM Cliente c INNER JOIN Pedido p ON c.id = p.cliente_id WHERE p.Preco > 100 AND c.Nome = 'A'"

// QueriesSQL is the script written by SetupTestProject. Its third query
// is rejected.
const QueriesSQL = `-- customers
SELECT Nome FROM Cliente WHERE Nome = 'A';

SELECT c.Nome, p.Preco
FROM Cliente c INNER JOIN Pedido p ON c.id = p.cliente_id
WHERE p.Preco > 100;

SELECT * FROM Ghost;
`

// SetupTestProject creates a temporary project with a relalg.yaml, a
// catalog file and a query script.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	files := map[string]string{
		"relalg.yaml": `catalog:
  path: catalog.yaml
output: markdown
state_path: .relalg/history.db
`,
		"catalog.yaml": CatalogYAML,
		"queries.sql":  QueriesSQL,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}

	return tmpDir
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererMarkdown creates a new test renderer in markdown mode.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// NewTestRendererText creates a new test renderer in text mode (simulated TTY).
func NewTestRendererText() *TestRenderer {
	return NewTestRenderer(output.ModeText, true)
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	fenceCount := strings.Count(md, "```")
	if fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	lines := strings.Split(md, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}

// DecodeJSON unmarshals s into a generic map, failing the test on error.
func DecodeJSON(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, s)
	}
	return m
}
