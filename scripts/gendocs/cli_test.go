package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCLIDocs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, generateCLIDocs(dir))

	read := func(name string) string {
		t.Helper()
		b, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		return string(b)
	}

	index := read("index.md")
	assert.Contains(t, index, "[`catalog show`](/cli/catalog-show)")
	assert.Contains(t, index, "`RELALG_CATALOG__PATH`")
	assert.Contains(t, index, "`validator.disabled_rules`")
	assert.NotContains(t, index, "RELALG_CONFIG")

	translate := read("translate.md")
	assert.Contains(t, translate, "## Output Sections")
	assert.Contains(t, translate, "`columns`")

	validate := read("validate.md")
	assert.Contains(t, validate, "[SY01](/rules/#SY01)")

	assert.Contains(t, read("serve.md"), "POST /api/translate")
	assert.Contains(t, read("catalog-dump.md"), "# catalog dump")
	assert.NotContains(t, read("catalog-show.md"), "## Output Sections")
}

func TestDedent(t *testing.T) {
	assert.Equal(t, "# a\nrelalg x\n  nested", dedent("  # a\n  relalg x\n    nested\n"))
	assert.Equal(t, "flat", dedent("flat"))
}
