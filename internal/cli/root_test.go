package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clitest "github.com/leapstack-labs/relalg/internal/cli/testutil"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCommand_Help(t *testing.T) {
	out, _, err := run(t, "--help")
	require.NoError(t, err)
	for _, name := range []string{"translate", "validate", "batch", "repl", "tui", "serve", "catalog", "history", "version", "completion"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "--catalog")
	assert.Contains(t, out, "--disable-rule")
}

func TestRootCommand_Version(t *testing.T) {
	out, _, err := run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "relalg "+Version)
	assert.Contains(t, out, "commit "+GitCommit)
}

func TestRootCommand_UnknownCommand(t *testing.T) {
	_, _, err := run(t, "frobnicate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestRootCommand_TranslateWithConfigFile(t *testing.T) {
	dir := clitest.SetupTestProject(t)

	out, _, err := run(t, "--config", filepath.Join(dir, "relalg.yaml"), "translate", "--show", "algebra", clitest.ExampleQuery)
	require.NoError(t, err)
	assert.Contains(t, out, "# Translation")
	assert.Contains(t, out, "π (c.Nome, p.Preco) (σ (c.Nome = 'A') (ρ c (Cliente)) ⨝[hash_join] (c.id = p.cliente_id) σ (p.Preco > 100) (ρ p (Pedido)))")
	clitest.AssertNoANSI(t, out)
}

func TestRootCommand_FlagsOverrideConfig(t *testing.T) {
	dir := clitest.SetupTestProject(t)
	cfgFile := filepath.Join(dir, "relalg.yaml")

	out, _, err := run(t, "--config", cfgFile, "-o", "json", "validate", "SELECT Nome FROM Cliente WHERE Nome >> 'A'")
	require.Error(t, err)
	m := clitest.DecodeJSON(t, out)
	assert.Equal(t, false, m["ok"])
	assert.Equal(t, "syntax", m["kind"])

	out, _, err = run(t, "--config", cfgFile, "-o", "json", "--disable-rule", "SY05", "validate", "SELECT Nome FROM Cliente WHERE Nome >> 'A'")
	require.NoError(t, err)
	assert.Equal(t, true, clitest.DecodeJSON(t, out)["ok"])
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	dir := clitest.SetupTestProject(t)

	_, _, err := run(t, "--config", filepath.Join(dir, "relalg.yaml"), "-o", "yaml", "translate", "SELECT Nome FROM Cliente")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestRootCommand_HistoryFlag(t *testing.T) {
	dir := clitest.SetupTestProject(t)
	cfgFile := filepath.Join(dir, "relalg.yaml")

	_, _, err := run(t, "--config", cfgFile, "--history", "translate", "SELECT Nome FROM Cliente")
	require.NoError(t, err)

	out, _, err := run(t, "--config", cfgFile, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "# History (1 runs)")
	assert.Contains(t, out, "SELECT Nome FROM Cliente")
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			out, _, err := run(t, "completion", shell)
			require.NoError(t, err)
			assert.Contains(t, out, "relalg")
		})
	}

	_, _, err := run(t, "completion", "tcsh")
	require.Error(t, err)
}
