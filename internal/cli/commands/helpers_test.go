package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	clitest "github.com/leapstack-labs/relalg/internal/cli/testutil"
	"github.com/leapstack-labs/relalg/internal/config"
	"github.com/leapstack-labs/relalg/internal/testutil"
	"github.com/leapstack-labs/relalg/pkg/catalog"
)

// testConfig returns a markdown-output configuration backed by the test
// project's catalog file.
func testConfig(t *testing.T) (*config.Config, string) {
	t.Helper()
	dir := clitest.SetupTestProject(t)

	cfg := *config.GetConfig(context.Background())
	cfg.Catalog = catalog.Config{Source: "yaml", Path: filepath.Join(dir, "catalog.yaml")}
	cfg.StatePath = filepath.Join(dir, ".relalg", "history.db")
	cfg.Output = config.OutputMarkdown
	cfg.ProjectRoot = dir
	return &cfg, dir
}

// execute runs cmd with cfg in its context and returns stdout and stderr.
func execute(t *testing.T, cmd *cobra.Command, cfg *config.Config, stdin string, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	ctx := config.WithConfig(context.Background(), cfg)
	ctx = config.WithLogger(ctx, testutil.NewTestLogger(t))
	err := cmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}
