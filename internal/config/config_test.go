package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/relalg/pkg/catalog"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("catalog", "", "")
	fs.String("catalog-source", "", "")
	fs.String("cost-script", "", "")
	fs.StringSlice("disable-rule", nil, "")
	fs.String("output", "auto", "")
	fs.Bool("verbose", false, "")
	fs.String("state", "", "")
	fs.Bool("history", false, "")
	fs.String("addr", "", "")
	fs.Int("cache-size", 0, "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, OutputAuto, cfg.Output)
	assert.False(t, cfg.Verbose)
	assert.False(t, cfg.History)
	assert.True(t, cfg.Optimizer.UseCatalog)
	assert.Empty(t, cfg.Optimizer.CostScript)
	assert.Equal(t, DefaultServeAddr, cfg.Serve.Addr)
	assert.Equal(t, DefaultCacheSize, cfg.Serve.CacheSize)
	assert.True(t, cfg.Serve.Watch)
	assert.False(t, cfg.HasCatalog())
	assert.Empty(t, cfg.File)
	assert.Equal(t, filepath.Join(cfg.ProjectRoot, DefaultStateFile), cfg.StatePath)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
catalog:
  path: catalog.yaml
validator:
  disabled_rules: [sy07]
optimizer:
  cost_script: cost/estimate.star
  use_catalog: false
output: json
history: true
serve:
  addr: ":9000"
  cache_size: 16
  watch: false
`)
	t.Chdir(dir)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "yaml", cfg.Catalog.Source, "source inferred from extension")
	assert.Equal(t, filepath.Join(dir, "catalog.yaml"), cfg.Catalog.Path)
	assert.Equal(t, filepath.Join(dir, "cost", "estimate.star"), cfg.Optimizer.CostScript)
	assert.False(t, cfg.Optimizer.UseCatalog)
	assert.Equal(t, OutputJSON, cfg.Output)
	assert.True(t, cfg.History)
	assert.Equal(t, ":9000", cfg.Serve.Addr)
	assert.Equal(t, 16, cfg.Serve.CacheSize)
	assert.False(t, cfg.Serve.Watch)
	assert.Equal(t, filepath.Join(dir, ConfigFileName), cfg.File)

	vc := cfg.ValidateConfig()
	assert.True(t, vc.IsDisabled("SY07"))
	assert.False(t, vc.IsDisabled("SY01"))
}

func TestLoad_SearchesUpward(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "output: markdown\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, OutputMarkdown, cfg.Output)
	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(root, DefaultStateFile), cfg.StatePath)
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte("catalog:\n  path: shop.db\n"), 0o600))
	t.Chdir(t.TempDir())

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, "sqlite", cfg.Catalog.Source)
	assert.Equal(t, filepath.Join(dir, "shop.db"), cfg.Catalog.Path)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "output: text\nserve:\n  addr: file:1\n  cache_size: 8\n")
	t.Chdir(dir)

	t.Setenv("RELALG_OUTPUT", "markdown")
	t.Setenv("RELALG_SERVE__ADDR", "env:2")
	t.Setenv("RELALG_VALIDATOR__DISABLED_RULES", "SY01,SY02")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--output", "json", "--cache-size", "32"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, OutputJSON, cfg.Output, "flag beats env and file")
	assert.Equal(t, "env:2", cfg.Serve.Addr, "env beats file")
	assert.Equal(t, 32, cfg.Serve.CacheSize)
	assert.ElementsMatch(t, []string{"SY01", "SY02"}, cfg.Validator.DisabledRules)
}

func TestLoad_UnchangedFlagsDoNotOverride(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "output: markdown\n")
	t.Chdir(dir)

	flags := newFlags()
	require.NoError(t, flags.Parse(nil))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, OutputMarkdown, cfg.Output)
}

func TestLoad_FlagPathsRelativeToWorkingDir(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "catalog:\n  path: from-file.yaml\n")
	work := filepath.Join(root, "work")
	require.NoError(t, os.MkdirAll(work, 0o750))
	t.Chdir(work)

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--catalog", "shop.yaml", "--state", ":memory:"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(work, "shop.yaml"), cfg.Catalog.Path)
	assert.Equal(t, ":memory:", cfg.StatePath)
}

func TestLoad_ExpandsCatalogEnvVars(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
catalog:
  source: postgres
  host: ${RELALG_TEST_HOST}
  user: ${RELALG_TEST_USER}
  password: ${RELALG_TEST_MISSING}
  database: shop
`)
	t.Chdir(dir)
	t.Setenv("RELALG_TEST_HOST", "db.internal")
	t.Setenv("RELALG_TEST_USER", "reader")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Catalog.Host)
	assert.Equal(t, "reader", cfg.Catalog.User)
	assert.Equal(t, "${RELALG_TEST_MISSING}", cfg.Catalog.Password, "unset variables are kept")
	assert.Equal(t, "shop", cfg.Catalog.Database)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{"bad yaml", "output: [", "error reading config file"},
		{"bad output", "output: html\n", "invalid output format"},
		{"unknown source", "catalog:\n  source: oracle\n", "unknown catalog source"},
		{"unknown rule", "validator:\n  disabled_rules: [ZZ99]\n", "unknown rule"},
		{"negative cache", "serve:\n  cache_size: -1\n", "cache_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)
			t.Chdir(dir)

			_, err := Load("", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestConfig_ValidateUnknownSource(t *testing.T) {
	cfg := &Config{Output: OutputText, Catalog: catalog.Config{Source: "mysql"}}
	err := cfg.Validate()

	var unknown *catalog.UnknownSourceError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "mysql", unknown.Source)
	assert.Contains(t, unknown.Available, "yaml")
}

func TestSourceForPath(t *testing.T) {
	tests := map[string]string{
		"catalog.yaml":  "yaml",
		"catalog.YML":   "yaml",
		"shop.db":       "sqlite",
		"shop.sqlite3":  "sqlite",
		"warehouse.ddb": "duckdb",
		"wh.duckdb":     "duckdb",
		"noext":         "yaml",
	}
	for path, want := range tests {
		assert.Equal(t, want, SourceForPath(path), path)
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "x", "y")
	require.NoError(t, os.MkdirAll(nested, 0o750))

	assert.Empty(t, FindProjectRoot(nested))

	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileNameAlt), []byte("{}\n"), 0o600))
	assert.Equal(t, root, FindProjectRoot(nested))
}

func TestFlagKey(t *testing.T) {
	assert.Equal(t, "catalog.path", FlagKey("catalog"))
	assert.Equal(t, "validator.disabled_rules", FlagKey("disable-rule"))
	assert.Equal(t, "state_path", FlagKey("state"))
	assert.Equal(t, "output", FlagKey("output"))
}

func TestEnvVar(t *testing.T) {
	assert.Equal(t, "RELALG_SERVE__ADDR", EnvVar("serve.addr"))
	assert.Equal(t, "RELALG_STATE_PATH", EnvVar("state_path"))

	key, _ := envValue(EnvVar("catalog.path"), "x.yaml")
	assert.Equal(t, "catalog.path", key)
}

func TestGetLogger(t *testing.T) {
	fallback := GetLogger(context.Background())
	require.NotNil(t, fallback)

	logger := slog.New(slog.DiscardHandler)
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}

func TestGetConfig(t *testing.T) {
	fallback := GetConfig(context.Background())
	require.NotNil(t, fallback)
	assert.Equal(t, OutputAuto, fallback.Output)
	assert.Equal(t, DefaultStateFile, fallback.StatePath)
	assert.True(t, fallback.Optimizer.UseCatalog)
	assert.False(t, fallback.HasCatalog())

	cfg := &Config{Output: OutputJSON}
	ctx := WithConfig(context.Background(), cfg)
	assert.Same(t, cfg, GetConfig(ctx))
}
