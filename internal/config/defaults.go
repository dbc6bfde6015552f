package config

import (
	"path/filepath"
	"strings"
)

// Default configuration values.
const (
	DefaultOutput    = OutputAuto
	DefaultStateFile = ".relalg/history.db"
	DefaultServeAddr = "127.0.0.1:8765"
	DefaultCacheSize = 256
)

func defaultValues() map[string]any {
	return map[string]any{
		"output":                DefaultOutput,
		"verbose":               false,
		"state_path":            DefaultStateFile,
		"history":               false,
		"optimizer.use_catalog": true,
		"serve.addr":            DefaultServeAddr,
		"serve.cache_size":      DefaultCacheSize,
		"serve.watch":           true,
	}
}

// ApplyDefaults fills values the layers left unset.
func ApplyDefaults(c *Config) {
	if c == nil {
		return
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.StatePath == "" {
		c.StatePath = DefaultStateFile
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultServeAddr
	}
	if c.Catalog.Source == "" && c.Catalog.Path != "" {
		c.Catalog.Source = SourceForPath(c.Catalog.Path)
	}
	c.Catalog.Source = strings.ToLower(c.Catalog.Source)
}

// SourceForPath guesses the catalog source type from a file extension.
func SourceForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return "sqlite"
	case ".duckdb", ".ddb":
		return "duckdb"
	default:
		return "yaml"
	}
}
