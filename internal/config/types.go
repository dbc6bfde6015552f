// Package config loads relalg configuration.
//
// Values are layered, lowest precedence first: built-in defaults, the
// project file (relalg.yaml or relalg.yml), RELALG_ environment variables
// and command-line flags that were explicitly set.
package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/relalg/pkg/catalog"
	"github.com/leapstack-labs/relalg/pkg/validate"
)

// Config holds all relalg configuration.
type Config struct {
	Catalog   catalog.Config  `koanf:"catalog"`
	Validator ValidatorConfig `koanf:"validator"`
	Optimizer OptimizerConfig `koanf:"optimizer"`
	Serve     ServeConfig     `koanf:"serve"`

	// Output is one of auto, text, markdown or json.
	Output    string `koanf:"output"`
	Verbose   bool   `koanf:"verbose"`
	StatePath string `koanf:"state_path"`

	// History records every processed query in the state database.
	History bool `koanf:"history"`

	// Set by the loader.
	ProjectRoot string `koanf:"-"`
	File        string `koanf:"-"`
}

// ValidatorConfig controls the rule battery.
type ValidatorConfig struct {
	DisabledRules []string `koanf:"disabled_rules"`
}

// OptimizerConfig controls the heuristic optimizer.
type OptimizerConfig struct {
	// CostScript is a Starlark file defining estimate(subtree).
	// Empty selects the built-in heuristic.
	CostScript string `koanf:"cost_script"`

	// UseCatalog lets selection push-down attribute unqualified columns
	// through the catalog.
	UseCatalog bool `koanf:"use_catalog"`
}

// ServeConfig holds configuration for the HTTP API.
type ServeConfig struct {
	Addr      string `koanf:"addr"`
	CacheSize int    `koanf:"cache_size"`
	Watch     bool   `koanf:"watch"`
}

// Output formats.
const (
	OutputAuto     = "auto" // TTY=text, otherwise markdown
	OutputText     = "text"
	OutputMarkdown = "markdown"
	OutputJSON     = "json"
)

// HasCatalog reports whether a catalog source is configured.
func (c *Config) HasCatalog() bool {
	return c.Catalog.Source != ""
}

// ValidateConfig converts the disabled rule list for the validator.
func (c *Config) ValidateConfig() *validate.Config {
	vc := validate.NewConfig()
	for _, id := range c.Validator.DisabledRules {
		vc.Disable(id)
	}
	return vc
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Output {
	case OutputAuto, OutputText, OutputMarkdown, OutputJSON:
	default:
		return fmt.Errorf("invalid output format %q\nHint: Use one of auto, text, markdown, json", c.Output)
	}

	if c.Catalog.Source != "" && !catalog.IsRegistered(strings.ToLower(c.Catalog.Source)) {
		return &catalog.UnknownSourceError{
			Source:    c.Catalog.Source,
			Available: catalog.ListSources(),
		}
	}

	for _, id := range c.Validator.DisabledRules {
		if _, ok := validate.GetByID(id); !ok {
			return fmt.Errorf("unknown rule %q in validator.disabled_rules\nHint: Run 'relalg validate --rules' to list rule IDs", id)
		}
	}

	if c.Serve.CacheSize < 0 {
		return fmt.Errorf("serve.cache_size must not be negative, got %d", c.Serve.CacheSize)
	}
	return nil
}
