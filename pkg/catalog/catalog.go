// Package catalog loads the table/column catalog the validator and the
// optimizer consult. A catalog comes from a YAML file or is introspected
// once from a live database; either way the result is a read-only
// core.MapCatalog handed to the pipeline.
//
// Sources register themselves by name. The built-in ones are "yaml",
// "sqlite", "postgres" and "duckdb".
package catalog

import (
	"context"

	"github.com/leapstack-labs/relalg/pkg/core"
)

// Config selects and configures a catalog source.
type Config struct {
	Source   string            `koanf:"source" mapstructure:"source"`
	Path     string            `koanf:"path" mapstructure:"path"`
	DSN      string            `koanf:"dsn" mapstructure:"dsn"`
	Host     string            `koanf:"host" mapstructure:"host"`
	Port     int               `koanf:"port" mapstructure:"port"`
	Database string            `koanf:"database" mapstructure:"database"`
	User     string            `koanf:"user" mapstructure:"user"`
	Password string            `koanf:"password" mapstructure:"password"`
	Schema   string            `koanf:"schema" mapstructure:"schema"`
	Options  map[string]string `koanf:"options" mapstructure:"options"`
	Params   map[string]any    `koanf:"params" mapstructure:"params"`
}

// Source produces a catalog.
type Source interface {
	// Name is the registered source type.
	Name() string

	// Fetch reads every table and its columns. Database sources connect,
	// introspect and disconnect within the call.
	Fetch(ctx context.Context) (core.MapCatalog, error)
}
