package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/relalg/pkg/core"
	"gopkg.in/yaml.v3"
)

// fileFormat is the on-disk layout of a catalog file:
//
//	tables:
//	  Cliente:
//	    - name: id
//	      type: int
//	    - name: Nome
//	      type: varchar
type fileFormat struct {
	Tables map[string][]core.Column `yaml:"tables"`
}

// Decode reads a catalog in YAML form.
func Decode(r io.Reader) (core.MapCatalog, error) {
	var f fileFormat
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return core.MapCatalog{}, nil
		}
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	cat := make(core.MapCatalog, len(f.Tables))
	for table, cols := range f.Tables {
		for i, c := range cols {
			if c.Name == "" {
				return nil, fmt.Errorf("table %s: column %d has no name", table, i+1)
			}
		}
		cat[table] = cols
	}
	return cat, nil
}

// Encode writes cat in YAML form. Tables come out sorted by name.
func Encode(w io.Writer, cat core.MapCatalog) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(fileFormat{Tables: cat}); err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return enc.Close()
}

// LoadFile reads a catalog file.
func LoadFile(path string) (core.MapCatalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is user-provided by design
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	cat, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// SaveFile writes cat to path, creating parent directories as needed.
func SaveFile(path string, cat core.MapCatalog) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := Encode(&buf, cat); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}
	return nil
}

// FileSource reads the catalog from a YAML file.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource creates a source for the file at path.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FileSource{path: path, logger: logger}
}

// Name implements Source.
func (s *FileSource) Name() string { return "yaml" }

// Path returns the file the source reads.
func (s *FileSource) Path() string { return s.path }

// Fetch implements Source.
func (s *FileSource) Fetch(ctx context.Context) (core.MapCatalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.path == "" {
		return nil, fmt.Errorf("catalog path not specified")
	}
	cat, err := LoadFile(s.path)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("catalog loaded", slog.String("path", s.path), slog.Int("tables", len(cat)))
	return cat, nil
}

func init() {
	Register("yaml", func(cfg Config, logger *slog.Logger) (Source, error) {
		return NewFileSource(cfg.Path, logger), nil
	})
}

var _ Source = (*FileSource)(nil)
