// Package config loads the formflow server configuration from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/formflow/internal/ident"
	"github.com/roach88/formflow/internal/params"
)

// Config is the server configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// UploadLimitKB caps the total upload size of one request for forms
	// that set no limit of their own.
	UploadLimitKB int64 `yaml:"upload_limit_kb"`

	// TempDir holds staged uploads. Empty means the system temp dir.
	TempDir string `yaml:"temp_dir,omitempty"`

	// FormsDir is the CUE definitions directory.
	FormsDir string `yaml:"forms_dir"`

	// UploadDir is where file elements keep claimed uploads. Empty means
	// uploads never outlive their request.
	UploadDir string `yaml:"upload_dir,omitempty"`

	Replay  Replay  `yaml:"replay"`
	Journal Journal `yaml:"journal"`
}

// Replay configures deterministic dispatch ids.
type Replay struct {
	Enabled    bool `yaml:"enabled"`
	MaxRenders int  `yaml:"max_renders"`
	MaxItems   int  `yaml:"max_items"`
}

// Journal configures the SQLite dispatch journal.
type Journal struct {
	// Path of the database file. Empty disables the journal.
	Path string `yaml:"path,omitempty"`
}

// Default returns the configuration used for unset fields.
func Default() Config {
	return Config{
		Listen:        ":8080",
		UploadLimitKB: params.DefaultMaxUploadKB,
		Replay: Replay{
			MaxRenders: ident.DefaultMaxRenders,
			MaxItems:   ident.DefaultMaxItems,
		},
	}
}

// Load reads a YAML config file. Unknown fields are rejected and relative
// paths are resolved against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.resolve(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults without validating.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &cfg, nil
}

func (c *Config) resolve(base string) {
	for _, p := range []*string{&c.TempDir, &c.FormsDir, &c.UploadDir, &c.Journal.Path} {
		if *p != "" && *p != ":memory:" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

// Validate checks required fields and ranges.
func (c *Config) Validate() error {
	if c.FormsDir == "" {
		return fmt.Errorf("forms_dir is required")
	}
	if c.Listen == "" {
		return fmt.Errorf("listen is required")
	}
	if c.UploadLimitKB <= 0 {
		return fmt.Errorf("upload_limit_kb must be positive, got %d", c.UploadLimitKB)
	}
	if c.Replay.MaxRenders <= 0 {
		return fmt.Errorf("replay.max_renders must be positive, got %d", c.Replay.MaxRenders)
	}
	if c.Replay.MaxItems <= 0 {
		return fmt.Errorf("replay.max_items must be positive, got %d", c.Replay.MaxItems)
	}
	return nil
}
