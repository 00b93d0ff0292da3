package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/schaermu/versync/internal/manifest"
)

// FileName is the config file looked up in the project root
const FileName = "versync.yaml"

// Format declares how a target file is parsed and patched
type Format string

const (
	FormatStructured Format = "structured"
	FormatTextual    Format = "textual"
)

// Config represents the complete versync configuration
type Config struct {
	Source  SourceConfig `yaml:"source"`
	Targets []Target     `yaml:"targets"`
	Git     GitConfig    `yaml:"git"`

	// Root is the directory relative paths are resolved against. It is the
	// directory of the config file, or the project root for Default.
	Root string `yaml:"-"`
}

// SourceConfig configures the canonical manifest
type SourceConfig struct {
	Path   string `yaml:"path"`
	Semver bool   `yaml:"semver"`
}

// Target describes one file that mirrors the canonical version
type Target struct {
	Path         string `yaml:"path"`
	Format       Format `yaml:"format"`
	Field        string `yaml:"field"`
	RequireField bool   `yaml:"require_field"`
	Syntax       string `yaml:"syntax"`
}

// GitConfig configures optional staging of updated files
type GitConfig struct {
	Stage bool `yaml:"stage"`
}

// Default returns the built-in layout of a Tauri project: package.json is
// canonical, tauri.conf.json and Cargo.toml follow it.
func Default(root string) *Config {
	cfg := &Config{
		Source: SourceConfig{Path: "package.json"},
		Targets: []Target{
			{Path: filepath.Join("src-tauri", "tauri.conf.json"), Format: FormatStructured},
			{Path: filepath.Join("src-tauri", "Cargo.toml"), Format: FormatTextual, Syntax: manifest.SyntaxTOML},
		},
		Root: root,
	}
	cfg.applyDefaults()
	cfg.resolvePaths()
	return cfg
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	// Expand environment variables in path
	path = os.ExpandEnv(path)

	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Root = filepath.Dir(path)

	// Expand environment variables in string fields
	cfg.expandEnv()

	// Apply defaults
	cfg.applyDefaults()

	cfg.resolvePaths()

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// expandEnv expands environment variables in all string fields
func (c *Config) expandEnv() {
	c.Source.Path = os.ExpandEnv(c.Source.Path)
	for i := range c.Targets {
		c.Targets[i].Path = os.ExpandEnv(c.Targets[i].Path)
		c.Targets[i].Field = os.ExpandEnv(c.Targets[i].Field)
	}
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	for i := range c.Targets {
		if c.Targets[i].Field == "" {
			c.Targets[i].Field = manifest.VersionField
		}
	}
}

// resolvePaths joins relative source and target paths onto Root
func (c *Config) resolvePaths() {
	c.Source.Path = c.resolve(c.Source.Path)
	for i := range c.Targets {
		c.Targets[i].Path = c.resolve(c.Targets[i].Path)
	}
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Clean(filepath.Join(c.Root, path))
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Source.Path == "" {
		return fmt.Errorf("source.path is required")
	}

	if len(c.Targets) == 0 {
		return fmt.Errorf("at least one target is required")
	}

	seen := make(map[string]bool, len(c.Targets))
	for i, t := range c.Targets {
		if t.Path == "" {
			return fmt.Errorf("targets[%d].path is required", i)
		}
		if t.Path == c.Source.Path {
			return fmt.Errorf("targets[%d]: %s is the source manifest", i, t.Path)
		}
		if seen[t.Path] {
			return fmt.Errorf("targets[%d]: duplicate target %s", i, t.Path)
		}
		seen[t.Path] = true

		switch t.Format {
		case FormatStructured, FormatTextual:
			// valid
		default:
			return fmt.Errorf("targets[%d]: invalid format %q (must be structured or textual)", i, t.Format)
		}

		if !manifest.ValidFieldName(t.Field) {
			return fmt.Errorf("targets[%d]: invalid field name %q", i, t.Field)
		}

		switch t.Syntax {
		case "":
		case manifest.SyntaxTOML:
			if t.Format != FormatTextual {
				return fmt.Errorf("targets[%d]: syntax %q is only supported for textual targets", i, t.Syntax)
			}
		default:
			return fmt.Errorf("targets[%d]: unknown syntax %q", i, t.Syntax)
		}

		if t.RequireField && t.Format == FormatTextual {
			return fmt.Errorf("targets[%d]: require_field only applies to structured targets", i)
		}
	}

	return nil
}

// Patcher returns the patcher that applies to t
func (t Target) Patcher(dryRun bool) manifest.Patcher {
	if t.Format == FormatTextual {
		return &manifest.TextPatcher{Syntax: t.Syntax, DryRun: dryRun}
	}
	return &manifest.StructuredPatcher{RequireField: t.RequireField, DryRun: dryRun}
}

// Rel returns path relative to Root for display, or path itself when it
// lies outside Root.
func (c *Config) Rel(path string) string {
	if c.Root == "" {
		return path
	}
	root, err := filepath.Abs(c.Root)
	if err != nil {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}
