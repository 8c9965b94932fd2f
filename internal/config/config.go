// Package config loads the ssr-builder.yaml build configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AhmedElBanna80/Knative-open-nextjs/packages/ssr-builder/internal/override"
)

// FileName is looked up in the working directory when no config is given.
const FileName = "ssr-builder.yaml"

const (
	defaultOutdir   = "dist"
	defaultPlatform = string(override.PlatformNode)
)

// ErrInvalid is wrapped by validation failures.
var ErrInvalid = errors.New("invalid configuration")

// Default returns the configuration used without a config file.
func Default(dir string) *Config {
	return &Config{
		Outdir:   defaultOutdir,
		Platform: defaultPlatform,
		Dir:      dir,
	}
}

// Load reads and validates a config file. Relative paths in the file are
// anchored at the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	cfg := Default(filepath.Dir(absPath))
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cfg.Outdir == "" {
		cfg.Outdir = defaultOutdir
	}
	if cfg.Platform == "" {
		cfg.Platform = defaultPlatform
	}
	return cfg, nil
}

// LoadOrDefault loads path when set, otherwise FileName in dir if it exists,
// otherwise the defaults.
func LoadOrDefault(path, dir string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	candidate := filepath.Join(dir, FileName)
	if _, err := os.Stat(candidate); err == nil {
		return Load(candidate)
	}
	return Default(dir), nil
}

// Validate checks the fields needed for a build.
func (c *Config) Validate() error {
	var problems []string
	if len(c.EntryPoints) == 0 {
		problems = append(problems, "at least one entry point is required")
	}
	if _, err := override.ParsePlatform(c.Platform); err != nil {
		problems = append(problems, err.Error())
	}
	for _, a := range c.Aliases {
		if a.Prefix == "" {
			problems = append(problems, "alias prefixes must not be empty")
			break
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// PlatformTag returns the parsed platform.
func (c *Config) PlatformTag() (override.Platform, error) {
	p, err := override.ParsePlatform(c.Platform)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return p, nil
}

// AliasTable builds the alias table in document order. Relative
// replacements ("./src/") are anchored at the config directory.
func (c *Config) AliasTable() (override.AliasTable, error) {
	entries := make([]override.Alias, 0, len(c.Aliases))
	for _, a := range c.Aliases {
		entries = append(entries, override.Alias{Prefix: a.Prefix, Replacement: c.anchorReplacement(a.Replacement)})
	}
	table, err := override.NewAliasTable(entries...)
	if err != nil {
		return override.AliasTable{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return table, nil
}

func (c *Config) anchorReplacement(r string) string {
	if c.Dir == "" || !(strings.HasPrefix(r, "./") || strings.HasPrefix(r, "../")) {
		return r
	}
	anchored := filepath.Join(c.Dir, filepath.FromSlash(r))
	if strings.HasSuffix(r, "/") {
		anchored += string(filepath.Separator)
	}
	return anchored
}

// ResolvedEntryPoints returns the entry points as absolute paths.
func (c *Config) ResolvedEntryPoints() []string {
	out := make([]string, 0, len(c.EntryPoints))
	for _, e := range c.EntryPoints {
		out = append(out, c.Abs(e))
	}
	return out
}

// Abs anchors p at the config directory unless it is already absolute.
func (c *Config) Abs(p string) string {
	if filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}
