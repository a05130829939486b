// Package config loads formatter settings from a .tlafmt.json file
// found in the target file's directory or any parent.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"

	"github.com/domodwyer/tlafmt/internal/format"
)

// FileName is the config file searched for alongside the input.
const FileName = ".tlafmt.json"

// Config is the on-disk configuration.
type Config struct {
	// MaxWidth overrides the target line width when positive.
	MaxWidth int `json:"max_width,omitempty"`

	// CollapseSingleBullets enables rewriting one-item junction lists.
	CollapseSingleBullets bool `json:"collapse_single_bullets,omitempty"`

	// RequiredVersion is a semver constraint the running tool must
	// satisfy, e.g. ">= 0.3, < 1.0". Empty means any version.
	RequiredVersion string `json:"required_version,omitempty"`

	// Path is where the config was loaded from, for error reporting.
	Path string `json:"-"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{MaxWidth: format.DefaultWidth}
}

// Load reads the config at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(data, path)
}

// Parse decodes config JSON. Unknown fields are rejected so typos do
// not silently fall back to defaults.
func Parse(data []byte, path string) (Config, error) {
	var c Config

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	if c.MaxWidth < 0 {
		return Config{}, fmt.Errorf("parse %s: max_width must be positive", path)
	}
	if c.RequiredVersion != "" {
		if _, err := semver.NewConstraint(c.RequiredVersion); err != nil {
			return Config{}, fmt.Errorf("parse %s: required_version: %w", path, err)
		}
	}

	c.Path = path
	return c, nil
}

// Discover walks from the given directory up to the filesystem root
// looking for a config file. A missing config is not an error: the
// defaults are returned.
func Discover(dir string) (Config, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return Config{}, err
	}

	for {
		candidate := filepath.Join(dir, FileName)
		switch c, err := Load(candidate); {
		case err == nil:
			return c, nil
		case !errors.Is(err, os.ErrNotExist):
			return Config{}, err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// CheckVersion verifies the running tool version against the config's
// required_version constraint.
func (c Config) CheckVersion(version string) error {
	if c.RequiredVersion == "" {
		return nil
	}

	constraint, err := semver.NewConstraint(c.RequiredVersion)
	if err != nil {
		return fmt.Errorf("%s: required_version: %w", c.Path, err)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid tool version %q: %w", version, err)
	}

	if !constraint.Check(v) {
		return fmt.Errorf("%s: version %s does not satisfy required_version %q",
			c.Path, version, c.RequiredVersion)
	}
	return nil
}

// Options converts the config into formatter options.
func (c Config) Options() format.Options {
	opts := format.DefaultOptions()
	if c.MaxWidth > 0 {
		opts.MaxWidth = c.MaxWidth
	}
	opts.CollapseSingleBullets = c.CollapseSingleBullets
	return opts
}
