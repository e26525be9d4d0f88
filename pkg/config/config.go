// Package config loads run-level defaults: built-in values first, then
// an optional user config file layered on top. CLI flags always win
// over anything loaded here.
package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/unfold-sh/preset/pkg/errors"
)

// Config holds the run-level options consumed by the apply pipeline
type Config struct {
	// Target is the default target directory when none is given
	Target string

	// Verbosity is the default diagnostic verbosity
	Verbosity int
}

// defaults are the built-in values, always loaded first
var defaults = map[string]interface{}{
	"apply.target":    ".",
	"apply.verbosity": 0,
}

// Load builds the effective configuration: defaults, then the user
// config file if one exists.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to load default config")
	}

	path := UserConfigPath()
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, errors.ErrEvaluation, "failed to load config from %s", path)
		}
	}

	return &Config{
		Target:    k.String("apply.target"),
		Verbosity: k.Int("apply.verbosity"),
	}, nil
}

// UserConfigPath returns the location of the optional user config file
func UserConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "preset", "preset.toml")
}
