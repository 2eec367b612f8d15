// Package config loads optional defaults from a TOML config file.
// Flags always take precedence; the file only supplies values the user
// did not pass.
package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config holds the optional file-backed settings.
type Config struct {
	// CacheDir overrides the default incremental cache location.
	CacheDir string `toml:"cache_dir"`

	// SeedURL overrides the published snapshot used for cold-start
	// seeding. Empty disables the override.
	SeedURL string `toml:"seed_url"`
}

// DefaultPath returns ~/.ghindex/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ghindex", "config.toml"), nil
}

// Load reads the config file at path, or the default path when path is
// empty. A missing file yields a zero Config; a malformed file is an
// error, since the file is user-authored.
func Load(path string) (Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, err
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
