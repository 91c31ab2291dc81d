// Package config resolves and validates the chronicle vault configuration.
//
// Resolution order, last writer wins: built-in defaults, then an optional
// YAML config file, then CHRONICLER_* environment variables, then
// command-line flags (applied by the cmd layer).
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	yaml "gopkg.in/yaml.v3"
)

// Config holds the three content directories and logging settings.
// Directory paths are immutable after Validate; nothing in the server
// mutates them at runtime.
type Config struct {
	LocationsDir  string `yaml:"locations" env:"CHRONICLER_LOCATIONS_DIR"`
	CharactersDir string `yaml:"characters" env:"CHRONICLER_CHARACTERS_DIR"`
	SessionsDir   string `yaml:"sessions" env:"CHRONICLER_SESSIONS_DIR"`
	LogLevel      string `yaml:"log_level" env:"CHRONICLER_LOG_LEVEL"`
	LogFormat     string `yaml:"log_format" env:"CHRONICLER_LOG_FORMAT"`
}

// Default returns the built-in configuration: content directories
// relative to the working directory, info-level text logging.
func Default() Config {
	return Config{
		LocationsDir:  "Locations",
		CharactersDir: "Characters",
		SessionsDir:   "Sessions",
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// Load resolves the configuration. path names an optional YAML file;
// empty means no file. Environment variables override file values.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config yaml: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	return cfg, nil
}

// Validate checks that every content directory exists and is a
// directory. A failure here is fatal at startup: the server must refuse
// to start rather than serve an empty or misconfigured vault.
func (c Config) Validate() error {
	dirs := []struct {
		role string
		path string
	}{
		{"locations", c.LocationsDir},
		{"characters", c.CharactersDir},
		{"sessions", c.SessionsDir},
	}
	for _, d := range dirs {
		if d.path == "" {
			return fmt.Errorf("%s directory is not configured", d.role)
		}
		info, err := os.Stat(d.path)
		if err != nil {
			return fmt.Errorf("%s directory %q: %w", d.role, d.path, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%s path %q is not a directory", d.role, d.path)
		}
	}
	return nil
}
