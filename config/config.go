/*
Package config loads server configuration from YAML with environment
overrides.

PURPOSE:
  One place for everything tunable at deploy time. Configuration is
  layered: built-in defaults, then an optional YAML file, then
  CREW_-prefixed environment variables.

ENVIRONMENT OVERRIDES:
  CREW_SERVER__PORT=3000        -> server.port
  CREW_DATABASE__PATH=/data/db  -> database.path
  CREW_LOGGING__LEVEL=debug     -> logging.level
  Double underscore separates nesting levels.

SEE ALSO:
  - cmd/server/main.go: Consumes the loaded config
*/
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Logging  LoggingConfig  `koanf:"logging"`
}

type ServerConfig struct {
	Port           int      `koanf:"port"`
	AllowedOrigins []string `koanf:"allowed_origins"`
}

type DatabaseConfig struct {
	// Path is the SQLite database file; ":memory:" for ephemeral runs.
	Path string `koanf:"path"`
}

type LoggingConfig struct {
	// Level is a zerolog level name: debug, info, warn, error.
	Level string `koanf:"level"`
	// Pretty switches from JSON lines to the human console format.
	Pretty bool `koanf:"pretty"`
}

// Default returns the built-in configuration used when no file exists.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		},
		Database: DatabaseConfig{Path: "scheduler.db"},
		Logging:  LoggingConfig{Level: "info", Pretty: false},
	}
}

// Load reads the YAML file at path (if it exists) and applies CREW_
// environment overrides on top of the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider("CREW_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "crew_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}
	if cfg.Database.Path == "" {
		return nil, fmt.Errorf("database path must not be empty")
	}

	return cfg, nil
}
