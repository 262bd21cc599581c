// Package config provides settings for the spool tooling. Settings come
// from an optional YAML file with HOLLAND_-prefixed environment variables
// layered on top, and every option has a usable default so both sources
// may be absent.
package config

import (
	"os"
	"strconv"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"

	"backupspool/internal/spool"
)

// Config holds the spool tooling settings.
type Config struct {
	// SpoolRoot is the registry root directory.
	SpoolRoot string `yaml:"spool-root"`
	// BackupsToKeep is the default retention count used when a purge is
	// not given an explicit one.
	BackupsToKeep int `yaml:"backups-to-keep"`
	// CreateSymlinks controls oldest/newest link maintenance after
	// mutating operations.
	CreateSymlinks bool `yaml:"create-symlinks"`
	// LogLevel is a logrus level name (default: info).
	LogLevel string `yaml:"log-level"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		SpoolRoot:      spool.DefaultPath,
		BackupsToKeep:  1,
		CreateSymlinks: true,
		LogLevel:       "info",
	}
}

// Load builds the configuration from defaults, the YAML file at path when
// path is non-empty, and environment overrides, in that order. A missing
// file is only an error when it was explicitly named.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Annotatef(err, "reading config %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Annotatef(err, "parsing config %s", path)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv layers HOLLAND_* environment variables over cfg. Unparseable
// values are ignored in favor of what is already set.
func applyEnv(cfg *Config) {
	if v := os.Getenv("HOLLAND_SPOOL_ROOT"); v != "" {
		cfg.SpoolRoot = v
	}
	if v := os.Getenv("HOLLAND_BACKUPS_TO_KEEP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.BackupsToKeep = n
		}
	}
	if v := os.Getenv("HOLLAND_CREATE_SYMLINKS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.CreateSymlinks = b
		}
	}
	if v := os.Getenv("HOLLAND_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}
