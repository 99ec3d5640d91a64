// Package config loads the tool's runtime configuration from a YAML
// file with environment overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the config file when no flag is given.
const EnvConfigPath = "WINTERTOO_CONFIG"

// Database points at the program credential store.
type Database struct {
	DSN string `yaml:"dsn"`
}

// Redis configures the optional program lookup cache.
type Redis struct {
	Enabled    bool   `yaml:"enabled"`
	Addr       string `yaml:"addr"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// Minio configures the optional archive upload.
type Minio struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Bucket    string `yaml:"bucket"`
}

// Export controls where schedule files land.
type Export struct {
	Dir string `yaml:"dir"`
}

// Visibility tunes the nightly visibility oracle.
type Visibility struct {
	Samples         int     `yaml:"samples"`
	MinElevationDeg float64 `yaml:"min_elevation_deg"`
}

// Config is the full runtime configuration.
type Config struct {
	Database   Database   `yaml:"database"`
	Redis      Redis      `yaml:"redis"`
	Minio      Minio      `yaml:"minio"`
	Export     Export     `yaml:"export"`
	Visibility Visibility `yaml:"visibility"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Redis:      Redis{Addr: "localhost:6379", TTLSeconds: 300},
		Export:     Export{Dir: "."},
		Visibility: Visibility{Samples: 100, MinElevationDeg: 20},
	}
}

// Load reads the config at path, or the path named by WINTERTOO_CONFIG
// when path is empty. A missing file yields the defaults. Environment
// variables override file values last.
func Load(path string, logger *slog.Logger) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("reading config %s: %w", path, err)
			}
			logger.Info("config file not found, using defaults", "path", path)
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyEnv(&cfg, logger)

	if cfg.Visibility.Samples < 2 {
		logger.Warn("visibility samples too low, using default", "value", cfg.Visibility.Samples)
		cfg.Visibility.Samples = Default().Visibility.Samples
	}
	return cfg, nil
}

func applyEnv(cfg *Config, logger *slog.Logger) {
	if v := os.Getenv("WINTERTOO_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("WINTERTOO_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("WINTERTOO_EXPORT_DIR"); v != "" {
		cfg.Export.Dir = v
	}
	if v := os.Getenv("WINTERTOO_VISIBILITY_SAMPLES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 2 {
			logger.Warn("invalid WINTERTOO_VISIBILITY_SAMPLES value, ignoring", "value", v)
		} else {
			cfg.Visibility.Samples = n
		}
	}
	if v := os.Getenv("WINTERTOO_MIN_ELEVATION_DEG"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f >= 90 {
			logger.Warn("invalid WINTERTOO_MIN_ELEVATION_DEG value, ignoring", "value", v)
		} else {
			cfg.Visibility.MinElevationDeg = f
		}
	}
}
