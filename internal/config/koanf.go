// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/folio/config.yaml",
	"/etc/folio/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Ratings: RatingsConfig{
			DBPath:       "/data/folio.duckdb",
			MaxMemory:    "2GB",
			QueryTimeout: 5 * time.Minute,
			Delimiter:    ";",
			Encoding:     "latin-1", // Book-Crossing dumps are Latin-1
			MinRating:    0,
			MaxRating:    10,
		},
		Recommend: RecommendConfig{
			MinUserActivity:    200,
			MinItemActivity:    50,
			Metric:             "euclidean",
			DefaultK:           6,
			MaxK:               51,
			Duplicates:         "first",
			JoinKey:            "item_id",
			Workers:            4,
			ArtifactDir:        "/data/artifacts",
			KeepGenerations:    3,
			TrainOnStartup:     true,
			TrainInterval:      24 * time.Hour,
			TrainTimeout:       30 * time.Minute,
			BreakerMaxFailures: 3,
			BreakerTimeout:     time.Hour,
		},
	}
}

// Load loads configuration from defaults, the first config file found, and
// environment variables.
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile is Load with an explicit config file path. An empty path skips the
// file layer.
func LoadFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	// FOLIO_MIN_USER_ACTIVITY -> recommend.min_user_activity
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are koanf paths holding []string values. Environment
// variables supply them as comma-separated strings.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
var envMappings = map[string]string{
	"folio_log_level":  "logging.level",
	"folio_log_format": "logging.format",
	"folio_log_caller": "logging.caller",

	"folio_host":             "server.host",
	"folio_port":             "server.port",
	"folio_read_timeout":     "server.read_timeout",
	"folio_write_timeout":    "server.write_timeout",
	"folio_idle_timeout":     "server.idle_timeout",
	"folio_shutdown_timeout": "server.shutdown_timeout",

	"folio_jwt_secret":          "security.jwt_secret",
	"folio_cors_origins":        "security.cors_origins",
	"folio_rate_limit_reqs":     "security.rate_limit_reqs",
	"folio_rate_limit_window":   "security.rate_limit_window",
	"folio_rate_limit_disabled": "security.rate_limit_disabled",

	"folio_db_path":           "ratings.db_path",
	"folio_db_max_memory":     "ratings.max_memory",
	"folio_db_threads":        "ratings.threads",
	"folio_db_query_timeout":  "ratings.query_timeout",
	"folio_books_csv":         "ratings.books_csv",
	"folio_ratings_csv":       "ratings.ratings_csv",
	"folio_csv_delimiter":     "ratings.delimiter",
	"folio_csv_encoding":      "ratings.encoding",
	"folio_import_on_startup": "ratings.import_on_startup",
	"folio_min_rating":        "ratings.min_rating",
	"folio_max_rating":        "ratings.max_rating",

	"folio_min_user_activity":    "recommend.min_user_activity",
	"folio_min_item_activity":    "recommend.min_item_activity",
	"folio_metric":               "recommend.metric",
	"folio_default_k":            "recommend.default_k",
	"folio_max_k":                "recommend.max_k",
	"folio_duplicates":           "recommend.duplicates",
	"folio_join_key":             "recommend.join_key",
	"folio_workers":              "recommend.workers",
	"folio_artifact_dir":         "recommend.artifact_dir",
	"folio_keep_generations":     "recommend.keep_generations",
	"folio_train_on_startup":     "recommend.train_on_startup",
	"folio_train_interval":       "recommend.train_interval",
	"folio_train_timeout":        "recommend.train_timeout",
	"folio_breaker_max_failures": "recommend.breaker_max_failures",
	"folio_breaker_timeout":      "recommend.breaker_timeout",
}

// envTransformFunc maps environment variable names to koanf paths.
// Unmapped variables return "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
