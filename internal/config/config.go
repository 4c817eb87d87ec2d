// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/folio/internal/database"
	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/recommend"
	"github.com/tomtom215/folio/internal/recommend/algorithms"
)

// Config holds all application configuration.
//
// Config is immutable after Load and safe for concurrent reads.
type Config struct {
	Logging   LoggingConfig   `koanf:"logging"`
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Ratings   RatingsConfig   `koanf:"ratings"`
	Recommend RecommendConfig `koanf:"recommend"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// SecurityConfig holds API protection settings.
type SecurityConfig struct {
	// JWTSecret signs admin tokens for POST /api/v1/train. Empty disables
	// the train endpoint.
	JWTSecret string `koanf:"jwt_secret" validate:"omitempty,min=32"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"min=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// RatingsConfig holds the rating store and import settings.
type RatingsConfig struct {
	DBPath       string        `koanf:"db_path" validate:"required"`
	MaxMemory    string        `koanf:"max_memory" validate:"required"`
	Threads      int           `koanf:"threads" validate:"min=0"`
	QueryTimeout time.Duration `koanf:"query_timeout" validate:"gt=0"`

	// BooksCSV and RatingsCSV are the Book-Crossing dumps used by import.
	BooksCSV   string `koanf:"books_csv"`
	RatingsCSV string `koanf:"ratings_csv"`
	Delimiter  string `koanf:"delimiter" validate:"len=1"`
	Encoding   string `koanf:"encoding"`

	// ImportOnStartup loads the CSV files into an empty store at startup.
	ImportOnStartup bool `koanf:"import_on_startup"`

	MinRating float64 `koanf:"min_rating"`
	MaxRating float64 `koanf:"max_rating"`
}

// RecommendConfig holds matrix, index, query, and trainer settings.
type RecommendConfig struct {
	MinUserActivity int    `koanf:"min_user_activity" validate:"min=1"`
	MinItemActivity int    `koanf:"min_item_activity" validate:"min=1"`
	Metric          string `koanf:"metric" validate:"metric"`
	DefaultK        int    `koanf:"default_k" validate:"min=2"`
	MaxK            int    `koanf:"max_k" validate:"min=2"`
	Duplicates      string `koanf:"duplicates" validate:"oneof=first last"`
	JoinKey         string `koanf:"join_key" validate:"oneof=item_id title"`
	Workers         int    `koanf:"workers" validate:"min=1"`

	ArtifactDir     string `koanf:"artifact_dir" validate:"required"`
	KeepGenerations int    `koanf:"keep_generations" validate:"min=0"`

	TrainOnStartup bool          `koanf:"train_on_startup"`
	TrainInterval  time.Duration `koanf:"train_interval" validate:"min=0"`
	TrainTimeout   time.Duration `koanf:"train_timeout" validate:"gt=0"`

	// BreakerMaxFailures consecutive scheduled failures open the breaker
	// for BreakerTimeout.
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures" validate:"min=1"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout" validate:"gt=0"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ShouldWarnAboutCORS reports whether any origin may call an API that also
// exposes the authenticated train endpoint.
func (c *Config) ShouldWarnAboutCORS() bool {
	if c.Security.JWTSecret == "" {
		return false
	}
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// EngineConfig converts the recommend and ratings sections into an engine
// configuration.
func (c *Config) EngineConfig() *recommend.Config {
	cfg := recommend.DefaultConfig()
	cfg.Build.MinUserActivity = c.Recommend.MinUserActivity
	cfg.Build.MinItemActivity = c.Recommend.MinItemActivity
	cfg.Build.Duplicates = recommend.DuplicatePolicy(c.Recommend.Duplicates)
	cfg.Build.MinRating = c.Ratings.MinRating
	cfg.Build.MaxRating = c.Ratings.MaxRating
	cfg.Index.Metric = recommend.Metric(c.Recommend.Metric)
	cfg.Query.DefaultK = c.Recommend.DefaultK
	cfg.Query.MaxK = c.Recommend.MaxK
	cfg.Query.JoinKey = recommend.JoinKey(c.Recommend.JoinKey)
	cfg.Training.Timeout = c.Recommend.TrainTimeout
	cfg.Training.KeepGenerations = c.Recommend.KeepGenerations
	return cfg
}

// RatingStoreConfig converts the ratings section into a rating store configuration.
func (c *Config) RatingStoreConfig() database.Config {
	return database.Config{
		Path:         c.Ratings.DBPath,
		MaxMemory:    c.Ratings.MaxMemory,
		Threads:      c.Ratings.Threads,
		QueryTimeout: c.Ratings.QueryTimeout,
	}
}

// KNNConfig returns the similarity index settings.
func (c *Config) KNNConfig() algorithms.KNNConfig {
	cfg := algorithms.DefaultKNNConfig()
	cfg.NumWorkers = c.Recommend.Workers
	return cfg
}

// ImportOptions returns the CSV import options from the ratings section.
func (c *Config) ImportOptions() database.ImportOptions {
	return database.ImportOptions{
		BooksPath:   c.Ratings.BooksCSV,
		RatingsPath: c.Ratings.RatingsCSV,
		Delimiter:   c.Ratings.Delimiter,
		Encoding:    c.Ratings.Encoding,
		MinRating:   c.Ratings.MinRating,
		MaxRating:   c.Ratings.MaxRating,
	}
}

// LogConfig converts the logging section for logging.Init.
func (c *Config) LogConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Logging.Level
	cfg.Format = c.Logging.Format
	cfg.Caller = c.Logging.Caller
	return cfg
}
