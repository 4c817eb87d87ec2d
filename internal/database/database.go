// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"
)

// Config holds rating store settings.
type Config struct {
	// Path is the DuckDB database file. ":memory:" opens an in-memory database.
	Path string

	// MaxMemory is DuckDB's memory limit, e.g. "2GB".
	MaxMemory string

	// Threads is the number of DuckDB threads (0 = NumCPU).
	Threads int

	// QueryTimeout bounds a single read or import.
	QueryTimeout time.Duration
}

// DefaultConfig returns the default rating store configuration.
func DefaultConfig() Config {
	return Config{
		Path:         "/data/folio.duckdb",
		MaxMemory:    "2GB",
		QueryTimeout: 5 * time.Minute,
	}
}

// DB wraps the DuckDB connection and serves ratings and book metadata.
type DB struct {
	conn   *sql.DB
	cfg    Config
	logger zerolog.Logger
}

// New opens the database and creates the schema.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg Config, logger zerolog.Logger) (*DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if cfg.MaxMemory == "" {
		cfg.MaxMemory = DefaultConfig().MaxMemory
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = DefaultConfig().QueryTimeout
	}

	if cfg.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	conn, err := sql.Open("duckdb", connString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:   conn,
		cfg:    cfg,
		logger: logger.With().Str("component", "database").Logger(),
	}
	db.configureConnectionPool()

	if err := db.createTables(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	db.logger.Info().Str("path", cfg.Path).Msg("rating store opened")
	return db, nil
}

// connString builds the DuckDB DSN with tuning options.
//
//nolint:gocritic // hugeParam: Config is small and read once
func connString(cfg Config) string {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	// Extensions are not needed; disabling autoload avoids network access.
	return fmt.Sprintf("%s?threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, threads, cfg.MaxMemory)
}

func (db *DB) configureConnectionPool() {
	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// queryContext applies the configured timeout to ctx.
func (db *DB) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, db.cfg.QueryTimeout)
}

// closeQuietly closes a resource in an error path where the Close error is
// not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
