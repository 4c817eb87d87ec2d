// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the rating store tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

func tableCreationQueries() []string {
	return []string{
		`CREATE SEQUENCE IF NOT EXISTS ratings_seq START 1`,
		`CREATE TABLE IF NOT EXISTS ratings (
			seq BIGINT NOT NULL DEFAULT nextval('ratings_seq'),
			user_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			rating DOUBLE NOT NULL
		)`,
		`CREATE SEQUENCE IF NOT EXISTS books_seq START 1`,
		`CREATE TABLE IF NOT EXISTS books (
			seq BIGINT NOT NULL DEFAULT nextval('books_seq'),
			item_id TEXT NOT NULL,
			title TEXT NOT NULL,
			author TEXT,
			year INTEGER,
			publisher TEXT,
			image_url TEXT
		)`,
	}
}
