// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tomtom215/folio/internal/metrics"
)

// ImportOptions configures a Book-Crossing CSV import.
type ImportOptions struct {
	// BooksPath is the BX-Books.csv file. Empty skips books.
	BooksPath string

	// RatingsPath is the BX-Book-Ratings.csv file. Empty skips ratings.
	RatingsPath string

	// Delimiter defaults to ';'.
	Delimiter string

	// Encoding is passed to read_csv when set, e.g. "latin-1".
	Encoding string

	// Replace clears both tables before loading.
	Replace bool

	// MinRating and MaxRating bound imported ratings (inclusive). Rows
	// outside the range are skipped. Both zero disables the check.
	MinRating float64
	MaxRating float64
}

// hasBounds reports whether a rating range is configured.
//
//nolint:gocritic // hugeParam: options are read once per import
func (o ImportOptions) hasBounds() bool {
	return o.MinRating != 0 || o.MaxRating != 0
}

// ImportStats reports rows loaded by an import.
type ImportStats struct {
	Books    int64         `json:"books"`
	Ratings  int64         `json:"ratings"`
	Duration time.Duration `json:"duration"`
}

// ImportBookCrossing loads the Book-Crossing CSV dumps in a single
// transaction. Malformed lines are skipped.
func (db *DB) ImportBookCrossing(ctx context.Context, opts ImportOptions) (stats ImportStats, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("import", time.Since(start), err) }()

	if opts.BooksPath == "" && opts.RatingsPath == "" {
		return stats, fmt.Errorf("no input files given")
	}
	for _, p := range []string{opts.BooksPath, opts.RatingsPath} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			return stats, fmt.Errorf("input file: %w", err)
		}
	}
	if opts.Delimiter == "" {
		opts.Delimiter = ";"
	}

	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if opts.Replace {
		for _, table := range []string{"ratings", "books"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return stats, fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
	}

	if opts.BooksPath != "" {
		query := fmt.Sprintf(`
			INSERT INTO books (item_id, title, author, year, publisher, image_url)
			SELECT trim("ISBN"), "Book-Title", "Book-Author",
			       TRY_CAST("Year-Of-Publication" AS INTEGER), "Publisher", "Image-URL-L"
			FROM %s
			WHERE "ISBN" IS NOT NULL AND trim("ISBN") <> ''
			  AND "Book-Title" IS NOT NULL AND trim("Book-Title") <> ''`,
			readCSV(opts.BooksPath, opts))
		if stats.Books, err = execCount(ctx, tx, query); err != nil {
			return stats, fmt.Errorf("failed to import books: %w", err)
		}
	}

	if opts.RatingsPath != "" {
		query := fmt.Sprintf(`
			INSERT INTO ratings (user_id, item_id, rating)
			SELECT trim("User-ID"), trim("ISBN"), TRY_CAST("Book-Rating" AS DOUBLE)
			FROM %s
			WHERE "User-ID" IS NOT NULL AND trim("User-ID") <> ''
			  AND "ISBN" IS NOT NULL AND trim("ISBN") <> ''
			  AND TRY_CAST("Book-Rating" AS DOUBLE) IS NOT NULL`,
			readCSV(opts.RatingsPath, opts))
		var args []any
		if opts.hasBounds() {
			query += `
			  AND TRY_CAST("Book-Rating" AS DOUBLE) BETWEEN ? AND ?`
			args = append(args, opts.MinRating, opts.MaxRating)
		}
		if stats.Ratings, err = execCount(ctx, tx, query, args...); err != nil {
			return stats, fmt.Errorf("failed to import ratings: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("failed to commit import: %w", err)
	}

	stats.Duration = time.Since(start)
	db.logger.Info().
		Int64("books", stats.Books).
		Int64("ratings", stats.Ratings).
		Dur("duration", stats.Duration).
		Msg("Book-Crossing import complete")
	return stats, nil
}

// readCSV renders a read_csv table function call. Every column is read as
// text so that casting happens in the SELECT.
//
//nolint:gocritic // hugeParam: options are read once per import
func readCSV(path string, opts ImportOptions) string {
	args := []string{
		quoteLiteral(path),
		"delim=" + quoteLiteral(opts.Delimiter),
		"header=true",
		"quote='\"'",
		"all_varchar=true",
		"ignore_errors=true",
	}
	if opts.Encoding != "" {
		args = append(args, "encoding="+quoteLiteral(opts.Encoding))
	}
	return "read_csv(" + strings.Join(args, ", ") + ")"
}

func execCount(ctx context.Context, tx *sql.Tx, query string, args ...any) (int64, error) {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// quoteLiteral renders s as a SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
