// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/folio/internal/metrics"
	"github.com/tomtom215/folio/internal/recommend"
)

// Counts summarizes the rating store contents.
type Counts struct {
	Ratings int64 `json:"ratings"`
	Users   int64 `json:"users"`
	Books   int64 `json:"books"`
}

// Ratings returns every rating in insertion order.
func (db *DB) Ratings(ctx context.Context) (result []recommend.Rating, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("ratings", time.Since(start), err) }()

	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id, item_id, rating FROM ratings ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer closeQuietly(rows)

	for rows.Next() {
		var r recommend.Rating
		if err := rows.Scan(&r.UserID, &r.ItemID, &r.Rating); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ratings: %w", err)
	}

	metrics.RecordRowsRead("ratings", len(result))
	return result, nil
}

// Items returns book metadata, one row per item id (the first inserted).
func (db *DB) Items(ctx context.Context) (result []recommend.Item, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("items", time.Since(start), err) }()

	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT item_id, title, COALESCE(author, ''), COALESCE(year, 0),
		       COALESCE(publisher, ''), COALESCE(image_url, '')
		FROM books
		QUALIFY row_number() OVER (PARTITION BY item_id ORDER BY seq) = 1
		ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer closeQuietly(rows)

	for rows.Next() {
		var it recommend.Item
		if err := rows.Scan(&it.ItemID, &it.Title, &it.Author, &it.Year, &it.Publisher, &it.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		result = append(result, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating books: %w", err)
	}

	metrics.RecordRowsRead("books", len(result))
	return result, nil
}

// Counts returns row counts for the status endpoint.
func (db *DB) Counts(ctx context.Context) (c Counts, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("counts", time.Since(start), err) }()

	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	err = db.conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM ratings),
			(SELECT COUNT(DISTINCT user_id) FROM ratings),
			(SELECT COUNT(DISTINCT item_id) FROM books)`).Scan(&c.Ratings, &c.Users, &c.Books)
	if err != nil {
		return Counts{}, fmt.Errorf("failed to count rows: %w", err)
	}
	return c, nil
}

// InsertRatings appends ratings in slice order.
func (db *DB) InsertRatings(ctx context.Context, ratings []recommend.Rating) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("insert_ratings", time.Since(start), err) }()

	return db.insertBatch(ctx, `INSERT INTO ratings (user_id, item_id, rating) VALUES (?, ?, ?)`,
		len(ratings), func(i int) []any {
			r := ratings[i]
			return []any{r.UserID, r.ItemID, r.Rating}
		})
}

// InsertItems appends book metadata in slice order.
func (db *DB) InsertItems(ctx context.Context, items []recommend.Item) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("insert_items", time.Since(start), err) }()

	return db.insertBatch(ctx,
		`INSERT INTO books (item_id, title, author, year, publisher, image_url) VALUES (?, ?, ?, ?, ?, ?)`,
		len(items), func(i int) []any {
			it := items[i]
			return []any{it.ItemID, it.Title, it.Author, it.Year, it.Publisher, it.ImageURL}
		})
}

// insertBatch runs one prepared statement n times inside a transaction.
func (db *DB) insertBatch(ctx context.Context, query string, n int, args func(i int) []any) error {
	if n == 0 {
		return nil
	}

	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer closeQuietly(stmt)

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit insert: %w", err)
	}
	return nil
}

// Truncate removes all ratings and books.
func (db *DB) Truncate(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("truncate", time.Since(start), err) }()

	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	for _, table := range []string{"ratings", "books"} {
		if _, err := db.conn.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	return nil
}

var _ recommend.RatingSource = (*DB)(nil)
