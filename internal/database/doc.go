// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package database is the DuckDB rating store.

It holds two tables, ratings and books, loaded from the Book-Crossing CSV
dumps with DuckDB's read_csv, and serves them to the recommendation engine
as a recommend.RatingSource:

	db, err := database.New(database.Config{Path: "/data/folio.duckdb"}, logger)
	stats, err := db.ImportBookCrossing(ctx, database.ImportOptions{
	    BooksPath:   "BX-Books.csv",
	    RatingsPath: "BX-Book-Ratings.csv",
	})
	engine, err := recommend.NewEngine(cfg, db, store, fit, logger)

# Ordering

Both tables carry a seq column assigned at insert time. Ratings are returned
in seq order, which is the order of the source file; the matrix builder's
duplicate policy depends on it. Items are returned one row per item id, the
first by seq.

# Schema

	ratings(seq, user_id, item_id, rating)
	books(seq, item_id, title, author, year, publisher, image_url)

Rows with an empty user id, item id or title, or a rating that is not a
number, are dropped on import.
*/
package database
