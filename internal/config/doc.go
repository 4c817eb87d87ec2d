// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package config loads Folio configuration with Koanf v2.

Sources are layered, later layers overriding earlier ones:

 1. Defaults built into defaultConfig()
 2. An optional YAML file: $CONFIG_PATH, ./config.yaml, or /etc/folio/config.yaml
 3. Environment variables listed in envTransformFunc

Only mapped environment variables are read, so unrelated variables in the
process environment never leak into configuration.

Example config.yaml:

	server:
	  port: 8080
	ratings:
	  db_path: /data/folio.duckdb
	  books_csv: /data/BX-Books.csv
	  ratings_csv: /data/BX-Book-Ratings.csv
	recommend:
	  min_user_activity: 200
	  min_item_activity: 50
	  metric: euclidean
	  train_interval: 24h

Example environment overrides:

	FOLIO_PORT=9090
	FOLIO_MIN_USER_ACTIVITY=100
	FOLIO_CORS_ORIGINS=https://a.example,https://b.example

The section converters (EngineConfig, KNNConfig, RatingStoreConfig, LogConfig) turn the
loaded values into the configuration types of the packages that use them.
*/
package config
