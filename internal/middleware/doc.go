// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

// Package middleware provides HTTP middleware shared by the Folio API.
//
// All middleware use the chi signature func(http.Handler) http.Handler:
//
//	r := chi.NewRouter()
//	r.Use(middleware.RequestID)
//	r.Use(middleware.PrometheusMetrics)
//	r.Use(middleware.Compression)
//
// PrometheusMetrics labels requests by chi route pattern, so it must run
// inside a chi router for the pattern to be known.
package middleware
