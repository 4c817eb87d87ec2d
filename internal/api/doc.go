// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package api provides the HTTP/JSON interface of Folio on a Chi router.

Endpoints:

	GET  /api/v1/recommendations?title=...&k=6   books similar to a title
	GET  /api/v1/recommendations?item_id=...      books similar to an ISBN
	GET  /api/v1/titles?prefix=...&limit=20       title autocomplete
	GET  /api/v1/status                           training state and counts
	GET  /api/v1/generations                      stored generations
	POST /api/v1/train[?wait=false]               rebuild (admin token)
	GET  /api/v1/health/live, /api/v1/health/ready
	GET  /metrics                                 Prometheus scrape

Every response uses the models.APIResponse envelope. Domain errors from the
recommend package map to fixed status codes:

	unknown item       404 UNKNOWN_ITEM
	not trained        503 NOT_TRAINED
	build in progress  409 BUILD_IN_PROGRESS
	insufficient data  422 INSUFFICIENT_DATA
	invalid rating     422 INVALID_RATING
	bad parameters     400 VALIDATION_FAILED
	artifact failure   500 ARTIFACT_ERROR
	anything else      500 INTERNAL_ERROR

Recommendation results are cached per generation in a cache.LFU, so a retrain
never serves stale neighbors. The train endpoint is only mounted when a JWT
secret is configured and requires a bearer token with the admin role.
*/
package api
