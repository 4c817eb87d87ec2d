// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package services provides the suture services that folio serve supervises.

# TrainerService

TrainerService owns every automatic build: one on startup when no
generation is loaded and train_on_startup is set, then one per
train_interval. Automatic builds pass through a gobreaker circuit breaker
named "scheduled-train":

	closed ── N consecutive failures ──▶ open ── breaker_timeout ──▶ half-open
	  ▲                                                                 │
	  └──────────────────── trial build succeeds ───────────────────────┘

A rejected concurrent build counts as a success, since another build is
already doing the work. Manual builds (Train for the API's synchronous
path and the CLI, StartTrain for the API's background path) bypass the
breaker so an operator can always retry. Every build, manual or
scheduled, updates the build and generation metrics.

# HTTPServerService

HTTPServerService adapts http.Server's blocking ListenAndServe to suture's
context-driven Serve, with a bounded drain on shutdown and a forced close
once the drain window passes.
*/
package services
