// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

// Package logging provides the process-wide zerolog logger for Folio.
//
// The global logger is configured once from the logging section of the
// configuration and handed to components, which derive their own child
// loggers with a component field:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	engineLogger := logging.WithComponent("recommend")
//
// # Context
//
// HTTP handlers attach the chi request id to the context; Ctx returns a logger
// carrying it:
//
//	logging.Ctx(r.Context()).Info().Str("title", title).Msg("query")
//
// # slog
//
// The suture supervisor logs through sutureslog, which needs a *slog.Logger.
// NewSlogLogger bridges slog records into zerolog so every line of output has
// the same format.
//
// # Security Events
//
// SecurityLogger records decisions of the train endpoint authenticator with
// bearer tokens masked.
package logging
