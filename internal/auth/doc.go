// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

// Package auth issues and verifies the HS256 bearer tokens that guard
// administrative endpoints such as POST /api/v1/train.
//
// Tokens are minted offline with `folio token` and carry a subject and a
// role. Only RoleAdmin may trigger training.
package auth
