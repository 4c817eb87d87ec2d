// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package models defines the JSON shapes of the Folio HTTP API.

Every endpoint answers with an APIResponse envelope. Successful responses
carry the payload in Data; failures carry an APIError with a stable,
machine-readable code:

	{
	  "status": "success",
	  "data": {"item": {...}, "items": [...], "k": 6},
	  "metadata": {
	    "timestamp": "2026-03-01T12:00:00Z",
	    "query_time_ms": 2,
	    "generation_id": "0195..."
	  }
	}

Recommendation payloads reuse the recommend package types directly; this
package only adds the envelope and the health and status documents.
*/
package models
