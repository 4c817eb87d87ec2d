// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package models

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/folio/internal/recommend"
)

func TestAPIResponse_OmitsEmptyFields(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(&APIResponse{
		Status:   StatusSuccess,
		Data:     map[string]int{"n": 1},
		Metadata: Metadata{Timestamp: time.Unix(0, 0).UTC()},
	})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	s := string(data)
	for _, absent := range []string{`"error"`, `"cached"`, `"generation_id"`, `"query_time_ms"`} {
		if strings.Contains(s, absent) {
			t.Errorf("response %s should omit %s", s, absent)
		}
	}
	if !strings.Contains(s, `"status":"success"`) {
		t.Errorf("response %s missing status", s)
	}
}

func TestAPIResponse_Error(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(&APIResponse{
		Status: StatusError,
		Error: &APIError{
			Code:    "UNKNOWN_ITEM",
			Message: "unknown title",
			Details: map[string]interface{}{"title": "Nope"},
		},
	})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded APIResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.Error == nil || decoded.Error.Code != "UNKNOWN_ITEM" {
		t.Fatalf("decoded error = %+v", decoded.Error)
	}
	if decoded.Error.Details["title"] != "Nope" {
		t.Errorf("details = %v", decoded.Error.Details)
	}
	if decoded.Data != nil {
		t.Errorf("Data = %v, want nil", decoded.Data)
	}
}

func TestNewEngineSettings(t *testing.T) {
	t.Parallel()

	cfg := recommend.DefaultConfig()
	cfg.Index.Metric = recommend.MetricCosine
	cfg.Query.MaxK = 21

	got := NewEngineSettings(cfg)
	if got.Metric != recommend.MetricCosine || got.MaxK != 21 {
		t.Errorf("NewEngineSettings() = %+v", got)
	}
	if got.DefaultK != cfg.Query.DefaultK || got.MinUserActivity != cfg.Build.MinUserActivity {
		t.Errorf("NewEngineSettings() = %+v, want values from %+v", got, cfg)
	}
}
