// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/folio/internal/auth"
	"github.com/tomtom215/folio/internal/cache"
	"github.com/tomtom215/folio/internal/database"
	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend"
	"github.com/tomtom215/folio/internal/recommend/algorithms"
	"github.com/tomtom215/folio/internal/recommend/storage"
)

const testSecret = "test_secret_with_at_least_32_characters_for_testing"

// envelope mirrors models.APIResponse with a raw payload.
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

// scenario returns five users rating four books. Alpha and Beta have
// identical rating vectors.
func scenario() ([]recommend.Rating, []recommend.Item) {
	vectors := map[string][]float64{
		"isbn-a": {5, 4, 3, 2, 1},
		"isbn-b": {5, 4, 3, 2, 1},
		"isbn-c": {1, 1, 1, 1, 1},
		"isbn-d": {9, 9, 9, 9, 9},
	}

	var ratings []recommend.Rating
	for _, item := range []string{"isbn-a", "isbn-b", "isbn-c", "isbn-d"} {
		for u, v := range vectors[item] {
			ratings = append(ratings, recommend.Rating{UserID: fmt.Sprintf("u%d", u+1), ItemID: item, Rating: v})
		}
	}
	// u6 gives Gamma and Delta one more rating each without changing which
	// books are nearest to Alpha.
	ratings = append(ratings,
		recommend.Rating{UserID: "u6", ItemID: "isbn-c", Rating: 1},
		recommend.Rating{UserID: "u6", ItemID: "isbn-d", Rating: 9},
	)

	items := []recommend.Item{
		{ItemID: "isbn-a", Title: "Alpha", ImageURL: "http://img/a.jpg"},
		{ItemID: "isbn-b", Title: "Beta", ImageURL: "http://img/b.jpg"},
		{ItemID: "isbn-c", Title: "Gamma", ImageURL: "http://img/c.jpg"},
		{ItemID: "isbn-d", Title: "Delta", ImageURL: "http://img/d.jpg"},
	}
	return ratings, items
}

type testServer struct {
	engine  *recommend.Engine
	handler *Handler
	router  http.Handler
	jwt     *auth.JWTManager
}

type serverOptions struct {
	source      recommend.RatingSource
	trained     bool
	noJWT       bool
	trainer     Trainer
	store       RatingStore
	rateLimited int
}

func newTestServer(t *testing.T, opts serverOptions) *testServer {
	t.Helper()

	store, err := storage.Open(storage.Config{InMemory: true, KNN: algorithms.DefaultKNNConfig()}, zerolog.Nop())
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cfg := recommend.DefaultConfig()
	cfg.Build.MinUserActivity = 2
	cfg.Build.MinItemActivity = 2

	var source recommend.RatingSource = opts.source
	if source == nil {
		ratings, items := scenario()
		source = recommend.NewMemorySource(ratings, items)
	}
	engine, err := recommend.NewEngine(cfg, source, store,
		algorithms.NewFitter(algorithms.DefaultKNNConfig()), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if opts.trained {
		if _, err := engine.Train(context.Background()); err != nil {
			t.Fatalf("Train() error = %v", err)
		}
	}

	var jwtManager *auth.JWTManager
	if !opts.noJWT {
		jwtManager, err = auth.NewJWTManager(testSecret, time.Hour)
		if err != nil {
			t.Fatalf("NewJWTManager() error = %v", err)
		}
	}

	var trainer Trainer = engine
	if opts.trainer != nil {
		trainer = opts.trainer
	}

	mwConfig := DefaultChiMiddlewareConfig()
	mwConfig.CORSAllowedOrigins = []string{"*"}
	if opts.rateLimited > 0 {
		mwConfig.RateLimitRequests = opts.rateLimited
	} else {
		mwConfig.RateLimitDisabled = true
	}

	h := NewHandler(engine, trainer, opts.store, jwtManager, HandlerConfig{})
	t.Cleanup(h.Wait)

	return &testServer{
		engine:  engine,
		handler: h,
		router:  NewRouter(h, NewChiMiddleware(mwConfig)).SetupChi(),
		jwt:     jwtManager,
	}
}

func (s *testServer) do(t *testing.T, method, target, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v\n%s", method, target, err, rec.Body.String())
		}
	}
	return rec, env
}

func (s *testServer) token(t *testing.T, role string) string {
	t.Helper()
	token, err := s.jwt.GenerateToken("ops", role, 0)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	return token
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode data: %v\n%s", err, env.Data)
	}
	return out
}

func TestRecommendations_ByTitle(t *testing.T) {
	s := newTestServer(t, serverOptions{trained: true})
	genID := s.engine.Current().ID()

	rec, env := s.do(t, http.MethodGet, "/api/v1/recommendations?title=Alpha", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if env.Status != models.StatusSuccess || env.Metadata.GenerationID != genID || env.Metadata.Cached {
		t.Errorf("envelope = %+v", env)
	}

	res := decodeData[recommend.Result](t, env)
	if res.Item.Title != "Alpha" || res.Item.ImageURL != "http://img/a.jpg" {
		t.Errorf("item = %+v", res.Item)
	}
	// Default K is capped by the four rows, self excluded.
	if len(res.Items) != 3 {
		t.Fatalf("len(items) = %d, want 3", len(res.Items))
	}
	if res.Items[0].Title != "Beta" || res.Items[0].Distance != 0 {
		t.Errorf("first neighbor = %+v, want Beta at distance 0", res.Items[0])
	}
	for _, item := range res.Items {
		if item.ItemID == "isbn-a" {
			t.Error("query book returned as its own recommendation")
		}
	}

	// Same query again is served from the result cache.
	_, env = s.do(t, http.MethodGet, "/api/v1/recommendations?title=Alpha", "")
	if !env.Metadata.Cached {
		t.Error("second identical query should be cached")
	}
}

func TestRecommendations_ByItemIDWithK(t *testing.T) {
	s := newTestServer(t, serverOptions{trained: true})

	rec, env := s.do(t, http.MethodGet, "/api/v1/recommendations?item_id=isbn-a&k=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	res := decodeData[recommend.Result](t, env)
	if res.K != 2 || len(res.Items) != 1 || res.Items[0].ItemID != "isbn-b" {
		t.Errorf("result = %+v, want the single neighbor isbn-b", res)
	}
}

func TestRecommendations_Errors(t *testing.T) {
	s := newTestServer(t, serverOptions{trained: true})

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantCode   string
	}{
		{name: "unknown title", target: "/api/v1/recommendations?title=Nope", wantStatus: http.StatusNotFound, wantCode: CodeUnknownItem},
		{name: "unknown item id", target: "/api/v1/recommendations?item_id=000", wantStatus: http.StatusNotFound, wantCode: CodeUnknownItem},
		{name: "no title or item", target: "/api/v1/recommendations", wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_FAILED"},
		{name: "k of one", target: "/api/v1/recommendations?title=Alpha&k=1", wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_FAILED"},
		{name: "k not a number", target: "/api/v1/recommendations?title=Alpha&k=six", wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_FAILED"},
		{name: "blank title", target: "/api/v1/recommendations?title=%20%20", wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(t, http.MethodGet, tt.target, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if env.Status != models.StatusError || env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("envelope = %+v, want code %s", env, tt.wantCode)
			}
		})
	}

	_, env := s.do(t, http.MethodGet, "/api/v1/recommendations?title=Nope", "")
	if env.Error.Details["title"] != "Nope" {
		t.Errorf("details = %v, want title Nope", env.Error.Details)
	}
}

func TestRecommendations_NotTrained(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	rec, env := s.do(t, http.MethodGet, "/api/v1/recommendations?title=Alpha", "")
	if rec.Code != http.StatusServiceUnavailable || env.Error.Code != CodeNotTrained {
		t.Errorf("status = %d, error = %+v", rec.Code, env.Error)
	}

	rec, env = s.do(t, http.MethodGet, "/api/v1/titles", "")
	if rec.Code != http.StatusServiceUnavailable || env.Error.Code != CodeNotTrained {
		t.Errorf("titles status = %d, error = %+v", rec.Code, env.Error)
	}
}

func TestTitles(t *testing.T) {
	s := newTestServer(t, serverOptions{trained: true})

	tests := []struct {
		name   string
		target string
		want   []string
	}{
		{name: "all sorted", target: "/api/v1/titles", want: []string{"Alpha", "Beta", "Delta", "Gamma"}},
		{name: "limited", target: "/api/v1/titles?limit=2", want: []string{"Alpha", "Beta"}},
		{name: "prefix", target: "/api/v1/titles?prefix=de", want: []string{"Delta"}},
		{name: "no match", target: "/api/v1/titles?prefix=zzz", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(t, http.MethodGet, tt.target, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			got := decodeData[TitlesResponse](t, env)
			titles := make([]string, len(got.Titles))
			for i, m := range got.Titles {
				titles[i] = m.Title
			}
			if strings.Join(titles, ",") != strings.Join(tt.want, ",") {
				t.Errorf("titles = %v, want %v", titles, tt.want)
			}
			if got.Total != 4 {
				t.Errorf("total = %d, want 4", got.Total)
			}
		})
	}

	rec, _ := s.do(t, http.MethodGet, "/api/v1/titles?limit=-1", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative limit status = %d, want 400", rec.Code)
	}
}

func TestTitles_WeightedByRatings(t *testing.T) {
	s := newTestServer(t, serverOptions{trained: true})

	gen := s.engine.Current()
	matches := s.handler.titleIndex(gen).Complete("", 0)
	if len(matches) != 4 {
		t.Fatalf("len(matches) = %d, want 4", len(matches))
	}
	want := []cache.TitleMatch{
		{Title: "Delta", Weight: 6},
		{Title: "Gamma", Weight: 6},
		{Title: "Alpha", Weight: 5},
		{Title: "Beta", Weight: 5},
	}
	for i := range want {
		if matches[i] != want[i] {
			t.Errorf("matches[%d] = %+v, want %+v", i, matches[i], want[i])
		}
	}

	// The index is reused for the same generation.
	if s.handler.titleIndex(gen) != s.handler.titleIndex(gen) {
		t.Error("title index rebuilt for an unchanged generation")
	}
}

func TestStatusAndGenerations(t *testing.T) {
	counts := &fakeRatingStore{counts: database.Counts{Ratings: 22, Users: 6, Books: 4}}
	s := newTestServer(t, serverOptions{trained: true, store: counts})

	rec, env := s.do(t, http.MethodGet, "/api/v1/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	status := decodeData[models.ServiceStatus](t, env)
	if status.Training.CurrentGeneration != s.engine.Current().ID() {
		t.Errorf("current generation = %q", status.Training.CurrentGeneration)
	}
	if status.Ratings == nil || status.Ratings.Ratings != 22 {
		t.Errorf("ratings = %+v", status.Ratings)
	}
	if status.Engine.MinUserActivity != 2 || status.Engine.Metric != recommend.MetricEuclidean {
		t.Errorf("engine = %+v", status.Engine)
	}

	rec, env = s.do(t, http.MethodGet, "/api/v1/generations", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("generations status = %d", rec.Code)
	}
	manifests := decodeData[[]recommend.Manifest](t, env)
	if len(manifests) != 1 || manifests[0].ID != s.engine.Current().ID() {
		t.Errorf("manifests = %+v", manifests)
	}
}

func TestTrain_Auth(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	rec, env := s.do(t, http.MethodPost, "/api/v1/train", "")
	if rec.Code != http.StatusUnauthorized || env.Error.Code != CodeUnauthorized {
		t.Errorf("no token: status = %d, error = %+v", rec.Code, env.Error)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("missing WWW-Authenticate header")
	}

	rec, _ = s.do(t, http.MethodPost, "/api/v1/train", "not-a-jwt")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", rec.Code)
	}

	rec, env = s.do(t, http.MethodPost, "/api/v1/train", s.token(t, auth.RoleViewer))
	if rec.Code != http.StatusForbidden || env.Error.Code != CodeForbidden {
		t.Errorf("viewer: status = %d, error = %+v", rec.Code, env.Error)
	}

	if s.engine.Current() != nil {
		t.Error("rejected requests must not train")
	}
}

func TestTrain_SecurityEventsHaveOneComponent(t *testing.T) {
	var buf bytes.Buffer
	prev := logging.Logger()
	logging.SetLogger(logging.NewTestLogger(&buf))
	t.Cleanup(func() { logging.SetLogger(prev) })

	s := newTestServer(t, serverOptions{})
	rec, _ := s.do(t, http.MethodPost, "/api/v1/train", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	found := false
	for _, line := range lines {
		if !strings.Contains(line, `"event":"token_rejected"`) {
			continue
		}
		found = true
		if n := strings.Count(line, `"component"`); n != 1 {
			t.Errorf("component keys = %d, want 1: %s", n, line)
		}
		if !strings.Contains(line, `"component":"auth"`) {
			t.Errorf("component is not auth: %s", line)
		}
	}
	if !found {
		t.Fatalf("no token_rejected event logged: %s", buf.String())
	}
}

func TestRecommendations_NewGenerationClearsResultCache(t *testing.T) {
	s := newTestServer(t, serverOptions{trained: true})

	s.do(t, http.MethodGet, "/api/v1/recommendations?title=Alpha", "")
	s.do(t, http.MethodGet, "/api/v1/recommendations?title=Beta", "")
	if got := s.handler.results.Len(); got != 2 {
		t.Fatalf("cached results = %d, want 2", got)
	}

	if _, err := s.engine.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	rec, env := s.do(t, http.MethodGet, "/api/v1/recommendations?title=Alpha", "")
	if rec.Code != http.StatusOK || env.Metadata.Cached {
		t.Fatalf("status = %d, cached = %v; want a fresh result", rec.Code, env.Metadata.Cached)
	}
	if env.Metadata.GenerationID != s.engine.Current().ID() {
		t.Errorf("generation = %q, want %q", env.Metadata.GenerationID, s.engine.Current().ID())
	}
	if got := s.handler.results.Len(); got != 1 {
		t.Errorf("cached results after rebuild = %d, want 1", got)
	}
}

func TestTrain_Synchronous(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	rec, env := s.do(t, http.MethodPost, "/api/v1/train", s.token(t, auth.RoleAdmin))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	res := decodeData[recommend.TrainResult](t, env)
	if s.engine.Current() == nil || res.GenerationID != s.engine.Current().ID() {
		t.Errorf("trained generation %q not current", res.GenerationID)
	}
	if env.Metadata.GenerationID != res.GenerationID {
		t.Errorf("metadata generation = %q", env.Metadata.GenerationID)
	}
}

func TestTrain_Background(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	rec, env := s.do(t, http.MethodPost, "/api/v1/train?wait=false", s.token(t, auth.RoleAdmin))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !decodeData[TrainAccepted](t, env).Accepted {
		t.Error("accepted = false")
	}

	s.handler.Wait()
	if s.engine.Current() == nil {
		t.Error("background training did not publish a generation")
	}

	rec, _ = s.do(t, http.MethodPost, "/api/v1/train?wait=maybe", s.token(t, auth.RoleAdmin))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid wait: status = %d, want 400", rec.Code)
	}
}

func TestTrain_BackgroundRejectsConcurrentBuild(t *testing.T) {
	ratings, items := scenario()
	source := &gatedSource{MemorySource: recommend.NewMemorySource(ratings, items), open: make(chan struct{})}
	s := newTestServer(t, serverOptions{source: source})

	var release sync.Once
	openGate := func() { release.Do(func() { close(source.open) }) }
	t.Cleanup(openGate)

	token := s.token(t, auth.RoleAdmin)

	rec, _ := s.do(t, http.MethodPost, "/api/v1/train?wait=false", token)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("first request status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec, env := s.do(t, http.MethodPost, "/api/v1/train?wait=false", token)
	if rec.Code != http.StatusConflict || env.Error == nil || env.Error.Code != CodeBuildInProgress {
		t.Errorf("second background request: status = %d, error = %+v; want 409 %s", rec.Code, env.Error, CodeBuildInProgress)
	}

	rec, env = s.do(t, http.MethodPost, "/api/v1/train", token)
	if rec.Code != http.StatusConflict || env.Error == nil || env.Error.Code != CodeBuildInProgress {
		t.Errorf("synchronous request: status = %d, error = %+v; want 409 %s", rec.Code, env.Error, CodeBuildInProgress)
	}

	openGate()
	s.handler.Wait()
	if s.engine.Current() == nil {
		t.Error("first background build did not publish a generation")
	}
}

func TestTrain_DomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "concurrent", err: &recommend.ConcurrentBuildError{Stage: "fit_index"}, wantStatus: http.StatusConflict, wantCode: CodeBuildInProgress},
		{name: "insufficient", err: &recommend.InsufficientDataError{MinUserActivity: 200, MinItemActivity: 50}, wantStatus: http.StatusUnprocessableEntity, wantCode: CodeInsufficientData},
		{name: "invalid rating", err: &recommend.InvalidRatingError{Reason: "rating is NaN"}, wantStatus: http.StatusUnprocessableEntity, wantCode: CodeInvalidRating},
		{name: "artifact", err: &recommend.ArtifactMissingError{Artifact: "index"}, wantStatus: http.StatusInternalServerError, wantCode: CodeArtifact},
		{name: "other", err: fmt.Errorf("disk on fire"), wantStatus: http.StatusInternalServerError, wantCode: CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, serverOptions{trainer: &fakeTrainer{err: tt.err}})

			rec, env := s.do(t, http.MethodPost, "/api/v1/train", s.token(t, auth.RoleAdmin))
			if rec.Code != tt.wantStatus || env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("status = %d, error = %+v; want %d %s", rec.Code, env.Error, tt.wantStatus, tt.wantCode)
			}
			if tt.wantStatus == http.StatusInternalServerError && strings.Contains(rec.Body.String(), "disk on fire") {
				t.Error("internal error details leaked to client")
			}
		})
	}
}

func TestTrain_NotMountedWithoutSecret(t *testing.T) {
	s := newTestServer(t, serverOptions{noJWT: true})

	rec, env := s.do(t, http.MethodPost, "/api/v1/train", "")
	if rec.Code != http.StatusNotFound || env.Error.Code != CodeNotFound {
		t.Errorf("status = %d, error = %+v", rec.Code, env.Error)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, serverOptions{store: &fakeRatingStore{}})

	rec, _ := s.do(t, http.MethodGet, "/api/v1/health/live", "")
	if rec.Code != http.StatusOK {
		t.Errorf("live status = %d", rec.Code)
	}

	rec, env := s.do(t, http.MethodGet, "/api/v1/health/ready", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("untrained ready status = %d, want 503", rec.Code)
	}
	if health := decodeData[models.HealthStatus](t, env); health.Trained || health.Status != "degraded" {
		t.Errorf("health = %+v", health)
	}

	if _, err := s.engine.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	rec, env = s.do(t, http.MethodGet, "/api/v1/health/ready", "")
	if rec.Code != http.StatusOK {
		t.Errorf("trained ready status = %d, want 200", rec.Code)
	}
	if health := decodeData[models.HealthStatus](t, env); !health.Trained || !health.DatabaseConnected {
		t.Errorf("health = %+v", health)
	}

	s.handler.store = &fakeRatingStore{pingErr: fmt.Errorf("closed")}
	rec, _ = s.do(t, http.MethodGet, "/api/v1/health/ready", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("store down ready status = %d, want 503", rec.Code)
	}
}

func TestRouter_CommonBehavior(t *testing.T) {
	s := newTestServer(t, serverOptions{trained: true})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") != "req-123" {
		t.Errorf("X-Request-ID = %q", rec.Header().Get("X-Request-ID"))
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff header")
	}
	if rec.Header().Get("ETag") == "" {
		t.Error("missing ETag")
	}
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Metadata.RequestID != "req-123" {
		t.Errorf("metadata request id = %q", env.Metadata.RequestID)
	}

	rec, env = s.do(t, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound || env.Error.Code != CodeNotFound {
		t.Errorf("unknown route: status = %d, error = %+v", rec.Code, env.Error)
	}

	rec, env = s.do(t, http.MethodDelete, "/api/v1/status", "")
	if rec.Code != http.StatusMethodNotAllowed || env.Error.Code != CodeMethodNotAllowed {
		t.Errorf("wrong method: status = %d, error = %+v", rec.Code, env.Error)
	}

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "folio_") {
		t.Errorf("metrics status = %d", rec.Code)
	}
}

func TestRouter_RateLimit(t *testing.T) {
	s := newTestServer(t, serverOptions{trained: true, rateLimited: 2})

	for i := 0; i < 2; i++ {
		if rec, _ := s.do(t, http.MethodGet, "/api/v1/status", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}

	rec, env := s.do(t, http.MethodGet, "/api/v1/status", "")
	if rec.Code != http.StatusTooManyRequests || env.Error.Code != CodeRateLimited {
		t.Errorf("status = %d, error = %+v", rec.Code, env.Error)
	}
}

func TestRouter_Compression(t *testing.T) {
	s := newTestServer(t, serverOptions{trained: true})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/titles", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Errorf("Content-Encoding = %q, want gzip", rec.Header().Get("Content-Encoding"))
	}
}

type fakeTrainer struct {
	err error
}

func (f *fakeTrainer) Train(context.Context) (*recommend.TrainResult, error) {
	return nil, f.err
}

func (f *fakeTrainer) StartTrain(_ context.Context, done func(*recommend.TrainResult, error)) error {
	if f.err != nil {
		return f.err
	}
	go done(&recommend.TrainResult{GenerationID: "fake"}, nil)
	return nil
}

// gatedSource holds Ratings until open is closed.
type gatedSource struct {
	*recommend.MemorySource
	open chan struct{}
}

func (g *gatedSource) Ratings(ctx context.Context) ([]recommend.Rating, error) {
	select {
	case <-g.open:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.MemorySource.Ratings(ctx)
}

type fakeRatingStore struct {
	counts  database.Counts
	pingErr error
}

func (f *fakeRatingStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeRatingStore) Counts(context.Context) (database.Counts, error) {
	return f.counts, nil
}
