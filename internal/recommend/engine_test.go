// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package recommend_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/folio/internal/recommend"
	"github.com/tomtom215/folio/internal/recommend/algorithms"
	"github.com/tomtom215/folio/internal/recommend/storage"
)

// scenarioData returns five users rating four items. Alpha and Beta have
// identical rating vectors.
func scenarioData() ([]recommend.Rating, []recommend.Item) {
	vectors := map[string][]float64{
		"isbn-a": {5, 4, 3, 2, 1},
		"isbn-b": {5, 4, 3, 2, 1},
		"isbn-c": {1, 1, 1, 1, 1},
		"isbn-d": {9, 9, 9, 9, 9},
	}

	var ratings []recommend.Rating
	for _, item := range []string{"isbn-a", "isbn-b", "isbn-c", "isbn-d"} {
		for u, v := range vectors[item] {
			ratings = append(ratings, recommend.Rating{
				UserID: fmt.Sprintf("u%d", u+1),
				ItemID: item,
				Rating: v,
			})
		}
	}

	items := []recommend.Item{
		{ItemID: "isbn-a", Title: "Alpha", ImageURL: "http://img/a.jpg"},
		{ItemID: "isbn-b", Title: "Beta", ImageURL: "http://img/b.jpg"},
		{ItemID: "isbn-c", Title: "Gamma", ImageURL: "http://img/c.jpg"},
		{ItemID: "isbn-d", Title: "Delta", ImageURL: "http://img/d.jpg"},
	}
	return ratings, items
}

func testConfig() *recommend.Config {
	cfg := recommend.DefaultConfig()
	cfg.Build.MinUserActivity = 2
	cfg.Build.MinItemActivity = 2
	return cfg
}

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()

	s, err := storage.Open(storage.Config{InMemory: true, KNN: algorithms.DefaultKNNConfig()}, zerolog.Nop())
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestEngine(t *testing.T, cfg *recommend.Config, source recommend.RatingSource, store recommend.ArtifactStore) *recommend.Engine {
	t.Helper()

	e, err := recommend.NewEngine(cfg, source, store, algorithms.NewFitter(algorithms.DefaultKNNConfig()), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func trainedEngine(t *testing.T) (*recommend.Engine, *storage.Store) {
	t.Helper()

	ratings, items := scenarioData()
	store := newTestStore(t)
	e := newTestEngine(t, testConfig(), recommend.NewMemorySource(ratings, items), store)
	if _, err := e.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	return e, store
}

func TestNewEngine_Validation(t *testing.T) {
	ratings, items := scenarioData()
	source := recommend.NewMemorySource(ratings, items)
	store := newTestStore(t)
	fit := algorithms.NewFitter(algorithms.DefaultKNNConfig())

	bad := recommend.DefaultConfig()
	bad.Query.DefaultK = 1

	tests := []struct {
		name   string
		cfg    *recommend.Config
		source recommend.RatingSource
		store  recommend.ArtifactStore
		fit    recommend.IndexFitFunc
	}{
		{name: "invalid config", cfg: bad, source: source, store: store, fit: fit},
		{name: "nil source", cfg: nil, source: nil, store: store, fit: fit},
		{name: "nil store", cfg: nil, source: source, store: nil, fit: fit},
		{name: "nil fitter", cfg: nil, source: source, store: store, fit: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := recommend.NewEngine(tt.cfg, tt.source, tt.store, tt.fit, zerolog.Nop()); err == nil {
				t.Error("NewEngine() expected error, got nil")
			}
		})
	}
}

func TestEngine_Recommend_IdenticalVectorIsFirstNeighbor(t *testing.T) {
	e, _ := trainedEngine(t)

	gen := e.Current()
	if gen.Matrix.NumRows() != 4 || gen.Matrix.NumCols() != 5 {
		t.Fatalf("matrix is %dx%d, want 4x5", gen.Matrix.NumRows(), gen.Matrix.NumCols())
	}

	res, err := e.Recommend(context.Background(), recommend.Query{Title: "Alpha", K: 3})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	if res.Item.ItemID != "isbn-a" {
		t.Errorf("query item = %q, want isbn-a", res.Item.ItemID)
	}
	if len(res.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(res.Items))
	}
	if res.Items[0].Title != "Beta" || res.Items[0].Distance != 0 {
		t.Errorf("Items[0] = %+v, want Beta at distance 0", res.Items[0])
	}
	if res.Items[0].ImageURL != "http://img/b.jpg" {
		t.Errorf("Items[0].ImageURL = %q", res.Items[0].ImageURL)
	}
	if res.Items[1].Title != "Gamma" {
		t.Errorf("Items[1].Title = %q, want Gamma", res.Items[1].Title)
	}
	if res.GenerationID != gen.ID() {
		t.Errorf("GenerationID = %q, want %q", res.GenerationID, gen.ID())
	}
	for _, rec := range res.Items {
		if rec.ItemID == "isbn-a" {
			t.Error("query item must not be recommended to itself")
		}
	}
}

func TestEngine_Recommend_ResultSize(t *testing.T) {
	e, _ := trainedEngine(t)

	tests := []struct {
		name string
		k    int
		want int
	}{
		{name: "default k of 6 clamps to 4 rows", k: 0, want: 3},
		{name: "k of 2 returns one", k: 2, want: 1},
		{name: "k of 4 returns three", k: 4, want: 3},
		{name: "k above max is capped", k: 1000, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Recommend(context.Background(), recommend.Query{Title: "Delta", K: tt.k})
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			if len(res.Items) != tt.want {
				t.Errorf("len(Items) = %d, want %d", len(res.Items), tt.want)
			}
			for i := 1; i < len(res.Items); i++ {
				if res.Items[i].Distance < res.Items[i-1].Distance {
					t.Errorf("items not ordered by distance at %d", i)
				}
			}
		})
	}
}

func TestEngine_Recommend_Errors(t *testing.T) {
	e, _ := trainedEngine(t)
	ctx := context.Background()

	t.Run("unknown title", func(t *testing.T) {
		_, err := e.Recommend(ctx, recommend.Query{Title: "No Such Title"})
		var unknown *recommend.UnknownItemError
		if !errors.As(err, &unknown) {
			t.Fatalf("error = %v, want *UnknownItemError", err)
		}
		if unknown.Title != "No Such Title" {
			t.Errorf("Title = %q", unknown.Title)
		}
		var qerr *recommend.QueryError
		if !errors.As(err, &qerr) || qerr.Stage != recommend.StageLookupRow {
			t.Errorf("error = %v, want QueryError at lookup_row", err)
		}
	})

	t.Run("unknown item id", func(t *testing.T) {
		_, err := e.Recommend(ctx, recommend.Query{ItemID: "isbn-zzz"})
		var unknown *recommend.UnknownItemError
		if !errors.As(err, &unknown) || unknown.ItemID != "isbn-zzz" {
			t.Fatalf("error = %v, want *UnknownItemError for isbn-zzz", err)
		}
	})

	t.Run("k below two", func(t *testing.T) {
		_, err := e.Recommend(ctx, recommend.Query{Title: "Alpha", K: 1})
		if !errors.Is(err, recommend.ErrInvalidQuery) {
			t.Errorf("error = %v, want ErrInvalidQuery", err)
		}
	})

	t.Run("empty query", func(t *testing.T) {
		_, err := e.Recommend(ctx, recommend.Query{})
		if !errors.Is(err, recommend.ErrInvalidQuery) {
			t.Errorf("error = %v, want ErrInvalidQuery", err)
		}
	})

	t.Run("item id lookup", func(t *testing.T) {
		res, err := e.Recommend(ctx, recommend.Query{ItemID: "isbn-b", K: 2})
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if res.Items[0].ItemID != "isbn-a" {
			t.Errorf("Items[0].ItemID = %q, want isbn-a", res.Items[0].ItemID)
		}
	})
}

func TestEngine_NotTrained(t *testing.T) {
	ratings, items := scenarioData()
	e := newTestEngine(t, testConfig(), recommend.NewMemorySource(ratings, items), newTestStore(t))

	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load() on empty store error = %v", err)
	}

	_, err := e.Recommend(context.Background(), recommend.Query{Title: "Alpha"})
	if !errors.Is(err, recommend.ErrNotTrained) {
		t.Errorf("Recommend() error = %v, want ErrNotTrained", err)
	}
	if _, err := e.Titles(context.Background()); !errors.Is(err, recommend.ErrNotTrained) {
		t.Errorf("Titles() error = %v, want ErrNotTrained", err)
	}
}

func TestEngine_LoadFromStore(t *testing.T) {
	first, store := trainedEngine(t)

	ratings, items := scenarioData()
	second := newTestEngine(t, testConfig(), recommend.NewMemorySource(ratings, items), store)
	if err := second.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if second.Current().ID() != first.Current().ID() {
		t.Errorf("loaded generation %q, want %q", second.Current().ID(), first.Current().ID())
	}
	if got := second.Status().CurrentGeneration; got != first.Current().ID() {
		t.Errorf("Status().CurrentGeneration = %q", got)
	}

	res, err := second.Recommend(context.Background(), recommend.Query{Title: "Alpha", K: 3})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if res.Items[0].Title != "Beta" {
		t.Errorf("Items[0].Title = %q, want Beta", res.Items[0].Title)
	}
}

func TestEngine_Titles(t *testing.T) {
	e, _ := trainedEngine(t)

	titles, err := e.Titles(context.Background())
	if err != nil {
		t.Fatalf("Titles() error = %v", err)
	}
	want := []string{"Alpha", "Beta", "Delta", "Gamma"}
	if fmt.Sprint(titles) != fmt.Sprint(want) {
		t.Errorf("Titles() = %v, want %v", titles, want)
	}
}

func TestEngine_DuplicateTitles(t *testing.T) {
	ratings, items := scenarioData()
	// Two editions share a title; the first in row order wins the lookup.
	items[1].Title = "Alpha"
	items[1].ImageURL = "http://img/a-second-edition.jpg"

	tests := []struct {
		name      string
		joinKey   recommend.JoinKey
		wantImage string
	}{
		{name: "join by item id", joinKey: recommend.JoinByItemID, wantImage: "http://img/a-second-edition.jpg"},
		{name: "join by title first match", joinKey: recommend.JoinByTitle, wantImage: "http://img/a.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Query.JoinKey = tt.joinKey
			e := newTestEngine(t, cfg, recommend.NewMemorySource(ratings, items), newTestStore(t))
			if _, err := e.Train(context.Background()); err != nil {
				t.Fatalf("Train() error = %v", err)
			}

			res, err := e.Recommend(context.Background(), recommend.Query{Title: "Alpha", K: 2})
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			if res.Item.ItemID != "isbn-a" {
				t.Errorf("query resolved to %q, want isbn-a", res.Item.ItemID)
			}
			if res.Items[0].ItemID != "isbn-b" {
				t.Fatalf("Items[0].ItemID = %q, want isbn-b", res.Items[0].ItemID)
			}
			if res.Items[0].ImageURL != tt.wantImage {
				t.Errorf("Items[0].ImageURL = %q, want %q", res.Items[0].ImageURL, tt.wantImage)
			}
		})
	}
}

func TestEngine_FailedBuildKeepsPreviousGeneration(t *testing.T) {
	ratings, items := scenarioData()
	source := recommend.NewMemorySource(ratings, items)
	e := newTestEngine(t, testConfig(), source, newTestStore(t))

	if _, err := e.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	before := e.Current().ID()

	// Every user now rates a single item, so the user threshold removes all.
	source.Replace(ratings[:1], items)
	_, err := e.Train(context.Background())
	var insufficient *recommend.InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("Train() error = %v, want *InsufficientDataError", err)
	}

	if got := e.Current().ID(); got != before {
		t.Errorf("current generation = %q, want unchanged %q", got, before)
	}
	if e.Status().LastError == "" {
		t.Error("Status().LastError is empty after failed build")
	}
	if _, err := e.Recommend(context.Background(), recommend.Query{Title: "Alpha"}); err != nil {
		t.Errorf("Recommend() after failed build error = %v", err)
	}
}

func TestEngine_InvalidRatingFailsBuild(t *testing.T) {
	ratings, items := scenarioData()
	ratings[3].Rating = math.NaN()
	e := newTestEngine(t, testConfig(), recommend.NewMemorySource(ratings, items), newTestStore(t))

	_, err := e.Train(context.Background())
	var invalid *recommend.InvalidRatingError
	if !errors.As(err, &invalid) {
		t.Fatalf("Train() error = %v, want *InvalidRatingError", err)
	}
	if invalid.Position != 3 {
		t.Errorf("Position = %d, want 3", invalid.Position)
	}
}

func TestEngine_OutOfRangeRatingsDropped(t *testing.T) {
	ratings, items := scenarioData()
	// An implicit zero rating from a user who rates nothing else.
	ratings = append(ratings, recommend.Rating{UserID: "u9", ItemID: "isbn-a", Rating: 0})

	cfg := testConfig()
	cfg.Build.MinRating = 1
	e := newTestEngine(t, cfg, recommend.NewMemorySource(ratings, items), newTestStore(t))

	res, err := e.Train(context.Background())
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if res.Manifest.Stats.OutOfRangeDropped != 1 {
		t.Errorf("OutOfRangeDropped = %d, want 1", res.Manifest.Stats.OutOfRangeDropped)
	}
	if res.Manifest.Rows != 4 || res.Manifest.Cols != 5 {
		t.Errorf("shape = %dx%d, want 4x5", res.Manifest.Rows, res.Manifest.Cols)
	}
}

func TestEngine_UnknownItemsDropped(t *testing.T) {
	ratings, items := scenarioData()
	// Delta has ratings but no metadata row.
	items = items[:3]
	e := newTestEngine(t, testConfig(), recommend.NewMemorySource(ratings, items), newTestStore(t))

	res, err := e.Train(context.Background())
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if res.Manifest.Rows != 3 {
		t.Errorf("Rows = %d, want 3", res.Manifest.Rows)
	}
	if res.Manifest.Stats.UnknownItemsDropped != 5 {
		t.Errorf("UnknownItemsDropped = %d, want 5", res.Manifest.Stats.UnknownItemsDropped)
	}
	if res.Manifest.Stats.RatingsIn != len(ratings) {
		t.Errorf("RatingsIn = %d, want %d", res.Manifest.Stats.RatingsIn, len(ratings))
	}
}

// blockingSource blocks Ratings until release is closed.
type blockingSource struct {
	*recommend.MemorySource
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingSource) Ratings(ctx context.Context) ([]recommend.Rating, error) {
	b.once.Do(func() { close(b.entered) })
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return b.MemorySource.Ratings(ctx)
}

func TestEngine_ConcurrentBuild(t *testing.T) {
	ratings, items := scenarioData()
	source := &blockingSource{
		MemorySource: recommend.NewMemorySource(ratings, items),
		entered:      make(chan struct{}),
		release:      make(chan struct{}),
	}
	e := newTestEngine(t, testConfig(), source, newTestStore(t))

	done := make(chan error, 1)
	go func() {
		_, err := e.Train(context.Background())
		done <- err
	}()

	select {
	case <-source.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first build never started")
	}

	if !e.Status().IsTraining {
		t.Error("Status().IsTraining = false during build")
	}

	_, err := e.Train(context.Background())
	var concurrent *recommend.ConcurrentBuildError
	if !errors.As(err, &concurrent) {
		t.Fatalf("second Train() error = %v, want *ConcurrentBuildError", err)
	}

	close(source.release)
	if err := <-done; err != nil {
		t.Fatalf("first Train() error = %v", err)
	}
	if e.Current() == nil {
		t.Fatal("no generation after first build completed")
	}
}

func TestEngine_StartTrain(t *testing.T) {
	ratings, items := scenarioData()
	source := &blockingSource{
		MemorySource: recommend.NewMemorySource(ratings, items),
		entered:      make(chan struct{}),
		release:      make(chan struct{}),
	}
	e := newTestEngine(t, testConfig(), source, newTestStore(t))

	type outcome struct {
		res *recommend.TrainResult
		err error
	}
	done := make(chan outcome, 1)
	if err := e.StartTrain(context.Background(), func(res *recommend.TrainResult, err error) {
		done <- outcome{res, err}
	}); err != nil {
		t.Fatalf("StartTrain() error = %v", err)
	}

	// The slot is held as soon as StartTrain returns.
	if !e.Status().IsTraining {
		t.Error("Status().IsTraining = false after StartTrain")
	}
	err := e.StartTrain(context.Background(), func(*recommend.TrainResult, error) {
		t.Error("rejected build must not report an outcome")
	})
	var concurrent *recommend.ConcurrentBuildError
	if !errors.As(err, &concurrent) {
		t.Fatalf("second StartTrain() error = %v, want *ConcurrentBuildError", err)
	}

	close(source.release)
	select {
	case out := <-done:
		if out.err != nil {
			t.Fatalf("background build error = %v", out.err)
		}
		if e.Current() == nil || e.Current().ID() != out.res.GenerationID {
			t.Error("background build not current")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("background build never finished")
	}

	// The slot is free again once done has run.
	if _, err := e.Train(context.Background()); err != nil {
		t.Errorf("Train() after background build error = %v", err)
	}
}

func TestEngine_QueriesDuringRebuild(t *testing.T) {
	e, _ := trainedEngine(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 64)

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				res, err := e.Recommend(ctx, recommend.Query{Title: "Gamma", K: 3})
				if err != nil {
					errs <- err
					return
				}
				if len(res.Items) != 2 {
					errs <- fmt.Errorf("len(Items) = %d", len(res.Items))
					return
				}
			}
		}()
	}

	for i := 0; i < 3; i++ {
		if _, err := e.Train(ctx); err != nil {
			var concurrent *recommend.ConcurrentBuildError
			if !errors.As(err, &concurrent) {
				t.Errorf("Train() error = %v", err)
			}
		}
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("query during rebuild failed: %v", err)
	}
}

func TestEngine_PrunesOldGenerations(t *testing.T) {
	ratings, items := scenarioData()
	cfg := testConfig()
	cfg.Training.KeepGenerations = 2
	e := newTestEngine(t, cfg, recommend.NewMemorySource(ratings, items), newTestStore(t))

	for i := 0; i < 4; i++ {
		if _, err := e.Train(context.Background()); err != nil {
			t.Fatalf("Train() #%d error = %v", i, err)
		}
	}

	gens, err := e.Generations(context.Background())
	if err != nil {
		t.Fatalf("Generations() error = %v", err)
	}
	if len(gens) != 2 {
		t.Fatalf("len(Generations()) = %d, want 2", len(gens))
	}
	if gens[0].ID != e.Current().ID() {
		t.Errorf("newest generation %q is not current %q", gens[0].ID, e.Current().ID())
	}
}

// faultyStore wraps a store and injects failures.
type faultyStore struct {
	recommend.ArtifactStore
	saveErr    error
	publishErr error
	loadErr    error
	deleted    []string
}

func (f *faultyStore) Save(ctx context.Context, gen *recommend.Generation) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.ArtifactStore.Save(ctx, gen)
}

func (f *faultyStore) Publish(ctx context.Context, id string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	return f.ArtifactStore.Publish(ctx, id)
}

func (f *faultyStore) LoadCurrent(ctx context.Context) (*recommend.Generation, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.ArtifactStore.LoadCurrent(ctx)
}

func (f *faultyStore) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.ArtifactStore.Delete(ctx, id)
}

func TestEngine_StoreFailures(t *testing.T) {
	ratings, items := scenarioData()

	t.Run("save failure", func(t *testing.T) {
		store := &faultyStore{ArtifactStore: newTestStore(t), saveErr: errors.New("disk full")}
		e := newTestEngine(t, testConfig(), recommend.NewMemorySource(ratings, items), store)

		if _, err := e.Train(context.Background()); err == nil {
			t.Fatal("Train() expected error")
		}
		if e.Current() != nil {
			t.Error("generation installed despite save failure")
		}
	})

	t.Run("publish failure discards generation", func(t *testing.T) {
		store := &faultyStore{ArtifactStore: newTestStore(t), publishErr: errors.New("io error")}
		e := newTestEngine(t, testConfig(), recommend.NewMemorySource(ratings, items), store)

		if _, err := e.Train(context.Background()); err == nil {
			t.Fatal("Train() expected error")
		}
		if len(store.deleted) != 1 {
			t.Errorf("deleted = %v, want the unpublished generation", store.deleted)
		}
		gens, err := store.List(context.Background())
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(gens) != 0 {
			t.Errorf("len(List()) = %d, want 0", len(gens))
		}
	})

	t.Run("corrupt current is an internal failure", func(t *testing.T) {
		corrupt := &recommend.ArtifactCorruptError{Generation: "g", Artifact: recommend.ArtifactMatrix, Err: errors.New("checksum mismatch")}
		store := &faultyStore{ArtifactStore: newTestStore(t), loadErr: corrupt}
		e := newTestEngine(t, testConfig(), recommend.NewMemorySource(ratings, items), store)

		if err := e.Load(context.Background()); err == nil {
			t.Fatal("Load() expected error")
		}

		_, err := e.Recommend(context.Background(), recommend.Query{Title: "Alpha"})
		var got *recommend.ArtifactCorruptError
		if !errors.As(err, &got) {
			t.Fatalf("Recommend() error = %v, want *ArtifactCorruptError", err)
		}
		if errors.Is(err, recommend.ErrNotTrained) {
			t.Error("corrupt store must not look like an untrained one")
		}

		// A successful build recovers.
		store.loadErr = nil
		if _, err := e.Train(context.Background()); err != nil {
			t.Fatalf("Train() error = %v", err)
		}
		if _, err := e.Recommend(context.Background(), recommend.Query{Title: "Alpha"}); err != nil {
			t.Errorf("Recommend() after rebuild error = %v", err)
		}
	})
}

func TestEngine_TrainCancelled(t *testing.T) {
	ratings, items := scenarioData()
	e := newTestEngine(t, testConfig(), recommend.NewMemorySource(ratings, items), newTestStore(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Train(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Train() error = %v, want context.Canceled", err)
	}
	if e.Current() != nil {
		t.Error("generation installed from a cancelled build")
	}
	if e.Status().IsTraining {
		t.Error("Status().IsTraining still true")
	}
}
