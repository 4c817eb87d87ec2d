// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/folio/internal/recommend"
	"github.com/tomtom215/folio/internal/recommend/algorithms"
)

// Key layout
const (
	currentKey      = "current"
	generationsPref = "gen/"
)

// Config configures the artifact store.
type Config struct {
	// Path is the Badger directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps all data in memory (tests and one-shot CLI runs).
	InMemory bool

	// SyncWrites fsyncs every write transaction.
	SyncWrites bool

	// KNN configures indexes rebuilt on load.
	KNN algorithms.KNNConfig
}

// Store persists generations in BadgerDB.
//
// Key layout:
//
//	current                 id of the published generation
//	gen/<id>/join           gob+gzip join table
//	gen/<id>/matrix         gob+gzip rating matrix
//	gen/<id>/index          gob+gzip KNN state
//	gen/<id>/manifest       JSON manifest, written last
//
// A generation without a manifest is incomplete: it is never listed or
// loaded, and Prune removes it. Publish only moves the current key, so a
// reader either sees the old bundle or the new one, never a mix.
//
// Writers are serialized by mu. Reads run in Badger read transactions and
// need no lock.
type Store struct {
	db     *badger.DB
	ownsDB bool
	knn    algorithms.KNNConfig
	logger zerolog.Logger

	// mu serializes writers.
	mu sync.Mutex
}

// Open opens (or creates) a Badger database per cfg and returns a store that
// owns it.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(cfg Config, logger zerolog.Logger) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("artifact store path is required")
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open artifact store: %w", err)
	}

	s := New(db, cfg.KNN, logger)
	s.ownsDB = true
	return s, nil
}

// New wraps an existing Badger database. The caller keeps ownership of db.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(db *badger.DB, knn algorithms.KNNConfig, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		knn:    knn,
		logger: logger.With().Str("component", "artifact_store").Logger(),
	}
}

// Close closes the database if the store opened it.
func (s *Store) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

// Save writes the join table, matrix and index of gen, then its manifest.
// The manifest checksums and size are filled into gen.Manifest. If Save
// fails or ctx is canceled, every key already written for gen is removed.
func (s *Store) Save(ctx context.Context, gen *recommend.Generation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := gen.ID()
	if id == "" {
		return errors.New("generation id is required")
	}

	knn, ok := gen.Index.(*algorithms.KNN)
	if !ok {
		return fmt.Errorf("unsupported index type %T", gen.Index)
	}

	payloads := []struct {
		name string
		v    interface{}
	}{
		{recommend.ArtifactJoin, gen.Join},
		{recommend.ArtifactMatrix, gen.Matrix},
		{recommend.ArtifactIndex, knn.State()},
	}

	manifest := gen.Manifest
	manifest.Checksums = make(map[string]string, len(payloads))
	manifest.SizeBytes = 0

	fail := func(err error) error {
		if derr := s.deleteGeneration(id); derr != nil {
			s.logger.Warn().Err(derr).Str("generation", id).Msg("cleanup of partial generation failed")
		}
		return err
	}

	for _, p := range payloads {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		enc, err := encodeArtifact(p.v)
		if err != nil {
			return fail(fmt.Errorf("%s: %w", p.name, err))
		}

		err = s.db.Update(func(txn *badger.Txn) error {
			return txn.Set(artifactKey(id, p.name), enc.Data)
		})
		if err != nil {
			return fail(fmt.Errorf("write %s: %w", p.name, err))
		}

		manifest.Checksums[p.name] = enc.Checksum
		manifest.SizeBytes += int64(len(enc.Data))
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	data, err := json.Marshal(manifest)
	if err != nil {
		return fail(fmt.Errorf("marshal manifest: %w", err))
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(artifactKey(id, recommend.ArtifactManifest), data)
	})
	if err != nil {
		return fail(fmt.Errorf("write manifest: %w", err))
	}

	gen.Manifest = manifest

	s.logger.Debug().
		Str("generation", id).
		Int64("size_bytes", manifest.SizeBytes).
		Msg("saved generation")

	return nil
}

// Publish makes id the current generation. The generation's manifest must
// exist.
func (s *Store) Publish(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(artifactKey(id, recommend.ArtifactManifest))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return &recommend.ArtifactMissingError{Generation: id, Artifact: recommend.ArtifactManifest}
		}
		if err != nil {
			return fmt.Errorf("get manifest: %w", err)
		}
		return txn.Set([]byte(currentKey), []byte(id))
	})
}

// Current returns the current generation id, or recommend.ErrNotTrained if
// none has been published.
func (s *Store) Current(ctx context.Context) (string, error) {
	var id string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(currentKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return recommend.ErrNotTrained
		}
		if err != nil {
			return fmt.Errorf("get current: %w", err)
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("read current: %w", err)
		}
		id = string(val)
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// LoadCurrent loads the current generation.
func (s *Store) LoadCurrent(ctx context.Context) (*recommend.Generation, error) {
	id, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	return s.Load(ctx, id)
}

// Load reads, verifies and assembles generation id.
func (s *Store) Load(ctx context.Context, id string) (*recommend.Generation, error) {
	var (
		manifest recommend.Manifest
		join     []recommend.JoinRow
		matrix   recommend.Matrix
		state    algorithms.KNNState
	)

	err := s.db.View(func(txn *badger.Txn) error {
		raw, err := getArtifact(txn, id, recommend.ArtifactManifest)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &manifest); err != nil {
			return &recommend.ArtifactCorruptError{Generation: id, Artifact: recommend.ArtifactManifest, Err: err}
		}

		targets := []struct {
			name   string
			target interface{}
		}{
			{recommend.ArtifactJoin, &join},
			{recommend.ArtifactMatrix, &matrix},
			{recommend.ArtifactIndex, &state},
		}
		for _, t := range targets {
			if err := ctx.Err(); err != nil {
				return err
			}
			raw, err := getArtifact(txn, id, t.name)
			if err != nil {
				return err
			}
			checksum, ok := manifest.Checksums[t.name]
			if !ok {
				return &recommend.ArtifactCorruptError{Generation: id, Artifact: t.name, Err: errors.New("no checksum in manifest")}
			}
			if err := decodeArtifact(raw, checksum, t.target); err != nil {
				return &recommend.ArtifactCorruptError{Generation: id, Artifact: t.name, Err: err}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	idx, err := algorithms.FromState(ctx, state, s.knn)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &recommend.ArtifactCorruptError{Generation: id, Artifact: recommend.ArtifactIndex, Err: err}
	}

	gen, err := recommend.NewGeneration(manifest, join, &matrix, idx)
	if err != nil {
		return nil, &recommend.ArtifactCorruptError{Generation: id, Artifact: "generation", Err: err}
	}
	return gen, nil
}

// List returns the manifests of all complete generations, newest first.
// Generations whose manifest cannot be decoded are skipped.
func (s *Store) List(ctx context.Context) ([]recommend.Manifest, error) {
	var manifests []recommend.Manifest

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(generationsPref)
		suffix := []byte("/" + recommend.ArtifactManifest)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			if !bytes.HasSuffix(item.Key(), suffix) {
				continue
			}

			var m recommend.Manifest
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &m)
			})
			if err != nil {
				s.logger.Warn().Err(err).Str("key", string(item.KeyCopy(nil))).Msg("skipping unreadable manifest")
				continue
			}
			manifests = append(manifests, m)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}

	sort.Slice(manifests, func(i, j int) bool {
		if !manifests[i].CreatedAt.Equal(manifests[j].CreatedAt) {
			return manifests[i].CreatedAt.After(manifests[j].CreatedAt)
		}
		return manifests[i].ID > manifests[j].ID
	})

	return manifests, nil
}

// Delete removes every key of generation id. The current generation cannot
// be deleted.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.Current(ctx)
	if err != nil && !errors.Is(err, recommend.ErrNotTrained) {
		return err
	}
	if id == current {
		return fmt.Errorf("cannot delete current generation %s", id)
	}

	return s.deleteGeneration(id)
}

// Prune keeps the newest keep complete generations plus the current one,
// and removes everything else including incomplete generations.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keep < 1 {
		keep = 1
	}

	current, err := s.Current(ctx)
	if err != nil && !errors.Is(err, recommend.ErrNotTrained) {
		return 0, err
	}

	ids, err := s.generationIDs()
	if err != nil {
		return 0, err
	}

	manifests, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	retain := map[string]struct{}{current: {}}
	for i := 0; i < len(manifests) && i < keep; i++ {
		retain[manifests[i].ID] = struct{}{}
	}

	removed := 0
	for _, id := range ids {
		if _, ok := retain[id]; ok {
			continue
		}
		if err := s.deleteGeneration(id); err != nil {
			return removed, fmt.Errorf("delete generation %s: %w", id, err)
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info().Int("removed", removed).Int("keep", keep).Msg("pruned generations")
	}
	return removed, nil
}

// generationIDs returns the distinct ids that have any key under gen/.
func (s *Store) generationIDs() ([]string, error) {
	seen := make(map[string]struct{})
	var ids []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(generationsPref)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			rest := strings.TrimPrefix(string(it.Item().Key()), generationsPref)
			id, _, _ := strings.Cut(rest, "/")
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan generations: %w", err)
	}
	return ids, nil
}

// deleteGeneration removes every key under gen/{id}/.
func (s *Store) deleteGeneration(id string) error {
	prefix := []byte(generationsPref + id + "/")

	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan generation keys: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// getArtifact reads one artifact value, mapping a missing key to
// *recommend.ArtifactMissingError.
func getArtifact(txn *badger.Txn, id, name string) ([]byte, error) {
	item, err := txn.Get(artifactKey(id, name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, &recommend.ArtifactMissingError{Generation: id, Artifact: name}
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	return item.ValueCopy(nil)
}

func artifactKey(id, name string) []byte {
	return []byte(generationsPref + id + "/" + name)
}

// Ensure Store implements the engine's artifact store interface.
var _ recommend.ArtifactStore = (*Store)(nil)
