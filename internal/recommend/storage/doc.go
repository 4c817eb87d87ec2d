// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

// Package storage persists recommendation generations in BadgerDB.
//
// # Overview
//
// A generation is the join table, rating matrix and similarity index built
// together by one training run. The store provides:
//   - Gob serialization for the artifact payloads
//   - Gzip compression to reduce storage footprint
//   - SHA-256 checksums for data integrity verification
//   - A manifest per generation, written last, that makes it visible
//   - A single "current" key naming the generation that serves queries
//   - Cleanup of old and incomplete generations
//
// # Key Layout
//
//	current                  -> generation id
//	gen/{id}/join            -> gzip(gob([]recommend.JoinRow))
//	gen/{id}/matrix          -> gzip(gob(recommend.Matrix))
//	gen/{id}/index           -> gzip(gob(algorithms.KNNState))
//	gen/{id}/manifest        -> json(recommend.Manifest)
//
// Generation ids are UUIDv7, so key order follows creation order.
//
// # Consistency
//
// Artifacts are written one transaction each, then the manifest, then the
// "current" key is switched in its own transaction. A crash before the
// manifest leaves an invisible generation that Prune removes. A crash
// before the switch leaves the previous generation current.
//
// On load every artifact is checksummed and the matrix row labels are
// compared against the labels the index was fitted on. Any failure is
// reported as *recommend.ArtifactCorruptError and never retried.
//
// # Usage Example
//
//	store, err := storage.Open(storage.Config{Path: "/data/folio/artifacts"}, logger)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	gen, err := store.LoadCurrent(ctx)
//	if errors.Is(err, recommend.ErrNotTrained) {
//	    // nothing published yet
//	}
//
// # Thread Safety
//
// All operations are safe for concurrent use. Writes (Save, Publish, Delete,
// Prune) are serialized; reads run against Badger snapshots.
package storage
