// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package recommend

import (
	"context"
	"time"
)

// Rating is a single explicit rating of an item by a user.
type Rating struct {
	// UserID is the opaque user identifier.
	UserID string `json:"user_id"`

	// ItemID is the opaque item identifier (an ISBN for Book-Crossing data).
	ItemID string `json:"item_id"`

	// Rating is the rating value. Values outside the configured bounds are
	// dropped at build time.
	Rating float64 `json:"rating"`
}

// Item holds the display metadata for one item.
type Item struct {
	ItemID    string `json:"item_id"`
	Title     string `json:"title"`
	Author    string `json:"author,omitempty"`
	Year      int    `json:"year,omitempty"`
	Publisher string `json:"publisher,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
}

// JoinRow is one retained rating joined with its item metadata.
// The join table is the artifact used to resolve neighbors to display fields.
type JoinRow struct {
	UserID   string
	ItemID   string
	Rating   float64
	Title    string
	Author   string
	ImageURL string
}

// Metric names a distance function for the similarity index.
type Metric string

// Supported distance metrics.
const (
	MetricEuclidean Metric = "euclidean"
	MetricCosine    Metric = "cosine"
	MetricManhattan Metric = "manhattan"
)

// Valid reports whether m is a supported metric.
func (m Metric) Valid() bool {
	switch m {
	case MetricEuclidean, MetricCosine, MetricManhattan:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (m Metric) String() string {
	return string(m)
}

// DuplicatePolicy decides which rating wins when a (user, item) pair repeats.
type DuplicatePolicy string

// Duplicate policies.
const (
	// DuplicatesFirst keeps the first rating in source order.
	DuplicatesFirst DuplicatePolicy = "first"

	// DuplicatesLast keeps the last rating in source order.
	DuplicatesLast DuplicatePolicy = "last"
)

// JoinKey selects how neighbors are resolved to metadata.
type JoinKey string

// Join keys.
const (
	// JoinByItemID resolves neighbors by their stable item identifier.
	JoinByItemID JoinKey = "item_id"

	// JoinByTitle resolves neighbors by title, first match in join table order.
	// Items sharing a title may resolve to another edition's image.
	JoinByTitle JoinKey = "title"
)

// Neighbor is one result of a similarity index query.
type Neighbor struct {
	// Label is the row label (item id) of the neighbor.
	Label string `json:"label"`

	// Row is the matrix row index of the neighbor.
	Row int `json:"row"`

	// Distance is the metric distance from the query vector.
	Distance float64 `json:"distance"`
}

// Index is an immutable nearest-neighbor structure over the rows of a Matrix.
type Index interface {
	// Metric returns the distance metric fixed at fit time.
	Metric() Metric

	// Labels returns the row labels in row order.
	Labels() []string

	// Dim returns the vector dimension (the matrix column count).
	Dim() int

	// Query returns up to k rows closest to vector, closest first.
	Query(ctx context.Context, vector []float64, k int) ([]Neighbor, error)

	// QueryRow returns up to k rows closest to the given row, closest first.
	// The row itself is always at position 0 with distance 0.
	QueryRow(ctx context.Context, row, k int) ([]Neighbor, error)
}

// IndexFitFunc builds an Index from a matrix using the given metric.
type IndexFitFunc func(ctx context.Context, m *Matrix, metric Metric) (Index, error)

// RatingSource provides the raw ratings and item metadata for a build.
// This is typically implemented by the database layer.
type RatingSource interface {
	// Ratings returns every rating in a stable source order.
	Ratings(ctx context.Context) ([]Rating, error)

	// Items returns item metadata, at most one row per item id.
	Items(ctx context.Context) ([]Item, error)
}

// ArtifactStore persists generations and the current generation pointer.
type ArtifactStore interface {
	// Save writes every artifact of gen. A generation is not visible until
	// its manifest is written, which Save does last.
	Save(ctx context.Context, gen *Generation) error

	// Publish makes the generation with the given id current.
	Publish(ctx context.Context, id string) error

	// LoadCurrent loads the current generation.
	LoadCurrent(ctx context.Context) (*Generation, error)

	// List returns the manifests of all complete generations, newest first.
	List(ctx context.Context) ([]Manifest, error)

	// Delete removes every key of a generation.
	Delete(ctx context.Context, id string) error

	// Prune keeps the newest keep generations plus the current one and
	// removes the rest. It returns the number of generations removed.
	Prune(ctx context.Context, keep int) (int, error)
}

// Query is a recommendation request.
type Query struct {
	// Title selects the query item by title. The first matching row wins.
	Title string `json:"title,omitempty"`

	// ItemID selects the query item by identifier and takes precedence over Title.
	ItemID string `json:"item_id,omitempty"`

	// K is the number of neighbors requested including the item itself.
	// Zero uses the configured default.
	K int `json:"k,omitempty"`
}

// Recommendation is one recommended item.
type Recommendation struct {
	ItemID   string  `json:"item_id"`
	Title    string  `json:"title"`
	Author   string  `json:"author,omitempty"`
	ImageURL string  `json:"image_url"`
	Distance float64 `json:"distance"`
}

// Result is the answer to a Query.
type Result struct {
	// GenerationID identifies the generation that served the query.
	GenerationID string `json:"generation_id"`

	// Item is the resolved query item.
	Item Recommendation `json:"item"`

	// Items holds the recommendations, closest first, excluding the query item.
	Items []Recommendation `json:"items"`

	// K is the effective neighbor count used for the index query.
	K int `json:"k"`

	// LatencyMS is the query latency in milliseconds.
	LatencyMS int64 `json:"latency_ms"`
}

// BuildStats summarizes what the matrix builder kept and dropped.
type BuildStats struct {
	RatingsIn           int `json:"ratings_in"`
	UnknownItemsDropped int `json:"unknown_items_dropped"`
	OutOfRangeDropped   int `json:"out_of_range_dropped"`
	DuplicatesDropped   int `json:"duplicates_dropped"`
	UsersRetained       int `json:"users_retained"`
	ItemsRetained       int `json:"items_retained"`
	RatingsRetained     int `json:"ratings_retained"`
}

// Manifest describes a stored generation.
type Manifest struct {
	// ID is the generation identifier.
	ID string `json:"id"`

	// CreatedAt is when the build started.
	CreatedAt time.Time `json:"created_at"`

	// Metric is the index distance metric.
	Metric Metric `json:"metric"`

	// MinUserActivity and MinItemActivity are the thresholds used for the build.
	MinUserActivity int `json:"min_user_activity"`
	MinItemActivity int `json:"min_item_activity"`

	// Rows and Cols are the matrix dimensions.
	Rows int `json:"rows"`
	Cols int `json:"cols"`

	// Stats is the builder summary.
	Stats BuildStats `json:"stats"`

	// Checksums maps artifact name to SHA-256 of its encoded payload.
	Checksums map[string]string `json:"checksums,omitempty"`

	// SizeBytes is the total compressed size of all artifacts.
	SizeBytes int64 `json:"size_bytes"`

	// BuildDurationMS is how long the build took before saving.
	BuildDurationMS int64 `json:"build_duration_ms"`
}

// TrainResult is returned by a successful Train.
type TrainResult struct {
	GenerationID string        `json:"generation_id"`
	Manifest     Manifest      `json:"manifest"`
	Duration     time.Duration `json:"duration"`
	Pruned       int           `json:"pruned"`
}

// TrainingStatus reports the state of the trainer and the served generation.
type TrainingStatus struct {
	// IsTraining is true while a build is running.
	IsTraining bool `json:"is_training"`

	// Stage is the current build stage while training.
	Stage string `json:"stage,omitempty"`

	// CurrentGeneration is the id of the generation serving queries.
	CurrentGeneration string `json:"current_generation,omitempty"`

	// Rows and Cols are the dimensions of the served matrix.
	Rows int `json:"rows"`
	Cols int `json:"cols"`

	// LastTrainedAt is when the last successful build finished.
	LastTrainedAt time.Time `json:"last_trained_at,omitempty"`

	// LastTrainingDurationMS is how long the last build took.
	LastTrainingDurationMS int64 `json:"last_training_duration_ms"`

	// LastError is the error from the last failed build or load.
	LastError string `json:"last_error,omitempty"`
}
