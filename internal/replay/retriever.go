package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/replayd/internal/domain"
	"github.com/gosuda/replayd/internal/metrics"
)

// ErrUnexpectedShape is returned when artifact JSON is neither an array nor
// an object.
var ErrUnexpectedShape = errors.New("replay: unexpected artifact shape") //nolint:gochecknoglobals // sentinel error

// Container fields that wrap record arrays in object-shaped artifacts.
const (
	EventsField  = "events"
	NetworkField = "networkRequests"
)

// ObjectStore is the object storage collaborator. Implementations route
// projectID to the right bucket or prefix.
type ObjectStore interface {
	GetObject(ctx context.Context, projectID uuid.UUID, key string) ([]byte, error)
	HeadObjectSize(ctx context.Context, projectID uuid.UUID, key string) (int64, error)
}

// Retriever lists a session's ready artifacts and fetches their bytes with
// bounded concurrency.
type Retriever struct {
	artifacts    domain.ArtifactRepository
	objects      ObjectStore
	concurrency  int
	fetchTimeout time.Duration
}

// NewRetriever creates a Retriever. concurrency < 1 uses DefaultConcurrency;
// fetchTimeout <= 0 disables the per-fetch deadline.
func NewRetriever(artifacts domain.ArtifactRepository, objects ObjectStore, concurrency int, fetchTimeout time.Duration) *Retriever {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Retriever{
		artifacts:    artifacts,
		objects:      objects,
		concurrency:  concurrency,
		fetchTimeout: fetchTimeout,
	}
}

// Concurrency returns the configured worker limit.
func (r *Retriever) Concurrency() int {
	return r.concurrency
}

// ListReady returns the session's artifacts in ready status.
func (r *Retriever) ListReady(ctx context.Context, sessionID string) ([]*domain.Artifact, error) {
	arts, err := r.artifacts.ListReady(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("replay.Retriever.ListReady: %w", err)
	}
	return arts, nil
}

// FetchBytes reads one object. Callers treat any error as a missing object.
func (r *Retriever) FetchBytes(ctx context.Context, projectID uuid.UUID, key string) ([]byte, error) {
	if r.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.fetchTimeout)
		defer cancel()
	}

	data, err := r.objects.GetObject(ctx, projectID, key)
	if err != nil {
		return nil, fmt.Errorf("replay.Retriever.FetchBytes(%q): %w", key, err)
	}
	return data, nil
}

// FetchRecords fetches and parses JSON record artifacts and flattens them in
// artifact order. An artifact that cannot be fetched or parsed contributes
// no records. Each artifact is unwrapped with the container field matching
// its kind.
func (r *Retriever) FetchRecords(ctx context.Context, projectID uuid.UUID, arts []*domain.Artifact) map[domain.ArtifactKind][]map[string]any {
	results := MapBounded(ctx, arts, r.concurrency, func(ctx context.Context, a *domain.Artifact) ([]map[string]any, error) {
		start := time.Now()
		data, err := r.FetchBytes(ctx, projectID, a.ObjectKey)
		metrics.ArtifactFetchDuration.WithLabelValues(string(a.Kind)).Observe(time.Since(start).Seconds())
		if err != nil {
			return nil, &artifactError{stage: metrics.StageFetch, err: err}
		}

		records, err := ParseRecords(data, containerField(a.Kind))
		if err != nil {
			return nil, &artifactError{stage: metrics.StageParse, err: err}
		}
		return records, nil
	})

	out := make(map[domain.ArtifactKind][]map[string]any, 2)
	for i, res := range results {
		a := arts[i]
		if !res.OK() {
			reportArtifactFailure(a, res.Err)
			continue
		}
		out[a.Kind] = append(out[a.Kind], res.Value...)
	}
	if n := Failed(results); n > 0 {
		log.Debug().Int("failed", n).Int("total", len(arts)).Msg("replay: record artifacts skipped")
	}
	return out
}

func containerField(kind domain.ArtifactKind) string {
	if kind == domain.ArtifactNetwork {
		return NetworkField
	}
	return EventsField
}

// ParseRecords decodes an artifact holding either a bare array of records or
// an object wrapping the array under field. Non-object array elements are
// skipped; an object without field yields no records.
func ParseRecords(data []byte, field string) ([]map[string]any, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("replay.ParseRecords: %w", err)
	}

	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		items, _ = v[field].([]any)
	default:
		return nil, fmt.Errorf("replay.ParseRecords: %w", ErrUnexpectedShape)
	}

	records := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			records = append(records, m)
		}
	}
	return records, nil
}

// StorageSizes holds byte totals per artifact kind.
type StorageSizes struct {
	Events      int64 `json:"events"`
	Network     int64 `json:"network"`
	Hierarchy   int64 `json:"hierarchy"`
	Screenshots int64 `json:"screenshots"`
	Total       int64 `json:"total"`
}

func (s *StorageSizes) add(kind domain.ArtifactKind, n int64) {
	switch kind {
	case domain.ArtifactEvents:
		s.Events += n
	case domain.ArtifactNetwork:
		s.Network += n
	case domain.ArtifactHierarchy:
		s.Hierarchy += n
	case domain.ArtifactScreenshots:
		s.Screenshots += n
	default:
		return
	}
	s.Total += n
}

// Sizes totals artifact bytes per kind. Known sizes are always used. With
// withMetadataFallback, artifacts without a recorded size are sized by a
// metadata-only request each; otherwise they count as zero.
func (r *Retriever) Sizes(ctx context.Context, projectID uuid.UUID, arts []*domain.Artifact, withMetadataFallback bool) StorageSizes {
	var (
		sizes   StorageSizes
		missing []*domain.Artifact
	)
	for _, a := range arts {
		if a.SizeBytes != nil {
			sizes.add(a.Kind, *a.SizeBytes)
			continue
		}
		missing = append(missing, a)
	}
	if !withMetadataFallback || len(missing) == 0 {
		return sizes
	}

	results := MapBounded(ctx, missing, r.concurrency, func(ctx context.Context, a *domain.Artifact) (int64, error) {
		if r.fetchTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.fetchTimeout)
			defer cancel()
		}
		n, err := r.objects.HeadObjectSize(ctx, projectID, a.ObjectKey)
		if err != nil {
			return 0, &artifactError{stage: metrics.StageHead, err: err}
		}
		return n, nil
	})

	for i, res := range results {
		if !res.OK() {
			reportArtifactFailure(missing[i], res.Err)
		}
	}
	for i, n := range Values(results, 0) {
		sizes.add(missing[i].Kind, n)
	}
	return sizes
}

// artifactError tags a per-artifact failure with the stage it happened in.
type artifactError struct {
	stage string
	err   error
}

func (e *artifactError) Error() string { return e.stage + ": " + e.err.Error() }
func (e *artifactError) Unwrap() error { return e.err }

func reportArtifactFailure(a *domain.Artifact, err error) {
	stage := metrics.StageFetch
	var ae *artifactError
	if errors.As(err, &ae) {
		stage = ae.stage
	}
	metrics.ArtifactFailed(string(a.Kind), stage)

	log.Warn().
		Err(err).
		Str("session_id", a.SessionID).
		Str("kind", string(a.Kind)).
		Str("key", a.ObjectKey).
		Str("stage", stage).
		Msg("replay: artifact skipped")
}
