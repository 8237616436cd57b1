package replay

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/gosuda/replayd/internal/domain"
	"github.com/gosuda/replayd/internal/metrics"
)

// Timeline is the reconstructed view of one session.
type Timeline struct {
	Events          []Event            `json:"events"`
	NetworkRequests []NetworkRequest   `json:"networkRequests"`
	Crashes         []*domain.Crash    `json:"crashes"`
	ANRs            []*domain.ANR      `json:"anrs"`
	Errors          []*domain.AppError `json:"-"`
}

// Core is the lightweight session summary used by the player before the
// full timeline loads.
type Core struct {
	Session        *domain.Session             `json:"session"`
	ArtifactCounts map[domain.ArtifactKind]int `json:"artifactCounts"`
	Sizes          StorageSizes                `json:"sizes"`
	Recording      bool                        `json:"recordingAvailable"`
}

// Stats is the full storage and network summary of a session.
type Stats struct {
	Sizes          StorageSizes                `json:"sizes"`
	ArtifactCounts map[domain.ArtifactKind]int `json:"artifactCounts"`
	Network        NetworkSummary              `json:"network"`
}

// Service assembles replay payloads from artifacts and fault records.
type Service struct {
	faults    domain.FaultRepository
	retriever *Retriever
}

func NewService(faults domain.FaultRepository, retriever *Retriever) *Service {
	return &Service{faults: faults, retriever: retriever}
}

type faultRecords struct {
	crashes []*domain.Crash
	anrs    []*domain.ANR
	errs    []*domain.AppError
}

// Timeline builds the merged, sorted timeline of s. Missing or broken
// artifacts and failed fault queries degrade to empty lists.
func (svc *Service) Timeline(ctx context.Context, s *domain.Session) (*Timeline, error) {
	var (
		faults  faultRecords
		records map[domain.ArtifactKind][]map[string]any
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		faults = svc.loadFaults(gctx, s.ID)
		return nil
	})
	g.Go(func() error {
		arts := svc.readyArtifacts(gctx, s, domain.ArtifactEvents, domain.ArtifactNetwork)
		records = svc.retriever.FetchRecords(gctx, s.ProjectID, arts)
		return nil
	})
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("replay.Service.Timeline: %w", err)
	}

	w := WindowFor(s)
	normalized := NormalizeEvents(records[domain.ArtifactEvents], w)
	synthetic := BuildFaultEvents(faults.crashes, faults.anrs, faults.errs, w.StartMs, w.Coerce)
	events := MergeWithDedup(normalized, synthetic)

	return &Timeline{
		Events:          events,
		NetworkRequests: ReconcileNetwork(records[domain.ArtifactNetwork], events, w),
		Crashes:         faults.crashes,
		ANRs:            faults.anrs,
		Errors:          faults.errs,
	}, nil
}

// Core returns the session summary with artifact counts and known sizes only.
func (svc *Service) Core(ctx context.Context, s *domain.Session) *Core {
	arts := svc.readyArtifacts(ctx, s)
	return &Core{
		Session:        s,
		ArtifactCounts: countByKind(arts),
		Sizes:          svc.retriever.Sizes(ctx, s.ProjectID, arts, false),
		Recording:      s.RecordingAvailable(),
	}
}

// Stats returns complete per-kind byte totals, resolving unknown sizes with
// metadata requests, plus a summary of the session's network calls.
func (svc *Service) Stats(ctx context.Context, s *domain.Session) *Stats {
	arts := svc.readyArtifacts(ctx, s)

	var network []NetworkRequest
	netArts := filterKinds(arts, domain.ArtifactNetwork, domain.ArtifactEvents)
	if len(netArts) > 0 {
		records := svc.retriever.FetchRecords(ctx, s.ProjectID, netArts)
		w := WindowFor(s)
		network = ReconcileNetwork(records[domain.ArtifactNetwork], NormalizeEvents(records[domain.ArtifactEvents], w), w)
	}

	return &Stats{
		Sizes:          svc.retriever.Sizes(ctx, s.ProjectID, arts, true),
		ArtifactCounts: countByKind(arts),
		Network:        SummarizeNetwork(network),
	}
}

// Hierarchy decodes every hierarchy artifact of s. Snapshots that fail to
// fetch or decode are dropped. The result is ordered by the artifact
// timestamp, falling back to the snapshot's own timestamp.
func (svc *Service) Hierarchy(ctx context.Context, s *domain.Session) []HierarchySnapshot {
	arts := svc.readyArtifacts(ctx, s, domain.ArtifactHierarchy)
	if len(arts) == 0 {
		return []HierarchySnapshot{}
	}

	results := MapBounded(ctx, arts, svc.retriever.Concurrency(), func(ctx context.Context, a *domain.Artifact) (HierarchySnapshot, error) {
		data, err := svc.retriever.FetchBytes(ctx, s.ProjectID, a.ObjectKey)
		if err != nil {
			return HierarchySnapshot{}, &artifactError{stage: metrics.StageFetch, err: err}
		}
		snap, err := DecodeHierarchy(data, a.ObjectKey)
		if err != nil {
			return HierarchySnapshot{}, &artifactError{stage: metrics.StageDecode, err: err}
		}
		if a.Timestamp != nil {
			snap.Timestamp = *a.Timestamp
		}
		return snap, nil
	})

	snaps := make([]HierarchySnapshot, 0, len(results))
	for i, res := range results {
		if !res.OK() {
			reportArtifactFailure(arts[i], res.Err)
			continue
		}
		snaps = append(snaps, res.Value)
	}
	SortSnapshots(snaps)
	return snaps
}

// readyArtifacts lists the ready artifacts of s restricted to kinds (all
// kinds when empty). Sessions whose recording was deleted or expired have
// no artifacts left to read.
func (svc *Service) readyArtifacts(ctx context.Context, s *domain.Session, kinds ...domain.ArtifactKind) []*domain.Artifact {
	if !s.RecordingAvailable() {
		return nil
	}
	arts, err := svc.retriever.ListReady(ctx, s.ID)
	if err != nil {
		metrics.ArtifactFailed("all", metrics.StageList)
		log.Warn().Err(err).Str("session_id", s.ID).Msg("replay: listing artifacts failed")
		return nil
	}
	if len(kinds) == 0 {
		return arts
	}
	return filterKinds(arts, kinds...)
}

func (svc *Service) loadFaults(ctx context.Context, sessionID string) faultRecords {
	var out faultRecords
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out.crashes = absorbFault(gctx, sessionID, "crash", svc.faults.ListCrashes)
		return nil
	})
	g.Go(func() error {
		out.anrs = absorbFault(gctx, sessionID, "anr", svc.faults.ListANRs)
		return nil
	})
	g.Go(func() error {
		out.errs = absorbFault(gctx, sessionID, "error", svc.faults.ListErrors)
		return nil
	})
	_ = g.Wait()
	return out
}

func absorbFault[T any](ctx context.Context, sessionID, kind string, list func(context.Context, string) ([]T, error)) []T {
	rows, err := list(ctx, sessionID)
	if err != nil {
		metrics.ArtifactFailed(kind, metrics.StageFaults)
		log.Warn().Err(err).Str("session_id", sessionID).Str("kind", kind).Msg("replay: fault query failed")
		return []T{}
	}
	if rows == nil {
		return []T{}
	}
	return rows
}

func filterKinds(arts []*domain.Artifact, kinds ...domain.ArtifactKind) []*domain.Artifact {
	out := make([]*domain.Artifact, 0, len(arts))
	for _, a := range arts {
		for _, k := range kinds {
			if a.Kind == k {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

func countByKind(arts []*domain.Artifact) map[domain.ArtifactKind]int {
	counts := make(map[domain.ArtifactKind]int, len(domain.ArtifactKinds))
	for _, k := range domain.ArtifactKinds {
		counts[k] = 0
	}
	for _, a := range arts {
		counts[a.Kind]++
	}
	return counts
}
