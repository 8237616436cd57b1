package replay

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/replayd/internal/domain"
	"github.com/gosuda/replayd/internal/framecache"
	"github.com/gosuda/replayd/internal/frames"
	"github.com/gosuda/replayd/internal/metrics"
)

// FrameCacheKey identifies a frame across projects.
func FrameCacheKey(projectID uuid.UUID, key string) string {
	return projectID.String() + ":" + key
}

// FrameProxy serves frame bytes from the cache, fetching from object
// storage once per key on a miss.
type FrameProxy struct {
	cache     framecache.Cache
	retriever *Retriever
}

func NewFrameProxy(cache framecache.Cache, retriever *Retriever) *FrameProxy {
	return &FrameProxy{cache: cache, retriever: retriever}
}

// Fetch returns the frame bytes and whether they came from the cache.
// Callers must have authorized access to the owning session.
func (p *FrameProxy) Fetch(ctx context.Context, projectID uuid.UUID, key string) ([]byte, bool, error) {
	cacheKey := FrameCacheKey(projectID, key)
	if data, ok := p.cache.Get(ctx, cacheKey); ok {
		metrics.FrameCacheRequests.WithLabelValues("hit").Inc()
		return data, true, nil
	}
	metrics.FrameCacheRequests.WithLabelValues("miss").Inc()

	data, err := p.retriever.FetchBytes(ctx, projectID, key)
	if err != nil {
		return nil, false, fmt.Errorf("replay.FrameProxy.Fetch: %w", err)
	}
	p.cache.Put(ctx, cacheKey, data)
	return data, false, nil
}

// FrameExtractor lists the frames of a session. A nil set means no frames.
type FrameExtractor interface {
	Extract(ctx context.Context, sessionID string, opts frames.Options) (*frames.FrameSet, error)
}

// URLSigner issues time-limited direct URLs for stored objects.
type URLSigner interface {
	SignedURL(ctx context.Context, projectID uuid.UUID, key string, ttl time.Duration) (string, error)
}

// FrameListOptions controls how frames without a direct URL are addressed.
type FrameListOptions struct {
	Signed    bool
	ProxyURL  func(key string) string
	MaxFrames int
}

// FrameCatalog lists replay frames and makes every frame addressable.
type FrameCatalog struct {
	extractor FrameExtractor
	signer    URLSigner
	signedTTL time.Duration
}

func NewFrameCatalog(extractor FrameExtractor, signer URLSigner, signedTTL time.Duration) *FrameCatalog {
	return &FrameCatalog{extractor: extractor, signer: signer, signedTTL: signedTTL}
}

// List returns the frames of s ordered by timestamp. Frames that carry only
// an object key get a presigned URL when opts.Signed is set, else a proxy
// URL. An unavailable extractor yields an empty set.
func (c *FrameCatalog) List(ctx context.Context, s *domain.Session, opts FrameListOptions) *frames.FrameSet {
	empty := &frames.FrameSet{Frames: []frames.Frame{}}
	if c.extractor == nil || !s.RecordingAvailable() {
		return empty
	}

	set, err := c.extractor.Extract(ctx, s.ID, frames.Options{ProjectID: s.ProjectID.String(), MaxFrames: opts.MaxFrames})
	if err != nil {
		metrics.ArtifactFailed(string(domain.ArtifactScreenshots), metrics.StageFrames)
		log.Warn().Err(err).Str("session_id", s.ID).Msg("replay: frame extraction failed")
		return empty
	}
	if set == nil {
		return empty
	}

	out := &frames.FrameSet{
		Frames:      make([]frames.Frame, 0, len(set.Frames)),
		TotalFrames: set.TotalFrames,
		Cached:      set.Cached,
	}
	for _, f := range set.Frames {
		if f.URL == "" && f.Key != "" {
			f.URL = c.frameURL(ctx, s, f.Key, opts)
		}
		out.Frames = append(out.Frames, f)
	}
	sortFrames(out.Frames)
	return out
}

func (c *FrameCatalog) frameURL(ctx context.Context, s *domain.Session, key string, opts FrameListOptions) string {
	if opts.Signed && c.signer != nil {
		u, err := c.signer.SignedURL(ctx, s.ProjectID, key, c.signedTTL)
		if err == nil {
			return u
		}
		log.Debug().Err(err).Str("session_id", s.ID).Str("key", key).Msg("replay: presign failed, using proxy url")
	}
	if opts.ProxyURL != nil {
		return opts.ProxyURL(key)
	}
	return ""
}

func sortFrames(fs []frames.Frame) {
	sort.SliceStable(fs, func(i, j int) bool {
		return fs[i].Timestamp < fs[j].Timestamp
	})
}
