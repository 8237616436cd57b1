package v1_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/replayd/internal/domain"
	"github.com/gosuda/replayd/internal/frames"
	"github.com/gosuda/replayd/internal/replay"
	"github.com/gosuda/replayd/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers: inject the user into context for GetCtx
// ---------------------------------------------------------------------------

func userCtx(userID uuid.UUID) context.Context {
	return middleware.WithUserID(context.Background(), userID)
}

func makeSession(id string) *domain.Session {
	return &domain.Session{
		ID:              id,
		ProjectID:       uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		StartedAt:       time.UnixMilli(1_700_000_000_000).UTC(),
		DurationSeconds: 60,
		Platform:        "ios",
	}
}

// parseErrorBody decodes the RFC 9457 problem detail from the response body.
func parseErrorBody(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

// ---------------------------------------------------------------------------
// Mock SessionAuthorizer
// ---------------------------------------------------------------------------

type mockAuthorizer struct {
	authorizeSessionFunc func(ctx context.Context, userID uuid.UUID, sessionID string) (*domain.Session, error)
}

func (m *mockAuthorizer) AuthorizeSession(ctx context.Context, userID uuid.UUID, sessionID string) (*domain.Session, error) {
	return m.authorizeSessionFunc(ctx, userID, sessionID)
}

// allowAll authorizes every session ID as a fresh session.
func allowAll() *mockAuthorizer {
	return &mockAuthorizer{
		authorizeSessionFunc: func(_ context.Context, _ uuid.UUID, sessionID string) (*domain.Session, error) {
			return makeSession(sessionID), nil
		},
	}
}

// ---------------------------------------------------------------------------
// Mock ReplayService
// ---------------------------------------------------------------------------

type mockReplayService struct {
	timelineFunc  func(ctx context.Context, s *domain.Session) (*replay.Timeline, error)
	coreFunc      func(ctx context.Context, s *domain.Session) *replay.Core
	statsFunc     func(ctx context.Context, s *domain.Session) *replay.Stats
	hierarchyFunc func(ctx context.Context, s *domain.Session) []replay.HierarchySnapshot
}

func (m *mockReplayService) Timeline(ctx context.Context, s *domain.Session) (*replay.Timeline, error) {
	return m.timelineFunc(ctx, s)
}

func (m *mockReplayService) Core(ctx context.Context, s *domain.Session) *replay.Core {
	return m.coreFunc(ctx, s)
}

func (m *mockReplayService) Stats(ctx context.Context, s *domain.Session) *replay.Stats {
	return m.statsFunc(ctx, s)
}

func (m *mockReplayService) Hierarchy(ctx context.Context, s *domain.Session) []replay.HierarchySnapshot {
	return m.hierarchyFunc(ctx, s)
}

// ---------------------------------------------------------------------------
// Mock FrameCatalog / FrameFetcher
// ---------------------------------------------------------------------------

type mockCatalog struct {
	listFunc func(ctx context.Context, s *domain.Session, opts replay.FrameListOptions) *frames.FrameSet
}

func (m *mockCatalog) List(ctx context.Context, s *domain.Session, opts replay.FrameListOptions) *frames.FrameSet {
	return m.listFunc(ctx, s, opts)
}

type mockFetcher struct {
	fetchFunc func(ctx context.Context, projectID uuid.UUID, key string) ([]byte, bool, error)
}

func (m *mockFetcher) Fetch(ctx context.Context, projectID uuid.UUID, key string) ([]byte, bool, error) {
	return m.fetchFunc(ctx, projectID, key)
}
