package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/replayd/internal/domain"
	"github.com/gosuda/replayd/internal/frames"
	"github.com/gosuda/replayd/internal/replay"
)

// SessionAuthorizer resolves a session the caller may read.
// *auth.Authorizer satisfies this interface.
type SessionAuthorizer interface {
	AuthorizeSession(ctx context.Context, userID uuid.UUID, sessionID string) (*domain.Session, error)
}

// ReplayService abstracts payload assembly for handler testing.
// *replay.Service satisfies this interface.
type ReplayService interface {
	Timeline(ctx context.Context, s *domain.Session) (*replay.Timeline, error)
	Core(ctx context.Context, s *domain.Session) *replay.Core
	Stats(ctx context.Context, s *domain.Session) *replay.Stats
	Hierarchy(ctx context.Context, s *domain.Session) []replay.HierarchySnapshot
}

// FrameCatalog lists frames. *replay.FrameCatalog satisfies this interface.
type FrameCatalog interface {
	List(ctx context.Context, s *domain.Session, opts replay.FrameListOptions) *frames.FrameSet
}

// FrameFetcher serves frame bytes. *replay.FrameProxy satisfies this interface.
type FrameFetcher interface {
	Fetch(ctx context.Context, projectID uuid.UUID, key string) ([]byte, bool, error)
}
