package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/replayd/internal/domain"
	"github.com/gosuda/replayd/internal/replay"
	"github.com/gosuda/replayd/internal/server/middleware"
)

type SessionPathInput struct {
	ID string `path:"id" minLength:"1" maxLength:"128" doc:"Session ID"`
}

type TimelineOutput struct {
	Body *replay.Timeline
}

type CoreOutput struct {
	Body *replay.Core
}

type HierarchyOutput struct {
	Body struct {
		HierarchySnapshots []replay.HierarchySnapshot `json:"hierarchySnapshots"`
	}
}

type StatsOutput struct {
	Body *replay.Stats
}

func RegisterSessionRoutes(api huma.API, authz SessionAuthorizer, svc ReplayService) {
	huma.Register(api, huma.Operation{
		OperationID: "get-session-timeline",
		Method:      http.MethodGet,
		Path:        "/sessions/{id}/timeline",
		Summary:     "Get the merged replay timeline of a session",
		Tags:        []string{"Replay"},
	}, func(ctx context.Context, input *SessionPathInput) (*TimelineOutput, error) {
		s, err := authorizedSession(ctx, authz, input.ID)
		if err != nil {
			return nil, err
		}

		tl, err := svc.Timeline(ctx, s)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to build timeline", err)
		}

		return &TimelineOutput{Body: tl}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-session-core",
		Method:      http.MethodGet,
		Path:        "/sessions/{id}/core",
		Summary:     "Get the session summary with artifact counts and sizes",
		Tags:        []string{"Replay"},
	}, func(ctx context.Context, input *SessionPathInput) (*CoreOutput, error) {
		s, err := authorizedSession(ctx, authz, input.ID)
		if err != nil {
			return nil, err
		}

		return &CoreOutput{Body: svc.Core(ctx, s)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-session-hierarchy",
		Method:      http.MethodGet,
		Path:        "/sessions/{id}/hierarchy",
		Summary:     "Get the UI hierarchy snapshots of a session",
		Tags:        []string{"Replay"},
	}, func(ctx context.Context, input *SessionPathInput) (*HierarchyOutput, error) {
		s, err := authorizedSession(ctx, authz, input.ID)
		if err != nil {
			return nil, err
		}

		out := &HierarchyOutput{}
		out.Body.HierarchySnapshots = svc.Hierarchy(ctx, s)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-session-stats",
		Method:      http.MethodGet,
		Path:        "/sessions/{id}/stats",
		Summary:     "Get storage and network statistics of a session",
		Tags:        []string{"Replay"},
	}, func(ctx context.Context, input *SessionPathInput) (*StatsOutput, error) {
		s, err := authorizedSession(ctx, authz, input.ID)
		if err != nil {
			return nil, err
		}

		return &StatsOutput{Body: svc.Stats(ctx, s)}, nil
	})
}

// authorizedSession resolves the caller and the session, mapping domain
// errors to problem responses.
func authorizedSession(ctx context.Context, authz SessionAuthorizer, sessionID string) (*domain.Session, error) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("missing user context")
	}

	s, err := authz.AuthorizeSession(ctx, userID, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return nil, huma.Error404NotFound("session not found")
		case errors.Is(err, domain.ErrForbidden):
			return nil, huma.Error403Forbidden("access to session denied")
		case errors.Is(err, domain.ErrUnauthorized):
			return nil, huma.Error401Unauthorized("missing or invalid credentials")
		default:
			return nil, huma.Error500InternalServerError("failed to load session", err)
		}
	}

	return s, nil
}
