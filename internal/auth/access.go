package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gosuda/replayd/internal/domain"
)

// Authorizer decides whether a user may read a session: the user must be a
// member of the team that owns the session's project.
type Authorizer struct {
	sessions domain.SessionRepository
	projects domain.ProjectRepository
	teams    domain.TeamRepository
}

func NewAuthorizer(sessions domain.SessionRepository, projects domain.ProjectRepository, teams domain.TeamRepository) *Authorizer {
	return &Authorizer{sessions: sessions, projects: projects, teams: teams}
}

// AuthorizeSession returns the session when userID may read it. A missing
// session or project yields domain.ErrNotFound; a non-member gets
// domain.ErrForbidden. Other errors are infrastructure failures.
func (a *Authorizer) AuthorizeSession(ctx context.Context, userID uuid.UUID, sessionID string) (*domain.Session, error) {
	session, err := a.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("auth.AuthorizeSession: session: %w", err)
	}

	project, err := a.projects.GetByID(ctx, session.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("auth.AuthorizeSession: project: %w", err)
	}

	member, err := a.teams.IsMember(ctx, project.TeamID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("auth.AuthorizeSession: %w", domain.ErrForbidden)
		}
		return nil, fmt.Errorf("auth.AuthorizeSession: membership: %w", err)
	}
	if !member {
		return nil, fmt.Errorf("auth.AuthorizeSession: %w", domain.ErrForbidden)
	}

	return session, nil
}
