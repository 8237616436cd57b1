package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Project owns sessions and belongs to exactly one team.
type Project struct {
	ID        uuid.UUID
	TeamID    uuid.UUID
	Name      string
	CreatedAt time.Time
}

type ProjectRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Project, error)
}

// TeamRepository answers membership questions for authorization.
type TeamRepository interface {
	IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error)
}
