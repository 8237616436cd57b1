package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/replayd/internal/domain"
)

type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

func (r *SessionRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	var s domain.Session
	var platform, appVersion, deviceModel, userDisplay, promote *string

	err := r.pool.QueryRow(ctx,
		`SELECT id, project_id, started_at, ended_at, duration_seconds,
		        platform, app_version, device_model, user_display_id,
		        recording_deleted, recording_expired, is_replay_promoted, replay_promoted_reason,
		        created_at
		 FROM sessions WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.ProjectID, &s.StartedAt, &s.EndedAt, &s.DurationSeconds,
		&platform, &appVersion, &deviceModel, &userDisplay,
		&s.RecordingDeleted, &s.RecordingExpired, &s.IsReplayPromoted, &promote,
		&s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("sessionRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sessionRepo.GetByID: %w", err)
	}

	s.Platform = derefStr(platform)
	s.AppVersion = derefStr(appVersion)
	s.DeviceModel = derefStr(deviceModel)
	s.UserDisplayID = derefStr(userDisplay)
	s.ReplayPromotedReason = derefStr(promote)

	return &s, nil
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
