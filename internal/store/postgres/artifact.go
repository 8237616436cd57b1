package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/replayd/internal/domain"
)

type ArtifactRepo struct {
	pool *pgxpool.Pool
}

func NewArtifactRepo(pool *pgxpool.Pool) *ArtifactRepo {
	return &ArtifactRepo{pool: pool}
}

// ListReady returns the session's ready artifacts in upload order.
func (r *ArtifactRepo) ListReady(ctx context.Context, sessionID string) ([]*domain.Artifact, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, kind, s3_object_key, size_bytes, status, timestamp, created_at
		 FROM recording_artifacts
		 WHERE session_id = $1 AND status = $2
		 ORDER BY created_at, id`,
		sessionID, domain.ArtifactStatusReady,
	)
	if err != nil {
		return nil, fmt.Errorf("artifactRepo.ListReady: %w", err)
	}
	defer rows.Close()

	var artifacts []*domain.Artifact
	for rows.Next() {
		var a domain.Artifact

		err = rows.Scan(&a.ID, &a.SessionID, &a.Kind, &a.ObjectKey, &a.SizeBytes, &a.Status, &a.Timestamp, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("artifactRepo.ListReady: scan: %w", err)
		}
		artifacts = append(artifacts, &a)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("artifactRepo.ListReady: rows: %w", err)
	}

	return artifacts, nil
}
