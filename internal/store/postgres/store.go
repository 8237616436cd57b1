package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/replayd/internal/domain"
)

type Store struct {
	pool      *pgxpool.Pool
	sessions  *SessionRepo
	artifacts *ArtifactRepo
	faults    *FaultRepo
	projects  *ProjectRepo
	teams     *TeamRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:      pool,
		sessions:  NewSessionRepo(pool),
		artifacts: NewArtifactRepo(pool),
		faults:    NewFaultRepo(pool),
		projects:  NewProjectRepo(pool),
		teams:     NewTeamRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres.Store.Ping: %w", err)
	}
	return nil
}

func (s *Store) Sessions() domain.SessionRepository   { return s.sessions }
func (s *Store) Artifacts() domain.ArtifactRepository { return s.artifacts }
func (s *Store) Faults() domain.FaultRepository       { return s.faults }
func (s *Store) Projects() domain.ProjectRepository   { return s.projects }
func (s *Store) Teams() domain.TeamRepository         { return s.teams }
