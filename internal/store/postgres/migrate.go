package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	migrationsDir    = "migrations"
	migrationTimeout = time.Minute
)

// Migrator applies the embedded schema migrations with goose.
type Migrator struct {
	dsn string
}

func NewMigrator(dsn string) *Migrator {
	return &Migrator{dsn: dsn}
}

// Up applies every pending migration.
func (m *Migrator) Up(ctx context.Context) error {
	return m.withDB(ctx, func(ctx context.Context, db *sql.DB) error {
		log.Info().Msg("postgres: applying migrations")
		if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
			return fmt.Errorf("postgres.Migrator.Up: %w", err)
		}
		log.Info().Msg("postgres: migrations applied")
		return nil
	})
}

// Down rolls back the latest migration, or down to version when it is > 0.
func (m *Migrator) Down(ctx context.Context, version int64) error {
	return m.withDB(ctx, func(ctx context.Context, db *sql.DB) error {
		var err error
		if version > 0 {
			log.Info().Int64("target", version).Msg("postgres: rolling back migrations")
			err = goose.DownToContext(ctx, db, migrationsDir, version)
		} else {
			log.Info().Msg("postgres: rolling back latest migration")
			err = goose.DownContext(ctx, db, migrationsDir)
		}
		if err != nil {
			return fmt.Errorf("postgres.Migrator.Down: %w", err)
		}
		return nil
	})
}

// Status logs applied and pending migrations.
func (m *Migrator) Status(ctx context.Context) error {
	return m.withDB(ctx, func(ctx context.Context, db *sql.DB) error {
		if err := goose.StatusContext(ctx, db, migrationsDir); err != nil {
			return fmt.Errorf("postgres.Migrator.Status: %w", err)
		}
		return nil
	})
}

func (m *Migrator) withDB(ctx context.Context, fn func(context.Context, *sql.DB) error) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("postgres.Migrator: dialect: %w", err)
	}

	db, err := sql.Open("pgx", m.dsn)
	if err != nil {
		return fmt.Errorf("postgres.Migrator: open: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, migrationTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres.Migrator: ping: %w", err)
	}

	return fn(ctx, db)
}
