package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gosuda/replayd/internal/store/postgres"
)

// MigrateUpCommand applies pending migrations.
type MigrateUpCommand struct {
	globals *GlobalFlags
}

// MigrateDownCommand rolls back migrations.
type MigrateDownCommand struct {
	To int64 `long:"to" description:"Roll back down to this version instead of one step" default:"0"`

	globals *GlobalFlags
}

// MigrateStatusCommand logs applied and pending migrations.
type MigrateStatusCommand struct {
	globals *GlobalFlags
}

func (c *MigrateUpCommand) Execute(_ []string) error {
	return withMigrator(c.globals, func(ctx context.Context, m *postgres.Migrator) error {
		return m.Up(ctx)
	})
}

func (c *MigrateDownCommand) Execute(_ []string) error {
	return withMigrator(c.globals, func(ctx context.Context, m *postgres.Migrator) error {
		return m.Down(ctx, c.To)
	})
}

func (c *MigrateStatusCommand) Execute(_ []string) error {
	return withMigrator(c.globals, func(ctx context.Context, m *postgres.Migrator) error {
		return m.Status(ctx)
	})
}

func withMigrator(globals *GlobalFlags, fn func(context.Context, *postgres.Migrator) error) error {
	cfg, err := loadConfig(globals)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return fn(ctx, postgres.NewMigrator(cfg.Database.DSN()))
}
