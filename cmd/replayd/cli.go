package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	goflags "github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/replayd/internal/config"
)

// GlobalFlags apply to every subcommand.
type GlobalFlags struct {
	Verbose bool `short:"v" long:"verbose" description:"Enable debug logging regardless of REPLAYD_LOG_LEVEL"`
	Version bool `long:"version" description:"Show version and exit"`
}

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Serve         *ServeCommand
	MigrateUp     *MigrateUpCommand
	MigrateDown   *MigrateDownCommand
	MigrateStatus *MigrateStatusCommand
	Token         *TokenCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(stdout io.Writer) (*goflags.Parser, *GlobalFlags, *commands, error) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "replayd"
	parser.LongDescription = "Session replay read path: timelines, hierarchy snapshots and frames for recorded sessions."
	// Running without a subcommand starts the server.
	parser.SubcommandsOptional = true

	cmds := &commands{
		Serve:         &ServeCommand{globals: &globals},
		MigrateUp:     &MigrateUpCommand{globals: &globals},
		MigrateDown:   &MigrateDownCommand{globals: &globals},
		MigrateStatus: &MigrateStatusCommand{globals: &globals},
		Token:         &TokenCommand{globals: &globals, out: stdout},
	}

	if _, err := parser.AddCommand("serve", "Start the HTTP server", "Start the replay HTTP API, websocket stream and metrics endpoint.", cmds.Serve); err != nil {
		return nil, nil, nil, fmt.Errorf("register serve: %w", err)
	}

	migrate, err := parser.AddCommand("migrate", "Manage database migrations", "Apply, roll back or inspect the embedded schema migrations.", &struct{}{})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("register migrate: %w", err)
	}
	if _, err := migrate.AddCommand("up", "Apply pending migrations", "Apply every pending migration.", cmds.MigrateUp); err != nil {
		return nil, nil, nil, fmt.Errorf("register migrate up: %w", err)
	}
	if _, err := migrate.AddCommand("down", "Roll back migrations", "Roll back the latest migration, or down to --to.", cmds.MigrateDown); err != nil {
		return nil, nil, nil, fmt.Errorf("register migrate down: %w", err)
	}
	if _, err := migrate.AddCommand("status", "Show migration status", "Log applied and pending migrations.", cmds.MigrateStatus); err != nil {
		return nil, nil, nil, fmt.Errorf("register migrate status: %w", err)
	}

	if _, err := parser.AddCommand("token", "Issue a development access token", "Sign an access token with REPLAYD_JWT_SECRET for local testing.", cmds.Token); err != nil {
		return nil, nil, nil, fmt.Errorf("register token: %w", err)
	}

	return parser, &globals, cmds, nil
}

// run parses args and executes the matched subcommand, defaulting to serve.
func run(args []string) error {
	parser, globals, cmds, err := buildParser(os.Stdout)
	if err != nil {
		return err
	}

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *goflags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == goflags.ErrHelp {
			return nil
		}
		return err
	}

	if globals.Version {
		fmt.Printf("replayd %s\n", version)
		return nil
	}

	if parser.Active == nil {
		return cmds.Serve.Execute(nil)
	}
	return nil
}

// loadConfig reads the environment and configures the global logger.
func loadConfig(globals *GlobalFlags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.Log, globals.Verbose)
	return cfg, nil
}

func setupLogging(lc config.LogConfig, verbose bool) {
	level, err := zerolog.ParseLevel(lc.Level)
	if err != nil || lc.Level == "" {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if lc.Format == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
