package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/replayd/internal/api/ws"
	"github.com/gosuda/replayd/internal/auth"
	"github.com/gosuda/replayd/internal/config"
	"github.com/gosuda/replayd/internal/framecache"
	"github.com/gosuda/replayd/internal/frames"
	"github.com/gosuda/replayd/internal/objectstore"
	"github.com/gosuda/replayd/internal/replay"
	"github.com/gosuda/replayd/internal/server"
	"github.com/gosuda/replayd/internal/store/postgres"
	redisstore "github.com/gosuda/replayd/internal/store/redis"
)

// ServeCommand starts the HTTP server.
type ServeCommand struct {
	Migrate bool `long:"migrate" description:"Apply pending migrations before serving (same as REPLAYD_AUTO_MIGRATE=true)"`

	globals *GlobalFlags
}

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(_ []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return serve(ctx, cfg, c.Migrate || cfg.AutoMigrate)
}

func serve(ctx context.Context, cfg *config.Config, migrate bool) error {
	if migrate {
		if err := postgres.NewMigrator(cfg.Database.DSN()).Up(ctx); err != nil {
			return err
		}
	}

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	// Connect to PostgreSQL.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	objects, err := objectstore.New(objectstore.Config{
		Endpoint:       cfg.Storage.Endpoint,
		Region:         cfg.Storage.Region,
		AccessKey:      cfg.Storage.AccessKey,
		SecretKey:      cfg.Storage.SecretKey,
		BucketTemplate: cfg.Storage.BucketTemplate,
		UseSSL:         cfg.Storage.UseSSL,
	})
	if err != nil {
		return err
	}

	ready := []server.Pinger{store}

	// Redis is optional: it backs the artifact stream and the shared frame cache.
	var (
		rc         *redisstore.Client
		subscriber ws.Subscriber
	)
	if cfg.Redis.Addr != "" {
		rc, err = redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer rc.Close()
		subscriber = rc
		ready = append(ready, rc)
	} else {
		log.Info().Msg("redis not configured; artifact stream disabled")
	}

	cache, err := newFrameCache(cfg.FrameCache, rc)
	if err != nil {
		return err
	}

	retriever := replay.NewRetriever(store.Artifacts(), objects, cfg.Replay.FetchConcurrency, cfg.Replay.FetchTimeout)

	var extractor replay.FrameExtractor
	if client := frames.NewClient(cfg.Frames.ExtractorURL, cfg.Frames.Timeout); client != nil {
		extractor = client
	} else {
		log.Info().Msg("frame extractor not configured; frame lists will be empty")
	}

	srv := server.New(ctx, cfg, server.Deps{
		Authorizer: auth.NewAuthorizer(store.Sessions(), store.Projects(), store.Teams()),
		Replay:     replay.NewService(store.Faults(), retriever),
		Frames:     replay.NewFrameCatalog(extractor, objects, cfg.Storage.PresignTTL),
		FrameBytes: replay.NewFrameProxy(cache, retriever),
		Subscriber: subscriber,
		Ready:      ready,
	})

	// Start server in background goroutine.
	go func() {
		log.Info().
			Str("addr", cfg.Server.Addr).
			Str("frame_cache", cfg.FrameCache.Backend).
			Int("fetch_concurrency", retriever.Concurrency()).
			Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}

// newFrameCache selects the configured frame cache backend.
func newFrameCache(fc config.FrameCacheConfig, rc *redisstore.Client) (framecache.Cache, error) {
	switch fc.Backend {
	case config.FrameCacheRedis:
		if rc == nil {
			return nil, fmt.Errorf("frame cache: backend %q requires redis", fc.Backend)
		}
		return framecache.NewRedis(rc.Redis(), fc.TTL), nil
	case config.FrameCacheMemory, "":
		return framecache.NewMemory(fc.TTL, fc.MaxEntries), nil
	default:
		return nil, fmt.Errorf("frame cache: unknown backend %q", fc.Backend)
	}
}
