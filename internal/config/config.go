package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Frame cache backends.
const (
	FrameCacheMemory = "memory"
	FrameCacheRedis  = "redis"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Server      ServerConfig
	Storage     StorageConfig
	Replay      ReplayConfig
	FrameCache  FrameCacheConfig
	Frames      FramesConfig
	Log         LogConfig
	AutoMigrate bool
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// JWTConfig holds the secret shared with the identity provider.
type JWTConfig struct {
	Secret string //nolint:gosec // G117: JWT signing secret config
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// StorageConfig holds S3-compatible object storage settings.
type StorageConfig struct {
	Endpoint       string
	Region         string
	AccessKey      string
	SecretKey      string //nolint:gosec // G117: object storage credential
	BucketTemplate string
	UseSSL         bool
	PresignTTL     time.Duration
}

// ReplayConfig bounds artifact retrieval.
type ReplayConfig struct {
	FetchConcurrency int
	FetchTimeout     time.Duration
}

// FrameCacheConfig selects and sizes the frame proxy cache.
type FrameCacheConfig struct {
	Backend    string
	TTL        time.Duration
	MaxEntries int
}

// FramesConfig points at the frame extraction service. Empty URL disables it.
type FramesConfig struct {
	ExtractorURL string
	Timeout      time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production,
// sensitive values (JWT secret, DB password) must be set explicitly.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("REPLAYD_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("REPLAYD_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("REPLAYD_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("REPLAYD_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("REPLAYD_SERVER_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateRPS, err := getEnvFloat("REPLAYD_RATE_LIMIT_RPS", 50)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateBurst, err := getEnvInt("REPLAYD_RATE_LIMIT_BURST", 200)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	storageSSL, err := getEnvBool("REPLAYD_S3_USE_SSL", true)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	presignTTL, err := getEnvDuration("REPLAYD_S3_PRESIGN_TTL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	fetchConcurrency, err := getEnvInt("REPLAYD_FETCH_CONCURRENCY", 6)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	fetchTimeout, err := getEnvDuration("REPLAYD_FETCH_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cacheTTL, err := getEnvDuration("REPLAYD_FRAME_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cacheMax, err := getEnvInt("REPLAYD_FRAME_CACHE_MAX_ENTRIES", 500)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	framesTimeout, err := getEnvDuration("REPLAYD_FRAMES_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	autoMigrate, err := getEnvBool("REPLAYD_AUTO_MIGRATE", false)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	corsOrigins := getEnvList("REPLAYD_CORS_ORIGINS", []string{"http://localhost:5173"})

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("REPLAYD_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("REPLAYD_DB_USER", "replayd"),
			Password: getEnv("REPLAYD_DB_PASSWORD", ""),
			DBName:   getEnv("REPLAYD_DB_NAME", "replayd_dev"),
			SSLMode:  getEnv("REPLAYD_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REPLAYD_REDIS_ADDR", ""),
			Password: getEnv("REPLAYD_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret: getEnv("REPLAYD_JWT_SECRET", ""),
		},
		Server: ServerConfig{
			Addr:           getEnv("REPLAYD_SERVER_ADDR", ":8080"),
			ReadTimeout:    readTimeout,
			WriteTimeout:   writeTimeout,
			CORSOrigins:    corsOrigins,
			RateLimitRPS:   rateRPS,
			RateLimitBurst: rateBurst,
		},
		Storage: StorageConfig{
			Endpoint:       getEnv("REPLAYD_S3_ENDPOINT", "localhost:9000"),
			Region:         getEnv("REPLAYD_S3_REGION", "us-east-1"),
			AccessKey:      getEnv("REPLAYD_S3_ACCESS_KEY", ""),
			SecretKey:      getEnv("REPLAYD_S3_SECRET_KEY", ""),
			BucketTemplate: getEnv("REPLAYD_S3_BUCKET", "replay-artifacts"),
			UseSSL:         storageSSL,
			PresignTTL:     presignTTL,
		},
		Replay: ReplayConfig{
			FetchConcurrency: fetchConcurrency,
			FetchTimeout:     fetchTimeout,
		},
		FrameCache: FrameCacheConfig{
			Backend:    strings.ToLower(getEnv("REPLAYD_FRAME_CACHE_BACKEND", FrameCacheMemory)),
			TTL:        cacheTTL,
			MaxEntries: cacheMax,
		},
		Frames: FramesConfig{
			ExtractorURL: getEnv("REPLAYD_FRAMES_URL", ""),
			Timeout:      framesTimeout,
		},
		Log: LogConfig{
			Level:  getEnv("REPLAYD_LOG_LEVEL", "info"),
			Format: getEnv("REPLAYD_LOG_FORMAT", "json"),
		},
		AutoMigrate: autoMigrate,
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New("REPLAYD_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("REPLAYD_JWT_SECRET must be at least 32 characters")
	}

	if c.Database.SSLMode == "disable" {
		log.Warn().Msg("REPLAYD_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("REPLAYD_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("REPLAYD_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("REPLAYD_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("REPLAYD_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Server.RateLimitRPS <= 0 || c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("REPLAYD_RATE_LIMIT_RPS must be positive and REPLAYD_RATE_LIMIT_BURST >= 1, got %g/%d",
			c.Server.RateLimitRPS, c.Server.RateLimitBurst)
	}
	if c.Storage.BucketTemplate == "" {
		return errors.New("REPLAYD_S3_BUCKET is required")
	}
	if c.Storage.PresignTTL <= 0 || c.Storage.PresignTTL > 7*24*time.Hour {
		return fmt.Errorf("REPLAYD_S3_PRESIGN_TTL must be within (0, 168h], got %s", c.Storage.PresignTTL)
	}
	if c.Replay.FetchConcurrency < 1 || c.Replay.FetchConcurrency > 64 {
		return fmt.Errorf("REPLAYD_FETCH_CONCURRENCY must be 1-64, got %d", c.Replay.FetchConcurrency)
	}
	if c.Replay.FetchTimeout < 0 {
		return fmt.Errorf("REPLAYD_FETCH_TIMEOUT must not be negative, got %s", c.Replay.FetchTimeout)
	}
	switch c.FrameCache.Backend {
	case FrameCacheMemory:
	case FrameCacheRedis:
		if c.Redis.Addr == "" {
			return errors.New("REPLAYD_FRAME_CACHE_BACKEND=redis requires REPLAYD_REDIS_ADDR")
		}
	default:
		return fmt.Errorf("REPLAYD_FRAME_CACHE_BACKEND must be %q or %q, got %q", FrameCacheMemory, FrameCacheRedis, c.FrameCache.Backend)
	}
	if c.FrameCache.TTL <= 0 {
		return fmt.Errorf("REPLAYD_FRAME_CACHE_TTL must be positive, got %s", c.FrameCache.TTL)
	}
	if c.FrameCache.MaxEntries < 1 {
		return fmt.Errorf("REPLAYD_FRAME_CACHE_MAX_ENTRIES must be >= 1, got %d", c.FrameCache.MaxEntries)
	}
	if c.Frames.Timeout <= 0 {
		return fmt.Errorf("REPLAYD_FRAMES_TIMEOUT must be positive, got %s", c.Frames.Timeout)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
