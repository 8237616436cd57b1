package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	goflags "github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/replayd/internal/auth"
	"github.com/gosuda/replayd/internal/config"
	"github.com/gosuda/replayd/internal/framecache"
)

const testSecret = "cli-test-secret-at-least-32-chars!!"

// parseOnly builds the parser and records the selected command instead of
// executing it.
func parseOnly(t *testing.T, args ...string) (goflags.Commander, *commands, error) {
	t.Helper()

	parser, _, cmds, err := buildParser(&bytes.Buffer{})
	require.NoError(t, err)

	var selected goflags.Commander
	parser.CommandHandler = func(cmd goflags.Commander, _ []string) error {
		selected = cmd
		return nil
	}

	_, err = parser.ParseArgs(args)
	return selected, cmds, err
}

func TestSubcommandsRecognized(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want func(*commands) goflags.Commander
	}{
		{name: "serve", args: []string{"serve"}, want: func(c *commands) goflags.Commander { return c.Serve }},
		{name: "migrate up", args: []string{"migrate", "up"}, want: func(c *commands) goflags.Commander { return c.MigrateUp }},
		{name: "migrate down", args: []string{"migrate", "down", "--to", "2"}, want: func(c *commands) goflags.Commander { return c.MigrateDown }},
		{name: "migrate status", args: []string{"migrate", "status"}, want: func(c *commands) goflags.Commander { return c.MigrateStatus }},
		{name: "token", args: []string{"token", "--ttl", "5m"}, want: func(c *commands) goflags.Commander { return c.Token }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			selected, cmds, err := parseOnly(t, tc.args...)
			require.NoError(t, err)
			assert.Same(t, tc.want(cmds), selected)
		})
	}
}

func TestMigrateDownFlags(t *testing.T) {
	t.Parallel()

	_, cmds, err := parseOnly(t, "migrate", "down", "--to", "2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), cmds.MigrateDown.To)
}

func TestMigrateRequiresSubcommand(t *testing.T) {
	t.Parallel()

	_, _, err := parseOnly(t, "migrate")
	require.Error(t, err)
}

func TestNoSubcommandIsAllowed(t *testing.T) {
	t.Parallel()

	parser, _, _, err := buildParser(&bytes.Buffer{})
	require.NoError(t, err)

	_, err = parser.ParseArgs([]string{"--verbose"})
	require.NoError(t, err)
	assert.Nil(t, parser.Active, "run falls back to serve")
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("REPLAYD_JWT_SECRET", testSecret)
	t.Setenv("REPLAYD_REDIS_ADDR", "")

	var out bytes.Buffer
	cmd := &TokenCommand{
		User:    "11111111-2222-3333-4444-555555555555",
		TTL:     time.Minute,
		globals: &GlobalFlags{},
		out:     &out,
	}

	require.NoError(t, cmd.Execute(nil))

	claims, err := auth.ValidateToken(testSecret, strings.TrimSpace(out.String()))
	require.NoError(t, err)
	userID, err := claims.UserUUID()
	require.NoError(t, err)
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", userID.String())
}

func TestTokenCommand_InvalidUser(t *testing.T) {
	t.Setenv("REPLAYD_JWT_SECRET", testSecret)
	t.Setenv("REPLAYD_REDIS_ADDR", "")

	cmd := &TokenCommand{User: "not-a-uuid", TTL: time.Minute, globals: &GlobalFlags{}, out: &bytes.Buffer{}}

	err := cmd.Execute(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--user")
}

func TestNewFrameCache(t *testing.T) {
	t.Parallel()

	t.Run("memory", func(t *testing.T) {
		t.Parallel()

		c, err := newFrameCache(config.FrameCacheConfig{Backend: config.FrameCacheMemory, TTL: time.Minute, MaxEntries: 3}, nil)
		require.NoError(t, err)
		assert.IsType(t, &framecache.Memory{}, c)
	})

	t.Run("redis without client", func(t *testing.T) {
		t.Parallel()

		_, err := newFrameCache(config.FrameCacheConfig{Backend: config.FrameCacheRedis, TTL: time.Minute}, nil)
		require.Error(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		t.Parallel()

		_, err := newFrameCache(config.FrameCacheConfig{Backend: "memcached"}, nil)
		require.Error(t, err)
	})
}

func TestSetupLogging(t *testing.T) {
	setupLogging(config.LogConfig{Level: "warn", Format: "json"}, false)
	assert.Equal(t, "warn", zerologLevel())

	setupLogging(config.LogConfig{Level: "bogus"}, false)
	assert.Equal(t, "info", zerologLevel())

	setupLogging(config.LogConfig{Level: "error", Format: "text"}, true)
	assert.Equal(t, "debug", zerologLevel())

	setupLogging(config.LogConfig{Level: "info"}, false)
}

func zerologLevel() string {
	return zerolog.GlobalLevel().String()
}
