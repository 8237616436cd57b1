package main

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/replayd/internal/auth"
)

// TokenCommand signs an access token for local testing. Production tokens
// come from the identity provider.
type TokenCommand struct {
	User string        `long:"user" description:"User ID to embed (random when empty)"`
	TTL  time.Duration `long:"ttl" description:"Token lifetime" default:"1h"`

	globals *GlobalFlags
	out     io.Writer
}

func (c *TokenCommand) Execute(_ []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}

	userID := uuid.New()
	if c.User != "" {
		userID, err = uuid.Parse(c.User)
		if err != nil {
			return fmt.Errorf("token: invalid --user: %w", err)
		}
	}
	if c.TTL <= 0 {
		return fmt.Errorf("token: --ttl must be positive, got %s", c.TTL)
	}

	tok, err := auth.IssueAccessToken(cfg.JWT.Secret, userID, c.TTL)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(c.out, tok)
	return err
}
