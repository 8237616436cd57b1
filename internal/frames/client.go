// Package frames talks to the screenshot frame extraction service, which
// turns a session's screenshot archive into timestamped frame descriptors.
package frames

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrUnexpectedStatus = errors.New("frames: unexpected status") //nolint:gochecknoglobals // sentinel error

const maxResponseBytes = 8 << 20

// Frame describes one extracted screenshot. URL is empty when the frame is
// only reachable through object storage by Key.
type Frame struct {
	Timestamp int64  `json:"timestamp"`
	URL       string `json:"url,omitempty"`
	Index     int    `json:"index"`
	Key       string `json:"key,omitempty"`
}

type FrameSet struct {
	Frames      []Frame `json:"frames"`
	TotalFrames int     `json:"totalFrames"`
	Cached      bool    `json:"cached"`
}

// Options narrows an extraction request. Zero values leave the service
// defaults in place.
type Options struct {
	ProjectID string `json:"projectId,omitempty"`
	MaxFrames int    `json:"maxFrames,omitempty"`
	Quality   string `json:"quality,omitempty"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns nil when baseURL is empty; a nil *Client extracts no
// frames.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		return nil
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Extract asks the service for the frames of a session. A session the
// service does not know yields (nil, nil).
func (c *Client) Extract(ctx context.Context, sessionID string, opts Options) (*FrameSet, error) {
	if c == nil {
		return nil, nil //nolint:nilnil // unconfigured extractor means no frames
	}

	body, err := json.Marshal(opts)
	if err != nil {
		return nil, fmt.Errorf("frames.Client.Extract: marshal: %w", err)
	}

	endpoint := c.baseURL + "/v1/sessions/" + url.PathEscape(sessionID) + "/frames"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("frames.Client.Extract: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("frames.Client.Extract: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil //nolint:nilnil // unknown session has no frames
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("frames.Client.Extract: %w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var set FrameSet
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&set); err != nil {
		return nil, fmt.Errorf("frames.Client.Extract: decode: %w", err)
	}
	if set.Frames == nil {
		set.Frames = []Frame{}
	}
	return &set, nil
}
