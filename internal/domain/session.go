package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session is one continuous recorded usage period on a client device.
// Sessions are written by ingest and retention jobs; replay only reads them.
type Session struct {
	ID                   string     `json:"id"`
	ProjectID            uuid.UUID  `json:"projectId"`
	StartedAt            time.Time  `json:"startedAt"`
	EndedAt              *time.Time `json:"endedAt,omitempty"`
	DurationSeconds      int        `json:"durationSeconds"`
	Platform             string     `json:"platform,omitempty"`
	AppVersion           string     `json:"appVersion,omitempty"`
	DeviceModel          string     `json:"deviceModel,omitempty"`
	UserDisplayID        string     `json:"userDisplayId,omitempty"`
	RecordingDeleted     bool       `json:"recordingDeleted"`
	RecordingExpired     bool       `json:"recordingExpired"`
	IsReplayPromoted     bool       `json:"isReplayPromoted"`
	ReplayPromotedReason string     `json:"replayPromotedReason,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
}

// StartMs returns the session start as epoch milliseconds.
func (s *Session) StartMs() int64 {
	return s.StartedAt.UnixMilli()
}

// EndMs returns the best known session end in epoch milliseconds:
// the recorded end, else start plus duration, else start.
func (s *Session) EndMs() int64 {
	if s.EndedAt != nil && !s.EndedAt.IsZero() {
		return s.EndedAt.UnixMilli()
	}
	if s.DurationSeconds > 0 {
		return s.StartMs() + int64(s.DurationSeconds)*1000
	}
	return s.StartMs()
}

// RecordingAvailable reports whether the recorded artifacts still exist.
func (s *Session) RecordingAvailable() bool {
	return !s.RecordingDeleted && !s.RecordingExpired
}

// OwnsObjectKey reports whether an object-storage key lives under this
// session's prefix. Keys are written by ingest as ".../<sessionID>/...".
func (s *Session) OwnsObjectKey(key string) bool {
	if s.ID == "" || key == "" || strings.Contains(key, "..") {
		return false
	}
	return strings.Contains("/"+key, "/"+s.ID+"/")
}

type SessionRepository interface {
	GetByID(ctx context.Context, id string) (*Session, error)
}
