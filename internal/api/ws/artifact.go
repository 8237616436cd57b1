package ws

import (
	"time"

	"github.com/gosuda/replayd/internal/domain"
)

// ArtifactEvent is published by ingest when a recording artifact changes
// state. Clients refetch the affected payload on "ready".
type ArtifactEvent struct {
	Type       string                `json:"type"` // "ready", "failed"
	SessionID  string                `json:"sessionId"`
	Kind       domain.ArtifactKind   `json:"kind"`
	Status     domain.ArtifactStatus `json:"status,omitempty"`
	Key        string                `json:"key,omitempty"`
	SizeBytes  *int64                `json:"sizeBytes,omitempty"`
	OccurredAt time.Time             `json:"occurredAt"`
}
