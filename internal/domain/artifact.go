package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ArtifactKind tags what a stored artifact contains.
type ArtifactKind string

const (
	ArtifactEvents      ArtifactKind = "events"
	ArtifactNetwork     ArtifactKind = "network"
	ArtifactHierarchy   ArtifactKind = "hierarchy"
	ArtifactScreenshots ArtifactKind = "screenshots"
)

// ArtifactKinds lists every kind in presentation order.
var ArtifactKinds = []ArtifactKind{ //nolint:gochecknoglobals // fixed enumeration
	ArtifactEvents,
	ArtifactNetwork,
	ArtifactHierarchy,
	ArtifactScreenshots,
}

type ArtifactStatus string

const (
	ArtifactStatusPending ArtifactStatus = "pending"
	ArtifactStatusReady   ArtifactStatus = "ready"
	ArtifactStatusFailed  ArtifactStatus = "failed"
)

// Artifact is one stored, kind-tagged chunk of a session's recording.
type Artifact struct {
	ID        uuid.UUID
	SessionID string
	Kind      ArtifactKind
	ObjectKey string
	SizeBytes *int64 // written at ingest; nil for older uploads
	Status    ArtifactStatus
	Timestamp *int64 // epoch ms, used to order hierarchy snapshots
	CreatedAt time.Time
}

// ArtifactRepository lists artifacts that ingest has finished writing.
// Artifacts in any other status are excluded, not reported as errors.
type ArtifactRepository interface {
	ListReady(ctx context.Context, sessionID string) ([]*Artifact, error)
}
