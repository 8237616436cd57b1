package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gosuda/replayd/internal/domain"
)

// ---------------------------------------------------------------------------
// 1. Session time bounds.
// ---------------------------------------------------------------------------

func TestSession_EndMs(t *testing.T) {
	t.Parallel()

	start := time.UnixMilli(1_700_000_000_000)
	end := start.Add(90 * time.Second)

	tests := []struct {
		name    string
		session domain.Session
		want    int64
	}{
		{
			name:    "recorded end wins",
			session: domain.Session{StartedAt: start, EndedAt: &end, DurationSeconds: 10},
			want:    end.UnixMilli(),
		},
		{
			name:    "start plus duration",
			session: domain.Session{StartedAt: start, DurationSeconds: 30},
			want:    start.UnixMilli() + 30_000,
		},
		{
			name:    "start only",
			session: domain.Session{StartedAt: start},
			want:    start.UnixMilli(),
		},
		{
			name:    "zero end ignored",
			session: domain.Session{StartedAt: start, EndedAt: &time.Time{}},
			want:    start.UnixMilli(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.session.EndMs())
			assert.Equal(t, start.UnixMilli(), tt.session.StartMs())
		})
	}
}

// ---------------------------------------------------------------------------
// 2. Retention flags.
// ---------------------------------------------------------------------------

func TestSession_RecordingAvailable(t *testing.T) {
	t.Parallel()

	assert.True(t, (&domain.Session{}).RecordingAvailable())
	assert.False(t, (&domain.Session{RecordingDeleted: true}).RecordingAvailable())
	assert.False(t, (&domain.Session{RecordingExpired: true}).RecordingAvailable())
}

// ---------------------------------------------------------------------------
// 3. Object key ownership.
// ---------------------------------------------------------------------------

func TestSession_OwnsObjectKey(t *testing.T) {
	t.Parallel()

	s := &domain.Session{ID: "sess-42"}

	tests := []struct {
		key  string
		want bool
	}{
		{"proj/sess-42/frames/0001.jpg", true},
		{"sess-42/frames/0001.jpg", true},
		{"proj/sess-421/frames/0001.jpg", false},
		{"proj/other/frames/sess-42.jpg", false},
		{"proj/sess-42/../other/frames/1.jpg", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, s.OwnsObjectKey(tt.key))
		})
	}

	assert.False(t, (&domain.Session{}).OwnsObjectKey("proj//frames/1.jpg"))
}

// ---------------------------------------------------------------------------
// 4. Artifact kinds.
// ---------------------------------------------------------------------------

func TestArtifactKinds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []domain.ArtifactKind{
		domain.ArtifactEvents,
		domain.ArtifactNetwork,
		domain.ArtifactHierarchy,
		domain.ArtifactScreenshots,
	}, domain.ArtifactKinds)
}
