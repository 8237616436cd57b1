package replay_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/replayd/internal/domain"
	"github.com/gosuda/replayd/internal/replay"
)

func TestParseRecords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		field   string
		want    int
		wantErr bool
	}{
		{name: "bare array", data: `[{"type":"tap"},{"type":"scroll"}]`, field: replay.EventsField, want: 2},
		{name: "wrapped events", data: `{"events":[{"type":"tap"}]}`, field: replay.EventsField, want: 1},
		{name: "wrapped network", data: `{"networkRequests":[{"url":"/a"},{"url":"/b"}]}`, field: replay.NetworkField, want: 2},
		{name: "object without field", data: `{"other":[{"x":1}]}`, field: replay.EventsField, want: 0},
		{name: "non-object elements skipped", data: `[1,"a",{"type":"tap"},null]`, field: replay.EventsField, want: 1},
		{name: "malformed", data: `{"events":[`, field: replay.EventsField, wantErr: true},
		{name: "scalar document", data: `42`, field: replay.EventsField, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := replay.ParseRecords([]byte(tt.data), tt.field)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestRetriever_FetchRecords(t *testing.T) {
	t.Parallel()

	objects := newMemObjects(map[string][]byte{
		"p/sess-1/events/1.json":  []byte(`[{"id":"a"},{"id":"b"}]`),
		"p/sess-1/events/2.json":  []byte(`{"events":[{"id":"c"}]}`),
		"p/sess-1/events/3.json":  []byte(`garbage`),
		"p/sess-1/network/1.json": []byte(`{"networkRequests":[{"id":"n1"}]}`),
	})
	r := replay.NewRetriever(&mockArtifactRepo{}, objects, 2, time.Second)

	arts := []*domain.Artifact{
		artifact(domain.ArtifactEvents, "p/sess-1/events/1.json", nil),
		artifact(domain.ArtifactEvents, "p/sess-1/events/missing.json", nil),
		artifact(domain.ArtifactEvents, "p/sess-1/events/3.json", nil),
		artifact(domain.ArtifactNetwork, "p/sess-1/network/1.json", nil),
		artifact(domain.ArtifactEvents, "p/sess-1/events/2.json", nil),
	}

	got := r.FetchRecords(context.Background(), testSession().ProjectID, arts)

	ids := make([]string, 0, len(got[domain.ArtifactEvents]))
	for _, rec := range got[domain.ArtifactEvents] {
		ids = append(ids, rec["id"].(string))
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	require.Len(t, got[domain.ArtifactNetwork], 1)
	assert.Equal(t, "n1", got[domain.ArtifactNetwork][0]["id"])
}

func TestRetriever_FetchBytesTimeout(t *testing.T) {
	t.Parallel()

	slow := &slowObjects{}
	r := replay.NewRetriever(&mockArtifactRepo{}, slow, 1, 10*time.Millisecond)

	_, err := r.FetchBytes(context.Background(), testSession().ProjectID, "k")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

type slowObjects struct{}

func (slowObjects) GetObject(ctx context.Context, _ uuid.UUID, _ string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (slowObjects) HeadObjectSize(ctx context.Context, _ uuid.UUID, _ string) (int64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func TestRetriever_Sizes(t *testing.T) {
	t.Parallel()

	objects := newMemObjects(map[string][]byte{
		"p/sess-1/hierarchy/1.json": make([]byte, 300),
		"p/sess-1/screens.zip":      make([]byte, 1000),
	})
	r := replay.NewRetriever(&mockArtifactRepo{}, objects, 3, time.Second)

	arts := []*domain.Artifact{
		artifact(domain.ArtifactEvents, "p/sess-1/events/1.json", ptr(int64(100))),
		artifact(domain.ArtifactNetwork, "p/sess-1/network/1.json", ptr(int64(50))),
		artifact(domain.ArtifactHierarchy, "p/sess-1/hierarchy/1.json", nil),
		artifact(domain.ArtifactScreenshots, "p/sess-1/screens.zip", nil),
		artifact(domain.ArtifactHierarchy, "p/sess-1/hierarchy/gone.json", nil),
	}

	t.Run("known sizes only", func(t *testing.T) {
		t.Parallel()

		light := replay.NewRetriever(&mockArtifactRepo{}, newMemObjects(nil), 3, time.Second)
		got := light.Sizes(context.Background(), testSession().ProjectID, arts, false)
		assert.Equal(t, replay.StorageSizes{Events: 100, Network: 50, Total: 150}, got)
	})

	t.Run("metadata fallback", func(t *testing.T) {
		t.Parallel()

		got := r.Sizes(context.Background(), testSession().ProjectID, arts, true)
		assert.Equal(t, replay.StorageSizes{
			Events:      100,
			Network:     50,
			Hierarchy:   300,
			Screenshots: 1000,
			Total:       1450,
		}, got)

		_, heads := objects.counts()
		assert.Equal(t, 3, heads, "only artifacts without a known size are probed")
	})
}

func TestRetriever_ListReady(t *testing.T) {
	t.Parallel()

	errDB := errors.New("db down")
	r := replay.NewRetriever(&mockArtifactRepo{
		listReadyFn: func(_ context.Context, _ string) ([]*domain.Artifact, error) {
			return nil, errDB
		},
	}, newMemObjects(nil), 0, 0)

	_, err := r.ListReady(context.Background(), "sess-1")
	require.ErrorIs(t, err, errDB)
	assert.Equal(t, replay.DefaultConcurrency, r.Concurrency())
}
