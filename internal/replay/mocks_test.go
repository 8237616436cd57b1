package replay_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/replayd/internal/domain"
	"github.com/gosuda/replayd/internal/frames"
)

var errNotStored = errors.New("not stored") //nolint:gochecknoglobals // test sentinel

type mockArtifactRepo struct {
	listReadyFn func(ctx context.Context, sessionID string) ([]*domain.Artifact, error)
}

func (m *mockArtifactRepo) ListReady(ctx context.Context, sessionID string) ([]*domain.Artifact, error) {
	if m.listReadyFn == nil {
		return nil, nil
	}
	return m.listReadyFn(ctx, sessionID)
}

// memObjects is an in-memory object store keyed by object key.
type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	gets    int
	heads   int
}

func newMemObjects(objects map[string][]byte) *memObjects {
	return &memObjects{objects: objects}
}

func (m *memObjects) GetObject(_ context.Context, _ uuid.UUID, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	data, ok := m.objects[key]
	if !ok {
		return nil, errNotStored
	}
	return data, nil
}

func (m *memObjects) HeadObjectSize(_ context.Context, _ uuid.UUID, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.heads++
	data, ok := m.objects[key]
	if !ok {
		return 0, errNotStored
	}
	return int64(len(data)), nil
}

func (m *memObjects) counts() (gets, heads int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gets, m.heads
}

type mockFaultRepo struct {
	listCrashesFn func(ctx context.Context, sessionID string) ([]*domain.Crash, error)
	listANRsFn    func(ctx context.Context, sessionID string) ([]*domain.ANR, error)
	listErrorsFn  func(ctx context.Context, sessionID string) ([]*domain.AppError, error)
}

func (m *mockFaultRepo) ListCrashes(ctx context.Context, sessionID string) ([]*domain.Crash, error) {
	if m.listCrashesFn == nil {
		return nil, nil
	}
	return m.listCrashesFn(ctx, sessionID)
}

func (m *mockFaultRepo) ListANRs(ctx context.Context, sessionID string) ([]*domain.ANR, error) {
	if m.listANRsFn == nil {
		return nil, nil
	}
	return m.listANRsFn(ctx, sessionID)
}

func (m *mockFaultRepo) ListErrors(ctx context.Context, sessionID string) ([]*domain.AppError, error) {
	if m.listErrorsFn == nil {
		return nil, nil
	}
	return m.listErrorsFn(ctx, sessionID)
}

type mockExtractor struct {
	extractFn func(ctx context.Context, sessionID string, opts frames.Options) (*frames.FrameSet, error)
}

func (m *mockExtractor) Extract(ctx context.Context, sessionID string, opts frames.Options) (*frames.FrameSet, error) {
	return m.extractFn(ctx, sessionID, opts)
}

type mockSigner struct {
	signedURLFn func(ctx context.Context, projectID uuid.UUID, key string, ttl time.Duration) (string, error)
}

func (m *mockSigner) SignedURL(ctx context.Context, projectID uuid.UUID, key string, ttl time.Duration) (string, error) {
	return m.signedURLFn(ctx, projectID, key, ttl)
}

func testSession() *domain.Session {
	end := time.UnixMilli(testEnd)
	return &domain.Session{
		ID:              "sess-1",
		ProjectID:       uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		StartedAt:       time.UnixMilli(testStart),
		EndedAt:         &end,
		DurationSeconds: 60,
	}
}

func artifact(kind domain.ArtifactKind, key string, size *int64) *domain.Artifact {
	return &domain.Artifact{
		ID:        uuid.New(),
		SessionID: "sess-1",
		Kind:      kind,
		ObjectKey: key,
		SizeBytes: size,
		Status:    domain.ArtifactStatusReady,
	}
}

func ptr[T any](v T) *T { return &v }
