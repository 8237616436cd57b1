package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/replayd/internal/metrics"
)

func TestArtifactFailed(t *testing.T) {
	t.Parallel()

	c := metrics.ArtifactFailures.WithLabelValues("hierarchy", metrics.StageDecode)
	before := testutil.ToFloat64(c)

	metrics.ArtifactFailed("hierarchy", metrics.StageDecode)
	metrics.ArtifactFailed("hierarchy", metrics.StageDecode)

	assert.InDelta(t, before+2, testutil.ToFloat64(c), 0)
}

func TestHandler_ExposesCollectors(t *testing.T) {
	t.Parallel()

	metrics.FrameCacheRequests.WithLabelValues("hit").Inc()

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `replayd_frames_cache_requests_total{result="hit"}`)
}
