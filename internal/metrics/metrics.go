// Package metrics holds the Prometheus collectors exported by replayd.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "replayd"

// Stages at which a single artifact can fail without failing the request.
const (
	StageList   = "list"
	StageFetch  = "fetch"
	StageParse  = "parse"
	StageDecode = "decode"
	StageHead   = "head"
	StageFaults = "faults"
	StageFrames = "frames"
)

//nolint:gochecknoglobals // process-wide collectors
var (
	ArtifactFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "artifact_failures_total",
		Help:      "Artifacts that contributed an empty result, by kind and stage",
	}, []string{"kind", "stage"})

	ArtifactFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "artifact_fetch_duration_seconds",
		Help:      "Object storage fetch latency per artifact",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"kind"})

	FrameCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "frames",
		Name:      "cache_requests_total",
		Help:      "Frame proxy cache lookups by result",
	}, []string{"result"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Count of processed HTTP requests",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution of HTTP handlers",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"method", "route", "status"})
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ArtifactFailed records one absorbed artifact failure.
func ArtifactFailed(kind, stage string) {
	ArtifactFailures.WithLabelValues(kind, stage).Inc()
}
