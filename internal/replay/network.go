package replay

import (
	"encoding/json"
	"maps"
	"net/url"
	"sort"
	"strings"
)

// Event types that carry a network call in the events artifact.
const (
	EventNetworkRequest = "network_request"
	EventAPIRequest     = "api_request"
)

// placeholderOrigin resolves relative request URLs so host/path can be derived.
const placeholderOrigin = "http://placeholder.local"

// Field aliases for network records.
var (
	//nolint:gochecknoglobals // alias tables
	NetworkURLFields = []string{"url", "requestUrl", "uri"}
	//nolint:gochecknoglobals // alias tables
	NetworkMethodFields = []string{"method", "httpMethod"}
	//nolint:gochecknoglobals // alias tables
	NetworkStatusFields = []string{"statusCode", "status", "responseStatus"}
	//nolint:gochecknoglobals // alias tables
	NetworkDurationFields = []string{"duration", "durationMs", "latency", "responseTime"}
	//nolint:gochecknoglobals // alias tables
	NetworkTimestampFields = []string{"timestamp", "ts", "time", "startTime"}
	//nolint:gochecknoglobals // alias tables
	NetworkRequestSizeFields = []string{"requestBodySize", "requestSize", "reqSize", "bytesSent", "requestContentLength"}
	//nolint:gochecknoglobals // alias tables
	NetworkResponseSizeFields = []string{"responseBodySize", "responseSize", "resSize", "bytesReceived", "responseContentLength", "contentLength"}
)

// NetworkRequest is one reconciled network call. Like Event it serializes
// as a superset of its source record.
type NetworkRequest struct {
	ID               string
	Timestamp        int64
	Method           string
	URL              string
	Host             string
	Path             string
	StatusCode       int
	Success          bool
	DurationMs       float64
	RequestBodySize  int64
	ResponseBodySize int64

	Raw map[string]any
}

// MarshalJSON implements json.Marshaler. Both the current and the legacy
// size field names are written.
func (n NetworkRequest) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(n.Raw)+14)
	maps.Copy(out, n.Raw)

	if n.ID != "" {
		out["id"] = n.ID
	}
	out["timestamp"] = n.Timestamp
	if n.Method != "" {
		out["method"] = n.Method
	}
	out["url"] = n.URL
	out["host"] = n.Host
	out["path"] = n.Path
	out["statusCode"] = n.StatusCode
	out["success"] = n.Success
	out["duration"] = n.DurationMs
	out["requestBodySize"] = n.RequestBodySize
	out["responseBodySize"] = n.ResponseBodySize
	out["requestSize"] = n.RequestBodySize
	out["responseSize"] = n.ResponseBodySize

	return json.Marshal(out)
}

// NormalizeNetworkRecord fills the derived fields of one network record.
func NormalizeNetworkRecord(r map[string]any, w Window) NetworkRequest {
	ts, _ := present(r, NetworkTimestampFields)
	return normalizeNetworkRecord(r, w.Coerce(ts))
}

// normalizeNetworkRecord derives every field except the timestamp, which is
// already canonical.
func normalizeNetworkRecord(r map[string]any, timestamp int64) NetworkRequest {
	src := []record{r}
	n := NetworkRequest{Raw: r, Timestamp: timestamp}

	n.ID = lookupString(src, []string{"id", "requestId"})
	n.Method = strings.ToUpper(lookupString(src, NetworkMethodFields))
	n.URL = lookupString(src, NetworkURLFields)

	n.Host = lookupString(src, []string{"host", "hostname"})
	n.Path = lookupString(src, []string{"path", "urlPath"})
	if n.Host == "" || n.Path == "" {
		host, path := splitURL(n.URL)
		if n.Host == "" {
			n.Host = host
		}
		if n.Path == "" {
			n.Path = path
		}
	}

	hasStatus := false
	if v, ok := lookup(src, NetworkStatusFields); ok {
		if code, isNum := toInt64(v); isNum {
			n.StatusCode = int(code)
			hasStatus = true
		}
	}
	// A request that never got a response is not a success.
	if b, ok := r["success"].(bool); ok {
		n.Success = b
	} else {
		n.Success = hasStatus && n.StatusCode < 400
	}

	if v, ok := lookup(src, NetworkDurationFields); ok {
		n.DurationMs, _ = toFloat(v)
	}
	if v, ok := lookup(src, NetworkRequestSizeFields); ok {
		n.RequestBodySize, _ = toInt64(v)
	}
	if v, ok := lookup(src, NetworkResponseSizeFields); ok {
		n.ResponseBodySize, _ = toInt64(v)
	}

	return n
}

// splitURL derives host and path, trying the value as an absolute URL first
// and then relative to a placeholder origin. Only URLs naming a host, absolute
// or protocol-relative, yield one.
func splitURL(raw string) (host, path string) {
	if raw == "" {
		return "", ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", ""
	}
	if u.Host != "" {
		return u.Host, u.Path
	}

	base, _ := url.Parse(placeholderOrigin)
	return "", base.ResolveReference(u).Path
}

// ReconcileNetwork merges network artifact records with network-shaped
// timeline events into one list sorted ascending by timestamp.
func ReconcileNetwork(artifactRecords []map[string]any, events []Event, w Window) []NetworkRequest {
	out := make([]NetworkRequest, 0, len(artifactRecords))
	for _, r := range artifactRecords {
		out = append(out, NormalizeNetworkRecord(r, w))
	}

	for _, e := range events {
		if e.Type != EventNetworkRequest && e.Type != EventAPIRequest {
			continue
		}
		r := make(map[string]any, len(e.Raw)+len(e.Properties))
		maps.Copy(r, e.Raw)
		maps.Copy(r, e.Properties)
		r["id"] = e.ID
		r["timestamp"] = e.Timestamp
		out = append(out, normalizeNetworkRecord(r, e.Timestamp))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})

	return out
}

// NetworkSummary aggregates a reconciled network list.
type NetworkSummary struct {
	Total              int     `json:"total"`
	Successful         int     `json:"successful"`
	Failed             int     `json:"failed"`
	AvgDurationMs      float64 `json:"avgDurationMs"`
	TotalRequestBytes  int64   `json:"totalRequestBytes"`
	TotalResponseBytes int64   `json:"totalResponseBytes"`
}

// SummarizeNetwork counts outcomes and sums sizes.
func SummarizeNetwork(reqs []NetworkRequest) NetworkSummary {
	var (
		s        NetworkSummary
		duration float64
	)
	for _, r := range reqs {
		s.Total++
		if r.Success {
			s.Successful++
		} else {
			s.Failed++
		}
		duration += r.DurationMs
		s.TotalRequestBytes += r.RequestBodySize
		s.TotalResponseBytes += r.ResponseBodySize
	}
	if s.Total > 0 {
		s.AvgDurationMs = duration / float64(s.Total)
	}
	return s
}
