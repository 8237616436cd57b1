package replay

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/gosuda/replayd/internal/domain"
)

const (
	// absoluteMsThreshold marks values already plausible as epoch
	// milliseconds (year 2001 onwards).
	absoluteMsThreshold = 10_000_000_000

	// plausibilitySlackMs widens the session bounds on both sides.
	plausibilitySlackMs = 60_000
)

// Window is a session's known time bounds in epoch milliseconds. It is the
// plausibility oracle for timestamps of unknown encoding.
type Window struct {
	StartMs int64
	EndMs   int64
}

// WindowFor returns the plausibility window of a session.
func WindowFor(s *domain.Session) Window {
	return Window{StartMs: s.StartMs(), EndMs: s.EndMs()}
}

// Coerce normalizes raw into epoch milliseconds within this window.
func (w Window) Coerce(raw any) int64 {
	return CoerceTimestamp(raw, w.StartMs, w.EndMs)
}

// Contains reports whether ms lies inside the window widened by the slack.
func (w Window) Contains(ms float64) bool {
	return ms >= float64(w.StartMs-plausibilitySlackMs) && ms <= float64(w.EndMs+plausibilitySlackMs)
}

// CoerceTimestamp turns a timestamp in any of the encodings SDKs have used
// (absolute ms, absolute seconds, relative ms, relative seconds) into epoch
// milliseconds:
//
//  1. non-numeric, non-finite or <= 0 values resolve to startMs;
//  2. values >= 1e10 are already epoch ms and are only rounded;
//  3. otherwise the first candidate inside [start-60s, end+60s] wins, tried
//     as absolute seconds, relative seconds, then relative ms;
//  4. with no plausible candidate the absolute-seconds reading is returned
//     even though it lies outside the window.
func CoerceTimestamp(raw any, startMs, endMs int64) int64 {
	v, ok := toFloat(raw)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return startMs
	}
	if v >= absoluteMsThreshold {
		return int64(math.Round(v))
	}

	w := Window{StartMs: startMs, EndMs: endMs}
	candidates := [...]float64{
		v * 1000,
		float64(startMs) + v*1000,
		float64(startMs) + v,
	}
	for _, c := range candidates {
		if w.Contains(c) {
			return int64(math.Round(c))
		}
	}

	return int64(math.Round(v * 1000))
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
