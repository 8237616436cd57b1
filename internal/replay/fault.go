package replay

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gosuda/replayd/internal/domain"
)

const (
	dedupBucketMs  = 250
	dedupTextLimit = 240
)

// Console markers tag synthetic fault events for the player UI.
const (
	MarkerCrash = "crash"
	MarkerANR   = "anr"
	MarkerError = "error"
)

// Fields consulted when computing a dedup signature.
var (
	//nolint:gochecknoglobals // alias tables
	SignatureNameFields = []string{"name", "exceptionName", "errorName"}
	//nolint:gochecknoglobals // alias tables
	SignatureMessageFields = []string{"message", "reason", "errorMessage"}
	//nolint:gochecknoglobals // alias tables
	SignatureStackFields = []string{"stackTrace", "stack", "stacktrace"}
)

// BuildFaultEvents converts crash, ANR and error records into synthetic
// timeline events, one per record. Records without a usable timestamp are
// placed at startMs so that none is ever dropped.
func BuildFaultEvents(crashes []*domain.Crash, anrs []*domain.ANR, errs []*domain.AppError, startMs int64, coerce func(any) int64) []Event {
	at := func(t time.Time) int64 {
		if t.IsZero() || coerce == nil {
			return startMs
		}
		return coerce(t.UnixMilli())
	}

	events := make([]Event, 0, len(crashes)+len(anrs)+len(errs))

	for _, c := range crashes {
		events = append(events, Event{
			ID:            "crash_" + c.ID.String(),
			Type:          "crash",
			Timestamp:     at(c.Timestamp),
			ConsoleMarker: MarkerCrash,
			Properties: map[string]any{
				"crashId":       c.ID.String(),
				"exceptionName": c.ExceptionName,
				"reason":        c.Reason,
				"stackTrace":    c.StackTrace,
				"status":        c.Status,
				"name":          c.ExceptionName,
				"message":       joinNonEmpty(": ", c.ExceptionName, c.Reason),
			},
		})
	}

	for _, a := range anrs {
		events = append(events, Event{
			ID:            "anr_" + a.ID.String(),
			Type:          "anr",
			Timestamp:     at(a.Timestamp),
			ConsoleMarker: MarkerANR,
			Properties: map[string]any{
				"anrId":       a.ID.String(),
				"durationMs":  a.DurationMs,
				"threadState": a.ThreadState,
				"stackTrace":  a.StackTrace,
				"status":      a.Status,
				"name":        "ANR",
				"message":     fmt.Sprintf("App not responding for %dms", a.DurationMs),
			},
		})
	}

	for _, e := range errs {
		events = append(events, Event{
			ID:            "error_" + e.ID.String(),
			Type:          "error",
			Timestamp:     at(e.Timestamp),
			ConsoleMarker: MarkerError,
			Screen:        e.ScreenName,
			Properties: map[string]any{
				"errorId":    e.ID.String(),
				"errorType":  e.ErrorType,
				"errorName":  e.ErrorName,
				"message":    e.Message,
				"stackTrace": e.StackTrace,
				"screenName": e.ScreenName,
				"name":       e.ErrorName,
			},
		})
	}

	return events
}

// Signature derives the lossy key that identifies the same real-world
// occurrence across raw events and fault records:
// type | round(timestamp/250ms) | name | message | first stack line.
func Signature(e Event) string {
	sources := []record{e.Raw, e.Properties}
	if payload, ok := asRecord(e.Payload); ok {
		sources = append(sources, payload)
	}

	name := truncate(lookupString(sources, SignatureNameFields), dedupTextLimit)
	message := truncate(lookupString(sources, SignatureMessageFields), dedupTextLimit)
	stack := stackHead(lookupString(sources, SignatureStackFields))
	bucket := int64(math.Round(float64(e.Timestamp) / dedupBucketMs))

	return strings.Join([]string{
		strings.ToLower(e.Type),
		strconv.FormatInt(bucket, 10),
		name,
		message,
		stack,
	}, "|")
}

// MergeWithDedup returns normalized events plus every fault event whose
// signature has not been seen yet, sorted ascending by timestamp. Merging
// the same faults again yields the same result.
func MergeWithDedup(normalized, faults []Event) []Event {
	seen := make(map[string]struct{}, len(normalized)+len(faults))
	merged := make([]Event, 0, len(normalized)+len(faults))

	for _, e := range normalized {
		seen[Signature(e)] = struct{}{}
		merged = append(merged, e)
	}
	for _, f := range faults {
		sig := Signature(f)
		if _, dup := seen[sig]; dup {
			continue
		}
		seen[sig] = struct{}{}
		merged = append(merged, f)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})

	return merged
}

func stackHead(stack string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(stack), "\n")
	return truncate(strings.ToLower(strings.TrimSpace(line)), dedupTextLimit)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
