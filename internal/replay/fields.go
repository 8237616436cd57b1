package replay

import (
	"fmt"
	"strings"
)

// Field aliases observed across SDK generations. Lookups try the names in
// order and take the first present value.
var (
	//nolint:gochecknoglobals // alias tables
	TypeFields = []string{"type", "name"}
	//nolint:gochecknoglobals // alias tables
	TimestampFields = []string{"timestamp", "ts", "time"}
	//nolint:gochecknoglobals // alias tables
	PayloadFields = []string{"payload", "payloadInline", "details", "properties"}
	//nolint:gochecknoglobals // alias tables
	PropertiesFallbackFields = []string{"details", "properties"}
)

// Promoted convenience fields of a canonical event. Each is looked up on the
// raw event, then its properties, then its payload.
const (
	FieldGestureType     = "gestureType"
	FieldTargetLabel     = "targetLabel"
	FieldTouches         = "touches"
	FieldFrustrationKind = "frustrationKind"
	FieldScreen          = "screen"
)

// ConvenienceAliases maps each promoted field to the names it may appear under.
var ConvenienceAliases = map[string][]string{ //nolint:gochecknoglobals // alias tables
	FieldGestureType:     {"gestureType"},
	FieldTargetLabel:     {"targetLabel"},
	FieldTouches:         {"touches"},
	FieldFrustrationKind: {"frustrationKind"},
	FieldScreen:          {"screen", "screenName", "screen_name"},
}

// record is an untyped decoded JSON object.
type record = map[string]any

// present returns the first non-nil value stored under any of keys.
func present(r record, keys []string) (any, bool) {
	if r == nil {
		return nil, false
	}
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// lookup tries every source in order and returns the first meaningful value
// (non-nil, not an empty string).
func lookup(sources []record, keys []string) (any, bool) {
	for _, src := range sources {
		for _, k := range keys {
			v, ok := src[k]
			if !ok || v == nil {
				continue
			}
			if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
				continue
			}
			return v, true
		}
	}
	return nil, false
}

// lookupString is lookup restricted to scalar values, rendered as text.
func lookupString(sources []record, keys []string) string {
	for _, src := range sources {
		for _, k := range keys {
			if s := scalarString(src[k]); s != "" {
				return s
			}
		}
	}
	return ""
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return fmt.Sprintf("%v", t)
	case bool:
		return fmt.Sprintf("%t", t)
	default:
		return ""
	}
}

func asRecord(v any) (record, bool) {
	r, ok := v.(map[string]any)
	return r, ok
}

// firstRecord returns the first value under keys that is a JSON object.
func firstRecord(r record, keys []string) (record, bool) {
	for _, k := range keys {
		if m, ok := asRecord(r[k]); ok {
			return m, true
		}
	}
	return nil, false
}

func toInt64(v any) (int64, bool) {
	f, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	return int64(f), true
}
