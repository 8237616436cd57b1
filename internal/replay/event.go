package replay

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"

	"github.com/google/uuid"
)

// Event is the canonical timeline entry, real or synthesized. It serializes
// as a superset of the raw record it came from: original fields are kept and
// the normalized fields override them.
type Event struct {
	ID              string         `json:"id"`
	Type            string         `json:"type"`
	Timestamp       int64          `json:"timestamp"`
	Properties      map[string]any `json:"properties"`
	Payload         any            `json:"payload,omitempty"`
	GestureType     string         `json:"gestureType,omitempty"`
	TargetLabel     string         `json:"targetLabel,omitempty"`
	Touches         any            `json:"touches,omitempty"`
	FrustrationKind string         `json:"frustrationKind,omitempty"`
	Screen          string         `json:"screen,omitempty"`
	ConsoleMarker   string         `json:"consoleMarker,omitempty"`

	Raw map[string]any `json:"-"`
}

// MarshalJSON implements json.Marshaler.
func (e Event) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Raw)+10)
	maps.Copy(out, e.Raw)

	out["id"] = e.ID
	out["type"] = e.Type
	out["timestamp"] = e.Timestamp

	props := e.Properties
	if props == nil {
		props = map[string]any{}
	}
	out["properties"] = props

	if e.Payload != nil {
		out["payload"] = e.Payload
	}
	if e.Touches != nil {
		out[FieldTouches] = e.Touches
	}
	setString(out, FieldGestureType, e.GestureType)
	setString(out, FieldTargetLabel, e.TargetLabel)
	setString(out, FieldFrustrationKind, e.FrustrationKind)
	setString(out, FieldScreen, e.Screen)
	setString(out, "consoleMarker", e.ConsoleMarker)

	return json.Marshal(out)
}

func setString(out map[string]any, key, v string) {
	if v != "" {
		out[key] = v
	}
}

// NormalizeEvent maps one raw event from any historical SDK format into the
// canonical shape. index is the event's position in its artifact and seeds
// the synthesized id when the raw event has none.
func NormalizeEvent(raw map[string]any, index int, w Window) Event {
	e := Event{Raw: raw}

	e.Type = strings.ToLower(lookupString([]record{raw}, TypeFields))
	if e.Type == "" {
		e.Type = "unknown"
	}

	ts, _ := present(raw, TimestampFields)
	e.Timestamp = w.Coerce(ts)

	e.Payload, _ = present(raw, PayloadFields)
	if props, ok := asRecord(e.Payload); ok {
		e.Properties = props
	} else if props, ok := firstRecord(raw, PropertiesFallbackFields); ok {
		e.Properties = props
	} else {
		e.Properties = map[string]any{}
	}

	sources := []record{raw, e.Properties}
	if payload, ok := asRecord(e.Payload); ok {
		sources = append(sources, payload)
	}
	e.GestureType = lookupString(sources, ConvenienceAliases[FieldGestureType])
	e.TargetLabel = lookupString(sources, ConvenienceAliases[FieldTargetLabel])
	e.FrustrationKind = lookupString(sources, ConvenienceAliases[FieldFrustrationKind])
	e.Screen = lookupString(sources, ConvenienceAliases[FieldScreen])
	e.Touches, _ = lookup(sources, ConvenienceAliases[FieldTouches])

	e.ID = lookupString([]record{raw}, []string{"id"})
	if e.ID == "" {
		e.ID = fmt.Sprintf("evt_%d_%s", index, uuid.NewString()[:8])
	}

	return e
}

// NormalizeEvents normalizes a flattened list of raw events in order.
func NormalizeEvents(raw []map[string]any, w Window) []Event {
	events := make([]Event, 0, len(raw))
	for i, r := range raw {
		events = append(events, NormalizeEvent(r, i, w))
	}
	return events
}
