package adblue

import (
	"encoding/json"
	"strings"
)

// unwrapJSONP pulls the payload out of a JSONP envelope: everything
// between the first '(' and the last ')'. The feed's contract really is
// JSONP and cannot be changed. ok is false when no well-formed envelope
// is present.
func unwrapJSONP(raw string) (string, bool) {
	start := strings.Index(raw, "(")
	end := strings.LastIndex(raw, ")")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return raw[start+1 : end], true
}

// decodeWrappedList parses a JSONP body into a list of loose objects.
// Malformed envelopes, malformed JSON and non-list payloads all come
// back as an empty list; the feeds are unreliable enough that a parse
// failure must never surface to a caller.
func decodeWrappedList(raw string) []map[string]any {
	payload, ok := unwrapJSONP(raw)
	if !ok {
		return []map[string]any{}
	}
	var items []map[string]any
	if err := json.Unmarshal([]byte(payload), &items); err == nil {
		return items
	}
	// The offers feed sometimes wraps the list one level deeper.
	var wrapped struct {
		Offers []map[string]any `json:"offers"`
	}
	if err := json.Unmarshal([]byte(payload), &wrapped); err == nil && wrapped.Offers != nil {
		return wrapped.Offers
	}
	return []map[string]any{}
}
