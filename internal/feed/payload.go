package feed

import (
	"encoding/json"
	"strconv"
	"strings"
)

// decodeJSON parses a raw payload into generic JSON. Returns false on
// malformed input; callers degrade to "no record" rather than erroring.
func decodeJSON(raw []byte) (any, bool) {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, false
	}
	return payload, true
}

// entryList extracts the feed's entry array. Provider versions nest it under
// different keys, so candidate key paths (dot-separated for nesting) are
// probed in order, stopping at the first that yields a list. A top-level
// array payload is accepted directly.
func entryList(payload any, paths ...string) []map[string]any {
	if list, ok := payload.([]any); ok {
		return onlyObjects(list)
	}

	m, ok := payload.(map[string]any)
	if !ok {
		return nil
	}

	for _, path := range paths {
		node := any(m)
		for _, key := range strings.Split(path, ".") {
			inner, ok := node.(map[string]any)
			if !ok {
				node = nil
				break
			}
			node = inner[key]
		}
		if list, ok := node.([]any); ok {
			return onlyObjects(list)
		}
	}
	return nil
}

func onlyObjects(list []any) []map[string]any {
	entries := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			entries = append(entries, obj)
		}
	}
	return entries
}

// stringField returns the first key whose value renders to a non-empty
// string. String slices (some warning feeds deliver message paragraphs as
// arrays) are joined; numbers are formatted.
func stringField(entry map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := asString(entry[key]); s != "" {
			return s
		}
	}
	return ""
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'g', -1, 64)
	case []any:
		var parts []string
		for _, item := range s {
			if text := asString(item); text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, "; ")
	default:
		return ""
	}
}

// anyField returns the first present, non-nil value among keys.
func anyField(entry map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := entry[key]; ok && v != nil {
			if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
				continue
			}
			return v
		}
	}
	return nil
}
