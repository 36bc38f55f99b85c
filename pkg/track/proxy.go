package track

import "strings"

// Lookup reads the value at a dotted path (for example "context.page.url") in
// a nested document. Any missing or non-object segment reports absent; it
// never panics on malformed input.
func Lookup(doc map[string]any, path string) (any, bool) {
	cur := any(doc)
	for _, seg := range strings.Split(path, ".") {
		var m map[string]any
		switch obj := cur.(type) {
		case map[string]any:
			m = obj
		case Fields:
			m = obj
		default:
			return nil, false
		}
		v, ok := m[seg]
		if !ok || v == nil {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// Proxy resolves a dotted path against the event's properties, traits, and
// context, e.g. Proxy("properties.order_id").
func (e *Event) Proxy(path string) (any, bool) {
	return Lookup(map[string]any{
		"properties":   map[string]any(e.Properties),
		"traits":       map[string]any(e.Traits),
		"context":      map[string]any(e.Context),
		"integrations": map[string]any(e.Integrations),
	}, path)
}
