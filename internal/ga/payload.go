package ga

import (
	"net/url"
	"strconv"
)

// Payload is one measurement-protocol hit: a flat mapping from the vendor's
// short field codes to stringified values. A field the source event does not
// carry is absent from the map, never present with an empty value.
type Payload map[string]string

// set stores val under key unless it is empty.
func (p Payload) set(key, val string) {
	if val != "" {
		p[key] = val
	}
}

// setNum stores v as a plain decimal string.
func (p Payload) setNum(key string, v float64) {
	p[key] = strconv.FormatFloat(v, 'f', -1, 64)
}

// setBool stores the vendor's 1/0 spelling.
func (p Payload) setBool(key string, v bool) {
	if v {
		p[key] = "1"
	} else {
		p[key] = "0"
	}
}

// merge copies src entries over p; later field sets win on collision.
func (p Payload) merge(src Payload) {
	for k, v := range src {
		p[k] = v
	}
}

// Values renders the form body for the hit.
func (p Payload) Values() url.Values {
	vals := make(url.Values, len(p))
	for k, v := range p {
		vals.Set(k, v)
	}
	return vals
}
