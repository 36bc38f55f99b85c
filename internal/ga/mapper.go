// Package ga maps vendor-neutral events onto Google Analytics Measurement
// Protocol hits and delivers them to the collection endpoint.
package ga

import (
	"fmt"
	"hash/fnv"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/relaymetrics/relay/pkg/track"
)

// IntegrationName is the key under which producers pass per-call options such
// as a clientId override.
const IntegrationName = "Google Analytics"

const protocolVersion = "1"

// mobileLibraries classifies originating libraries that report through the
// mobile tracking property. Matched case-insensitively as substrings.
var mobileLibraries = []string{"ios", "android", "analytics.xamarin"}

var (
	metricPattern    = regexp.MustCompile(`^metric(\d+)$`)
	dimensionPattern = regexp.MustCompile(`^dimension(\d+)$`)
)

// Mapper translates events into measurement-protocol payloads. All methods
// are pure: the same event and settings always produce identical payloads.
type Mapper struct {
	settings Settings
}

// NewMapper builds a Mapper over immutable settings.
func NewMapper(settings Settings) *Mapper {
	return &Mapper{settings: settings}
}

// Page maps a page-view event.
func (m *Mapper) Page(e *track.Event) Payload {
	p := m.commonForm(e)
	p.merge(m.pageFields(e))
	p["t"] = "pageview"
	if name := e.FullName(); name != "" {
		p["dt"] = name
	}
	return p
}

// Screen maps a screen-view event from a mobile library.
func (m *Mapper) Screen(e *track.Event) Payload {
	p := m.commonForm(e)
	p["t"] = "screenview"
	p.set("cd", e.Name)
	return p
}

// Track maps a generic custom event.
func (m *Mapper) Track(e *track.Event) Payload {
	p := m.commonForm(e)
	p["t"] = "event"
	p.set("ea", e.Event)
	p["ec"] = e.CategoryOr("All")
	p["el"] = label(e)
	p["ev"] = eventValue(e)
	p.setBool("ni", m.nonInteraction(e))
	return p
}

// commonForm computes the fields shared by every hit type.
func (m *Mapper) commonForm(e *track.Event) Payload {
	p := Payload{}
	p["v"] = protocolVersion
	p["cid"] = m.clientID(e)
	p.set("tid", m.trackingID(e))

	if c := e.Campaign(); c != nil {
		setFrom(p, c, "name", "cn")
		setFrom(p, c, "source", "cs")
		setFrom(p, c, "medium", "cm")
		setFrom(p, c, "content", "cc")
	}
	if w, h, ok := e.ScreenSize(); ok {
		p["sr"] = fmt.Sprintf("%dx%d", w, h)
	}
	p.set("ul", e.Locale())
	if app := e.App(); app != nil {
		setFrom(p, app, "name", "an")
		setFrom(p, app, "version", "av")
		setFrom(p, app, "appId", "aid")
		setFrom(p, app, "appInstallerId", "aiid")
	}
	if m.settings.SendUserID && e.UserID != "" {
		p["uid"] = e.UserID
	}
	p.set("ua", e.UserAgent())
	p.set("uip", e.IP())

	m.customMetrics(p, e)
	return p
}

// clientID prefers a caller-supplied override, then falls back to a stable
// hash of the user identity. The hash must stay fixed across releases: the
// vendor keys sessions and users on it.
func (m *Mapper) clientID(e *track.Event) string {
	if opts := e.Options(IntegrationName); opts != nil {
		if cid, ok := opts.Str("clientId"); ok {
			return cid
		}
	}
	id := e.UserID
	if id == "" {
		id = e.AnonymousID
	}
	h := fnv.New64a()
	h.Write([]byte(id))
	return strconv.FormatUint(h.Sum64(), 10)
}

// trackingID selects the mobile property when one is configured and the
// event originated from a mobile library.
func (m *Mapper) trackingID(e *track.Event) string {
	if m.settings.MobileTrackingID != "" && isMobileLibrary(e.LibraryName()) {
		return m.settings.MobileTrackingID
	}
	return m.settings.ServersideTrackingID
}

func isMobileLibrary(library string) bool {
	if library == "" {
		return false
	}
	library = strings.ToLower(library)
	for _, name := range mobileLibraries {
		if strings.Contains(library, name) {
			return true
		}
	}
	return false
}

// customMetrics resolves the configured dimension/metric mappings against
// the event. Traits are merged first and properties second, so a property
// value takes precedence over a trait value for the same semantic name.
func (m *Mapper) customMetrics(p Payload, e *track.Event) {
	merged := make(track.Fields, len(e.Traits)+len(e.Properties))
	for k, v := range e.Traits {
		merged[k] = v
	}
	for k, v := range e.Properties {
		merged[k] = v
	}

	assign := func(mapping map[string]string, pattern *regexp.Regexp, prefix string) {
		for name, field := range mapping {
			match := pattern.FindStringSubmatch(field)
			if match == nil {
				// Mapping entries that are not metric<N>/dimension<N> are dropped.
				continue
			}
			if v, ok := merged.Str(name); ok {
				p[prefix+match[1]] = v
			}
		}
	}
	assign(m.settings.Metrics, metricPattern, "cm")
	assign(m.settings.Dimensions, dimensionPattern, "cd")
}

// pageFields decomposes the event's URL into hostname and path and copies the
// document title and referrer. An explicit properties.url wins over the
// context-level page URL; when neither parses, the fields stay absent.
func (m *Mapper) pageFields(e *track.Event) Payload {
	p := Payload{}
	page := e.Page()

	raw, _ := e.Properties.Str("url")
	if raw == "" && page != nil {
		raw, _ = page.Str("url")
	}
	if raw != "" {
		if u, err := url.Parse(raw); err == nil {
			p.set("dh", u.Hostname())
			path := u.Path
			if u.RawQuery != "" {
				path += "?" + u.RawQuery
			}
			p.set("dp", path)
		}
	}

	if title, ok := e.Properties.Str("title"); ok {
		p["dt"] = title
	} else if page != nil {
		setFrom(p, page, "title", "dt")
	}
	if ref, ok := e.Properties.Str("referrer"); ok {
		p["dr"] = ref
	} else if page != nil {
		setFrom(p, page, "referrer", "dr")
	}
	return p
}

func (m *Mapper) nonInteraction(e *track.Event) bool {
	if v, ok := e.Properties.Bool("nonInteraction"); ok {
		return v
	}
	return m.settings.NonInteraction
}

// eventValue rounds properties.value, falling back to revenue, then zero.
func eventValue(e *track.Event) string {
	v, ok := e.Value()
	if !ok {
		v, ok = e.Revenue()
	}
	if !ok {
		v = 0
	}
	return strconv.Itoa(int(math.Round(v)))
}

func label(e *track.Event) string {
	if l, ok := e.Properties.Str("label"); ok {
		return l
	}
	return "event"
}

// setFrom copies f[key] into p[code] when present.
func setFrom(p Payload, f track.Fields, key, code string) {
	if v, ok := f.Str(key); ok {
		p[code] = v
	}
}
