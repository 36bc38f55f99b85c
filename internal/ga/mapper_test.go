package ga_test

import (
	"reflect"
	"testing"

	"github.com/relaymetrics/relay/internal/ga"
	"github.com/relaymetrics/relay/pkg/track"
)

func baseSettings() ga.Settings {
	return ga.Settings{ServersideTrackingID: "UA-12345-1"}
}

func TestPageMapping(t *testing.T) {
	m := ga.NewMapper(baseSettings())
	e := &track.Event{
		Type:       track.KindPage,
		UserID:     "user-1",
		Name:       "Home",
		Category:   "Docs",
		Properties: track.Fields{"url": "https://example.com/docs/home?ref=nav"},
		Context:    track.Fields{"page": map[string]any{"referrer": "https://google.com"}},
	}

	p := m.Page(e)

	if p["t"] != "pageview" {
		t.Errorf("t = %q, want pageview", p["t"])
	}
	if p["dt"] != "Docs Home" {
		t.Errorf("dt = %q, want Docs Home", p["dt"])
	}
	if p["dh"] != "example.com" {
		t.Errorf("dh = %q, want example.com", p["dh"])
	}
	if p["dp"] != "/docs/home?ref=nav" {
		t.Errorf("dp = %q", p["dp"])
	}
	if p["dr"] != "https://google.com" {
		t.Errorf("dr = %q", p["dr"])
	}
	if p["v"] != "1" {
		t.Errorf("v = %q, want 1", p["v"])
	}
	if p["tid"] != "UA-12345-1" {
		t.Errorf("tid = %q", p["tid"])
	}
	if p["cid"] == "" {
		t.Error("cid must always be present")
	}
}

func TestMapperDeterminism(t *testing.T) {
	m := ga.NewMapper(ga.Settings{
		ServersideTrackingID: "UA-12345-1",
		Metrics:              map[string]string{"revenue": "metric8"},
	})
	e := &track.Event{
		Type:       track.KindTrack,
		UserID:     "user-1",
		Event:      "Signed Up",
		Properties: track.Fields{"revenue": 1.9, "label": "cta"},
	}

	first := m.Track(e)
	for i := 0; i < 10; i++ {
		if got := m.Track(e); !reflect.DeepEqual(got, first) {
			t.Fatalf("call %d produced a different payload:\n%v\nvs\n%v", i, got, first)
		}
	}
}

func TestClientIDStableAndOverridable(t *testing.T) {
	m := ga.NewMapper(baseSettings())

	a := m.Track(&track.Event{Type: track.KindTrack, Event: "X", UserID: "user-1"})
	b := m.Track(&track.Event{Type: track.KindTrack, Event: "Y", UserID: "user-1"})
	if a["cid"] != b["cid"] {
		t.Errorf("same identity produced different cids: %q vs %q", a["cid"], b["cid"])
	}

	c := m.Track(&track.Event{Type: track.KindTrack, Event: "X", UserID: "user-2"})
	if a["cid"] == c["cid"] {
		t.Errorf("different identities produced the same cid (%q)", a["cid"])
	}

	anon := m.Track(&track.Event{Type: track.KindTrack, Event: "X", AnonymousID: "anon-9"})
	if anon["cid"] == "" {
		t.Error("anonymous identity must still produce a cid")
	}

	override := m.Track(&track.Event{
		Type:   track.KindTrack,
		Event:  "X",
		UserID: "user-1",
		Integrations: track.Fields{
			ga.IntegrationName: map[string]any{"clientId": "cid-forced"},
		},
	})
	if override["cid"] != "cid-forced" {
		t.Errorf("cid override ignored: %q", override["cid"])
	}
}

func TestMobileTrackingIDSelection(t *testing.T) {
	settings := ga.Settings{
		ServersideTrackingID: "UA-server-1",
		MobileTrackingID:     "UA-mobile-1",
	}
	m := ga.NewMapper(settings)

	cases := []struct {
		name    string
		library any
		want    string
	}{
		{"ios object", map[string]any{"name": "analytics-ios"}, "UA-mobile-1"},
		{"android string", "analytics-android", "UA-mobile-1"},
		{"xamarin", "analytics.xamarin", "UA-mobile-1"},
		{"case insensitive", "Analytics-IOS", "UA-mobile-1"},
		{"server library", "analytics-go", "UA-server-1"},
	}
	for _, tc := range cases {
		e := &track.Event{Type: track.KindTrack, Event: "X", Context: track.Fields{"library": tc.library}}
		if got := m.Track(e)["tid"]; got != tc.want {
			t.Errorf("%s: tid = %q, want %q", tc.name, got, tc.want)
		}
	}

	// No library means not mobile.
	e := &track.Event{Type: track.KindTrack, Event: "X"}
	if got := m.Track(e)["tid"]; got != "UA-server-1" {
		t.Errorf("absent library: tid = %q, want UA-server-1", got)
	}

	// Mobile library but no mobile property configured.
	m = ga.NewMapper(ga.Settings{ServersideTrackingID: "UA-server-1"})
	e = &track.Event{Type: track.KindTrack, Event: "X", Context: track.Fields{"library": "analytics-ios"}}
	if got := m.Track(e)["tid"]; got != "UA-server-1" {
		t.Errorf("unconfigured mobile id: tid = %q, want UA-server-1", got)
	}
}

func TestOptionalFieldOmission(t *testing.T) {
	m := ga.NewMapper(baseSettings())
	e := &track.Event{Type: track.KindTrack, Event: "Bare"}

	p := m.Track(e)
	for _, key := range []string{"sr", "ul", "cn", "cs", "cm", "cc", "an", "av", "aid", "aiid", "ua", "uip", "uid", "dh", "dp"} {
		if v, present := p[key]; present {
			t.Errorf("key %q should be absent, found %q", key, v)
		}
	}
}

func TestCommonFormContextFields(t *testing.T) {
	m := ga.NewMapper(ga.Settings{ServersideTrackingID: "UA-12345-1", SendUserID: true})
	e := &track.Event{
		Type:   track.KindTrack,
		Event:  "X",
		UserID: "user-1",
		Context: track.Fields{
			"campaign":  map[string]any{"name": "spring", "source": "newsletter", "medium": "email", "content": "v2"},
			"screen":    map[string]any{"width": float64(320), "height": float64(568)},
			"locale":    "en-GB",
			"app":       map[string]any{"name": "Shop", "version": "3.1", "appId": "com.example.shop", "appInstallerId": "play"},
			"userAgent": "Mozilla/5.0",
			"ip":        "203.0.113.9",
		},
	}

	p := m.Track(e)
	want := map[string]string{
		"cn": "spring", "cs": "newsletter", "cm": "email", "cc": "v2",
		"sr": "320x568", "ul": "en-GB",
		"an": "Shop", "av": "3.1", "aid": "com.example.shop", "aiid": "play",
		"uid": "user-1", "ua": "Mozilla/5.0", "uip": "203.0.113.9",
	}
	for key, val := range want {
		if p[key] != val {
			t.Errorf("%s = %q, want %q", key, p[key], val)
		}
	}
}

func TestSendUserIDDisabled(t *testing.T) {
	m := ga.NewMapper(baseSettings())
	e := &track.Event{Type: track.KindTrack, Event: "X", UserID: "user-1"}
	if _, present := m.Track(e)["uid"]; present {
		t.Error("uid must be absent when send_user_id is off")
	}
}

func TestCustomMetricRemap(t *testing.T) {
	m := ga.NewMapper(ga.Settings{
		ServersideTrackingID: "UA-12345-1",
		Metrics:              map[string]string{"revenue": "metric8", "bad": "metricX"},
		Dimensions:           map[string]string{"plan": "dimension2", "unused": "dimension9"},
	})
	e := &track.Event{
		Type:       track.KindTrack,
		Event:      "Purchased",
		Traits:     track.Fields{"plan": "free"},
		Properties: track.Fields{"revenue": 1.9, "plan": "premium", "bad": "x"},
	}

	p := m.Track(e)

	if p["cm8"] != "1.9" {
		t.Errorf("cm8 = %q, want 1.9", p["cm8"])
	}
	if _, present := p["metric8"]; present {
		t.Error("raw metric8 key must not appear")
	}
	// Properties win over traits for the same semantic name.
	if p["cd2"] != "premium" {
		t.Errorf("cd2 = %q, want premium", p["cd2"])
	}
	// Malformed vendor names are dropped.
	if _, present := p["cmX"]; present {
		t.Error("malformed metric name must be dropped")
	}
	// Unresolved names are omitted.
	if _, present := p["cd9"]; present {
		t.Error("unresolved dimension must be omitted")
	}
}

func TestTraitOnlyDimension(t *testing.T) {
	m := ga.NewMapper(ga.Settings{
		ServersideTrackingID: "UA-12345-1",
		Dimensions:           map[string]string{"plan": "dimension3"},
	})
	e := &track.Event{Type: track.KindTrack, Event: "X", Traits: track.Fields{"plan": "enterprise"}}
	if got := m.Track(e)["cd3"]; got != "enterprise" {
		t.Errorf("cd3 = %q, want enterprise", got)
	}
}

func TestTrackDefaults(t *testing.T) {
	m := ga.NewMapper(baseSettings())
	e := &track.Event{Type: track.KindTrack, Event: "Clicked Button"}

	p := m.Track(e)
	if p["t"] != "event" {
		t.Errorf("t = %q", p["t"])
	}
	if p["ea"] != "Clicked Button" {
		t.Errorf("ea = %q", p["ea"])
	}
	if p["ec"] != "All" {
		t.Errorf("ec = %q, want All", p["ec"])
	}
	if p["el"] != "event" {
		t.Errorf("el = %q, want event", p["el"])
	}
	if p["ev"] != "0" {
		t.Errorf("ev = %q, want 0", p["ev"])
	}
	if p["ni"] != "0" {
		t.Errorf("ni = %q, want 0", p["ni"])
	}
}

func TestTrackValueRounding(t *testing.T) {
	m := ga.NewMapper(baseSettings())

	e := &track.Event{Type: track.KindTrack, Event: "X", Properties: track.Fields{"revenue": 1.9}}
	if got := m.Track(e)["ev"]; got != "2" {
		t.Errorf("ev from revenue = %q, want 2", got)
	}

	e = &track.Event{Type: track.KindTrack, Event: "X", Properties: track.Fields{"value": 7.2, "revenue": 100.0}}
	if got := m.Track(e)["ev"]; got != "7" {
		t.Errorf("ev should prefer value: %q, want 7", got)
	}
}

func TestTrackNonInteraction(t *testing.T) {
	m := ga.NewMapper(ga.Settings{ServersideTrackingID: "UA-12345-1", NonInteraction: true})

	e := &track.Event{Type: track.KindTrack, Event: "X"}
	if got := m.Track(e)["ni"]; got != "1" {
		t.Errorf("ni from settings default = %q, want 1", got)
	}

	e = &track.Event{Type: track.KindTrack, Event: "X", Properties: track.Fields{"nonInteraction": false}}
	if got := m.Track(e)["ni"]; got != "0" {
		t.Errorf("explicit property should win: ni = %q, want 0", got)
	}
}

func TestScreenMapping(t *testing.T) {
	m := ga.NewMapper(ga.Settings{ServersideTrackingID: "UA-12345-1", MobileTrackingID: "UA-mobile-1"})
	e := &track.Event{
		Type:    track.KindScreen,
		Name:    "Checkout",
		Context: track.Fields{"library": map[string]any{"name": "analytics-ios"}},
	}

	p := m.Screen(e)
	if p["t"] != "screenview" {
		t.Errorf("t = %q", p["t"])
	}
	if p["cd"] != "Checkout" {
		t.Errorf("cd = %q", p["cd"])
	}
	if p["tid"] != "UA-mobile-1" {
		t.Errorf("tid = %q, want UA-mobile-1", p["tid"])
	}
}

func TestURLPrecedenceAndInvalidURL(t *testing.T) {
	m := ga.NewMapper(baseSettings())

	// properties.url wins over context.page.url.
	e := &track.Event{
		Type:       track.KindPage,
		Properties: track.Fields{"url": "https://a.example.com/x"},
		Context:    track.Fields{"page": map[string]any{"url": "https://b.example.com/y"}},
	}
	p := m.Page(e)
	if p["dh"] != "a.example.com" || p["dp"] != "/x" {
		t.Errorf("dh/dp = %q/%q, want a.example.com//x", p["dh"], p["dp"])
	}

	// Unparseable URL leaves the keys absent.
	e = &track.Event{Type: track.KindPage, Properties: track.Fields{"url": "://not a url"}}
	p = m.Page(e)
	if _, present := p["dh"]; present {
		t.Error("dh must be absent for invalid URL")
	}
	if _, present := p["dp"]; present {
		t.Error("dp must be absent for invalid URL")
	}
}
