// Package track defines the vendor-neutral event envelope the relay consumes
// and the loosely typed accessors downstream mappers read it through.
package track

import (
	"github.com/google/uuid"
)

// Kind discriminates the event shapes.
type Kind string

const (
	KindPage   Kind = "page"
	KindScreen Kind = "screen"
	KindTrack  Kind = "track"
)

// Event is the canonical envelope published on the event subject. Page and
// screen events carry Name/Category; track events carry Event plus arbitrary
// Properties. Context holds the common blocks (library, campaign, screen,
// app, page, locale, userAgent, ip).
type Event struct {
	Type        Kind   `json:"type"`
	MessageID   string `json:"messageId,omitempty"`
	UserID      string `json:"userId,omitempty"`
	AnonymousID string `json:"anonymousId,omitempty"`

	Event    string `json:"event,omitempty"`
	Name     string `json:"name,omitempty"`
	Category string `json:"category,omitempty"`

	Properties   Fields `json:"properties,omitempty"`
	Traits       Fields `json:"traits,omitempty"`
	Context      Fields `json:"context,omitempty"`
	Integrations Fields `json:"integrations,omitempty"`
}

// EnsureMessageID assigns a generated id when the producer did not set one.
func (e *Event) EnsureMessageID() {
	if e.MessageID == "" {
		e.MessageID = "msg_" + uuid.NewString()
	}
}

// FullName is the display form used for page titles: "Category Name" when
// both are set, otherwise whichever one is.
func (e *Event) FullName() string {
	switch {
	case e.Category != "" && e.Name != "":
		return e.Category + " " + e.Name
	case e.Name != "":
		return e.Name
	default:
		return e.Category
	}
}

// CategoryOr resolves the event category, checking the top-level field first
// and then properties, falling back to def.
func (e *Event) CategoryOr(def string) string {
	if e.Category != "" {
		return e.Category
	}
	if v, ok := e.Properties.Str("category"); ok {
		return v
	}
	return def
}

// Value returns properties.value.
func (e *Event) Value() (float64, bool) {
	return e.Properties.Num("value")
}

// Revenue returns properties.revenue.
func (e *Event) Revenue() (float64, bool) {
	return e.Properties.Num("revenue")
}

// Currency returns the order currency, empty when unset.
func (e *Event) Currency() string {
	v, _ := e.Properties.Str("currency")
	return v
}

// OrderID accepts both spellings producers use.
func (e *Event) OrderID() string {
	if v, ok := e.Properties.Str("orderId"); ok {
		return v
	}
	v, _ := e.Properties.Str("order_id")
	return v
}

// Shipping returns the order-level shipping cost.
func (e *Event) Shipping() (float64, bool) {
	return e.Properties.Num("shipping")
}

// Tax returns the order-level tax.
func (e *Event) Tax() (float64, bool) {
	return e.Properties.Num("tax")
}

// Products returns the ordered product list of an e-commerce event.
func (e *Event) Products() []Fields {
	return e.Properties.List("products")
}

// Options returns the per-destination option block for the named integration,
// nil when the producer set none (or set a bare boolean toggle).
func (e *Event) Options(integration string) Fields {
	opts, _ := e.Integrations.Sub(integration)
	return opts
}

// LibraryName reports the originating library. Producers send it either as a
// bare string or as an object with a name field.
func (e *Event) LibraryName() string {
	v, ok := e.Context["library"]
	if !ok {
		return ""
	}
	switch lib := v.(type) {
	case string:
		return lib
	case map[string]any:
		name, _ := Fields(lib).Str("name")
		return name
	case Fields:
		name, _ := lib.Str("name")
		return name
	}
	return ""
}

// Campaign returns the context.campaign block.
func (e *Event) Campaign() Fields {
	c, _ := e.Context.Sub("campaign")
	return c
}

// ScreenSize returns the device resolution; ok only when both dimensions are
// present.
func (e *Event) ScreenSize() (width, height int, ok bool) {
	screen, found := e.Context.Sub("screen")
	if !found {
		return 0, 0, false
	}
	w, wok := screen.Int("width")
	h, hok := screen.Int("height")
	return w, h, wok && hok
}

// Locale returns context.locale.
func (e *Event) Locale() string {
	v, _ := e.Context.Str("locale")
	return v
}

// App returns the context.app block.
func (e *Event) App() Fields {
	a, _ := e.Context.Sub("app")
	return a
}

// Page returns the context.page block.
func (e *Event) Page() Fields {
	p, _ := e.Context.Sub("page")
	return p
}

// UserAgent returns context.userAgent.
func (e *Event) UserAgent() string {
	v, _ := e.Context.Str("userAgent")
	return v
}

// IP returns context.ip.
func (e *Event) IP() string {
	v, _ := e.Context.Str("ip")
	return v
}
