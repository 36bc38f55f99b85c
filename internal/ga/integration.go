package ga

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/relaymetrics/relay/pkg/track"
)

var (
	// ErrNoTrackingID means neither tracking id resolved for the hit. The
	// mapper emits the payload anyway; delivery refuses it.
	ErrNoTrackingID = errors.New("ga: no tracking id configured")

	// ErrEcommerceDisabled is returned by Integration.Ecommerce when the
	// enhanced_ecommerce setting is off.
	ErrEcommerceDisabled = errors.New("ga: enhanced ecommerce is not enabled")
)

// Integration dispatches mapped hits to the collection endpoint. Page,
// Screen, Track, and OrderCompleted are always available; the enhanced
// e-commerce operations are only reachable through Ecommerce() and only when
// enabled in settings.
type Integration struct {
	mapper    *Mapper
	sender    Sender
	logger    zerolog.Logger
	ecommerce *Ecommerce
}

// NewIntegration wires the mapper to a sender.
func NewIntegration(settings Settings, sender Sender, logger zerolog.Logger) *Integration {
	g := &Integration{
		mapper: NewMapper(settings),
		sender: sender,
		logger: logger.With().Str("component", "ga").Logger(),
	}
	if settings.EnhancedEcommerce {
		g.ecommerce = &Ecommerce{g: g}
	}
	return g
}

// Page sends a page-view hit.
func (g *Integration) Page(ctx context.Context, e *track.Event) error {
	return g.send(ctx, g.mapper.Page(e))
}

// Screen sends a screen-view hit.
func (g *Integration) Screen(ctx context.Context, e *track.Event) error {
	return g.send(ctx, g.mapper.Screen(e))
}

// Track sends a generic event hit.
func (g *Integration) Track(ctx context.Context, e *track.Event) error {
	return g.send(ctx, g.mapper.Track(e))
}

// OrderCompleted fans an order out into a transaction hit plus one item hit
// per product. The sends run concurrently; all must succeed. The first
// failure fails the whole batch, and already delivered hits are not
// retracted (the vendor has no transactional API).
func (g *Integration) OrderCompleted(ctx context.Context, e *track.Event) error {
	grp, ctx := errgroup.WithContext(ctx)
	for _, p := range g.mapper.OrderCompleted(e) {
		grp.Go(func() error {
			return g.send(ctx, p)
		})
	}
	return grp.Wait()
}

// Ecommerce returns the enhanced e-commerce operations, or
// ErrEcommerceDisabled when the capability is not configured.
func (g *Integration) Ecommerce() (*Ecommerce, error) {
	if g.ecommerce == nil {
		return nil, ErrEcommerceDisabled
	}
	return g.ecommerce, nil
}

func (g *Integration) send(ctx context.Context, p Payload) error {
	if p["tid"] == "" {
		return ErrNoTrackingID
	}
	status, err := g.sender.Send(ctx, p.Values())
	if err != nil {
		g.logger.Error().Err(err).Str("type", p["t"]).Msg("hit delivery failed")
		return err
	}
	g.logger.Debug().Int("status", status).Str("type", p["t"]).Msg("hit delivered")
	return nil
}

// Ecommerce exposes the enhanced e-commerce hit types.
type Ecommerce struct {
	g *Integration
}

// ProductClicked sends a product click hit.
func (ec *Ecommerce) ProductClicked(ctx context.Context, e *track.Event) error {
	return ec.g.send(ctx, ec.g.mapper.ProductClicked(e))
}

// ProductAdded sends an add-to-cart hit.
func (ec *Ecommerce) ProductAdded(ctx context.Context, e *track.Event) error {
	return ec.g.send(ctx, ec.g.mapper.ProductAdded(e))
}

// ProductRemoved sends a remove-from-cart hit.
func (ec *Ecommerce) ProductRemoved(ctx context.Context, e *track.Event) error {
	return ec.g.send(ctx, ec.g.mapper.ProductRemoved(e))
}

// CheckoutStepViewed sends a checkout impression hit.
func (ec *Ecommerce) CheckoutStepViewed(ctx context.Context, e *track.Event) error {
	return ec.g.send(ctx, ec.g.mapper.CheckoutStepViewed(e))
}

// CheckoutStepCompleted sends a checkout option hit.
func (ec *Ecommerce) CheckoutStepCompleted(ctx context.Context, e *track.Event) error {
	return ec.g.send(ctx, ec.g.mapper.CheckoutStepCompleted(e))
}

// OrderStarted aliases CheckoutStepViewed; see the mapper note.
func (ec *Ecommerce) OrderStarted(ctx context.Context, e *track.Event) error {
	return ec.g.send(ctx, ec.g.mapper.OrderStarted(e))
}

// OrderUpdated aliases CheckoutStepViewed; see the mapper note.
func (ec *Ecommerce) OrderUpdated(ctx context.Context, e *track.Event) error {
	return ec.g.send(ctx, ec.g.mapper.OrderUpdated(e))
}

// OrderRefunded sends a refund hit.
func (ec *Ecommerce) OrderRefunded(ctx context.Context, e *track.Event) error {
	return ec.g.send(ctx, ec.g.mapper.OrderRefunded(e))
}

// PromotionViewed sends a promotion impression hit.
func (ec *Ecommerce) PromotionViewed(ctx context.Context, e *track.Event) error {
	return ec.g.send(ctx, ec.g.mapper.PromotionViewed(e))
}

// PromotionClicked sends a promotion click hit.
func (ec *Ecommerce) PromotionClicked(ctx context.Context, e *track.Event) error {
	return ec.g.send(ctx, ec.g.mapper.PromotionClicked(e))
}
