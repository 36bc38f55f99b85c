// Package relay consumes vendor-neutral analytics events from NATS and
// forwards them as measurement-protocol hits.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/relaymetrics/relay/internal/ga"
	"github.com/relaymetrics/relay/pkg/track"
)

const agentName = "ga-relay"

// SubjectEvents is the subject producers publish events on.
const SubjectEvents = "track.events"

// Agent bridges the event bus to the analytics integration.
type Agent struct {
	cfg     Config
	ga      *ga.Integration
	metrics *Metrics
	logger  zerolog.Logger
	stopCh  chan struct{}

	nc *nats.Conn

	// Overridable for testing.
	natsOpts []nats.Option
}

// NewAgent creates an Agent with the real HTTP sender. Extra NATS options
// (in-process transport for an embedded server) are appended to the
// defaults. Call Run() to start.
func NewAgent(cfg Config, logger zerolog.Logger, natsOpts ...nats.Option) *Agent {
	sender := ga.NewHTTPSender(cfg.Collect.Endpoint, cfg.Collect.Retries)
	a := newAgent(cfg, sender, logger)
	a.natsOpts = natsOpts
	return a
}

// NewTestAgent creates an Agent with a caller-supplied sender and NATS
// connection options (in-process server, tokens).
func NewTestAgent(cfg Config, sender ga.Sender, natsOpts []nats.Option, logger zerolog.Logger) *Agent {
	a := newAgent(cfg, sender, logger)
	a.natsOpts = natsOpts
	return a
}

func newAgent(cfg Config, sender ga.Sender, logger zerolog.Logger) *Agent {
	l := logger.With().Str("component", agentName).Logger()
	return &Agent{
		cfg:     cfg,
		ga:      ga.NewIntegration(cfg.GA, sender, l),
		metrics: NewMetrics(),
		logger:  l,
		stopCh:  make(chan struct{}),
	}
}

// Run connects to NATS, subscribes to the event subject, optionally serves
// metrics, and blocks until signal or Stop().
func (a *Agent) Run() error {
	natsOpts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				a.logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			a.logger.Info().Msg("NATS reconnected")
		}),
	}
	natsOpts = append(natsOpts, a.natsOpts...)
	if a.cfg.NATS.Token != "" {
		natsOpts = append(natsOpts, nats.Token(a.cfg.NATS.Token))
	}

	nc, err := nats.Connect(a.cfg.NATS.URL, natsOpts...)
	if err != nil {
		return fmt.Errorf("connect nats: %w", err)
	}
	a.nc = nc

	if _, err := nc.Subscribe(SubjectEvents, a.handleMessage); err != nil {
		nc.Close()
		return fmt.Errorf("subscribe events: %w", err)
	}

	var metricsSrv *http.Server
	if a.cfg.Metrics.Listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.metrics.Handler())
		metricsSrv = &http.Server{Addr: a.cfg.Metrics.Listen, Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				a.logger.Error().Err(err).Msg("metrics listener failed")
			}
		}()
	}

	a.logger.Info().
		Str("nats", a.cfg.NATS.URL).
		Str("subject", SubjectEvents).
		Msg("relay agent started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case <-a.stopCh:
		a.logger.Info().Msg("stop requested, shutting down")
	}

	if metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		metricsSrv.Shutdown(ctx)
		cancel()
	}
	nc.Drain()
	return nil
}

// Stop signals the agent to shut down. Safe to call from another goroutine.
func (a *Agent) Stop() {
	close(a.stopCh)
}

func (a *Agent) handleMessage(msg *nats.Msg) {
	var e track.Event
	if err := json.Unmarshal(msg.Data, &e); err != nil {
		a.metrics.Failed.WithLabelValues("decode").Inc()
		a.logger.Error().Err(err).Msg("unmarshal event")
		return
	}
	e.EnsureMessageID()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	start := time.Now()
	err := a.Forward(ctx, &e)
	a.metrics.SendDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		a.metrics.Failed.WithLabelValues(string(e.Type)).Inc()
		a.logger.Error().Err(err).
			Str("message_id", e.MessageID).
			Str("event", e.Event).
			Msg("forward failed")
		return
	}
	a.metrics.Forwarded.WithLabelValues(string(e.Type)).Inc()
	a.logger.Debug().
		Str("message_id", e.MessageID).
		Str("type", string(e.Type)).
		Msg("event forwarded")
}

// Forward routes one event to its mapping and delivers the result.
func (a *Agent) Forward(ctx context.Context, e *track.Event) error {
	switch e.Type {
	case track.KindPage:
		return a.ga.Page(ctx, e)
	case track.KindScreen:
		return a.ga.Screen(ctx, e)
	case track.KindTrack:
		return a.forwardTrack(ctx, e)
	default:
		return fmt.Errorf("unsupported event type %q", e.Type)
	}
}

func (a *Agent) forwardTrack(ctx context.Context, e *track.Event) error {
	name := normalizeEventName(e.Event)

	// Classic e-commerce transactions fan out regardless of the enhanced
	// e-commerce capability.
	if name == "order completed" || name == "completed order" {
		return a.ga.OrderCompleted(ctx, e)
	}

	if ec, err := a.ga.Ecommerce(); err == nil {
		if op := ecommerceRoute(ec, name); op != nil {
			return op(ctx, e)
		}
	}
	return a.ga.Track(ctx, e)
}

func normalizeEventName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// ecommerceRoute matches the enhanced e-commerce event names, accepting both
// the current and legacy orderings.
func ecommerceRoute(ec *ga.Ecommerce, name string) func(context.Context, *track.Event) error {
	switch name {
	case "product clicked", "clicked product":
		return ec.ProductClicked
	case "product added", "added product":
		return ec.ProductAdded
	case "product removed", "removed product":
		return ec.ProductRemoved
	case "checkout step viewed", "viewed checkout step":
		return ec.CheckoutStepViewed
	case "checkout step completed", "completed checkout step":
		return ec.CheckoutStepCompleted
	case "order started", "started order":
		return ec.OrderStarted
	case "order updated", "updated order":
		return ec.OrderUpdated
	case "order refunded", "refunded order":
		return ec.OrderRefunded
	case "promotion viewed", "viewed promotion":
		return ec.PromotionViewed
	case "promotion clicked", "clicked promotion":
		return ec.PromotionClicked
	}
	return nil
}
