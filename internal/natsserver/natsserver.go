// Package natsserver embeds a NATS server so the relay can run as a single
// binary and tests can use an in-process bus.
package natsserver

import (
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Config holds settings for the embedded NATS server. An empty Host selects
// in-process only operation (no TCP listener).
type Config struct {
	Host  string
	Port  int
	Token string // If non-empty, requires token auth for NATS connections.
}

// Server wraps an embedded NATS server. JetStream stays off: the relay is
// stateless and hits are fire-and-forget.
type Server struct {
	ns     *server.Server
	logger zerolog.Logger
}

// New creates and starts the embedded server.
func New(cfg Config, logger zerolog.Logger) (*Server, error) {
	opts := &server.Options{
		DontListen: cfg.Host == "",
		Host:       cfg.Host,
		Port:       cfg.Port,
		NoLog:      true,
		NoSigs:     true,
	}
	if cfg.Token != "" {
		opts.Authorization = cfg.Token
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("nats server create: %w", err)
	}

	ns.SetLoggerV2(newZerologAdapter(logger), false, false, false)

	go ns.Start()

	if !ns.ReadyForConnections(10 * time.Second) {
		return nil, fmt.Errorf("nats server failed to become ready")
	}

	logger.Info().Str("client_url", ns.ClientURL()).Msg("embedded NATS started")
	return &Server{ns: ns, logger: logger}, nil
}

// ClientURL returns the NATS client connection URL.
func (s *Server) ClientURL() string { return s.ns.ClientURL() }

// ConnectOpts returns the client options a connection to this server needs:
// in-process transport when there is no TCP listener.
func (s *Server) ConnectOpts() []nats.Option {
	if s.ns.Addr() == nil {
		return []nats.Option{nats.InProcessServer(s.ns)}
	}
	return nil
}

// Shutdown stops the server and waits for it to exit.
func (s *Server) Shutdown() {
	s.logger.Info().Msg("shutting down embedded NATS")
	s.ns.Shutdown()
	s.ns.WaitForShutdown()
}
