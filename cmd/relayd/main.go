package main

import (
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/relaymetrics/relay/internal/natsserver"
	"github.com/relaymetrics/relay/internal/relay"
)

var version = "dev"

func main() {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "relayd",
		Short: "Relay daemon — forwards analytics events to Google Analytics",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zerolog.New(
				zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339},
			).With().Timestamp().Logger()

			cfg, err := relay.LoadConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			var natsOpts []nats.Option
			if cfg.NATS.Embedded {
				srv, err := natsserver.New(natsserver.Config{
					Host:  cfg.NATS.Host,
					Port:  cfg.NATS.Port,
					Token: cfg.NATS.Token,
				}, logger)
				if err != nil {
					return fmt.Errorf("start embedded nats: %w", err)
				}
				defer srv.Shutdown()
				cfg.NATS.URL = srv.ClientURL()
				natsOpts = srv.ConnectOpts()
			}

			a := relay.NewAgent(cfg, logger, natsOpts...)
			return a.Run()
		},
	}

	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
