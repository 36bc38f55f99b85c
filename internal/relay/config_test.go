package relay_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/relaymetrics/relay/internal/ga"
	"github.com/relaymetrics/relay/internal/relay"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relayd.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
[ga]
serverside_tracking_id = "UA-12345-1"
`)

	cfg, err := relay.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.NATS.URL != "nats://127.0.0.1:4222" {
		t.Errorf("nats url = %q", cfg.NATS.URL)
	}
	if cfg.Collect.Endpoint != ga.CollectEndpoint {
		t.Errorf("collect endpoint = %q", cfg.Collect.Endpoint)
	}
	if cfg.Collect.Retries != 2 {
		t.Errorf("retries = %d, want 2", cfg.Collect.Retries)
	}
	if cfg.GA.ServersideTrackingID != "UA-12345-1" {
		t.Errorf("tracking id = %q", cfg.GA.ServersideTrackingID)
	}
	if cfg.GA.EnhancedEcommerce {
		t.Error("enhanced ecommerce should default off")
	}
}

func TestLoadConfigFull(t *testing.T) {
	path := writeConfig(t, `
[nats]
url = "nats://bus.internal:4222"
token = "secret"

[ga]
serverside_tracking_id = "UA-12345-1"
mobile_tracking_id = "UA-12345-2"
send_user_id = true
enhanced_ecommerce = true

[ga.metrics]
revenue = "metric8"

[ga.dimensions]
plan = "dimension2"

[collect]
retries = 5

[metrics]
listen = "127.0.0.1:9102"
`)

	cfg, err := relay.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.NATS.Token != "secret" {
		t.Errorf("token = %q", cfg.NATS.Token)
	}
	if cfg.GA.MobileTrackingID != "UA-12345-2" {
		t.Errorf("mobile id = %q", cfg.GA.MobileTrackingID)
	}
	if !cfg.GA.SendUserID || !cfg.GA.EnhancedEcommerce {
		t.Error("boolean settings not loaded")
	}
	if cfg.GA.Metrics["revenue"] != "metric8" {
		t.Errorf("metrics map = %v", cfg.GA.Metrics)
	}
	if cfg.GA.Dimensions["plan"] != "dimension2" {
		t.Errorf("dimensions map = %v", cfg.GA.Dimensions)
	}
	if cfg.Collect.Retries != 5 {
		t.Errorf("retries = %d", cfg.Collect.Retries)
	}
	if cfg.Metrics.Listen != "127.0.0.1:9102" {
		t.Errorf("metrics listen = %q", cfg.Metrics.Listen)
	}
}

func TestLoadConfigRequiresTrackingID(t *testing.T) {
	path := writeConfig(t, `
[nats]
url = "nats://127.0.0.1:4222"
`)

	if _, err := relay.LoadConfig(path); err == nil {
		t.Fatal("expected error when no tracking id is configured")
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := writeConfig(t, `
[ga]
serverside_tracking_id = "UA-12345-1"
`)
	t.Setenv("RELAY_NATS_URL", "nats://other:4222")

	cfg, err := relay.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.NATS.URL != "nats://other:4222" {
		t.Errorf("env override ignored: %q", cfg.NATS.URL)
	}
}
