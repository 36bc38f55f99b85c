package relay

import (
	"github.com/spf13/viper"

	"github.com/relaymetrics/relay/internal/ga"
)

// Config holds all configuration for the relay agent.
type Config struct {
	NATS    NATSConfig    `mapstructure:"nats"`
	GA      ga.Settings   `mapstructure:"ga"`
	Collect CollectConfig `mapstructure:"collect"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// NATSConfig holds event bus connection settings. When Embedded is set the
// daemon runs its own NATS server instead of dialing URL.
type NATSConfig struct {
	URL      string `mapstructure:"url"`
	Token    string `mapstructure:"token"`
	Embedded bool   `mapstructure:"embedded"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
}

// CollectConfig holds delivery settings for the collection endpoint.
type CollectConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Retries  int    `mapstructure:"retries"`
}

// MetricsConfig holds the Prometheus listener address; empty disables it.
type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
}

// LoadConfig reads the relay configuration from file, env vars, and defaults.
func LoadConfig(cfgFile string) (Config, error) {
	v := viper.New()

	v.SetDefault("nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("nats.host", "127.0.0.1")
	v.SetDefault("nats.port", 4222)
	v.SetDefault("collect.endpoint", ga.CollectEndpoint)
	v.SetDefault("collect.retries", 2)
	v.SetDefault("metrics.listen", "")

	v.SetConfigType("toml")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("relayd")
		v.AddConfigPath("/etc/relay")
		v.AddConfigPath("$HOME/.config/relay")
		v.AddConfigPath(".")
	}

	v.BindEnv("nats.url", "RELAY_NATS_URL")
	v.BindEnv("nats.token", "RELAY_NATS_TOKEN")
	v.BindEnv("ga.serverside_tracking_id", "RELAY_GA_TRACKING_ID")
	v.BindEnv("ga.mobile_tracking_id", "RELAY_GA_MOBILE_TRACKING_ID")
	v.BindEnv("metrics.listen", "RELAY_METRICS_LISTEN")

	_ = v.ReadInConfig() // config file is optional

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}

	if err := cfg.GA.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}
