// Package config loads the YAML configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "30s"
// or "6h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the root configuration structure.
type Config struct {
	RPC          RPCConfig          `yaml:"rpc"`
	Postgres     PostgresConfig     `yaml:"postgres"`
	ClickHouse   ClickHouseConfig   `yaml:"clickhouse"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Listener     ListenerConfig     `yaml:"listener"`
	Analyzer     AnalyzerConfig     `yaml:"analyzer"`
	PriceTracker PriceTrackerConfig `yaml:"price_tracker"`
	Discovery    DiscoveryConfig    `yaml:"discovery"`
}

type RPCConfig struct {
	// Endpoint is the HTTP JSON-RPC endpoint, API key included.
	Endpoint string `yaml:"endpoint"`
	// WSEndpoint overrides the WebSocket endpoint. When empty it is derived
	// from Endpoint by scheme substitution.
	WSEndpoint string `yaml:"ws_endpoint"`
	// EnhancedAPIKey authenticates the enhanced transaction API. When empty
	// it is extracted from the Endpoint query string.
	EnhancedAPIKey string `yaml:"enhanced_api_key"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type ClickHouseConfig struct {
	// DSN is optional; with no ClickHouse the market cap history is skipped.
	DSN string `yaml:"dsn"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type ListenerConfig struct {
	PollInterval   Duration `yaml:"poll_interval"`
	PollLimit      int      `yaml:"poll_limit"`
	ReconnectDelay Duration `yaml:"reconnect_delay"`
	SeenCapacity   int      `yaml:"seen_capacity"`
}

type AnalyzerConfig struct {
	MaxTokenAge  Duration `yaml:"max_token_age"`
	MinMatches   int      `yaml:"min_matches"`
	HistoryLimit int      `yaml:"history_limit"`
}

type PriceTrackerConfig struct {
	Interval    Duration `yaml:"interval"`
	MaxTrackAge Duration `yaml:"max_track_age"`
}

type DiscoveryConfig struct {
	Interval       Duration `yaml:"interval"`
	InitialDelay   Duration `yaml:"initial_delay"`
	MinGain        float64  `yaml:"min_gain"`
	InitialMinGain float64  `yaml:"initial_min_gain"`
	Lookback       Duration `yaml:"lookback"`
	MaxBuyers      int      `yaml:"max_buyers"`
	MinAppearances int      `yaml:"min_appearances"`
}

// Load reads and parses a YAML configuration file. Environment variables
// referenced as ${VAR} in the file are expanded before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9102"
	}
}

func (cfg *Config) validate() error {
	if cfg.RPC.Endpoint == "" {
		return fmt.Errorf("config: rpc.endpoint is required")
	}
	return nil
}
