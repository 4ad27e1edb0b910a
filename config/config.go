package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/deliveryeta/core/metrics"
	"github.com/kilianp07/deliveryeta/infra/events"
)

type Config struct {
	Server        ServerConfig        `json:"server"`
	Artifacts     ArtifactsConfig     `json:"artifacts"`
	PredictionLog PredictionLogConfig `json:"prediction_log"`
	Deliveries    DeliveriesConfig    `json:"deliveries"`
	Metrics       metrics.Config      `json:"metrics"`
	Events        events.Config       `json:"events"`
	Sentry        SentryConfig        `json:"sentry"`
}

// Load reads path and applies K_ prefixed environment overrides, e.g.
// K_SERVER__ADDR sets server.addr.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration usable without a file.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// SetDefaults fills every section's defaults.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Artifacts.SetDefaults()
	c.PredictionLog.SetDefaults()
	c.Deliveries.SetDefaults()
	c.Events.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Artifacts.Validate(); err != nil {
		return fmt.Errorf("artifacts: %w", err)
	}
	if err := c.PredictionLog.Validate(); err != nil {
		return fmt.Errorf("prediction_log: %w", err)
	}
	if err := c.Deliveries.Validate(); err != nil {
		return fmt.Errorf("deliveries: %w", err)
	}
	if err := c.Sentry.Validate(); err != nil {
		return fmt.Errorf("sentry: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	return c.Events.Validate()
}
