package metrics

import (
	"fmt"

	"github.com/kilianp07/deliveryeta/core/factory"
)

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr is the listen address of the /metrics server. Empty
	// mounts /metrics on the main HTTP server instead.
	PrometheusAddr string `json:"prometheus_addr"`
}

// Validate checks that every configured sink names a registered type.
func (c Config) Validate() error {
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics.sinks[%d]: type is required", i)
		}
		if !sinkRegistry.Has(s.Type) {
			return fmt.Errorf("metrics.sinks[%d]: unknown type %q", i, s.Type)
		}
	}
	return nil
}
