package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/kilianp07/deliveryeta/core/factory"
	"github.com/kilianp07/deliveryeta/core/predictionlog"
	"github.com/kilianp07/deliveryeta/infra/delivery"
)

// PredictionLogConfig selects the prediction log store and how writes reach it.
type PredictionLogConfig struct {
	// Store is a registered store type with its settings, e.g.
	// {type: jsonl, conf: {path: predictions.jsonl, max_size_mb: 100}}.
	Store factory.ModuleConfig `json:"store"`
	Async AsyncConfig          `json:"async"`
}

// AsyncConfig tunes the background writer.
type AsyncConfig struct {
	Enabled    bool `json:"enabled"`
	BufferSize int  `json:"buffer_size"`
	DropOnFull bool `json:"drop_on_full"`
	// EnqueueTimeout bounds how long a prediction waits for room in a full
	// queue before its log entry is dropped.
	EnqueueTimeout time.Duration `json:"enqueue_timeout"`
	DrainTimeout   time.Duration `json:"drain_timeout"`
}

// SetDefaults applies sane defaults.
func (c *PredictionLogConfig) SetDefaults() {
	if c.Store.Type == "" {
		c.Store.Type = "jsonl"
	}
	if c.Store.Type == "jsonl" || c.Store.Type == "sqlite" {
		if c.Store.Conf == nil {
			c.Store.Conf = map[string]any{}
		}
		if _, ok := c.Store.Conf["path"]; !ok {
			if c.Store.Type == "sqlite" {
				c.Store.Conf["path"] = "predictions.db"
			} else {
				c.Store.Conf["path"] = "predictions.jsonl"
			}
		}
	}
	if c.Async.BufferSize == 0 {
		c.Async.BufferSize = 1024
	}
	if c.Async.EnqueueTimeout == 0 {
		c.Async.EnqueueTimeout = 50 * time.Millisecond
	}
	if c.Async.DrainTimeout == 0 {
		c.Async.DrainTimeout = 5 * time.Second
	}
}

// Validate checks mandatory fields.
func (c PredictionLogConfig) Validate() error {
	if !predictionlog.HasStore(c.Store.Type) {
		return fmt.Errorf("unknown store %s", c.Store.Type)
	}
	if c.Async.BufferSize < 0 {
		return fmt.Errorf("async.buffer_size must not be negative")
	}
	if c.Async.EnqueueTimeout < 0 {
		return fmt.Errorf("async.enqueue_timeout must not be negative")
	}
	return nil
}

// DeliveriesConfig selects the delivery repository.
type DeliveriesConfig struct {
	// Store is "sqlite" ({path}) or "postgres" ({dsn}).
	Store factory.ModuleConfig `json:"store"`
	// Indexed creates the traffic_level index on startup.
	Indexed bool `json:"indexed"`
}

func (c *DeliveriesConfig) SetDefaults() {
	if c.Store.Type == "" {
		c.Store = factory.ModuleConfig{Type: "sqlite", Conf: map[string]any{"path": "deliveries.db"}}
	}
}

func (c DeliveriesConfig) Validate() error {
	if !slices.Contains(delivery.Types(), c.Store.Type) {
		return fmt.Errorf("unknown store %s", c.Store.Type)
	}
	return nil
}
