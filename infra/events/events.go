// Package events broadcasts prediction events to external brokers.
// Broker implementations live in the mqtt and redis subpackages and
// register themselves on import.
package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/deliveryeta/core/factory"
)

// Sink publishes an encoded event on a topic or channel.
type Sink interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Close() error
}

var sinkRegistry = factory.NewRegistry[Sink]()

// RegisterSink adds a broker factory identified by name.
func RegisterSink(name string, f factory.Factory[Sink]) error {
	return sinkRegistry.Register(name, f)
}

// Config selects the brokers receiving prediction events.
type Config struct {
	Topic string                 `json:"topic"`
	Sinks []factory.ModuleConfig `json:"sinks"`
	// IncludeErrors also forwards rejected and failed predictions.
	IncludeErrors bool `json:"include_errors"`
}

// SetDefaults applies the default topic.
func (c *Config) SetDefaults() {
	if c.Topic == "" {
		c.Topic = "deliveryeta/predictions"
	}
}

// Validate checks that every sink names a registered broker.
func (c Config) Validate() error {
	for i, s := range c.Sinks {
		if !sinkRegistry.Has(s.Type) {
			return fmt.Errorf("events.sinks[%d]: unknown type %q", i, s.Type)
		}
	}
	return nil
}

// NewSinks builds the configured brokers. Already built sinks are closed
// when a later one fails.
func NewSinks(cfgs []factory.ModuleConfig) ([]Sink, error) {
	out := make([]Sink, 0, len(cfgs))
	for _, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			for _, o := range out {
				err = errors.Join(err, o.Close())
			}
			return nil, fmt.Errorf("events sink %s: %w", c.Type, err)
		}
		out = append(out, s)
	}
	return out, nil
}
