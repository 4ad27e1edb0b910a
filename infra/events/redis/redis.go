// Package redis publishes prediction events on Redis pub/sub channels.
package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kilianp07/deliveryeta/core/factory"
	"github.com/kilianp07/deliveryeta/infra/events"
)

// Config locates the Redis server. URL takes the redis:// form.
type Config struct {
	URL string `json:"url"`
	// Channel overrides the forwarder topic when set.
	Channel string `json:"channel"`
}

type publisher interface {
	Publish(ctx context.Context, channel string, message any) *goredis.IntCmd
	Close() error
}

// Publisher implements events.Sink on Redis PUBLISH.
type Publisher struct {
	client  publisher
	channel string
}

func init() {
	_ = events.RegisterSink("redis", func(conf map[string]any) (events.Sink, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewPublisher(c)
	})
}

// NewPublisher parses cfg.URL and returns a Publisher. The connection is
// established lazily by the client.
func NewPublisher(cfg Config) (*Publisher, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("redis: url is required")
	}
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	return &Publisher{client: goredis.NewClient(opts), channel: cfg.Channel}, nil
}

// Publish sends payload to the configured channel, or topic when none is set.
func (p *Publisher) Publish(ctx context.Context, topic string, payload []byte) error {
	ch := topic
	if p.channel != "" {
		ch = p.channel
	}
	if err := p.client.Publish(ctx, ch, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", ch, err)
	}
	return nil
}

// Close closes the client.
func (p *Publisher) Close() error { return p.client.Close() }
