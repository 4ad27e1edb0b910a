// Package monitoring reports captured errors and panics to Sentry.
package monitoring

import (
	"os"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/kilianp07/deliveryeta/config"
	coremon "github.com/kilianp07/deliveryeta/core/monitoring"
)

// Option adjusts the Sentry client options before the client is built.
type Option func(*sentry.ClientOptions)

// NewSentryMonitor builds a Monitor with its own hub. An empty DSN yields a
// NopMonitor.
func NewSentryMonitor(cfg config.SentryConfig, opts ...Option) (coremon.Monitor, error) {
	if cfg.DSN == "" {
		return coremon.NopMonitor{}, nil
	}
	env := cfg.Environment
	if env == "" {
		env = os.Getenv("APP_ENV")
	}
	release := cfg.Release
	if release == "" {
		release = "deliveryeta"
	}
	co := sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      env,
		Release:          release,
		SampleRate:       cfg.SampleRate,
		TracesSampleRate: cfg.TracesSampleRate,
	}
	for _, o := range opts {
		o(&co)
	}
	client, err := sentry.NewClient(co)
	if err != nil {
		return nil, err
	}
	hub := sentry.NewHub(client, sentry.NewScope())
	hub.Scope().SetTag("service", "deliveryeta")
	return &sentryMonitor{hub: hub}, nil
}

type sentryMonitor struct {
	hub *sentry.Hub
}

func (s *sentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	s.hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		s.hub.CaptureException(err)
	})
}

func (s *sentryMonitor) RecoverPanic(v any) { s.hub.Recover(v) }

func (s *sentryMonitor) Flush(timeout time.Duration) { s.hub.Flush(timeout) }
