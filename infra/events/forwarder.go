package events

import (
	"context"
	"encoding/json"
	"time"

	coreevents "github.com/kilianp07/deliveryeta/core/events"
	"github.com/kilianp07/deliveryeta/infra/logger"
	"github.com/kilianp07/deliveryeta/internal/eventbus"
)

// Message is the JSON payload sent to brokers.
type Message struct {
	Outcome               string    `json:"outcome"`
	ModelVersion          string    `json:"model_version"`
	EntryID               string    `json:"entry_id,omitempty"`
	PredictedDeliveryTime float64   `json:"predicted_delivery_time,omitempty"`
	Feature               string    `json:"feature,omitempty"`
	Error                 string    `json:"error,omitempty"`
	LatencyMS             float64   `json:"latency_ms"`
	Time                  time.Time `json:"time"`
}

// NewMessage converts ev to its wire form.
func NewMessage(ev coreevents.PredictionEvent) Message {
	m := Message{
		Outcome:               string(ev.Outcome),
		ModelVersion:          ev.ModelVersion,
		EntryID:               ev.Entry.ID,
		PredictedDeliveryTime: ev.Rounded,
		Feature:               ev.Feature,
		LatencyMS:             float64(ev.Latency) / float64(time.Millisecond),
		Time:                  ev.Time,
	}
	if ev.Err != nil {
		m.Error = ev.Err.Error()
	}
	return m
}

// Forwarder relays prediction events from the bus to every sink.
type Forwarder struct {
	Bus           *eventbus.TypedBus[coreevents.PredictionEvent]
	Sinks         []Sink
	Topic         string
	IncludeErrors bool
	Logger        logger.Logger
	// Timeout bounds a single publish. Zero means 5s.
	Timeout time.Duration
}

// Start subscribes to the bus and forwards events until ctx is canceled or
// the bus closes. The returned channel is closed when forwarding stops.
func (f Forwarder) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	if f.Bus == nil || len(f.Sinks) == 0 {
		close(done)
		return done
	}
	log := f.Logger
	if log == nil {
		log = logger.NopLogger{}
	}
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	sub := f.Bus.Subscribe()
	go func() {
		defer close(done)
		defer f.Bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if ev.Outcome != coreevents.OutcomeOK && !f.IncludeErrors {
					continue
				}
				payload, err := json.Marshal(NewMessage(ev))
				if err != nil {
					log.Errorf("encode event: %v", err)
					continue
				}
				for _, s := range f.Sinks {
					pctx, cancel := context.WithTimeout(ctx, timeout)
					if err := s.Publish(pctx, f.Topic, payload); err != nil {
						log.Warnf("publish event: %v", err)
					}
					cancel()
				}
			}
		}
	}()
	return done
}
