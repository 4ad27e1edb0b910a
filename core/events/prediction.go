package events

import (
	"time"

	"github.com/kilianp07/deliveryeta/core/predictionlog"
)

// Outcome classifies the result of a prediction request.
type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeClientError Outcome = "client_error"
	OutcomeServerError Outcome = "server_error"
	// OutcomeCanceled marks requests abandoned by the caller before an
	// estimate was produced.
	OutcomeCanceled Outcome = "canceled"
)

// PredictionEvent is published after every prediction attempt. Entry is only
// populated for successful predictions.
type PredictionEvent struct {
	Outcome      Outcome             `json:"outcome"`
	Entry        predictionlog.Entry `json:"entry"`
	Rounded      float64             `json:"predicted_delivery_time"`
	ModelVersion string              `json:"model_version"`
	Feature      string              `json:"feature,omitempty"`
	Latency      time.Duration       `json:"latency"`
	Err          error               `json:"-"`
	Time         time.Time           `json:"time"`
}

// LogWriteEvent reports whether a prediction log entry reached the store.
type LogWriteEvent struct {
	EntryID string
	Err     error
	Time    time.Time
}

// Publisher accepts events of type T. eventbus.TypedBus satisfies it.
type Publisher[T any] interface {
	Publish(T)
}

// NopPublisher discards events.
type NopPublisher[T any] struct{}

func (NopPublisher[T]) Publish(T) {}
