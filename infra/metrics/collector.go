package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kilianp07/deliveryeta/core/encoding"
	"github.com/kilianp07/deliveryeta/core/events"
	coremetrics "github.com/kilianp07/deliveryeta/core/metrics"
	"github.com/kilianp07/deliveryeta/infra/logger"
	"github.com/kilianp07/deliveryeta/internal/eventbus"
)

// Collector feeds bus events into a metrics sink.
type Collector struct {
	Predictions *eventbus.TypedBus[events.PredictionEvent]
	LogWrites   *eventbus.TypedBus[events.LogWriteEvent]
	Sink        coremetrics.MetricsSink
	Logger      logger.Logger
	// QueueDepth, when set, is sampled every QueueInterval.
	QueueDepth    func() int
	QueueInterval time.Duration
}

// Start subscribes to the configured buses and returns once the
// subscriptions are in place. The returned wait function blocks until every
// goroutine exited, which happens when ctx is canceled or the buses close.
func (c Collector) Start(ctx context.Context) (wait func()) {
	var wg sync.WaitGroup
	if c.Sink == nil {
		return wg.Wait
	}
	log := c.Logger
	if log == nil {
		log = logger.NopLogger{}
	}

	if c.Predictions != nil {
		sub := c.Predictions.Subscribe()
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer c.Predictions.Unsubscribe(sub)
			for {
				select {
				case <-ctx.Done():
					return
				case ev, ok := <-sub:
					if !ok {
						return
					}
					c.recordPrediction(ev, log)
				}
			}
		}()
	}

	if c.LogWrites != nil {
		rec, ok := c.Sink.(coremetrics.LogWriteRecorder)
		if ok {
			sub := c.LogWrites.Subscribe()
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer c.LogWrites.Unsubscribe(sub)
				for {
					select {
					case <-ctx.Done():
						return
					case ev, ok := <-sub:
						if !ok {
							return
						}
						if err := rec.RecordLogWrite(coremetrics.LogWriteRecord{
							EntryID:   ev.EntryID,
							Succeeded: ev.Err == nil,
							Time:      ev.Time,
						}); err != nil {
							log.Warnf("record log write: %v", err)
						}
					}
				}
			}()
		}
	}

	if c.QueueDepth != nil {
		if rec, ok := c.Sink.(coremetrics.QueueDepthRecorder); ok {
			interval := c.QueueInterval
			if interval <= 0 {
				interval = 5 * time.Second
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				t := time.NewTicker(interval)
				defer t.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-t.C:
						_ = rec.RecordQueueDepth(c.QueueDepth())
					}
				}
			}()
		}
	}
	return wg.Wait
}

func (c Collector) recordPrediction(ev events.PredictionEvent, log logger.Logger) {
	if err := c.Sink.RecordPrediction(coremetrics.PredictionRecord{
		ModelVersion: ev.ModelVersion,
		Outcome:      string(ev.Outcome),
		Predicted:    ev.Rounded,
		Latency:      ev.Latency,
		Time:         ev.Time,
	}); err != nil {
		log.Warnf("record prediction: %v", err)
	}
	if ev.Outcome != events.OutcomeClientError {
		return
	}
	var uce *encoding.UnknownCategoryError
	if !errors.As(ev.Err, &uce) {
		return
	}
	if rec, ok := c.Sink.(coremetrics.UnknownCategoryRecorder); ok {
		if err := rec.RecordUnknownCategory(coremetrics.UnknownCategoryRecord{
			Feature: uce.Feature,
			Label:   uce.Label,
			Time:    ev.Time,
		}); err != nil {
			log.Warnf("record unknown category: %v", err)
		}
	}
}
