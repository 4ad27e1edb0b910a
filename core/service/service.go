package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kilianp07/deliveryeta/core/encoding"
	"github.com/kilianp07/deliveryeta/core/events"
	"github.com/kilianp07/deliveryeta/core/features"
	"github.com/kilianp07/deliveryeta/core/logger"
	"github.com/kilianp07/deliveryeta/core/model"
	"github.com/kilianp07/deliveryeta/core/monitoring"
	"github.com/kilianp07/deliveryeta/core/prediction"
	"github.com/kilianp07/deliveryeta/core/predictionlog"
)

// Result is returned to the caller of PredictAndLog.
type Result struct {
	PredictedTime float64 `json:"predicted_delivery_time"`
}

// Service runs predictions against one set of artifacts.
type Service struct {
	art         Artifacts
	log         predictionlog.Appender
	retry       predictionlog.Retry
	reportWrite bool

	logger     logger.Logger
	predEvents events.Publisher[events.PredictionEvent]
	logEvents  events.Publisher[events.LogWriteEvent]
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPredictionEvents publishes one event per PredictAndLog call.
func WithPredictionEvents(p events.Publisher[events.PredictionEvent]) Option {
	return func(s *Service) {
		if p != nil {
			s.predEvents = p
		}
	}
}

// WithLogWriteEvents publishes the outcome of log appends.
func WithLogWriteEvents(p events.Publisher[events.LogWriteEvent]) Option {
	return func(s *Service) {
		if p != nil {
			s.logEvents = p
		}
	}
}

// WithRetry overrides the append retry policy.
func WithRetry(r predictionlog.Retry) Option {
	return func(s *Service) { s.retry = r }
}

// WithAsyncAppender declares that the appender queues entries and retries on
// its own. The service then appends once and only reports enqueue failures.
func WithAsyncAppender() Option {
	return func(s *Service) {
		s.retry = predictionlog.Retry{Attempts: 1}
		s.reportWrite = false
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Service. log receives one entry per successful prediction.
func New(art Artifacts, log predictionlog.Appender, opts ...Option) (*Service, error) {
	if err := art.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		return nil, errors.New("service: prediction log appender is required")
	}
	s := &Service{
		art:         art,
		log:         log,
		retry:       predictionlog.DefaultRetry,
		reportWrite: true,
		logger:      logger.Nop{},
		predEvents:  events.NopPublisher[events.PredictionEvent]{},
		logEvents:   events.NopPublisher[events.LogWriteEvent]{},
		now:         time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Version returns the artifact version served.
func (s *Service) Version() string { return s.art.Version }

// Encoders exposes the loaded encoder set.
func (s *Service) Encoders() *encoding.Set { return s.art.Encoders }

// PredictAndLog estimates the delivery time for req. It returns a
// *features.EncodingError for unknown labels and a *prediction.EstimationError
// when the estimator rejects the vector or yields a non-finite value. Context
// errors are returned as is. Log failures never reach the caller.
func (s *Service) PredictAndLog(ctx context.Context, req model.PredictionRequest) (Result, error) {
	start := s.now()

	vec, err := features.Build(req, s.art.Encoders)
	if err != nil {
		ev := events.PredictionEvent{Outcome: events.OutcomeClientError, ModelVersion: s.art.Version, Err: err}
		var uce *encoding.UnknownCategoryError
		if errors.As(err, &uce) {
			ev.Feature = uce.Feature
		}
		s.logger.Debugw("prediction rejected", map[string]any{"error": err.Error()})
		s.publish(ev, start)
		return Result{}, err
	}

	if err := ctx.Err(); err != nil {
		s.canceled(err, start)
		return Result{}, err
	}

	raw, err := s.art.Estimator.Predict(ctx, vec)
	if err != nil && isCanceled(err) {
		s.canceled(err, start)
		return Result{}, err
	}
	if err == nil && (math.IsNaN(raw) || math.IsInf(raw, 0)) {
		err = fmt.Errorf("non-finite estimate %v", raw)
	}
	if err != nil {
		var ee *prediction.EstimationError
		if !errors.As(err, &ee) {
			err = &prediction.EstimationError{Want: features.Size, Got: len(vec), Err: err}
		}
		s.logger.Errorw("estimation failed", map[string]any{
			"error":         err.Error(),
			"model_version": s.art.Version,
		})
		monitoring.CaptureException(err, map[string]string{
			"component":     "service",
			"model_version": s.art.Version,
		})
		s.publish(events.PredictionEvent{Outcome: events.OutcomeServerError, ModelVersion: s.art.Version, Err: err}, start)
		return Result{}, err
	}

	rounded := Round2(raw)
	entry, err := predictionlog.NewEntry(req, raw, s.art.Version, s.now())
	if err != nil {
		s.logger.Errorf("build log entry: %v", err)
	} else {
		s.persist(ctx, entry)
	}

	s.publish(events.PredictionEvent{
		Outcome:      events.OutcomeOK,
		Entry:        entry,
		Rounded:      rounded,
		ModelVersion: s.art.Version,
	}, start)
	return Result{PredictedTime: rounded}, nil
}

// persist appends e with the configured retry. The write outlives the
// caller's cancellation once issued.
func (s *Service) persist(ctx context.Context, e predictionlog.Entry) {
	err := predictionlog.AppendWithRetry(context.WithoutCancel(ctx), s.log, e, s.retry)
	if err != nil {
		s.logger.Errorw("prediction log write failed", map[string]any{
			"entry_id": e.ID,
			"error":    err.Error(),
		})
		monitoring.CaptureException(err, map[string]string{"component": "predictionlog"})
		s.logEvents.Publish(events.LogWriteEvent{EntryID: e.ID, Err: err, Time: s.now()})
		return
	}
	if s.reportWrite {
		s.logEvents.Publish(events.LogWriteEvent{EntryID: e.ID, Time: s.now()})
	}
}

// canceled records a request the caller gave up on. It is not a failure of
// the service and is kept out of the monitor.
func (s *Service) canceled(err error, start time.Time) {
	s.logger.Debugw("prediction canceled", map[string]any{"error": err.Error()})
	s.publish(events.PredictionEvent{Outcome: events.OutcomeCanceled, ModelVersion: s.art.Version, Err: err}, start)
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (s *Service) publish(ev events.PredictionEvent, start time.Time) {
	ev.Time = s.now()
	ev.Latency = ev.Time.Sub(start)
	s.predEvents.Publish(ev)
}

// Round2 rounds v half away from zero to 2 decimals. NaN and infinities are
// returned unchanged.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// IsClientError reports whether err was caused by the request content.
func IsClientError(err error) bool {
	var enc *features.EncodingError
	return errors.As(err, &enc)
}
