package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/deliveryeta/core/metrics"
)

// PromSink records prediction traffic in Prometheus metrics.
type PromSink struct {
	predictions *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	predicted   *prometheus.HistogramVec
	logWrites   *prometheus.CounterVec
	unknown     *prometheus.CounterVec
	queueDepth  prometheus.Gauge
}

// NewPromSink registers prediction metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately, see StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	predictions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eta_predictions_total",
		Help: "Total number of prediction requests by outcome",
	}, []string{"model_version", "outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "eta_prediction_latency_seconds",
		Help:    "Time spent serving a prediction request",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"model_version", "outcome"})
	predicted := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "eta_predicted_delivery_time",
		Help:    "Distribution of predicted delivery times",
		Buckets: prometheus.LinearBuckets(0, 1, 12),
	}, []string{"model_version"})
	logWrites := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eta_prediction_log_writes_total",
		Help: "Prediction log writes by result",
	}, []string{"succeeded"})
	unknown := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eta_unknown_category_total",
		Help: "Requests rejected for a label outside the trained vocabulary",
	}, []string{"feature"})
	queueDepth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "eta_prediction_log_queue_depth",
		Help: "Entries waiting in the asynchronous log writer",
	})

	var err error
	if predictions, err = register(reg, predictions); err != nil {
		return nil, err
	}
	if latency, err = register(reg, latency); err != nil {
		return nil, err
	}
	if predicted, err = register(reg, predicted); err != nil {
		return nil, err
	}
	if logWrites, err = register(reg, logWrites); err != nil {
		return nil, err
	}
	if unknown, err = register(reg, unknown); err != nil {
		return nil, err
	}
	if queueDepth, err = register(reg, queueDepth); err != nil {
		return nil, err
	}
	return &PromSink{
		predictions: predictions,
		latency:     latency,
		predicted:   predicted,
		logWrites:   logWrites,
		unknown:     unknown,
		queueDepth:  queueDepth,
	}, nil
}

// register returns the already registered collector when c is a duplicate.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordPrediction counts the request and observes its latency. Predicted
// times are only observed for successful requests.
func (s *PromSink) RecordPrediction(rec coremetrics.PredictionRecord) error {
	s.predictions.WithLabelValues(rec.ModelVersion, rec.Outcome).Inc()
	s.latency.WithLabelValues(rec.ModelVersion, rec.Outcome).Observe(rec.Latency.Seconds())
	if rec.Outcome == "ok" {
		s.predicted.WithLabelValues(rec.ModelVersion).Observe(rec.Predicted)
	}
	return nil
}

// RecordLogWrite counts a prediction log write.
func (s *PromSink) RecordLogWrite(rec coremetrics.LogWriteRecord) error {
	s.logWrites.WithLabelValues(strconv.FormatBool(rec.Succeeded)).Inc()
	return nil
}

// RecordUnknownCategory counts a rejected label per feature. The label
// itself is left out to bound cardinality.
func (s *PromSink) RecordUnknownCategory(rec coremetrics.UnknownCategoryRecord) error {
	s.unknown.WithLabelValues(rec.Feature).Inc()
	return nil
}

// RecordQueueDepth sets the async writer backlog gauge.
func (s *PromSink) RecordQueueDepth(depth int) error {
	s.queueDepth.Set(float64(depth))
	return nil
}
