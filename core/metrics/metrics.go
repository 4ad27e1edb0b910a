package metrics

import "time"

// PredictionRecord describes a single prediction attempt.
type PredictionRecord struct {
	ModelVersion string
	// Outcome is one of ok, client_error or server_error.
	Outcome   string
	Predicted float64
	Latency   time.Duration
	Time      time.Time
}

// MetricsSink records prediction outcomes for observability purposes.
type MetricsSink interface {
	RecordPrediction(rec PredictionRecord) error
}

// LogWriteRecord captures the result of persisting one prediction log entry.
type LogWriteRecord struct {
	EntryID   string
	Succeeded bool
	Time      time.Time
}

// LogWriteRecorder records prediction log writes.
type LogWriteRecorder interface {
	RecordLogWrite(rec LogWriteRecord) error
}

// UnknownCategoryRecord is emitted when a request carries a label the
// encoders were not fitted on.
type UnknownCategoryRecord struct {
	Feature string
	Label   string
	Time    time.Time
}

// UnknownCategoryRecorder records rejected categorical labels.
type UnknownCategoryRecorder interface {
	RecordUnknownCategory(rec UnknownCategoryRecord) error
}

// QueueDepthRecorder records the number of log entries waiting in the async writer.
type QueueDepthRecorder interface {
	RecordQueueDepth(depth int) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordPrediction(PredictionRecord) error { return nil }

func (NopSink) RecordLogWrite(LogWriteRecord) error               { return nil }
func (NopSink) RecordUnknownCategory(UnknownCategoryRecord) error { return nil }
func (NopSink) RecordQueueDepth(int) error                        { return nil }
