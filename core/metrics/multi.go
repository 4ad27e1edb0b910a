package metrics

import (
	"errors"
	"io"
)

// MultiSink fans out records to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPrediction forwards the record to all sinks, returning the first error encountered.
func (m *MultiSink) RecordPrediction(rec PredictionRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordPrediction(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordLogWrite forwards log write records when supported by the sink.
func (m *MultiSink) RecordLogWrite(rec LogWriteRecord) error {
	for _, s := range m.Sinks {
		if r, ok := s.(LogWriteRecorder); ok {
			if err := r.RecordLogWrite(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordUnknownCategory forwards rejected labels when supported by the sink.
func (m *MultiSink) RecordUnknownCategory(rec UnknownCategoryRecord) error {
	for _, s := range m.Sinks {
		if r, ok := s.(UnknownCategoryRecorder); ok {
			if err := r.RecordUnknownCategory(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordQueueDepth forwards the queue depth when supported by the sink.
func (m *MultiSink) RecordQueueDepth(depth int) error {
	for _, s := range m.Sinks {
		if r, ok := s.(QueueDepthRecorder); ok {
			if err := r.RecordQueueDepth(depth); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes every sink that holds resources.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if c, ok := s.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
