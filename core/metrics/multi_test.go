package metrics

import "testing"

type recordSink struct {
	count int
}

func (r *recordSink) RecordPrediction(PredictionRecord) error {
	r.count++
	return nil
}

func (r *recordSink) RecordLogWrite(LogWriteRecord) error {
	r.count++
	return nil
}

// predictionOnly does not implement any optional recorder.
type predictionOnly struct{ count int }

func (p *predictionOnly) RecordPrediction(PredictionRecord) error {
	p.count++
	return nil
}

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	p := &predictionOnly{}
	m := NewMultiSink(s1, s2, p)
	if err := m.RecordPrediction(PredictionRecord{Outcome: "ok"}); err != nil {
		t.Fatalf("record prediction: %v", err)
	}
	if err := m.RecordLogWrite(LogWriteRecord{Succeeded: true}); err != nil {
		t.Fatalf("record log write: %v", err)
	}
	if err := m.RecordQueueDepth(3); err != nil {
		t.Fatalf("record depth: %v", err)
	}
	if s1.count != 2 || s2.count != 2 {
		t.Fatalf("records not forwarded")
	}
	if p.count != 1 {
		t.Fatalf("expected prediction only sink to see 1 record, got %d", p.count)
	}
}

type closingSink struct {
	predictionOnly
	closed bool
}

func (c *closingSink) Close() error {
	c.closed = true
	return nil
}

func TestMultiSink_Close(t *testing.T) {
	c := &closingSink{}
	m := NewMultiSink(&predictionOnly{}, c)
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !c.closed {
		t.Fatal("closer sink not closed")
	}
}
