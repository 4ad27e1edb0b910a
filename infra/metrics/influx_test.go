package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/deliveryeta/core/metrics"
)

func lineServer(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var (
		mu     sync.Mutex
		bodies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, strings.TrimSpace(string(b)))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), bodies...)
	}
}

func TestInfluxSink_RecordPrediction(t *testing.T) {
	srv, bodies := lineServer(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()

	now := time.Now()
	rec := coremetrics.PredictionRecord{
		ModelVersion: "v1",
		Outcome:      "ok",
		Predicted:    7.3861,
		Latency:      1500 * time.Microsecond,
		Time:         now,
	}
	if err := sink.RecordPrediction(rec); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("prediction_event").
		AddTag("model_version", "v1").
		AddTag("outcome", "ok").
		AddField("latency_ms", 1.5).
		AddField("predicted_delivery_time", 7.386).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	got := bodies()
	if len(got) != 1 || got[0] != expected {
		t.Errorf("unexpected bodies: %#v", got)
	}
}

func TestInfluxSink_RecordPredictionError(t *testing.T) {
	srv, bodies := lineServer(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()

	now := time.Now()
	if err := sink.RecordPrediction(coremetrics.PredictionRecord{ModelVersion: "v1", Outcome: "client_error", Time: now}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	got := bodies()
	if len(got) != 1 || strings.Contains(got[0], "predicted_delivery_time") {
		t.Errorf("unexpected bodies: %#v", got)
	}
}

func TestInfluxSink_RecordUnknownCategoryAndLogWrite(t *testing.T) {
	srv, bodies := lineServer(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()

	now := time.Now()
	if err := sink.RecordUnknownCategory(coremetrics.UnknownCategoryRecord{Feature: "type_of_vehicle", Label: "Hovercraft", Time: now}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := sink.RecordLogWrite(coremetrics.LogWriteRecord{EntryID: "e1", Succeeded: false, Time: now}); err != nil {
		t.Fatalf("record: %v", err)
	}
	p1 := write.NewPointWithMeasurement("unknown_category").
		AddTag("feature", "type_of_vehicle").
		AddField("label", "Hovercraft").
		SetTime(now)
	p2 := write.NewPointWithMeasurement("prediction_log_write").
		AddTag("succeeded", "false").
		AddField("entry_id", "e1").
		SetTime(now)
	exp := []string{
		strings.TrimSpace(write.PointToLineProtocol(p1, time.Nanosecond)),
		strings.TrimSpace(write.PointToLineProtocol(p2, time.Nanosecond)),
	}
	got := bodies()
	if len(got) != 2 || got[0] != exp[0] || got[1] != exp[1] {
		t.Errorf("bodies: %#v", got)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
