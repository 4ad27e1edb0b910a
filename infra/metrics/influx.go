package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/deliveryeta/core/metrics"
	"github.com/kilianp07/deliveryeta/infra/logger"
)

// InfluxConfig locates the InfluxDB bucket receiving prediction points.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes prediction events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordPrediction writes one prediction_event point.
func (s *InfluxSink) RecordPrediction(rec coremetrics.PredictionRecord) error {
	p := write.NewPointWithMeasurement("prediction_event").
		AddTag("model_version", rec.ModelVersion).
		AddTag("outcome", rec.Outcome).
		AddField("latency_ms", round3(float64(rec.Latency)/float64(time.Millisecond)))
	if rec.Outcome == "ok" {
		p = p.AddField("predicted_delivery_time", round3(rec.Predicted))
	}
	return s.write(p.SetTime(rec.Time))
}

// RecordLogWrite writes the result of a prediction log write.
func (s *InfluxSink) RecordLogWrite(rec coremetrics.LogWriteRecord) error {
	p := write.NewPointWithMeasurement("prediction_log_write").
		AddTag("succeeded", strconv.FormatBool(rec.Succeeded)).
		AddField("entry_id", rec.EntryID).
		SetTime(rec.Time)
	return s.write(p)
}

// RecordUnknownCategory writes a rejected label.
func (s *InfluxSink) RecordUnknownCategory(rec coremetrics.UnknownCategoryRecord) error {
	p := write.NewPointWithMeasurement("unknown_category").
		AddTag("feature", rec.Feature).
		AddField("label", rec.Label).
		SetTime(rec.Time)
	return s.write(p)
}

// Close releases the client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
