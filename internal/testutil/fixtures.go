// Package testutil provides helpers shared across package tests.
//
// SampleRequest and Encoders build the canonical in-vocabulary fixture.
//
// WaitForMetric polls a Prometheus metrics endpoint until the desired metric
// appears in the output.
//
// StartMosquitto, StartPostgres and StartRedis launch disposable brokers and
// databases in Docker containers for integration tests.
package testutil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/kilianp07/deliveryeta/core/encoding"
	"github.com/kilianp07/deliveryeta/core/model"
)

const (
	// Default timeouts for helper operations
	ContainerReadyTimeout = 30 * time.Second
	MetricTimeout         = 5 * time.Second

	pollInterval = 50 * time.Millisecond
)

// ArtifactVersion is the version stamped on fixture artifacts.
const ArtifactVersion = "test-v1"

// Vocabulary returns the fixture vocabulary, labels in code order.
func Vocabulary() map[string][]string {
	return map[string][]string{
		encoding.TrafficLevel:       {"High", "Jam", "Low", "Medium"},
		encoding.WeatherDescription: {"clear sky", "fog", "mist", "overcast clouds"},
		encoding.TypeOfPackage:      {"Clothing", "Documents", "Electronics", "Food"},
		encoding.TypeOfVehicle:      {"Bike", "Car", "Scooter", "Van"},
	}
}

// Encoders builds the fixture encoder set.
func Encoders(t testing.TB) *encoding.Set {
	t.Helper()
	s, err := encoding.NewSet(ArtifactVersion, Vocabulary())
	if err != nil {
		t.Fatalf("encoder set: %v", err)
	}
	return s
}

// SampleRequest returns a request whose categorical fields are all known.
func SampleRequest() model.PredictionRequest {
	return model.PredictionRequest{
		TrafficLevel:              "Low",
		DeliveryPersonID:          7,
		WeatherDescription:        "clear sky",
		TypeOfPackage:             "Documents",
		TypeOfVehicle:             "Bike",
		DeliveryPersonAge:         30,
		DeliveryPersonRatings:     4.5,
		POLatitude:                10.0,
		POLongitude:               20.0,
		DeliveryLocationLatitude:  10.5,
		DeliveryLocationLongitude: 20.5,
		Temperature:               28.0,
		Humidity:                  60.0,
		Precipitation:             0.0,
		Distance:                  5.0,
	}
}

// WaitForMetric polls the given metrics URL until the provided substring is
// found in the output or the context is done.
func WaitForMetric(ctx context.Context, metricsURL, substr string) error {
	for {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, metricsURL, nil)
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			body, rerr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if rerr != nil {
				return fmt.Errorf("read metrics body: %w", rerr)
			}
			if strings.Contains(string(body), substr) {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("metric %q not found: %w", substr, ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}
