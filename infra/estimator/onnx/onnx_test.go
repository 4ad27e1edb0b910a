package onnx

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/kilianp07/deliveryeta/core/features"
	"github.com/kilianp07/deliveryeta/core/prediction"
)

// Set ETA_TEST_ONNX_MODEL and ETA_TEST_ONNX_LIB to run these tests against a
// real exported model.
func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := Config{ModelPath: os.Getenv("ETA_TEST_ONNX_MODEL"), LibraryPath: os.Getenv("ETA_TEST_ONNX_LIB")}
	if cfg.ModelPath == "" {
		t.Skip("ETA_TEST_ONNX_MODEL not set")
	}
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		t.Skip("model file not found")
	}
	return cfg
}

func TestONNXEstimator(t *testing.T) {
	e, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("failed to load ONNX model: %v", err)
	}
	defer func() { _ = e.Close() }()

	v := make(features.Vector, features.Size)
	v[10] = 5
	a, err := e.Predict(context.Background(), v)
	if err != nil {
		t.Fatalf("inference failed: %v", err)
	}
	b, err := e.Predict(context.Background(), v)
	if err != nil {
		t.Fatalf("inference failed: %v", err)
	}
	if a != b {
		t.Fatalf("expected deterministic output, got %v and %v", a, b)
	}
	t.Logf("prediction: %v", a)
}

func TestONNXEstimatorShapeMismatch(t *testing.T) {
	e := &Estimator{}
	_, err := e.Predict(context.Background(), make(features.Vector, 3))
	var ee *prediction.EstimationError
	if !errors.As(err, &ee) {
		t.Fatalf("expected EstimationError, got %v", err)
	}
}
