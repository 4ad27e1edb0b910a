package prediction

import (
	"context"
	"fmt"

	"github.com/kilianp07/deliveryeta/core/features"
)

// TimeEstimator returns a delivery duration estimate for a feature vector.
// Implementations must be safe for concurrent use and deterministic for a
// given loaded artifact.
type TimeEstimator interface {
	Predict(ctx context.Context, v features.Vector) (float64, error)
}

// EstimationError reports a vector the loaded artifact cannot evaluate. It
// points at an artifact/encoder version mismatch rather than a bad request.
type EstimationError struct {
	Want int
	Got  int
	Err  error
}

func (e *EstimationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("estimation failed: %v", e.Err)
	}
	return fmt.Sprintf("estimation failed: expected %d features, got %d", e.Want, e.Got)
}

func (e *EstimationError) Unwrap() error { return e.Err }

// CheckShape returns an EstimationError when v does not have want elements.
func CheckShape(v features.Vector, want int) error {
	if len(v) != want {
		return &EstimationError{Want: want, Got: len(v)}
	}
	return nil
}
