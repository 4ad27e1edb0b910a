package prediction

import (
	"context"

	"github.com/kilianp07/deliveryeta/core/features"
)

// MockEstimator is a deterministic linear estimator: Bias + Σ Weights[i]*v[i].
// Missing weights count as zero. When Err is set every call fails with it.
type MockEstimator struct {
	Weights []float64
	Bias    float64
	Err     error
}

// Predict validates the vector shape and returns the linear combination.
func (m MockEstimator) Predict(ctx context.Context, v features.Vector) (float64, error) {
	_ = ctx
	if m.Err != nil {
		return 0, m.Err
	}
	if err := CheckShape(v, features.Size); err != nil {
		return 0, err
	}
	out := m.Bias
	for i, w := range m.Weights {
		if i >= len(v) {
			break
		}
		out += w * v[i]
	}
	return out, nil
}

// ConstantEstimator always returns its value for well-formed vectors.
type ConstantEstimator float64

// Predict returns the constant.
func (c ConstantEstimator) Predict(ctx context.Context, v features.Vector) (float64, error) {
	_ = ctx
	if err := CheckShape(v, features.Size); err != nil {
		return 0, err
	}
	return float64(c), nil
}
