package service

import (
	"errors"

	"github.com/kilianp07/deliveryeta/core/encoding"
	"github.com/kilianp07/deliveryeta/core/prediction"
)

// Artifacts bundles the co-versioned encoder set and estimator loaded at
// startup. It is immutable and shared by all requests.
type Artifacts struct {
	Version   string
	Encoders  *encoding.Set
	Estimator prediction.TimeEstimator
}

// Validate checks that both artifacts are present.
func (a Artifacts) Validate() error {
	if a.Encoders == nil {
		return errors.New("artifacts: encoder set is required")
	}
	if a.Estimator == nil {
		return errors.New("artifacts: estimator is required")
	}
	return nil
}
