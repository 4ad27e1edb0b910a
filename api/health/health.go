// Package health serves GET /healthz.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/kilianp07/deliveryeta/api/internal/respond"
)

// Check probes a dependency. A nil error means healthy.
type Check func(ctx context.Context) error

// Status is the health response body.
type Status struct {
	Status       string            `json:"status"`
	ModelVersion string            `json:"model_version"`
	Checks       map[string]string `json:"checks,omitempty"`
}

// NewHandler reports the loaded model version and the result of each check.
// Any failing check turns the response into 503.
func NewHandler(modelVersion string, checks map[string]Check) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		st := Status{Status: "ok", ModelVersion: modelVersion}
		code := http.StatusOK
		if len(checks) > 0 {
			st.Checks = make(map[string]string, len(checks))
		}
		for name, c := range checks {
			if err := c(ctx); err != nil {
				st.Checks[name] = err.Error()
				st.Status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			st.Checks[name] = "ok"
		}
		respond.JSON(w, code, st)
	})
}
