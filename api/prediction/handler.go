// Package prediction serves POST /predict.
package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/kilianp07/deliveryeta/api/internal/respond"
	"github.com/kilianp07/deliveryeta/core/encoding"
	"github.com/kilianp07/deliveryeta/core/logger"
	"github.com/kilianp07/deliveryeta/core/model"
	"github.com/kilianp07/deliveryeta/core/service"
)

const maxBody = 1 << 20

// Predictor is satisfied by *service.Service.
type Predictor interface {
	PredictAndLog(ctx context.Context, req model.PredictionRequest) (service.Result, error)
}

// ValidationError reports a malformed request body.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// Decode parses body into a PredictionRequest. Every field must be present
// and non-null; unknown fields are rejected.
func Decode(body []byte) (model.PredictionRequest, error) {
	var req model.PredictionRequest
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return req, &ValidationError{Msg: "invalid JSON body"}
	}
	for _, f := range model.RequestFields {
		v, ok := raw[f]
		if !ok {
			return req, &ValidationError{Field: f, Msg: "field required"}
		}
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return req, &ValidationError{Field: f, Msg: "must not be null"}
		}
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var ute *json.UnmarshalTypeError
		if errors.As(err, &ute) {
			return req, &ValidationError{Field: ute.Field, Msg: "expected " + ute.Type.String()}
		}
		return req, &ValidationError{Msg: err.Error()}
	}
	return req, nil
}

type errorBody struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Feature string `json:"feature,omitempty"`
	Label   string `json:"label,omitempty"`
}

// NewHandler returns the POST /predict handler.
func NewHandler(p Predictor, log logger.Logger) http.Handler {
	if log == nil {
		log = logger.Nop{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(http.MaxBytesReader(w, r.Body, maxBody)); err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				respond.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			respond.Error(w, http.StatusBadRequest, "read body")
			return
		}
		req, err := Decode(buf.Bytes())
		if err != nil {
			var ve *ValidationError
			errors.As(err, &ve)
			respond.JSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Field: ve.Field})
			return
		}

		res, err := p.PredictAndLog(r.Context(), req)
		switch {
		case err == nil:
			respond.JSON(w, http.StatusOK, res)
		case service.IsClientError(err):
			body := errorBody{Error: err.Error()}
			var uce *encoding.UnknownCategoryError
			if errors.As(err, &uce) {
				body.Error = uce.Error()
				body.Feature = uce.Feature
				body.Label = uce.Label
			}
			respond.JSON(w, http.StatusBadRequest, body)
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			log.Debugf("prediction aborted: %v", err)
			respond.Error(w, http.StatusServiceUnavailable, "request canceled")
		default:
			respond.Error(w, http.StatusInternalServerError, "internal error")
		}
	})
}
