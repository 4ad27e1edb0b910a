package prediction

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/deliveryeta/core/model"
	"github.com/kilianp07/deliveryeta/core/prediction"
	"github.com/kilianp07/deliveryeta/core/predictionlog"
	"github.com/kilianp07/deliveryeta/core/service"
	"github.com/kilianp07/deliveryeta/internal/testutil"
)

func newHandler(t *testing.T, est prediction.TimeEstimator) (http.Handler, *predictionlog.MemoryStore) {
	t.Helper()
	store := predictionlog.NewMemoryStore()
	svc, err := service.New(service.Artifacts{
		Version:   testutil.ArtifactVersion,
		Encoders:  testutil.Encoders(t),
		Estimator: est,
	}, store)
	require.NoError(t, err)
	return NewHandler(svc, nil), store
}

func sampleBody(t *testing.T, mutate func(map[string]any)) string {
	t.Helper()
	b, err := json.Marshal(testutil.SampleRequest())
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	if mutate != nil {
		mutate(m)
	}
	out, err := json.Marshal(m)
	require.NoError(t, err)
	return string(out)
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body)))
	return rr
}

func TestHandler_Success(t *testing.T) {
	h, store := newHandler(t, prediction.ConstantEstimator(7.3861))
	rr := post(h, sampleBody(t, nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"predicted_delivery_time": 7.39}`, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, 1, store.Len())
}

func TestHandler_UnknownCategory(t *testing.T) {
	h, store := newHandler(t, prediction.ConstantEstimator(1))
	rr := post(h, sampleBody(t, func(m map[string]any) { m["type_of_vehicle"] = "Hovercraft" }))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "type_of_vehicle", body["feature"])
	assert.Equal(t, "Hovercraft", body["label"])
	assert.NotEmpty(t, body["error"])
	assert.Zero(t, store.Len())
}

func TestHandler_Validation(t *testing.T) {
	h, store := newHandler(t, prediction.ConstantEstimator(1))
	cases := map[string]struct {
		body  string
		field string
	}{
		"missing field":  {sampleBody(t, func(m map[string]any) { delete(m, "distance") }), "distance"},
		"null field":     {sampleBody(t, func(m map[string]any) { m["humidity"] = nil }), "humidity"},
		"wrong type":     {sampleBody(t, func(m map[string]any) { m["delivery_person_age"] = "old" }), "delivery_person_age"},
		"fractional int": {sampleBody(t, func(m map[string]any) { m["delivery_person_id"] = 7.5 }), "delivery_person_id"},
		"unknown field":  {sampleBody(t, func(m map[string]any) { m["tip"] = 3 }), ""},
		"not json":       {"{", ""},
		"array":          {"[]", ""},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			rr := post(h, c.body)
			require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			var body map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
			assert.Equal(t, c.field, body["field"])
		})
	}
	assert.Zero(t, store.Len())
}

func TestHandler_EstimationFailure(t *testing.T) {
	h, store := newHandler(t, prediction.MockEstimator{Err: errors.New("onnx session exploded")})
	rr := post(h, sampleBody(t, nil))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rr.Body.String())
	assert.NotContains(t, rr.Body.String(), "exploded")
	assert.Zero(t, store.Len())
}

type cancelPredictor struct{}

func (cancelPredictor) PredictAndLog(context.Context, model.PredictionRequest) (service.Result, error) {
	return service.Result{}, context.Canceled
}

func TestHandler_CanceledAndMethod(t *testing.T) {
	h := NewHandler(cancelPredictor{}, nil)
	rr := post(h, sampleBody(t, nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/predict", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, http.MethodPost, rr.Header().Get("Allow"))
}

func TestHandler_BodyTooLarge(t *testing.T) {
	h := NewHandler(cancelPredictor{}, nil)
	rr := post(h, `{"pad":"`+strings.Repeat("x", maxBody)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}
