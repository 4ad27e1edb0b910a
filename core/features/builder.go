// Package features assembles the numeric vector consumed by the estimator.
package features

import (
	"fmt"

	"github.com/kilianp07/deliveryeta/core/encoding"
	"github.com/kilianp07/deliveryeta/core/model"
)

// Size is the number of values in a feature vector.
const Size = 14

// Vector is an ordered feature vector. Position i holds the feature named
// Names()[i].
type Vector []float64

// Encoder resolves categorical labels to trained codes.
type Encoder interface {
	Encode(feature, label string) (int, error)
}

// EncodingError wraps the first categorical encoding failure of a build.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string { return "encode features: " + e.Err.Error() }

func (e *EncodingError) Unwrap() error { return e.Err }

// field describes one vector position. Exactly one of numeric or label is set.
type field struct {
	name    string
	numeric func(*model.PredictionRequest) float64
	label   func(*model.PredictionRequest) string
}

// order is the canonical vector layout the estimator was trained on.
// Changing it silently breaks every prediction.
var order = [Size]field{
	{name: encoding.TrafficLevel, label: func(r *model.PredictionRequest) string { return r.TrafficLevel }},
	{name: "delivery_person_age", numeric: func(r *model.PredictionRequest) float64 { return float64(r.DeliveryPersonAge) }},
	{name: "delivery_person_ratings", numeric: func(r *model.PredictionRequest) float64 { return r.DeliveryPersonRatings }},
	{name: "po_latitude", numeric: func(r *model.PredictionRequest) float64 { return r.POLatitude }},
	{name: "po_longitude", numeric: func(r *model.PredictionRequest) float64 { return r.POLongitude }},
	{name: "delivery_location_latitude", numeric: func(r *model.PredictionRequest) float64 { return r.DeliveryLocationLatitude }},
	{name: "delivery_location_longitude", numeric: func(r *model.PredictionRequest) float64 { return r.DeliveryLocationLongitude }},
	{name: "temperature", numeric: func(r *model.PredictionRequest) float64 { return r.Temperature }},
	{name: "humidity", numeric: func(r *model.PredictionRequest) float64 { return r.Humidity }},
	{name: "precipitation", numeric: func(r *model.PredictionRequest) float64 { return r.Precipitation }},
	{name: "distance", numeric: func(r *model.PredictionRequest) float64 { return r.Distance }},
	{name: encoding.WeatherDescription, label: func(r *model.PredictionRequest) string { return r.WeatherDescription }},
	{name: encoding.TypeOfPackage, label: func(r *model.PredictionRequest) string { return r.TypeOfPackage }},
	{name: encoding.TypeOfVehicle, label: func(r *model.PredictionRequest) string { return r.TypeOfVehicle }},
}

// Names returns the feature names in vector order.
func Names() []string {
	names := make([]string, Size)
	for i, f := range order {
		names[i] = f.name
	}
	return names
}

// Build encodes req into a Vector. Numeric fields are copied unchanged.
// On the first encoding failure no vector is returned.
func Build(req model.PredictionRequest, enc Encoder) (Vector, error) {
	if enc == nil {
		return nil, &EncodingError{Err: fmt.Errorf("no encoder set")}
	}
	v := make(Vector, Size)
	for i, f := range order {
		if f.label == nil {
			v[i] = f.numeric(&req)
			continue
		}
		code, err := enc.Encode(f.name, f.label(&req))
		if err != nil {
			return nil, &EncodingError{Err: err}
		}
		v[i] = float64(code)
	}
	return v, nil
}
