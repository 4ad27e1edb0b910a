package model

// PredictionRequest carries the raw context of a delivery whose completion
// time should be estimated. Every field is required.
type PredictionRequest struct {
	TrafficLevel              string  `json:"traffic_level"`
	DeliveryPersonID          int     `json:"delivery_person_id"`
	WeatherDescription        string  `json:"weather_description"`
	TypeOfPackage             string  `json:"type_of_package"`
	TypeOfVehicle             string  `json:"type_of_vehicle"`
	DeliveryPersonAge         int     `json:"delivery_person_age"`
	DeliveryPersonRatings     float64 `json:"delivery_person_ratings"`
	POLatitude                float64 `json:"po_latitude"`
	POLongitude               float64 `json:"po_longitude"`
	DeliveryLocationLatitude  float64 `json:"delivery_location_latitude"`
	DeliveryLocationLongitude float64 `json:"delivery_location_longitude"`
	Temperature               float64 `json:"temperature"`
	Humidity                  float64 `json:"humidity"`
	Precipitation             float64 `json:"precipitation"`
	Distance                  float64 `json:"distance"`
}

// RequestFields lists the JSON keys of PredictionRequest. Request validation
// uses it to reject payloads with missing fields.
var RequestFields = []string{
	"traffic_level",
	"delivery_person_id",
	"weather_description",
	"type_of_package",
	"type_of_vehicle",
	"delivery_person_age",
	"delivery_person_ratings",
	"po_latitude",
	"po_longitude",
	"delivery_location_latitude",
	"delivery_location_longitude",
	"temperature",
	"humidity",
	"precipitation",
	"distance",
}
