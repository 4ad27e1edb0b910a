package model

import "time"

// Traffic levels observed in historical deliveries.
const (
	TrafficLow    = "Low"
	TrafficMedium = "Medium"
	TrafficHigh   = "High"
)

// Delivery is a completed shipment with its measured delivery time.
type Delivery struct {
	ID                 int64     `json:"id"`
	DeliveryPersonID   int64     `json:"delivery_person_id"`
	PackageID          int64     `json:"package_id"`
	PostOfficeID       int64     `json:"post_office_id"`
	TrafficLevel       string    `json:"traffic_level"`
	WeatherDescription string    `json:"weather_description"`
	Temperature        float64   `json:"temperature"`
	Humidity           float64   `json:"humidity"`
	Precipitation      float64   `json:"precipitation"`
	Distance           float64   `json:"distance"`
	DeliveryTime       float64   `json:"delivery_time"`
	DeliveredAt        time.Time `json:"delivered_at"`
}
