package model

// PostOffice is a dispatch location.
type PostOffice struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Vehicle is a delivery vehicle type.
type Vehicle struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// DeliveryPerson is a courier.
type DeliveryPerson struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Age       int     `json:"age"`
	Rating    float64 `json:"rating"`
	VehicleID int64   `json:"vehicle_id"`
}

// Customer receives packages.
type Customer struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Package is a shipped item.
type Package struct {
	ID         int64   `json:"id"`
	Type       string  `json:"type"`
	Weight     float64 `json:"weight"`
	CustomerID int64   `json:"customer_id"`
}

// ReferenceData groups the entities deliveries point to.
type ReferenceData struct {
	PostOffices     []PostOffice     `json:"post_offices"`
	Vehicles        []Vehicle        `json:"vehicles"`
	DeliveryPersons []DeliveryPerson `json:"delivery_persons"`
	Customers       []Customer       `json:"customers"`
	Packages        []Package        `json:"packages"`
}
