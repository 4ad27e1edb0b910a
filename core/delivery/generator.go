package delivery

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/kilianp07/deliveryeta/core/encoding"
	"github.com/kilianp07/deliveryeta/core/model"
)

// Value ranges used for synthetic data.
var (
	TrafficLevels       = []string{model.TrafficLow, model.TrafficMedium, model.TrafficHigh}
	WeatherDescriptions = []string{"overcast clouds", "clear sky", "mist"}
	PackageTypes        = []string{"Documents", "Electronics", "Clothing", "Food"}
	VehicleTypes        = []string{"Bike", "Scooter", "Car", "Van"}
)

var firstNames = []string{"Ana", "Bilal", "Chloe", "Dmitri", "Emeka", "Fatima", "Goran", "Hana", "Ivo", "Jun"}
var lastNames = []string{"Alvarez", "Bauer", "Chen", "Diallo", "Eriksen", "Fontaine", "Gupta", "Haddad"}

// Generator produces deterministic synthetic records for a seed.
type Generator struct {
	rnd *rand.Rand
	now func() time.Time
}

// NewGenerator returns a Generator seeded with seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), now: time.Now}
}

func (g *Generator) uniform(lo, hi float64) float64 { return lo + g.rnd.Float64()*(hi-lo) }

func (g *Generator) pick(xs []string) string { return xs[g.rnd.IntN(len(xs))] }

func (g *Generator) name() string { return g.pick(firstNames) + " " + g.pick(lastNames) }

// Reference builds reference entities without IDs. offices, people and
// packages set the entity counts.
func (g *Generator) Reference(offices, people, packages int) model.ReferenceData {
	var ref model.ReferenceData
	for _, t := range VehicleTypes {
		ref.Vehicles = append(ref.Vehicles, model.Vehicle{Type: t})
	}
	for i := 0; i < offices; i++ {
		ref.PostOffices = append(ref.PostOffices, model.PostOffice{
			Name:      fmt.Sprintf("Post Office %d", i+1),
			Latitude:  g.uniform(-60, 60),
			Longitude: g.uniform(-150, 150),
		})
	}
	for i := 0; i < people; i++ {
		ref.DeliveryPersons = append(ref.DeliveryPersons, model.DeliveryPerson{
			Name:   g.name(),
			Age:    20 + g.rnd.IntN(30),
			Rating: float64(25+g.rnd.IntN(26)) / 10,
		})
	}
	for i := 0; i < packages; i++ {
		ref.Customers = append(ref.Customers, model.Customer{
			Name:      g.name(),
			Latitude:  g.uniform(-60, 60),
			Longitude: g.uniform(-150, 150),
		})
		ref.Packages = append(ref.Packages, model.Package{
			Type:   g.pick(PackageTypes),
			Weight: g.uniform(0.1, 20),
		})
	}
	return ref
}

// Deliveries produces n deliveries pointing at entities of ref, which must
// carry IDs.
func (g *Generator) Deliveries(ref model.ReferenceData, n int) ([]model.Delivery, error) {
	if len(ref.DeliveryPersons) == 0 || len(ref.Packages) == 0 || len(ref.PostOffices) == 0 {
		return nil, fmt.Errorf("reference data is empty; seed it first")
	}
	now := g.now().UTC()
	out := make([]model.Delivery, n)
	for i := range out {
		out[i] = model.Delivery{
			DeliveryPersonID:   ref.DeliveryPersons[g.rnd.IntN(len(ref.DeliveryPersons))].ID,
			PackageID:          ref.Packages[g.rnd.IntN(len(ref.Packages))].ID,
			PostOfficeID:       ref.PostOffices[g.rnd.IntN(len(ref.PostOffices))].ID,
			TrafficLevel:       g.pick(TrafficLevels),
			WeatherDescription: g.pick(WeatherDescriptions),
			Temperature:        g.uniform(20, 40),
			Humidity:           g.uniform(30, 90),
			Precipitation:      g.uniform(0, 10),
			Distance:           g.uniform(1, 50),
			DeliveryTime:       g.uniform(0.5, 10),
			DeliveredAt:        now,
		}
	}
	return out, nil
}

// Request produces a prediction request using labels from the vocab of
// each categorical feature. A nil vocab falls back to the synthetic ranges.
func (g *Generator) Request(vocab func(feature string) []string) model.PredictionRequest {
	labels := func(feature string, fallback []string) []string {
		if vocab != nil {
			if v := vocab(feature); len(v) > 0 {
				return v
			}
		}
		return fallback
	}
	poLat, poLon := g.uniform(-60, 60), g.uniform(-150, 150)
	return model.PredictionRequest{
		TrafficLevel:              g.pick(labels(encoding.TrafficLevel, TrafficLevels)),
		DeliveryPersonID:          1 + g.rnd.IntN(500),
		WeatherDescription:        g.pick(labels(encoding.WeatherDescription, WeatherDescriptions)),
		TypeOfPackage:             g.pick(labels(encoding.TypeOfPackage, PackageTypes)),
		TypeOfVehicle:             g.pick(labels(encoding.TypeOfVehicle, VehicleTypes)),
		DeliveryPersonAge:         20 + g.rnd.IntN(30),
		DeliveryPersonRatings:     float64(25+g.rnd.IntN(26)) / 10,
		POLatitude:                poLat,
		POLongitude:               poLon,
		DeliveryLocationLatitude:  poLat + g.uniform(-0.3, 0.3),
		DeliveryLocationLongitude: poLon + g.uniform(-0.3, 0.3),
		Temperature:               g.uniform(20, 40),
		Humidity:                  g.uniform(30, 90),
		Precipitation:             g.uniform(0, 10),
		Distance:                  g.uniform(1, 50),
	}
}
