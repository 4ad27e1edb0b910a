package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SeedOptions sizes a seeding run.
type SeedOptions struct {
	Offices    int
	People     int
	Packages   int
	Deliveries int
}

// DefaultSeed matches the seed-and-spam endpoint.
var DefaultSeed = SeedOptions{Offices: 5, People: 20, Packages: 50, Deliveries: 1000}

// SeedResult reports what a seeding run wrote.
type SeedResult struct {
	ReferenceSeeded bool `json:"reference_seeded"`
	Deliveries      int  `json:"deliveries"`
}

// Seed inserts reference data when the repository has none, then adds
// opts.Deliveries synthetic deliveries.
func Seed(ctx context.Context, repo Repository, gen *Generator, opts SeedOptions) (SeedResult, error) {
	var res SeedResult
	ref, err := repo.Reference(ctx)
	if err != nil {
		return res, fmt.Errorf("load reference: %w", err)
	}
	if len(ref.DeliveryPersons) == 0 || len(ref.Packages) == 0 || len(ref.PostOffices) == 0 {
		ref = gen.Reference(opts.Offices, opts.People, opts.Packages)
		if err := repo.SeedReference(ctx, &ref); err != nil {
			return res, fmt.Errorf("seed reference: %w", err)
		}
		res.ReferenceSeeded = true
	}
	if opts.Deliveries <= 0 {
		return res, nil
	}
	ds, err := gen.Deliveries(ref, opts.Deliveries)
	if err != nil {
		return res, err
	}
	n, err := repo.Insert(ctx, ds)
	if err != nil {
		return res, fmt.Errorf("insert deliveries: %w", err)
	}
	res.Deliveries = n
	return res, nil
}

// LookupResult is the outcome of a timed traffic-level lookup.
type LookupResult struct {
	Count        int     `json:"count"`
	TimeTakenSec float64 `json:"time_taken_sec"`
}

// Lookup lists deliveries with the given traffic level using mode and
// reports how long the query took, rounded to 4 decimals. ScanIndexed
// creates the index first, outside the timed section.
func Lookup(ctx context.Context, repo Repository, level string, mode ScanMode) (LookupResult, error) {
	if level == "" {
		return LookupResult{}, fmt.Errorf("traffic level is required")
	}
	if mode == ScanIndexed {
		if err := repo.EnsureTrafficIndex(ctx); err != nil {
			return LookupResult{}, fmt.Errorf("ensure index: %w", err)
		}
	}
	start := time.Now()
	ds, err := repo.List(ctx, Filter{TrafficLevel: level, Mode: mode})
	if err != nil {
		return LookupResult{}, err
	}
	took := time.Since(start)
	secs, _ := decimal.NewFromFloat(took.Seconds()).Round(4).Float64()
	return LookupResult{Count: len(ds), TimeTakenSec: secs}, nil
}
