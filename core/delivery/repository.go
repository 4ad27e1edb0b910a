package delivery

import (
	"context"
	"fmt"

	"github.com/kilianp07/deliveryeta/core/model"
)

// ScanMode selects how a traffic-level lookup reads the deliveries table.
type ScanMode string

const (
	// ScanDefault lets the database choose a plan.
	ScanDefault ScanMode = ""
	// ScanIndexed forces the traffic_level index.
	ScanIndexed ScanMode = "with-index"
	// ScanFull forbids index use.
	ScanFull ScanMode = "no-index"
)

// ParseScanMode validates a mode string.
func ParseScanMode(s string) (ScanMode, error) {
	switch m := ScanMode(s); m {
	case ScanDefault, ScanIndexed, ScanFull:
		return m, nil
	default:
		return "", fmt.Errorf("unknown scan mode %q", s)
	}
}

// Filter restricts List results. Zero values disable a filter.
type Filter struct {
	TrafficLevel string
	Mode         ScanMode
	Limit        int
}

// Repository stores deliveries and their reference entities.
type Repository interface {
	// SeedReference inserts reference entities and assigns their IDs.
	SeedReference(ctx context.Context, ref *model.ReferenceData) error
	// Reference loads all reference entities.
	Reference(ctx context.Context) (model.ReferenceData, error)
	// Insert stores deliveries and returns how many were written.
	Insert(ctx context.Context, ds []model.Delivery) (int, error)
	List(ctx context.Context, f Filter) ([]model.Delivery, error)
	// EnsureTrafficIndex creates the traffic_level index if missing.
	EnsureTrafficIndex(ctx context.Context) error
	Close() error
}
