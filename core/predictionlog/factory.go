package predictionlog

import (
	"context"
	"fmt"

	"github.com/kilianp07/deliveryeta/core/factory"
)

var storeRegistry = factory.NewRegistry[Store]()

// RegisterStore adds a store factory identified by name.
func RegisterStore(name string, f factory.Factory[Store]) error {
	return storeRegistry.Register(name, f)
}

// NewStore creates a Store from its module configuration.
func NewStore(cfg factory.ModuleConfig) (Store, error) {
	return storeRegistry.Create(cfg)
}

// StoreTypes lists the registered store types.
func StoreTypes() []string { return storeRegistry.Types() }

// HasStore reports whether name is a registered store type.
func HasStore(name string) bool { return storeRegistry.Has(name) }

func init() {
	_ = RegisterStore("memory", func(map[string]any) (Store, error) {
		return NewMemoryStore(), nil
	})
	_ = RegisterStore("jsonl", func(conf map[string]any) (Store, error) {
		var c struct {
			Path       string `json:"path"`
			MaxSizeMB  int    `json:"max_size_mb"`
			MaxBackups int    `json:"max_backups"`
			MaxAgeDays int    `json:"max_age_days"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, fmt.Errorf("jsonl store: path is required")
		}
		if c.MaxSizeMB > 0 {
			return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
		}
		return NewJSONLStore(c.Path)
	})
	_ = RegisterStore("sqlite", func(conf map[string]any) (Store, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, fmt.Errorf("sqlite store: path is required")
		}
		return NewSQLiteStore(c.Path)
	})
}

// BatchAppender is implemented by stores that insert many entries at once.
type BatchAppender interface {
	AppendBatch(ctx context.Context, entries []Entry) error
}

// Copy appends every entry of src matching q to dst and returns the count.
// Stores implementing BatchAppender receive all entries in one call.
func Copy(ctx context.Context, src Store, dst Appender, q Query) (int, error) {
	entries, err := src.Query(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("read source: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}
	if b, ok := dst.(BatchAppender); ok {
		if err := b.AppendBatch(ctx, entries); err != nil {
			return 0, err
		}
		return len(entries), nil
	}
	for i, e := range entries {
		if err := dst.Append(ctx, e); err != nil {
			return i, err
		}
	}
	return len(entries), nil
}
