package delivery

import (
	"context"
	"fmt"
	"time"

	coredelivery "github.com/kilianp07/deliveryeta/core/delivery"
	"github.com/kilianp07/deliveryeta/core/factory"
)

var registry = factory.NewRegistry[coredelivery.Repository]()

func init() {
	_ = registry.Register("sqlite", func(conf map[string]any) (coredelivery.Repository, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, fmt.Errorf("sqlite deliveries: path is required")
		}
		return NewSQLiteRepository(c.Path)
	})
	_ = registry.Register("postgres", func(conf map[string]any) (coredelivery.Repository, error) {
		var c struct {
			DSN string `json:"dsn"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.DSN == "" {
			return nil, fmt.Errorf("postgres deliveries: dsn is required")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return NewPostgresRepository(ctx, c.DSN)
	})
}

// Open builds the repository described by cfg.
func Open(cfg factory.ModuleConfig) (coredelivery.Repository, error) {
	return registry.Create(cfg)
}

// Types lists the registered repository types.
func Types() []string { return registry.Types() }
