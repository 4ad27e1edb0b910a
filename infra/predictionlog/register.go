package predictionlog

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/deliveryeta/core/factory"
	corelog "github.com/kilianp07/deliveryeta/core/predictionlog"
)

const connectTimeout = 10 * time.Second

// init registers the networked stores.
func init() {
	_ = corelog.RegisterStore("postgres", func(conf map[string]any) (corelog.Store, error) {
		var c struct {
			DSN string `json:"dsn"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.DSN == "" {
			return nil, fmt.Errorf("postgres store: dsn is required")
		}
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		return NewPostgresStore(ctx, c.DSN)
	})

	_ = corelog.RegisterStore("clickhouse", func(conf map[string]any) (corelog.Store, error) {
		var c ClickHouseConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if len(c.Addr) == 0 {
			return nil, fmt.Errorf("clickhouse store: addr is required")
		}
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		return NewClickHouseStore(ctx, c)
	})
}
