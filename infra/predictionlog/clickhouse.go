package predictionlog

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	corelog "github.com/kilianp07/deliveryeta/core/predictionlog"
)

const clickhouseSchema = `CREATE TABLE IF NOT EXISTS prediction_logs (
	id String,
	features_json String,
	predicted_time Float64,
	model_version LowCardinality(String),
	created_at DateTime64(9, 'UTC')
) ENGINE = MergeTree
ORDER BY (created_at, id)`

// ClickHouseConfig holds connection settings.
type ClickHouseConfig struct {
	Addr     []string `json:"addr"`
	Database string   `json:"database"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	Debug    bool     `json:"debug"`
}

// ClickHouseStore writes entries to a MergeTree table for analytics.
type ClickHouseStore struct {
	conn clickhouse.Conn
}

// NewClickHouseStore connects and ensures the table exists.
func NewClickHouseStore(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseStore, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: cfg.Addr,
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}
	if err := conn.Exec(ctx, clickhouseSchema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}
	return &ClickHouseStore{conn: conn}, nil
}

// Append inserts one entry.
func (s *ClickHouseStore) Append(ctx context.Context, e corelog.Entry) error {
	return s.conn.Exec(ctx,
		`INSERT INTO prediction_logs (id, features_json, predicted_time, model_version, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, string(e.RawRequestSnapshot), e.PredictedTime, e.ModelVersion, e.CreatedAt)
}

// AppendBatch sends all entries in a single native batch.
func (s *ClickHouseStore) AppendBatch(ctx context.Context, entries []corelog.Entry) error {
	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO prediction_logs")
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	for _, e := range entries {
		if err := batch.Append(e.ID, string(e.RawRequestSnapshot), e.PredictedTime, e.ModelVersion, e.CreatedAt); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append batch: %w", err)
		}
	}
	return batch.Send()
}

// Query returns entries matching q ordered by creation time.
func (s *ClickHouseStore) Query(ctx context.Context, q corelog.Query) ([]corelog.Entry, error) {
	query, args := buildSelect(selectColumns, "prediction_logs", q,
		func(int) string { return "?" },
		func(t time.Time) any { return t.UTC() })
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []corelog.Entry
	for rows.Next() {
		var (
			e    corelog.Entry
			snap string
		)
		if err := rows.Scan(&e.ID, &snap, &e.PredictedTime, &e.ModelVersion, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.RawRequestSnapshot = []byte(snap)
		e.CreatedAt = e.CreatedAt.UTC()
		res = append(res, e)
	}
	return res, rows.Err()
}

// Ping checks connectivity.
func (s *ClickHouseStore) Ping(ctx context.Context) error { return s.conn.Ping(ctx) }

// Close closes the connection.
func (s *ClickHouseStore) Close() error { return s.conn.Close() }
