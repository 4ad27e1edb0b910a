package predictionlog

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	corelog "github.com/kilianp07/deliveryeta/core/predictionlog"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS prediction_logs (
	id TEXT PRIMARY KEY,
	features_json JSONB NOT NULL,
	predicted_time DOUBLE PRECISION NOT NULL,
	model_version TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_prediction_logs_created_at ON prediction_logs (created_at);`

// PostgresStore persists entries to PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn and ensures the schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Append inserts the entry.
func (s *PostgresStore) Append(ctx context.Context, e corelog.Entry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO prediction_logs (id, features_json, predicted_time, model_version, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		e.ID, string(e.RawRequestSnapshot), e.PredictedTime, e.ModelVersion, e.CreatedAt)
	return err
}

// AppendBatch inserts all entries in one round trip.
func (s *PostgresStore) AppendBatch(ctx context.Context, entries []corelog.Entry) error {
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`INSERT INTO prediction_logs (id, features_json, predicted_time, model_version, created_at)
			VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`,
			e.ID, string(e.RawRequestSnapshot), e.PredictedTime, e.ModelVersion, e.CreatedAt)
	}
	return s.pool.SendBatch(ctx, batch).Close()
}

// Query returns entries matching q ordered by creation time.
func (s *PostgresStore) Query(ctx context.Context, q corelog.Query) ([]corelog.Entry, error) {
	// features_json is read as text so the snapshot keeps its bytes.
	query, args := buildSelect("id, features_json::text, predicted_time, model_version, created_at", "prediction_logs", q,
		func(n int) string { return "$" + strconv.Itoa(n) },
		func(t time.Time) any { return t })
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
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
func (s *PostgresStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
