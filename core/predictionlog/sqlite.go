package predictionlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists entries to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS prediction_logs (
        id TEXT PRIMARY KEY,
        features_json TEXT NOT NULL,
        predicted_time REAL NOT NULL,
        model_version TEXT NOT NULL DEFAULT '',
        created_at INTEGER NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_prediction_logs_created_at ON prediction_logs(created_at);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the entry to the database.
func (s *SQLiteStore) Append(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO prediction_logs (id, features_json, predicted_time, model_version, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, string(e.RawRequestSnapshot), e.PredictedTime, e.ModelVersion, e.CreatedAt.UnixNano())
	return err
}

// Query returns entries matching q ordered by creation time.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]Entry, error) {
	var args []any
	query := `SELECT id, features_json, predicted_time, model_version, created_at FROM prediction_logs WHERE 1=1`
	if !q.Start.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		query += ` AND created_at <= ?`
		args = append(args, q.End.UnixNano())
	}
	if q.ModelVersion != "" {
		query += ` AND model_version = ?`
		args = append(args, q.ModelVersion)
	}
	query += ` ORDER BY created_at`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Entry
	for rows.Next() {
		var (
			e    Entry
			snap string
			ts   int64
		)
		if err := rows.Scan(&e.ID, &snap, &e.PredictedTime, &e.ModelVersion, &ts); err != nil {
			return nil, err
		}
		e.RawRequestSnapshot = []byte(snap)
		e.CreatedAt = time.Unix(0, ts).UTC()
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
