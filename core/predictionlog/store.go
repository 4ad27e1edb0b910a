package predictionlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/deliveryeta/core/model"
)

// Entry captures one successful prediction. Entries are append-only.
type Entry struct {
	ID                 string          `json:"id"`
	RawRequestSnapshot json.RawMessage `json:"raw_request_snapshot"`
	PredictedTime      float64         `json:"predicted_time"`
	ModelVersion       string          `json:"model_version,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

// NewEntry snapshots req as JSON and stamps the entry with a fresh ID.
// predicted is stored as computed, without rounding.
func NewEntry(req model.PredictionRequest, predicted float64, modelVersion string, createdAt time.Time) (Entry, error) {
	snap, err := json.Marshal(req)
	if err != nil {
		return Entry{}, fmt.Errorf("snapshot request: %w", err)
	}
	return Entry{
		ID:                 uuid.NewString(),
		RawRequestSnapshot: snap,
		PredictedTime:      predicted,
		ModelVersion:       modelVersion,
		CreatedAt:          createdAt.UTC(),
	}, nil
}

// Request decodes the snapshot back into a PredictionRequest.
func (e Entry) Request() (model.PredictionRequest, error) {
	var req model.PredictionRequest
	if err := json.Unmarshal(e.RawRequestSnapshot, &req); err != nil {
		return req, fmt.Errorf("decode snapshot: %w", err)
	}
	return req, nil
}

// Query defines filters for retrieving entries. Zero values disable a filter.
type Query struct {
	Start        time.Time
	End          time.Time
	ModelVersion string
	Limit        int
}

// Match reports whether e satisfies the time and version filters of q.
func (q Query) Match(e Entry) bool {
	if !q.Start.IsZero() && e.CreatedAt.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && e.CreatedAt.After(q.End) {
		return false
	}
	if q.ModelVersion != "" && e.ModelVersion != q.ModelVersion {
		return false
	}
	return true
}

// Appender persists entries.
type Appender interface {
	Append(ctx context.Context, e Entry) error
}

// Store persists entries and supports querying them back.
type Store interface {
	Appender
	Query(ctx context.Context, q Query) ([]Entry, error)
	Close() error
}

// PersistenceError reports an entry that could not be written.
type PersistenceError struct {
	EntryID  string
	Attempts int
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist prediction %s after %d attempts: %v", e.EntryID, e.Attempts, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
