package predictionlog

import (
	"context"
	"time"
)

// Retry describes how many times an append is attempted.
type Retry struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetry tries once and retries once.
var DefaultRetry = Retry{Attempts: 2, Backoff: 50 * time.Millisecond}

// AppendWithRetry writes e to a, retrying per r. It returns a
// PersistenceError when every attempt failed.
func AppendWithRetry(ctx context.Context, a Appender, e Entry, r Retry) error {
	if r.Attempts <= 0 {
		r.Attempts = 1
	}
	var err error
	for attempt := 1; attempt <= r.Attempts; attempt++ {
		if err = a.Append(ctx, e); err == nil {
			return nil
		}
		if attempt == r.Attempts {
			break
		}
		if r.Backoff > 0 {
			select {
			case <-ctx.Done():
				return &PersistenceError{EntryID: e.ID, Attempts: attempt, Err: ctx.Err()}
			case <-time.After(r.Backoff):
			}
		}
	}
	return &PersistenceError{EntryID: e.ID, Attempts: r.Attempts, Err: err}
}
