package predictionlog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyStore struct {
	mu       sync.Mutex
	failures int
	calls    int
	stored   []Entry
}

func (f *flakyStore) Append(ctx context.Context, e Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return errors.New("disk full")
	}
	f.stored = append(f.stored, e)
	return nil
}

func TestAppendWithRetry(t *testing.T) {
	e := entryAt(t, time.Now(), 1, "v1")

	once := &flakyStore{failures: 1}
	require.NoError(t, AppendWithRetry(context.Background(), once, e, Retry{Attempts: 2}))
	assert.Equal(t, 2, once.calls)
	assert.Len(t, once.stored, 1)

	down := &flakyStore{failures: 10}
	err := AppendWithRetry(context.Background(), down, e, Retry{Attempts: 2, Backoff: time.Millisecond})
	var pe *PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 2, pe.Attempts)
	assert.Equal(t, e.ID, pe.EntryID)
	assert.Equal(t, 2, down.calls)
}

func TestAsyncWriter_DrainsOnClose(t *testing.T) {
	store := NewMemoryStore()
	var ok atomic.Int32
	w := NewAsyncWriter(store, WithBufferSize(4), WithEnqueueTimeout(time.Second), WithResultFunc(func(_ Entry, err error) {
		if err == nil {
			ok.Add(1)
		}
	}))
	for i := 0; i < 20; i++ {
		require.NoError(t, w.Append(context.Background(), entryAt(t, time.Now(), float64(i), "v1")))
	}
	require.NoError(t, w.Close())
	assert.Equal(t, 20, store.Len())
	assert.EqualValues(t, 20, ok.Load())
	assert.ErrorIs(t, w.Append(context.Background(), entryAt(t, time.Now(), 1, "v1")), ErrWriterClosed)
	assert.NoError(t, w.Close())
}

func TestAsyncWriter_ReportsFailures(t *testing.T) {
	store := &flakyStore{failures: 100}
	errs := make(chan error, 1)
	w := NewAsyncWriter(store, WithRetry(Retry{Attempts: 2}), WithResultFunc(func(_ Entry, err error) {
		errs <- err
	}))
	require.NoError(t, w.Append(context.Background(), entryAt(t, time.Now(), 1, "v1")))
	select {
	case err := <-errs:
		var pe *PersistenceError
		assert.True(t, errors.As(err, &pe))
	case <-time.After(2 * time.Second):
		t.Fatal("no result reported")
	}
	require.NoError(t, w.Close())
	assert.Equal(t, 2, store.calls)
}

type blockingStore struct{ release chan struct{} }

func (b *blockingStore) Append(ctx context.Context, e Entry) error {
	<-b.release
	return nil
}

func TestAsyncWriter_DropOnFull(t *testing.T) {
	store := &blockingStore{release: make(chan struct{})}
	w := NewAsyncWriter(store, WithBufferSize(1), WithDropOnFull())
	var dropped int
	for i := 0; i < 5; i++ {
		if err := w.Append(context.Background(), entryAt(t, time.Now(), 1, "v1")); errors.Is(err, ErrQueueFull) {
			dropped++
		}
	}
	assert.Greater(t, dropped, 0)
	close(store.release)
	require.NoError(t, w.Close())
}

func TestAsyncWriter_FullQueueDoesNotBlock(t *testing.T) {
	store := &blockingStore{release: make(chan struct{})}
	defer close(store.release)
	w := NewAsyncWriter(store, WithBufferSize(1), WithEnqueueTimeout(20*time.Millisecond))

	start := time.Now()
	var full int
	for i := 0; i < 4; i++ {
		err := w.Append(context.Background(), entryAt(t, time.Now(), 1, "v1"))
		if errors.Is(err, ErrQueueFull) {
			full++
		}
	}
	assert.Less(t, time.Since(start), time.Second)
	assert.GreaterOrEqual(t, full, 2)
}

func TestAsyncWriter_CloseHonorsDrainTimeout(t *testing.T) {
	store := &blockingStore{release: make(chan struct{})}
	defer close(store.release)
	w := NewAsyncWriter(store, WithBufferSize(1), WithEnqueueTimeout(time.Minute), WithDrainTimeout(100*time.Millisecond))

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		e := entryAt(t, time.Now(), float64(i), "v1")
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = w.Append(context.Background(), e)
		}()
	}
	time.Sleep(50 * time.Millisecond)

	closed := make(chan error, 1)
	go func() { closed <- w.Close() }()
	select {
	case err := <-closed:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return after the drain timeout")
	}
	// Senders waiting for room are released by Close.
	waited := make(chan struct{})
	go func() { wg.Wait(); close(waited) }()
	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("Append still blocked after Close")
	}
}
