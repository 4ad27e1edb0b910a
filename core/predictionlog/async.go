package predictionlog

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	defaultBufferSize     = 1024
	defaultDrainTimeout   = 5 * time.Second
	defaultEnqueueTimeout = 50 * time.Millisecond
)

// ErrQueueFull is returned when an entry found no room in the queue.
var ErrQueueFull = errors.New("prediction log queue full")

// ErrWriterClosed is returned by Append after Close.
var ErrWriterClosed = errors.New("prediction log writer closed")

// AsyncOption configures an AsyncWriter.
type AsyncOption func(*AsyncWriter)

// WithBufferSize sets the queue capacity. Default: 1024.
func WithBufferSize(n int) AsyncOption {
	return func(w *AsyncWriter) {
		if n > 0 {
			w.bufSize = n
		}
	}
}

// WithDropOnFull makes Append return ErrQueueFull at once when the queue is
// full.
func WithDropOnFull() AsyncOption {
	return func(w *AsyncWriter) { w.enqueueTimeout = 0 }
}

// WithEnqueueTimeout bounds how long Append waits for room in a full queue
// before returning ErrQueueFull. Default: 50ms.
func WithEnqueueTimeout(d time.Duration) AsyncOption {
	return func(w *AsyncWriter) {
		if d >= 0 {
			w.enqueueTimeout = d
		}
	}
}

// WithRetry sets the retry policy used for each write.
func WithRetry(r Retry) AsyncOption {
	return func(w *AsyncWriter) { w.retry = r }
}

// WithDrainTimeout bounds how long Close waits for queued entries.
func WithDrainTimeout(d time.Duration) AsyncOption {
	return func(w *AsyncWriter) {
		if d > 0 {
			w.drainTimeout = d
		}
	}
}

// WithResultFunc registers a callback invoked after every write with its
// outcome. A nil error means the entry was stored.
func WithResultFunc(f func(Entry, error)) AsyncOption {
	return func(w *AsyncWriter) { w.onResult = f }
}

// AsyncWriter decouples prediction latency from storage latency. Append
// enqueues the entry; a background goroutine writes it to the inner store.
// Write failures go to the result callback, never to the caller. Append
// never waits longer than the enqueue timeout, so a stalled store cannot
// hold up predictions.
type AsyncWriter struct {
	inner          Appender
	ch             chan Entry
	done           chan struct{}
	closing        chan struct{}
	bufSize        int
	enqueueTimeout time.Duration
	retry          Retry
	drainTimeout   time.Duration
	onResult       func(Entry, error)

	drainCtx    context.Context
	cancelDrain context.CancelFunc

	mu      sync.Mutex
	closed  bool
	senders sync.WaitGroup
}

// NewAsyncWriter wraps inner and starts the drain goroutine.
func NewAsyncWriter(inner Appender, opts ...AsyncOption) *AsyncWriter {
	w := &AsyncWriter{
		inner:          inner,
		bufSize:        defaultBufferSize,
		enqueueTimeout: defaultEnqueueTimeout,
		retry:          DefaultRetry,
		drainTimeout:   defaultDrainTimeout,
		onResult:       func(Entry, error) {},
	}
	for _, opt := range opts {
		opt(w)
	}
	w.ch = make(chan Entry, w.bufSize)
	w.done = make(chan struct{})
	w.closing = make(chan struct{})
	w.drainCtx, w.cancelDrain = context.WithCancel(context.Background())
	go w.drain()
	return w
}

// Append enqueues e. When the queue is full it waits at most the enqueue
// timeout and then returns ErrQueueFull. The entry is not reported to the
// result callback in that case; the caller owns the failure.
func (w *AsyncWriter) Append(ctx context.Context, e Entry) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWriterClosed
	}
	w.senders.Add(1)
	w.mu.Unlock()
	defer w.senders.Done()

	select {
	case w.ch <- e:
		return nil
	default:
	}
	if w.enqueueTimeout <= 0 {
		return ErrQueueFull
	}
	t := time.NewTimer(w.enqueueTimeout)
	defer t.Stop()
	select {
	case w.ch <- e:
		return nil
	case <-t.C:
		return ErrQueueFull
	case <-w.closing:
		return ErrWriterClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting entries and waits for queued ones to be written, up
// to the drain timeout. Writes still running after the timeout are canceled.
func (w *AsyncWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closing)
	w.mu.Unlock()

	// Pending senders return on closing; ch is closed once none is left.
	w.senders.Wait()
	close(w.ch)

	t := time.NewTimer(w.drainTimeout)
	defer t.Stop()
	select {
	case <-w.done:
		w.cancelDrain()
		return nil
	case <-t.C:
		w.cancelDrain()
		return errors.New("prediction log drain timed out")
	}
}

func (w *AsyncWriter) drain() {
	defer close(w.done)
	for e := range w.ch {
		err := AppendWithRetry(w.drainCtx, w.inner, e, w.retry)
		w.onResult(e, err)
	}
}

// Len reports how many entries are waiting to be written.
func (w *AsyncWriter) Len() int { return len(w.ch) }
