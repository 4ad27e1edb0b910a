package monitoring

import (
	"sync"
	"time"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	// RecoverPanic reports a recovered panic value.
	RecoverPanic(v any)
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) RecoverPanic(any)                          {}
func (NopMonitor) Flush(time.Duration)                       {}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init sets the global monitor implementation.
func Init(m Monitor) {
	if m == nil {
		return
	}
	mu.Lock()
	current = m
	mu.Unlock()
}

func get() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	get().CaptureException(err, tags)
}

// Recover captures panics in goroutines and re-panics. Use with defer.
func Recover() {
	if r := recover(); r != nil {
		m := get()
		m.RecoverPanic(r)
		m.Flush(2 * time.Second)
		panic(r)
	}
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	get().Flush(d)
}

// Capture is a recorded exception.
type Capture struct {
	Err  error
	Tags map[string]string
}

// RecordingMonitor keeps captured exceptions in memory.
type RecordingMonitor struct {
	mu       sync.Mutex
	captures []Capture
}

func (r *RecordingMonitor) CaptureException(err error, tags map[string]string) {
	r.mu.Lock()
	r.captures = append(r.captures, Capture{Err: err, Tags: tags})
	r.mu.Unlock()
}

func (r *RecordingMonitor) RecoverPanic(any)    {}
func (r *RecordingMonitor) Flush(time.Duration) {}

// Captures returns a copy of the recorded exceptions.
func (r *RecordingMonitor) Captures() []Capture {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Capture, len(r.captures))
	copy(out, r.captures)
	return out
}
