package prefs

import (
	"sync"
	"time"
)

// Outcome classifies how an operation ended, for Observers.
type Outcome int

const (
	OutcomeOK Outcome = iota
	// OutcomeMissing: the key had no record; the default was returned.
	OutcomeMissing
	// OutcomeDecode: the record did not decrypt or parse; the default was
	// returned.
	OutcomeDecode
	// OutcomeError: the store was uninitialized or the backend failed.
	OutcomeError
)

// String returns the label used for metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeMissing:
		return "missing"
	case OutcomeDecode:
		return "decode_error"
	default:
		return "error"
	}
}

// Observer is notified after every public operation. Implementations must
// not call back into the Store.
type Observer interface {
	Observe(op string, elapsed time.Duration, outcome Outcome)
}

// Timer accumulates time spent inside Store operations.
type Timer struct {
	mu    sync.Mutex
	total time.Duration
}

// Add accumulates d.
func (t *Timer) Add(d time.Duration) {
	t.mu.Lock()
	t.total += d
	t.mu.Unlock()
}

// Total returns the accumulated duration.
func (t *Timer) Total() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// Reset zeroes the accumulated duration.
func (t *Timer) Reset() {
	t.mu.Lock()
	t.total = 0
	t.mu.Unlock()
}

// track records one finished operation. Called with s.mu held.
func (s *Store) track(op string, start time.Time, outcome Outcome) {
	elapsed := time.Since(start)
	s.timer.Add(elapsed)
	if s.observer != nil {
		s.observer.Observe(op, elapsed, outcome)
	}
}

// ExecutionTime returns the total time spent in Store operations since the
// Store was created or ResetExecutionTime was called.
func (s *Store) ExecutionTime() time.Duration {
	return s.timer.Total()
}

// ResetExecutionTime zeroes ExecutionTime.
func (s *Store) ResetExecutionTime() {
	s.timer.Reset()
}
