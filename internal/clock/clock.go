// Package clock supplies wall time and the 64-bit seeds used as IVs.
//
// Seeds written by TimeSource are Unix milliseconds, the format existing
// stores were written with. Two writes in the same millisecond must still
// get different seeds, so TimeSource is strictly monotonic: when the clock
// has not advanced it hands out last+1.
package clock

import (
	"crypto/rand"
	"encoding/binary"
	"sync/atomic"
	"time"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

// Now returns time.Now().
func (System) Now() time.Time { return time.Now() }

// Source hands out IV seeds.
type Source interface {
	Next() int64
}

// TimeSource derives seeds from a Clock in Unix milliseconds.
//
// Thread-safety: TimeSource is safe for concurrent use (CAS loop).
type TimeSource struct {
	clock Clock
	last  atomic.Int64
}

// NewTimeSource creates a TimeSource reading c. A nil c means System.
func NewTimeSource(c Clock) *TimeSource {
	if c == nil {
		c = System{}
	}
	return &TimeSource{clock: c}
}

// Next returns the current time in milliseconds, or last+1 if that would
// not be strictly greater than the previous seed.
func (s *TimeSource) Next() int64 {
	for {
		last := s.last.Load()
		now := s.clock.Now().UnixMilli()
		if now <= last {
			now = last + 1
		}
		if s.last.CompareAndSwap(last, now) {
			return now
		}
	}
}

// Current returns the last seed handed out, or 0.
func (s *TimeSource) Current() int64 {
	return s.last.Load()
}

// RandomSource draws 64 random bits per seed. Stores written with it keep
// the same record format, so readers do not need to know which source was
// used.
type RandomSource struct{}

// Next returns a random seed.
func (RandomSource) Next() int64 {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return int64(binary.BigEndian.Uint64(b[:]))
}
