package prefs

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Reserved plaintext key names. They are stored like any other entry.
const (
	LaunchCounterKey = "aes_app_launches"
	InstallDateKey   = "aes_inst_date"
	InstallIDKey     = "aes_inst_id"
)

// InitOrIncrementLaunchCounter writes 0 on the first launch and increments
// the counter on every later one. It returns the new value. An unreadable
// counter counts as 0.
func (s *Store) InitOrIncrementLaunchCounter(ctx context.Context) (int, error) {
	start := time.Now()
	s.lock()
	defer s.unlock()

	n, err := s.incrementLaunchCounterLocked(ctx)
	s.track("initOrIncrementLaunchCounter", start, outcomeOf(err))
	return n, err
}

func (s *Store) incrementLaunchCounterLocked(ctx context.Context) (int, error) {
	text, err := s.lookupLocked(ctx, LaunchCounterKey)
	n := 0
	switch {
	case err == nil:
		v, perr := parseInt(text)
		if perr == nil {
			n = v
		}
		n++
	case errors.Is(err, ErrDecode):
		n = 1
	case errors.Is(err, ErrNotFound):
	default:
		return 0, err
	}

	if err := s.putLocked(ctx, LaunchCounterKey, formatInt(int64(n))); err != nil {
		return 0, fmt.Errorf("launch counter: %w", err)
	}
	return n, nil
}

// LaunchCounter returns the launch counter, or 0 if it was never
// initialized or is unreadable.
func (s *Store) LaunchCounter(ctx context.Context) int {
	return getValue(ctx, s, "launchCounter", LaunchCounterKey, 0, parseInt)
}

// InitInstallationDate stamps the installation date (unix milliseconds from
// the Store's clock) and a new installation ID, each only if absent. It
// reports whether the date was written.
func (s *Store) InitInstallationDate(ctx context.Context) (bool, error) {
	start := time.Now()
	s.lock()
	defer s.unlock()

	wrote, err := s.initInstallationLocked(ctx)
	s.track("initInstallationDate", start, outcomeOf(err))
	return wrote, err
}

func (s *Store) initInstallationLocked(ctx context.Context) (bool, error) {
	wrote, err := s.initValueLocked(ctx, InstallDateKey, formatInt(s.clock.Now().UnixMilli()))
	if err != nil {
		return false, fmt.Errorf("installation date: %w", err)
	}

	exists, err := s.containsLocked(ctx, InstallIDKey)
	if err != nil {
		return wrote, fmt.Errorf("installation id: %w", err)
	}
	if !exists {
		id, err := s.ids.Generate()
		if err != nil {
			return wrote, fmt.Errorf("installation id: %w", err)
		}
		if err := s.putLocked(ctx, InstallIDKey, id); err != nil {
			return wrote, fmt.Errorf("installation id: %w", err)
		}
	}
	return wrote, nil
}

// InstallationDate returns the installation date in unix milliseconds, or 0
// if it was never stamped.
func (s *Store) InstallationDate(ctx context.Context) int64 {
	return getValue(ctx, s, "installationDate", InstallDateKey, 0, parseLong)
}

// InstallationTime returns the installation date as a time.Time, or the zero
// Time if it was never stamped.
func (s *Store) InstallationTime(ctx context.Context) time.Time {
	ms := s.InstallationDate(ctx)
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// InstallationID returns the installation ID, or "" if it was never stamped.
func (s *Store) InstallationID(ctx context.Context) string {
	return getValue(ctx, s, "installationID", InstallIDKey, "", parseString)
}
