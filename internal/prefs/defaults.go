package prefs

import (
	"context"
	"time"
)

// initValue writes text under key only if key has no value record. It
// reports whether it wrote. Writes made here are not logged.
func (s *Store) initValue(ctx context.Context, op, key, text string) (bool, error) {
	start := time.Now()
	s.lock()
	defer s.unlock()

	wrote, err := s.initValueLocked(ctx, key, text)
	if err == nil && !wrote && s.logMode.logsSet() {
		s.logger.Debug("key exists, skipping", "op", op, "key", key)
	}
	s.track(op, start, outcomeOf(err))
	return wrote, err
}

func (s *Store) initValueLocked(ctx context.Context, key, text string) (bool, error) {
	exists, err := s.containsLocked(ctx, key)
	if err != nil || exists {
		return false, err
	}
	if err := s.putLocked(ctx, key, text); err != nil {
		return false, err
	}
	return true, nil
}

// InitString stores value under key unless key already exists.
func (s *Store) InitString(ctx context.Context, key, value string) (bool, error) {
	return s.initValue(ctx, "initString", key, value)
}

// InitInt stores value under key unless key already exists.
func (s *Store) InitInt(ctx context.Context, key string, value int) (bool, error) {
	return s.initValue(ctx, "initInt", key, formatInt(int64(value)))
}

// InitLong stores value under key unless key already exists.
func (s *Store) InitLong(ctx context.Context, key string, value int64) (bool, error) {
	return s.initValue(ctx, "initLong", key, formatInt(value))
}

// InitFloat stores value under key unless key already exists.
func (s *Store) InitFloat(ctx context.Context, key string, value float32) (bool, error) {
	return s.initValue(ctx, "initFloat", key, formatFloat(float64(value), 32))
}

// InitDouble stores value under key unless key already exists.
func (s *Store) InitDouble(ctx context.Context, key string, value float64) (bool, error) {
	return s.initValue(ctx, "initDouble", key, formatFloat(value, 64))
}

// InitBool stores value under key unless key already exists.
func (s *Store) InitBool(ctx context.Context, key string, value bool) (bool, error) {
	return s.initValue(ctx, "initBool", key, formatBool(value))
}
