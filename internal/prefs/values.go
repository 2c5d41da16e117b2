package prefs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/aesprefs/internal/backend"
)

// Lookup returns the decrypted text stored under key.
//
// The error is ErrNotInitialized, wraps ErrNotFound when the key has no
// value record, wraps ErrDecode when the record does not decrypt, or is a
// backend error. The typed getters collapse all of these to their default.
func (s *Store) Lookup(ctx context.Context, key string) (string, error) {
	start := time.Now()
	s.lock()
	defer s.unlock()

	text, err := s.lookupLocked(ctx, key)
	s.track("lookup", start, outcomeOf(err))
	return text, err
}

func (s *Store) lookupLocked(ctx context.Context, key string) (string, error) {
	if !s.initialized {
		return "", ErrNotInitialized
	}

	sk := s.storageKey(key)
	ciphertext, found, err := s.node.Get(ctx, sk)
	if err != nil {
		return "", fmt.Errorf("get %q: %w", key, err)
	}
	if !found {
		return "", fmt.Errorf("get %q: %w", key, ErrNotFound)
	}

	iv, err := backend.GetInt64(ctx, s.node, sk+ivSuffix, 0)
	if err != nil {
		return "", fmt.Errorf("get %q: read IV: %w", key, err)
	}

	plain, err := s.codec.Decrypt(ciphertext, iv)
	if err != nil {
		return "", fmt.Errorf("get %q: %w", key, err)
	}
	return plain, nil
}

func (s *Store) containsLocked(ctx context.Context, key string) (bool, error) {
	if !s.initialized {
		return false, ErrNotInitialized
	}
	return backend.Exists(ctx, s.node, s.storageKey(key))
}

// putLocked writes the value record, then its IV record. It does not log.
func (s *Store) putLocked(ctx context.Context, key, text string) error {
	if !s.initialized {
		return ErrNotInitialized
	}

	sk := s.storageKey(key)
	seed := s.seeds.Next()
	if err := s.node.Put(ctx, sk, s.codec.Encrypt(text, seed)); err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	if err := backend.PutInt64(ctx, s.node, sk+ivSuffix, seed); err != nil {
		return fmt.Errorf("put %q: write IV: %w", key, err)
	}
	return nil
}

func outcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrNotFound):
		return OutcomeMissing
	case errors.Is(err, ErrDecode):
		return OutcomeDecode
	default:
		return OutcomeError
	}
}

// getValue is the shared body of the typed getters.
func getValue[T any](ctx context.Context, s *Store, op, key string, def T, parse func(string) (T, error)) T {
	start := time.Now()
	s.lock()
	defer s.unlock()

	text, err := s.lookupLocked(ctx, key)
	if err == nil {
		v, perr := parse(text)
		if perr == nil {
			if s.logMode.logsGet() {
				s.logger.Debug(op, "key", key, "value", v)
			}
			s.track(op, start, OutcomeOK)
			return v
		}
		err = fmt.Errorf("get %q: %w: %v", key, ErrDecode, perr)
	}

	outcome := outcomeOf(err)
	if s.logMode.enabled() {
		switch outcome {
		case OutcomeMissing:
			s.logger.Warn("key not found, returning default", "op", op, "key", key, "default", def)
		case OutcomeDecode:
			s.logger.Warn("undecodable value, returning default", "op", op, "key", key, "default", def, "error", err)
		default:
			s.logger.Error("read failed, returning default", "op", op, "key", key, "default", def, "error", err)
		}
	}
	s.track(op, start, outcome)
	return def
}

// putValue is the shared body of the typed setters.
func (s *Store) putValue(ctx context.Context, op, key, text string) error {
	start := time.Now()
	s.lock()
	defer s.unlock()

	err := s.putLocked(ctx, key, text)
	if err != nil {
		if s.logMode.enabled() {
			s.logger.Error("write failed", "op", op, "key", key, "error", err)
		}
	} else if s.logMode.logsSet() {
		s.logger.Debug(op, "key", key, "value", text)
	}
	s.track(op, start, outcomeOf(err))
	return err
}

// PutString stores a string value.
func (s *Store) PutString(ctx context.Context, key, value string) error {
	return s.putValue(ctx, "putString", key, value)
}

// PutInt stores an int value.
func (s *Store) PutInt(ctx context.Context, key string, value int) error {
	return s.putValue(ctx, "putInt", key, formatInt(int64(value)))
}

// PutLong stores an int64 value.
func (s *Store) PutLong(ctx context.Context, key string, value int64) error {
	return s.putValue(ctx, "putLong", key, formatInt(value))
}

// PutFloat stores a float32 value.
func (s *Store) PutFloat(ctx context.Context, key string, value float32) error {
	return s.putValue(ctx, "putFloat", key, formatFloat(float64(value), 32))
}

// PutDouble stores a float64 value.
func (s *Store) PutDouble(ctx context.Context, key string, value float64) error {
	return s.putValue(ctx, "putDouble", key, formatFloat(value, 64))
}

// PutBool stores a bool value.
func (s *Store) PutBool(ctx context.Context, key string, value bool) error {
	return s.putValue(ctx, "putBool", key, formatBool(value))
}

// GetString returns the string stored under key, or def.
func (s *Store) GetString(ctx context.Context, key, def string) string {
	return getValue(ctx, s, "getString", key, def, parseString)
}

// GetInt returns the int stored under key, or def if it is missing or not
// an integer.
func (s *Store) GetInt(ctx context.Context, key string, def int) int {
	return getValue(ctx, s, "getInt", key, def, parseInt)
}

// GetLong returns the int64 stored under key, or def.
func (s *Store) GetLong(ctx context.Context, key string, def int64) int64 {
	return getValue(ctx, s, "getLong", key, def, parseLong)
}

// GetFloat returns the float32 stored under key, or def.
func (s *Store) GetFloat(ctx context.Context, key string, def float32) float32 {
	return getValue(ctx, s, "getFloat", key, def, parseFloat)
}

// GetDouble returns the float64 stored under key, or def.
func (s *Store) GetDouble(ctx context.Context, key string, def float64) float64 {
	return getValue(ctx, s, "getDouble", key, def, parseDouble)
}

// GetBool returns the bool stored under key, or def if it is missing or
// undecodable. Any decrypted text other than "true" (in any case) is false.
func (s *Store) GetBool(ctx context.Context, key string, def bool) bool {
	return getValue(ctx, s, "getBool", key, def, parseBool)
}
