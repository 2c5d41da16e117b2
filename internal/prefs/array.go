package prefs

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/aesprefs/internal/backend"
)

// StoreArray stores values as one array entry. All elements share one fresh
// IV. Elements left over from a longer previous array are removed.
//
// The records are written one at a time; an interrupted write can leave the
// size and elements inconsistent, which RestoreArray reports as empty.
func (s *Store) StoreArray(ctx context.Context, key string, values []string) error {
	start := time.Now()
	s.lock()
	defer s.unlock()

	err := s.storeArrayLocked(ctx, key, values)
	if err != nil {
		if s.logMode.enabled() {
			s.logger.Error("write failed", "op", "storeArray", "key", key, "error", err)
		}
	} else if s.logMode.logsSet() {
		s.logger.Debug("storeArray", "key", key, "size", len(values))
	}
	s.track("storeArray", start, outcomeOf(err))
	return err
}

func (s *Store) storeArrayLocked(ctx context.Context, key string, values []string) error {
	if !s.initialized {
		return ErrNotInitialized
	}

	sk := s.storageKey(key)
	oldSize, err := backend.GetInt64(ctx, s.node, sk+sizeSuffix, 0)
	if err != nil {
		return fmt.Errorf("store array %q: %w", key, err)
	}

	seed := s.seeds.Next()
	if err := backend.PutInt64(ctx, s.node, sk+sizeSuffix, int64(len(values))); err != nil {
		return fmt.Errorf("store array %q: write size: %w", key, err)
	}
	if err := backend.PutInt64(ctx, s.node, sk+ivSuffix, seed); err != nil {
		return fmt.Errorf("store array %q: write IV: %w", key, err)
	}
	for i, v := range values {
		if err := s.node.Put(ctx, elementKey(sk, i), s.codec.Encrypt(v, seed)); err != nil {
			return fmt.Errorf("store array %q: element %d: %w", key, i, err)
		}
	}
	for i := len(values); int64(i) < oldSize; i++ {
		if err := s.node.Remove(ctx, elementKey(sk, i)); err != nil {
			return fmt.Errorf("store array %q: remove stale element %d: %w", key, i, err)
		}
	}
	return nil
}

// RestoreArray returns the array stored under key.
//
// A missing array yields an empty slice. So does any missing or undecodable
// element: a partial prefix is never returned. The result is never nil.
func (s *Store) RestoreArray(ctx context.Context, key string) []string {
	start := time.Now()
	s.lock()
	defer s.unlock()

	values, err := s.restoreArrayLocked(ctx, key)
	outcome := outcomeOf(err)
	if err != nil {
		values = []string{}
		if s.logMode.enabled() {
			s.logger.Warn("array unreadable, returning empty", "key", key, "error", err)
		}
	} else if s.logMode.logsGet() {
		s.logger.Debug("restoreArray", "key", key, "size", len(values))
	}
	s.track("restoreArray", start, outcome)
	return values
}

func (s *Store) restoreArrayLocked(ctx context.Context, key string) ([]string, error) {
	if !s.initialized {
		return nil, ErrNotInitialized
	}

	sk := s.storageKey(key)
	size, err := backend.GetInt64(ctx, s.node, sk+sizeSuffix, 0)
	if err != nil {
		return nil, fmt.Errorf("restore array %q: %w", key, err)
	}
	if size <= 0 {
		return []string{}, nil
	}

	iv, err := backend.GetInt64(ctx, s.node, sk+ivSuffix, 0)
	if err != nil {
		return nil, fmt.Errorf("restore array %q: read IV: %w", key, err)
	}

	// size is an unencrypted record; it bounds the loop but not an allocation.
	values := []string{}
	for i := 0; int64(i) < size; i++ {
		ciphertext, found, err := s.node.Get(ctx, elementKey(sk, i))
		if err != nil {
			return nil, fmt.Errorf("restore array %q: element %d: %w", key, i, err)
		}
		if !found {
			return nil, fmt.Errorf("restore array %q: element %d: %w", key, i, ErrNotFound)
		}
		v, err := s.codec.Decrypt(ciphertext, iv)
		if err != nil {
			return nil, fmt.Errorf("restore array %q: element %d: %w", key, i, err)
		}
		values = append(values, v)
	}
	return values, nil
}
