package prefs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/aesprefs/internal/backend"
)

// Contains reports whether key has a value record. Array entries have no
// value record and are not reported. Uninitialized Stores and backend
// failures report false.
func (s *Store) Contains(ctx context.Context, key string) bool {
	start := time.Now()
	s.lock()
	defer s.unlock()

	ok, err := s.containsLocked(ctx, key)
	if err != nil && s.logMode.enabled() {
		s.logger.Error("contains failed", "key", key, "error", err)
	}
	s.track("contains", start, outcomeOf(err))
	return ok
}

// Remove deletes every record belonging to key: the value, its IV, and any
// array size and elements. Removing a missing key is not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	start := time.Now()
	s.lock()
	defer s.unlock()

	err := s.removeLocked(ctx, key)
	if err != nil {
		if s.logMode.enabled() {
			s.logger.Error("remove failed", "key", key, "error", err)
		}
	} else if s.logMode.logsSet() {
		s.logger.Debug("remove", "key", key)
	}
	s.track("remove", start, outcomeOf(err))
	return err
}

func (s *Store) removeLocked(ctx context.Context, key string) error {
	if !s.initialized {
		return ErrNotInitialized
	}

	sk := s.storageKey(key)
	size, err := backend.GetInt64(ctx, s.node, sk+sizeSuffix, 0)
	if err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}

	for _, r := range []string{sk, sk + ivSuffix, sk + sizeSuffix} {
		if err := s.node.Remove(ctx, r); err != nil {
			return fmt.Errorf("remove %q: %w", key, err)
		}
	}
	// Elements are contiguous from 0; stop at the first gap so a corrupt
	// size record cannot drive the loop.
	for i := 0; int64(i) < size; i++ {
		ek := elementKey(sk, i)
		ok, err := backend.Exists(ctx, s.node, ek)
		if err != nil {
			return fmt.Errorf("remove %q: %w", key, err)
		}
		if !ok {
			break
		}
		if err := s.node.Remove(ctx, ek); err != nil {
			return fmt.Errorf("remove %q: element %d: %w", key, i, err)
		}
	}
	return nil
}

// CountEntries returns the number of raw entry records in the namespace.
// IV, size and array element records all count, so this is not the number of
// logical settings: a scalar contributes 2 and an N-element array N+2. The
// master IV record is not counted, so once the Store is initialized the
// result is one less than len(Node.Keys) for the same namespace.
func (s *Store) CountEntries(ctx context.Context) (int, error) {
	start := time.Now()
	s.lock()
	defer s.unlock()

	keys, err := s.keysLocked(ctx)
	s.track("countEntries", start, outcomeOf(err))
	if err != nil {
		return 0, err
	}
	n := 0
	for _, k := range keys {
		if k != MasterIVKey {
			n++
		}
	}
	return n, nil
}

// EncryptedContent returns every raw record as "key : value" lines in key
// order. Keys and values appear exactly as stored.
func (s *Store) EncryptedContent(ctx context.Context) (string, error) {
	start := time.Now()
	s.lock()
	defer s.unlock()

	content, err := s.encryptedContentLocked(ctx)
	s.track("encryptedContent", start, outcomeOf(err))
	return content, err
}

func (s *Store) encryptedContentLocked(ctx context.Context) (string, error) {
	keys, err := s.keysLocked(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, k := range keys {
		v, _, err := s.node.Get(ctx, k)
		if err != nil {
			return "", s.unavailable("encryptedContent", err)
		}
		fmt.Fprintf(&b, "%s : %s\n", k, v)
	}
	return b.String(), nil
}

func (s *Store) keysLocked(ctx context.Context) ([]string, error) {
	if !s.initialized {
		return nil, ErrNotInitialized
	}
	keys, err := s.node.Keys(ctx)
	if err != nil {
		return nil, s.unavailable("keys", err)
	}
	return keys, nil
}

// DeleteAll removes every record in the namespace, including the master IV.
// The Store stays bound; the next Init mints a new master IV.
func (s *Store) DeleteAll(ctx context.Context) error {
	start := time.Now()
	s.lock()
	defer s.unlock()

	err := s.deleteAllLocked(ctx)
	s.track("deleteAll", start, outcomeOf(err))
	return err
}

func (s *Store) deleteAllLocked(ctx context.Context) error {
	if !s.initialized {
		return ErrNotInitialized
	}
	if err := s.node.Clear(ctx); err != nil {
		return s.unavailable("deleteAll", err)
	}
	if s.logMode.enabled() {
		s.logger.Info("all records deleted", "namespace", s.namespace)
	}
	return nil
}

// unavailable logs a namespace-wide failure and wraps it.
func (s *Store) unavailable(op string, err error) error {
	if s.logMode.enabled() {
		s.logger.Error("backing store unavailable", "op", op, "namespace", s.namespace, "error", err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Subscribe registers fn for raw changes to the bound namespace. Changes
// carry encrypted key names. The returned function unregisters fn.
//
// Changes made through this Store are delivered after its lock is released,
// before the writing call returns, so fn may call back into the Store.
// Changes made by other handles on the namespace are delivered on the
// writer's goroutine.
func (s *Store) Subscribe(fn backend.Listener) (func(), error) {
	s.lock()
	defer s.unlock()
	if !s.initialized {
		return nil, ErrNotInitialized
	}
	return s.node.Watch(s.deferred(fn)), nil
}

// deferred wraps fn so changes raised while the Store's lock is held are
// queued for unlock instead of delivered in place.
func (s *Store) deferred(fn backend.Listener) backend.Listener {
	return func(c backend.Change) {
		s.pendingMu.Lock()
		if s.holding {
			s.pending = append(s.pending, pendingChange{fn: fn, change: c})
			s.pendingMu.Unlock()
			return
		}
		s.pendingMu.Unlock()
		fn(c)
	}
}
