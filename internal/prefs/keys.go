package prefs

import (
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// Record suffixes appended to an encrypted key name.
const (
	ivSuffix   = "="
	sizeSuffix = "_size"
)

// storageKey encrypts a plaintext key name with the master IV. Called with
// s.mu held on an initialized Store.
func (s *Store) storageKey(key string) string {
	if s.normalize {
		key = norm.NFC.String(key)
	}
	return s.codec.Encrypt(key, s.masterIV)
}

func elementKey(storageKey string, i int) string {
	return storageKey + "_" + strconv.Itoa(i)
}

// EncryptedKey returns the storage name of key's value record, for
// diagnostics. It returns "" on an uninitialized Store.
func (s *Store) EncryptedKey(key string) string {
	s.lock()
	defer s.unlock()
	if !s.initialized {
		return ""
	}
	return s.storageKey(key)
}
