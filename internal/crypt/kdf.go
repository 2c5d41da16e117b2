package crypt

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// PBKDF2Iterations is the iteration count used by KDFPBKDF2.
const PBKDF2Iterations = 100000

// KDF selects how a password becomes an AES key.
type KDF int

const (
	// KDFSHA256 hashes the password bytes once with SHA-256. This is the
	// format existing stores were written with.
	KDFSHA256 KDF = iota
	// KDFPBKDF2 stretches the password with PBKDF2-HMAC-SHA256. Stores
	// written this way cannot be read with KDFSHA256.
	KDFPBKDF2
)

// String returns the config spelling of the KDF.
func (k KDF) String() string {
	switch k {
	case KDFSHA256:
		return "sha256"
	case KDFPBKDF2:
		return "pbkdf2"
	default:
		return fmt.Sprintf("KDF(%d)", int(k))
	}
}

// ParseKDF parses "sha256" or "pbkdf2". The empty string means KDFSHA256.
func ParseKDF(s string) (KDF, error) {
	switch strings.ToLower(s) {
	case "", "sha256":
		return KDFSHA256, nil
	case "pbkdf2":
		return KDFPBKDF2, nil
	default:
		return 0, fmt.Errorf("crypt: unknown kdf %q", s)
	}
}

// DeriveKey turns a password into a KeySize-byte key.
func DeriveKey(password string, kdf KDF, salt string) ([]byte, error) {
	switch kdf {
	case KDFSHA256:
		sum := sha256.Sum256([]byte(password))
		return sum[:], nil
	case KDFPBKDF2:
		return pbkdf2.Key([]byte(password), []byte(salt), PBKDF2Iterations, KeySize, sha256.New), nil
	default:
		return nil, fmt.Errorf("crypt: unknown kdf %d", int(kdf))
	}
}
