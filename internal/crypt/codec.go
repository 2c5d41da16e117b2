// Package crypt implements the symmetric primitive used for both key names
// and values: AES-256-CBC with PKCS#7 padding, a 128-bit IV built from a
// 64-bit seed, and standard base64 text encoding.
//
// # IV Construction
//
// The seed is written big-endian into bytes 0..7 of a zeroed 16-byte block.
// Bytes 8..15 are always zero, so the IV space is 2^64 and its entropy is
// whatever the caller put into the seed.
//
// # Failure Model
//
// Encrypt cannot fail once a Codec exists. Decrypt never panics; every
// failure wraps ErrDecode so callers can substitute a default value.
package crypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrDecode is wrapped by every error returned from Decrypt.
var ErrDecode = errors.New("crypt: decode failure")

// IVSize is the AES block size; IVs are always one block.
const IVSize = aes.BlockSize

// Codec encrypts and decrypts text under a single derived key.
// A Codec is immutable and safe for concurrent use.
type Codec struct {
	block cipher.Block
}

// New creates a Codec for the given 32-byte key.
func New(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("crypt: key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypt: block cipher failure: %w", err)
	}
	return &Codec{block: block}, nil
}

// NewFromPassword derives the key from password with kdf and creates a Codec.
// salt is ignored by KDFSHA256.
func NewFromPassword(password string, kdf KDF, salt string) (*Codec, error) {
	key, err := DeriveKey(password, kdf, salt)
	if err != nil {
		return nil, err
	}
	return New(key)
}

// IV expands a 64-bit seed into a 16-byte IV.
func IV(seed int64) []byte {
	iv := make([]byte, IVSize)
	binary.BigEndian.PutUint64(iv[:8], uint64(seed))
	return iv
}

// Encrypt encrypts the UTF-8 bytes of plaintext and returns the
// base64-encoded ciphertext.
func (c *Codec) Encrypt(plaintext string, seed int64) string {
	padded := pad([]byte(plaintext), IVSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, IV(seed)).CryptBlocks(out, padded)
	return base64.StdEncoding.EncodeToString(out)
}

// Decrypt reverses Encrypt. A wrong key or seed almost always surfaces as a
// padding error; when it does not, the garbage plaintext is rejected if it
// is not valid UTF-8.
func (c *Codec) Decrypt(ciphertext string, seed int64) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: base64: %v", ErrDecode, err)
	}
	if len(raw) == 0 || len(raw)%IVSize != 0 {
		return "", fmt.Errorf("%w: ciphertext length %d is not a positive multiple of %d", ErrDecode, len(raw), IVSize)
	}
	out := make([]byte, len(raw))
	cipher.NewCBCDecrypter(c.block, IV(seed)).CryptBlocks(out, raw)
	plain, err := unpad(out, IVSize)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(plain) {
		return "", fmt.Errorf("%w: plaintext is not valid UTF-8", ErrDecode)
	}
	return string(plain), nil
}

func pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(append(make([]byte, 0, len(b)+n), b...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte, size int) ([]byte, error) {
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, fmt.Errorf("%w: bad padding", ErrDecode)
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, fmt.Errorf("%w: bad padding", ErrDecode)
		}
	}
	return b[:len(b)-n], nil
}
