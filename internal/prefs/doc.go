// Package prefs stores typed application settings in an unencrypted
// backend.Node while keeping both key names and values encrypted at rest.
//
// # Record Layout
//
// For a plaintext key k, let K = enc(k, masterIV). A scalar entry is two
// records and an array entry is N+2:
//
//	aes_iv         master IV seed (decimal int64, plaintext)
//	K              enc(value, entryIV)
//	K + "="        entryIV seed (decimal int64, plaintext)
//	K + "_size"    array length (decimal int, plaintext)
//	K + "_" + i    enc(element i, entryIV)
//
// Key names are encrypted with the master IV so they are deterministic and
// can be found again; values are encrypted with a fresh entry IV on every
// write, so rewriting an unchanged value still changes its ciphertext.
//
// # Failure Policy
//
// Reads never fail. Missing entries, undecryptable ciphertext and values
// that do not parse as the requested type all return the caller's default.
// Lookup exposes the underlying error for callers that need to tell these
// apart.
//
// # Concurrency
//
// A Store serializes its own methods with a mutex, which makes Init, the
// Init* set-if-absent helpers and the launch counter atomic for one Store.
// Two Stores, or two processes, sharing a namespace are not coordinated.
package prefs
