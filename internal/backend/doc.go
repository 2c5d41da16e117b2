// Package backend provides the unencrypted key-value stores that encrypted
// preferences are layered on.
//
// A Registry hands out one Node per namespace. A Node is a flat string to
// string map with get, put, remove, enumerate and clear. Numbers are stored
// as decimal text, the way a preferences registry stores them, via GetInt64
// and PutInt64.
//
// # Implementations
//
//   - Memory: map-backed, for tests and ephemeral use
//   - SQLite: one table keyed by (namespace, key), WAL mode
//   - Bolt: one bbolt bucket per namespace
//
// # Change Notification
//
// Every Node supports Watch. Listeners run synchronously on the goroutine
// that performed the mutation, after the mutation is durable. Listeners are
// shared by every Node handed out for the same namespace of one Registry.
package backend
