package backend

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// ErrUnavailable wraps failures to enumerate or clear a namespace.
var ErrUnavailable = errors.New("backend unavailable")

// ErrClosed is returned by operations on a closed Registry.
var ErrClosed = errors.New("backend closed")

// ChangeKind identifies the mutation reported to a Listener.
type ChangeKind int

const (
	ChangePut ChangeKind = iota
	ChangeRemove
	ChangeClear
)

// String returns a lowercase name for the kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangePut:
		return "put"
	case ChangeRemove:
		return "remove"
	case ChangeClear:
		return "clear"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// Change describes one mutation of a namespace. Key and Value are the raw
// stored strings; Value is empty for removals and clears.
type Change struct {
	Namespace string
	Kind      ChangeKind
	Key       string
	Value     string
}

// Listener receives changes.
type Listener func(Change)

// Node is the record store for one namespace.
type Node interface {
	// Get returns the value stored under key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
	// Keys lists every key in the namespace in byte order.
	Keys(ctx context.Context) ([]string, error)
	// Clear deletes every key in the namespace.
	Clear(ctx context.Context) error
	// Watch registers fn for changes to the namespace. The returned
	// function unregisters it and is safe to call more than once.
	Watch(fn Listener) (cancel func())
}

// Registry hands out Nodes by namespace.
type Registry interface {
	Node(ctx context.Context, namespace string) (Node, error)
	Close() error
}

// GetInt64 reads a decimal integer record. Missing or unparsable records
// yield def; only backend failures produce an error.
func GetInt64(ctx context.Context, n Node, key string, def int64) (int64, error) {
	raw, ok, err := n.Get(ctx, key)
	if err != nil {
		return def, err
	}
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def, nil
	}
	return v, nil
}

// PutInt64 stores v as a decimal integer record.
func PutInt64(ctx context.Context, n Node, key string, v int64) error {
	return n.Put(ctx, key, strconv.FormatInt(v, 10))
}

// Exists reports whether key has a record.
func Exists(ctx context.Context, n Node, key string) (bool, error) {
	_, ok, err := n.Get(ctx, key)
	return ok, err
}
