package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

// Bolt is a Registry backed by a bbolt file. Each namespace is a top-level
// bucket; buckets are created on first Put and dropped by Clear.
type Bolt struct {
	db    *bbolt.DB
	watch notifiers
}

// OpenBolt creates or opens a bbolt database at path, creating parent
// directories as needed. Fails after 5 seconds if another process holds the
// file lock.
func OpenBolt(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Bolt{db: db}, nil
}

// Close closes the database file.
func (b *Bolt) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Node returns the node for namespace.
func (b *Bolt) Node(ctx context.Context, namespace string) (Node, error) {
	if b.db == nil {
		return nil, ErrClosed
	}
	if namespace == "" {
		return nil, fmt.Errorf("bolt: namespace must not be empty")
	}
	return &boltNode{db: b.db, bucket: []byte(namespace), notify: b.watch.get(namespace)}, nil
}

type boltNode struct {
	db     *bbolt.DB
	bucket []byte
	notify *notifier
}

func (n *boltNode) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := n.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(n.bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			value, found = string(v), true
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, found, nil
}

func (n *boltNode) Put(ctx context.Context, key, value string) error {
	err := n.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(n.bucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}

	n.notify.emit(Change{Namespace: string(n.bucket), Kind: ChangePut, Key: key, Value: value})
	return nil
}

func (n *boltNode) Remove(ctx context.Context, key string) error {
	var existed bool
	err := n.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(n.bucket)
		if b == nil {
			return nil
		}
		existed = b.Get([]byte(key)) != nil
		return b.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}

	if existed {
		n.notify.emit(Change{Namespace: string(n.bucket), Kind: ChangeRemove, Key: key})
	}
	return nil
}

// Keys lists keys in bbolt's byte order.
func (n *boltNode) Keys(ctx context.Context) ([]string, error) {
	keys := []string{}
	err := n.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(n.bucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list keys: %w", ErrUnavailable, err)
	}
	return keys, nil
}

func (n *boltNode) Clear(ctx context.Context) error {
	err := n.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(n.bucket) == nil {
			return nil
		}
		return tx.DeleteBucket(n.bucket)
	})
	if err != nil {
		return fmt.Errorf("%w: clear: %w", ErrUnavailable, err)
	}

	n.notify.emit(Change{Namespace: string(n.bucket), Kind: ChangeClear})
	return nil
}

func (n *boltNode) Watch(fn Listener) func() {
	return n.notify.watch(fn)
}
