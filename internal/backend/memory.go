package backend

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory is an in-process Registry. Data lives until the Registry is
// garbage collected; Close only rejects further use.
//
// Thread-safety: Memory and its Nodes are safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	data   map[string]map[string]string
	closed bool
	watch  notifiers
}

// NewMemory creates an empty Memory registry.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string]string)}
}

// Node returns the node for namespace.
func (m *Memory) Node(ctx context.Context, namespace string) (Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	return &memoryNode{m: m, namespace: namespace, notify: m.watch.get(namespace)}, nil
}

// Close marks the registry closed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

type memoryNode struct {
	m         *Memory
	namespace string
	notify    *notifier
}

func (n *memoryNode) Get(ctx context.Context, key string) (string, bool, error) {
	n.m.mu.RLock()
	defer n.m.mu.RUnlock()
	if n.m.closed {
		return "", false, ErrClosed
	}
	v, ok := n.m.data[n.namespace][key]
	return v, ok, nil
}

func (n *memoryNode) Put(ctx context.Context, key, value string) error {
	n.m.mu.Lock()
	if n.m.closed {
		n.m.mu.Unlock()
		return ErrClosed
	}
	records, ok := n.m.data[n.namespace]
	if !ok {
		records = make(map[string]string)
		n.m.data[n.namespace] = records
	}
	records[key] = value
	n.m.mu.Unlock()

	n.notify.emit(Change{Namespace: n.namespace, Kind: ChangePut, Key: key, Value: value})
	return nil
}

func (n *memoryNode) Remove(ctx context.Context, key string) error {
	n.m.mu.Lock()
	if n.m.closed {
		n.m.mu.Unlock()
		return ErrClosed
	}
	_, existed := n.m.data[n.namespace][key]
	delete(n.m.data[n.namespace], key)
	n.m.mu.Unlock()

	if existed {
		n.notify.emit(Change{Namespace: n.namespace, Kind: ChangeRemove, Key: key})
	}
	return nil
}

func (n *memoryNode) Keys(ctx context.Context) ([]string, error) {
	n.m.mu.RLock()
	defer n.m.mu.RUnlock()
	if n.m.closed {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, ErrClosed)
	}
	keys := make([]string, 0, len(n.m.data[n.namespace]))
	for k := range n.m.data[n.namespace] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (n *memoryNode) Clear(ctx context.Context) error {
	n.m.mu.Lock()
	if n.m.closed {
		n.m.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrUnavailable, ErrClosed)
	}
	delete(n.m.data, n.namespace)
	n.m.mu.Unlock()

	n.notify.emit(Change{Namespace: n.namespace, Kind: ChangeClear})
	return nil
}

func (n *memoryNode) Watch(fn Listener) func() {
	return n.notify.watch(fn)
}
