package backend

import (
	"sort"
	"sync"
)

// notifier fans changes out to registered listeners.
type notifier struct {
	mu        sync.Mutex
	next      int
	listeners map[int]Listener
}

func (n *notifier) watch(fn Listener) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.listeners == nil {
		n.listeners = make(map[int]Listener)
	}
	id := n.next
	n.next++
	n.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.listeners, id)
			n.mu.Unlock()
		})
	}
}

// emit calls every listener in registration order. Listeners are copied
// out first so they may call watch or cancel themselves.
func (n *notifier) emit(c Change) {
	n.mu.Lock()
	ids := make([]int, 0, len(n.listeners))
	for id := range n.listeners {
		ids = append(ids, id)
	}
	fns := make([]Listener, 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, n.listeners[id])
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

// notifiers keeps one notifier per namespace.
type notifiers struct {
	mu sync.Mutex
	m  map[string]*notifier
}

func (ns *notifiers) get(namespace string) *notifier {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if ns.m == nil {
		ns.m = make(map[string]*notifier)
	}
	n, ok := ns.m[namespace]
	if !ok {
		n = &notifier{}
		ns.m[namespace] = n
	}
	return n
}
