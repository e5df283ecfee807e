package sqlite

import "sync"

// changeHub fans commit notifications out to subscribers of one namespace and collection.
type changeHub struct {
	mu   sync.Mutex
	next int
	subs map[int]hubSub
}

// hubSub is one registered listener. notify holds at most one pending signal.
type hubSub struct {
	namespace  string
	collection string
	notify     chan struct{}
}

// newChangeHub constructs an empty hub.
func newChangeHub() *changeHub {
	return &changeHub{subs: map[int]hubSub{}}
}

// subscribe registers a listener.
func (h *changeHub) subscribe(namespace, collection string) (int, <-chan struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	sub := hubSub{namespace: namespace, collection: collection, notify: make(chan struct{}, 1)}
	h.subs[h.next] = sub
	return h.next, sub.notify
}

// unsubscribe drops a listener.
func (h *changeHub) unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}

// publish signals every listener on the touched collections without blocking.
func (h *changeHub) publish(namespace string, collections []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		if sub.namespace != namespace {
			continue
		}
		for _, collection := range collections {
			if sub.collection != collection {
				continue
			}
			select {
			case sub.notify <- struct{}{}:
			default:
			}
		}
	}
}

// count returns the number of live listeners.
func (h *changeHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
