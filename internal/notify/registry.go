package notify

import (
	"sort" // Stable dispatch order
	"sync" // Subscriber set guard

	"github.com/goccy/go-json" // Raw payloads
)

// Handler receives the raw data of one event
type Handler func(data json.RawMessage)

// Registry maps event names to any number of handlers
type Registry struct {
	mu   sync.RWMutex
	next uint64
	subs map[string]map[uint64]Handler
}

// NewRegistry returns an empty Registry
func NewRegistry() *Registry {
	return &Registry{subs: map[string]map[uint64]Handler{}}
}

// Subscribe adds h for event and returns a func that removes exactly that subscription
func (r *Registry) Subscribe(event string, h Handler) (unsubscribe func()) {
	r.mu.Lock()
	r.next++
	id := r.next
	if r.subs[event] == nil {
		r.subs[event] = map[uint64]Handler{}
	}
	r.subs[event][id] = h
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.subs[event], id)
			if len(r.subs[event]) == 0 {
				delete(r.subs, event)
			}
		})
	}
}

// Dispatch calls every handler of event in subscription order and returns how many ran.
// Handlers run outside the lock so they may subscribe or unsubscribe.
func (r *Registry) Dispatch(event string, data json.RawMessage) int {
	r.mu.RLock()
	ids := make([]uint64, 0, len(r.subs[event]))
	for id := range r.subs[event] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	handlers := make([]Handler, len(ids))
	for i, id := range ids {
		handlers[i] = r.subs[event][id]
	}
	r.mu.RUnlock()

	for _, h := range handlers {
		h(data)
	}
	return len(handlers)
}

// Count returns the number of handlers subscribed to event
func (r *Registry) Count(event string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs[event])
}
