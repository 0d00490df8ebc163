package webhook

import "sync"

// EventFunc handles one delivered event. Delivery is synchronous: a slow
// subscriber delays the callback response, which keeps event ordering
// aligned with the server's emission order.
type EventFunc func(Event)

// Dispatcher fans events out to subscribers by event type. The zero value
// is not usable; construct with NewDispatcher. Safe for concurrent use.
type Dispatcher struct {
	mu    sync.RWMutex
	typed map[string][]EventFunc
	all   []EventFunc
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{typed: make(map[string][]EventFunc)}
}

// Subscribe registers a handler for one event type.
func (d *Dispatcher) Subscribe(eventType string, fn EventFunc) {
	if eventType == "" || fn == nil {
		return
	}
	d.mu.Lock()
	d.typed[eventType] = append(d.typed[eventType], fn)
	d.mu.Unlock()
}

// SubscribeAll registers a handler for every event, including types this
// package does not model.
func (d *Dispatcher) SubscribeAll(fn EventFunc) {
	if fn == nil {
		return
	}
	d.mu.Lock()
	d.all = append(d.all, fn)
	d.mu.Unlock()
}

// Dispatch delivers the event to every matching subscriber in
// subscription order, catch-all subscribers first.
func (d *Dispatcher) Dispatch(event Event) {
	d.mu.RLock()
	all := make([]EventFunc, len(d.all))
	copy(all, d.all)
	typed := make([]EventFunc, len(d.typed[event.Type]))
	copy(typed, d.typed[event.Type])
	d.mu.RUnlock()

	for _, fn := range all {
		fn(event)
	}
	for _, fn := range typed {
		fn(event)
	}
}
