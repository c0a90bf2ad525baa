// Package bus provides the named-event publish/subscribe layer that the
// command channel, push channel and session state machine communicate over.
package bus

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Handler receives the arguments passed to Publish. A non-nil return is
// collected and reported by Publish after every handler has run.
type Handler func(args ...any) error

// Subscription identifies a registered handler for removal.
type Subscription struct {
	event string
	id    string
}

type entry struct {
	id string
	fn Handler
}

// Bus dispatches events synchronously to handlers in registration order.
type Bus struct {
	mu       sync.Mutex
	handlers map[string][]entry
}

func New() *Bus {
	return &Bus{handlers: make(map[string][]entry)}
}

// Subscribe registers h under the given event name. Handlers fire in
// registration order.
func (b *Bus) Subscribe(event string, h Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	e := entry{id: uuid.NewString(), fn: h}
	b.handlers[event] = append(b.handlers[event], e)
	return Subscription{event: event, id: e.id}
}

// Unsubscribe removes the handler identified by sub. Removing a handler that
// is absent (or already removed) is a no-op.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := b.handlers[sub.event]
	for i, e := range entries {
		if e.id == sub.id {
			b.handlers[sub.event] = append(entries[:i:i], entries[i+1:]...)
			return
		}
	}
}

// Publish invokes every handler currently registered for the event, in
// registration order, with the given arguments. The handler list is
// snapshotted before the first call: handlers added or removed during
// dispatch only take effect for later publishes.
//
// A failing handler never prevents the remaining handlers from running;
// handler errors and recovered panics are joined and returned once all
// handlers have run. Unknown event names are a no-op.
func (b *Bus) Publish(event string, args ...any) error {
	b.mu.Lock()
	snapshot := make([]entry, len(b.handlers[event]))
	copy(snapshot, b.handlers[event])
	b.mu.Unlock()

	var errs []error
	for _, e := range snapshot {
		if err := b.invoke(e, args); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Bus) invoke(e entry, args []any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return e.fn(args...)
}
