package event

import (
	"fmt"
	"runtime/debug"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Iron-Ham/reportlog/internal/errors"
)

// Wildcard subscribes a handler to every event type.
const Wildcard = "*"

// Handler reacts to one event. A non-nil error goes back to the publisher.
type Handler func(Event) error

type hook struct {
	id      string
	handler Handler
}

// Bus is a synchronous hook dispatcher. The host publishes lifecycle
// events; plugins (the report log, the progress printer) subscribe to
// them. Handlers run on the publisher's goroutine: those registered for
// the event's type first, in registration order, then wildcard ones.
type Bus struct {
	mu     sync.RWMutex
	hooks  map[string][]hook
	lastID atomic.Uint64
}

// NewBus returns a Bus without subscribers.
func NewBus() *Bus {
	return &Bus{hooks: make(map[string][]hook)}
}

// Subscribe registers handler for eventType and returns an id for
// Unsubscribe.
func (b *Bus) Subscribe(eventType string, handler Handler) string {
	id := "hook-" + strconv.FormatUint(b.lastID.Add(1), 10)

	b.mu.Lock()
	b.hooks[eventType] = append(b.hooks[eventType], hook{id: id, handler: handler})
	b.mu.Unlock()
	return id
}

// SubscribeAll registers handler for every event type.
func (b *Bus) SubscribeAll(handler Handler) string {
	return b.Subscribe(Wildcard, handler)
}

// Unsubscribe removes the subscription with the given id and reports
// whether it existed.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for eventType, hooks := range b.hooks {
		i := slices.IndexFunc(hooks, func(h hook) bool { return h.id == id })
		if i < 0 {
			continue
		}
		b.hooks[eventType] = slices.Delete(slices.Clone(hooks), i, i+1)
		return true
	}
	return false
}

// Publish runs every handler subscribed to the event, even after one has
// failed, and returns their errors joined. A panicking handler counts as
// a failed one.
func (b *Bus) Publish(ev Event) error {
	b.mu.RLock()
	hooks := slices.Concat(b.hooks[ev.EventType()], b.hooks[Wildcard])
	b.mu.RUnlock()

	var errs []error
	for _, h := range hooks {
		if err := call(h.handler, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func call(handler Handler, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s handler panicked: %v\n%s", ev.EventType(), r, debug.Stack())
		}
	}()
	return handler(ev)
}

// Clear removes every subscription.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.hooks)
}

// SubscriptionCount returns the number of active subscriptions.
func (b *Bus) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for _, hooks := range b.hooks {
		n += len(hooks)
	}
	return n
}
