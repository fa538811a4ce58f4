package auth

import (
	"sync"
	"sync/atomic"
)

type EventKind string

const (
	SignedUp  EventKind = "signed_up"
	SignedIn  EventKind = "signed_in"
	SignedOut EventKind = "signed_out"
)

type Event struct {
	Kind     EventKind
	UID      string
	Username string
}

// Hub fans auth changes out to subscribers. Each subscriber gets its own
// goroutine and buffered channel, so a slow subscriber never blocks a
// sign-in.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscriber
	closed bool

	// running counts subscriber goroutines, including unsubscribed ones
	// still draining their queue.
	running sync.WaitGroup
}

type subscriber struct {
	events chan Event
	done   chan struct{}

	// delivering is set while callback runs on the subscriber goroutine.
	delivering atomic.Bool
}

const subscriberBuffer = 32

func NewHub() *Hub {
	return &Hub{subs: make(map[int]*subscriber)}
}

// OnAuthChange registers callback and returns the function that removes it.
// Unsubscribing waits for callbacks already queued for this subscriber.
// While one of its callbacks is running it returns without waiting, which
// lets a callback unsubscribe itself; Close still waits for that drain.
func (h *Hub) OnAuthChange(callback func(Event)) (unsubscribe func()) {
	sub := &subscriber{
		events: make(chan Event, subscriberBuffer),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.done)
		return func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = sub
	h.running.Add(1)
	h.mu.Unlock()

	go func() {
		defer h.running.Done()
		defer close(sub.done)
		for event := range sub.events {
			sub.delivering.Store(true)
			callback(event)
			sub.delivering.Store(false)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			if _, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub.events)
			}
			h.mu.Unlock()
			if !sub.delivering.Load() {
				<-sub.done
			}
		})
	}
}

// Publish queues event for every subscriber. Events for a subscriber whose
// buffer is full are dropped.
func (h *Hub) Publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		select {
		case sub.events <- event:
		default:
		}
	}
}

// Close unsubscribes everyone and waits for every subscriber goroutine to
// finish.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := h.subs
	h.subs = make(map[int]*subscriber)
	for _, sub := range subs {
		close(sub.events)
	}
	h.mu.Unlock()

	h.running.Wait()
}
