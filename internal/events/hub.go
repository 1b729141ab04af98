// Package events carries the typed event stream UI layers consume over SSE.
// The hub is an explicitly owned object with reference-counted upstream
// start/stop: the first subscriber starts whatever upstream feed the owner
// registered, the last one leaving stops it. No module-level state.
package events

import (
	"sync"
	"time"
)

// Type enumerates the event kinds emitted on the stream.
type Type string

const (
	TypeCredentialNew       Type = "credential:new"
	TypeCredentialCommunity Type = "credential:community"
	TypeSpaceJoined         Type = "space:joined"
	TypeNoticeRegistration  Type = "notice_registration"
	TypeNoticeDecline       Type = "notice_decline"
	TypeNoticeMessage       Type = "notice_message"
	TypeProfileUpdated      Type = "profile:updated"
	TypeClaimStep           Type = "claim:step"
)

// Event is one item on the stream.
type Event struct {
	Type Type      `json:"type"`
	Data any       `json:"data,omitempty"`
	At   time.Time `json:"at"`
}

// Hub fans events out to subscribers. Publish never blocks: a subscriber
// that stops draining loses events rather than stalling the publisher.
type Hub struct {
	mu      sync.Mutex
	subs    map[int]chan Event
	nextID  int
	onFirst func()
	onLast  func()
}

// Option configures a Hub.
type Option func(*Hub)

// WithUpstream registers hooks run when the subscriber count transitions
// 0→1 (start) and 1→0 (stop). Both run under the hub lock; keep them short
// and trigger long work asynchronously.
func WithUpstream(start, stop func()) Option {
	return func(h *Hub) {
		h.onFirst = start
		h.onLast = stop
	}
}

// NewHub builds an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{subs: make(map[int]chan Event)}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

const subscriberBuffer = 16

// Subscribe registers a new subscriber. The returned cancel must be called
// when the consumer goes away; it closes the channel and releases the
// upstream feed when this was the last subscriber.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	ch := make(chan Event, subscriberBuffer)
	h.subs[id] = ch
	first := len(h.subs) == 1
	if first && h.onFirst != nil {
		h.onFirst()
	}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			close(ch)
			last := len(h.subs) == 0
			if last && h.onLast != nil {
				h.onLast()
			}
			h.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber. The timestamp is stamped
// here if the caller left it zero.
func (h *Hub) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Emit is shorthand for Publish with just a type and payload.
func (h *Hub) Emit(t Type, data any) {
	h.Publish(Event{Type: t, Data: data})
}

// SubscriberCount reports the current number of subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
