// Package notify broadcasts change events to whoever is listening right now.
package notify

import (
	"sync"
	"time"
)

const (
	ShopCreated          = "shop.created"
	MenuPublished        = "menu.published"
	OrderSubmitted       = "order.submitted"
	OrderAdvanced        = "order.advanced"
	ReservationCreated   = "reservation.created"
	ReservationCheckedIn = "reservation.checked_in"

	// AllTopics subscribes to every event type.
	AllTopics = "*"
)

type Event struct {
	Type       string    `json:"type"`
	ShopID     string    `json:"shopId"`
	RecordID   string    `json:"recordId"`
	Origin     string    `json:"origin"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Handler func(Event)

type Publisher interface {
	Publish(evt Event)
}

type subscription struct {
	id      uint64
	topic   string
	handler Handler
}

// Hub delivers each event synchronously to every current subscriber of its
// topic, in registration order. Events are not retained: a subscriber only
// sees what is published while it is registered.
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscription
	origin string
	now    func() time.Time
}

// NewHub stamps events published without an origin with origin.
func NewHub(origin string) *Hub {
	return &Hub{origin: origin, now: time.Now}
}

func (h *Hub) Origin() string { return h.origin }

// Subscribe registers handler for topic and returns the function that
// removes it again. Calling the returned function more than once is safe.
func (h *Hub) Subscribe(topic string, handler Handler) func() {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs = append(h.subs, subscription{id: id, topic: topic, handler: handler})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(id) })
	}
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, sub := range h.subs {
		if sub.id == id {
			h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
			return
		}
	}
}

func (h *Hub) Publish(evt Event) {
	if evt.Origin == "" {
		evt.Origin = h.origin
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = h.now()
	}

	h.mu.Lock()
	targets := make([]Handler, 0, len(h.subs))
	for _, sub := range h.subs {
		if sub.topic == AllTopics || sub.topic == evt.Type {
			targets = append(targets, sub.handler)
		}
	}
	h.mu.Unlock()

	for _, handler := range targets {
		handler(evt)
	}
}

func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
