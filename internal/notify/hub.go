// Package notify fans match events out to the owning user's open streams.
package notify

import (
	"log/slog"
	"sync"

	"github.com/aryan0dhankhar/dreammatch/internal/domain"
	"github.com/aryan0dhankhar/dreammatch/internal/observability/metrics"
)

const (
	EventMatchCreated = "match.created"
	EventMatchUpdated = "match.updated"
)

// Event is one message delivered to a subscriber
type Event struct {
	Type  string       `json:"type"`
	Match domain.Match `json:"match"`
}

// Hub is an in-process publish/subscribe hub keyed by user id.
// Slow subscribers lose events rather than block publishers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
	logger *slog.Logger
}

// Subscription receives events for one user until Close is called
type Subscription struct {
	UserID string
	ch     chan Event
	hub    *Hub
	once   sync.Once
}

// NewHub creates a hub whose subscriptions buffer up to buffer events
func NewHub(buffer int, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe registers a new stream for userID
func (h *Hub) Subscribe(userID string) *Subscription {
	s := &Subscription{UserID: userID, ch: make(chan Event, h.buffer), hub: h}

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*Subscription]struct{})
	}
	h.subs[userID][s] = struct{}{}
	h.mu.Unlock()

	metrics.IncSubscribers()
	return s
}

// Events is closed once the subscription is closed
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close unregisters the subscription; it is safe to call more than once
func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		if set := h.subs[s.UserID]; set != nil {
			delete(set, s)
			if len(set) == 0 {
				delete(h.subs, s.UserID)
			}
		}
		close(s.ch)
		h.mu.Unlock()
		metrics.DecSubscribers()
	})
}

// Publish delivers ev to every stream of userID and returns how many received it
func (h *Hub) Publish(userID string, ev Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for s := range h.subs[userID] {
		select {
		case s.ch <- ev:
			delivered++
			metrics.ObserveNotification("delivered")
		default:
			metrics.ObserveNotification("dropped")
			h.logger.Warn("notification dropped, subscriber too slow",
				slog.String("user_id", userID),
				slog.String("match_id", ev.Match.ID),
			)
		}
	}
	return delivered
}

// PublishMatches sends a created event for each match to its owner
func (h *Hub) PublishMatches(matches []domain.Match) {
	for _, m := range matches {
		h.Publish(m.OwnerID, Event{Type: EventMatchCreated, Match: m})
	}
}

// PublishUpdate sends an updated event for m to its owner
func (h *Hub) PublishUpdate(m domain.Match) {
	h.Publish(m.OwnerID, Event{Type: EventMatchUpdated, Match: m})
}

// Subscribers counts open streams for userID
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}
