// Package events delivers committed inventory changes to whoever watches a
// profile, typically the connection layer that echoes them to the client.
package events

import (
	"sync"
	"time"

	"github.com/gravitas-games/stashkeeper/internal/inventory"
)

// EventType represents the kind of request that produced the changes.
type EventType int

const (
	// EventInventoryChanged is emitted for plain moves, splits, merges and removals.
	EventInventoryChanged EventType = iota
	// EventPurchase is emitted after a trader or flea purchase commits.
	EventPurchase
	// EventMailCollected is emitted when rewards leave a mail message.
	EventMailCollected
	// EventLootOpened is emitted when a random loot container is opened.
	EventLootOpened
	// EventCallbackFailed is emitted when items were committed but the
	// follow-up step failed and needs manual review.
	EventCallbackFailed
)

// String returns a human-readable representation of the event type.
func (t EventType) String() string {
	switch t {
	case EventInventoryChanged:
		return "InventoryChanged"
	case EventPurchase:
		return "Purchase"
	case EventMailCollected:
		return "MailCollected"
	case EventLootOpened:
		return "LootOpened"
	case EventCallbackFailed:
		return "CallbackFailed"
	default:
		return "Unknown"
	}
}

// Event carries the changes of one committed request.
type Event struct {
	Type      EventType           `json:"type"`
	ProfileID string              `json:"profileId"`
	Owner     inventory.OwnerKind `json:"owner"`
	Changes   *inventory.Changes  `json:"changes,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
	Data      map[string]any      `json:"data,omitempty"`
}

// Bus manages event subscriptions and delivery.
type Bus interface {
	// Subscribe registers a handler for events of a specific profile.
	Subscribe(profileID string, handler func(Event))

	// Unsubscribe removes the handler for a profile.
	Unsubscribe(profileID string)

	// Publish sends an event to the subscribed handler, if any.
	Publish(event Event)
}

// SimpleBus is an in-memory bus with one handler per profile.
type SimpleBus struct {
	mu       sync.RWMutex
	handlers map[string]func(Event)
}

var (
	_ Bus = (*SimpleBus)(nil)
	_ Bus = (*NullBus)(nil)
)

// NewSimpleBus creates an empty bus.
func NewSimpleBus() *SimpleBus {
	return &SimpleBus{handlers: make(map[string]func(Event))}
}

// Subscribe registers a handler for events of a specific profile.
func (bus *SimpleBus) Subscribe(profileID string, handler func(Event)) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.handlers[profileID] = handler
}

// Unsubscribe removes the handler for a profile.
func (bus *SimpleBus) Unsubscribe(profileID string) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.handlers, profileID)
}

// Publish sends an event to the profile's handler.
// Handlers run in their own goroutine so a slow consumer cannot stall a request.
func (bus *SimpleBus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	if handler, exists := bus.handlers[event.ProfileID]; exists && event.ProfileID != "" {
		go handler(event)
	}
}

// NullBus drops every event.
type NullBus struct{}

// NewNullBus creates a new null bus.
func NewNullBus() *NullBus {
	return &NullBus{}
}

// Subscribe does nothing.
func (bus *NullBus) Subscribe(profileID string, handler func(Event)) {}

// Unsubscribe does nothing.
func (bus *NullBus) Unsubscribe(profileID string) {}

// Publish does nothing.
func (bus *NullBus) Publish(event Event) {}
