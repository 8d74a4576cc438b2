package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to an entity
type EventType string

const (
	EventTypeUpdated EventType = "updated"
	EventTypePlaced  EventType = "placed"
)

// EntityType represents the part of the storefront the event is about
type EntityType string

const (
	EntityTypeCart     EntityType = "cart"
	EntityTypeWishlist EntityType = "wishlist"
	EntityTypeSession  EntityType = "session"
	EntityTypeDrawer   EntityType = "drawer"
	EntityTypeOrder    EntityType = "order"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "cart.updated"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "cart"
	Payload   interface{} `json:"payload"`   // Full state of the entity
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// CartUpdated creates a cart.updated event carrying the full cart
func CartUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeCart, payload)
}

// WishlistUpdated creates a wishlist.updated event carrying the full wishlist
func WishlistUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeWishlist, payload)
}

// SessionUpdated creates a session.updated event carrying the user or null
func SessionUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeSession, payload)
}

// DrawerUpdated creates a drawer.updated event carrying the open flag
func DrawerUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeDrawer, payload)
}

// OrderPlaced creates an order.placed event
func OrderPlaced(payload interface{}) Event {
	return NewEvent(EventTypePlaced, EntityTypeOrder, payload)
}
