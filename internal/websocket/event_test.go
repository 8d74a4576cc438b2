package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{"id": "tote-1", "quantity": 2}

	before := time.Now()
	evt := NewEvent(EventTypeUpdated, EntityTypeCart, payload)
	after := time.Now()

	assert.Equal(t, "cart.updated", evt.Type)
	assert.Equal(t, EntityTypeCart, evt.Entity)
	assert.Equal(t, payload, evt.Payload)
	assert.True(t, !evt.Timestamp.Before(before) && !evt.Timestamp.After(after))
}

func TestEvent_ToJSON(t *testing.T) {
	evt := DrawerUpdated(true)

	data, err := evt.ToJSON()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "drawer.updated", decoded["type"])
	assert.Equal(t, "drawer", decoded["entity"])
	assert.Equal(t, true, decoded["payload"])
	assert.NotNil(t, decoded["timestamp"])
}

func TestEvent_Helpers(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		expected string
		entity   EntityType
	}{
		{"cart", CartUpdated(nil), "cart.updated", EntityTypeCart},
		{"wishlist", WishlistUpdated(nil), "wishlist.updated", EntityTypeWishlist},
		{"session", SessionUpdated(nil), "session.updated", EntityTypeSession},
		{"drawer", DrawerUpdated(false), "drawer.updated", EntityTypeDrawer},
		{"order", OrderPlaced(nil), "order.placed", EntityTypeOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.event.Type)
			assert.Equal(t, tt.entity, tt.event.Entity)
		})
	}
}

func TestEvent_NullSessionPayload(t *testing.T) {
	data, err := SessionUpdated(nil).ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"payload":null`)
}
