package websocket

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/lorahalle/storefront/storefront-backend/internal/domain"
	"github.com/lorahalle/storefront/storefront-backend/internal/store"
	"github.com/lorahalle/storefront/storefront-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_ObservesContainer(t *testing.T) {
	hub := NewHub()
	client := newMockClient("tab", "s1")
	hub.Register(client)
	ctx := context.Background()

	c, err := store.New(ctx, "s1", testutil.NewMockSnapshotStore(),
		store.WithObserver(hub),
		store.WithAuthProvider(&testutil.MockAuthProvider{User: &domain.User{ID: "u1", Role: domain.RoleUser}}),
	)
	require.NoError(t, err)

	c.AddToCart(ctx, domain.Product{ID: "tote-1", Name: "Tote", Price: 120})
	c.ToggleWishlist(ctx, domain.Product{ID: "tote-1", Name: "Tote", Price: 120})
	_, err = c.Login(ctx)
	require.NoError(t, err)
	c.CloseCart()

	assert.Equal(t, []string{
		"cart.updated",
		"drawer.updated",
		"wishlist.updated",
		"session.updated",
		"drawer.updated",
	}, client.eventTypes(t))

	var first struct {
		Payload []domain.CartLine `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(client.GetMessages()[0], &first))
	require.Len(t, first.Payload, 1)
	assert.Equal(t, 1, first.Payload[0].Quantity)
}

func TestHub_OrderPlaced(t *testing.T) {
	hub := NewHub()
	client := newMockClient("tab", "s1")
	hub.Register(client)

	hub.OrderPlaced("s1", &domain.Order{ID: uuid.New(), CustomerID: "guest", Status: domain.OrderStatusPending})

	assert.Equal(t, []string{"order.placed"}, client.eventTypes(t))
}

func TestHub_UnknownSliceIgnored(t *testing.T) {
	hub := NewHub()
	client := newMockClient("tab", "s1")
	hub.Register(client)

	hub.StateChanged("s1", store.Slice("mystery"), nil)
	assert.Empty(t, client.GetMessages())
}
