package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/lorahalle/storefront/storefront-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderHandler_Checkout_EmptyCart(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/checkout", "s1", "")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, api.orders.Orders)
}

func TestOrderHandler_Checkout_Guest(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, http.MethodPost, "/api/v1/cart/items", "s1", `{"productId":"tote-1"}`)
	api.do(t, http.MethodPost, "/api/v1/cart/items", "s1", `{"productId":"scarf-1"}`)

	rec := api.do(t, http.MethodPost, "/api/v1/checkout", "s1", "")

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var order domain.Order
	decode(t, rec, &order)
	assert.Equal(t, domain.GuestCustomerID, order.CustomerID)
	assert.Equal(t, int64(165), order.TotalAmount)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Len(t, order.Items, 2)
	assert.Len(t, api.publisher.Orders, 1)

	var cart CartResponse
	decode(t, api.do(t, http.MethodGet, "/api/v1/cart", "s1", ""), &cart)
	assert.Empty(t, cart.Items)
}

func TestOrderHandler_ListMyOrders(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/orders", "s1", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	api.login(t, "s1", userToken)
	api.do(t, http.MethodPost, "/api/v1/cart/items", "s1", `{"productId":"tote-1"}`)
	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/api/v1/checkout", "s1", "").Code)

	rec = api.do(t, http.MethodGet, "/api/v1/orders", "s1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var orders []domain.Order
	decode(t, rec, &orders)
	require.Len(t, orders, 1)
	assert.Equal(t, testCustomer.ID, orders[0].CustomerID)
}

func TestOrderHandler_AdminOrders(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, http.MethodPost, "/api/v1/cart/items", "shopper", `{"productId":"belt-1"}`)
	var placed domain.Order
	decode(t, api.do(t, http.MethodPost, "/api/v1/checkout", "shopper", ""), &placed)

	rec := api.do(t, http.MethodGet, "/api/v1/admin/orders", "shopper", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	api.login(t, "admin", adminToken)

	var orders []domain.Order
	decode(t, api.do(t, http.MethodGet, "/api/v1/admin/orders?limit=10", "admin", ""), &orders)
	require.Len(t, orders, 1)

	path := "/api/v1/admin/orders/" + placed.ID.String() + "/status"

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
	}{
		{"ship", path, `{"status":"shipped"}`, http.StatusOK},
		{"back to pending", path, `{"status":"pending"}`, http.StatusConflict},
		{"unknown status", path, `{"status":"lost"}`, http.StatusBadRequest},
		{"bad id", "/api/v1/admin/orders/not-a-uuid/status", `{"status":"shipped"}`, http.StatusBadRequest},
		{"unknown order", "/api/v1/admin/orders/" + uuid.New().String() + "/status", `{"status":"shipped"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, http.MethodPatch, tt.path, "admin", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}

	assert.Equal(t, domain.OrderStatusShipped, api.orders.Orders[placed.ID].Status)
}
