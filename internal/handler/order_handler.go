package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/lorahalle/storefront/storefront-backend/internal/domain"
	"github.com/lorahalle/storefront/storefront-backend/internal/middleware"
	"github.com/lorahalle/storefront/storefront-backend/internal/service"
	"github.com/rs/zerolog/log"
)

// OrderHandler handles checkout and order HTTP requests
type OrderHandler struct {
	sessions middleware.ContainerProvider
	checkout *service.CheckoutService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(sessions middleware.ContainerProvider, checkout *service.CheckoutService) *OrderHandler {
	return &OrderHandler{sessions: sessions, checkout: checkout}
}

// UpdateOrderStatusRequest represents the status change request body
type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

// Checkout godoc
// @Summary Place an order
// @Description Submits the session cart as an order and clears the cart
// @Tags orders
// @Produce json
// @Success 201 {object} domain.Order
// @Failure 409 {object} ProblemDetails
// @Failure 500 {object} ProblemDetails
// @Router /checkout [post]
func (h *OrderHandler) Checkout(c echo.Context) error {
	container, err := sessionContainer(c, h.sessions)
	if err != nil {
		return writeError(c, err, "Failed to load session")
	}

	order, err := h.checkout.PlaceOrder(c.Request().Context(), container)
	if err != nil {
		return writeError(c, err, "Failed to place order")
	}
	return c.JSON(http.StatusCreated, order)
}

// ListMyOrders godoc
// @Summary List the signed-in customer's orders
// @Tags orders
// @Produce json
// @Success 200 {array} domain.Order
// @Failure 401 {object} ProblemDetails
// @Router /orders [get]
func (h *OrderHandler) ListMyOrders(c echo.Context) error {
	container, err := sessionContainer(c, h.sessions)
	if err != nil {
		return writeError(c, err, "Failed to load session")
	}
	user := container.User()
	if user == nil {
		return NewUnauthorizedError(c, "Login required")
	}

	orders, err := h.checkout.CustomerOrders(c.Request().Context(), user.ID)
	if err != nil {
		return writeError(c, err, "Failed to list orders")
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	return c.JSON(http.StatusOK, orders)
}

// ListOrders handles GET /api/v1/admin/orders
func (h *OrderHandler) ListOrders(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	orders, err := h.checkout.ListOrders(c.Request().Context(), limit, offset)
	if err != nil {
		return writeError(c, err, "Failed to list orders")
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	return c.JSON(http.StatusOK, orders)
}

// UpdateOrderStatus godoc
// @Summary Change an order's status
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param request body UpdateOrderStatusRequest true "New status"
// @Success 200 {object} domain.Order
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /admin/orders/{id}/status [patch]
func (h *OrderHandler) UpdateOrderStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid order ID", []ValidationError{
			{Field: "id", Message: "Must be a valid UUID"},
		})
	}

	var req UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	order, err := h.checkout.UpdateStatus(c.Request().Context(), id, domain.OrderStatus(req.Status))
	if err != nil {
		return writeError(c, err, "Failed to update order")
	}

	log.Info().
		Str("order_id", order.ID.String()).
		Str("status", string(order.Status)).
		Msg("Order status updated")

	return c.JSON(http.StatusOK, order)
}
