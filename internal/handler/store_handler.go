package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/lorahalle/storefront/storefront-backend/internal/domain"
	"github.com/lorahalle/storefront/storefront-backend/internal/middleware"
	"github.com/lorahalle/storefront/storefront-backend/internal/service"
	"github.com/lorahalle/storefront/storefront-backend/internal/store"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// StoreHandler serves the cart, wishlist and drawer of the caller's session
type StoreHandler struct {
	sessions middleware.ContainerProvider
	catalog  *service.CatalogService
	taxRate  decimal.Decimal
}

// NewStoreHandler creates a new StoreHandler
func NewStoreHandler(sessions middleware.ContainerProvider, catalog *service.CatalogService, taxRate decimal.Decimal) *StoreHandler {
	return &StoreHandler{
		sessions: sessions,
		catalog:  catalog,
		taxRate:  taxRate,
	}
}

// AddCartItemRequest represents the add to cart request body
type AddCartItemRequest struct {
	ProductID string `json:"productId"`
}

// UpdateCartItemRequest represents the update quantity request body
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" minimum:"1" maximum:"999"`
}

// CartResponse represents the cart in API responses
type CartResponse struct {
	Items []domain.CartLine `json:"items"`
	Total int64             `json:"total"`
	Count int               `json:"count"`
}

// DrawerResponse represents the cart drawer state
type DrawerResponse struct {
	IsCartOpen bool `json:"isCartOpen"`
}

// WishlistResponse represents the wishlist in API responses
type WishlistResponse struct {
	Items []domain.Product `json:"items"`
	Count int              `json:"count"`
}

// WishlistMembershipResponse reports whether a product is wishlisted
type WishlistMembershipResponse struct {
	ProductID  string `json:"productId"`
	InWishlist bool   `json:"inWishlist"`
}

// sessionContainer resolves the container of the request's session
func sessionContainer(c echo.Context, sessions middleware.ContainerProvider) (*store.Container, error) {
	return sessions.Container(c.Request().Context(), middleware.GetSessionID(c))
}

func cartResponse(container *store.Container) CartResponse {
	items := container.Cart()
	return CartResponse{
		Items: items,
		Total: domain.CartTotal(items),
		Count: domain.CartItemCount(items),
	}
}

// GetStore godoc
// @Summary Get store state
// @Description Cart, wishlist, session user and drawer flag of the current session
// @Tags store
// @Produce json
// @Success 200 {object} store.View
// @Failure 500 {object} ProblemDetails
// @Router /store [get]
func (h *StoreHandler) GetStore(c echo.Context) error {
	container, err := sessionContainer(c, h.sessions)
	if err != nil {
		return writeError(c, err, "Failed to load session")
	}
	return c.JSON(http.StatusOK, container.Snapshot())
}

// GetSummary godoc
// @Summary Get cart summary
// @Description Subtotal, estimated tax and total of the current cart
// @Tags store
// @Produce json
// @Success 200 {object} domain.CartSummary
// @Router /store/summary [get]
func (h *StoreHandler) GetSummary(c echo.Context) error {
	container, err := sessionContainer(c, h.sessions)
	if err != nil {
		return writeError(c, err, "Failed to load session")
	}
	return c.JSON(http.StatusOK, container.Summary(h.taxRate))
}

// GetCart handles GET /api/v1/cart
func (h *StoreHandler) GetCart(c echo.Context) error {
	container, err := sessionContainer(c, h.sessions)
	if err != nil {
		return writeError(c, err, "Failed to load session")
	}
	return c.JSON(http.StatusOK, cartResponse(container))
}

// AddCartItem godoc
// @Summary Add a product to the cart
// @Description Increments the line for the product or adds it with quantity 1, and opens the drawer
// @Tags cart
// @Accept json
// @Produce json
// @Param request body AddCartItemRequest true "Product to add"
// @Success 200 {object} CartResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /cart/items [post]
func (h *StoreHandler) AddCartItem(c echo.Context) error {
	var req AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "productId", Message: "Product ID is required"},
		})
	}

	container, err := sessionContainer(c, h.sessions)
	if err != nil {
		return writeError(c, err, "Failed to load session")
	}

	product, err := h.catalog.GetProduct(c.Request().Context(), req.ProductID)
	if err != nil {
		return writeError(c, err, "Failed to add to cart")
	}

	line := container.AddToCart(c.Request().Context(), *product)

	log.Info().
		Str("session_id", container.SessionID()).
		Str("product_id", product.ID).
		Int("quantity", line.Quantity).
		Msg("Product added to cart")

	return c.JSON(http.StatusOK, cartResponse(container))
}

// UpdateCartItem godoc
// @Summary Set a cart line quantity
// @Tags cart
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param request body UpdateCartItemRequest true "New quantity"
// @Success 200 {object} CartResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /cart/items/{id} [put]
func (h *StoreHandler) UpdateCartItem(c echo.Context) error {
	var req UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if !domain.ValidQuantity(req.Quantity) {
		return writeError(c, domain.ErrInvalidQuantity, "Failed to update cart")
	}

	container, err := sessionContainer(c, h.sessions)
	if err != nil {
		return writeError(c, err, "Failed to load session")
	}

	if !container.UpdateQuantity(c.Request().Context(), c.Param("id"), req.Quantity) {
		return NewNotFoundError(c, "Product is not in the cart")
	}
	return c.JSON(http.StatusOK, cartResponse(container))
}

// RemoveCartItem handles DELETE /api/v1/cart/items/:id
func (h *StoreHandler) RemoveCartItem(c echo.Context) error {
	container, err := sessionContainer(c, h.sessions)
	if err != nil {
		return writeError(c, err, "Failed to load session")
	}

	if !container.RemoveFromCart(c.Request().Context(), c.Param("id")) {
		return NewNotFoundError(c, "Product is not in the cart")
	}
	return c.JSON(http.StatusOK, cartResponse(container))
}

// ClearCart handles DELETE /api/v1/cart
func (h *StoreHandler) ClearCart(c echo.Context) error {
	container, err := sessionContainer(c, h.sessions)
	if err != nil {
		return writeError(c, err, "Failed to load session")
	}
	container.ClearCart(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

// OpenCart handles POST /api/v1/cart/open
func (h *StoreHandler) OpenCart(c echo.Context) error {
	container, err := sessionContainer(c, h.sessions)
	if err != nil {
		return writeError(c, err, "Failed to load session")
	}
	container.OpenCart()
	return c.JSON(http.StatusOK, DrawerResponse{IsCartOpen: container.IsCartOpen()})
}

// CloseCart handles POST /api/v1/cart/close
func (h *StoreHandler) CloseCart(c echo.Context) error {
	container, err := sessionContainer(c, h.sessions)
	if err != nil {
		return writeError(c, err, "Failed to load session")
	}
	container.CloseCart()
	return c.JSON(http.StatusOK, DrawerResponse{IsCartOpen: container.IsCartOpen()})
}

// GetWishlist handles GET /api/v1/wishlist
func (h *StoreHandler) GetWishlist(c echo.Context) error {
	container, err := sessionContainer(c, h.sessions)
	if err != nil {
		return writeError(c, err, "Failed to load session")
	}
	items := container.Wishlist()
	return c.JSON(http.StatusOK, WishlistResponse{Items: items, Count: len(items)})
}

// ToggleWishlist godoc
// @Summary Toggle a product on the wishlist
// @Tags wishlist
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} WishlistMembershipResponse
// @Failure 404 {object} ProblemDetails
// @Router /wishlist/{id}/toggle [post]
func (h *StoreHandler) ToggleWishlist(c echo.Context) error {
	container, err := sessionContainer(c, h.sessions)
	if err != nil {
		return writeError(c, err, "Failed to load session")
	}

	product, err := h.catalog.GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err, "Failed to update wishlist")
	}

	member := container.ToggleWishlist(c.Request().Context(), *product)
	return c.JSON(http.StatusOK, WishlistMembershipResponse{ProductID: product.ID, InWishlist: member})
}

// GetWishlistItem handles GET /api/v1/wishlist/:id
func (h *StoreHandler) GetWishlistItem(c echo.Context) error {
	container, err := sessionContainer(c, h.sessions)
	if err != nil {
		return writeError(c, err, "Failed to load session")
	}
	id := c.Param("id")
	return c.JSON(http.StatusOK, WishlistMembershipResponse{ProductID: id, InWishlist: container.IsInWishlist(id)})
}
