package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/lorahalle/storefront/storefront-backend/internal/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Handlers groups the HTTP handlers served under /api/v1
type Handlers struct {
	Store     *StoreHandler
	Session   *SessionHandler
	Catalog   *CatalogHandler
	Order     *OrderHandler
	WebSocket *WebSocketHandler
}

// RegisterRoutes sets up all API routes. Every API route runs inside a
// session; admin routes additionally require an admin session user.
func RegisterRoutes(e *echo.Echo, sessionMiddleware echo.MiddlewareFunc, rateLimiter *middleware.RateLimiter, sessions middleware.ContainerProvider, h Handlers) {
	// API docs
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/openapi.json", ServeOpenAPI)

	// API version 1
	api := e.Group("/api/v1", middleware.RateLimitMiddleware(rateLimiter), sessionMiddleware)

	// Store snapshot
	api.GET("/store", h.Store.GetStore)
	api.GET("/store/summary", h.Store.GetSummary)

	// Cart routes
	cart := api.Group("/cart")
	cart.GET("", h.Store.GetCart)
	cart.DELETE("", h.Store.ClearCart)
	cart.POST("/items", h.Store.AddCartItem)
	cart.PUT("/items/:id", h.Store.UpdateCartItem)
	cart.DELETE("/items/:id", h.Store.RemoveCartItem)
	cart.POST("/open", h.Store.OpenCart)
	cart.POST("/close", h.Store.CloseCart)

	// Wishlist routes
	wishlist := api.Group("/wishlist")
	wishlist.GET("", h.Store.GetWishlist)
	wishlist.GET("/:id", h.Store.GetWishlistItem)
	wishlist.POST("/:id/toggle", h.Store.ToggleWishlist)

	// Session routes
	session := api.Group("/session")
	session.GET("", h.Session.Me)
	session.POST("/login", h.Session.Login)
	session.POST("/logout", h.Session.Logout)

	// Catalog routes
	api.GET("/products", h.Catalog.ListProducts)
	api.GET("/products/:id", h.Catalog.GetProduct)

	// Checkout and order routes
	api.POST("/checkout", h.Order.Checkout)
	api.GET("/orders", h.Order.ListMyOrders)

	// Admin routes
	admin := api.Group("/admin", middleware.RequireAdmin(sessions))
	admin.PUT("/products/:id", h.Catalog.SaveProduct)
	admin.DELETE("/products/:id", h.Catalog.DeleteProduct)
	admin.POST("/products/:id/image", h.Catalog.UploadProductImage)
	admin.GET("/orders", h.Order.ListOrders)
	admin.PATCH("/orders/:id/status", h.Order.UpdateOrderStatus)

	// Live store events
	api.GET("/ws", h.WebSocket.HandleWS)
}
