package domain

import "errors"

// Domain errors
var (
	ErrNotFound         = errors.New("resource not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrInternalError    = errors.New("internal error")
	ErrProductNotFound  = errors.New("product not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrSessionRequired  = errors.New("session id is required")
	ErrMalformedRecord  = errors.New("malformed record")
	ErrInvalidQuantity  = errors.New("quantity must be between 1 and 999")
	ErrTotalOverflow    = errors.New("cart total out of range")
	ErrInvalidOrderFlow = errors.New("order status transition not allowed")
)

// Validation constants
const (
	MaxProductNameLength = 255
	MaxProductIDLength   = 128
	MaxLineQuantity      = 999
)
