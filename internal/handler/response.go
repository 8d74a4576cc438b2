package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lorahalle/storefront/storefront-backend/internal/domain"
	"github.com/lorahalle/storefront/storefront-backend/internal/service"
	"github.com/lorahalle/storefront/storefront-backend/internal/store"
	"github.com/rs/zerolog/log"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation         = "https://lorahalle.com/errors/validation"
	ErrorTypeNotFound           = "https://lorahalle.com/errors/not-found"
	ErrorTypeUnauthorized       = "https://lorahalle.com/errors/unauthorized"
	ErrorTypeForbidden          = "https://lorahalle.com/errors/forbidden"
	ErrorTypeConflict           = "https://lorahalle.com/errors/conflict"
	ErrorTypeServiceUnavailable = "https://lorahalle.com/errors/service-unavailable"
	ErrorTypeInternal           = "https://lorahalle.com/errors/internal"
)

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     ErrorTypeValidation,
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errors,
	})
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return c.JSON(http.StatusNotFound, ProblemDetails{
		Type:     ErrorTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return c.JSON(http.StatusUnauthorized, ProblemDetails{
		Type:     ErrorTypeUnauthorized,
		Title:    "Unauthorized",
		Status:   http.StatusUnauthorized,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewForbiddenError creates a forbidden error response
func NewForbiddenError(c echo.Context, detail string) error {
	return c.JSON(http.StatusForbidden, ProblemDetails{
		Type:     ErrorTypeForbidden,
		Title:    "Forbidden",
		Status:   http.StatusForbidden,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, detail string) error {
	return c.JSON(http.StatusConflict, ProblemDetails{
		Type:     ErrorTypeConflict,
		Title:    "Conflict",
		Status:   http.StatusConflict,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewServiceUnavailableError creates a service unavailable error response
func NewServiceUnavailableError(c echo.Context, detail string) error {
	return c.JSON(http.StatusServiceUnavailable, ProblemDetails{
		Type:     ErrorTypeServiceUnavailable,
		Title:    "Service Unavailable",
		Status:   http.StatusServiceUnavailable,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return c.JSON(http.StatusInternalServerError, ProblemDetails{
		Type:     ErrorTypeInternal,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// productFieldErrors maps product validation errors to the offending field
var productFieldErrors = []struct {
	err   error
	field string
}{
	{domain.ErrProductIDEmpty, "id"},
	{domain.ErrProductIDTooLong, "id"},
	{domain.ErrProductNameEmpty, "name"},
	{domain.ErrProductNameTooLong, "name"},
	{domain.ErrProductPriceNegative, "price"},
	{domain.ErrProductOriginalPrice, "originalPrice"},
}

var imageFieldErrors = []error{
	service.ErrImageTooLarge,
	service.ErrInvalidFormat,
	service.ErrImageTooSmall,
	service.ErrInvalidImageData,
}

// writeError maps a domain or service error to its problem response.
// Anything unrecognised is logged and reported as an internal error.
func writeError(c echo.Context, err error, fallback string) error {
	for _, fe := range productFieldErrors {
		if errors.Is(err, fe.err) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: fe.field, Message: fe.err.Error()},
			})
		}
	}
	for _, ie := range imageFieldErrors {
		if errors.Is(err, ie) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: ie.Error()},
			})
		}
	}

	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		return NewNotFoundError(c, "Product not found")
	case errors.Is(err, domain.ErrOrderNotFound):
		return NewNotFoundError(c, "Order not found")
	case errors.Is(err, domain.ErrNotFound):
		return NewNotFoundError(c, "Resource not found")
	case errors.Is(err, domain.ErrEmptyCart):
		return NewConflictError(c, "Cart is empty")
	case errors.Is(err, domain.ErrInvalidOrderFlow):
		return NewConflictError(c, err.Error())
	case errors.Is(err, domain.ErrInvalidQuantity):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "quantity", Message: domain.ErrInvalidQuantity.Error()},
		})
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, err.Error(), nil)
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrMalformedRecord):
		return NewUnauthorizedError(c, "Invalid credentials")
	case errors.Is(err, domain.ErrForbidden):
		return NewForbiddenError(c, "Forbidden")
	case errors.Is(err, store.ErrNoAuthProvider), errors.Is(err, service.ErrImageStorageNotConfigured):
		return NewServiceUnavailableError(c, err.Error())
	}

	log.Error().Err(err).Str("path", c.Request().URL.Path).Msg(fallback)
	return NewInternalError(c, fallback)
}
