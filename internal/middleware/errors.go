package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// problemDetails represents an RFC 7807 Problem Details response
type problemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// Error types
const (
	errorTypeUnauthorized = "https://lorahalle.com/errors/unauthorized"
	errorTypeForbidden    = "https://lorahalle.com/errors/forbidden"
	errorTypeRateLimit    = "https://lorahalle.com/errors/rate-limit"
	errorTypeInternal     = "https://lorahalle.com/errors/internal"
)

func problem(c echo.Context, status int, typ, title, detail string) error {
	return c.JSON(status, problemDetails{
		Type:     typ,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// unauthorizedError creates an unauthorized error response
func unauthorizedError(c echo.Context, detail string) error {
	return problem(c, http.StatusUnauthorized, errorTypeUnauthorized, "Unauthorized", detail)
}

func forbiddenError(c echo.Context, detail string) error {
	return problem(c, http.StatusForbidden, errorTypeForbidden, "Forbidden", detail)
}

func internalError(c echo.Context, detail string) error {
	return problem(c, http.StatusInternalServerError, errorTypeInternal, "Internal Server Error", detail)
}
