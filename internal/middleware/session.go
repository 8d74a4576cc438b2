package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/lorahalle/storefront/storefront-backend/internal/store"
	"github.com/rs/zerolog/log"
)

const (
	// SessionCookieName is the cookie carrying the browser session id
	SessionCookieName = "sid"
	// SessionHeader lets non-browser clients pass the session id explicitly
	SessionHeader = "X-Session-ID"
	// SessionCookieMaxAge matches the default snapshot retention
	SessionCookieMaxAge = 30 * 24 * time.Hour

	maxSessionIDLength = 128
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// SessionIDKey is the context key for the session id
const SessionIDKey contextKey = "session_id"

// SessionOptions configures the session cookie
type SessionOptions struct {
	Secure bool
}

// Session resolves the session id from the cookie or header and issues a new
// one when neither is present.
func Session(opts SessionOptions) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sessionID := sessionFromRequest(c.Request())
			if sessionID == "" {
				sessionID = uuid.New().String()
				c.SetCookie(&http.Cookie{
					Name:     SessionCookieName,
					Value:    sessionID,
					Path:     "/",
					MaxAge:   int(SessionCookieMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   opts.Secure,
					SameSite: http.SameSiteLaxMode,
				})
				log.Debug().Str("session_id", sessionID).Msg("Issued new session")
			}

			c.Set(string(SessionIDKey), sessionID)
			ctx := context.WithValue(c.Request().Context(), SessionIDKey, sessionID)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

func sessionFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if id := validSessionID(cookie.Value); id != "" {
			return id
		}
	}
	return validSessionID(r.Header.Get(SessionHeader))
}

func validSessionID(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || len(value) > maxSessionIDLength {
		return ""
	}
	return value
}

// GetSessionID returns the session id resolved by Session
func GetSessionID(c echo.Context) string {
	if id, ok := c.Get(string(SessionIDKey)).(string); ok {
		return id
	}
	return SessionIDFromContext(c.Request().Context())
}

// SessionIDFromContext returns the session id stored in ctx, or ""
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(SessionIDKey).(string)
	return id
}

// ContainerProvider resolves the store container for a session
type ContainerProvider interface {
	Container(ctx context.Context, sessionID string) (*store.Container, error)
}

// RequireAdmin only lets sessions logged in as an admin through
func RequireAdmin(sessions ContainerProvider) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sessionID := GetSessionID(c)
			container, err := sessions.Container(c.Request().Context(), sessionID)
			if err != nil {
				log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to load session")
				return internalError(c, "failed to load session")
			}

			user := container.User()
			if user == nil {
				return unauthorizedError(c, "login required")
			}
			if !user.IsAdmin() {
				log.Warn().Str("session_id", sessionID).Str("user_id", user.ID).Msg("Non-admin requested admin route")
				return forbiddenError(c, "admin role required")
			}

			return next(c)
		}
	}
}
