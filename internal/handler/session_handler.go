package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lorahalle/storefront/storefront-backend/internal/auth"
	"github.com/lorahalle/storefront/storefront-backend/internal/domain"
	"github.com/lorahalle/storefront/storefront-backend/internal/middleware"
	"github.com/rs/zerolog/log"
)

// SessionHandler handles login and logout of the session user
type SessionHandler struct {
	sessions middleware.ContainerProvider
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(sessions middleware.ContainerProvider) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// SessionResponse represents the session user in API responses
type SessionResponse struct {
	SessionID     string       `json:"sessionId"`
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user"`
}

// Login godoc
// @Summary Sign in
// @Description Verifies the bearer credential with the configured identity provider and installs the user on the session
// @Tags session
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SessionResponse
// @Failure 401 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Router /session/login [post]
func (h *SessionHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	// Demo mode needs no credential, so a missing header is left to the provider
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		token, err := auth.ParseBearer(header)
		if err != nil {
			return NewUnauthorizedError(c, "Invalid authorization header format")
		}
		ctx = auth.WithToken(ctx, token)
	}

	container, err := sessionContainer(c, h.sessions)
	if err != nil {
		return writeError(c, err, "Failed to load session")
	}

	user, err := container.Login(ctx)
	if err != nil {
		log.Debug().Err(err).Str("session_id", container.SessionID()).Msg("Login rejected")
		return writeError(c, err, "Failed to sign in")
	}

	return c.JSON(http.StatusOK, SessionResponse{
		SessionID:     container.SessionID(),
		Authenticated: true,
		User:          user,
	})
}

// Logout handles POST /api/v1/session/logout
func (h *SessionHandler) Logout(c echo.Context) error {
	container, err := sessionContainer(c, h.sessions)
	if err != nil {
		return writeError(c, err, "Failed to load session")
	}
	container.Logout(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

// Me handles GET /api/v1/session
func (h *SessionHandler) Me(c echo.Context) error {
	container, err := sessionContainer(c, h.sessions)
	if err != nil {
		return writeError(c, err, "Failed to load session")
	}
	user := container.User()
	return c.JSON(http.StatusOK, SessionResponse{
		SessionID:     container.SessionID(),
		Authenticated: user != nil,
		User:          user,
	})
}
