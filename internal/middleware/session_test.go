package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/lorahalle/storefront/storefront-backend/internal/domain"
	"github.com/lorahalle/storefront/storefront-backend/internal/store"
	"github.com/lorahalle/storefront/storefront-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runSession(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, string, string) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	var fromEcho, fromCtx string
	handler := func(c echo.Context) error {
		fromEcho = GetSessionID(c)
		fromCtx = SessionIDFromContext(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	}
	require.NoError(t, Session(SessionOptions{Secure: true})(handler)(e.NewContext(req, rec)))
	return rec, fromEcho, fromCtx
}

func TestSession_UsesCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "s1"})
	req.Header.Set(SessionHeader, "ignored")

	rec, id, ctxID := runSession(t, req)

	assert.Equal(t, "s1", id)
	assert.Equal(t, "s1", ctxID)
	assert.Empty(t, rec.Header().Get("Set-Cookie"))
}

func TestSession_UsesHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(SessionHeader, "from-header")

	_, id, _ := runSession(t, req)

	assert.Equal(t, "from-header", id)
}

func TestSession_IssuesCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)

	rec, id, _ := runSession(t, req)

	require.NotEmpty(t, id)
	cookie := rec.Header().Get("Set-Cookie")
	assert.True(t, strings.HasPrefix(cookie, SessionCookieName+"="+id))
	assert.Contains(t, cookie, "HttpOnly")
	assert.Contains(t, cookie, "Secure")
}

func TestSession_RejectsOversizedID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(SessionHeader, strings.Repeat("x", maxSessionIDLength+1))

	rec, id, _ := runSession(t, req)

	assert.NotEqual(t, strings.Repeat("x", maxSessionIDLength+1), id)
	assert.NotEmpty(t, rec.Header().Get("Set-Cookie"))
}

type stubSessions struct {
	container *store.Container
	err       error
}

func (s *stubSessions) Container(ctx context.Context, sessionID string) (*store.Container, error) {
	return s.container, s.err
}

func newSessionContainer(t *testing.T, user *domain.User) *store.Container {
	t.Helper()
	ctx := context.Background()
	c, err := store.New(ctx, "s1", testutil.NewMockSnapshotStore(),
		store.WithAuthProvider(&testutil.MockAuthProvider{User: user}))
	require.NoError(t, err)
	if user != nil {
		_, err = c.Login(ctx)
		require.NoError(t, err)
	}
	return c
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name       string
		user       *domain.User
		wantStatus int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"customer", &domain.User{ID: "u1", Email: "a@b.c", Name: "A", Role: domain.RoleUser}, http.StatusForbidden},
		{"admin", &domain.User{ID: "u2", Email: "x@y.z", Name: "X", Role: domain.RoleAdmin}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.Set(string(SessionIDKey), "s1")

			sessions := &stubSessions{container: newSessionContainer(t, tt.user)}
			handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

			require.NoError(t, RequireAdmin(sessions)(handler)(c))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRequireAdmin_LoadFailure(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	sessions := &stubSessions{err: domain.ErrSessionRequired}
	handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	require.NoError(t, RequireAdmin(sessions)(handler)(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
