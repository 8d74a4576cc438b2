package handler

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionHandler_LoginLogout(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/session/login", "s1", "", echo.HeaderAuthorization, "Bearer "+userToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var session SessionResponse
	decode(t, rec, &session)
	assert.True(t, session.Authenticated)
	assert.Equal(t, "s1", session.SessionID)
	require.NotNil(t, session.User)
	assert.Equal(t, testCustomer.ID, session.User.ID)

	decode(t, api.do(t, http.MethodGet, "/api/v1/session", "s1", ""), &session)
	assert.True(t, session.Authenticated)

	rec = api.do(t, http.MethodPost, "/api/v1/session/logout", "s1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	session = SessionResponse{}
	decode(t, api.do(t, http.MethodGet, "/api/v1/session", "s1", ""), &session)
	assert.False(t, session.Authenticated)
	assert.Nil(t, session.User)
}

func TestSessionHandler_LoginRejected(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name   string
		header string
	}{
		{"no credential", ""},
		{"wrong scheme", "Token " + userToken},
		{"unknown token", "Bearer forged"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var headers []string
			if tt.header != "" {
				headers = []string{echo.HeaderAuthorization, tt.header}
			}
			rec := api.do(t, http.MethodPost, "/api/v1/session/login", "s1", "", headers...)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}

	var session SessionResponse
	decode(t, api.do(t, http.MethodGet, "/api/v1/session", "s1", ""), &session)
	assert.False(t, session.Authenticated)
}

func TestSessionHandler_LoginKeepsCart(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, http.MethodPost, "/api/v1/cart/items", "s1", `{"productId":"tote-1"}`)

	api.login(t, "s1", userToken)

	var cart CartResponse
	decode(t, api.do(t, http.MethodGet, "/api/v1/cart", "s1", ""), &cart)
	assert.Len(t, cart.Items, 1)
}
