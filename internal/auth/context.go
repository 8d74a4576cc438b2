// Package auth provides the identity providers behind session login.
// The raw bearer credential travels in the request context.
package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/lorahalle/storefront/storefront-backend/internal/domain"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const tokenKey contextKey = "bearer_token"

// WithToken returns a context carrying the bearer token
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext extracts the bearer token, if any
func TokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(tokenKey).(string); ok {
		return token
	}
	return ""
}

// ParseBearer extracts the token from an Authorization header value
func ParseBearer(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("%w: missing authorization header", domain.ErrUnauthorized)
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", fmt.Errorf("%w: invalid authorization header format", domain.ErrUnauthorized)
	}
	return strings.TrimSpace(parts[1]), nil
}

func requireToken(ctx context.Context) (string, error) {
	token := TokenFromContext(ctx)
	if token == "" {
		return "", fmt.Errorf("%w: no credential presented", domain.ErrUnauthorized)
	}
	return token, nil
}

// roleOrDefault maps a claim to a known role, falling back to a shopper
func roleOrDefault(claim string) domain.Role {
	role := domain.Role(strings.ToLower(claim))
	if role.Valid() {
		return role
	}
	return domain.RoleUser
}
