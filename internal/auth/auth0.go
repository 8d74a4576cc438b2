package auth

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/lorahalle/storefront/storefront-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoleClaim is the namespaced custom claim carrying the storefront role
const RoleClaim = "https://lorahalle.com/role"

// CustomClaims contains the custom claims from Auth0 JWT
type CustomClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Role    string `json:"https://lorahalle.com/role"`
}

// Validate implements validator.CustomClaims
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// Auth0Provider signs users in with RS256 access tokens issued by Auth0
type Auth0Provider struct {
	validator *validator.Validator
}

// NewAuth0Provider creates a provider validating tokens against the tenant JWKS
func NewAuth0Provider(tenant, audience string) (*Auth0Provider, error) {
	issuerURL, err := url.Parse("https://" + tenant + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	return &Auth0Provider{validator: jwtValidator}, nil
}

// Login validates the token in ctx and maps its claims to a user
func (p *Auth0Provider) Login(ctx context.Context) (*domain.User, error) {
	token, err := requireToken(ctx)
	if err != nil {
		return nil, err
	}

	claims, err := p.validator.ValidateToken(ctx, token)
	if err != nil {
		log.Debug().Err(err).Msg("Token validation failed")
		return nil, fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return nil, fmt.Errorf("%w: invalid claims", domain.ErrUnauthorized)
	}

	user := &domain.User{ID: validatedClaims.RegisteredClaims.Subject, Role: domain.RoleUser}
	if custom, ok := validatedClaims.CustomClaims.(*CustomClaims); ok {
		user.Name = custom.Name
		user.Email = custom.Email
		user.Avatar = custom.Picture
		user.Role = roleOrDefault(custom.Role)
	}
	return user, nil
}

// Logout is a no-op: Auth0 sessions end in the browser
func (p *Auth0Provider) Logout(ctx context.Context) {}
