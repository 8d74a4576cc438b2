package auth

import (
	"context"

	"github.com/lorahalle/storefront/storefront-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// DemoUser is the shopper signed in by StaticProvider
var DemoUser = domain.User{
	ID:     "u1",
	Name:   "Sophia Laurent",
	Email:  "sophia@lorahalle.com",
	Role:   domain.RoleUser,
	Avatar: "https://images.unsplash.com/photo-1494790108379-be9c29b29330?w=150&h=150&fit=crop",
}

// StaticProvider signs every session in as the same user without any
// credential. Demo and development only.
type StaticProvider struct {
	user domain.User
}

// NewStaticProvider creates a provider returning user on every login
func NewStaticProvider(user domain.User) *StaticProvider {
	return &StaticProvider{user: user}
}

// Login returns a copy of the configured user
func (p *StaticProvider) Login(ctx context.Context) (*domain.User, error) {
	u := p.user
	log.Debug().Str("user_id", u.ID).Msg("Demo login")
	return &u, nil
}

// Logout does nothing
func (p *StaticProvider) Logout(ctx context.Context) {}
