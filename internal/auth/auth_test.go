package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lorahalle/storefront/storefront-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestParseBearer(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid", "Bearer abc.def", "abc.def", false},
		{"lowercase scheme", "bearer abc", "abc", false},
		{"empty", "", "", true},
		{"wrong scheme", "Basic abc", "", true},
		{"no token", "Bearer ", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBearer(tt.header)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrUnauthorized)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenContext(t *testing.T) {
	assert.Empty(t, TokenFromContext(context.Background()))
	ctx := WithToken(context.Background(), "tok")
	assert.Equal(t, "tok", TokenFromContext(ctx))
}

func TestHMACProvider_RoundTrip(t *testing.T) {
	p := NewHMACProvider(testSecret)
	admin := domain.User{ID: "u2", Name: "Admin", Email: "admin@lorahalle.com", Role: domain.RoleAdmin}

	token, err := p.IssueToken(admin, time.Hour)
	require.NoError(t, err)

	user, err := p.Login(WithToken(context.Background(), token))
	require.NoError(t, err)
	assert.Equal(t, admin.ID, user.ID)
	assert.Equal(t, admin.Email, user.Email)
	assert.True(t, user.IsAdmin())
}

func TestHMACProvider_IssueTokenRejectsGuestID(t *testing.T) {
	p := NewHMACProvider(testSecret)

	_, err := p.IssueToken(domain.User{ID: domain.GuestCustomerID, Role: domain.RoleUser}, time.Hour)
	assert.ErrorIs(t, err, domain.ErrMalformedRecord)
}

func TestHMACProvider_Rejects(t *testing.T) {
	p := NewHMACProvider(testSecret)
	user := domain.User{ID: "u1", Role: domain.RoleUser}

	t.Run("missing token", func(t *testing.T) {
		_, err := p.Login(context.Background())
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewHMACProvider("ffffffffffffffffffffffffffffffff")
		token, err := other.IssueToken(user, time.Hour)
		require.NoError(t, err)
		_, err = p.Login(WithToken(context.Background(), token))
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("expired", func(t *testing.T) {
		issuer := NewHMACProvider(testSecret)
		issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, err := issuer.IssueToken(user, time.Hour)
		require.NoError(t, err)
		_, err = p.Login(WithToken(context.Background(), token))
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		claims := HMACClaims{Role: "user", RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			Issuer:    HMACIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = p.Login(WithToken(context.Background(), token))
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestHMACProvider_UnknownRoleDowngrades(t *testing.T) {
	p := NewHMACProvider(testSecret)
	claims := HMACClaims{Role: "superuser", RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u3",
		Issuer:    HMACIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	user, err := p.Login(WithToken(context.Background(), token))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, user.Role)
}

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider(DemoUser)

	user, err := p.Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "Sophia Laurent", user.Name)

	user.Name = "changed"
	again, _ := p.Login(context.Background())
	assert.Equal(t, "Sophia Laurent", again.Name)
	assert.NoError(t, again.Validate())
}
