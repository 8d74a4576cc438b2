package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the storefront permission level of a signed-in user
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is the authenticated shopper attached to a session
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Avatar string `json:"avatar"`
}

// IsAdmin reports whether the user may use the back-office
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Validate checks the fields a session cannot be installed without
func (u *User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("%w: user without id", ErrMalformedRecord)
	}
	if u.ID == GuestCustomerID {
		return fmt.Errorf("%w: user id %q is reserved", ErrMalformedRecord, u.ID)
	}
	if !u.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrMalformedRecord, u.Role)
	}
	return nil
}

// DecodeUser parses a persisted session user. Anything that is not a valid
// user object yields an error; the caller treats that as a guest session.
func DecodeUser(data []byte) (*User, error) {
	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	return &user, nil
}
