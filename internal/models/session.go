package models

import "time"

// Role is the storefront persona of a signed-in user.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleDriver   Role = "driver"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleVendor, RoleDriver:
		return true
	}
	return false
}

// Session binds an opaque storefront token to an upstream identity.
type Session struct {
	Token         string    `json:"token"`
	UserID        string    `json:"user_id"`
	Role          Role      `json:"role"`
	Name          string    `json:"name,omitempty"`
	UpstreamToken string    `json:"upstream_token"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// User is the profile returned by the upstream user API.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Role  Role   `json:"role"`
}

// LoginRequest is the credential payload forwarded upstream.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     Role   `json:"role" binding:"required"`
}

// LoginResponse is what the storefront returns after a successful login.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}
