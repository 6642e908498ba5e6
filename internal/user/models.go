// Package user manages login accounts (usuarios) and their sessions.
package user

import "time"

const (
	RoleAdmin    = "admin"
	RoleFraterno = "fraterno"
)

// User is a usuarios row. The password hash never leaves the package.
type User struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Role       string    `json:"role"`
	FraternoID *int64    `json:"fraterno_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	passwordHash string
}

// PasswordHash exposes the stored hash to store implementations.
func (u *User) PasswordHash() string { return u.passwordHash }

// SetPasswordHash is used by stores when loading a row.
func (u *User) SetPasswordHash(h string) { u.passwordHash = h }

func validRole(r string) bool {
	return r == RoleAdmin || r == RoleFraterno
}

// Session is one active login. Device is a human-readable description parsed
// from the User-Agent at login time.
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Device    string    `json:"device"`
	ClientIP  string    `json:"client_ip"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
