package models

import "time"

// User represents an application user account.
// Password holds the bcrypt hash and is never serialized.
type User struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Password   string    `json:"-"`
	TOTPSecret string    `json:"-"`
	Role       string    `json:"role"` // 'user', 'admin'
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Role constants for user accounts.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleUser, RoleAdmin}

// IsValidRole checks if the given role is valid.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// HasTOTP reports whether two-factor authentication is active for the user.
func (u *User) HasTOTP() bool {
	return u.TOTPSecret != ""
}

// UserFilter narrows List queries. Zero values mean "no filter".
type UserFilter struct {
	Name  string
	Email string
	Skip  int
	Limit int
}
