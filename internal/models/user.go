// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Role distinguishes regular accounts from administrators.
type Role string

const (
	// RoleRegular is the default role for a freshly signed-up account.
	RoleRegular Role = "regular"
	// RoleAdmin grants moderation capabilities. Admins are ban-immune.
	RoleAdmin Role = "admin"
)

// User represents an account. The username is the identity key and is
// immutable for the lifetime of the account.
type User struct {
	Username     string      `json:"username"`
	PasswordHash string      `json:"-"`
	Role         Role        `json:"role"`
	Banned       bool        `json:"banned"`
	Following    []string    `json:"following"`
	Followers    []string    `json:"followers"`
	LoginHistory []time.Time `json:"login_history,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Follows reports whether the user currently follows target.
func (u *User) Follows(target string) bool {
	for _, name := range u.Following {
		if name == target {
			return true
		}
	}
	return false
}
