package domain

import (
	"time"

	"github.com/google/uuid"
)

// Roles understood by the access rules.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// User represents an account in the store
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Roles        []string  `json:"roles" db:"roles"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// EffectiveRoles returns the stored roles plus the base role every
// account holds, deduplicated.
func (u *User) EffectiveRoles() []string {
	roles := make([]string, 0, len(u.Roles)+1)
	seen := make(map[string]bool, len(u.Roles)+1)
	for _, r := range append(append([]string{}, u.Roles...), RoleUser) {
		if !seen[r] {
			seen[r] = true
			roles = append(roles, r)
		}
	}
	return roles
}

// HasRole reports whether the user's effective role set contains role.
func (u *User) HasRole(role string) bool {
	if role == RoleUser {
		return true
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// DisplayName is the public author name shown on comments.
func (u *User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}
