package domain

import (
	"errors"
	"time"
)

// User is the core storefront account entity.
type User struct {
	ID          string
	Email       string
	Name        string
	Roles       []string
	Status      UserStatus
	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// DefaultRoles is assigned to accounts created through self-registration.
var DefaultRoles = []string{"user"}

// Credentials carries what the login flow needs to check a password without
// loading the full user row.
type Credentials struct {
	UserID       string
	PasswordHash string
	Status       UserStatus
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.Name == "" {
		return errors.New("name is required")
	}
	if len(u.Roles) == 0 {
		u.Roles = DefaultRoles
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	return nil
}
