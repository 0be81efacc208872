package model

import (
	"github.com/google/uuid"
)

// Role is a named identity tier. Roles are seeded at bootstrap and immutable
// thereafter; users reference them, never own them.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleHR     Role = "hr"
	RoleDoctor Role = "doctor"
	RoleStaff  Role = "staff"
)

// User represents a system actor with exactly one role.
type User struct {
	Base
	Email        string `json:"email" db:"email"`
	FullName     string `json:"full_name" db:"full_name"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         Role   `json:"role" db:"role"`
	IsActive     bool   `json:"is_active" db:"is_active"`
}

// Actor is the authenticated identity threaded through every protected
// operation. It is rebuilt per request with the role fetched fresh from the
// store, never decoded from a long-lived credential.
type Actor struct {
	UserID   uuid.UUID
	Role     Role
	IsActive bool
}

// IsAdmin reports whether the actor holds the universal-superset role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required,max=255"`
	Password string `json:"password" validate:"required,min=8"`
	Role     Role   `json:"role" validate:"required,oneof=admin hr doctor staff"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user"`
}
