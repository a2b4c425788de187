package models

import "time"

// User statuses (soft delete).
const (
	UserActive   = 1
	UserInactive = 2
)

// Roles.
const (
	RoleClient = "client"
	RoleAdmin  = "admin"
)

// User represents a login in the system
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Not serialized
	Role         string    `json:"role"`
	Status       int       `json:"status"` // 1=active, 2=inactive
	ClientID     int64     `json:"client_id"`
	RegisteredAt time.Time `json:"registered_at"`
}

// PasswordResetToken is a single-use, short-lived reset credential.
type PasswordResetToken struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
}
