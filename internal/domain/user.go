package domain

import (
	"strings"
	"time"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusInactive  UserStatus = "INACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
	UserStatusVIP       UserStatus = "VIP"
)

func (s UserStatus) IsValid() bool {
	switch s {
	case UserStatusActive, UserStatusInactive, UserStatusSuspended, UserStatusVIP:
		return true
	default:
		return false
	}
}

type UserRole string

const (
	UserRoleUser      UserRole = "USER"
	UserRoleAdmin     UserRole = "ADMIN"
	UserRoleModerator UserRole = "MODERATOR"
)

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleUser, UserRoleAdmin, UserRoleModerator:
		return true
	default:
		return false
	}
}

// Field names shared by filters, sort keys and partial updates. Storage
// adapters translate them into their own column or document keys.
const (
	FieldID          = "id"
	FieldEmail       = "email"
	FieldName        = "name"
	FieldPassword    = "password"
	FieldStatus      = "status"
	FieldRole        = "role"
	FieldProfileID   = "profileId"
	FieldCreatedAt   = "createdAt"
	FieldUpdatedAt   = "updatedAt"
	FieldLastLoginAt = "lastLoginAt"
)

// User is the account record. Password holds the encoded hash and is never
// serialized.
type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Password    string     `json:"-"`
	Status      UserStatus `json:"status"`
	Role        UserRole   `json:"role"`
	ProfileID   string     `json:"profileId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

func (u *User) GetID() string { return u.ID }

// Touch fills the creation and update timestamps that are still unset.
func (u *User) Touch(now time.Time) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}
}

// Sanitized returns a copy without the password hash.
func (u User) Sanitized() User {
	u.Password = ""
	return u
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
