package domain

import (
	"strings"
	"time"
)

type CreateUserInput struct {
	Email    string   `json:"email" validate:"required,email,max=255"`
	Name     string   `json:"name" validate:"required,max=120"`
	Password string   `json:"password" validate:"required,min=8,max=128"`
	Role     UserRole `json:"role,omitempty" validate:"omitempty,oneof=USER ADMIN MODERATOR"`
}

type UpdateUserInput struct {
	Name        *string     `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Status      *UserStatus `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE INACTIVE SUSPENDED VIP"`
	Role        *UserRole   `json:"role,omitempty" validate:"omitempty,oneof=USER ADMIN MODERATOR"`
	LastLoginAt *time.Time  `json:"lastLoginAt,omitempty"`
}

// Fields returns only the supplied attributes, keyed by domain field name.
func (in UpdateUserInput) Fields() map[string]any {
	out := map[string]any{}
	if in.Name != nil {
		out[FieldName] = strings.TrimSpace(*in.Name)
	}
	if in.Status != nil {
		out[FieldStatus] = *in.Status
	}
	if in.Role != nil {
		out[FieldRole] = *in.Role
	}
	if in.LastLoginAt != nil {
		out[FieldLastLoginAt] = in.LastLoginAt.UTC()
	}
	return out
}

type CreateProfileInput struct {
	FirstName   string           `json:"firstName" validate:"required,max=100"`
	LastName    string           `json:"lastName" validate:"required,max=100"`
	Phone       string           `json:"phone,omitempty" validate:"omitempty,max=32"`
	Bio         string           `json:"bio,omitempty" validate:"omitempty,max=1000"`
	Address     *Address         `json:"address,omitempty" validate:"omitempty"`
	Preferences *UserPreferences `json:"preferences,omitempty" validate:"omitempty"`
}

type UpdateProfileInput struct {
	FirstName   *string          `json:"firstName,omitempty" validate:"omitempty,min=1,max=100"`
	LastName    *string          `json:"lastName,omitempty" validate:"omitempty,min=1,max=100"`
	Avatar      *string          `json:"avatar,omitempty" validate:"omitempty,max=512"`
	Bio         *string          `json:"bio,omitempty" validate:"omitempty,max=1000"`
	Phone       *string          `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address     *Address         `json:"address,omitempty" validate:"omitempty"`
	Preferences *UserPreferences `json:"preferences,omitempty" validate:"omitempty"`
}

func (in UpdateProfileInput) Fields() map[string]any {
	out := map[string]any{}
	if in.FirstName != nil {
		out[FieldFirstName] = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		out[FieldLastName] = strings.TrimSpace(*in.LastName)
	}
	if in.Avatar != nil {
		out[FieldAvatar] = *in.Avatar
	}
	if in.Bio != nil {
		out[FieldBio] = *in.Bio
	}
	if in.Phone != nil {
		out[FieldPhone] = *in.Phone
	}
	if in.Address != nil {
		out[FieldAddress] = in.Address
	}
	if in.Preferences != nil {
		out[FieldPreferences] = *in.Preferences
	}
	return out
}
