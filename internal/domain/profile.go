package domain

import "time"

type Theme string

const (
	ThemeLight Theme = "LIGHT"
	ThemeDark  Theme = "DARK"
)

const (
	FieldUserID      = "userId"
	FieldFirstName   = "firstName"
	FieldLastName    = "lastName"
	FieldAvatar      = "avatar"
	FieldBio         = "bio"
	FieldPhone       = "phone"
	FieldAddress     = "address"
	FieldPreferences = "preferences"
)

type GeoPoint struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

type Address struct {
	Street   string    `json:"street" validate:"required,max=200"`
	City     string    `json:"city" validate:"required,max=100"`
	State    string    `json:"state" validate:"required,max=100"`
	ZipCode  string    `json:"zipCode" validate:"required,max=20"`
	Country  string    `json:"country" validate:"required,max=100"`
	Location *GeoPoint `json:"location,omitempty" validate:"omitempty"`
}

type UserPreferences struct {
	Notifications bool  `json:"notifications"`
	Newsletter    bool  `json:"newsletter"`
	Theme         Theme `json:"theme" validate:"omitempty,oneof=LIGHT DARK"`
}

func DefaultPreferences() UserPreferences {
	return UserPreferences{Notifications: true, Newsletter: false, Theme: ThemeLight}
}

// UserProfile is owned by a user (1:1 through UserID) but stored in its own
// collection or table.
type UserProfile struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	FirstName   string          `json:"firstName"`
	LastName    string          `json:"lastName"`
	Avatar      string          `json:"avatar,omitempty"`
	Bio         string          `json:"bio,omitempty"`
	Phone       string          `json:"phone,omitempty"`
	Address     *Address        `json:"address,omitempty"`
	Preferences UserPreferences `json:"preferences"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (p *UserProfile) GetID() string { return p.ID }

func (p *UserProfile) Touch(now time.Time) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
}
