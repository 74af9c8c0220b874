package sqlrepo

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/domain"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/repository"
)

const (
	usersTable    = "users"
	profilesTable = "user_profiles"
)

type userRecord struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)"`
	Email       string     `gorm:"size:255;not null;uniqueIndex:uniq_users_email"`
	Name        string     `gorm:"size:120;not null"`
	Password    string     `gorm:"size:255;not null"`
	Status      string     `gorm:"size:16;not null;index:idx_users_status;index:idx_users_status_last_login,priority:1"`
	Role        string     `gorm:"size:16;not null;default:USER"`
	ProfileID   *string    `gorm:"type:varchar(36)"`
	CreatedAt   time.Time  `gorm:"not null;autoCreateTime:false"`
	UpdatedAt   time.Time  `gorm:"not null;autoUpdateTime:false"`
	LastLoginAt *time.Time `gorm:"index:idx_users_status_last_login,priority:2"`
}

func (userRecord) TableName() string { return usersTable }

var userColumns = map[string]string{
	domain.FieldID:          "id",
	domain.FieldEmail:       "email",
	domain.FieldName:        "name",
	domain.FieldPassword:    "password",
	domain.FieldStatus:      "status",
	domain.FieldRole:        "role",
	domain.FieldProfileID:   "profile_id",
	domain.FieldCreatedAt:   "created_at",
	domain.FieldUpdatedAt:   "updated_at",
	domain.FieldLastLoginAt: "last_login_at",
}

func toUserRecord(u *domain.User) (userRecord, error) {
	rec := userRecord{
		ID:          u.ID,
		Email:       domain.NormalizeEmail(u.Email),
		Name:        u.Name,
		Password:    u.Password,
		Status:      string(u.Status),
		Role:        string(u.Role),
		CreatedAt:   u.CreatedAt.UTC(),
		UpdatedAt:   u.UpdatedAt.UTC(),
		LastLoginAt: utcPtr(u.LastLoginAt),
	}
	if rec.Role == "" {
		rec.Role = string(domain.UserRoleUser)
	}
	if u.ProfileID != "" {
		id, err := parseUUID(u.ProfileID)
		if err != nil {
			return userRecord{}, err
		}
		rec.ProfileID = &id
	}
	return rec, nil
}

func fromUserRecord(r userRecord) domain.User {
	u := domain.User{
		ID:          r.ID,
		Email:       r.Email,
		Name:        r.Name,
		Password:    r.Password,
		Status:      domain.UserStatus(r.Status),
		Role:        domain.UserRole(r.Role),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
		LastLoginAt: utcPtr(r.LastLoginAt),
	}
	if r.ProfileID != nil {
		u.ProfileID = *r.ProfileID
	}
	return u
}

func encodeUserValue(field string, v any) (map[string]any, error) {
	switch field {
	case domain.FieldEmail:
		if s, ok := v.(string); ok {
			return map[string]any{"email": domain.NormalizeEmail(s)}, nil
		}
	case domain.FieldStatus:
		if s, ok := v.(domain.UserStatus); ok {
			return map[string]any{"status": string(s)}, nil
		}
	case domain.FieldRole:
		if r, ok := v.(domain.UserRole); ok {
			return map[string]any{"role": string(r)}, nil
		}
	case domain.FieldProfileID:
		id, err := optionalUUID(v)
		if err != nil {
			return nil, err
		}
		return map[string]any{"profile_id": id}, nil
	case domain.FieldCreatedAt, domain.FieldUpdatedAt, domain.FieldLastLoginAt:
		return map[string]any{userColumns[field]: utcValue(v)}, nil
	}
	return plainColumn(userColumns, field, v)
}

// profileRecord flattens the nested address and preferences. The address is
// kept as JSON text and its coordinates are copied into indexed columns for
// the radius search.
type profileRecord struct {
	ID            string    `gorm:"primaryKey;type:varchar(36)"`
	UserID        string    `gorm:"type:varchar(36);not null;uniqueIndex:uniq_user_profiles_user_id"`
	FirstName     string    `gorm:"size:100;not null"`
	LastName      string    `gorm:"size:100;not null"`
	Avatar        string    `gorm:"size:500"`
	Bio           string    `gorm:"size:1000"`
	Phone         string    `gorm:"size:32"`
	Address       *string   `gorm:"type:text"`
	LocationLat   *float64  `gorm:"index:idx_user_profiles_location,priority:1"`
	LocationLng   *float64  `gorm:"index:idx_user_profiles_location,priority:2"`
	Notifications bool      `gorm:"not null"`
	Newsletter    bool      `gorm:"not null"`
	Theme         string    `gorm:"size:8;not null;default:LIGHT"`
	CreatedAt     time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt     time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (profileRecord) TableName() string { return profilesTable }

// Address and preferences are writable but not filterable; encodeProfileValue
// expands them to several columns.
var profileColumns = map[string]string{
	domain.FieldID:        "id",
	domain.FieldUserID:    "user_id",
	domain.FieldFirstName: "first_name",
	domain.FieldLastName:  "last_name",
	domain.FieldAvatar:    "avatar",
	domain.FieldBio:       "bio",
	domain.FieldPhone:     "phone",
	domain.FieldCreatedAt: "created_at",
	domain.FieldUpdatedAt: "updated_at",
}

func toProfileRecord(p *domain.UserProfile) (profileRecord, error) {
	userID, err := parseUUID(p.UserID)
	if err != nil {
		return profileRecord{}, err
	}
	rec := profileRecord{
		ID:        p.ID,
		UserID:    userID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Avatar:    p.Avatar,
		Bio:       p.Bio,
		Phone:     p.Phone,
		CreatedAt: p.CreatedAt.UTC(),
		UpdatedAt: p.UpdatedAt.UTC(),
	}
	cols, err := addressColumns(p.Address)
	if err != nil {
		return profileRecord{}, err
	}
	rec.Address, _ = cols["address"].(*string)
	rec.LocationLat, _ = cols["location_lat"].(*float64)
	rec.LocationLng, _ = cols["location_lng"].(*float64)
	prefs := p.Preferences
	if prefs.Theme == "" {
		prefs.Theme = domain.ThemeLight
	}
	rec.Notifications = prefs.Notifications
	rec.Newsletter = prefs.Newsletter
	rec.Theme = string(prefs.Theme)
	return rec, nil
}

func fromProfileRecord(r profileRecord) domain.UserProfile {
	p := domain.UserProfile{
		ID:        r.ID,
		UserID:    r.UserID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Avatar:    r.Avatar,
		Bio:       r.Bio,
		Phone:     r.Phone,
		Preferences: domain.UserPreferences{
			Notifications: r.Notifications,
			Newsletter:    r.Newsletter,
			Theme:         domain.Theme(r.Theme),
		},
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	if r.Address != nil && *r.Address != "" {
		var a domain.Address
		if err := json.Unmarshal([]byte(*r.Address), &a); err == nil {
			p.Address = &a
		}
	}
	return p
}

// addressColumns returns the JSON text plus the denormalized coordinates;
// a nil address clears all three.
func addressColumns(a *domain.Address) (map[string]any, error) {
	cols := map[string]any{
		"address":      (*string)(nil),
		"location_lat": (*float64)(nil),
		"location_lng": (*float64)(nil),
	}
	if a == nil {
		return cols, nil
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode address: %w", err)
	}
	text := string(raw)
	cols["address"] = &text
	if a.Location != nil {
		lat, lng := a.Location.Lat, a.Location.Lng
		cols["location_lat"] = &lat
		cols["location_lng"] = &lng
	}
	return cols, nil
}

func encodeProfileValue(field string, v any) (map[string]any, error) {
	switch field {
	case domain.FieldAddress:
		switch a := v.(type) {
		case *domain.Address:
			return addressColumns(a)
		case domain.Address:
			return addressColumns(&a)
		default:
			return nil, fmt.Errorf("address: unsupported value %T", v)
		}
	case domain.FieldPreferences:
		var prefs domain.UserPreferences
		switch p := v.(type) {
		case domain.UserPreferences:
			prefs = p
		case *domain.UserPreferences:
			prefs = *p
		default:
			return nil, fmt.Errorf("preferences: unsupported value %T", v)
		}
		if prefs.Theme == "" {
			prefs.Theme = domain.ThemeLight
		}
		return map[string]any{
			"notifications": prefs.Notifications,
			"newsletter":    prefs.Newsletter,
			"theme":         string(prefs.Theme),
		}, nil
	case domain.FieldUserID:
		id, err := parseUUIDValue(v)
		if err != nil {
			return nil, err
		}
		return map[string]any{"user_id": id}, nil
	case domain.FieldCreatedAt, domain.FieldUpdatedAt:
		return map[string]any{profileColumns[field]: utcValue(v)}, nil
	}
	return plainColumn(profileColumns, field, v)
}

func plainColumn(columns map[string]string, field string, v any) (map[string]any, error) {
	col, ok := columns[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", repository.ErrUnknownField, field)
	}
	return map[string]any{col: v}, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func utcValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case *time.Time:
		return utcPtr(t)
	}
	return v
}
