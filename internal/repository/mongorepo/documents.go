package mongorepo

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/domain"
)

const (
	usersCollection    = "users"
	profilesCollection = "user_profiles"
)

type userDocument struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	Email       string              `bson:"email"`
	Name        string              `bson:"name"`
	Password    string              `bson:"password"`
	Status      string              `bson:"status"`
	Role        string              `bson:"role"`
	ProfileID   *primitive.ObjectID `bson:"profileId,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt"`
	LastLoginAt *time.Time          `bson:"lastLoginAt,omitempty"`
}

var userFields = map[string]string{
	domain.FieldID:          "_id",
	domain.FieldEmail:       "email",
	domain.FieldName:        "name",
	domain.FieldPassword:    "password",
	domain.FieldStatus:      "status",
	domain.FieldRole:        "role",
	domain.FieldProfileID:   "profileId",
	domain.FieldCreatedAt:   "createdAt",
	domain.FieldUpdatedAt:   "updatedAt",
	domain.FieldLastLoginAt: "lastLoginAt",
}

func toUserDocument(u *domain.User) (userDocument, error) {
	id, err := parseObjectID(u.ID)
	if err != nil {
		return userDocument{}, err
	}
	profileID, err := optionalObjectID(u.ProfileID)
	if err != nil {
		return userDocument{}, err
	}
	return userDocument{
		ID:          id,
		Email:       domain.NormalizeEmail(u.Email),
		Name:        u.Name,
		Password:    u.Password,
		Status:      string(u.Status),
		Role:        string(u.Role),
		ProfileID:   profileID,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
		LastLoginAt: u.LastLoginAt,
	}, nil
}

func fromUserDocument(d userDocument) domain.User {
	return domain.User{
		ID:          d.ID.Hex(),
		Email:       d.Email,
		Name:        d.Name,
		Password:    d.Password,
		Status:      domain.UserStatus(d.Status),
		Role:        domain.UserRole(d.Role),
		ProfileID:   hexOrEmpty(d.ProfileID),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
		LastLoginAt: utcPtr(d.LastLoginAt),
	}
}

func encodeUserValue(field string, v any) (any, error) {
	switch field {
	case domain.FieldEmail:
		if s, ok := v.(string); ok {
			return domain.NormalizeEmail(s), nil
		}
	case domain.FieldStatus:
		if s, ok := v.(domain.UserStatus); ok {
			return string(s), nil
		}
	case domain.FieldRole:
		if r, ok := v.(domain.UserRole); ok {
			return string(r), nil
		}
	}
	return v, nil
}

// geoJSONPoint stores coordinates as [lng, lat].
type geoJSONPoint struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

func newPoint(lat, lng float64) geoJSONPoint {
	return geoJSONPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

type addressDocument struct {
	Street   string        `bson:"street"`
	City     string        `bson:"city"`
	State    string        `bson:"state"`
	ZipCode  string        `bson:"zipCode"`
	Country  string        `bson:"country"`
	Location *geoJSONPoint `bson:"location,omitempty"`
}

type preferencesDocument struct {
	Notifications bool   `bson:"notifications"`
	Newsletter    bool   `bson:"newsletter"`
	Theme         string `bson:"theme"`
}

type profileDocument struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	UserID      primitive.ObjectID  `bson:"userId"`
	FirstName   string              `bson:"firstName"`
	LastName    string              `bson:"lastName"`
	Avatar      string              `bson:"avatar,omitempty"`
	Bio         string              `bson:"bio,omitempty"`
	Phone       string              `bson:"phone,omitempty"`
	Address     *addressDocument    `bson:"address,omitempty"`
	Preferences preferencesDocument `bson:"preferences"`
	CreatedAt   time.Time           `bson:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt"`
}

var profileFields = map[string]string{
	domain.FieldID:          "_id",
	domain.FieldUserID:      "userId",
	domain.FieldFirstName:   "firstName",
	domain.FieldLastName:    "lastName",
	domain.FieldAvatar:      "avatar",
	domain.FieldBio:         "bio",
	domain.FieldPhone:       "phone",
	domain.FieldAddress:     "address",
	domain.FieldPreferences: "preferences",
	domain.FieldCreatedAt:   "createdAt",
	domain.FieldUpdatedAt:   "updatedAt",
}

func toAddressDocument(a *domain.Address) *addressDocument {
	if a == nil {
		return nil
	}
	doc := &addressDocument{
		Street:  a.Street,
		City:    a.City,
		State:   a.State,
		ZipCode: a.ZipCode,
		Country: a.Country,
	}
	if a.Location != nil {
		p := newPoint(a.Location.Lat, a.Location.Lng)
		doc.Location = &p
	}
	return doc
}

func fromAddressDocument(d *addressDocument) *domain.Address {
	if d == nil {
		return nil
	}
	a := &domain.Address{
		Street:  d.Street,
		City:    d.City,
		State:   d.State,
		ZipCode: d.ZipCode,
		Country: d.Country,
	}
	if d.Location != nil && len(d.Location.Coordinates) == 2 {
		a.Location = &domain.GeoPoint{Lng: d.Location.Coordinates[0], Lat: d.Location.Coordinates[1]}
	}
	return a
}

func toPreferencesDocument(p domain.UserPreferences) preferencesDocument {
	return preferencesDocument{Notifications: p.Notifications, Newsletter: p.Newsletter, Theme: string(p.Theme)}
}

func toProfileDocument(p *domain.UserProfile) (profileDocument, error) {
	id, err := parseObjectID(p.ID)
	if err != nil {
		return profileDocument{}, err
	}
	userID, err := parseObjectID(p.UserID)
	if err != nil {
		return profileDocument{}, err
	}
	return profileDocument{
		ID:          id,
		UserID:      userID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Avatar:      p.Avatar,
		Bio:         p.Bio,
		Phone:       p.Phone,
		Address:     toAddressDocument(p.Address),
		Preferences: toPreferencesDocument(p.Preferences),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}, nil
}

func fromProfileDocument(d profileDocument) domain.UserProfile {
	return domain.UserProfile{
		ID:        d.ID.Hex(),
		UserID:    d.UserID.Hex(),
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Avatar:    d.Avatar,
		Bio:       d.Bio,
		Phone:     d.Phone,
		Address:   fromAddressDocument(d.Address),
		Preferences: domain.UserPreferences{
			Notifications: d.Preferences.Notifications,
			Newsletter:    d.Preferences.Newsletter,
			Theme:         domain.Theme(d.Preferences.Theme),
		},
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

func encodeProfileValue(field string, v any) (any, error) {
	switch field {
	case domain.FieldAddress:
		switch a := v.(type) {
		case *domain.Address:
			return toAddressDocument(a), nil
		case domain.Address:
			return toAddressDocument(&a), nil
		default:
			return nil, fmt.Errorf("address: unsupported value %T", v)
		}
	case domain.FieldPreferences:
		switch p := v.(type) {
		case domain.UserPreferences:
			return toPreferencesDocument(p), nil
		case *domain.UserPreferences:
			return toPreferencesDocument(*p), nil
		default:
			return nil, fmt.Errorf("preferences: unsupported value %T", v)
		}
	}
	return v, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
