package repository

import (
	"context"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/domain"
)

const DefaultRecentLimit = 100

type UserStats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
	VIP      int64 `json:"vip"`
}

// NewUserStats folds per-status counts into the fixed stats shape. Statuses
// without a bucket (SUSPENDED, or anything unrecognized) only add to Total.
func NewUserStats(counts map[domain.UserStatus]int64) UserStats {
	var s UserStats
	for status, n := range counts {
		s.Total += n
		switch status {
		case domain.UserStatusActive:
			s.Active += n
		case domain.UserStatusInactive:
			s.Inactive += n
		case domain.UserStatusVIP:
			s.VIP += n
		}
	}
	return s
}

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindMany(ctx context.Context, filter Filter, opts QueryOptions) ([]domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, id string, fields map[string]any) (*domain.User, error)
	Delete(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	Exists(ctx context.Context, id string) (bool, error)
	FindWithPagination(ctx context.Context, filter Filter, page, limit int, opts QueryOptions) (PaginatedResult[domain.User], error)

	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindActiveUsers(ctx context.Context, limit int) ([]domain.User, error)
	FindUsersByRole(ctx context.Context, role domain.UserRole) ([]domain.User, error)
	FindUsersByLocation(ctx context.Context, lat, lng, radiusKm float64) ([]domain.User, error)
	FindRecentActiveUsers(ctx context.Context, days, limit int) ([]domain.User, error)
	GetUserStats(ctx context.Context) (UserStats, error)

	CreateProfile(ctx context.Context, profile *domain.UserProfile) (*domain.UserProfile, error)
	FindProfileByUserID(ctx context.Context, userID string) (*domain.UserProfile, error)
	UpdateProfile(ctx context.Context, userID string, fields map[string]any) (*domain.UserProfile, error)
	DeleteProfileByUserID(ctx context.Context, userID string) (bool, error)
}

// UserBase carries the backend-independent part of UserRepository. Adapters
// embed it and add the geo, recency and stats queries.
type UserBase struct {
	*BaseRepository[domain.User, *domain.User]
	Profiles *BaseRepository[domain.UserProfile, *domain.UserProfile]
}

func NewUserBase(users Store[domain.User], profiles Store[domain.UserProfile], clock Clock) *UserBase {
	return &UserBase{
		BaseRepository: NewBaseRepository[domain.User, *domain.User]("user", users, clock),
		Profiles:       NewBaseRepository[domain.UserProfile, *domain.UserProfile]("user_profile", profiles, clock),
	}
}

// FindByEmail compares on the normalized address; emails are stored
// lower-cased.
func (r *UserBase) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.FindOne(ctx, Filter{domain.FieldEmail: domain.NormalizeEmail(email)})
}

// FindActiveUsers returns ACTIVE users, newest first. A limit <= 0 means no limit.
func (r *UserBase) FindActiveUsers(ctx context.Context, limit int) ([]domain.User, error) {
	return r.FindMany(ctx, Filter{domain.FieldStatus: domain.UserStatusActive}, QueryOptions{
		Limit: max(limit, 0),
		Sort:  []SortField{{Field: domain.FieldCreatedAt, Direction: Descending}},
	})
}

func (r *UserBase) FindUsersByRole(ctx context.Context, role domain.UserRole) ([]domain.User, error) {
	return r.FindMany(ctx, Filter{domain.FieldRole: role}, QueryOptions{
		Sort: []SortField{{Field: domain.FieldCreatedAt, Direction: Descending}},
	})
}

// CreateProfile stores the profile and links it from the owning user.
func (r *UserBase) CreateProfile(ctx context.Context, profile *domain.UserProfile) (*domain.UserProfile, error) {
	created, err := r.Profiles.Create(ctx, profile)
	if err != nil {
		return nil, err
	}
	if _, err := r.Update(ctx, created.UserID, map[string]any{domain.FieldProfileID: created.ID}); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *UserBase) FindProfileByUserID(ctx context.Context, userID string) (*domain.UserProfile, error) {
	return r.Profiles.FindOne(ctx, Filter{domain.FieldUserID: userID})
}

func (r *UserBase) UpdateProfile(ctx context.Context, userID string, fields map[string]any) (*domain.UserProfile, error) {
	profile, err := r.FindProfileByUserID(ctx, userID)
	if err != nil || profile == nil {
		return nil, err
	}
	return r.Profiles.Update(ctx, profile.ID, fields)
}

func (r *UserBase) DeleteProfileByUserID(ctx context.Context, userID string) (bool, error) {
	profile, err := r.FindProfileByUserID(ctx, userID)
	if err != nil || profile == nil {
		return false, err
	}
	deleted, err := r.Profiles.Delete(ctx, profile.ID)
	if err != nil || !deleted {
		return deleted, err
	}
	if _, err := r.Update(ctx, userID, map[string]any{domain.FieldProfileID: ""}); err != nil {
		return true, err
	}
	return true, nil
}
