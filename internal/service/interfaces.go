package service

import (
	"context"
	"io"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/domain"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/repository"
)

// ListUsersQuery drives GET /users. Zero values fall back to the pagination
// defaults and an unfiltered, newest-first listing.
type ListUsersQuery struct {
	Page      int
	Limit     int
	Status    domain.UserStatus
	Role      domain.UserRole
	SortBy    string
	SortOrder repository.SortDirection
}

type AvatarUpload struct {
	ObjectKey string              `json:"objectKey"`
	URL       string              `json:"url,omitempty"`
	Profile   *domain.UserProfile `json:"profile"`
}

type UserServiceInterface interface {
	CreateUser(ctx context.Context, in domain.CreateUserInput) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, id string, in domain.UpdateUserInput) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
	GetActiveUsers(ctx context.Context, limit int) ([]domain.User, error)
	GetUsersWithPagination(ctx context.Context, q ListUsersQuery) (repository.PaginatedResult[domain.User], error)
	PromoteToVIP(ctx context.Context, id string) (*domain.User, error)
	GetUserStats(ctx context.Context) (repository.UserStats, error)
	FindNearbyUsers(ctx context.Context, lat, lng, radiusKm float64) ([]domain.User, error)
	FindRecentActiveUsers(ctx context.Context, days, limit int) ([]domain.User, error)
	RecordLogin(ctx context.Context, id string) (*domain.User, error)
	ValidatePassword(ctx context.Context, email, password string) (bool, error)

	CreateProfile(ctx context.Context, userID string, in domain.CreateProfileInput) (*domain.UserProfile, error)
	GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error)
	UpdateProfile(ctx context.Context, userID string, in domain.UpdateProfileInput) (*domain.UserProfile, error)
	UploadAvatar(ctx context.Context, userID string, file io.Reader, size int64) (*AvatarUpload, error)
	DeleteAvatar(ctx context.Context, userID string) (*domain.UserProfile, error)
}

type AuthTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type AuthResult struct {
	User   domain.User `json:"user"`
	Tokens AuthTokens  `json:"tokens"`
}

type TokenClaims struct {
	UserID string
	Email  string
	Role   domain.UserRole
}

// AuthService is the authentication contract the user API is meant to grow
// into. No implementation ships with this module.
type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthTokens, error)
	Logout(ctx context.Context, userID, refreshToken string) error
	VerifyToken(ctx context.Context, token string) (*TokenClaims, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}
