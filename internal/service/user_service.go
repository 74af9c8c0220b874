package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/domain"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/observability"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/repository"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/security"
)

const (
	DefaultNearbyRadiusKm = 10.0
	DefaultRecentDays     = 7
)

var sortableUserFields = map[string]bool{
	domain.FieldName:        true,
	domain.FieldEmail:       true,
	domain.FieldStatus:      true,
	domain.FieldRole:        true,
	domain.FieldCreatedAt:   true,
	domain.FieldUpdatedAt:   true,
	domain.FieldLastLoginAt: true,
}

type UserService struct {
	repo     repository.UserRepository
	storage  StorageService
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

var _ UserServiceInterface = (*UserService)(nil)

// NewUserService wires the service; storage may be nil, in which case the
// avatar operations return ErrStorageDisabled.
func NewUserService(repo repository.UserRepository, storage StorageService, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		repo:     repo,
		storage:  storage,
		validate: newValidator(),
		logger:   logger.With("component", "user_service"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *UserService) observe(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, end := observability.StartSpan(ctx, "user_service."+op, attrs...)
	return ctx, func(err error) {
		end(err)
		observability.RecordUserOperation(ctx, op, operationOutcome(err), time.Since(start))
	}
}

func operationOutcome(err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrProfileNotFound):
		return "not_found"
	case errors.As(err, &verr),
		errors.Is(err, ErrEmailTaken),
		errors.Is(err, ErrAlreadyVIP),
		errors.Is(err, ErrProfileExists),
		errors.Is(err, repository.ErrInvalidID),
		errors.Is(err, repository.ErrUnknownField):
		return "rejected"
	default:
		return "error"
	}
}

func sanitized(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	out := u.Sanitized()
	return &out
}

func sanitizeAll(users []domain.User) []domain.User {
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Sanitized())
	}
	return out
}

// CreateUser rejects a taken email up front, but the store's unique index is
// what actually guarantees uniqueness under concurrent creates.
func (s *UserService) CreateUser(ctx context.Context, in domain.CreateUserInput) (_ *domain.User, err error) {
	ctx, done := s.observe(ctx, "create")
	defer func() { done(err) }()

	in.Email = domain.NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return nil, toValidationError(err)
	}

	existing, err := s.repo.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	role := in.Role
	if role == "" {
		role = domain.UserRoleUser
	}
	created, err := s.repo.Create(ctx, &domain.User{
		Email:    in.Email,
		Name:     in.Name,
		Password: hash,
		Status:   domain.UserStatusActive,
		Role:     role,
	})
	if errors.Is(err, repository.ErrDuplicateKey) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user created", "user_id", created.ID, "role", created.Role)
	return sanitized(created), nil
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (_ *domain.User, err error) {
	ctx, done := s.observe(ctx, "get_by_id")
	defer func() { done(err) }()

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return sanitized(u), nil
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (_ *domain.User, err error) {
	ctx, done := s.observe(ctx, "get_by_email")
	defer func() { done(err) }()

	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return sanitized(u), nil
}

func (s *UserService) UpdateUser(ctx context.Context, id string, in domain.UpdateUserInput) (_ *domain.User, err error) {
	ctx, done := s.observe(ctx, "update")
	defer func() { done(err) }()

	if err := s.validate.Struct(in); err != nil {
		return nil, toValidationError(err)
	}
	fields := in.Fields()
	if len(fields) == 0 {
		return nil, fieldError("body", "must contain at least one updatable field")
	}
	u, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return sanitized(u), nil
}

// DeleteUser removes the user and then its profile and avatar. A failure
// after the user is gone is logged, not returned.
func (s *UserService) DeleteUser(ctx context.Context, id string) (err error) {
	ctx, done := s.observe(ctx, "delete")
	defer func() { done(err) }()

	profile, err := s.repo.FindProfileByUserID(ctx, id)
	if err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrUserNotFound
	}
	if profile == nil {
		return nil
	}
	if _, err := s.repo.DeleteProfileByUserID(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "delete orphaned profile failed", "user_id", id, "error", err)
	}
	if profile.Avatar != "" && s.storage != nil {
		if err := s.storage.DeleteAvatar(ctx, id, profile.Avatar); err != nil {
			s.logger.WarnContext(ctx, "delete orphaned avatar failed", "user_id", id, "error", err)
		}
	}
	return nil
}

func (s *UserService) GetActiveUsers(ctx context.Context, limit int) (_ []domain.User, err error) {
	ctx, done := s.observe(ctx, "list_active")
	defer func() { done(err) }()

	users, err := s.repo.FindActiveUsers(ctx, limit)
	if err != nil {
		return nil, err
	}
	return sanitizeAll(users), nil
}

func (s *UserService) GetUsersWithPagination(ctx context.Context, q ListUsersQuery) (_ repository.PaginatedResult[domain.User], err error) {
	ctx, done := s.observe(ctx, "list")
	defer func() { done(err) }()

	filter := repository.Filter{}
	if q.Status != "" {
		if !q.Status.IsValid() {
			return repository.PaginatedResult[domain.User]{}, fieldError("status", "must be one of: ACTIVE, INACTIVE, SUSPENDED, VIP")
		}
		filter[domain.FieldStatus] = q.Status
	}
	if q.Role != "" {
		if !q.Role.IsValid() {
			return repository.PaginatedResult[domain.User]{}, fieldError("role", "must be one of: USER, ADMIN, MODERATOR")
		}
		filter[domain.FieldRole] = q.Role
	}
	sortBy, order := q.SortBy, q.SortOrder
	if sortBy == "" {
		sortBy, order = domain.FieldCreatedAt, repository.Descending
	}
	if !sortableUserFields[sortBy] {
		return repository.PaginatedResult[domain.User]{}, fieldError("sort", fmt.Sprintf("cannot sort by %q", sortBy))
	}
	if order == 0 {
		order = repository.Ascending
	}

	page, err := s.repo.FindWithPagination(ctx, filter, q.Page, q.Limit, repository.QueryOptions{
		Sort: []repository.SortField{{Field: sortBy, Direction: order}},
	})
	if err != nil {
		return repository.PaginatedResult[domain.User]{}, err
	}
	return repository.MapPaginated(page, func(u domain.User) domain.User { return u.Sanitized() }), nil
}

func (s *UserService) PromoteToVIP(ctx context.Context, id string) (_ *domain.User, err error) {
	ctx, done := s.observe(ctx, "promote_vip")
	defer func() { done(err) }()

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if u.Status == domain.UserStatusVIP {
		return nil, ErrAlreadyVIP
	}
	updated, err := s.repo.Update(ctx, id, map[string]any{domain.FieldStatus: domain.UserStatusVIP})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrUserNotFound
	}
	return sanitized(updated), nil
}

func (s *UserService) GetUserStats(ctx context.Context) (_ repository.UserStats, err error) {
	ctx, done := s.observe(ctx, "stats")
	defer func() { done(err) }()

	return s.repo.GetUserStats(ctx)
}

func (s *UserService) FindNearbyUsers(ctx context.Context, lat, lng, radiusKm float64) (_ []domain.User, err error) {
	ctx, done := s.observe(ctx, "find_nearby", attribute.Float64("geo.radius_km", radiusKm))
	defer func() { done(err) }()

	if !finite(lat) || lat < -90 || lat > 90 {
		return nil, fieldError("lat", "must be between -90 and 90")
	}
	if !finite(lng) || lng < -180 || lng > 180 {
		return nil, fieldError("lng", "must be between -180 and 180")
	}
	if !finite(radiusKm) {
		return nil, fieldError("radiusKm", "must be a finite number")
	}
	if radiusKm <= 0 {
		radiusKm = DefaultNearbyRadiusKm
	}
	users, err := s.repo.FindUsersByLocation(ctx, lat, lng, radiusKm)
	if err != nil {
		return nil, err
	}
	return sanitizeAll(users), nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func (s *UserService) FindRecentActiveUsers(ctx context.Context, days, limit int) (_ []domain.User, err error) {
	ctx, done := s.observe(ctx, "find_recent_active")
	defer func() { done(err) }()

	if days <= 0 {
		days = DefaultRecentDays
	}
	users, err := s.repo.FindRecentActiveUsers(ctx, days, limit)
	if err != nil {
		return nil, err
	}
	return sanitizeAll(users), nil
}

func (s *UserService) RecordLogin(ctx context.Context, id string) (_ *domain.User, err error) {
	ctx, done := s.observe(ctx, "record_login")
	defer func() { done(err) }()

	u, err := s.repo.Update(ctx, id, map[string]any{domain.FieldLastLoginAt: s.now()})
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return sanitized(u), nil
}

// ValidatePassword reports whether password matches the stored hash. Unknown
// emails report false. Hashes from older schemes are upgraded on success.
func (s *UserService) ValidatePassword(ctx context.Context, email, password string) (_ bool, err error) {
	ctx, done := s.observe(ctx, "validate_password")
	defer func() { done(err) }()

	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if u == nil || u.Password == "" {
		return false, nil
	}
	ok, err := security.VerifyPassword(u.Password, password)
	if err != nil {
		s.logger.WarnContext(ctx, "stored password hash unreadable", "user_id", u.ID)
		return false, nil
	}
	if ok && security.NeedsRehash(u.Password) {
		if hash, herr := security.HashPassword(password); herr == nil {
			if _, uerr := s.repo.Update(ctx, u.ID, map[string]any{domain.FieldPassword: hash}); uerr != nil {
				s.logger.WarnContext(ctx, "password rehash failed", "user_id", u.ID, "error", uerr)
			}
		}
	}
	return ok, nil
}

func (s *UserService) requireUser(ctx context.Context, userID string) error {
	exists, err := s.repo.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrUserNotFound
	}
	return nil
}

func (s *UserService) CreateProfile(ctx context.Context, userID string, in domain.CreateProfileInput) (_ *domain.UserProfile, err error) {
	ctx, done := s.observe(ctx, "create_profile")
	defer func() { done(err) }()

	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := s.validate.Struct(in); err != nil {
		return nil, toValidationError(err)
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	existing, err := s.repo.FindProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrProfileExists
	}

	prefs := domain.DefaultPreferences()
	if in.Preferences != nil {
		prefs = *in.Preferences
		if prefs.Theme == "" {
			prefs.Theme = domain.ThemeLight
		}
	}
	profile, err := s.repo.CreateProfile(ctx, &domain.UserProfile{
		UserID:      userID,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Phone:       in.Phone,
		Bio:         in.Bio,
		Address:     in.Address,
		Preferences: prefs,
	})
	if errors.Is(err, repository.ErrDuplicateKey) {
		return nil, ErrProfileExists
	}
	return profile, err
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (_ *domain.UserProfile, err error) {
	ctx, done := s.observe(ctx, "get_profile")
	defer func() { done(err) }()

	profile, err := s.repo.FindProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, in domain.UpdateProfileInput) (_ *domain.UserProfile, err error) {
	ctx, done := s.observe(ctx, "update_profile")
	defer func() { done(err) }()

	if err := s.validate.Struct(in); err != nil {
		return nil, toValidationError(err)
	}
	fields := in.Fields()
	if len(fields) == 0 {
		return nil, fieldError("body", "must contain at least one updatable field")
	}
	profile, err := s.repo.UpdateProfile(ctx, userID, fields)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

// UploadAvatar stores the image, points the profile at it and removes the
// previous object.
func (s *UserService) UploadAvatar(ctx context.Context, userID string, file io.Reader, size int64) (_ *AvatarUpload, err error) {
	ctx, done := s.observe(ctx, "upload_avatar")
	defer func() { done(err) }()

	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	current, err := s.repo.FindProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrProfileNotFound
	}

	key, err := s.storage.UploadAvatar(ctx, userID, file, size)
	if err != nil {
		return nil, err
	}
	profile, err := s.repo.UpdateProfile(ctx, userID, map[string]any{domain.FieldAvatar: key})
	if err != nil || profile == nil {
		if derr := s.storage.DeleteAvatar(ctx, userID, key); derr != nil {
			s.logger.WarnContext(ctx, "rollback avatar upload failed", "user_id", userID, "error", derr)
		}
		if err == nil {
			err = ErrProfileNotFound
		}
		return nil, err
	}
	if current.Avatar != "" && current.Avatar != key {
		if derr := s.storage.DeleteAvatar(ctx, userID, current.Avatar); derr != nil {
			s.logger.WarnContext(ctx, "delete previous avatar failed", "user_id", userID, "error", derr)
		}
	}

	out := &AvatarUpload{ObjectKey: key, Profile: profile}
	if url, uerr := s.storage.GenerateAvatarURL(ctx, key); uerr == nil {
		out.URL = url
	} else {
		s.logger.WarnContext(ctx, "presign avatar url failed", "user_id", userID, "error", uerr)
	}
	return out, nil
}

func (s *UserService) DeleteAvatar(ctx context.Context, userID string) (_ *domain.UserProfile, err error) {
	ctx, done := s.observe(ctx, "delete_avatar")
	defer func() { done(err) }()

	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	current, err := s.repo.FindProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrProfileNotFound
	}
	if current.Avatar == "" {
		return current, nil
	}
	if err := s.storage.DeleteAvatar(ctx, userID, current.Avatar); err != nil {
		return nil, err
	}
	profile, err := s.repo.UpdateProfile(ctx, userID, map[string]any{domain.FieldAvatar: ""})
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}
