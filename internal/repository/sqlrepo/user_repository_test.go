package sqlrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/domain"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/repository"
)

func newTestRepo(t *testing.T, clock repository.Clock) *UserRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true, Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewUserRepositoryWithClock(db, clock)
}

func mustCreateUser(t *testing.T, repo *UserRepository, email string, status domain.UserStatus) *domain.User {
	t.Helper()
	u, err := repo.Create(context.Background(), &domain.User{Email: email, Name: "N " + email, Password: "hash", Status: status, Role: domain.UserRoleUser})
	if err != nil {
		t.Fatalf("create %s: %v", email, err)
	}
	return u
}

func TestSQLUserRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, nil)

	created := mustCreateUser(t, repo, "Alice@Example.com", domain.UserStatusActive)
	if len(created.ID) != 36 {
		t.Fatalf("expected uuid id, got %q", created.ID)
	}

	found, err := repo.FindByEmail(ctx, "ALICE@example.com")
	if err != nil || found == nil || found.ID != created.ID || found.Email != "alice@example.com" {
		t.Fatalf("find by email: %+v, %v", found, err)
	}
	if found.Password != "hash" {
		t.Fatalf("expected stored password hash, got %q", found.Password)
	}

	updated, err := repo.Update(ctx, created.ID, map[string]any{domain.FieldStatus: domain.UserStatusVIP, domain.FieldName: "Alice B"})
	if err != nil || updated == nil || updated.Status != domain.UserStatusVIP || updated.Name != "Alice B" {
		t.Fatalf("update: %+v, %v", updated, err)
	}
	if updated.UpdatedAt.Before(created.UpdatedAt) {
		t.Fatalf("updatedAt went backwards: %v < %v", updated.UpdatedAt, created.UpdatedAt)
	}

	exists, err := repo.Exists(ctx, created.ID)
	if err != nil || !exists {
		t.Fatalf("exists: %v, %v", exists, err)
	}
	deleted, err := repo.Delete(ctx, created.ID)
	if err != nil || !deleted {
		t.Fatalf("delete: %v, %v", deleted, err)
	}
	missing, err := repo.Update(ctx, created.ID, map[string]any{domain.FieldName: "ghost"})
	if err != nil || missing != nil {
		t.Fatalf("expected nil, nil updating deleted user, got %+v, %v", missing, err)
	}
}

func TestSQLUserRepositoryRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, nil)
	mustCreateUser(t, repo, "dup@example.com", domain.UserStatusActive)

	_, err := repo.Create(ctx, &domain.User{Email: "DUP@example.com", Name: "Dup", Status: domain.UserStatusActive})
	if !errors.Is(err, repository.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
	if _, err := repo.FindByID(ctx, "42"); !errors.Is(err, repository.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if _, err := repo.FindMany(ctx, repository.Filter{"password_hash": "x"}, repository.QueryOptions{}); !errors.Is(err, repository.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField for filter, got %v", err)
	}
	if _, err := repo.Update(ctx, "00000000-0000-0000-0000-000000000000", map[string]any{"bogus": 1}); !errors.Is(err, repository.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField for update, got %v", err)
	}
}

func TestSQLUserRepositoryPaginationAndSort(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	repo := newTestRepo(t, func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	})
	for i := 0; i < 5; i++ {
		mustCreateUser(t, repo, fmt.Sprintf("u%d@x.io", i), domain.UserStatusActive)
	}
	mustCreateUser(t, repo, "off@x.io", domain.UserStatusInactive)

	page, err := repo.FindWithPagination(ctx, repository.Filter{domain.FieldStatus: domain.UserStatusActive}, 2, 2, repository.QueryOptions{
		Sort: []repository.SortField{{Field: domain.FieldCreatedAt, Direction: repository.Descending}},
	})
	if err != nil {
		t.Fatalf("paginate: %v", err)
	}
	if page.Total != 5 || page.TotalPages != 3 || len(page.Data) != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Data[0].Email != "u2@x.io" || page.Data[1].Email != "u1@x.io" {
		t.Fatalf("unexpected order: %s, %s", page.Data[0].Email, page.Data[1].Email)
	}

	active, err := repo.FindActiveUsers(ctx, 2)
	if err != nil || len(active) != 2 || active[0].Email != "u4@x.io" {
		t.Fatalf("find active users: %+v, %v", active, err)
	}
}

func TestSQLUserRepositoryProfiles(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, nil)
	u := mustCreateUser(t, repo, "p@x.io", domain.UserStatusActive)

	profile, err := repo.CreateProfile(ctx, &domain.UserProfile{
		UserID:    u.ID,
		FirstName: "Pat",
		LastName:  "Doe",
		Address: &domain.Address{
			Street: "1 Main", City: "NYC", State: "NY", ZipCode: "10001", Country: "US",
			Location: &domain.GeoPoint{Lat: 40.7128, Lng: -74.0060},
		},
		Preferences: domain.UserPreferences{Notifications: false, Newsletter: true, Theme: domain.ThemeDark},
	})
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	owner, err := repo.FindByID(ctx, u.ID)
	if err != nil || owner.ProfileID != profile.ID {
		t.Fatalf("expected user linked to profile, got %+v, %v", owner, err)
	}

	got, err := repo.FindProfileByUserID(ctx, u.ID)
	if err != nil || got == nil {
		t.Fatalf("find profile: %+v, %v", got, err)
	}
	if got.Address == nil || got.Address.City != "NYC" || got.Address.Location == nil || got.Address.Location.Lat != 40.7128 {
		t.Fatalf("address not restored: %+v", got.Address)
	}
	if got.Preferences.Notifications || !got.Preferences.Newsletter || got.Preferences.Theme != domain.ThemeDark {
		t.Fatalf("preferences not restored: %+v", got.Preferences)
	}

	updated, err := repo.UpdateProfile(ctx, u.ID, map[string]any{
		domain.FieldBio:     "hello",
		domain.FieldAddress: (*domain.Address)(nil),
	})
	if err != nil || updated == nil || updated.Bio != "hello" || updated.Address != nil {
		t.Fatalf("update profile: %+v, %v", updated, err)
	}

	removed, err := repo.DeleteProfileByUserID(ctx, u.ID)
	if err != nil || !removed {
		t.Fatalf("delete profile: %v, %v", removed, err)
	}
	owner, err = repo.FindByID(ctx, u.ID)
	if err != nil || owner.ProfileID != "" {
		t.Fatalf("expected profile link cleared, got %+v, %v", owner, err)
	}
	again, err := repo.DeleteProfileByUserID(ctx, u.ID)
	if err != nil || again {
		t.Fatalf("expected false on second delete, got %v, %v", again, err)
	}
}

func TestSQLUserRepositoryFindUsersByLocation(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, nil)

	place := func(email string, lat, lng float64) *domain.User {
		u := mustCreateUser(t, repo, email, domain.UserStatusActive)
		_, err := repo.CreateProfile(ctx, &domain.UserProfile{
			UserID: u.ID, FirstName: "F", LastName: "L",
			Address: &domain.Address{Street: "s", City: "c", State: "st", ZipCode: "z", Country: "US", Location: &domain.GeoPoint{Lat: lat, Lng: lng}},
		})
		if err != nil {
			t.Fatalf("profile for %s: %v", email, err)
		}
		return u
	}
	times := place("times@x.io", 40.7580, -73.9855)
	wall := place("wall@x.io", 40.7060, -74.0086)
	place("boston@x.io", 42.3601, -71.0589)
	noAddr := mustCreateUser(t, repo, "nowhere@x.io", domain.UserStatusActive)
	if _, err := repo.CreateProfile(ctx, &domain.UserProfile{UserID: noAddr.ID, FirstName: "N", LastName: "A"}); err != nil {
		t.Fatalf("profile without address: %v", err)
	}

	users, err := repo.FindUsersByLocation(ctx, 40.7128, -74.0060, 10)
	if err != nil {
		t.Fatalf("find by location: %v", err)
	}
	if len(users) != 2 || users[0].ID != wall.ID || users[1].ID != times.ID {
		t.Fatalf("expected wall street then times square, got %+v", users)
	}

	none, err := repo.FindUsersByLocation(ctx, -33.86, 151.21, 5)
	if err != nil || len(none) != 0 {
		t.Fatalf("expected no users near sydney, got %+v, %v", none, err)
	}
}

func TestSQLUserRepositoryFindUsersByLocationHighLatitude(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, nil)

	place := func(email string, lat, lng float64) *domain.User {
		u := mustCreateUser(t, repo, email, domain.UserStatusActive)
		_, err := repo.CreateProfile(ctx, &domain.UserProfile{
			UserID: u.ID, FirstName: "F", LastName: "L",
			Address: &domain.Address{Street: "s", City: "c", State: "st", ZipCode: "z", Country: "NO", Location: &domain.GeoPoint{Lat: lat, Lng: lng}},
		})
		if err != nil {
			t.Fatalf("profile for %s: %v", email, err)
		}
		return u
	}
	acrossPole := place("pole@x.io", 89.5, 180)
	arctic := place("arctic@x.io", 81.0, 26.5)

	users, err := repo.FindUsersByLocation(ctx, 89, 0, 200)
	if err != nil {
		t.Fatalf("find near pole: %v", err)
	}
	if len(users) != 1 || users[0].ID != acrossPole.ID {
		t.Fatalf("expected user across the pole, got %+v", users)
	}

	users, err = repo.FindUsersByLocation(ctx, 80, 0, 500)
	if err != nil {
		t.Fatalf("find at high latitude: %v", err)
	}
	if len(users) != 1 || users[0].ID != arctic.ID {
		t.Fatalf("expected arctic user, got %+v", users)
	}
}

func TestSQLUserRepositoryRecentActiveAndStats(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	repo := newTestRepo(t, func() time.Time { return now })

	login := func(u *domain.User, ago time.Duration) {
		at := now.Add(-ago)
		if _, err := repo.Update(ctx, u.ID, map[string]any{domain.FieldLastLoginAt: &at}); err != nil {
			t.Fatalf("set last login: %v", err)
		}
	}
	recent := mustCreateUser(t, repo, "recent@x.io", domain.UserStatusActive)
	login(recent, 2*time.Hour)
	older := mustCreateUser(t, repo, "older@x.io", domain.UserStatusActive)
	login(older, 3*24*time.Hour)
	stale := mustCreateUser(t, repo, "stale@x.io", domain.UserStatusActive)
	login(stale, 30*24*time.Hour)
	vip := mustCreateUser(t, repo, "vip@x.io", domain.UserStatusVIP)
	login(vip, time.Hour)
	mustCreateUser(t, repo, "idle@x.io", domain.UserStatusInactive)
	mustCreateUser(t, repo, "banned@x.io", domain.UserStatusSuspended)

	users, err := repo.FindRecentActiveUsers(ctx, 7, 0)
	if err != nil {
		t.Fatalf("recent active: %v", err)
	}
	if len(users) != 2 || users[0].ID != recent.ID || users[1].ID != older.ID {
		t.Fatalf("unexpected recent users: %+v", users)
	}

	stats, err := repo.GetUserStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := repository.UserStats{Total: 6, Active: 3, Inactive: 1, VIP: 1}
	if stats != want {
		t.Fatalf("unexpected stats: got %+v want %+v", stats, want)
	}
}
