package sqlrepo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/domain"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/repository"
)

type UserRepository struct {
	*repository.UserBase
	db       *gorm.DB
	users    *tableStore[domain.User, userRecord]
	profiles *tableStore[domain.UserProfile, profileRecord]
}

var _ repository.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *gorm.DB) *UserRepository {
	return NewUserRepositoryWithClock(db, repository.DefaultClock)
}

func NewUserRepositoryWithClock(db *gorm.DB, clock repository.Clock) *UserRepository {
	users := &tableStore[domain.User, userRecord]{
		db:          db,
		table:       usersTable,
		columns:     userColumns,
		uuidColumns: map[string]bool{"id": true, "profile_id": true},
		encode:      encodeUserValue,
		toRecord:    toUserRecord,
		fromRecord:  fromUserRecord,
		setID:       func(u *domain.User, id string) { u.ID = id },
	}
	profiles := &tableStore[domain.UserProfile, profileRecord]{
		db:          db,
		table:       profilesTable,
		columns:     profileColumns,
		uuidColumns: map[string]bool{"id": true, "user_id": true},
		encode:      encodeProfileValue,
		toRecord:    toProfileRecord,
		fromRecord:  fromProfileRecord,
		setID:       func(p *domain.UserProfile, id string) { p.ID = id },
	}
	return &UserRepository{
		UserBase: repository.NewUserBase(users, profiles, clock),
		db:       db,
		users:    users,
		profiles: profiles,
	}
}

// Migrate creates or updates the users and user_profiles tables.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&userRecord{}, &profileRecord{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// FindUsersByLocation narrows candidates with a bounding box on the indexed
// coordinate columns, then keeps those within the great-circle radius,
// nearest first.
func (r *UserRepository) FindUsersByLocation(ctx context.Context, lat, lng, radiusKm float64) ([]domain.User, error) {
	radius := repository.KilometersToMeters(radiusKm)
	box := repository.BoundingBoxAround(lat, lng, radius)

	var candidates []profileRecord
	err := r.db.WithContext(ctx).
		Select("user_id", "location_lat", "location_lng").
		Where("location_lat BETWEEN ? AND ?", box.MinLat, box.MaxLat).
		Where("location_lng BETWEEN ? AND ?", box.MinLng, box.MaxLng).
		Find(&candidates).Error
	if err != nil {
		repository.RecordOperation(ctx, "user", "find_by_location", err)
		return nil, fmt.Errorf("find nearby profiles: %w", err)
	}

	type hit struct {
		userID   string
		distance float64
	}
	hits := make([]hit, 0, len(candidates))
	for _, c := range candidates {
		if c.LocationLat == nil || c.LocationLng == nil {
			continue
		}
		d := repository.HaversineMeters(lat, lng, *c.LocationLat, *c.LocationLng)
		if d <= radius {
			hits = append(hits, hit{userID: c.UserID, distance: d})
		}
	}
	if len(hits) == 0 {
		repository.RecordOperation(ctx, "user", "find_by_location", nil)
		return []domain.User{}, nil
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].distance < hits[j].distance })

	ids := make([]string, 0, len(hits))
	rank := make(map[string]int, len(hits))
	for i, h := range hits {
		ids = append(ids, h.userID)
		rank[h.userID] = i
	}
	var rows []userRecord
	err = r.db.WithContext(ctx).Where(clause.IN{Column: clause.Column{Name: "id"}, Values: anySlice(ids)}).Find(&rows).Error
	repository.RecordOperation(ctx, "user", "find_by_location", err)
	if err != nil {
		return nil, fmt.Errorf("find nearby users: %w", err)
	}
	users := r.users.fromRows(rows)
	repository.SortByRank(users, rank)
	return users, nil
}

func (r *UserRepository) FindRecentActiveUsers(ctx context.Context, days, limit int) ([]domain.User, error) {
	if limit <= 0 {
		limit = repository.DefaultRecentLimit
	}
	cutoff := r.Now().Add(-time.Duration(days) * 24 * time.Hour)
	var rows []userRecord
	err := r.db.WithContext(ctx).
		Where("status = ?", string(domain.UserStatusActive)).
		Where("last_login_at >= ?", cutoff).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "last_login_at"}, Desc: true}).
		Limit(limit).
		Find(&rows).Error
	repository.RecordOperation(ctx, "user", "find_recent_active", err)
	if err != nil {
		return nil, fmt.Errorf("find recent active users: %w", err)
	}
	return r.users.fromRows(rows), nil
}

func (r *UserRepository) GetUserStats(ctx context.Context) (repository.UserStats, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&userRecord{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	repository.RecordOperation(ctx, "user", "stats", err)
	if err != nil {
		return repository.UserStats{}, fmt.Errorf("aggregate user stats: %w", err)
	}
	counts := make(map[domain.UserStatus]int64, len(rows))
	for _, row := range rows {
		counts[domain.UserStatus(row.Status)] += row.Count
	}
	return repository.NewUserStats(counts), nil
}

func anySlice(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
