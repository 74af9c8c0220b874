package mongorepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/domain"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/repository"
)

type UserRepository struct {
	*repository.UserBase
	users    *collectionStore[domain.User, userDocument]
	profiles *collectionStore[domain.UserProfile, profileDocument]
}

var _ repository.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *mongo.Database) *UserRepository {
	return NewUserRepositoryWithClock(db, repository.DefaultClock)
}

func NewUserRepositoryWithClock(db *mongo.Database, clock repository.Clock) *UserRepository {
	users := &collectionStore[domain.User, userDocument]{
		coll:      db.Collection(usersCollection),
		fields:    userFields,
		objectIDs: map[string]bool{"_id": true, "profileId": true},
		encode:    encodeUserValue,
		toDoc:     toUserDocument,
		fromDoc:   fromUserDocument,
		setID:     func(u *domain.User, id string) { u.ID = id },
	}
	profiles := &collectionStore[domain.UserProfile, profileDocument]{
		coll:      db.Collection(profilesCollection),
		fields:    profileFields,
		objectIDs: map[string]bool{"_id": true, "userId": true},
		encode:    encodeProfileValue,
		toDoc:     toProfileDocument,
		fromDoc:   fromProfileDocument,
		setID:     func(p *domain.UserProfile, id string) { p.ID = id },
	}
	return &UserRepository{
		UserBase: repository.NewUserBase(users, profiles, clock),
		users:    users,
		profiles: profiles,
	}
}

// FindUsersByLocation runs $nearSphere over profile locations and returns the
// owning users nearest first.
func (r *UserRepository) FindUsersByLocation(ctx context.Context, lat, lng, radiusKm float64) ([]domain.User, error) {
	query := bson.M{
		"address.location": bson.M{
			"$nearSphere": bson.M{
				"$geometry":    newPoint(lat, lng),
				"$maxDistance": repository.KilometersToMeters(radiusKm),
			},
		},
	}
	cur, err := r.profiles.coll.Find(ctx, query, options.Find().SetProjection(bson.M{"userId": 1}))
	if err != nil {
		repository.RecordOperation(ctx, "user", "find_by_location", err)
		return nil, fmt.Errorf("find nearby profiles: %w", err)
	}
	var refs []struct {
		UserID primitive.ObjectID `bson:"userId"`
	}
	if err := cur.All(ctx, &refs); err != nil {
		repository.RecordOperation(ctx, "user", "find_by_location", err)
		return nil, fmt.Errorf("decode nearby profiles: %w", err)
	}
	if len(refs) == 0 {
		repository.RecordOperation(ctx, "user", "find_by_location", nil)
		return []domain.User{}, nil
	}

	ids := make([]primitive.ObjectID, 0, len(refs))
	rank := make(map[string]int, len(refs))
	for i, ref := range refs {
		ids = append(ids, ref.UserID)
		rank[ref.UserID.Hex()] = i
	}
	cur, err = r.users.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		repository.RecordOperation(ctx, "user", "find_by_location", err)
		return nil, fmt.Errorf("find nearby users: %w", err)
	}
	users, err := r.users.decodeAll(ctx, cur)
	repository.RecordOperation(ctx, "user", "find_by_location", err)
	if err != nil {
		return nil, err
	}
	repository.SortByRank(users, rank)
	return users, nil
}

func (r *UserRepository) FindRecentActiveUsers(ctx context.Context, days, limit int) ([]domain.User, error) {
	if limit <= 0 {
		limit = repository.DefaultRecentLimit
	}
	cutoff := r.Now().Add(-time.Duration(days) * 24 * time.Hour)
	cur, err := r.users.coll.Find(ctx,
		bson.M{
			"status":      string(domain.UserStatusActive),
			"lastLoginAt": bson.M{"$gte": cutoff},
		},
		options.Find().SetSort(bson.D{{Key: "lastLoginAt", Value: -1}}).SetLimit(int64(limit)),
	)
	if err != nil {
		repository.RecordOperation(ctx, "user", "find_recent_active", err)
		return nil, fmt.Errorf("find recent active users: %w", err)
	}
	users, err := r.users.decodeAll(ctx, cur)
	repository.RecordOperation(ctx, "user", "find_recent_active", err)
	return users, err
}

func (r *UserRepository) GetUserStats(ctx context.Context) (repository.UserStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cur, err := r.users.coll.Aggregate(ctx, pipeline)
	if err != nil {
		repository.RecordOperation(ctx, "user", "stats", err)
		return repository.UserStats{}, fmt.Errorf("aggregate user stats: %w", err)
	}
	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		repository.RecordOperation(ctx, "user", "stats", err)
		return repository.UserStats{}, fmt.Errorf("decode user stats: %w", err)
	}
	counts := make(map[domain.UserStatus]int64, len(rows))
	for _, row := range rows {
		counts[domain.UserStatus(row.Status)] += row.Count
	}
	repository.RecordOperation(ctx, "user", "stats", nil)
	return repository.NewUserStats(counts), nil
}

// EnsureIndexes creates the uniqueness and query indexes. It is safe to run
// on every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_email")},
		{Keys: bson.D{{Key: "status", Value: 1}}, Options: options.Index().SetName("idx_status")},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "lastLoginAt", Value: -1}}, Options: options.Index().SetName("idx_status_last_login")},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	_, err = db.Collection(profilesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_user_id")},
		{Keys: bson.D{{Key: "address.location", Value: "2dsphere"}}, Options: options.Index().SetName("geo_address_location")},
	})
	if err != nil {
		return fmt.Errorf("create profile indexes: %w", err)
	}
	return nil
}
