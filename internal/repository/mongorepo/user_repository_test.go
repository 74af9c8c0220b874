package mongorepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/domain"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/repository"
)

func userDoc(id primitive.ObjectID, email string, status domain.UserStatus) bson.D {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "email", Value: email},
		{Key: "name", Value: "User " + email},
		{Key: "password", Value: "$argon2id$hash"},
		{Key: "status", Value: string(status)},
		{Key: "role", Value: string(domain.UserRoleUser)},
		{Key: "createdAt", Value: now},
		{Key: "updatedAt", Value: now},
	}
}

func TestMongoUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("create assigns an object id", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		u, err := repo.Create(ctx, &domain.User{Email: "New@Example.com", Name: "New", Status: domain.UserStatusActive, Role: domain.UserRoleUser})
		if err != nil {
			mt.Fatalf("create: %v", err)
		}
		if _, err := primitive.ObjectIDFromHex(u.ID); err != nil {
			mt.Fatalf("expected object id, got %q", u.ID)
		}
		if u.CreatedAt.IsZero() || u.UpdatedAt.IsZero() {
			mt.Fatalf("expected timestamps, got %+v", u)
		}
	})

	mt.Run("duplicate email maps to ErrDuplicateKey", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: users index: uniq_email",
		}))

		_, err := repo.Create(ctx, &domain.User{Email: "dup@example.com", Name: "Dup", Status: domain.UserStatusActive})
		if !errors.Is(err, repository.ErrDuplicateKey) {
			mt.Fatalf("expected ErrDuplicateKey, got %v", err)
		}
	})

	mt.Run("find by id decodes the document", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.users", mtest.FirstBatch, userDoc(id, "a@b.com", domain.UserStatusVIP)))

		u, err := repo.FindByID(ctx, id.Hex())
		if err != nil {
			mt.Fatalf("find by id: %v", err)
		}
		if u == nil || u.ID != id.Hex() || u.Email != "a@b.com" || u.Status != domain.UserStatusVIP {
			mt.Fatalf("unexpected user: %+v", u)
		}
	})

	mt.Run("find by id returns nil when absent", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.users", mtest.FirstBatch))

		u, err := repo.FindByID(ctx, primitive.NewObjectID().Hex())
		if err != nil || u != nil {
			mt.Fatalf("expected nil, nil got %+v, %v", u, err)
		}
	})

	mt.Run("malformed id fails fast", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		if _, err := repo.FindByID(ctx, "not-an-object-id"); !errors.Is(err, repository.ErrInvalidID) {
			mt.Fatalf("expected ErrInvalidID, got %v", err)
		}
		if _, err := repo.Delete(ctx, "123"); !errors.Is(err, repository.ErrInvalidID) {
			mt.Fatalf("expected ErrInvalidID on delete, got %v", err)
		}
	})

	mt.Run("unknown sort field is rejected", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		_, err := repo.FindMany(ctx, repository.Filter{}, repository.QueryOptions{
			Sort: []repository.SortField{{Field: "password; drop", Direction: repository.Ascending}},
		})
		if !errors.Is(err, repository.ErrUnknownField) {
			mt.Fatalf("expected ErrUnknownField, got %v", err)
		}
	})

	mt.Run("delete reports whether a document was removed", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)
		id := primitive.NewObjectID().Hex()
		if ok, err := repo.Delete(ctx, id); err != nil || !ok {
			mt.Fatalf("expected true, got %v, %v", ok, err)
		}
		if ok, err := repo.Delete(ctx, id); err != nil || ok {
			mt.Fatalf("expected false for missing id, got %v, %v", ok, err)
		}
	})

	mt.Run("update of a missing id returns nil", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})

		u, err := repo.Update(ctx, primitive.NewObjectID().Hex(), map[string]any{domain.FieldStatus: domain.UserStatusVIP})
		if err != nil || u != nil {
			mt.Fatalf("expected nil, nil got %+v, %v", u, err)
		}
	})

	mt.Run("update returns the new document", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: userDoc(id, "a@b.com", domain.UserStatusVIP)}})

		u, err := repo.Update(ctx, id.Hex(), map[string]any{domain.FieldStatus: domain.UserStatusVIP})
		if err != nil {
			mt.Fatalf("update: %v", err)
		}
		if u == nil || u.Status != domain.UserStatusVIP {
			mt.Fatalf("unexpected updated user: %+v", u)
		}
	})

	mt.Run("stats fold grouped counts", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.users", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "ACTIVE"}, {Key: "count", Value: int32(5)}},
			bson.D{{Key: "_id", Value: "VIP"}, {Key: "count", Value: int32(2)}},
			bson.D{{Key: "_id", Value: "SUSPENDED"}, {Key: "count", Value: int32(1)}},
			bson.D{{Key: "_id", Value: "ARCHIVED"}, {Key: "count", Value: int32(4)}},
		))

		stats, err := repo.GetUserStats(ctx)
		if err != nil {
			mt.Fatalf("stats: %v", err)
		}
		want := repository.UserStats{Total: 12, Active: 5, Inactive: 0, VIP: 2}
		if stats != want {
			mt.Fatalf("unexpected stats: got %+v want %+v", stats, want)
		}
	})

	mt.Run("nearby users keep distance order", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		near, far := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "db.user_profiles", mtest.FirstBatch,
				bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "userId", Value: near}},
				bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "userId", Value: far}},
			),
			mtest.CreateCursorResponse(0, "db.users", mtest.FirstBatch,
				userDoc(far, "far@x.io", domain.UserStatusActive),
				userDoc(near, "near@x.io", domain.UserStatusActive),
			),
		)

		users, err := repo.FindUsersByLocation(ctx, 40.7, -74.0, 10)
		if err != nil {
			mt.Fatalf("find by location: %v", err)
		}
		if len(users) != 2 || users[0].ID != near.Hex() || users[1].ID != far.Hex() {
			mt.Fatalf("unexpected order: %+v", users)
		}
	})

	mt.Run("nearby users with no profiles", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.user_profiles", mtest.FirstBatch))

		users, err := repo.FindUsersByLocation(ctx, 0, 0, 1)
		if err != nil || len(users) != 0 {
			mt.Fatalf("expected empty result, got %+v, %v", users, err)
		}
	})
}

func TestAddressDocumentStoresLngLat(t *testing.T) {
	doc := toAddressDocument(&domain.Address{City: "NYC", Location: &domain.GeoPoint{Lat: 40.7, Lng: -74.0}})
	if doc.Location == nil || doc.Location.Type != "Point" || doc.Location.Coordinates[0] != -74.0 || doc.Location.Coordinates[1] != 40.7 {
		t.Fatalf("unexpected geojson point: %+v", doc.Location)
	}
	back := fromAddressDocument(doc)
	if back.Location.Lat != 40.7 || back.Location.Lng != -74.0 {
		t.Fatalf("unexpected decoded location: %+v", back.Location)
	}
}

func TestEncodeUserValueNormalizesEmail(t *testing.T) {
	v, err := encodeUserValue(domain.FieldEmail, " Mixed@Case.IO ")
	if err != nil || v != "mixed@case.io" {
		t.Fatalf("unexpected encoded email %v, %v", v, err)
	}
}
