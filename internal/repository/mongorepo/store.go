package mongorepo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/repository"
)

// collectionStore adapts one collection to repository.Store. T is the domain
// record and D its BSON document.
type collectionStore[T any, D any] struct {
	coll *mongo.Collection
	// fields maps domain field names to document keys; it doubles as the
	// allow-list for filters, sorts and projections.
	fields    map[string]string
	objectIDs map[string]bool
	encode    func(field string, v any) (any, error)
	toDoc     func(*T) (D, error)
	fromDoc   func(D) T
	setID     func(*T, string)
}

func (s *collectionStore[T, D]) key(field string) (string, error) {
	k, ok := s.fields[field]
	if !ok {
		return "", fmt.Errorf("%w: %q", repository.ErrUnknownField, field)
	}
	return k, nil
}

func (s *collectionStore[T, D]) value(field, key string, v any) (any, error) {
	if s.objectIDs[key] {
		return objectIDValue(v)
	}
	if s.encode != nil {
		return s.encode(field, v)
	}
	return v, nil
}

func (s *collectionStore[T, D]) filter(f repository.Filter) (bson.M, error) {
	out := bson.M{}
	for field, v := range f {
		if v == nil {
			continue
		}
		key, err := s.key(field)
		if err != nil {
			return nil, err
		}
		val, err := s.value(field, key, v)
		if err != nil {
			return nil, err
		}
		out[key] = val
	}
	return out, nil
}

func (s *collectionStore[T, D]) findOptions(opts repository.QueryOptions) (*options.FindOptions, error) {
	fo := options.Find()
	if len(opts.Sort) > 0 {
		sort := bson.D{}
		for _, sf := range opts.Sort {
			key, err := s.key(sf.Field)
			if err != nil {
				return nil, err
			}
			sort = append(sort, bson.E{Key: key, Value: int(sf.Direction)})
		}
		fo.SetSort(sort)
	}
	if opts.Skip > 0 {
		fo.SetSkip(int64(opts.Skip))
	}
	if opts.Limit > 0 {
		fo.SetLimit(int64(opts.Limit))
	}
	if len(opts.Select) > 0 {
		projection := bson.D{}
		for _, field := range opts.Select {
			key, err := s.key(field)
			if err != nil {
				return nil, err
			}
			projection = append(projection, bson.E{Key: key, Value: 1})
		}
		fo.SetProjection(projection)
	}
	return fo, nil
}

func (s *collectionStore[T, D]) Find(ctx context.Context, f repository.Filter, opts repository.QueryOptions) ([]T, error) {
	query, err := s.filter(f)
	if err != nil {
		return nil, err
	}
	fo, err := s.findOptions(opts)
	if err != nil {
		return nil, err
	}
	cur, err := s.coll.Find(ctx, query, fo)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", s.coll.Name(), err)
	}
	return s.decodeAll(ctx, cur)
}

func (s *collectionStore[T, D]) decodeAll(ctx context.Context, cur *mongo.Cursor) ([]T, error) {
	var docs []D
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.coll.Name(), err)
	}
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		out = append(out, s.fromDoc(d))
	}
	return out, nil
}

func (s *collectionStore[T, D]) Insert(ctx context.Context, entity *T) error {
	s.setID(entity, primitive.NewObjectID().Hex())
	doc, err := s.toDoc(entity)
	if err != nil {
		s.setID(entity, "")
		return err
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		s.setID(entity, "")
		return mapWriteError(s.coll.Name(), "insert", err)
	}
	return nil
}

func (s *collectionStore[T, D]) UpdateByID(ctx context.Context, id string, fields map[string]any) (*T, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	set := bson.M{}
	for field, v := range fields {
		key, err := s.key(field)
		if err != nil {
			return nil, err
		}
		val, err := s.value(field, key, v)
		if err != nil {
			return nil, err
		}
		set[key] = val
	}

	var doc D
	err = s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, mapWriteError(s.coll.Name(), "update", err)
	}
	out := s.fromDoc(doc)
	return &out, nil
}

func (s *collectionStore[T, D]) DeleteByID(ctx context.Context, id string) (bool, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return false, err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", s.coll.Name(), err)
	}
	return res.DeletedCount > 0, nil
}

func (s *collectionStore[T, D]) Count(ctx context.Context, f repository.Filter) (int64, error) {
	query, err := s.filter(f)
	if err != nil {
		return 0, err
	}
	n, err := s.coll.CountDocuments(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", s.coll.Name(), err)
	}
	return n, nil
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", repository.ErrInvalidID, id)
	}
	return oid, nil
}

// objectIDValue converts a string id for a reference field; an empty string
// clears the reference.
func objectIDValue(v any) (any, error) {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id, nil
	case string:
		if id == "" {
			return nil, nil
		}
		return parseObjectID(id)
	default:
		return nil, fmt.Errorf("%w: unsupported id type %T", repository.ErrInvalidID, v)
	}
}

func optionalObjectID(id string) (*primitive.ObjectID, error) {
	if id == "" {
		return nil, nil
	}
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	return &oid, nil
}

func hexOrEmpty(oid *primitive.ObjectID) string {
	if oid == nil || oid.IsZero() {
		return ""
	}
	return oid.Hex()
}

func mapWriteError(collection, op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s %s: %w", op, collection, repository.ErrDuplicateKey)
	}
	return fmt.Errorf("%s %s: %w", op, collection, err)
}
