package repository

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/domain"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/observability"
)

// BaseRepository implements the generic CRUD surface on top of a Store.
type BaseRepository[T any, P Entity[T]] struct {
	store  Store[T]
	entity string
	now    Clock
}

func NewBaseRepository[T any, P Entity[T]](entity string, store Store[T], clock Clock) *BaseRepository[T, P] {
	if clock == nil {
		clock = DefaultClock
	}
	return &BaseRepository[T, P]{store: store, entity: entity, now: clock}
}

// FindByID returns nil without error when no record has the id.
func (r *BaseRepository[T, P]) FindByID(ctx context.Context, id string) (*T, error) {
	rows, err := r.store.Find(ctx, Filter{domain.FieldID: id}, QueryOptions{Limit: 1})
	if err != nil {
		r.record(ctx, "find_by_id", "error")
		return nil, err
	}
	if len(rows) == 0 {
		r.record(ctx, "find_by_id", "not_found")
		return nil, nil
	}
	r.record(ctx, "find_by_id", "success")
	return &rows[0], nil
}

func (r *BaseRepository[T, P]) FindOne(ctx context.Context, filter Filter) (*T, error) {
	rows, err := r.store.Find(ctx, filter, QueryOptions{Limit: 1})
	if err != nil {
		r.record(ctx, "find_one", "error")
		return nil, err
	}
	if len(rows) == 0 {
		r.record(ctx, "find_one", "not_found")
		return nil, nil
	}
	r.record(ctx, "find_one", "success")
	return &rows[0], nil
}

func (r *BaseRepository[T, P]) FindMany(ctx context.Context, filter Filter, opts QueryOptions) ([]T, error) {
	rows, err := r.store.Find(ctx, filter, opts)
	r.record(ctx, "find_many", outcome(err))
	return rows, err
}

func (r *BaseRepository[T, P]) Count(ctx context.Context, filter Filter) (int64, error) {
	n, err := r.store.Count(ctx, filter)
	r.record(ctx, "count", outcome(err))
	return n, err
}

// Exists projects only the id so the record body is never transferred.
func (r *BaseRepository[T, P]) Exists(ctx context.Context, id string) (bool, error) {
	rows, err := r.store.Find(ctx, Filter{domain.FieldID: id}, QueryOptions{Limit: 1, Select: []string{domain.FieldID}})
	r.record(ctx, "exists", outcome(err))
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

func (r *BaseRepository[T, P]) Create(ctx context.Context, entity *T) (*T, error) {
	P(entity).Touch(r.now())
	if err := r.store.Insert(ctx, entity); err != nil {
		r.record(ctx, "create", "error")
		return nil, err
	}
	r.record(ctx, "create", "success")
	return entity, nil
}

// Update applies a partial update and refreshes updatedAt. It returns nil
// without error when nothing matched.
func (r *BaseRepository[T, P]) Update(ctx context.Context, id string, fields map[string]any) (*T, error) {
	changes := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		changes[k] = v
	}
	changes[domain.FieldUpdatedAt] = r.now()

	updated, err := r.store.UpdateByID(ctx, id, changes)
	switch {
	case err != nil:
		r.record(ctx, "update", "error")
		return nil, err
	case updated == nil:
		r.record(ctx, "update", "not_found")
		return nil, nil
	}
	r.record(ctx, "update", "success")
	return updated, nil
}

func (r *BaseRepository[T, P]) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := r.store.DeleteByID(ctx, id)
	switch {
	case err != nil:
		r.record(ctx, "delete", "error")
	case !deleted:
		r.record(ctx, "delete", "not_found")
	default:
		r.record(ctx, "delete", "success")
	}
	return deleted, err
}

// FindWithPagination runs the count and the bounded find concurrently.
func (r *BaseRepository[T, P]) FindWithPagination(ctx context.Context, filter Filter, page, limit int, opts QueryOptions) (PaginatedResult[T], error) {
	normalized := normalizePageRequest(PageRequest{Page: page, PageSize: limit})
	opts.Limit = normalized.PageSize
	opts.Skip = (normalized.Page - 1) * normalized.PageSize

	var (
		total int64
		rows  []T
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := r.store.Count(gctx, filter)
		total = n
		return err
	})
	g.Go(func() error {
		found, err := r.store.Find(gctx, filter, opts)
		rows = found
		return err
	})
	if err := g.Wait(); err != nil {
		r.record(ctx, "find_paginated", "error")
		return PaginatedResult[T]{}, err
	}
	if rows == nil {
		rows = []T{}
	}
	r.record(ctx, "find_paginated", "success")
	return PaginatedResult[T]{
		Data:       rows,
		Total:      total,
		Page:       normalized.Page,
		Limit:      normalized.PageSize,
		TotalPages: calcTotalPages(total, normalized.PageSize),
	}, nil
}

func (r *BaseRepository[T, P]) Now() time.Time { return r.now() }

func (r *BaseRepository[T, P]) record(ctx context.Context, op, result string) {
	observability.RecordRepositoryOperation(ctx, r.entity, op, result)
}

// RecordOperation records a backend-specific query under the shared
// repository metric.
func RecordOperation(ctx context.Context, entity, op string, err error) {
	observability.RecordRepositoryOperation(ctx, entity, op, outcome(err))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
