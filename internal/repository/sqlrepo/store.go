package sqlrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/repository"
)

// tableStore adapts one table to repository.Store. T is the domain record and
// R its gorm model.
type tableStore[T any, R any] struct {
	db    *gorm.DB
	table string
	// columns is the allow-list for filters, sorts and projections.
	columns     map[string]string
	uuidColumns map[string]bool
	encode      func(field string, v any) (map[string]any, error)
	toRecord    func(*T) (R, error)
	fromRecord  func(R) T
	setID       func(*T, string)
}

func (s *tableStore[T, R]) column(field string) (string, error) {
	col, ok := s.columns[field]
	if !ok {
		return "", fmt.Errorf("%w: %q", repository.ErrUnknownField, field)
	}
	return col, nil
}

func (s *tableStore[T, R]) model(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(new(R))
}

func (s *tableStore[T, R]) where(q *gorm.DB, f repository.Filter) (*gorm.DB, error) {
	for field, v := range f {
		if v == nil {
			continue
		}
		col, err := s.column(field)
		if err != nil {
			return nil, err
		}
		var val any
		if s.uuidColumns[col] {
			val, err = parseUUIDValue(v)
		} else {
			var cols map[string]any
			cols, err = s.encode(field, v)
			val = cols[col]
		}
		if err != nil {
			return nil, err
		}
		q = q.Where(clause.Eq{Column: clause.Column{Name: col}, Value: val})
	}
	return q, nil
}

func (s *tableStore[T, R]) Find(ctx context.Context, f repository.Filter, opts repository.QueryOptions) ([]T, error) {
	q, err := s.where(s.model(ctx), f)
	if err != nil {
		return nil, err
	}
	for _, sf := range opts.Sort {
		col, err := s.column(sf.Field)
		if err != nil {
			return nil, err
		}
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: sf.Direction == repository.Descending})
	}
	if len(opts.Select) > 0 {
		cols := make([]string, 0, len(opts.Select))
		for _, field := range opts.Select {
			col, err := s.column(field)
			if err != nil {
				return nil, err
			}
			cols = append(cols, col)
		}
		q = q.Select(cols)
	}
	if opts.Skip > 0 {
		q = q.Offset(opts.Skip)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	var rows []R
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find %s: %w", s.table, err)
	}
	return s.fromRows(rows), nil
}

func (s *tableStore[T, R]) fromRows(rows []R) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		out = append(out, s.fromRecord(r))
	}
	return out
}

func (s *tableStore[T, R]) Insert(ctx context.Context, entity *T) error {
	s.setID(entity, uuid.NewString())
	rec, err := s.toRecord(entity)
	if err != nil {
		s.setID(entity, "")
		return err
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		s.setID(entity, "")
		return mapWriteError(s.table, "insert", err)
	}
	return nil
}

func (s *tableStore[T, R]) UpdateByID(ctx context.Context, id string, fields map[string]any) (*T, error) {
	key, err := parseUUID(id)
	if err != nil {
		return nil, err
	}
	assignments := map[string]any{}
	for field, v := range fields {
		cols, err := s.encode(field, v)
		if err != nil {
			return nil, err
		}
		for col, val := range cols {
			assignments[col] = val
		}
	}

	var rec R
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(new(R)).Where(clause.Eq{Column: clause.Column{Name: "id"}, Value: key}).Updates(assignments)
		if res.Error != nil {
			return mapWriteError(s.table, "update", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where(clause.Eq{Column: clause.Column{Name: "id"}, Value: key}).Take(&rec).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := s.fromRecord(rec)
	return &out, nil
}

func (s *tableStore[T, R]) DeleteByID(ctx context.Context, id string) (bool, error) {
	key, err := parseUUID(id)
	if err != nil {
		return false, err
	}
	res := s.db.WithContext(ctx).Where(clause.Eq{Column: clause.Column{Name: "id"}, Value: key}).Delete(new(R))
	if res.Error != nil {
		return false, fmt.Errorf("delete %s: %w", s.table, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *tableStore[T, R]) Count(ctx context.Context, f repository.Filter) (int64, error) {
	q, err := s.where(s.model(ctx), f)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", s.table, err)
	}
	return n, nil
}

func parseUUID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: %q", repository.ErrInvalidID, id)
	}
	return u.String(), nil
}

func parseUUIDValue(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: unsupported id type %T", repository.ErrInvalidID, v)
	}
	return parseUUID(s)
}

// optionalUUID converts a reference value; an empty string clears it.
func optionalUUID(v any) (*string, error) {
	if s, ok := v.(string); ok && s == "" {
		return nil, nil
	}
	id, err := parseUUIDValue(v)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

const pgUniqueViolation = "23505"

func mapWriteError(table, op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.Is(err, gorm.ErrDuplicatedKey) || (errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation) {
		return fmt.Errorf("%s %s: %w", op, table, repository.ErrDuplicateKey)
	}
	return fmt.Errorf("%s %s: %w", op, table, err)
}
