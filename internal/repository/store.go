package repository

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Filter matches records whose fields equal the given values. Keys are
// domain field names; nil values are ignored.
type Filter map[string]any

type SortDirection int

const (
	Ascending  SortDirection = 1
	Descending SortDirection = -1
)

// ParseSortDirection accepts asc/desc (any case) and defaults to ascending.
func ParseSortDirection(raw string) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "asc", "ascending", "1":
		return Ascending, nil
	case "desc", "descending", "-1":
		return Descending, nil
	default:
		return 0, fmt.Errorf("%w: sort direction %q", ErrUnknownField, raw)
	}
}

type SortField struct {
	Field     string
	Direction SortDirection
}

type QueryOptions struct {
	Limit  int
	Skip   int
	Sort   []SortField
	Select []string
}

// Store is the capability set a backend adapter provides for one entity
// type. Adapters own id generation and the domain/storage field mapping.
type Store[T any] interface {
	Find(ctx context.Context, filter Filter, opts QueryOptions) ([]T, error)
	Insert(ctx context.Context, entity *T) error
	UpdateByID(ctx context.Context, id string, fields map[string]any) (*T, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context, filter Filter) (int64, error)
}

// Entity is satisfied by pointers to the domain records.
type Entity[T any] interface {
	*T
	GetID() string
	Touch(now time.Time)
}

// Clock returns the timestamp written into createdAt/updatedAt.
type Clock func() time.Time

// DefaultClock truncates to milliseconds, the coarsest precision among
// the supported backends.
func DefaultClock() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
