package repository

import "errors"

var (
	ErrInvalidID    = errors.New("invalid id")
	ErrUnknownField = errors.New("unknown field")
	ErrDuplicateKey = errors.New("duplicate key")
)
