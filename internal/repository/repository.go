// Package repository contains data access layer abstractions.
// Implementations live in subpackages (postgres) and contain no business logic.
// Lookups that find nothing return sql.ErrNoRows; callers translate it.
package repository

import (
	"context"
	"errors"
)

// ErrDuplicate is returned when a write violates a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate record")

// Store groups the repositories that share one connection or transaction.
type Store interface {
	Dossiers() DossierRepository
	Documents() DocumentRepository
	Users() UserRepository
	Tokens() TokenRepository

	// InTx runs fn with a Store bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx Store) error) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
