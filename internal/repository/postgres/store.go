package postgres

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"dossierapi/internal/database"
	"dossierapi/internal/repository"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func columns(cols []string) string {
	return strings.Join(cols, ", ")
}

// Store is the PostgreSQL implementation of repository.Store.
type Store struct {
	db *sql.DB
	q  querier
}

// NewStore creates a Store backed by a connection pool.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

var _ repository.Store = (*Store)(nil)

func (s *Store) Dossiers() repository.DossierRepository   { return &DossierPostgres{q: s.q} }
func (s *Store) Documents() repository.DocumentRepository { return &DocumentPostgres{q: s.q} }
func (s *Store) Users() repository.UserRepository         { return &UserPostgres{q: s.q} }
func (s *Store) Tokens() repository.TokenRepository       { return &TokenPostgres{q: s.q} }

// InTx opens a transaction. A Store already bound to a transaction runs fn in it directly.
func (s *Store) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.db == nil {
		return fn(s)
	}
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(&Store{q: tx})
	})
}
