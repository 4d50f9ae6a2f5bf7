package postgres

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"dossierapi/internal/model"
	"dossierapi/internal/repository"
)

const tableUsers = "users"

var userColumns = []string{"id", "name", "email", "password_hash", "created_at", "updated_at"}

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
type UserPostgres struct {
	q querier
}

func NewUserPostgres(q querier) *UserPostgres {
	return &UserPostgres{q: q}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a user. Emails are stored lower-cased.
func (r *UserPostgres) Create(ctx context.Context, u *model.User) (*model.User, error) {
	query, args, err := psql.Insert(tableUsers).
		Columns("name", "email", "password_hash").
		Values(u.Name, strings.ToLower(u.Email), u.PasswordHash).
		Suffix("RETURNING " + columns(userColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}
	created, err := scanUser(r.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, translateError(err)
	}
	return created, nil
}

func (r *UserPostgres) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.findOne(ctx, sq.Eq{"id": id})
}

func (r *UserPostgres) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, sq.Eq{"email": strings.ToLower(email)})
}

func (r *UserPostgres) findOne(ctx context.Context, pred sq.Eq) (*model.User, error) {
	query, args, err := psql.Select(userColumns...).From(tableUsers).Where(pred).ToSql()
	if err != nil {
		return nil, err
	}
	return scanUser(r.q.QueryRowContext(ctx, query, args...))
}
