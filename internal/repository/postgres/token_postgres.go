package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"dossierapi/internal/model"
	"dossierapi/internal/repository"
)

const tableTokens = "personal_access_tokens"

var tokenColumns = []string{"id", "user_id", "name", "abilities", "last_used_at", "expires_at", "created_at"}

// TokenPostgres is a PostgreSQL implementation of repository.TokenRepository.
type TokenPostgres struct {
	q querier
}

func NewTokenPostgres(q querier) *TokenPostgres {
	return &TokenPostgres{q: q}
}

var _ repository.TokenRepository = (*TokenPostgres)(nil)

func scanToken(row rowScanner) (*model.AccessToken, error) {
	var (
		t         model.AccessToken
		abilities []byte
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Name, &abilities, &t.LastUsedAt, &t.ExpiresAt, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Abilities = []string{}
	if len(abilities) > 0 {
		if err := json.Unmarshal(abilities, &t.Abilities); err != nil {
			return nil, fmt.Errorf("decode abilities: %w", err)
		}
	}
	return &t, nil
}

// Create inserts a token record. Empty abilities default to ["*"].
func (r *TokenPostgres) Create(ctx context.Context, t *model.AccessToken) (*model.AccessToken, error) {
	abilities := t.Abilities
	if len(abilities) == 0 {
		abilities = []string{"*"}
	}
	raw, err := json.Marshal(abilities)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.Insert(tableTokens).
		Columns("user_id", "name", "abilities", "expires_at").
		Values(t.UserID, t.Name, raw, t.ExpiresAt).
		Suffix("RETURNING " + columns(tokenColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanToken(r.q.QueryRowContext(ctx, query, args...))
}

func (r *TokenPostgres) FindByID(ctx context.Context, id int64) (*model.AccessToken, error) {
	query, args, err := psql.Select(tokenColumns...).From(tableTokens).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanToken(r.q.QueryRowContext(ctx, query, args...))
}

// ListByUser returns a user's tokens newest first.
func (r *TokenPostgres) ListByUser(ctx context.Context, userID int64) ([]model.AccessToken, error) {
	query, args, err := psql.Select(tokenColumns...).
		From(tableTokens).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := make([]model.AccessToken, 0)
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, *t)
	}
	return tokens, rows.Err()
}

// Delete revokes a token owned by userID. Returns sql.ErrNoRows when nothing matched.
func (r *TokenPostgres) Delete(ctx context.Context, userID, id int64) error {
	query, args, err := psql.Delete(tableTokens).
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	return execAffectingOne(ctx, r.q, query, args)
}

// Touch records the last time a token authenticated a request.
func (r *TokenPostgres) Touch(ctx context.Context, id int64, at time.Time) error {
	query, args, err := psql.Update(tableTokens).
		Set("last_used_at", at).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	return execAffectingOne(ctx, r.q, query, args)
}
