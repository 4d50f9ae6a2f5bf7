package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dossierapi/internal/model"
	"dossierapi/internal/repository"
)

func TestUserPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewUserPostgres(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("email lower-cased", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO users (.+) RETURNING").
			WithArgs("Ana", "ana@example.com", "hash").
			WillReturnRows(sqlmock.NewRows(userColumns).AddRow(int64(1), "Ana", "ana@example.com", "hash", now, now))

		u, err := repo.Create(ctx, &model.User{Name: "Ana", Email: "Ana@Example.com", PasswordHash: "hash"})

		require.NoError(t, err)
		assert.Equal(t, int64(1), u.ID)
		assert.Equal(t, "ana@example.com", u.Email)
	})

	t.Run("duplicate email", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO users").
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})

		u, err := repo.Create(ctx, &model.User{Name: "Ana", Email: "ana@example.com", PasswordHash: "hash"})

		assert.Nil(t, u)
		assert.ErrorIs(t, err, repository.ErrDuplicate)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPostgres_Find(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewUserPostgres(db)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
		WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(int64(1), "Ana", "ana@example.com", "hash", now, now))

	u, err := repo.FindByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", u.PasswordHash)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(userColumns))

	u, err = repo.FindByID(ctx, 2)
	assert.Nil(t, u)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewTokenPostgres(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("create defaults abilities", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO personal_access_tokens (.+) RETURNING").
			WithArgs(int64(1), "cli", []byte(`["*"]`), nil).
			WillReturnRows(sqlmock.NewRows(tokenColumns).AddRow(int64(3), int64(1), "cli", []byte(`["*"]`), nil, nil, now))

		tok, err := repo.Create(ctx, &model.AccessToken{UserID: 1, Name: "cli"})

		require.NoError(t, err)
		assert.Equal(t, int64(3), tok.ID)
		assert.Equal(t, []string{"*"}, tok.Abilities)
		assert.False(t, tok.LastUsedAt.Valid)
	})

	t.Run("find by id", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM personal_access_tokens WHERE id = \$1`).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows(tokenColumns).AddRow(int64(3), int64(1), "cli", []byte(`["dossiers:read"]`), now, nil, now))

		tok, err := repo.FindByID(ctx, 3)

		require.NoError(t, err)
		assert.True(t, tok.LastUsedAt.Valid)
		assert.True(t, tok.Can("dossiers:read"))
		assert.False(t, tok.Can("dossiers:write"))
	})

	t.Run("list by user", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM personal_access_tokens WHERE user_id = \$1 ORDER BY created_at DESC, id DESC`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows(tokenColumns).
				AddRow(int64(4), int64(1), "ci", []byte(`["*"]`), nil, now.Add(time.Hour), now).
				AddRow(int64(3), int64(1), "cli", []byte(`["*"]`), nil, nil, now))

		tokens, err := repo.ListByUser(ctx, 1)

		require.NoError(t, err)
		require.Len(t, tokens, 2)
		assert.True(t, tokens[0].ExpiresAt.Valid)
		assert.False(t, tokens[1].ExpiresAt.Valid)
	})

	t.Run("delete scoped to owner", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM personal_access_tokens WHERE user_id = \$1 AND id = \$2`).
			WithArgs(int64(2), int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(ctx, 2, 3), sql.ErrNoRows)
	})

	t.Run("touch", func(t *testing.T) {
		mock.ExpectExec(`UPDATE personal_access_tokens SET last_used_at = \$1 WHERE id = \$2`).
			WithArgs(now, int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Touch(ctx, 3, now))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
