package postgres

import (
	"context"
	"database/sql"
	"errors"
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

func dossierRows() *sqlmock.Rows {
	return sqlmock.NewRows(dossierColumns)
}

func addDossierRow(rows *sqlmock.Rows, id int64, status string, createdAt time.Time) *sqlmock.Rows {
	dob := time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)
	return rows.AddRow(id, int64(7), nil, "A1234567", "ID", dob, "tourist", status, nil, []byte(`{"purpose":"holiday"}`), createdAt, createdAt)
}

func TestDossierPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDossierPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	d := &model.Dossier{
		UserID:         7,
		PassportNumber: "A1234567",
		Nationality:    "ID",
		DateOfBirth:    time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC),
		VisaType:       model.VisaTourist,
		Status:         model.StatusDraft,
		AdditionalData: map[string]any{"purpose": "holiday"},
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO visa_dossiers (.+) RETURNING").
			WithArgs(int64(7), nil, "A1234567", "ID", d.DateOfBirth, "tourist", "draft", nil, []byte(`{"purpose":"holiday"}`)).
			WillReturnRows(addDossierRow(dossierRows(), 1, "draft", now))

		got, err := repo.Create(ctx, d)

		require.NoError(t, err)
		assert.Equal(t, int64(1), got.ID)
		assert.Equal(t, model.VisaTourist, got.VisaType)
		assert.Equal(t, model.StatusDraft, got.Status)
		assert.False(t, got.AssignedOfficerID.Valid)
		assert.Equal(t, "holiday", got.AdditionalData["purpose"])
	})

	t.Run("unique violation", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO visa_dossiers").
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "uq_visa_dossiers_user_passport"})

		got, err := repo.Create(ctx, d)

		assert.Nil(t, got)
		assert.ErrorIs(t, err, repository.ErrDuplicate)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDossierPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDossierPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM visa_dossiers WHERE user_id = \$1 AND id = \$2$`).
			WithArgs(int64(7), int64(1)).
			WillReturnRows(addDossierRow(dossierRows(), 1, "submitted", time.Now()))

		d, err := repo.FindByID(ctx, 7, 1)

		require.NoError(t, err)
		assert.Equal(t, model.StatusSubmitted, d.Status)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM visa_dossiers WHERE user_id = \$1 AND id = \$2`).
			WithArgs(int64(8), int64(1)).
			WillReturnRows(dossierRows())

		d, err := repo.FindByID(ctx, 8, 1)

		assert.Nil(t, d)
		assert.True(t, errors.Is(err, sql.ErrNoRows))
	})

	t.Run("for update", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM visa_dossiers WHERE user_id = \$1 AND id = \$2 FOR UPDATE`).
			WithArgs(int64(7), int64(1)).
			WillReturnRows(addDossierRow(dossierRows(), 1, "draft", time.Now()))

		d, err := repo.FindByIDForUpdate(ctx, 7, 1)

		require.NoError(t, err)
		assert.Equal(t, int64(1), d.ID)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDossierPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDossierPostgres(db)
	ctx := context.Background()

	t.Run("filtered page", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM visa_dossiers WHERE user_id = \$1 AND application_status = \$2 AND visa_type = \$3`).
			WithArgs(int64(7), "draft", "tourist").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

		now := time.Now()
		rows := addDossierRow(dossierRows(), 2, "draft", now)
		addDossierRow(rows, 1, "draft", now.Add(-time.Hour))
		mock.ExpectQuery(`SELECT (.+) FROM visa_dossiers WHERE (.+) ORDER BY created_at DESC, id DESC LIMIT 2 OFFSET 4`).
			WithArgs(int64(7), "draft", "tourist").
			WillReturnRows(rows)

		res, err := repo.List(ctx, 7, repository.DossierFilter{
			Status:    model.StatusDraft,
			VisaType:  model.VisaTourist,
			PageQuery: repository.PageQuery{Limit: 2, Offset: 4},
		})

		require.NoError(t, err)
		assert.Equal(t, 12, res.Total)
		require.Len(t, res.Items, 2)
		assert.Equal(t, int64(2), res.Items[0].ID)
	})

	t.Run("unbounded", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM visa_dossiers WHERE user_id = \$1$`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`SELECT (.+) FROM visa_dossiers WHERE user_id = \$1 ORDER BY created_at DESC, id DESC$`).
			WithArgs(int64(7)).
			WillReturnRows(dossierRows())

		res, err := repo.List(ctx, 7, repository.DossierFilter{})

		require.NoError(t, err)
		assert.Equal(t, 0, res.Total)
		assert.NotNil(t, res.Items)
		assert.Empty(t, res.Items)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDossierPostgres_PassportTaken(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDossierPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT EXISTS \( SELECT 1 FROM visa_dossiers WHERE user_id = \$1 AND passport_number = \$2 \)`).
		WithArgs(int64(7), "A1234567").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := repo.PassportTaken(ctx, 7, "A1234567", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	mock.ExpectQuery(`SELECT EXISTS \( SELECT 1 FROM visa_dossiers WHERE user_id = \$1 AND passport_number = \$2 AND id <> \$3 \)`).
		WithArgs(int64(7), "A1234567", int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	taken, err = repo.PassportTaken(ctx, 7, "A1234567", 3)
	require.NoError(t, err)
	assert.False(t, taken)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDossierPostgres_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDossierPostgres(db)
	ctx := context.Background()

	d := &model.Dossier{
		ID:             1,
		UserID:         7,
		PassportNumber: "A1234567",
		Nationality:    "ID",
		VisaType:       model.VisaTourist,
		Status:         model.StatusSubmitted,
	}

	mock.ExpectQuery(`UPDATE visa_dossiers SET (.+) updated_at = now\(\) WHERE user_id = \$\d+ AND id = \$\d+ RETURNING`).
		WillReturnRows(addDossierRow(dossierRows(), 1, "submitted", time.Now()))

	got, err := repo.Update(ctx, d)

	require.NoError(t, err)
	assert.Equal(t, model.StatusSubmitted, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDossierPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDossierPostgres(db)
	ctx := context.Background()

	t.Run("deleted", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM visa_dossiers WHERE user_id = \$1 AND id = \$2`).
			WithArgs(int64(7), int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(ctx, 7, 1))
	})

	t.Run("other owner", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM visa_dossiers WHERE user_id = \$1 AND id = \$2`).
			WithArgs(int64(8), int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(ctx, 8, 1), sql.ErrNoRows)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
