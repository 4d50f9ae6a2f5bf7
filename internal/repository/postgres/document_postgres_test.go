package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dossierapi/internal/model"
)

func documentRow(rows *sqlmock.Rows, id int64, docType string) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, int64(1), docType, "Passport scan", nil, int64(2048), "application/pdf", "scan.pdf", now, now)
}

func fileRow(rows *sqlmock.Rows, id, docID int64, position int) *sqlmock.Rows {
	return rows.AddRow(id, docID, position, "scan.pdf", "passport_2026-01-02_10-00-00_abcd1234.pdf",
		"dossiers/1/documents/1/passport_2026-01-02_10-00-00_abcd1234.pdf", int64(2048), "application/pdf", time.Now())
}

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	doc := &model.Document{
		DossierID:        1,
		Type:             model.DocPassport,
		Name:             "Passport scan",
		Description:      null.StringFrom("front page"),
		Size:             2048,
		ContentType:      "application/pdf",
		OriginalFilename: "scan.pdf",
	}

	mock.ExpectQuery("INSERT INTO dossier_documents (.+) RETURNING").
		WithArgs(int64(1), "passport", "Passport scan", "front page", int64(2048), "application/pdf", "scan.pdf").
		WillReturnRows(documentRow(sqlmock.NewRows(documentColumns), 5, "passport"))

	got, err := repo.Create(ctx, doc)

	require.NoError(t, err)
	assert.Equal(t, int64(5), got.ID)
	assert.Equal(t, model.DocPassport, got.Type)
	assert.NotNil(t, got.Files)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_AddFile(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)

	f := &model.DocumentFile{
		DocumentID:  5,
		Position:    1,
		Name:        "scan.pdf",
		FileName:    "passport_2026-01-02_10-00-00_abcd1234.pdf",
		StoragePath: "dossiers/1/documents/5/passport_2026-01-02_10-00-00_abcd1234.pdf",
		Size:        2048,
		ContentType: "application/pdf",
	}

	mock.ExpectQuery("INSERT INTO document_files (.+) RETURNING").
		WithArgs(int64(5), 1, f.Name, f.FileName, f.StoragePath, int64(2048), "application/pdf").
		WillReturnRows(fileRow(sqlmock.NewRows(documentFileColumns), 11, 5, 1))

	got, err := repo.AddFile(context.Background(), f)

	require.NoError(t, err)
	assert.Equal(t, int64(11), got.ID)
	assert.Equal(t, int64(5), got.DocumentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("found with files", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM dossier_documents WHERE dossier_id = \$1 AND id = \$2`).
			WithArgs(int64(1), int64(5)).
			WillReturnRows(documentRow(sqlmock.NewRows(documentColumns), 5, "passport"))

		files := fileRow(sqlmock.NewRows(documentFileColumns), 11, 5, 1)
		fileRow(files, 12, 5, 2)
		mock.ExpectQuery(`SELECT (.+) FROM document_files WHERE document_id IN \(\$1\) ORDER BY document_id, position`).
			WithArgs(int64(5)).
			WillReturnRows(files)

		doc, err := repo.FindByID(ctx, 1, 5)

		require.NoError(t, err)
		require.Len(t, doc.Files, 2)
		assert.Equal(t, 1, doc.Files[0].Position)
		assert.Equal(t, 2, doc.Files[1].Position)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM dossier_documents WHERE dossier_id = \$1 AND id = \$2`).
			WithArgs(int64(1), int64(99)).
			WillReturnRows(sqlmock.NewRows(documentColumns))

		doc, err := repo.FindByID(ctx, 1, 99)

		assert.Nil(t, doc)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_ListByDossier(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("filtered by type", func(t *testing.T) {
		rows := documentRow(sqlmock.NewRows(documentColumns), 6, "passport")
		documentRow(rows, 5, "passport")
		mock.ExpectQuery(`SELECT (.+) FROM dossier_documents WHERE dossier_id = \$1 AND document_type = \$2 ORDER BY created_at DESC, id DESC`).
			WithArgs(int64(1), "passport").
			WillReturnRows(rows)

		files := fileRow(sqlmock.NewRows(documentFileColumns), 11, 5, 1)
		fileRow(files, 12, 6, 1)
		mock.ExpectQuery(`SELECT (.+) FROM document_files WHERE document_id IN \(\$1,\$2\)`).
			WithArgs(int64(6), int64(5)).
			WillReturnRows(files)

		docs, err := repo.ListByDossier(ctx, 1, model.DocPassport)

		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, int64(12), docs[0].Files[0].ID)
		assert.Equal(t, int64(11), docs[1].Files[0].ID)
	})

	t.Run("empty dossier skips file query", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM dossier_documents WHERE dossier_id = \$1 ORDER BY`).
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows(documentColumns))

		docs, err := repo.ListByDossier(ctx, 2, "")

		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_ListByDossiers(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)

	docs, err := repo.ListByDossiers(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, docs)

	mock.ExpectQuery(`SELECT (.+) FROM dossier_documents WHERE dossier_id IN \(\$1,\$2\)`).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(documentRow(sqlmock.NewRows(documentColumns), 5, "passport"))
	mock.ExpectQuery(`SELECT (.+) FROM document_files`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(documentFileColumns))

	docs, err = repo.ListByDossiers(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Empty(t, docs[0].Files)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM dossier_documents WHERE dossier_id = \$1 AND id = \$2`).
		WithArgs(int64(1), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.Delete(ctx, 1, 5))

	mock.ExpectExec(`DELETE FROM dossier_documents WHERE dossier_id = \$1 AND id = \$2`).
		WithArgs(int64(2), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(ctx, 2, 5), sql.ErrNoRows)

	assert.NoError(t, mock.ExpectationsWereMet())
}
