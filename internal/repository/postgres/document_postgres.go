package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"dossierapi/internal/model"
	"dossierapi/internal/repository"
)

const (
	tableDocuments     = "dossier_documents"
	tableDocumentFiles = "document_files"
)

var documentColumns = []string{
	"id",
	"dossier_id",
	"document_type",
	"name",
	"description",
	"file_size",
	"mime_type",
	"original_filename",
	"created_at",
	"updated_at",
}

var documentFileColumns = []string{
	"id",
	"document_id",
	"position",
	"name",
	"file_name",
	"storage_path",
	"size",
	"content_type",
	"created_at",
}

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
type DocumentPostgres struct {
	q querier
}

// NewDocumentPostgres creates a DocumentPostgres bound to q.
func NewDocumentPostgres(q querier) *DocumentPostgres {
	return &DocumentPostgres{q: q}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

func scanDocument(row rowScanner) (*model.Document, error) {
	var d model.Document
	if err := row.Scan(
		&d.ID,
		&d.DossierID,
		&d.Type,
		&d.Name,
		&d.Description,
		&d.Size,
		&d.ContentType,
		&d.OriginalFilename,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	d.Files = []model.DocumentFile{}
	return &d, nil
}

func scanDocumentFile(row rowScanner) (*model.DocumentFile, error) {
	var f model.DocumentFile
	if err := row.Scan(
		&f.ID,
		&f.DocumentID,
		&f.Position,
		&f.Name,
		&f.FileName,
		&f.StoragePath,
		&f.Size,
		&f.ContentType,
		&f.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &f, nil
}

// Create inserts the document record. Files are added separately with AddFile.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	query, args, err := psql.Insert(tableDocuments).
		Columns("dossier_id", "document_type", "name", "description", "file_size", "mime_type", "original_filename").
		Values(doc.DossierID, string(doc.Type), doc.Name, doc.Description, doc.Size, doc.ContentType, doc.OriginalFilename).
		Suffix("RETURNING " + columns(documentColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanDocument(r.q.QueryRowContext(ctx, query, args...))
}

// AddFile inserts one stored-object record for a document.
func (r *DocumentPostgres) AddFile(ctx context.Context, f *model.DocumentFile) (*model.DocumentFile, error) {
	query, args, err := psql.Insert(tableDocumentFiles).
		Columns("document_id", "position", "name", "file_name", "storage_path", "size", "content_type").
		Values(f.DocumentID, f.Position, f.Name, f.FileName, f.StoragePath, f.Size, f.ContentType).
		Suffix("RETURNING " + columns(documentFileColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanDocumentFile(r.q.QueryRowContext(ctx, query, args...))
}

// FindByID fetches a document of a dossier with its files.
func (r *DocumentPostgres) FindByID(ctx context.Context, dossierID, id int64) (*model.Document, error) {
	query, args, err := psql.Select(documentColumns...).
		From(tableDocuments).
		Where(sq.Eq{"dossier_id": dossierID}).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}
	doc, err := scanDocument(r.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, err
	}

	docs := []model.Document{*doc}
	if err := r.loadFiles(ctx, docs); err != nil {
		return nil, err
	}
	return &docs[0], nil
}

// ListByDossier returns documents newest first, optionally narrowed to one type.
func (r *DocumentPostgres) ListByDossier(ctx context.Context, dossierID int64, docType model.DocumentType) ([]model.Document, error) {
	b := psql.Select(documentColumns...).
		From(tableDocuments).
		Where(sq.Eq{"dossier_id": dossierID})
	if docType != "" {
		b = b.Where(sq.Eq{"document_type": string(docType)})
	}
	return r.list(ctx, b.OrderBy("created_at DESC", "id DESC"))
}

// ListByDossiers loads the documents of several dossiers at once.
func (r *DocumentPostgres) ListByDossiers(ctx context.Context, dossierIDs []int64) ([]model.Document, error) {
	if len(dossierIDs) == 0 {
		return []model.Document{}, nil
	}
	b := psql.Select(documentColumns...).
		From(tableDocuments).
		Where(sq.Eq{"dossier_id": dossierIDs}).
		OrderBy("created_at DESC", "id DESC")
	return r.list(ctx, b)
}

func (r *DocumentPostgres) list(ctx context.Context, b sq.SelectBuilder) ([]model.Document, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadFiles(ctx, docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// loadFiles attaches file records to docs in place using a single query.
func (r *DocumentPostgres) loadFiles(ctx context.Context, docs []model.Document) error {
	if len(docs) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(docs))
	index := make(map[int64]int, len(docs))
	for i := range docs {
		ids = append(ids, docs[i].ID)
		index[docs[i].ID] = i
	}

	query, args, err := psql.Select(documentFileColumns...).
		From(tableDocumentFiles).
		Where(sq.Eq{"document_id": ids}).
		OrderBy("document_id", "position").
		ToSql()
	if err != nil {
		return err
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		f, err := scanDocumentFile(rows)
		if err != nil {
			return err
		}
		if i, ok := index[f.DocumentID]; ok {
			docs[i].Files = append(docs[i].Files, *f)
		}
	}
	return rows.Err()
}

// Delete removes a document; its file rows cascade. Returns sql.ErrNoRows when nothing matched.
func (r *DocumentPostgres) Delete(ctx context.Context, dossierID, id int64) error {
	query, args, err := psql.Delete(tableDocuments).
		Where(sq.Eq{"dossier_id": dossierID}).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	return execAffectingOne(ctx, r.q, query, args)
}
