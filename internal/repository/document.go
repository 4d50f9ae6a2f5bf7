package repository

import (
	"context"

	"dossierapi/internal/model"
)

// DocumentRepository persists dossier documents and their file records.
// Documents returned by reads carry their files ordered by position.
type DocumentRepository interface {
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	AddFile(ctx context.Context, f *model.DocumentFile) (*model.DocumentFile, error)

	FindByID(ctx context.Context, dossierID, id int64) (*model.Document, error)

	// ListByDossier returns documents newest first. An empty docType lists every type.
	ListByDossier(ctx context.Context, dossierID int64, docType model.DocumentType) ([]model.Document, error)

	ListByDossiers(ctx context.Context, dossierIDs []int64) ([]model.Document, error)

	Delete(ctx context.Context, dossierID, id int64) error
}
