package model

import (
	"time"

	"github.com/guregu/null/v5"
)

// Document is a named, typed bundle of uploaded files attached to a dossier.
// Size, ContentType and OriginalFilename mirror the first uploaded file.
type Document struct {
	ID               int64          `json:"id"`
	DossierID        int64          `json:"dossier_id"`
	Type             DocumentType   `json:"document_type"`
	Name             string         `json:"name"`
	Description      null.String    `json:"description"`
	Size             int64          `json:"file_size"`
	ContentType      string         `json:"mime_type"`
	OriginalFilename string         `json:"original_filename"`
	Files            []DocumentFile `json:"files"`
	CreatedAt        time.Time      `json:"uploaded_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// DocumentFile is one stored object belonging to a document.
// StoragePath is the object storage key and never leaves the service.
type DocumentFile struct {
	ID          int64     `json:"id"`
	DocumentID  int64     `json:"document_id"`
	Position    int       `json:"position"`
	Name        string    `json:"name"`
	FileName    string    `json:"file_name"`
	StoragePath string    `json:"-"`
	Size        int64     `json:"size"`
	ContentType string    `json:"mime_type"`
	CreatedAt   time.Time `json:"created_at"`
}
