package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/guregu/null/v5"
	"go.opentelemetry.io/otel/attribute"

	"dossierapi/internal/model"
	"dossierapi/internal/repository"
	"dossierapi/internal/storage"
)

// allowedMIMETypes are checked against the sniffed content, never the client header.
var allowedMIMETypes = []string{"application/pdf", "image/png", "image/jpeg"}

// UploadLimits bounds a single multi-file upload.
type UploadLimits struct {
	MaxFiles     int
	MaxFileBytes int64
}

// DefaultUploadLimits allows 1 to 10 files of at most 4 MiB each.
var DefaultUploadLimits = UploadLimits{MaxFiles: 10, MaxFileBytes: 4 << 20}

// UploadFile is one part of a multipart upload. Content must be rewindable for MIME sniffing.
type UploadFile struct {
	Name    string
	Size    int64
	Content io.ReadSeeker
}

type UploadDocumentInput struct {
	DocumentType string       `json:"document_type" validate:"required,document_type"`
	Name         string       `json:"name" validate:"required,max=255"`
	Description  *string      `json:"description" validate:"omitnil,max=1000"`
	Files        []UploadFile `json:"files" validate:"-"`
}

// DocumentGroup collects the documents of one type.
type DocumentGroup struct {
	Type      model.DocumentType `json:"type"`
	TypeLabel string             `json:"type_label"`
	Count     int                `json:"count"`
	Documents []model.Document   `json:"documents"`
}

// FileDownload is an open stream of a stored file. The caller closes Body.
type FileDownload struct {
	Body        io.ReadCloser
	FileName    string
	ContentType string
	Size        int64
}

// DocumentService defines the dossier document use cases.
type DocumentService interface {
	// Upload stores every file and records one document mirroring the first file.
	// Either all files and rows persist or none do.
	Upload(ctx context.Context, userID, dossierID int64, in UploadDocumentInput) (*model.Document, error)
	List(ctx context.Context, userID, dossierID int64, docType string) ([]model.Document, error)
	Grouped(ctx context.Context, userID, dossierID int64) ([]DocumentGroup, error)
	Get(ctx context.Context, userID, dossierID, docID int64) (*model.Document, error)
	Delete(ctx context.Context, userID, dossierID, docID int64) error
	// Download streams one file of a document; fileID 0 selects the first file.
	Download(ctx context.Context, userID, dossierID, docID, fileID int64) (*FileDownload, error)
	// DownloadURL returns a presigned storage URL for the same file Download would stream.
	DownloadURL(ctx context.Context, userID, dossierID, docID, fileID int64, expiry time.Duration) (string, error)
	Types() []model.Option
}

type documentService struct {
	store   repository.Store
	objects storage.Storage
	limits  UploadLimits
	clock   Clock
	log     *slog.Logger
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(store repository.Store, objects storage.Storage, limits UploadLimits, clock Clock, log *slog.Logger) DocumentService {
	if limits.MaxFiles <= 0 {
		limits.MaxFiles = DefaultUploadLimits.MaxFiles
	}
	if limits.MaxFileBytes <= 0 {
		limits.MaxFileBytes = DefaultUploadLimits.MaxFileBytes
	}
	if log == nil {
		log = slog.Default()
	}
	return &documentService{store: store, objects: objects, limits: limits, clock: clock, log: log}
}

type preparedFile struct {
	UploadFile
	contentType string
	ext         string
}

func (s *documentService) Upload(ctx context.Context, userID, dossierID int64, in UploadDocumentInput) (_ *model.Document, err error) {
	ctx, span := startSpan(ctx, "DocumentService.Upload",
		attribute.Int64("dossier.id", dossierID),
		attribute.Int("upload.files", len(in.Files)),
	)
	defer func() { endSpan(span, err) }()

	verr := validateStruct(in)
	files := s.prepareFiles(in.Files, verr)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if err := s.ensureDossier(ctx, userID, dossierID); err != nil {
		return nil, err
	}

	docType := model.DocumentType(in.DocumentType)
	var (
		created *model.Document
		stored  []string
	)
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		first := files[0]
		doc, err := tx.Documents().Create(ctx, &model.Document{
			DossierID:        dossierID,
			Type:             docType,
			Name:             in.Name,
			Description:      null.StringFromPtr(in.Description),
			Size:             first.Size,
			ContentType:      first.contentType,
			OriginalFilename: first.Name,
		})
		if err != nil {
			return fmt.Errorf("create document: %w", err)
		}

		at := s.clock.now()
		doc.Files = make([]model.DocumentFile, 0, len(files))
		for i, f := range files {
			fileName := generateFileName(docType, at, i+1, f.ext)
			key := storage.DocumentFileKey(dossierID, doc.ID, fileName)

			if _, err := s.objects.Put(ctx, key, f.Content, storage.PutObjectOptions{
				Size:        f.Size,
				ContentType: f.contentType,
			}); err != nil {
				return fmt.Errorf("store file %d: %w", i+1, err)
			}
			stored = append(stored, key)

			rec, err := tx.Documents().AddFile(ctx, &model.DocumentFile{
				DocumentID:  doc.ID,
				Position:    i + 1,
				Name:        f.Name,
				FileName:    fileName,
				StoragePath: key,
				Size:        f.Size,
				ContentType: f.contentType,
			})
			if err != nil {
				return fmt.Errorf("record file %d: %w", i+1, err)
			}
			doc.Files = append(doc.Files, *rec)
		}
		created = doc
		return nil
	})
	if err != nil {
		removeObjects(context.WithoutCancel(ctx), s.objects, s.log, stored)
		return nil, err
	}
	return created, nil
}

// prepareFiles enforces count, size and sniffed MIME type, rewinding each file afterwards.
func (s *documentService) prepareFiles(files []UploadFile, verr *ValidationError) []preparedFile {
	switch {
	case len(files) == 0:
		verr.Add("files", "At least one file is required.")
		return nil
	case len(files) > s.limits.MaxFiles:
		verr.Add("files", fmt.Sprintf("Maximum %d files can be uploaded at once.", s.limits.MaxFiles))
		return nil
	}

	out := make([]preparedFile, 0, len(files))
	for i, f := range files {
		field := fmt.Sprintf("files.%d", i)
		if f.Content == nil || f.Size <= 0 {
			verr.Add(field, "Each upload must be a valid file.")
			continue
		}
		if f.Size > s.limits.MaxFileBytes {
			verr.Add(field, fmt.Sprintf("Each file size must not exceed %s.", humanize.IBytes(uint64(s.limits.MaxFileBytes))))
			continue
		}

		mt, err := mimetype.DetectReader(f.Content)
		if err == nil {
			_, err = f.Content.Seek(0, io.SeekStart)
		}
		if err != nil {
			verr.Add(field, "Each upload must be a valid file.")
			continue
		}
		if !mimeAllowed(mt) {
			verr.Add(field, "Each file must be a PDF, PNG, JPG, or JPEG.")
			continue
		}

		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(f.Name), "."))
		if ext == "" {
			ext = strings.TrimPrefix(mt.Extension(), ".")
		}
		out = append(out, preparedFile{UploadFile: f, contentType: mt.String(), ext: ext})
	}
	return out
}

func mimeAllowed(mt *mimetype.MIME) bool {
	for _, allowed := range allowedMIMETypes {
		if mt.Is(allowed) {
			return true
		}
	}
	return false
}

// generateFileName builds "<type>_<YYYY-MM-DD_HH-MM-SS>_<8 hex>[_<n>].<ext>". The
// position suffix is only added from the second file on.
func generateFileName(docType model.DocumentType, at time.Time, position int, ext string) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	var suffix string
	if position > 1 {
		suffix = fmt.Sprintf("_%d", position)
	}
	return fmt.Sprintf("%s_%s_%s%s.%s", docType, at.Format("2006-01-02_15-04-05"), random, suffix, ext)
}

func (s *documentService) List(ctx context.Context, userID, dossierID int64, docType string) (_ []model.Document, err error) {
	ctx, span := startSpan(ctx, "DocumentService.List", attribute.Int64("dossier.id", dossierID))
	defer func() { endSpan(span, err) }()

	if docType != "" && !model.DocumentType(docType).Valid() {
		return nil, NewValidationError("document_type", "Invalid document type selected.")
	}
	if err := s.ensureDossier(ctx, userID, dossierID); err != nil {
		return nil, err
	}

	docs, err := s.store.Documents().ListByDossier(ctx, dossierID, model.DocumentType(docType))
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Grouped lists documents grouped by type, groups ordered by their newest document.
func (s *documentService) Grouped(ctx context.Context, userID, dossierID int64) ([]DocumentGroup, error) {
	docs, err := s.List(ctx, userID, dossierID, "")
	if err != nil {
		return nil, err
	}
	return groupDocuments(docs), nil
}

func groupDocuments(docs []model.Document) []DocumentGroup {
	groups := make([]DocumentGroup, 0)
	index := make(map[model.DocumentType]int)
	for _, doc := range docs {
		i, ok := index[doc.Type]
		if !ok {
			i = len(groups)
			index[doc.Type] = i
			groups = append(groups, DocumentGroup{Type: doc.Type, TypeLabel: doc.Type.Label(), Documents: []model.Document{}})
		}
		groups[i].Documents = append(groups[i].Documents, doc)
		groups[i].Count++
	}
	return groups
}

func (s *documentService) Get(ctx context.Context, userID, dossierID, docID int64) (_ *model.Document, err error) {
	ctx, span := startSpan(ctx, "DocumentService.Get", attribute.Int64("document.id", docID))
	defer func() { endSpan(span, err) }()

	if err := s.ensureDossier(ctx, userID, dossierID); err != nil {
		return nil, err
	}
	doc, err := s.store.Documents().FindByID(ctx, dossierID, docID)
	if err != nil {
		return nil, notFound(err)
	}
	return doc, nil
}

func (s *documentService) Delete(ctx context.Context, userID, dossierID, docID int64) (err error) {
	ctx, span := startSpan(ctx, "DocumentService.Delete", attribute.Int64("document.id", docID))
	defer func() { endSpan(span, err) }()

	if err := s.ensureDossier(ctx, userID, dossierID); err != nil {
		return err
	}

	var keys []string
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		doc, err := tx.Documents().FindByID(ctx, dossierID, docID)
		if err != nil {
			return notFound(err)
		}
		if err := tx.Documents().Delete(ctx, dossierID, docID); err != nil {
			return fmt.Errorf("delete document: %w", notFound(err))
		}
		for _, f := range doc.Files {
			keys = append(keys, f.StoragePath)
		}
		return nil
	})
	if err != nil {
		return err
	}

	removeObjects(ctx, s.objects, s.log, keys)
	return nil
}

func (s *documentService) Download(ctx context.Context, userID, dossierID, docID, fileID int64) (_ *FileDownload, err error) {
	ctx, span := startSpan(ctx, "DocumentService.Download", attribute.Int64("document.id", docID))
	defer func() { endSpan(span, err) }()

	f, err := s.pickFile(ctx, userID, dossierID, docID, fileID)
	if err != nil {
		return nil, err
	}

	body, info, err := s.objects.Get(ctx, f.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open stored file: %w", err)
	}

	size := info.Size
	if size <= 0 {
		size = f.Size
	}
	return &FileDownload{Body: body, FileName: f.Name, ContentType: f.ContentType, Size: size}, nil
}

func (s *documentService) DownloadURL(ctx context.Context, userID, dossierID, docID, fileID int64, expiry time.Duration) (string, error) {
	f, err := s.pickFile(ctx, userID, dossierID, docID, fileID)
	if err != nil {
		return "", err
	}
	u, err := s.objects.PresignGet(ctx, f.StoragePath, expiry)
	if err != nil {
		return "", fmt.Errorf("presign: %w", err)
	}
	return u, nil
}

func (s *documentService) pickFile(ctx context.Context, userID, dossierID, docID, fileID int64) (*model.DocumentFile, error) {
	doc, err := s.Get(ctx, userID, dossierID, docID)
	if err != nil {
		return nil, err
	}
	for i := range doc.Files {
		if fileID == 0 || doc.Files[i].ID == fileID {
			return &doc.Files[i], nil
		}
	}
	return nil, ErrNotFound
}

func (s *documentService) Types() []model.Option {
	return model.DocumentTypeOptions()
}

func (s *documentService) ensureDossier(ctx context.Context, userID, dossierID int64) error {
	if _, err := s.store.Dossiers().FindByID(ctx, userID, dossierID); err != nil {
		return notFound(err)
	}
	return nil
}
