package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"dossierapi/internal/model"
	"dossierapi/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, userID, dossierID int64, in service.UploadDocumentInput) (*model.Document, error) {
	args := m.Called(ctx, userID, dossierID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, userID, dossierID int64, docType string) ([]model.Document, error) {
	args := m.Called(ctx, userID, dossierID, docType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentService) Grouped(ctx context.Context, userID, dossierID int64) ([]service.DocumentGroup, error) {
	args := m.Called(ctx, userID, dossierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.DocumentGroup), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, userID, dossierID, docID int64) (*model.Document, error) {
	args := m.Called(ctx, userID, dossierID, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, userID, dossierID, docID int64) error {
	args := m.Called(ctx, userID, dossierID, docID)
	return args.Error(0)
}

func (m *MockDocumentService) Download(ctx context.Context, userID, dossierID, docID, fileID int64) (*service.FileDownload, error) {
	args := m.Called(ctx, userID, dossierID, docID, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FileDownload), args.Error(1)
}

func (m *MockDocumentService) DownloadURL(ctx context.Context, userID, dossierID, docID, fileID int64, expiry time.Duration) (string, error) {
	args := m.Called(ctx, userID, dossierID, docID, fileID, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentService) Types() []model.Option {
	args := m.Called()
	return args.Get(0).([]model.Option)
}
