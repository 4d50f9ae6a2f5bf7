package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"dossierapi/internal/model"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) AddFile(ctx context.Context, f *model.DocumentFile) (*model.DocumentFile, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	if fn, ok := args.Get(0).(func(context.Context, *model.DocumentFile) *model.DocumentFile); ok {
		return fn(ctx, f), args.Error(1)
	}
	return args.Get(0).(*model.DocumentFile), args.Error(1)
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, dossierID, id int64) (*model.Document, error) {
	args := m.Called(ctx, dossierID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) ListByDossier(ctx context.Context, dossierID int64, docType model.DocumentType) ([]model.Document, error) {
	args := m.Called(ctx, dossierID, docType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentRepository) ListByDossiers(ctx context.Context, dossierIDs []int64) ([]model.Document, error) {
	args := m.Called(ctx, dossierIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, dossierID, id int64) error {
	args := m.Called(ctx, dossierID, id)
	return args.Error(0)
}
