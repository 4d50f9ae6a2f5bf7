package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"dossierapi/internal/model"
	"dossierapi/internal/repository"
)

type MockDossierRepository struct {
	mock.Mock
}

func (m *MockDossierRepository) Create(ctx context.Context, d *model.Dossier) (*model.Dossier, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Dossier), args.Error(1)
}

func (m *MockDossierRepository) FindByID(ctx context.Context, userID, id int64) (*model.Dossier, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Dossier), args.Error(1)
}

func (m *MockDossierRepository) FindByIDForUpdate(ctx context.Context, userID, id int64) (*model.Dossier, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Dossier), args.Error(1)
}

func (m *MockDossierRepository) List(ctx context.Context, userID int64, f repository.DossierFilter) (*repository.PageResult[model.Dossier], error) {
	args := m.Called(ctx, userID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Dossier]), args.Error(1)
}

func (m *MockDossierRepository) PassportTaken(ctx context.Context, userID int64, passport string, excludeID int64) (bool, error) {
	args := m.Called(ctx, userID, passport, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDossierRepository) Update(ctx context.Context, d *model.Dossier) (*model.Dossier, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	if fn, ok := args.Get(0).(func(context.Context, *model.Dossier) *model.Dossier); ok {
		return fn(ctx, d), args.Error(1)
	}
	return args.Get(0).(*model.Dossier), args.Error(1)
}

func (m *MockDossierRepository) Delete(ctx context.Context, userID, id int64) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}
