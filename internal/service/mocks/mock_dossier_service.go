package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"dossierapi/internal/lifecycle"
	"dossierapi/internal/model"
	"dossierapi/internal/service"
)

type MockDossierService struct {
	mock.Mock
}

func (m *MockDossierService) Create(ctx context.Context, userID int64, in service.CreateDossierInput) (*model.Dossier, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Dossier), args.Error(1)
}

func (m *MockDossierService) List(ctx context.Context, userID int64, q service.ListDossiersQuery) (*service.DossierListResult, error) {
	args := m.Called(ctx, userID, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DossierListResult), args.Error(1)
}

func (m *MockDossierService) Get(ctx context.Context, userID, id int64) (*model.Dossier, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Dossier), args.Error(1)
}

func (m *MockDossierService) Update(ctx context.Context, userID, id int64, in service.UpdateDossierInput) (*model.Dossier, error) {
	args := m.Called(ctx, userID, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Dossier), args.Error(1)
}

func (m *MockDossierService) Transition(ctx context.Context, userID, id int64, target model.ApplicationStatus) (*model.Dossier, lifecycle.Result, error) {
	args := m.Called(ctx, userID, id, target)
	if args.Get(0) == nil {
		return nil, lifecycle.Result{}, args.Error(2)
	}
	return args.Get(0).(*model.Dossier), args.Get(1).(lifecycle.Result), args.Error(2)
}

func (m *MockDossierService) AssignOfficer(ctx context.Context, userID, id int64, officerID *int64) (*model.Dossier, error) {
	args := m.Called(ctx, userID, id, officerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Dossier), args.Error(1)
}

func (m *MockDossierService) AddNote(ctx context.Context, userID, id int64, text string) (*model.Dossier, error) {
	args := m.Called(ctx, userID, id, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Dossier), args.Error(1)
}

func (m *MockDossierService) Delete(ctx context.Context, userID, id int64) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockDossierService) Stats(ctx context.Context, userID int64) (*lifecycle.Stats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lifecycle.Stats), args.Error(1)
}

func (m *MockDossierService) Options() service.DossierOptions {
	args := m.Called()
	return args.Get(0).(service.DossierOptions)
}
