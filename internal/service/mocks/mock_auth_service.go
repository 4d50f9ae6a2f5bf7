package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"dossierapi/internal/model"
	"dossierapi/internal/service"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, in service.LoginInput) (*service.AuthResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, p *service.Principal) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockAuthService) CreateToken(ctx context.Context, userID int64, in service.CreateTokenInput) (*service.IssuedToken, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IssuedToken), args.Error(1)
}

func (m *MockAuthService) ListTokens(ctx context.Context, userID int64) ([]model.AccessToken, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AccessToken), args.Error(1)
}

func (m *MockAuthService) RevokeToken(ctx context.Context, userID, tokenID int64) error {
	args := m.Called(ctx, userID, tokenID)
	return args.Error(0)
}

func (m *MockAuthService) Authenticate(ctx context.Context, raw string) (*service.Principal, error) {
	args := m.Called(ctx, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Principal), args.Error(1)
}
