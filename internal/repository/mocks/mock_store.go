package mocks

import (
	"context"

	"dossierapi/internal/repository"
)

// MockStore hands out the embedded repository mocks. InTx runs fn against the
// same store and records how each transaction ended.
type MockStore struct {
	DossierRepo  *MockDossierRepository
	DocumentRepo *MockDocumentRepository
	UserRepo     *MockUserRepository
	TokenRepo    *MockTokenRepository

	Commits   int
	Rollbacks int
}

func NewMockStore() *MockStore {
	return &MockStore{
		DossierRepo:  &MockDossierRepository{},
		DocumentRepo: &MockDocumentRepository{},
		UserRepo:     &MockUserRepository{},
		TokenRepo:    &MockTokenRepository{},
	}
}

func (s *MockStore) Dossiers() repository.DossierRepository   { return s.DossierRepo }
func (s *MockStore) Documents() repository.DocumentRepository { return s.DocumentRepo }
func (s *MockStore) Users() repository.UserRepository         { return s.UserRepo }
func (s *MockStore) Tokens() repository.TokenRepository       { return s.TokenRepo }

func (s *MockStore) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if err := fn(s); err != nil {
		s.Rollbacks++
		return err
	}
	s.Commits++
	return nil
}
