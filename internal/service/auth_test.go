package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dossierapi/internal/auth"
	"dossierapi/internal/model"
	"dossierapi/internal/repository"
	repoMocks "dossierapi/internal/repository/mocks"
)

var fastArgon = &argon2id.Params{Memory: 64, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

type authFixture struct {
	store  *repoMocks.MockStore
	hasher *auth.Hasher
	tokens *auth.TokenManager
	svc    AuthService
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		store:  repoMocks.NewMockStore(),
		hasher: auth.NewHasherWithParams(fastArgon),
		tokens: auth.NewTokenManager("test-secret", "dossierapi", time.Hour),
	}
	f.svc = NewAuthService(f.store, f.hasher, f.tokens, testClock(), discardLogger())
	return f
}

func TestAuthService_Register(t *testing.T) {
	input := RegisterInput{Name: "Ayu", Email: " ayu@example.com ", Password: "password123"}

	t.Run("creates user and token", func(t *testing.T) {
		f := newAuthFixture()
		f.store.UserRepo.On("FindByEmail", mock.Anything, "ayu@example.com").Return(nil, sql.ErrNoRows)
		f.store.UserRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
			ok, _ := argon2id.ComparePasswordAndHash("password123", u.PasswordHash)
			return u.Email == "ayu@example.com" && ok
		})).Return(&model.User{ID: 1, Name: "Ayu", Email: "ayu@example.com"}, nil)
		f.store.TokenRepo.On("Create", mock.Anything, mock.MatchedBy(func(tok *model.AccessToken) bool {
			return tok.UserID == 1 && tok.Name == "api-token" && tok.ExpiresAt.Time.Equal(fixedNow.Add(time.Hour))
		})).Return(&model.AccessToken{ID: 42, UserID: 1, Name: "api-token", Abilities: []string{"*"}}, nil)

		res, err := f.svc.Register(context.Background(), input)

		require.NoError(t, err)
		assert.Equal(t, int64(1), res.User.ID)
		claims, err := f.tokens.Parse(res.Token)
		require.NoError(t, err)
		assert.Equal(t, int64(42), claims.TokenID)
		assert.Equal(t, int64(1), claims.UserID)
		assert.Equal(t, 1, f.store.Commits)
	})

	t.Run("email taken", func(t *testing.T) {
		f := newAuthFixture()
		f.store.UserRepo.On("FindByEmail", mock.Anything, "ayu@example.com").Return(&model.User{ID: 1}, nil)

		_, err := f.svc.Register(context.Background(), input)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{"The email has already been taken."}, verr.Fields["email"])
	})

	t.Run("unique violation race", func(t *testing.T) {
		f := newAuthFixture()
		f.store.UserRepo.On("FindByEmail", mock.Anything, "ayu@example.com").Return(nil, sql.ErrNoRows)
		f.store.UserRepo.On("Create", mock.Anything, mock.Anything).Return(nil, repository.ErrDuplicate)

		_, err := f.svc.Register(context.Background(), input)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "email")
		assert.Equal(t, 1, f.store.Rollbacks)
	})

	t.Run("short password", func(t *testing.T) {
		f := newAuthFixture()

		_, err := f.svc.Register(context.Background(), RegisterInput{Name: "Ayu", Email: "nope", Password: "short"})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "email")
		assert.Contains(t, verr.Fields, "password")
	})
}

func TestAuthService_Login(t *testing.T) {
	hash, err := auth.NewHasherWithParams(fastArgon).Hash("password123")
	require.NoError(t, err)
	user := &model.User{ID: 1, Email: "ayu@example.com", PasswordHash: hash}

	tests := []struct {
		name       string
		input      LoginInput
		setupMocks func(store *repoMocks.MockStore)
		wantErr    error
	}{
		{
			name:  "valid credentials",
			input: LoginInput{Email: "ayu@example.com", Password: "password123", DeviceName: "cli"},
			setupMocks: func(store *repoMocks.MockStore) {
				store.UserRepo.On("FindByEmail", mock.Anything, "ayu@example.com").Return(user, nil)
				store.TokenRepo.On("Create", mock.Anything, mock.MatchedBy(func(tok *model.AccessToken) bool {
					return tok.Name == "cli"
				})).Return(&model.AccessToken{ID: 9, UserID: 1, Abilities: []string{"*"}}, nil)
			},
		},
		{
			name:  "wrong password",
			input: LoginInput{Email: "ayu@example.com", Password: "password124"},
			setupMocks: func(store *repoMocks.MockStore) {
				store.UserRepo.On("FindByEmail", mock.Anything, "ayu@example.com").Return(user, nil)
			},
			wantErr: ErrUnauthenticated,
		},
		{
			name:  "unknown email",
			input: LoginInput{Email: "who@example.com", Password: "password123"},
			setupMocks: func(store *repoMocks.MockStore) {
				store.UserRepo.On("FindByEmail", mock.Anything, "who@example.com").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture()
			tt.setupMocks(f.store)

			res, err := f.svc.Login(context.Background(), tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				f.store.TokenRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, res.Token)
		})
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	sign := func(t *testing.T, f *authFixture, userID, tokenID int64) string {
		t.Helper()
		raw, _, err := f.tokens.Issue(userID, tokenID, []string{"*"})
		require.NoError(t, err)
		return raw
	}

	t.Run("valid token touches last use", func(t *testing.T) {
		f := newAuthFixture()
		f.store.TokenRepo.On("FindByID", mock.Anything, int64(42)).Return(&model.AccessToken{ID: 42, UserID: 1}, nil)
		f.store.UserRepo.On("FindByID", mock.Anything, int64(1)).Return(&model.User{ID: 1}, nil)
		f.store.TokenRepo.On("Touch", mock.Anything, int64(42), fixedNow).Return(nil)

		p, err := f.svc.Authenticate(context.Background(), sign(t, f, 1, 42))

		require.NoError(t, err)
		assert.Equal(t, int64(1), p.User.ID)
		assert.True(t, p.Token.LastUsedAt.Time.Equal(fixedNow))
	})

	t.Run("touch failure does not reject", func(t *testing.T) {
		f := newAuthFixture()
		f.store.TokenRepo.On("FindByID", mock.Anything, int64(42)).Return(&model.AccessToken{ID: 42, UserID: 1}, nil)
		f.store.UserRepo.On("FindByID", mock.Anything, int64(1)).Return(&model.User{ID: 1}, nil)
		f.store.TokenRepo.On("Touch", mock.Anything, int64(42), fixedNow).Return(errors.New("read only"))

		p, err := f.svc.Authenticate(context.Background(), sign(t, f, 1, 42))

		require.NoError(t, err)
		assert.False(t, p.Token.LastUsedAt.Valid)
	})

	t.Run("revoked token", func(t *testing.T) {
		f := newAuthFixture()
		f.store.TokenRepo.On("FindByID", mock.Anything, int64(42)).Return(nil, sql.ErrNoRows)

		_, err := f.svc.Authenticate(context.Background(), sign(t, f, 1, 42))

		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("token of another user", func(t *testing.T) {
		f := newAuthFixture()
		f.store.TokenRepo.On("FindByID", mock.Anything, int64(42)).Return(&model.AccessToken{ID: 42, UserID: 2}, nil)

		_, err := f.svc.Authenticate(context.Background(), sign(t, f, 1, 42))

		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("expired row", func(t *testing.T) {
		f := newAuthFixture()
		f.store.TokenRepo.On("FindByID", mock.Anything, int64(42)).Return(&model.AccessToken{
			ID: 42, UserID: 1, ExpiresAt: null.TimeFrom(fixedNow.Add(-time.Minute)),
		}, nil)

		_, err := f.svc.Authenticate(context.Background(), sign(t, f, 1, 42))

		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("forged token", func(t *testing.T) {
		f := newAuthFixture()
		other := auth.NewTokenManager("other-secret", "dossierapi", time.Hour)
		raw, _, err := other.Issue(1, 42, nil)
		require.NoError(t, err)

		_, err = f.svc.Authenticate(context.Background(), raw)

		assert.ErrorIs(t, err, ErrUnauthenticated)
		f.store.TokenRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})
}

func TestAuthService_Tokens(t *testing.T) {
	t.Run("create with abilities", func(t *testing.T) {
		f := newAuthFixture()
		f.store.TokenRepo.On("Create", mock.Anything, mock.MatchedBy(func(tok *model.AccessToken) bool {
			return tok.Name == "ci" && assert.ObjectsAreEqual([]string{"dossiers:read"}, tok.Abilities)
		})).Return(&model.AccessToken{ID: 5, UserID: 1, Name: "ci", Abilities: []string{"dossiers:read"}}, nil)

		issued, err := f.svc.CreateToken(context.Background(), 1, CreateTokenInput{Name: "ci", Abilities: []string{"dossiers:read"}})

		require.NoError(t, err)
		claims, err := f.tokens.Parse(issued.PlainText)
		require.NoError(t, err)
		assert.Equal(t, []string{"dossiers:read"}, claims.Abilities)
	})

	t.Run("unknown ability", func(t *testing.T) {
		f := newAuthFixture()

		_, err := f.svc.CreateToken(context.Background(), 1, CreateTokenInput{
			Name:      "ci",
			Abilities: []string{"dossiers:read", "dossiers:wrte"},
		})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{"The selected abilities[1] is invalid."}, verr.Fields["abilities[1]"])
		assert.NotContains(t, verr.Fields, "abilities[0]")
		f.store.TokenRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("revoke missing", func(t *testing.T) {
		f := newAuthFixture()
		f.store.TokenRepo.On("Delete", mock.Anything, int64(1), int64(5)).Return(sql.ErrNoRows)

		assert.ErrorIs(t, f.svc.RevokeToken(context.Background(), 1, 5), ErrNotFound)
	})

	t.Run("logout revokes current token", func(t *testing.T) {
		f := newAuthFixture()
		f.store.TokenRepo.On("Delete", mock.Anything, int64(1), int64(42)).Return(nil)

		err := f.svc.Logout(context.Background(), &Principal{User: model.User{ID: 1}, Token: model.AccessToken{ID: 42}})

		require.NoError(t, err)
		f.store.TokenRepo.AssertExpectations(t)
	})
}
