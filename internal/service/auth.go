package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/guregu/null/v5"
	"go.opentelemetry.io/otel/attribute"

	"dossierapi/internal/auth"
	"dossierapi/internal/model"
	"dossierapi/internal/repository"
)

const defaultDeviceName = "api-token"

type RegisterInput struct {
	Name       string `json:"name" validate:"required,max=255"`
	Email      string `json:"email" validate:"required,email,max=255"`
	Password   string `json:"password" validate:"required,min=8,max=255"`
	DeviceName string `json:"device_name" validate:"max=255"`
}

type LoginInput struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	DeviceName string `json:"device_name" validate:"max=255"`
}

type CreateTokenInput struct {
	Name      string   `json:"name" validate:"required,max=255"`
	Abilities []string `json:"abilities" validate:"omitempty,dive,oneof=* dossiers:read dossiers:write"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// IssuedToken pairs a stored token record with its signed bearer value,
// which is only ever shown once.
type IssuedToken struct {
	AccessToken *model.AccessToken `json:"access_token"`
	PlainText   string             `json:"token"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	User  model.User
	Token model.AccessToken
}

// AuthService defines registration, login and personal access token management.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
	// Logout revokes only the token used for the current request.
	Logout(ctx context.Context, p *Principal) error
	CreateToken(ctx context.Context, userID int64, in CreateTokenInput) (*IssuedToken, error)
	ListTokens(ctx context.Context, userID int64) ([]model.AccessToken, error)
	RevokeToken(ctx context.Context, userID, tokenID int64) error
	// Authenticate resolves a bearer token to its user. Revoked, expired or forged
	// tokens yield ErrUnauthenticated.
	Authenticate(ctx context.Context, raw string) (*Principal, error)
}

type authService struct {
	store  repository.Store
	hasher *auth.Hasher
	tokens *auth.TokenManager
	clock  Clock
	log    *slog.Logger
}

func NewAuthService(store repository.Store, hasher *auth.Hasher, tokens *auth.TokenManager, clock Clock, log *slog.Logger) AuthService {
	if log == nil {
		log = slog.Default()
	}
	return &authService{store: store, hasher: hasher, tokens: tokens, clock: clock, log: log}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (_ *AuthResult, err error) {
	ctx, span := startSpan(ctx, "AuthService.Register")
	defer func() { endSpan(span, err) }()

	in.Email = strings.TrimSpace(in.Email)
	if err := validateStruct(in).OrNil(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var out *AuthResult
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Users().FindByEmail(ctx, in.Email); err == nil {
			return emailTaken()
		} else if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("find user: %w", err)
		}

		user, err := tx.Users().Create(ctx, &model.User{Name: in.Name, Email: in.Email, PasswordHash: hash})
		if err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return emailTaken()
			}
			return fmt.Errorf("create user: %w", err)
		}

		issued, err := s.issue(ctx, tx, user.ID, deviceName(in.DeviceName), nil)
		if err != nil {
			return err
		}
		out = &AuthResult{User: user, Token: issued.PlainText}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *authService) Login(ctx context.Context, in LoginInput) (_ *AuthResult, err error) {
	ctx, span := startSpan(ctx, "AuthService.Login")
	defer func() { endSpan(span, err) }()

	if err := validateStruct(in).OrNil(); err != nil {
		return nil, err
	}

	user, err := s.store.Users().FindByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	ok, err := s.hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrUnauthenticated
	}

	issued, err := s.issue(ctx, s.store, user.ID, deviceName(in.DeviceName), nil)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: issued.PlainText}, nil
}

func (s *authService) Logout(ctx context.Context, p *Principal) error {
	if p == nil {
		return ErrUnauthenticated
	}
	if err := s.store.Tokens().Delete(ctx, p.User.ID, p.Token.ID); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *authService) CreateToken(ctx context.Context, userID int64, in CreateTokenInput) (_ *IssuedToken, err error) {
	ctx, span := startSpan(ctx, "AuthService.CreateToken", attribute.Int64("user.id", userID))
	defer func() { endSpan(span, err) }()

	if err := validateStruct(in).OrNil(); err != nil {
		return nil, err
	}
	return s.issue(ctx, s.store, userID, in.Name, in.Abilities)
}

func (s *authService) ListTokens(ctx context.Context, userID int64) ([]model.AccessToken, error) {
	tokens, err := s.store.Tokens().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	return tokens, nil
}

func (s *authService) RevokeToken(ctx context.Context, userID, tokenID int64) error {
	if err := s.store.Tokens().Delete(ctx, userID, tokenID); err != nil {
		return notFound(err)
	}
	return nil
}

func (s *authService) Authenticate(ctx context.Context, raw string) (_ *Principal, err error) {
	ctx, span := startSpan(ctx, "AuthService.Authenticate")
	defer func() { endSpan(span, err) }()

	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	tok, err := s.store.Tokens().FindByID(ctx, claims.TokenID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("find token: %w", err)
	}
	now := s.clock.now()
	if tok.UserID != claims.UserID || (tok.ExpiresAt.Valid && !now.Before(tok.ExpiresAt.Time)) {
		return nil, ErrUnauthenticated
	}

	user, err := s.store.Users().FindByID(ctx, tok.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := s.store.Tokens().Touch(ctx, tok.ID, now); err != nil {
		s.log.WarnContext(ctx, "token last_used_at not updated",
			slog.String("component", "auth"),
			slog.Int64("token_id", tok.ID),
			slog.String("error", err.Error()),
		)
	} else {
		tok.LastUsedAt = null.TimeFrom(now)
	}

	span.SetAttributes(attribute.Int64("user.id", user.ID))
	return &Principal{User: *user, Token: *tok}, nil
}

// issue stores a token row and signs a JWT referencing it.
func (s *authService) issue(ctx context.Context, store repository.Store, userID int64, name string, abilities []string) (*IssuedToken, error) {
	rec := &model.AccessToken{UserID: userID, Name: name, Abilities: abilities}
	if ttl := s.tokens.TTL(); ttl > 0 {
		rec.ExpiresAt = null.TimeFrom(s.clock.now().Add(ttl))
	}

	created, err := store.Tokens().Create(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}
	signed, _, err := s.tokens.Issue(userID, created.ID, created.Abilities)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &IssuedToken{AccessToken: created, PlainText: signed}, nil
}

func deviceName(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return defaultDeviceName
}

func emailTaken() error {
	return NewValidationError("email", "The email has already been taken.")
}
