package repository

import (
	"context"
	"time"

	"dossierapi/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	FindByID(ctx context.Context, id int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

type TokenRepository interface {
	Create(ctx context.Context, t *model.AccessToken) (*model.AccessToken, error)
	FindByID(ctx context.Context, id int64) (*model.AccessToken, error)
	ListByUser(ctx context.Context, userID int64) ([]model.AccessToken, error)
	Delete(ctx context.Context, userID, id int64) error
	Touch(ctx context.Context, id int64, at time.Time) error
}
