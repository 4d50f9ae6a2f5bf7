package repository

import (
	"context"

	"dossierapi/internal/model"
)

// DossierFilter narrows a dossier listing. Zero values mean "no filter".
// A zero Limit returns every matching row.
type DossierFilter struct {
	Status   model.ApplicationStatus
	VisaType model.VisaType
	PageQuery
}

// DossierRepository persists visa dossiers. Every lookup is scoped by owner.
type DossierRepository interface {
	Create(ctx context.Context, d *model.Dossier) (*model.Dossier, error)

	FindByID(ctx context.Context, userID, id int64) (*model.Dossier, error)

	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, userID, id int64) (*model.Dossier, error)

	// List returns dossiers newest first and the total matching count.
	List(ctx context.Context, userID int64, f DossierFilter) (*PageResult[model.Dossier], error)

	// PassportTaken reports whether another dossier of userID already uses passport.
	// excludeID skips the dossier being updated; pass 0 on create.
	PassportTaken(ctx context.Context, userID int64, passport string, excludeID int64) (bool, error)

	// Update writes every mutable column of d and returns the stored row.
	Update(ctx context.Context, d *model.Dossier) (*model.Dossier, error)

	// Delete removes the dossier; documents and files cascade in the database.
	Delete(ctx context.Context, userID, id int64) error
}
