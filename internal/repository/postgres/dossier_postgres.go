package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"dossierapi/internal/model"
	"dossierapi/internal/repository"
)

const tableDossiers = "visa_dossiers"

var dossierColumns = []string{
	"id",
	"user_id",
	"assigned_officer_id",
	"passport_number",
	"nationality",
	"date_of_birth",
	"visa_type",
	"application_status",
	"notes",
	"additional_data",
	"created_at",
	"updated_at",
}

// DossierPostgres is a PostgreSQL implementation of repository.DossierRepository.
type DossierPostgres struct {
	q querier
}

// NewDossierPostgres creates a DossierPostgres bound to q (a *sql.DB or *sql.Tx).
func NewDossierPostgres(q querier) *DossierPostgres {
	return &DossierPostgres{q: q}
}

var _ repository.DossierRepository = (*DossierPostgres)(nil)

func scanDossier(row rowScanner) (*model.Dossier, error) {
	var (
		d          model.Dossier
		additional []byte
	)
	if err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.AssignedOfficerID,
		&d.PassportNumber,
		&d.Nationality,
		&d.DateOfBirth,
		&d.VisaType,
		&d.Status,
		&d.Notes,
		&additional,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(additional) > 0 {
		if err := json.Unmarshal(additional, &d.AdditionalData); err != nil {
			return nil, fmt.Errorf("decode additional_data: %w", err)
		}
	}
	return &d, nil
}

func encodeAdditional(data map[string]any) ([]byte, error) {
	if data == nil {
		return nil, nil
	}
	return json.Marshal(data)
}

// Create inserts a new dossier row and returns the stored record.
func (r *DossierPostgres) Create(ctx context.Context, d *model.Dossier) (*model.Dossier, error) {
	additional, err := encodeAdditional(d.AdditionalData)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.Insert(tableDossiers).
		Columns(
			"user_id",
			"assigned_officer_id",
			"passport_number",
			"nationality",
			"date_of_birth",
			"visa_type",
			"application_status",
			"notes",
			"additional_data",
		).
		Values(
			d.UserID,
			d.AssignedOfficerID,
			d.PassportNumber,
			d.Nationality,
			d.DateOfBirth,
			string(d.VisaType),
			string(d.Status),
			d.Notes,
			additional,
		).
		Suffix("RETURNING " + columns(dossierColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}
	d, err = scanDossier(r.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, translateError(err)
	}
	return d, nil
}

func (r *DossierPostgres) selectOwned(userID, id int64) sq.SelectBuilder {
	return psql.Select(dossierColumns...).
		From(tableDossiers).
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Eq{"id": id})
}

// FindByID fetches a single dossier owned by userID.
func (r *DossierPostgres) FindByID(ctx context.Context, userID, id int64) (*model.Dossier, error) {
	query, args, err := r.selectOwned(userID, id).ToSql()
	if err != nil {
		return nil, err
	}
	return scanDossier(r.q.QueryRowContext(ctx, query, args...))
}

// FindByIDForUpdate fetches and row-locks a dossier. Only meaningful inside a transaction.
func (r *DossierPostgres) FindByIDForUpdate(ctx context.Context, userID, id int64) (*model.Dossier, error) {
	query, args, err := r.selectOwned(userID, id).Suffix("FOR UPDATE").ToSql()
	if err != nil {
		return nil, err
	}
	return scanDossier(r.q.QueryRowContext(ctx, query, args...))
}

func applyDossierFilter(b sq.SelectBuilder, userID int64, f repository.DossierFilter) sq.SelectBuilder {
	b = b.Where(sq.Eq{"user_id": userID})
	if f.Status != "" {
		b = b.Where(sq.Eq{"application_status": string(f.Status)})
	}
	if f.VisaType != "" {
		b = b.Where(sq.Eq{"visa_type": string(f.VisaType)})
	}
	return b
}

// List returns the owner's dossiers newest first, with LIMIT/OFFSET pagination when Limit > 0.
func (r *DossierPostgres) List(ctx context.Context, userID int64, f repository.DossierFilter) (*repository.PageResult[model.Dossier], error) {
	countQuery, countArgs, err := applyDossierFilter(psql.Select("COUNT(*)").From(tableDossiers), userID, f).ToSql()
	if err != nil {
		return nil, err
	}
	var total int
	if err := r.q.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, err
	}

	b := applyDossierFilter(psql.Select(dossierColumns...).From(tableDossiers), userID, f).
		OrderBy("created_at DESC", "id DESC")
	if f.Limit > 0 {
		b = b.Limit(uint64(f.Limit)).Offset(uint64(max(f.Offset, 0)))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Dossier, 0)
	for rows.Next() {
		d, err := scanDossier(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Dossier]{Items: items, Total: total}, nil
}

// PassportTaken checks the per-owner passport uniqueness rule.
func (r *DossierPostgres) PassportTaken(ctx context.Context, userID int64, passport string, excludeID int64) (bool, error) {
	b := psql.Select("1").
		From(tableDossiers).
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Eq{"passport_number": passport})
	if excludeID > 0 {
		b = b.Where(sq.NotEq{"id": excludeID})
	}
	query, args, err := b.Prefix("SELECT EXISTS (").Suffix(")").ToSql()
	if err != nil {
		return false, err
	}

	var exists bool
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Update overwrites the mutable columns of the dossier identified by d.ID and d.UserID.
func (r *DossierPostgres) Update(ctx context.Context, d *model.Dossier) (*model.Dossier, error) {
	additional, err := encodeAdditional(d.AdditionalData)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.Update(tableDossiers).
		Set("assigned_officer_id", d.AssignedOfficerID).
		Set("passport_number", d.PassportNumber).
		Set("nationality", d.Nationality).
		Set("date_of_birth", d.DateOfBirth).
		Set("visa_type", string(d.VisaType)).
		Set("application_status", string(d.Status)).
		Set("notes", d.Notes).
		Set("additional_data", additional).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"user_id": d.UserID}).
		Where(sq.Eq{"id": d.ID}).
		Suffix("RETURNING " + columns(dossierColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}
	d, err = scanDossier(r.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, translateError(err)
	}
	return d, nil
}

// Delete removes a dossier. It returns sql.ErrNoRows when nothing matched.
func (r *DossierPostgres) Delete(ctx context.Context, userID, id int64) error {
	query, args, err := psql.Delete(tableDossiers).
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	return execAffectingOne(ctx, r.q, query, args)
}

func execAffectingOne(ctx context.Context, q querier, query string, args []any) error {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
