package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/guregu/null/v5"
	"go.opentelemetry.io/otel/attribute"

	"dossierapi/internal/lifecycle"
	"dossierapi/internal/model"
	"dossierapi/internal/repository"
	"dossierapi/internal/storage"
)

const (
	dateLayout       = "2006-01-02"
	defaultPageLimit = 15
	maxPageLimit     = 100
)

var earliestBirthDate = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// additionalDataLimits bounds the known keys of additional_data. Other keys pass through.
var additionalDataLimits = map[string]int{
	"emergency_contact": 255,
	"purpose_of_visit":  500,
	"intended_duration": 100,
}

type CreateDossierInput struct {
	PassportNumber string         `json:"passport_number" validate:"required,alphanum,max=20"`
	Nationality    string         `json:"nationality" validate:"required,max=100"`
	DateOfBirth    string         `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	VisaType       string         `json:"visa_type" validate:"required,visa_type"`
	AdditionalData map[string]any `json:"additional_data"`
}

// UpdateDossierInput is a partial update; nil fields are left unchanged.
type UpdateDossierInput struct {
	PassportNumber    *string        `json:"passport_number" validate:"omitnil,required,alphanum,max=20"`
	Nationality       *string        `json:"nationality" validate:"omitnil,required,max=100"`
	DateOfBirth       *string        `json:"date_of_birth" validate:"omitnil,required,datetime=2006-01-02"`
	VisaType          *string        `json:"visa_type" validate:"omitnil,required,visa_type"`
	ApplicationStatus *string        `json:"application_status" validate:"omitnil,required,application_status"`
	Notes             *string        `json:"notes" validate:"omitnil,max=2000"`
	AdditionalData    map[string]any `json:"additional_data"`
}

type ListDossiersQuery struct {
	Status   string `json:"status" validate:"omitempty,application_status"`
	VisaType string `json:"visa_type" validate:"omitempty,visa_type"`
	Limit    int    `json:"limit" validate:"min=0,max=100"`
	Offset   int    `json:"offset" validate:"min=0"`
}

// DossierListResult is one page of dossiers with their documents loaded.
type DossierListResult struct {
	Items  []model.Dossier `json:"data"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type DossierOptions struct {
	VisaTypes           []model.Option `json:"visa_types"`
	ApplicationStatuses []model.Option `json:"application_statuses"`
}

// DossierService defines the dossier use cases.
type DossierService interface {
	Create(ctx context.Context, userID int64, in CreateDossierInput) (*model.Dossier, error)
	List(ctx context.Context, userID int64, q ListDossiersQuery) (*DossierListResult, error)
	Get(ctx context.Context, userID, id int64) (*model.Dossier, error)
	// Update applies a partial change. A status change goes through the transition table.
	Update(ctx context.Context, userID, id int64, in UpdateDossierInput) (*model.Dossier, error)
	// Transition is the persisted lifecycle step: lock, check, write, commit.
	Transition(ctx context.Context, userID, id int64, target model.ApplicationStatus) (*model.Dossier, lifecycle.Result, error)
	// AssignOfficer sets the reviewing officer; nil clears it.
	AssignOfficer(ctx context.Context, userID, id int64, officerID *int64) (*model.Dossier, error)
	AddNote(ctx context.Context, userID, id int64, text string) (*model.Dossier, error)
	// Delete removes the dossier, its documents and their stored files.
	Delete(ctx context.Context, userID, id int64) error
	Stats(ctx context.Context, userID int64) (*lifecycle.Stats, error)
	Options() DossierOptions
}

type dossierService struct {
	store   repository.Store
	objects storage.Storage
	metrics *Metrics
	clock   Clock
	log     *slog.Logger
}

// NewDossierService constructs a DossierService. metrics may be nil.
func NewDossierService(store repository.Store, objects storage.Storage, metrics *Metrics, clock Clock, log *slog.Logger) DossierService {
	if log == nil {
		log = slog.Default()
	}
	return &dossierService{store: store, objects: objects, metrics: metrics, clock: clock, log: log}
}

func (s *dossierService) Create(ctx context.Context, userID int64, in CreateDossierInput) (_ *model.Dossier, err error) {
	ctx, span := startSpan(ctx, "DossierService.Create", attribute.Int64("user.id", userID))
	defer func() { endSpan(span, err) }()

	verr := validateStruct(in)
	dob := s.checkBirthDate("date_of_birth", in.DateOfBirth, verr)
	checkAdditionalData(in.AdditionalData, verr)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	taken, err := s.store.Dossiers().PassportTaken(ctx, userID, in.PassportNumber, 0)
	if err != nil {
		return nil, fmt.Errorf("check passport: %w", err)
	}
	if taken {
		return nil, passportTaken()
	}

	created, err := s.store.Dossiers().Create(ctx, &model.Dossier{
		UserID:         userID,
		PassportNumber: in.PassportNumber,
		Nationality:    in.Nationality,
		DateOfBirth:    dob,
		VisaType:       model.VisaType(in.VisaType),
		Status:         model.StatusDraft,
		AdditionalData: in.AdditionalData,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, passportTaken()
		}
		return nil, fmt.Errorf("create dossier: %w", err)
	}
	created.Documents = []model.Document{}
	return created, nil
}

func (s *dossierService) List(ctx context.Context, userID int64, q ListDossiersQuery) (_ *DossierListResult, err error) {
	ctx, span := startSpan(ctx, "DossierService.List", attribute.Int64("user.id", userID))
	defer func() { endSpan(span, err) }()

	if q.Limit == 0 {
		q.Limit = defaultPageLimit
	}
	if err := validateStruct(q).OrNil(); err != nil {
		return nil, err
	}

	page, err := s.store.Dossiers().List(ctx, userID, repository.DossierFilter{
		Status:    model.ApplicationStatus(q.Status),
		VisaType:  model.VisaType(q.VisaType),
		PageQuery: repository.PageQuery{Limit: q.Limit, Offset: q.Offset},
	})
	if err != nil {
		return nil, fmt.Errorf("list dossiers: %w", err)
	}
	items := make([]*model.Dossier, len(page.Items))
	for i := range page.Items {
		items[i] = &page.Items[i]
	}
	if err := s.attachDocuments(ctx, s.store, items...); err != nil {
		return nil, err
	}
	return &DossierListResult{Items: page.Items, Total: page.Total, Limit: q.Limit, Offset: q.Offset}, nil
}

func (s *dossierService) Get(ctx context.Context, userID, id int64) (_ *model.Dossier, err error) {
	ctx, span := startSpan(ctx, "DossierService.Get", attribute.Int64("dossier.id", id))
	defer func() { endSpan(span, err) }()

	return s.load(ctx, s.store, userID, id)
}

func (s *dossierService) Update(ctx context.Context, userID, id int64, in UpdateDossierInput) (_ *model.Dossier, err error) {
	ctx, span := startSpan(ctx, "DossierService.Update", attribute.Int64("dossier.id", id))
	defer func() { endSpan(span, err) }()

	verr := validateStruct(in)
	var dob time.Time
	if in.DateOfBirth != nil {
		dob = s.checkBirthDate("date_of_birth", *in.DateOfBirth, verr)
	}
	checkAdditionalData(in.AdditionalData, verr)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	var (
		updated    *model.Dossier
		transition *lifecycle.Result
	)
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		d, err := tx.Dossiers().FindByIDForUpdate(ctx, userID, id)
		if err != nil {
			return notFound(err)
		}

		if in.PassportNumber != nil && *in.PassportNumber != d.PassportNumber {
			taken, err := tx.Dossiers().PassportTaken(ctx, userID, *in.PassportNumber, d.ID)
			if err != nil {
				return fmt.Errorf("check passport: %w", err)
			}
			if taken {
				return passportTaken()
			}
			d.PassportNumber = *in.PassportNumber
		}
		if in.Nationality != nil {
			d.Nationality = *in.Nationality
		}
		if in.DateOfBirth != nil {
			d.DateOfBirth = dob
		}
		if in.VisaType != nil {
			d.VisaType = model.VisaType(*in.VisaType)
		}
		if in.Notes != nil {
			d.Notes = null.StringFrom(*in.Notes)
		}
		if in.AdditionalData != nil {
			d.AdditionalData = in.AdditionalData
		}
		// Resubmitting the current status is not a transition.
		if in.ApplicationStatus != nil && model.ApplicationStatus(*in.ApplicationStatus) != d.Status {
			from, target := d.Status, model.ApplicationStatus(*in.ApplicationStatus)
			res, err := lifecycle.Transition(d, target)
			s.metrics.observeTransition(from, target, err == nil)
			if err != nil {
				return err
			}
			transition = &res
		}

		updated, err = tx.Dossiers().Update(ctx, d)
		if err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return passportTaken()
			}
			return fmt.Errorf("update dossier: %w", err)
		}
		return s.attachDocuments(ctx, tx, updated)
	})
	if err != nil {
		return nil, err
	}

	if transition != nil {
		s.log.InfoContext(ctx, "dossier status changed",
			slog.String("component", "service"),
			slog.String("event", "dossier_transition"),
			slog.Int64("dossier_id", id),
			slog.String("from", string(transition.From)),
			slog.String("to", string(transition.To)),
		)
	}
	return updated, nil
}

func (s *dossierService) Transition(ctx context.Context, userID, id int64, target model.ApplicationStatus) (_ *model.Dossier, _ lifecycle.Result, err error) {
	ctx, span := startSpan(ctx, "DossierService.Transition",
		attribute.Int64("dossier.id", id),
		attribute.String("dossier.target_status", string(target)),
	)
	defer func() { endSpan(span, err) }()

	if !target.Valid() {
		return nil, lifecycle.Result{}, NewValidationError("status", "Invalid application status selected.")
	}

	var (
		updated *model.Dossier
		res     lifecycle.Result
	)
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		d, err := tx.Dossiers().FindByIDForUpdate(ctx, userID, id)
		if err != nil {
			return notFound(err)
		}

		from := d.Status
		res, err = lifecycle.Transition(d, target)
		s.metrics.observeTransition(from, target, err == nil)
		if err != nil {
			return err
		}

		updated, err = tx.Dossiers().Update(ctx, d)
		if err != nil {
			return fmt.Errorf("update dossier status: %w", err)
		}
		return s.attachDocuments(ctx, tx, updated)
	})
	if err != nil {
		return nil, lifecycle.Result{}, err
	}

	s.log.InfoContext(ctx, "dossier status changed",
		slog.String("component", "service"),
		slog.String("event", "dossier_transition"),
		slog.Int64("dossier_id", id),
		slog.String("from", string(res.From)),
		slog.String("to", string(res.To)),
	)
	return updated, res, nil
}

func (s *dossierService) AssignOfficer(ctx context.Context, userID, id int64, officerID *int64) (_ *model.Dossier, err error) {
	ctx, span := startSpan(ctx, "DossierService.AssignOfficer", attribute.Int64("dossier.id", id))
	defer func() { endSpan(span, err) }()

	return s.mutate(ctx, userID, id, func(tx repository.Store, d *model.Dossier) error {
		if officerID == nil {
			d.AssignedOfficerID = null.Int{}
			return nil
		}
		if _, err := tx.Users().FindByID(ctx, *officerID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return NewValidationError("officer_id", "The selected officer does not exist.")
			}
			return fmt.Errorf("find officer: %w", err)
		}
		d.AssignedOfficerID = null.IntFrom(*officerID)
		return nil
	})
}

func (s *dossierService) AddNote(ctx context.Context, userID, id int64, text string) (_ *model.Dossier, err error) {
	ctx, span := startSpan(ctx, "DossierService.AddNote", attribute.Int64("dossier.id", id))
	defer func() { endSpan(span, err) }()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, NewValidationError("notes", "The notes field is required.")
	}
	if len([]rune(text)) > 2000 {
		return nil, NewValidationError("notes", "The notes field must not be greater than 2000 characters.")
	}

	return s.mutate(ctx, userID, id, func(_ repository.Store, d *model.Dossier) error {
		d.Notes = null.StringFrom(appendNote(d.Notes.ValueOrZero(), text, s.clock.now()))
		return nil
	})
}

// appendNote adds a "[YYYY-MM-DD HH:MM:SS] text" line to existing notes.
func appendNote(existing, text string, at time.Time) string {
	line := fmt.Sprintf("[%s] %s", at.Format("2006-01-02 15:04:05"), text)
	return strings.TrimSpace(existing + "\n" + line)
}

func (s *dossierService) Delete(ctx context.Context, userID, id int64) (err error) {
	ctx, span := startSpan(ctx, "DossierService.Delete", attribute.Int64("dossier.id", id))
	defer func() { endSpan(span, err) }()

	var keys []string
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Dossiers().FindByIDForUpdate(ctx, userID, id); err != nil {
			return notFound(err)
		}

		docs, err := tx.Documents().ListByDossier(ctx, id, "")
		if err != nil {
			return fmt.Errorf("list documents: %w", err)
		}
		for _, doc := range docs {
			if err := tx.Documents().Delete(ctx, id, doc.ID); err != nil {
				return fmt.Errorf("delete document %d: %w", doc.ID, err)
			}
			for _, f := range doc.Files {
				keys = append(keys, f.StoragePath)
			}
		}

		if err := tx.Dossiers().Delete(ctx, userID, id); err != nil {
			return fmt.Errorf("delete dossier: %w", notFound(err))
		}
		return nil
	})
	if err != nil {
		return err
	}

	removeObjects(ctx, s.objects, s.log, keys)
	return nil
}

func (s *dossierService) Stats(ctx context.Context, userID int64) (_ *lifecycle.Stats, err error) {
	ctx, span := startSpan(ctx, "DossierService.Stats", attribute.Int64("user.id", userID))
	defer func() { endSpan(span, err) }()

	page, err := s.store.Dossiers().List(ctx, userID, repository.DossierFilter{})
	if err != nil {
		return nil, fmt.Errorf("list dossiers: %w", err)
	}
	st := lifecycle.AggregateStats(page.Items)
	return &st, nil
}

func (s *dossierService) Options() DossierOptions {
	return DossierOptions{
		VisaTypes:           model.VisaTypeOptions(),
		ApplicationStatuses: model.ApplicationStatusOptions(),
	}
}

// mutate locks the dossier, applies fn and writes the result in one transaction.
func (s *dossierService) mutate(ctx context.Context, userID, id int64, fn func(tx repository.Store, d *model.Dossier) error) (*model.Dossier, error) {
	var updated *model.Dossier
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		d, err := tx.Dossiers().FindByIDForUpdate(ctx, userID, id)
		if err != nil {
			return notFound(err)
		}
		if err := fn(tx, d); err != nil {
			return err
		}
		updated, err = tx.Dossiers().Update(ctx, d)
		if err != nil {
			return fmt.Errorf("update dossier: %w", err)
		}
		return s.attachDocuments(ctx, tx, updated)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *dossierService) load(ctx context.Context, store repository.Store, userID, id int64) (*model.Dossier, error) {
	d, err := store.Dossiers().FindByID(ctx, userID, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := s.attachDocuments(ctx, store, d); err != nil {
		return nil, err
	}
	return d, nil
}

// attachDocuments loads the documents of every dossier with one query.
func (s *dossierService) attachDocuments(ctx context.Context, store repository.Store, dossiers ...*model.Dossier) error {
	if len(dossiers) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(dossiers))
	byID := make(map[int64]*model.Dossier, len(dossiers))
	for _, d := range dossiers {
		ids = append(ids, d.ID)
		byID[d.ID] = d
		d.Documents = []model.Document{}
	}

	docs, err := store.Documents().ListByDossiers(ctx, ids)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	for _, doc := range docs {
		if d, ok := byID[doc.DossierID]; ok {
			d.Documents = append(d.Documents, doc)
		}
	}
	return nil
}

// checkBirthDate parses a YYYY-MM-DD date that must lie strictly between 1900-01-01 and today.
// Format errors are already reported by struct validation.
func (s *dossierService) checkBirthDate(field, raw string, verr *ValidationError) time.Time {
	dob, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}
	}
	now := s.clock.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if !dob.Before(today) {
		verr.Add(field, "Date of birth must be before today.")
	}
	if !dob.After(earliestBirthDate) {
		verr.Add(field, "Date of birth must be after 1900.")
	}
	return dob
}

func checkAdditionalData(data map[string]any, verr *ValidationError) {
	for key, limit := range additionalDataLimits {
		v, ok := data[key]
		if !ok || v == nil {
			continue
		}
		field := "additional_data." + key
		str, isString := v.(string)
		if !isString {
			verr.Add(field, fmt.Sprintf("The %s field must be a string.", strings.ReplaceAll(key, "_", " ")))
			continue
		}
		if len([]rune(str)) > limit {
			verr.Add(field, fmt.Sprintf("The %s field must not be greater than %d characters.", strings.ReplaceAll(key, "_", " "), limit))
		}
	}
}

func passportTaken() error {
	return NewValidationError("passport_number", "The passport number has already been taken.")
}

// removeObjects deletes stored files after their rows are gone. Failures leave
// orphaned objects behind, which are logged rather than surfaced.
func removeObjects(ctx context.Context, objects storage.Storage, log *slog.Logger, keys []string) {
	for _, key := range keys {
		if err := objects.Delete(ctx, key); err != nil {
			log.WarnContext(ctx, "orphaned object left in storage",
				slog.String("component", "storage"),
				slog.String("event", "object_delete_failed"),
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}
}
