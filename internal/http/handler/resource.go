package handler

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/guregu/null/v5"

	"dossierapi/internal/lifecycle"
	"dossierapi/internal/model"
	"dossierapi/internal/service"
)

type dossierResource struct {
	ID                     int64                     `json:"id"`
	UserID                 int64                     `json:"user_id"`
	PassportNumber         string                    `json:"passport_number"`
	Nationality            string                    `json:"nationality"`
	DateOfBirth            string                    `json:"date_of_birth"`
	VisaType               model.VisaType            `json:"visa_type"`
	VisaTypeLabel          string                    `json:"visa_type_label"`
	ApplicationStatus      model.ApplicationStatus   `json:"application_status"`
	ApplicationStatusLabel string                    `json:"application_status_label"`
	ApplicationStatusColor string                    `json:"application_status_color"`
	AllowedTransitions     []model.ApplicationStatus `json:"allowed_transitions"`
	AssignedOfficerID      null.Int                  `json:"assigned_officer_id"`
	Notes                  null.String               `json:"notes"`
	AdditionalData         map[string]any            `json:"additional_data"`
	DocumentsCount         int                       `json:"documents_count"`
	Documents              []documentResource        `json:"documents"`
	HasRequiredDocuments   bool                      `json:"has_required_documents"`
	MissingDocuments       []model.DocumentType      `json:"missing_documents"`
	CanSubmit              bool                      `json:"can_submit"`
	CreatedAt              time.Time                 `json:"created_at"`
	UpdatedAt              time.Time                 `json:"updated_at"`
}

type documentResource struct {
	ID                int64              `json:"id"`
	DossierID         int64              `json:"dossier_id"`
	DocumentType      model.DocumentType `json:"document_type"`
	DocumentTypeLabel string             `json:"document_type_label"`
	Name              string             `json:"name"`
	Description       null.String        `json:"description"`
	FileSize          int64              `json:"file_size"`
	FileSizeFormatted null.String        `json:"file_size_formatted"`
	MimeType          string             `json:"mime_type"`
	OriginalFilename  string             `json:"original_filename"`
	Files             []fileResource     `json:"files"`
	UploadedAt        time.Time          `json:"uploaded_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

type fileResource struct {
	ID            int64  `json:"id"`
	Position      int    `json:"position"`
	Name          string `json:"name"`
	OriginalName  string `json:"original_name"`
	URL           string `json:"url"`
	Size          int64  `json:"size"`
	SizeFormatted string `json:"size_formatted"`
	MimeType      string `json:"mime_type"`
}

type documentGroupResource struct {
	Type      model.DocumentType `json:"type"`
	TypeLabel string             `json:"type_label"`
	Count     int                `json:"count"`
	Documents []documentResource `json:"documents"`
}

type dossierListResponse struct {
	Data   []dossierResource `json:"data"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

type statsResponse struct {
	Total          int                                               `json:"total"`
	ByStatus       map[model.ApplicationStatus]lifecycle.StatusCount `json:"by_status"`
	ByVisaType     map[model.VisaType]lifecycle.VisaTypeCount        `json:"by_visa_type"`
	RecentActivity []dossierResource                                 `json:"recent_activity"`
}

type transitionResponse struct {
	From    model.ApplicationStatus `json:"from"`
	To      model.ApplicationStatus `json:"to"`
	Dossier dossierResource         `json:"dossier"`
}

// newDossierResource renders d with its computed fields. baseURL prefixes file download links.
func newDossierResource(d *model.Dossier, baseURL string) dossierResource {
	docs := make([]documentResource, 0, len(d.Documents))
	for i := range d.Documents {
		docs = append(docs, newDocumentResource(&d.Documents[i], baseURL))
	}
	missing := lifecycle.MissingDocumentTypes(d)
	if missing == nil {
		missing = []model.DocumentType{}
	}
	return dossierResource{
		ID:                     d.ID,
		UserID:                 d.UserID,
		PassportNumber:         d.PassportNumber,
		Nationality:            d.Nationality,
		DateOfBirth:            d.DateOfBirth.Format("2006-01-02"),
		VisaType:               d.VisaType,
		VisaTypeLabel:          d.VisaType.Label(),
		ApplicationStatus:      d.Status,
		ApplicationStatusLabel: d.Status.Label(),
		ApplicationStatusColor: d.Status.Color(),
		AllowedTransitions:     lifecycle.AllowedTransitions(d.Status),
		AssignedOfficerID:      d.AssignedOfficerID,
		Notes:                  d.Notes,
		AdditionalData:         d.AdditionalData,
		DocumentsCount:         len(d.Documents),
		Documents:              docs,
		HasRequiredDocuments:   len(missing) == 0,
		MissingDocuments:       missing,
		CanSubmit:              lifecycle.CanSubmit(d),
		CreatedAt:              d.CreatedAt,
		UpdatedAt:              d.UpdatedAt,
	}
}

func newDossierResources(ds []model.Dossier, baseURL string) []dossierResource {
	out := make([]dossierResource, 0, len(ds))
	for i := range ds {
		out = append(out, newDossierResource(&ds[i], baseURL))
	}
	return out
}

func newDocumentResource(doc *model.Document, baseURL string) documentResource {
	files := make([]fileResource, 0, len(doc.Files))
	for _, f := range doc.Files {
		files = append(files, fileResource{
			ID:            f.ID,
			Position:      f.Position,
			Name:          f.FileName,
			OriginalName:  f.Name,
			URL:           fmt.Sprintf("%s/dossiers/%d/documents/%d/download?file=%d", baseURL, doc.DossierID, doc.ID, f.ID),
			Size:          f.Size,
			SizeFormatted: humanize.IBytes(uint64(f.Size)),
			MimeType:      f.ContentType,
		})
	}

	var formatted null.String
	if doc.Size > 0 {
		formatted = null.StringFrom(humanize.IBytes(uint64(doc.Size)))
	}
	return documentResource{
		ID:                doc.ID,
		DossierID:         doc.DossierID,
		DocumentType:      doc.Type,
		DocumentTypeLabel: doc.Type.Label(),
		Name:              doc.Name,
		Description:       doc.Description,
		FileSize:          doc.Size,
		FileSizeFormatted: formatted,
		MimeType:          doc.ContentType,
		OriginalFilename:  doc.OriginalFilename,
		Files:             files,
		UploadedAt:        doc.CreatedAt,
		UpdatedAt:         doc.UpdatedAt,
	}
}

func newDocumentResources(docs []model.Document, baseURL string) []documentResource {
	out := make([]documentResource, 0, len(docs))
	for i := range docs {
		out = append(out, newDocumentResource(&docs[i], baseURL))
	}
	return out
}

func newDocumentGroupResources(groups []service.DocumentGroup, baseURL string) []documentGroupResource {
	out := make([]documentGroupResource, 0, len(groups))
	for _, g := range groups {
		out = append(out, documentGroupResource{
			Type:      g.Type,
			TypeLabel: g.TypeLabel,
			Count:     g.Count,
			Documents: newDocumentResources(g.Documents, baseURL),
		})
	}
	return out
}

func newStatsResponse(st *lifecycle.Stats, baseURL string) statsResponse {
	return statsResponse{
		Total:          st.Total,
		ByStatus:       st.ByStatus,
		ByVisaType:     st.ByVisaType,
		RecentActivity: newDossierResources(st.RecentActivity, baseURL),
	}
}
