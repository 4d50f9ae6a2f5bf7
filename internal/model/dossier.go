package model

import (
	"time"

	"github.com/guregu/null/v5"
)

// Dossier is a single visa application owned by one user.
// Documents is populated only by reads that load the dossier together with its attachments.
type Dossier struct {
	ID                int64             `json:"id"`
	UserID            int64             `json:"user_id"`
	AssignedOfficerID null.Int          `json:"assigned_officer_id"`
	PassportNumber    string            `json:"passport_number"`
	Nationality       string            `json:"nationality"`
	DateOfBirth       time.Time         `json:"date_of_birth"`
	VisaType          VisaType          `json:"visa_type"`
	Status            ApplicationStatus `json:"application_status"`
	Notes             null.String       `json:"notes"`
	AdditionalData    map[string]any    `json:"additional_data"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`

	Documents []Document `json:"documents,omitempty"`
}

// DocumentTypeCounts counts the loaded documents per type.
func (d *Dossier) DocumentTypeCounts() map[DocumentType]int {
	counts := make(map[DocumentType]int, len(d.Documents))
	for _, doc := range d.Documents {
		counts[doc.Type]++
	}
	return counts
}
