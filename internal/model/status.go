package model

// ApplicationStatus is the lifecycle stage of a visa dossier.
type ApplicationStatus string

const (
	StatusDraft                  ApplicationStatus = "draft"
	StatusSubmitted              ApplicationStatus = "submitted"
	StatusProcessing             ApplicationStatus = "processing"
	StatusUnderReview            ApplicationStatus = "under_review"
	StatusAdditionalDocsRequired ApplicationStatus = "additional_docs_required"
	StatusApproved               ApplicationStatus = "approved"
	StatusRejected               ApplicationStatus = "rejected"
	StatusCancelled              ApplicationStatus = "cancelled"
)

type statusMeta struct {
	label string
	color string
}

var applicationStatuses = []ApplicationStatus{
	StatusDraft,
	StatusSubmitted,
	StatusProcessing,
	StatusUnderReview,
	StatusAdditionalDocsRequired,
	StatusApproved,
	StatusRejected,
	StatusCancelled,
}

var statusTable = map[ApplicationStatus]statusMeta{
	StatusDraft:                  {label: "Draft", color: "gray"},
	StatusSubmitted:              {label: "Submitted", color: "blue"},
	StatusProcessing:             {label: "Processing", color: "yellow"},
	StatusUnderReview:            {label: "Under Review", color: "orange"},
	StatusAdditionalDocsRequired: {label: "Additional Documents Required", color: "purple"},
	StatusApproved:               {label: "Approved", color: "green"},
	StatusRejected:               {label: "Rejected", color: "red"},
	StatusCancelled:              {label: "Cancelled", color: "gray"},
}

// AllApplicationStatuses returns every status in declaration order.
func AllApplicationStatuses() []ApplicationStatus {
	out := make([]ApplicationStatus, len(applicationStatuses))
	copy(out, applicationStatuses)
	return out
}

// Valid reports whether s is a member of the status enumeration.
func (s ApplicationStatus) Valid() bool {
	_, ok := statusTable[s]
	return ok
}

func (s ApplicationStatus) Label() string { return statusTable[s].label }

func (s ApplicationStatus) Color() string { return statusTable[s].color }

// Option is a value/label pair used by clients to render selects.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Color string `json:"color,omitempty"`
}

// ApplicationStatusOptions lists statuses with their label and color.
func ApplicationStatusOptions() []Option {
	out := make([]Option, 0, len(applicationStatuses))
	for _, s := range applicationStatuses {
		out = append(out, Option{Value: string(s), Label: s.Label(), Color: s.Color()})
	}
	return out
}
