package lifecycle

import (
	"sort"

	"dossierapi/internal/model"
)

const recentActivityLimit = 5

type StatusCount struct {
	Count int    `json:"count"`
	Label string `json:"label"`
	Color string `json:"color"`
}

type VisaTypeCount struct {
	Count int    `json:"count"`
	Label string `json:"label"`
}

// Stats summarises a set of dossiers. ByStatus and ByVisaType always hold
// every enumeration member, with zero counts for members nobody uses.
type Stats struct {
	Total          int                                     `json:"total"`
	ByStatus       map[model.ApplicationStatus]StatusCount `json:"by_status"`
	ByVisaType     map[model.VisaType]VisaTypeCount        `json:"by_visa_type"`
	RecentActivity []model.Dossier                         `json:"recent_activity"`
}

// AggregateStats computes Stats over dossiers. The input slice is not modified.
func AggregateStats(dossiers []model.Dossier) Stats {
	st := Stats{
		Total:      len(dossiers),
		ByStatus:   make(map[model.ApplicationStatus]StatusCount),
		ByVisaType: make(map[model.VisaType]VisaTypeCount),
	}
	for _, s := range model.AllApplicationStatuses() {
		st.ByStatus[s] = StatusCount{Label: s.Label(), Color: s.Color()}
	}
	for _, v := range model.AllVisaTypes() {
		st.ByVisaType[v] = VisaTypeCount{Label: v.Label()}
	}

	for _, d := range dossiers {
		if sc, ok := st.ByStatus[d.Status]; ok {
			sc.Count++
			st.ByStatus[d.Status] = sc
		}
		if vc, ok := st.ByVisaType[d.VisaType]; ok {
			vc.Count++
			st.ByVisaType[d.VisaType] = vc
		}
	}

	recent := make([]model.Dossier, len(dossiers))
	copy(recent, dossiers)
	sort.SliceStable(recent, func(i, j int) bool {
		if recent[i].CreatedAt.Equal(recent[j].CreatedAt) {
			return recent[i].ID > recent[j].ID
		}
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > recentActivityLimit {
		recent = recent[:recentActivityLimit]
	}
	st.RecentActivity = recent

	return st
}
