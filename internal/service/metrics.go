package service

import (
	"github.com/prometheus/client_golang/prometheus"

	"dossierapi/internal/model"
)

// Metrics holds domain counters. A nil *Metrics records nothing.
type Metrics struct {
	transitions *prometheus.CounterVec
}

// NewMetrics creates the service metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dossier_status_transitions_total",
				Help: "Dossier status transition attempts by outcome.",
			},
			[]string{"from", "to", "result"},
		),
	}
	if err := reg.Register(m.transitions); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) observeTransition(from, to model.ApplicationStatus, applied bool) {
	if m == nil {
		return
	}
	result := "rejected"
	if applied {
		result = "applied"
	}
	m.transitions.WithLabelValues(string(from), string(to), result).Inc()
}
