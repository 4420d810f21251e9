package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the identifier verification engine.
type Metrics struct {
	Submitted prometheus.Counter
	Lookups   *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		Submitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "memberdesk_identifiers_submitted_total",
			Help: "Identifiers created after passing syntactic validation",
		}),
		Lookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "memberdesk_identifier_lookups_total",
			Help: "Registry lookup outcomes by result",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncrementSubmitted() {
	if m != nil {
		m.Submitted.Inc()
	}
}

func (m *Metrics) IncrementLookup(outcome string) {
	if m != nil {
		m.Lookups.WithLabelValues(outcome).Inc()
	}
}
