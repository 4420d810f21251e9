package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the M2M credential lifecycle.
type Metrics struct {
	Created     prometheus.Counter
	Rotations   prometheus.Counter
	Deactivated prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Created: promauto.NewCounter(prometheus.CounterOpts{
			Name: "memberdesk_m2m_clients_created_total",
			Help: "M2M clients registered with the identity provider",
		}),
		Rotations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "memberdesk_m2m_secret_rotations_total",
			Help: "Client secret rotations completed",
		}),
		Deactivated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "memberdesk_m2m_clients_deactivated_total",
			Help: "M2M clients moved to the terminal inactive state",
		}),
	}
}

func (m *Metrics) IncrementCreated() {
	if m != nil {
		m.Created.Inc()
	}
}

func (m *Metrics) IncrementRotated() {
	if m != nil {
		m.Rotations.Inc()
	}
}

func (m *Metrics) IncrementDeactivated() {
	if m != nil {
		m.Deactivated.Inc()
	}
}
