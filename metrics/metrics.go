// Package metrics exposes Prometheus counters for the session coordinator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "suibotics"

// Rejection reason labels for MovesRejected.
const (
	ReasonSessionEnded     = "session_ended"
	ReasonInvalidDirection = "invalid_direction"
	ReasonExpired          = "expired"
	ReasonNotFound         = "not_found"
)

// Metrics holds the coordinator's counters. All fields are safe for
// concurrent use.
type Metrics struct {
	SessionsCreated prometheus.Counter
	SessionsEnded   prometheus.Counter
	MovesAccepted   prometheus.Counter
	MovesRejected   *prometheus.CounterVec
}

// New registers the coordinator counters against reg and returns them.
// Pass prometheus.NewRegistry() in tests to keep registrations isolated.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "control",
			Name:      "sessions_created_total",
			Help:      "Number of control sessions created.",
		}),
		SessionsEnded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "control",
			Name:      "sessions_ended_total",
			Help:      "Number of control sessions that reached ENDED.",
		}),
		MovesAccepted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "control",
			Name:      "moves_accepted_total",
			Help:      "Number of movement commands accepted and sequenced.",
		}),
		MovesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "control",
			Name:      "moves_rejected_total",
			Help:      "Number of movement commands rejected, by reason.",
		}, []string{"reason"}),
	}
}
