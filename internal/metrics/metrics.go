package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "eventmanager"

// Registry holds every collector exposed on /metrics.
var Registry = prometheus.NewRegistry()

// Registration outcomes.
const (
	OutcomeRegistered = "registered"
	OutcomeDuplicate  = "duplicate"
	OutcomeFull       = "full"
	OutcomeNoEvent    = "event_not_found"
	OutcomeError      = "error"
)

var (
	// RegistrationsTotal counts attendee registration attempts by outcome.
	RegistrationsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attendee_registrations_total",
			Help:      "Attendee registration attempts by outcome",
		},
		[]string{"outcome"},
	)

	// CheckInsTotal counts attendees checked in, by mode (single|bulk).
	CheckInsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attendee_checkins_total",
			Help:      "Attendees checked in",
		},
		[]string{"mode"},
	)

	// StatusTransitionsTotal counts events moved to a new lifecycle status.
	StatusTransitionsTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_status_transitions_total",
			Help:      "Event status changes persisted by lazy refresh",
		},
	)

	// LoginsTotal counts token requests by result (success|failure).
	LoginsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Token requests by result",
		},
		[]string{"result"},
	)
)

// Init registers the Go runtime, process and connection pool collectors.
func Init(db *sql.DB) {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if db != nil {
		Registry.MustRegister(collectors.NewDBStatsCollector(db, namespace))
	}
}
