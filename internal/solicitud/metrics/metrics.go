package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the solicitud module.
type Metrics struct {
	Created                    *prometheus.CounterVec
	Transitions                *prometheus.CounterVec
	ValidationFailures         prometheus.Counter
	ConcurrentModifications    prometheus.Counter
	ProviderSyncErrors         *prometheus.CounterVec
	AccountRegistrationFailure prometheus.Counter
	SyncDuration               prometheus.Histogram
	PollDuration               prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		Created: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "apertura_solicitudes_created_total",
			Help: "Total number of solicitudes created, by tipo",
		}, []string{"tipo"}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "apertura_solicitud_transitions_total",
			Help: "Total number of lifecycle transitions, by origin and target estado",
		}, []string{"from", "to"}),
		ValidationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "apertura_ownership_validation_failures_total",
			Help: "Total number of ownership validations that reported violations",
		}),
		ConcurrentModifications: promauto.NewCounter(prometheus.CounterOpts{
			Name: "apertura_solicitud_concurrent_modifications_total",
			Help: "Total number of transitions rejected because the stored estado changed",
		}),
		ProviderSyncErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "apertura_signature_sync_errors_total",
			Help: "Total number of signature provider synchronization faults, by kind",
		}, []string{"kind"}),
		AccountRegistrationFailure: promauto.NewCounter(prometheus.CounterOpts{
			Name: "apertura_account_registration_failures_total",
			Help: "Total number of approved solicitudes whose account registration failed",
		}),
		SyncDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "apertura_signature_sync_duration_seconds",
			Help:    "Duration of a single solicitud signature sync against the provider",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		PollDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "apertura_signature_poll_duration_seconds",
			Help:    "Duration of a full signature polling round",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}

func (m *Metrics) IncCreated(tipo string) {
	m.Created.WithLabelValues(tipo).Inc()
}

func (m *Metrics) IncTransition(from, to string) {
	m.Transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) IncValidationFailures() {
	m.ValidationFailures.Inc()
}

func (m *Metrics) IncConcurrentModifications() {
	m.ConcurrentModifications.Inc()
}

func (m *Metrics) IncProviderSyncError(kind string) {
	m.ProviderSyncErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncAccountRegistrationFailure() {
	m.AccountRegistrationFailure.Inc()
}

// ObserveSync records one SyncSignatures call. Call with time.Now() at the start.
func (m *Metrics) ObserveSync(start time.Time) {
	m.SyncDuration.Observe(time.Since(start).Seconds())
}

// ObservePoll records one polling round. Call with time.Now() at the start.
func (m *Metrics) ObservePoll(start time.Time) {
	m.PollDuration.Observe(time.Since(start).Seconds())
}
