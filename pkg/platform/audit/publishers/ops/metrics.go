package ops

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for operational alerts.
type Metrics struct {
	Raised              *prometheus.CounterVec
	FallbackDeliveries  prometheus.Counter
	DeliveryFailures    prometheus.Counter
	CircuitBreakerState prometheus.Gauge
}

func NewMetrics() *Metrics {
	return &Metrics{
		Raised: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "apertura_alerts_raised_total",
			Help: "Total number of operational alerts raised",
		}, []string{"action", "severity"}),
		FallbackDeliveries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "apertura_alerts_fallback_deliveries_total",
			Help: "Total number of alerts delivered to the fallback sink",
		}),
		DeliveryFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "apertura_alerts_delivery_failures_total",
			Help: "Total number of alerts that could not be delivered to any sink",
		}),
		CircuitBreakerState: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "apertura_alerts_circuit_breaker_state",
			Help: "Current circuit breaker state of the primary alert sink (0=closed, 1=open)",
		}),
	}
}

func (m *Metrics) IncRaised(action, severity string) {
	m.Raised.WithLabelValues(action, severity).Inc()
}

func (m *Metrics) IncFallbackDeliveries() {
	m.FallbackDeliveries.Inc()
}

func (m *Metrics) IncDeliveryFailures() {
	m.DeliveryFailures.Inc()
}

func (m *Metrics) SetCircuitBreakerState(open bool) {
	if open {
		m.CircuitBreakerState.Set(1)
	} else {
		m.CircuitBreakerState.Set(0)
	}
}
