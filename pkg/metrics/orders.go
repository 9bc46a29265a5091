package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics tracks the fulfillment pipeline: creations, terminal
// transitions, payment failures, sequence retries and fired escalations.
type OrderMetrics struct {
	created            *prometheus.CounterVec
	cancelled          *prometheus.CounterVec
	completed          *prometheus.CounterVec
	paymentFailures    *prometheus.CounterVec
	sequenceRetries    prometheus.Counter
	escalationsFired   *prometheus.CounterVec
	createLatency      prometheus.Histogram
	compensationErrors prometheus.Counter
}

// NewOrderMetrics registers the order pipeline metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders accepted, labelled by service type.",
	}, []string{"service_type"})
	cancelled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Orders cancelled, labelled by prior status.",
	}, []string{"from_status"})
	completed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_completed_total",
		Help: "Orders handed over, labelled by service type.",
	}, []string{"service_type"})
	paymentFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_failures_total",
		Help: "Payment intent operations that failed, labelled by operation.",
	}, []string{"operation"})
	sequenceRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_sequence_retries_total",
		Help: "Retries performed while allocating daily order numbers.",
	})
	escalationsFired := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "escalation_alerts_fired_total",
		Help: "Escalation alerts fired, labelled by severity.",
	}, []string{"severity"})
	createLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_create_duration_seconds",
		Help:    "End-to-end latency of order creation.",
		Buckets: prometheus.DefBuckets,
	})
	compensationErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "compensation_failures_total",
		Help: "Compensating inventory releases that failed and were journaled.",
	})
	reg.MustRegister(created, cancelled, completed, paymentFailures,
		sequenceRetries, escalationsFired, createLatency, compensationErrors)
	return &OrderMetrics{
		created:            created,
		cancelled:          cancelled,
		completed:          completed,
		paymentFailures:    paymentFailures,
		sequenceRetries:    sequenceRetries,
		escalationsFired:   escalationsFired,
		createLatency:      createLatency,
		compensationErrors: compensationErrors,
	}
}

func (m *OrderMetrics) IncCreated(serviceType string) {
	if m == nil || m.created == nil {
		return
	}
	m.created.WithLabelValues(normalizeLabel(serviceType)).Inc()
}

func (m *OrderMetrics) IncCancelled(fromStatus string) {
	if m == nil || m.cancelled == nil {
		return
	}
	m.cancelled.WithLabelValues(normalizeLabel(fromStatus)).Inc()
}

func (m *OrderMetrics) IncCompleted(serviceType string) {
	if m == nil || m.completed == nil {
		return
	}
	m.completed.WithLabelValues(normalizeLabel(serviceType)).Inc()
}

func (m *OrderMetrics) IncPaymentFailure(operation string) {
	if m == nil || m.paymentFailures == nil {
		return
	}
	m.paymentFailures.WithLabelValues(normalizeLabel(operation)).Inc()
}

func (m *OrderMetrics) IncSequenceRetry() {
	if m == nil || m.sequenceRetries == nil {
		return
	}
	m.sequenceRetries.Inc()
}

func (m *OrderMetrics) IncEscalationFired(severity string) {
	if m == nil || m.escalationsFired == nil {
		return
	}
	m.escalationsFired.WithLabelValues(normalizeLabel(severity)).Inc()
}

func (m *OrderMetrics) ObserveCreateDuration(d time.Duration) {
	if m == nil || m.createLatency == nil {
		return
	}
	m.createLatency.Observe(d.Seconds())
}

func (m *OrderMetrics) IncCompensationFailure() {
	if m == nil || m.compensationErrors == nil {
		return
	}
	m.compensationErrors.Inc()
}
