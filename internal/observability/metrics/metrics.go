package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for the assistant's dialogue and
// booking flows.
type ChatMetrics struct {
	turnsTotal     *prometheus.CounterVec
	bookingsTotal  *prometheus.CounterVec
	resolveLatency *prometheus.HistogramVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total chat turns processed",
		}, []string{"intent", "outcome"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "operations_total",
			Help:      "Total scheduling operations committed",
		}, []string{"operation", "status"}),
		resolveLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "chat",
			Name:      "intent_resolution_seconds",
			Help:      "Latency of LLM intent resolution",
			Buckets:   []float64{0.25, 0.5, 1, 2, 3, 4, 5, 6, 8, 10, 15},
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.bookingsTotal, m.resolveLatency)
	return m
}

func (m *ChatMetrics) ObserveTurn(intent, outcome string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(intent, outcome).Inc()
}

func (m *ChatMetrics) ObserveBooking(operation, status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(operation, status).Inc()
}

func (m *ChatMetrics) ObserveResolveLatency(status string, seconds float64) {
	if m == nil {
		return
	}
	m.resolveLatency.WithLabelValues(status).Observe(seconds)
}
