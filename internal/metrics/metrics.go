package metrics

import "github.com/prometheus/client_golang/prometheus"

// CallFlowMetrics exposes counters/histograms for the voice booking flow.
type CallFlowMetrics struct {
	turnsTotal    *prometheus.CounterVec
	bookingsTotal *prometheus.CounterVec
	stepLatency   *prometheus.HistogramVec
}

// NewCallFlowMetrics registers the call-flow collectors on reg, or the default registerer when reg is nil.
func NewCallFlowMetrics(reg prometheus.Registerer) *CallFlowMetrics {
	m := &CallFlowMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "callbook",
			Subsystem: "callflow",
			Name:      "turns_total",
			Help:      "Total call turns handled, by step and outcome",
		}, []string{"step", "outcome"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "callbook",
			Subsystem: "callflow",
			Name:      "bookings_total",
			Help:      "Terminal booking results",
		}, []string{"status"}),
		stepLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "callbook",
			Subsystem: "callflow",
			Name:      "step_latency_seconds",
			Help:      "Latency of call-flow step processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.bookingsTotal, m.stepLatency)
	return m
}

// ObserveTurn counts one handled turn.
func (m *CallFlowMetrics) ObserveTurn(step, outcome string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(step, outcome).Inc()
}

// ObserveBooking counts a terminal booking result.
func (m *CallFlowMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
}

// ObserveStepLatency records how long a step took to process.
func (m *CallFlowMetrics) ObserveStepLatency(step string, seconds float64) {
	if m == nil {
		return
	}
	m.stepLatency.WithLabelValues(step).Observe(seconds)
}
