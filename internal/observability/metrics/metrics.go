package metrics

import "github.com/prometheus/client_golang/prometheus"

// RelayMetrics exposes counters for webhook and reply flows.
type RelayMetrics struct {
	eventsTotal         *prometheus.CounterVec
	repliesTotal        *prometheus.CounterVec
	upstreamErrorsTotal *prometheus.CounterVec
}

func NewRelayMetrics(reg prometheus.Registerer) *RelayMetrics {
	m := &RelayMetrics{
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ikeman",
			Subsystem: "relay",
			Name:      "events_total",
			Help:      "Total inbound webhook events",
		}, []string{"event_type", "outcome"}),
		repliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ikeman",
			Subsystem: "relay",
			Name:      "replies_total",
			Help:      "Total outbound replies",
		}, []string{"kind", "status"}),
		upstreamErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ikeman",
			Subsystem: "relay",
			Name:      "upstream_errors_total",
			Help:      "Total collaborator call failures",
		}, []string{"collaborator", "class"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.eventsTotal, m.repliesTotal, m.upstreamErrorsTotal)
	return m
}

func (m *RelayMetrics) ObserveEvent(eventType, outcome string) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(eventType, outcome).Inc()
}

func (m *RelayMetrics) ObserveReply(kind, status string) {
	if m == nil {
		return
	}
	m.repliesTotal.WithLabelValues(kind, status).Inc()
}

func (m *RelayMetrics) ObserveUpstreamError(collaborator, class string) {
	if m == nil {
		return
	}
	m.upstreamErrorsTotal.WithLabelValues(collaborator, class).Inc()
}
