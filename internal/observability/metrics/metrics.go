package metrics

import "github.com/prometheus/client_golang/prometheus"

// RelayMetrics exposes counters/histograms for the confirmation flows.
type RelayMetrics struct {
	inboundTotal    *prometheus.CounterVec
	outboundTotal   *prometheus.CounterVec
	transitionTotal *prometheus.CounterVec
	webhookLatency  *prometheus.HistogramVec
}

func NewRelayMetrics(reg prometheus.Registerer) *RelayMetrics {
	m := &RelayMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relay",
			Subsystem: "inbound",
			Name:      "messages_total",
			Help:      "Total inbound SMS webhooks by routing outcome",
		}, []string{"outcome"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relay",
			Subsystem: "outbound",
			Name:      "messages_total",
			Help:      "Total outbound SMS sends",
		}, []string{"status"}),
		transitionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relay",
			Subsystem: "booking",
			Name:      "transitions_total",
			Help:      "Total booking status transitions",
		}, []string{"to"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "relay",
			Subsystem: "inbound",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of inbound webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.outboundTotal, m.transitionTotal, m.webhookLatency)
	return m
}

func (m *RelayMetrics) ObserveInbound(outcome string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(outcome).Inc()
}

func (m *RelayMetrics) ObserveOutbound(status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(status).Inc()
}

func (m *RelayMetrics) ObserveTransition(to string) {
	if m == nil {
		return
	}
	m.transitionTotal.WithLabelValues(to).Inc()
}

func (m *RelayMetrics) ObserveWebhookLatency(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(outcome).Observe(seconds)
}
