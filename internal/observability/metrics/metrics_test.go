package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestRelayMetricsExport(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRelayMetrics(reg)

	m.ObserveInbound("accepted")
	m.ObserveOutbound("sent")
	m.ObserveTransition("confirmed")
	m.ObserveWebhookLatency("accepted", 0.02)

	handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"relay_inbound_messages_total",
		"relay_outbound_messages_total",
		"relay_booking_transitions_total",
		"relay_inbound_webhook_latency_seconds",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s to be exported", want)
		}
	}
}

func TestRelayMetricsNilReceiverSafe(t *testing.T) {
	var m *RelayMetrics
	m.ObserveInbound("accepted")
	m.ObserveOutbound("sent")
	m.ObserveTransition("confirmed")
	m.ObserveWebhookLatency("accepted", 0.01)
}
