package inbound

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/goldtouchmobile/booking-relay/internal/messaging"
	"github.com/goldtouchmobile/booking-relay/internal/observability/metrics"
	"github.com/goldtouchmobile/booking-relay/pkg/logging"
)

// WebhookHandler receives inbound SMS deliveries from the transport.
//
// The transport deactivates subscriptions that keep failing, so this handler
// acknowledges success no matter what happened internally. Every error is
// logged and swallowed here.
type WebhookHandler struct {
	router        *Router
	deduper       messaging.Deduper
	serviceNumber string
	metrics       *metrics.RelayMetrics
	logger        *logging.Logger
}

// NewWebhookHandler creates the webhook handler. serviceNumber, when set,
// filters out deliveries addressed to other numbers on the same account.
func NewWebhookHandler(router *Router, deduper messaging.Deduper, serviceNumber string, m *metrics.RelayMetrics, logger *logging.Logger) *WebhookHandler {
	if router == nil {
		panic("inbound: router cannot be nil")
	}
	if deduper == nil {
		deduper = messaging.NoopDeduper{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{
		router:        router,
		deduper:       deduper,
		serviceNumber: messaging.NormalizeE164(serviceNumber),
		metrics:       m,
		logger:        logger,
	}
}

// webhookEnvelope matches the transport's payload, which arrives either flat
// or nested under a "message" key depending on the subscription type.
type webhookEnvelope struct {
	Message *webhookMessage `json:"message"`
	webhookMessage
}

type webhookMessage struct {
	ID       json.Number `json:"id"`
	MsgID    json.Number `json:"messageId"`
	Sender   string      `json:"sender"`
	From     string      `json:"from"`
	Receiver string      `json:"receiver"`
	To       string      `json:"to"`
	Text     string      `json:"text"`
	Body     string      `json:"body"`
}

func (m *webhookMessage) messageID() string {
	if id := m.ID.String(); id != "" && id != "0" {
		return id
	}
	return m.MsgID.String()
}

func (m *webhookMessage) sender() string {
	if m.Sender != "" {
		return m.Sender
	}
	return m.From
}

func (m *webhookMessage) receiver() string {
	if m.Receiver != "" {
		return m.Receiver
	}
	return m.To
}

func (m *webhookMessage) text() string {
	if m.Text != "" {
		return m.Text
	}
	return m.Body
}

// Handle serves GET and POST /webhook/sms.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	// The transport's validation ping just wants a 200.
	if r.Method == http.MethodGet {
		h.ok(w)
		return
	}

	started := time.Now()
	outcome := OutcomeDropped
	defer func() {
		h.metrics.ObserveInbound(string(outcome))
		h.metrics.ObserveWebhookLatency(string(outcome), time.Since(started).Seconds())
	}()

	var envelope webhookEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		h.logger.Error("unparseable webhook payload, acknowledging anyway", "error", err)
		h.ok(w)
		return
	}

	msg := &envelope.webhookMessage
	if envelope.Message != nil {
		msg = envelope.Message
	}

	if h.serviceNumber != "" {
		if to := messaging.NormalizeE164(msg.receiver()); to != "" && to != h.serviceNumber {
			h.logger.Info("message not for the service number, ignoring", "to", to)
			h.ok(w)
			return
		}
	}

	if id := msg.messageID(); !h.deduper.FirstDelivery(r.Context(), id) {
		h.ok(w)
		return
	}

	sender := msg.sender()
	text := msg.text()
	if strings.TrimSpace(sender) == "" {
		h.logger.Warn("webhook delivery without sender, acknowledging anyway")
		h.ok(w)
		return
	}

	routed, err := h.router.Route(r.Context(), sender, text, time.Now().UTC())
	outcome = routed
	if err != nil {
		h.logger.Error("inbound routing failed, acknowledging anyway",
			"error", err, "outcome", string(routed))
	}

	h.ok(w)
}

func (h *WebhookHandler) ok(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
