package support

import (
	"context"
	"time"

	"github.com/goldtouchmobile/booking-relay/pkg/logging"
)

// StaticFallback is returned whenever the generative collaborator is missing
// or fails. The router depends on Respond never erroring.
const StaticFallback = "Thanks for your message! Our team will get back to you shortly. " +
	"For bookings, visit goldtouchmobile.com/providers."

const providerSystemPrompt = "You are the support assistant for Gold Touch Mobile, a mobile massage booking service. " +
	"You are replying by SMS to one of our massage providers. Keep replies under 300 characters, " +
	"be practical, and never invent booking details. If the provider asks about a specific booking, " +
	"tell them the details are in the original request message and that support can be reached through this number."

const customerSystemPrompt = "You are the support assistant for Gold Touch Mobile, a mobile massage booking service. " +
	"You are replying by SMS to a customer. Keep replies under 300 characters, be warm and helpful, " +
	"and never invent booking or pricing details. Point customers at goldtouchmobile.com/providers to book."

// Responder answers unclassified messages with role context.
type Responder struct {
	client  LLMClient
	timeout time.Duration
	logger  *logging.Logger
}

// NewResponder creates a responder. A nil client means every call returns
// the static fallback.
func NewResponder(client LLMClient, logger *logging.Logger) *Responder {
	if logger == nil {
		logger = logging.Default()
	}
	return &Responder{client: client, timeout: 10 * time.Second, logger: logger}
}

// WithTimeout overrides the per-call completion timeout.
func (r *Responder) WithTimeout(d time.Duration) *Responder {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Respond returns a reply for the message. Never errors: on any failure the
// static fallback text is returned.
func (r *Responder) Respond(ctx context.Context, message string, role Role) string {
	if r.client == nil {
		return StaticFallback
	}

	prompt := customerSystemPrompt
	if role == RoleProvider {
		prompt = providerSystemPrompt
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	reply, err := r.client.Complete(ctx, prompt, message)
	if err != nil {
		r.logger.Warn("support completion failed, using static fallback", "error", err, "role", string(role))
		return StaticFallback
	}
	return reply
}
