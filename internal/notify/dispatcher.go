// Package notify formats outbound messages and hands them to the SMS
// transport, with an audit-log guard for messages that must go out at most
// once per subject.
package notify

import (
	"context"
	"fmt"

	"github.com/goldtouchmobile/booking-relay/internal/audit"
	"github.com/goldtouchmobile/booking-relay/internal/messaging"
	"github.com/goldtouchmobile/booking-relay/internal/observability/metrics"
	"github.com/goldtouchmobile/booking-relay/pkg/logging"
)

// Dispatcher is a thin send wrapper over the transport.
type Dispatcher struct {
	sender  messaging.Sender
	audit   audit.Store
	metrics *metrics.RelayMetrics
	logger  *logging.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(sender messaging.Sender, auditStore audit.Store, logger *logging.Logger) *Dispatcher {
	if sender == nil {
		panic("notify: sender cannot be nil")
	}
	if auditStore == nil {
		auditStore = audit.NewInMemoryStore()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{sender: sender, audit: auditStore, logger: logger}
}

// WithMetrics attaches outbound counters.
func (d *Dispatcher) WithMetrics(m *metrics.RelayMetrics) *Dispatcher {
	d.metrics = m
	return d
}

// Send dispatches one message.
func (d *Dispatcher) Send(ctx context.Context, to, body string) error {
	if err := d.sender.Send(ctx, to, body); err != nil {
		d.metrics.ObserveOutbound("failed")
		return fmt.Errorf("notify: send to %s: %w", to, err)
	}
	d.metrics.ObserveOutbound("sent")
	return nil
}

// SendOnce dispatches the message only if no audit entry exists for
// (subject, kind), and records the entry after sending. MarkSent is the
// atomic claim, so concurrent callers cannot both send.
func (d *Dispatcher) SendOnce(ctx context.Context, subject, kind, to, body string) error {
	claimed, err := d.audit.MarkSent(ctx, subject, kind)
	if err != nil {
		return fmt.Errorf("notify: audit claim %s/%s: %w", subject, kind, err)
	}
	if !claimed {
		d.logger.Info("one-time message already sent, skipping", "subject", subject, "kind", kind)
		return nil
	}
	if err := d.sender.Send(ctx, to, body); err != nil {
		d.metrics.ObserveOutbound("failed")
		return fmt.Errorf("notify: send once to %s: %w", to, err)
	}
	d.metrics.ObserveOutbound("sent")
	return nil
}

// AlreadySent exposes the audit existence check for callers that need to
// decide before formatting.
func (d *Dispatcher) AlreadySent(ctx context.Context, subject, kind string) (bool, error) {
	return d.audit.AlreadySent(ctx, subject, kind)
}

// MarkSent records an audit entry without sending. The follow-up scheduler
// uses this to write its entry only after both legs were attempted.
func (d *Dispatcher) MarkSent(ctx context.Context, subject, kind string) (bool, error) {
	return d.audit.MarkSent(ctx, subject, kind)
}
