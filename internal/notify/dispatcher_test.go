package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goldtouchmobile/booking-relay/internal/audit"
	"github.com/goldtouchmobile/booking-relay/internal/messaging"
)

type recordingSender struct {
	sent []string
	err  error
}

func (r *recordingSender) Send(ctx context.Context, to, body string) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, to+": "+body)
	return nil
}

func TestDispatcherSendWrapsErrors(t *testing.T) {
	sender := &recordingSender{err: errors.New("boom")}
	d := NewDispatcher(sender, nil, nil)

	err := d.Send(context.Background(), "+15551234567", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "+15551234567")
}

func TestDispatcherSendOnceOnlyFirstCallSends(t *testing.T) {
	sender := &recordingSender{}
	store := audit.NewInMemoryStore()
	d := NewDispatcher(sender, store, nil)
	ctx := context.Background()

	require.NoError(t, d.SendOnce(ctx, "+15551234567", audit.KindRedirect, "+15551234567", "welcome"))
	require.NoError(t, d.SendOnce(ctx, "+15551234567", audit.KindRedirect, "+15551234567", "welcome"))

	assert.Len(t, sender.sent, 1, "repeat SendOnce is a no-op")

	sent, err := d.AlreadySent(ctx, "+15551234567", audit.KindRedirect)
	require.NoError(t, err)
	assert.True(t, sent)
}

func TestDispatcherSendOnceDifferentSubjects(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, audit.NewInMemoryStore(), nil)
	ctx := context.Background()

	require.NoError(t, d.SendOnce(ctx, "+15551111111", audit.KindRedirect, "+15551111111", "a"))
	require.NoError(t, d.SendOnce(ctx, "+15552222222", audit.KindRedirect, "+15552222222", "b"))
	assert.Len(t, sender.sent, 2)
}

var _ messaging.Sender = (*recordingSender)(nil)
