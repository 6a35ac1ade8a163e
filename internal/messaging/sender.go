package messaging

import "context"

// Sender abstracts the outbound SMS transport.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, to, body string) error

// Send calls the wrapped function.
func (f SenderFunc) Send(ctx context.Context, to, body string) error {
	return f(ctx, to, body)
}
