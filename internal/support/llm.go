// Package support answers free-form messages that the router could not map
// to a more specific intent.
package support

import "context"

// Role identifies whose message is being answered; it selects the system
// prompt context.
type Role string

const (
	// RoleProvider marks a message from a known service provider.
	RoleProvider Role = "provider"
	// RoleCustomer marks a message from a verified customer.
	RoleCustomer Role = "customer"
)

// LLMClient is the generative-text collaborator.
type LLMClient interface {
	Complete(ctx context.Context, systemPrompt, message string) (string, error)
}

// LLMClientFunc adapts a function to LLMClient.
type LLMClientFunc func(ctx context.Context, systemPrompt, message string) (string, error)

// Complete calls the wrapped function.
func (f LLMClientFunc) Complete(ctx context.Context, systemPrompt, message string) (string, error) {
	return f(ctx, systemPrompt, message)
}
