// Package directory resolves provider identities. Callers never know which
// backing store is in use; they only see the Directory interface.
package directory

import (
	"context"
	"errors"
)

// ErrProviderNotFound is returned when no provider matches the lookup.
var ErrProviderNotFound = errors.New("provider not found")

// Provider is a known service provider. Read-only to the rest of the system.
type Provider struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Directory looks up providers by id or by normalized phone.
type Directory interface {
	GetByID(ctx context.Context, id string) (*Provider, error)
	GetByPhone(ctx context.Context, phone string) (*Provider, error)
	All(ctx context.Context) ([]Provider, error)
}
