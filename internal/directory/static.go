package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/goldtouchmobile/booking-relay/internal/messaging"
)

// StaticDirectory serves providers from a JSON file loaded once at startup.
// The file maps provider id to {name, phone}.
type StaticDirectory struct {
	byID    map[string]Provider
	byPhone map[string]Provider
}

// LoadStatic reads a providers JSON file into a StaticDirectory.
func LoadStatic(path string) (*StaticDirectory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("directory: read providers file: %w", err)
	}
	var entries map[string]struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("directory: parse providers file: %w", err)
	}

	d := &StaticDirectory{
		byID:    make(map[string]Provider, len(entries)),
		byPhone: make(map[string]Provider, len(entries)),
	}
	for id, e := range entries {
		p := Provider{ID: id, Name: e.Name, Phone: messaging.NormalizeE164(e.Phone)}
		d.byID[id] = p
		if p.Phone != "" {
			d.byPhone[p.Phone] = p
		}
	}
	return d, nil
}

// NewStatic builds a directory from already-loaded providers. Used in tests.
func NewStatic(providers ...Provider) *StaticDirectory {
	d := &StaticDirectory{
		byID:    make(map[string]Provider, len(providers)),
		byPhone: make(map[string]Provider, len(providers)),
	}
	for _, p := range providers {
		p.Phone = messaging.NormalizeE164(p.Phone)
		d.byID[p.ID] = p
		if p.Phone != "" {
			d.byPhone[p.Phone] = p
		}
	}
	return d
}

// GetByID returns the provider with the given id.
func (d *StaticDirectory) GetByID(ctx context.Context, id string) (*Provider, error) {
	p, ok := d.byID[id]
	if !ok {
		return nil, ErrProviderNotFound
	}
	clone := p
	return &clone, nil
}

// GetByPhone returns the provider with the given normalized phone.
func (d *StaticDirectory) GetByPhone(ctx context.Context, phone string) (*Provider, error) {
	p, ok := d.byPhone[messaging.NormalizeE164(phone)]
	if !ok {
		return nil, ErrProviderNotFound
	}
	clone := p
	return &clone, nil
}

// All returns every provider, sorted by id.
func (d *StaticDirectory) All(ctx context.Context) ([]Provider, error) {
	out := make([]Provider, 0, len(d.byID))
	for _, p := range d.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
