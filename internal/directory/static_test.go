package directory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStatic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"maria": {"name": "Maria", "phone": "(555) 123-0001"},
		"james": {"name": "James", "phone": "+15551230002"}
	}`), 0o600))

	dir, err := LoadStatic(path)
	require.NoError(t, err)

	p, err := dir.GetByID(context.Background(), "maria")
	require.NoError(t, err)
	assert.Equal(t, "Maria", p.Name)
	assert.Equal(t, "+15551230001", p.Phone, "phones are normalized on load")

	p, err = dir.GetByPhone(context.Background(), "555-123-0002")
	require.NoError(t, err)
	assert.Equal(t, "james", p.ID)

	_, err = dir.GetByID(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrProviderNotFound)

	_, err = dir.GetByPhone(context.Background(), "+15550000000")
	assert.ErrorIs(t, err, ErrProviderNotFound)

	all, err := dir.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "james", all[0].ID, "roster is sorted by id")
}

func TestLoadStaticMissingFile(t *testing.T) {
	_, err := LoadStatic(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadStaticMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.json")
	require.NoError(t, os.WriteFile(path, []byte(`{broken`), 0o600))
	_, err := LoadStatic(path)
	assert.Error(t, err)
}

func TestNewStaticNormalizesPhones(t *testing.T) {
	dir := NewStatic(Provider{ID: "maria", Name: "Maria", Phone: "555 123 0001"})
	p, err := dir.GetByPhone(context.Background(), "+15551230001")
	require.NoError(t, err)
	assert.Equal(t, "maria", p.ID)
}
