package store_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitesentry/sitesentry/internal/store"
)

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "storage.json")
	fs := store.NewFileStore(slog.Default(), path)

	snap := store.Snapshot{
		URLs: map[string]store.SiteRecord{
			"evil.com": {Owner: "Mallory", Notes: []string{"phishing", "reported"}},
			"bare.com": {},
		},
		VerifiedTrips: []string{"AAAAAA", "BBBBBB"},
	}
	require.NoError(t, fs.Save(snap))

	loaded, err := fs.Load()
	require.NoError(t, err)
	assert.Equal(t, snap.VerifiedTrips, loaded.VerifiedTrips)
	assert.Equal(t, "Mallory", loaded.URLs["evil.com"].Owner)
	assert.Equal(t, []string{"phishing", "reported"}, loaded.URLs["evil.com"].Notes)

	// Unset fields stay absent on the wire.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"notes":null`)
}

func TestFileStoreLoadMissingFile(t *testing.T) {
	t.Parallel()
	fs := store.NewFileStore(slog.Default(), filepath.Join(t.TempDir(), "nope.json"))

	_, err := fs.Load()
	assert.Error(t, err)
}

func TestFileStoreLoadCorruptFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	fs := store.NewFileStore(slog.Default(), path)
	_, err := fs.Load()
	assert.Error(t, err)
}

func TestFileStoreLoadLegacyShape(t *testing.T) {
	t.Parallel()
	// Storage written by the JavaScript predecessor.
	path := filepath.Join(t.TempDir(), "storage.json")
	legacy := `{"urls":{"evil.com":{"owner":"Mallory","notes":["bad"]}},"verifiedTrips":["AAAAAA"]}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	fs := store.NewFileStore(slog.Default(), path)
	snap, err := fs.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"AAAAAA"}, snap.VerifiedTrips)
	assert.Equal(t, "Mallory", snap.URLs["evil.com"].Owner)
}

func TestFileStoreLoadEmptyURLMap(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"verifiedTrips":[]}`), 0o644))

	fs := store.NewFileStore(slog.Default(), path)
	snap, err := fs.Load()
	require.NoError(t, err)
	assert.NotNil(t, snap.URLs)
}

func TestSnapshotClone(t *testing.T) {
	t.Parallel()
	snap := store.Snapshot{
		URLs:          map[string]store.SiteRecord{"a.com": {Notes: []string{"x"}}},
		VerifiedTrips: []string{"AAAAAA"},
	}
	clone := snap.Clone()
	clone.URLs["a.com"].Notes[0] = "mutated"
	clone.VerifiedTrips[0] = "CHANGED"

	assert.Equal(t, "x", snap.URLs["a.com"].Notes[0])
	assert.Equal(t, "AAAAAA", snap.VerifiedTrips[0])
}
