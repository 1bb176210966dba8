package vault

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcitarelli/workflow/internal/cryptox"
	"github.com/dcitarelli/workflow/internal/logging"
)

func newTestLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), newTestLogger())
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	store := newTestStore(t)
	doc, recovery, err := store.Load("secret")
	require.NoError(t, err)
	assert.Equal(t, RecoveryEmpty, recovery)
	assert.Equal(t, int64(DocumentVersion), doc.Version)
	assert.Empty(t, doc.Kanban.Columns)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	doc := DefaultDocument()
	_, err := AddColumn(doc, "Intake")
	require.NoError(t, err)
	require.NoError(t, store.Save("secret", doc))

	// A fresh store forces a real decrypt instead of a cache hit.
	reopened := NewStore(store.Root(), newTestLogger())
	loaded, recovery, err := reopened.Load("secret")
	require.NoError(t, err)
	assert.Equal(t, RecoveryNone, recovery)
	require.Len(t, loaded.Kanban.Columns, 1)
	assert.Equal(t, "Intake", loaded.Kanban.Columns[0].Name)
}

func TestLoadWrongPasswordResets(t *testing.T) {
	store := newTestStore(t)
	doc := DefaultDocument()
	_, err := AddColumn(doc, "Intake")
	require.NoError(t, err)
	require.NoError(t, store.Save("secret", doc))

	reopened := NewStore(store.Root(), newTestLogger())
	loaded, recovery, err := reopened.Load("wrong")
	require.NoError(t, err)
	assert.Equal(t, RecoveryReset, recovery)
	assert.Empty(t, loaded.Kanban.Columns, "wrong password degrades to a default document")

	// The file on disk is untouched, so the right password still works.
	fresh := NewStore(store.Root(), newTestLogger())
	loaded, recovery, err = fresh.Load("secret")
	require.NoError(t, err)
	assert.Equal(t, RecoveryNone, recovery)
	assert.Len(t, loaded.Kanban.Columns, 1)
}

func TestLoadGarbageFileResets(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(store.Root(), DataFile), []byte("not an envelope"), 0o600))

	doc, recovery, err := store.Load("secret")
	require.NoError(t, err)
	assert.Equal(t, RecoveryReset, recovery)
	assert.Empty(t, doc.Kanban.Columns)
}

func TestSaveReusesEnvelopeSalt(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save("secret", DefaultDocument()))

	readSalt := func() string {
		raw, err := os.ReadFile(filepath.Join(store.Root(), DataFile))
		require.NoError(t, err)
		env := &cryptox.Envelope{}
		require.NoError(t, json.Unmarshal(raw, env))
		return env.Salt
	}
	first := readSalt()

	// Even without a warm cache the next save keeps the on-disk salt.
	reopened := NewStore(store.Root(), newTestLogger())
	require.NoError(t, reopened.Save("secret", DefaultDocument()))
	assert.Equal(t, first, readSalt())
}

func TestMetaRoundTrip(t *testing.T) {
	store := newTestStore(t)

	meta, err := store.LoadMeta()
	require.NoError(t, err)
	assert.Equal(t, "current", meta.ActiveDB)
	assert.Empty(t, meta.Databases)

	meta.Databases = append(meta.Databases, MetaEntry{ID: "db-1", Filename: "db-1.enc", Name: "Imported"})
	meta.ActiveDB = "db-1"
	require.NoError(t, store.WriteMeta(meta))

	loaded, err := store.LoadMeta()
	require.NoError(t, err)
	assert.Equal(t, "db-1", loaded.ActiveDB)
	require.Len(t, loaded.Databases, 1)
	assert.Equal(t, "db-1.enc", loaded.Databases[0].Filename)
}

func TestSourcesAndActiveResolution(t *testing.T) {
	store := newTestStore(t)
	meta := &Meta{
		Databases: []MetaEntry{
			{ID: "db-1", Name: "January Export"},
			{ID: "", Name: "skipped"},
			{ID: "db-2", Filename: "feb.enc"},
		},
	}

	sources := store.Sources(meta)
	require.Len(t, sources, 3)
	assert.Equal(t, "current", sources[0].ID)
	assert.False(t, sources[0].Readonly)
	assert.Equal(t, "January Export", sources[1].Name)
	assert.True(t, sources[1].Readonly)
	assert.Equal(t, "feb.enc", sources[2].Name, "filename backs an unnamed entry")

	meta.ActiveDB = "db-2"
	assert.Equal(t, "db-2", store.ResolveActiveSource(meta, sources))
	meta.ActiveDB = "gone"
	assert.Equal(t, "current", store.ResolveActiveSource(meta, sources))
}

func TestStoreImportedAndLoadBySource(t *testing.T) {
	store := newTestStore(t)
	doc := DefaultDocument()
	_, err := AddColumn(doc, "Imported Column")
	require.NoError(t, err)

	entry, err := store.StoreImported(doc, "export.enc", "secret")
	require.NoError(t, err)
	require.NotEmpty(t, entry.ID)

	loaded, err := store.LoadBySource(entry.ID, "secret")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Len(t, loaded.Kanban.Columns, 1)
	assert.Equal(t, "Imported Column", loaded.Kanban.Columns[0].Name)

	missing, err := store.LoadBySource("no-such-source", "secret")
	require.NoError(t, err)
	assert.Nil(t, missing)

	wrong, err := store.ReadImportedByName(entry.Filename, "wrong")
	require.NoError(t, err)
	assert.Nil(t, wrong)
}

func TestSetActiveSource(t *testing.T) {
	store := newTestStore(t)
	entry, err := store.StoreImported(DefaultDocument(), "export.enc", "secret")
	require.NoError(t, err)

	active, err := store.SetActiveSource(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, active)

	active, err = store.SetActiveSource("missing")
	require.NoError(t, err)
	assert.Equal(t, "current", active)
}

func TestBuildDBFilename(t *testing.T) {
	assert.Equal(t, "db-1.enc", BuildDBFilename("db-1"))
	name := BuildDBFilename("  ")
	assert.Contains(t, name, "imported-")
	assert.Contains(t, name, ".enc")
}
