package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `{
  "sonyeon_i_onda": {
    "title": "소년이 온다",
    "author": "한강",
    "summary": "5.18 광주를 다룬 장편소설.",
    "keywords": ["광주", "역사", "한강"]
  },
  "chaesikjuuija": {
    "title": "채식주의자",
    "author": "한강",
    "summary": "",
    "keywords": []
  }
}`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "subjects.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	store, err := Load(writeCatalog(t, sampleCatalog))
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())

	rec, ok := store.Get("sonyeon_i_onda")
	require.True(t, ok)
	assert.Equal(t, "sonyeon_i_onda", rec.Key)
	assert.Equal(t, "소년이 온다", rec.Title)
	assert.Equal(t, "한강", rec.Author)

	_, ok = store.Get("no_such_key")
	assert.False(t, ok)
}

func TestLoadMissingFile(t *testing.T) {
	store, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())
	assert.Empty(t, store.Keys())
	assert.Empty(t, store.Choices())
}

func TestLoadMalformedFile(t *testing.T) {
	_, err := Load(writeCatalog(t, "{not json"))
	assert.Error(t, err)
}

func TestChoicesSortedByKey(t *testing.T) {
	store, err := Load(writeCatalog(t, sampleCatalog))
	require.NoError(t, err)

	assert.Equal(t, []string{"chaesikjuuija", "sonyeon_i_onda"}, store.Keys())
	assert.Equal(t, "- chaesikjuuija: 채식주의자\n- sonyeon_i_onda: 소년이 온다", store.Choices())
}

func TestReloadSwapsSnapshot(t *testing.T) {
	path := writeCatalog(t, sampleCatalog)
	store, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())

	require.NoError(t, os.WriteFile(path, []byte(`{"dokgil": {"title": "독길"}}`), 0o644))
	require.NoError(t, store.Reload())

	assert.Equal(t, 1, store.Len())
	_, ok := store.Get("sonyeon_i_onda")
	assert.False(t, ok)
	rec, ok := store.Get("dokgil")
	require.True(t, ok)
	assert.Equal(t, "독길", rec.Title)
}
