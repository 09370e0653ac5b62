package prefs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamancini/sdkctl/internal/update"
)

func TestStore_LoadMissingFile(t *testing.T) {
	store := NewStore(t.TempDir())

	p, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, &Prefs{}, p)
}

func TestStore_Path(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	assert.Equal(t, filepath.Join(dir, ".sdkctl", "prefs.yaml"), store.Path())
}

func TestStore_SetSDKPath(t *testing.T) {
	store := NewStore(t.TempDir())

	changed, err := store.SetSDKPath("Assets/AppCenter")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.FileExists(t, store.Path())

	changed, err = store.SetSDKPath("Assets/AppCenter")
	require.NoError(t, err)
	assert.False(t, changed, "same path should not rewrite")

	got, err := store.SDKPath()
	require.NoError(t, err)
	assert.Equal(t, "Assets/AppCenter", got)
}

func TestStore_CheckCacheRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	checked := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

	require.NoError(t, store.SaveCheckCache(update.CheckCache{
		LastChecked:   checked,
		LatestVersion: "4.2.0",
	}))

	cache, err := store.LoadCheckCache()
	require.NoError(t, err)
	assert.True(t, cache.LastChecked.Equal(checked))
	assert.Equal(t, "4.2.0", cache.LatestVersion)
}

func TestStore_UpdatesPreserveOtherFields(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.SetSDKPath("Assets/Vendor/AppCenter")
	require.NoError(t, err)
	require.NoError(t, store.SaveCheckCache(update.CheckCache{LatestVersion: "1.0.0"}))

	p, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "Assets/Vendor/AppCenter", p.SDKPath)
	assert.Equal(t, "1.0.0", p.LatestSDKVersion)
}

func TestStore_LoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sdk_path: [unterminated"), 0644))

	_, err := NewStoreWithPath(path).Load()
	assert.Error(t, err)
}

func TestStore_ImplementsCacheStore(t *testing.T) {
	var _ update.CacheStore = NewStore(t.TempDir())
}
