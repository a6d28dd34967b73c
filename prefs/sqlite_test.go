package prefs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")

	store, err := OpenSQLite(path)
	require.NoError(t, err)
	defer store.Close()

	_, found, err := store.Get(KeySessionToken)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(KeySessionToken, "tok-1"))
	require.NoError(t, store.Set(KeySessionToken, "tok-2"), "upsert must replace")

	value, found, err := store.Get(KeySessionToken)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "tok-2", value)

	require.NoError(t, store.Delete(KeySessionToken))
	require.NoError(t, store.Delete(KeySessionToken), "deleting absent key is not an error")

	_, found, err = store.Get(KeySessionToken)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")

	store, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(KeyDashboardTourCompleted, "true"))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	value, found, err := reopened.Get(KeyDashboardTourCompleted)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "true", value)
}
