package session_test

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapcode/leapsrp/internal/cli/session"
)

const testAPIURL = "https://api.example.org:4430/1"

func setupTestStore(t *testing.T) (*session.Store, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "leapsrp")
	store, err := session.NewStoreAt(dir)
	require.NoError(t, err)
	return store, dir
}

func TestNewStore(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", tmpDir)
	t.Setenv("HOME", tmpDir)

	store, err := session.NewStore()
	require.NoError(t, err)
	assert.NotNil(t, store)

	info, err := os.Stat(filepath.Join(tmpDir, "leapsrp"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestStore_SaveAndLoad(t *testing.T) {
	store, dir := setupTestStore(t)

	cred := &session.Credential{
		APIURL:    testAPIURL,
		Username:  "alice",
		Carrier:   "_session_id",
		Token:     "abc.def",
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save(cred))

	loaded, err := store.Load(testAPIURL)
	require.NoError(t, err)
	assert.Equal(t, cred, loaded)

	hash := sha256.Sum256([]byte(testAPIURL))
	path := filepath.Join(dir, fmt.Sprintf("session-%x.yaml", hash[:8]))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStore_LoadMissing(t *testing.T) {
	store, _ := setupTestStore(t)

	cred, err := store.Load("https://other.example.org/1")
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestStore_SaveRequiresToken(t *testing.T) {
	store, _ := setupTestStore(t)

	assert.Error(t, store.Save(&session.Credential{APIURL: testAPIURL}))
	assert.Error(t, store.Save(&session.Credential{Token: "t"}))
}

func TestStore_Overwrite(t *testing.T) {
	store, _ := setupTestStore(t)

	require.NoError(t, store.Save(&session.Credential{APIURL: testAPIURL, Token: "first"}))
	require.NoError(t, store.Save(&session.Credential{APIURL: testAPIURL, Token: "second"}))

	cred, err := store.Load(testAPIURL)
	require.NoError(t, err)
	assert.Equal(t, "second", cred.Token)
}

func TestStore_Delete(t *testing.T) {
	store, _ := setupTestStore(t)

	require.NoError(t, store.Save(&session.Credential{APIURL: testAPIURL, Token: "t"}))
	require.NoError(t, store.Delete(testAPIURL))

	cred, err := store.Load(testAPIURL)
	require.NoError(t, err)
	assert.Nil(t, cred)

	// Deleting again is not an error.
	assert.NoError(t, store.Delete(testAPIURL))
}

func TestStore_CorruptFile(t *testing.T) {
	store, dir := setupTestStore(t)

	hash := sha256.Sum256([]byte(testAPIURL))
	path := filepath.Join(dir, fmt.Sprintf("session-%x.yaml", hash[:8]))
	require.NoError(t, os.WriteFile(path, []byte("token: [unclosed"), 0o600))

	_, err := store.Load(testAPIURL)
	assert.Error(t, err)
}
