// ABOUTME: Tests for the file and SQLite credential stores
// ABOUTME: Checks missing-credential reporting, overwrite, and file permissions
package auth_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/meetingmate/auth"
	"github.com/harperreed/meetingmate/db"
	"github.com/harperreed/meetingmate/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, store auth.CredentialStore) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, auth.ErrNotAuthenticated)

	require.NoError(t, store.Save(ctx, &models.Credential{
		AccessToken:  "one",
		TokenType:    "Bearer",
		RefreshToken: "r1",
		Expiry:       time.Now().Add(time.Hour),
	}))
	require.NoError(t, store.Save(ctx, &models.Credential{AccessToken: "two", TokenType: "Bearer"}))

	cred, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "two", cred.AccessToken)
	assert.Empty(t, cred.RefreshToken)

	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
	assert.NoError(t, store.Clear(ctx))
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	store := auth.NewFileStore(path)
	exerciseStore(t, store)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	assert.Equal(t, path, store.Path())
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := auth.NewFileStore(path).Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrNotAuthenticated)
}

func TestSQLiteStore(t *testing.T) {
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer database.Close()

	exerciseStore(t, auth.NewSQLiteStore(database))
}
