// ABOUTME: Tests for the credential migration utility
// ABOUTME: Copies between file and sqlite stores and checks dry-run leaves the target untouched
package main

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

func stores(t *testing.T) (*auth.FileStore, *auth.SQLiteStore) {
	t.Helper()
	dir := t.TempDir()
	database, err := db.OpenDatabase(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return auth.NewFileStore(filepath.Join(dir, "token.json")), auth.NewSQLiteStore(database)
}

func TestMigrateCopiesCredential(t *testing.T) {
	ctx := context.Background()
	file, sqlite := stores(t)

	cred := &models.Credential{
		AccessToken:  "at",
		TokenType:    "Bearer",
		RefreshToken: "rt",
		Expiry:       time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
	require.NoError(t, file.Save(ctx, cred))

	require.NoError(t, migrate(ctx, file, sqlite, false))

	got, err := sqlite.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rt", got.RefreshToken)
	assert.True(t, cred.Expiry.Equal(got.Expiry))
}

func TestMigrateDryRun(t *testing.T) {
	ctx := context.Background()
	file, sqlite := stores(t)
	require.NoError(t, file.Save(ctx, &models.Credential{AccessToken: "at"}))

	require.NoError(t, migrate(ctx, file, sqlite, true))

	_, err := sqlite.Load(ctx)
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
}

func TestMigrateEmptySource(t *testing.T) {
	file, sqlite := stores(t)
	err := migrate(context.Background(), sqlite, file, false)
	assert.ErrorContains(t, err, "no credential")
}

func TestBackupFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token.json")

	require.NoError(t, backupFile(path))

	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0600))
	require.NoError(t, backupFile(path))

	matches, err := filepath.Glob(path + ".backup.*")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
