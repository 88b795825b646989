// ABOUTME: Tests for database open, credential persistence, and the reminder log
// ABOUTME: Uses a fresh SQLite file per test under t.TempDir
package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/meetingmate/models"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	database, err := OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestOpenDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")

	database, err := OpenDatabase(dbPath)
	require.NoError(t, err)
	defer database.Close()

	_, err = os.Stat(dbPath)
	require.NoError(t, err, "database file was not created")

	var tables []string
	require.NoError(t, database.Select(&tables,
		"SELECT name FROM sqlite_master WHERE type='table' ORDER BY name"))
	assert.Contains(t, tables, "credentials")
	assert.Contains(t, tables, "reminder_log")

	var mode string
	require.NoError(t, database.Get(&mode, "PRAGMA journal_mode"))
	assert.Equal(t, "wal", mode)

	// Migrating twice is a no-op
	assert.NoError(t, Migrate(database))
}

func TestCredentialMissing(t *testing.T) {
	database := setupTestDB(t)

	cred, err := GetCredential(context.Background(), database)
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestCredentialSaveOverwrites(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

	require.NoError(t, SaveCredential(ctx, database, &models.Credential{
		AccessToken:  "first",
		TokenType:    "Bearer",
		RefreshToken: "refresh",
		Expiry:       expiry,
	}))
	require.NoError(t, SaveCredential(ctx, database, &models.Credential{
		AccessToken: "second",
		TokenType:   "Bearer",
	}))

	cred, err := GetCredential(ctx, database)
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "second", cred.AccessToken)
	assert.Empty(t, cred.RefreshToken)
	assert.True(t, cred.Expiry.IsZero())

	var rows int
	require.NoError(t, database.Get(&rows, "SELECT COUNT(*) FROM credentials"))
	assert.Equal(t, 1, rows)
}

func TestCredentialExpiryRoundTrip(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	expiry := time.Date(2026, 12, 1, 10, 30, 0, 0, time.UTC)

	require.NoError(t, SaveCredential(ctx, database, &models.Credential{AccessToken: "a", Expiry: expiry}))

	cred, err := GetCredential(ctx, database)
	require.NoError(t, err)
	assert.True(t, expiry.Equal(cred.Expiry), "got %v", cred.Expiry)
}

func TestReminderLog(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	log := NewReminderLog(database)
	start := time.Date(2026, 11, 2, 15, 0, 0, 0, time.UTC)

	sent, err := log.WasSent(ctx, "evt1", start, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, sent)

	require.NoError(t, log.Record(ctx, "evt1", start, " Alice@Example.com ", "Team Sync", "msg-1"))

	sent, err = log.WasSent(ctx, "evt1", start, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, sent)

	// Same instant in another zone is the same occurrence
	sent, err = log.WasSent(ctx, "evt1", start.In(time.FixedZone("PST", -8*3600)), "ALICE@example.com")
	require.NoError(t, err)
	assert.True(t, sent)

	// A rescheduled occurrence is not
	sent, err = log.WasSent(ctx, "evt1", start.Add(24*time.Hour), "alice@example.com")
	require.NoError(t, err)
	assert.False(t, sent)

	require.NoError(t, log.Record(ctx, "evt1", start, "alice@example.com", "Team Sync", "msg-2"))
	entries, err := log.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "msg-2", entries[0].MessageID)
	assert.Equal(t, "alice@example.com", entries[0].AttendeeEmail)
}
