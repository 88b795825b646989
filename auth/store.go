// ABOUTME: Credential store abstraction and the file and SQLite backends
// ABOUTME: Load reports ErrNotAuthenticated when no credential has been saved
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harperreed/meetingmate/db"
	"github.com/harperreed/meetingmate/models"
	"github.com/jmoiron/sqlx"
)

// ErrNotAuthenticated means no credential is stored yet.
var ErrNotAuthenticated = errors.New("authentication required")

// CredentialStore persists the single OAuth credential. Save overwrites.
// Clear succeeds when nothing is stored.
type CredentialStore interface {
	Load(ctx context.Context) (*models.Credential, error)
	Save(ctx context.Context, cred *models.Credential) error
	Clear(ctx context.Context) error
}

// FileStore keeps the credential as JSON in one file.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the credential file.
func (s *FileStore) Load(_ context.Context) (*models.Credential, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var cred models.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("failed to decode token file: %w", err)
	}
	if cred.AccessToken == "" {
		return nil, ErrNotAuthenticated
	}

	return &cred, nil
}

// Save writes the credential with owner-only permissions, replacing any previous one.
func (s *FileStore) Save(_ context.Context, cred *models.Credential) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set token file permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}

	return nil
}

// Clear removes the credential file.
func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// SQLiteStore keeps the credential in the application database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore returns a store backed by the credentials table.
func NewSQLiteStore(database *sqlx.DB) *SQLiteStore {
	return &SQLiteStore{db: database}
}

// Load reads the stored credential row.
func (s *SQLiteStore) Load(ctx context.Context) (*models.Credential, error) {
	cred, err := db.GetCredential(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, ErrNotAuthenticated
	}
	return cred, nil
}

// Save replaces the stored credential row.
func (s *SQLiteStore) Save(ctx context.Context, cred *models.Credential) error {
	return db.SaveCredential(ctx, s.db, cred)
}

// Clear deletes the stored credential row.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	return db.DeleteCredential(ctx, s.db)
}
