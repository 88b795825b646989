// ABOUTME: Credential store backed by charm KV
// ABOUTME: Lets several devices share one Google grant through the charm server
package charm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/harperreed/meetingmate/auth"
	"github.com/harperreed/meetingmate/models"
)

// CredentialKey is the KV key holding the serialized credential.
const CredentialKey = "google-credential"

// Store implements auth.CredentialStore on a charm client.
type Store struct {
	client *Client
}

// NewStore wraps client as a credential store.
func NewStore(client *Client) *Store {
	return &Store{client: client}
}

// Load reads the credential from KV.
func (s *Store) Load(_ context.Context) (*models.Credential, error) {
	data, err := s.client.read(CredentialKey)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, auth.ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to read credential from charm: %w", err)
	}

	var cred models.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("failed to decode credential: %w", err)
	}
	return &cred, nil
}

// Save writes the credential to KV, replacing any previous one.
func (s *Store) Save(_ context.Context, cred *models.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}
	if err := s.client.write(CredentialKey, data); err != nil {
		return fmt.Errorf("failed to write credential to charm: %w", err)
	}
	return nil
}

// Clear removes the stored credential.
func (s *Store) Clear(_ context.Context) error {
	if err := s.client.remove(CredentialKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete credential from charm: %w", err)
	}
	return nil
}
