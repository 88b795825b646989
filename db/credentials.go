// ABOUTME: Single-slot OAuth credential persistence
// ABOUTME: Save overwrites the stored credential; Get returns nil when none exists
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/meetingmate/models"
	"github.com/jmoiron/sqlx"
)

type credentialRow struct {
	AccessToken  string       `db:"access_token"`
	TokenType    string       `db:"token_type"`
	RefreshToken string       `db:"refresh_token"`
	Expiry       sql.NullTime `db:"expiry"`
}

// GetCredential returns the stored credential, or nil if none has been saved.
func GetCredential(ctx context.Context, db *sqlx.DB) (*models.Credential, error) {
	var row credentialRow
	err := db.GetContext(ctx, &row, `
		SELECT access_token, token_type, refresh_token, expiry
		FROM credentials WHERE id = 1
	`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}

	cred := &models.Credential{
		AccessToken:  row.AccessToken,
		TokenType:    row.TokenType,
		RefreshToken: row.RefreshToken,
	}
	if row.Expiry.Valid {
		cred.Expiry = row.Expiry.Time
	}
	return cred, nil
}

// SaveCredential replaces the stored credential.
func SaveCredential(ctx context.Context, db *sqlx.DB, cred *models.Credential) error {
	expiry := sql.NullTime{Time: cred.Expiry.UTC(), Valid: !cred.Expiry.IsZero()}

	_, err := db.ExecContext(ctx, `
		INSERT INTO credentials (id, access_token, token_type, refresh_token, expiry, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			token_type = excluded.token_type,
			refresh_token = excluded.refresh_token,
			expiry = excluded.expiry,
			updated_at = excluded.updated_at
	`, cred.AccessToken, cred.TokenType, cred.RefreshToken, expiry, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// DeleteCredential removes the stored credential, if any.
func DeleteCredential(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM credentials WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}
