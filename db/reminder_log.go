// ABOUTME: Sent-reminder log used to make dispatch idempotent
// ABOUTME: One row per (event, start, attendee) that has been emailed
package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ReminderLogEntry records a reminder that was delivered to the mail provider.
type ReminderLogEntry struct {
	ID            string    `db:"id" json:"id"`
	EventID       string    `db:"event_id" json:"event_id"`
	EventStart    string    `db:"event_start" json:"event_start"`
	AttendeeEmail string    `db:"attendee_email" json:"attendee_email"`
	Summary       string    `db:"summary" json:"summary"`
	MessageID     string    `db:"message_id" json:"message_id"`
	SentAt        time.Time `db:"sent_at" json:"sent_at"`
}

// ReminderLog wraps the reminder_log table.
type ReminderLog struct {
	db *sqlx.DB
}

// NewReminderLog creates a ReminderLog on an open database.
func NewReminderLog(database *sqlx.DB) *ReminderLog {
	return &ReminderLog{db: database}
}

func startKey(start time.Time) string {
	return start.UTC().Format(time.RFC3339)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// WasSent reports whether a reminder for this occurrence was already sent to email.
func (l *ReminderLog) WasSent(ctx context.Context, eventID string, start time.Time, email string) (bool, error) {
	var count int
	err := l.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM reminder_log
		WHERE event_id = ? AND event_start = ? AND attendee_email = ?
	`, eventID, startKey(start), normalizeEmail(email))
	if err != nil {
		return false, fmt.Errorf("failed to query reminder log: %w", err)
	}
	return count > 0, nil
}

// Record stores a delivered reminder. Re-sending the same occurrence updates the row.
func (l *ReminderLog) Record(ctx context.Context, eventID string, start time.Time, email, summary, messageID string) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO reminder_log (id, event_id, event_start, attendee_email, summary, message_id, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id, event_start, attendee_email) DO UPDATE SET
			message_id = excluded.message_id,
			summary = excluded.summary,
			sent_at = excluded.sent_at
	`, uuid.New().String(), eventID, startKey(start), normalizeEmail(email), summary, messageID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record reminder: %w", err)
	}
	return nil
}

// Recent returns the most recently sent reminders, newest first.
func (l *ReminderLog) Recent(ctx context.Context, limit int) ([]ReminderLogEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	var entries []ReminderLogEntry
	err := l.db.SelectContext(ctx, &entries, `
		SELECT id, event_id, event_start, attendee_email, summary, message_id, sent_at
		FROM reminder_log
		ORDER BY sent_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminder log: %w", err)
	}
	return entries, nil
}
