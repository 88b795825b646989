// ABOUTME: Maps pipeline errors to boundary status codes and messages
// ABOUTME: Provider detail stays in the logs; callers only see the fixed message
package pipeline

import (
	"errors"
	"net/http"

	"github.com/harperreed/meetingmate/auth"
	"github.com/harperreed/meetingmate/events"
	"github.com/harperreed/meetingmate/reminder"
)

// Boundary messages.
const (
	MsgAuthRequired     = "Authentication required"
	MsgTokenExchange    = "Error retrieving access token"
	MsgTokenSave        = "Error saving access token"
	MsgFetchEvents      = "Error fetching events"
	MsgInvalidEvent     = "Invalid event payload"
	MsgSendFailed       = "Failed to send emails"
	MsgInternal         = "Internal server error"
	MsgAuthenticated    = "Authentication successful"
	MsgEmailsSent       = "Emails sent"
	MsgAllRemindersSent = "All reminders sent"
)

// StatusFor returns the HTTP status and message for err.
func StatusFor(err error) (int, string) {
	var (
		exchangeErr   *auth.ExchangeError
		persistErr    *auth.PersistError
		fetchErr      *events.FetchError
		validationErr *ValidationError
		sendErr       *reminder.SendError
	)

	switch {
	case errors.Is(err, auth.ErrNotAuthenticated):
		return http.StatusBadRequest, MsgAuthRequired
	case errors.As(err, &exchangeErr):
		return http.StatusBadRequest, MsgTokenExchange
	case errors.As(err, &persistErr):
		return http.StatusBadRequest, MsgTokenSave
	case errors.As(err, &fetchErr):
		return http.StatusBadRequest, MsgFetchEvents
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, MsgInvalidEvent
	case errors.As(err, &sendErr):
		return http.StatusInternalServerError, MsgSendFailed
	default:
		return http.StatusInternalServerError, MsgInternal
	}
}
