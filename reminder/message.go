// ABOUTME: Composes the plain-text reminder email
// ABOUTME: Produces an RFC 822 message encoded the way the Gmail send API expects
package reminder

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net/mail"
	"time"

	"github.com/harperreed/meetingmate/models"
)

// Subject is the fixed subject line of every reminder.
const Subject = "Meeting Reminder"

const startLayout = "Monday, January 2, 2006 at 3:04 PM MST"

// Body renders the reminder text for one attendee.
func Body(name string, event models.Event, signature string) string {
	greeting := name
	if greeting == "" {
		greeting = "there"
	}
	return fmt.Sprintf("Hi %s,\n\nThis is a reminder for your upcoming meeting:\n\nDetails:\n%s - %s\n\nBest regards,\n%s",
		greeting, event.Summary, formatStart(event.Start), signature)
}

func formatStart(start time.Time) string {
	if start.IsZero() {
		return "time to be confirmed"
	}
	return start.Format(startLayout)
}

// BuildMessage returns the raw RFC 822 message for one attendee.
func BuildMessage(to models.Attendee, name string, event models.Event, signature string) ([]byte, error) {
	addr := mail.Address{Name: name, Address: to.Email}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "To: %s\r\n", addr.String())
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n")
	buf.WriteString("\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(Body(name, event, signature))); err != nil {
		return nil, fmt.Errorf("failed to encode message body: %w", err)
	}
	if err := qp.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode message body: %w", err)
	}

	return buf.Bytes(), nil
}

// EncodeRaw encodes a message as URL-safe base64 without padding.
func EncodeRaw(msg []byte) string {
	return base64.RawURLEncoding.EncodeToString(msg)
}
