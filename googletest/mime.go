// ABOUTME: Helpers for decoding the RFC 822 messages the fake receives
// ABOUTME: Handles encoded-word headers and quoted-printable bodies
package googletest

import (
	"io"
	"mime"
	"mime/quotedprintable"
	"net/mail"
	"strings"
)

type mimeDecoder = mime.WordDecoder

func readAll(msg *mail.Message) string {
	var r io.Reader = msg.Body
	if strings.EqualFold(msg.Header.Get("Content-Transfer-Encoding"), "quoted-printable") {
		r = quotedprintable.NewReader(msg.Body)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return ""
	}
	return strings.ReplaceAll(string(data), "\r\n", "\n")
}
