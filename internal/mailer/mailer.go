// Package mailer delivers composed reminder messages over SMTP.
package mailer

import (
	"context"

	"github.com/rotisserie/eris"
)

// ErrAuth marks SMTP authentication failures so callers can distinguish a
// bad credential from a transient transport problem.
var ErrAuth = eris.New("mailer: smtp authentication failed")

// ErrNoRecipients is returned for a message with an empty recipient list.
var ErrNoRecipients = eris.New("mailer: no recipients")

// Message is a fully composed notification. AttachmentPath is optional; a
// path that no longer exists at send time degrades to sending without the
// attachment.
type Message struct {
	From           string
	To             []string
	Subject        string
	Body           string
	AttachmentPath string
}

// Mailer accepts a prepared message and performs transport-level delivery.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
