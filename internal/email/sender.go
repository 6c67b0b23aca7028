package email

import "context"

// Sender delivers one plain-text email. SESClient is the production
// implementation; tests record what would have been sent.
type Sender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}
