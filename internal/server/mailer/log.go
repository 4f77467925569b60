package mailer

import (
	"context"

	"github.com/savelyev/securesms/internal/logging"
)

// LogMailer writes messages to the application log instead of sending them.
// It is the default when no SMTP relay is configured, matching the
// development setup where OTP codes are printed to the console.
// The message body is intentionally not logged verbatim elsewhere; this
// mailer is the one place a code becomes visible, and only in dev.
type LogMailer struct {
	log logging.Logger
}

func NewLogMailer(log logging.Logger) *LogMailer {
	return &LogMailer{log: log.With("module", "mailer")}
}

func (m *LogMailer) Send(ctx context.Context, recipient, subject, body string) error {
	m.log.Info(ctx, "outbound mail (dev mode, not delivered)",
		"recipient", recipient, "subject", subject, "body", body)
	return nil
}
