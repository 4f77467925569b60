// Package mailer provides the outbound mail port used for OTP delivery.
// Delivery is best-effort: the login flow logs failures and keeps the issued
// code valid.
package mailer

import "context"

// Mailer sends a single plaintext message.
type Mailer interface {
	Send(ctx context.Context, recipient, subject, body string) error
}
