package dormly

import "context"

// Mailer is the outbound email capability. Implementations return an
// error on delivery failure; callers treat that as a recoverable business
// failure, never a crash.
type Mailer interface {
	SendOtpEmail(ctx context.Context, toEmail, code, verificationURL string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, code string) error
}
