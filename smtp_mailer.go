package dormly

import (
	"context"
	"fmt"
	"html"

	goerrors "github.com/goliatone/go-errors"
	"github.com/wneessen/go-mail"
)

// SMTPMailer delivers OTP and reset emails over SMTP. Every send is
// bounded by the configured timeout so a stuck relay cannot hold a request
// hostage.
type SMTPMailer struct {
	opts   MailerOptions
	logger Logger
}

func NewSMTPMailer(opts MailerOptions, logger Logger) *SMTPMailer {
	if logger == nil {
		logger = defLogger{}
	}
	return &SMTPMailer{opts: opts, logger: logger}
}

var _ Mailer = (*SMTPMailer)(nil)

func (s *SMTPMailer) SendOtpEmail(ctx context.Context, toEmail, code, verificationURL string) error {
	subject := "Email Verification - Dormly"
	text := fmt.Sprintf("Your one-time password is %s.\n\nOr open this link to verify your email:\n%s\n", code, verificationURL)
	htmlBody := renderCodeEmail(
		"Email Verification",
		"Thank you for registering. Use the code below to verify your email address.",
		code,
		verificationURL,
		"Verify email",
	)
	return s.send(ctx, toEmail, subject, text, htmlBody)
}

func (s *SMTPMailer) SendPasswordResetEmail(ctx context.Context, toEmail, code string) error {
	subject := "Password Reset - Dormly"
	text := fmt.Sprintf("Your password reset code is %s.\n\nIf you did not request a reset, ignore this email.\n", code)
	htmlBody := renderCodeEmail(
		"Password Reset",
		"Use the code below to reset your password.",
		code,
		"",
		"",
	)
	return s.send(ctx, toEmail, subject, text, htmlBody)
}

func (s *SMTPMailer) send(ctx context.Context, to, subject, textBody, htmlBody string) error {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	m := mail.NewMsg()
	if err := m.FromFormat(s.opts.SenderName, s.opts.From); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid from address")
	}
	if err := m.To(to); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid to address")
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, textBody)
	m.AddAlternativeString(mail.TypeTextHTML, htmlBody)

	tlsPolicy := mail.TLSMandatory
	if s.opts.Insecure {
		tlsPolicy = mail.TLSOpportunistic
	}

	clientOpts := []mail.Option{
		mail.WithPort(s.opts.Port),
		mail.WithTLSPolicy(tlsPolicy),
	}
	if s.opts.Username != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.opts.Username),
			mail.WithPassword(s.opts.Password),
		)
	}

	c, err := mail.NewClient(s.opts.Host, clientOpts...)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "smtp client init failed")
	}

	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		s.logger.Error("smtp send failed", "to", to, "error", err)
		return goerrors.Wrap(err, goerrors.CategoryOperation, "smtp send failed")
	}

	s.logger.Info("email sent", "to", to, "subject", subject)
	return nil
}

func renderCodeEmail(title, intro, code, link, buttonText string) string {
	escTitle := html.EscapeString(title)
	escIntro := html.EscapeString(intro)
	escCode := html.EscapeString(code)

	button := ""
	if link != "" {
		button = `<p><a href="` + html.EscapeString(link) +
			`" style="display:inline-block; padding:10px 14px; text-decoration:none; border-radius:6px; background:#111; color:#fff;">` +
			html.EscapeString(buttonText) + `</a></p>`
	}

	return `<!doctype html>
<html>
  <body style="font-family:Arial,Helvetica,sans-serif; line-height:1.4;">
    <h2>` + escTitle + `</h2>
    <p>` + escIntro + `</p>
    <p style="font-size:28px; font-weight:bold; letter-spacing:5px;">` + escCode + `</p>
    ` + button + `
    <p style="color:#555; font-size:12px;">Do not share this code with anyone. If you did not request it, ignore this email.</p>
  </body>
</html>`
}
